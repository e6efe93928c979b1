package cliente

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ValidacionError is raised before any request is sent.
type ValidacionError struct {
	Campo   string
	Mensaje string
}

func (e *ValidacionError) Error() string {
	return e.Mensaje
}

func invalido(campo, mensaje string) error {
	return &ValidacionError{Campo: campo, Mensaje: mensaje}
}

// EsValidacion reports whether err was raised locally.
func EsValidacion(err error) bool {
	var vErr *ValidacionError
	return errors.As(err, &vErr)
}

const mensajeMonto = "Ingrese el monto sin separador de miles, con hasta dos decimales (ej. 15000 o 15000,50)"

// parseMonto reads an amount typed by a person: "15000", "15000.50" or
// "15000,50". More than two decimals is refused: "15,000" or "15.000"
// are thousands groupings, not fifteen pesos.
func parseMonto(value string) (decimal.Decimal, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return decimal.Zero, false
	}
	if !strings.Contains(trimmed, ".") {
		trimmed = strings.Replace(trimmed, ",", ".", 1)
	}
	if i := strings.IndexByte(trimmed, '.'); i >= 0 && len(trimmed)-i-1 > 2 {
		return decimal.Zero, false
	}
	monto, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, false
	}
	return monto, true
}
