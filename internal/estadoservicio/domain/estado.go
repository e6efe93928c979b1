package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Estado is the service state of a customer connection.
type Estado string

const (
	EstadoActivo     Estado = "ACTIVO"
	EstadoAvisoDeuda Estado = "AVISO_DEUDA"
	EstadoAvisoCorte Estado = "AVISO_CORTE"
	EstadoCortado    Estado = "CORTADO"
)

// Disparador is the event that moves a customer between states.
type Disparador string

const (
	DisparadorAvisoDeuda Disparador = "AVISO_DEUDA"
	DisparadorAvisoCorte Disparador = "AVISO_CORTE"
	DisparadorCorte      Disparador = "CORTE"
	DisparadorReconexion Disparador = "RECONEXION"
)

var Estados = []Estado{EstadoActivo, EstadoAvisoDeuda, EstadoAvisoCorte, EstadoCortado}

var Disparadores = []Disparador{DisparadorAvisoDeuda, DisparadorAvisoCorte, DisparadorCorte, DisparadorReconexion}

// transiciones is the only source of truth for allowed state changes.
var transiciones = map[Estado]map[Disparador]Estado{
	EstadoActivo: {
		DisparadorAvisoDeuda: EstadoAvisoDeuda,
	},
	EstadoAvisoDeuda: {
		DisparadorAvisoCorte: EstadoAvisoCorte,
	},
	EstadoAvisoCorte: {
		DisparadorCorte: EstadoCortado,
	},
	EstadoCortado: {
		DisparadorReconexion: EstadoActivo,
	},
}

// TransicionInvalidaError reports a trigger that the current state does not accept.
type TransicionInvalidaError struct {
	Actual     Estado
	Disparador Disparador
}

func (e *TransicionInvalidaError) Error() string {
	if e.Disparador == DisparadorReconexion {
		return fmt.Sprintf("Solo se puede reconectar un servicio CORTADO (estado actual: %s)", e.Actual)
	}
	return fmt.Sprintf("transición inválida: %s no admite %s", e.Actual, e.Disparador)
}

func (e Estado) Valido() bool {
	_, ok := transiciones[e]
	return ok
}

// Siguiente returns the state reached from actual when disparador fires.
func Siguiente(actual Estado, disparador Disparador) (Estado, error) {
	if next, ok := transiciones[actual][disparador]; ok {
		return next, nil
	}
	return actual, &TransicionInvalidaError{Actual: actual, Disparador: disparador}
}

// PuedeReconectar reports whether the reconnection workflow may be offered.
func PuedeReconectar(actual Estado, dadoDeBaja bool) bool {
	if dadoDeBaja {
		return false
	}
	_, err := Siguiente(actual, DisparadorReconexion)
	return err == nil
}

// Deuda summarises the unpaid boletas of a customer.
type Deuda struct {
	BoletasVencidas int
	Monto           decimal.Decimal
}

// Umbrales are the debt-escalation thresholds. A zero value disables the
// corresponding check.
type Umbrales struct {
	AvisoDeudaMeses       int
	AvisoDeudaMonto       decimal.Decimal
	AvisoCorteMeses       int
	AvisoCorteMonto       decimal.Decimal
	AvisoCorteDiasDespues int
	CorteDiasDespues      int
}

// Evaluar decides which trigger, if any, the debt of a customer fires.
// desde is when the customer entered the current state.
func Evaluar(actual Estado, desde time.Time, deuda Deuda, u Umbrales, now time.Time) (Disparador, bool) {
	switch actual {
	case EstadoActivo:
		if superaUmbral(deuda, u.AvisoDeudaMeses, u.AvisoDeudaMonto) {
			return DisparadorAvisoDeuda, true
		}
	case EstadoAvisoDeuda:
		if !transcurrido(desde, u.AvisoCorteDiasDespues, now) {
			return "", false
		}
		if superaUmbral(deuda, u.AvisoCorteMeses, u.AvisoCorteMonto) {
			return DisparadorAvisoCorte, true
		}
	case EstadoAvisoCorte:
		if !transcurrido(desde, u.CorteDiasDespues, now) {
			return "", false
		}
		if deuda.BoletasVencidas > 0 || deuda.Monto.IsPositive() {
			return DisparadorCorte, true
		}
	}
	return "", false
}

func superaUmbral(deuda Deuda, meses int, monto decimal.Decimal) bool {
	if meses > 0 && deuda.BoletasVencidas >= meses {
		return true
	}
	if monto.IsPositive() && deuda.Monto.GreaterThanOrEqual(monto) {
		return true
	}
	return false
}

func transcurrido(desde time.Time, dias int, now time.Time) bool {
	if dias <= 0 || desde.IsZero() {
		return true
	}
	return !now.Before(desde.AddDate(0, 0, dias))
}
