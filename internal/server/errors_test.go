package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	authdomain "github.com/AxelFernandez/agua-andre-sub000/internal/auth/domain"
	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	estadodomain "github.com/AxelFernandez/agua-andre-sub000/internal/estadoservicio/domain"
	importaciondomain "github.com/AxelFernandez/agua-andre-sub000/internal/importacion/domain"
	pagodomain "github.com/AxelFernandez/agua-andre-sub000/internal/pago/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/calculo"
	zonadomain "github.com/AxelFernandez/agua-andre-sub000/internal/zona/domain"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		kind    string
		message string
	}{
		{"deuda pendiente", estadodomain.ErrDeudaPendiente, http.StatusUnprocessableEntity, typeBusinessRule, "El usuario tiene deuda pendiente"},
		{"wrapped conflict", fmt.Errorf("generar: %w", boletadomain.ErrBoletaExistente), http.StatusConflict, typeConflict, "Ya existe una boleta para ese período"},
		{"session expired", authdomain.ErrSessionExpired, http.StatusUnauthorized, typeExpired, "La sesión expiró, ingrese nuevamente"},
		{"boleta ajena", pagodomain.ErrBoletaAjena, http.StatusForbidden, typeForbidden, "La boleta no pertenece al usuario"},
		{"not found", zonadomain.ErrNotFound, http.StatusNotFound, typeNotFound, "Zona no encontrada"},
		{"validation", zonadomain.ErrInvalidNombre, http.StatusBadRequest, typeValidation, "El nombre es obligatorio"},
		{"escalas", calculo.ErrEscalaInicial, http.StatusBadRequest, typeValidation, calculo.ErrEscalaInicial.Error()},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, typeInternal, "Error interno del servidor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, payload := mapError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.kind, payload.Type)
			assert.Equal(t, tt.message, payload.Message)
		})
	}
}

func TestMapError_ValidationField(t *testing.T) {
	status, payload := mapError(zonadomain.ErrInvalidValor)
	assert.Equal(t, http.StatusBadRequest, status)
	if assert.Len(t, payload.Errors, 1) {
		assert.Equal(t, "valor", payload.Errors[0].Field)
		assert.Equal(t, "invalid_valor", payload.Errors[0].Code)
	}
}

func TestMapError_TransicionInvalida(t *testing.T) {
	err := &estadodomain.TransicionInvalidaError{Actual: estadodomain.EstadoAvisoDeuda, Disparador: estadodomain.DisparadorReconexion}
	status, payload := mapError(fmt.Errorf("reconectar: %w", err))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, err.Error(), payload.Message)
}

func TestMapError_EncabezadosFaltantes(t *testing.T) {
	err := fmt.Errorf("%w: ZONA, DIRE01", importaciondomain.ErrEncabezadosFaltantes)
	status, payload := mapError(err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Faltan columnas obligatorias: ZONA, DIRE01", payload.Message)
}
