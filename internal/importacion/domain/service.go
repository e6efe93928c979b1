package domain

import (
	"context"
	"errors"
)

// Service imports customers from the legacy padron export: a semicolon
// separated file with NOMBRE, ZONA, PADRON and DIRE01 columns.
type Service interface {
	Preview(ctx context.Context, archivo []byte) (*PreviewResponse, error)
	Importar(ctx context.Context, archivo []byte) (*ImportResponse, error)
}

var RequiredHeaders = []string{"NOMBRE", "ZONA", "PADRON", "DIRE01"}

type FilaError struct {
	Fila  int    `json:"fila"`
	Error string `json:"error"`
}

type FilaPreview struct {
	Fila      int    `json:"fila"`
	Nombre    string `json:"nombre"`
	Zona      string `json:"zona"`
	Padron    string `json:"padron"`
	Direccion string `json:"direccion"`
	Existente bool   `json:"existente"`
	Valida    bool   `json:"valida"`
	Error     string `json:"error,omitempty"`
}

type PreviewResponse struct {
	Total   int           `json:"total"`
	Validas int           `json:"validas"`
	Filas   []FilaPreview `json:"filas"`
	Errores []FilaError   `json:"errores"`
}

// ImportResponse counts every data row exactly once:
// importadas + omitidas + len(errores) == total.
type ImportResponse struct {
	Total      int         `json:"total"`
	Validas    int         `json:"validas"`
	Importadas int         `json:"importadas"`
	Omitidas   int         `json:"omitidas"`
	Errores    []FilaError `json:"errores"`
}

var (
	ErrArchivoVacio         = errors.New("archivo_vacio")
	ErrArchivoMuyGrande     = errors.New("archivo_muy_grande")
	ErrCSVInvalido          = errors.New("csv_invalido")
	ErrEncabezadosFaltantes = errors.New("encabezados_faltantes")
)
