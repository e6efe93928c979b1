package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	importacion "github.com/AxelFernandez/agua-andre-sub000/internal/importacion/domain"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type filaCSV struct {
	Numero    int
	Nombre    string `validate:"required,max=200"`
	Zona      string `validate:"required,max=60"`
	Padron    string `validate:"required,padron"`
	Direccion string `validate:"max=300"`
}

// decodificar returns the file as UTF-8. Exports from the legacy system are
// Windows-1252 when they are not valid UTF-8.
func decodificar(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", importacion.ErrCSVInvalido, err)
	}
	return decoded, nil
}

// leerFilas parses the header and returns the data rows numbered as they
// appear in the file, the header being row 1. Blank lines are skipped.
func leerFilas(data []byte) ([]filaCSV, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, importacion.ErrArchivoVacio
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", importacion.ErrCSVInvalido, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	var faltantes []string
	for _, required := range importacion.RequiredHeaders {
		if _, ok := index[required]; !ok {
			faltantes = append(faltantes, required)
		}
	}
	if len(faltantes) > 0 {
		return nil, fmt.Errorf("%w: %s", importacion.ErrEncabezadosFaltantes, strings.Join(faltantes, ", "))
	}

	field := func(record []string, name string) string {
		i := index[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var filas []filaCSV
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", importacion.ErrCSVInvalido, err)
		}
		line, _ := reader.FieldPos(0)
		if blank(record) {
			continue
		}
		filas = append(filas, filaCSV{
			Numero:    line,
			Nombre:    field(record, "NOMBRE"),
			Zona:      field(record, "ZONA"),
			Padron:    field(record, "PADRON"),
			Direccion: field(record, "DIRE01"),
		})
	}
	return filas, nil
}

func blank(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
