package server

import (
	"errors"
	"io"
	"net/http"

	importaciondomain "github.com/AxelFernandez/agua-andre-sub000/internal/importacion/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) PreviewImportacion(c *gin.Context) {
	archivo, err := s.leerCSV(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.importacionSvc.Preview(c.Request.Context(), archivo)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ImportarUsuarios(c *gin.Context) {
	archivo, err := s.leerCSV(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.importacionSvc.Importar(c.Request.Context(), archivo)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// leerCSV reads the "file" multipart part, bounded by the configured size.
func (s *Server) leerCSV(c *gin.Context) ([]byte, error) {
	maxBytes := s.operacionConfig().Importacion.CSVMaxBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, importaciondomain.ErrArchivoMuyGrande
		}
		return nil, importaciondomain.ErrArchivoVacio
	}
	if file.Size > maxBytes {
		return nil, importaciondomain.ErrArchivoMuyGrande
	}

	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxBytes+1))
}
