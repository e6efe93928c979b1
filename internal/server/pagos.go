package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	pagodomain "github.com/AxelFernandez/agua-andre-sub000/internal/pago/domain"
	"github.com/gin-gonic/gin"
)

// multipartOverhead leaves room for form fields around the file part.
const multipartOverhead = 1 << 20

// RegistrarComprobante takes multipart fields comprobante, monto and boletaId.
func (s *Server) RegistrarComprobante(c *gin.Context) {
	maxBytes := s.operacionConfig().Pagos.ComprobanteMaxBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	file, err := c.FormFile("comprobante")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			AbortWithError(c, pagodomain.ErrComprobanteTamanio)
			return
		}
		AbortWithError(c, pagodomain.ErrComprobanteRequerido)
		return
	}
	if file.Size > maxBytes {
		AbortWithError(c, pagodomain.ErrComprobanteTamanio)
		return
	}

	monto, err := parseMonto(c.PostForm("monto"))
	if err != nil {
		AbortWithError(c, pagodomain.ErrInvalidMonto)
		return
	}

	f, err := file.Open()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer f.Close()

	resp, err := s.pagoSvc.RegistrarComprobante(c.Request.Context(), pagodomain.ComprobanteRequest{
		BoletaID:      strings.TrimSpace(c.PostForm("boletaId")),
		Monto:         monto,
		NombreArchivo: file.Filename,
		Archivo:       f,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) RegistrarPagoEfectivo(c *gin.Context) {
	var req pagodomain.EfectivoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.BoletaID = strings.TrimSpace(req.BoletaID)
	req.Observaciones = strings.TrimSpace(req.Observaciones)

	resp, err := s.pagoSvc.RegistrarEfectivo(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListPagosPendientes(c *gin.Context) {
	resp, err := s.pagoSvc.ListPendientesRevision(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPagosPorBoleta(c *gin.Context) {
	resp, err := s.pagoSvc.ListPorBoleta(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AprobarPago(c *gin.Context) {
	resp, err := s.pagoSvc.Aprobar(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RechazarPago(c *gin.Context) {
	var req pagodomain.RechazarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))
	req.Observaciones = strings.TrimSpace(req.Observaciones)

	resp, err := s.pagoSvc.Rechazar(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DescargarComprobante(c *gin.Context) {
	archivo, err := s.pagoSvc.Comprobante(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer archivo.Contenido.Close()

	c.DataFromReader(http.StatusOK, -1, archivo.ContentType, archivo.Contenido, map[string]string{
		"Content-Disposition": "inline; filename=\"" + archivo.Nombre + "\"",
	})
}

func (s *Server) DescargarRecibo(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	body, err := s.pagoSvc.Recibo(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeAttachment(c, fmt.Sprintf("recibo-%s.pdf", id), "application/pdf", body)
}

func (s *Server) operacionConfig() config.OperacionConfig {
	if s.operacion == nil {
		return config.DefaultOperacionConfig()
	}
	return s.operacion.Get()
}
