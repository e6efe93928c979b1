package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/AxelFernandez/agua-andre-sub000/internal/boleta/detalle"
	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListBoletas(c *gin.Context) {
	var query boletadomain.ListRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	query.UsuarioID = strings.TrimSpace(query.UsuarioID)
	query.Estado = strings.TrimSpace(query.Estado)
	if usuarioID, ok := esCliente(c); ok {
		query.UsuarioID = usuarioID
	}

	resp, err := s.boletaSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListBoletasPorUsuario(c *gin.Context) {
	resp, err := s.boletaSvc.ListPorUsuario(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBoleta(c *gin.Context) {
	resp, err := s.boletaPropia(c, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GetBoletaDetalle returns the composed sections of the invoice detail.
func (s *Server) GetBoletaDetalle(c *gin.Context) {
	resp, err := s.boletaPropia(c, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": detalle.Componer(*resp)})
}

func (s *Server) RenderBoleta(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := s.boletaPropia(c, id); err != nil {
		AbortWithError(c, err)
		return
	}

	html, err := s.boletaSvc.RenderHTML(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (s *Server) GenerarBoleta(c *gin.Context) {
	var req boletadomain.GenerarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.UsuarioID = strings.TrimSpace(req.UsuarioID)

	resp, err := s.boletaSvc.GenerarIndividual(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GenerarBoletasMasivas(c *gin.Context) {
	var req boletadomain.GenerarMasivoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.boletaSvc.GenerarMasivo(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RecalcularBoleta(c *gin.Context) {
	resp, err := s.boletaSvc.Recalcular(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListBoletasPeriodo(c *gin.Context) {
	var query boletadomain.PeriodoRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.boletaSvc.ListPeriodo(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PDFBoleta(c *gin.Context) {
	b, err := s.boletaPropia(c, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	body, err := s.boletaSvc.PDF(c.Request.Context(), b.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeAttachment(c, fmt.Sprintf("boleta-%s.pdf", b.Numero), "application/pdf", body)
}

func (s *Server) PDFBoletasPeriodo(c *gin.Context) {
	var query boletadomain.PeriodoRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	body, err := s.boletaSvc.PDFPeriodo(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeAttachment(c, fmt.Sprintf("boletas-%04d-%02d.pdf", query.Anio, query.Mes), "application/pdf", body)
}

// boletaPropia loads a boleta and hides it from clientes that do not own it.
func (s *Server) boletaPropia(c *gin.Context, id string) (*boletadomain.Response, error) {
	resp, err := s.boletaSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if usuarioID, ok := esCliente(c); ok && resp.UsuarioID != usuarioID {
		return nil, ErrForbidden
	}
	return resp, nil
}
