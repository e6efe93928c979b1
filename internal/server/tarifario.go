package server

import (
	"net/http"
	"strings"

	estadodomain "github.com/AxelFernandez/agua-andre-sub000/internal/estadoservicio/domain"
	tarifariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) GetTarifarioActivo(c *gin.Context) {
	resp, err := s.tarifarioSvc.GetActivo(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ActualizarTarifarioActivo(c *gin.Context) {
	var req tarifariodomain.ActualizarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Nombre = strings.TrimSpace(req.Nombre)

	resp, err := s.tarifarioSvc.ActualizarActivo(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetConfiguracionAvisos(c *gin.Context) {
	resp, err := s.tarifarioSvc.GetConfiguracion(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ActualizarConfiguracionAvisos(c *gin.Context) {
	var req tarifariodomain.ConfiguracionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tarifarioSvc.ActualizarConfiguracion(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCargosExtras(c *gin.Context) {
	resp, err := s.tarifarioSvc.ListCargosExtras(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AplicarCargoExtra(c *gin.Context) {
	var req tarifariodomain.AplicarCargoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.UsuarioID = strings.TrimSpace(req.UsuarioID)
	req.Concepto = strings.TrimSpace(req.Concepto)

	resp, err := s.tarifarioSvc.AplicarCargo(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) VerificarEstados(c *gin.Context) {
	resp, err := s.estadoSvc.VerificarEstados(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) Reconectar(c *gin.Context) {
	var req estadodomain.ReconectarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.UsuarioID = strings.TrimSpace(c.Param("usuarioId"))

	resp, err := s.estadoSvc.Reconectar(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
