package server

import (
	"net/http"

	estadisticasdomain "github.com/AxelFernandez/agua-andre-sub000/internal/estadisticas/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ResumenEstadisticas(c *gin.Context) {
	resp, err := s.estadisticasSvc.Resumen(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) TendenciasEstadisticas(c *gin.Context) {
	meses, err := parseOptionalInt(c.Query("meses"))
	if err != nil {
		AbortWithError(c, estadisticasdomain.ErrInvalidMeses)
		return
	}

	resp, err := s.estadisticasSvc.Tendencias(c.Request.Context(), estadisticasdomain.TendenciasRequest{Meses: meses})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeudaPorZona(c *gin.Context) {
	resp, err := s.estadisticasSvc.DeudaPorZona(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) TopDeudaClientes(c *gin.Context) {
	limit, err := parseOptionalInt(c.Query("limit"))
	if err != nil {
		AbortWithError(c, estadisticasdomain.ErrInvalidLimit)
		return
	}

	resp, err := s.estadisticasSvc.TopDeudaClientes(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
