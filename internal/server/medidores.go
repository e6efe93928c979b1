package server

import (
	"net/http"
	"strings"

	medidordomain "github.com/AxelFernandez/agua-andre-sub000/internal/medidor/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) AsignarMedidor(c *gin.Context) {
	var req medidordomain.AsignarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.UsuarioID = strings.TrimSpace(c.Param("usuarioId"))
	req.NumeroSerie = strings.TrimSpace(req.NumeroSerie)

	resp, err := s.medidorSvc.Asignar(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) DarDeBajaMedidor(c *gin.Context) {
	var req medidordomain.BajaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.medidorSvc.DarDeBaja(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) VerificarSerie(c *gin.Context) {
	resp, err := s.medidorSvc.VerificarSerie(c.Request.Context(), strings.TrimSpace(c.Param("serie")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListMedidores(c *gin.Context) {
	resp, err := s.medidorSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListMedidoresPorUsuario(c *gin.Context) {
	resp, err := s.medidorSvc.ListPorUsuario(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetMedidor(c *gin.Context) {
	resp, err := s.medidorSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// medidorPropio checks that a cliente only reads its own meter.
func (s *Server) medidorPropio(c *gin.Context, medidorID string) error {
	usuarioID, ok := esCliente(c)
	if !ok {
		return nil
	}
	m, err := s.medidorSvc.GetByID(c.Request.Context(), medidorID)
	if err != nil {
		return err
	}
	if m.UsuarioID != usuarioID {
		return ErrForbidden
	}
	return nil
}
