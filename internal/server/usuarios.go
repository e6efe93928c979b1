package server

import (
	"net/http"
	"strings"

	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) CreateUsuario(c *gin.Context) {
	var req usuariodomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.usuarioSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListUsuarios(c *gin.Context) {
	var query usuariodomain.ListRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.usuarioSvc.List(c.Request.Context(), usuariodomain.ListRequest{
		Rol:            strings.TrimSpace(query.Rol),
		ZonaID:         strings.TrimSpace(query.ZonaID),
		EstadoServicio: strings.TrimSpace(query.EstadoServicio),
		Busqueda:       strings.TrimSpace(query.Busqueda),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetUsuario(c *gin.Context) {
	resp, err := s.usuarioSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetUsuarioByPadron(c *gin.Context) {
	resp, err := s.usuarioSvc.GetByPadron(c.Request.Context(), strings.TrimSpace(c.Param("padron")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SiguientePadron(c *gin.Context) {
	padron, err := s.usuarioSvc.SiguientePadron(c.Request.Context(), strings.TrimSpace(c.Param("zonaId")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"padron": padron}})
}

func (s *Server) UpdateUsuario(c *gin.Context) {
	var req usuariodomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.usuarioSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DarDeBajaServicio(c *gin.Context) {
	var req usuariodomain.BajaServicioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.usuarioSvc.DarDeBajaServicio(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteUsuario(c *gin.Context) {
	if err := s.usuarioSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
