package server

import (
	"net/http"
	"strings"

	zonadomain "github.com/AxelFernandez/agua-andre-sub000/internal/zona/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) CreateZona(c *gin.Context) {
	var req zonadomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.zonaSvc.Create(c.Request.Context(), zonadomain.CreateRequest{
		Nombre:      strings.TrimSpace(req.Nombre),
		Valor:       req.Valor,
		Descripcion: strings.TrimSpace(req.Descripcion),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListZonas(c *gin.Context) {
	resp, err := s.zonaSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetZona(c *gin.Context) {
	resp, err := s.zonaSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateZona(c *gin.Context) {
	var req zonadomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.zonaSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteZona(c *gin.Context) {
	if err := s.zonaSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
