package server

import (
	"net/http"
	"strings"

	authdomain "github.com/AxelFernandez/agua-andre-sub000/internal/auth/domain"
	"github.com/gin-gonic/gin"
)

// LoginPadron answers with {access_token, usuario}, outside the data envelope.
func (s *Server) LoginPadron(c *gin.Context) {
	var req authdomain.LoginPadronRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	resp, err := s.authsvc.LoginPadron(c.Request.Context(), authdomain.LoginPadronRequest{
		Padron: strings.TrimSpace(req.Padron),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) LoginInterno(c *gin.Context) {
	var req authdomain.LoginInternoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	resp, err := s.authsvc.LoginInterno(c.Request.Context(), authdomain.LoginInternoRequest{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) Perfil(c *gin.Context) {
	sesion, ok := sesionFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.authsvc.Perfil(c.Request.Context(), *sesion)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
