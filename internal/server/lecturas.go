package server

import (
	"net/http"
	"strings"

	lecturadomain "github.com/AxelFernandez/agua-andre-sub000/internal/lectura/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) RegistrarLectura(c *gin.Context) {
	var req lecturadomain.RegistrarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.MedidorID = strings.TrimSpace(req.MedidorID)
	if sesion, ok := sesionFromContext(c); ok {
		req.OperarioID = sesion.UsuarioID.String()
	}

	resp, err := s.lecturaSvc.Registrar(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListLecturas(c *gin.Context) {
	medidorID := strings.TrimSpace(c.Query("medidorId"))
	if medidorID == "" {
		AbortWithError(c, newValidationError("medidorId", "required", "El medidor es obligatorio"))
		return
	}
	if err := s.medidorPropio(c, medidorID); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.lecturaSvc.List(c.Request.Context(), medidorID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UltimaLectura(c *gin.Context) {
	medidorID := strings.TrimSpace(c.Param("id"))
	if err := s.medidorPropio(c, medidorID); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.lecturaSvc.Ultima(c.Request.Context(), medidorID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
