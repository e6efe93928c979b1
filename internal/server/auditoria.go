package server

import (
	"net/http"
	"strings"

	auditoriadomain "github.com/AxelFernandez/agua-andre-sub000/internal/auditoria/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListAuditoria(c *gin.Context) {
	var query struct {
		auditoriadomain.ListRequest
		Desde string `form:"desde"`
		Hasta string `form:"hasta"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	desde, err := parseOptionalTime(query.Desde, false)
	if err != nil {
		AbortWithError(c, newValidationError("desde", "invalid_desde", "Fecha desde inválida"))
		return
	}
	hasta, err := parseOptionalTime(query.Hasta, true)
	if err != nil {
		AbortWithError(c, newValidationError("hasta", "invalid_hasta", "Fecha hasta inválida"))
		return
	}

	resp, err := s.auditoriaSvc.List(c.Request.Context(), auditoriadomain.ListRequest{
		Modulo:     strings.TrimSpace(query.Modulo),
		Accion:     strings.TrimSpace(query.Accion),
		UsuarioID:  strings.TrimSpace(query.UsuarioID),
		RegistroID: strings.TrimSpace(query.RegistroID),
		Desde:      desde,
		Hasta:      hasta,
		Limit:      query.Limit,
		PageToken:  strings.TrimSpace(query.PageToken),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
