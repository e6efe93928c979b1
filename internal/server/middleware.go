package server

import (
	"net/http"
	"strconv"
	"strings"

	auditcontext "github.com/AxelFernandez/agua-andre-sub000/internal/auditcontext"
	authdomain "github.com/AxelFernandez/agua-andre-sub000/internal/auth/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/authorization"
	obscontext "github.com/AxelFernandez/agua-andre-sub000/internal/observability/context"
	"github.com/AxelFernandez/agua-andre-sub000/internal/observability/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	contextSesionKey = "sesion"
	contextPadronKey = "padron"

	rolCliente = "cliente"
)

const (
	corsAllowedHeaders = "Authorization, Content-Type, Accept, Origin, X-Request-Id"
	corsAllowedMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
)

// CORS answers preflight requests and tags responses for the allowed origins.
// A "*" entry allows any origin.
func CORS(origins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			allowAll = true
			continue
		}
		if o != "" {
			allowed[o] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		origin := strings.TrimRight(c.GetHeader("Origin"), "/")
		if origin != "" {
			_, ok := allowed[origin]
			if ok || allowAll {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
				h.Set("Access-Control-Allow-Methods", corsAllowedMethods)
				h.Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-Id, Retry-After")
				h.Add("Vary", "Origin")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// AuthRequired verifies the bearer token and attaches the session to the
// request context for auditing and logging.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		sesion, err := s.authsvc.Autenticar(c.Request.Context(), raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		usuarioID := sesion.UsuarioID.String()
		ctx := c.Request.Context()
		ctx = auditcontext.WithActor(ctx, auditcontext.ActorTypeUser, usuarioID, sesion.Rol)
		ctx = obscontext.WithActor(ctx, auditcontext.ActorTypeUser, usuarioID, sesion.Rol)
		c.Request = c.Request.WithContext(ctx)

		c.Set(contextSesionKey, sesion)
		if sesion.Padron != "" {
			c.Set(contextPadronKey, sesion.Padron)
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

func sesionFromContext(c *gin.Context) (*authdomain.Sesion, bool) {
	value, ok := c.Get(contextSesionKey)
	if !ok {
		return nil, false
	}
	sesion, ok := value.(*authdomain.Sesion)
	return sesion, ok && sesion != nil
}

func (s *Server) authorize(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sesion, ok := sesionFromContext(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if s.authzSvc == nil {
			AbortWithError(c, ErrForbidden)
			return
		}

		actor := authorization.Actor{UsuarioID: sesion.UsuarioID.String(), Rol: sesion.Rol}
		if err := s.authzSvc.Authorize(c.Request.Context(), actor, object, action); err != nil {
			logger.FromContext(c.Request.Context()).Info("request forbidden",
				zap.String("object", object),
				zap.String("action", action),
				zap.String("rol", sesion.Rol),
			)
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// ownUsuario limits clientes to routes whose :param names their own usuario.
func ownUsuario(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sesion, ok := sesionFromContext(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if sesion.Rol != rolCliente {
			c.Next()
			return
		}
		if strings.TrimSpace(c.Param(param)) != sesion.UsuarioID.String() {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// esCliente reports whether the caller is a cliente and, if so, its id.
func esCliente(c *gin.Context) (string, bool) {
	sesion, ok := sesionFromContext(c)
	if !ok || sesion.Rol != rolCliente {
		return "", false
	}
	return sesion.UsuarioID.String(), true
}

func writeAttachment(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Length", strconv.Itoa(len(body)))
	c.Data(http.StatusOK, contentType, body)
}
