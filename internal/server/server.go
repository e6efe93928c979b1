package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/AxelFernandez/agua-andre-sub000/internal/auditoria"
	auditoriadomain "github.com/AxelFernandez/agua-andre-sub000/internal/auditoria/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/auth"
	authdomain "github.com/AxelFernandez/agua-andre-sub000/internal/auth/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/authorization"
	"github.com/AxelFernandez/agua-andre-sub000/internal/boleta"
	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	"github.com/AxelFernandez/agua-andre-sub000/internal/estadisticas"
	estadisticasdomain "github.com/AxelFernandez/agua-andre-sub000/internal/estadisticas/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/estadoservicio"
	estadodomain "github.com/AxelFernandez/agua-andre-sub000/internal/estadoservicio/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/importacion"
	importaciondomain "github.com/AxelFernandez/agua-andre-sub000/internal/importacion/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/lectura"
	lecturadomain "github.com/AxelFernandez/agua-andre-sub000/internal/lectura/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/medidor"
	medidordomain "github.com/AxelFernandez/agua-andre-sub000/internal/medidor/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/observability"
	obsmiddleware "github.com/AxelFernandez/agua-andre-sub000/internal/observability/logger"
	obsmetrics "github.com/AxelFernandez/agua-andre-sub000/internal/observability/metrics"
	obstracing "github.com/AxelFernandez/agua-andre-sub000/internal/observability/tracing"
	"github.com/AxelFernandez/agua-andre-sub000/internal/pago"
	pagodomain "github.com/AxelFernandez/agua-andre-sub000/internal/pago/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/providers"
	"github.com/AxelFernandez/agua-andre-sub000/internal/ratelimit"
	"github.com/AxelFernandez/agua-andre-sub000/internal/storage"
	"github.com/AxelFernandez/agua-andre-sub000/internal/tarifario"
	tarifariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/usuario"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/zona"
	zonadomain "github.com/AxelFernandez/agua-andre-sub000/internal/zona/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	providers.Module,
	authorization.Module,
	auditoria.Module,
	auth.Module,
	storage.Module,
	zona.Module,
	usuario.Module,
	medidor.Module,
	lectura.Module,
	tarifario.Module,
	boleta.Module,
	pago.Module,
	estadoservicio.Module,
	estadisticas.Module,
	importacion.Module,
	ratelimit.Module,
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CORS(cfg.CORSAllowedOrigins))
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(cfg, obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	operacion       *config.OperacionConfigHolder
	authsvc         authdomain.Service
	authzSvc        authorization.Service
	auditoriaSvc    auditoriadomain.Service
	zonaSvc         zonadomain.Service
	usuarioSvc      usuariodomain.Service
	medidorSvc      medidordomain.Service
	lecturaSvc      lecturadomain.Service
	tarifarioSvc    tarifariodomain.Service
	boletaSvc       boletadomain.Service
	pagoSvc         pagodomain.Service
	estadoSvc       estadodomain.Service
	estadisticasSvc estadisticasdomain.Service
	importacionSvc  importaciondomain.Service
	loginLimiter    loginLimiter
	obsMetrics      *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Operacion       *config.OperacionConfigHolder `optional:"true"`
	Authsvc         authdomain.Service
	AuthzSvc        authorization.Service
	AuditoriaSvc    auditoriadomain.Service
	ZonaSvc         zonadomain.Service
	UsuarioSvc      usuariodomain.Service
	MedidorSvc      medidordomain.Service
	LecturaSvc      lecturadomain.Service
	TarifarioSvc    tarifariodomain.Service
	BoletaSvc       boletadomain.Service
	PagoSvc         pagodomain.Service
	EstadoSvc       estadodomain.Service
	EstadisticasSvc estadisticasdomain.Service
	ImportacionSvc  importaciondomain.Service
	LoginLimiter    *ratelimit.LoginLimiter `optional:"true"`
	ObsMetrics      *obsmetrics.Metrics     `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		operacion:       p.Operacion,
		authsvc:         p.Authsvc,
		authzSvc:        p.AuthzSvc,
		auditoriaSvc:    p.AuditoriaSvc,
		zonaSvc:         p.ZonaSvc,
		usuarioSvc:      p.UsuarioSvc,
		medidorSvc:      p.MedidorSvc,
		lecturaSvc:      p.LecturaSvc,
		tarifarioSvc:    p.TarifarioSvc,
		boletaSvc:       p.BoletaSvc,
		pagoSvc:         p.PagoSvc,
		estadoSvc:       p.EstadoSvc,
		estadisticasSvc: p.EstadisticasSvc,
		importacionSvc:  p.ImportacionSvc,
		obsMetrics:      p.ObsMetrics,
	}
	if p.LoginLimiter != nil {
		s.loginLimiter = p.LoginLimiter
	}
	return s
}

// RegisterRoutes wires the REST API. Every route past /auth/login requires a
// bearer token; clientes are further limited to their own records.
func (s *Server) RegisterRoutes() {
	r := s.engine

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login/padron", s.LoginRateLimit(), s.LoginPadron)
		authGroup.POST("/login/interno", s.LoginRateLimit(), s.LoginInterno)
		authGroup.GET("/perfil", s.AuthRequired(), s.Perfil)
	}

	api := r.Group("/")
	api.Use(s.AuthRequired())

	usuarios := api.Group("/usuarios")
	{
		usuarios.GET("", s.soloInternos(), s.authorize(authorization.ObjectUsuario, authorization.ActionView), s.ListUsuarios)
		usuarios.GET("/padron/:padron", s.soloInternos(), s.authorize(authorization.ObjectUsuario, authorization.ActionView), s.GetUsuarioByPadron)
		usuarios.GET("/siguiente-padron/:zonaId", s.authorize(authorization.ObjectUsuario, authorization.ActionCreate), s.SiguientePadron)
		usuarios.GET("/:id", ownUsuario("id"), s.authorize(authorization.ObjectUsuario, authorization.ActionView), s.GetUsuario)
		usuarios.POST("", s.authorize(authorization.ObjectUsuario, authorization.ActionCreate), s.CreateUsuario)
		usuarios.PUT("/:id", s.authorize(authorization.ObjectUsuario, authorization.ActionUpdate), s.UpdateUsuario)
		usuarios.PUT("/:id/baja-servicio", s.authorize(authorization.ObjectUsuario, authorization.ActionUpdate), s.DarDeBajaServicio)
		usuarios.DELETE("/:id", s.authorize(authorization.ObjectUsuario, authorization.ActionDelete), s.DeleteUsuario)
	}

	zonas := api.Group("/zonas")
	{
		zonas.GET("", s.authorize(authorization.ObjectZona, authorization.ActionView), s.ListZonas)
		zonas.GET("/:id", s.authorize(authorization.ObjectZona, authorization.ActionView), s.GetZona)
		zonas.POST("", s.authorize(authorization.ObjectZona, authorization.ActionCreate), s.CreateZona)
		zonas.PUT("/:id", s.authorize(authorization.ObjectZona, authorization.ActionUpdate), s.UpdateZona)
		zonas.DELETE("/:id", s.authorize(authorization.ObjectZona, authorization.ActionDelete), s.DeleteZona)
	}

	medidores := api.Group("/medidores")
	{
		medidores.GET("", s.soloInternos(), s.authorize(authorization.ObjectMedidor, authorization.ActionView), s.ListMedidores)
		medidores.GET("/verificar-serie/:serie", s.soloInternos(), s.authorize(authorization.ObjectMedidor, authorization.ActionView), s.VerificarSerie)
		medidores.GET("/usuario/:id", ownUsuario("id"), s.authorize(authorization.ObjectMedidor, authorization.ActionView), s.ListMedidoresPorUsuario)
		medidores.GET("/:id", s.soloInternos(), s.authorize(authorization.ObjectMedidor, authorization.ActionView), s.GetMedidor)
		medidores.POST("/asignar/:usuarioId", s.authorize(authorization.ObjectMedidor, authorization.ActionCreate), s.AsignarMedidor)
		medidores.PUT("/:id/dar-baja", s.authorize(authorization.ObjectMedidor, authorization.ActionUpdate), s.DarDeBajaMedidor)
	}

	lecturas := api.Group("/lecturas")
	{
		lecturas.GET("", s.authorize(authorization.ObjectLectura, authorization.ActionView), s.ListLecturas)
		lecturas.GET("/medidor/:id/ultima", s.authorize(authorization.ObjectLectura, authorization.ActionView), s.UltimaLectura)
		lecturas.POST("", s.authorize(authorization.ObjectLectura, authorization.ActionCreate), s.RegistrarLectura)
	}

	boletas := api.Group("/boletas")
	{
		boletas.GET("", s.authorize(authorization.ObjectBoleta, authorization.ActionView), s.ListBoletas)
		boletas.GET("/usuario/:id", ownUsuario("id"), s.authorize(authorization.ObjectBoleta, authorization.ActionView), s.ListBoletasPorUsuario)
		boletas.GET("/:id", s.authorize(authorization.ObjectBoleta, authorization.ActionView), s.GetBoleta)
		boletas.GET("/:id/detalle", s.authorize(authorization.ObjectBoleta, authorization.ActionView), s.GetBoletaDetalle)
		boletas.GET("/:id/render", s.authorize(authorization.ObjectBoleta, authorization.ActionView), s.RenderBoleta)
	}

	tarifarioGroup := api.Group("/tarifario")
	{
		tarifarioGroup.POST("/generar-boleta", s.authorize(authorization.ObjectBoleta, authorization.ActionBoletaGenerar), s.GenerarBoleta)
		tarifarioGroup.POST("/generar-boletas-masivas", s.authorize(authorization.ObjectBoleta, authorization.ActionBoletaGenerar), s.GenerarBoletasMasivas)
		tarifarioGroup.POST("/recalcular-boleta/:id", s.authorize(authorization.ObjectBoleta, authorization.ActionBoletaRecalcular), s.RecalcularBoleta)
		tarifarioGroup.GET("/boletas-periodo", s.soloInternos(), s.authorize(authorization.ObjectBoleta, authorization.ActionView), s.ListBoletasPeriodo)
		tarifarioGroup.GET("/pdf/boleta/:id", s.authorize(authorization.ObjectBoleta, authorization.ActionView), s.PDFBoleta)
		tarifarioGroup.GET("/pdf/boletas-masivas", s.soloInternos(), s.authorize(authorization.ObjectBoleta, authorization.ActionView), s.PDFBoletasPeriodo)

		tarifarioGroup.GET("/activo", s.authorize(authorization.ObjectTarifario, authorization.ActionView), s.GetTarifarioActivo)
		tarifarioGroup.PUT("/activo", s.authorize(authorization.ObjectTarifario, authorization.ActionTarifarioConfigurar), s.ActualizarTarifarioActivo)
		tarifarioGroup.GET("/configuracion-avisos", s.authorize(authorization.ObjectTarifario, authorization.ActionView), s.GetConfiguracionAvisos)
		tarifarioGroup.PUT("/configuracion-avisos", s.authorize(authorization.ObjectTarifario, authorization.ActionTarifarioConfigurar), s.ActualizarConfiguracionAvisos)
		tarifarioGroup.GET("/cargos-extras", s.authorize(authorization.ObjectTarifario, authorization.ActionView), s.ListCargosExtras)
		tarifarioGroup.POST("/cargos-extras/aplicar", s.authorize(authorization.ObjectTarifario, authorization.ActionCargoAplicar), s.AplicarCargoExtra)

		tarifarioGroup.POST("/verificar-estados", s.authorize(authorization.ObjectEstadoServicio, authorization.ActionEstadoVerificar), s.VerificarEstados)
		tarifarioGroup.POST("/reconexion/:usuarioId", s.authorize(authorization.ObjectEstadoServicio, authorization.ActionEstadoReconectar), s.Reconectar)
	}

	pagos := api.Group("/pagos")
	{
		pagos.POST("", s.authorize(authorization.ObjectPago, authorization.ActionPagoComprobante), s.RegistrarComprobante)
		pagos.POST("/efectivo", s.authorize(authorization.ObjectPago, authorization.ActionPagoEfectivo), s.RegistrarPagoEfectivo)
		pagos.GET("/pendientes-revision", s.authorize(authorization.ObjectPago, authorization.ActionPagoRevisar), s.ListPagosPendientes)
		pagos.GET("/boleta/:id", s.authorize(authorization.ObjectPago, authorization.ActionView), s.ListPagosPorBoleta)
		pagos.GET("/comprobante/:id", s.authorize(authorization.ObjectPago, authorization.ActionView), s.DescargarComprobante)
		pagos.GET("/:id/recibo", s.authorize(authorization.ObjectPago, authorization.ActionView), s.DescargarRecibo)
		pagos.PUT("/:id/aprobar", s.authorize(authorization.ObjectPago, authorization.ActionPagoRevisar), s.AprobarPago)
		pagos.PUT("/:id/rechazar", s.authorize(authorization.ObjectPago, authorization.ActionPagoRevisar), s.RechazarPago)
	}

	api.GET("/auditoria", s.authorize(authorization.ObjectAuditoria, authorization.ActionView), s.ListAuditoria)

	stats := api.Group("/estadisticas")
	stats.Use(s.authorize(authorization.ObjectEstadisticas, authorization.ActionView))
	{
		stats.GET("/resumen", s.ResumenEstadisticas)
		stats.GET("/tendencias", s.TendenciasEstadisticas)
		stats.GET("/deuda-por-zona", s.DeudaPorZona)
		stats.GET("/top-deuda-clientes", s.TopDeudaClientes)
	}

	imports := api.Group("/import/usuarios")
	imports.Use(s.authorize(authorization.ObjectImportacion, authorization.ActionImportar))
	{
		imports.POST("/csv/preview", s.PreviewImportacion)
		imports.POST("/csv", s.ImportarUsuarios)
	}
}

// soloInternos rejects clientes from listings that span other customers.
func (s *Server) soloInternos() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := esCliente(c); ok {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}
