package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	auditoriadomain "github.com/AxelFernandez/agua-andre-sub000/internal/auditoria/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	estadodomain "github.com/AxelFernandez/agua-andre-sub000/internal/estadoservicio/domain"
	importacion "github.com/AxelFernandez/agua-andre-sub000/internal/importacion/domain"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	zonadomain "github.com/AxelFernandez/agua-andre-sub000/internal/zona/domain"
	"github.com/AxelFernandez/agua-andre-sub000/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	UsuarioRepo usuariodomain.Repository
	ZonaRepo    zonadomain.Repository
	Auditoria   auditoriadomain.Service
	Operacion   *config.OperacionConfigHolder `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	usuarioRepo usuariodomain.Repository
	zonaRepo    zonadomain.Repository
	auditoria   auditoriadomain.Service
	operacion   *config.OperacionConfigHolder
	validate    *validator.Validate
}

func New(p Params) importacion.Service {
	validate := validator.New()
	_ = validate.RegisterValidation("padron", func(fl validator.FieldLevel) bool {
		_, _, ok := usuariodomain.ParsePadron(fl.Field().String())
		return ok
	})

	return &Service{
		db:          p.DB,
		log:         p.Log.Named("importacion.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		usuarioRepo: p.UsuarioRepo,
		zonaRepo:    p.ZonaRepo,
		auditoria:   p.Auditoria,
		operacion:   p.Operacion,
		validate:    validate,
	}
}

// evaluada is a parsed row after validation against the database.
type evaluada struct {
	fila      filaCSV
	zona      *zonadomain.Zona
	existente bool
	err       string
}

func (s *Service) Preview(ctx context.Context, archivo []byte) (*importacion.PreviewResponse, error) {
	filas, err := s.evaluar(ctx, archivo)
	if err != nil {
		return nil, err
	}

	resp := &importacion.PreviewResponse{
		Total:   len(filas),
		Filas:   make([]importacion.FilaPreview, 0, len(filas)),
		Errores: []importacion.FilaError{},
	}
	for _, f := range filas {
		resp.Filas = append(resp.Filas, importacion.FilaPreview{
			Fila:      f.fila.Numero,
			Nombre:    f.fila.Nombre,
			Zona:      f.fila.Zona,
			Padron:    f.fila.Padron,
			Direccion: f.fila.Direccion,
			Existente: f.existente,
			Valida:    f.err == "",
			Error:     f.err,
		})
		if f.err != "" {
			resp.Errores = append(resp.Errores, importacion.FilaError{Fila: f.fila.Numero, Error: f.err})
			continue
		}
		resp.Validas++
	}
	return resp, nil
}

// Importar creates a cliente for every valid row whose padron is not taken.
// Rows with existing padrones are counted as omitidas.
func (s *Service) Importar(ctx context.Context, archivo []byte) (*importacion.ImportResponse, error) {
	filas, err := s.evaluar(ctx, archivo)
	if err != nil {
		return nil, err
	}

	resp := &importacion.ImportResponse{
		Total:   len(filas),
		Errores: []importacion.FilaError{},
	}
	now := s.clock.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, f := range filas {
			if f.err != "" {
				resp.Errores = append(resp.Errores, importacion.FilaError{Fila: f.fila.Numero, Error: f.err})
				continue
			}
			resp.Validas++
			if f.existente {
				resp.Omitidas++
				continue
			}

			padron := f.fila.Padron
			zonaID := f.zona.ID
			u := &usuariodomain.Usuario{
				ID:                  s.genID.Generate(),
				Nombre:              f.fila.Nombre,
				Rol:                 usuariodomain.RolCliente,
				Padron:              &padron,
				ZonaID:              &zonaID,
				TipoCliente:         usuariodomain.TipoResidencial,
				Direccion:           f.fila.Direccion,
				Activo:              true,
				EstadoServicio:      estadodomain.EstadoActivo,
				EstadoServicioDesde: &now,
				CreatedAt:           now,
				UpdatedAt:           now,
			}
			if err := s.insertar(ctx, tx, u); err != nil {
				if errors.Is(err, usuariodomain.ErrPadronEnUso) {
					resp.Omitidas++
					continue
				}
				return err
			}
			resp.Importadas++
		}

		return s.auditoria.Registrar(ctx, tx, auditoriadomain.Entrada{
			Modulo:      "usuarios",
			Entidad:     "Importacion",
			RegistroID:  s.genID.Generate().String(),
			Accion:      auditoriadomain.AccionCreacion,
			Descripcion: fmt.Sprintf("Importación CSV: %d importados, %d omitidos, %d con error", resp.Importadas, resp.Omitidas, len(resp.Errores)),
			Metadata: map[string]any{
				"total":      resp.Total,
				"validas":    resp.Validas,
				"importadas": resp.Importadas,
				"omitidas":   resp.Omitidas,
				"errores":    len(resp.Errores),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("importacion finished",
		zap.Int("total", resp.Total),
		zap.Int("importadas", resp.Importadas),
		zap.Int("omitidas", resp.Omitidas),
		zap.Int("errores", len(resp.Errores)),
	)
	return resp, nil
}

// insertar runs inside a savepoint so a padron taken concurrently only
// skips its own row.
func (s *Service) insertar(ctx context.Context, tx *gorm.DB, u *usuariodomain.Usuario) error {
	err := tx.Transaction(func(sp *gorm.DB) error {
		return s.usuarioRepo.Insert(ctx, sp, u)
	})
	if db.IsDuplicateKeyErr(err) {
		return usuariodomain.ErrPadronEnUso
	}
	return err
}

func (s *Service) evaluar(ctx context.Context, archivo []byte) ([]evaluada, error) {
	if len(archivo) == 0 {
		return nil, importacion.ErrArchivoVacio
	}
	if int64(len(archivo)) > s.maxBytes() {
		return nil, importacion.ErrArchivoMuyGrande
	}
	data, err := decodificar(archivo)
	if err != nil {
		return nil, err
	}
	filas, err := leerFilas(data)
	if err != nil {
		return nil, err
	}

	zonas, err := s.zonaRepo.Find(ctx, &zonadomain.Zona{})
	if err != nil {
		return nil, err
	}
	porValor := make(map[string]*zonadomain.Zona, len(zonas))
	porNombre := make(map[string]*zonadomain.Zona, len(zonas))
	for _, z := range zonas {
		porValor[strconv.Itoa(z.Valor)] = z
		porNombre[strings.ToLower(strings.TrimSpace(z.Nombre))] = z
	}

	existentes := map[string]bool{}
	cargadas := map[int]bool{}
	vistos := map[string]int{}

	result := make([]evaluada, 0, len(filas))
	for _, fila := range filas {
		ev := evaluada{fila: fila}
		if err := s.validate.Struct(fila); err != nil {
			ev.err = mensajeValidacion(err)
			result = append(result, ev)
			continue
		}

		zona := porValor[strings.TrimLeft(fila.Zona, "0")]
		if zona == nil {
			zona = porNombre[strings.ToLower(fila.Zona)]
		}
		if zona == nil {
			ev.err = fmt.Sprintf("Zona inexistente: %s", fila.Zona)
			result = append(result, ev)
			continue
		}
		ev.zona = zona

		zonaPadron, _, _ := usuariodomain.ParsePadron(fila.Padron)
		if zonaPadron != zona.Valor {
			ev.err = fmt.Sprintf("El padrón %s no corresponde a la zona %d", fila.Padron, zona.Valor)
			result = append(result, ev)
			continue
		}
		if previa, ok := vistos[fila.Padron]; ok {
			ev.err = fmt.Sprintf("Padrón duplicado en el archivo (fila %d)", previa)
			result = append(result, ev)
			continue
		}
		vistos[fila.Padron] = fila.Numero

		if !cargadas[zona.Valor] {
			padrones, err := s.usuarioRepo.ListPadronesPorPrefijo(ctx, s.db, strconv.Itoa(zona.Valor))
			if err != nil {
				return nil, err
			}
			for _, p := range padrones {
				existentes[p] = true
			}
			cargadas[zona.Valor] = true
		}
		ev.existente = existentes[fila.Padron]
		result = append(result, ev)
	}
	return result, nil
}

func (s *Service) maxBytes() int64 {
	if s.operacion != nil {
		if limit := s.operacion.Get().Importacion.CSVMaxBytes; limit > 0 {
			return limit
		}
	}
	return config.DefaultOperacionConfig().Importacion.CSVMaxBytes
}

var columnas = map[string]string{
	"Nombre":    "NOMBRE",
	"Zona":      "ZONA",
	"Padron":    "PADRON",
	"Direccion": "DIRE01",
}

func mensajeValidacion(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	columna := columnas[fe.Field()]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s es obligatorio", columna)
	case "max":
		return fmt.Sprintf("%s supera los %s caracteres", columna, fe.Param())
	case "padron":
		return fmt.Sprintf("%s con formato inválido, se espera ZONA-NNNN", columna)
	}
	return fmt.Sprintf("%s inválido", columna)
}
