package service

import (
	"context"
	"errors"
	"strings"
	"time"

	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	zonadomain "github.com/AxelFernandez/agua-andre-sub000/internal/zona/domain"
	"github.com/AxelFernandez/agua-andre-sub000/pkg/db"
	"github.com/AxelFernandez/agua-andre-sub000/pkg/db/option"
	pkgrepository "github.com/AxelFernandez/agua-andre-sub000/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        zonadomain.Repository
	UsuarioRepo usuariodomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        zonadomain.Repository
	usuarioRepo usuariodomain.Repository
}

func New(p Params) zonadomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("zona.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		usuarioRepo: p.UsuarioRepo,
	}
}

func (s *Service) Create(ctx context.Context, req zonadomain.CreateRequest) (*zonadomain.Response, error) {
	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" {
		return nil, zonadomain.ErrInvalidNombre
	}
	if req.Valor <= 0 {
		return nil, zonadomain.ErrInvalidValor
	}

	now := time.Now().UTC()
	z := &zonadomain.Zona{
		ID:          s.genID.Generate(),
		Nombre:      nombre,
		Valor:       req.Valor,
		Descripcion: strings.TrimSpace(req.Descripcion),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, z); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, zonadomain.ErrValorEnUso
		}
		return nil, err
	}
	return toResponse(z), nil
}

func (s *Service) List(ctx context.Context) ([]zonadomain.Response, error) {
	items, err := s.repo.Find(ctx, &zonadomain.Zona{}, option.ApplyOrder("valor", "asc"))
	if err != nil {
		return nil, err
	}
	resp := make([]zonadomain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, *toResponse(item))
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*zonadomain.Response, error) {
	z, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(z), nil
}

func (s *Service) Update(ctx context.Context, req zonadomain.UpdateRequest) (*zonadomain.Response, error) {
	z, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Nombre != nil {
		nombre := strings.TrimSpace(*req.Nombre)
		if nombre == "" {
			return nil, zonadomain.ErrInvalidNombre
		}
		z.Nombre = nombre
	}
	if req.Valor != nil {
		if *req.Valor <= 0 {
			return nil, zonadomain.ErrInvalidValor
		}
		z.Valor = *req.Valor
	}
	if req.Descripcion != nil {
		z.Descripcion = strings.TrimSpace(*req.Descripcion)
	}
	z.UpdatedAt = time.Now().UTC()

	err = s.repo.Update(ctx, z.ID.String(), map[string]any{
		"nombre":      z.Nombre,
		"valor":       z.Valor,
		"descripcion": z.Descripcion,
		"updated_at":  z.UpdatedAt,
	})
	switch {
	case db.IsDuplicateKeyErr(err):
		return nil, zonadomain.ErrValorEnUso
	case errors.Is(err, pkgrepository.ErrNotFound):
		return nil, zonadomain.ErrNotFound
	case err != nil:
		return nil, err
	}
	return toResponse(z), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	z, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.usuarioRepo.CountByZona(ctx, s.db, z.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return zonadomain.ErrZonaEnUso
	}
	if err := s.repo.Delete(ctx, z.ID.String()); err != nil {
		if errors.Is(err, pkgrepository.ErrNotFound) {
			return zonadomain.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Service) find(ctx context.Context, id string) (*zonadomain.Zona, error) {
	zonaID, err := zonadomain.ParseID(strings.TrimSpace(id))
	if err != nil || zonaID == 0 {
		return nil, zonadomain.ErrInvalidID
	}
	z, err := s.repo.FindOne(ctx, &zonadomain.Zona{ID: zonaID})
	if err != nil {
		return nil, err
	}
	if z == nil {
		return nil, zonadomain.ErrNotFound
	}
	return z, nil
}

func toResponse(z *zonadomain.Zona) *zonadomain.Response {
	return &zonadomain.Response{
		ID:          z.ID.String(),
		Nombre:      z.Nombre,
		Valor:       z.Valor,
		Descripcion: z.Descripcion,
		CreatedAt:   z.CreatedAt,
		UpdatedAt:   z.UpdatedAt,
	}
}
