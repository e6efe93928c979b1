package service

import (
	"context"
	"strings"

	authdomain "github.com/AxelFernandez/agua-andre-sub000/internal/auth/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/auth/password"
	"github.com/AxelFernandez/agua-andre-sub000/internal/auth/token"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Issuer      *token.Issuer
	UsuarioRepo usuariodomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	issuer      *token.Issuer
	usuarioRepo usuariodomain.Repository
}

func New(p Params) authdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("auth.service"),
		issuer:      p.Issuer,
		usuarioRepo: p.UsuarioRepo,
	}
}

// LoginPadron authenticates a customer by padron alone. Customers whose
// service was terminated keep read access to their history.
func (s *Service) LoginPadron(ctx context.Context, req authdomain.LoginPadronRequest) (*authdomain.LoginResponse, error) {
	padron := strings.TrimSpace(req.Padron)
	if _, _, ok := usuariodomain.ParsePadron(padron); !ok {
		return nil, authdomain.ErrInvalidPadron
	}

	u, err := s.usuarioRepo.FindByPadron(ctx, s.db, padron)
	if err != nil {
		return nil, err
	}
	if u == nil || u.Rol != usuariodomain.RolCliente {
		return nil, authdomain.ErrInvalidCredentials
	}
	if !u.Activo {
		return nil, authdomain.ErrUsuarioInactivo
	}

	return s.emitir(u)
}

// LoginInterno authenticates operarios and administrativos by email and
// password.
func (s *Service) LoginInterno(ctx context.Context, req authdomain.LoginInternoRequest) (*authdomain.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, authdomain.ErrInvalidCredentials
	}

	u, err := s.usuarioRepo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if u == nil || u.Rol == usuariodomain.RolCliente || u.PasswordHash == nil {
		return nil, authdomain.ErrInvalidCredentials
	}
	if !password.Verify(req.Password, *u.PasswordHash) {
		s.log.Info("login interno rejected", zap.String("usuario_id", u.ID.String()))
		return nil, authdomain.ErrInvalidCredentials
	}
	if !u.Activo {
		return nil, authdomain.ErrUsuarioInactivo
	}

	return s.emitir(u)
}

// Autenticar verifies a bearer token and checks that its user still exists
// and is active.
func (s *Service) Autenticar(ctx context.Context, rawToken string) (*authdomain.Sesion, error) {
	sesion, err := s.issuer.Verificar(rawToken)
	if err != nil {
		return nil, err
	}

	u, err := s.usuarioRepo.FindByID(ctx, s.db, sesion.UsuarioID)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.Activo {
		return nil, authdomain.ErrUnauthorized
	}
	// Role changes take effect without a new login.
	sesion.Rol = string(u.Rol)
	return sesion, nil
}

func (s *Service) Perfil(ctx context.Context, sesion authdomain.Sesion) (*authdomain.UsuarioSesion, error) {
	u, err := s.usuarioRepo.FindByID(ctx, s.db, sesion.UsuarioID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, authdomain.ErrUnauthorized
	}
	resp := toUsuarioSesion(u)
	return &resp, nil
}

func (s *Service) emitir(u *usuariodomain.Usuario) (*authdomain.LoginResponse, error) {
	padron := ""
	if u.Padron != nil {
		padron = *u.Padron
	}
	signed, _, err := s.issuer.Emitir(u.ID, string(u.Rol), padron)
	if err != nil {
		s.log.Error("failed to sign token", zap.Error(err))
		return nil, err
	}
	return &authdomain.LoginResponse{
		AccessToken: signed,
		Usuario:     toUsuarioSesion(u),
	}, nil
}

func toUsuarioSesion(u *usuariodomain.Usuario) authdomain.UsuarioSesion {
	return authdomain.UsuarioSesion{
		ID:                 u.ID.String(),
		Nombre:             u.Nombre,
		Email:              u.Email,
		Rol:                string(u.Rol),
		Padron:             u.Padron,
		EstadoServicio:     string(u.EstadoServicio),
		ServicioDadoDeBaja: u.ServicioDadoDeBaja,
	}
}
