// Package token issues and verifies the HS256 bearer tokens used by the API.
package token

import (
	"strings"
	"time"

	authdomain "github.com/AxelFernandez/agua-andre-sub000/internal/auth/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v4"
)

const issuer = "agua"

type claims struct {
	Rol    string `json:"rol"`
	Padron string `json:"padron,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and checks tokens with a shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewIssuer(cfg config.Config, clk clock.Clock) *Issuer {
	ttl := cfg.AuthTokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Issuer{
		secret: []byte(strings.TrimSpace(cfg.AuthJWTSecret)),
		ttl:    ttl,
		clock:  clk,
	}
}

// Emitir returns a signed token for the user and its expiry.
func (i *Issuer) Emitir(usuarioID snowflake.ID, rol, padron string) (string, time.Time, error) {
	if len(i.secret) == 0 {
		return "", time.Time{}, authdomain.ErrTokenNotConfigured
	}
	now := i.clock.Now()
	exp := now.Add(i.ttl)
	c := claims{
		Rol:    rol,
		Padron: padron,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   usuarioID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verificar parses raw and checks its signature and expiry against the
// issuer clock.
func (i *Issuer) Verificar(raw string) (*authdomain.Sesion, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, authdomain.ErrUnauthorized
	}
	if len(i.secret) == 0 {
		return nil, authdomain.ErrTokenNotConfigured
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	c := &claims{}
	_, err := parser.ParseWithClaims(raw, c, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		return nil, authdomain.ErrInvalidToken
	}

	now := i.clock.Now()
	if !c.VerifyExpiresAt(now, true) {
		return nil, authdomain.ErrSessionExpired
	}
	if !c.VerifyIssuer(issuer, true) {
		return nil, authdomain.ErrInvalidToken
	}
	id, err := snowflake.ParseString(c.Subject)
	if err != nil || id == 0 {
		return nil, authdomain.ErrInvalidToken
	}
	return &authdomain.Sesion{
		UsuarioID: id,
		Rol:       c.Rol,
		Padron:    c.Padron,
		ExpiraEn:  c.ExpiresAt.Time,
	}, nil
}
