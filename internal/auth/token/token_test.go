package token

import (
	"testing"
	"time"

	authdomain "github.com/AxelFernandez/agua-andre-sub000/internal/auth/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/clock"
	"github.com/AxelFernandez/agua-andre-sub000/internal/config"
	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssuer(clk clock.Clock) *Issuer {
	return NewIssuer(config.Config{AuthJWTSecret: "secreto", AuthTokenTTL: time.Hour}, clk)
}

func TestEmitirVerificar(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	issuer := newIssuer(clk)

	signed, exp, err := issuer.Emitir(snowflake.ID(42), "cliente", "10-0036")
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(time.Hour), exp)

	sesion, err := issuer.Verificar(signed)
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(42), sesion.UsuarioID)
	assert.Equal(t, "cliente", sesion.Rol)
	assert.Equal(t, "10-0036", sesion.Padron)
	assert.True(t, sesion.ExpiraEn.Equal(exp))
}

func TestVerificar_Expired(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	issuer := newIssuer(clk)

	signed, _, err := issuer.Emitir(snowflake.ID(7), "operario", "")
	require.NoError(t, err)

	clk.Advance(61 * time.Minute)
	_, err = issuer.Verificar(signed)
	assert.ErrorIs(t, err, authdomain.ErrSessionExpired)
}

func TestVerificar_Rejects(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	issuer := newIssuer(clk)

	_, err := issuer.Verificar("")
	assert.ErrorIs(t, err, authdomain.ErrUnauthorized)

	_, err = issuer.Verificar("no.es.jwt")
	assert.ErrorIs(t, err, authdomain.ErrInvalidToken)

	other := NewIssuer(config.Config{AuthJWTSecret: "otro"}, clk)
	signed, _, err := other.Emitir(snowflake.ID(7), "operario", "")
	require.NoError(t, err)
	_, err = issuer.Verificar(signed)
	assert.ErrorIs(t, err, authdomain.ErrInvalidToken)

	// HS512 with the right secret is still refused.
	c := jwt.RegisteredClaims{
		Issuer:    "agua",
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(clk.Now().Add(time.Hour)),
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS512, c).SignedString([]byte("secreto"))
	require.NoError(t, err)
	_, err = issuer.Verificar(forged)
	assert.ErrorIs(t, err, authdomain.ErrInvalidToken)
}

func TestEmitir_WithoutSecret(t *testing.T) {
	issuer := NewIssuer(config.Config{}, clock.New())
	_, _, err := issuer.Emitir(snowflake.ID(1), "cliente", "10-0001")
	assert.ErrorIs(t, err, authdomain.ErrTokenNotConfigured)
}
