package cliente

import (
	"testing"

	authdomain "github.com/AxelFernandez/agua-andre-sub000/internal/auth/domain"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCargarSesion_Empty(t *testing.T) {
	store, err := NewFileStoreFS(afero.NewMemMapFs(), "/s")
	require.NoError(t, err)

	s, err := CargarSesion(store)
	require.NoError(t, err)
	assert.Equal(t, EstadoAnonima, s.Estado())
	_, ok := s.Token()
	assert.False(t, ok)
}

func TestCargarSesion_DiscardsUnreadableUser(t *testing.T) {
	store, err := NewFileStoreFS(afero.NewMemMapFs(), "/s")
	require.NoError(t, err)
	require.NoError(t, store.Set(keyToken, "tok"))
	require.NoError(t, store.Set(keyUser, "{not json"))

	s, err := CargarSesion(store)
	require.NoError(t, err)
	assert.Equal(t, EstadoAnonima, s.Estado())
	_, ok, err := store.Get(keyToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSesion_Unsubscribe(t *testing.T) {
	s, err := CargarSesion(nil)
	require.NoError(t, err)
	require.NoError(t, s.Iniciar(authdomain.LoginResponse{AccessToken: "tok", Usuario: authdomain.UsuarioSesion{ID: "1"}}))

	calls := 0
	cancel := s.Suscribir(func(SesionExpirada) { calls++ })
	cancel()

	require.NoError(t, s.expirar(SesionExpirada{Ruta: "/x"}))
	assert.Zero(t, calls)
	assert.Equal(t, EstadoAnonima, s.Estado())
}

func TestSesion_IniciarRequiresToken(t *testing.T) {
	s, err := CargarSesion(nil)
	require.NoError(t, err)
	assert.Error(t, s.Iniciar(authdomain.LoginResponse{}))
	assert.Equal(t, EstadoAnonima, s.Estado())
}
