package cliente

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	authdomain "github.com/AxelFernandez/agua-andre-sub000/internal/auth/domain"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI records every request. Routes must be registered before start.
type fakeAPI struct {
	*gin.Engine
	t    *testing.T
	srv  *httptest.Server
	mu   sync.Mutex
	hits map[string]int
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &fakeAPI{Engine: gin.New(), t: t, hits: map[string]int{}}
	f.Use(func(c *gin.Context) {
		f.mu.Lock()
		f.hits[c.Request.Method+" "+c.Request.URL.Path]++
		f.mu.Unlock()
		c.Next()
	})
	return f
}

func (f *fakeAPI) start() string {
	if f.srv == nil {
		f.srv = httptest.NewServer(f.Engine)
		f.t.Cleanup(f.srv.Close)
	}
	return f.srv.URL
}

func (f *fakeAPI) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.hits {
		n += v
	}
	return n
}

func (f *fakeAPI) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

func newTestClient(t *testing.T, f *fakeAPI, autenticado bool) (*Client, *FileStore) {
	t.Helper()
	store, err := NewFileStoreFS(afero.NewMemMapFs(), "/sesion")
	require.NoError(t, err)
	sesion, err := CargarSesion(store)
	require.NoError(t, err)
	if autenticado {
		padron := "10-0036"
		require.NoError(t, sesion.Iniciar(authdomain.LoginResponse{
			AccessToken: "tok",
			Usuario:     authdomain.UsuarioSesion{ID: "1", Nombre: "Admin", Rol: "administrativo", Padron: &padron},
		}))
	}
	return New(f.start(), sesion), store
}

func TestSesionExpiradaOn401(t *testing.T) {
	f := newFakeAPI(t)
	f.GET("/boletas/:id", func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   gin.H{"type": "session_expired", "message": "La sesión expiró, ingrese nuevamente"},
			"message": "La sesión expiró, ingrese nuevamente",
		})
	})
	client, store := newTestClient(t, f, true)

	var eventos []SesionExpirada
	cancel := client.Sesion().Suscribir(func(e SesionExpirada) { eventos = append(eventos, e) })
	defer cancel()

	_, err := client.Boleta(context.Background(), "11")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSesionExpirada))
	assert.Equal(t, "La sesión expiró, ingrese nuevamente", Mensaje(err))

	assert.Equal(t, EstadoAnonima, client.Sesion().Estado())
	_, ok, err := store.Get(keyToken)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = store.Get(keyUser)
	require.NoError(t, err)
	assert.False(t, ok)

	require.Len(t, eventos, 1)
	assert.Equal(t, http.MethodGet, eventos[0].Metodo)
	assert.Equal(t, "/boletas/11", eventos[0].Ruta)
}

func TestUnauthenticated401DoesNotPublish(t *testing.T) {
	f := newFakeAPI(t)
	f.POST("/auth/login/interno", func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   gin.H{"type": "unauthorized", "message": "Credenciales inválidas"},
			"message": "Credenciales inválidas",
		})
	})
	client, _ := newTestClient(t, f, false)

	publicados := 0
	client.Sesion().Suscribir(func(SesionExpirada) { publicados++ })

	_, err := client.LoginInterno(context.Background(), "admin@agua.test", "mal")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSesionExpirada))
	assert.Equal(t, "Credenciales inválidas", Mensaje(err))
	assert.Zero(t, publicados)
}

func TestServerMessageSurfacedVerbatim(t *testing.T) {
	f := newFakeAPI(t)
	f.POST("/tarifario/generar-boletas-masivas", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   gin.H{"type": "not_found", "message": "No hay un tarifario activo"},
			"message": "No hay un tarifario activo",
		})
	})
	f.GET("/zonas", func(c *gin.Context) {
		c.String(http.StatusBadGateway, "upstream down")
	})
	client, _ := newTestClient(t, f, true)

	_, err := client.GenerarMasivo(context.Background(), 6, 2024)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "not_found", apiErr.Tipo)
	assert.Equal(t, "No hay un tarifario activo", Mensaje(err))

	_, err = client.Zonas(context.Background())
	require.Error(t, err)
	assert.Equal(t, "No se pudo completar la operación", Mensaje(err))
}

func TestLoginPersistsSession(t *testing.T) {
	f := newFakeAPI(t)
	f.POST("/auth/login/padron", func(c *gin.Context) {
		var req authdomain.LoginPadronRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.JSON(http.StatusOK, authdomain.LoginResponse{
			AccessToken: "tok-cliente",
			Usuario:     authdomain.UsuarioSesion{ID: "7", Nombre: "Ana", Rol: "cliente", Padron: &req.Padron, EstadoServicio: "ACTIVO"},
		})
	})
	f.GET("/auth/perfil", func(c *gin.Context) {
		assert.Equal(t, "Bearer tok-cliente", c.GetHeader("Authorization"))
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": "7", "nombre": "Ana", "rol": "cliente"}})
	})
	client, store := newTestClient(t, f, false)

	_, err := client.LoginPadron(context.Background(), "10-36")
	assert.True(t, EsValidacion(err))
	assert.Zero(t, f.total())

	usuario, err := client.LoginPadron(context.Background(), "10-0036")
	require.NoError(t, err)
	assert.Equal(t, "Ana", usuario.Nombre)

	token, ok, err := store.Get(keyToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok-cliente", token)

	restored, err := CargarSesion(store)
	require.NoError(t, err)
	assert.Equal(t, EstadoAutenticada, restored.Estado())
	u, ok := restored.Usuario()
	require.True(t, ok)
	assert.Equal(t, "7", u.ID)

	perfil, err := client.Perfil(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cliente", perfil.Rol)

	require.NoError(t, client.Logout())
	assert.Equal(t, EstadoAnonima, client.Sesion().Estado())
	_, ok, err = store.Get(keyToken)
	require.NoError(t, err)
	assert.False(t, ok)
}
