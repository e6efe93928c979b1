package cliente

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	authdomain "github.com/AxelFernandez/agua-andre-sub000/internal/auth/domain"
)

type Estado int

const (
	EstadoAnonima Estado = iota
	EstadoAutenticada
)

func (e Estado) String() string {
	if e == EstadoAutenticada {
		return "autenticada"
	}
	return "anonima"
}

// ErrSesionExpirada is returned by any call answered with 401. The session is
// already cleared when the caller sees it.
var ErrSesionExpirada = errors.New("sesion_expirada")

// SesionExpirada is delivered to subscribers when the server rejects the
// stored token.
type SesionExpirada struct {
	Metodo string
	Ruta   string
	En     time.Time
}

// Sesion holds the bearer token and the logged-in user. It moves between
// EstadoAnonima and EstadoAutenticada only through Iniciar, Cerrar and a 401.
type Sesion struct {
	mu      sync.RWMutex
	store   Store
	estado  Estado
	token   string
	usuario authdomain.UsuarioSesion

	subsMu sync.Mutex
	nextID int
	subs   map[int]func(SesionExpirada)
}

// CargarSesion restores a persisted session. A token without a readable user
// is discarded.
func CargarSesion(store Store) (*Sesion, error) {
	s := &Sesion{store: store, subs: map[int]func(SesionExpirada){}}
	if store == nil {
		return s, nil
	}

	token, ok, err := store.Get(keyToken)
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(token) == "" {
		return s, nil
	}
	raw, ok, err := store.Get(keyUser)
	if err != nil {
		return nil, err
	}
	var usuario authdomain.UsuarioSesion
	if !ok || json.Unmarshal([]byte(raw), &usuario) != nil {
		return s, s.borrar()
	}

	s.estado = EstadoAutenticada
	s.token = strings.TrimSpace(token)
	s.usuario = usuario
	return s, nil
}

func (s *Sesion) Estado() Estado {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.estado
}

func (s *Sesion) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.estado != EstadoAutenticada {
		return "", false
	}
	return s.token, true
}

func (s *Sesion) Usuario() (authdomain.UsuarioSesion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.estado != EstadoAutenticada {
		return authdomain.UsuarioSesion{}, false
	}
	return s.usuario, true
}

func (s *Sesion) Iniciar(resp authdomain.LoginResponse) error {
	token := strings.TrimSpace(resp.AccessToken)
	if token == "" {
		return errors.New("empty access token")
	}
	raw, err := json.Marshal(resp.Usuario)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		if err := s.store.Set(keyToken, token); err != nil {
			return err
		}
		if err := s.store.Set(keyUser, string(raw)); err != nil {
			return err
		}
	}
	s.estado = EstadoAutenticada
	s.token = token
	s.usuario = resp.Usuario
	return nil
}

func (s *Sesion) Cerrar() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.borrar()
}

// Suscribir registers fn for expiry events. The returned func unsubscribes.
func (s *Sesion) Suscribir(fn func(SesionExpirada)) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Sesion) expirar(evento SesionExpirada) error {
	s.mu.Lock()
	eraAutenticada := s.estado == EstadoAutenticada
	err := s.borrar()
	s.mu.Unlock()

	if !eraAutenticada {
		return err
	}
	s.subsMu.Lock()
	handlers := make([]func(SesionExpirada), 0, len(s.subs))
	for _, fn := range s.subs {
		handlers = append(handlers, fn)
	}
	s.subsMu.Unlock()
	for _, fn := range handlers {
		fn(evento)
	}
	return err
}

// borrar requires s.mu held.
func (s *Sesion) borrar() error {
	s.estado = EstadoAnonima
	s.token = ""
	s.usuario = authdomain.UsuarioSesion{}
	if s.store == nil {
		return nil
	}
	if err := s.store.Delete(keyToken); err != nil {
		return err
	}
	return s.store.Delete(keyUser)
}
