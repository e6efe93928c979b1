// Package cliente talks to the agua API on behalf of an operator or a
// customer. Every call is explicit and is never retried. A 401 clears the
// session and is reported through ErrSesionExpirada.
package cliente

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "http://localhost:3001"

	mensajeGenerico = "No se pudo completar la operación"
)

// APIError is a non-2xx answer. Message is the server's text, shown as is.
type APIError struct {
	Status  int
	Tipo    string
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

type Client struct {
	baseURL string
	http    *http.Client
	sesion  *Sesion
	log     *zap.Logger
	now     func() time.Time
}

// New builds a client. The http.Client has no timeout: a hung request blocks
// until ctx is done.
func New(baseURL string, sesion *Sesion, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if sesion == nil {
		sesion, _ = CargarSesion(nil)
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		sesion:  sesion,
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Named("cliente")
	return c
}

func (c *Client) Sesion() *Sesion {
	return c.sesion
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

// doJSON sends body as JSON and decodes the "data" envelope into out.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
		contentType = "application/json"
	}
	raw, err := c.do(ctx, method, path, reader, contentType)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token, ok := c.sesion.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && req.Header.Get("Authorization") != "" {
		c.log.Info("session expired", zap.String("method", method), zap.String("path", path))
		if err := c.sesion.expirar(SesionExpirada{Metodo: method, Ruta: path, En: c.now()}); err != nil {
			c.log.Warn("failed to clear session", zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %w", ErrSesionExpirada, decodeAPIError(resp.StatusCode, raw))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeAPIError(resp.StatusCode, raw)
	}
	return raw, nil
}

func decodeAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{Status: status, Message: mensajeGenerico}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return apiErr
	}
	apiErr.Tipo = body.Error.Type
	message := strings.TrimSpace(body.Message)
	if message == "" {
		message = strings.TrimSpace(body.Error.Message)
	}
	if message != "" {
		apiErr.Message = message
	}
	return apiErr
}

// Mensaje returns the text a caller should show for err.
func Mensaje(err error) string {
	if err == nil {
		return ""
	}
	var vErr *ValidacionError
	if errors.As(err, &vErr) {
		return vErr.Mensaje
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if errors.Is(err, ErrSesionExpirada) {
		return "La sesión expiró, ingrese nuevamente"
	}
	return mensajeGenerico
}
