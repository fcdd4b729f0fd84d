package backend

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

var (
	// ErrUnauthenticated indica que el backend no reconoce la sesion (401/403).
	ErrUnauthenticated = errors.New("backend: unauthenticated")
	ErrNotConfigured   = errors.New("backend: client not configured")
)

// RemoteError es un fallo devuelto por el backend con status >= 400.
type RemoteError struct {
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend http error: status=%d", e.Status)
}

// Credentials son los tokens de un actor emitidos por el proveedor de auth.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

func (c Credentials) Empty() bool {
	return strings.TrimSpace(c.AccessToken) == ""
}

// Client habla con el backend hospedado: API de auth, RPC y tablas.
type Client struct {
	baseURL string
	anonKey string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient construye un cliente apuntando al proyecto del backend.
func NewClient(baseURL, anonKey string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		client:  httpClient,
		logger:  logger,
	}
}

type request struct {
	method      string
	path        string
	query       url.Values
	accessToken string
	body        any
	prefer      string
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	if c == nil || c.baseURL == "" {
		return ErrNotConfigured
	}

	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	bearer := r.accessToken
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.prefer != "" {
		req.Header.Set("Prefer", r.prefer)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthenticated
	}
	if resp.StatusCode >= 400 {
		remote := parseRemoteError(resp.StatusCode, respBody)
		c.logger.Warn("backend error",
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.Int("status", resp.StatusCode),
			zap.String("code", remote.Code),
		)
		return remote
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// parseRemoteError entiende tanto errores de PostgREST como de la API de auth.
func parseRemoteError(status int, body []byte) *RemoteError {
	var payload struct {
		Code             any    `json:"code"`
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	remote := &RemoteError{Status: status}
	if err := json.Unmarshal(body, &payload); err != nil {
		return remote
	}
	if payload.Code != nil {
		remote.Code = fmt.Sprint(payload.Code)
	}
	switch {
	case payload.Message != "":
		remote.Message = payload.Message
	case payload.ErrorDescription != "":
		remote.Message = payload.ErrorDescription
	case payload.Msg != "":
		remote.Message = payload.Msg
	case payload.Error != "":
		remote.Message = payload.Error
	}
	if remote.Code == "" && payload.Error != "" {
		remote.Code = payload.Error
	}
	return remote
}

// DecodeSingle decodifica un resultado que puede venir como objeto o como
// arreglo de una fila (funciones que devuelven TABLE).
func DecodeSingle(raw json.RawMessage, out any) (bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false, nil
	}
	if trimmed[0] == '[' {
		var rows []json.RawMessage
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return false, fmt.Errorf("unmarshal rows: %w", err)
		}
		if len(rows) == 0 {
			return false, nil
		}
		trimmed = rows[0]
		if bytes.Equal(bytes.TrimSpace(trimmed), []byte("null")) {
			return false, nil
		}
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return false, fmt.Errorf("unmarshal row: %w", err)
	}
	return true, nil
}
