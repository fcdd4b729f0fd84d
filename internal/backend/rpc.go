package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
)

var (
	ErrInvalidProcedure = errors.New("backend: invalid procedure name")

	procedureName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
)

// Procedures invoca funciones remotas del backend con la identidad del actor.
type Procedures interface {
	Call(ctx context.Context, creds Credentials, name string, args map[string]any, out any) error
}

// Call ejecuta POST /rest/v1/rpc/{name}. Un resultado null deja out intacto.
func (c *Client) Call(ctx context.Context, creds Credentials, name string, args map[string]any, out any) error {
	if !procedureName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidProcedure, name)
	}
	if args == nil {
		args = map[string]any{}
	}
	var raw json.RawMessage
	if err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/rest/v1/rpc/" + name,
		accessToken: creds.AccessToken,
		body:        args,
	}, &raw); err != nil {
		return err
	}
	return decodeResult(raw, out)
}

func decodeResult(raw json.RawMessage, out any) error {
	trimmed := bytes.TrimSpace(raw)
	if out == nil || len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}
	if target, ok := out.(*json.RawMessage); ok {
		*target = append((*target)[:0], raw...)
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal rpc result: %w", err)
	}
	return nil
}
