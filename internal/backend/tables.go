package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// Tables expone las operaciones de tabla que usan los servicios.
type Tables interface {
	Select(ctx context.Context, creds Credentials, table string, filters url.Values, out any) error
	Upsert(ctx context.Context, creds Credentials, table string, row any, out any) error
	Delete(ctx context.Context, creds Credentials, table string, filters url.Values) (int, error)
}

// Eq arma un filtro "col=eq.value" al estilo PostgREST.
func Eq(pairs ...string) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		v.Set(pairs[i], "eq."+pairs[i+1])
	}
	return v
}

func (c *Client) Select(ctx context.Context, creds Credentials, table string, filters url.Values, out any) error {
	q := url.Values{}
	for k, vals := range filters {
		q[k] = vals
	}
	if q.Get("select") == "" {
		q.Set("select", "*")
	}
	return c.do(ctx, request{
		method:      http.MethodGet,
		path:        "/rest/v1/" + table,
		query:       q,
		accessToken: creds.AccessToken,
	}, out)
}

// Upsert inserta o mezcla la fila y devuelve la representacion guardada.
func (c *Client) Upsert(ctx context.Context, creds Credentials, table string, row any, out any) error {
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/rest/v1/" + table,
		accessToken: creds.AccessToken,
		body:        row,
		prefer:      "resolution=merge-duplicates,return=representation",
	}, out)
}

// Delete borra las filas que cumplen los filtros y devuelve cuantas fueron.
func (c *Client) Delete(ctx context.Context, creds Credentials, table string, filters url.Values) (int, error) {
	var rows []json.RawMessage
	err := c.do(ctx, request{
		method:      http.MethodDelete,
		path:        "/rest/v1/" + table,
		query:       filters,
		accessToken: creds.AccessToken,
		prefer:      "return=representation",
	}, &rows)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}
