package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ClaimsFunc verifica un access token y devuelve sus claims en JSON, tal
// como las espera la funcion auth.uid() del backend.
type ClaimsFunc func(accessToken string) (json.RawMessage, error)

// txBeginner es lo que PgProcedures usa del pool.
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PgProcedures ejecuta las mismas funciones remotas directo contra Postgres,
// fijando request.jwt.claims para que las politicas vean al actor.
type PgProcedures struct {
	pool   txBeginner
	claims ClaimsFunc
	schema string

	// proretset por funcion; no cambia sin un deploy de migraciones.
	setReturning sync.Map
}

func NewPgProcedures(pool *pgxpool.Pool, claims ClaimsFunc) *PgProcedures {
	p := &PgProcedures{claims: claims, schema: "public"}
	if pool != nil {
		p.pool = pool
	}
	return p
}

// Call devuelve el mismo JSON que PostgREST: un arreglo para funciones
// SETOF/TABLE y el valor suelto (escalar u objeto) para el resto.
func (p *PgProcedures) Call(ctx context.Context, creds Credentials, name string, args map[string]any, out any) error {
	if p == nil || p.pool == nil {
		return ErrNotConfigured
	}
	query, params, err := buildProcedureCall(p.schema, name, args)
	if err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rpc tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	set, err := p.returnsSet(ctx, tx, name)
	if err != nil {
		return err
	}
	if err := p.impersonate(ctx, tx, creds); err != nil {
		return err
	}

	var raw []byte
	if err := tx.QueryRow(ctx, query, params...).Scan(&raw); err != nil {
		return fmt.Errorf("rpc %s: %w", name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rpc tx: %w", err)
	}
	shaped, err := shapeProcedureResult(raw, set)
	if err != nil {
		return fmt.Errorf("rpc %s: %w", name, err)
	}
	return decodeResult(shaped, out)
}

func (p *PgProcedures) returnsSet(ctx context.Context, tx pgx.Tx, name string) (bool, error) {
	if v, ok := p.setReturning.Load(name); ok {
		return v.(bool), nil
	}
	var set bool
	err := tx.QueryRow(ctx, procedureShapeQuery, p.schema, name).Scan(&set)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("%w: %q not found", ErrInvalidProcedure, name)
	}
	if err != nil {
		return false, fmt.Errorf("lookup rpc %s: %w", name, err)
	}
	p.setReturning.Store(name, set)
	return set, nil
}

const procedureShapeQuery = `SELECT p.proretset
FROM pg_catalog.pg_proc p
JOIN pg_catalog.pg_namespace n ON n.oid = p.pronamespace
WHERE n.nspname = $1 AND p.proname = $2
LIMIT 1`

// shapeProcedureResult recibe siempre el json_agg de las filas. Para
// funciones que no son SETOF desenvuelve la unica fila.
func shapeProcedureResult(raw []byte, set bool) (json.RawMessage, error) {
	if set {
		return raw, nil
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return json.RawMessage("null"), nil
	}
	return rows[0], nil
}

func (p *PgProcedures) impersonate(ctx context.Context, tx pgx.Tx, creds Credentials) error {
	role := "anon"
	claims := json.RawMessage(`{"role":"anon"}`)
	if !creds.Empty() {
		if p.claims == nil {
			return ErrUnauthenticated
		}
		verified, err := p.claims(creds.AccessToken)
		if err != nil {
			return ErrUnauthenticated
		}
		role = "authenticated"
		claims = verified
	}
	if _, err := tx.Exec(ctx, `SELECT set_config('request.jwt.claims', $1, true)`, string(claims)); err != nil {
		return fmt.Errorf("set jwt claims: %w", err)
	}
	// role viene de una lista cerrada, no del actor.
	if _, err := tx.Exec(ctx, "SET LOCAL ROLE "+role); err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	return nil
}

// buildProcedureCall arma
//
//	SELECT coalesce(json_agg(r), '[]'::json) FROM schema.fn(a => $1, b => $2) AS r
//
// con los argumentos ordenados por nombre. Un escalar queda como columna r
// y una fila compuesta como objeto.
func buildProcedureCall(schema, name string, args map[string]any) (string, []any, error) {
	if !procedureName.MatchString(name) || !procedureName.MatchString(schema) {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidProcedure, name)
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		if !procedureName.MatchString(k) {
			return "", nil, fmt.Errorf("%w: argument %q", ErrInvalidProcedure, k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	named := make([]string, 0, len(keys))
	params := make([]any, 0, len(keys))
	for i, k := range keys {
		named = append(named, fmt.Sprintf("%s => $%d", k, i+1))
		params = append(params, args[k])
	}
	query := fmt.Sprintf("SELECT coalesce(json_agg(r), '[]'::json) FROM %s.%s(%s) AS r", schema, name, strings.Join(named, ", "))
	return query, params, nil
}
