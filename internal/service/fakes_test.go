package service

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"

	"salon-booking/internal/backend"
	"salon-booking/internal/domain"
)

type fakeUsers struct {
	user  *domain.User
	err   error
	calls int
}

func (f *fakeUsers) GetUser(_ context.Context, _ backend.Credentials) (*domain.User, error) {
	f.calls++
	return f.user, f.err
}

type fakeSessions struct {
	session *domain.Session
	err     error
}

func (f *fakeSessions) GetSession(_ context.Context, _ backend.Credentials) (*domain.Session, error) {
	return f.session, f.err
}

type procCall struct {
	name string
	args map[string]any
}

// fakeProcs responde con JSON fijo por nombre de procedimiento.
type fakeProcs struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	calls     []procCall
}

func (f *fakeProcs) Call(_ context.Context, _ backend.Credentials, name string, args map[string]any, out any) error {
	f.mu.Lock()
	f.calls = append(f.calls, procCall{name: name, args: args})
	f.mu.Unlock()
	if err := f.errs[name]; err != nil {
		return err
	}
	raw, ok := f.responses[name]
	if !ok {
		raw = "null"
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal([]byte(raw), out)
}

func (f *fakeProcs) called(name string) (procCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c.name == name {
			return c, true
		}
	}
	return procCall{}, false
}

type fakeTables struct {
	selectBody string
	selectErr  error
	upsertBody string
	upsertErr  error
	deleted    int
	deleteErr  error

	lastTable   string
	lastFilters url.Values
	lastRow     any
}

func (f *fakeTables) Select(_ context.Context, _ backend.Credentials, table string, filters url.Values, out any) error {
	f.lastTable = table
	f.lastFilters = filters
	if f.selectErr != nil {
		return f.selectErr
	}
	body := f.selectBody
	if body == "" {
		body = "[]"
	}
	return json.Unmarshal([]byte(body), out)
}

func (f *fakeTables) Upsert(_ context.Context, _ backend.Credentials, table string, row any, out any) error {
	f.lastTable = table
	f.lastRow = row
	if f.upsertErr != nil {
		return f.upsertErr
	}
	body := f.upsertBody
	if body == "" {
		body = "[]"
	}
	return json.Unmarshal([]byte(body), out)
}

func (f *fakeTables) Delete(_ context.Context, _ backend.Credentials, table string, filters url.Values) (int, error) {
	f.lastTable = table
	f.lastFilters = filters
	return f.deleted, f.deleteErr
}

type sentMail struct {
	to, subject, body string
}

type fakeSender struct {
	err  error
	sent []sentMail
}

func (f *fakeSender) SendNotification(_ context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type fixedLimiter struct {
	allow bool
	keys  []string
}

func (l *fixedLimiter) Allow(key string) bool {
	l.keys = append(l.keys, key)
	return l.allow
}
