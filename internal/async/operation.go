// Package async estandariza el ciclo de vida de una operacion remota:
// idle -> loading -> success | error.
package async

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// State es una copia inmutable del estado de una Operation.
type State[T any] struct {
	Status Status `json:"status"`
	Data   *T     `json:"data"`
	Error  string `json:"error,omitempty"`
}

func (s State[T]) Loading() bool {
	return s.Status == StatusLoading
}

// Operation rastrea una sola operacion a la vez. Invocaciones concurrentes
// sobre la misma instancia se pisan (gana la ultima escritura); quien
// necesite concurrencia debe usar instancias separadas.
type Operation[T any] struct {
	logger *zap.Logger
	name   string

	mu        sync.Mutex
	state     State[T]
	unmounted bool
}

func New[T any](logger *zap.Logger, name string) *Operation[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Operation[T]{
		logger: logger,
		name:   name,
		state:  State[T]{Status: StatusIdle},
	}
}

// Execute pasa a loading antes de invocar fn. Si fn falla guarda el mensaje
// del error (o fallback si esta vacio), lo loguea y devuelve el error
// original para que quien llama decida.
func (o *Operation[T]) Execute(ctx context.Context, fn func(context.Context) (T, error), fallback string) (T, error) {
	o.write(func(s *State[T]) {
		s.Status = StatusLoading
		s.Error = ""
	})

	value, err := fn(ctx)
	if err != nil {
		msg := MessageFor(err, fallback)
		o.write(func(s *State[T]) {
			s.Status = StatusError
			s.Error = msg
		})
		o.logger.Error("operation failed", zap.String("operation", o.name), zap.Error(err))
		return value, err
	}

	o.write(func(s *State[T]) {
		v := value
		s.Status = StatusSuccess
		s.Data = &v
	})
	return value, nil
}

// Reset vuelve a idle sin condiciones.
func (o *Operation[T]) Reset() {
	o.write(func(s *State[T]) {
		*s = State[T]{Status: StatusIdle}
	})
}

// Unmount hace que toda escritura posterior sea un no-op.
func (o *Operation[T]) Unmount() {
	o.mu.Lock()
	o.unmounted = true
	o.mu.Unlock()
}

func (o *Operation[T]) Snapshot() State[T] {
	o.mu.Lock()
	defer o.mu.Unlock()
	snap := o.state
	if snap.Data != nil {
		v := *snap.Data
		snap.Data = &v
	}
	return snap
}

func (o *Operation[T]) write(fn func(*State[T])) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.unmounted {
		return
	}
	fn(&o.state)
}

// MessageFor deriva el mensaje visible de un error.
func MessageFor(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}
