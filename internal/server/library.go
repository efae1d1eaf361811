package server

import (
	"sync"

	"github.com/ayusman/posecoach/internal/profile"
	"github.com/ayusman/posecoach/internal/scoring"
	"github.com/ayusman/posecoach/internal/server/api"
	"github.com/ayusman/posecoach/internal/store"
)

// library keeps the current engine in step with the stored pose library.
type library struct {
	store *store.Store

	mu     sync.RWMutex
	engine *scoring.Engine
}

func newLibrary(st *store.Store, engine *scoring.Engine) *library {
	return &library{store: st, engine: engine}
}

// Engine returns the engine for newly started sessions.
func (l *library) Engine() *scoring.Engine {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.engine
}

// Registry returns the current pose registry.
func (l *library) Registry() *profile.Registry {
	return l.Engine().Registry()
}

// Save stores p and reloads the registry.
func (l *library) Save(p *profile.Profile) error {
	if l.store == nil {
		return api.ErrReadOnly
	}
	if err := l.store.Poses().Save(p); err != nil {
		return err
	}
	return l.reload()
}

// Delete removes a pose and reloads the registry.
func (l *library) Delete(id string) error {
	if l.store == nil {
		return api.ErrReadOnly
	}
	if err := l.store.Poses().Delete(id); err != nil {
		return err
	}
	return l.reload()
}

func (l *library) reload() error {
	reg, err := l.store.LoadRegistry()
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	engine, err := scoring.NewEngine(reg, l.engine.Config())
	if err != nil {
		return err
	}
	l.engine = engine
	return nil
}
