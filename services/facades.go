package services

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"viz-query-service/models"
)

var (
	// ErrFacadeDisallowed is returned when a view may not take a facade while
	// another view's facades are active.
	ErrFacadeDisallowed = errors.New("facade disallowed")
	// ErrInvalidFacade is returned for facades without an origin view or fields.
	ErrInvalidFacade = errors.New("invalid facade")
)

// FacadeStore owns the active view facades. Every mutation notifies the hooks
// so views constrained by the changed facades can be recomputed.
type FacadeStore struct {
	mu      sync.RWMutex
	facades []*models.Facade
	hooks   ViewHooks
	metrics *metrics
}

// NewFacadeStore returns an empty store.
func NewFacadeStore(hooks ViewHooks) *FacadeStore {
	if hooks == nil {
		hooks = NopHooks{}
	}
	return &FacadeStore{hooks: hooks, metrics: newMetrics(nil)}
}

// Get returns the active facades in insertion order.
func (s *FacadeStore) Get() []*models.Facade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*models.Facade(nil), s.facades...)
}

// Has reports whether any facade is active.
func (s *FacadeStore) Has() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.facades) > 0
}

// GetByID looks up an active facade.
func (s *FacadeStore) GetByID(id string) (*models.Facade, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.facades {
		if f.ID == id {
			return f, true
		}
	}
	return nil, false
}

// OriginViewID returns the view the first active facade came from.
func (s *FacadeStore) OriginViewID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.facades) == 0 {
		return ""
	}
	return s.facades[0].ViewID
}

// Set replaces all active facades.
func (s *FacadeStore) Set(facades []*models.Facade) error {
	for _, f := range facades {
		if err := prepareFacade(f); err != nil {
			return err
		}
	}
	s.mu.Lock()
	touched := origins(s.facades)
	s.facades = append([]*models.Facade(nil), facades...)
	touched = appendOrigins(touched, s.facades)
	s.mu.Unlock()
	s.notify(touched)
	return nil
}

// Add applies a facade. In exclusive mode the facades of other views are cleared
// first, in multi mode they are kept, in locked mode the facade is rejected
// while they are active.
func (s *FacadeStore) Add(f *models.Facade, mode models.FacadeMode) error {
	if err := prepareFacade(f); err != nil {
		return err
	}
	s.mu.Lock()
	foreign := false
	for _, active := range s.facades {
		if active.ViewID != f.ViewID {
			foreign = true
			break
		}
	}
	var touched []string
	if foreign {
		switch mode {
		case models.FacadeLocked:
			origin := s.facades[0].ViewID
			s.mu.Unlock()
			msg := fmt.Sprintf("view %s already filters this dashboard, clear its selection before selecting in view %s", origin, f.ViewID)
			s.hooks.OnAlert(msg)
			return errors.Wrap(ErrFacadeDisallowed, msg)
		case models.FacadeMulti:
		default:
			touched = origins(s.facades)
			s.facades = nil
		}
	}
	replaced := false
	for i, active := range s.facades {
		if active.ID == f.ID {
			s.facades[i] = f
			replaced = true
			break
		}
	}
	if !replaced {
		s.facades = append(s.facades, f)
	}
	touched = appendOrigins(touched, []*models.Facade{f})
	s.mu.Unlock()
	s.notify(touched)
	return nil
}

// RemoveByID drops one facade and reports whether it was active.
func (s *FacadeStore) RemoveByID(id string) bool {
	return s.Remove(id) > 0
}

// Remove drops the facades with the given ids and returns how many were active.
func (s *FacadeStore) Remove(ids ...string) int {
	return s.removeWhere(func(f *models.Facade) bool {
		return containsString(ids, f.ID)
	})
}

// RemoveByOrigin drops every facade exported by viewID.
func (s *FacadeStore) RemoveByOrigin(viewID string) int {
	return s.removeWhere(func(f *models.Facade) bool {
		return f.ViewID == viewID
	})
}

// Reset drops every facade.
func (s *FacadeStore) Reset() {
	s.removeWhere(func(*models.Facade) bool { return true })
}

func (s *FacadeStore) removeWhere(match func(*models.Facade) bool) int {
	s.mu.Lock()
	var kept []*models.Facade
	var touched []string
	removed := 0
	for _, f := range s.facades {
		if match(f) {
			touched = appendOrigins(touched, []*models.Facade{f})
			removed++
			continue
		}
		kept = append(kept, f)
	}
	s.facades = kept
	s.mu.Unlock()
	if removed > 0 {
		s.notify(touched)
	}
	return removed
}

func (s *FacadeStore) notify(origins []string) {
	s.mu.RLock()
	n := len(s.facades)
	s.mu.RUnlock()
	s.metrics.facades.Set(float64(n))
	for _, o := range origins {
		s.hooks.OnStaleViewsInvalidated(o)
	}
	s.hooks.OnFacadeIndicatorChanged()
}

func prepareFacade(f *models.Facade) error {
	if f == nil || f.ViewID == "" {
		return errors.Wrap(ErrInvalidFacade, "missing origin view")
	}
	if len(f.Fields) == 0 {
		return errors.Wrapf(ErrInvalidFacade, "facade of view %s has no fields", f.ViewID)
	}
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}

func origins(facades []*models.Facade) []string {
	return appendOrigins(nil, facades)
}

func appendOrigins(dst []string, facades []*models.Facade) []string {
	for _, f := range facades {
		if !containsString(dst, f.ViewID) {
			dst = append(dst, f.ViewID)
		}
	}
	return dst
}
