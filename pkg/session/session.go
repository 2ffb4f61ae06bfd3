// Package session maps browser sessions to search controllers. Sessions live
// in an expiring in-memory cache keyed by a UUID cookie.
package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/rubiojr/efinder/pkg/log"
	"github.com/rubiojr/efinder/pkg/metrics"
	"github.com/rubiojr/efinder/pkg/search"
)

// CookieName is the session cookie.
const CookieName = "efinder_session"

var logger = log.ForService("session")

// Factory builds the controller for a new session.
type Factory func() *search.Controller

type Store struct {
	cache   *cache.Cache
	ttl     time.Duration
	factory Factory
}

// NewStore creates a store whose sessions expire after ttl without use.
func NewStore(ttl time.Duration, factory Factory) *Store {
	s := &Store{
		cache:   cache.New(ttl, ttl*2),
		ttl:     ttl,
		factory: factory,
	}
	s.cache.OnEvicted(func(id string, _ interface{}) {
		logger.Debugf("session %s expired", id)
		metrics.ActiveSessions.Set(float64(s.Count()))
	})
	return s
}

// Get returns the controller for id and extends its lifetime.
func (s *Store) Get(id string) (*search.Controller, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	ctrl, ok := v.(*search.Controller)
	if !ok {
		return nil, false
	}
	s.cache.Set(id, ctrl, cache.DefaultExpiration)
	return ctrl, true
}

// Create starts a new session.
func (s *Store) Create() (string, *search.Controller) {
	id := uuid.NewString()
	ctrl := s.factory()
	s.cache.Set(id, ctrl, cache.DefaultExpiration)
	metrics.ActiveSessions.Set(float64(s.Count()))
	logger.Debugf("session %s created", id)
	return id, ctrl
}

// Load returns the controller for the request's session, creating a session
// when there is none or it expired. The cookie is re-issued on every call so
// its lifetime slides with the server-side entry.
func (s *Store) Load(w http.ResponseWriter, r *http.Request) *search.Controller {
	if c, err := r.Cookie(CookieName); err == nil {
		if ctrl, ok := s.Get(c.Value); ok {
			s.setCookie(w, c.Value)
			return ctrl
		}
	}

	id, ctrl := s.Create()
	s.setCookie(w, id)
	return ctrl
}

func (s *Store) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	return s.cache.ItemCount()
}
