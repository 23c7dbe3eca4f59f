// Package acl defines the access control collaborator consulted by the
// lifecycle handlers and carries it through request contexts.
package acl

import (
	"context"
	"sync"
)

// ACL answers the authorization questions the lifecycle handlers ask.
type ACL interface {
	UserID() int64
	GroupID() int64
	IsPublic() bool
	CanUpdate(collection string) bool
}

type ctxKey struct{}

// WithContext stores a in ctx.
func WithContext(ctx context.Context, a ACL) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext returns the ACL stored in ctx. Requests without one are
// anonymous.
func FromContext(ctx context.Context) ACL {
	if a, ok := ctx.Value(ctxKey{}).(ACL); ok && a != nil {
		return a
	}
	return Anonymous
}

// Anonymous is the ACL of unauthenticated requests.
var Anonymous ACL = &Static{Public: true}

// Static is an in-memory ACL.
type Static struct {
	User   int64
	Group  int64
	Public bool

	mu        sync.RWMutex
	updatable map[string]bool
}

// NewStatic builds an ACL for user in group allowed to update the given
// collections.
func NewStatic(user, group int64, updatable ...string) *Static {
	s := &Static{User: user, Group: group}
	s.Grant(updatable...)
	return s
}

// Grant adds update rights on collections.
func (s *Static) Grant(collections ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updatable == nil {
		s.updatable = map[string]bool{}
	}
	for _, c := range collections {
		s.updatable[c] = true
	}
}

func (s *Static) UserID() int64  { return s.User }
func (s *Static) GroupID() int64 { return s.Group }
func (s *Static) IsPublic() bool { return s.Public }

func (s *Static) CanUpdate(collection string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatable[collection]
}
