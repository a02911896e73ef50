// Package viewer resolves the authenticated account behind a request from the
// auth provider's session store.
package viewer

import (
	"context"
	"errors"
	"strings"
)

var ErrUnauthorized = errors.New("unauthorized")

// Viewer is the authenticated account making a request.
type Viewer struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// FirstName returns the first word of the display name.
func (v *Viewer) FirstName() string {
	if v == nil {
		return ""
	}
	first, _, _ := strings.Cut(strings.TrimSpace(v.Name), " ")
	return first
}

type ctxKey struct{}

func WithViewer(ctx context.Context, v *Viewer) context.Context {
	return context.WithValue(ctx, ctxKey{}, v)
}

// FromContext returns the viewer attached by the middleware, or nil.
func FromContext(ctx context.Context) *Viewer {
	if ctx == nil {
		return nil
	}
	v, _ := ctx.Value(ctxKey{}).(*Viewer)
	return v
}

// Require returns ErrUnauthorized for a missing viewer.
func Require(v *Viewer) error {
	if v == nil || strings.TrimSpace(v.UserID) == "" {
		return ErrUnauthorized
	}
	return nil
}
