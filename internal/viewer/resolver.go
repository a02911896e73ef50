package viewer

import (
	"context"
	"strings"
	"time"

	"github.com/limaskap/limaskap/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ResolverParams struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

// Resolver looks session tokens up in the sessions table.
type Resolver struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

func NewResolver(p ResolverParams) *Resolver {
	return &Resolver{
		db:    p.DB,
		log:   p.Log.Named("viewer.resolver"),
		clock: p.Clock,
	}
}

type sessionRow struct {
	UserID    string
	Email     string
	Name      string
	ExpiresAt time.Time
}

// Resolve returns the viewer owning token, or nil when the token is unknown or
// expired.
func (r *Resolver) Resolve(ctx context.Context, token string) (*Viewer, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}

	var row sessionRow
	err := r.db.WithContext(ctx).Raw(
		`SELECT u.id AS user_id, u.email, u.name, s.expires_at
		 FROM sessions s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.token = ?
		 LIMIT 1`,
		token,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.UserID == "" {
		return nil, nil
	}
	if !row.ExpiresAt.After(r.clock.Now()) {
		r.log.Debug("session expired", zap.String("user_id", row.UserID))
		return nil, nil
	}

	return &Viewer{
		UserID: row.UserID,
		Email:  row.Email,
		Name:   row.Name,
	}, nil
}
