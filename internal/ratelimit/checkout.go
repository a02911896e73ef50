package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/limaskap/limaskap/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	keyCheckoutUser   = "limaskap:checkout:user:%s"
	keyWebhookIP      = "limaskap:webhook:ip:%s"
	keyEnrollmentLock = "limaskap:enrollment:lock:%d:%d"
)

// Unlock releases a lock taken by LockEnrollment.
type Unlock func(ctx context.Context)

func noopUnlock(context.Context) {}

// CheckoutLimiter throttles checkout creation per user and webhook deliveries
// per client address, and serialises enrollment attempts for the same
// program and member. A nil limiter allows everything.
type CheckoutLimiter struct {
	client *redis.Client
	bucket *Bucket
	locker *Locker
	log    *zap.Logger

	checkout Policy
	webhook  Policy
	lockTTL  time.Duration
}

type Params struct {
	fx.In

	Lc  fx.Lifecycle `optional:"true"`
	Cfg config.Config
	Log *zap.Logger
}

func NewCheckoutLimiter(p Params) (*CheckoutLimiter, error) {
	limitCfg := p.Cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if err := (Policy{Rate: limitCfg.CheckoutRate, Burst: limitCfg.CheckoutBurst}).validate(); err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	if err := (Policy{Rate: limitCfg.WebhookRate, Burst: limitCfg.WebhookBurst}).validate(); err != nil {
		return nil, fmt.Errorf("webhook: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	limiter := newCheckoutLimiter(client, limitCfg, p.Log)
	if p.Lc != nil {
		p.Lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := client.Ping(ctx).Err(); err != nil {
					limiter.log.Warn("redis unreachable, rate limiting fails open", zap.Error(err))
				}
				return nil
			},
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})
	}
	return limiter, nil
}

func newCheckoutLimiter(client *redis.Client, cfg config.RateLimitConfig, log *zap.Logger) *CheckoutLimiter {
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CheckoutLimiter{
		client:   client,
		bucket:   NewBucket(client),
		locker:   NewLocker(client),
		log:      log.Named("ratelimit"),
		checkout: Policy{Rate: cfg.CheckoutRate, Burst: cfg.CheckoutBurst},
		webhook:  Policy{Rate: cfg.WebhookRate, Burst: cfg.WebhookBurst},
		lockTTL:  ttl,
	}
}

func (l *CheckoutLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// AllowCheckout spends one token from the user's checkout bucket.
func (l *CheckoutLimiter) AllowCheckout(ctx context.Context, userID string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.allow(ctx, fmt.Sprintf(keyCheckoutUser, strings.TrimSpace(userID)), l.checkout)
}

// AllowWebhook spends one token from the caller address's webhook bucket.
func (l *CheckoutLimiter) AllowWebhook(ctx context.Context, clientIP string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.allow(ctx, fmt.Sprintf(keyWebhookIP, strings.TrimSpace(clientIP)), l.webhook)
}

// allow fails open when redis is unavailable; the unique indexes still
// protect the data.
func (l *CheckoutLimiter) allow(ctx context.Context, key string, p Policy) (*Result, error) {
	res, err := l.bucket.Take(ctx, key, p)
	if err != nil {
		l.log.Warn("rate limit check failed", zap.String("key", key), zap.Error(err))
		return &Result{Allowed: true}, err
	}
	return res, nil
}

// LockEnrollment takes the per program and member lock. ok is false when
// another request holds it.
func (l *CheckoutLimiter) LockEnrollment(ctx context.Context, programID, memberID int64) (Unlock, bool) {
	if !l.Enabled() {
		return noopUnlock, true
	}

	key := fmt.Sprintf(keyEnrollmentLock, programID, memberID)
	lease, err := l.locker.Acquire(ctx, key, l.lockTTL)
	if err != nil {
		l.log.Warn("enrollment lock failed", zap.String("key", key), zap.Error(err))
		return noopUnlock, true
	}
	if lease == nil {
		return noopUnlock, false
	}
	return func(ctx context.Context) {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			l.log.Warn("enrollment unlock failed", zap.String("key", key), zap.Error(err))
		}
	}, true
}
