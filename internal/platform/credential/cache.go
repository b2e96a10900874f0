package credential

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yangmw7/TradeVision-sub001/internal/shared/upstream"
)

const (
	// DefaultSafetyMargin keeps a credential from being used when it would expire mid-call.
	DefaultSafetyMargin = 60 * time.Second
	// DefaultRefreshTimeout bounds a single refresh, independent of the caller's context.
	DefaultRefreshTimeout = 15 * time.Second
	// DefaultFailureCooldown is how long a failed refresh suppresses new issuer calls
	// while the current credential has not expired yet.
	DefaultFailureCooldown = 30 * time.Second

	refreshKey = "refresh"
)

// Cache owns the single live credential and refreshes it on demand.
//
// At most one refresh is in flight at any time; concurrent callers share its
// outcome. A refresh is detached from the caller that started it, so a
// cancelled request never aborts a refresh other callers depend on.
type Cache struct {
	issuer         Issuer
	store          Store
	margin         time.Duration
	refreshTimeout time.Duration
	cooldown       time.Duration
	now            func() time.Time

	mu       sync.RWMutex
	cur      Credential
	failedAt time.Time // last refresh failure that fell back to cur
	group    singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithStore shares credentials through s.
func WithStore(s Store) Option {
	return func(c *Cache) { c.store = s }
}

// WithSafetyMargin overrides DefaultSafetyMargin.
func WithSafetyMargin(d time.Duration) Option {
	return func(c *Cache) {
		if d >= 0 {
			c.margin = d
		}
	}
}

// WithRefreshTimeout overrides DefaultRefreshTimeout.
func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.refreshTimeout = d
		}
	}
}

// WithFailureCooldown overrides DefaultFailureCooldown. Zero retries on every call.
func WithFailureCooldown(d time.Duration) Option {
	return func(c *Cache) {
		if d >= 0 {
			c.cooldown = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// NewCache creates a Cache that obtains credentials from issuer.
func NewCache(issuer Issuer, opts ...Option) *Cache {
	c := &Cache{
		issuer:         issuer,
		margin:         DefaultSafetyMargin,
		refreshTimeout: DefaultRefreshTimeout,
		cooldown:       DefaultFailureCooldown,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a credential valid for at least the safety margin, refreshing it when needed.
// If ctx ends while a refresh is in flight, Get returns ctx.Err() and the refresh carries on.
func (c *Cache) Get(ctx context.Context) (Credential, error) {
	if cred, ok := c.cached(); ok {
		return cred, nil
	}

	ch := c.group.DoChan(refreshKey, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()
		return c.refresh(rctx)
	})

	select {
	case <-ctx.Done():
		return Credential{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Credential{}, res.Err
		}
		return res.Val.(Credential), nil
	}
}

// Invalidate drops the cached credential if it still holds value.
// Used when the server reports the token as expired before its declared lifetime.
func (c *Cache) Invalidate(ctx context.Context, value string) {
	c.mu.Lock()
	dropped := c.cur.Value == value && value != ""
	if dropped {
		c.cur = Credential{}
	}
	c.mu.Unlock()

	if dropped && c.store != nil {
		if err := c.store.Delete(ctx); err != nil {
			slog.Warn("failed to delete shared credential", "error", err)
		}
	}
}

func (c *Cache) cached() (Credential, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.now()
	if c.cur.ValidAt(now, c.margin) {
		return c.cur, true
	}
	// 直前の更新失敗から間もない間は発行を再試行せず、期限前の資格情報を使う
	if !c.failedAt.IsZero() && now.Sub(c.failedAt) < c.cooldown && c.cur.ValidAt(now, 0) {
		return c.cur, true
	}
	return Credential{}, false
}

func (c *Cache) set(cred Credential) {
	c.mu.Lock()
	c.cur = cred
	c.failedAt = time.Time{}
	c.mu.Unlock()
}

func (c *Cache) refresh(ctx context.Context) (Credential, error) {
	// a flight that finished just before this one started may already have done the work
	if cred, ok := c.cached(); ok {
		return cred, nil
	}

	if c.store != nil {
		cred, ok, err := c.store.Load(ctx)
		switch {
		case err != nil:
			slog.Warn("failed to load shared credential", "error", err)
		case ok && cred.ValidAt(c.now(), c.margin):
			c.set(cred)
			return cred, nil
		}
	}

	cred, err := c.issuer.Issue(ctx)
	if err == nil {
		err = c.validate(cred)
	}
	if err != nil {
		if !errors.Is(err, upstream.ErrCredential) {
			err = upstream.New(upstream.ErrCredential, "credential.refresh", "", "", err)
		}
		if stale, ok := c.unexpired(); ok {
			c.mu.Lock()
			c.failedAt = c.now()
			c.mu.Unlock()
			slog.Warn("credential refresh failed; reusing credential until it expires",
				"expires_at", stale.ExpiresAt, "error", err)
			return stale, nil
		}
		return Credential{}, err
	}

	c.set(cred)
	if c.store != nil {
		if err := c.store.Save(ctx, cred); err != nil {
			slog.Warn("failed to share credential", "error", err)
		}
	}
	slog.Info("credential refreshed", "expires_at", cred.ExpiresAt)
	return cred, nil
}

func (c *Cache) validate(cred Credential) error {
	if cred.Value == "" {
		return upstream.New(upstream.ErrCredential, "credential.refresh", "", "issuer returned an empty token", nil)
	}
	if !cred.ExpiresAt.After(c.now()) {
		return upstream.New(upstream.ErrCredential, "credential.refresh", "", "issuer returned an expired token", nil)
	}
	return nil
}

// unexpired returns the current credential if it has not expired yet, ignoring the margin.
func (c *Cache) unexpired() (Credential, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cur.ValidAt(c.now(), 0) {
		return c.cur, true
	}
	return Credential{}, false
}
