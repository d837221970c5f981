package identity

import (
	"bitrook/stashbin-api/internal/model"
	"bitrook/stashbin-api/pkg/util"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const cacheKey = "identity.guestCache"

// Manager owns the guest identity lifecycle: one durable row per anonymous
// visitor, addressed by the token round-tripped through the guest cookie.
// Resolved guests are memoized on the gin context so every caller within one
// request sees the same identity without extra storage reads.
type Manager struct {
	db      *gorm.DB
	auth    AuthContext
	cookies CookieTransport
	conf    Config
}

func NewManager(db *gorm.DB, auth AuthContext, cookies CookieTransport, conf Config) *Manager {
	if auth == nil {
		auth = ContextAuth{}
	}
	if cookies == nil {
		cookies = GinCookies{}
	}

	return &Manager{
		db:      db,
		auth:    auth,
		cookies: cookies,
		conf:    conf.withDefaults(),
	}
}

// IsAnonymous reports whether no authenticated user is attached to the
// request. No side effects, no storage access.
func (m *Manager) IsAnonymous(c *gin.Context) bool {
	_, ok := m.auth.CurrentPrincipal(c)
	return !ok
}

// Resolve returns the current owner of the request: the authenticated user
// when there is one, otherwise the guest identity behind the request's token
// (created on demand when createIfNeeded is set).
func (m *Manager) Resolve(c *gin.Context, createIfNeeded bool) (Owner, error) {
	if id, ok := m.auth.CurrentPrincipal(c); ok {
		return Owner{Kind: OwnerPrincipal, PrincipalID: id}, nil
	}

	g, err := m.Get(c, createIfNeeded, true)
	if err != nil {
		return Owner{}, err
	}
	if g == nil {
		return Owner{}, nil
	}

	return Owner{Kind: OwnerGuest, Guest: g}, nil
}

// GetOrCreate returns the guest identity for this request, minting a fresh
// one when the request carries no token or an unknown one.
func (m *Manager) GetOrCreate(c *gin.Context) (*model.Guest, error) {
	return m.Get(c, true, true)
}

// Get resolves the guest identity behind the request's token. A hit
// refreshes LastSeenAt and re-issues the cookie with a full lifetime. With
// ignoreAuthenticated unset an authenticated request always resolves to nil;
// migration passes true because the token it cares about belongs to the
// pre-login session. A nil result without an error means there is no guest.
func (m *Manager) Get(c *gin.Context, createIfNeeded, ignoreAuthenticated bool) (*model.Guest, error) {
	if !ignoreAuthenticated {
		if _, ok := m.auth.CurrentPrincipal(c); ok {
			return nil, nil
		}
	}

	if tok, ok := m.cookies.Read(c, m.conf.CookieName); ok {
		if g := m.cached(c, tok); g != nil {
			return g, nil
		}

		var g model.Guest

		err := m.db.Where("token = ?", tok).First(&g).Error
		if err == nil {
			if err := m.touch(c, &g); err != nil {
				return nil, err
			}

			m.remember(c, &g)
			return &g, nil
		}

		if err != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("failed to look up guest by token, %w", err)
		}
	}

	if !createIfNeeded {
		return nil, nil
	}

	return m.create(c)
}

// Terminate deletes the guest identity behind the request's token and clears
// the cookie. Reports whether a row was actually deleted, so a second call
// in a row returns false.
func (m *Manager) Terminate(c *gin.Context) (bool, error) {
	tok, ok := m.cookies.Read(c, m.conf.CookieName)
	if !ok {
		return false, nil
	}

	res := m.db.Where("token = ?", tok).Delete(&model.Guest{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete guest identity, %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return false, nil
	}

	m.cookies.Clear(c, m.conf.CookieName)
	m.forget(c, tok)

	return true, nil
}

// Reclaim bulk-deletes guests whose last activity is strictly older than the
// given age and returns how many were removed. Records still pointing at a
// reclaimed guest are left to the store's referential policy.
func (m *Manager) Reclaim(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	res := m.db.Where("last_seen_at < ?", cutoff).Delete(&model.Guest{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to reclaim stale guests, %w", res.Error)
	}

	return res.RowsAffected, nil
}

func (m *Manager) create(c *gin.Context) (*model.Guest, error) {
	tok, err := util.GenerateToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate guest token, %w", err)
	}

	g := &model.Guest{
		ID:         uuid.NewString(),
		Token:      tok,
		LastSeenAt: time.Now(),
	}
	if m.conf.TrackSourceAddr {
		g.SourceAddr = c.ClientIP()
	}

	// Plain insert, no upsert. Two tokenless requests racing here can each
	// mint an identity; the unique index on token only guards against a
	// duplicate token, which crypto/rand makes vanishingly rare
	if err := m.db.Create(g).Error; err != nil {
		return nil, fmt.Errorf("failed to persist guest identity, %w", err)
	}

	m.cookies.Issue(c, m.conf.CookieName, tok, m.conf.TokenLifetime)
	m.remember(c, g)

	zap.L().Debug("Minted guest identity", zap.String("guestID", g.ID))

	return g, nil
}

// touch refreshes the sliding session: LastSeenAt advances, the cookie gets
// a full lifetime again and, when tracking is on, a changed client IP is
// recorded. Only runs when the guest was loaded from storage, so LastSeenAt
// moves at most once per request.
func (m *Manager) touch(c *gin.Context, g *model.Guest) error {
	now := time.Now()
	updates := map[string]any{"last_seen_at": now}
	g.LastSeenAt = now

	if m.conf.TrackSourceAddr {
		if ip := c.ClientIP(); ip != "" && ip != g.SourceAddr {
			updates["source_addr"] = ip
			g.SourceAddr = ip
		}
	}

	if err := m.db.Model(g).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to touch guest identity, %w", err)
	}

	m.cookies.Issue(c, m.conf.CookieName, g.Token, m.conf.TokenLifetime)

	return nil
}

func (m *Manager) cached(c *gin.Context, token string) *model.Guest {
	if v, ok := c.Get(cacheKey); ok {
		return v.(map[string]*model.Guest)[token]
	}
	return nil
}

func (m *Manager) remember(c *gin.Context, g *model.Guest) {
	v, ok := c.Get(cacheKey)
	if !ok {
		v = map[string]*model.Guest{}
		c.Set(cacheKey, v)
	}

	v.(map[string]*model.Guest)[g.Token] = g
}

func (m *Manager) forget(c *gin.Context, token string) {
	if v, ok := c.Get(cacheKey); ok {
		delete(v.(map[string]*model.Guest), token)
	}
}
