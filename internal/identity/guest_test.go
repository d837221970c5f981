package identity

import (
	"bitrook/stashbin-api/internal/model"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testCookieName = "stash_guest"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(model.User{}, model.Guest{}, model.StashItem{}); err != nil {
		t.Fatalf("failed to automigrate: %v", err)
	}

	return db
}

func newTestManager(t *testing.T) (*Manager, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	m := NewManager(db, nil, nil, Config{
		CookieName:    testCookieName,
		TokenLifetime: time.Hour,
	})

	return m, db
}

// newTestCtx builds a fresh request context, i.e. a new "request"
func newTestCtx(cookies ...*http.Cookie) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	c.Request = req

	return c, w
}

func seedGuest(t *testing.T, db *gorm.DB, token string, lastSeen time.Time) *model.Guest {
	t.Helper()

	g := &model.Guest{
		ID:         uuid.NewString(),
		Token:      token,
		LastSeenAt: lastSeen,
	}
	if err := db.Create(g).Error; err != nil {
		t.Fatalf("failed to seed guest: %v", err)
	}

	return g
}

func guestCookie(token string) *http.Cookie {
	return &http.Cookie{Name: testCookieName, Value: token}
}

func issuedCookies(w *httptest.ResponseRecorder, name string) []string {
	var out []string
	for _, h := range w.Header().Values("Set-Cookie") {
		if strings.HasPrefix(h, name+"=") {
			out = append(out, h)
		}
	}
	return out
}

func guestCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var n int64
	if err := db.Model(&model.Guest{}).Count(&n).Error; err != nil {
		t.Fatalf("failed to count guests: %v", err)
	}
	return n
}

func TestGetOrCreateMintsOneGuestPerRequest(t *testing.T) {
	m, db := newTestManager(t)
	c, w := newTestCtx()

	g1, err := m.GetOrCreate(c)
	if err != nil {
		t.Fatalf("GetOrCreate returned error: %v", err)
	}
	if g1 == nil {
		t.Fatal("expected a guest, got nil")
	}
	if g1.Token == "" || g1.ID == "" {
		t.Fatalf("guest missing id or token: %+v", g1)
	}

	g2, err := m.GetOrCreate(c)
	if err != nil {
		t.Fatalf("second GetOrCreate returned error: %v", err)
	}
	if g2.ID != g1.ID {
		t.Fatalf("second call in the same request resolved a different guest: %s != %s", g2.ID, g1.ID)
	}

	if n := guestCount(t, db); n != 1 {
		t.Fatalf("expected 1 guest row, got %d", n)
	}

	if n := len(issuedCookies(w, testCookieName)); n != 1 {
		t.Fatalf("expected exactly 1 issued cookie, got %d", n)
	}
}

func TestGetOrCreateReturnsExistingGuest(t *testing.T) {
	m, db := newTestManager(t)

	before := time.Now().Add(-30 * time.Minute)
	seeded := seedGuest(t, db, "abc123", before)

	c, w := newTestCtx(guestCookie("abc123"))

	got, err := m.GetOrCreate(c)
	if err != nil {
		t.Fatalf("GetOrCreate returned error: %v", err)
	}
	if got.ID != seeded.ID {
		t.Fatalf("resolved wrong guest: %s != %s", got.ID, seeded.ID)
	}

	var reloaded model.Guest
	if err := db.First(&reloaded, "id = ?", seeded.ID).Error; err != nil {
		t.Fatalf("failed to reload guest: %v", err)
	}
	if !reloaded.LastSeenAt.After(before) {
		t.Fatal("LastSeenAt wasn't refreshed")
	}

	// Sliding expiration re-issues the cookie on every use
	if n := len(issuedCookies(w, testCookieName)); n != 1 {
		t.Fatalf("expected the cookie to be re-issued once, got %d", n)
	}

	if n := guestCount(t, db); n != 1 {
		t.Fatalf("expected no new guest rows, got %d", n)
	}
}

func TestLastSeenAdvancesOncePerRequest(t *testing.T) {
	m, db := newTestManager(t)
	seedGuest(t, db, "abc123", time.Now().Add(-time.Hour))

	c, _ := newTestCtx(guestCookie("abc123"))

	g1, err := m.GetOrCreate(c)
	if err != nil {
		t.Fatalf("GetOrCreate returned error: %v", err)
	}
	first := g1.LastSeenAt

	g2, err := m.GetOrCreate(c)
	if err != nil {
		t.Fatalf("second GetOrCreate returned error: %v", err)
	}
	if !g2.LastSeenAt.Equal(first) {
		t.Fatal("LastSeenAt advanced twice within one request")
	}
}

func TestGetWithoutCreate(t *testing.T) {
	m, db := newTestManager(t)

	c, _ := newTestCtx()
	g, err := m.Get(c, false, true)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if g != nil {
		t.Fatalf("expected nil for a tokenless request, got %+v", g)
	}

	c2, _ := newTestCtx(guestCookie("unknown-token"))
	g, err = m.Get(c2, false, true)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if g != nil {
		t.Fatalf("expected nil for an unknown token, got %+v", g)
	}

	if n := guestCount(t, db); n != 0 {
		t.Fatalf("Get without create persisted %d rows", n)
	}
}

func TestGetShortCircuitsWhenAuthenticated(t *testing.T) {
	m, db := newTestManager(t)

	c, _ := newTestCtx()
	c.Set("userID", "42")

	g, err := m.Get(c, true, false)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if g != nil {
		t.Fatalf("fabricated a guest for an authenticated request: %+v", g)
	}
	if n := guestCount(t, db); n != 0 {
		t.Fatalf("expected no guest rows, got %d", n)
	}

	// With ignoreAuthenticated the same request resolves a guest
	g, err = m.Get(c, true, true)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if g == nil {
		t.Fatal("expected a guest when auth is explicitly ignored")
	}
}

func TestTerminate(t *testing.T) {
	m, db := newTestManager(t)
	seedGuest(t, db, "abc123", time.Now())

	c, _ := newTestCtx(guestCookie("abc123"))

	ok, err := m.Terminate(c)
	if err != nil {
		t.Fatalf("Terminate returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected first Terminate to delete")
	}
	if n := guestCount(t, db); n != 0 {
		t.Fatalf("guest row survived termination, %d rows left", n)
	}

	ok, err = m.Terminate(c)
	if err != nil {
		t.Fatalf("second Terminate returned error: %v", err)
	}
	if ok {
		t.Fatal("expected second Terminate to be a no-op")
	}
}

func TestTerminateWithoutToken(t *testing.T) {
	m, _ := newTestManager(t)
	c, _ := newTestCtx()

	ok, err := m.Terminate(c)
	if err != nil {
		t.Fatalf("Terminate returned error: %v", err)
	}
	if ok {
		t.Fatal("expected Terminate without a token to be a no-op")
	}
}

func TestReclaim(t *testing.T) {
	m, db := newTestManager(t)

	seedGuest(t, db, "stale-1", time.Now().Add(-2*time.Hour))
	seedGuest(t, db, "stale-2", time.Now().Add(-90*time.Minute))
	fresh := seedGuest(t, db, "fresh", time.Now().Add(-time.Minute))

	n, err := m.Reclaim(time.Hour)
	if err != nil {
		t.Fatalf("Reclaim returned error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 reclaimed guests, got %d", n)
	}

	var left []model.Guest
	if err := db.Find(&left).Error; err != nil {
		t.Fatalf("failed to list guests: %v", err)
	}
	if len(left) != 1 || left[0].ID != fresh.ID {
		t.Fatalf("wrong survivors after reclaim: %+v", left)
	}
}

func TestResolve(t *testing.T) {
	m, _ := newTestManager(t)

	c, _ := newTestCtx()
	c.Set("userID", "42")

	owner, err := m.Resolve(c, true)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if owner.Kind != OwnerPrincipal || owner.PrincipalID != "42" {
		t.Fatalf("expected principal 42, got %+v", owner)
	}

	anon, _ := newTestCtx()
	owner, err = m.Resolve(anon, true)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if owner.Kind != OwnerGuest || owner.Guest == nil {
		t.Fatalf("expected a guest owner, got %+v", owner)
	}

	anon2, _ := newTestCtx()
	owner, err = m.Resolve(anon2, false)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if owner.Kind != OwnerNone {
		t.Fatalf("expected no owner without createIfNeeded, got %+v", owner)
	}
}

func TestIsAnonymous(t *testing.T) {
	m, _ := newTestManager(t)

	c, _ := newTestCtx()
	if !m.IsAnonymous(c) {
		t.Fatal("expected request without a user to be anonymous")
	}

	c.Set("userID", "42")
	if m.IsAnonymous(c) {
		t.Fatal("expected authenticated request to not be anonymous")
	}
}

func TestTrackSourceAddr(t *testing.T) {
	db := newTestDB(t)
	m := NewManager(db, nil, nil, Config{
		CookieName:      testCookieName,
		TrackSourceAddr: true,
	})

	c, _ := newTestCtx()
	c.Request.RemoteAddr = "198.51.100.7:1234"

	g, err := m.GetOrCreate(c)
	if err != nil {
		t.Fatalf("GetOrCreate returned error: %v", err)
	}
	if g.SourceAddr != "198.51.100.7" {
		t.Fatalf("expected source address to be recorded, got %q", g.SourceAddr)
	}

	// A later visit from a different address updates the stored one
	c2, _ := newTestCtx(guestCookie(g.Token))
	c2.Request.RemoteAddr = "203.0.113.9:1234"

	g2, err := m.GetOrCreate(c2)
	if err != nil {
		t.Fatalf("GetOrCreate returned error: %v", err)
	}
	if g2.SourceAddr != "203.0.113.9" {
		t.Fatalf("expected source address to follow the visitor, got %q", g2.SourceAddr)
	}
}
