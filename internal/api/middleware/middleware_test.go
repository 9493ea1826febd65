package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/auth"
	"github.com/havenhq/haven/internal/db"
	"github.com/havenhq/haven/internal/models"
	"github.com/havenhq/haven/internal/permissions"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func createUser(t *testing.T, gdb *gorm.DB, email string, platformAdmin bool) *models.User {
	t.Helper()
	u := &models.User{ExternalID: "sub-" + email, Email: email, PlatformAdmin: platformAdmin}
	if err := gdb.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func createOrg(t *testing.T, gdb *gorm.DB, slug string) *models.Organization {
	t.Helper()
	o := &models.Organization{Name: slug, Slug: slug}
	if err := gdb.Create(o).Error; err != nil {
		t.Fatalf("create org: %v", err)
	}
	return o
}

func addMember(t *testing.T, gdb *gorm.DB, org *models.Organization, user *models.User, role permissions.Role) {
	t.Helper()
	m := &models.Membership{OrganizationID: org.ID, UserID: user.ID, Role: string(role)}
	if err := gdb.Create(m).Error; err != nil {
		t.Fatalf("create membership: %v", err)
	}
}

// orgRouter runs ResolveOrganization for user and echoes what it stored.
func orgRouter(gdb *gorm.DB, user *models.User, optional bool) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if user != nil {
			c.Set(auth.UserContextKey, user)
		}
		c.Next()
	})
	r.GET("/", ResolveOrganization(gdb, optional), func(c *gin.Context) {
		orgID, ok := OrganizationID(c)
		if !ok {
			c.String(http.StatusOK, "none")
			return
		}
		actor, _ := ActorFrom(c)
		c.String(http.StatusOK, orgID.String()+" "+string(actor.Role))
	})
	return r
}

func doGet(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(OrganizationHeader, header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestResolveOrganization(t *testing.T) {
	gdb := setupTestDB(t)
	alpha := createOrg(t, gdb, "alpha")
	beta := createOrg(t, gdb, "beta")

	single := createUser(t, gdb, "single@example.org", false)
	addMember(t, gdb, alpha, single, permissions.RoleStaff)

	multi := createUser(t, gdb, "multi@example.org", false)
	addMember(t, gdb, alpha, multi, permissions.RoleManager)
	addMember(t, gdb, beta, multi, permissions.RoleAdmin)

	nobody := createUser(t, gdb, "nobody@example.org", false)
	admin := createUser(t, gdb, "root@example.org", true)

	tests := []struct {
		name     string
		user     *models.User
		header   string
		wantCode int
		wantBody string
	}{
		{"single membership", single, "", http.StatusOK, alpha.ID.String() + " staff"},
		{"explicit membership", multi, beta.ID.String(), http.StatusOK, beta.ID.String() + " admin"},
		{"several memberships need header", multi, "", http.StatusBadRequest, ""},
		{"no memberships", nobody, "", http.StatusForbidden, ""},
		{"not a member", single, beta.ID.String(), http.StatusForbidden, ""},
		{"malformed header", single, "not-a-uuid", http.StatusBadRequest, ""},
		{"platform admin any org", admin, beta.ID.String(), http.StatusOK, beta.ID.String() + " platform_admin"},
		{"platform admin unknown org", admin, uuid.NewString(), http.StatusNotFound, ""},
		{"no user", nil, "", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(orgRouter(gdb, tt.user, false), tt.header)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantBody != "" && w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestResolveOrganization_Optional(t *testing.T) {
	gdb := setupTestDB(t)
	nobody := createUser(t, gdb, "nobody@example.org", false)

	w := doGet(orgRouter(gdb, nobody, true), "")
	if w.Code != http.StatusOK || w.Body.String() != "none" {
		t.Errorf("got %d %q, want 200 \"none\"", w.Code, w.Body.String())
	}
}

type fakeEnforcer struct {
	allowed map[permissions.Permission]bool
	err     error
	calls   int
}

func (f *fakeEnforcer) Enforce(userID, orgID uuid.UUID, perm permissions.Permission) (bool, error) {
	f.calls++
	return f.allowed[perm], f.err
}

func TestRequirePermission(t *testing.T) {
	gdb := setupTestDB(t)
	org := createOrg(t, gdb, "alpha")
	user := createUser(t, gdb, "staff@example.org", false)
	addMember(t, gdb, org, user, permissions.RoleStaff)

	tests := []struct {
		name     string
		enf      *fakeEnforcer
		perm     permissions.Permission
		wantCode int
	}{
		{"allowed", &fakeEnforcer{allowed: map[permissions.Permission]bool{permissions.ReadResidents: true}}, permissions.ReadResidents, http.StatusOK},
		{"denied", &fakeEnforcer{}, permissions.ManageBilling, http.StatusForbidden},
		{"enforcer error", &fakeEnforcer{err: errors.New("boom")}, permissions.ReadResidents, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(func(c *gin.Context) { c.Set(auth.UserContextKey, user); c.Next() })
			r.GET("/", ResolveOrganization(gdb, false), RequirePermission(tt.enf, tt.perm), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := doGet(r, "")
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if tt.enf.calls != 1 {
				t.Errorf("enforcer called %d times", tt.enf.calls)
			}
		})
	}
}

func TestRequirePermission_WithoutOrganization(t *testing.T) {
	enf := &fakeEnforcer{allowed: map[permissions.Permission]bool{permissions.ReadResidents: true}}
	r := gin.New()
	r.GET("/", RequirePermission(enf, permissions.ReadResidents), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := doGet(r, "")
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
	if enf.calls != 0 {
		t.Error("enforcer must not be consulted without an organization")
	}
}

func TestRequirePlatformAdmin(t *testing.T) {
	user := &models.User{ID: uuid.New()}
	for _, allowed := range []bool{true, false} {
		enf := &fakeEnforcer{allowed: map[permissions.Permission]bool{permissions.Wildcard: allowed}}
		r := gin.New()
		r.Use(func(c *gin.Context) { c.Set(auth.UserContextKey, user); c.Next() })
		r.GET("/", RequirePlatformAdmin(enf), func(c *gin.Context) { c.Status(http.StatusOK) })

		want := http.StatusForbidden
		if allowed {
			want = http.StatusOK
		}
		if w := doGet(r, ""); w.Code != want {
			t.Errorf("allowed=%v: status = %d, want %d", allowed, w.Code, want)
		}
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(3)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("fourth request within the burst should be refused")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("other clients have their own bucket")
	}

	now = now.Add(20 * time.Second)
	if !l.Allow("10.0.0.1") {
		t.Error("a token should refill after 20s at 3/min")
	}
}

func TestRateLimiter_Sweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(10)
	l.now = func() time.Time { return now }

	l.Allow("stale")
	now = now.Add(limiterTTL + time.Minute)
	l.Allow("fresh")

	if _, ok := l.limiters["stale"]; ok {
		t.Error("stale limiter should have been swept")
	}
	if _, ok := l.limiters["fresh"]; !ok {
		t.Error("fresh limiter missing")
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	l := NewRateLimiter(0)
	for i := 0; i < 1000; i++ {
		if !l.Allow("x") {
			t.Fatal("zero limit must not refuse requests")
		}
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	l := NewRateLimiter(1)
	r := gin.New()
	r.GET("/", l.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := doGet(r, ""); w.Code != http.StatusOK {
		t.Fatalf("first request status = %d", w.Code)
	}
	w := doGet(r, "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", w.Header().Get("Retry-After"))
	}
}
