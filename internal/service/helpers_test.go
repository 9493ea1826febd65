package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/db"
	"github.com/havenhq/haven/internal/models"
	"github.com/havenhq/haven/internal/notify"
	"github.com/havenhq/haven/internal/permissions"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	gdb, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
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

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeMailer records queued messages instead of creating jobs.
type fakeMailer struct {
	mu       sync.Mutex
	messages []notify.Message
}

func (m *fakeMailer) Enqueue(ctx context.Context, orgID *uuid.UUID, msg notify.Message) (*models.Job, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return &models.Job{ID: uuid.New(), Type: models.JobTypeSendEmail, Status: models.JobStatusPending}, nil
}

func (m *fakeMailer) sent() []notify.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.Message(nil), m.messages...)
}

// fakeRoles records role assignments keyed by "user@org".
type fakeRoles struct {
	mu    sync.Mutex
	roles map[string]permissions.Role
}

func newFakeRoles() *fakeRoles {
	return &fakeRoles{roles: map[string]permissions.Role{}}
}

func (f *fakeRoles) AssignRole(userID, orgID uuid.UUID, role permissions.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[userID.String()+"@"+orgID.String()] = role
	return nil
}

func (f *fakeRoles) RevokeRole(userID, orgID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.roles, userID.String()+"@"+orgID.String())
	return nil
}

func (f *fakeRoles) get(userID, orgID uuid.UUID) (permissions.Role, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.roles[userID.String()+"@"+orgID.String()]
	return r, ok
}

func createTestUser(t *testing.T, gdb *gorm.DB, name string) *models.User {
	t.Helper()
	user := models.User{ExternalID: "sub-" + name, Email: name + "@example.org", Name: name}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &user
}

func createTestOrg(t *testing.T, gdb *gorm.DB, slug string) *models.Organization {
	t.Helper()
	org := models.Organization{
		Name:               strings.ToUpper(slug[:1]) + slug[1:],
		Slug:               slug,
		SubscriptionStatus: models.SubscriptionActive,
		SubscriptionTier:   models.TierStarter,
	}
	if err := gdb.Create(&org).Error; err != nil {
		t.Fatalf("create org: %v", err)
	}
	return &org
}

func addTestMember(t *testing.T, gdb *gorm.DB, orgID uuid.UUID, user *models.User, role permissions.Role) Actor {
	t.Helper()
	m := models.Membership{OrganizationID: orgID, UserID: user.ID, Role: string(role)}
	if err := gdb.Create(&m).Error; err != nil {
		t.Fatalf("create membership: %v", err)
	}
	return Actor{UserID: user.ID, Name: user.Name, Role: role}
}

// tokenFrom extracts the raw invitation token from an invitation email.
func tokenFrom(t *testing.T, msg notify.Message) string {
	t.Helper()
	url := msg.Data["AcceptURL"]
	i := strings.LastIndex(url, "/invitations/")
	if i < 0 {
		t.Fatalf("no invitation link in %q", url)
	}
	return url[i+len("/invitations/"):]
}
