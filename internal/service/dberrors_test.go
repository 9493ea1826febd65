package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/models"
	"github.com/havenhq/haven/internal/notify"
	"github.com/havenhq/haven/internal/permissions"
	"gorm.io/gorm"
)

var errDatabaseDown = errors.New("database is down")

// failQueriesOn makes every read of table fail with errDatabaseDown.
func failQueriesOn(t *testing.T, gdb *gorm.DB, table string) {
	t.Helper()
	err := gdb.Callback().Query().Before("gorm:query").Register("test:fail_"+table, func(db *gorm.DB) {
		if db.Statement.Table == table {
			_ = db.AddError(errDatabaseDown)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
}

// assertDatabaseError checks err carries the database failure rather than
// being reported as a client mistake.
func assertDatabaseError(t *testing.T, err error) {
	t.Helper()
	if !errors.Is(err, errDatabaseDown) {
		t.Fatalf("error = %v, want the database error", err)
	}
	var verr *ValidationError
	var cerr *ConflictError
	if errors.As(err, &verr) || errors.As(err, &cerr) {
		t.Fatalf("database failure reported as %T", err)
	}
}

func TestOrganizationCreate_SlugCheckFails(t *testing.T) {
	gdb := setupTestDB(t)
	members := NewMemberService(gdb, newFakeRoles(), &fakeMailer{}, "https://app.example.org")
	svc := NewOrganizationService(gdb, members)
	root := Actor{UserID: createTestUser(t, gdb, "root").ID, Role: permissions.RolePlatformAdmin}

	failQueriesOn(t, gdb, "organizations")
	_, err := svc.Create(context.Background(), CreateOrganizationRequest{
		Name:       "Harbour Homes",
		Slug:       "harbour-homes",
		AdminEmail: "lead@harbour.org",
	}, root)
	assertDatabaseError(t, err)
}

func TestResidentCreate_KeyWorkerCheckFails(t *testing.T) {
	f := setupResidents(t)
	keyWorker := f.actor.UserID

	failQueriesOn(t, f.db, "memberships")
	_, err := f.residents.Create(f.org.ID, CreateResidentRequest{
		FirstName:   "Nia",
		LastName:    "Okafor",
		KeyWorkerID: &keyWorker,
	}, f.actor)
	assertDatabaseError(t, err)
}

func TestIncidentCreate_PropertyCheckFails(t *testing.T) {
	f := setupIncidents(t)
	propertyID := f.property(t, "Birch", 2).ID

	failQueriesOn(t, f.db, "properties")
	_, err := f.incidents.Create(context.Background(), f.org.ID, CreateIncidentRequest{
		PropertyID:  &propertyID,
		Category:    "maintenance",
		Description: "Boiler leaking",
		Severity:    models.SeverityLow,
	}, f.staff)
	assertDatabaseError(t, err)
}

func TestInvite_MembershipCheckFails(t *testing.T) {
	svc, mailer, _, org, admin := setupMembers(t)

	failQueriesOn(t, svc.db, "memberships")
	_, err := svc.Invite(context.Background(), org.ID, admin, InviteMemberRequest{Email: "bob@example.org", Role: "staff"})
	assertDatabaseError(t, err)
	if len(mailer.sent()) != 0 {
		t.Error("no email expected when the pre-check fails")
	}
}

func TestAccept_MembershipCheckFails(t *testing.T) {
	svc, mailer, roles, org, admin := setupMembers(t)
	if _, err := svc.Invite(context.Background(), org.ID, admin, InviteMemberRequest{Email: "bob@example.org", Role: "staff"}); err != nil {
		t.Fatalf("Invite() error = %v", err)
	}
	token := tokenFrom(t, mailer.sent()[0])
	bob := createTestUser(t, svc.db, "bob")

	failQueriesOn(t, svc.db, "memberships")
	_, err := svc.Accept(token, bob)
	assertDatabaseError(t, err)

	if _, ok := roles.get(bob.ID, org.ID); ok {
		t.Error("role assigned despite failed membership check")
	}
}

// brokenMailer fails every enqueue.
type brokenMailer struct{}

func (brokenMailer) Enqueue(ctx context.Context, orgID *uuid.UUID, msg notify.Message) (*models.Job, error) {
	return nil, errors.New("queue unavailable")
}

func TestInvite_QueueFailureKeepsInvitation(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewMemberService(gdb, newFakeRoles(), brokenMailer{}, "https://app.example.org")
	org := createTestOrg(t, gdb, "eastside")
	admin := addTestMember(t, gdb, org.ID, createTestUser(t, gdb, "alice"), permissions.RoleAdmin)

	inv, err := svc.Invite(context.Background(), org.ID, admin, InviteMemberRequest{Email: "bob@example.org", Role: "staff"})
	if err != nil {
		t.Fatalf("Invite() error = %v, want nil when only the email fails", err)
	}
	if inv == nil || inv.ID == uuid.Nil {
		t.Fatalf("expected the stored invitation, got %+v", inv)
	}

	var count int64
	if err := gdb.Model(&models.Invitation{}).Where("organization_id = ?", org.ID).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("invitations = %d, want 1", count)
	}

	// Re-sending replaces the pending invitation instead of piling up.
	if _, err := svc.Invite(context.Background(), org.ID, admin, InviteMemberRequest{Email: "bob@example.org", Role: "staff"}); err != nil {
		t.Fatalf("second Invite() error = %v", err)
	}
	gdb.Model(&models.Invitation{}).Where("organization_id = ?", org.ID).Count(&count)
	if count != 1 {
		t.Errorf("pending invitations after re-send = %d, want 1", count)
	}
}
