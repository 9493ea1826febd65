package service

import (
	"context"
	"errors"
	"testing"

	"github.com/havenhq/haven/internal/models"
	"github.com/havenhq/haven/internal/notify"
	"github.com/havenhq/haven/internal/permissions"
)

func TestOrganizationCreate(t *testing.T) {
	gdb := setupTestDB(t)
	mailer := &fakeMailer{}
	members := NewMemberService(gdb, newFakeRoles(), mailer, "https://app.example.org")
	svc := NewOrganizationService(gdb, members)
	root := Actor{UserID: createTestUser(t, gdb, "root").ID, Role: permissions.RolePlatformAdmin}

	org, err := svc.Create(context.Background(), CreateOrganizationRequest{
		Name:       "Harbour <b>Homes</b>",
		Slug:       "harbour-homes",
		AdminEmail: "lead@harbour.org",
	}, root)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if org.Name != "Harbour Homes" {
		t.Errorf("name not sanitised: %q", org.Name)
	}
	if org.SubscriptionStatus != models.SubscriptionNone || org.SubscriptionTier != models.TierStarter {
		t.Errorf("unexpected billing defaults: %s/%s", org.SubscriptionStatus, org.SubscriptionTier)
	}

	sent := mailer.sent()
	if len(sent) != 1 || sent[0].Kind != notify.KindMemberInvitation || sent[0].Data["Role"] != "admin" {
		t.Fatalf("expected admin invitation, got %+v", sent)
	}

	var entries int64
	gdb.Model(&models.ActivityLog{}).Where("organization_id = ?", org.ID).Count(&entries)
	if entries != 2 {
		t.Errorf("expected create + invite activity, got %d", entries)
	}

	_, err = svc.Create(context.Background(), CreateOrganizationRequest{Name: "Dup", Slug: "harbour-homes"}, root)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Errorf("duplicate slug error = %v, want ConflictError", err)
	}
}

func TestOrganizationCreate_InvalidSlug(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewOrganizationService(gdb, nil)

	for _, slug := range []string{"Has Space", "-lead", "trail-", "double--dash", ""} {
		_, err := svc.Create(context.Background(), CreateOrganizationRequest{Name: "X", Slug: slug}, Actor{})
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("slug %q: error = %v, want ValidationError", slug, err)
		}
	}
}

func TestOrganizationUpdate(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewOrganizationService(gdb, nil)
	org := createTestOrg(t, gdb, "riverside")

	name := "Riverside Trust"
	email := "office@riverside.org"
	updated, err := svc.Update(org.ID, UpdateOrganizationRequest{Name: &name, ContactEmail: &email}, Actor{})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != name || updated.ContactEmail != email {
		t.Errorf("unexpected org %+v", updated)
	}

	reloaded, _ := svc.Get(org.ID)
	if reloaded.Name != name {
		t.Errorf("name not persisted: %q", reloaded.Name)
	}

	blank := "   "
	var verr *ValidationError
	if _, err := svc.Update(org.ID, UpdateOrganizationRequest{Name: &blank}, Actor{}); !errors.As(err, &verr) {
		t.Errorf("blank name error = %v, want ValidationError", err)
	}
}
