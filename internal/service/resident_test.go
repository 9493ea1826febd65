package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/havenhq/haven/internal/crypto"
	"github.com/havenhq/haven/internal/models"
	"github.com/havenhq/haven/internal/permissions"
	"gorm.io/gorm"
)

type residentFixture struct {
	db         *gorm.DB
	residents  *ResidentService
	properties *PropertyService
	org        *models.Organization
	actor      Actor
}

func setupResidents(t *testing.T) *residentFixture {
	t.Helper()
	gdb := setupTestDB(t)
	cipher, err := crypto.NewFieldCipher("test-secret")
	if err != nil {
		t.Fatal(err)
	}
	org := createTestOrg(t, gdb, "haven-house")
	actor := addTestMember(t, gdb, org.ID, createTestUser(t, gdb, "cora"), permissions.RoleManager)
	return &residentFixture{
		db:         gdb,
		residents:  NewResidentService(gdb, cipher),
		properties: NewPropertyService(gdb),
		org:        org,
		actor:      actor,
	}
}

func (f *residentFixture) resident(t *testing.T, first, last string) *models.Resident {
	t.Helper()
	r, err := f.residents.Create(f.org.ID, CreateResidentRequest{FirstName: first, LastName: last}, f.actor)
	if err != nil {
		t.Fatalf("create resident: %v", err)
	}
	return r
}

func (f *residentFixture) property(t *testing.T, name string, capacity int) *PropertyWithOccupancy {
	t.Helper()
	p, err := f.properties.Create(f.org.ID, CreatePropertyRequest{Name: name, Capacity: capacity}, f.actor)
	if err != nil {
		t.Fatalf("create property: %v", err)
	}
	return p
}

func TestResidentCreate_EncryptsSupportNeeds(t *testing.T) {
	f := setupResidents(t)

	r, err := f.residents.Create(f.org.ID, CreateResidentRequest{
		FirstName:    "Jo",
		LastName:     "Bloggs",
		SupportNeeds: "Needs help with budgeting",
	}, f.actor)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if r.Status != models.ResidentStatusReferred || r.RiskLevel != models.RiskLow {
		t.Errorf("unexpected defaults: %s/%s", r.Status, r.RiskLevel)
	}
	if r.SupportNeeds != "Needs help with budgeting" {
		t.Errorf("returned copy should be decrypted, got %q", r.SupportNeeds)
	}

	var raw models.Resident
	f.db.First(&raw, "id = ?", r.ID)
	if !strings.HasPrefix(raw.SupportNeeds, "enc:v1:") {
		t.Errorf("support needs stored in clear: %q", raw.SupportNeeds)
	}

	got, err := f.residents.Get(f.org.ID, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.SupportNeeds != "Needs help with budgeting" {
		t.Errorf("Get() support needs = %q", got.SupportNeeds)
	}
}

func TestResidentUpdate_KeepsCiphertext(t *testing.T) {
	f := setupResidents(t)
	r, err := f.residents.Create(f.org.ID, CreateResidentRequest{FirstName: "Ali", LastName: "Khan", SupportNeeds: "secret"}, f.actor)
	if err != nil {
		t.Fatal(err)
	}

	risk := models.RiskHigh
	if _, err := f.residents.Update(f.org.ID, r.ID, UpdateResidentRequest{RiskLevel: &risk}, f.actor); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	var raw models.Resident
	f.db.First(&raw, "id = ?", r.ID)
	if raw.RiskLevel != models.RiskHigh {
		t.Errorf("risk level not saved: %s", raw.RiskLevel)
	}
	if !strings.HasPrefix(raw.SupportNeeds, "enc:v1:") {
		t.Errorf("update must not write plaintext: %q", raw.SupportNeeds)
	}
}

func TestResidentKeyWorkerMustBeMember(t *testing.T) {
	f := setupResidents(t)
	outsider := createTestUser(t, f.db, "outsider")

	_, err := f.residents.Create(f.org.ID, CreateResidentRequest{FirstName: "A", LastName: "B", KeyWorkerID: &outsider.ID}, f.actor)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("Create() error = %v, want ValidationError", err)
	}
}

func TestResidentScopedToOrganization(t *testing.T) {
	f := setupResidents(t)
	r := f.resident(t, "Kim", "Lee")
	other := createTestOrg(t, f.db, "elsewhere")

	if _, err := f.residents.Get(other.ID, r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() from another org error = %v, want ErrNotFound", err)
	}
	if err := f.residents.Delete(other.ID, r.ID, f.actor); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() from another org error = %v, want ErrNotFound", err)
	}
}

func TestAssignProperty_EnforcesCapacity(t *testing.T) {
	f := setupResidents(t)
	p := f.property(t, "Flat 1", 1)
	first := f.resident(t, "Ann", "One")
	second := f.resident(t, "Ben", "Two")

	placed, err := f.residents.AssignProperty(f.org.ID, first.ID, AssignPropertyRequest{PropertyID: p.ID}, f.actor)
	if err != nil {
		t.Fatalf("AssignProperty() error = %v", err)
	}
	if placed.Status != models.ResidentStatusActive || placed.PropertyID == nil || *placed.PropertyID != p.ID {
		t.Errorf("unexpected placement %+v", placed)
	}
	if placed.MoveInDate == nil {
		t.Error("move-in date should be set")
	}

	var conflict *ConflictError
	if _, err := f.residents.AssignProperty(f.org.ID, second.ID, AssignPropertyRequest{PropertyID: p.ID}, f.actor); !errors.As(err, &conflict) {
		t.Fatalf("over-capacity AssignProperty() error = %v, want ConflictError", err)
	}

	moved, err := f.residents.MoveOut(f.org.ID, first.ID, MoveOutRequest{}, f.actor)
	if err != nil {
		t.Fatalf("MoveOut() error = %v", err)
	}
	if moved.PropertyID != nil || moved.Status != models.ResidentStatusMovedOn {
		t.Errorf("unexpected state after move out %+v", moved)
	}

	if _, err := f.residents.AssignProperty(f.org.ID, second.ID, AssignPropertyRequest{PropertyID: p.ID}, f.actor); err != nil {
		t.Errorf("AssignProperty() after move out error = %v", err)
	}
}

func TestAssignProperty_InactiveProperty(t *testing.T) {
	f := setupResidents(t)
	p := f.property(t, "Closed House", 3)
	inactive := models.PropertyStatusInactive
	if _, err := f.properties.Update(f.org.ID, p.ID, UpdatePropertyRequest{Status: &inactive}, f.actor); err != nil {
		t.Fatal(err)
	}
	r := f.resident(t, "Cal", "Three")

	var conflict *ConflictError
	if _, err := f.residents.AssignProperty(f.org.ID, r.ID, AssignPropertyRequest{PropertyID: p.ID}, f.actor); !errors.As(err, &conflict) {
		t.Errorf("AssignProperty() error = %v, want ConflictError", err)
	}
}

func TestMoveOut_NotPlaced(t *testing.T) {
	f := setupResidents(t)
	r := f.resident(t, "Dee", "Four")

	var conflict *ConflictError
	if _, err := f.residents.MoveOut(f.org.ID, r.ID, MoveOutRequest{}, f.actor); !errors.As(err, &conflict) {
		t.Errorf("MoveOut() error = %v, want ConflictError", err)
	}
}

func TestResidentList_Filters(t *testing.T) {
	f := setupResidents(t)
	p := f.property(t, "Oak House", 5)
	a := f.resident(t, "Amy", "Archer")
	f.resident(t, "Bea", "Baker")
	f.resident(t, "Cid", "Carter")
	if _, err := f.residents.AssignProperty(f.org.ID, a.ID, AssignPropertyRequest{PropertyID: p.ID}, f.actor); err != nil {
		t.Fatal(err)
	}

	all, err := f.residents.List(f.org.ID, ResidentFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if all.Total != 3 || len(all.Items) != 3 || all.Items[0].LastName != "Archer" {
		t.Errorf("unexpected list %+v", all)
	}

	active, _ := f.residents.List(f.org.ID, ResidentFilter{Status: models.ResidentStatusActive})
	if active.Total != 1 || active.Items[0].ID != a.ID {
		t.Errorf("status filter returned %+v", active)
	}

	byProperty, _ := f.residents.List(f.org.ID, ResidentFilter{PropertyID: p.ID.String()})
	if byProperty.Total != 1 {
		t.Errorf("property filter total = %d", byProperty.Total)
	}

	byName, _ := f.residents.List(f.org.ID, ResidentFilter{Query: "BAK"})
	if byName.Total != 1 || byName.Items[0].FirstName != "Bea" {
		t.Errorf("query filter returned %+v", byName)
	}

	paged, _ := f.residents.List(f.org.ID, ResidentFilter{Page: Page{Page: 2, PageSize: 2}})
	if paged.Total != 3 || len(paged.Items) != 1 || paged.Page != 2 {
		t.Errorf("paging returned %+v", paged)
	}

	var verr *ValidationError
	if _, err := f.residents.List(f.org.ID, ResidentFilter{PropertyID: "nope"}); !errors.As(err, &verr) {
		t.Errorf("bad property id error = %v", err)
	}
}

func TestCaseNotes(t *testing.T) {
	f := setupResidents(t)
	r := f.resident(t, "Eli", "Five")

	note, err := f.residents.CreateNote(f.org.ID, r.ID, CreateCaseNoteRequest{
		Body: `<p>Met with <strong>Eli</strong></p><script>alert(1)</script>`,
	}, f.actor)
	if err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}
	if strings.Contains(note.Body, "script") {
		t.Errorf("script not stripped: %q", note.Body)
	}
	if !strings.Contains(note.Body, "<strong>Eli</strong>") {
		t.Errorf("formatting lost: %q", note.Body)
	}
	if note.Category != "general" {
		t.Errorf("category = %q", note.Category)
	}

	var raw models.CaseNote
	f.db.First(&raw, "id = ?", note.ID)
	if !strings.HasPrefix(raw.Body, "enc:v1:") {
		t.Errorf("note stored in clear: %q", raw.Body)
	}

	notes, err := f.residents.ListNotes(f.org.ID, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].Body != note.Body || notes[0].Author.Name != "cora" {
		t.Errorf("unexpected notes %+v", notes)
	}

	var verr *ValidationError
	if _, err := f.residents.CreateNote(f.org.ID, r.ID, CreateCaseNoteRequest{Body: "<script>x</script>"}, f.actor); !errors.As(err, &verr) {
		t.Errorf("empty note error = %v, want ValidationError", err)
	}
}

func TestOwnProfile(t *testing.T) {
	f := setupResidents(t)
	user := createTestUser(t, f.db, "fay")
	r, err := f.residents.Create(f.org.ID, CreateResidentRequest{FirstName: "Fay", LastName: "Six", UserID: &user.ID}, f.actor)
	if err != nil {
		t.Fatal(err)
	}

	got, err := f.residents.GetForUser(f.org.ID, user.ID)
	if err != nil || got.ID != r.ID {
		t.Fatalf("GetForUser() = %v, %v", got, err)
	}

	last := "Seven"
	updated, err := f.residents.UpdateOwnProfile(f.org.ID, user.ID, UpdateOwnProfileRequest{LastName: &last})
	if err != nil {
		t.Fatalf("UpdateOwnProfile() error = %v", err)
	}
	if updated.LastName != "Seven" {
		t.Errorf("last name = %q", updated.LastName)
	}

	stranger := createTestUser(t, f.db, "gus")
	if _, err := f.residents.GetForUser(f.org.ID, stranger.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetForUser() for unlinked user error = %v", err)
	}
}
