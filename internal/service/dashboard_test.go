package service

import (
	"context"
	"testing"

	"github.com/havenhq/haven/internal/models"
)

func TestDashboard(t *testing.T) {
	f := setupIncidents(t)
	ctx := context.Background()

	p := f.property(t, "Pine", 4)
	f.property(t, "Yew", 2)
	placed := f.resident(t, "Pat", "One")
	if _, err := f.residents.AssignProperty(f.org.ID, placed.ID, AssignPropertyRequest{PropertyID: p.ID}, f.actor); err != nil {
		t.Fatal(err)
	}
	high := models.RiskHigh
	referred := f.resident(t, "Quin", "Two")
	if _, err := f.residents.Update(f.org.ID, referred.ID, UpdateResidentRequest{RiskLevel: &high}, f.actor); err != nil {
		t.Fatal(err)
	}
	if _, err := f.residents.CreateNote(f.org.ID, placed.ID, CreateCaseNoteRequest{Body: "Settled in well"}, f.actor); err != nil {
		t.Fatal(err)
	}
	if _, err := f.incidents.Create(ctx, f.org.ID, CreateIncidentRequest{Category: "a", Severity: models.SeverityLow, Description: "x"}, f.staff); err != nil {
		t.Fatal(err)
	}
	done, err := f.incidents.Create(ctx, f.org.ID, CreateIncidentRequest{Category: "b", Severity: models.SeverityLow, Description: "y"}, f.staff)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.incidents.Close(f.org.ID, done.ID, CloseIncidentRequest{}, f.actor); err != nil {
		t.Fatal(err)
	}

	d, err := NewDashboardService(f.db).Get(ctx, f.org.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	want := Dashboard{
		ActiveResidents:   1,
		ReferredResidents: 1,
		HighRiskResidents: 1,
		Properties:        2,
		TotalCapacity:     6,
		AvailablePlaces:   5,
		OpenIncidents:     1,
		IncidentsLast30:   2,
		CaseNotesLast7:    1,
	}
	if *d != want {
		t.Errorf("Get() = %+v, want %+v", *d, want)
	}
}
