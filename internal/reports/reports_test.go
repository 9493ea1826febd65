package reports

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/db"
	"github.com/havenhq/haven/internal/models"
	"github.com/havenhq/haven/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	db  *gorm.DB
	svc *Service
	org *models.Organization
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))

	org := &models.Organization{Name: "Beacon", Slug: "beacon", SubscriptionStatus: models.SubscriptionActive, SubscriptionTier: models.TierProfessional}
	require.NoError(t, gdb.Create(org).Error)
	return &fixture{db: gdb, svc: NewService(gdb), org: org}
}

func (f *fixture) property(t *testing.T, name string, capacity int, status models.PropertyStatus) *models.Property {
	t.Helper()
	p := &models.Property{OrganizationID: f.org.ID, Name: name, Capacity: capacity, Status: status}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func (f *fixture) resident(t *testing.T, status models.ResidentStatus, propertyID *uuid.UUID) {
	t.Helper()
	r := &models.Resident{OrganizationID: f.org.ID, FirstName: "R", LastName: uuid.NewString()[:6], Status: status, PropertyID: propertyID}
	require.NoError(t, f.db.Create(r).Error)
}

func TestOccupancy(t *testing.T) {
	f := setup(t)
	a := f.property(t, "Alder", 4, models.PropertyStatusActive)
	b := f.property(t, "Beech", 2, models.PropertyStatusActive)
	f.property(t, "Closed", 3, models.PropertyStatusInactive)
	f.resident(t, models.ResidentStatusActive, &a.ID)
	f.resident(t, models.ResidentStatusActive, &a.ID)
	f.resident(t, models.ResidentStatusActive, &a.ID)
	f.resident(t, models.ResidentStatusActive, &b.ID)
	f.resident(t, models.ResidentStatusReferred, nil)
	f.resident(t, models.ResidentStatusMovedOn, nil)

	report, err := f.svc.Occupancy(f.org.ID)
	require.NoError(t, err)

	require.Len(t, report.Properties, 3)
	assert.Equal(t, "Alder", report.Properties[0].Name)
	assert.Equal(t, 3, report.Properties[0].Occupied)
	assert.Equal(t, 1, report.Properties[0].Available)
	assert.Equal(t, 75.0, report.Properties[0].Rate)
	assert.Equal(t, 0, report.Properties[2].Available)

	assert.Equal(t, 6, report.TotalCapacity)
	assert.Equal(t, 4, report.TotalOccupied)
	assert.Equal(t, 66.67, report.Rate)
	assert.Equal(t, int64(1), report.Referrals)
}

func TestIncidents(t *testing.T) {
	f := setup(t)
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	closedAt := base.Add(6 * time.Hour)
	reporter := uuid.New()
	for _, i := range []models.Incident{
		{Category: "conflict", Severity: models.SeverityLow, Status: models.IncidentStatusOpen, OccurredAt: base},
		{Category: "conflict", Severity: models.SeverityHigh, Status: models.IncidentStatusClosed, OccurredAt: base, ClosedAt: &closedAt},
		{Category: "missing_person", Severity: models.SeverityHigh, Status: models.IncidentStatusOpen, OccurredAt: base.Add(24 * time.Hour)},
		{Category: "old", Severity: models.SeverityLow, Status: models.IncidentStatusOpen, OccurredAt: base.AddDate(0, -3, 0)},
	} {
		i.OrganizationID = f.org.ID
		i.ReportedByID = reporter
		i.Description = "d"
		require.NoError(t, f.db.Create(&i).Error)
	}

	r, err := RangeQuery{From: "2026-03-01", To: "2026-03-31"}.Resolve(time.Now())
	require.NoError(t, err)
	report, err := f.svc.Incidents(f.org.ID, r)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, map[string]int{"low": 1, "high": 2}, report.BySeverity)
	assert.Equal(t, map[string]int{"open": 2, "closed": 1}, report.ByStatus)
	assert.Equal(t, 2, report.ByCategory["conflict"])
	assert.Equal(t, 6.0, report.AvgHoursToClose)
}

func TestFinancial(t *testing.T) {
	f := setup(t)
	period := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for _, inv := range []models.Invoice{
		{StripeInvoiceID: "in_1", Number: "1", Status: "paid", AmountDue: 4900, AmountPaid: 4900, Currency: "gbp", PeriodEnd: period},
		{StripeInvoiceID: "in_2", Number: "2", Status: "open", AmountDue: 4900, AmountPaid: 0, Currency: "gbp", PeriodEnd: period.AddDate(0, 0, 10)},
		{StripeInvoiceID: "in_3", Number: "3", Status: "void", AmountDue: 1000, AmountPaid: 0, Currency: "eur", PeriodEnd: period},
		{StripeInvoiceID: "in_4", Number: "4", Status: "paid", AmountDue: 4900, AmountPaid: 4900, Currency: "gbp", PeriodEnd: period.AddDate(-1, 0, 0)},
	} {
		inv.OrganizationID = f.org.ID
		require.NoError(t, f.db.Create(&inv).Error)
	}

	report, err := f.svc.Financial(f.org.ID, Range{From: period.AddDate(0, 0, -1), To: period.AddDate(0, 1, 0)})
	require.NoError(t, err)

	assert.Len(t, report.Invoices, 3)
	assert.Equal(t, models.TierProfessional, report.SubscriptionTier)
	require.Len(t, report.Totals, 2)
	assert.Equal(t, CurrencyTotal{Currency: "eur", Due: 1000, Paid: 0, Outstanding: 0}, report.Totals[0])
	assert.Equal(t, CurrencyTotal{Currency: "gbp", Due: 9800, Paid: 4900, Outstanding: 4900}, report.Totals[1])
}

func TestRangeQuery(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	r, err := RangeQuery{}.Resolve(now)
	require.NoError(t, err)
	assert.Equal(t, now, r.To)
	assert.Equal(t, now.Add(-DefaultWindow), r.From)

	r, err = RangeQuery{From: "2026-01-01", To: "2026-01-31"}.Resolve(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), r.To)

	for _, q := range []RangeQuery{
		{From: "01/01/2026"},
		{From: "2026-02-01", To: "2026-01-01"},
		{From: "2024-01-01", To: "2026-01-01"},
	} {
		_, err := q.Resolve(now)
		var verr *service.ValidationError
		assert.True(t, errors.As(err, &verr), "query %+v: %v", q, err)
	}
}

func TestExport(t *testing.T) {
	f := setup(t)
	f.property(t, "Alder", 4, models.PropertyStatusActive)
	actor := service.Actor{UserID: uuid.New()}
	r := Range{From: time.Now().Add(-DefaultWindow), To: time.Now()}

	for _, kind := range []string{KindOccupancy, KindIncidents, KindFinancial} {
		name, data, err := f.svc.Export(f.org.ID, kind, r, actor)
		require.NoError(t, err, kind)
		assert.Contains(t, name, "haven-"+kind+"-")
		assert.Contains(t, name, ".xlsx")

		book, err := excelize.OpenReader(bytes.NewReader(data))
		require.NoError(t, err, kind)
		assert.NotEmpty(t, book.GetSheetList())
		book.Close()
	}

	book, err := excelize.OpenReader(bytes.NewReader(mustExport(t, f, KindOccupancy, r, actor)))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("Occupancy")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Property", "Status", "Capacity", "Occupied", "Available", "Occupancy %"}, rows[0])
	assert.Equal(t, "Alder", rows[1][0])
	assert.Equal(t, "Total", rows[2][0])

	var exports int64
	f.db.Model(&models.ActivityLog{}).Where("action = ?", "export_report").Count(&exports)
	assert.Equal(t, int64(4), exports)

	_, _, err = f.svc.Export(f.org.ID, "payroll", r, actor)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func mustExport(t *testing.T, f *fixture, kind string, r Range, actor service.Actor) []byte {
	t.Helper()
	_, data, err := f.svc.Export(f.org.ID, kind, r, actor)
	require.NoError(t, err)
	return data
}

func TestWriteXLSX_NoSheets(t *testing.T) {
	_, err := WriteXLSX()
	assert.Error(t, err)
}
