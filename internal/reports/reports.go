// Package reports builds the occupancy, incident and financial reports and
// exports them as spreadsheets.
package reports

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/activity"
	"github.com/havenhq/haven/internal/models"
	"github.com/havenhq/haven/internal/service"
	"gorm.io/gorm"
)

// Report kinds
const (
	KindOccupancy = "occupancy"
	KindIncidents = "incidents"
	KindFinancial = "financial"
)

// DefaultWindow is the period covered when a request gives no dates.
const DefaultWindow = 30 * 24 * time.Hour

// Range is a half-open reporting window [From, To).
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// RangeQuery is the query string form of a Range (YYYY-MM-DD).
type RangeQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// Resolve parses q. To is inclusive of the named day.
func (q RangeQuery) Resolve(now time.Time) (Range, error) {
	r := Range{To: now.UTC(), From: now.UTC().Add(-DefaultWindow)}
	if q.To != "" {
		to, err := time.Parse(time.DateOnly, q.To)
		if err != nil {
			return Range{}, &service.ValidationError{Message: "to must be YYYY-MM-DD"}
		}
		r.To = to.AddDate(0, 0, 1)
		if q.From == "" {
			r.From = r.To.Add(-DefaultWindow)
		}
	}
	if q.From != "" {
		from, err := time.Parse(time.DateOnly, q.From)
		if err != nil {
			return Range{}, &service.ValidationError{Message: "from must be YYYY-MM-DD"}
		}
		r.From = from
	}
	if !r.From.Before(r.To) {
		return Range{}, &service.ValidationError{Message: "from must be before to"}
	}
	if r.To.Sub(r.From) > 366*24*time.Hour {
		return Range{}, &service.ValidationError{Message: "reports cover at most one year"}
	}
	return r, nil
}

// PropertyOccupancy is one row of the occupancy report.
type PropertyOccupancy struct {
	PropertyID uuid.UUID             `json:"property_id"`
	Name       string                `json:"name"`
	Status     models.PropertyStatus `json:"status"`
	Capacity   int                   `json:"capacity"`
	Occupied   int                   `json:"occupied"`
	Available  int                   `json:"available"`
	Rate       float64               `json:"occupancy_rate"`
}

// OccupancyReport summarises places across all properties.
type OccupancyReport struct {
	GeneratedAt   time.Time           `json:"generated_at"`
	Properties    []PropertyOccupancy `json:"properties"`
	TotalCapacity int                 `json:"total_capacity"`
	TotalOccupied int                 `json:"total_occupied"`
	Rate          float64             `json:"occupancy_rate"`
	Referrals     int64               `json:"referrals_waiting"`
}

// IncidentReport counts incidents in a window.
type IncidentReport struct {
	Range           Range          `json:"range"`
	Total           int            `json:"total"`
	BySeverity      map[string]int `json:"by_severity"`
	ByStatus        map[string]int `json:"by_status"`
	ByCategory      map[string]int `json:"by_category"`
	AvgHoursToClose float64        `json:"avg_hours_to_close"`
	Incidents       []IncidentRow  `json:"incidents"`
}

// IncidentRow is one incident as listed in the report.
type IncidentRow struct {
	ID         uuid.UUID  `json:"id"`
	OccurredAt time.Time  `json:"occurred_at"`
	Category   string     `json:"category"`
	Severity   string     `json:"severity"`
	Status     string     `json:"status"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
}

// CurrencyTotal sums invoices in one currency, in minor units.
type CurrencyTotal struct {
	Currency    string `json:"currency"`
	Due         int64  `json:"due"`
	Paid        int64  `json:"paid"`
	Outstanding int64  `json:"outstanding"`
}

// FinancialReport lists subscription invoices in a window.
type FinancialReport struct {
	Range              Range                     `json:"range"`
	SubscriptionStatus models.SubscriptionStatus `json:"subscription_status"`
	SubscriptionTier   models.SubscriptionTier   `json:"subscription_tier"`
	LastPaymentAt      *time.Time                `json:"last_payment_at,omitempty"`
	Totals             []CurrencyTotal           `json:"totals"`
	Invoices           []models.Invoice          `json:"invoices"`
}

// Service computes reports for one organization at a time.
type Service struct {
	db *gorm.DB
}

// NewService creates a reports Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Occupancy reports live occupancy for every property.
func (s *Service) Occupancy(orgID uuid.UUID) (*OccupancyReport, error) {
	var properties []models.Property
	if err := s.db.Where("organization_id = ?", orgID).Order("name ASC").Find(&properties).Error; err != nil {
		return nil, err
	}

	type row struct {
		PropertyID uuid.UUID
		Occupied   int
	}
	var rows []row
	if err := s.db.Model(&models.Resident{}).
		Select("property_id, COUNT(*) AS occupied").
		Where("organization_id = ? AND status = ? AND property_id IS NOT NULL", orgID, models.ResidentStatusActive).
		Group("property_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	occupied := make(map[uuid.UUID]int, len(rows))
	for _, r := range rows {
		occupied[r.PropertyID] = r.Occupied
	}

	report := &OccupancyReport{GeneratedAt: time.Now().UTC(), Properties: []PropertyOccupancy{}}
	for _, p := range properties {
		n := occupied[p.ID]
		available := p.Capacity - n
		if available < 0 || p.Status != models.PropertyStatusActive {
			available = 0
		}
		report.Properties = append(report.Properties, PropertyOccupancy{
			PropertyID: p.ID,
			Name:       p.Name,
			Status:     p.Status,
			Capacity:   p.Capacity,
			Occupied:   n,
			Available:  available,
			Rate:       rate(n, p.Capacity),
		})
		if p.Status == models.PropertyStatusActive {
			report.TotalCapacity += p.Capacity
		}
		report.TotalOccupied += n
	}
	report.Rate = rate(report.TotalOccupied, report.TotalCapacity)

	if err := s.db.Model(&models.Resident{}).
		Where("organization_id = ? AND status = ?", orgID, models.ResidentStatusReferred).
		Count(&report.Referrals).Error; err != nil {
		return nil, err
	}
	return report, nil
}

// Incidents reports incidents that occurred inside r.
func (s *Service) Incidents(orgID uuid.UUID, r Range) (*IncidentReport, error) {
	var incidents []models.Incident
	if err := s.db.Where("organization_id = ? AND occurred_at >= ? AND occurred_at < ?", orgID, r.From, r.To).
		Order("occurred_at ASC").
		Find(&incidents).Error; err != nil {
		return nil, err
	}

	report := &IncidentReport{
		Range:      r,
		Total:      len(incidents),
		BySeverity: map[string]int{},
		ByStatus:   map[string]int{},
		ByCategory: map[string]int{},
		Incidents:  make([]IncidentRow, 0, len(incidents)),
	}
	var closedHours float64
	var closed int
	for _, i := range incidents {
		report.BySeverity[string(i.Severity)]++
		report.ByStatus[string(i.Status)]++
		report.ByCategory[i.Category]++
		if i.ClosedAt != nil {
			closedHours += i.ClosedAt.Sub(i.OccurredAt).Hours()
			closed++
		}
		report.Incidents = append(report.Incidents, IncidentRow{
			ID:         i.ID,
			OccurredAt: i.OccurredAt,
			Category:   i.Category,
			Severity:   string(i.Severity),
			Status:     string(i.Status),
			ClosedAt:   i.ClosedAt,
		})
	}
	if closed > 0 {
		report.AvgHoursToClose = round2(closedHours / float64(closed))
	}
	return report, nil
}

// Financial reports invoices whose period ended inside r.
func (s *Service) Financial(orgID uuid.UUID, r Range) (*FinancialReport, error) {
	var org models.Organization
	if err := s.db.First(&org, "id = ?", orgID).Error; err != nil {
		return nil, err
	}

	var invoices []models.Invoice
	if err := s.db.Where("organization_id = ? AND period_end >= ? AND period_end < ?", orgID, r.From, r.To).
		Order("period_end ASC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}

	totals := map[string]*CurrencyTotal{}
	for _, inv := range invoices {
		t, ok := totals[inv.Currency]
		if !ok {
			t = &CurrencyTotal{Currency: inv.Currency}
			totals[inv.Currency] = t
		}
		t.Due += inv.AmountDue
		t.Paid += inv.AmountPaid
		if inv.Status != "void" && inv.Status != "uncollectible" {
			t.Outstanding += inv.AmountDue - inv.AmountPaid
		}
	}
	report := &FinancialReport{
		Range:              r,
		SubscriptionStatus: org.SubscriptionStatus,
		SubscriptionTier:   org.SubscriptionTier,
		LastPaymentAt:      org.LastPaymentAt,
		Totals:             make([]CurrencyTotal, 0, len(totals)),
		Invoices:           invoices,
	}
	for _, t := range totals {
		report.Totals = append(report.Totals, *t)
	}
	sort.Slice(report.Totals, func(i, j int) bool { return report.Totals[i].Currency < report.Totals[j].Currency })
	if report.Invoices == nil {
		report.Invoices = []models.Invoice{}
	}
	return report, nil
}

// Export renders report kind as an xlsx workbook and records the export.
func (s *Service) Export(orgID uuid.UUID, kind string, r Range, actor service.Actor) (filename string, data []byte, err error) {
	var sheets []Sheet
	switch kind {
	case KindOccupancy:
		report, err := s.Occupancy(orgID)
		if err != nil {
			return "", nil, err
		}
		sheets = report.Sheets()
	case KindIncidents:
		report, err := s.Incidents(orgID, r)
		if err != nil {
			return "", nil, err
		}
		sheets = report.Sheets()
	case KindFinancial:
		report, err := s.Financial(orgID, r)
		if err != nil {
			return "", nil, err
		}
		sheets = report.Sheets()
	default:
		return "", nil, service.ErrNotFound
	}

	data, err = WriteXLSX(sheets...)
	if err != nil {
		return "", nil, err
	}

	if err := activity.Record(s.db, orgID, activity.Actor(actor.UserID), activity.ActionExportReport,
		"report:"+kind, map[string]string{"from": r.From.Format(time.DateOnly), "to": r.To.Format(time.DateOnly)}); err != nil {
		return "", nil, err
	}

	filename = fmt.Sprintf("haven-%s-%s.xlsx", kind, time.Now().UTC().Format("20060102"))
	return filename, data, nil
}

func rate(n, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	return round2(float64(n) / float64(capacity) * 100)
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
