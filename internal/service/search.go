package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/models"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"gorm.io/gorm"
)

// SearchLimit caps the hits returned per module.
const SearchLimit = 10

// minSearchLength is the shortest term worth querying for.
const minSearchLength = 2

// SearchHit is one match in a cross-module search.
type SearchHit struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle,omitempty"`
}

// SearchResults groups hits by module.
type SearchResults struct {
	Query      string      `json:"query"`
	Residents  []SearchHit `json:"residents"`
	Properties []SearchHit `json:"properties"`
	Incidents  []SearchHit `json:"incidents"`
}

// SearchService runs one term against residents, properties and incidents
// at the same time.
type SearchService struct {
	db *gorm.DB
}

// NewSearchService creates a new SearchService.
func NewSearchService(db *gorm.DB) *SearchService {
	return &SearchService{db: db}
}

// Search returns up to SearchLimit hits per module. Matching is case
// insensitive.
func (s *SearchService) Search(ctx context.Context, orgID uuid.UUID, query string) (*SearchResults, error) {
	term := strings.TrimSpace(query)
	results := &SearchResults{
		Query:      term,
		Residents:  []SearchHit{},
		Properties: []SearchHit{},
		Incidents:  []SearchHit{},
	}
	if len([]rune(term)) < minSearchLength {
		return results, nil
	}

	like := "%" + escapeLike(cases.Fold().String(term)) + "%"

	g, gctx := errgroup.WithContext(ctx)
	db := s.db.WithContext(gctx)

	g.Go(func() error {
		var rows []models.Resident
		err := db.Select("id", "first_name", "last_name", "status").
			Where("organization_id = ?", orgID).
			Where("LOWER(first_name || ' ' || last_name) LIKE ? ESCAPE '\\'", like).
			Order("last_name ASC").
			Limit(SearchLimit).
			Find(&rows).Error
		if err != nil {
			return err
		}
		for _, r := range rows {
			results.Residents = append(results.Residents, SearchHit{ID: r.ID, Title: r.FullName(), Subtitle: string(r.Status)})
		}
		return nil
	})

	g.Go(func() error {
		var rows []models.Property
		err := db.Select("id", "name", "address", "postcode").
			Where("organization_id = ?", orgID).
			Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(address) LIKE ? ESCAPE '\\' OR LOWER(postcode) LIKE ? ESCAPE '\\')", like, like, like).
			Order("name ASC").
			Limit(SearchLimit).
			Find(&rows).Error
		if err != nil {
			return err
		}
		for _, p := range rows {
			results.Properties = append(results.Properties, SearchHit{ID: p.ID, Title: p.Name, Subtitle: p.Postcode})
		}
		return nil
	})

	g.Go(func() error {
		var rows []models.Incident
		err := db.Select("id", "category", "severity", "description", "occurred_at").
			Where("organization_id = ?", orgID).
			Where("(LOWER(category) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')", like, like).
			Order("occurred_at DESC").
			Limit(SearchLimit).
			Find(&rows).Error
		if err != nil {
			return err
		}
		for _, i := range rows {
			results.Incidents = append(results.Incidents, SearchHit{ID: i.ID, Title: i.Category, Subtitle: string(i.Severity) + " · " + i.OccurredAt.Format("2 Jan 2006")})
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
