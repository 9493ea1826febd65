package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/models"
	"github.com/havenhq/haven/internal/permissions"
)

// Actor is the authenticated caller acting inside one organization.
type Actor struct {
	UserID uuid.UUID
	Name   string
	Role   permissions.Role
}

// Page selects a slice of a list. Zero values mean the first page of
// DefaultPageSize.
type Page struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// DefaultPageSize is used when a request does not name one.
const DefaultPageSize = 50

func (p Page) normalize() (limit, offset int) {
	size := p.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > 200 {
		size = 200
	}
	page := p.Page
	if page <= 0 {
		page = 1
	}
	return size, (page - 1) * size
}

// PageResult wraps one page of items with the total count.
type PageResult[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

func newPageResult[T any](items []T, total int64, p Page) PageResult[T] {
	limit, offset := p.normalize()
	if items == nil {
		items = []T{}
	}
	return PageResult[T]{Items: items, Total: total, Page: offset/limit + 1, PageSize: limit}
}

// CreateOrganizationRequest holds parameters for creating a tenant.
type CreateOrganizationRequest struct {
	Name         string `json:"name" binding:"required,max=200"`
	Slug         string `json:"slug" binding:"required,max=64"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email"`
	AdminEmail   string `json:"admin_email" binding:"omitempty,email"` // invited as the first admin
}

// UpdateOrganizationRequest holds the settings an admin may change.
type UpdateOrganizationRequest struct {
	Name         *string `json:"name" binding:"omitempty,max=200"`
	ContactEmail *string `json:"contact_email" binding:"omitempty,email"`
}

// InviteMemberRequest holds parameters for inviting a member.
type InviteMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,orgrole"`
}

// UpdateMemberRoleRequest changes a member's role.
type UpdateMemberRoleRequest struct {
	Role string `json:"role" binding:"required,orgrole"`
}

// ResidentFilter narrows a resident listing.
type ResidentFilter struct {
	Status     models.ResidentStatus `form:"status"`
	PropertyID string                `form:"property_id"`
	RiskLevel  models.RiskLevel      `form:"risk_level"`
	Query      string                `form:"q"`
	Page
}

// CreateResidentRequest holds parameters for creating a resident.
type CreateResidentRequest struct {
	FirstName    string                `json:"first_name" binding:"required,max=100"`
	LastName     string                `json:"last_name" binding:"required,max=100"`
	DateOfBirth  *time.Time            `json:"date_of_birth"`
	Status       models.ResidentStatus `json:"status" binding:"omitempty,oneof=referred active moved_on archived"`
	RiskLevel    models.RiskLevel      `json:"risk_level" binding:"omitempty,oneof=low medium high"`
	KeyWorkerID  *uuid.UUID            `json:"key_worker_id"`
	UserID       *uuid.UUID            `json:"user_id"`
	SupportNeeds string                `json:"support_needs" binding:"max=20000"`
}

// UpdateResidentRequest holds the fields staff may change. Nil means
// unchanged.
type UpdateResidentRequest struct {
	FirstName    *string                `json:"first_name" binding:"omitempty,max=100"`
	LastName     *string                `json:"last_name" binding:"omitempty,max=100"`
	DateOfBirth  *time.Time             `json:"date_of_birth"`
	Status       *models.ResidentStatus `json:"status" binding:"omitempty,oneof=referred active moved_on archived"`
	RiskLevel    *models.RiskLevel      `json:"risk_level" binding:"omitempty,oneof=low medium high"`
	KeyWorkerID  *uuid.UUID             `json:"key_worker_id"`
	SupportNeeds *string                `json:"support_needs" binding:"omitempty,max=20000"`
}

// UpdateOwnProfileRequest holds the fields a resident may change about
// themselves.
type UpdateOwnProfileRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,max=100"`
}

// AssignPropertyRequest places a resident in a property.
type AssignPropertyRequest struct {
	PropertyID uuid.UUID  `json:"property_id" binding:"required"`
	MoveInDate *time.Time `json:"move_in_date"`
}

// MoveOutRequest ends a resident's placement.
type MoveOutRequest struct {
	MoveOutDate *time.Time `json:"move_out_date"`
}

// CreateCaseNoteRequest holds a new case note.
type CreateCaseNoteRequest struct {
	Category string `json:"category" binding:"omitempty,max=50"`
	Body     string `json:"body" binding:"required,max=50000"`
}

// CreatePropertyRequest holds parameters for creating a property.
type CreatePropertyRequest struct {
	Name     string `json:"name" binding:"required,max=200"`
	Address  string `json:"address" binding:"max=500"`
	Postcode string `json:"postcode" binding:"max=16"`
	Capacity int    `json:"capacity" binding:"required,min=1,max=500"`
}

// UpdatePropertyRequest holds property changes. Nil means unchanged.
type UpdatePropertyRequest struct {
	Name     *string                `json:"name" binding:"omitempty,max=200"`
	Address  *string                `json:"address" binding:"omitempty,max=500"`
	Postcode *string                `json:"postcode" binding:"omitempty,max=16"`
	Capacity *int                   `json:"capacity" binding:"omitempty,min=1,max=500"`
	Status   *models.PropertyStatus `json:"status" binding:"omitempty,oneof=active inactive"`
}

// PropertyWithOccupancy is a property plus its live occupancy.
type PropertyWithOccupancy struct {
	models.Property
	Occupied  int `json:"occupied"`
	Available int `json:"available"`
}

// IncidentFilter narrows an incident listing.
type IncidentFilter struct {
	Status     models.IncidentStatus   `form:"status"`
	Severity   models.IncidentSeverity `form:"severity"`
	ResidentID string                  `form:"resident_id"`
	Page
}

// CreateIncidentRequest holds a new incident report.
type CreateIncidentRequest struct {
	ResidentID   *uuid.UUID              `json:"resident_id"`
	PropertyID   *uuid.UUID              `json:"property_id"`
	Category     string                  `json:"category" binding:"required,max=50"`
	Severity     models.IncidentSeverity `json:"severity" binding:"required,severity"`
	Description  string                  `json:"description" binding:"required,max=20000"`
	ActionsTaken string                  `json:"actions_taken" binding:"max=20000"`
	OccurredAt   *time.Time              `json:"occurred_at"`
}

// UpdateIncidentRequest holds incident changes. Nil means unchanged.
type UpdateIncidentRequest struct {
	Category     *string                  `json:"category" binding:"omitempty,max=50"`
	Severity     *models.IncidentSeverity `json:"severity" binding:"omitempty,severity"`
	Status       *models.IncidentStatus   `json:"status" binding:"omitempty,oneof=open investigating"`
	Description  *string                  `json:"description" binding:"omitempty,max=20000"`
	ActionsTaken *string                  `json:"actions_taken" binding:"omitempty,max=20000"`
}

// CloseIncidentRequest records the outcome when closing an incident.
type CloseIncidentRequest struct {
	ActionsTaken string `json:"actions_taken" binding:"max=20000"`
}
