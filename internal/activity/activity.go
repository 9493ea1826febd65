// Package activity writes the per-organization activity log.
package activity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/models"
	"gorm.io/gorm"
)

// Record inserts an activity log entry. actorID is nil for system actions.
// db may be a transaction so the entry commits with the change it describes.
func Record(db *gorm.DB, orgID uuid.UUID, actorID *uuid.UUID, action, resource string, details interface{}) error {
	detailsJSON := []byte("{}")
	if details != nil {
		var err error
		if detailsJSON, err = json.Marshal(details); err != nil {
			return fmt.Errorf("failed to encode activity details: %w", err)
		}
	}

	entry := models.ActivityLog{
		OrganizationID: orgID,
		ActorID:        actorID,
		Action:         action,
		Resource:       resource,
		DetailsJSON:    string(detailsJSON),
		Timestamp:      time.Now().UTC(),
	}

	return db.Create(&entry).Error
}

// Actor returns a pointer to id for use as Record's actorID.
func Actor(id uuid.UUID) *uuid.UUID {
	return &id
}

// Resource formats "kind:id".
func Resource(kind string, id interface{ String() string }) string {
	return kind + ":" + id.String()
}

// Activity actions
const (
	ActionCreateOrganization = "create_organization"
	ActionUpdateOrganization = "update_organization"

	ActionInviteMember     = "invite_member"
	ActionAcceptInvitation = "accept_invitation"
	ActionUpdateMemberRole = "update_member_role"
	ActionRemoveMember     = "remove_member"

	ActionCreateResident    = "create_resident"
	ActionUpdateResident    = "update_resident"
	ActionDeleteResident    = "delete_resident"
	ActionAssignProperty    = "assign_property"
	ActionMoveOutResident   = "move_out_resident"
	ActionCreateCaseNote    = "create_case_note"
	ActionCreateProperty    = "create_property"
	ActionUpdateProperty    = "update_property"
	ActionDeleteProperty    = "delete_property"
	ActionCreateIncident    = "create_incident"
	ActionUpdateIncident    = "update_incident"
	ActionCloseIncident     = "close_incident"
	ActionDeleteIncident    = "delete_incident"
	ActionExportReport      = "export_report"
	ActionStartCheckout     = "start_checkout"
	ActionOpenBillingPortal = "open_billing_portal"

	ActionCheckoutCompleted    = "checkout_completed"
	ActionSubscriptionUpdated  = "subscription_updated"
	ActionSubscriptionCanceled = "subscription_canceled"
	ActionInvoicePaid          = "invoice_paid"
	ActionInvoicePaymentFailed = "invoice_payment_failed"
)
