// Package rbac enforces role permissions per organization with casbin.
//
// Policy lines (p) are the static role table from package permissions and are
// rewritten on every start. Grouping lines (g) hold one
// (user, role, organization) assignment per membership; platform admins are
// assigned in the "*" domain.
package rbac

import (
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/permissions"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelConf string

// PlatformDomain is the domain platform_admin assignments live in.
const PlatformDomain = "*"

// Enforcer wraps a casbin enforcer persisted through gorm.
type Enforcer struct {
	e      *casbin.Enforcer
	logger *slog.Logger
}

// NewEnforcer loads the model and stored assignments, then re-seeds the
// role policies.
func NewEnforcer(db *gorm.DB, logger *slog.Logger) (*Enforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
	}

	m, err := model.NewModelFromString(modelConf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}

	e, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if err := e.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}

	enf := &Enforcer{e: e, logger: logger}
	if err := enf.SyncPolicies(); err != nil {
		return nil, err
	}

	logger.Info("RBAC enforcer initialized")
	return enf, nil
}

// policyRules renders the static table as casbin p lines.
func policyRules() [][]string {
	var rules [][]string
	for _, role := range permissions.Roles() {
		for _, p := range permissions.PermissionsFor(role) {
			rules = append(rules, []string{string(role), p.Resource(), p.Action()})
		}
	}
	return rules
}

// SyncPolicies replaces every stored p line with the current static table.
func (r *Enforcer) SyncPolicies() error {
	existing, err := r.e.GetPolicy()
	if err != nil {
		return fmt.Errorf("failed to read policies: %w", err)
	}
	if len(existing) > 0 {
		if _, err := r.e.RemovePolicies(existing); err != nil {
			return fmt.Errorf("failed to clear policies: %w", err)
		}
	}

	rules := policyRules()
	if _, err := r.e.AddPolicies(rules); err != nil {
		return fmt.Errorf("failed to seed policies: %w", err)
	}

	r.logger.Debug("RBAC policies synced", "rules", len(rules))
	return nil
}

// Enforce reports whether userID may perform perm inside orgID.
func (r *Enforcer) Enforce(userID, orgID uuid.UUID, perm permissions.Permission) (bool, error) {
	return r.e.Enforce(userID.String(), orgID.String(), perm.Resource(), perm.Action())
}

// AssignRole gives userID exactly one role in orgID, replacing any previous
// assignment.
func (r *Enforcer) AssignRole(userID, orgID uuid.UUID, role permissions.Role) error {
	if !role.Valid() || role == permissions.RolePlatformAdmin {
		return fmt.Errorf("invalid organization role: %s", role)
	}
	if _, err := r.e.RemoveFilteredGroupingPolicy(0, userID.String(), "", orgID.String()); err != nil {
		return fmt.Errorf("failed to clear role assignment: %w", err)
	}
	if _, err := r.e.AddGroupingPolicy(userID.String(), string(role), orgID.String()); err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}
	return nil
}

// RevokeRole removes userID's assignment in orgID.
func (r *Enforcer) RevokeRole(userID, orgID uuid.UUID) error {
	if _, err := r.e.RemoveFilteredGroupingPolicy(0, userID.String(), "", orgID.String()); err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}
	return nil
}

// SetPlatformAdmin grants or removes the platform-wide wildcard role.
func (r *Enforcer) SetPlatformAdmin(userID uuid.UUID, enabled bool) error {
	sub := userID.String()
	role := string(permissions.RolePlatformAdmin)

	has, err := r.e.HasGroupingPolicy(sub, role, PlatformDomain)
	if err != nil {
		return err
	}
	switch {
	case enabled && !has:
		_, err = r.e.AddGroupingPolicy(sub, role, PlatformDomain)
	case !enabled && has:
		_, err = r.e.RemoveGroupingPolicy(sub, role, PlatformDomain)
	}
	if err != nil {
		return fmt.Errorf("failed to update platform admin: %w", err)
	}
	return nil
}
