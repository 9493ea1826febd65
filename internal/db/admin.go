package db

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/havenhq/haven/internal/models"
	"gorm.io/gorm"
)

// ParseEmailList splits a comma-separated list of addresses, lowercasing
// and dropping blanks.
func ParseEmailList(list string) []string {
	var out []string
	for _, e := range strings.Split(list, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

// PromotePlatformAdmins flags already-provisioned users whose email is in
// emails as platform admins. Users who have not signed in yet are promoted
// when they are first provisioned.
func PromotePlatformAdmins(db *gorm.DB, emails []string) error {
	if len(emails) == 0 {
		slog.Info("No platform admins configured, skipping promotion")
		return nil
	}

	result := db.Model(&models.User{}).
		Where("LOWER(email) IN ? AND platform_admin = ?", emails, false).
		Update("platform_admin", true)
	if result.Error != nil {
		return fmt.Errorf("failed to promote platform admins: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		slog.Info("Promoted platform admins", "count", result.RowsAffected)
	}
	return nil
}
