package handlers

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/havenhq/haven/internal/models"
	"github.com/havenhq/haven/internal/permissions"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by request types:
// "orgrole" accepts any role a membership can hold and "severity" any
// incident severity.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("orgrole", func(fl validator.FieldLevel) bool {
			role, ok := permissions.ParseRole(fl.Field().String())
			return ok && role != permissions.RolePlatformAdmin
		})
		_ = v.RegisterValidation("severity", func(fl validator.FieldLevel) bool {
			switch models.IncidentSeverity(fl.Field().String()) {
			case models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityCritical:
				return true
			}
			return false
		})
	})
}
