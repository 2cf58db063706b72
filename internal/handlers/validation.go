package handlers

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/caseintake/internal/models"
	appErrors "github.com/charlesng35/caseintake/pkg/errors"
	"github.com/charlesng35/caseintake/pkg/logger"
	"github.com/charlesng35/caseintake/pkg/response"
	appValidator "github.com/charlesng35/caseintake/pkg/validator"
)

var registerOnce sync.Once

// registerValidators installs the domain tags used by request payloads.
func registerValidators() {
	registerOnce.Do(func() {
		statuses := make([]string, len(models.LeadStatuses))
		for i, s := range models.LeadStatuses {
			statuses[i] = string(s)
		}
		for tag, values := range map[string][]string{
			"visa_category": models.VisaCategories,
			"country":       models.Countries,
			"lead_status":   statuses,
		} {
			if err := appValidator.RegisterOneOf(tag, values...); err != nil {
				logger.WithModule("handlers").Error("register validation tag", zap.String("tag", tag), zap.Error(err))
			}
		}
	})
}

// bindAndValidate binds the JSON payload into dest and runs struct validation rules.
// When validation fails, an error response is automatically written and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	registerValidators()

	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}

	if err := appValidator.ValidateStruct(dest); err != nil {
		response.Error(c, appErrors.NewValidation(formatValidationError(err)))
		return false
	}

	return true
}

func formatValidationError(err error) string {
	ve, ok := err.(appValidator.ValidationErrors)
	if !ok || len(ve) == 0 {
		return "invalid request payload"
	}

	messages := make([]string, 0, len(ve))
	for _, failure := range ve {
		field := prettifyFieldName(failure.Field)
		switch failure.Tag {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email address", field))
		case "url":
			messages = append(messages, fmt.Sprintf("%s must be a valid URL", field))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must have at least %s entries", field, failure.Param))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", field, failure.Param))
		case "visa_category":
			messages = append(messages, fmt.Sprintf("%s contains an unknown visa category", field))
		case "country":
			messages = append(messages, fmt.Sprintf("%s is not a supported country", field))
		case "lead_status":
			messages = append(messages, fmt.Sprintf("%s must be one of PENDING, REACHED_OUT", field))
		default:
			messages = append(messages, fmt.Sprintf("%s failed validation: %s", field, failure.Tag))
		}
	}
	return strings.Join(messages, "; ")
}

func prettifyFieldName(name string) string {
	if name == "" {
		return "field"
	}
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ToLower(name)
}
