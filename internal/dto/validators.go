package dto

import (
	"time"

	"github.com/SscSPs/finsync/internal/core/domain"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the custom binding tags used by request DTOs to a
// validator engine (gin's binding.Validator.Engine()).
func RegisterValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("isodate", isISODate); err != nil {
		return err
	}
	return v.RegisterValidation("yearmonth", isYearMonth)
}

// isISODate accepts YYYY-MM-DD.
func isISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse(domain.DateLayout, fl.Field().String())
	return err == nil
}

// isYearMonth accepts a billing cycle in YYYY-MM form.
func isYearMonth(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01", fl.Field().String())
	return err == nil
}
