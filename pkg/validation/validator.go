package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate = validator.New()

	// NSE symbols carry letters, digits, '&' and '-' (M&M, BAJAJ-AUTO); BSE scrip codes are numeric.
	tickerPattern = regexp.MustCompile(`^[A-Z0-9&.\-]{1,20}$`)
	sectorPattern = regexp.MustCompile(`^[\p{L}0-9 &/,.()\-]{1,60}$`)
)

// ValidationError represents a validation error with field and message
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

func init() {
	validate.RegisterValidation("ticker", validateTicker)
	validate.RegisterValidation("sector", validateSector)
	validate.RegisterValidation("exchange", validateExchange)
}

// validateTicker validates ticker symbol format
func validateTicker(fl validator.FieldLevel) bool {
	ticker, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return tickerPattern.MatchString(ticker)
}

// validateSector validates sector label format
func validateSector(fl validator.FieldLevel) bool {
	sector := fl.Field().String()
	return sectorPattern.MatchString(sector)
}

// validateExchange accepts the two supported markets.
func validateExchange(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "NSE", "BSE":
		return true
	}
	return false
}

// IsTicker reports whether s is a well-formed ticker symbol.
func IsTicker(s string) bool {
	return tickerPattern.MatchString(s)
}

// ValidateStruct validates a struct using tags
func ValidateStruct(s interface{}) ValidationErrors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "", Message: err.Error()}}
	}

	var errors ValidationErrors
	for _, err := range verrs {
		field := err.Field()
		errors = append(errors, ValidationError{
			Field:   field,
			Message: getErrorMessage(field, err.Tag(), err.Param()),
			Value:   err.Value(),
		})
	}

	return errors
}

// getErrorMessage returns a user-friendly error message
func getErrorMessage(field, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "ticker":
		return fmt.Sprintf("%s must be a valid ticker symbol (1-20 uppercase letters, digits, '&', '-', '.')", field)
	case "sector":
		return fmt.Sprintf("%s must be a valid sector label", field)
	case "exchange":
		return fmt.Sprintf("%s must be NSE or BSE", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}

// SanitizeString removes control characters and surrounding whitespace
func SanitizeString(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)

	return strings.TrimSpace(s)
}

// NormalizeSymbol trims and upper-cases a ticker as typed by a user.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(SanitizeString(s))
}
