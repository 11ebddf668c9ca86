package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	nameRules        = "notblank,max=255"
	slugRules        = "required,max=50,slug"
	descriptionRules = "max=1000"
	moneyRules       = "required,money"
	stockRules       = "min=0"
	ratingRules      = "min=1,max=5"
)

var (
	slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	// NUMERIC(10, 2)
	moneyPattern = regexp.MustCompile(`^\d{1,8}(\.\d{1,2})?$`)
)

// CatalogValidator validates catalog payload fields
type CatalogValidator interface {
	ValidateName(name string) error
	ValidateSlug(slug string) error
	ValidateDescription(description string) error
	ValidateMoney(field, amount string) error
	ValidateStock(stock int64) error
	ValidateRating(rating int) error
}

type DefaultValidator struct {
	validate *validator.Validate
}

func NewDefaultValidator() CatalogValidator {
	validate := validator.New()
	mustRegister(validate, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(validate, "slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	mustRegister(validate, "money", func(fl validator.FieldLevel) bool {
		return moneyPattern.MatchString(fl.Field().String())
	})

	return &DefaultValidator{validate: validate}
}

func mustRegister(validate *validator.Validate, tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

func (v *DefaultValidator) ValidateName(name string) error {
	return v.check("name", name, nameRules)
}

func (v *DefaultValidator) ValidateSlug(slug string) error {
	return v.check("slug", slug, slugRules)
}

func (v *DefaultValidator) ValidateDescription(description string) error {
	return v.check("description", description, descriptionRules)
}

func (v *DefaultValidator) ValidateMoney(field, amount string) error {
	return v.check(field, amount, moneyRules)
}

func (v *DefaultValidator) ValidateStock(stock int64) error {
	return v.check("stock", stock, stockRules)
}

func (v *DefaultValidator) ValidateRating(rating int) error {
	return v.check("rating", rating, ratingRules)
}

func (v *DefaultValidator) check(field string, value interface{}, rules string) error {
	err := v.validate.Var(value, rules)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return errors.New(formatFieldError(field, fieldErrs[0]))
	}
	return err
}

// formatFieldError turns a rule failure into a readable message
func formatFieldError(field string, e validator.FieldError) string {
	isString := e.Kind() == reflect.String

	switch e.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s cannot be empty", field)
	case "max":
		if isString {
			return fmt.Sprintf("%s exceeds %s characters", field, e.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "slug":
		return fmt.Sprintf("%s %q may only contain letters, numbers, underscores or hyphens", field, e.Value())
	case "money":
		return fmt.Sprintf("%s must be a non-negative decimal with at most 2 places, got %q", field, e.Value())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
