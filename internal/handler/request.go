package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"

	"github.com/szhou/travelog/internal/apperror"
)

// validate holds the compiled struct validations; validator caches field
// metadata, so a single instance is shared by all handlers.
var validate = validator.New(validator.WithRequiredStructEnabled())

// maxBodyBytes caps JSON request bodies. Photo uploads go through
// multipart parsing with their own limit.
const maxBodyBytes = 1 << 20

// decode reads a JSON body into dst and runs its `validate` tags.
func decode(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.ValidationFailed("", "invalid request body: "+err.Error())
	}

	if err := validate.Struct(dst); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return fmt.Errorf("handler: validating request: %w", err)
		}
		for _, fe := range err.(validator.ValidationErrors) {
			return apperror.ValidationFailed(fieldName(fe), validationMessage(fe))
		}
	}
	return nil
}

func fieldName(fe validator.FieldError) string {
	// StructNamespace is Request.Field; report just the field, lowercased
	// to match the JSON convention.
	name := fe.Field()
	if name == "" {
		return ""
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fieldName(fe) + " is required"
	case "email":
		return fieldName(fe) + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fieldName(fe), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fieldName(fe), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fieldName(fe), fe.Tag())
	}
}
