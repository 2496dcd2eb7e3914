package models

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the comment's user-supplied fields and reports the first
// failure as a ValidationError.
func (c *Comment) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		field := jsonFieldName(fe.Field())
		switch fe.Tag() {
		case "required":
			return NewValidationError(field, "is required")
		case "max":
			return NewValidationError(field, "must be at most "+fe.Param()+" characters")
		}
		return NewValidationError(field, "is invalid")
	}
	return NewValidationError("", err.Error())
}

// BeforeCreate assigns the identifier and creation time when they are unset.
func (c *Comment) BeforeCreate(now time.Time) error {
	if c.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		c.ID = id.String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now.UTC()
	}
	c.UpdatedAt = nil
	return nil
}

// ApplyUpdate replaces the editable fields and stamps UpdatedAt. The stamp
// never precedes CreatedAt.
func (c *Comment) ApplyUpdate(author, content string, now time.Time) {
	c.Author = author
	c.Content = content
	stamp := now.UTC()
	if stamp.Before(c.CreatedAt) {
		stamp = c.CreatedAt
	}
	c.UpdatedAt = &stamp
}

// Clone returns a deep copy so callers cannot alias stored state.
func (c *Comment) Clone() *Comment {
	out := *c
	if c.UpdatedAt != nil {
		t := *c.UpdatedAt
		out.UpdatedAt = &t
	}
	return &out
}

func jsonFieldName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
