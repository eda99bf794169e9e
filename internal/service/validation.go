package service

import (
	"errors"
	"fmt"
	"strings"

	"agora/internal/models"

	"github.com/go-playground/validator/v10"
)

const (
	maxTitleLen   = 255
	maxBodyLen    = 50000
	maxCommentLen = 10000
	maxListLimit  = 100
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// threadPayload is the part of a create or update request that is checked
// field by field.
type threadPayload struct {
	Title *string         `validate:"omitempty,max=255"`
	Body  *string         `validate:"omitempty,max=50000"`
	Flags map[string]bool `validate:"omitempty,dive,keys,oneof=excellent_at pinned_at frozen_at banned_at,endkeys"`
}

func validateThreadPayload(title, body *string, flags map[string]bool) error {
	if err := validate.Struct(threadPayload{Title: title, Body: body, Flags: flags}); err != nil {
		return translateValidation(err)
	}
	return nil
}

func translateValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return models.NewValidationError(err.Error())
	}
	fe := verrs[0]
	switch {
	case fe.Tag() == "oneof":
		return models.NewValidationError(fmt.Sprintf("Unknown flag %v", fe.Value()))
	case fe.Tag() == "max" && strings.HasPrefix(fe.Field(), "Title"):
		return models.NewValidationError(fmt.Sprintf("Title too long (max %d characters)", maxTitleLen))
	case fe.Tag() == "max" && strings.HasPrefix(fe.Field(), "Body"):
		return models.NewValidationError(fmt.Sprintf("Content too long (max %d characters)", maxBodyLen))
	default:
		return models.NewValidationError(fmt.Sprintf("Invalid %s", strings.ToLower(fe.Field())))
	}
}

func requireActor(actor Actor) error {
	if actor.UserID == 0 {
		return models.NewUnauthorizedError("Authentication required")
	}
	return nil
}
