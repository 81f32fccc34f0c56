package main

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// Binding tags carry the rules; fieldMessages turns the first failure into
// the user-facing message.
type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type messageRequest struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

var fieldMessages = map[string]map[string]string{
	"Email": {
		"required": "Invalid email address",
		"email":    "Invalid email address",
	},
	"Password": {
		"required": "Password is required",
		"min":      "Password must be at least 8 characters",
	},
	"Role": {
		"required": "Role must be user or assistant",
		"oneof":    "Role must be user or assistant",
	},
	"Content": {
		"required": "Content is required",
	},
}

// validationMessage returns the message for the first failed rule in err.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if msgs, ok := fieldMessages[fe.Field()]; ok {
			if m, ok := msgs[fe.Tag()]; ok {
				return m
			}
		}
		return fe.Field() + " is invalid"
	}
	return "Invalid request body"
}
