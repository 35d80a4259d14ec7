package session

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/go-playground/validator/v10"
)

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("minlen16", minUTF16Len); err != nil {
		panic(err)
	}
	return v
}

// minUTF16Len measures in UTF-16 code units, the unit the web client counts
// in, so an emoji weighs two.
func minUTF16Len(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(utf16.Encode([]rune(fl.Field().String()))) >= n
}

// RegisterForm is the input of Controller.Register.
type RegisterForm struct {
	Username        string `validate:"required"`
	Email           string `validate:"required"`
	Password        string `validate:"required,minlen16=6"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

// Validate returns a *ValidationError for the first broken rule in this
// order: missing field, password mismatch, short password.
func (f RegisterForm) Validate() error {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)

	err := formValidator.Struct(f)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	tags := make(map[string]bool, len(ve))
	for _, fe := range ve {
		tags[fe.Tag()] = true
	}

	switch {
	case tags["required"]:
		return &ValidationError{Message: MsgFillAllFields}
	case tags["eqfield"]:
		return &ValidationError{Message: MsgPasswordMismatch}
	case tags["minlen16"]:
		return &ValidationError{Message: MsgPasswordTooShort}
	default:
		return &ValidationError{Message: ve.Error()}
	}
}
