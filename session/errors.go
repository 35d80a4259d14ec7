package session

import (
	"errors"
	"fmt"
)

// User facing messages, in the product locale.
const (
	MsgFillAllFields    = "Preencha todos os campos"
	MsgPasswordMismatch = "As senhas não coincidem"
	MsgPasswordTooShort = "A senha deve ter pelo menos 6 caracteres"
	MsgInvalidLogin     = "Usuário ou senha inválidos"
)

var (
	ErrNavigationDenied = errors.New("navigation not allowed in current phase")
	ErrUnknownPage      = errors.New("unknown page")
	ErrStaleResult      = errors.New("result belongs to a previous session")
	ErrBusy             = errors.New("session validation in progress")
	ErrAuthenticated    = errors.New("already authenticated")
)

// ValidationError rejects user input before anything is sent.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AuthError is an explicit credential rejection from the backend. It is only
// returned when strict login is enabled.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %v", MsgInvalidLogin, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
