package session

import (
	"context"
	"errors"

	"cryptoalert/api"
)

// Outcome of asking the backend whether a token still authenticates.
type Outcome int

const (
	Accepted Outcome = iota
	Rejected
	Unreachable
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case Unreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

type Validator interface {
	Validate(ctx context.Context, token string) Outcome
}

// TokenChecker is the part of the backend client the validator needs.
type TokenChecker interface {
	CheckToken(ctx context.Context) error
}

// HTTPValidator checks a token with one GET /user/me. Any 2xx accepts it,
// whatever the body. It never retries.
type HTTPValidator struct {
	client *api.Client
}

func NewHTTPValidator(client *api.Client) *HTTPValidator {
	return &HTTPValidator{client: client}
}

func (v *HTTPValidator) Validate(ctx context.Context, token string) Outcome {
	return classify(ctx, v.client.WithToken(token))
}

func classify(ctx context.Context, checker TokenChecker) Outcome {
	err := checker.CheckToken(ctx)
	if err == nil {
		return Accepted
	}

	var se *api.StatusError
	if errors.As(err, &se) {
		return Rejected
	}
	return Unreachable
}

// EvictPolicy decides whether a validation outcome discards the stored
// session.
type EvictPolicy func(Outcome) bool

// EvictUnlessAccepted drops the session on anything but Accepted.
func EvictUnlessAccepted(o Outcome) bool {
	return o != Accepted
}

// KeepOnUnreachable drops the session only when the backend said no.
func KeepOnUnreachable(o Outcome) bool {
	return o == Rejected
}
