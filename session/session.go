// Package session owns the authentication lifecycle of the client: restoring
// a stored token on start, login, registration, logout and page navigation.
//
// The Controller is the only writer of session state. Data fetchers do not
// poll it; they are started through scope hooks with a context that is
// cancelled when the session leaves the authenticated phase.
package session

import (
	"context"

	"cryptoalert/auth"
)

// DemoToken marks an offline session that is never sent for validation.
const DemoToken = "demo-token"

type Page string

const (
	PageLogin     Page = "login"
	PageRegister  Page = "register"
	PageDashboard Page = "dashboard"
	PagePortfolio Page = "portfolio"
	PageBots      Page = "bots"
)

// Anonymous reports whether the page is reachable without a token.
func (p Page) Anonymous() bool {
	return p == PageLogin || p == PageRegister
}

func (p Page) valid() bool {
	switch p {
	case PageLogin, PageRegister, PageDashboard, PagePortfolio, PageBots:
		return true
	}
	return false
}

type Phase int

const (
	PhaseUnauthenticated Phase = iota
	PhaseValidating
	PhaseAuthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseValidating:
		return "validating"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Session is a snapshot of the controller state. Token and User are set
// together or not at all.
type Session struct {
	Token string
	User  *auth.User
	Page  Page
	Phase Phase
}

// Demo reports whether the session runs on the offline sentinel token.
func (s Session) Demo() bool {
	return s.Token == DemoToken
}

// Username is empty for anonymous sessions.
func (s Session) Username() string {
	if s.User == nil {
		return ""
	}
	return s.User.Username
}

func (s Session) clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// ScopeFunc is started every time the controller enters the authenticated
// phase. ctx is cancelled when the session ends.
type ScopeFunc func(ctx context.Context, s Session)
