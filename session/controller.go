package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"cryptoalert/api"
	"cryptoalert/auth"
)

// CredentialStore persists the session across runs. *auth.Store implements it.
type CredentialStore interface {
	Save(token string, user auth.User) error
	Load() (string, auth.User, error)
	Clear() error
}

var _ CredentialStore = (*auth.Store)(nil)

// Backend is the anonymous part of the API. *api.Client implements it.
type Backend interface {
	Login(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, req api.RegisterRequest) error
}

// Ticket identifies the controller generation an operation started in.
type Ticket uint64

type RestoreStep struct {
	Ticket Ticket
	Token  string
	User   auth.User
	// Validate is false when the step already finished the restore.
	Validate bool
}

type LoginAttempt struct {
	Ticket   Ticket
	Username string
	Password string
}

type RegisterAttempt struct {
	Ticket Ticket
	Form   RegisterForm
}

type Option func(*Controller)

func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithEvictPolicy overrides which validation outcomes discard a session.
func WithEvictPolicy(p EvictPolicy) Option {
	return func(c *Controller) { c.evict = p }
}

// WithStrictLogin surfaces explicit credential rejections as *AuthError
// instead of falling back to a demo session.
func WithStrictLogin(strict bool) Option {
	return func(c *Controller) { c.strictLogin = strict }
}

// WithScope registers a hook started on every entry into the authenticated
// phase.
func WithScope(fn ScopeFunc) Option {
	return func(c *Controller) { c.hooks = append(c.hooks, fn) }
}

// WithBaseContext sets the parent of every authenticated scope.
func WithBaseContext(ctx context.Context) Option {
	return func(c *Controller) { c.base = ctx }
}

// Controller is the single owner of session state. It is safe for
// concurrent use; network calls run outside its lock and their results are
// dropped with ErrStaleResult when the session moved on meanwhile.
type Controller struct {
	store     CredentialStore
	validator Validator
	backend   Backend

	log         zerolog.Logger
	evict       EvictPolicy
	strictLogin bool
	base        context.Context
	hooks       []ScopeFunc

	mu          sync.Mutex
	session     Session
	gen         Ticket
	cancelScope context.CancelFunc
	scope       context.Context
	subs        []chan Session
	pending     []func()
}

func NewController(store CredentialStore, validator Validator, backend Backend, opts ...Option) *Controller {
	c := &Controller{
		store:     store,
		validator: validator,
		backend:   backend,
		log:       zerolog.Nop(),
		evict:     EvictUnlessAccepted,
		base:      context.Background(),
		session:   Session{Page: PageLogin, Phase: PhaseUnauthenticated},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns a snapshot of the current state.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.clone()
}

// Scope returns the context of the current authenticated scope. It is
// already cancelled when no session is active.
func (c *Controller) Scope() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scope == nil {
		ctx, cancel := context.WithCancel(c.base)
		cancel()
		return ctx
	}
	return c.scope
}

// Subscribe returns a channel receiving a snapshot after every transition.
// Slow readers miss intermediate snapshots.
func (c *Controller) Subscribe() <-chan Session {
	ch := make(chan Session, 8)
	c.mu.Lock()
	c.subs = append(c.subs, ch)
	c.mu.Unlock()
	return ch
}

// apply runs f under the lock, then the callbacks f queued.
func (c *Controller) apply(f func() error) error {
	c.mu.Lock()
	err := f()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
	return err
}

func (c *Controller) transition(next Session) {
	prev := c.session
	c.session = next
	c.log.Info().
		Str("from", prev.Phase.String()).
		Str("to", next.Phase.String()).
		Str("page", string(next.Page)).
		Msg("session transition")

	snap := next.clone()
	subs := append([]chan Session(nil), c.subs...)
	c.pending = append(c.pending, func() {
		for _, ch := range subs {
			select {
			case ch <- snap:
			default:
			}
		}
	})
}

func (c *Controller) enterAuthenticated(token string, user auth.User) {
	c.gen++
	c.endScope()

	u := user
	c.transition(Session{Token: token, User: &u, Page: PageDashboard, Phase: PhaseAuthenticated})

	ctx, cancel := context.WithCancel(c.base)
	c.scope = ctx
	c.cancelScope = cancel

	snap := c.session.clone()
	for _, hook := range c.hooks {
		hook := hook
		c.pending = append(c.pending, func() { hook(ctx, snap) })
	}
}

func (c *Controller) enterUnauthenticated(page Page) {
	c.endScope()
	c.transition(Session{Page: page, Phase: PhaseUnauthenticated})
}

func (c *Controller) endScope() {
	if c.cancelScope != nil {
		c.cancelScope()
		c.cancelScope = nil
		c.scope = nil
	}
}

// BeginRestore reads the stored credentials. It finishes the restore itself
// when there is nothing to validate.
func (c *Controller) BeginRestore() (RestoreStep, error) {
	var step RestoreStep
	err := c.apply(func() error {
		if c.session.Phase != PhaseUnauthenticated {
			return ErrAuthenticated
		}

		token, user, err := c.store.Load()
		if err != nil {
			if !errors.Is(err, auth.ErrNoCredentials) {
				c.log.Warn().Err(err).Msg("failed to load credentials")
			}
			c.enterUnauthenticated(PageLogin)
			return nil
		}

		if token == DemoToken && user.Username != "" {
			c.log.Info().Str("user", user.Username).Msg("restoring demo session")
			c.enterAuthenticated(token, user)
			return nil
		}

		c.gen++
		c.transition(Session{Page: c.session.Page, Phase: PhaseValidating})
		step = RestoreStep{Ticket: c.gen, Token: token, User: user, Validate: true}
		return nil
	})
	return step, err
}

// CompleteRestore applies the validator outcome of step.
func (c *Controller) CompleteRestore(step RestoreStep, outcome Outcome) error {
	return c.apply(func() error {
		if step.Ticket != c.gen || c.session.Phase != PhaseValidating {
			c.log.Debug().Str("outcome", outcome.String()).Msg("discarding stale validation")
			return ErrStaleResult
		}

		if c.evict(outcome) {
			c.log.Info().Str("outcome", outcome.String()).Msg("stored session discarded")
			c.gen++
			c.enterUnauthenticated(PageLogin)
			if err := c.store.Clear(); err != nil {
				return fmt.Errorf("clear credentials: %w", err)
			}
			return nil
		}

		// the pair is already on disk; a failed re-save does not end it
		if err := c.store.Save(step.Token, step.User); err != nil {
			c.log.Warn().Err(err).Msg("failed to re-save restored credentials")
		}
		c.enterAuthenticated(step.Token, step.User)
		return nil
	})
}

// Restore runs the start-up restore, validating at most once.
func (c *Controller) Restore(ctx context.Context) error {
	step, err := c.BeginRestore()
	if err != nil || !step.Validate {
		return err
	}
	return c.CompleteRestore(step, c.validator.Validate(ctx, step.Token))
}

// BeginLogin checks the input and returns the attempt to send.
func (c *Controller) BeginLogin(username, password string) (LoginAttempt, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return LoginAttempt{}, &ValidationError{Message: MsgFillAllFields}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Phase == PhaseValidating {
		return LoginAttempt{}, ErrBusy
	}
	return LoginAttempt{Ticket: c.gen, Username: username, Password: password}, nil
}

// CompleteLogin applies the backend answer to a. Any failure falls back to
// the demo token unless strict login rejects it first.
func (c *Controller) CompleteLogin(a LoginAttempt, token string, loginErr error) error {
	return c.apply(func() error {
		if a.Ticket != c.gen {
			c.log.Debug().Str("user", a.Username).Msg("discarding stale login")
			return ErrStaleResult
		}

		if loginErr != nil {
			if c.strictLogin && errors.Is(loginErr, api.ErrUnauthorized) {
				return &AuthError{Err: loginErr}
			}
			c.log.Warn().Err(loginErr).Str("user", a.Username).Msg("login failed, falling back to demo session")
			token = DemoToken
		}

		user := auth.User{Username: a.Username}
		if err := c.store.Save(token, user); err != nil {
			return fmt.Errorf("save credentials: %w", err)
		}
		c.enterAuthenticated(token, user)
		return nil
	})
}

func (c *Controller) Login(ctx context.Context, username, password string) error {
	a, err := c.BeginLogin(username, password)
	if err != nil {
		return err
	}
	token, err := c.backend.Login(ctx, a.Username, a.Password)
	return c.CompleteLogin(a, token, err)
}

// BeginRegister checks the form and returns the attempt to send.
func (c *Controller) BeginRegister(form RegisterForm) (RegisterAttempt, error) {
	if err := form.Validate(); err != nil {
		return RegisterAttempt{}, err
	}
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)

	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.session.Phase {
	case PhaseValidating:
		return RegisterAttempt{}, ErrBusy
	case PhaseAuthenticated:
		return RegisterAttempt{}, ErrAuthenticated
	}
	return RegisterAttempt{Ticket: c.gen, Form: form}, nil
}

// CompleteRegister moves to the login page whatever the backend answered.
func (c *Controller) CompleteRegister(a RegisterAttempt, registerErr error) error {
	return c.apply(func() error {
		if a.Ticket != c.gen {
			return ErrStaleResult
		}
		if registerErr != nil {
			c.log.Warn().Err(registerErr).Str("user", a.Form.Username).Msg("registration request failed")
		} else {
			c.log.Info().Str("user", a.Form.Username).Msg("registration sent")
		}
		c.enterUnauthenticated(PageLogin)
		return nil
	})
}

func (c *Controller) Register(ctx context.Context, form RegisterForm) error {
	a, err := c.BeginRegister(form)
	if err != nil {
		return err
	}
	err = c.backend.Register(ctx, api.RegisterRequest{
		Username: a.Form.Username,
		Email:    a.Form.Email,
		Password: a.Form.Password,
	})
	return c.CompleteRegister(a, err)
}

// Logout ends the session from any phase. The state always ends on the
// login page; a storage failure is still reported.
func (c *Controller) Logout() error {
	return c.apply(func() error {
		c.gen++
		c.enterUnauthenticated(PageLogin)
		if err := c.store.Clear(); err != nil {
			return fmt.Errorf("clear credentials: %w", err)
		}
		return nil
	})
}

// Navigate switches page. Anonymous pages are always reachable outside
// validation, the others need an authenticated session.
func (c *Controller) Navigate(page Page) error {
	if !page.valid() {
		return fmt.Errorf("%w: %q", ErrUnknownPage, page)
	}
	return c.apply(func() error {
		switch c.session.Phase {
		case PhaseValidating:
			return ErrNavigationDenied
		case PhaseUnauthenticated:
			if !page.Anonymous() {
				return ErrNavigationDenied
			}
		}
		if c.session.Page == page {
			return nil
		}
		next := c.session
		next.Page = page
		c.transition(next)
		return nil
	})
}
