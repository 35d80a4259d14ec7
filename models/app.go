package models

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"cryptoalert/api"
	"cryptoalert/feed"
	"cryptoalert/session"
)

type AppModel struct {
	Width  int
	Height int

	Session session.Session
	Error   string
	Loading bool

	Login    LoginForm
	Register RegisterFormState

	Prices     feed.Snapshot
	Monitoring MonitoringState
	Portfolio  *feed.PortfolioData
	Bots       []BotRow

	controller   *session.Controller
	validator    session.Validator
	client       *api.Client
	log          zerolog.Logger
	pollInterval time.Duration
	// base parents every request and authenticated scope.
	base context.Context

	// events carries messages from goroutines of the authenticated scope.
	events  chan tea.Msg
	monitor *feed.Monitor

	crashed string
}

type LoginForm struct {
	Username string
	Password string
	Focus    int
}

type RegisterFormState struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	Focus           int
}

type MonitoringState struct {
	Active bool
	Known  bool
	Busy   bool
	Err    string
}

// BotRow is a display-only row of the bots page.
type BotRow struct {
	Name   string
	Pair   string
	Status string
	PnL    float64
}

type Options struct {
	Store        session.CredentialStore
	Client       *api.Client
	Validator    session.Validator
	Log          zerolog.Logger
	PollInterval time.Duration
	StrictLogin  bool
	// BaseContext defaults to context.Background.
	BaseContext context.Context
}

func NewAppModel(opts Options) *AppModel {
	validator := opts.Validator
	if validator == nil {
		validator = session.NewHTTPValidator(opts.Client)
	}

	base := opts.BaseContext
	if base == nil {
		base = context.Background()
	}

	m := &AppModel{
		base:         base,
		client:       opts.Client,
		validator:    validator,
		log:          opts.Log,
		pollInterval: opts.PollInterval,
		events:       make(chan tea.Msg, 16),
		Bots:         mockBots(),
	}

	m.controller = session.NewController(opts.Store, validator, opts.Client,
		session.WithLogger(opts.Log),
		session.WithStrictLogin(opts.StrictLogin),
		session.WithScope(m.startScope),
		session.WithBaseContext(base),
	)
	m.Session = m.controller.Session()

	return m
}

func mockBots() []BotRow {
	return []BotRow{
		{Name: "Grid BTC", Pair: "BTC/USDT", Status: "running", PnL: 124.50},
		{Name: "DCA ETH", Pair: "ETH/USDT", Status: "paused", PnL: -18.20},
		{Name: "Scalper SOL", Pair: "SOL/USDT", Status: "running", PnL: 42.75},
	}
}

// startScope runs outside the UI loop every time a session becomes
// authenticated. Everything it starts dies with ctx.
func (m *AppModel) startScope(ctx context.Context, s session.Session) {
	authed := m.client.WithToken(s.Token)

	pf := feed.NewPriceFeed(m.client, m.pollInterval, m.log)
	prices := make(chan feed.Snapshot, 1)
	pf.Subscribe(prices)
	go pf.Start(ctx)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-prices:
				m.send(ctx, pricesMsg{ctx: ctx, snap: snap})
			}
		}
	}()

	monitor := feed.NewMonitor(authed)
	go func() {
		m.send(ctx, scopeStartedMsg{ctx: ctx, monitor: monitor})
		active, err := monitor.Check(ctx)
		m.send(ctx, monitoringMsg{ctx: ctx, active: active, err: err})
	}()
}

func (m *AppModel) send(ctx context.Context, msg tea.Msg) {
	select {
	case m.events <- msg:
	case <-ctx.Done():
	}
}

// Message types for Bubble Tea
type restoreStartMsg struct{}
type restoreResultMsg struct {
	step    session.RestoreStep
	outcome session.Outcome
}
type loginResultMsg struct {
	attempt session.LoginAttempt
	token   string
	err     error
}
type registerResultMsg struct {
	attempt session.RegisterAttempt
	err     error
}
type scopeStartedMsg struct {
	ctx     context.Context
	monitor *feed.Monitor
}
type pricesMsg struct {
	ctx  context.Context
	snap feed.Snapshot
}
type monitoringMsg struct {
	ctx    context.Context
	active bool
	err    error
}
type monitoringToggledMsg struct {
	ctx    context.Context
	active bool
	err    error
}
type portfolioLoadedMsg struct {
	ctx  context.Context
	data *feed.PortfolioData
	err  error
}

// Bubble Tea interface methods
func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(
		m.listen(),
		func() tea.Msg { return restoreStartMsg{} },
	)
}

func (m *AppModel) listen() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case restoreStartMsg:
		step, err := m.controller.BeginRestore()
		m.sync()
		if err != nil {
			m.Error = err.Error()
			return m, nil
		}
		if step.Validate {
			m.Loading = true
			return m, m.validateCmd(step)
		}
		return m, nil

	case restoreResultMsg:
		m.Loading = false
		if err := m.controller.CompleteRestore(msg.step, msg.outcome); err != nil && !errors.Is(err, session.ErrStaleResult) {
			m.log.Error().Err(err).Msg("restore failed")
		}
		m.sync()
		return m, nil

	case loginResultMsg:
		m.Loading = false
		err := m.controller.CompleteLogin(msg.attempt, msg.token, msg.err)
		m.setError(err)
		m.sync()
		if err == nil {
			m.Login = LoginForm{}
		}
		return m, nil

	case registerResultMsg:
		m.Loading = false
		err := m.controller.CompleteRegister(msg.attempt, msg.err)
		m.setError(err)
		m.sync()
		if err == nil {
			m.Register = RegisterFormState{}
		}
		return m, nil

	case scopeStartedMsg:
		if msg.ctx.Err() == nil {
			m.monitor = msg.monitor
		}
		return m, m.listen()

	case pricesMsg:
		if msg.ctx.Err() == nil {
			m.Prices = msg.snap
		}
		return m, m.listen()

	case monitoringMsg:
		if msg.ctx.Err() == nil {
			m.applyMonitoring(msg.active, msg.err)
		}
		return m, m.listen()

	case monitoringToggledMsg:
		if msg.ctx.Err() == nil {
			m.applyMonitoring(msg.active, msg.err)
		}
		return m, nil

	case portfolioLoadedMsg:
		if msg.ctx.Err() != nil {
			return m, nil
		}
		m.Loading = false
		if msg.err != nil {
			m.Error = "Falha ao carregar portfólio"
			m.log.Warn().Err(msg.err).Msg("portfolio load failed")
			return m, nil
		}
		m.Portfolio = msg.data
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m, nil
}

// sync copies the controller snapshot and drops data that belonged to a
// session that is gone.
func (m *AppModel) sync() {
	m.Session = m.controller.Session()
	if m.Session.Phase != session.PhaseAuthenticated {
		m.monitor = nil
		m.Prices = feed.Snapshot{}
		m.Monitoring = MonitoringState{}
		m.Portfolio = nil
	}
}

func (m *AppModel) setError(err error) {
	var ve *session.ValidationError
	var ae *session.AuthError
	switch {
	case err == nil:
		m.Error = ""
	case errors.Is(err, session.ErrStaleResult):
	case errors.As(err, &ve):
		m.Error = ve.Message
	case errors.As(err, &ae):
		m.Error = session.MsgInvalidLogin
	default:
		m.Error = err.Error()
	}
}

func (m *AppModel) applyMonitoring(active bool, err error) {
	m.Monitoring.Busy = false
	if err != nil {
		m.Monitoring.Err = "Monitoramento indisponível"
		m.log.Warn().Err(err).Msg("monitoring call failed")
		return
	}
	m.Monitoring = MonitoringState{Active: active, Known: true}
}

func (m *AppModel) validateCmd(step session.RestoreStep) tea.Cmd {
	return func() tea.Msg {
		return restoreResultMsg{
			step:    step,
			outcome: m.validator.Validate(m.base, step.Token),
		}
	}
}

func (m *AppModel) loginCmd(a session.LoginAttempt) tea.Cmd {
	return func() tea.Msg {
		token, err := m.client.Login(m.base, a.Username, a.Password)
		return loginResultMsg{attempt: a, token: token, err: err}
	}
}

func (m *AppModel) registerCmd(a session.RegisterAttempt) tea.Cmd {
	return func() tea.Msg {
		err := m.client.Register(m.base, api.RegisterRequest{
			Username: a.Form.Username,
			Email:    a.Form.Email,
			Password: a.Form.Password,
		})
		return registerResultMsg{attempt: a, err: err}
	}
}

func (m *AppModel) toggleMonitoringCmd() tea.Cmd {
	ctx, monitor := m.controller.Scope(), m.monitor
	return func() tea.Msg {
		active, err := monitor.Toggle(ctx)
		return monitoringToggledMsg{ctx: ctx, active: active, err: err}
	}
}

func (m *AppModel) loadPortfolioCmd() tea.Cmd {
	ctx := m.controller.Scope()
	client := m.client.WithToken(m.Session.Token)
	demo := m.Session.Demo()
	return func() tea.Msg {
		data, err := feed.LoadPortfolio(ctx, client, demo)
		return portfolioLoadedMsg{ctx: ctx, data: data, err: err}
	}
}

// Controller exposes the session owner, mainly for tests and cmd tools.
func (m *AppModel) Controller() *session.Controller {
	return m.controller
}
