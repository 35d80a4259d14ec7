package models

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoalert/api"
	"cryptoalert/auth"
	"cryptoalert/feed"
	"cryptoalert/session"
)

type testEnv struct {
	model *AppModel
	store *auth.Store
}

func newTestEnv(t *testing.T, strict bool) *testEnv {
	t.Helper()
	return newTestEnvWithBase(t, strict, nil)
}

func newTestEnvWithBase(t *testing.T, strict bool, base context.Context) *testEnv {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"real123"}`))
	})
	mux.HandleFunc("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/user/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer real123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"username":"bob"}`))
	})
	mux.HandleFunc("/crypto/current", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"symbol":"BTC","name":"Bitcoin","price":50000,"change_24h":1.5}]`))
	})
	mux.HandleFunc("/monitoring/status", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"active":true}`))
	})
	mux.HandleFunc("/portfolio", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"holdings":[{"symbol":"ETH","quantity":2,"avg_price":3000}]}`))
	})
	mux.HandleFunc("/portfolio/transactions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store := auth.NewStore(t.TempDir())
	m := NewAppModel(Options{
		Store:        store,
		Client:       api.NewClient(srv.URL, time.Second),
		Log:          zerolog.Nop(),
		PollInterval: time.Hour,
		StrictLogin:  strict,
		BaseContext:  base,
	})
	t.Cleanup(func() { _ = m.Controller().Logout() })

	return &testEnv{model: m, store: store}
}

func (e *testEnv) update(msg tea.Msg) tea.Cmd {
	_, cmd := e.model.Update(msg)
	return cmd
}

func (e *testEnv) typeText(s string) {
	e.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (e *testEnv) key(k tea.KeyType) tea.Cmd {
	return e.update(tea.KeyMsg{Type: k})
}

// drain feeds scope events into Update until cond holds.
func (e *testEnv) drain(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case msg := <-e.model.events:
			e.update(msg)
		case <-deadline:
			t.Fatal("condition not reached")
		}
	}
}

func TestRestore_DemoSessionSkipsValidation(t *testing.T) {
	e := newTestEnv(t, false)
	require.NoError(t, e.store.Save(session.DemoToken, auth.User{Username: "alice"}))

	cmd := e.update(restoreStartMsg{})
	assert.Nil(t, cmd)
	assert.Equal(t, session.PhaseAuthenticated, e.model.Session.Phase)
	assert.Equal(t, session.PageDashboard, e.model.Session.Page)
	assert.Equal(t, "alice", e.model.Session.Username())

	e.drain(t, func() bool { return len(e.model.Prices.Assets) > 0 && e.model.Monitoring.Known })
	assert.Equal(t, "BTC", e.model.Prices.Assets[0].Symbol)
	assert.True(t, e.model.Monitoring.Active)
	assert.Contains(t, e.model.View(), "BTC")
}

func TestRestore_ValidatesStoredToken(t *testing.T) {
	e := newTestEnv(t, false)
	require.NoError(t, e.store.Save("real123", auth.User{Username: "bob"}))

	cmd := e.update(restoreStartMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, session.PhaseValidating, e.model.Session.Phase)
	assert.Contains(t, e.model.View(), "Verificando")

	e.update(cmd())
	assert.Equal(t, session.PhaseAuthenticated, e.model.Session.Phase)
	assert.Equal(t, "bob", e.model.Session.Username())
}

func TestRestore_RejectedTokenEvicted(t *testing.T) {
	e := newTestEnv(t, false)
	require.NoError(t, e.store.Save("expired", auth.User{Username: "bob"}))

	cmd := e.update(restoreStartMsg{})
	require.NotNil(t, cmd)
	e.update(cmd())

	assert.Equal(t, session.PhaseUnauthenticated, e.model.Session.Phase)
	assert.Equal(t, session.PageLogin, e.model.Session.Page)
	_, _, err := e.store.Load()
	assert.ErrorIs(t, err, auth.ErrNoCredentials)
}

func TestLogin_EmptyFields(t *testing.T) {
	e := newTestEnv(t, false)
	e.update(restoreStartMsg{})

	cmd := e.key(tea.KeyEnter)
	assert.Nil(t, cmd)
	assert.Equal(t, session.MsgFillAllFields, e.model.Error)
	assert.Contains(t, e.model.View(), session.MsgFillAllFields)
}

func TestLogin_TypingAndSubmit(t *testing.T) {
	e := newTestEnv(t, false)
	e.update(restoreStartMsg{})

	e.typeText("bob")
	e.key(tea.KeyTab)
	e.typeText("secretx")
	e.key(tea.KeyBackspace)
	assert.Equal(t, "bob", e.model.Login.Username)
	assert.Equal(t, "secret", e.model.Login.Password)
	assert.NotContains(t, e.model.View(), "secret")

	cmd := e.key(tea.KeyEnter)
	require.NotNil(t, cmd)
	assert.True(t, e.model.Loading)

	e.update(cmd())
	assert.False(t, e.model.Loading)
	assert.Empty(t, e.model.Error)
	assert.Equal(t, session.PhaseAuthenticated, e.model.Session.Phase)
	assert.Equal(t, "real123", e.model.Session.Token)
	assert.Equal(t, LoginForm{}, e.model.Login)

	token, user, err := e.store.Load()
	require.NoError(t, err)
	assert.Equal(t, "real123", token)
	assert.Equal(t, "bob", user.Username)
}

func TestLogin_StrictRejection(t *testing.T) {
	e := newTestEnv(t, true)
	e.update(restoreStartMsg{})

	a, err := e.model.Controller().BeginLogin("bob", "wrong")
	require.NoError(t, err)
	e.update(loginResultMsg{attempt: a, err: &api.StatusError{Code: http.StatusUnauthorized}})

	assert.Equal(t, session.MsgInvalidLogin, e.model.Error)
	assert.Equal(t, session.PhaseUnauthenticated, e.model.Session.Phase)
}

func TestRegister_ValidationAndSubmit(t *testing.T) {
	e := newTestEnv(t, false)
	e.update(restoreStartMsg{})

	e.update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.Equal(t, session.PageRegister, e.model.Session.Page)

	e.model.Register = RegisterFormState{Username: "bob", Email: "b@x.io", Password: "abc", ConfirmPassword: "abc"}
	assert.Nil(t, e.key(tea.KeyEnter))
	assert.Equal(t, session.MsgPasswordTooShort, e.model.Error)

	e.model.Register.Password = "abcdef"
	e.model.Register.ConfirmPassword = "abcdeg"
	e.key(tea.KeyEnter)
	assert.Equal(t, session.MsgPasswordMismatch, e.model.Error)

	e.model.Register.ConfirmPassword = "abcdef"
	cmd := e.key(tea.KeyEnter)
	require.NotNil(t, cmd)
	e.update(cmd())

	assert.Empty(t, e.model.Error)
	assert.Equal(t, session.PageLogin, e.model.Session.Page)
	assert.Equal(t, RegisterFormState{}, e.model.Register)
}

func TestAuthenticated_NavigationAndPortfolio(t *testing.T) {
	e := newTestEnv(t, false)
	require.NoError(t, e.store.Save("real123", auth.User{Username: "bob"}))
	e.update(e.update(restoreStartMsg{})())
	require.Equal(t, session.PhaseAuthenticated, e.model.Session.Phase)

	cmd := e.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	require.NotNil(t, cmd)
	assert.Equal(t, session.PagePortfolio, e.model.Session.Page)

	e.update(cmd())
	require.NotNil(t, e.model.Portfolio)
	require.Len(t, e.model.Portfolio.Holdings, 1)
	assert.Equal(t, "ETH", e.model.Portfolio.Holdings[0].Symbol)

	e.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("3")})
	assert.Equal(t, session.PageBots, e.model.Session.Page)
	assert.Contains(t, e.model.View(), "Grid BTC")
}

func TestLogout_ClearsData(t *testing.T) {
	e := newTestEnv(t, false)
	require.NoError(t, e.store.Save(session.DemoToken, auth.User{Username: "alice"}))
	e.update(restoreStartMsg{})
	e.drain(t, func() bool { return len(e.model.Prices.Assets) > 0 })

	e.update(tea.KeyMsg{Type: tea.KeyCtrlL})

	assert.Equal(t, session.PhaseUnauthenticated, e.model.Session.Phase)
	assert.Equal(t, session.PageLogin, e.model.Session.Page)
	assert.Empty(t, e.model.Prices.Assets)
	assert.Nil(t, e.model.monitor)
	_, _, err := e.store.Load()
	assert.ErrorIs(t, err, auth.ErrNoCredentials)
}

func TestStaleScopeMessagesIgnored(t *testing.T) {
	e := newTestEnv(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e.update(pricesMsg{ctx: ctx, snap: feed.Snapshot{Assets: feed.DefaultAssets()}})
	e.update(monitoringMsg{ctx: ctx, active: true})
	e.update(portfolioLoadedMsg{ctx: ctx, data: &feed.PortfolioData{}})

	assert.Empty(t, e.model.Prices.Assets)
	assert.False(t, e.model.Monitoring.Known)
	assert.Nil(t, e.model.Portfolio)
}

func TestStaleLoginAfterLogout(t *testing.T) {
	e := newTestEnv(t, false)
	e.update(restoreStartMsg{})

	a, err := e.model.Controller().BeginLogin("bob", "secret")
	require.NoError(t, err)
	require.NoError(t, e.model.Controller().Logout())

	e.update(loginResultMsg{attempt: a, token: "real123"})
	assert.Equal(t, session.PhaseUnauthenticated, e.model.Session.Phase)
	assert.Empty(t, e.model.Error)
}

func TestCrashScreen(t *testing.T) {
	e := newTestEnv(t, false)
	e.model.crashed = "boom"

	assert.Contains(t, e.model.View(), "boom")
	e.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Empty(t, e.model.crashed)
	assert.Contains(t, e.model.View(), "ENTRAR")
}

func TestBaseContextEndsScope(t *testing.T) {
	base, cancel := context.WithCancel(context.Background())
	e := newTestEnvWithBase(t, false, base)
	require.NoError(t, e.store.Save(session.DemoToken, auth.User{Username: "alice"}))

	e.update(restoreStartMsg{})
	require.Equal(t, session.PhaseAuthenticated, e.model.Session.Phase)
	scope := e.model.Controller().Scope()
	require.NoError(t, scope.Err())

	cancel()
	assert.ErrorIs(t, scope.Err(), context.Canceled)
}
