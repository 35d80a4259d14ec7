package models

import (
	"errors"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"cryptoalert/session"
)

const (
	loginFields    = 2
	registerFields = 4
)

func (m *AppModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.crashed != "" {
		if msg.String() == "r" {
			m.crashed = ""
			m.Error = ""
		}
		return m, nil
	}

	switch m.Session.Phase {
	case session.PhaseValidating:
		// Nothing but quitting while the stored token is checked.
		return m, nil
	case session.PhaseAuthenticated:
		return m.handleAuthenticatedKeys(msg)
	}

	switch m.Session.Page {
	case session.PageRegister:
		return m.handleRegisterKeys(msg)
	default:
		return m.handleLoginKeys(msg)
	}
}

func (m *AppModel) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Loading {
		return m, nil
	}

	switch msg.String() {
	case "enter":
		a, err := m.controller.BeginLogin(m.Login.Username, m.Login.Password)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.Error = ""
		m.Loading = true
		return m, m.loginCmd(a)

	case "ctrl+r":
		m.goTo(session.PageRegister)
		return m, nil

	case "tab", "down":
		m.Login.Focus = (m.Login.Focus + 1) % loginFields
	case "shift+tab", "up":
		m.Login.Focus = (m.Login.Focus + loginFields - 1) % loginFields

	default:
		editField(m.loginField(), msg)
	}
	return m, nil
}

func (m *AppModel) handleRegisterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Loading {
		return m, nil
	}

	switch msg.String() {
	case "enter":
		a, err := m.controller.BeginRegister(session.RegisterForm{
			Username:        m.Register.Username,
			Email:           m.Register.Email,
			Password:        m.Register.Password,
			ConfirmPassword: m.Register.ConfirmPassword,
		})
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.Error = ""
		m.Loading = true
		return m, m.registerCmd(a)

	case "ctrl+r", "esc":
		m.goTo(session.PageLogin)
		return m, nil

	case "tab", "down":
		m.Register.Focus = (m.Register.Focus + 1) % registerFields
	case "shift+tab", "up":
		m.Register.Focus = (m.Register.Focus + registerFields - 1) % registerFields

	default:
		editField(m.registerField(), msg)
	}
	return m, nil
}

func (m *AppModel) handleAuthenticatedKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "ctrl+l":
		if err := m.controller.Logout(); err != nil {
			m.log.Error().Err(err).Msg("logout left credentials on disk")
		}
		m.Error = ""
		m.Loading = false
		m.sync()
		return m, nil

	case "1":
		m.goTo(session.PageDashboard)
	case "2":
		if m.goTo(session.PagePortfolio) && m.Portfolio == nil && !m.Loading {
			m.Loading = true
			return m, m.loadPortfolioCmd()
		}
	case "3":
		m.goTo(session.PageBots)

	case "r":
		if m.Session.Page == session.PagePortfolio && !m.Loading {
			m.Error = ""
			m.Loading = true
			return m, m.loadPortfolioCmd()
		}

	case "m":
		if m.Session.Page == session.PageDashboard && m.monitor != nil && !m.Monitoring.Busy {
			m.Monitoring.Busy = true
			m.Monitoring.Err = ""
			return m, m.toggleMonitoringCmd()
		}
	}
	return m, nil
}

// goTo asks the controller for page and reports whether it switched.
func (m *AppModel) goTo(page session.Page) bool {
	err := m.controller.Navigate(page)
	m.sync()
	if err != nil {
		if !errors.Is(err, session.ErrNavigationDenied) {
			m.log.Warn().Err(err).Str("page", string(page)).Msg("navigation failed")
		}
		return false
	}
	m.Error = ""
	return true
}

func (m *AppModel) loginField() *string {
	if m.Login.Focus == 1 {
		return &m.Login.Password
	}
	return &m.Login.Username
}

func (m *AppModel) registerField() *string {
	switch m.Register.Focus {
	case 1:
		return &m.Register.Email
	case 2:
		return &m.Register.Password
	case 3:
		return &m.Register.ConfirmPassword
	default:
		return &m.Register.Username
	}
}

// editField applies the shared text editing keys to a form field.
func editField(field *string, msg tea.KeyMsg) {
	switch msg.String() {
	case "ctrl+v":
		// Paste from clipboard
		text, err := clipboard.ReadAll()
		if err == nil && text != "" {
			text = strings.ReplaceAll(text, "\n", "")
			text = strings.ReplaceAll(text, "\r", "")
			*field += strings.TrimSpace(text)
		}

	case "backspace":
		if r := []rune(*field); len(r) > 0 {
			*field = string(r[:len(r)-1])
		}

	case "ctrl+a":
		*field = ""

	default:
		if msg.Type == tea.KeyRunes {
			*field += string(msg.Runes)
		} else if msg.Type == tea.KeySpace {
			*field += " "
		}
	}
}
