package models

import (
	"fmt"
	"strings"

	"cryptoalert/session"
	"cryptoalert/ui"
)

var tabPages = []session.Page{session.PageDashboard, session.PagePortfolio, session.PageBots}

// View routes on the session page. A panic in a page renders the crash
// screen instead of tearing down the terminal.
func (m *AppModel) View() (out string) {
	if m.crashed != "" {
		return m.crashView()
	}

	defer func() {
		if r := recover(); r != nil {
			m.crashed = fmt.Sprint(r)
			m.log.Error().Str("panic", m.crashed).Str("page", string(m.Session.Page)).Msg("view crashed")
			out = m.crashView()
		}
	}()

	if m.Session.Phase == session.PhaseValidating {
		return m.validatingView()
	}

	switch m.Session.Page {
	case session.PageRegister:
		return m.registerView()
	case session.PageDashboard:
		return m.dashboardView()
	case session.PagePortfolio:
		return m.portfolioView()
	case session.PageBots:
		return m.botsView()
	default:
		return m.loginView()
	}
}

func (m *AppModel) errorLine() string {
	if m.Error == "" {
		return ""
	}
	return ui.NegativeStyle.Render("❌ "+m.Error) + "\n\n"
}

func (m *AppModel) validatingView() string {
	title := ui.TitleStyle.Render("🔔 CRYPTO ALERT")
	body := ui.LoadingStyle.Render("🔄 Verificando sessão...")
	return fmt.Sprintf("%s\n%s", title, ui.PanelStyle.Render(body))
}

func (m *AppModel) loginView() string {
	title := ui.HeaderStyle.Render("🔐 ENTRAR")

	var content strings.Builder
	content.WriteString(m.errorLine())

	if m.Loading {
		content.WriteString(ui.LoadingStyle.Render("🔄 Entrando..."))
	} else {
		content.WriteString(ui.Input("Usuário", m.Login.Username, m.Login.Focus == 0, false) + "\n\n")
		content.WriteString(ui.Input("Senha", m.Login.Password, m.Login.Focus == 1, true) + "\n")
	}

	footer := ui.InfoStyle.Render("Tab: próximo campo • Enter: entrar • Ctrl+R: criar conta • Ctrl+C: sair")
	return fmt.Sprintf("%s\n%s\n%s", title, ui.PanelStyle.Render(content.String()), footer)
}

func (m *AppModel) registerView() string {
	title := ui.HeaderStyle.Render("📝 CRIAR CONTA")

	var content strings.Builder
	content.WriteString(m.errorLine())

	if m.Loading {
		content.WriteString(ui.LoadingStyle.Render("🔄 Enviando cadastro..."))
	} else {
		f := m.Register
		content.WriteString(ui.Input("Usuário", f.Username, f.Focus == 0, false) + "\n\n")
		content.WriteString(ui.Input("Email", f.Email, f.Focus == 1, false) + "\n\n")
		content.WriteString(ui.Input("Senha", f.Password, f.Focus == 2, true) + "\n\n")
		content.WriteString(ui.Input("Confirmar senha", f.ConfirmPassword, f.Focus == 3, true) + "\n")
	}

	footer := ui.InfoStyle.Render("Tab: próximo campo • Enter: cadastrar • Esc: voltar ao login")
	return fmt.Sprintf("%s\n%s\n%s", title, ui.PanelStyle.Render(content.String()), footer)
}

func (m *AppModel) header() string {
	active := 0
	labels := []string{"1 Dashboard", "2 Portfólio", "3 Bots"}
	for i, p := range tabPages {
		if p == m.Session.Page {
			active = i
		}
	}
	user := ui.DisabledStyle.Render("👤 " + m.Session.Username())
	return fmt.Sprintf("%s  %s\n%s", ui.HeaderStyle.Render("🔔 CRYPTO ALERT"), user, ui.Tabs(labels, active))
}

func (m *AppModel) footer(keys string) string {
	return ui.InfoStyle.Render(keys + " • Ctrl+L: sair da conta • q: fechar")
}

func (m *AppModel) dashboardView() string {
	var content strings.Builder
	content.WriteString(m.errorLine())

	content.WriteString("📡 MONITORAMENTO\n")
	switch {
	case m.Monitoring.Busy:
		content.WriteString(ui.LoadingStyle.Render("🔄 Atualizando...") + "\n")
	case m.Monitoring.Err != "":
		content.WriteString(ui.NegativeStyle.Render(m.Monitoring.Err) + "\n")
	case !m.Monitoring.Known:
		content.WriteString(ui.DisabledStyle.Render("Status desconhecido") + "\n")
	case m.Monitoring.Active:
		content.WriteString(ui.PositiveStyle.Render("🟢 Ativo") + "\n")
	default:
		content.WriteString(ui.DisabledStyle.Render("⚪ Parado") + "\n")
	}
	content.WriteString("\n")

	content.WriteString("💹 MERCADO\n")
	if len(m.Prices.Assets) == 0 {
		content.WriteString(ui.LoadingStyle.Render("🔄 Carregando cotações..."))
	} else {
		content.WriteString(ui.TableHeaderStyle.Render(fmt.Sprintf("%-8s %-14s %16s %10s", "Ativo", "Nome", "Preço", "24h")) + "\n")
		content.WriteString(strings.Repeat("─", 52) + "\n")
		for _, a := range m.Prices.Assets {
			content.WriteString(fmt.Sprintf("%-8s %-14s %16s %10s\n",
				a.Symbol,
				a.Name,
				ui.FormatPrice(a.Price),
				ui.FormatPercentage(a.Change24h),
			))
		}
		if !m.Prices.At.IsZero() {
			content.WriteString("\n" + ui.DisabledStyle.Render("Atualizado às "+m.Prices.At.Format("15:04:05")))
		}
	}

	return fmt.Sprintf("%s\n%s\n%s", m.header(), ui.PanelStyle.Render(content.String()), m.footer("m: liga/desliga monitoramento"))
}

func (m *AppModel) portfolioView() string {
	var content strings.Builder
	content.WriteString(m.errorLine())

	switch {
	case m.Loading:
		content.WriteString(ui.LoadingStyle.Render("🔄 Carregando portfólio..."))
	case m.Portfolio == nil:
		content.WriteString(ui.DisabledStyle.Render("Portfólio indisponível. Pressione r para tentar de novo."))
	default:
		content.WriteString("💰 POSIÇÕES\n")
		if len(m.Portfolio.Holdings) == 0 {
			content.WriteString(ui.DisabledStyle.Render("Nenhuma posição") + "\n")
		} else {
			content.WriteString(ui.TableHeaderStyle.Render(fmt.Sprintf("%-8s %14s %16s", "Ativo", "Quantidade", "Preço médio")) + "\n")
			for _, h := range m.Portfolio.Holdings {
				content.WriteString(fmt.Sprintf("%-8s %14.6f %16s\n", h.Symbol, h.Quantity, ui.FormatPrice(h.AvgPrice)))
			}
		}

		content.WriteString("\n📋 TRANSAÇÕES\n")
		if len(m.Portfolio.Transactions) == 0 {
			content.WriteString(ui.DisabledStyle.Render("Nenhuma transação") + "\n")
		} else {
			content.WriteString(ui.TableHeaderStyle.Render(fmt.Sprintf("%-20s %-6s %-8s %14s %16s", "Data", "Tipo", "Ativo", "Quantidade", "Preço")) + "\n")
			for _, t := range m.Portfolio.Transactions {
				content.WriteString(fmt.Sprintf("%-20s %-6s %-8s %14.6f %16s\n",
					t.CreatedAt, strings.ToUpper(t.Type), t.Symbol, t.Quantity, ui.FormatPrice(t.Price)))
			}
		}
	}

	return fmt.Sprintf("%s\n%s\n%s", m.header(), ui.PanelStyle.Render(content.String()), m.footer("r: atualizar"))
}

func (m *AppModel) botsView() string {
	var content strings.Builder
	content.WriteString("🤖 BOTS\n")
	content.WriteString(ui.TableHeaderStyle.Render(fmt.Sprintf("%-14s %-10s %-8s %12s", "Nome", "Par", "Status", "PnL")) + "\n")
	for _, b := range m.Bots {
		status := ui.DisabledStyle.Render(b.Status)
		if b.Status == "running" {
			status = ui.PositiveStyle.Render(b.Status)
		}
		content.WriteString(fmt.Sprintf("%-14s %-10s %-8s %12s\n", b.Name, b.Pair, status, ui.FormatCurrency(b.PnL)))
	}
	return fmt.Sprintf("%s\n%s\n%s", m.header(), ui.PanelStyle.Render(content.String()), m.footer("1-3: navegar"))
}

func (m *AppModel) crashView() string {
	title := ui.NegativeStyle.Render("💥 Algo deu errado")
	body := fmt.Sprintf("%s\n\n%s", ui.DisabledStyle.Render(m.crashed), "Pressione r para tentar de novo ou Ctrl+C para sair.")
	return fmt.Sprintf("%s\n%s", title, ui.PanelStyle.Render(body))
}
