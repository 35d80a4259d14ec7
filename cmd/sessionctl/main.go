// Command sessionctl drives the session controller from a plain terminal.
// It shares the credential file with the TUI, so it can inspect or reset a
// stored session and exercise the backend without the interface in the way.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"cryptoalert/api"
	"cryptoalert/auth"
	"cryptoalert/config"
	"cryptoalert/feed"
	"cryptoalert/logger"
	"cryptoalert/session"
)

func main() {
	var (
		keep    = flag.Bool("keep-offline", false, "Keep the stored session when the backend is unreachable")
		verbose = flag.Bool("v", false, "Debug logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help || flag.NArg() == 0 {
		usage()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Printf("❌ Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	}
	log := logger.Init(logger.Options{Level: level, Pretty: true})

	client := api.NewClient(cfg.BaseURL(), cfg.RequestTimeout)
	opts := []session.Option{
		session.WithLogger(log),
		session.WithStrictLogin(cfg.StrictLogin),
		session.WithBaseContext(ctx),
	}
	if *keep {
		opts = append(opts, session.WithEvictPolicy(session.KeepOnUnreachable))
	}
	ctl := session.NewController(auth.NewStore(cfg.ConfigDir), session.NewHTTPValidator(client), client, opts...)
	transitions := ctl.Subscribe()

	err = run(ctx, flag.Arg(0), ctl, client, log)
	printTransitions(transitions)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
}

// printTransitions lists the snapshots the command produced. They are all
// buffered by the time the command returns.
func printTransitions(ch <-chan session.Session) {
	for {
		select {
		case s := <-ch:
			fmt.Printf("→ %s (%s)\n", s.Phase, s.Page)
		default:
			return
		}
	}
}

func usage() {
	fmt.Println("CryptoAlert session tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  sessionctl status     Restore and validate the stored session")
	fmt.Println("  sessionctl login      Log in and store the token")
	fmt.Println("  sessionctl register   Create an account")
	fmt.Println("  sessionctl logout     Remove the stored session")
	fmt.Println("  sessionctl prices     Print current prices")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
}

func run(ctx context.Context, cmd string, ctl *session.Controller, client *api.Client, log zerolog.Logger) error {
	switch cmd {
	case "status":
		if err := ctl.Restore(ctx); err != nil {
			return err
		}
		s := ctl.Session()
		printSession(s)
		if s.Phase == session.PhaseAuthenticated && !s.Demo() {
			user, err := client.WithToken(s.Token).Me(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("failed to fetch profile")
				return nil
			}
			fmt.Printf("Email: %s\n", user.Email)
		}
		return nil

	case "login":
		reader := bufio.NewReader(os.Stdin)
		username := prompt(reader, "Usuário: ")
		password := promptSecret("Senha: ")

		err := ctl.Login(ctx, username, password)
		var ve *session.ValidationError
		var ae *session.AuthError
		switch {
		case errors.As(err, &ve):
			return errors.New(ve.Message)
		case errors.As(err, &ae):
			return errors.New(session.MsgInvalidLogin)
		case err != nil:
			return err
		}
		printSession(ctl.Session())
		return nil

	case "register":
		reader := bufio.NewReader(os.Stdin)
		form := session.RegisterForm{
			Username: prompt(reader, "Usuário: "),
			Email:    prompt(reader, "Email: "),
		}
		form.Password = promptSecret("Senha: ")
		form.ConfirmPassword = promptSecret("Confirmar senha: ")

		err := ctl.Register(ctx, form)
		var ve *session.ValidationError
		if errors.As(err, &ve) {
			return errors.New(ve.Message)
		}
		if err != nil {
			return err
		}
		fmt.Println("✅ Cadastro enviado. Faça login para continuar.")
		return nil

	case "logout":
		if err := ctl.Logout(); err != nil {
			return err
		}
		fmt.Println("✅ Sessão removida")
		return nil

	case "prices":
		snap := feed.Fetch(ctx, client)
		if snap.Fallback {
			log.Warn().Err(snap.Err).Msg("showing default prices")
		}
		for _, a := range snap.Assets {
			fmt.Printf("%-6s %-12s %14.4f %+7.2f%%\n", a.Symbol, a.Name, a.Price, a.Change24h)
		}
		return nil

	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printSession(s session.Session) {
	fmt.Printf("Phase: %s\n", s.Phase)
	fmt.Printf("Page:  %s\n", s.Page)
	if s.Phase == session.PhaseAuthenticated {
		fmt.Printf("User:  %s\n", s.Username())
		fmt.Printf("Demo:  %v\n", s.Demo())
	}
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func promptSecret(label string) string {
	fmt.Print(label)
	b, _ := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	return string(b)
}
