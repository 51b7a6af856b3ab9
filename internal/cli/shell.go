package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"balancete/internal/cache"
	"balancete/internal/log"
	"balancete/internal/services"
	"balancete/internal/session"
)

const (
	shellMaxTabs       = 16
	shellSweepInterval = time.Minute
)

var errUnterminatedQuote = errors.New("unterminated quote")

// splitArgs splits a shell line into words. Single and double quotes group
// words; a backslash escapes the next character outside single quotes.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped, inWord = true, true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote, inWord = r, true
		case r == ' ' || r == '\t':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 || escaped {
		return nil, errUnterminatedQuote
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args, nil
}

// withSessions returns a view of the App that keeps its session in s and
// leaves the store open on Close.
func (a *App) withSessions(s session.Storage) *App {
	c := *a
	c.Sessions = services.NewSessions(a.Auth, s, a.Logger)
	c.cleanup = nil
	return &c
}

func newShellCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run commands interactively in a session of their own",
		Long: `Read commands from standard input and run them against one open store.
The shell keeps its own login, starting from the saved session if there is
one. Logging in or out inside the shell does not touch the saved session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := rt.App(ctx)
			if err != nil {
				return err
			}

			tabs := session.NewTabs(shellMaxTabs, app.Config.SessionTTL)
			sweeper := cache.NewManager(app.Logger)
			sweeper.Register(tabs.Cleaner())
			sweeper.StartCleanup(ctx, shellSweepInterval)
			defer sweeper.Stop()

			tab := tabs.Open()
			shell := app.withSessions(tab)
			if who, err := app.Identity(ctx); err == nil {
				if err := shell.Sessions.Adopt(ctx, who); err != nil {
					return err
				}
			}
			app.Logger.DebugContext(ctx, "Shell started", log.FieldSessionID, tab.ID())

			return runShell(ctx, cmd, shell)
		},
	}
}

func runShell(ctx context.Context, cmd *cobra.Command, shell *App) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	prompt := color.New(color.FgCyan).Sprint("balancete> ")
	open := func(context.Context) (*App, error) { return shell, nil }

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		args, err := splitArgs(scanner.Text())
		if err != nil {
			printError(errOut, err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "exit", "quit":
			return nil
		case "shell":
			fmt.Fprintln(out, "Already in a shell")
			continue
		}

		root, closeApp := NewRootCommand(open)
		root.SetIn(cmd.InOrStdin())
		root.SetOut(out)
		root.SetErr(errOut)
		root.SetArgs(args)
		err = root.ExecuteContext(ctx)
		if cerr := closeApp(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			printError(errOut, err)
		}
	}
}
