package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"balancete/internal/core"
	"balancete/internal/services"
)

// Opener builds the App a command runs against.
type Opener func(ctx context.Context) (*App, error)

// DefaultOpener reads .env, the config file and the environment.
func DefaultOpener(ctx context.Context) (*App, error) {
	LoadEnvFile()
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	return NewApp(ctx, cfg, SetupLogger(cfg))
}

// runtime lazily opens the App on the first command that needs it.
type runtime struct {
	open Opener
	app  *App
}

func (r *runtime) App(ctx context.Context) (*App, error) {
	if r.app != nil {
		return r.app, nil
	}
	app, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	r.app = app
	return app, nil
}

// Identity opens the App and restores the current session.
func (r *runtime) Identity(ctx context.Context) (*App, services.Identity, error) {
	app, err := r.App(ctx)
	if err != nil {
		return nil, services.Identity{}, err
	}
	who, err := app.Identity(ctx)
	if err != nil {
		return nil, services.Identity{}, err
	}
	return app, who, nil
}

func (r *runtime) Close() error {
	if r.app == nil {
		return nil
	}
	err := r.app.Close()
	r.app = nil
	return err
}

// NewRootCommand assembles the command tree. The returned close function
// releases the App once the command has run.
func NewRootCommand(open Opener) (*cobra.Command, func() error) {
	rt := &runtime{open: open}

	root := &cobra.Command{
		Use:   "balancete",
		Short: "Condominium bookkeeping",
		Long: `Keep the income and expenses of condominiums and report their
balance by period. Data is stored locally, in a JSON file or SQLite.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRegisterCommand(rt),
		newLoginCommand(rt),
		newLogoutCommand(rt),
		newWhoamiCommand(rt),
		newCondoCommand(rt),
		newMovementCommand(rt),
		newStatsCommand(rt),
		newPeriodsCommand(rt),
		newOverviewCommand(rt),
		newCategoryCommand(rt),
		newShellCommand(rt),
	)
	return root, rt.Close
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, closeApp := NewRootCommand(DefaultOpener)
	err := root.ExecuteContext(ctx)
	if cerr := closeApp(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		printError(root.ErrOrStderr(), err)
		return 1
	}
	return 0
}

func printError(w io.Writer, err error) {
	color.New(color.FgRed, color.Bold).Fprint(w, "error: ")
	fmt.Fprintln(w, describeError(err))
}

// describeError turns service errors into messages for the user.
func describeError(err error) string {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Reason
	case errors.Is(err, services.ErrNotLoggedIn):
		return "not logged in, run 'balancete login' first"
	case errors.Is(err, core.ErrAuthFailed):
		return "invalid email or password"
	case errors.Is(err, core.ErrEmailTaken):
		return "this email is already registered"
	case errors.Is(err, core.ErrForbidden):
		return "you are not allowed to do that"
	case errors.Is(err, core.ErrCondominiumNotFound):
		return "condominium not found"
	case errors.Is(err, core.ErrMovementNotFound):
		return "movement not found"
	case errors.Is(err, core.ErrPersistence):
		return "your changes could not be saved: " + err.Error()
	}
	return err.Error()
}
