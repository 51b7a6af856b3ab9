package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"balancete/internal/config"
	"balancete/internal/core"
	"balancete/internal/log"
	"balancete/internal/services"
	"balancete/internal/session"
	"balancete/internal/storage"
)

func init() {
	color.NoColor = true
}

// harness runs commands against one shared store and session file, the way
// consecutive invocations of the binary would.
type harness struct {
	t       *testing.T
	backend *storage.MemoryBackend
	cfg     *config.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.Defaults()
	cfg.DataBackend = "memory"
	cfg.SessionFile = filepath.Join(t.TempDir(), "session.json")
	cfg.BcryptCost = bcrypt.MinCost
	cfg.AdminEmail = "admin@balancete.local"
	cfg.AdminPassword = "admin-pass"
	return &harness{t: t, backend: storage.NewMemoryBackend(), cfg: cfg}
}

func (h *harness) open(ctx context.Context) (*App, error) {
	app := newApp(h.cfg, log.Discard(), storage.NewStore(h.backend),
		session.NewFileStorage(h.cfg.SessionFile, time.Hour))
	if _, err := app.Auth.BootstrapAdmin(ctx, h.cfg.AdminEmail, h.cfg.AdminPassword); err != nil {
		return nil, err
	}
	return app, nil
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	return h.runWithInput("", args...)
}

func (h *harness) runWithInput(input string, args ...string) (string, error) {
	h.t.Helper()
	root, closeApp := NewRootCommand(h.open)
	var out bytes.Buffer
	root.SetIn(strings.NewReader(input))
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	require.NoError(h.t, closeApp())
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "balancete %s", strings.Join(args, " "))
	return out
}

func TestCLI_Scenario(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("register", "-e", "a@b.com", "-p", "pass1")
	assert.Contains(t, out, "a@b.com (user 1)")

	out = h.mustRun("whoami")
	assert.Contains(t, out, "a@b.com")

	out = h.mustRun("condo", "add", "Edificio A")
	assert.Contains(t, out, "Created condominium 1")

	h.mustRun("movement", "add", "-c", "1", "-k", "income", "--category", "Aluguel",
		"-d", "rent", "-a", "1500.00", "--date", "2024-03-05")
	h.mustRun("movement", "add", "-c", "1", "-k", "expense", "--category", "Água",
		"-d", "water bill", "-a", "120,50", "--date", "2024-03-10")

	out = h.mustRun("stats", "-c", "1")
	assert.Contains(t, out, "R$1.500,00")
	assert.Contains(t, out, "R$120,50")
	assert.Contains(t, out, "R$1.379,50")
	assert.Contains(t, out, "Movements:  2")

	out = h.mustRun("stats", "-c", "1", "-m", "4")
	assert.Contains(t, out, "Movements:  0")

	out = h.mustRun("movement", "list", "-c", "1")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "10/03/2024")
	assert.Contains(t, lines[2], "05/03/2024")

	out = h.mustRun("periods", "-c", "1")
	assert.Equal(t, "03/2024\n", out)

	out = h.mustRun("stats", "-c", "1", "--by-category")
	assert.Contains(t, out, "Aluguel")

	h.mustRun("logout")
	_, err := h.run("whoami")
	assert.ErrorIs(t, err, services.ErrNotLoggedIn)
}

func TestCLI_AdminAndVisibility(t *testing.T) {
	h := newHarness(t)

	h.mustRun("register", "-e", "ana@example.com", "-p", "pass1")
	h.mustRun("condo", "add", "Sol")
	h.mustRun("register", "-e", "bia@example.com", "-p", "pass1")
	h.mustRun("condo", "add", "Lua")

	out := h.mustRun("condo", "list")
	assert.Contains(t, out, "Lua")
	assert.NotContains(t, out, "Sol")

	_, err := h.run("stats", "-c", "1")
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = h.run("login", "-e", "admin@balancete.local", "-p", "wrong")
	assert.ErrorIs(t, err, core.ErrAuthFailed)

	out = h.mustRun("login", "-e", "ADMIN@balancete.local", "-p", "admin-pass")
	assert.Contains(t, out, "administrator")

	out = h.mustRun("condo", "list")
	assert.Contains(t, out, "Sol")
	assert.Contains(t, out, "Lua")

	out = h.mustRun("overview")
	assert.Contains(t, out, "Sol")
	assert.Contains(t, out, "Lua")

	_, err = h.run("condo", "add", "Admin's")
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestCLI_Categories(t *testing.T) {
	h := newHarness(t)
	h.mustRun("register", "-e", "ana@example.com", "-p", "pass1")

	out := h.mustRun("category", "add", "Jardinagem")
	assert.Contains(t, out, "Added category Jardinagem")

	out = h.mustRun("category", "add", "Jardinagem")
	assert.Contains(t, out, "already exists")

	out = h.mustRun("category", "list")
	assert.Contains(t, out, "Água\n")
	assert.True(t, strings.HasSuffix(out, "Jardinagem\n"))
}

func TestCLI_Errors(t *testing.T) {
	h := newHarness(t)
	h.mustRun("register", "-e", "ana@example.com", "-p", "pass1")

	_, err := h.run("register", "-e", "ANA@example.com", "-p", "pass1")
	assert.ErrorIs(t, err, core.ErrEmailTaken)
	assert.Equal(t, "this email is already registered", describeError(err))

	_, err = h.run("condo", "rm", "abc")
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = h.run("condo", "rm", "99")
	assert.Equal(t, "condominium not found", describeError(err))

	h.mustRun("condo", "add", "Sol")
	_, err = h.run("movement", "add", "-c", "1", "-k", "gift", "--category", "x", "-d", "y", "-a", "1")
	assert.Equal(t, `kind must be "income" or "expense"`, describeError(err))

	_, err = h.run("movement", "add", "-c", "1", "-k", "income", "--category", "x", "-d", "y", "-a", "1", "--date", "2024-13-01")
	assert.Equal(t, "invalid date, use the YYYY-MM-DD format", describeError(err))

	var buf bytes.Buffer
	printError(&buf, core.ErrAuthFailed)
	assert.Equal(t, "error: invalid email or password\n", buf.String())
}

func TestCLI_Shell(t *testing.T) {
	h := newHarness(t)
	h.mustRun("register", "-e", "ana@example.com", "-p", "pass1")

	input := strings.Join([]string{
		"whoami",
		`condo add "Edificio Sol"`,
		"",
		"logout",
		"whoami",
		"shell",
		`condo add "broken`,
		"exit",
		"whoami",
	}, "\n")
	out, err := h.runWithInput(input, "shell")
	require.NoError(t, err)

	assert.Contains(t, out, "ana@example.com (user 1)")
	assert.Contains(t, out, "Created condominium 1: Edificio Sol")
	assert.Contains(t, out, "Logged out")
	assert.Contains(t, out, "error: not logged in")
	assert.Contains(t, out, "Already in a shell")
	assert.Contains(t, out, "error: unterminated quote")
	assert.Equal(t, 1, strings.Count(out, "ana@example.com"), "commands after exit must not run")

	// Logging out inside the shell leaves the saved session alone.
	out = h.mustRun("whoami")
	assert.Contains(t, out, "ana@example.com")
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"condo list", []string{"condo", "list"}},
		{`condo add "Edificio Sol"`, []string{"condo", "add", "Edificio Sol"}},
		{`category add 'Água e esgoto'`, []string{"category", "add", "Água e esgoto"}},
		{`movement add -d rent\ march`, []string{"movement", "add", "-d", "rent march"}},
		{`condo add ""`, []string{"condo", "add", ""}},
		{"a\tb", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := splitArgs(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := splitArgs(`condo add "Sol`)
	assert.ErrorIs(t, err, errUnterminatedQuote)
	_, err = splitArgs(`condo add Sol\`)
	assert.ErrorIs(t, err, errUnterminatedQuote)
}
