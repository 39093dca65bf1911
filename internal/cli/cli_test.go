package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/config"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/location"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/sessionstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandPresence(t *testing.T) {
	tests := []struct {
		root     string
		commands []string
	}{
		{root: "portal", commands: []string{"status", "in", "out", "break", "resume", "watch", "login", "logout"}},
		{root: "gateway", commands: []string{"serve", "token"}},
	}

	for _, tt := range tests {
		cmd := NewPortalCommand(nil)
		if tt.root == "gateway" {
			cmd = NewGatewayCommand(nil)
		}
		assert.Equal(t, tt.root, cmd.Use)

		for _, name := range tt.commands {
			t.Run(tt.root+" "+name, func(t *testing.T) {
				sub, _, err := cmd.Find([]string{name})
				require.NoError(t, err)
				assert.Equal(t, name, sub.Name())
			})
		}
	}
}

func TestCommandFlags(t *testing.T) {
	portal := NewPortalCommand(nil)
	verbose := portal.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	login, _, err := portal.Find([]string{"login"})
	require.NoError(t, err)
	assert.NotNil(t, login.Flags().Lookup("token"))

	watch, _, err := portal.Find([]string{"watch"})
	require.NoError(t, err)
	assert.Equal(t, "5m0s", watch.Flags().Lookup("interval").DefValue)

	serve, _, err := NewGatewayCommand(nil).Find([]string{"serve"})
	require.NoError(t, err)
	assert.Equal(t, "false", serve.Flags().Lookup("memory").DefValue)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, ExitFailure, GetExitCode(io.EOF))
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{Secret: "test-secret", AccessExpiration: "1h"},
		App: config.AppConfig{Env: "test", LogLevel: "error", AllowedOrigins: []string{"*"}},
		Gateway: config.GatewayConfig{
			BaseURL: baseURL,
			Timeout: 5 * time.Second,
		},
		Portal: config.PortalConfig{
			Latitude:         -6.2,
			Longitude:        106.8,
			LocationName:     "Jakarta",
			ResyncInterval:   time.Minute,
			SessionStorePath: filepath.Join(t.TempDir(), "session.db"),
		},
	}
}

func quietRoot(cfg *config.Config) *RootOptions {
	return &RootOptions{
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// startGateway runs `gateway serve --memory` until the test ends.
func startGateway(t *testing.T) *config.Config {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	cfg := testConfig(t, "http://"+ln.Addr().String())

	opts := &GatewayOptions{RootOptions: quietRoot(cfg), Listener: ln, Ready: make(chan struct{})}
	cmd := NewGatewayCommand(opts)
	cmd.SetArgs([]string{"serve", "--memory"})
	cmd.SetOut(io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	select {
	case <-opts.Ready:
	case err := <-done:
		t.Fatalf("gateway stopped early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("gateway did not start")
	}

	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	return cfg
}

func run(t *testing.T, execute func(args ...string) (string, error), args ...string) string {
	t.Helper()
	out, err := execute(args...)
	require.NoError(t, err, out)
	return out
}

func TestEndToEnd_WorkDay(t *testing.T) {
	cfg := startGateway(t)

	token := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := NewGatewayCommand(&GatewayOptions{RootOptions: quietRoot(cfg)})
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}
	accessToken := strings.TrimSpace(run(t, token, "token", "--employee", "emp-1", "--company", "company-1", "--email", "emp-1@example.com"))
	require.NotEmpty(t, accessToken)

	store, err := sessionstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	opts := &PortalOptions{
		RootOptions: quietRoot(cfg),
		Store:       store,
		Locator:     location.NewStaticProvider(-6.2, 106.8),
		Namer:       location.FixedNamer("Jakarta"),
	}
	portal := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := NewPortalCommand(opts)
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	_, err = portal("status")
	assert.Equal(t, ExitCommandError, GetExitCode(err), "status needs a stored session")

	assert.Contains(t, run(t, portal, "login", "--token", accessToken), "Logged in as emp-1@example.com (employee emp-1)")

	out := run(t, portal, "status")
	assert.Contains(t, out, "Not checked in")
	assert.Contains(t, out, "Check In")

	out = run(t, portal, "in")
	assert.Contains(t, out, "Check-in recorded at")
	assert.Contains(t, out, "Start Break, Check Out")

	_, err = portal("in")
	assert.Equal(t, ExitFailure, GetExitCode(err), "a second check-in is refused locally")

	assert.Contains(t, run(t, portal, "break"), "Break started at")

	_, err = portal("out")
	assert.Equal(t, ExitFailure, GetExitCode(err), "no check-out while on break")

	out = run(t, portal, "resume")
	assert.Contains(t, out, "Break ended at")
	assert.Contains(t, out, "Working")

	out = run(t, portal, "out")
	assert.Contains(t, out, "Check-out recorded at")
	assert.Contains(t, out, "Done for today")

	assert.Contains(t, run(t, portal, "status"), "Done for today")

	assert.Contains(t, run(t, portal, "logout"), "Logged out")
	_, err = portal("status")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestLogin_RejectsGarbageToken(t *testing.T) {
	store, err := sessionstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cmd := NewPortalCommand(&PortalOptions{RootOptions: quietRoot(testConfig(t, "http://127.0.0.1:1")), Store: store})
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"login", "--token", "not-a-jwt"})
	err = cmd.Execute()
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestStatus_GatewayUnreachable(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	accessToken, _, err := jwtForTest(cfg)
	require.NoError(t, err)

	store, err := sessionstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	opts := &PortalOptions{RootOptions: quietRoot(cfg), Store: store}
	var out bytes.Buffer
	for _, args := range [][]string{{"login", "--token", accessToken}, {"status"}} {
		cmd := NewPortalCommand(opts)
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		err = cmd.Execute()
	}

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out.String(), "Could not reach the attendance server")
}

func jwtForTest(cfg *config.Config) (string, int64, error) {
	return jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration).GenerateAccessToken("user-1", "user@example.com", "emp-1", "company-1")
}
