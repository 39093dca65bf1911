package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	appHTTP "github.com/cmlabs-hris/hris-portal-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-portal-go/internal/repository/memory"
	"github.com/cmlabs-hris/hris-portal-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hris-portal-go/internal/service/attendance"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// GatewayOptions holds the flags of the reference attendance gateway.
type GatewayOptions struct {
	*RootOptions

	// Listener overrides the address from APP_PORT. Used by tests.
	Listener net.Listener
	// Ready is closed once the server accepts connections.
	Ready chan struct{}
}

// NewGatewayCommand creates the root command of the reference gateway server.
func NewGatewayCommand(opts *GatewayOptions) *cobra.Command {
	if opts == nil {
		opts = &GatewayOptions{}
	}
	if opts.RootOptions == nil {
		opts.RootOptions = &RootOptions{}
	}

	cmd := &cobra.Command{
		Use:           "gateway",
		Short:         "Reference attendance gateway",
		Long:          "Serves the four attendance endpoints the portal talks to, for local development and end-to-end tests.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.prepare(cmd)
		},
	}
	opts.bindFlags(cmd)

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newTokenCommand(opts))

	return cmd
}

func newServeCommand(opts *GatewayOptions) *cobra.Command {
	var inMemory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the attendance HTTP API",
		Long: `Run the attendance HTTP API.

By default punches are stored in PostgreSQL (DB_* settings) and the schema is
migrated on start. --memory keeps everything in process memory instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts, inMemory)
		},
	}
	cmd.Flags().BoolVar(&inMemory, "memory", false, "store punches in memory instead of PostgreSQL")

	return cmd
}

func runServe(ctx context.Context, opts *GatewayOptions, inMemory bool) error {
	cfg := opts.Config
	logger := opts.Logger

	validate := cfg.ValidateServer
	if inMemory {
		validate = cfg.ValidateJWT
	}
	if err := validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}

	var (
		transact attendanceService.Transactor
		punches  attendance.PunchRepository
		breaks   attendance.BreakRepository
	)
	if inMemory {
		store := memory.NewStore()
		transact, punches, breaks = store.Transact, store.Punches(), store.Breaks()
		logger.Warn("Using in-memory storage, punches are lost on exit")
	} else {
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to connect to database", err)
		}
		defer db.Close()

		if err := postgresql.Migrate(ctx, db); err != nil {
			return WrapExitError(ExitCommandError, "failed to migrate database", err)
		}
		transact = postgresql.Transactor(db)
		punches, breaks = postgresql.NewPunchRepository(db), postgresql.NewBreakRepository(db)
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	svc := attendanceService.NewAttendanceService(transact, punches, breaks, attendanceService.WithLogger(logger))
	router := appHTTP.NewRouter(cfg.App, JWTService, appHTTP.NewAttendanceHandler(svc))

	listener := opts.Listener
	if listener == nil {
		var err error
		listener, err = net.Listen("tcp", fmt.Sprintf(":%d", cfg.App.Port))
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to listen", err)
		}
	}

	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	logger.Info("Attendance gateway listening", "addr", listener.Addr().String(), "env", cfg.App.Env)
	if opts.Ready != nil {
		close(opts.Ready)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitFailure, "server stopped", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down attendance gateway")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "graceful shutdown failed", err)
	}
	return nil
}

func newTokenCommand(opts *GatewayOptions) *cobra.Command {
	var userID, email, employeeID, companyID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Config.ValidateJWT(); err != nil {
				return WrapExitError(ExitCommandError, "invalid config", err)
			}
			if userID == "" {
				userID = employeeID
			}

			JWTService := jwt.NewJWTService(opts.Config.JWT.Secret, opts.Config.JWT.AccessExpiration)
			token, expiresAt, err := JWTService.GenerateAccessToken(userID, email, employeeID, companyID)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to generate token", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			opts.Logger.Info("Access token issued", "employee_id", employeeID, "expires_at", time.Unix(expiresAt, 0))
			return nil
		},
	}
	cmd.Flags().StringVar(&employeeID, "employee", "", "employee id (required)")
	cmd.Flags().StringVar(&companyID, "company", "", "company id (required)")
	cmd.Flags().StringVar(&userID, "user", "", "user id (defaults to the employee id)")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	_ = cmd.MarkFlagRequired("employee")
	_ = cmd.MarkFlagRequired("company")

	return cmd
}
