package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-portal-go/internal/gateway/rest"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/location"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/sessionstore"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/timer"
	"github.com/cmlabs-hris/hris-portal-go/internal/service/tracker"
	"github.com/cmlabs-hris/hris-portal-go/internal/shell"
	"github.com/spf13/cobra"
)

const geocoderUserAgent = "hris-portal/1.0"

// PortalOptions holds the portal flags and the collaborators tests may
// replace. Nil collaborators are built from the configuration.
type PortalOptions struct {
	*RootOptions

	Gateway      attendance.Gateway
	Store        sessionstore.Store
	Locator      attendance.LocationProvider
	Namer        attendance.LocationNamer
	Now          func() time.Time
	TimerOptions []timer.Option
}

// NewPortalCommand creates the root command of the employee portal CLI.
func NewPortalCommand(opts *PortalOptions) *cobra.Command {
	if opts == nil {
		opts = &PortalOptions{}
	}
	if opts.RootOptions == nil {
		opts.RootOptions = &RootOptions{}
	}

	cmd := &cobra.Command{
		Use:   "portal",
		Short: "Employee portal: attendance and break tracking",
		Long: `Track today's attendance against the HR platform.

The portal reconciles the work and break timers from the server records on
every invocation, so punches made elsewhere are always reflected.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.prepare(cmd)
		},
	}
	opts.bindFlags(cmd)

	cmd.AddCommand(newStatusCommand(opts))
	for _, name := range []string{"in", "out", "break", "resume"} {
		cmd.AddCommand(newActionCommand(opts, name))
	}
	cmd.AddCommand(newWatchCommand(opts))
	cmd.AddCommand(newLoginCommand(opts))
	cmd.AddCommand(newLogoutCommand(opts))

	return cmd
}

var actionShort = map[attendance.Action]string{
	attendance.ActionCheckIn:    "Check in for today",
	attendance.ActionCheckOut:   "Check out for today",
	attendance.ActionBreakStart: "Start a break",
	attendance.ActionBreakEnd:   "End the running break",
}

func newActionCommand(opts *PortalOptions, name string) *cobra.Command {
	action, _ := attendance.ParseAction(name)

	return &cobra.Command{
		Use:   name,
		Short: actionShort[action],
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, opts, action)
		},
	}
}

func runAction(cmd *cobra.Command, opts *PortalOptions, action attendance.Action) error {
	ctx := cmd.Context()
	tr, err := opts.newTracker()
	if err != nil {
		return err
	}
	defer tr.Close()

	if err := tr.Mount(ctx); err != nil {
		return NewExitError(ExitFailure, shell.ErrorText(err))
	}

	controller := tracker.NewController(tr, opts.Gateway, opts.Logger)
	res, err := controller.Submit(ctx, action)
	if err != nil {
		return NewExitError(ExitFailure, shell.ErrorText(err))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, shell.ResultText(res))
	fmt.Fprintln(out, shell.StatusTable(tr.Snapshot()))
	return nil
}

func newStatusCommand(opts *PortalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show today's attendance, timers and available actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := opts.newTracker()
			if err != nil {
				return err
			}
			defer tr.Close()

			mountErr := tr.Mount(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), shell.StatusTable(tr.Snapshot()))
			if mountErr != nil {
				return NewExitError(ExitFailure, shell.ErrorText(mountErr))
			}
			return nil
		},
	}
}

func newWatchCommand(opts *PortalOptions) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the live timers until interrupted",
		Long: `Follow the live work and break timers until interrupted.

The state is re-read from the server every --interval, so a punch made on
another device or the start of a new day shows up without restarting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			tr, err := opts.newTracker()
			if err != nil {
				return err
			}
			defer tr.Close()

			if err := tr.Mount(ctx); err != nil {
				opts.Logger.Warn("Initial attendance load failed, retrying on resync", "error", err)
			}

			if !cmd.Flags().Changed("interval") {
				interval = opts.Config.Portal.ResyncInterval
			}
			scheduler := cron.NewScheduler(opts.Logger)
			cron.NewResyncJobs(tr, interval, opts.Logger).RegisterJobs(scheduler)
			scheduler.Start(ctx)
			defer scheduler.Stop()

			return shell.Watch(ctx, cmd.OutOrStdout(), tr)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Minute, "how often to re-read the state from the server (0 disables)")

	return cmd
}

func newLoginCommand(opts *PortalOptions) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the access token used for every attendance call",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := jwt.SessionFromToken(token)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid token", err)
			}

			store, release, err := opts.openStore()
			if err != nil {
				return err
			}
			defer release()

			if err := store.Save(session); err != nil {
				return WrapExitError(ExitCommandError, "failed to save session", err)
			}

			who := session.Email
			if who == "" {
				who = session.UserID
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (employee %s)\n", who, session.EmployeeID)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "access token issued by the HR platform (required)")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}

func newLogoutCommand(opts *PortalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, release, err := opts.openStore()
			if err != nil {
				return err
			}
			defer release()

			if err := store.Clear(); err != nil {
				return WrapExitError(ExitCommandError, "failed to clear session", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

// openStore returns the session store and the function that releases it.
// An injected store is never closed here.
func (o *PortalOptions) openStore() (sessionstore.Store, func(), error) {
	if o.Store != nil {
		return o.Store, func() {}, nil
	}

	path := o.Config.Portal.SessionStorePath
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to create session store directory", err)
	}
	store, err := sessionstore.Open(path)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open session store", err)
	}
	return store, func() {
		if err := store.Close(); err != nil {
			o.Logger.Error("Failed to close session store", "error", err)
		}
	}, nil
}

func (o *PortalOptions) loadSession() (attendance.Session, error) {
	store, release, err := o.openStore()
	if err != nil {
		return attendance.Session{}, err
	}
	defer release()

	session, err := store.Load()
	if errors.Is(err, sessionstore.ErrNoSession) {
		return attendance.Session{}, NewExitError(ExitCommandError, "not logged in, run `portal login --token <token>` first")
	}
	if err != nil {
		return attendance.Session{}, WrapExitError(ExitCommandError, "failed to load session", err)
	}
	return session, nil
}

// newTracker loads the session and builds the tracker with the configured
// gateway and location sources.
func (o *PortalOptions) newTracker() (*tracker.Tracker, error) {
	session, err := o.loadSession()
	if err != nil {
		return nil, err
	}

	if o.Gateway == nil {
		client, err := rest.NewClient(o.Config.Gateway.BaseURL, o.Config.Gateway.Timeout, rest.WithLogger(o.Logger))
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid gateway configuration", err)
		}
		o.Gateway = client
	}

	locator := o.Locator
	if locator == nil {
		locator = location.NewStaticProvider(o.Config.Portal.Latitude, o.Config.Portal.Longitude)
	}
	namer := o.Namer
	if namer == nil {
		namer = o.configuredNamer()
	}

	trackerOpts := []tracker.Option{
		tracker.WithLogger(o.Logger),
		tracker.WithLocation(locator, namer),
	}
	if o.Now != nil {
		trackerOpts = append(trackerOpts, tracker.WithNow(o.Now))
	}
	if len(o.TimerOptions) > 0 {
		trackerOpts = append(trackerOpts, tracker.WithTimerOptions(o.TimerOptions...))
	}
	return tracker.NewTracker(o.Gateway, session, trackerOpts...), nil
}

func (o *PortalOptions) configuredNamer() attendance.LocationNamer {
	switch {
	case o.Config.Portal.LocationName != "":
		return location.FixedNamer(o.Config.Portal.LocationName)
	case o.Config.Portal.GeocoderURL != "":
		return location.NewGeocoder(o.Config.Portal.GeocoderURL, geocoderUserAgent, o.Config.Portal.GeocoderTimeout, o.Logger)
	}
	return location.FixedNamer(location.UnknownLocation)
}
