package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"talento/internal/app"
	"talento/internal/console"
	"talento/internal/domain"
	"talento/internal/models"
	"talento/internal/realtime"
	"talento/internal/session"
	"talento/internal/shell"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// errReported marks a failure the printer has already shown.
var errReported = errors.New("reported")

var errNotLoggedIn = errors.New("not logged in; run: talentoctl login <email> <password>")

// env is everything a command needs once the runtime is up.
type env struct {
	sessions   domain.SessionManager
	backend    domain.Backend
	subscriber realtime.Subscriber
	out        *console.Printer
	loc        *time.Location
	logger     *zerolog.Logger
	exportDir  string
	close      func() error
}

type rootOptions struct {
	configPath string
	profile    string
}

type opener func(ctx context.Context, opts rootOptions, out io.Writer) (*env, error)

type cli struct {
	open  opener
	opts  rootOptions
	env   *env
	shell *shell.Shell
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "talentoctl",
		Short:         "Talento staff console",
		Long:          `Review applications, bookings, transactions and reports from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.open(cmd.Context(), c.opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			c.env = e
			c.shell = shell.New(e.sessions, e.logger)
			cmd.SetContext(session.WithSlot(cmd.Context(), c.slot()))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.opts.configPath, "config", "", "config file (default $CONFIG_PATH or configs/config.yaml)")
	root.PersistentFlags().StringVarP(&c.opts.profile, "profile", "p", "default", "session profile")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.applicationsCmd(),
		c.bookingsCmd(),
		c.manageBookingsCmd(),
		c.transactionsCmd(),
		c.reportCmd(),
		c.watchCmd(),
	)
	return root
}

func (c *cli) slot() string {
	return "cli:" + c.opts.profile
}

func (c *cli) close() error {
	if c.env == nil || c.env.close == nil {
		return nil
	}
	err := c.env.close()
	c.env = nil
	return err
}

// gate resolves the session for route the same way the bot does.
func (c *cli) gate(ctx context.Context, route string) (*models.Session, error) {
	frame := c.shell.Navigate(ctx, c.slot(), route)
	if frame.Session == nil {
		return nil, errNotLoggedIn
	}
	return frame.Session, nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id must be a positive number")
	}
	return id, nil
}

// reported hides errors the views already printed.
func reported(err error) error {
	if err != nil {
		return errReported
	}
	return nil
}

// openRuntime wires the real stores. A memory session store would forget the
// login between invocations, so the CLI falls back to a local SQLite file.
func openRuntime(ctx context.Context, opts rootOptions, out io.Writer) (*env, error) {
	cfg, err := app.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Session.Store == "memory" {
		cfg.Session.Store = "sqlite"
		if cfg.Session.SQLitePath == "" {
			dir, err := os.UserConfigDir()
			if err != nil {
				return nil, err
			}
			cfg.Session.SQLitePath = filepath.Join(dir, "talento", "sessions.db")
		}
	}
	if cfg.Session.Store == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(cfg.Session.SQLitePath), 0o700); err != nil {
			return nil, err
		}
	}
	switch cfg.Logging.Output {
	case "", "stdout":
		cfg.Logging.Output = "stderr"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "warn"
	}

	rt, err := app.New(ctx, cfg, "talentoctl")
	if err != nil {
		return nil, err
	}
	return &env{
		sessions:   rt.Sessions,
		backend:    rt.Backend,
		subscriber: rt.Hub,
		out:        console.NewPrinter(out, rt.Location),
		loc:        rt.Location,
		logger:     rt.Logger,
		exportDir:  cfg.Exports.Path,
		close:      rt.Close,
	}, nil
}
