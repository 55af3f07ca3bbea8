package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"talento/internal/export"
	"talento/internal/models"
	"talento/internal/session"
	"talento/internal/shell"
	"talento/internal/view"

	"github.com/spf13/cobra"
)

func (c *cli) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <email> <password>",
		Short: "Sign in and store the session for this profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := c.env.backend.Login(ctx, args[0], args[1])
			if err != nil {
				return errors.New(view.ErrorText(err, "Login failed. Please check your credentials."))
			}
			if err := c.env.sessions.Login(ctx, c.slot(), sess.User, sess.Token); err != nil {
				return err
			}
			c.env.out.Printf("%s\n", shell.Greeting(sess))
			return nil
		},
	}
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.shell.Logout(cmd.Context(), c.slot()); err != nil {
				return err
			}
			c.env.out.Printf("Logged out.\n")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, ok := c.env.sessions.Current(cmd.Context(), c.slot())
			if !ok {
				return errNotLoggedIn
			}
			exp, hasExp := session.TokenExpiry(sess.Token)
			c.env.out.Session(sess, exp, hasExp)
			return nil
		},
	}
}

func (c *cli) applicationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "applications",
		Aliases: []string{"apps"},
		Short:   "Performer applications",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.mountApplications(cmd)
			if err != nil {
				return err
			}
			defer v.Unmount()
			return c.env.out.Applications(v.Applications())
		},
	}

	transition := func(use, short string, approve bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				v, err := c.mountApplications(cmd)
				if err != nil {
					return err
				}
				defer v.Unmount()
				if approve {
					err = v.Approve(cmd.Context(), id)
				} else {
					err = v.Reject(cmd.Context(), id)
				}
				if err != nil {
					return errReported
				}
				return c.env.out.Applications(v.Applications())
			},
		}
	}

	cmd.AddCommand(list, transition("approve", "Approve an application", true), transition("reject", "Reject an application", false))
	return cmd
}

func (c *cli) mountApplications(cmd *cobra.Command) (*view.ApplicationsView, error) {
	if _, err := c.gate(cmd.Context(), shell.RouteApplications); err != nil {
		return nil, err
	}
	v := view.NewApplicationsView(c.env.backend, c.env.out, c.env.logger)
	if err := v.Mount(cmd.Context()); err != nil {
		v.Unmount()
		return nil, errReported
	}
	return v, nil
}

func parsePartition(name string) (models.Partition, error) {
	switch strings.ToLower(name) {
	case "", "pending":
		return models.PartitionPending, nil
	case "accepted":
		return models.PartitionAccepted, nil
	case "declined":
		return models.PartitionDeclined, nil
	}
	return 0, fmt.Errorf("unknown tab %q: use pending, accepted or declined", name)
}

func (c *cli) bookingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "Your booking requests",
	}

	var tab string
	var blocked bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List bookings in one tab",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePartition(tab)
			if err != nil {
				return err
			}
			v, err := c.mountBookings(cmd, false)
			if err != nil {
				return err
			}
			defer v.Unmount()
			if err := c.env.out.Bookings(v.List(p), emptyPartition(p)); err != nil {
				return err
			}
			if blocked {
				c.env.out.Unavailable(v.Unavailable())
			}
			return nil
		},
	}
	list.Flags().StringVar(&tab, "tab", "pending", "pending, accepted or declined")
	list.Flags().BoolVar(&blocked, "blocked", false, "also list blocked dates")

	respond := func(use, short string, accept bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				v, err := c.mountBookings(cmd, false)
				if err != nil {
					return err
				}
				defer v.Unmount()
				if accept {
					err = v.Accept(cmd.Context(), id)
				} else {
					err = v.Decline(cmd.Context(), id)
				}
				if err != nil {
					return errReported
				}
				return c.env.out.Bookings(v.Pending(), emptyPartition(models.PartitionPending))
			},
		}
	}

	blockDate := &cobra.Command{
		Use:   "block-date <YYYY-MM-DD>",
		Short: "Mark a day as unavailable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := time.ParseInLocation(models.DateLayout, args[0], c.env.loc)
			if err != nil {
				return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
			}
			v, err := c.mountBookings(cmd, false)
			if err != nil {
				return err
			}
			defer v.Unmount()
			if v.IsUnavailable(day) {
				c.env.out.Printf("%s is already blocked.\n", day.Format(models.DateLayout))
				return nil
			}
			v.SelectDay(day)
			return reported(v.ConfirmDay(cmd.Context()))
		},
	}

	cmd.AddCommand(list, respond("accept", "Accept a pending booking", true), respond("decline", "Decline a pending booking", false), blockDate)
	return cmd
}

func emptyPartition(p models.Partition) string {
	switch p {
	case models.PartitionAccepted:
		return view.EmptyAcceptedBookings
	case models.PartitionDeclined:
		return view.EmptyDeclinedBookings
	}
	return view.EmptyPendingBookings
}

func (c *cli) mountBookings(cmd *cobra.Command, live bool) (*view.BookingView, error) {
	sess, err := c.gate(cmd.Context(), shell.RouteBookings)
	if err != nil {
		return nil, err
	}
	user := models.User{}
	if sess.User != nil {
		user = *sess.User
	}
	sub := c.env.subscriber
	if !live {
		sub = nil
	}
	v := view.NewBookingView(c.env.backend, sub, c.env.out, user, c.env.loc, c.env.logger)
	if err := v.Mount(cmd.Context()); err != nil {
		v.Unmount()
		return nil, errReported
	}
	return v, nil
}

func (c *cli) manageBookingsCmd() *cobra.Command {
	var tab string
	cmd := &cobra.Command{
		Use:   "manage-bookings <performer id>",
		Short: "Review one performer's bookings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			performerID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := c.gate(cmd.Context(), shell.RouteManageBooking); err != nil {
				return err
			}
			v := view.NewManageBookingView(c.env.backend, c.env.out, c.env.logger)
			defer v.Unmount()
			if err := v.Mount(cmd.Context(), performerID); err != nil {
				return errReported
			}

			c.env.out.BookingMetrics(v.Metrics())
			switch strings.ToLower(tab) {
			case "history":
				return c.env.out.Bookings(v.History(), view.EmptyBookingHistory)
			case "rejected":
				return c.env.out.Bookings(v.Rejected(), view.EmptyRejectedBookings)
			default:
				return c.env.out.Bookings(v.Pending(), view.EmptyManagePending)
			}
		},
	}
	cmd.Flags().StringVar(&tab, "tab", "pending", "pending, history or rejected")
	return cmd
}

func (c *cli) transactionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transactions",
		Short: "List coin transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.gate(cmd.Context(), shell.RouteTransactions); err != nil {
				return err
			}
			v := view.NewTransactionsView(c.env.backend, c.env.out, c.env.logger)
			defer v.Unmount()
			if err := v.Mount(cmd.Context()); err != nil {
				return errReported
			}
			return c.env.out.Transactions(v.Transactions())
		},
	}
}

func (c *cli) reportCmd() *cobra.Command {
	var exportPath string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the summary report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.gate(cmd.Context(), shell.RouteReports); err != nil {
				return err
			}
			v := view.NewReportingView(c.env.backend, c.env.out, c.env.loc, c.env.logger)
			defer v.Unmount()
			if err := v.Mount(cmd.Context()); err != nil {
				return errReported
			}
			rep, ok := v.Report()
			if !ok {
				c.env.out.Error(view.EmptyReport)
				return errReported
			}
			if err := c.env.out.Report(rep, view.ChartWidthFull); err != nil {
				return err
			}
			if exportPath == "" {
				return nil
			}
			if !strings.HasSuffix(strings.ToLower(exportPath), ".xlsx") {
				exportPath += ".xlsx"
			}
			if err := export.WriteReport(rep, exportPath); err != nil {
				return err
			}
			c.env.out.Printf("Report exported to %s\n", filepath.Clean(exportPath))
			return nil
		},
	}
	cmd.Flags().StringVar(&exportPath, "export", "", "write the report to an .xlsx file")
	return cmd
}

// watchCmd keeps a live booking view mounted and reprints the pending list on every push.
func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow booking updates in real time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.mountBookings(cmd, true)
			if err != nil {
				return err
			}
			defer v.Unmount()

			v.OnChange(func() {
				c.env.out.Printf("\n%s\n", time.Now().In(c.env.loc).Format(models.TimestampLayout))
				if err := c.env.out.Bookings(v.Pending(), view.EmptyPendingBookings); err != nil {
					c.env.logger.Error().Err(err).Msg("Failed to print bookings")
				}
			})
			if err := c.env.out.Bookings(v.Pending(), view.EmptyPendingBookings); err != nil {
				return err
			}
			c.env.out.Printf("Watching for updates. Press Ctrl+C to stop.\n")
			<-cmd.Context().Done()
			return nil
		},
	}
}
