// Package shell is the navigation frame around every view: route titles,
// the navigation list, the sidebar flag and the login gate.
package shell

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"talento/internal/domain"
	"talento/internal/models"

	"github.com/rs/zerolog"
)

const (
	RouteLogin             = "/login"
	RouteHome              = "/"
	RoutePosts             = "/ManagePost"
	RouteReports           = "/reports"
	RouteManageBooking     = "/ManageBooking"
	RouteCoinRequests      = "/CoinRequest"
	RouteFeedback          = "/Performers"
	RouteUsers             = "/users"
	RoutePendingPerformers = "/PendingPerformers"
	RouteBookings          = "/booking"
	RouteTransactions      = "/transactions"
	RouteApplications      = "/applications"
)

// DefaultTitle is shown for routes without an entry.
const DefaultTitle = "Talento Admin Dashboard"

var titles = map[string]string{
	RoutePosts:             "Admin Post",
	RouteReports:           "Reports",
	RouteManageBooking:     "Manage Bookings",
	RouteCoinRequests:      "Coin Requests",
	RouteFeedback:          "Manage Feedback",
	RouteUsers:             "Users",
	RoutePendingPerformers: "Manage Performer",
	RouteBookings:          "Booking Requests",
	RouteTransactions:      "Transactions",
	RouteApplications:      "Applications",
}

// Title looks the route up in the static table.
func Title(route string) string {
	if t, ok := titles[route]; ok {
		return t
	}
	return DefaultTitle
}

// NavItem is one entry of the side menu. Command is the bot/CLI alias.
type NavItem struct {
	Text    string
	Route   string
	Command string
}

var navigation = []NavItem{
	{Text: "Post", Route: RoutePosts, Command: "posts"},
	{Text: "Reporting", Route: RouteReports, Command: "reports"},
	{Text: "Bookings", Route: RouteManageBooking, Command: "bookings"},
	{Text: "TalentoCoins", Route: RouteCoinRequests, Command: "coins"},
	{Text: "Feedback", Route: RouteFeedback, Command: "feedback"},
	{Text: "Users", Route: RouteUsers, Command: "users"},
	{Text: "Performers", Route: RoutePendingPerformers, Command: "performers"},
	{Text: "Booking Requests", Route: RouteBookings, Command: "requests"},
	{Text: "Transactions", Route: RouteTransactions, Command: "transactions"},
	{Text: "Applications", Route: RouteApplications, Command: "applications"},
}

// Navigation returns the fixed menu.
func Navigation() []NavItem {
	return append([]NavItem(nil), navigation...)
}

// RouteForCommand resolves "/reports" or "reports" to a route.
func RouteForCommand(cmd string) (string, bool) {
	cmd = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(cmd)), "/")
	for _, item := range navigation {
		if item.Command == cmd {
			return item.Route, true
		}
	}
	return "", false
}

// Context is what a view receives from the frame.
type Context struct {
	Session     *models.Session
	Route       string
	Title       string
	SidebarOpen bool
	// Redirected is set when the gate sent an anonymous caller to login.
	Redirected bool
}

// Shell keeps per-slot frame state.
type Shell struct {
	sessions domain.SessionManager
	logger   zerolog.Logger

	mu      sync.Mutex
	sidebar map[string]bool
	routes  map[string]string
}

func New(sessions domain.SessionManager, logger *zerolog.Logger) *Shell {
	return &Shell{
		sessions: sessions,
		logger:   logger.With().Str("component", "shell").Logger(),
		sidebar:  make(map[string]bool),
		routes:   make(map[string]string),
	}
}

// Navigate gates route on the slot's session. Without a token the result
// points at the login route and no view may be mounted.
func (s *Shell) Navigate(ctx context.Context, slot, route string) Context {
	sess, ok := s.sessions.Current(ctx, slot)
	if !ok {
		s.logger.Debug().Str("slot", slot).Str("route", route).Msg("Redirecting to login")
		return Context{Route: RouteLogin, Title: "Login", Redirected: route != RouteLogin}
	}

	s.mu.Lock()
	s.routes[slot] = route
	open := s.sidebarLocked(slot)
	s.mu.Unlock()

	return Context{
		Session:     sess,
		Route:       route,
		Title:       Title(route),
		SidebarOpen: open,
	}
}

// CurrentRoute is the last route the slot navigated to.
func (s *Shell) CurrentRoute(slot string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.routes[slot]; ok {
		return r
	}
	return RouteHome
}

func (s *Shell) sidebarLocked(slot string) bool {
	open, ok := s.sidebar[slot]
	if !ok {
		return true
	}
	return open
}

// SidebarOpen defaults to open.
func (s *Shell) SidebarOpen(slot string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sidebarLocked(slot)
}

// ToggleSidebar flips the flag and returns the new value.
func (s *Shell) ToggleSidebar(slot string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	open := !s.sidebarLocked(slot)
	s.sidebar[slot] = open
	return open
}

// Logout clears the session and the persisted slot. The backend is not told.
func (s *Shell) Logout(ctx context.Context, slot string) error {
	s.mu.Lock()
	delete(s.routes, slot)
	s.mu.Unlock()
	return s.sessions.Logout(ctx, slot)
}

// Greeting is the sidebar header line.
func Greeting(sess *models.Session) string {
	role := ""
	if sess != nil && sess.User != nil {
		role = sess.User.Role
	}
	if role == "" {
		return fmt.Sprintf("Welcome %s!", sess.DisplayName())
	}
	return fmt.Sprintf("Welcome %s %s!", role, sess.DisplayName())
}
