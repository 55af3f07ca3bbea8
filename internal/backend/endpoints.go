package backend

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"talento/internal/domain"
	"talento/internal/models"
)

const reportCachePrefix = "talento:summary_report:"

var _ domain.Backend = (*Client)(nil)

// Login exchanges credentials for a session. It is the only unauthenticated call.
func (c *Client) Login(ctx context.Context, email, password string) (*models.Session, error) {
	body := map[string]string{"email": email, "password": password}
	var resp struct {
		User  *models.User `json:"user"`
		Token string       `json:"token"`
	}
	if err := c.call(ctx, "login", http.MethodPost, "/login", body, &resp, false); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("login: %w", ErrUnauthenticated)
	}
	return &models.Session{User: resp.User, Token: resp.Token}, nil
}

func (c *Client) ListApplications(ctx context.Context) ([]models.Application, error) {
	var raw json.RawMessage
	if err := c.call(ctx, "applications.list", http.MethodGet, "/getApplicants", nil, &raw, true); err != nil {
		return nil, err
	}
	var apps []models.Application
	if err := decodeList(raw, "data", &apps); err != nil {
		return nil, fmt.Errorf("decode applications: %w", err)
	}
	return apps, nil
}

func (c *Client) ApproveApplication(ctx context.Context, id int64) error {
	return c.call(ctx, "applications.approve", http.MethodPut, fmt.Sprintf("/applications/%d/approve", id), struct{}{}, nil, true)
}

func (c *Client) RejectApplication(ctx context.Context, id int64) error {
	return c.call(ctx, "applications.reject", http.MethodPut, fmt.Sprintf("/applications/%d/reject", id), struct{}{}, nil, true)
}

func (c *Client) GetPortfolio(ctx context.Context, userID int64) (*models.Portfolio, error) {
	var resp struct {
		Portfolio *models.Portfolio `json:"portfolio"`
	}
	if err := c.call(ctx, "performers.portfolio", http.MethodGet, fmt.Sprintf("/performers/%d/portfolio", userID), nil, &resp, true); err != nil {
		return nil, err
	}
	if resp.Portfolio == nil {
		return nil, fmt.Errorf("performer %d has no portfolio", userID)
	}
	return resp.Portfolio, nil
}

func (c *Client) ListPendingBookings(ctx context.Context, performerID int64) ([]models.Booking, error) {
	return c.listBookings(ctx, "bookings.pending", fmt.Sprintf("/performers/%d/bookings", performerID), "data")
}

func (c *Client) ListAcceptedBookings(ctx context.Context, performerID int64) ([]models.Booking, error) {
	return c.listBookings(ctx, "bookings.accepted", fmt.Sprintf("/performers/%d/accepted-bookings", performerID), "acceptedBookings")
}

func (c *Client) ListDeclinedBookings(ctx context.Context, performerID int64) ([]models.Booking, error) {
	return c.listBookings(ctx, "bookings.declined", fmt.Sprintf("/performers/%d/declined-bookings", performerID), "declinedBookings")
}

func (c *Client) listBookings(ctx context.Context, endpoint, path, field string) ([]models.Booking, error) {
	var raw json.RawMessage
	if err := c.call(ctx, endpoint, http.MethodGet, path, nil, &raw, true); err != nil {
		return nil, err
	}
	var bookings []models.Booking
	if err := decodeList(raw, field, &bookings); err != nil {
		return nil, fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return bookings, nil
}

func (c *Client) AcceptBooking(ctx context.Context, id int64) error {
	return c.call(ctx, "bookings.accept", http.MethodPut, fmt.Sprintf("/bookings/%d/accept", id), struct{}{}, nil, true)
}

func (c *Client) DeclineBooking(ctx context.Context, id int64) error {
	return c.call(ctx, "bookings.decline", http.MethodPut, fmt.Sprintf("/bookings/%d/decline", id), struct{}{}, nil, true)
}

func (c *Client) ListUnavailableDates(ctx context.Context, performerID int64) ([]time.Time, error) {
	var resp struct {
		UnavailableDates []json.RawMessage `json:"unavailableDates"`
	}
	path := fmt.Sprintf("/performers/%d/unavailable-dates", performerID)
	if err := c.call(ctx, "performers.unavailable_dates", http.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}

	loc := c.location()
	dates := make([]time.Time, 0, len(resp.UnavailableDates))
	for _, item := range resp.UnavailableDates {
		var value string
		if err := json.Unmarshal(item, &value); err != nil {
			// some deployments return {"date": "..."} rows
			var row struct {
				Date string `json:"date"`
			}
			if err := json.Unmarshal(item, &row); err != nil {
				continue
			}
			value = row.Date
		}
		if t, ok := models.ParseTimestamp(value, loc); ok {
			dates = append(dates, t)
		} else {
			c.logger.Debug().Str("value", value).Msg("Skipping unparseable unavailable date")
		}
	}
	return dates, nil
}

func (c *Client) AddUnavailableDates(ctx context.Context, performerID int64, dates []time.Time) error {
	loc := c.location()
	days := make([]string, 0, len(dates))
	for _, d := range dates {
		days = append(days, d.In(loc).Format(models.DateLayout))
	}
	body := struct {
		PerformerID      int64    `json:"performer_id"`
		UnavailableDates []string `json:"unavailableDates"`
	}{PerformerID: performerID, UnavailableDates: days}
	return c.call(ctx, "unavailable_dates.create", http.MethodPost, "/unavailable-dates", body, nil, true)
}

func (c *Client) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	var raw json.RawMessage
	if err := c.call(ctx, "transactions.list", http.MethodGet, "/performer-trans", nil, &raw, true); err != nil {
		return nil, err
	}
	var txs []models.Transaction
	if err := decodeList(raw, "data", &txs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	return txs, nil
}

// reportCacheKey scopes cached reports to the bearer token that fetched them.
func reportCacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return reportCachePrefix + hex.EncodeToString(sum[:16])
}

// SummaryReport fetches the pre-aggregated admin report. A 200 response must
// also carry status "success".
func (c *Client) SummaryReport(ctx context.Context) (*models.SummaryReport, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil || token == "" {
		return nil, ErrUnauthenticated
	}
	key := reportCacheKey(token)

	var cached models.SummaryReport
	if c.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	var resp struct {
		Status string                `json:"status"`
		Data   *models.SummaryReport `json:"data"`
	}
	if err := c.call(ctx, "admin.summary_report", http.MethodGet, "/admin/summary-report", nil, &resp, true); err != nil {
		return nil, err
	}
	if resp.Status != "success" || resp.Data == nil {
		return nil, ErrReportFailed
	}
	c.writeCache(ctx, key, resp.Data)
	return resp.Data, nil
}

// decodeList accepts either a bare JSON array or an object wrapping it under field.
func decodeList(raw json.RawMessage, field string, out any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return err
	}
	inner, ok := wrapper[field]
	if !ok || bytes.Equal(bytes.TrimSpace(inner), []byte("null")) {
		return nil
	}
	return json.Unmarshal(inner, out)
}
