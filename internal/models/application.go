package models

import "time"

// Application is a performer's request to join a client post.
type Application struct {
	ID              int64  `json:"id"`
	PerformerName   string `json:"performer_name"`
	PostsEvent      string `json:"posts_event"`
	PostsTheme      string `json:"posts_theme"`
	PerformerTalent string `json:"performer_talent"`
	RequestedOn     string `json:"requested_on"`
	Status          string `json:"status"`
}

// RequestedLabel formats RequestedOn as "Jan 02, 2006 3:04 PM" in loc.
func (a Application) RequestedLabel(loc *time.Location) string {
	t, ok := ParseTimestamp(a.RequestedOn, loc)
	if !ok {
		return a.RequestedOn
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(TimestampLayout)
}
