package realtime

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"talento/internal/events"
)

// frame is the envelope Laravel's redis broadcaster publishes.
type frame struct {
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
	Socket string          `json:"socket,omitempty"`
}

// NormalizeEvent maps ".BookingUpdated", "App\Events\BookingUpdated" and
// "BookingUpdated" to the same name.
func NormalizeEvent(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, `\`); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimPrefix(name, ".")
}

func decodeFrame(channel string, body []byte) (events.Event, error) {
	var f frame
	if err := json.Unmarshal(body, &f); err != nil {
		return events.Event{}, fmt.Errorf("decode frame: %w", err)
	}
	if f.Event == "" {
		return events.Event{}, errors.New("frame has no event name")
	}

	payload := bytes.TrimSpace(f.Data)
	// some broadcasters double-encode data as a JSON string
	if len(payload) > 0 && payload[0] == '"' {
		var inner string
		if err := json.Unmarshal(payload, &inner); err != nil {
			return events.Event{}, fmt.Errorf("decode frame data: %w", err)
		}
		payload = []byte(inner)
	}

	return events.Event{
		Channel: channel,
		Type:    NormalizeEvent(f.Event),
		Payload: payload,
	}, nil
}

// EncodeFrame builds a broadcaster envelope. Used by publishers and tests.
func EncodeFrame(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(frame{Event: event, Data: raw})
}
