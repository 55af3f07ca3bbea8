package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEvent(t *testing.T) {
	for _, name := range []string{".BookingUpdated", `App\Events\BookingUpdated`, "BookingUpdated", " BookingUpdated "} {
		assert.Equal(t, "BookingUpdated", NormalizeEvent(name), name)
	}
	assert.Equal(t, "Other", NormalizeEvent(`App\Events\Other`))
}

func TestDecodeFrame(t *testing.T) {
	t.Run("Object", func(t *testing.T) {
		ev, err := decodeFrame("bookings", []byte(`{"event":"App\\Events\\BookingUpdated","data":{"booking":{"id":7}},"socket":null}`))
		require.NoError(t, err)
		assert.Equal(t, "bookings", ev.Channel)
		assert.Equal(t, "BookingUpdated", ev.Type)
		assert.JSONEq(t, `{"booking":{"id":7}}`, string(ev.Payload))
	})

	t.Run("DoubleEncoded", func(t *testing.T) {
		ev, err := decodeFrame("bookings", []byte(`{"event":"BookingUpdated","data":"{\"booking\":{\"id\":8}}"}`))
		require.NoError(t, err)
		assert.JSONEq(t, `{"booking":{"id":8}}`, string(ev.Payload))
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := decodeFrame("bookings", []byte(`not json`))
		assert.Error(t, err)
		_, err = decodeFrame("bookings", []byte(`{"data":{}}`))
		assert.Error(t, err)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		body, err := EncodeFrame(".BookingUpdated", map[string]any{"booking": map[string]int{"id": 1}})
		require.NoError(t, err)
		ev, err := decodeFrame("c", body)
		require.NoError(t, err)
		assert.Equal(t, "BookingUpdated", ev.Type)
	})
}

func TestRetryPolicyNextDelay(t *testing.T) {
	p := RetryPolicy{Base: 100, Cap: 350}
	assert.EqualValues(t, 100, p.NextDelay(0))
	assert.EqualValues(t, 100, p.NextDelay(1))
	assert.EqualValues(t, 200, p.NextDelay(2))
	assert.EqualValues(t, 350, p.NextDelay(3))
	assert.EqualValues(t, 350, p.NextDelay(40))

	assert.Equal(t, time.Second, RetryPolicy{}.NextDelay(1))
}
