package webhook

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *Store) {
	t.Helper()

	st, err := Open(filepath.Join(t.TempDir(), "webhooks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	h := NewHandler(st, nil)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	server := httptest.NewServer(h.Routes())
	t.Cleanup(server.Close)

	return server, st
}

func post(t *testing.T, server *httptest.Server, body string) (int, map[string]any) {
	t.Helper()

	resp, err := http.Post(server.URL+"/webhooks/paypal", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

const captureEvent = `{"id":"WH-1","event_type":"PAYMENT.CAPTURE.COMPLETED","resource_type":"capture","summary":"Payment completed for $ 30.0 USD","create_time":"2024-01-15T10:00:00Z","resource":{"id":"5TY05013RG002845M"}}`

func TestReceivePayPalDeduplicates(t *testing.T) {
	server, st := newTestServer(t)

	status, out := post(t, server, captureEvent)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"status": "ok", "duplicate": false}, out)

	status, out = post(t, server, captureEvent)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, out["duplicate"])

	events, err := st.List()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "5TY05013RG002845M", events[0].ResourceID)
	assert.Nil(t, events[0].Raw)
}

func TestReceivePayPalRejectsBadInput(t *testing.T) {
	server, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"invalid json", "{not json", "invalid_request"},
		{"missing id", `{"event_type":"PAYMENT.CAPTURE.COMPLETED"}`, "invalid_parameter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out := post(t, server, tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tt.code, out["error"])
		})
	}
}

func TestListAndGet(t *testing.T) {
	server, _ := newTestServer(t)

	post(t, server, captureEvent)
	post(t, server, `{"id":"WH-2","event_type":"PAYMENT.CAPTURE.REFUNDED"}`)

	resp, err := http.Get(server.URL + "/webhooks/paypal")
	require.NoError(t, err)
	defer resp.Body.Close()

	var list struct {
		Events []Event `json:"events"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list.Events, 2)
	assert.Equal(t, "WH-2", list.Events[0].ID)
	assert.Equal(t, "WH-1", list.Events[1].ID)
	assert.Empty(t, list.Events[0].Raw)

	resp, err = http.Get(server.URL + "/webhooks/paypal/WH-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var event Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&event))
	assert.Equal(t, "PAYMENT.CAPTURE.COMPLETED", event.EventType)
	assert.JSONEq(t, captureEvent, string(event.Raw))

	resp, err = http.Get(server.URL + "/webhooks/paypal/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStoreSaveRequiresID(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "webhooks.db"))
	require.NoError(t, err)
	defer st.Close()

	_, err = st.Save(Event{})
	assert.Error(t, err)

	_, err = st.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
