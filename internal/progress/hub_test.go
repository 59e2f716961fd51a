package progress

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub, jobID string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, hub.Subscribe(w, r, jobID))
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_DeliversToSubscriber(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub, "job-1")

	hub.Notify("job-1", StatusProcessing, "working", map[string]any{"step": "Research"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var update Update
	require.NoError(t, conn.ReadJSON(&update))

	assert.Equal(t, "job-1", update.JobID)
	assert.Equal(t, StatusProcessing, update.Status)
	assert.Equal(t, "working", update.Message)
	assert.Equal(t, "Research", update.Result["step"])
}

func TestHub_NoSubscribersIsNoop(t *testing.T) {
	hub := NewHub()
	// Must not panic or block.
	hub.Notify("job-without-subscribers", StatusProcessing, "working", nil)
}

func TestHub_OtherJobsDoNotReceive(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub, "job-1")

	hub.Notify("job-2", StatusProcessing, "other job", nil)

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var update Update
	err := conn.ReadJSON(&update)
	assert.Error(t, err) // deadline, nothing delivered
}

func TestRecorder_CapturesUpdates(t *testing.T) {
	rec := &Recorder{}
	rec.Notify("job-1", StatusProcessing, "one", nil)
	rec.Notify("job-1", StatusResearchComplete, "two", nil)
	rec.Notify("job-2", StatusProcessing, "three", nil)

	assert.Len(t, rec.Updates(), 3)
	assert.Len(t, rec.ByStatus(StatusProcessing), 2)
	require.Len(t, rec.ByStatus(StatusResearchComplete), 1)
	assert.Equal(t, "two", rec.ByStatus(StatusResearchComplete)[0].Message)
}
