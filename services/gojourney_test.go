package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupGoJourney serves a task that reports statuses in order, repeating the
// last one, and an image at /image.
func setupGoJourney(t *testing.T, statuses ...string) (*GoJourneyClient, *atomic.Int32) {
	t.Helper()

	var polls atomic.Int32
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/fetch", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req["task_id"] != "task-1" {
			http.Error(w, "bad task", http.StatusBadRequest)
			return
		}
		n := int(polls.Add(1)) - 1
		if n >= len(statuses) {
			n = len(statuses) - 1
		}
		resp := map[string]any{"status": statuses[n]}
		if statuses[n] == "finished" {
			resp["task_result"] = map[string]string{"image_url": srv.URL + "/image"}
		}
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/image", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("image-bytes"))
	})

	client := NewGoJourneyClient(discardLogger())
	client.Endpoint = srv.URL + "/fetch"
	client.PollInterval = 5 * time.Millisecond
	client.Timeout = time.Second
	return client, &polls
}

func TestGoJourneyFetchImage(t *testing.T) {
	client, polls := setupGoJourney(t, "pending", "processing", "finished")

	data, err := client.FetchImage(context.Background(), "task-1")
	require.NoError(t, err)
	require.Equal(t, "image-bytes", string(data))
	require.Equal(t, int32(3), polls.Load())
}

func TestGoJourneyTaskFailed(t *testing.T) {
	client, _ := setupGoJourney(t, "failed")

	_, err := client.FetchImage(context.Background(), "task-1")
	require.ErrorIs(t, err, ErrTaskFailed)
}

func TestGoJourneyTaskTimeout(t *testing.T) {
	client, _ := setupGoJourney(t, "pending")
	client.Timeout = 50 * time.Millisecond

	_, err := client.FetchImage(context.Background(), "task-1")
	require.ErrorIs(t, err, ErrTaskTimeout)
}

func TestGoJourneyUpstreamError(t *testing.T) {
	client, _ := setupGoJourney(t, "finished")

	_, err := client.FetchImage(context.Background(), "unknown-task")
	require.ErrorContains(t, err, "400")
}
