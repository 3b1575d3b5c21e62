package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	DefaultGoJourneyEndpoint = "https://api.midjourneyapi.xyz/mj/v2/fetch"
	DefaultGoJourneyPoll     = 3 * time.Second
	DefaultGoJourneyTimeout  = 180 * time.Second
	goJourneyRequestTimeout  = 6 * time.Second
	maxDownloadBytes         = 32 << 20
)

var (
	ErrTaskFailed  = errors.New("gojourney task failed")
	ErrTaskTimeout = errors.New("gojourney task did not finish in time")
)

// ImageFetcher resolves a generation task into image bytes.
type ImageFetcher interface {
	FetchImage(ctx context.Context, taskID string) ([]byte, error)
}

type goJourneyTask struct {
	Status     string `json:"status"`
	TaskResult struct {
		ImageURL string `json:"image_url"`
	} `json:"task_result"`
}

// GoJourneyClient polls the GoJourney fetch API until a task finishes.
type GoJourneyClient struct {
	Endpoint     string
	PollInterval time.Duration
	Timeout      time.Duration
	HTTPClient   *http.Client
	Log          *slog.Logger
}

// NewGoJourneyClient creates a client against the public GoJourney API.
func NewGoJourneyClient(log *slog.Logger) *GoJourneyClient {
	if log == nil {
		log = slog.Default()
	}
	return &GoJourneyClient{
		Endpoint:     DefaultGoJourneyEndpoint,
		PollInterval: DefaultGoJourneyPoll,
		Timeout:      DefaultGoJourneyTimeout,
		HTTPClient:   &http.Client{},
		Log:          log,
	}
}

// FetchImage waits for taskID to finish and downloads its image.
func (c *GoJourneyClient) FetchImage(ctx context.Context, taskID string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	ticker := time.NewTicker(c.PollInterval)
	defer ticker.Stop()

	for {
		task, err := c.fetchTask(ctx, taskID)
		if err != nil {
			return nil, c.deadline(ctx, err)
		}
		c.Log.Debug("Polled GoJourney task", "task_id", taskID, "status", task.Status)

		switch task.Status {
		case "failed":
			return nil, ErrTaskFailed
		case "finished":
			if task.TaskResult.ImageURL == "" {
				return nil, errors.New("finished task has no image_url")
			}
			data, err := c.download(ctx, task.TaskResult.ImageURL)
			if err != nil {
				return nil, c.deadline(ctx, err)
			}
			return data, nil
		}

		select {
		case <-ctx.Done():
			return nil, c.deadline(ctx, ctx.Err())
		case <-ticker.C:
		}
	}
}

// deadline reports ErrTaskTimeout once the overall budget is spent.
func (c *GoJourneyClient) deadline(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTaskTimeout
	}
	return err
}

func (c *GoJourneyClient) fetchTask(ctx context.Context, taskID string) (*goJourneyTask, error) {
	payload, err := json.Marshal(map[string]string{"task_id": taskID})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, goJourneyRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching task: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("gojourney returned %d: %s", resp.StatusCode, body)
	}

	var task goJourneyTask
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, fmt.Errorf("decoding task: %w", err)
	}
	return &task, nil
}

func (c *GoJourneyClient) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download returned %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
}
