package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nicheimage/ingest/auth"
)

// MetagraphResponse is the JSON document served by a metagraph endpoint.
//
//	{
//	  "netuid": 23,
//	  "block": 4123456,
//	  "hotkeys": ["5F...", "5G...", ...]
//	}
//
// The uid of a validator is its index in hotkeys.
type MetagraphResponse struct {
	NetUID  uint16   `json:"netuid"`
	Block   uint64   `json:"block"`
	Hotkeys []string `json:"hotkeys"`
}

// HTTPMetagraphSource fetches the validator set from a chain indexer.
type HTTPMetagraphSource struct {
	URL        string
	NetUID     uint16
	HTTPClient *http.Client
}

// NewHTTPMetagraphSource creates a source that reads GET {url}/metagraph/{netuid}.
func NewHTTPMetagraphSource(url string, netUID uint16) *HTTPMetagraphSource {
	return &HTTPMetagraphSource{
		URL:        strings.TrimRight(url, "/"),
		NetUID:     netUID,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchSnapshot downloads and decodes the current metagraph.
func (s *HTTPMetagraphSource) FetchSnapshot(ctx context.Context) (*auth.Snapshot, error) {
	url := fmt.Sprintf("%s/metagraph/%d", s.URL, s.NetUID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching metagraph: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("metagraph returned %d: %s", resp.StatusCode, body)
	}

	var mg MetagraphResponse
	if err := json.NewDecoder(resp.Body).Decode(&mg); err != nil {
		return nil, fmt.Errorf("decoding metagraph: %w", err)
	}
	if mg.NetUID != s.NetUID {
		return nil, fmt.Errorf("metagraph is for netuid %d, want %d", mg.NetUID, s.NetUID)
	}
	if len(mg.Hotkeys) == 0 {
		return nil, errors.New("metagraph has no hotkeys")
	}

	return auth.NewSnapshotFromHotkeys(mg.NetUID, mg.Block, mg.Hotkeys), nil
}

// ValidatorFile is the on-disk format read by FileSource.
//
//	netuid: 23
//	hotkeys:
//	  0: 5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY
//	  3: 5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty
//
// JSON documents are accepted as well since they are valid YAML.
type ValidatorFile struct {
	NetUID  uint16            `yaml:"netuid"`
	Block   uint64            `yaml:"block"`
	Hotkeys map[string]string `yaml:"hotkeys"`
}

// FileSource reads a fixed validator set from a file on every refresh so
// that edits are picked up without a restart.
type FileSource struct {
	Path string
}

// NewFileSource creates a source backed by path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// FetchSnapshot reads and parses the validator file.
func (s *FileSource) FetchSnapshot(ctx context.Context) (*auth.Snapshot, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading validator file: %w", err)
	}

	var vf ValidatorFile
	if err := yaml.Unmarshal(data, &vf); err != nil {
		return nil, fmt.Errorf("parsing validator file: %w", err)
	}
	if len(vf.Hotkeys) == 0 {
		return nil, errors.New("validator file has no hotkeys")
	}

	addresses := make(map[int64]string, len(vf.Hotkeys))
	for key, addr := range vf.Hotkeys {
		uid, err := strconv.ParseInt(key, 10, 64)
		if err != nil || uid < 0 {
			return nil, fmt.Errorf("invalid uid %q in validator file", key)
		}
		addresses[uid] = addr
	}
	return auth.NewSnapshot(vf.NetUID, vf.Block, addresses), nil
}

// StaticSource serves a snapshot held in memory. Useful for tests and
// local deployments with a known validator set.
type StaticSource struct {
	mu       sync.Mutex
	snapshot *auth.Snapshot
	err      error
}

// NewStaticSource creates a source that always returns snapshot.
func NewStaticSource(snapshot *auth.Snapshot) *StaticSource {
	return &StaticSource{snapshot: snapshot}
}

// Set replaces the snapshot and error returned by subsequent fetches.
func (s *StaticSource) Set(snapshot *auth.Snapshot, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot, s.err = snapshot, err
}

// FetchSnapshot returns the configured snapshot.
func (s *StaticSource) FetchSnapshot(ctx context.Context) (*auth.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot, s.err
}
