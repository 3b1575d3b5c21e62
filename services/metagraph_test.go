package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nicheimage/ingest/auth"
)

func TestHTTPMetagraphSource(t *testing.T) {
	var requested string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		json.NewEncoder(w).Encode(&MetagraphResponse{
			NetUID:  23,
			Block:   4_000_000,
			Hotkeys: []string{"addr-0", "addr-1", "addr-2"},
		})
	}))
	defer srv.Close()

	source := NewHTTPMetagraphSource(srv.URL+"/", 23)
	snapshot, err := source.FetchSnapshot(context.Background())
	require.NoError(t, err)

	require.Equal(t, "/metagraph/23", requested)
	require.Equal(t, uint64(4_000_000), snapshot.Block)
	require.Equal(t, 3, snapshot.Len())
	addr, ok := snapshot.Address(2)
	require.True(t, ok)
	require.Equal(t, "addr-2", addr)
}

func TestHTTPMetagraphSourceErrors(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "chain unavailable", http.StatusBadGateway)
		}},
		{"wrong subnet", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(&MetagraphResponse{NetUID: 1, Hotkeys: []string{"a"}})
		}},
		{"no hotkeys", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(&MetagraphResponse{NetUID: 23})
		}},
		{"not json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>"))
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			_, err := NewHTTPMetagraphSource(srv.URL, 23).FetchSnapshot(context.Background())
			require.Error(t, err)
		})
	}
}

func TestHTTPMetagraphSourceHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPMetagraphSource(srv.URL, 23).FetchSnapshot(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "validators.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
netuid: 23
block: 12
hotkeys:
  0: 5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY
  7: 5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty
`), 0o600))

	snapshot, err := NewFileSource(yamlPath).FetchSnapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint16(23), snapshot.NetUID)
	require.Equal(t, []int64{0, 7}, snapshot.UIDs())

	jsonPath := filepath.Join(dir, "validators.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"netuid": 23, "hotkeys": {"3": "addr-3"}}`), 0o600))

	snapshot, err = NewFileSource(jsonPath).FetchSnapshot(context.Background())
	require.NoError(t, err)
	addr, ok := snapshot.Address(3)
	require.True(t, ok)
	require.Equal(t, "addr-3", addr)
}

func TestFileSourceErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewFileSource(filepath.Join(dir, "missing.yaml")).FetchSnapshot(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("netuid: 23\n"), 0o600))
	_, err = NewFileSource(empty).FetchSnapshot(context.Background())
	require.Error(t, err)
}

func TestStaticSource(t *testing.T) {
	source := NewStaticSource(auth.NewSnapshot(23, 1, map[int64]string{1: "a"}))

	snapshot, err := source.FetchSnapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, snapshot.Len())

	source.Set(nil, errors.New("down"))
	_, err = source.FetchSnapshot(context.Background())
	require.Error(t, err)
}

func TestFileSourceRejectsBadUID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "validators.yaml")
	require.NoError(t, os.WriteFile(path, []byte("netuid: 23\nhotkeys:\n  first: addr\n"), 0o600))

	_, err := NewFileSource(path).FetchSnapshot(context.Background())
	require.ErrorContains(t, err, "invalid uid")
}
