package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/nicheimage/ingest/metrics"
)

const (
	DefaultRefreshInterval = 10 * time.Minute
	DefaultFetchTimeout    = 30 * time.Second
)

// Snapshot is an immutable view of the validator set at one point in time.
type Snapshot struct {
	NetUID    uint16
	Block     uint64
	FetchedAt time.Time

	addresses map[int64]string
}

// NewSnapshot copies addresses into a new snapshot.
func NewSnapshot(netUID uint16, block uint64, addresses map[int64]string) *Snapshot {
	copied := make(map[int64]string, len(addresses))
	for uid, addr := range addresses {
		copied[uid] = addr
	}
	return &Snapshot{
		NetUID:    netUID,
		Block:     block,
		FetchedAt: time.Now(),
		addresses: copied,
	}
}

// NewSnapshotFromHotkeys builds a snapshot from a metagraph hotkey list where
// the uid is the position in the list.
func NewSnapshotFromHotkeys(netUID uint16, block uint64, hotkeys []string) *Snapshot {
	addresses := make(map[int64]string, len(hotkeys))
	for uid, hotkey := range hotkeys {
		addresses[int64(uid)] = hotkey
	}
	return NewSnapshot(netUID, block, addresses)
}

// Address returns the address registered for uid.
func (s *Snapshot) Address(uid int64) (string, bool) {
	addr, ok := s.addresses[uid]
	return addr, ok
}

// Len returns the number of identities.
func (s *Snapshot) Len() int {
	return len(s.addresses)
}

// UIDs returns the identities in ascending order.
func (s *Snapshot) UIDs() []int64 {
	uids := make([]int64, 0, len(s.addresses))
	for uid := range s.addresses {
		uids = append(uids, uid)
	}
	slices.Sort(uids)
	return uids
}

// SnapshotSource fetches the full current validator set.
type SnapshotSource interface {
	FetchSnapshot(ctx context.Context) (*Snapshot, error)
}

// AddressResolver maps an identity to its address.
type AddressResolver interface {
	Resolve(uid int64) (string, error)
}

// RegistryConfig configures a ValidatorRegistry.
type RegistryConfig struct {
	Source SnapshotSource

	// RefreshInterval is the period of the background refresh loop.
	RefreshInterval time.Duration

	// FetchTimeout bounds a single fetch from Source.
	FetchTimeout time.Duration

	Log *slog.Logger
}

// ValidatorRegistry holds the latest validator snapshot. Readers never block:
// the snapshot is swapped atomically and is never modified in place. A failed
// refresh keeps the previous snapshot.
type ValidatorRegistry struct {
	source   SnapshotSource
	interval time.Duration
	timeout  time.Duration
	log      *slog.Logger

	refreshMu sync.Mutex
	current   atomic.Pointer[Snapshot]
}

// NewValidatorRegistry creates a registry with no snapshot loaded.
func NewValidatorRegistry(cfg *RegistryConfig) (*ValidatorRegistry, error) {
	if cfg.Source == nil {
		return nil, errors.New("registry: snapshot source is required")
	}

	r := &ValidatorRegistry{
		source:   cfg.Source,
		interval: cfg.RefreshInterval,
		timeout:  cfg.FetchTimeout,
		log:      cfg.Log,
	}
	if r.interval <= 0 {
		r.interval = DefaultRefreshInterval
	}
	if r.timeout <= 0 {
		r.timeout = DefaultFetchTimeout
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	return r, nil
}

// Refresh fetches a new snapshot and swaps it in.
func (r *ValidatorRegistry) Refresh(ctx context.Context) error {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.log.Info("Syncing validator registry")
	snapshot, err := r.source.FetchSnapshot(ctx)
	if err == nil && snapshot == nil {
		err = errors.New("source returned no snapshot")
	}
	if err != nil {
		metrics.RegistryRefreshes.WithLabelValues("error").Inc()
		r.log.Error("Validator registry refresh failed, keeping previous snapshot", "err", err)
		return fmt.Errorf("refreshing registry: %w", err)
	}

	r.current.Store(snapshot)
	metrics.RegistryRefreshes.WithLabelValues("ok").Inc()
	metrics.RegistryValidators.Set(float64(snapshot.Len()))
	metrics.RegistryBlock.Set(float64(snapshot.Block))
	r.log.Info("Validator registry synced", "netuid", snapshot.NetUID, "block", snapshot.Block, "validators", snapshot.Len())
	return nil
}

// Run refreshes immediately and then on every interval until ctx is done.
func (r *ValidatorRegistry) Run(ctx context.Context) {
	_ = r.Refresh(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.Refresh(ctx)
		}
	}
}

// Resolve returns the address of uid in the current snapshot.
func (r *ValidatorRegistry) Resolve(uid int64) (string, error) {
	snapshot := r.current.Load()
	if snapshot == nil {
		return "", ErrUnknownIdentity
	}
	addr, ok := snapshot.Address(uid)
	if !ok {
		return "", ErrUnknownIdentity
	}
	return addr, nil
}

// Snapshot returns the current snapshot, or nil before the first successful refresh.
func (r *ValidatorRegistry) Snapshot() *Snapshot {
	return r.current.Load()
}
