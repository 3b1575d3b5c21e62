package auth

import (
	"sync"
	"time"

	"github.com/nicheimage/ingest/metrics"
)

// DefaultFreshnessWindow bounds both nonce age and how long a consumed nonce is remembered.
const DefaultFreshnessWindow = 5 * time.Second

// NonceLedger remembers which (identity, nonce) pairs were consumed within
// the freshness window, separately for every endpoint class.
type NonceLedger struct {
	window time.Duration

	mu         sync.Mutex
	partitions map[string]*ledgerPartition
}

// ledgerPartition holds the consumed nonces of one endpoint class:
// identity -> nonce -> local acceptance time (unix ns).
type ledgerPartition struct {
	mu   sync.Mutex
	used map[int64]map[int64]int64
	size int
}

// NewNonceLedger creates a ledger. A non-positive window selects DefaultFreshnessWindow.
func NewNonceLedger(window time.Duration) *NonceLedger {
	if window <= 0 {
		window = DefaultFreshnessWindow
	}
	return &NonceLedger{
		window:     window,
		partitions: make(map[string]*ledgerPartition),
	}
}

// Window returns the retention window.
func (l *NonceLedger) Window() time.Duration {
	return l.window
}

func (l *NonceLedger) partition(class string) *ledgerPartition {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.partitions[class]
	if !ok {
		p = &ledgerPartition{used: make(map[int64]map[int64]int64)}
		l.partitions[class] = p
	}
	return p
}

// CheckAndInsert consumes nonce for identity within class. It fails with
// ErrReplayDetected, without mutating anything, when the pair is already held.
// On success every entry of the class older than the window is dropped while
// the class lock is still held, so the ledger only ever contains nonces
// accepted within the trailing window.
func (l *NonceLedger) CheckAndInsert(class string, identity, nonce int64, now time.Time) error {
	p := l.partition(class)
	nowNs := now.UnixNano()

	p.mu.Lock()
	defer p.mu.Unlock()

	nonces, ok := p.used[identity]
	if ok {
		if _, seen := nonces[nonce]; seen {
			return ErrReplayDetected
		}
	} else {
		nonces = make(map[int64]int64)
		p.used[identity] = nonces
	}
	nonces[nonce] = nowNs
	p.size++

	windowNs := l.window.Nanoseconds()
	for id, set := range p.used {
		for n, acceptedAt := range set {
			if nowNs-acceptedAt > windowNs {
				delete(set, n)
				p.size--
			}
		}
		if len(set) == 0 {
			delete(p.used, id)
		}
	}

	metrics.LedgerEntries.WithLabelValues(class).Set(float64(p.size))
	return nil
}

// Len returns the number of nonces held for class.
func (l *NonceLedger) Len(class string) int {
	p := l.partition(class)
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}

// Identities returns the number of identities with at least one held nonce in class.
func (l *NonceLedger) Identities(class string) int {
	p := l.partition(class)
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.used)
}
