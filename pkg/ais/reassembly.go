package ais

import (
	"fmt"
	"time"

	"github.com/seastack/marlin/pkg/util"
)

// DefaultReassemblyTimeout bounds how long a partial multi-fragment group
// may wait for its remaining fragments.
const DefaultReassemblyTimeout = 60 * time.Second

// DefaultMaxPendingGroups bounds the reassembly table under fragment
// loss; the oldest pending group is evicted when the table is full.
const DefaultMaxPendingGroups = 1024

type groupKey struct {
	channel string
	groupID string
}

func (k groupKey) String() string {
	return fmt.Sprintf("%s/%s", k.channel, k.groupID)
}

type fragmentSlot struct {
	payload  string
	fillBits int
	present  bool
}

type pendingGroup struct {
	slots   []fragmentSlot
	filled  int
	created time.Time
}

// Reassembler buffers partial multi-fragment sentences and joins their
// payloads once every slot is filled. The table is guarded by a
// bounded-acquisition mutex so it may be shared across feeds; exceeding
// the lock timeout surfaces as a potential-deadlock error and aborts the
// operation.
type Reassembler struct {
	mu         *util.TimedMutex
	pending    map[groupKey]*pendingGroup
	timeout    time.Duration
	maxPending int
	now        func() time.Time
}

func NewReassembler(timeout time.Duration, maxPending int, lockTimeout time.Duration) *Reassembler {
	if timeout <= 0 {
		timeout = DefaultReassemblyTimeout
	}
	if maxPending <= 0 {
		maxPending = DefaultMaxPendingGroups
	}
	return &Reassembler{
		mu:         util.NewTimedMutex("reassembly", lockTimeout),
		pending:    make(map[groupKey]*pendingGroup),
		timeout:    timeout,
		maxPending: maxPending,
		now:        time.Now,
	}
}

// Offer feeds one envelope through reassembly. Single-fragment sentences
// pass through unchanged. For multi-fragment groups the return is
// (nil, nil) until the last slot fills, at which point a combined
// envelope is returned: payloads concatenated in fragment order, fill
// bits taken from the terminal fragment, fragment count collapsed to 1.
func (r *Reassembler) Offer(s *Sentence) (*Sentence, error) {
	if s.FragmentCount == 1 {
		return s, nil
	}
	if s.GroupID == "" {
		return nil, newError(KindMissingGroupID, "%d fragments without group id", s.FragmentCount)
	}
	// Only the terminal fragment may carry fill bits.
	if s.FragmentNumber < s.FragmentCount && s.FillBits != 0 {
		return nil, newError(KindBadFillBits, "fragment %d of %d has %d fill bits", s.FragmentNumber, s.FragmentCount, s.FillBits)
	}

	if err := r.mu.Lock("reassembly_offer"); err != nil {
		return nil, err
	}
	defer r.mu.Unlock()

	key := groupKey{channel: s.Channel, groupID: s.GroupID}
	g, ok := r.pending[key]
	if ok && len(g.slots) != s.FragmentCount {
		// Same group id reused with a different fragment count: the old
		// group can never complete, start over.
		delete(r.pending, key)
		ok = false
	}
	if !ok {
		if len(r.pending) >= r.maxPending {
			r.evictOldestLocked()
		}
		g = &pendingGroup{
			slots:   make([]fragmentSlot, s.FragmentCount),
			created: r.now(),
		}
		r.pending[key] = g
	}

	slot := &g.slots[s.FragmentNumber-1]
	if !slot.present {
		g.filled++
	}
	// Duplicates overwrite.
	slot.payload = s.Payload
	slot.fillBits = s.FillBits
	slot.present = true

	if g.filled < len(g.slots) {
		return nil, nil
	}

	delete(r.pending, key)
	var payload string
	for _, sl := range g.slots {
		payload += sl.payload
	}
	return &Sentence{
		Tag:            s.Tag,
		FragmentCount:  1,
		FragmentNumber: 1,
		GroupID:        s.GroupID,
		Channel:        s.Channel,
		Payload:        payload,
		FillBits:       g.slots[len(g.slots)-1].fillBits,
		Raw:            s.Raw,
	}, nil
}

func (r *Reassembler) evictOldestLocked() {
	var oldest groupKey
	var oldestAt time.Time
	first := true
	for k, g := range r.pending {
		if first || g.created.Before(oldestAt) {
			oldest, oldestAt, first = k, g.created, false
		}
	}
	if !first {
		delete(r.pending, oldest)
	}
}

// Sweep drops every pending group older than the reassembly timeout and
// returns their descriptors for the observer.
func (r *Reassembler) Sweep() ([]string, error) {
	if err := r.mu.Lock("reassembly_sweep"); err != nil {
		return nil, err
	}
	defer r.mu.Unlock()

	var dropped []string
	cutoff := r.now().Add(-r.timeout)
	for k, g := range r.pending {
		if g.created.Before(cutoff) {
			delete(r.pending, k)
			dropped = append(dropped, k.String())
		}
	}
	return dropped, nil
}

// Pending reports the number of incomplete groups in the table.
func (r *Reassembler) Pending() int {
	if err := r.mu.Lock("reassembly_pending"); err != nil {
		return 0
	}
	defer r.mu.Unlock()
	return len(r.pending)
}
