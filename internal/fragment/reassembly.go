package fragment

import "sync"

// DefaultMaxFrames bounds how many incomplete frames a Reassembler holds.
const DefaultMaxFrames = 8

type pending struct {
	total    int
	received int
	parts    [][]byte
}

// ReassemblyStats counts what happened to frames seen by a Reassembler.
type ReassemblyStats struct {
	Completed int
	Evicted   int
	Dropped   int
	// Stale counts chunks of frames no newer than the last completed one.
	Stale int
}

// Reassembler rebuilds frames from chunks that may arrive lost, duplicated
// or out of order. At most maxFrames frames are in flight; the oldest is
// evicted first. Once a frame completes, chunks of that frame or any older
// one are ignored.
type Reassembler struct {
	mu        sync.Mutex
	maxFrames int
	frames    map[uint32]*pending
	order     []uint32
	stats     ReassemblyStats

	last     uint32
	haveLast bool
}

func NewReassembler(maxFrames int) *Reassembler {
	if maxFrames <= 0 {
		maxFrames = DefaultMaxFrames
	}
	return &Reassembler{
		maxFrames: maxFrames,
		frames:    make(map[uint32]*pending),
	}
}

// Add records c and returns the full payload once every chunk of its frame
// has arrived. Completing a frame discards frames that started before it.
func (r *Reassembler) Add(c Chunk) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.Total <= 0 || c.Index < 0 || c.Index >= c.Total {
		r.stats.Dropped++
		return nil, false
	}
	if r.haveLast && !newerFrame(c.FrameID, r.last) {
		r.stats.Stale++
		return nil, false
	}

	p, ok := r.frames[c.FrameID]
	if !ok {
		for len(r.order) >= r.maxFrames {
			r.evictLocked(r.order[0])
		}
		p = &pending{total: c.Total, parts: make([][]byte, c.Total)}
		r.frames[c.FrameID] = p
		r.order = append(r.order, c.FrameID)
	}
	if c.Total != p.total {
		r.stats.Dropped++
		return nil, false
	}
	if p.parts[c.Index] != nil {
		return nil, false
	}
	p.parts[c.Index] = c.Data
	p.received++
	if p.received < p.total {
		return nil, false
	}

	size := 0
	for _, part := range p.parts {
		size += len(part)
	}
	payload := make([]byte, 0, size)
	for _, part := range p.parts {
		payload = append(payload, part...)
	}

	r.removeLocked(c.FrameID)
	r.last, r.haveLast = c.FrameID, true
	r.stats.Completed++

	// Anything older than a completed frame can no longer be shown.
	for _, id := range append([]uint32(nil), r.order...) {
		if !newerFrame(id, c.FrameID) {
			r.evictLocked(id)
		}
	}
	return payload, true
}

// Reset forgets all buffered frames and the last completed frame, for when
// a new sender takes over.
func (r *Reassembler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.frames)
	r.order = r.order[:0]
	r.haveLast = false
}

// Pending reports how many incomplete frames are buffered.
func (r *Reassembler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *Reassembler) Stats() ReassemblyStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *Reassembler) evictLocked(id uint32) {
	r.removeLocked(id)
	r.stats.Evicted++
}

func (r *Reassembler) removeLocked(id uint32) {
	delete(r.frames, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}
