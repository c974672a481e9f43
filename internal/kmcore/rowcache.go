package kmcore

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// RowCache is a bounded, partitioned cache of rows keyed by row id, with
// build-and-freeze semantics (spec §4.3): each of W shards accepts
// inserts only while filling (up to fillCap entries), then the driver
// freezes it into a read-only lookup until the next regeneration.
//
// Sharding eliminates cross-worker locking on the insert path — a
// worker only ever inserts into its own shard — grounded on the
// teacher's per-shard write isolation in engine/sharded.go. Reads may
// still cross shard boundaries (a row cached by one worker may later be
// looked up by another), so Get takes a per-shard RWMutex.
type RowCache struct {
	w, d       int
	fillCap    int // per-shard cap during fill, C/(2W)
	frozenCap  int // nominal per-shard budget once frozen, C/W
	compressed bool

	shards []*cacheShard

	// Regeneration schedule state (spec §4.3).
	ioIter       uint64 // monotonic count of iterations with >=1 fetch
	sinceRegen   int    // fetch-iterations since the last regeneration
	updateInterval int  // current U
	firstRegenDone bool

	hits uint64
	mu   sync.Mutex // guards the schedule fields above
}

type cacheShard struct {
	mu      sync.RWMutex
	entries map[int32]cachedRow
	frozen  bool
	cap     int
}

type cachedRow struct {
	plain      []float64
	compressed []byte // lz4 block, present instead of plain when compressed
}

// NewRowCache allocates a cache sized for capRows total rows across w
// shards (d doubles per row). capRows <= 0 disables the cache
// (NewRowCache returns nil).
func NewRowCache(w, d, capRows int, compressed bool) *RowCache {
	if capRows <= 0 || w <= 0 {
		return nil
	}
	frozenCap := capRows / w
	fillCap := capRows / (2 * w)
	if fillCap < 1 {
		fillCap = 1
	}
	if frozenCap < fillCap {
		frozenCap = fillCap
	}

	shards := make([]*cacheShard, w)
	for i := range shards {
		shards[i] = &cacheShard{
			entries: make(map[int32]cachedRow, fillCap),
			cap:     fillCap,
		}
	}
	return &RowCache{
		w:              w,
		d:              d,
		fillCap:        fillCap,
		frozenCap:      frozenCap,
		compressed:     compressed,
		shards:         shards,
		updateInterval: 5,
	}
}

// SetUpdateInterval overrides the initial U (default 5). Must be called
// before the first OnIterationEnd.
func (c *RowCache) SetUpdateInterval(u int) {
	if c == nil {
		return
	}
	if u < 1 {
		u = 1
	}
	c.updateInterval = u
}

// TryInsert appends row under rowID into worker's shard if that shard is
// still filling, has capacity, and rowID is not already present. A full
// or frozen shard silently refuses — the cache never errors.
func (c *RowCache) TryInsert(worker, rowID int, row []float64) bool {
	if c == nil {
		return false
	}
	s := c.shards[worker]
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen || len(s.entries) >= s.cap {
		return false
	}
	if _, ok := s.entries[int32(rowID)]; ok {
		return false
	}

	if c.compressed {
		s.entries[int32(rowID)] = cachedRow{compressed: compressRow(row)}
	} else {
		cp := make([]float64, len(row))
		copy(cp, row)
		s.entries[int32(rowID)] = cachedRow{plain: cp}
	}
	return true
}

// Get looks up rowID, first in worker's own shard, then (since reads may
// cross worker boundaries) every other shard. Returns ok=false on a
// total miss, never an error.
func (c *RowCache) Get(worker, rowID int) (row []float64, ok bool) {
	if c == nil {
		return nil, false
	}
	if row, ok := c.getFromShard(worker, rowID); ok {
		c.recordHit()
		return row, true
	}
	for i := range c.shards {
		if i == worker {
			continue
		}
		if row, ok := c.getFromShard(i, rowID); ok {
			c.recordHit()
			return row, true
		}
	}
	return nil, false
}

func (c *RowCache) getFromShard(shard, rowID int) ([]float64, bool) {
	s := c.shards[shard]
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[int32(rowID)]
	if !ok {
		return nil, false
	}
	if entry.plain != nil {
		return entry.plain, true
	}
	return decompressRow(entry.compressed, c.d), true
}

func (c *RowCache) recordHit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
}

// Hits returns the cumulative cache hit count, for diagnostics.
func (c *RowCache) Hits() uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

// BuildIndex freezes every shard whose fill-phase has ended but which
// has not yet been frozen. Safe to call every iteration; a no-op for
// already-frozen or still-filling shards.
func (c *RowCache) BuildIndex() {
	if c == nil {
		return
	}
	for _, s := range c.shards {
		s.mu.Lock()
		if !s.frozen && len(s.entries) >= s.cap {
			s.frozen = true
		}
		s.mu.Unlock()
	}
}

// regenerate clears every shard and starts a new fill generation.
func (c *RowCache) regenerate() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.entries = make(map[int32]cachedRow, s.cap)
		s.frozen = false
		s.mu.Unlock()
	}
}

// OnIterationEnd advances the regeneration schedule. fetchOccurred
// reports whether at least one row fetch (cache miss or uncached read)
// happened anywhere this iteration — per spec §9's Open Question
// resolution, an iteration only counts toward io_iter when that's true.
//
// The schedule distinguishes the monotonic diagnostic counter IOIter
// (never reset, reported to callers) from the internal trigger count
// "since last regeneration", which does reset — without that split the
// "positive multiple of U" test and the worked regeneration schedule in
// spec §4.3/§8 (iterations {5, 15, 35, ...} for U0=5) cannot both hold,
// since U only ever grows.
func (c *RowCache) OnIterationEnd(fetchOccurred bool) (regenerated bool) {
	if c == nil {
		return false
	}
	if !fetchOccurred {
		c.BuildIndex()
		return false
	}

	c.mu.Lock()
	c.ioIter++
	c.sinceRegen++
	trigger := c.sinceRegen >= c.updateInterval
	if trigger {
		elapsed := c.sinceRegen
		if !c.firstRegenDone {
			c.updateInterval *= 2
			c.firstRegenDone = true
		} else {
			c.updateInterval += elapsed
		}
		c.sinceRegen = 0
	}
	c.mu.Unlock()

	if trigger {
		c.regenerate()
		return true
	}
	c.BuildIndex()
	return false
}

// IOIter returns the monotonic count of iterations that performed at
// least one row fetch.
func (c *RowCache) IOIter() uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ioIter
}

func compressRow(row []float64) []byte {
	raw := make([]byte, len(row)*8)
	for i, v := range row {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}
	bound := lz4.CompressBlockBound(len(raw))
	dst := make([]byte, bound)
	var c lz4.Compressor
	n, err := c.CompressBlock(raw, dst)
	if err != nil || n == 0 || n >= len(raw) {
		// Incompressible or tiny: store raw with a zero-length marker
		// handled by decompressRow via the length check below.
		out := make([]byte, 8+len(raw))
		binary.LittleEndian.PutUint64(out[:8], 0)
		copy(out[8:], raw)
		return out
	}
	out := make([]byte, 8+n)
	binary.LittleEndian.PutUint64(out[:8], uint64(len(raw)))
	copy(out[8:], dst[:n])
	return out
}

func decompressRow(blob []byte, d int) []float64 {
	uncompressedSize := binary.LittleEndian.Uint64(blob[:8])
	body := blob[8:]

	var raw []byte
	if uncompressedSize == 0 {
		raw = body
	} else {
		raw = make([]byte, uncompressedSize)
		_, _ = lz4.UncompressBlock(body, raw)
	}

	row := make([]float64, d)
	for i := range row {
		row[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
	}
	return row
}
