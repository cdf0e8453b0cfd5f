// Package snowflake generates time-sortable unique IDs.
//
// Layout: 41 bits millisecond timestamp, 10 bits node, 12 bits sequence.
package snowflake

import (
	"fmt"
	"strconv"
	"sync"
	"time"
)

const (
	// Custom epoch: 2024-01-01 00:00:00 UTC
	epoch int64 = 1704067200000

	nodeBits     = 10
	sequenceBits = 12

	maxNode     = -1 ^ (-1 << nodeBits)
	maxSequence = -1 ^ (-1 << sequenceBits)

	nodeShift      = sequenceBits
	timestampShift = sequenceBits + nodeBits
)

// Generator produces unique IDs for a single node.
type Generator struct {
	mu       sync.Mutex
	node     int64
	sequence int64
	lastTime int64
}

// NewGenerator creates a generator for the given node ID.
func NewGenerator(node int64) (*Generator, error) {
	if node < 0 || node > maxNode {
		return nil, fmt.Errorf("node id must be between 0 and %d, got %d", maxNode, node)
	}
	return &Generator{node: node}, nil
}

// Next returns the next unique ID.
func (g *Generator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UnixMilli()

	if now < g.lastTime {
		// Clock moved backwards, wait it out
		now = g.lastTime
	}

	if now == g.lastTime {
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			// Sequence exhausted within this millisecond
			for now <= g.lastTime {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		g.sequence = 0
	}

	g.lastTime = now

	return (now-epoch)<<timestampShift | g.node<<nodeShift | g.sequence
}

// NextString returns the next ID as a base-10 string.
func (g *Generator) NextString() string {
	return strconv.FormatInt(g.Next(), 10)
}

// Timestamp extracts the creation time from an ID.
func Timestamp(id int64) time.Time {
	ms := (id >> timestampShift) + epoch
	return time.UnixMilli(ms)
}

// Node extracts the node ID from an ID.
func Node(id int64) int64 {
	return (id >> nodeShift) & maxNode
}

// Sequence extracts the sequence number from an ID.
func Sequence(id int64) int64 {
	return id & maxSequence
}

// =============================================================================
// Global generator
// =============================================================================

var (
	global     *Generator
	globalOnce sync.Once
)

// Init sets up the global generator. Safe to call multiple times;
// only the first call takes effect.
func Init(node int64) error {
	var err error
	globalOnce.Do(func() {
		global, err = NewGenerator(node)
	})
	return err
}

func get() *Generator {
	if global == nil {
		Init(0)
	}
	return global
}

// NextID returns the next ID from the global generator.
func NextID() int64 {
	return get().Next()
}

// Domain ID helpers. Prefixes keep identifiers self-describing in
// logs and API payloads.

// QueueID returns a new generation queue item ID.
func QueueID() string {
	return "gen_" + strconv.FormatInt(get().Next(), 10)
}

// BatchID returns a new generation batch ID.
func BatchID() string {
	return "batch_" + strconv.FormatInt(get().Next(), 10)
}

// AssetID returns a new asset ID.
func AssetID() string {
	return "asset_" + strconv.FormatInt(get().Next(), 10)
}

// LayoutID returns a new layout variation ID.
func LayoutID() string {
	return "layout_" + strconv.FormatInt(get().Next(), 10)
}

// CollectionID returns a new asset collection ID.
func CollectionID() string {
	return "coll_" + strconv.FormatInt(get().Next(), 10)
}

// BrandID returns a new brand guidelines ID.
func BrandID() string {
	return "brand_" + strconv.FormatInt(get().Next(), 10)
}
