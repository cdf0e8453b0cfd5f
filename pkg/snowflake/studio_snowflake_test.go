package snowflake

import (
	"strings"
	"sync"
	"testing"
)

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name    string
		node    int64
		wantErr bool
	}{
		{"valid zero", 0, false},
		{"valid max", maxNode, false},
		{"negative", -1, true},
		{"over max", maxNode + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGenerator(tt.node)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewGenerator(%d) error = %v, wantErr %v", tt.node, err, tt.wantErr)
			}
		})
	}
}

func TestGeneratorUnique(t *testing.T) {
	g, err := NewGenerator(1)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	const n = 10000
	seen := make(map[int64]bool, n)
	for i := 0; i < n; i++ {
		id := g.Next()
		if seen[id] {
			t.Fatalf("duplicate id %d at iteration %d", id, i)
		}
		seen[id] = true
	}
}

func TestGeneratorMonotonic(t *testing.T) {
	g, _ := NewGenerator(2)

	prev := g.Next()
	for i := 0; i < 1000; i++ {
		id := g.Next()
		if id <= prev {
			t.Fatalf("id %d not greater than previous %d", id, prev)
		}
		prev = id
	}
}

func TestGeneratorConcurrent(t *testing.T) {
	g, _ := NewGenerator(3)

	const workers = 8
	const perWorker = 1000

	var mu sync.Mutex
	seen := make(map[int64]bool, workers*perWorker)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]int64, perWorker)
			for i := range ids {
				ids[i] = g.Next()
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				if seen[id] {
					t.Errorf("duplicate id %d", id)
				}
				seen[id] = true
			}
		}()
	}
	wg.Wait()
}

func TestParseRoundTrip(t *testing.T) {
	g, _ := NewGenerator(42)
	id := g.Next()

	if got := Node(id); got != 42 {
		t.Errorf("Node(%d) = %d, want 42", id, got)
	}
	if ts := Timestamp(id); ts.IsZero() {
		t.Errorf("Timestamp(%d) is zero", id)
	}
	if seq := Sequence(id); seq < 0 || seq > maxSequence {
		t.Errorf("Sequence(%d) = %d out of range", id, seq)
	}
}

func TestDomainIDPrefixes(t *testing.T) {
	tests := []struct {
		name   string
		gen    func() string
		prefix string
	}{
		{"queue", QueueID, "gen_"},
		{"batch", BatchID, "batch_"},
		{"asset", AssetID, "asset_"},
		{"layout", LayoutID, "layout_"},
		{"collection", CollectionID, "coll_"},
		{"brand", BrandID, "brand_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := tt.gen()
			if !strings.HasPrefix(id, tt.prefix) {
				t.Errorf("%s = %q, want prefix %q", tt.name, id, tt.prefix)
			}
			if len(id) <= len(tt.prefix) {
				t.Errorf("%s = %q has empty numeric part", tt.name, id)
			}
		})
	}
}
