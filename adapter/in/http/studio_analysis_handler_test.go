package http

import (
	"testing"
	"time"

	"studio_server/core/domain"
)

func TestAnalysisCacheKey(t *testing.T) {
	now := time.Now().UTC()
	assets := []*domain.Asset{{ID: "a1", UpdatedAt: now}, {ID: "a2", UpdatedAt: now}}
	territory := &domain.Territory{ID: "t1", Title: "Bold Mornings", Keywords: []string{"bold"}}
	palette := []string{"#2244cc"}

	base := analysisCacheKey("user-1", assets, territory, palette)
	if base != analysisCacheKey("user-1", assets, territory, palette) {
		t.Fatal("same inputs produced different keys")
	}

	if analysisCacheKey("user-2", assets, territory, palette) == base {
		t.Error("key ignores the user")
	}
	if analysisCacheKey("user-1", assets, territory, []string{"#ff0000"}) == base {
		t.Error("key ignores the palette")
	}
	if analysisCacheKey("user-1", assets, &domain.Territory{ID: "t2"}, palette) == base {
		t.Error("key ignores the territory")
	}

	// An asset edit must miss the cache.
	touched := []*domain.Asset{{ID: "a1", UpdatedAt: now.Add(time.Second)}, assets[1]}
	if analysisCacheKey("user-1", touched, territory, palette) == base {
		t.Error("key ignores asset updates")
	}
}
