package vision

import (
	"context"
	"math"
	"testing"

	"studio_server/core/domain"
)

func TestAnalyzeEmptyInputs(t *testing.T) {
	svc := NewService()

	tests := []struct {
		name      string
		assets    []*domain.Asset
		territory *domain.Territory
	}{
		{"nil assets", nil, &domain.Territory{ID: "t1", Title: "Bold Future"}},
		{"empty assets", []*domain.Asset{}, &domain.Territory{ID: "t1"}},
		{"nil territory", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Analyze(context.Background(), tt.assets, tt.territory, nil)
			if err != nil {
				t.Fatalf("Analyze() error = %v, want nil", err)
			}
			if len(result.Matches) != 0 {
				t.Errorf("Matches = %d, want 0", len(result.Matches))
			}
			if result.ColorHarmony != 0 || result.StyleConsistency != 0 {
				t.Errorf("scores = (%v, %v), want zeros", result.ColorHarmony, result.StyleConsistency)
			}
		})
	}
}

func TestAnalyzeKeywordMatching(t *testing.T) {
	svc := NewService()
	territory := &domain.Territory{
		ID:       "t1",
		Title:    "Urban Energy",
		Keywords: []string{"urban", "energy", "night"},
	}

	assets := []*domain.Asset{
		{ID: "a1", Name: "urban night skyline", Tags: []string{"energy"}},
		{ID: "a2", Name: "quiet forest", Tags: []string{"calm"}},
	}

	result, err := svc.Analyze(context.Background(), assets, territory, nil)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(result.Matches) != 2 {
		t.Fatalf("Matches = %d, want 2", len(result.Matches))
	}
	if result.Matches[0].AssetID != "a1" {
		t.Errorf("best match = %s, want a1", result.Matches[0].AssetID)
	}
	if result.MatchFor("a1") <= result.MatchFor("a2") {
		t.Errorf("a1 score %v should exceed a2 score %v", result.MatchFor("a1"), result.MatchFor("a2"))
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	svc := NewService()
	territory := &domain.Territory{ID: "t1", Keywords: []string{"bold"}}
	assets := []*domain.Asset{
		{ID: "b", Name: "bold banner", DominantColors: []string{"#ff0000"}},
		{ID: "a", Name: "bold poster", DominantColors: []string{"#ff1100"}},
	}

	first, _ := svc.Analyze(context.Background(), assets, territory, nil)
	second, _ := svc.Analyze(context.Background(), assets, territory, nil)

	for i := range first.Matches {
		if first.Matches[i].AssetID != second.Matches[i].AssetID {
			t.Fatalf("order differs at %d: %s vs %s", i, first.Matches[i].AssetID, second.Matches[i].AssetID)
		}
		if first.Matches[i].MatchScore != second.Matches[i].MatchScore {
			t.Fatalf("score differs for %s", first.Matches[i].AssetID)
		}
	}
}

func TestAnalyzeFavorsOnPaletteAssets(t *testing.T) {
	svc := NewService()
	territory := &domain.Territory{ID: "t1", Keywords: []string{"bold"}}
	assets := []*domain.Asset{
		{ID: "on_brand", Name: "bold banner", DominantColors: []string{"#2030c0"}},
		{ID: "off_brand", Name: "bold poster", DominantColors: []string{"#f0a000"}},
	}
	palette := []string{"#2244cc", "#4466ee"}

	result, err := svc.Analyze(context.Background(), assets, territory, palette)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if result.MatchFor("on_brand") <= result.MatchFor("off_brand") {
		t.Errorf("on-palette asset %v did not outscore off-palette %v",
			result.MatchFor("on_brand"), result.MatchFor("off_brand"))
	}
	for _, m := range result.Matches {
		if _, ok := m.Signals["palette_proximity"]; !ok {
			t.Errorf("%s is missing the palette proximity signal", m.AssetID)
		}
	}
}

func TestPaletteProximity(t *testing.T) {
	tests := []struct {
		name    string
		asset   *domain.Asset
		palette []string
		min     float64
		max     float64
	}{
		{"same hue", &domain.Asset{DominantColors: []string{"#0000ff"}}, []string{"#0000ee"}, 0.95, 1},
		{"opposite hue", &domain.Asset{DominantColors: []string{"#0000ff"}}, []string{"#ffff00"}, 0, 0.05},
		{"no palette is neutral", &domain.Asset{DominantColors: []string{"#0000ff"}}, nil, 0.5, 0.5},
		{"no asset colors is neutral", &domain.Asset{}, []string{"#0000ff"}, 0.5, 0.5},
		{"neutrals skipped", &domain.Asset{DominantColors: []string{"#888888"}}, []string{"#0000ff"}, 0.5, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := paletteProximity(tt.asset, tt.palette)
			if got < tt.min || got > tt.max {
				t.Errorf("paletteProximity = %v, want in [%v, %v]", got, tt.min, tt.max)
			}
		})
	}
}

func TestColorHarmony(t *testing.T) {
	tests := []struct {
		name   string
		assets []*domain.Asset
		min    float64
		max    float64
	}{
		{
			"single hue family",
			[]*domain.Asset{
				{ID: "a", DominantColors: []string{"#ff0000", "#ee1100"}},
			},
			0.9, 1.0,
		},
		{
			"opposing hues",
			[]*domain.Asset{
				{ID: "a", DominantColors: []string{"#ff0000"}},
				{ID: "b", DominantColors: []string{"#00ffff"}},
			},
			0.0, 0.2,
		},
		{
			"no colors",
			[]*domain.Asset{{ID: "a"}},
			0.0, 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := colorHarmony(tt.assets)
			if got < tt.min || got > tt.max {
				t.Errorf("colorHarmony = %v, want in [%v, %v]", got, tt.min, tt.max)
			}
		})
	}
}

func TestStyleConsistency(t *testing.T) {
	assets := []*domain.Asset{
		{ID: "a", StyleTag: "photo"},
		{ID: "b", StyleTag: "photo"},
		{ID: "c", StyleTag: "illustration"},
		{ID: "d"},
	}

	got := styleConsistency(assets)
	want := 0.5 // 2 of 4 share the dominant tag
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("styleConsistency = %v, want %v", got, want)
	}
}

func TestHexToHSL(t *testing.T) {
	tests := []struct {
		hex    string
		wantH  float64
		wantOK bool
	}{
		{"#ff0000", 0, true},
		{"#00ff00", 120, true},
		{"#0000ff", 240, true},
		{"#fff", 0, true},
		{"nothex", 0, false},
		{"", 0, false},
		{"#12345", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			h, _, _, ok := HexToHSL(tt.hex)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && math.Abs(h-tt.wantH) > 1 {
				t.Errorf("hue = %v, want %v", h, tt.wantH)
			}
		})
	}
}

func TestHSLToHexRoundTrip(t *testing.T) {
	for _, hex := range []string{"#ff0000", "#3366cc", "#a1b2c3"} {
		h, s, l, ok := HexToHSL(hex)
		if !ok {
			t.Fatalf("HexToHSL(%s) failed", hex)
		}
		back := HSLToHex(h, s, l)
		hb, sb, lb, _ := HexToHSL(back)
		if math.Abs(h-hb) > 2 || math.Abs(s-sb) > 0.05 || math.Abs(l-lb) > 0.05 {
			t.Errorf("round trip %s -> %s drifted: hsl(%v,%v,%v) vs hsl(%v,%v,%v)", hex, back, h, s, l, hb, sb, lb)
		}
	}
}
