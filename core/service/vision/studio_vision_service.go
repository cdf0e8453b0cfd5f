// Package vision scores assets against a creative territory.
package vision

import (
	"context"
	"math"
	"sort"
	"strings"

	"studio_server/core/domain"
	"studio_server/pkg/logger"
)

// Service analyzes asset pools for territory fit. It is pure: no
// persistence, no network, deterministic for the same inputs.
type Service struct {
	log *logger.Logger
}

// NewService creates a new vision service
func NewService() *Service {
	return &Service{
		log: logger.Default().WithField("component", "vision"),
	}
}

// Analyze scores each asset against the territory and derives pool-level
// color harmony and style consistency. palette is the brand color palette
// for hue-proximity scoring; it may be empty. Empty inputs yield zero
// scores, never an error.
func (s *Service) Analyze(ctx context.Context, assets []*domain.Asset, territory *domain.Territory, palette []string) (*domain.VisualIntelligence, error) {
	result := &domain.VisualIntelligence{}
	if territory != nil {
		result.TerritoryID = territory.ID
	}

	if len(assets) == 0 {
		return result, nil
	}

	var words []string
	if territory != nil {
		words = territory.Words()
	}

	matches := make([]domain.AssetMatch, 0, len(assets))
	for _, asset := range assets {
		matches = append(matches, s.matchAsset(asset, territory, words, palette))
	}

	// Highest match first; ties break on asset ID so the order is stable
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].MatchScore != matches[j].MatchScore {
			return matches[i].MatchScore > matches[j].MatchScore
		}
		return matches[i].AssetID < matches[j].AssetID
	})

	result.Matches = matches
	result.ColorHarmony = 100 * colorHarmony(assets)
	result.StyleConsistency = 100 * styleConsistency(assets)

	return result, nil
}

// matchAsset scores one asset: keyword/tag overlap carries most of the
// weight, with smaller contributions from tone, hue proximity to the
// brand palette, and metadata richness.
func (s *Service) matchAsset(asset *domain.Asset, territory *domain.Territory, words []string, palette []string) domain.AssetMatch {
	match := domain.AssetMatch{
		AssetID: asset.ID,
		Signals: map[string]float64{},
	}

	keywordScore := keywordOverlap(asset, words)
	match.Signals["keyword_overlap"] = keywordScore

	toneScore := 0.0
	if territory != nil && territory.Tone != "" {
		if asset.StyleTag != "" && strings.EqualFold(asset.StyleTag, territory.Tone) {
			toneScore = 1.0
		} else if asset.HasTag(strings.ToLower(territory.Tone)) {
			toneScore = 0.8
		}
	}
	match.Signals["tone_match"] = toneScore

	paletteScore := paletteProximity(asset, palette)
	match.Signals["palette_proximity"] = paletteScore

	metadataScore := 0.0
	if len(asset.DominantColors) > 0 {
		metadataScore += 0.5
	}
	if asset.StyleTag != "" {
		metadataScore += 0.5
	}
	match.Signals["metadata_richness"] = metadataScore

	match.MatchScore = 100 * clamp01(0.55*keywordScore+0.20*toneScore+0.15*paletteScore+0.10*metadataScore)
	return match
}

// paletteProximity scores how close the asset's dominant hues sit to the
// brand palette, taking the best pairing. Neutrals on either side are
// skipped; with nothing to compare the signal is a neutral 0.5.
func paletteProximity(asset *domain.Asset, palette []string) float64 {
	best := 0.0
	compared := false
	for _, hex := range asset.DominantColors {
		h, sat, _, ok := HexToHSL(hex)
		if !ok || sat < 0.1 {
			continue
		}
		for _, p := range palette {
			ph, psat, _, pok := HexToHSL(p)
			if !pok || psat < 0.1 {
				continue
			}
			compared = true
			if score := 1 - hueDistance(h, ph)/180; score > best {
				best = score
			}
		}
	}
	if !compared {
		return 0.5
	}
	return best
}

// keywordOverlap returns the fraction of territory words found in the
// asset's name or tags.
func keywordOverlap(asset *domain.Asset, words []string) float64 {
	if len(words) == 0 {
		return 0
	}

	name := strings.ToLower(asset.Name)
	hits := 0
	for _, w := range words {
		if w == "" {
			continue
		}
		if strings.Contains(name, w) || asset.HasTag(w) {
			hits++
		}
	}

	return float64(hits) / float64(len(words))
}

// colorHarmony measures how tightly the pool's dominant hues cluster.
// A single hue family scores near 1.0; scattered hues approach 0.
func colorHarmony(assets []*domain.Asset) float64 {
	var hues []float64
	for _, asset := range assets {
		for _, hex := range asset.DominantColors {
			if h, _, _, ok := HexToHSL(hex); ok {
				hues = append(hues, h)
			}
		}
	}

	if len(hues) == 0 {
		return 0
	}
	if len(hues) == 1 {
		return 1
	}

	// Mean pairwise circular hue distance, normalized to [0,1]
	var total float64
	var pairs int
	for i := 0; i < len(hues); i++ {
		for j := i + 1; j < len(hues); j++ {
			total += hueDistance(hues[i], hues[j])
			pairs++
		}
	}

	mean := total / float64(pairs)
	return clamp01(1 - mean/180)
}

// styleConsistency is the share of assets carrying the most common style
// tag. Untagged assets count against consistency.
func styleConsistency(assets []*domain.Asset) float64 {
	if len(assets) == 0 {
		return 0
	}

	counts := make(map[string]int)
	for _, asset := range assets {
		tag := strings.ToLower(strings.TrimSpace(asset.StyleTag))
		if tag == "" {
			continue
		}
		counts[tag]++
	}

	best := 0
	for _, c := range counts {
		if c > best {
			best = c
		}
	}

	return float64(best) / float64(len(assets))
}

// =============================================================================
// Color math
// =============================================================================

// HexToHSL parses a #RRGGBB hex color into HSL. Returns ok=false for
// malformed input.
func HexToHSL(hex string) (h, s, l float64, ok bool) {
	r, g, b, ok := parseHex(hex)
	if !ok {
		return 0, 0, 0, false
	}

	rf := float64(r) / 255
	gf := float64(g) / 255
	bf := float64(b) / 255

	max := math.Max(rf, math.Max(gf, bf))
	min := math.Min(rf, math.Min(gf, bf))
	delta := max - min

	l = (max + min) / 2

	if delta == 0 {
		return 0, 0, l, true
	}

	if l < 0.5 {
		s = delta / (max + min)
	} else {
		s = delta / (2 - max - min)
	}

	switch max {
	case rf:
		h = math.Mod((gf-bf)/delta, 6)
	case gf:
		h = (bf-rf)/delta + 2
	default:
		h = (rf-gf)/delta + 4
	}
	h *= 60
	if h < 0 {
		h += 360
	}

	return h, s, l, true
}

// HSLToHex renders HSL back to a #rrggbb string.
func HSLToHex(h, s, l float64) string {
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var rf, gf, bf float64
	switch {
	case h < 60:
		rf, gf, bf = c, x, 0
	case h < 120:
		rf, gf, bf = x, c, 0
	case h < 180:
		rf, gf, bf = 0, c, x
	case h < 240:
		rf, gf, bf = 0, x, c
	case h < 300:
		rf, gf, bf = x, 0, c
	default:
		rf, gf, bf = c, 0, x
	}

	r := int(math.Round((rf + m) * 255))
	g := int(math.Round((gf + m) * 255))
	b := int(math.Round((bf + m) * 255))

	const digits = "0123456789abcdef"
	return string([]byte{
		'#',
		digits[(r>>4)&0xf], digits[r&0xf],
		digits[(g>>4)&0xf], digits[g&0xf],
		digits[(b>>4)&0xf], digits[b&0xf],
	})
}

func parseHex(hex string) (r, g, b int, ok bool) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, 0, 0, false
	}

	vals := make([]int, 3)
	for i := 0; i < 3; i++ {
		hi := hexDigit(hex[i*2])
		lo := hexDigit(hex[i*2+1])
		if hi < 0 || lo < 0 {
			return 0, 0, 0, false
		}
		vals[i] = hi<<4 | lo
	}

	return vals[0], vals[1], vals[2], true
}

func hexDigit(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	default:
		return -1
	}
}

// hueDistance returns the circular distance between two hues in degrees,
// always in [0,180].
func hueDistance(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > 180 {
		d = 360 - d
	}
	return d
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
