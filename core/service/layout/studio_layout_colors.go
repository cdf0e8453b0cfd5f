package layout

import (
	"math"

	"studio_server/core/domain"
	"studio_server/core/service/vision"
)

// BuildColorScheme derives a candidate palette from the brand colors. All
// transforms are pure hue/saturation/lightness rewrites of the brand
// palette, so two calls with the same inputs produce the same scheme.
func BuildColorScheme(kind domain.ColorSchemeKind, colors domain.BrandColors) domain.ColorScheme {
	primary := colors.Primary
	if primary == "" {
		primary = "#333333"
	}
	secondary := colors.Secondary
	accent := colors.Accent

	scheme := domain.ColorScheme{
		Kind:       kind,
		Background: "#ffffff",
		Primary:    primary,
		Secondary:  secondary,
		Accent:     accent,
		Text:       "#1a1a1a",
	}

	h, s, l, ok := vision.HexToHSL(primary)
	if !ok {
		return scheme
	}

	switch kind {
	case domain.SchemeComplementary:
		comp := math.Mod(h+180, 360)
		scheme.Accent = vision.HSLToHex(comp, s, l)
		if secondary == "" {
			scheme.Secondary = vision.HSLToHex(comp, s*0.6, clampLightness(l+0.25))
		}

	case domain.SchemeMonochromatic:
		scheme.Secondary = vision.HSLToHex(h, s, clampLightness(l+0.2))
		scheme.Accent = vision.HSLToHex(h, s, clampLightness(l-0.2))
		scheme.Background = vision.HSLToHex(h, math.Min(s, 0.15), 0.97)

	case domain.SchemeVibrant:
		scheme.Primary = vision.HSLToHex(h, boost(s), l)
		if sh, ss, sl, sok := vision.HexToHSL(secondary); sok {
			scheme.Secondary = vision.HSLToHex(sh, boost(ss), sl)
		}
		if ah, as, al, aok := vision.HexToHSL(accent); aok {
			scheme.Accent = vision.HSLToHex(ah, boost(as), al)
		} else {
			scheme.Accent = vision.HSLToHex(math.Mod(h+30, 360), boost(s), l)
		}

	case domain.SchemeMuted:
		scheme.Primary = vision.HSLToHex(h, s*0.45, clampLightness(l+0.1))
		if sh, ss, sl, sok := vision.HexToHSL(secondary); sok {
			scheme.Secondary = vision.HSLToHex(sh, ss*0.45, clampLightness(sl+0.1))
		}
		if ah, as, al, aok := vision.HexToHSL(accent); aok {
			scheme.Accent = vision.HSLToHex(ah, as*0.45, al)
		}
		scheme.Background = vision.HSLToHex(h, 0.08, 0.96)
		scheme.Text = "#333333"

	default: // brand: palette used as-is
	}

	if scheme.Secondary == "" {
		scheme.Secondary = vision.HSLToHex(h, s*0.5, clampLightness(l+0.3))
	}
	if scheme.Accent == "" {
		scheme.Accent = vision.HSLToHex(math.Mod(h+40, 360), s, l)
	}

	// Dark primaries flip the text color when the background is tinted dark
	if _, _, bl, bok := vision.HexToHSL(scheme.Background); bok && bl < 0.4 {
		scheme.Text = "#f5f5f5"
	}

	return scheme
}

func boost(s float64) float64 {
	return math.Min(1, s*1.35+0.1)
}

func clampLightness(l float64) float64 {
	if l < 0.08 {
		return 0.08
	}
	if l > 0.92 {
		return 0.92
	}
	return l
}
