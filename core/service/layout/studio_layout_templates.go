package layout

import (
	"studio_server/core/domain"
)

// templateGeometry is the slot plan of one archetype: normalized image
// frames plus text frames keyed by copy role. Geometry is fractional so
// the same plan serves every channel format.
type templateGeometry struct {
	imageFrames []domain.Rect
	textFrames  map[domain.TextRole]domain.Rect
	textSizes   map[domain.TextRole]int // pt relative to a 1080px canvas
	imageFilter string                  // applied to the backdrop slot
}

// defaultArchetypes is the candidate set used when the request carries no
// template preferences.
var defaultArchetypes = []domain.LayoutArchetype{
	domain.ArchetypeHero,
	domain.ArchetypeSplit,
	domain.ArchetypeOverlay,
}

// geometryFor returns the slot plan for an archetype under a text
// dominance setting. Unknown archetypes fall back to hero.
func geometryFor(archetype domain.LayoutArchetype, dominance domain.TextDominance) templateGeometry {
	var g templateGeometry

	switch archetype {
	case domain.ArchetypeGrid:
		g = gridGeometry()
	case domain.ArchetypeCollage:
		g = collageGeometry()
	case domain.ArchetypeSplit:
		g = splitGeometry()
	case domain.ArchetypeOverlay:
		g = overlayGeometry()
	case domain.ArchetypeMagazine:
		g = magazineGeometry()
	default:
		g = heroGeometry()
	}

	applyDominance(&g, dominance)
	return g
}

func heroGeometry() templateGeometry {
	return templateGeometry{
		imageFrames: []domain.Rect{
			{X: 0, Y: 0, W: 1, H: 1},
		},
		textFrames: map[domain.TextRole]domain.Rect{
			domain.TextRoleHeadline:    {X: 0.08, Y: 0.58, W: 0.84, H: 0.14},
			domain.TextRoleSubheadline: {X: 0.08, Y: 0.74, W: 0.7, H: 0.08},
			domain.TextRoleBody:        {X: 0.08, Y: 0.84, W: 0.6, H: 0.06},
			domain.TextRoleCTA:         {X: 0.08, Y: 0.91, W: 0.3, H: 0.06},
		},
		textSizes: map[domain.TextRole]int{
			domain.TextRoleHeadline:    64,
			domain.TextRoleSubheadline: 28,
			domain.TextRoleBody:        18,
			domain.TextRoleCTA:         22,
		},
		imageFilter: "darken",
	}
}

func gridGeometry() templateGeometry {
	const gap = 0.02
	cell := (1.0 - 3*gap) / 2
	top := 0.26

	frames := make([]domain.Rect, 0, 4)
	for row := 0; row < 2; row++ {
		for col := 0; col < 2; col++ {
			frames = append(frames, domain.Rect{
				X: gap + float64(col)*(cell+gap),
				Y: top + float64(row)*(cell*0.6+gap),
				W: cell,
				H: cell * 0.6,
			})
		}
	}

	return templateGeometry{
		imageFrames: frames,
		textFrames: map[domain.TextRole]domain.Rect{
			domain.TextRoleHeadline:    {X: 0.06, Y: 0.05, W: 0.88, H: 0.1},
			domain.TextRoleSubheadline: {X: 0.06, Y: 0.16, W: 0.7, H: 0.06},
			domain.TextRoleBody:        {X: 0.06, Y: 0.86, W: 0.88, H: 0.06},
			domain.TextRoleCTA:         {X: 0.36, Y: 0.93, W: 0.28, H: 0.05},
		},
		textSizes: map[domain.TextRole]int{
			domain.TextRoleHeadline:    48,
			domain.TextRoleSubheadline: 24,
			domain.TextRoleBody:        16,
			domain.TextRoleCTA:         20,
		},
	}
}

func collageGeometry() templateGeometry {
	return templateGeometry{
		imageFrames: []domain.Rect{
			{X: 0.02, Y: 0.02, W: 0.58, H: 0.5},
			{X: 0.62, Y: 0.02, W: 0.36, H: 0.3},
			{X: 0.62, Y: 0.34, W: 0.36, H: 0.18},
			{X: 0.02, Y: 0.54, W: 0.3, H: 0.24},
			{X: 0.34, Y: 0.54, W: 0.26, H: 0.24},
		},
		textFrames: map[domain.TextRole]domain.Rect{
			domain.TextRoleHeadline:    {X: 0.06, Y: 0.82, W: 0.88, H: 0.1},
			domain.TextRoleSubheadline: {X: 0.64, Y: 0.58, W: 0.32, H: 0.12},
			domain.TextRoleBody:        {X: 0.64, Y: 0.7, W: 0.32, H: 0.08},
			domain.TextRoleCTA:         {X: 0.06, Y: 0.93, W: 0.26, H: 0.05},
		},
		textSizes: map[domain.TextRole]int{
			domain.TextRoleHeadline:    44,
			domain.TextRoleSubheadline: 22,
			domain.TextRoleBody:        16,
			domain.TextRoleCTA:         20,
		},
	}
}

func splitGeometry() templateGeometry {
	return templateGeometry{
		imageFrames: []domain.Rect{
			{X: 0, Y: 0, W: 0.5, H: 1},
		},
		textFrames: map[domain.TextRole]domain.Rect{
			domain.TextRoleHeadline:    {X: 0.56, Y: 0.2, W: 0.38, H: 0.16},
			domain.TextRoleSubheadline: {X: 0.56, Y: 0.38, W: 0.38, H: 0.1},
			domain.TextRoleBody:        {X: 0.56, Y: 0.5, W: 0.38, H: 0.18},
			domain.TextRoleCTA:         {X: 0.56, Y: 0.72, W: 0.24, H: 0.07},
		},
		textSizes: map[domain.TextRole]int{
			domain.TextRoleHeadline:    52,
			domain.TextRoleSubheadline: 26,
			domain.TextRoleBody:        18,
			domain.TextRoleCTA:         22,
		},
	}
}

func overlayGeometry() templateGeometry {
	return templateGeometry{
		imageFrames: []domain.Rect{
			{X: 0, Y: 0, W: 1, H: 1},
		},
		textFrames: map[domain.TextRole]domain.Rect{
			domain.TextRoleHeadline:    {X: 0.1, Y: 0.36, W: 0.8, H: 0.16},
			domain.TextRoleSubheadline: {X: 0.15, Y: 0.54, W: 0.7, H: 0.08},
			domain.TextRoleBody:        {X: 0.2, Y: 0.64, W: 0.6, H: 0.08},
			domain.TextRoleCTA:         {X: 0.38, Y: 0.76, W: 0.24, H: 0.06},
		},
		textSizes: map[domain.TextRole]int{
			domain.TextRoleHeadline:    68,
			domain.TextRoleSubheadline: 30,
			domain.TextRoleBody:        18,
			domain.TextRoleCTA:         24,
		},
		imageFilter: "darken",
	}
}

func magazineGeometry() templateGeometry {
	return templateGeometry{
		imageFrames: []domain.Rect{
			{X: 0, Y: 0, W: 1, H: 0.58},
			{X: 0.68, Y: 0.62, W: 0.26, H: 0.2},
		},
		textFrames: map[domain.TextRole]domain.Rect{
			domain.TextRoleHeadline:    {X: 0.06, Y: 0.62, W: 0.58, H: 0.12},
			domain.TextRoleSubheadline: {X: 0.06, Y: 0.76, W: 0.58, H: 0.06},
			domain.TextRoleBody:        {X: 0.06, Y: 0.84, W: 0.88, H: 0.1},
			domain.TextRoleCTA:         {X: 0.06, Y: 0.95, W: 0.22, H: 0.04},
		},
		textSizes: map[domain.TextRole]int{
			domain.TextRoleHeadline:    46,
			domain.TextRoleSubheadline: 22,
			domain.TextRoleBody:        16,
			domain.TextRoleCTA:         18,
		},
	}
}

// applyDominance trims or scales the text plan: minimal keeps headline and
// CTA only, balanced drops long body copy, heavy keeps everything and
// bumps sizes.
func applyDominance(g *templateGeometry, dominance domain.TextDominance) {
	switch dominance {
	case domain.TextDominanceMinimal:
		delete(g.textFrames, domain.TextRoleSubheadline)
		delete(g.textFrames, domain.TextRoleBody)
	case domain.TextDominanceHeavy:
		for role, size := range g.textSizes {
			g.textSizes[role] = size + size/5
		}
	default: // balanced
		delete(g.textFrames, domain.TextRoleBody)
	}
}

// archetypeAffinity grades how well an archetype suits a format's aspect
// ratio. Feeds the performance prediction.
func archetypeAffinity(archetype domain.LayoutArchetype, format domain.ChannelFormat) float64 {
	ratio := format.AspectRatio()

	switch archetype {
	case domain.ArchetypeSplit, domain.ArchetypeMagazine:
		// Side-by-side plans need width
		if ratio >= 1.2 {
			return 1.0
		}
		if ratio >= 0.9 {
			return 0.7
		}
		return 0.4
	case domain.ArchetypeGrid, domain.ArchetypeCollage:
		// Multi-slot plans want room in both axes
		if ratio >= 0.8 && ratio <= 1.4 {
			return 1.0
		}
		return 0.6
	case domain.ArchetypeOverlay:
		// Works everywhere, shines on tall formats
		if ratio < 0.8 {
			return 1.0
		}
		return 0.8
	default: // hero
		return 0.9
	}
}
