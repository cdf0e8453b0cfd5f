package layout

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"studio_server/core/domain"
)

// Engine turns one generation request into a set of layout candidates.
// It is pure: the same request, asset set and analysis always produce the
// same candidates in the same order.
type Engine struct{}

// NewEngine creates a layout engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Generate builds formats x preferences candidates. Assets are assigned
// best-match first with request priority assets ahead of everything else;
// slots left over when assets run out get the placeholder id.
func (e *Engine) Generate(req *domain.LayoutGenerationRequest, assets []*domain.Asset, intel *domain.VisualIntelligence) []*domain.LayoutVariation {
	prefs := req.Preferences
	if len(prefs) == 0 {
		prefs = make([]domain.TemplatePreference, 0, len(defaultArchetypes))
		for _, a := range defaultArchetypes {
			prefs = append(prefs, domain.TemplatePreference{Layout: a})
		}
	}

	ordered := orderAssets(req, assets, intel)

	variations := make([]*domain.LayoutVariation, 0, len(req.Formats)*len(prefs))
	for _, format := range req.Formats {
		for _, pref := range prefs {
			variations = append(variations, e.buildVariation(req, format, pref, ordered, intel))
		}
	}

	sortVariations(variations)
	return variations
}

// Predict rescores a single variation, used after edits flip the dirty
// flag. Prediction ignores the request context it no longer has: it grades
// the composition itself plus the match scores of its assigned assets.
func (e *Engine) Predict(v *domain.LayoutVariation, intel *domain.VisualIntelligence) float64 {
	affinity := archetypeAffinity(v.Archetype, v.Format)
	return predict(v, intel, affinity)
}

func (e *Engine) buildVariation(req *domain.LayoutGenerationRequest, format domain.ChannelFormat, pref domain.TemplatePreference, ordered []*domain.Asset, intel *domain.VisualIntelligence) *domain.LayoutVariation {
	dominance := pref.TextDominance
	if dominance == "" {
		dominance = domain.TextDominanceBalanced
	}
	schemeKind := pref.ColorScheme
	if schemeKind == "" {
		schemeKind = domain.SchemeBrand
	}

	geometry := geometryFor(pref.Layout, dominance)
	scheme := BuildColorScheme(schemeKind, req.BrandGuidelines.Colors)

	v := &domain.LayoutVariation{
		Format:        format,
		Archetype:     pref.Layout,
		TextDominance: dominance,
		Scheme:        scheme,
	}
	if v.Archetype == "" {
		v.Archetype = domain.ArchetypeHero
	}

	v.Images = placeImages(geometry, ordered, &req.BrandGuidelines)
	v.Texts = placeTexts(geometry, format, scheme, &req.Copy, &req.BrandGuidelines)

	affinity := archetypeAffinity(v.Archetype, format)
	v.PerformancePrediction = predict(v, intel, affinity)
	v.Reasoning = buildReasoning(v, pref, affinity)
	return v
}

// placeImages fills the template's image frames with the ordered asset
// list, one asset per slot, placeholders once assets run out. A logo slot
// is appended when the guidelines require one.
func placeImages(g templateGeometry, ordered []*domain.Asset, guidelines *domain.BrandGuidelines) []domain.ImagePlacement {
	placements := make([]domain.ImagePlacement, 0, len(g.imageFrames)+1)
	for i, frame := range g.imageFrames {
		p := domain.ImagePlacement{
			AssetID: domain.PlaceholderAssetID,
			Role:    "image",
			Frame:   frame,
			Opacity: 1,
			ZOrder:  i,
		}
		if i < len(ordered) {
			p.AssetID = ordered[i].ID
		}
		if i == 0 && g.imageFilter != "" {
			p.Filter = g.imageFilter
		}
		placements = append(placements, p)
	}

	if guidelines.Logo.Required {
		placements = append(placements, placeLogo(&guidelines.Logo, len(placements)))
	}
	return placements
}

// placeLogo positions the brand mark top-right, sized to the guideline
// minimum and inset far enough to satisfy the clear-space rule.
func placeLogo(logo *domain.BrandLogo, zOrder int) domain.ImagePlacement {
	w := logo.MinSizeRatio
	if w < 0.1 {
		w = 0.1
	}
	inset := logo.ClearSpaceRatio * w
	if inset < 0.04 {
		inset = 0.04
	}

	assetID := logo.PrimaryURL
	if assetID == "" {
		assetID = domain.PlaceholderAssetID
	}

	return domain.ImagePlacement{
		AssetID: assetID,
		Role:    "logo",
		Frame:   domain.Rect{X: 1 - inset - w, Y: inset, W: w, H: w * 0.5},
		Opacity: 1,
		ZOrder:  zOrder + 10,
	}
}

// placeTexts fills the template's copy frames from the deck. Roles with no
// copy still get a placement so editors see the slot; legal copy is added
// when the guidelines require a disclaimer. Each slot gets a character
// budget derived from the format and its frame, and copy over budget is
// truncated on a word boundary.
func placeTexts(g templateGeometry, format domain.ChannelFormat, scheme domain.ColorScheme, deck *domain.CopyDeck, guidelines *domain.BrandGuidelines) []domain.TextPlacement {
	color := scheme.Text
	if g.imageFilter == "darken" {
		color = "#ffffff"
	}

	headingFont := guidelines.Fonts.Heading
	bodyFont := guidelines.Fonts.Body
	if bodyFont == "" {
		bodyFont = headingFont
	}

	// Fixed role order keeps output deterministic regardless of map order
	roleOrder := []domain.TextRole{
		domain.TextRoleHeadline,
		domain.TextRoleSubheadline,
		domain.TextRoleBody,
		domain.TextRoleCTA,
	}

	placements := make([]domain.TextPlacement, 0, len(g.textFrames)+1)
	for i, role := range roleOrder {
		frame, ok := g.textFrames[role]
		if !ok {
			continue
		}
		budget := slotCharBudget(format, frame, g.textSizes[role])
		p := domain.TextPlacement{
			Role:     role,
			Content:  truncateCopy(copyForRole(deck, role), budget),
			Frame:    frame,
			FontSize: g.textSizes[role],
			Color:    color,
			MaxChars: budget,
			ZOrder:   100 + i,
		}
		switch role {
		case domain.TextRoleHeadline:
			p.FontFamily = headingFont
			p.FontWeight = "bold"
		case domain.TextRoleCTA:
			p.FontFamily = headingFont
			p.FontWeight = "semibold"
			p.Color = scheme.Accent
		default:
			p.FontFamily = bodyFont
		}
		placements = append(placements, p)
	}

	if guidelines.Legal.DisclaimerRequired {
		content := deck.LegalCopy
		if content == "" {
			content = guidelines.Legal.DisclaimerText
		}
		size := guidelines.Legal.MinFontSize
		if size < 10 {
			size = 10
		}
		frame := domain.Rect{X: 0.05, Y: 0.96, W: 0.9, H: 0.03}
		budget := slotCharBudget(format, frame, size)
		placements = append(placements, domain.TextPlacement{
			Role:       domain.TextRoleLegal,
			Content:    truncateCopy(content, budget),
			Frame:      frame,
			FontFamily: bodyFont,
			FontSize:   size,
			Color:      color,
			MaxChars:   budget,
			ZOrder:     110,
		})
	}

	return placements
}

// Character-budget model. Font sizes are pt on a 1080px-wide canvas, so a
// slot's line capacity depends only on its width fraction while its line
// count scales with the format's aspect ratio.
const (
	canvasRefWidth = 1080.0
	avgGlyphWidth  = 0.55 // em per character, roman text average
	lineHeight     = 1.3  // em per line
	minSlotChars   = 8
)

// slotCharBudget derives how many characters a text slot can hold before
// copy would overflow its frame at the assigned font size.
func slotCharBudget(format domain.ChannelFormat, frame domain.Rect, fontSize int) int {
	if fontSize <= 0 {
		return 0
	}
	aspect := format.AspectRatio()
	if aspect <= 0 {
		// Unknown format: treat the canvas as square.
		aspect = 1
	}
	charsPerLine := frame.W * canvasRefWidth / (avgGlyphWidth * float64(fontSize))
	lines := math.Floor(frame.H * canvasRefWidth / (lineHeight * float64(fontSize) * aspect))
	if lines < 1 {
		lines = 1
	}
	budget := int(charsPerLine * lines)
	if budget < minSlotChars {
		budget = minSlotChars
	}
	return budget
}

// truncateCopy cuts content to at most max runes, preferring the last word
// boundary and marking the cut with an ellipsis. max <= 0 means unlimited.
func truncateCopy(content string, max int) string {
	if max <= 0 {
		return content
	}
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	cut := max - 1 // leave room for the ellipsis
	for i := cut; i > 0; i-- {
		if runes[i] == ' ' {
			cut = i
			break
		}
	}
	for cut > 0 && runes[cut-1] == ' ' {
		cut--
	}
	return string(runes[:cut]) + "…"
}

func copyForRole(deck *domain.CopyDeck, role domain.TextRole) string {
	switch role {
	case domain.TextRoleHeadline:
		return deck.Headline
	case domain.TextRoleSubheadline:
		return deck.Subheadline
	case domain.TextRoleBody:
		return deck.Body
	case domain.TextRoleCTA:
		return deck.CTA
	default:
		return ""
	}
}

// orderAssets ranks request assets for slot assignment: priority assets in
// their given order, then the rest by match score descending with asset id
// as tiebreak. Only visual media is placeable.
func orderAssets(req *domain.LayoutGenerationRequest, assets []*domain.Asset, intel *domain.VisualIntelligence) []*domain.Asset {
	priority := make(map[string]int, len(req.PriorityAssetIDs))
	for i, id := range req.PriorityAssetIDs {
		priority[id] = i
	}

	placeable := make([]*domain.Asset, 0, len(assets))
	for _, a := range assets {
		if a == nil {
			continue
		}
		if a.Kind != domain.AssetKindImage && a.Kind != domain.AssetKindVideo {
			continue
		}
		placeable = append(placeable, a)
	}

	sort.SliceStable(placeable, func(i, j int) bool {
		pi, iOK := priority[placeable[i].ID]
		pj, jOK := priority[placeable[j].ID]
		if iOK != jOK {
			return iOK
		}
		if iOK && jOK {
			return pi < pj
		}
		mi, mj := intel.MatchFor(placeable[i].ID), intel.MatchFor(placeable[j].ID)
		if mi != mj {
			return mi > mj
		}
		return placeable[i].ID < placeable[j].ID
	})
	return placeable
}

// predict grades a candidate 0-100 from format fit, assigned-asset match
// quality, slot fill, copy completeness and how well the text coverage
// lands in the band its dominance setting asks for.
func predict(v *domain.LayoutVariation, intel *domain.VisualIntelligence, affinity float64) float64 {
	matchSum, slots, filled := 0.0, 0, 0
	for i := range v.Images {
		if v.Images[i].Role == "logo" {
			continue
		}
		slots++
		if !v.Images[i].IsPlaceholder() {
			filled++
			if intel != nil {
				matchSum += intel.MatchFor(v.Images[i].AssetID) / 100
			} else {
				// No analysis in scope (post-edit rescore): neutral credit
				matchSum += 0.7
			}
		}
	}

	matchMean := 0.0
	fillRatio := 0.0
	if slots > 0 {
		fillRatio = float64(filled) / float64(slots)
	}
	if filled > 0 {
		matchMean = matchSum / float64(filled)
	}

	copySlots, copyFilled := 0, 0
	for i := range v.Texts {
		if v.Texts[i].Role == domain.TextRoleLegal {
			continue
		}
		copySlots++
		if strings.TrimSpace(v.Texts[i].Content) != "" {
			copyFilled++
		}
	}
	copyRatio := 1.0
	if copySlots > 0 {
		copyRatio = float64(copyFilled) / float64(copySlots)
	}

	fit := dominanceFit(v.TextDominance, v.TextCoverage())

	score := 100 * (0.20*affinity + 0.30*matchMean + 0.25*fillRatio + 0.15*copyRatio + 0.10*fit)
	return math.Round(score*10) / 10
}

// dominanceFit scores 0-1 how close the layout's actual text coverage sits
// to the band its dominance setting targets. Inside the band is a full
// score; outside decays linearly and bottoms out a quarter-canvas away.
func dominanceFit(dominance domain.TextDominance, coverage float64) float64 {
	var lo, hi float64
	switch dominance {
	case domain.TextDominanceMinimal:
		lo, hi = 0, 0.12
	case domain.TextDominanceHeavy:
		lo, hi = 0.30, 0.60
	default:
		lo, hi = 0.12, 0.30
	}
	var dist float64
	switch {
	case coverage < lo:
		dist = lo - coverage
	case coverage > hi:
		dist = coverage - hi
	}
	fit := 1 - dist/0.25
	if fit < 0 {
		fit = 0
	}
	return fit
}

func buildReasoning(v *domain.LayoutVariation, pref domain.TemplatePreference, affinity float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s composition for %s", v.Archetype, v.Format)
	if pref.Style != "" {
		fmt.Fprintf(&b, " in a %s style", pref.Style)
	}
	fmt.Fprintf(&b, "; %s color scheme", v.Scheme.Kind)

	if n := v.PlaceholderCount(); n > 0 {
		fmt.Fprintf(&b, "; %d slot(s) await assets", n)
	}
	switch {
	case affinity >= 0.9:
		b.WriteString("; strong fit for this format's aspect ratio")
	case affinity <= 0.5:
		b.WriteString("; aspect ratio is a stretch for this template")
	}
	return b.String()
}

// sortVariations orders candidates best-first and deterministically:
// prediction descending, then format, archetype and scheme as tiebreaks.
func sortVariations(variations []*domain.LayoutVariation) {
	sort.SliceStable(variations, func(i, j int) bool {
		a, b := variations[i], variations[j]
		if a.PerformancePrediction != b.PerformancePrediction {
			return a.PerformancePrediction > b.PerformancePrediction
		}
		if a.Format != b.Format {
			return a.Format < b.Format
		}
		if a.Archetype != b.Archetype {
			return a.Archetype < b.Archetype
		}
		return a.Scheme.Kind < b.Scheme.Kind
	})
}
