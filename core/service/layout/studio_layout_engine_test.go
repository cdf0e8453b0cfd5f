package layout

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"studio_server/core/domain"
	"studio_server/core/service/vision"
)

func testAssets(n int) []*domain.Asset {
	assets := make([]*domain.Asset, 0, n)
	names := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot"}
	for i := 0; i < n; i++ {
		assets = append(assets, &domain.Asset{
			ID:   "asset_" + names[i%len(names)],
			Kind: domain.AssetKindImage,
		})
	}
	return assets
}

func testIntel(assets []*domain.Asset) *domain.VisualIntelligence {
	intel := &domain.VisualIntelligence{}
	for i, a := range assets {
		intel.Matches = append(intel.Matches, domain.AssetMatch{
			AssetID:    a.ID,
			MatchScore: float64(90 - i*10),
		})
	}
	return intel
}

func testRequest(formats ...domain.ChannelFormat) *domain.LayoutGenerationRequest {
	return &domain.LayoutGenerationRequest{
		Territory: domain.Territory{ID: "terr-1", Title: "Bold Mornings"},
		Formats:   formats,
		BrandGuidelines: domain.BrandGuidelines{
			Colors: domain.BrandColors{Primary: "#2244cc", Secondary: "#88aaff"},
		},
		Copy: domain.CopyDeck{Headline: "Start bold", CTA: "Shop now"},
	}
}

func TestGeometrySlotCounts(t *testing.T) {
	tests := []struct {
		archetype  domain.LayoutArchetype
		imageSlots int
	}{
		{domain.ArchetypeHero, 1},
		{domain.ArchetypeGrid, 4},
		{domain.ArchetypeCollage, 5},
		{domain.ArchetypeSplit, 1},
		{domain.ArchetypeOverlay, 1},
		{domain.ArchetypeMagazine, 2},
	}

	for _, tt := range tests {
		t.Run(string(tt.archetype), func(t *testing.T) {
			g := geometryFor(tt.archetype, domain.TextDominanceBalanced)
			if len(g.imageFrames) != tt.imageSlots {
				t.Errorf("image slots = %d, want %d", len(g.imageFrames), tt.imageSlots)
			}
			for i, f := range g.imageFrames {
				if f.X < 0 || f.Y < 0 || f.X+f.W > 1.0001 || f.Y+f.H > 1.0001 {
					t.Errorf("frame %d out of canvas: %+v", i, f)
				}
			}
		})
	}
}

func TestGeometryTextDominance(t *testing.T) {
	minimal := geometryFor(domain.ArchetypeHero, domain.TextDominanceMinimal)
	if _, ok := minimal.textFrames[domain.TextRoleBody]; ok {
		t.Error("minimal dominance should drop body copy")
	}
	if _, ok := minimal.textFrames[domain.TextRoleSubheadline]; ok {
		t.Error("minimal dominance should drop the subheadline")
	}
	if _, ok := minimal.textFrames[domain.TextRoleHeadline]; !ok {
		t.Error("minimal dominance must keep the headline")
	}

	balanced := geometryFor(domain.ArchetypeHero, domain.TextDominanceBalanced)
	if _, ok := balanced.textFrames[domain.TextRoleBody]; ok {
		t.Error("balanced dominance should drop body copy")
	}

	heavy := geometryFor(domain.ArchetypeHero, domain.TextDominanceHeavy)
	if _, ok := heavy.textFrames[domain.TextRoleBody]; !ok {
		t.Error("heavy dominance must keep body copy")
	}
	if heavy.textSizes[domain.TextRoleHeadline] <= balanced.textSizes[domain.TextRoleHeadline] {
		t.Error("heavy dominance should scale text up")
	}
}

func TestGenerateCandidateCount(t *testing.T) {
	req := testRequest(domain.FormatInstagramPost, domain.FormatHeroBanner)
	req.Preferences = []domain.TemplatePreference{
		{Layout: domain.ArchetypeHero},
		{Layout: domain.ArchetypeGrid, ColorScheme: domain.SchemeMuted},
		{Layout: domain.ArchetypeSplit, TextDominance: domain.TextDominanceHeavy},
	}

	got := NewEngine().Generate(req, nil, &domain.VisualIntelligence{})
	if len(got) != 6 {
		t.Fatalf("candidates = %d, want formats x preferences = 6", len(got))
	}
}

func TestGenerateDefaultPreferences(t *testing.T) {
	req := testRequest(domain.FormatInstagramPost)
	got := NewEngine().Generate(req, nil, &domain.VisualIntelligence{})
	if len(got) != len(defaultArchetypes) {
		t.Fatalf("candidates = %d, want %d defaults", len(got), len(defaultArchetypes))
	}
}

func TestGeneratePlaceholders(t *testing.T) {
	tests := []struct {
		name             string
		assets           int
		wantPlaceholders int
	}{
		{"no assets", 0, 4},
		{"fewer assets than slots", 2, 2},
		{"exact fill", 4, 0},
		{"surplus assets", 6, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest(domain.FormatInstagramPost)
			req.Preferences = []domain.TemplatePreference{{Layout: domain.ArchetypeGrid}}
			assets := testAssets(tt.assets)

			got := NewEngine().Generate(req, assets, testIntel(assets))
			if len(got) != 1 {
				t.Fatalf("candidates = %d, want 1", len(got))
			}
			if n := got[0].PlaceholderCount(); n != tt.wantPlaceholders {
				t.Errorf("placeholders = %d, want %d", n, tt.wantPlaceholders)
			}
		})
	}
}

func TestGenerateDeterministic(t *testing.T) {
	req := testRequest(domain.FormatInstagramPost, domain.FormatInstagramStory)
	req.Preferences = []domain.TemplatePreference{
		{Layout: domain.ArchetypeHero, ColorScheme: domain.SchemeComplementary},
		{Layout: domain.ArchetypeCollage},
	}
	assets := testAssets(3)
	intel := testIntel(assets)

	e := NewEngine()
	first := e.Generate(req, assets, intel)
	second := e.Generate(req, assets, intel)

	if !reflect.DeepEqual(first, second) {
		t.Error("two runs over the same inputs produced different candidates")
	}
}

func TestGenerateSortedByPrediction(t *testing.T) {
	req := testRequest(domain.FormatInstagramPost, domain.FormatHeroBanner, domain.FormatInstagramStory)
	req.Preferences = []domain.TemplatePreference{
		{Layout: domain.ArchetypeSplit},
		{Layout: domain.ArchetypeOverlay},
		{Layout: domain.ArchetypeGrid},
	}
	assets := testAssets(2)

	got := NewEngine().Generate(req, assets, testIntel(assets))
	for i := 1; i < len(got); i++ {
		if got[i].PerformancePrediction > got[i-1].PerformancePrediction {
			t.Fatalf("candidate %d outranks its predecessor: %.1f > %.1f",
				i, got[i].PerformancePrediction, got[i-1].PerformancePrediction)
		}
	}
}

func TestGenerateAssignsBestMatchesFirst(t *testing.T) {
	req := testRequest(domain.FormatInstagramPost)
	req.Preferences = []domain.TemplatePreference{{Layout: domain.ArchetypeHero}}
	assets := testAssets(3)
	intel := &domain.VisualIntelligence{Matches: []domain.AssetMatch{
		{AssetID: assets[0].ID, MatchScore: 10},
		{AssetID: assets[1].ID, MatchScore: 95},
		{AssetID: assets[2].ID, MatchScore: 40},
	}}

	got := NewEngine().Generate(req, assets, intel)
	if got[0].Images[0].AssetID != assets[1].ID {
		t.Errorf("hero slot got %s, want best match %s", got[0].Images[0].AssetID, assets[1].ID)
	}
}

func TestGeneratePriorityAssetsLead(t *testing.T) {
	req := testRequest(domain.FormatInstagramPost)
	req.Preferences = []domain.TemplatePreference{{Layout: domain.ArchetypeHero}}
	assets := testAssets(3)
	req.PriorityAssetIDs = []string{assets[2].ID}

	got := NewEngine().Generate(req, assets, testIntel(assets))
	if got[0].Images[0].AssetID != assets[2].ID {
		t.Errorf("hero slot got %s, want priority asset %s", got[0].Images[0].AssetID, assets[2].ID)
	}
}

func TestGenerateLogoSlot(t *testing.T) {
	req := testRequest(domain.FormatInstagramPost)
	req.Preferences = []domain.TemplatePreference{{Layout: domain.ArchetypeHero}}
	req.BrandGuidelines.Logo = domain.BrandLogo{Required: true, MinSizeRatio: 0.15}

	got := NewEngine().Generate(req, nil, &domain.VisualIntelligence{})

	var logo *domain.ImagePlacement
	for i := range got[0].Images {
		if got[0].Images[i].Role == "logo" {
			logo = &got[0].Images[i]
			break
		}
	}
	if logo == nil {
		t.Fatal("required logo produced no logo slot")
	}
	if logo.Frame.W < 0.15 {
		t.Errorf("logo width = %.2f, below the guideline minimum", logo.Frame.W)
	}
}

func TestGenerateLegalPlacement(t *testing.T) {
	req := testRequest(domain.FormatInstagramPost)
	req.Preferences = []domain.TemplatePreference{{Layout: domain.ArchetypeSplit}}
	req.BrandGuidelines.Legal = domain.BrandLegal{
		DisclaimerRequired: true,
		DisclaimerText:     "Terms apply.",
		MinFontSize:        12,
	}

	got := NewEngine().Generate(req, nil, &domain.VisualIntelligence{})

	found := false
	for _, txt := range got[0].Texts {
		if txt.Role == domain.TextRoleLegal {
			found = true
			if txt.Content != "Terms apply." {
				t.Errorf("legal content = %q", txt.Content)
			}
			if txt.FontSize < 12 {
				t.Errorf("legal font size = %d, want >= 12", txt.FontSize)
			}
		}
	}
	if !found {
		t.Fatal("required disclaimer produced no legal placement")
	}
}

func TestTextSlotsCarryCharBudgets(t *testing.T) {
	long := strings.Repeat("bold mornings start here ", 40)
	req := testRequest(domain.FormatInstagramPost)
	req.Preferences = []domain.TemplatePreference{{Layout: domain.ArchetypeHero}}
	req.Copy = domain.CopyDeck{Headline: long, CTA: "Shop now"}

	got := NewEngine().Generate(req, nil, &domain.VisualIntelligence{})
	for _, txt := range got[0].Texts {
		if txt.MaxChars <= 0 {
			t.Errorf("%s slot has no character budget", txt.Role)
			continue
		}
		if n := len([]rune(txt.Content)); n > txt.MaxChars {
			t.Errorf("%s content is %d chars, budget %d", txt.Role, n, txt.MaxChars)
		}
	}

	head := got[0].Texts[0]
	if head.Role != domain.TextRoleHeadline {
		t.Fatalf("first slot is %s, want headline", head.Role)
	}
	if !strings.HasSuffix(head.Content, "…") {
		t.Errorf("overlong headline was not truncated: %q", head.Content)
	}
}

func TestSlotCharBudgetScalesWithFormat(t *testing.T) {
	frame := domain.Rect{X: 0.1, Y: 0.1, W: 0.8, H: 0.2}

	square := slotCharBudget(domain.FormatInstagramPost, frame, 32)
	tall := slotCharBudget(domain.FormatInstagramStory, frame, 32)
	if tall <= square {
		t.Errorf("story budget %d not above post budget %d for the same frame", tall, square)
	}

	small := slotCharBudget(domain.FormatInstagramPost, domain.Rect{W: 0.05, H: 0.01}, 64)
	if small < minSlotChars {
		t.Errorf("tiny slot budget %d below floor %d", small, minSlotChars)
	}
}

func TestTruncateCopy(t *testing.T) {
	tests := []struct {
		name    string
		content string
		max     int
		want    string
	}{
		{"fits", "Shop now", 20, "Shop now"},
		{"unlimited", "anything goes here", 0, "anything goes here"},
		{"word boundary", "start bold every morning", 15, "start bold…"},
		{"no space to break on", "unbreakablecontent", 10, "unbreakab…"},
		{"multibyte", "café au lait préparé", 12, "café au…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateCopy(tt.content, tt.max); got != tt.want {
				t.Errorf("truncateCopy(%q, %d) = %q, want %q", tt.content, tt.max, got, tt.want)
			}
		})
	}
}

func TestDominanceFitBands(t *testing.T) {
	tests := []struct {
		name      string
		dominance domain.TextDominance
		coverage  float64
		want      float64
	}{
		{"minimal in band", domain.TextDominanceMinimal, 0.05, 1},
		{"minimal overgrown", domain.TextDominanceMinimal, 0.37, 0},
		{"balanced in band", domain.TextDominanceBalanced, 0.20, 1},
		{"heavy in band", domain.TextDominanceHeavy, 0.45, 1},
		{"heavy starved", domain.TextDominanceHeavy, 0.05, 0},
		{"unset defaults to balanced", "", 0.20, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dominanceFit(tt.dominance, tt.coverage); got != tt.want {
				t.Errorf("fit = %.2f, want %.2f", got, tt.want)
			}
		})
	}
}

func TestPredictPenalizesDominanceMismatch(t *testing.T) {
	texts := []domain.TextPlacement{
		{Role: domain.TextRoleHeadline, Content: "Start bold", Frame: domain.Rect{W: 0.9, H: 0.3}},
		{Role: domain.TextRoleBody, Content: "Every morning", Frame: domain.Rect{W: 0.9, H: 0.2}},
	}
	heavy := &domain.LayoutVariation{
		Format:        domain.FormatInstagramPost,
		Archetype:     domain.ArchetypeOverlay,
		TextDominance: domain.TextDominanceHeavy,
		Texts:         texts,
	}
	minimal := &domain.LayoutVariation{
		Format:        domain.FormatInstagramPost,
		Archetype:     domain.ArchetypeOverlay,
		TextDominance: domain.TextDominanceMinimal,
		Texts:         texts,
	}

	e := NewEngine()
	if hs, ms := e.Predict(heavy, nil), e.Predict(minimal, nil); hs <= ms {
		t.Errorf("text-heavy composition scored %.1f as heavy vs %.1f as minimal; coverage mismatch went unpenalized", hs, ms)
	}
}

func TestPredictBounds(t *testing.T) {
	req := testRequest(domain.FormatInstagramPost, domain.FormatA4Portrait, domain.FormatEmailHeader)
	req.Preferences = []domain.TemplatePreference{
		{Layout: domain.ArchetypeHero},
		{Layout: domain.ArchetypeCollage},
		{Layout: domain.ArchetypeMagazine},
	}
	assets := testAssets(5)

	for _, v := range NewEngine().Generate(req, assets, testIntel(assets)) {
		if v.PerformancePrediction < 0 || v.PerformancePrediction > 100 {
			t.Errorf("%s/%s prediction = %.1f, want 0-100", v.Format, v.Archetype, v.PerformancePrediction)
		}
	}
}

func TestBuildColorSchemePure(t *testing.T) {
	colors := domain.BrandColors{Primary: "#3366cc", Secondary: "#99bbee", Accent: "#ff6600"}
	for _, kind := range []domain.ColorSchemeKind{
		domain.SchemeBrand, domain.SchemeComplementary, domain.SchemeMonochromatic,
		domain.SchemeVibrant, domain.SchemeMuted,
	} {
		a := BuildColorScheme(kind, colors)
		b := BuildColorScheme(kind, colors)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("%s: scheme transform is not pure", kind)
		}
	}
}

func TestBuildColorSchemeComplementary(t *testing.T) {
	scheme := BuildColorScheme(domain.SchemeComplementary, domain.BrandColors{Primary: "#0000ff"})

	ph, _, _, ok := vision.HexToHSL(scheme.Primary)
	if !ok {
		t.Fatalf("primary %q did not parse", scheme.Primary)
	}
	ah, _, _, ok := vision.HexToHSL(scheme.Accent)
	if !ok {
		t.Fatalf("accent %q did not parse", scheme.Accent)
	}

	diff := math.Abs(math.Mod(ah-ph+360, 360) - 180)
	if diff > 5 {
		t.Errorf("accent hue %.0f is not opposite primary hue %.0f", ah, ph)
	}
}

func TestBuildColorSchemeMuted(t *testing.T) {
	colors := domain.BrandColors{Primary: "#ff2200"}
	brand := BuildColorScheme(domain.SchemeBrand, colors)
	muted := BuildColorScheme(domain.SchemeMuted, colors)

	_, bs, _, _ := vision.HexToHSL(brand.Primary)
	_, ms, _, ok := vision.HexToHSL(muted.Primary)
	if !ok {
		t.Fatalf("muted primary %q did not parse", muted.Primary)
	}
	if ms >= bs {
		t.Errorf("muted saturation %.2f not below brand %.2f", ms, bs)
	}
}

func TestArchetypeAffinityRange(t *testing.T) {
	formats := []domain.ChannelFormat{
		domain.FormatInstagramPost, domain.FormatInstagramStory, domain.FormatHeroBanner,
	}
	archetypes := []domain.LayoutArchetype{
		domain.ArchetypeHero, domain.ArchetypeGrid, domain.ArchetypeCollage,
		domain.ArchetypeSplit, domain.ArchetypeOverlay, domain.ArchetypeMagazine,
	}
	for _, f := range formats {
		for _, a := range archetypes {
			if aff := archetypeAffinity(a, f); aff <= 0 || aff > 1 {
				t.Errorf("affinity(%s, %s) = %.2f, want (0,1]", a, f, aff)
			}
		}
	}
}
