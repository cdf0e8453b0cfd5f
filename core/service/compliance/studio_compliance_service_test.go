package compliance

import (
	"context"
	"math"
	"strings"
	"testing"

	"studio_server/core/domain"
)

func fullyCompliantLayout() *domain.LayoutVariation {
	return &domain.LayoutVariation{
		ID:        "l1",
		Format:    domain.FormatInstagramPost,
		Archetype: domain.ArchetypeHero,
		Images: []domain.ImagePlacement{
			{AssetID: "asset_1", Frame: domain.Rect{X: 0, Y: 0, W: 1, H: 1}, Opacity: 1, ZOrder: 0},
			{AssetID: "asset_logo", Role: "logo", Frame: domain.Rect{X: 0.1, Y: 0.1, W: 0.2, H: 0.1}, Opacity: 1, ZOrder: 5},
		},
		Texts: []domain.TextPlacement{
			{Role: domain.TextRoleHeadline, Content: "Big Launch", Frame: domain.Rect{X: 0.1, Y: 0.55, W: 0.8, H: 0.15}, FontFamily: "Inter", FontSize: 48},
			{Role: domain.TextRoleLegal, Content: "Terms apply.", Frame: domain.Rect{X: 0.1, Y: 0.9, W: 0.5, H: 0.04}, FontFamily: "Inter", FontSize: 12},
		},
		Scheme: domain.ColorScheme{
			Kind:       domain.SchemeBrand,
			Background: "#ffffff",
			Primary:    "#2244cc",
			Text:       "#111111",
		},
	}
}

func strictGuidelines() *domain.BrandGuidelines {
	return &domain.BrandGuidelines{
		ID:     "bg1",
		Colors: domain.BrandColors{Primary: "#2244cc", Secondary: "#4466ee"},
		Fonts:  domain.BrandFonts{Heading: "Inter", Body: "Inter"},
		Logo:   domain.BrandLogo{Required: true, MinSizeRatio: 0.1, ClearSpaceRatio: 0.05},
		Spacing: domain.BrandSpacing{
			MarginRatio: 0.05,
			MaxCoverage: 0.8,
		},
		Legal: domain.BrandLegal{DisclaimerRequired: true, MinFontSize: 10},
	}
}

func TestScoreNeverFails(t *testing.T) {
	svc := NewService()

	tests := []struct {
		name       string
		layout     *domain.LayoutVariation
		guidelines *domain.BrandGuidelines
	}{
		{"nil layout", nil, strictGuidelines()},
		{"nil guidelines", fullyCompliantLayout(), nil},
		{"both nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := svc.Score(context.Background(), tt.layout, tt.guidelines)
			if err != nil {
				t.Fatalf("Score() error = %v, want nil", err)
			}
			if score == nil {
				t.Fatal("Score() returned nil score")
			}
			if len(score.Categories) != len(domain.ComplianceCategories) {
				t.Errorf("categories = %d, want %d", len(score.Categories), len(domain.ComplianceCategories))
			}
		})
	}
}

func TestScoreNoGuidelinesIsClean(t *testing.T) {
	svc := NewService()

	score, err := svc.Score(context.Background(), fullyCompliantLayout(), nil)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if score.Overall < 95 {
		t.Errorf("overall = %v, want >= 95 with no constraints", score.Overall)
	}
	if len(score.Violations) != 0 {
		t.Errorf("violations = %d, want 0", len(score.Violations))
	}
}

func TestScoreCompliantLayout(t *testing.T) {
	svc := NewService()

	score, err := svc.Score(context.Background(), fullyCompliantLayout(), strictGuidelines())
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if score.Overall < 90 {
		t.Errorf("overall = %v, want >= 90, violations: %+v", score.Overall, score.Violations)
	}
	for _, c := range domain.ComplianceCategories {
		if score.CategoryScore(c) < 90 {
			t.Errorf("category %s = %v, want >= 90", c, score.CategoryScore(c))
		}
	}
}

func TestScoreMissingLogo(t *testing.T) {
	svc := NewService()

	layout := fullyCompliantLayout()
	layout.Images = layout.Images[:1] // drop the logo slot

	score, _ := svc.Score(context.Background(), layout, strictGuidelines())

	if score.CategoryScore(domain.CategoryLogo) != 0 {
		t.Errorf("logo category = %v, want 0", score.CategoryScore(domain.CategoryLogo))
	}

	found := false
	for _, v := range score.Violations {
		if v.Category == domain.CategoryLogo && v.Type == domain.ViolationError {
			found = true
		}
	}
	if !found {
		t.Error("want an error violation for the missing logo")
	}
}

func TestScoreMissingDisclaimer(t *testing.T) {
	svc := NewService()

	layout := fullyCompliantLayout()
	layout.Texts = layout.Texts[:1] // drop legal copy

	score, _ := svc.Score(context.Background(), layout, strictGuidelines())

	if score.CategoryScore(domain.CategoryLegal) != 0 {
		t.Errorf("legal category = %v, want 0", score.CategoryScore(domain.CategoryLegal))
	}
	if len(score.Recommendations) == 0 {
		t.Error("want at least one recommendation")
	}
}

func TestScoreOffPaletteColors(t *testing.T) {
	svc := NewService()

	layout := fullyCompliantLayout()
	layout.Scheme.Primary = "#00ff00"  // far from the blue palette
	layout.Scheme.Accent = "#ff8800"

	score, _ := svc.Score(context.Background(), layout, strictGuidelines())

	if score.CategoryScore(domain.CategoryColor) >= 90 {
		t.Errorf("color category = %v, want < 90", score.CategoryScore(domain.CategoryColor))
	}
}

func TestScoreDisallowedFont(t *testing.T) {
	svc := NewService()

	layout := fullyCompliantLayout()
	layout.Texts[0].FontFamily = "Comic Sans"

	score, _ := svc.Score(context.Background(), layout, strictGuidelines())

	if got := score.CategoryScore(domain.CategoryFont); got != 50 {
		t.Errorf("font category = %v, want 50 (1 of 2 off-brand)", got)
	}
}

func TestScoreSmallLegalFont(t *testing.T) {
	svc := NewService()

	layout := fullyCompliantLayout()
	layout.Texts[1].FontSize = 6

	score, _ := svc.Score(context.Background(), layout, strictGuidelines())

	if got := score.CategoryScore(domain.CategoryLegal); got != 60 {
		t.Errorf("legal category = %v, want 60", got)
	}
}

func TestBrandAlignmentViolationsBelowErrorSeverity(t *testing.T) {
	tests := []struct {
		name     string
		mangle   func(*domain.LayoutVariation)
		wantType domain.ViolationType
	}{
		{
			"missing disclaimer alone suggests",
			func(l *domain.LayoutVariation) {
				l.Texts = l.Texts[:1]
			},
			domain.ViolationSuggestion,
		},
		{
			"missing disclaimer plus off-palette colors warns",
			func(l *domain.LayoutVariation) {
				l.Texts = l.Texts[:1]
				l.Scheme.Primary = "#00ff00"
				l.Scheme.Accent = "#ff8800"
			},
			domain.ViolationWarning,
		},
	}

	svc := NewService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := fullyCompliantLayout()
			tt.mangle(layout)

			score, _ := svc.Score(context.Background(), layout, strictGuidelines())

			var got domain.ViolationType
			for _, v := range score.Violations {
				if v.Category == domain.CategoryBrandAlignment {
					got = v.Type
				}
			}
			if got == "" {
				t.Fatal("want a brand alignment violation")
			}
			if got != tt.wantType {
				t.Errorf("violation type = %q, want %q", got, tt.wantType)
			}
		})
	}
}

func TestOverallBelowTargetRecommends(t *testing.T) {
	layout := fullyCompliantLayout()
	layout.Texts = layout.Texts[:1] // drop legal copy

	score, _ := NewService().Score(context.Background(), layout, strictGuidelines())

	if score.Overall >= 90 {
		t.Fatalf("overall = %v, scenario should land below target", score.Overall)
	}
	found := false
	for _, rec := range score.Recommendations {
		if strings.Contains(rec, "below the 90 target") {
			found = true
		}
	}
	if !found {
		t.Errorf("no below-target recommendation in %v", score.Recommendations)
	}
}

func TestResolveWeightsEqualByDefault(t *testing.T) {
	want := 1.0 / float64(len(domain.ComplianceCategories))
	for _, guidelines := range []*domain.BrandGuidelines{nil, strictGuidelines()} {
		weights := resolveWeights(guidelines)
		for c, w := range weights {
			if math.Abs(w-want) > 1e-9 {
				t.Errorf("%s weight = %v, want equal share %v", c, w, want)
			}
		}
	}
}

func TestGuidelineCategoryWeightOverride(t *testing.T) {
	layout := fullyCompliantLayout()
	layout.Texts = layout.Texts[:1] // legal category scores 0

	svc := NewService()
	base, _ := svc.Score(context.Background(), layout, strictGuidelines())

	weighted := strictGuidelines()
	weighted.CategoryWeights = map[domain.ComplianceCategory]float64{
		domain.CategoryLegal: 0.5,
	}
	heavy, _ := svc.Score(context.Background(), layout, weighted)

	if heavy.Overall >= base.Overall {
		t.Errorf("legal-heavy overall %.1f not below equal-weight %.1f", heavy.Overall, base.Overall)
	}

	weights := resolveWeights(weighted)
	var sum float64
	for _, w := range weights {
		sum += w
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("override weights sum to %v, want 1", sum)
	}
	if weights[domain.CategoryLegal] <= weights[domain.CategoryColor] {
		t.Error("legal override did not outweigh the untouched categories")
	}
}

func TestViolationTypeThresholds(t *testing.T) {
	svc := NewService()

	tests := []struct {
		score    float64
		wantType domain.ViolationType
		wantOK   bool
	}{
		{30, domain.ViolationError, true},
		{49.9, domain.ViolationError, true},
		{50, domain.ViolationWarning, true},
		{74.9, domain.ViolationWarning, true},
		{75, domain.ViolationSuggestion, true},
		{89.9, domain.ViolationSuggestion, true},
		{90, "", false},
		{100, "", false},
	}

	for _, tt := range tests {
		vt, ok := svc.violationType(tt.score)
		if ok != tt.wantOK || vt != tt.wantType {
			t.Errorf("violationType(%v) = (%q, %v), want (%q, %v)", tt.score, vt, ok, tt.wantType, tt.wantOK)
		}
	}
}

func TestCustomThresholds(t *testing.T) {
	svc := NewServiceWithThresholds(Thresholds{Error: 20, Warn: 40, Target: 60})

	if vt, ok := svc.violationType(30); !ok || vt != domain.ViolationWarning {
		t.Errorf("violationType(30) = (%q, %v), want (warning, true)", vt, ok)
	}
	if _, ok := svc.violationType(70); ok {
		t.Error("violationType(70) should pass under relaxed thresholds")
	}
}
