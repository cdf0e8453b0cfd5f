// Package compliance scores layout candidates against brand guidelines.
package compliance

import (
	"context"
	"fmt"
	"strings"

	"studio_server/core/domain"
	"studio_server/core/service/vision"
)

// Thresholds split category scores into violation severities.
type Thresholds struct {
	Error  float64 // below this a category raises an error violation
	Warn   float64 // below this a category raises a warning
	Target float64 // below this a category raises a suggestion
}

// DefaultThresholds returns the standard severity cut points.
func DefaultThresholds() Thresholds {
	return Thresholds{Error: 50, Warn: 75, Target: 90}
}

// resolveWeights returns the per-category weights for the overall score.
// Categories weigh equally unless the guidelines override some of them;
// overrides are overlaid on the equal split and renormalized to sum 1.
func resolveWeights(guidelines *domain.BrandGuidelines) map[domain.ComplianceCategory]float64 {
	equal := 1.0 / float64(len(domain.ComplianceCategories))
	weights := make(map[domain.ComplianceCategory]float64, len(domain.ComplianceCategories))
	for _, c := range domain.ComplianceCategories {
		weights[c] = equal
	}
	if guidelines == nil || len(guidelines.CategoryWeights) == 0 {
		return weights
	}

	for c, w := range guidelines.CategoryWeights {
		if _, known := weights[c]; known && w >= 0 {
			weights[c] = w
		}
	}
	var sum float64
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		for _, c := range domain.ComplianceCategories {
			weights[c] = equal
		}
		return weights
	}
	for c := range weights {
		weights[c] /= sum
	}
	return weights
}

// hueTolerance is the circular hue distance (degrees) within which a
// scheme color counts as on-palette.
const hueTolerance = 30.0

// Service scores layouts. Scoring never fails: missing guidelines mean
// no constraints, not an error.
type Service struct {
	thresholds Thresholds
}

// NewService creates a scorer with default thresholds.
func NewService() *Service {
	return NewServiceWithThresholds(DefaultThresholds())
}

// NewServiceWithThresholds creates a scorer with custom severity cut points.
func NewServiceWithThresholds(t Thresholds) *Service {
	return &Service{thresholds: t}
}

// Score evaluates every category and aggregates a weighted overall score.
func (s *Service) Score(ctx context.Context, layout *domain.LayoutVariation, guidelines *domain.BrandGuidelines) (*domain.ComplianceScore, error) {
	score := &domain.ComplianceScore{
		Categories: make(map[domain.ComplianceCategory]float64, len(domain.ComplianceCategories)),
	}

	if layout == nil {
		for _, c := range domain.ComplianceCategories {
			score.Categories[c] = 0
		}
		return score, nil
	}

	results := map[domain.ComplianceCategory]categoryResult{
		domain.CategoryColor:          s.scoreColor(layout, guidelines),
		domain.CategoryFont:           s.scoreFont(layout, guidelines),
		domain.CategoryLogo:           s.scoreLogo(layout, guidelines),
		domain.CategorySpacing:        s.scoreSpacing(layout, guidelines),
		domain.CategoryLegal:          s.scoreLegal(layout, guidelines),
	}
	results[domain.CategoryBrandAlignment] = s.scoreBrandAlignment(layout, results)

	weights := resolveWeights(guidelines)

	var overall float64
	seenFixes := make(map[string]bool)

	for _, category := range domain.ComplianceCategories {
		r := results[category]
		score.Categories[category] = r.score
		overall += r.score * weights[category]

		for _, v := range r.violations {
			score.Violations = append(score.Violations, v)
			if v.Fix != "" && !seenFixes[v.Fix] {
				seenFixes[v.Fix] = true
				score.Recommendations = append(score.Recommendations, v.Fix)
			}
		}
	}

	score.Overall = clampScore(overall)
	if score.Overall < s.thresholds.Target {
		score.Recommendations = append(score.Recommendations,
			fmt.Sprintf("overall compliance %.0f is below the %.0f target; address the flagged categories", score.Overall, s.thresholds.Target))
	}
	return score, nil
}

type categoryResult struct {
	score      float64
	violations []domain.Violation
}

// violationType maps a category score to a severity via the thresholds.
func (s *Service) violationType(score float64) (domain.ViolationType, bool) {
	switch {
	case score < s.thresholds.Error:
		return domain.ViolationError, true
	case score < s.thresholds.Warn:
		return domain.ViolationWarning, true
	case score < s.thresholds.Target:
		return domain.ViolationSuggestion, true
	default:
		return "", false
	}
}

func (s *Service) impactFor(vt domain.ViolationType) domain.ViolationImpact {
	switch vt {
	case domain.ViolationError:
		return domain.ImpactHigh
	case domain.ViolationWarning:
		return domain.ImpactMedium
	default:
		return domain.ImpactLow
	}
}

// =============================================================================
// Category checks
// =============================================================================

// scoreColor measures how much of the layout's scheme stays on the brand
// palette. Neutrals (very low saturation) always pass.
func (s *Service) scoreColor(layout *domain.LayoutVariation, guidelines *domain.BrandGuidelines) categoryResult {
	if guidelines == nil {
		return categoryResult{score: 100}
	}
	palette := guidelines.Colors.Palette()
	if len(palette) == 0 {
		return categoryResult{score: 100}
	}

	schemeColors := []string{
		layout.Scheme.Background,
		layout.Scheme.Primary,
		layout.Scheme.Secondary,
		layout.Scheme.Accent,
		layout.Scheme.Text,
	}

	total := 0
	offPalette := 0
	var stray []string
	for _, hex := range schemeColors {
		if hex == "" {
			continue
		}
		total++
		if !onPalette(hex, palette) {
			offPalette++
			stray = append(stray, hex)
		}
	}

	if total == 0 {
		return categoryResult{score: 100}
	}

	result := categoryResult{
		score: clampScore(100 * float64(total-offPalette) / float64(total)),
	}

	if vt, ok := s.violationType(result.score); ok {
		result.violations = append(result.violations, domain.Violation{
			Category: domain.CategoryColor,
			Type:     vt,
			Impact:   s.impactFor(vt),
			Message:  fmt.Sprintf("%d of %d scheme colors are off the brand palette: %s", offPalette, total, strings.Join(stray, ", ")),
			Fix:      "replace off-palette colors with brand palette colors",
		})
	}

	return result
}

// onPalette reports whether hex is close in hue to any palette color, or
// is a neutral.
func onPalette(hex string, palette []string) bool {
	h, sat, _, ok := vision.HexToHSL(hex)
	if !ok {
		return false
	}
	if sat < 0.1 {
		// Neutral grays, white, black
		return true
	}

	for _, p := range palette {
		ph, psat, _, pok := vision.HexToHSL(p)
		if !pok {
			continue
		}
		if psat < 0.1 {
			continue
		}
		d := h - ph
		if d < 0 {
			d = -d
		}
		if d > 180 {
			d = 360 - d
		}
		if d <= hueTolerance {
			return true
		}
	}
	return false
}

// scoreFont checks that text placements use allowed font families.
func (s *Service) scoreFont(layout *domain.LayoutVariation, guidelines *domain.BrandGuidelines) categoryResult {
	if guidelines == nil || len(layout.Texts) == 0 {
		return categoryResult{score: 100}
	}
	allowed := guidelines.Fonts.AllowedFamilies()
	if len(allowed) == 0 {
		return categoryResult{score: 100}
	}

	allowedSet := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		allowedSet[strings.ToLower(f)] = true
	}

	total := 0
	bad := 0
	var strays []string
	for i := range layout.Texts {
		family := strings.TrimSpace(layout.Texts[i].FontFamily)
		if family == "" {
			// Unset family resolves to the brand primary at render time
			continue
		}
		total++
		if !allowedSet[strings.ToLower(family)] {
			bad++
			strays = append(strays, family)
		}
	}

	if total == 0 {
		return categoryResult{score: 100}
	}

	result := categoryResult{
		score: clampScore(100 * float64(total-bad) / float64(total)),
	}

	if vt, ok := s.violationType(result.score); ok {
		result.violations = append(result.violations, domain.Violation{
			Category: domain.CategoryFont,
			Type:     vt,
			Impact:   s.impactFor(vt),
			Message:  fmt.Sprintf("fonts outside the brand set: %s", strings.Join(strays, ", ")),
			Fix:      "use the brand font families for all text elements",
		})
	}

	return result
}

// scoreLogo verifies logo presence, minimum size and edge clearance when
// the guidelines require one.
func (s *Service) scoreLogo(layout *domain.LayoutVariation, guidelines *domain.BrandGuidelines) categoryResult {
	if guidelines == nil || !guidelines.Logo.Required {
		return categoryResult{score: 100}
	}

	var logo *domain.ImagePlacement
	for i := range layout.Images {
		if layout.Images[i].Role == "logo" {
			logo = &layout.Images[i]
			break
		}
	}

	if logo == nil {
		return categoryResult{
			score: 0,
			violations: []domain.Violation{{
				Category: domain.CategoryLogo,
				Type:     domain.ViolationError,
				Impact:   domain.ImpactHigh,
				Message:  "guidelines require a logo but the layout has none",
				Fix:      "add a logo placement",
			}},
		}
	}

	score := 100.0
	var violations []domain.Violation

	minSize := guidelines.Logo.MinSizeRatio
	if minSize > 0 && logo.Frame.W < minSize {
		score -= 30
		violations = append(violations, domain.Violation{
			Category: domain.CategoryLogo,
			Type:     domain.ViolationWarning,
			Impact:   domain.ImpactMedium,
			Message:  fmt.Sprintf("logo width %.2f is below the minimum ratio %.2f", logo.Frame.W, minSize),
			Fix:      "enlarge the logo to the minimum brand size",
		})
	}

	clear := guidelines.Logo.ClearSpaceRatio
	if clear > 0 {
		if logo.Frame.X < clear || logo.Frame.Y < clear ||
			logo.Frame.X+logo.Frame.W > 1-clear || logo.Frame.Y+logo.Frame.H > 1-clear {
			score -= 20
			violations = append(violations, domain.Violation{
				Category: domain.CategoryLogo,
				Type:     domain.ViolationSuggestion,
				Impact:   domain.ImpactLow,
				Message:  "logo sits inside the required clear space margin",
				Fix:      "move the logo away from the canvas edges",
			})
		}
	}

	return categoryResult{score: clampScore(score), violations: violations}
}

// scoreSpacing enforces canvas margins and the maximum image coverage.
// Full-bleed backgrounds (z-order 0 covering the canvas) are exempt from
// the margin rule.
func (s *Service) scoreSpacing(layout *domain.LayoutVariation, guidelines *domain.BrandGuidelines) categoryResult {
	if guidelines == nil {
		return categoryResult{score: 100}
	}

	score := 100.0
	var violations []domain.Violation

	margin := guidelines.Spacing.MarginRatio
	if margin > 0 {
		crowded := 0
		for i := range layout.Texts {
			f := layout.Texts[i].Frame
			if f.X < margin || f.Y < margin || f.X+f.W > 1-margin || f.Y+f.H > 1-margin {
				crowded++
			}
		}
		if crowded > 0 {
			deduction := float64(crowded) * 15
			if deduction > 40 {
				deduction = 40
			}
			score -= deduction
			violations = append(violations, domain.Violation{
				Category: domain.CategorySpacing,
				Type:     domain.ViolationWarning,
				Impact:   domain.ImpactMedium,
				Message:  fmt.Sprintf("%d text elements break the margin of %.2f", crowded, margin),
				Fix:      "pull text elements inside the brand margins",
			})
		}
	}

	maxCoverage := guidelines.Spacing.MaxCoverage
	if maxCoverage > 0 {
		coverage := 0.0
		for i := range layout.Images {
			if layout.Images[i].ZOrder == 0 && layout.Images[i].Frame.Area() >= 0.99 {
				continue // full-bleed background
			}
			coverage += layout.Images[i].Frame.Area()
		}
		if coverage > maxCoverage {
			score -= 25
			violations = append(violations, domain.Violation{
				Category: domain.CategorySpacing,
				Type:     domain.ViolationSuggestion,
				Impact:   domain.ImpactLow,
				Message:  fmt.Sprintf("image coverage %.2f exceeds the maximum %.2f", coverage, maxCoverage),
				Fix:      "reduce image sizes to restore breathing room",
			})
		}
	}

	return categoryResult{score: clampScore(score), violations: violations}
}

// scoreLegal verifies the disclaimer placement and its minimum font size.
func (s *Service) scoreLegal(layout *domain.LayoutVariation, guidelines *domain.BrandGuidelines) categoryResult {
	if guidelines == nil || !guidelines.Legal.DisclaimerRequired {
		return categoryResult{score: 100}
	}

	var legal *domain.TextPlacement
	for i := range layout.Texts {
		if layout.Texts[i].Role == domain.TextRoleLegal {
			legal = &layout.Texts[i]
			break
		}
	}

	if legal == nil || strings.TrimSpace(legal.Content) == "" {
		return categoryResult{
			score: 0,
			violations: []domain.Violation{{
				Category: domain.CategoryLegal,
				Type:     domain.ViolationError,
				Impact:   domain.ImpactHigh,
				Message:  "required legal disclaimer is missing",
				Fix:      "add the brand disclaimer text",
			}},
		}
	}

	score := 100.0
	var violations []domain.Violation

	minFont := guidelines.Legal.MinFontSize
	if minFont > 0 && legal.FontSize < minFont {
		score -= 40
		violations = append(violations, domain.Violation{
			Category: domain.CategoryLegal,
			Type:     domain.ViolationWarning,
			Impact:   domain.ImpactMedium,
			Message:  fmt.Sprintf("disclaimer font size %d is below the minimum %d", legal.FontSize, minFont),
			Fix:      "raise the disclaimer font size to the legal minimum",
		})
	}

	return categoryResult{score: clampScore(score), violations: violations}
}

// scoreBrandAlignment is the holistic category: it blends the concrete
// checks with scheme fidelity and completeness of the composition.
func (s *Service) scoreBrandAlignment(layout *domain.LayoutVariation, others map[domain.ComplianceCategory]categoryResult) categoryResult {
	// Mean of the concrete checks anchors the holistic score
	var sum float64
	var n int
	for _, c := range []domain.ComplianceCategory{domain.CategoryColor, domain.CategoryFont, domain.CategoryLogo, domain.CategoryLegal} {
		sum += others[c].score
		n++
	}
	score := sum / float64(n)

	if layout.Scheme.Kind != "" && layout.Scheme.Kind != domain.SchemeBrand {
		score -= 10
	}
	if placeholders := layout.PlaceholderCount(); placeholders > 0 {
		deduction := float64(placeholders) * 5
		if deduction > 15 {
			deduction = 15
		}
		score -= deduction
	}

	result := categoryResult{score: clampScore(score)}
	if vt, ok := s.violationType(result.score); ok {
		message := "composition is close to the brand look but not fully on guideline"
		fix := "swap remaining placeholders and prefer the brand color scheme"
		switch vt {
		case domain.ViolationError:
			message = "composition drifts far from the brand guidelines"
			fix = "review colors, fonts and logo usage against the guidelines"
		case domain.ViolationWarning:
			message = "composition drifts from the brand look"
			fix = "tighten colors, fonts and logo usage toward the guidelines"
		}
		result.violations = append(result.violations, domain.Violation{
			Category: domain.CategoryBrandAlignment,
			Type:     vt,
			Impact:   s.impactFor(vt),
			Message:  message,
			Fix:      fix,
		})
	}

	return result
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
