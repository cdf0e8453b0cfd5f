package domain

// ComplianceCategory names one audited dimension of a layout.
type ComplianceCategory string

const (
	CategoryBrandAlignment ComplianceCategory = "brand_alignment"
	CategoryColor          ComplianceCategory = "color"
	CategoryFont           ComplianceCategory = "font"
	CategoryLogo           ComplianceCategory = "logo"
	CategorySpacing        ComplianceCategory = "spacing"
	CategoryLegal          ComplianceCategory = "legal"
)

// ComplianceCategories lists all categories in report order.
var ComplianceCategories = []ComplianceCategory{
	CategoryBrandAlignment,
	CategoryColor,
	CategoryFont,
	CategoryLogo,
	CategorySpacing,
	CategoryLegal,
}

// ViolationType grades a violation by severity band.
type ViolationType string

const (
	ViolationError      ViolationType = "error"
	ViolationWarning    ViolationType = "warning"
	ViolationSuggestion ViolationType = "suggestion"
)

// ViolationImpact estimates the effect of leaving a violation unfixed.
type ViolationImpact string

const (
	ImpactLow    ViolationImpact = "low"
	ImpactMedium ViolationImpact = "medium"
	ImpactHigh   ViolationImpact = "high"
)

// Violation is one brand-rule breach with a suggested fix.
type Violation struct {
	Category ComplianceCategory `json:"category"`
	Type     ViolationType      `json:"type"`
	Impact   ViolationImpact    `json:"impact"`
	Message  string             `json:"message"`
	Fix      string             `json:"fix"`
}

// ComplianceScore is the audit result of one layout against brand
// guidelines. Recomputed whenever the owning layout changes.
type ComplianceScore struct {
	Overall         float64                        `json:"overall"`
	Categories      map[ComplianceCategory]float64 `json:"categories"`
	Violations      []Violation                    `json:"violations,omitempty"`
	Recommendations []string                       `json:"recommendations,omitempty"`
}

// CategoryScore returns a category score, 0 when absent.
func (s *ComplianceScore) CategoryScore(c ComplianceCategory) float64 {
	if s == nil || s.Categories == nil {
		return 0
	}
	return s.Categories[c]
}
