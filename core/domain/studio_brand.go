package domain

import (
	"time"
)

// BrandGuidelines represents the brand constraints a layout must respect:
// palette, typography, logo usage, spacing and legal requirements. A snapshot
// of the guidelines travels inside generation requests so in-flight jobs are
// not affected by later edits.
type BrandGuidelines struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Name      string        `json:"name"`
	IsDefault bool          `json:"is_default"`
	Colors    BrandColors   `json:"colors"`
	Fonts     BrandFonts    `json:"fonts"`
	Logo      BrandLogo     `json:"logo"`
	Spacing   BrandSpacing  `json:"spacing"`
	Legal     BrandLegal    `json:"legal"`
	Style     BrandStyle    `json:"style"`

	// CategoryWeights overrides the equal compliance-category weighting.
	// Partial overrides are overlaid on the equal split and renormalized.
	CategoryWeights map[ComplianceCategory]float64 `json:"category_weights,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// BrandColors defines the brand palette as hex strings.
type BrandColors struct {
	Primary   string   `json:"primary"`
	Secondary string   `json:"secondary,omitempty"`
	Accent    string   `json:"accent,omitempty"`
	Neutral   []string `json:"neutral,omitempty"`
}

// Palette returns all brand colors as a flat slice, primary first.
func (c *BrandColors) Palette() []string {
	colors := make([]string, 0, 3+len(c.Neutral))
	if c.Primary != "" {
		colors = append(colors, c.Primary)
	}
	if c.Secondary != "" {
		colors = append(colors, c.Secondary)
	}
	if c.Accent != "" {
		colors = append(colors, c.Accent)
	}
	colors = append(colors, c.Neutral...)
	return colors
}

// BrandFonts defines typography preferences.
type BrandFonts struct {
	Heading  string   `json:"heading,omitempty"`
	Body     string   `json:"body,omitempty"`
	Accent   string   `json:"accent,omitempty"`
	Approved []string `json:"approved,omitempty"` // full allowed family list
}

// AllowedFamilies returns every font family a layout may use. Empty means
// no constraint.
func (f *BrandFonts) AllowedFamilies() []string {
	var fams []string
	if f.Heading != "" {
		fams = append(fams, f.Heading)
	}
	if f.Body != "" {
		fams = append(fams, f.Body)
	}
	if f.Accent != "" {
		fams = append(fams, f.Accent)
	}
	fams = append(fams, f.Approved...)
	return fams
}

// BrandLogo defines logo assets and their usage constraints.
type BrandLogo struct {
	PrimaryURL     string  `json:"primary_url,omitempty"`
	IconURL        string  `json:"icon_url,omitempty"`
	WhiteURL       string  `json:"white_url,omitempty"`
	MinSizeRatio   float64 `json:"min_size_ratio,omitempty"`   // min logo width as fraction of canvas width
	ClearSpaceRatio float64 `json:"clear_space_ratio,omitempty"` // required clear space as fraction of logo width
	Required       bool    `json:"required"`                   // layouts must include a logo slot
}

// BrandSpacing defines whitespace constraints as canvas fractions.
type BrandSpacing struct {
	MarginRatio     float64 `json:"margin_ratio,omitempty"`      // min edge margin
	MinGapRatio     float64 `json:"min_gap_ratio,omitempty"`     // min gap between elements
	MaxCoverage     float64 `json:"max_coverage,omitempty"`      // max fraction of canvas covered by elements
}

// BrandLegal defines legal requirements for layouts.
type BrandLegal struct {
	DisclaimerRequired bool   `json:"disclaimer_required"`
	DisclaimerText     string `json:"disclaimer_text,omitempty"`
	MinFontSize        int    `json:"min_font_size,omitempty"` // pt, for legal copy
}

// BrandStyle defines soft style preferences fed into prompts and scoring.
type BrandStyle struct {
	Keywords []string `json:"keywords,omitempty"`
	Industry string   `json:"industry,omitempty"`
	Tone     string   `json:"tone,omitempty"`
}

// ToPromptContext converts guidelines into a prompt prefix for the
// generative backend.
func (b *BrandGuidelines) ToPromptContext() string {
	context := ""

	if b.Colors.Primary != "" {
		context += "Brand colors: primary " + b.Colors.Primary
		if b.Colors.Secondary != "" {
			context += ", secondary " + b.Colors.Secondary
		}
		if b.Colors.Accent != "" {
			context += ", accent " + b.Colors.Accent
		}
		context += ". "
	}

	if len(b.Style.Keywords) > 0 {
		context += "Style: "
		for i, kw := range b.Style.Keywords {
			if i > 0 {
				context += ", "
			}
			context += kw
		}
		context += ". "
	}

	if b.Style.Industry != "" {
		context += "Industry: " + b.Style.Industry + ". "
	}
	if b.Style.Tone != "" {
		context += "Tone: " + b.Style.Tone + ". "
	}

	return context
}

// CreateBrandGuidelinesRequest represents a request to create guidelines.
type CreateBrandGuidelinesRequest struct {
	Name      string        `json:"name"`
	Colors    BrandColors   `json:"colors"`
	Fonts     *BrandFonts   `json:"fonts,omitempty"`
	Logo      *BrandLogo    `json:"logo,omitempty"`
	Spacing   *BrandSpacing `json:"spacing,omitempty"`
	Legal     *BrandLegal   `json:"legal,omitempty"`
	Style     *BrandStyle   `json:"style,omitempty"`
	IsDefault bool          `json:"is_default,omitempty"`
}

// UpdateBrandGuidelinesRequest represents a partial guidelines update.
type UpdateBrandGuidelinesRequest struct {
	Name      *string       `json:"name,omitempty"`
	Colors    *BrandColors  `json:"colors,omitempty"`
	Fonts     *BrandFonts   `json:"fonts,omitempty"`
	Logo      *BrandLogo    `json:"logo,omitempty"`
	Spacing   *BrandSpacing `json:"spacing,omitempty"`
	Legal     *BrandLegal   `json:"legal,omitempty"`
	Style     *BrandStyle   `json:"style,omitempty"`
	IsDefault *bool         `json:"is_default,omitempty"`
}
