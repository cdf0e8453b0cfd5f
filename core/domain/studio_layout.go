package domain

import (
	"time"
)

// ChannelFormat names a target output surface with known pixel dimensions.
type ChannelFormat string

const (
	// Social
	FormatInstagramPost    ChannelFormat = "instagram_post"    // 1080x1080
	FormatInstagramStory   ChannelFormat = "instagram_story"   // 1080x1920
	FormatFacebookCover    ChannelFormat = "facebook_cover"    // 820x312
	FormatLinkedInBanner   ChannelFormat = "linkedin_banner"   // 1584x396
	FormatTwitterHeader    ChannelFormat = "twitter_header"    // 1500x500
	FormatYouTubeThumbnail ChannelFormat = "youtube_thumbnail" // 1280x720

	// Web
	FormatHeroBanner  ChannelFormat = "hero_banner"  // 1920x600
	FormatOGImage     ChannelFormat = "og_image"     // 1200x630
	FormatEmailHeader ChannelFormat = "email_header" // 600x200

	// Print
	FormatA4Portrait  ChannelFormat = "a4_portrait"  // 2480x3508
	FormatA4Landscape ChannelFormat = "a4_landscape" // 3508x2480
)

// FormatDimensions returns pixel width and height for a channel format.
func FormatDimensions(f ChannelFormat) (width, height int) {
	switch f {
	case FormatInstagramPost:
		return 1080, 1080
	case FormatInstagramStory:
		return 1080, 1920
	case FormatFacebookCover:
		return 820, 312
	case FormatLinkedInBanner:
		return 1584, 396
	case FormatTwitterHeader:
		return 1500, 500
	case FormatYouTubeThumbnail:
		return 1280, 720
	case FormatHeroBanner:
		return 1920, 600
	case FormatOGImage:
		return 1200, 630
	case FormatEmailHeader:
		return 600, 200
	case FormatA4Portrait:
		return 2480, 3508
	case FormatA4Landscape:
		return 3508, 2480
	default:
		return 0, 0
	}
}

// Supported reports whether the format is a known channel format.
func (f ChannelFormat) Supported() bool {
	w, h := FormatDimensions(f)
	return w > 0 && h > 0
}

// AspectRatio returns width/height, 0 for unknown formats.
func (f ChannelFormat) AspectRatio() float64 {
	w, h := FormatDimensions(f)
	if h == 0 {
		return 0
	}
	return float64(w) / float64(h)
}

// LayoutArchetype names a slot-geometry template.
type LayoutArchetype string

const (
	ArchetypeHero     LayoutArchetype = "hero"
	ArchetypeGrid     LayoutArchetype = "grid"
	ArchetypeCollage  LayoutArchetype = "collage"
	ArchetypeSplit    LayoutArchetype = "split"
	ArchetypeOverlay  LayoutArchetype = "overlay"
	ArchetypeMagazine LayoutArchetype = "magazine"
)

// TextDominance expresses how much canvas the copy should claim.
type TextDominance string

const (
	TextDominanceMinimal  TextDominance = "minimal"
	TextDominanceBalanced TextDominance = "balanced"
	TextDominanceHeavy    TextDominance = "heavy"
)

// ColorSchemeKind selects the palette transform applied to brand colors.
type ColorSchemeKind string

const (
	SchemeBrand         ColorSchemeKind = "brand"
	SchemeComplementary ColorSchemeKind = "complementary"
	SchemeMonochromatic ColorSchemeKind = "monochromatic"
	SchemeVibrant       ColorSchemeKind = "vibrant"
	SchemeMuted         ColorSchemeKind = "muted"
)

// TemplatePreference bundles the style knobs for one candidate family.
type TemplatePreference struct {
	Style         string          `json:"style,omitempty"` // minimal, bold, elegant, playful
	Layout        LayoutArchetype `json:"layout"`
	TextDominance TextDominance   `json:"text_dominance,omitempty"`
	ColorScheme   ColorSchemeKind `json:"color_scheme,omitempty"`
}

// LayoutGenerationRequest bundles everything the engine needs for one run.
type LayoutGenerationRequest struct {
	Territory          Territory            `json:"territory"`
	AssetIDs           []string             `json:"asset_ids,omitempty"`
	PriorityAssetIDs   []string             `json:"priority_asset_ids,omitempty"`
	Formats            []ChannelFormat      `json:"formats"`
	BrandGuidelines    BrandGuidelines      `json:"brand_guidelines"`
	Preferences        []TemplatePreference `json:"preferences"`
	Copy               CopyDeck             `json:"copy,omitempty"`
	CustomRequirements string               `json:"custom_requirements,omitempty"`
}

// PlaceholderAssetID marks an unfilled image slot the user must fill before
// export.
const PlaceholderAssetID = "placeholder"

// Rect is a normalized rectangle: fractions of the canvas in [0,1].
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Area returns the covered canvas fraction.
func (r Rect) Area() float64 {
	return r.W * r.H
}

// ImagePlacement positions one asset (or a placeholder) on the canvas.
type ImagePlacement struct {
	AssetID  string  `json:"asset_id"`       // PlaceholderAssetID when unfilled
	Role     string  `json:"role,omitempty"` // image (default), logo
	Frame    Rect    `json:"frame"`
	Rotation float64 `json:"rotation,omitempty"` // degrees
	Opacity  float64 `json:"opacity"`            // 0-1
	ZOrder   int     `json:"z_order"`
	Filter   string  `json:"filter,omitempty"` // none, darken, blur, duotone
}

// IsPlaceholder reports whether the slot still needs a real asset.
func (p *ImagePlacement) IsPlaceholder() bool {
	return p.AssetID == PlaceholderAssetID || p.AssetID == ""
}

// TextRole names the copy slot a text placement fills.
type TextRole string

const (
	TextRoleHeadline    TextRole = "headline"
	TextRoleSubheadline TextRole = "subheadline"
	TextRoleBody        TextRole = "body"
	TextRoleCTA         TextRole = "cta"
	TextRoleLegal       TextRole = "legal"
)

// TextPlacement positions one copy element on the canvas.
type TextPlacement struct {
	Role       TextRole `json:"role"`
	Content    string   `json:"content"`
	Frame      Rect     `json:"frame"`
	FontFamily string   `json:"font_family,omitempty"`
	FontSize   int      `json:"font_size"` // pt relative to 1080px canvas
	FontWeight string   `json:"font_weight,omitempty"`
	Color      string   `json:"color,omitempty"`
	Align      string   `json:"align,omitempty"`
	MaxChars   int      `json:"max_chars,omitempty"`
	ZOrder     int      `json:"z_order"`
}

// ColorScheme is the resolved palette of a layout candidate.
type ColorScheme struct {
	Kind       ColorSchemeKind `json:"kind"`
	Background string          `json:"background"`
	Primary    string          `json:"primary"`
	Secondary  string          `json:"secondary,omitempty"`
	Accent     string          `json:"accent,omitempty"`
	Text       string          `json:"text"`
}

// LayoutVariation is one candidate composition for one channel format.
type LayoutVariation struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id,omitempty"`
	TerritoryID string          `json:"territory_id,omitempty"`
	Format      ChannelFormat   `json:"format"`
	Archetype   LayoutArchetype `json:"archetype"`

	// TextDominance is the copy-vs-imagery balance the candidate was built
	// for; scoring compares actual text coverage against it.
	TextDominance TextDominance `json:"text_dominance,omitempty"`

	Images []ImagePlacement `json:"image_composition"`
	Texts  []TextPlacement  `json:"text_composition"`
	Scheme ColorScheme      `json:"color_scheme"`

	PerformancePrediction float64          `json:"performance_prediction"` // 0-100
	Reasoning             string           `json:"ai_reasoning,omitempty"`
	Compliance            *ComplianceScore `json:"brand_compliance,omitempty"`

	// Dirty marks scores stale after an edit; Recompute clears it.
	Dirty bool `json:"dirty,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlaceholderCount returns the number of unfilled image slots.
func (v *LayoutVariation) PlaceholderCount() int {
	n := 0
	for i := range v.Images {
		if v.Images[i].IsPlaceholder() {
			n++
		}
	}
	return n
}

// TextCoverage returns the canvas fraction covered by text frames.
func (v *LayoutVariation) TextCoverage() float64 {
	total := 0.0
	for i := range v.Texts {
		total += v.Texts[i].Frame.Area()
	}
	return total
}

// ElementUpdate carries a partial edit for a single placement, addressed by
// index within its composition list.
type ElementUpdate struct {
	ImageIndex *int     `json:"image_index,omitempty"`
	TextIndex  *int     `json:"text_index,omitempty"`
	Frame      *Rect    `json:"frame,omitempty"`
	Rotation   *float64 `json:"rotation,omitempty"`
	Opacity    *float64 `json:"opacity,omitempty"`
	ZOrder     *int     `json:"z_order,omitempty"`
	AssetID    *string  `json:"asset_id,omitempty"`
	Content    *string  `json:"content,omitempty"`
	FontSize   *int     `json:"font_size,omitempty"`
	Color      *string  `json:"color,omitempty"`
}

// UpdateLayoutRequest batches element edits for one layout.
type UpdateLayoutRequest struct {
	Elements []ElementUpdate `json:"elements"`
}
