package domain

import (
	"time"
)

// AssetKind represents the media type of an asset
type AssetKind string

const (
	AssetKindImage    AssetKind = "image"
	AssetKindVideo    AssetKind = "video"
	AssetKindAudio    AssetKind = "audio"
	AssetKindDocument AssetKind = "document"
)

// AssetStatus represents the lifecycle state of an asset
type AssetStatus string

const (
	AssetStatusUploading  AssetStatus = "uploading"
	AssetStatusProcessing AssetStatus = "processing"
	AssetStatusReady      AssetStatus = "ready"
	AssetStatusError      AssetStatus = "error"
)

// AssetSource indicates how an asset entered the library
type AssetSource string

const (
	AssetSourceUploaded    AssetSource = "uploaded"
	AssetSourceAIGenerated AssetSource = "ai-generated"
)

// Asset represents an owned media item in the asset library.
// Other components reference assets by ID only; the repository is the
// single owner of the record.
type Asset struct {
	ID     string      `json:"id"`
	UserID string      `json:"user_id"`
	Kind   AssetKind   `json:"kind"`
	Name   string      `json:"name"`
	Status AssetStatus `json:"status"`

	// Storage
	URL          string `json:"url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`

	// Dimensional and file metadata
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`
	Duration float64 `json:"duration,omitempty"` // seconds, video/audio only
	FileSize int64   `json:"file_size,omitempty"`
	MimeType string  `json:"mime_type,omitempty"`

	// Organization
	Tags        []string `json:"tags,omitempty"`
	Collections []string `json:"collections,omitempty"`
	IsFavorite  bool     `json:"is_favorite"`

	// Visual metadata used by analysis (hex strings, most dominant first)
	DominantColors []string `json:"dominant_colors,omitempty"`
	StyleTag       string   `json:"style_tag,omitempty"` // e.g. modern, vintage, minimal

	// Provenance
	Source            AssetSource `json:"source"`
	GenerationID      string      `json:"generation_id,omitempty"`       // queue item that produced it
	GenerationBatchID string      `json:"generation_batch_id,omitempty"` // batch the item belonged to
	OriginalPrompt    string      `json:"original_prompt,omitempty"`     // prompt as submitted
	OptimizedPrompt   string      `json:"optimized_prompt,omitempty"`    // prompt as sent to the backend

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsGenerated reports whether the asset came out of the generation queue.
func (a *Asset) IsGenerated() bool {
	return a.Source == AssetSourceAIGenerated
}

// HasTag reports whether the asset carries the given tag.
func (a *Asset) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Collection groups assets under a user-defined name.
type Collection struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AssetFilter narrows asset listing. Zero values mean "no constraint";
// combined fields are conjunctive.
type AssetFilter struct {
	Kind       AssetKind   `json:"kind,omitempty"`
	Status     AssetStatus `json:"status,omitempty"`
	Source     AssetSource `json:"source,omitempty"`
	Tags       []string    `json:"tags,omitempty"` // all must match
	Collection string      `json:"collection,omitempty"`
	Favorite   *bool       `json:"favorite,omitempty"`
	Search     string      `json:"search,omitempty"` // matches name, tags, prompt
	Limit      int         `json:"limit,omitempty"`
	Offset     int         `json:"offset,omitempty"`
}

// UpdateAssetRequest carries partial asset edits. Last write wins per field.
type UpdateAssetRequest struct {
	Name        *string   `json:"name,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Collections *[]string `json:"collections,omitempty"`
	IsFavorite  *bool     `json:"is_favorite,omitempty"`
	StyleTag    *string   `json:"style_tag,omitempty"`
}
