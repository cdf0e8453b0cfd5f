package domain

// AssetMatch scores one asset against a territory.
type AssetMatch struct {
	AssetID    string             `json:"asset_id"`
	MatchScore float64            `json:"match_score"` // 0-100
	Signals    map[string]float64 `json:"signals,omitempty"` // contributing sub-scores, 0-1
}

// VisualIntelligence is the derived analysis of an asset set against a
// territory. Not persisted beyond the session that produced it; recomputed
// whenever the asset set or territory changes.
type VisualIntelligence struct {
	TerritoryID      string       `json:"territory_id,omitempty"`
	Matches          []AssetMatch `json:"matches"`
	ColorHarmony     float64      `json:"color_harmony"`     // 0-100
	StyleConsistency float64      `json:"style_consistency"` // 0-100
}

// MatchFor returns the match score for an asset id, 0 when absent.
func (v *VisualIntelligence) MatchFor(assetID string) float64 {
	if v == nil {
		return 0
	}
	for i := range v.Matches {
		if v.Matches[i].AssetID == assetID {
			return v.Matches[i].MatchScore
		}
	}
	return 0
}
