package domain

// Territory is a creative positioning concept that frames copy and asset
// selection: a title, a positioning statement, and a tone. The pipeline
// treats brief-derived fields as opaque inputs.
type Territory struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Positioning string   `json:"positioning"`
	Tone        string   `json:"tone,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// CopyDeck holds the active copy selection that layout generation draws
// headline/body/CTA text from.
type CopyDeck struct {
	Headline    string `json:"headline,omitempty"`
	Subheadline string `json:"subheadline,omitempty"`
	Body        string `json:"body,omitempty"`
	CTA         string `json:"cta,omitempty"`
	LegalCopy   string `json:"legal_copy,omitempty"` // disclaimer text, if required
}

// Words returns the searchable terms of the territory: title words,
// positioning words, and explicit keywords, lowercased by callers as needed.
func (t *Territory) Words() []string {
	var words []string
	words = append(words, splitWords(t.Title)...)
	words = append(words, splitWords(t.Positioning)...)
	words = append(words, splitWords(t.Tone)...)
	words = append(words, t.Keywords...)
	return words
}

func splitWords(s string) []string {
	var words []string
	start := -1
	for i, r := range s {
		isWord := r == '-' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if isWord && start < 0 {
			start = i
		}
		if !isWord && start >= 0 {
			words = append(words, s[start:i])
			start = -1
		}
	}
	if start >= 0 {
		words = append(words, s[start:])
	}
	return words
}
