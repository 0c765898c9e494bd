// Package types defines the shared domain types for the ingestion pipeline.
package types

// Unknown is the sentinel substituted for structured fields that could not
// be determined from a block of resume text. The block itself is always
// retained verbatim in the record's Description.
const Unknown = "Unknown"

// Experience represents one itemized work-experience record.
type Experience struct {
	Company     string `json:"company"`
	Position    string `json:"position"`
	Description string `json:"description"`
}

// Education represents one itemized education record.
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Description string `json:"description"`
}

// ExtractedResume is the structured output of the pipeline. It is always
// produced, never nil: every terminal path of an ingestion yields exactly
// one of these. FullText carries the complete normalized source text and
// must never be lost to a parsing failure.
type ExtractedResume struct {
	Skills      []string     `json:"skills"`
	Experiences []Experience `json:"experiences"`
	Education   []Education  `json:"education"`
	Projects    string       `json:"projects"`
	FullText    string       `json:"full_text"`
	Degraded    bool         `json:"degraded,omitempty"`
}

// Minimal returns the degraded minimal shape for a given full text: empty
// collections, Degraded set, FullText passed through unchanged.
func Minimal(fullText string) *ExtractedResume {
	return &ExtractedResume{
		Skills:      []string{},
		Experiences: []Experience{},
		Education:   []Education{},
		Projects:    "",
		FullText:    fullText,
		Degraded:    true,
	}
}
