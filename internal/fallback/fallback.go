// Package fallback synthesizes a deterministic, non-empty structured
// resume when extraction is degraded or unavailable. Whatever raw text
// exists is always preserved.
package fallback

import "github.com/jonathan/resume-ingest/internal/types"

// PlaceholderFullText is the stable marker stored as full text when no
// text was ever obtained from the extraction service. Downstream consumers
// and tests rely on this exact value to distinguish "nothing retrieved"
// from a genuinely empty successful extraction.
const PlaceholderFullText = "Resume content is available but could not be fully parsed into structured data."

// placeholderSkills is the fixed skill set returned when nothing could be
// extracted.
var placeholderSkills = []string{
	"Communication",
	"Problem Solving",
	"Teamwork",
	"Time Management",
	"Adaptability",
}

// PlaceholderSkills returns a copy of the fixed fallback skill list.
func PlaceholderSkills() []string {
	skills := make([]string, len(placeholderSkills))
	copy(skills, placeholderSkills)
	return skills
}

// Resume synthesizes a degraded resume. When rawText is non-empty it is
// carried through as the full text with empty structured collections, so
// partial extraction output is never lost. When rawText is empty the fixed
// placeholder shape is returned.
func Resume(rawText string) *types.ExtractedResume {
	if rawText != "" {
		return types.Minimal(rawText)
	}

	return &types.ExtractedResume{
		Skills: PlaceholderSkills(),
		Experiences: []types.Experience{
			{
				Company:     "Previous Experience",
				Position:    "Various Roles",
				Description: "The user has uploaded a resume, but we couldn't extract specific experience details.",
			},
		},
		Education: []types.Education{
			{
				Institution: "Educational Background",
				Degree:      "Various Qualifications",
				Description: "The user has uploaded a resume, but we couldn't extract specific education details.",
			},
		},
		Projects: "The user has uploaded a resume, but we couldn't extract specific project details.",
		FullText: PlaceholderFullText,
		Degraded: true,
	}
}
