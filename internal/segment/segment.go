// Package segment splits normalized resume text into labeled sections
// using heading heuristics.
package segment

import "strings"

// Section keys produced by Split.
const (
	SectionExperience = "experience"
	SectionEducation  = "education"
	SectionSkills     = "skills"
	SectionProjects   = "projects"
)

// headingSynonyms maps each section key to its recognized heading tokens,
// in matching priority order. Kept as data so the table stays testable and
// extensible. Tokens are uppercase; matching is case-insensitive.
var headingSynonyms = map[string][]string{
	SectionExperience: {"EXPERIENCE", "WORK EXPERIENCE", "EMPLOYMENT"},
	SectionEducation:  {"EDUCATION", "ACADEMIC BACKGROUND"},
	SectionSkills:     {"SKILLS", "TECHNICAL SKILLS", "CORE COMPETENCIES"},
	SectionProjects:   {"PROJECTS", "PROJECT EXPERIENCE"},
}

// sectionOrder fixes the iteration order over sections so segmentation is
// deterministic regardless of map ordering.
var sectionOrder = []string{
	SectionExperience,
	SectionEducation,
	SectionSkills,
	SectionProjects,
}

// Sections maps a section key to the substring of the source text that
// belongs to it. Sections without a matching heading are absent.
type Sections map[string]string

// Split segments full text into labeled sections. For each section the
// content runs from the first matching heading synonym to the next heading
// of any other recognized section, or end of text. Claims are resolved
// first-match-wins per section type, not exclusively across the document:
// sections may overlap when the source layout is ambiguous, which is an
// accepted limitation of the heuristic.
func Split(text string) Sections {
	sections := make(Sections)
	upper := asciiUpper(text)

	for _, key := range sectionOrder {
		content, ok := sectionContent(text, upper, key)
		if ok {
			sections[key] = content
		}
	}
	return sections
}

// Synonyms returns the heading tokens recognized for a section key, in
// matching priority order. The returned slice is a copy.
func Synonyms(key string) []string {
	syns := headingSynonyms[key]
	out := make([]string, len(syns))
	copy(out, syns)
	return out
}

// asciiUpper uppercases ASCII letters only. Unlike strings.ToUpper it
// never changes byte length, so every offset found in the folded text is
// valid in the original. Heading synonyms are ASCII, so matching is
// unaffected.
func asciiUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// sectionContent locates the content for one section. upper is the
// folded form of text, computed once by the caller and byte-aligned
// with it.
func sectionContent(text, upper, key string) (string, bool) {
	for _, syn := range headingSynonyms[key] {
		idx := strings.Index(upper, syn)
		if idx < 0 {
			continue
		}
		start := idx + len(syn)
		end := nextOtherHeading(upper, start, key)
		content := strings.TrimSpace(text[start:end])
		if content == "" {
			return "", false
		}
		return content, true
	}
	return "", false
}

// nextOtherHeading returns the index of the earliest heading of any section
// other than key at or after from, or len(upper) if none follows.
func nextOtherHeading(upper string, from int, key string) int {
	end := len(upper)
	for _, other := range sectionOrder {
		if other == key {
			continue
		}
		for _, syn := range headingSynonyms[other] {
			if idx := strings.Index(upper[from:], syn); idx >= 0 && from+idx < end {
				end = from + idx
			}
		}
	}
	return end
}
