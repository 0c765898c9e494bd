// Package extract derives structured resume records from segmented
// section text. All functions are pure and deterministic; extraction
// degradation never becomes extraction failure.
package extract

import (
	"regexp"
	"strings"

	"github.com/jonathan/resume-ingest/internal/segment"
	"github.com/jonathan/resume-ingest/internal/types"
)

var (
	// blockBoundary splits a section into blocks on blank-line boundaries.
	blockBoundary = regexp.MustCompile(`\n\s*\n`)

	// leadingOrg captures the leading organization-like token sequence of a
	// block: letters, digits and light punctuation up to the first line break.
	leadingOrg = regexp.MustCompile(`^[A-Za-z0-9&.,' -]+`)

	// titlePattern matches a professional role token, optionally preceded by
	// capitalized modifier words ("Senior Software Engineer").
	titlePattern = regexp.MustCompile(`(?:[A-Z][A-Za-z]+ )*(?:Engineer|Developer|Programmer|Manager|Director|Analyst|Designer|Consultant|Architect|Scientist|Researcher|Administrator|Specialist|Coordinator|Intern|Lead)\b`)

	// degreePattern matches a degree-keyword token.
	degreePattern = regexp.MustCompile(`(?i)\b(?:B\.?Sc\.?|M\.?Sc\.?|B\.?A\.?|M\.?A\.?|B\.?Eng\.?|MBA|Ph\.?D\.?|Bachelor(?:'s)?(?: of [A-Za-z ]+)?|Master(?:'s)?(?: of [A-Za-z ]+)?|Associate(?: of [A-Za-z ]+)?|Diploma|Degree)\b`)

	// skillSeparator splits skills section text into candidate tokens.
	skillSeparator = regexp.MustCompile(`[,;\n]`)
)

// skillTrimCutset holds the punctuation and bullet markers stripped from
// the ends of each skill token.
const skillTrimCutset = " \t•▪·-*.,;:()"

// Resume builds the structured resume from segmented sections. fullText is
// passed through unchanged. On any internal error it returns the degraded
// minimal shape with fullText intact rather than failing.
func Resume(sections segment.Sections, fullText string) (resume *types.ExtractedResume) {
	defer func() {
		if r := recover(); r != nil {
			resume = types.Minimal(fullText)
		}
	}()

	return &types.ExtractedResume{
		Skills:      Skills(sections[segment.SectionSkills]),
		Experiences: Experiences(sections[segment.SectionExperience]),
		Education:   EducationRecords(sections[segment.SectionEducation]),
		Projects:    sections[segment.SectionProjects],
		FullText:    fullText,
	}
}

// Skills tokenizes skills section text on bullet markers, commas and
// newlines, trims punctuation, drops empty tokens and de-duplicates while
// preserving first-seen order. Empty input yields an empty list.
func Skills(text string) []string {
	skills := []string{}
	if text == "" {
		return skills
	}

	seen := make(map[string]bool)
	for _, tok := range skillSeparator.Split(text, -1) {
		skill := strings.Trim(tok, skillTrimCutset)
		if skill == "" {
			continue
		}
		key := strings.ToLower(skill)
		if seen[key] {
			continue
		}
		seen[key] = true
		skills = append(skills, skill)
	}
	return skills
}

// Experiences splits experience section text into blank-line-delimited
// blocks and derives one record per non-empty block. Fields that cannot be
// determined get the Unknown sentinel; the verbatim block text is always
// kept as the description so no information is dropped.
func Experiences(text string) []types.Experience {
	experiences := []types.Experience{}
	for _, block := range splitBlocks(text) {
		experiences = append(experiences, types.Experience{
			Company:     firstMatch(leadingOrg, block),
			Position:    firstMatch(titlePattern, block),
			Description: block,
		})
	}
	return experiences
}

// EducationRecords splits education section text into blocks and derives
// one record per non-empty block, with the same defaulting rule as
// Experiences.
func EducationRecords(text string) []types.Education {
	education := []types.Education{}
	for _, block := range splitBlocks(text) {
		education = append(education, types.Education{
			Institution: firstMatch(leadingOrg, block),
			Degree:      firstMatch(degreePattern, block),
			Description: block,
		})
	}
	return education
}

// splitBlocks splits section text on blank-line boundaries and drops blocks
// that are empty after trimming.
func splitBlocks(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	normalized := strings.ReplaceAll(text, "\r\n", "\n")

	var blocks []string
	for _, block := range blockBoundary.Split(normalized, -1) {
		block = strings.TrimSpace(block)
		if block != "" {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

// firstMatch returns the trimmed first match of re in block, or the Unknown
// sentinel when the pattern does not apply.
func firstMatch(re *regexp.Regexp, block string) string {
	m := strings.TrimSpace(re.FindString(block))
	m = strings.Trim(m, ",")
	if m == "" {
		return types.Unknown
	}
	return m
}
