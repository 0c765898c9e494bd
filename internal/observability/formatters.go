// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-ingest/internal/pipeline"
	"github.com/jonathan/resume-ingest/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintIngestion outputs a human-readable summary of one completed
// ingestion: terminal state, attempts, and what was extracted.
func (p *Printer) PrintIngestion(result *pipeline.Result) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("State: %s\n", result.State))
	if result.Failure != pipeline.FailureNone {
		sb.WriteString(fmt.Sprintf("Degraded by: %s\n", result.Failure))
	}
	sb.WriteString(fmt.Sprintf("Extraction attempts: %d", result.Attempts))
	p.printBox("INGESTION", sb.String())

	p.PrintResume(result.Resume)
}

// PrintResume outputs a human-readable summary of an extracted resume.
func (p *Printer) PrintResume(resume *types.ExtractedResume) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Skills: %s\n", joinCapped(resume.Skills)))
	sb.WriteString(fmt.Sprintf("Experiences: %d\n", len(resume.Experiences)))
	for i, exp := range resume.Experiences {
		if i >= maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(resume.Experiences)-maxItemsToShow))
			break
		}
		sb.WriteString(fmt.Sprintf("  %s - %s\n", exp.Company, exp.Position))
	}
	sb.WriteString(fmt.Sprintf("Education: %d\n", len(resume.Education)))
	sb.WriteString(fmt.Sprintf("Full text: %d characters\n", len(resume.FullText)))
	if resume.Degraded {
		sb.WriteString("Degraded: structured data is synthesized")
	} else {
		sb.WriteString("Degraded: no")
	}

	p.printBox("EXTRACTED RESUME", sb.String())
}

// joinCapped joins up to maxItemsToShow items, noting the overflow.
func joinCapped(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	if len(items) <= maxItemsToShow {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s, +%d more", strings.Join(items[:maxItemsToShow], ", "), len(items)-maxItemsToShow)
}
