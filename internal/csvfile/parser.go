// Package csvfile parses the semicolon/tab delimited test-case files that
// Qa-Hub imports and generates the matching template file.
//
// The dialect is not plain RFC 4180: the header row may sit below leading
// junk lines and is located by content, the delimiter is sniffed per file
// from the header (tab if present, else semicolon), and multi-value cells
// use semicolons as an intra-cell separator. Quoted fields follow the
// doubled-quote convention and may contain embedded newlines.
package csvfile

import (
	"strings"

	"github.com/qahub/qa-hub/internal/errors"
	"github.com/qahub/qa-hub/internal/testcase"
)

// ParsedRow is the parser's output record: the shape of a test-case
// creation payload with no identifier. Optional fields are nil when the
// cell was blank so consumers can tell "not provided" from "empty".
type ParsedRow struct {
	Title          string
	Description    *string
	Automated      bool
	Priority       int
	Severity       string
	Labels         *string
	Regression     bool
	EpicLink       *string
	LinkedIssue    *string
	ReleaseVersion *string
	Platform       *string // JSON array text, nil when the cell had no tokens
	Data           *testcase.Data
}

// Parser turns raw delimited text into ParsedRow records.
type Parser struct {
	// DefaultSeverity is assigned to rows with a blank severity cell.
	DefaultSeverity string
	// ListSeparator splits multi-value cells such as labels, ";" when empty.
	ListSeparator string
}

// NewParser returns a Parser with the standard defaults.
func NewParser() *Parser {
	return &Parser{DefaultSeverity: testcase.DefaultSeverity, ListSeparator: ";"}
}

// Parse is a convenience wrapper using the standard defaults.
func Parse(text string) ([]ParsedRow, error) {
	return NewParser().Parse(text)
}

// Parse parses raw file text. It fails with errors.ErrHeaderNotFound when no
// line contains both "title" and "description", and with
// errors.ErrRequiredColumnMissing when the header has no "title" column.
// Rows with a blank title are skipped, not reported.
func (p *Parser) Parse(text string) ([]ParsedRow, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	headerIdx := -1
	for i, line := range lines {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "title") && strings.Contains(lower, "description") {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 {
		return nil, errors.New(errors.ErrHeaderNotFound).
			Component("csvfile").
			Category(errors.CategoryCSVParsing).
			Build()
	}

	// Delimiter is a per-file choice sniffed from the header line.
	delimiter := ";"
	if strings.Contains(lines[headerIdx], "\t") {
		delimiter = "\t"
	}

	columns := splitFields(lines[headerIdx], delimiter)
	titleCol := -1
	colIndex := make(map[string]int, len(columns))
	for i, col := range columns {
		name := strings.ToLower(strings.TrimSpace(col))
		colIndex[name] = i
		if name == "title" {
			titleCol = i
		}
	}
	if titleCol == -1 {
		return nil, errors.New(errors.ErrRequiredColumnMissing).
			Component("csvfile").
			Category(errors.CategoryCSVParsing).
			Context("delimiter", delimiter).
			Build()
	}

	var rows []ParsedRow
	for i := headerIdx + 1; i < len(lines); i++ {
		logical := lines[i]
		// An odd number of quotes means an unterminated quoted field is
		// still open; keep appending physical lines until it closes.
		for strings.Count(logical, `"`)%2 == 1 && i+1 < len(lines) {
			i++
			logical += "\n" + lines[i]
		}
		if strings.TrimSpace(logical) == "" {
			continue
		}

		fields := splitFields(logical, delimiter)
		row, ok := p.mapRow(fields, colIndex)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// splitFields splits one logical row into cells with a streaming character
// scan: a quote toggles in/out of quoted mode, a doubled quote inside a
// quoted field is a literal quote, and the delimiter only separates fields
// outside quotes.
func splitFields(line, delimiter string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false
	delim := rune(delimiter[0])

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == delim && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	fields = append(fields, current.String())
	return fields
}

// mapRow converts raw cells into a ParsedRow. Returns ok=false when the
// title is blank.
func (p *Parser) mapRow(fields []string, colIndex map[string]int) (ParsedRow, bool) {
	cell := func(names ...string) string {
		for _, name := range names {
			if idx, ok := colIndex[name]; ok && idx < len(fields) {
				return strings.TrimSpace(fields[idx])
			}
		}
		return ""
	}

	title := cell("title")
	if title == "" {
		return ParsedRow{}, false
	}

	row := ParsedRow{
		Title:      title,
		Automated:  parseYes(cell("automated")),
		Regression: parseYes(cell("regression")),
		Priority:   ParsePriority(cell("priority")),
	}

	row.Description = optional(cell("description"))
	row.EpicLink = optional(cell("epic_link"))
	row.LinkedIssue = optional(cell("link_issue", "linked_issue"))
	row.ReleaseVersion = optional(cell("fix_version", "release_version"))

	row.Severity = cell("severity")
	if row.Severity == "" {
		row.Severity = p.DefaultSeverity
	}

	// Multi-value label cells use the configured separator; commas are the
	// canonical in-app join character.
	if labels := cell("label", "labels"); labels != "" {
		sep := p.ListSeparator
		if sep == "" {
			sep = ";"
		}
		joined := strings.ReplaceAll(labels, sep, ",")
		row.Labels = &joined
	}

	if platforms := testcase.SplitPlatforms(cell("platform")); len(platforms) > 0 {
		serialized := testcase.MarshalPlatforms(platforms)
		row.Platform = &serialized
	}

	data := &testcase.Data{}
	if pre := cell("precondition", "preconditions"); pre != "" {
		data.Preconditions = &testcase.Preconditions{
			Mode: testcase.PreconditionFreeText,
			Text: pre,
		}
	}
	if scenario := cell("scenario", "bdd_scenario"); scenario != "" {
		data.Scenario = scenario
	}
	if !data.IsZero() {
		row.Data = data
	}

	return row, true
}

// ParsePriority maps a priority token to its ordinal. The import dialect
// carries no token for Critical (4) even though the in-app domain is
// four-valued; unrecognized or absent tokens map to Medium.
func ParsePriority(token string) int {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "low":
		return testcase.PriorityLow
	case "medium":
		return testcase.PriorityMedium
	case "high":
		return testcase.PriorityHigh
	default:
		return testcase.PriorityMedium
	}
}

func parseYes(cell string) bool {
	return strings.EqualFold(strings.TrimSpace(cell), "yes")
}

func optional(cell string) *string {
	if cell == "" {
		return nil
	}
	return &cell
}
