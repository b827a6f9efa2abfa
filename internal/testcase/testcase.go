// Package testcase defines the shared test-case field vocabulary used by the
// CSV parser, the merge engine, the import reconciler and the API layer.
package testcase

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Priority ordinals. The in-app priority domain is four-valued; note that
// the CSV import dialect only carries tokens for the first three (see
// csvfile.ParsePriority).
const (
	PriorityLow      = 1
	PriorityMedium   = 2
	PriorityHigh     = 3
	PriorityCritical = 4
)

// PriorityLabel returns the display label for a priority ordinal.
func PriorityLabel(priority int) string {
	switch priority {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityCritical:
		return "Critical"
	default:
		return "Medium"
	}
}

// DefaultSeverity is assigned when a severity value is blank.
const DefaultSeverity = "Moderate"

// Platform enum values accepted in the platform set.
var KnownPlatforms = []string{"android", "ios", "mweb", "web"}

var platformSeparators = regexp.MustCompile(`[;,]`)

// SplitPlatforms splits a multi-value platform cell on semicolons or commas,
// lowercases and trims each token and drops empty ones.
func SplitPlatforms(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	var out []string
	for _, tok := range platformSeparators.Split(cell, -1) {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// MarshalPlatforms serializes a platform set to the JSON-array text form
// stored on a test case. Returns "" for an empty set.
func MarshalPlatforms(platforms []string) string {
	if len(platforms) == 0 {
		return ""
	}
	data, err := json.Marshal(platforms)
	if err != nil {
		// a []string cannot fail to marshal
		return ""
	}
	return string(data)
}

// UnmarshalPlatforms parses the JSON-array text form back into a platform
// set. A blank value yields nil; a bare non-array string is treated as a
// single-platform set for compatibility with hand-entered values.
func UnmarshalPlatforms(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return []string{strings.ToLower(strings.TrimSpace(text))}
	}
	return out
}

// PreconditionMode tags the two representations a precondition can take.
type PreconditionMode string

const (
	// PreconditionFreeText is plain text entered directly on the case.
	PreconditionFreeText PreconditionMode = "free_text"
	// PreconditionFromCases is HTML containing cross-links to other cases.
	PreconditionFromCases PreconditionMode = "from_other_cases"
)

// Preconditions is the tagged variant for a case's setup description.
type Preconditions struct {
	Mode PreconditionMode `json:"mode"`
	Text string           `json:"text"`
}

// Data is the free-form payload attached to a test case: the preconditions
// variant plus the BDD scenario text. Either part may be absent.
type Data struct {
	Preconditions *Preconditions `json:"preconditions,omitempty"`
	Scenario      string         `json:"scenario,omitempty"`
}

// IsZero reports whether the payload carries nothing worth storing.
func (d *Data) IsZero() bool {
	return d == nil || (d.Preconditions == nil && d.Scenario == "")
}

// MarshalData serializes a data payload to the JSON blob stored on a test
// case. Returns "" for an empty payload.
func MarshalData(d *Data) (string, error) {
	if d.IsZero() {
		return "", nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshaling case data: %w", err)
	}
	return string(raw), nil
}

// UnmarshalData parses the stored JSON blob. A blank blob yields nil.
func UnmarshalData(text string) (*Data, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var d Data
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		return nil, fmt.Errorf("unmarshaling case data: %w", err)
	}
	return &d, nil
}
