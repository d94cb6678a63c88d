package conversation

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Kind tags how a suggestion bundle was obtained, so callers can tell a
// machine-readable plan from a best-effort reading of prose.
type Kind string

const (
	KindStructured Kind = "structured"
	KindHeuristic  Kind = "heuristic"
	KindEmpty      Kind = "empty"
)

// Prescription is one suggested medication line.
type Prescription struct {
	DrugName     string `json:"drug_name"`
	Instructions string `json:"instructions"`
}

// Bundle is what could be read out of one assistant reply. Absent fields mean
// "not detected in this turn", not "the assistant said none".
type Bundle struct {
	Kind           Kind           `json:"kind"`
	Diagnosis      *string        `json:"diagnosis,omitempty"`
	TreatmentNotes *string        `json:"treatment_notes,omitempty"`
	Prescriptions  []Prescription `json:"prescriptions,omitempty"`
}

// IsEmpty reports whether nothing was detected.
func (b Bundle) IsEmpty() bool {
	return b.Diagnosis == nil && b.TreatmentNotes == nil && len(b.Prescriptions) == 0
}

var (
	fencedJSONRe  = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	diagnosisRe   = regexp.MustCompile(`(?i)^[\s*#>-]*(?:chẩn đoán|chan doan|diagnosis)\s*[:：]\s*(.*)$`)
	notesRe       = regexp.MustCompile(`(?i)^[\s*#>-]*(?:lời dặn|hướng dẫn điều trị|điều trị|treatment notes?|treatment|advice)\s*[:：]\s*(.*)$`)
	drugHeadingRe = regexp.MustCompile(`(?i)^[\s*#>-]*(?:đơn thuốc|thuốc|prescriptions?|medications?)\s*[:：]?\s*$`)
	bulletRe      = regexp.MustCompile(`^[\s]*(?:[-*•+]|\d+[.)])\s*`)
)

// minDrugNameLen drops list fragments too short to be a drug name.
const minDrugNameLen = 4

// Extract reads a suggestion bundle out of assistant prose. It is pure and
// has no failure mode: text with nothing recognizable yields an empty bundle.
// A JSON plan (fenced or bare) is preferred; label-based parsing is the
// fallback.
func Extract(text string) Bundle {
	if b, ok := extractStructured(text); ok {
		return b
	}
	return extractHeuristic(text)
}

// structuredPlan is the shape the assistant is asked to produce when the
// doctor requests a machine-readable plan.
type structuredPlan struct {
	Diagnosis      string `json:"diagnosis"`
	TreatmentNotes string `json:"treatmentNotes"`
	Drugs          []struct {
		DrugName     string `json:"drugName"`
		Instructions string `json:"instructions"`
	} `json:"drugs"`
}

func extractStructured(text string) (Bundle, bool) {
	var candidates []string
	for _, m := range fencedJSONRe.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, m[1])
	}
	if raw := bareJSONSpan(text, '{', '}'); raw != "" {
		candidates = append(candidates, raw)
	}
	if raw := bareJSONSpan(text, '[', ']'); raw != "" {
		candidates = append(candidates, raw)
	}

	for _, raw := range candidates {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		var plan structuredPlan
		if strings.HasPrefix(raw, "[") {
			// bare drug array
			if err := json.Unmarshal([]byte(raw), &plan.Drugs); err != nil {
				continue
			}
		} else if err := json.Unmarshal([]byte(raw), &plan); err != nil {
			continue
		}

		b := Bundle{Kind: KindStructured}
		if d := strings.TrimSpace(plan.Diagnosis); d != "" {
			b.Diagnosis = &d
		}
		if n := strings.TrimSpace(plan.TreatmentNotes); n != "" {
			b.TreatmentNotes = &n
		}
		for _, drug := range plan.Drugs {
			name := strings.TrimSpace(drug.DrugName)
			if name == "" {
				continue
			}
			b.Prescriptions = append(b.Prescriptions, Prescription{
				DrugName:     name,
				Instructions: strings.TrimSpace(drug.Instructions),
			})
		}
		if !b.IsEmpty() {
			return b, true
		}
	}
	return Bundle{}, false
}

// bareJSONSpan returns the outermost open..close span, or "".
func bareJSONSpan(text string, open, close byte) string {
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func extractHeuristic(text string) Bundle {
	b := Bundle{Kind: KindHeuristic}
	lines := strings.Split(text, "\n")

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		switch {
		case diagnosisRe.MatchString(line):
			if b.Diagnosis == nil {
				if v := spanValue(diagnosisRe, lines, i); v != "" {
					b.Diagnosis = &v
				}
			}
		case notesRe.MatchString(line):
			if b.TreatmentNotes == nil {
				if v := spanValue(notesRe, lines, i); v != "" {
					b.TreatmentNotes = &v
				}
			}
		case drugHeadingRe.MatchString(line):
			items, consumed := parseDrugBlock(lines[i+1:])
			b.Prescriptions = append(b.Prescriptions, items...)
			i += consumed
		}
	}

	if b.IsEmpty() {
		return Bundle{Kind: KindEmpty}
	}
	return b
}

// spanValue returns the labeled value: the inline remainder when present,
// otherwise the following lines up to a blank line or the next labeled
// section.
func spanValue(re *regexp.Regexp, lines []string, i int) string {
	m := re.FindStringSubmatch(lines[i])
	if v := strings.TrimSpace(m[1]); v != "" {
		return v
	}

	var parts []string
	for j := i + 1; j < len(lines); j++ {
		line := strings.TrimSpace(lines[j])
		if line == "" || isSectionLabel(lines[j]) {
			break
		}
		parts = append(parts, strings.TrimSpace(bulletRe.ReplaceAllString(lines[j], "")))
	}
	return strings.Join(parts, " ")
}

func isSectionLabel(line string) bool {
	return diagnosisRe.MatchString(line) || notesRe.MatchString(line) || drugHeadingRe.MatchString(line)
}

// parseDrugBlock reads the run of list-like lines following a prescription
// heading. It returns the parsed items and how many lines were consumed.
func parseDrugBlock(lines []string) ([]Prescription, int) {
	var items []Prescription
	consumed := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isSectionLabel(line) {
			break
		}
		consumed++

		stripped := strings.TrimSpace(bulletRe.ReplaceAllString(line, ""))
		if stripped == "" {
			continue
		}

		name, instructions := stripped, ""
		if idx := strings.Index(stripped, ":"); idx >= 0 {
			name = strings.TrimSpace(stripped[:idx])
			instructions = strings.TrimSpace(stripped[idx+1:])
		}
		if len([]rune(name)) < minDrugNameLen {
			continue
		}
		items = append(items, Prescription{DrugName: name, Instructions: instructions})
	}
	return items, consumed
}
