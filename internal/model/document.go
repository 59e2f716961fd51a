package model

import (
	"encoding/json"
	"strconv"
)

// DocType identifies the research category a document belongs to.
type DocType string

const (
	DocTypeCompany   DocType = "company"
	DocTypeIndustry  DocType = "industry"
	DocTypeFinancial DocType = "financial"
	DocTypeNews      DocType = "news"
)

// Categories lists all document categories in curation order.
var Categories = []DocType{DocTypeFinancial, DocTypeNews, DocTypeIndustry, DocTypeCompany}

// Document is a single search result gathered by a research stage.
// Fields coming back from the search provider are loosely typed: Score and
// EmployeeCount may be absent, or carry the wrong JSON type. Callers go
// through the accessor methods instead of reading those fields directly.
type Document struct {
	Title         string      `json:"title,omitempty"`
	URL           string      `json:"url,omitempty"`
	Content       string      `json:"content,omitempty"`
	RawContent    string      `json:"raw_content,omitempty"`
	Score         any         `json:"score,omitempty"`
	Query         string      `json:"query,omitempty"`
	QueryIndex    int         `json:"query_index,omitempty"`
	DocType       DocType     `json:"doc_type,omitempty"`
	EmployeeCount any         `json:"employee_count,omitempty"`
	Evaluation    *Evaluation `json:"evaluation,omitempty"`
}

// Evaluation is attached to a document that survived curation.
type Evaluation struct {
	OverallScore    float64 `json:"overall_score"`
	Query           string  `json:"query"`
	RelevanceReason string  `json:"relevance_reason"`
}

// RelevanceScore coerces the provider-reported score to a float64.
// Returns false when the score is absent or not numeric.
func (d *Document) RelevanceScore() (float64, bool) {
	return coerceFloat(d.Score)
}

// EmployeeCountValue coerces an embedded employee_count field to an int.
// Returns false when the field is absent or not numeric.
func (d *Document) EmployeeCountValue() (int, bool) {
	f, ok := coerceFloat(d.EmployeeCount)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func coerceFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
