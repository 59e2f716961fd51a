package model

// CategoryCount reports curated vs. raw document counts for one category.
type CategoryCount struct {
	Enriched int `json:"enriched"`
	Total    int `json:"total"`
}

// EmployeeCountSection is the employee-count slice of the enrichment
// snapshot. Total is always 1: the pipeline analyzes one subject company,
// while Enriched carries the summed headcount, so enriched <= total does not
// hold here by design.
type EmployeeCountSection struct {
	Enriched    int            `json:"enriched"`
	Total       int            `json:"total"`
	Data        map[string]int `json:"data"`
	HasData     bool           `json:"hasData"`
	TotalCount  int            `json:"totalCount"`
	ValidCounts int            `json:"validCounts"`
}

// EnrichmentSnapshot is the progress structure streamed to UI consumers.
// Field names are a stable wire contract; the frontend reads them verbatim.
type EnrichmentSnapshot struct {
	Company       CategoryCount        `json:"company"`
	EmployeeCount EmployeeCountSection `json:"employeeCount"`
	Industry      CategoryCount        `json:"industry"`
	Financial     CategoryCount        `json:"financial"`
	News          CategoryCount        `json:"news"`
}

// Clone returns a deep copy of the snapshot.
func (s *EnrichmentSnapshot) Clone() *EnrichmentSnapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.EmployeeCount.Data = make(map[string]int, len(s.EmployeeCount.Data))
	for k, v := range s.EmployeeCount.Data {
		out.EmployeeCount.Data[k] = v
	}
	return &out
}

// DocCount records before/after document counts for one curated category.
type DocCount struct {
	Initial int `json:"initial"`
	Kept    int `json:"kept"`
}

// DocCounts maps category tag to its curation counts.
type DocCounts map[DocType]DocCount
