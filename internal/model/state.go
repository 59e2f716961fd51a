package model

// Message is one entry in the job's human-readable narration log.
type Message struct {
	Content string `json:"content"`
}

// ResearchState is the single shared record passed between all stages of one
// research job. It is mutated in place; the orchestrating runner serializes
// stages so there is one writer at any instant. The curator's reconciliation
// step guards the employee-count fields against interleaving with the
// company-fact stage across calls.
type ResearchState struct {
	JobID      string `json:"job_id"`
	Company    string `json:"company"`
	Industry   string `json:"industry,omitempty"`
	CompanyURL string `json:"company_url,omitempty"`
	HQLocation string `json:"hq_location,omitempty"`
	SiteScrape string `json:"site_scrape,omitempty"`

	// Raw per-category document sets, written by the analyzer stages.
	CompanyData   *DocumentSet `json:"company_data,omitempty"`
	IndustryData  *DocumentSet `json:"industry_data,omitempty"`
	FinancialData *DocumentSet `json:"financial_data,omitempty"`
	NewsData      *DocumentSet `json:"news_data,omitempty"`

	// Curated per-category subsets, written by the curator. Iteration order
	// is descending relevance rank.
	CuratedCompanyData   *DocumentSet `json:"curated_company_data,omitempty"`
	CuratedIndustryData  *DocumentSet `json:"curated_industry_data,omitempty"`
	CuratedFinancialData *DocumentSet `json:"curated_financial_data,omitempty"`
	CuratedNewsData      *DocumentSet `json:"curated_news_data,omitempty"`

	// EmployeeCount maps a company-identifying key to a validated headcount
	// in [1, 10_000_000]. CompanyCount is len(EmployeeCount) after
	// validation. Several stages race to populate these; the curator
	// preserves and restores them around category processing.
	EmployeeCount map[string]int `json:"employee_count,omitempty"`
	CompanyCount  int            `json:"company_count"`

	// EnrichmentCounts is derived accounting, recomputed on demand by the
	// curator. Never the source of truth.
	EnrichmentCounts *EnrichmentSnapshot `json:"enrichment_counts,omitempty"`

	// References selected for the final report.
	References      []string          `json:"references,omitempty"`
	ReferenceTitles map[string]string `json:"reference_titles,omitempty"`

	Queries  map[string][]string `json:"queries,omitempty"`
	Messages []Message           `json:"messages,omitempty"`
}

// NewResearchState creates a state for one job.
func NewResearchState(jobID, company, industry string) *ResearchState {
	return &ResearchState{
		JobID:    jobID,
		Company:  company,
		Industry: industry,
		Queries:  make(map[string][]string),
	}
}

// RawData returns the raw document set for a category (may be nil).
func (s *ResearchState) RawData(dt DocType) *DocumentSet {
	switch dt {
	case DocTypeCompany:
		return s.CompanyData
	case DocTypeIndustry:
		return s.IndustryData
	case DocTypeFinancial:
		return s.FinancialData
	case DocTypeNews:
		return s.NewsData
	}
	return nil
}

// CuratedData returns the curated document set for a category (may be nil).
func (s *ResearchState) CuratedData(dt DocType) *DocumentSet {
	switch dt {
	case DocTypeCompany:
		return s.CuratedCompanyData
	case DocTypeIndustry:
		return s.CuratedIndustryData
	case DocTypeFinancial:
		return s.CuratedFinancialData
	case DocTypeNews:
		return s.CuratedNewsData
	}
	return nil
}

// SetCuratedData stores the curated set for a category. Overwrites any
// previously curated set for the same category; the operation is idempotent
// for unchanged inputs.
func (s *ResearchState) SetCuratedData(dt DocType, set *DocumentSet) {
	switch dt {
	case DocTypeCompany:
		s.CuratedCompanyData = set
	case DocTypeIndustry:
		s.CuratedIndustryData = set
	case DocTypeFinancial:
		s.CuratedFinancialData = set
	case DocTypeNews:
		s.CuratedNewsData = set
	}
}

// AppendMessage appends one narration entry to the message log.
func (s *ResearchState) AppendMessage(content string) {
	s.Messages = append(s.Messages, Message{Content: content})
}
