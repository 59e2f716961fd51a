package research

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Prompts holds the per-analyst query-generation prompt templates. Templates
// are Go-style format strings; see each analyzer for the arguments it
// substitutes.
type Prompts struct {
	Company   string `yaml:"company"`
	Industry  string `yaml:"industry"`
	Financial string `yaml:"financial"`
	News      string `yaml:"news"`
	Employee  string `yaml:"employee"`
}

// DefaultPrompts returns the built-in prompt templates.
func DefaultPrompts() *Prompts {
	return &Prompts{
		Company: `Generate queries on the company fundamentals of %s in the %s industry such as:
- Core products and services
- Company history and milestones
- Leadership team and key personnel
- Business model and strategy
- Market position and competitive advantages
- Recent developments and news`,
		Industry: `Generate queries on the industry analysis of %s in the %s industry such as:
- Market position and competitors
- Industry trends and challenges
- Market size and growth
- Regulatory environment and compliance
- Technology and innovation trends`,
		Financial: `Generate queries on the financial analysis of %s in the %s industry such as:
- Revenue and profitability
- Funding rounds and investors
- Financial performance and benchmarks
- Valuation and ownership structure`,
		News: `Generate queries for recent news coverage of %s in the %s industry such as:
- Major announcements and press releases
- Partnerships and acquisitions
- Leadership changes
- Product launches`,
		Employee: `You are a business data analyst. Your job is to provide the most recent employee count for a company.
- If you know the number, respond with only the number (no words, no formatting, no commas).
- If you do not know, respond with your best approximation based on company size and industry.
- If you know the year, append it in parentheses, e.g., 1200 (2023).

Examples:
Q: What is the most recent employee count for 'Google'?
A: 182502 (2023)

Q: What is the most recent employee count for 'Acme Widgets'?
A: 150

Now answer:
Q: What is the most recent employee count for '%s'%s?
A:`,
	}
}

// LoadPrompts reads prompt overrides from a YAML file, falling back to the
// defaults for any template the file omits. An empty path returns the
// defaults unchanged.
func LoadPrompts(path string) (*Prompts, error) {
	prompts := DefaultPrompts()
	if path == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "research: read prompts %s", path)
	}

	var override Prompts
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, eris.Wrap(err, "research: parse prompts")
	}

	if override.Company != "" {
		prompts.Company = override.Company
	}
	if override.Industry != "" {
		prompts.Industry = override.Industry
	}
	if override.Financial != "" {
		prompts.Financial = override.Financial
	}
	if override.News != "" {
		prompts.News = override.News
	}
	if override.Employee != "" {
		prompts.Employee = override.Employee
	}

	return prompts, nil
}
