package ranking

import (
	"encoding/json"
	"os"

	"github.com/mitchellh/mapstructure"
)

// Result is one scored candidate row for a given job. Rows are keyed by
// candidate email within one job's ranking set; two jobs may rank the same
// candidate independently with different scores.
type Result struct {
	CandidateEmail      string   `json:"candidate_email"`
	CandidateName       string   `json:"candidate_name,omitempty"`
	CurrentCTC          float64  `json:"current_ctc,omitempty"`
	ExpectedCTC         float64  `json:"expected_ctc,omitempty"`
	JDMatchScore        float64  `json:"jd_match_score"`
	ComparativeScore    float64  `json:"comparative_score"`
	SalaryMatchScore    float64  `json:"salary_match_score"`
	OverallScore        float64  `json:"overall_score"`
	Strengths           []string `json:"strengths,omitempty"`
	Weaknesses          []string `json:"weaknesses,omitempty"`
	BudgetFit           string   `json:"budget_fit,omitempty"`
	SalaryGapPercentage float64  `json:"salary_gap_percentage"`
	Recommendation      string   `json:"recommendation,omitempty"`
	Status              Status   `json:"status"`
}

// Set is the ordered ranking for one job, exactly as the scoring service
// returned it. Order is rank order; the client never reorders it.
type Set struct {
	Items []*Result
}

func (s *Set) Len() int {
	return len(s.Items)
}

func (s *Set) FindByEmail(email string) *Result {
	for _, r := range s.Items {
		if r.CandidateEmail == email {
			return r
		}
	}
	return nil
}

func (s *Set) Emails() []string {
	emails := make([]string, 0, len(s.Items))
	for _, r := range s.Items {
		emails = append(emails, r.CandidateEmail)
	}
	return emails
}

// Clone returns a deep copy, for callers that need to rearrange or trim
// rows without touching the cached snapshot.
func (s *Set) Clone() *Set {
	out := &Set{Items: make([]*Result, 0, len(s.Items))}
	for _, r := range s.Items {
		row := *r
		row.Strengths = append([]string(nil), r.Strengths...)
		row.Weaknesses = append([]string(nil), r.Weaknesses...)
		out.Items = append(out.Items, &row)
	}
	return out
}

func (s *Set) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "ranking_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// decodeSet maps the generic items of a ranking response onto typed rows
// using the json tag names. Rows without a usable status default to active.
func decodeSet(items []map[string]any) (*Set, error) {
	var results []*Result
	cfg := &mapstructure.DecoderConfig{
		Result:           &results,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(items); err != nil {
		return nil, err
	}

	for _, r := range results {
		if _, err := ParseStatus(string(r.Status)); err != nil {
			r.Status = StatusActive
		}
	}

	return &Set{Items: results}, nil
}
