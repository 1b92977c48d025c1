package scout

import "time"

// JobBaseURL is the canonical detail-page prefix a posting URL is
// derived from.
const JobBaseURL = "https://www.linkedin.com/jobs/view/"

// JobPosting is one observed job listing. Identity is the
// source-assigned ID; everything else is best-effort extracted and the
// value is never mutated after extraction.
type JobPosting struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Company            string     `json:"company"`
	Location           string     `json:"location"`
	URL                string     `json:"url"`
	PostedAt           *time.Time `json:"posted_at,omitempty"`
	DescriptionSnippet string     `json:"description_snippet,omitempty"`
	Salary             string     `json:"salary,omitempty"`
	Remote             bool       `json:"is_remote"`
	ApplicantsCount    string     `json:"applicants_count,omitempty"`
	ScrapedAt          time.Time  `json:"scraped_at"`
}

// SortTime is the ordering key for most-recent-first sorting: the
// posted timestamp when known, the capture timestamp otherwise. A
// posting with neither sorts as the oldest possible.
func (j JobPosting) SortTime() time.Time {
	if j.PostedAt != nil {
		return *j.PostedAt
	}
	return j.ScrapedAt
}
