// Package scout defines the domain types shared across the fetch,
// extraction, storage, and alerting layers.
package scout

import (
	"fmt"
	"net/url"
	"strings"
)

// TimeFilter restricts results to a posting window. Values are the
// upstream's f_TPR wire encoding.
type TimeFilter string

// Known time filters.
const (
	TimePast24h   TimeFilter = "r86400"
	TimePastWeek  TimeFilter = "r604800"
	TimePastMonth TimeFilter = "r2592000"
	TimeAny       TimeFilter = ""
)

// WorkMode is the upstream's f_WT wire encoding for on-site/remote/hybrid.
type WorkMode string

// Known work modes.
const (
	WorkOnSite WorkMode = "1"
	WorkRemote WorkMode = "2"
	WorkHybrid WorkMode = "3"
)

// JobType is the upstream's f_JT wire encoding for employment types.
type JobType string

// Known job types.
const (
	JobFullTime   JobType = "F"
	JobPartTime   JobType = "P"
	JobContract   JobType = "C"
	JobInternship JobType = "I"
	JobTemporary  JobType = "T"
	JobVolunteer  JobType = "V"
)

// MaxResultsLimit is the largest result cap a criteria may request,
// matching the upstream's hard pagination ceiling.
const MaxResultsLimit = 1000

// DefaultMaxResults is used when a criteria leaves MaxResults at zero.
const DefaultMaxResults = 100

// Criteria is an immutable search specification. Construct it as a
// literal and call Validate before use.
type Criteria struct {
	Keywords   string
	Location   string
	TimeFilter TimeFilter
	WorkModes  []WorkMode
	JobTypes   []JobType
	MaxResults int
}

// Validate enforces the criteria invariants: non-empty keywords and a
// result cap within [1, MaxResultsLimit]. A zero cap is allowed and
// treated as DefaultMaxResults by Limit.
func (c Criteria) Validate() error {
	if strings.TrimSpace(c.Keywords) == "" {
		return fmt.Errorf("criteria: keywords are required")
	}
	if c.MaxResults < 0 || c.MaxResults > MaxResultsLimit {
		return fmt.Errorf("criteria: max results %d outside [1, %d]", c.MaxResults, MaxResultsLimit)
	}
	return nil
}

// Limit returns the effective result cap.
func (c Criteria) Limit() int {
	if c.MaxResults == 0 {
		return DefaultMaxResults
	}
	return c.MaxResults
}

// Params encodes the criteria as upstream query parameters. A filter
// dimension that is empty or default is omitted entirely; no key is
// ever emitted with a placeholder value.
func (c Criteria) Params() url.Values {
	params := url.Values{}
	params.Set("keywords", c.Keywords)
	if c.Location != "" {
		params.Set("location", c.Location)
	}
	if c.TimeFilter != TimeAny {
		params.Set("f_TPR", string(c.TimeFilter))
	}
	if len(c.WorkModes) > 0 {
		modes := make([]string, 0, len(c.WorkModes))
		for _, m := range c.WorkModes {
			modes = append(modes, string(m))
		}
		params.Set("f_WT", strings.Join(modes, ","))
	}
	if len(c.JobTypes) > 0 {
		types := make([]string, 0, len(c.JobTypes))
		for _, t := range c.JobTypes {
			types = append(types, string(t))
		}
		params.Set("f_JT", strings.Join(types, ","))
	}
	return params
}

// RemoteOnly reports whether the work-mode filter is exactly the single
// value "remote". Mixed-mode searches return false so markup inspection
// can decide instead.
func (c Criteria) RemoteOnly() bool {
	return len(c.WorkModes) == 1 && c.WorkModes[0] == WorkRemote
}
