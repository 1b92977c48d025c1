package scout

import (
	"fmt"
	"strings"
)

// Human-readable enum names, used by the alerts file and CLI flags.
// Parsing also accepts the raw wire value so hand-edited files keep
// working.

var timeFilterNames = map[TimeFilter]string{
	TimePast24h:   "past_24h",
	TimePastWeek:  "past_week",
	TimePastMonth: "past_month",
	TimeAny:       "any_time",
}

var workModeNames = map[WorkMode]string{
	WorkOnSite: "on_site",
	WorkRemote: "remote",
	WorkHybrid: "hybrid",
}

var jobTypeNames = map[JobType]string{
	JobFullTime:   "full_time",
	JobPartTime:   "part_time",
	JobContract:   "contract",
	JobInternship: "internship",
	JobTemporary:  "temporary",
	JobVolunteer:  "volunteer",
}

// Name returns the human-readable name of the filter.
func (t TimeFilter) Name() string { return timeFilterNames[t] }

// Name returns the human-readable name of the mode.
func (w WorkMode) Name() string { return workModeNames[w] }

// Name returns the human-readable name of the type.
func (j JobType) Name() string { return jobTypeNames[j] }

// ParseTimeFilter accepts a name ("past_week") or wire value ("r604800").
func ParseTimeFilter(s string) (TimeFilter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for value, name := range timeFilterNames {
		if s == name || s == string(value) {
			return value, nil
		}
	}
	return TimeAny, fmt.Errorf("unknown time filter %q", s)
}

// ParseWorkMode accepts a name ("remote") or wire value ("2").
func ParseWorkMode(s string) (WorkMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for value, name := range workModeNames {
		if s == name || s == string(value) {
			return value, nil
		}
	}
	return "", fmt.Errorf("unknown work mode %q", s)
}

// ParseJobType accepts a name ("contract") or wire value ("C").
func ParseJobType(s string) (JobType, error) {
	s = strings.TrimSpace(s)
	for value, name := range jobTypeNames {
		if strings.ToLower(s) == name || strings.EqualFold(s, string(value)) {
			return value, nil
		}
	}
	return "", fmt.Errorf("unknown job type %q", s)
}
