package alerts

import (
	"fmt"

	"github.com/avlloyd/jobscout/internal/scout"
)

// The on-disk document uses human-readable enum names ("past_week",
// "remote", "full_time") so the file stays hand-editable.
type alertsDoc struct {
	Alerts []alertEntry `yaml:"alerts"`
}

type alertEntry struct {
	Name     string        `yaml:"name"`
	Enabled  bool          `yaml:"enabled"`
	Criteria criteriaEntry `yaml:"criteria"`
}

type criteriaEntry struct {
	Keywords   string   `yaml:"keywords"`
	Location   string   `yaml:"location,omitempty"`
	TimeFilter string   `yaml:"time_filter,omitempty"`
	WorkModes  []string `yaml:"work_modes,omitempty"`
	JobTypes   []string `yaml:"job_types,omitempty"`
	MaxResults int      `yaml:"max_results,omitempty"`
}

func fromAlert(a Alert) alertEntry {
	entry := alertEntry{
		Name:    a.Name,
		Enabled: a.Enabled,
		Criteria: criteriaEntry{
			Keywords:   a.Criteria.Keywords,
			Location:   a.Criteria.Location,
			MaxResults: a.Criteria.MaxResults,
		},
	}
	if a.Criteria.TimeFilter != scout.TimeAny {
		entry.Criteria.TimeFilter = a.Criteria.TimeFilter.Name()
	}
	for _, m := range a.Criteria.WorkModes {
		entry.Criteria.WorkModes = append(entry.Criteria.WorkModes, m.Name())
	}
	for _, t := range a.Criteria.JobTypes {
		entry.Criteria.JobTypes = append(entry.Criteria.JobTypes, t.Name())
	}
	return entry
}

func (e alertEntry) toAlert() (Alert, error) {
	criteria := scout.Criteria{
		Keywords:   e.Criteria.Keywords,
		Location:   e.Criteria.Location,
		MaxResults: e.Criteria.MaxResults,
	}
	if e.Criteria.TimeFilter != "" {
		tf, err := scout.ParseTimeFilter(e.Criteria.TimeFilter)
		if err != nil {
			return Alert{}, fmt.Errorf("alert %q: %w", e.Name, err)
		}
		criteria.TimeFilter = tf
	}
	for _, m := range e.Criteria.WorkModes {
		mode, err := scout.ParseWorkMode(m)
		if err != nil {
			return Alert{}, fmt.Errorf("alert %q: %w", e.Name, err)
		}
		criteria.WorkModes = append(criteria.WorkModes, mode)
	}
	for _, t := range e.Criteria.JobTypes {
		jt, err := scout.ParseJobType(t)
		if err != nil {
			return Alert{}, fmt.Errorf("alert %q: %w", e.Name, err)
		}
		criteria.JobTypes = append(criteria.JobTypes, jt)
	}
	return Alert{Name: e.Name, Enabled: e.Enabled, Criteria: criteria}, nil
}
