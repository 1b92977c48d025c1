package api

import (
	"github.com/avlloyd/jobscout/internal/alerts"
	"github.com/avlloyd/jobscout/internal/scout"
)

// The wire format uses the same human-readable enum names as the
// alerts file.
type alertRequest struct {
	Name       string   `json:"name"`
	Enabled    *bool    `json:"enabled,omitempty"`
	Keywords   string   `json:"keywords"`
	Location   string   `json:"location,omitempty"`
	TimeFilter string   `json:"time_filter,omitempty"`
	WorkModes  []string `json:"work_modes,omitempty"`
	JobTypes   []string `json:"job_types,omitempty"`
	MaxResults int      `json:"max_results,omitempty"`
}

type alertResponse struct {
	Name       string   `json:"name"`
	Enabled    bool     `json:"enabled"`
	Keywords   string   `json:"keywords"`
	Location   string   `json:"location,omitempty"`
	TimeFilter string   `json:"time_filter,omitempty"`
	WorkModes  []string `json:"work_modes,omitempty"`
	JobTypes   []string `json:"job_types,omitempty"`
	MaxResults int      `json:"max_results,omitempty"`
}

func (r alertRequest) toAlert() (alerts.Alert, error) {
	criteria := scout.Criteria{
		Keywords:   r.Keywords,
		Location:   r.Location,
		MaxResults: r.MaxResults,
	}
	if r.TimeFilter != "" {
		tf, err := scout.ParseTimeFilter(r.TimeFilter)
		if err != nil {
			return alerts.Alert{}, err
		}
		criteria.TimeFilter = tf
	}
	for _, m := range r.WorkModes {
		mode, err := scout.ParseWorkMode(m)
		if err != nil {
			return alerts.Alert{}, err
		}
		criteria.WorkModes = append(criteria.WorkModes, mode)
	}
	for _, t := range r.JobTypes {
		jt, err := scout.ParseJobType(t)
		if err != nil {
			return alerts.Alert{}, err
		}
		criteria.JobTypes = append(criteria.JobTypes, jt)
	}
	// New alerts default to enabled unless the request says otherwise.
	enabled := true
	if r.Enabled != nil {
		enabled = *r.Enabled
	}
	return alerts.Alert{Name: r.Name, Enabled: enabled, Criteria: criteria}, nil
}

func toAlertResponse(a alerts.Alert) alertResponse {
	resp := alertResponse{
		Name:       a.Name,
		Enabled:    a.Enabled,
		Keywords:   a.Criteria.Keywords,
		Location:   a.Criteria.Location,
		MaxResults: a.Criteria.MaxResults,
	}
	if a.Criteria.TimeFilter != scout.TimeAny {
		resp.TimeFilter = a.Criteria.TimeFilter.Name()
	}
	for _, m := range a.Criteria.WorkModes {
		resp.WorkModes = append(resp.WorkModes, m.Name())
	}
	for _, t := range a.Criteria.JobTypes {
		resp.JobTypes = append(resp.JobTypes, t.Name())
	}
	return resp
}
