package parser

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avlloyd/jobscout/internal/scout"
)

const fullCard = `
<ul>
  <li class="jobs-search__result-card" data-entity-urn="urn:li:jobPosting:3801234567">
    <h3 class="base-search-card__title">Senior Go Engineer</h3>
    <h4 class="base-search-card__subtitle"><a>Acme Corp</a></h4>
    <span class="job-search-card__location">Berlin, Germany</span>
    <time datetime="2026-08-20T10:30:00Z">5 days ago</time>
    <p class="job-search-card__snippet">Build distributed systems.</p>
    <span class="job-search-card__salary-info">€90,000 - €110,000</span>
    <span class="job-search-card__applicant-count">42 applicants</span>
    <a class="base-card__full-link" href="https://www.linkedin.com/jobs/view/3801234567"></a>
  </li>
</ul>`

func card(id, location, extra string) string {
	return fmt.Sprintf(`<div class="base-card" data-entity-urn="urn:li:jobPosting:%s">
      <h3 class="base-search-card__title">Engineer</h3>
      <h4 class="base-search-card__subtitle">Corp</h4>
      <span class="job-search-card__location">%s</span>
      %s
    </div>`, id, location, extra)
}

func TestParseFullCard(t *testing.T) {
	t.Parallel()

	p := New(nil)
	jobs, err := p.Parse(fullCard, nil)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	job := jobs[0]
	require.Equal(t, "3801234567", job.ID)
	require.Equal(t, "Senior Go Engineer", job.Title)
	require.Equal(t, "Acme Corp", job.Company)
	require.Equal(t, "Berlin, Germany", job.Location)
	require.Equal(t, "https://www.linkedin.com/jobs/view/3801234567", job.URL)
	require.NotNil(t, job.PostedAt)
	require.Equal(t, time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC), job.PostedAt.UTC())
	require.Equal(t, "Build distributed systems.", job.DescriptionSnippet)
	require.Equal(t, "€90,000 - €110,000", job.Salary)
	require.Equal(t, "42 applicants", job.ApplicantsCount)
	require.False(t, job.Remote)
	require.False(t, job.ScrapedAt.IsZero())
}

func TestParseDeduplicatesByID(t *testing.T) {
	t.Parallel()

	html := `<div class="base-card" data-entity-urn="urn:li:jobPosting:111">
      <h3 class="base-search-card__title">First Occurrence</h3>
    </div>` + card("111", "Paris", "") + card("222", "Lyon", "")

	p := New(nil)
	jobs, err := p.Parse(html, nil)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	require.Equal(t, "111", jobs[0].ID)
	// First occurrence's fields win.
	require.Equal(t, "First Occurrence", jobs[0].Title)
	require.Equal(t, "222", jobs[1].ID)
}

func TestParseSkipsCardWithoutID(t *testing.T) {
	t.Parallel()

	html := `<div class="base-card">
      <h3 class="base-search-card__title">No Identity</h3>
    </div>` + card("333", "Oslo", "")

	p := New(nil)
	jobs, err := p.Parse(html, nil)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, "333", jobs[0].ID)
}

func TestParseIDFromDetailLink(t *testing.T) {
	t.Parallel()

	html := `<div class="base-card">
      <a class="base-card__full-link" href="https://www.linkedin.com/jobs/view/4459988776?refId=x"></a>
    </div>`

	p := New(nil)
	jobs, err := p.Parse(html, nil)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, "4459988776", jobs[0].ID)
}

func TestParseUnknownFallbacks(t *testing.T) {
	t.Parallel()

	html := `<div class="base-card" data-entity-urn="urn:li:jobPosting:444"></div>`

	p := New(nil)
	jobs, err := p.Parse(html, nil)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, "Unknown", jobs[0].Title)
	require.Equal(t, "Unknown", jobs[0].Company)
	require.Equal(t, "Unknown", jobs[0].Location)
	require.Nil(t, jobs[0].PostedAt)
	require.Empty(t, jobs[0].Salary)
	require.Empty(t, jobs[0].DescriptionSnippet)
}

func TestParseRelativeTimeFallback(t *testing.T) {
	t.Parallel()

	html := card("555", "Madrid", `<time>2 days ago</time>`)
	p := New(nil)
	jobs, err := p.Parse(html, nil)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.NotNil(t, jobs[0].PostedAt)
	expected := time.Now().Add(-48 * time.Hour)
	require.WithinDuration(t, expected, *jobs[0].PostedAt, time.Minute)
}

func TestParseRelativeTimePhrases(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		text string
		want *time.Time
	}{
		{"10 minutes ago", ptr(now.Add(-10 * time.Minute))},
		{"3 hours ago", ptr(now.Add(-3 * time.Hour))},
		{"1 day ago", ptr(now.Add(-24 * time.Hour))},
		{"2 weeks ago", ptr(now.Add(-14 * 24 * time.Hour))},
		{"1 month ago", ptr(now.Add(-30 * 24 * time.Hour))},
		{"Just now", ptr(now)},
		{"moments ago", ptr(now)},
		{"recently", nil},
		{"", nil},
		{"yesterday", nil},
	}
	for _, tc := range cases {
		got := parseRelativeTime(tc.text, now)
		if tc.want == nil {
			require.Nil(t, got, "text %q", tc.text)
			continue
		}
		require.NotNil(t, got, "text %q", tc.text)
		require.Equal(t, *tc.want, *got, "text %q", tc.text)
	}
}

func ptr(t time.Time) *time.Time { return &t }

func TestRemoteResolutionPriority(t *testing.T) {
	t.Parallel()

	badge := `<span class="remote-badge">Remote</span>`
	remoteOnly := &scout.Criteria{Keywords: "go", WorkModes: []scout.WorkMode{scout.WorkRemote}}
	mixed := &scout.Criteria{Keywords: "go", WorkModes: []scout.WorkMode{scout.WorkRemote, scout.WorkHybrid}}

	cases := []struct {
		name     string
		html     string
		criteria *scout.Criteria
		want     bool
	}{
		{"remote-only filter trusted over markup", card("1", "Warsaw, Poland", ""), remoteOnly, true},
		{"mixed filter falls through, no cue", card("2", "Warsaw, Poland", ""), mixed, false},
		{"mixed filter falls through to location", card("3", "Remote - EMEA", ""), mixed, true},
		{"location substring case-insensitive", card("4", "REMOTE, United States", ""), nil, true},
		{"badge only", card("5", "Austin, TX", badge), nil, true},
		{"badge with mixed filter", card("6", "Austin, TX", badge), mixed, true},
		{"no signal", card("7", "Austin, TX", ""), nil, false},
	}
	p := New(nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			jobs, err := p.Parse(tc.html, tc.criteria)
			require.NoError(t, err)
			require.Len(t, jobs, 1)
			require.Equal(t, tc.want, jobs[0].Remote)
		})
	}
}

func TestParseEmptyDocument(t *testing.T) {
	t.Parallel()

	p := New(nil)
	jobs, err := p.Parse("<html><body><p>no results</p></body></html>", nil)
	require.NoError(t, err)
	require.Empty(t, jobs)
}

func TestParseDatetimeAttrTakesPrecedence(t *testing.T) {
	t.Parallel()

	html := card("666", "Rome", `<time datetime="2026-08-01">3 weeks ago</time>`)
	p := New(nil)
	jobs, err := p.Parse(html, nil)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.NotNil(t, jobs[0].PostedAt)
	require.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), jobs[0].PostedAt.UTC())
}
