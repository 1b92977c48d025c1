package alerts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avlloyd/jobscout/internal/scout"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "alerts.yaml"))
}

func sampleAlert(name string) Alert {
	return Alert{
		Name:    name,
		Enabled: true,
		Criteria: scout.Criteria{
			Keywords:   "platform engineer",
			Location:   "Berlin",
			TimeFilter: scout.TimePastWeek,
			WorkModes:  []scout.WorkMode{scout.WorkRemote},
			JobTypes:   []scout.JobType{scout.JobFullTime},
			MaxResults: 50,
		},
	}
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	store := tempStore(t)
	want := sampleAlert("platform")
	require.NoError(t, store.Create(want))

	got, err := store.Get("platform")
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.Create(sampleAlert("dup")))

	err := store.Create(sampleAlert("dup"))
	require.ErrorIs(t, err, ErrExists)
}

func TestCreateRejectsInvalidCriteria(t *testing.T) {
	store := tempStore(t)
	alert := sampleAlert("bad")
	alert.Criteria.Keywords = ""
	require.Error(t, store.Create(alert))

	all, err := store.List()
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestListSortedByName(t *testing.T) {
	store := tempStore(t)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, store.Create(sampleAlert(name)))
	}

	all, err := store.List()
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "alpha", all[0].Name)
	require.Equal(t, "mid", all[1].Name)
	require.Equal(t, "zeta", all[2].Name)
}

func TestEnabledFiltersDisabled(t *testing.T) {
	store := tempStore(t)
	on := sampleAlert("on")
	off := sampleAlert("off")
	off.Enabled = false
	require.NoError(t, store.Create(on))
	require.NoError(t, store.Create(off))

	enabled, err := store.Enabled()
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	require.Equal(t, "on", enabled[0].Name)
}

func TestApplyPartialUpdate(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.Create(sampleAlert("tweak")))

	disabled := false
	keywords := "sre"
	got, err := store.Apply("tweak", Update{Enabled: &disabled, Keywords: &keywords})
	require.NoError(t, err)
	require.False(t, got.Enabled)
	require.Equal(t, "sre", got.Criteria.Keywords)
	// untouched fields survive the merge
	require.Equal(t, "Berlin", got.Criteria.Location)
	require.Equal(t, scout.TimePastWeek, got.Criteria.TimeFilter)

	reread, err := store.Get("tweak")
	require.NoError(t, err)
	require.Equal(t, got, reread)
}

func TestApplyUnknownName(t *testing.T) {
	store := tempStore(t)
	enabled := true
	_, err := store.Apply("ghost", Update{Enabled: &enabled})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.Create(sampleAlert("gone")))
	require.NoError(t, store.Delete("gone"))

	_, err := store.Get("gone")
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, store.Delete("gone"), ErrNotFound)
}

func TestMissingFileIsEmptyStore(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope", "alerts.yaml"))
	all, err := store.List()
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestFileUsesReadableEnumNames(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alerts.yaml")
	store := NewStore(path)
	require.NoError(t, store.Create(sampleAlert("readable")))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read alerts file: %v", err)
	}
	text := string(data)
	require.Contains(t, text, "past_week")
	require.Contains(t, text, "remote")
	require.Contains(t, text, "full_time")
	require.NotContains(t, text, "r604800")
}

func TestHandEditedWireValuesParse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alerts.yaml")
	doc := `alerts:
  - name: wired
    enabled: true
    criteria:
      keywords: data engineer
      time_filter: r86400
      work_modes: ["2"]
      job_types: ["C"]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	got, err := NewStore(path).Get("wired")
	require.NoError(t, err)
	require.Equal(t, scout.TimePast24h, got.Criteria.TimeFilter)
	require.Equal(t, []scout.WorkMode{scout.WorkRemote}, got.Criteria.WorkModes)
	require.Equal(t, []scout.JobType{scout.JobContract}, got.Criteria.JobTypes)
}
