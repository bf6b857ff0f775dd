package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedgrid/internal/grid"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
timezone: Asia/Seoul
view:
  first_day_of_week: 2
  work_days: [0, 1, 3, 4, 9]
resources:
  - name: Rooms
    title: Room
    items:
      - {id: "1", text: ROOM 1}
      - {id: "2", text: ROOM 2}
  - name: Owners
    title: Owner
    allow_multiple: true
    items:
      - {id: "1", text: Nancy, group_id: "1", work_days: [1, 2]}
      - {id: "3", text: Steven, group_id: "2"}
group:
  resources: [Rooms, Owners]
  by_date: true
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.True(t, cfg.View.ShowWeekend, "default kept")
	assert.Equal(t, []int{0, 1, 3, 4}, cfg.View.WorkDays, "invalid day dropped")
	assert.Equal(t, "Month", cfg.View.CurrentView)

	vc := cfg.ViewConfig(grid.NewDate(2017, time.October, 5))
	assert.Equal(t, time.Tuesday, vc.FirstDayOfWeek)
	assert.Equal(t, grid.NewWeekdaySet(0, 1, 3, 4), vc.WorkDays)
	assert.Equal(t, "Asia/Seoul", vc.Location.String())

	levels := cfg.ResourceLevels()
	require.Len(t, levels, 2)
	require.NotNil(t, levels[1].Resources[0].WorkDays)
	assert.Equal(t, grid.NewWeekdaySet(1, 2), *levels[1].Resources[0].WorkDays)
	assert.Nil(t, levels[1].Resources[1].WorkDays)

	g := cfg.Grouping()
	assert.Equal(t, []string{"Rooms", "Owners"}, g.Resources)
	assert.True(t, g.ByDate)
}

func TestNormalizeOutOfRange(t *testing.T) {
	cfg := &Config{View: ViewSettings{CurrentView: "Agenda", FirstDayOfWeek: 8, Interval: -1}}
	cfg.Normalize()

	assert.Equal(t, "Month", cfg.View.CurrentView)
	assert.Equal(t, 0, cfg.View.FirstDayOfWeek)
	assert.Equal(t, 1, cfg.View.Interval)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, cfg.View.WorkDays)
	assert.Equal(t, "*/15 * * * *", cfg.RefreshCron)

	cfg.View.Interval = 1000
	cfg.Normalize()
	assert.Equal(t, grid.MaxInterval, cfg.View.Interval)
}

func TestLocationFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Mars/Olympus"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.ICS = append(cfg.ICS, ICSConfig{
		ID: "team", URL: "https://example.com/team.ics",
		Resources: map[string][]string{"Owners": {"1"}},
		Block:     true,
	})
	require.NoError(t, cfg.Save(path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.ICS, back.ICS)

	assert.Error(t, Save("", cfg))
	assert.Error(t, Save(path, nil))
}
