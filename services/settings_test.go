package services

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgwoorl/design-patterns-galiulina/core"
	"github.com/mgwoorl/design-patterns-galiulina/models"
)

// failOn fails the dispatch of one event kind and records what it saw.
type failOn struct {
	kind core.EventKind
	seen []core.EventKind
}

func (s *failOn) Handle(kind core.EventKind, payload interface{}) error {
	s.seen = append(s.seen, kind)
	if kind == s.kind {
		return errors.New("subscriber refused")
	}
	return nil
}

func newSettingsWorld(t *testing.T) (*fixture, *SettingsManager, string) {
	t.Helper()
	f := newFixture(t)
	turnover := NewTurnoverService(f.repo, f.bus)
	dir := t.TempDir()
	manager := NewSettingsManager(
		filepath.Join(dir, "settings.json"),
		filepath.Join(dir, "turnover_cache.json"),
		f.bus, turnover)
	return f, manager, dir
}

func TestLoadMissingSettingsFileKeepsDefaults(t *testing.T) {
	_, manager, _ := newSettingsWorld(t)

	require.NoError(t, manager.Load())
	assert.Equal(t, "Roga i Kopyta", manager.Settings().Company.Name)
	assert.True(t, manager.Settings().IsFirstStart)
	assert.Nil(t, manager.BlockPeriod())
}

func TestLoadParsesKnownFields(t *testing.T) {
	_, manager, dir := newSettingsWorld(t)

	content := `{
  "company": {"name": "Horns and Hooves"},
  "response_format": "csv",
  "is_first_start": false,
  "block_period": "2024-01-01"
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.json"), []byte(content), 0o644))

	require.NoError(t, manager.Load())
	assert.Equal(t, "Horns and Hooves", manager.Settings().Company.Name)
	assert.Equal(t, models.FormatCSV, manager.Settings().ResponseFormat)
	assert.False(t, manager.Settings().IsFirstStart)
	require.NotNil(t, manager.BlockPeriod())
	assert.True(t, manager.BlockPeriod().Equal(date(t, "2024-01-01")))
}

func TestSaveRoundTripsUnknownFields(t *testing.T) {
	_, manager, dir := newSettingsWorld(t)
	path := filepath.Join(dir, "settings.json")

	content := `{"company": {"name": "Horns and Hooves"}, "future_knob": {"depth": 3}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, manager.Load())
	require.NoError(t, manager.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "future_knob")
	assert.JSONEq(t, `{"depth": 3}`, string(doc["future_knob"]))
	assert.Contains(t, doc, "company")
	assert.Contains(t, doc, "block_period")
}

func TestSetBlockPeriodPersistsCacheAndSettings(t *testing.T) {
	f, manager, dir := newSettingsWorld(t)
	f.movement(t, "2023-06-01", 100)

	observer := &failOn{kind: "never"}
	f.bus.Subscribe(observer)

	cutoff := date(t, "2024-01-01")
	require.NoError(t, manager.SetBlockPeriod(cutoff))

	require.NotNil(t, manager.BlockPeriod())
	assert.True(t, manager.BlockPeriod().Equal(cutoff))
	assert.Len(t, f.repo.Turnovers(), 1)
	assert.FileExists(t, filepath.Join(dir, "turnover_cache.json"))
	assert.FileExists(t, filepath.Join(dir, "settings.json"))
	assert.Contains(t, observer.seen, core.EventChangeBlockPeriod)
}

func TestSetBlockPeriodRevertsOnRefusedAnnouncement(t *testing.T) {
	f, manager, _ := newSettingsWorld(t)
	f.movement(t, "2023-06-01", 100)

	f.bus.Subscribe(&failOn{kind: core.EventChangeBlockPeriod})

	err := manager.SetBlockPeriod(date(t, "2024-01-01"))
	require.Error(t, err)
	assert.Nil(t, manager.BlockPeriod(), "the cutoff stays unset when a subscriber refuses")

	require.NoError(t, manager.Load())
	assert.Nil(t, manager.BlockPeriod(), "the reverted value was persisted")
}

func TestSetBlockPeriodRejectsPrehistoricCutoff(t *testing.T) {
	_, manager, _ := newSettingsWorld(t)

	err := manager.SetBlockPeriod(date(t, "1899-12-31"))
	require.Error(t, err)
	assert.True(t, core.IsArgument(err))
}

func TestMarkStarted(t *testing.T) {
	_, manager, _ := newSettingsWorld(t)

	require.NoError(t, manager.MarkStarted())
	assert.False(t, manager.Settings().IsFirstStart)

	require.NoError(t, manager.Load())
	assert.False(t, manager.Settings().IsFirstStart)
}
