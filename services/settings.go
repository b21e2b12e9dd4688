package services

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/mgwoorl/design-patterns-galiulina/core"
	"github.com/mgwoorl/design-patterns-galiulina/models"
)

const settingsServiceName = "settings"

// SettingsManager owns the settings file: the company record, the response
// format, the first-start flag and the block period. Unknown fields found in
// the file are preserved across save cycles. It also drives the block period
// transition, which rebuilds and persists the turnover cache before the new
// cutoff becomes visible.
type SettingsManager struct {
	path      string
	cachePath string
	settings  *models.Settings
	extra     map[string]json.RawMessage
	bus       *core.Bus
	turnover  *TurnoverService
}

// NewSettingsManager creates a manager with default settings, not yet loaded.
func NewSettingsManager(path, cachePath string, bus *core.Bus, turnover *TurnoverService) *SettingsManager {
	return &SettingsManager{
		path:      path,
		cachePath: cachePath,
		settings:  models.DefaultSettings(),
		extra:     make(map[string]json.RawMessage),
		bus:       bus,
		turnover:  turnover,
	}
}

// Settings returns the live settings object.
func (m *SettingsManager) Settings() *models.Settings {
	return m.settings
}

// BlockPeriod returns the current cutoff, nil when none is set.
func (m *SettingsManager) BlockPeriod() *time.Time {
	return m.settings.BlockPeriod
}

// Load reads the settings file. A missing file keeps the defaults and is not
// an error, so the very first start works without any state on disk.
func (m *SettingsManager) Load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			m.bus.Info(settingsServiceName, "settings file absent, using defaults", map[string]interface{}{"file": m.path})
			return nil
		}
		return core.WrapOperationError(err, "cannot read settings file %s", m.path)
	}

	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return core.WrapOperationError(err, "cannot parse settings file %s", m.path)
	}

	loaded := models.DefaultSettings()
	if field, ok := raw["company"]; ok {
		if err := json.Unmarshal(field, &loaded.Company); err != nil {
			return core.WrapOperationError(err, "settings file %s: bad company record", m.path)
		}
	}
	if field, ok := raw["response_format"]; ok {
		var name string
		if err := json.Unmarshal(field, &name); err != nil {
			return core.WrapOperationError(err, "settings file %s: bad response format", m.path)
		}
		loaded.ResponseFormat, _ = models.ParseResponseFormat(name)
	}
	if field, ok := raw["is_first_start"]; ok {
		if err := json.Unmarshal(field, &loaded.IsFirstStart); err != nil {
			return core.WrapOperationError(err, "settings file %s: bad first start flag", m.path)
		}
	}
	if field, ok := raw["block_period"]; ok && string(field) != "null" {
		var value string
		if err := json.Unmarshal(field, &value); err != nil {
			return core.WrapOperationError(err, "settings file %s: bad block period", m.path)
		}
		period, err := core.ParseInstant(value)
		if err != nil {
			return core.WrapOperationError(err, "settings file %s: bad block period", m.path)
		}
		loaded.BlockPeriod = &period
	}

	for _, known := range []string{"company", "response_format", "is_first_start", "block_period"} {
		delete(raw, known)
	}

	m.settings = loaded
	m.extra = raw
	m.bus.Info(settingsServiceName, "settings loaded", map[string]interface{}{"file": m.path})
	return nil
}

// Save writes the settings file, merging back any unknown fields the loaded
// file carried.
func (m *SettingsManager) Save() error {
	doc := make(map[string]interface{}, len(m.extra)+4)
	for key, value := range m.extra {
		doc[key] = value
	}
	doc["company"] = m.settings.Company
	doc["response_format"] = m.settings.ResponseFormat
	doc["is_first_start"] = m.settings.IsFirstStart
	if m.settings.BlockPeriod != nil {
		doc["block_period"] = core.FormatInstant(*m.settings.BlockPeriod)
	} else {
		doc["block_period"] = nil
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return core.WrapOperationError(err, "cannot encode settings")
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return core.WrapOperationError(err, "cannot write settings file %s", m.path)
	}
	return nil
}

// SetBlockPeriod moves the cutoff. The turnover cache is rebuilt for the new
// cutoff and persisted first; only then does the new value become visible,
// get saved and get announced on the bus. Any failure leaves the visible
// settings unchanged.
func (m *SettingsManager) SetBlockPeriod(period time.Time) error {
	if period.Before(models.MinTransactionDate) {
		return core.NewArgumentError("block period %s precedes 1900-01-01", core.FormatInstant(period))
	}

	if err := m.turnover.ComputeToBlockPeriod(period); err != nil {
		return err
	}
	if err := m.turnover.SaveSnapshot(m.cachePath); err != nil {
		return err
	}

	old := m.settings.BlockPeriod
	m.settings.BlockPeriod = &period
	if err := m.Save(); err != nil {
		m.settings.BlockPeriod = old
		return err
	}

	if err := m.bus.Fire(core.EventChangeBlockPeriod, core.BlockPeriodPayload{Period: period}); err != nil {
		m.settings.BlockPeriod = old
		if saveErr := m.Save(); saveErr != nil {
			m.bus.Error(settingsServiceName, "cannot restore settings after failed block period announcement",
				map[string]interface{}{"error": saveErr.Error()})
		}
		return err
	}

	m.bus.Info(settingsServiceName, "block period changed", map[string]interface{}{
		"block_period": core.FormatInstant(period),
	})
	return nil
}

// MarkStarted clears the first-start flag and persists it.
func (m *SettingsManager) MarkStarted() error {
	m.settings.IsFirstStart = false
	return m.Save()
}
