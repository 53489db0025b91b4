/*
Package settings handles process-wide configuration for the records engine.

PURPOSE:
  Settings are a single JSON document loaded at startup and persisted on
  change. They carry the ID prefixes, the per-entity custom-field lists,
  and the default payment amounts/period the rollover computation uses.
  The engine round-trips the UI-facing keys (appearance, scaling) without
  interpreting them.

LIFECYCLE:
  store := settings.NewStore("settings.json")
  cfg, err := store.Load()   // creates the file with defaults if absent
  ...
  err = store.Save(cfg)      // callers then re-apply custom fields to the
                             // data store (column migration)
*/
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
)

// Settings is the whole configuration document. Zero values are replaced by
// defaults in normalize, so a partially filled file stays usable.
type Settings struct {
	StudentIDPrefix      string          `json:"student_id_prefix"`
	TeacherIDPrefix      string          `json:"teacher_id_prefix"`
	StudentCustomFields  []string        `json:"student_custom_fields"`
	TeacherCustomFields  []string        `json:"teacher_custom_fields"`
	DefaultYear          int             `json:"default_year"`
	DefaultMonth         int             `json:"default_month"`
	DefaultStudentFee    decimal.Decimal `json:"default_student_fee"`
	DefaultTeacherSalary decimal.Decimal `json:"default_teacher_salary"`

	// UI-facing, stored but not interpreted here.
	AppearanceMode string  `json:"appearance_mode"`
	UIScaling      float64 `json:"ui_scaling"`
}

// Default returns the settings used when no file exists yet.
func Default() Settings {
	return Settings{
		StudentIDPrefix: "STU-",
		TeacherIDPrefix: "TCH-",
		DefaultYear:     2026,
		DefaultMonth:    1,
		AppearanceMode:  "Light",
		UIScaling:       1.0,
	}
}

// normalize fills gaps and clamps out-of-range values so downstream code
// never sees an unusable document.
func (s Settings) normalize() Settings {
	d := Default()
	if s.StudentIDPrefix == "" {
		s.StudentIDPrefix = d.StudentIDPrefix
	}
	if s.TeacherIDPrefix == "" {
		s.TeacherIDPrefix = d.TeacherIDPrefix
	}
	if s.DefaultYear == 0 {
		s.DefaultYear = d.DefaultYear
	}
	if s.DefaultMonth < 1 || s.DefaultMonth > 12 {
		s.DefaultMonth = d.DefaultMonth
	}
	if s.AppearanceMode == "" {
		s.AppearanceMode = d.AppearanceMode
	}
	// Fractional scaling outside this range renders blurry.
	if s.UIScaling < 0.8 {
		s.UIScaling = 0.8
	}
	if s.UIScaling > 1.4 {
		s.UIScaling = 1.4
	}
	if s.DefaultStudentFee.IsNegative() {
		s.DefaultStudentFee = decimal.Zero
	}
	if s.DefaultTeacherSalary.IsNegative() {
		s.DefaultTeacherSalary = decimal.Zero
	}
	return s
}

// Store reads and writes the settings document.
type Store struct {
	Path string
}

func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Load reads the document, creating it with defaults when absent.
func (st *Store) Load() (Settings, error) {
	data, err := os.ReadFile(st.Path)
	if os.IsNotExist(err) {
		s := Default()
		if err := st.Save(s); err != nil {
			return Settings{}, err
		}
		return s, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	return s.normalize(), nil
}

// Save persists the document, creating parent directories as needed.
func (st *Store) Save(s Settings) error {
	if err := os.MkdirAll(filepath.Dir(st.Path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	data, err := json.MarshalIndent(s.normalize(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(st.Path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
