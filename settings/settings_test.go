package settings_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolworks/records-engine/settings"
)

func TestStore_Load_CreatesDefaultsWhenAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	st := settings.NewStore(path)

	s, err := st.Load()
	require.NoError(t, err)

	assert.Equal(t, "STU-", s.StudentIDPrefix)
	assert.Equal(t, "TCH-", s.TeacherIDPrefix)
	assert.Equal(t, 1, s.DefaultMonth)

	// The file exists afterwards.
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	st := settings.NewStore(path)

	s := settings.Default()
	s.StudentIDPrefix = "HTS-"
	s.StudentCustomFields = []string{"Guardian Name", "Blood Group"}
	s.DefaultStudentFee = decimal.NewFromInt(250)
	require.NoError(t, st.Save(s))

	loaded, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, "HTS-", loaded.StudentIDPrefix)
	assert.Equal(t, []string{"Guardian Name", "Blood Group"}, loaded.StudentCustomFields)
	assert.True(t, loaded.DefaultStudentFee.Equal(decimal.NewFromInt(250)))
}

func TestStore_Load_ClampsAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ui_scaling": 3.0, "default_month": 99}`), 0o644))

	s, err := settings.NewStore(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 1.4, s.UIScaling)
	assert.Equal(t, 1, s.DefaultMonth)
	assert.Equal(t, "STU-", s.StudentIDPrefix, "missing prefix falls back to default")
}
