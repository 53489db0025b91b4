package xlsx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schoolworks/records-engine/records"
)

func TestClassifyWriteError(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"unix permission", errors.New("open school_data.xlsx: permission denied"), records.ErrLocked},
		{"windows sharing violation", errors.New("The process cannot access the file because it is being used by another process."), records.ErrLocked},
		{"windows access denied", errors.New("open school_data.xlsx: Access is denied."), records.ErrLocked},
		{"disk full", errors.New("write school_data.xlsx: no space left on device"), records.ErrStorage},
		{"generic", errors.New("zip: write error"), records.ErrStorage},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			classified := classifyWriteError("school_data.xlsx", c.err)
			assert.ErrorIs(t, classified, c.sentinel)
		})
	}
}

func TestClassifyWriteError_LockedCarriesRemediation(t *testing.T) {
	err := classifyWriteError("school_data.xlsx", errors.New("sharing violation"))

	var lerr *records.LockedFileError
	assert.ErrorAs(t, err, &lerr)
	assert.Contains(t, lerr.Error(), "close it and retry")
}
