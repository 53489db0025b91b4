package xlsx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolworks/records-engine/records"
)

var wantCols = []string{"student_id", "first_name", "last_name"}

func TestRepairSheet_EmptySheetGetsHeader(t *testing.T) {
	sh, err := repairSheet("students", nil, wantCols)
	require.NoError(t, err)
	assert.Equal(t, wantCols, sh.header)
	assert.Empty(t, sh.rows)
}

func TestRepairSheet_PromotesHeaderBelowBlankRow(t *testing.T) {
	// GIVEN: a blank row 1 with the real header pushed to row 2
	raw := [][]string{
		{},
		{"student_id", "first_name", "last_name"},
		{"STU-0001", "Amina", "Khan"},
	}

	sh, err := repairSheet("students", raw, wantCols)
	require.NoError(t, err)
	assert.Equal(t, wantCols, sh.header)
	require.Len(t, sh.rows, 1)
	assert.Equal(t, "STU-0001", sh.rows[0][0])
}

func TestRepairSheet_DropsDuplicateHeaderRows(t *testing.T) {
	raw := [][]string{
		{"student_id", "first_name", "last_name"},
		{"STU-0001", "Amina", "Khan"},
		{"student_id", "first_name", "last_name"}, // appended twice by a bad writer
		{"STU-0002", "Bilal", "Syed"},
	}

	sh, err := repairSheet("students", raw, wantCols)
	require.NoError(t, err)
	require.Len(t, sh.rows, 2)
	assert.Equal(t, "STU-0001", sh.rows[0][0])
	assert.Equal(t, "STU-0002", sh.rows[1][0])
}

func TestRepairSheet_DropsBlankBodyRows(t *testing.T) {
	raw := [][]string{
		{"student_id", "first_name", "last_name"},
		{"", "", ""},
		{"STU-0001", "Amina", "Khan"},
		{},
	}

	sh, err := repairSheet("students", raw, wantCols)
	require.NoError(t, err)
	assert.Len(t, sh.rows, 1)
}

func TestRepairSheet_AppendsMissingColumnsAndPadsRows(t *testing.T) {
	// GIVEN: the sheet predates the "Guardian Name" custom field
	raw := [][]string{
		{"student_id", "first_name", "last_name"},
		{"STU-0001", "Amina", "Khan"},
	}
	want := append(append([]string(nil), wantCols...), "Guardian Name")

	sh, err := repairSheet("students", raw, want)
	require.NoError(t, err)
	assert.Equal(t, want, sh.header)
	require.Len(t, sh.rows, 1)
	require.Len(t, sh.rows[0], 4)
	assert.Equal(t, "", sh.rows[0][3], "existing rows gain an empty cell")
}

func TestRepairSheet_PreservesUnknownColumns(t *testing.T) {
	raw := [][]string{
		{"student_id", "first_name", "last_name", "legacy_house"},
		{"STU-0001", "Amina", "Khan", "Falcon"},
	}

	sh, err := repairSheet("students", raw, wantCols)
	require.NoError(t, err)
	assert.Contains(t, sh.header, "legacy_house")
	assert.Equal(t, "Falcon", sh.rows[0][3])
}

func TestRepairSheet_Idempotent(t *testing.T) {
	raw := [][]string{
		{},
		{"student_id", "first_name", "last_name"},
		{"STU-0001", "Amina", "Khan"},
		{"", "", ""},
		{"student_id", "first_name", "last_name"},
	}
	want := append(append([]string(nil), wantCols...), "Guardian Name")

	once, err := repairSheet("students", raw, want)
	require.NoError(t, err)

	again, err := repairSheet("students", append([][]string{once.header}, once.rows...), want)
	require.NoError(t, err)

	assert.Equal(t, once.header, again.header)
	assert.Equal(t, once.rows, again.rows)
}

func TestRepairSheet_UnrecognizableHeaderFails(t *testing.T) {
	// Data rows with no header anywhere near the top are unrepairable.
	raw := [][]string{
		{"STU-0001", "Amina", "Khan"},
	}

	_, err := repairSheet("students", raw, wantCols)
	assert.ErrorIs(t, err, records.ErrSchema)

	var serr *records.SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "students", serr.Sheet)
}

func TestNextID(t *testing.T) {
	assert.Equal(t, "STU-0001", nextID("STU-", nil))
	assert.Equal(t, "STU-0003", nextID("STU-", []string{"STU-0001", "STU-0002"}))
	assert.Equal(t, "STU-0101", nextID("STU-", []string{"STU-0100", "STU-7"}))
	// Other prefixes and non-numeric tails don't advance the sequence.
	assert.Equal(t, "STU-0002", nextID("STU-", []string{"STU-0001", "TCH-0099", "STU-abc"}))
	// Sequences keep counting past the pad width.
	assert.Equal(t, "STU-10000", nextID("STU-", []string{"STU-9999"}))
}
