/*
schema.go - Sheet structure repair

PURPOSE:
  Externally edited workbooks drift: a blank first row with headers pushed
  to row 2, headers appended twice, stray empty rows, custom-field columns
  missing after a settings change. repairSheet normalizes all of that once
  per fresh load, so every downstream read can trust the column invariant:

    columns = fixed columns ++ configured custom fields ++ unknown extras

  Unknown extra columns are preserved untouched. Repair never deletes data
  it does not recognize.

REPAIR STEPS:
  (a) skip leading blank rows and promote the first header row found
  (b) drop duplicated header rows in the body
  (c) drop fully blank body rows
  (d) append expected columns that are missing, padding existing rows

FAILURE:
  When the first non-blank rows are not a recognizable header the sheet is
  unrepairable: SchemaError. Operations on that sheet stay unavailable
  until the file is fixed by hand.
*/
package xlsx

import (
	"strings"

	"github.com/schoolworks/records-engine/records"
)

// headerScanLimit bounds how many leading rows are inspected for a header.
const headerScanLimit = 5

// repairSheet normalizes raw sheet rows against the expected header set.
// Idempotent: repairing an already repaired sheet changes nothing.
func repairSheet(name string, raw [][]string, want []string) (*sheet, error) {
	rows := make([][]string, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, trimRow(r))
	}

	headerIdx := -1
	for i := 0; i < len(rows) && i < headerScanLimit; i++ {
		if blankRow(rows[i]) {
			continue
		}
		if !looksLikeHeader(rows[i], want) {
			return nil, &records.SchemaError{Sheet: name, Reason: "no parseable header row found"}
		}
		headerIdx = i
		break
	}

	if headerIdx == -1 {
		if nonBlankCount(rows) > 0 {
			return nil, &records.SchemaError{Sheet: name, Reason: "no parseable header row found"}
		}
		// Empty or brand-new sheet: start from the expected header.
		return &sheet{header: append([]string(nil), want...)}, nil
	}

	header := rows[headerIdx]

	var body [][]string
	for _, r := range rows[headerIdx+1:] {
		if blankRow(r) {
			continue
		}
		if duplicateHeader(r, header) {
			continue
		}
		body = append(body, r)
	}

	// Column migration: append expected columns the sheet is missing.
	// Extra unknown columns stay where they are.
	for _, w := range want {
		if indexOf(header, w) == -1 {
			header = append(header, w)
		}
	}

	// Pad every row to the header width so positional access is safe.
	for i, r := range body {
		for len(r) < len(header) {
			r = append(r, "")
		}
		body[i] = r
	}

	return &sheet{header: header, rows: body}, nil
}

func trimRow(r []string) []string {
	out := make([]string, len(r))
	for i, v := range r {
		out[i] = strings.TrimSpace(v)
	}
	// Drop trailing empty cells so width comparisons are stable.
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

func blankRow(r []string) bool {
	for _, v := range r {
		if v != "" {
			return false
		}
	}
	return true
}

func nonBlankCount(rows [][]string) int {
	n := 0
	for _, r := range rows {
		if !blankRow(r) {
			n++
		}
	}
	return n
}

// looksLikeHeader recognizes a header row by its first cell: the ID (or
// timestamp) column name always leads the fixed columns.
func looksLikeHeader(r []string, want []string) bool {
	return len(r) > 0 && len(want) > 0 && r[0] == want[0]
}

// duplicateHeader reports whether a body row is a re-appended copy of the
// header (same values in the same order for the header's width).
func duplicateHeader(r []string, header []string) bool {
	if len(r) != len(header) {
		return false
	}
	for i := range header {
		if r[i] != header[i] {
			return false
		}
	}
	return true
}

func indexOf(ss []string, v string) int {
	for i, s := range ss {
		if s == v {
			return i
		}
	}
	return -1
}
