/*
Package xlsx implements the records repository on top of a spreadsheet
workbook.

PURPOSE:
  The workbook file is the single source of truth and is editable by
  external programs (Excel, LibreOffice, sync clients). This package
  provides typed CRUD over it with a snapshot cache, schema self-repair on
  load, ID generation, payment upserts and the activity log.

KEY FILES:
  workbook.go: load/save of the whole workbook, lock-vs-IO classification
  schema.go:   header and column repair, run once per fresh load
  rows.go:     row <-> typed record codecs
  store.go:    the public repository operations
  id.go:       prefix+sequence ID generation

CACHE CONTRACT:
  Reads serve from the in-memory snapshot until Invalidate() is called.
  Invalidate() only drops the pointer; the next read re-loads from disk and
  re-runs schema repair. Every successful write replaces the snapshot;
  every failed write discards it, so a failure never leaves a half-mutated
  cache visible.

CONCURRENCY:
  A single mutex serializes all operations. The store is a local-file
  repository for one process; there is no cross-process arbitration beyond
  surfacing lock failures to the caller.

KNOWN LIMITATION:
  Writes are last-writer-wins: an external edit landing between snapshot
  load and save is overwritten. The change poller narrows that window but
  does not close it.
*/
package xlsx

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/schoolworks/records-engine/records"
)

// Sheet names in the workbook.
const (
	SheetStudents        = "students"
	SheetTeachers        = "teachers"
	SheetStudentPayments = "student_payments"
	SheetTeacherPayments = "teacher_payments"
	SheetActivity        = "activity_log"
)

// sheetOrder fixes the sheet sequence when the workbook is rebuilt on save.
var sheetOrder = []string{
	SheetStudents,
	SheetTeachers,
	SheetStudentPayments,
	SheetTeacherPayments,
	SheetActivity,
}

// sheet is one repaired table: the header row plus body rows. All cells are
// strings; typed decoding happens in rows.go.
type sheet struct {
	header []string
	rows   [][]string
}

func (sh *sheet) col(name string) int {
	for i, h := range sh.header {
		if h == name {
			return i
		}
	}
	return -1
}

// cell returns the value at column idx of row, tolerating short rows.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// workbook is the in-memory snapshot of all sheets.
type workbook struct {
	sheets map[string]*sheet
}

// errMissingWorkbook marks an absent backing file. EnsureWorkbook treats it
// as "create from scratch"; plain reads surface it as a StorageError.
var errMissingWorkbook = errors.New("workbook file does not exist")

// loadWorkbook reads the file and repairs every sheet. Missing sheets come
// back as fresh header-only tables; a sheet whose structure cannot be
// repaired fails the load with a SchemaError.
func (s *Store) loadWorkbook() (*workbook, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", errMissingWorkbook, s.path)
		}
		return nil, &records.StorageError{Op: "open workbook " + s.path, Err: err}
	}
	defer f.Close()

	wb := &workbook{sheets: make(map[string]*sheet, len(sheetOrder))}
	for _, name := range sheetOrder {
		var raw [][]string
		if idx, _ := f.GetSheetIndex(name); idx >= 0 {
			raw, err = f.GetRows(name)
			if err != nil {
				return nil, &records.StorageError{Op: "read sheet " + name, Err: err}
			}
		}
		repaired, err := repairSheet(name, raw, s.headersFor(name))
		if err != nil {
			return nil, err
		}
		wb.sheets[name] = repaired
	}
	return wb, nil
}

// saveWorkbook rebuilds the file from the snapshot and writes it in one
// SaveAs call. Nothing is committed when the save fails.
func (s *Store) saveWorkbook(wb *workbook) error {
	f := excelize.NewFile()
	defer f.Close()

	for _, name := range sheetOrder {
		if _, err := f.NewSheet(name); err != nil {
			return &records.StorageError{Op: "create sheet " + name, Err: err}
		}
		sh := wb.sheets[name]
		if err := writeRow(f, name, 1, sh.header); err != nil {
			return err
		}
		for i, row := range sh.rows {
			if err := writeRow(f, name, i+2, row); err != nil {
				return err
			}
		}
	}
	// Drop excelize's default sheet.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return &records.StorageError{Op: "drop default sheet", Err: err}
	}

	if err := f.SaveAs(s.path); err != nil {
		return classifyWriteError(s.path, err)
	}
	return nil
}

func writeRow(f *excelize.File, name string, rowNum int, values []string) error {
	cellName, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return &records.StorageError{Op: "address row", Err: err}
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(name, cellName, &cells); err != nil {
		return &records.StorageError{Op: "write row in " + name, Err: err}
	}
	return nil
}

// lockPatterns are the failure texts that mean "the file is open elsewhere"
// rather than a broken disk. Windows reports sharing violations through
// permission-flavored errors, so this is a pattern match, not a lock
// protocol.
var lockPatterns = []string{
	"permission denied",
	"access is denied",
	"being used by another process",
	"sharing violation",
	"file is locked",
}

func classifyWriteError(path string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return &records.LockedFileError{Path: path, Err: err}
	}
	msg := strings.ToLower(err.Error())
	for _, p := range lockPatterns {
		if strings.Contains(msg, p) {
			return &records.LockedFileError{Path: path, Err: err}
		}
	}
	return &records.StorageError{Op: "save workbook " + path, Err: err}
}
