/*
store.go - The records repository

PUBLIC OPERATIONS:
  Persons:   ListStudents, GetStudent, AddStudent, UpdateStudent,
             DeleteStudent (and the teacher counterparts)
  Payments:  SetPayment, SetPaymentStatus, GetPayment, ListPayments,
             PendingMonths, TotalPending, PaymentStats
  Activity:  ListActivity
  Lifecycle: EnsureWorkbook, Reconfigure, Invalidate

WRITE PATH:
  validate -> load snapshot -> mutate -> append activity entry ->
  save whole workbook -> swap snapshot. A failed save discards the
  snapshot, so no partial mutation is ever served from cache, and the
  activity entry lands in the same save as the change it describes.

DELETION POLICY:
  Deleting a person does not cascade to payment records or activity
  entries. Payment history stays auditable after un-enrollment; the rows
  are simply unreachable through listings.
*/
package xlsx

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/schoolworks/records-engine/records"
)

// Config carries the settings the store needs to shape sheets and IDs.
// Changing it (settings save) goes through Reconfigure, which runs the
// column-migration path.
type Config struct {
	StudentIDPrefix     string
	TeacherIDPrefix     string
	StudentCustomFields []string
	TeacherCustomFields []string
}

// Store is the spreadsheet-backed repository. All operations are
// serialized behind one mutex; see the package comment for the cache and
// concurrency contract.
type Store struct {
	path string

	// Now is the clock used for created_at/updated_at and activity
	// timestamps. Overridable in tests.
	Now func() time.Time

	mu  sync.Mutex
	cfg Config
	wb  *workbook // nil = invalidated, next read loads from disk
}

// New creates a store for the workbook at path. The file is not touched
// until EnsureWorkbook or the first read.
func New(path string, cfg Config) *Store {
	return &Store{path: path, cfg: cfg, Now: time.Now}
}

// Path returns the backing workbook path (the poller watches it).
func (s *Store) Path() string { return s.path }

// Invalidate drops the in-memory snapshot so the next read re-derives it
// from disk. Flag-only: cheap, idempotent, never blocks on I/O.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.wb = nil
	s.mu.Unlock()
}

// EnsureWorkbook creates the workbook with all sheets when absent, and
// otherwise loads, repairs and persists it so the repaired structure (and
// any newly configured custom-field columns) is on disk.
func (s *Store) EnsureWorkbook() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.wb = nil
	wb, err := s.loadWorkbook()
	if err != nil {
		if !errors.Is(err, errMissingWorkbook) {
			return err
		}
		wb = &workbook{sheets: make(map[string]*sheet, len(sheetOrder))}
		for _, name := range sheetOrder {
			wb.sheets[name] = &sheet{header: s.headersFor(name)}
		}
	}
	return s.persist(wb)
}

// Reconfigure applies changed settings (prefixes, custom-field lists) and
// migrates the sheet columns accordingly.
func (s *Store) Reconfigure(cfg Config) error {
	s.mu.Lock()
	s.cfg = cfg
	s.wb = nil
	s.mu.Unlock()
	return s.EnsureWorkbook()
}

// load returns the current snapshot, reading and repairing from disk when
// invalidated. Callers must hold mu.
func (s *Store) load() (*workbook, error) {
	if s.wb != nil {
		return s.wb, nil
	}
	wb, err := s.loadWorkbook()
	if err != nil {
		if errors.Is(err, errMissingWorkbook) {
			return nil, &records.StorageError{Op: "open workbook", Err: err}
		}
		return nil, err
	}
	s.wb = wb
	return wb, nil
}

// persist writes the snapshot to disk. On success it becomes the cache; on
// failure the cache is discarded so no partial mutation is served.
// Callers must hold mu.
func (s *Store) persist(wb *workbook) error {
	if err := s.saveWorkbook(wb); err != nil {
		s.wb = nil
		return err
	}
	s.wb = wb
	return nil
}

func (s *Store) appendActivity(wb *workbook, action records.ActivityAction, etype records.EntityType, id records.EntityID, details string) {
	sh := wb.sheets[SheetActivity]
	entry := records.ActivityEntry{
		Timestamp:  s.Now(),
		Action:     action,
		EntityType: etype,
		EntityID:   id,
		Details:    details,
	}
	row := setColumns(sh, make([]string, len(sh.header)), activityColumnValues(entry))
	sh.rows = append(sh.rows, row)
}

func findRowByID(sh *sheet, idCol string, id records.EntityID) int {
	idx := sh.col(idCol)
	if idx < 0 {
		return -1
	}
	for i, row := range sh.rows {
		if cell(row, idx) == string(id) {
			return i
		}
	}
	return -1
}

// =============================================================================
// STUDENTS
// =============================================================================

// ListStudents returns students in sheet (insertion) order, filtered in
// memory.
func (s *Store) ListStudents(filter records.PersonFilter) ([]records.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wb, err := s.load()
	if err != nil {
		return nil, err
	}
	sh := wb.sheets[SheetStudents]
	out := make([]records.Student, 0, len(sh.rows))
	for _, row := range sh.rows {
		st := s.studentFromRow(sh, row)
		if matchesStudent(filter, st) {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *Store) GetStudent(id records.EntityID) (records.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wb, err := s.load()
	if err != nil {
		return records.Student{}, err
	}
	sh := wb.sheets[SheetStudents]
	i := findRowByID(sh, colStudentID, id)
	if i < 0 {
		return records.Student{}, &records.NotFoundError{EntityType: records.EntityStudent, ID: id}
	}
	return s.studentFromRow(sh, sh.rows[i]), nil
}

// AddStudent validates the fields, assigns the next ID in the configured
// prefix sequence and appends the row. ID generation and insertion happen
// under the same lock, so concurrent in-process adds cannot collide.
func (s *Store) AddStudent(f records.StudentFields) (records.Student, error) {
	if err := records.ValidateStudentFields(f); err != nil {
		return records.Student{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wb, err := s.load()
	if err != nil {
		return records.Student{}, err
	}
	sh := wb.sheets[SheetStudents]

	existing := make([]string, 0, len(sh.rows))
	idx := sh.col(colStudentID)
	for _, row := range sh.rows {
		existing = append(existing, cell(row, idx))
	}

	now := s.Now()
	st := records.Student{
		ID:            records.EntityID(nextID(s.cfg.StudentIDPrefix, existing)),
		CreatedAt:     now,
		UpdatedAt:     now,
		StudentFields: f,
	}
	row := setColumns(sh, make([]string, len(sh.header)), studentColumnValues(st, s.cfg.StudentCustomFields))
	sh.rows = append(sh.rows, row)
	s.appendActivity(wb, records.ActionAddStudent, records.EntityStudent, st.ID, personName(st.FirstName, st.LastName))

	if err := s.persist(wb); err != nil {
		return records.Student{}, err
	}
	return st, nil
}

// UpdateStudent replaces the mutable fields of an existing record.
// created_at and columns the engine does not know about are preserved.
func (s *Store) UpdateStudent(id records.EntityID, f records.StudentFields) (records.Student, error) {
	if err := records.ValidateStudentFields(f); err != nil {
		return records.Student{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wb, err := s.load()
	if err != nil {
		return records.Student{}, err
	}
	sh := wb.sheets[SheetStudents]
	i := findRowByID(sh, colStudentID, id)
	if i < 0 {
		return records.Student{}, &records.NotFoundError{EntityType: records.EntityStudent, ID: id}
	}

	prev := s.studentFromRow(sh, sh.rows[i])
	st := records.Student{
		ID:            id,
		CreatedAt:     prev.CreatedAt,
		UpdatedAt:     s.Now(),
		StudentFields: f,
	}
	sh.rows[i] = setColumns(sh, sh.rows[i], studentColumnValues(st, s.cfg.StudentCustomFields))
	s.appendActivity(wb, records.ActionEditStudent, records.EntityStudent, id, personName(st.FirstName, st.LastName))

	if err := s.persist(wb); err != nil {
		return records.Student{}, err
	}
	return st, nil
}

// DeleteStudent removes the row. Payment records and activity entries for
// the ID are intentionally left in place.
func (s *Store) DeleteStudent(id records.EntityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wb, err := s.load()
	if err != nil {
		return err
	}
	sh := wb.sheets[SheetStudents]
	i := findRowByID(sh, colStudentID, id)
	if i < 0 {
		return &records.NotFoundError{EntityType: records.EntityStudent, ID: id}
	}
	sh.rows = append(sh.rows[:i], sh.rows[i+1:]...)
	s.appendActivity(wb, records.ActionDeleteStudent, records.EntityStudent, id, "")

	return s.persist(wb)
}

// =============================================================================
// TEACHERS
// =============================================================================

func (s *Store) ListTeachers(filter records.PersonFilter) ([]records.Teacher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wb, err := s.load()
	if err != nil {
		return nil, err
	}
	sh := wb.sheets[SheetTeachers]
	out := make([]records.Teacher, 0, len(sh.rows))
	for _, row := range sh.rows {
		tc := s.teacherFromRow(sh, row)
		if matchesTeacher(filter, tc) {
			out = append(out, tc)
		}
	}
	return out, nil
}

func (s *Store) GetTeacher(id records.EntityID) (records.Teacher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wb, err := s.load()
	if err != nil {
		return records.Teacher{}, err
	}
	sh := wb.sheets[SheetTeachers]
	i := findRowByID(sh, colTeacherID, id)
	if i < 0 {
		return records.Teacher{}, &records.NotFoundError{EntityType: records.EntityTeacher, ID: id}
	}
	return s.teacherFromRow(sh, sh.rows[i]), nil
}

func (s *Store) AddTeacher(f records.TeacherFields) (records.Teacher, error) {
	if err := records.ValidateTeacherFields(f); err != nil {
		return records.Teacher{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wb, err := s.load()
	if err != nil {
		return records.Teacher{}, err
	}
	sh := wb.sheets[SheetTeachers]

	existing := make([]string, 0, len(sh.rows))
	idx := sh.col(colTeacherID)
	for _, row := range sh.rows {
		existing = append(existing, cell(row, idx))
	}

	now := s.Now()
	tc := records.Teacher{
		ID:            records.EntityID(nextID(s.cfg.TeacherIDPrefix, existing)),
		CreatedAt:     now,
		UpdatedAt:     now,
		TeacherFields: f,
	}
	row := setColumns(sh, make([]string, len(sh.header)), teacherColumnValues(tc, s.cfg.TeacherCustomFields))
	sh.rows = append(sh.rows, row)
	s.appendActivity(wb, records.ActionAddTeacher, records.EntityTeacher, tc.ID, personName(tc.FirstName, tc.LastName))

	if err := s.persist(wb); err != nil {
		return records.Teacher{}, err
	}
	return tc, nil
}

func (s *Store) UpdateTeacher(id records.EntityID, f records.TeacherFields) (records.Teacher, error) {
	if err := records.ValidateTeacherFields(f); err != nil {
		return records.Teacher{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wb, err := s.load()
	if err != nil {
		return records.Teacher{}, err
	}
	sh := wb.sheets[SheetTeachers]
	i := findRowByID(sh, colTeacherID, id)
	if i < 0 {
		return records.Teacher{}, &records.NotFoundError{EntityType: records.EntityTeacher, ID: id}
	}

	prev := s.teacherFromRow(sh, sh.rows[i])
	tc := records.Teacher{
		ID:            id,
		CreatedAt:     prev.CreatedAt,
		UpdatedAt:     s.Now(),
		TeacherFields: f,
	}
	sh.rows[i] = setColumns(sh, sh.rows[i], teacherColumnValues(tc, s.cfg.TeacherCustomFields))
	s.appendActivity(wb, records.ActionEditTeacher, records.EntityTeacher, id, personName(tc.FirstName, tc.LastName))

	if err := s.persist(wb); err != nil {
		return records.Teacher{}, err
	}
	return tc, nil
}

func (s *Store) DeleteTeacher(id records.EntityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wb, err := s.load()
	if err != nil {
		return err
	}
	sh := wb.sheets[SheetTeachers]
	i := findRowByID(sh, colTeacherID, id)
	if i < 0 {
		return &records.NotFoundError{EntityType: records.EntityTeacher, ID: id}
	}
	sh.rows = append(sh.rows[:i], sh.rows[i+1:]...)
	s.appendActivity(wb, records.ActionDeleteTeacher, records.EntityTeacher, id, "")

	return s.persist(wb)
}

// =============================================================================
// PAYMENTS
// =============================================================================

func paymentSheetFor(entity records.EntityType) (name, idCol string, action records.ActivityAction, ok bool) {
	switch entity {
	case records.EntityStudent:
		return SheetStudentPayments, colStudentID, records.ActionSetStudentPayment, true
	case records.EntityTeacher:
		return SheetTeacherPayments, colTeacherID, records.ActionSetTeacherPayment, true
	default:
		return "", "", "", false
	}
}

func normalizeStatus(status records.PaymentStatus) (records.PaymentStatus, bool) {
	if status.IsPaid() {
		return records.StatusPaid, true
	}
	if strings.EqualFold(string(status), string(records.StatusPending)) {
		return records.StatusPending, true
	}
	return "", false
}

// SetPayment upserts the (entity, year, month) payment record: last write
// wins, updated_at is stamped with the current time.
func (s *Store) SetPayment(entity records.EntityType, id records.EntityID, m records.Month, status records.PaymentStatus, amount decimal.Decimal) (records.PaymentRecord, error) {
	sheetName, idCol, action, ok := paymentSheetFor(entity)
	if !ok {
		return records.PaymentRecord{}, &records.ValidationError{Field: "entity", Reason: "must be student or teacher"}
	}
	if !m.IsValid() {
		return records.PaymentRecord{}, &records.ValidationError{Field: "month", Reason: "must be 1..12"}
	}
	canonical, ok := normalizeStatus(status)
	if !ok {
		return records.PaymentRecord{}, &records.ValidationError{Field: "status", Reason: "must be Paid or Pending"}
	}
	if amount.IsNegative() {
		return records.PaymentRecord{}, &records.ValidationError{Field: "amount", Reason: "must not be negative"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wb, err := s.load()
	if err != nil {
		return records.PaymentRecord{}, err
	}
	sh := wb.sheets[sheetName]

	rec := records.PaymentRecord{
		EntityID:  id,
		Month:     m,
		Status:    canonical,
		Amount:    amount,
		UpdatedAt: s.Now(),
	}

	i := findPaymentRow(sh, idCol, id, m)
	if i < 0 {
		sh.rows = append(sh.rows, setColumns(sh, make([]string, len(sh.header)), paymentColumnValues(rec, idCol)))
	} else {
		sh.rows[i] = setColumns(sh, sh.rows[i], paymentColumnValues(rec, idCol))
	}
	s.appendActivity(wb, action, entity, id, m.String()+" "+string(canonical))

	if err := s.persist(wb); err != nil {
		return records.PaymentRecord{}, err
	}
	return rec, nil
}

// SetPaymentStatus changes only the status, keeping whatever amount is
// stored (zero when the record does not exist yet).
func (s *Store) SetPaymentStatus(entity records.EntityType, id records.EntityID, m records.Month, status records.PaymentStatus) (records.PaymentRecord, error) {
	current, err := s.GetPayment(entity, id, m)
	if err != nil {
		return records.PaymentRecord{}, err
	}
	return s.SetPayment(entity, id, m, status, current.Amount)
}

// GetPayment resolves one (entity, month) record. An absent record comes
// back as Pending with zero amount — never materialized until set.
func (s *Store) GetPayment(entity records.EntityType, id records.EntityID, m records.Month) (records.PaymentRecord, error) {
	sheetName, idCol, _, ok := paymentSheetFor(entity)
	if !ok {
		return records.PaymentRecord{}, &records.ValidationError{Field: "entity", Reason: "must be student or teacher"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wb, err := s.load()
	if err != nil {
		return records.PaymentRecord{}, err
	}
	sh := wb.sheets[sheetName]
	i := findPaymentRow(sh, idCol, id, m)
	if i < 0 {
		return records.PaymentRecord{EntityID: id, Month: m, Status: records.StatusPending, Amount: decimal.Zero}, nil
	}
	return paymentFromRow(sh, sh.rows[i], idCol), nil
}

// ListPayments returns every stored payment record for the entity type.
func (s *Store) ListPayments(entity records.EntityType) ([]records.PaymentRecord, error) {
	sheetName, idCol, _, ok := paymentSheetFor(entity)
	if !ok {
		return nil, &records.ValidationError{Field: "entity", Reason: "must be student or teacher"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wb, err := s.load()
	if err != nil {
		return nil, err
	}
	sh := wb.sheets[sheetName]
	out := make([]records.PaymentRecord, 0, len(sh.rows))
	for _, row := range sh.rows {
		out = append(out, paymentFromRow(sh, row, idCol))
	}
	return out, nil
}

// PendingMonths computes the unpaid periods for one entity within the
// rollover window ending at asOf, against the current cached snapshot.
func (s *Store) PendingMonths(entity records.EntityType, id records.EntityID, asOf records.Month, defaultAmount decimal.Decimal) ([]records.PendingMonth, decimal.Decimal, error) {
	recs, err := s.ListPayments(entity)
	if err != nil {
		return nil, decimal.Zero, err
	}
	pending, total := records.PendingMonths(recs, id, asOf, defaultAmount)
	return pending, total, nil
}

// TotalPending is the rollover total without the month list.
func (s *Store) TotalPending(entity records.EntityType, id records.EntityID, asOf records.Month, defaultAmount decimal.Decimal) (decimal.Decimal, error) {
	_, total, err := s.PendingMonths(entity, id, asOf, defaultAmount)
	return total, err
}

// PaymentStats counts paid vs pending persons for one month across the
// whole entity population.
func (s *Store) PaymentStats(entity records.EntityType, m records.Month) (records.PaymentStats, error) {
	var ids []records.EntityID
	switch entity {
	case records.EntityStudent:
		students, err := s.ListStudents(records.PersonFilter{})
		if err != nil {
			return records.PaymentStats{}, err
		}
		for _, st := range students {
			ids = append(ids, st.ID)
		}
	case records.EntityTeacher:
		teachers, err := s.ListTeachers(records.PersonFilter{})
		if err != nil {
			return records.PaymentStats{}, err
		}
		for _, tc := range teachers {
			ids = append(ids, tc.ID)
		}
	default:
		return records.PaymentStats{}, &records.ValidationError{Field: "entity", Reason: "must be student or teacher"}
	}

	recs, err := s.ListPayments(entity)
	if err != nil {
		return records.PaymentStats{}, err
	}
	paidFor := make(map[records.EntityID]bool, len(recs))
	for _, r := range recs {
		if r.Month == m {
			paidFor[r.EntityID] = r.Status.IsPaid()
		}
	}

	var stats records.PaymentStats
	for _, id := range ids {
		if id.IsZero() {
			continue
		}
		if paidFor[id] {
			stats.Paid++
		} else {
			stats.Pending++
		}
	}
	stats.Total = stats.Paid + stats.Pending
	return stats, nil
}

func findPaymentRow(sh *sheet, idCol string, id records.EntityID, m records.Month) int {
	idIdx, yearIdx, monthIdx := sh.col(idCol), sh.col("year"), sh.col("month")
	for i, row := range sh.rows {
		if cell(row, idIdx) == string(id) &&
			parseInt(cell(row, yearIdx)) == m.Year &&
			parseInt(cell(row, monthIdx)) == int(m.Month) {
			return i
		}
	}
	return -1
}

// =============================================================================
// ACTIVITY LOG
// =============================================================================

// ListActivity returns the most recent entries in chronological order.
// limit values outside 1..ActivityLimit fall back to ActivityLimit.
func (s *Store) ListActivity(limit int) ([]records.ActivityEntry, error) {
	if limit <= 0 || limit > records.ActivityLimit {
		limit = records.ActivityLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wb, err := s.load()
	if err != nil {
		return nil, err
	}
	sh := wb.sheets[SheetActivity]
	start := 0
	if len(sh.rows) > limit {
		start = len(sh.rows) - limit
	}
	out := make([]records.ActivityEntry, 0, len(sh.rows)-start)
	for _, row := range sh.rows[start:] {
		out = append(out, activityFromRow(sh, row))
	}
	return out, nil
}

// =============================================================================
// FILTERS
// =============================================================================

func matchesStudent(f records.PersonFilter, st records.Student) bool {
	if f.Class != "" && !strings.EqualFold(f.Class, st.Class) {
		return false
	}
	if f.Section != "" && !strings.EqualFold(f.Section, st.Section) {
		return false
	}
	return matchesQuery(f.Query, string(st.ID), st.FirstName, st.LastName, st.PrimaryContact, st.SecondaryContact)
}

func matchesTeacher(f records.PersonFilter, tc records.Teacher) bool {
	if f.Role != "" && !strings.EqualFold(f.Role, tc.Role) {
		return false
	}
	return matchesQuery(f.Query, string(tc.ID), tc.FirstName, tc.LastName, tc.PrimaryContact, tc.SecondaryContact)
}

func matchesQuery(query string, fields ...string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(strings.TrimSpace(query))
	for _, v := range fields {
		if strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}

func personName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
