package xlsx

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/schoolworks/records-engine/records"
)

// =============================================================================
// COLUMN SETS
// =============================================================================

// Column names shared across sheets.
const (
	colStudentID = "student_id"
	colTeacherID = "teacher_id"
	colCreatedAt = "created_at"
	colUpdatedAt = "updated_at"
)

var studentFixedColumns = []string{
	colStudentID, "first_name", "last_name", "age", "class", "section",
	"primary_contact", "secondary_contact", colCreatedAt, colUpdatedAt,
}

var teacherFixedColumns = []string{
	colTeacherID, "first_name", "last_name", "role",
	"primary_contact", "secondary_contact", colCreatedAt, colUpdatedAt,
}

var activityColumns = []string{"timestamp", "action", "entity_type", "entity_id", "details"}

func paymentColumns(idCol string) []string {
	return []string{idCol, "year", "month", "status", "amount", colUpdatedAt}
}

// headersFor returns the expected column set for a sheet: fixed columns plus
// the currently configured custom fields for person sheets.
func (s *Store) headersFor(name string) []string {
	switch name {
	case SheetStudents:
		return append(append([]string(nil), studentFixedColumns...), s.cfg.StudentCustomFields...)
	case SheetTeachers:
		return append(append([]string(nil), teacherFixedColumns...), s.cfg.TeacherCustomFields...)
	case SheetStudentPayments:
		return paymentColumns(colStudentID)
	case SheetTeacherPayments:
		return paymentColumns(colTeacherID)
	default:
		return append([]string(nil), activityColumns...)
	}
}

// tsLayout matches the ISO-8601 second-resolution timestamps the sheets
// have always carried.
const tsLayout = "2006-01-02T15:04:05"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(tsLayout)
}

// parseTime tolerates hand-edited timestamp cells; junk decodes to zero.
func parseTime(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	for _, layout := range []string{tsLayout, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseInt(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func parseAmount(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// STUDENT / TEACHER CODECS
// =============================================================================

func (s *Store) studentFromRow(sh *sheet, row []string) records.Student {
	custom := make(map[string]string, len(s.cfg.StudentCustomFields))
	for _, f := range s.cfg.StudentCustomFields {
		custom[f] = cell(row, sh.col(f))
	}
	return records.Student{
		ID:        records.EntityID(cell(row, sh.col(colStudentID))),
		CreatedAt: parseTime(cell(row, sh.col(colCreatedAt))),
		UpdatedAt: parseTime(cell(row, sh.col(colUpdatedAt))),
		StudentFields: records.StudentFields{
			FirstName:        cell(row, sh.col("first_name")),
			LastName:         cell(row, sh.col("last_name")),
			Age:              parseInt(cell(row, sh.col("age"))),
			Class:            cell(row, sh.col("class")),
			Section:          cell(row, sh.col("section")),
			PrimaryContact:   cell(row, sh.col("primary_contact")),
			SecondaryContact: cell(row, sh.col("secondary_contact")),
			Custom:           custom,
		},
	}
}

func (s *Store) teacherFromRow(sh *sheet, row []string) records.Teacher {
	custom := make(map[string]string, len(s.cfg.TeacherCustomFields))
	for _, f := range s.cfg.TeacherCustomFields {
		custom[f] = cell(row, sh.col(f))
	}
	return records.Teacher{
		ID:        records.EntityID(cell(row, sh.col(colTeacherID))),
		CreatedAt: parseTime(cell(row, sh.col(colCreatedAt))),
		UpdatedAt: parseTime(cell(row, sh.col(colUpdatedAt))),
		TeacherFields: records.TeacherFields{
			FirstName:        cell(row, sh.col("first_name")),
			LastName:         cell(row, sh.col("last_name")),
			Role:             cell(row, sh.col("role")),
			PrimaryContact:   cell(row, sh.col("primary_contact")),
			SecondaryContact: cell(row, sh.col("secondary_contact")),
			Custom:           custom,
		},
	}
}

// setColumns overwrites the named columns of row in place, padding the row
// to the sheet width first. Columns absent from values keep their cells, so
// unknown external columns survive every update.
func setColumns(sh *sheet, row []string, values map[string]string) []string {
	for len(row) < len(sh.header) {
		row = append(row, "")
	}
	for name, v := range values {
		if idx := sh.col(name); idx >= 0 {
			row[idx] = v
		}
	}
	return row
}

func studentColumnValues(s records.Student, customFields []string) map[string]string {
	values := map[string]string{
		colStudentID:        string(s.ID),
		"first_name":        s.FirstName,
		"last_name":         s.LastName,
		"age":               strconv.Itoa(s.Age),
		"class":             s.Class,
		"section":           s.Section,
		"primary_contact":   s.PrimaryContact,
		"secondary_contact": s.SecondaryContact,
		colCreatedAt:        formatTime(s.CreatedAt),
		colUpdatedAt:        formatTime(s.UpdatedAt),
	}
	for _, f := range customFields {
		values[f] = s.Custom[f]
	}
	return values
}

func teacherColumnValues(t records.Teacher, customFields []string) map[string]string {
	values := map[string]string{
		colTeacherID:        string(t.ID),
		"first_name":        t.FirstName,
		"last_name":         t.LastName,
		"role":              t.Role,
		"primary_contact":   t.PrimaryContact,
		"secondary_contact": t.SecondaryContact,
		colCreatedAt:        formatTime(t.CreatedAt),
		colUpdatedAt:        formatTime(t.UpdatedAt),
	}
	for _, f := range customFields {
		values[f] = t.Custom[f]
	}
	return values
}

// =============================================================================
// PAYMENT / ACTIVITY CODECS
// =============================================================================

func paymentFromRow(sh *sheet, row []string, idCol string) records.PaymentRecord {
	return records.PaymentRecord{
		EntityID:  records.EntityID(cell(row, sh.col(idCol))),
		Month:     records.NewMonth(parseInt(cell(row, sh.col("year"))), time.Month(parseInt(cell(row, sh.col("month"))))),
		Status:    records.PaymentStatus(cell(row, sh.col("status"))),
		Amount:    parseAmount(cell(row, sh.col("amount"))),
		UpdatedAt: parseTime(cell(row, sh.col(colUpdatedAt))),
	}
}

func paymentColumnValues(r records.PaymentRecord, idCol string) map[string]string {
	return map[string]string{
		idCol:        string(r.EntityID),
		"year":       strconv.Itoa(r.Month.Year),
		"month":      strconv.Itoa(int(r.Month.Month)),
		"status":     string(r.Status),
		"amount":     r.Amount.String(),
		colUpdatedAt: formatTime(r.UpdatedAt),
	}
}

func activityFromRow(sh *sheet, row []string) records.ActivityEntry {
	return records.ActivityEntry{
		Timestamp:  parseTime(cell(row, sh.col("timestamp"))),
		Action:     records.ActivityAction(cell(row, sh.col("action"))),
		EntityType: records.EntityType(cell(row, sh.col("entity_type"))),
		EntityID:   records.EntityID(cell(row, sh.col("entity_id"))),
		Details:    cell(row, sh.col("details")),
	}
}

func activityColumnValues(e records.ActivityEntry) map[string]string {
	return map[string]string{
		"timestamp":   formatTime(e.Timestamp),
		"action":      string(e.Action),
		"entity_type": string(e.EntityType),
		"entity_id":   string(e.EntityID),
		"details":     e.Details,
	}
}
