/*
Package records provides the core domain model for the school records engine.

PURPOSE:
  This package contains the typed value objects and pure algorithms shared by
  every layer: student/teacher records, payment records, activity entries,
  calendar-month arithmetic, and the payment rollover computation. It has no
  I/O — persistence lives in store/xlsx, configuration in settings.

KEY CONCEPTS IN THIS FILE (types.go):
  - Student / Teacher: typed person records mapped 1:1 to sheet rows
  - PaymentRecord: composite-keyed (entity, year, month) payment state
  - ActivityEntry: append-only audit line
  - EntityID / EntityType: type-safe identifiers

DESIGN PRINCIPLES:
  1. Typed boundaries: sheet rows become value objects at the store edge,
     never string-keyed maps inside business logic
  2. Precision: decimal.Decimal for money, never float64
  3. Absence as default: a missing PaymentRecord means "Pending at the
     configured default amount" and is never materialized until set

SEE ALSO:
  - month.go: calendar-month arithmetic
  - rollover.go: pending-month computation
  - errors.go: the error taxonomy
  - validate.go: field validation at the write boundary
*/
package records

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// EntityID is a person identifier of the form <prefix><zero-padded sequence>,
// e.g. "STU-0042". IDs are assigned by the store on add and never reused.
type EntityID string

func (id EntityID) IsZero() bool { return id == "" }

// EntityType distinguishes the two person populations. Payment sheets and
// activity entries are keyed per entity type.
type EntityType string

const (
	EntityStudent EntityType = "student"
	EntityTeacher EntityType = "teacher"
)

// =============================================================================
// PERSON RECORDS
// =============================================================================

// StudentFields is the mutable portion of a student record, as submitted by
// callers on add/update. Custom holds the configured custom-field values,
// keyed by field name.
type StudentFields struct {
	FirstName        string `validate:"required"`
	LastName         string
	Age              int `validate:"gte=0,lte=150"`
	Class            string
	Section          string
	PrimaryContact   string
	SecondaryContact string
	Custom           map[string]string
}

// Student is a full student record as stored. Immutable from the caller's
// perspective: updates go through the store and return a fresh value.
type Student struct {
	ID        EntityID
	CreatedAt time.Time
	UpdatedAt time.Time
	StudentFields
}

// TeacherFields mirrors StudentFields with a role instead of class/section.
// The system does not track teacher age.
type TeacherFields struct {
	FirstName        string `validate:"required"`
	LastName         string
	Role             string
	PrimaryContact   string
	SecondaryContact string
	Custom           map[string]string
}

// Teacher is a full teacher record as stored.
type Teacher struct {
	ID        EntityID
	CreatedAt time.Time
	UpdatedAt time.Time
	TeacherFields
}

// =============================================================================
// PERSON FILTERS
// =============================================================================

// PersonFilter selects person records in memory after a cached read.
// Query matches case-insensitively against ID, name parts and contacts.
// Class/Section apply to students, Role to teachers; empty means any.
type PersonFilter struct {
	Query   string
	Class   string
	Section string
	Role    string
}

// =============================================================================
// PAYMENTS
// =============================================================================

type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "Paid"
	StatusPending PaymentStatus = "Pending"
)

// IsPaid reports whether the status resolves to Paid. Comparison is
// case-insensitive because externally edited sheets carry arbitrary casing.
func (s PaymentStatus) IsPaid() bool {
	return strings.EqualFold(string(s), string(StatusPaid))
}

// PaymentRecord is the stored payment state for one entity and one calendar
// month. The (EntityID, Month) tuple is unique per entity type. Absence of a
// record means Pending at the configured default amount.
type PaymentRecord struct {
	EntityID  EntityID
	Month     Month
	Status    PaymentStatus
	Amount    decimal.Decimal
	UpdatedAt time.Time
}

// PaymentStats summarizes one month across an entity population.
type PaymentStats struct {
	Paid    int `json:"paid"`
	Pending int `json:"pending"`
	Total   int `json:"total"`
}

// =============================================================================
// ACTIVITY LOG
// =============================================================================

// ActivityAction tags an activity entry with what happened.
type ActivityAction string

const (
	ActionAddStudent        ActivityAction = "add_student"
	ActionEditStudent       ActivityAction = "edit_student"
	ActionDeleteStudent     ActivityAction = "delete_student"
	ActionAddTeacher        ActivityAction = "add_teacher"
	ActionEditTeacher       ActivityAction = "edit_teacher"
	ActionDeleteTeacher     ActivityAction = "delete_teacher"
	ActionSetStudentPayment ActivityAction = "set_student_payment"
	ActionSetTeacherPayment ActivityAction = "set_teacher_payment"
)

// ActivityEntry is one append-only audit line. Entries are immutable once
// written; readers see at most the most recent ActivityLimit of them.
type ActivityEntry struct {
	Timestamp  time.Time
	Action     ActivityAction
	EntityType EntityType
	EntityID   EntityID
	Details    string
}

// ActivityLimit caps how many recent entries list operations return.
const ActivityLimit = 500
