/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for the HTTP surface. They decouple the domain model from
  the wire contract: amounts travel as decimal strings, months as explicit
  year/month pairs, timestamps in RFC 3339.

NAMING CONVENTION:
  - *DTO: response types returned to clients
  - *Request: request body types from clients

SEE ALSO:
  - handlers.go: converts between these and the domain types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/schoolworks/records-engine/records"
)

// =============================================================================
// PERSONS
// =============================================================================

type StudentDTO struct {
	ID               string            `json:"student_id"`
	FirstName        string            `json:"first_name"`
	LastName         string            `json:"last_name"`
	Age              int               `json:"age"`
	Class            string            `json:"class"`
	Section          string            `json:"section"`
	PrimaryContact   string            `json:"primary_contact"`
	SecondaryContact string            `json:"secondary_contact"`
	Custom           map[string]string `json:"custom,omitempty"`
	CreatedAt        string            `json:"created_at,omitempty"`
	UpdatedAt        string            `json:"updated_at,omitempty"`
}

type StudentRequest struct {
	FirstName        string            `json:"first_name"`
	LastName         string            `json:"last_name"`
	Age              int               `json:"age"`
	Class            string            `json:"class"`
	Section          string            `json:"section"`
	PrimaryContact   string            `json:"primary_contact"`
	SecondaryContact string            `json:"secondary_contact"`
	Custom           map[string]string `json:"custom"`
}

func (r StudentRequest) fields() records.StudentFields {
	return records.StudentFields{
		FirstName:        r.FirstName,
		LastName:         r.LastName,
		Age:              r.Age,
		Class:            r.Class,
		Section:          r.Section,
		PrimaryContact:   r.PrimaryContact,
		SecondaryContact: r.SecondaryContact,
		Custom:           r.Custom,
	}
}

func toStudentDTO(s records.Student) StudentDTO {
	return StudentDTO{
		ID:               string(s.ID),
		FirstName:        s.FirstName,
		LastName:         s.LastName,
		Age:              s.Age,
		Class:            s.Class,
		Section:          s.Section,
		PrimaryContact:   s.PrimaryContact,
		SecondaryContact: s.SecondaryContact,
		Custom:           s.Custom,
		CreatedAt:        formatTimestamp(s.CreatedAt),
		UpdatedAt:        formatTimestamp(s.UpdatedAt),
	}
}

type TeacherDTO struct {
	ID               string            `json:"teacher_id"`
	FirstName        string            `json:"first_name"`
	LastName         string            `json:"last_name"`
	Role             string            `json:"role"`
	PrimaryContact   string            `json:"primary_contact"`
	SecondaryContact string            `json:"secondary_contact"`
	Custom           map[string]string `json:"custom,omitempty"`
	CreatedAt        string            `json:"created_at,omitempty"`
	UpdatedAt        string            `json:"updated_at,omitempty"`
}

type TeacherRequest struct {
	FirstName        string            `json:"first_name"`
	LastName         string            `json:"last_name"`
	Role             string            `json:"role"`
	PrimaryContact   string            `json:"primary_contact"`
	SecondaryContact string            `json:"secondary_contact"`
	Custom           map[string]string `json:"custom"`
}

func (r TeacherRequest) fields() records.TeacherFields {
	return records.TeacherFields{
		FirstName:        r.FirstName,
		LastName:         r.LastName,
		Role:             r.Role,
		PrimaryContact:   r.PrimaryContact,
		SecondaryContact: r.SecondaryContact,
		Custom:           r.Custom,
	}
}

func toTeacherDTO(t records.Teacher) TeacherDTO {
	return TeacherDTO{
		ID:               string(t.ID),
		FirstName:        t.FirstName,
		LastName:         t.LastName,
		Role:             t.Role,
		PrimaryContact:   t.PrimaryContact,
		SecondaryContact: t.SecondaryContact,
		Custom:           t.Custom,
		CreatedAt:        formatTimestamp(t.CreatedAt),
		UpdatedAt:        formatTimestamp(t.UpdatedAt),
	}
}

// =============================================================================
// PAYMENTS
// =============================================================================

type PaymentDTO struct {
	EntityID  string `json:"entity_id"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Status    string `json:"status"`
	Amount    string `json:"amount"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func toPaymentDTO(r records.PaymentRecord) PaymentDTO {
	return PaymentDTO{
		EntityID:  string(r.EntityID),
		Year:      r.Month.Year,
		Month:     int(r.Month.Month),
		Status:    string(r.Status),
		Amount:    r.Amount.String(),
		UpdatedAt: formatTimestamp(r.UpdatedAt),
	}
}

type SetPaymentRequest struct {
	Status string          `json:"status"`
	Amount decimal.Decimal `json:"amount"`
}

type PendingMonthDTO struct {
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Amount string `json:"amount"`
}

type PendingResponse struct {
	Months []PendingMonthDTO `json:"months"`
	Total  string            `json:"total"`
}

// =============================================================================
// ACTIVITY
// =============================================================================

type ActivityDTO struct {
	Timestamp  string `json:"timestamp"`
	Action     string `json:"action"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Details    string `json:"details,omitempty"`
}

func toActivityDTO(e records.ActivityEntry) ActivityDTO {
	return ActivityDTO{
		Timestamp:  formatTimestamp(e.Timestamp),
		Action:     string(e.Action),
		EntityType: string(e.EntityType),
		EntityID:   string(e.EntityID),
		Details:    e.Details,
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse carries the error kind plus remediation text; the UI picks
// wording per kind.
type ErrorResponse struct {
	Error       string `json:"error"`
	Kind        string `json:"kind"`
	Remediation string `json:"remediation,omitempty"`
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
