/*
handlers.go - HTTP handlers over the records repository

PURPOSE:
  The handlers are the stand-in for the desktop UI: every endpoint calls a
  public repository operation and renders what it returns. No business
  logic lives here beyond request decoding and error mapping.

ERROR MAPPING:
  Each error kind in the taxonomy gets a distinct status and remediation
  text (the UI presents materially different wording per kind):
    validation  -> 400  fix the fields
    not_found   -> 404  refresh the list
    locked_file -> 423  close the workbook elsewhere and retry
    schema      -> 500  repair the workbook manually
    storage     -> 500  see the error log
  Server-side kinds are additionally appended to the error log sink.

SEE ALSO:
  - server.go: routes
  - dto.go: wire types
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/schoolworks/records-engine/errlog"
	"github.com/schoolworks/records-engine/records"
	"github.com/schoolworks/records-engine/settings"
	"github.com/schoolworks/records-engine/store/xlsx"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store         *xlsx.Store
	SettingsStore *settings.Store
	ErrLog        *errlog.Logger

	mu  sync.RWMutex
	cfg settings.Settings
}

// NewHandler creates a handler with the given dependencies and the loaded
// settings document.
func NewHandler(store *xlsx.Store, settingsStore *settings.Store, errLog *errlog.Logger, cfg settings.Settings) *Handler {
	return &Handler{
		Store:         store,
		SettingsStore: settingsStore,
		ErrLog:        errLog,
		cfg:           cfg,
	}
}

func (h *Handler) currentSettings() settings.Settings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

// =============================================================================
// STUDENT HANDLERS
// =============================================================================

// ListStudents returns students matching the optional q/class/section
// filters, in sheet order.
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	filter := records.PersonFilter{
		Query:   r.URL.Query().Get("q"),
		Class:   r.URL.Query().Get("class"),
		Section: r.URL.Query().Get("section"),
	}
	students, err := h.Store.ListStudents(filter)
	if err != nil {
		h.writeError(w, "list students", err)
		return
	}
	dtos := make([]StudentDTO, len(students))
	for i, s := range students {
		dtos[i] = toStudentDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	s, err := h.Store.GetStudent(records.EntityID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeError(w, "get student", err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentDTO(s))
}

func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req StudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "create student", &records.ValidationError{Reason: "malformed request body"})
		return
	}
	s, err := h.Store.AddStudent(req.fields())
	if err != nil {
		h.writeError(w, "create student", err)
		return
	}
	writeJSON(w, http.StatusCreated, toStudentDTO(s))
}

func (h *Handler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	var req StudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "update student", &records.ValidationError{Reason: "malformed request body"})
		return
	}
	s, err := h.Store.UpdateStudent(records.EntityID(chi.URLParam(r, "id")), req.fields())
	if err != nil {
		h.writeError(w, "update student", err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentDTO(s))
}

func (h *Handler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteStudent(records.EntityID(chi.URLParam(r, "id"))); err != nil {
		h.writeError(w, "delete student", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// TEACHER HANDLERS
// =============================================================================

func (h *Handler) ListTeachers(w http.ResponseWriter, r *http.Request) {
	filter := records.PersonFilter{
		Query: r.URL.Query().Get("q"),
		Role:  r.URL.Query().Get("role"),
	}
	teachers, err := h.Store.ListTeachers(filter)
	if err != nil {
		h.writeError(w, "list teachers", err)
		return
	}
	dtos := make([]TeacherDTO, len(teachers))
	for i, t := range teachers {
		dtos[i] = toTeacherDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetTeacher(w http.ResponseWriter, r *http.Request) {
	t, err := h.Store.GetTeacher(records.EntityID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeError(w, "get teacher", err)
		return
	}
	writeJSON(w, http.StatusOK, toTeacherDTO(t))
}

func (h *Handler) CreateTeacher(w http.ResponseWriter, r *http.Request) {
	var req TeacherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "create teacher", &records.ValidationError{Reason: "malformed request body"})
		return
	}
	t, err := h.Store.AddTeacher(req.fields())
	if err != nil {
		h.writeError(w, "create teacher", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTeacherDTO(t))
}

func (h *Handler) UpdateTeacher(w http.ResponseWriter, r *http.Request) {
	var req TeacherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "update teacher", &records.ValidationError{Reason: "malformed request body"})
		return
	}
	t, err := h.Store.UpdateTeacher(records.EntityID(chi.URLParam(r, "id")), req.fields())
	if err != nil {
		h.writeError(w, "update teacher", err)
		return
	}
	writeJSON(w, http.StatusOK, toTeacherDTO(t))
}

func (h *Handler) DeleteTeacher(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteTeacher(records.EntityID(chi.URLParam(r, "id"))); err != nil {
		h.writeError(w, "delete teacher", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

func entityParam(r *http.Request) (records.EntityType, error) {
	switch chi.URLParam(r, "entity") {
	case "student", "students":
		return records.EntityStudent, nil
	case "teacher", "teachers":
		return records.EntityTeacher, nil
	default:
		return "", &records.ValidationError{Field: "entity", Reason: "must be student or teacher"}
	}
}

func monthParams(r *http.Request) (records.Month, error) {
	year, errY := strconv.Atoi(chi.URLParam(r, "year"))
	month, errM := strconv.Atoi(chi.URLParam(r, "month"))
	if errY != nil || errM != nil {
		return records.Month{}, &records.ValidationError{Field: "month", Reason: "year and month must be numeric"}
	}
	return records.NewMonth(year, time.Month(month)), nil
}

// SetPayment upserts one (entity, id, year, month) record.
func (h *Handler) SetPayment(w http.ResponseWriter, r *http.Request) {
	entity, err := entityParam(r)
	if err != nil {
		h.writeError(w, "set payment", err)
		return
	}
	m, err := monthParams(r)
	if err != nil {
		h.writeError(w, "set payment", err)
		return
	}
	var req SetPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "set payment", &records.ValidationError{Reason: "malformed request body"})
		return
	}

	rec, err := h.Store.SetPayment(entity, records.EntityID(chi.URLParam(r, "id")), m, records.PaymentStatus(req.Status), req.Amount)
	if err != nil {
		h.writeError(w, "set payment", err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(rec))
}

// GetPayment resolves one record; absent months come back Pending.
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	entity, err := entityParam(r)
	if err != nil {
		h.writeError(w, "get payment", err)
		return
	}
	m, err := monthParams(r)
	if err != nil {
		h.writeError(w, "get payment", err)
		return
	}
	rec, err := h.Store.GetPayment(entity, records.EntityID(chi.URLParam(r, "id")), m)
	if err != nil {
		h.writeError(w, "get payment", err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(rec))
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	entity, err := entityParam(r)
	if err != nil {
		h.writeError(w, "list payments", err)
		return
	}
	recs, err := h.Store.ListPayments(entity)
	if err != nil {
		h.writeError(w, "list payments", err)
		return
	}
	dtos := make([]PaymentDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = toPaymentDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPending returns the unpaid months and total for an entity within the
// rollover window. Reference month and default amount come from settings
// unless year/month query parameters override them.
func (h *Handler) GetPending(w http.ResponseWriter, r *http.Request) {
	entity, err := entityParam(r)
	if err != nil {
		h.writeError(w, "pending months", err)
		return
	}

	cfg := h.currentSettings()
	asOf := records.NewMonth(cfg.DefaultYear, time.Month(cfg.DefaultMonth))
	if y := r.URL.Query().Get("year"); y != "" {
		if n, err := strconv.Atoi(y); err == nil {
			asOf.Year = n
		}
	}
	if m := r.URL.Query().Get("month"); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			asOf.Month = time.Month(n)
		}
	}
	defaultAmount := cfg.DefaultStudentFee
	if entity == records.EntityTeacher {
		defaultAmount = cfg.DefaultTeacherSalary
	}
	if d, ok := decimalFromQuery(r, "amount"); ok {
		defaultAmount = d
	}

	pending, total, err := h.Store.PendingMonths(entity, records.EntityID(chi.URLParam(r, "id")), asOf, defaultAmount)
	if err != nil {
		h.writeError(w, "pending months", err)
		return
	}

	resp := PendingResponse{Months: make([]PendingMonthDTO, len(pending)), Total: total.String()}
	for i, p := range pending {
		resp.Months[i] = PendingMonthDTO{Year: p.Month.Year, Month: int(p.Month.Month), Amount: p.Amount.String()}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) PaymentStats(w http.ResponseWriter, r *http.Request) {
	entity, err := entityParam(r)
	if err != nil {
		h.writeError(w, "payment stats", err)
		return
	}
	m, err := monthParams(r)
	if err != nil {
		h.writeError(w, "payment stats", err)
		return
	}
	stats, err := h.Store.PaymentStats(entity, m)
	if err != nil {
		h.writeError(w, "payment stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// =============================================================================
// ACTIVITY + SETTINGS HANDLERS
// =============================================================================

func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	entries, err := h.Store.ListActivity(limit)
	if err != nil {
		h.writeError(w, "list activity", err)
		return
	}
	dtos := make([]ActivityDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toActivityDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.currentSettings())
}

// SaveSettings persists the document and re-shapes the workbook columns
// when custom-field lists changed.
func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var cfg settings.Settings
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		h.writeError(w, "save settings", &records.ValidationError{Reason: "malformed request body"})
		return
	}
	if err := h.SettingsStore.Save(cfg); err != nil {
		h.writeError(w, "save settings", &records.StorageError{Op: "save settings", Err: err})
		return
	}

	if err := h.Store.Reconfigure(xlsx.Config{
		StudentIDPrefix:     cfg.StudentIDPrefix,
		TeacherIDPrefix:     cfg.TeacherIDPrefix,
		StudentCustomFields: cfg.StudentCustomFields,
		TeacherCustomFields: cfg.TeacherCustomFields,
	}); err != nil {
		h.writeError(w, "apply settings", err)
		return
	}

	h.mu.Lock()
	h.cfg = cfg
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, cfg)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	var (
		status      int
		kind        string
		remediation string
	)
	switch {
	case errors.Is(err, records.ErrValidation):
		status, kind = http.StatusBadRequest, "validation"
		remediation = "Correct the highlighted fields and resubmit."
	case errors.Is(err, records.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
		remediation = "The record no longer exists. Refresh the list."
	case errors.Is(err, records.ErrLocked):
		status, kind = http.StatusLocked, "locked_file"
		remediation = "The workbook is open in another program (Excel, OneDrive preview). Close it and retry."
	case errors.Is(err, records.ErrSchema):
		status, kind = http.StatusInternalServerError, "schema"
		remediation = "The sheet structure could not be repaired automatically. Fix the workbook by hand."
	default:
		status, kind = http.StatusInternalServerError, "storage"
		remediation = "Unexpected storage failure. Check the error log."
	}

	if status >= http.StatusInternalServerError && h.ErrLog != nil {
		h.ErrLog.Log(op, err)
	}

	writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kind, Remediation: remediation})
}

func decimalFromQuery(r *http.Request, key string) (decimal.Decimal, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
