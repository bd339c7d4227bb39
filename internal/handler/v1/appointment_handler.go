package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smartclinic/clinic-api/internal/domain"
	"github.com/smartclinic/clinic-api/internal/domain/appointment"
	"github.com/smartclinic/clinic-api/internal/middleware"
	"github.com/smartclinic/clinic-api/internal/service"
)

type AppointmentHandler struct {
	apptSvc  *service.AppointmentService
	availSvc *service.AvailabilityService
}

func NewAppointmentHandler(apptSvc *service.AppointmentService, availSvc *service.AvailabilityService) *AppointmentHandler {
	return &AppointmentHandler{apptSvc: apptSvc, availSvc: availSvc}
}

type bookRequest struct {
	DoctorID    uuid.UUID `json:"doctor_id" binding:"required"`
	PatientID   uuid.UUID `json:"patient_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// Book creates an appointment. Patients book for themselves; admins may
// book on a patient's behalf by supplying patient_id.
func (h *AppointmentHandler) Book(c *gin.Context) {
	var req bookRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	patientID := req.PatientID
	if claims.Role == domain.RolePatient {
		if claims.PatientID == nil {
			respondError(c, http.StatusForbidden, "access denied")
			return
		}
		patientID = *claims.PatientID
	}

	cmd := &appointment.BookCommand{
		DoctorID:    req.DoctorID,
		PatientID:   patientID,
		ScheduledAt: req.ScheduledAt,
	}

	a, err := h.apptSvc.Book(c.Request.Context(), cmd, claims.SubjectID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, a)
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	a, err := h.apptSvc.GetAppointment(c.Request.Context(), id, string(claims.Role), claims.PatientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, a)
}

type rescheduleRequest struct {
	DoctorID    uuid.UUID `json:"doctor_id" binding:"required"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`
}

// Reschedule moves a patient's own appointment to a new doctor or time.
func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req rescheduleRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := middleware.ClaimsFrom(c)
	if claims == nil || claims.PatientID == nil {
		respondError(c, http.StatusForbidden, "access denied")
		return
	}

	status := appointment.Status(req.Status)
	if req.Status == "" {
		status = appointment.StatusScheduled
	}

	cmd := &appointment.RescheduleCommand{
		DoctorID:    req.DoctorID,
		PatientID:   *claims.PatientID,
		ScheduledAt: req.ScheduledAt,
		Status:      status,
	}

	a, err := h.apptSvc.Reschedule(c.Request.Context(), id, *claims.PatientID, cmd, claims.SubjectID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, a)
}

// Cancel removes a patient's own appointment.
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	claims := middleware.ClaimsFrom(c)
	if claims == nil || claims.PatientID == nil {
		respondError(c, http.StatusForbidden, "access denied")
		return
	}

	if err := h.apptSvc.Cancel(c.Request.Context(), id, *claims.PatientID, claims.SubjectID, string(claims.Role), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"cancelled": true})
}

type changeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ChangeStatus is the doctor/admin-side transition, typically marking a
// visit completed.
func (h *AppointmentHandler) ChangeStatus(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req changeStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.apptSvc.ChangeStatus(c.Request.Context(), id, appointment.Status(req.Status), claims.SubjectID, string(claims.Role), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"status": req.Status})
}

// Availability returns the open slot labels for a doctor on a calendar
// day.
func (h *AppointmentHandler) Availability(c *gin.Context) {
	doctorID, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	day, ok := parseDate(c, "date")
	if !ok {
		return
	}

	slots, err := h.availSvc.ComputeAvailability(c.Request.Context(), doctorID, day)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, slots)
}

// DaySchedule lists a doctor's booked appointments on a day, optionally
// filtered by patient name.
func (h *AppointmentHandler) DaySchedule(c *gin.Context) {
	doctorID, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	day, ok := parseDate(c, "date")
	if !ok {
		return
	}

	q := &appointment.DayScheduleQuery{
		DoctorID:    doctorID,
		Day:         day,
		PatientName: c.Query("patient_name"),
	}

	apps, err := h.apptSvc.ListForDoctorDay(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, apps)
}
