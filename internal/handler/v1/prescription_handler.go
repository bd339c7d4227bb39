package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smartclinic/clinic-api/internal/domain/prescription"
	"github.com/smartclinic/clinic-api/internal/middleware"
	"github.com/smartclinic/clinic-api/internal/service"
)

type PrescriptionHandler struct {
	prescSvc *service.PrescriptionService
}

func NewPrescriptionHandler(prescSvc *service.PrescriptionService) *PrescriptionHandler {
	return &PrescriptionHandler{prescSvc: prescSvc}
}

type issuePrescriptionRequest struct {
	PatientName   string    `json:"patient_name" binding:"required"`
	AppointmentID uuid.UUID `json:"appointment_id" binding:"required"`
	Medication    string    `json:"medication" binding:"required"`
	Dosage        string    `json:"dosage"`
	DoctorNotes   string    `json:"doctor_notes"`
}

func (h *PrescriptionHandler) Issue(c *gin.Context) {
	var req issuePrescriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	cmd := &prescription.IssuePrescriptionCommand{
		PatientName:   req.PatientName,
		AppointmentID: req.AppointmentID,
		Medication:    req.Medication,
		Dosage:        req.Dosage,
		DoctorNotes:   req.DoctorNotes,
	}

	p, err := h.prescSvc.Issue(c.Request.Context(), cmd, claims.SubjectID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, p)
}

func (h *PrescriptionHandler) GetByAppointment(c *gin.Context) {
	appointmentID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.prescSvc.GetByAppointment(c.Request.Context(), appointmentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, p)
}

func (h *PrescriptionHandler) ListByPatientName(c *gin.Context) {
	patientName := c.Query("patient_name")
	if patientName == "" {
		respondError(c, http.StatusBadRequest, "patient_name query parameter is required")
		return
	}

	list, err := h.prescSvc.FindByPatientName(c.Request.Context(), patientName)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, list)
}
