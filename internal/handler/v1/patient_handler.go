package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartclinic/clinic-api/internal/domain/patient"
	"github.com/smartclinic/clinic-api/internal/middleware"
	"github.com/smartclinic/clinic-api/internal/service"
)

type PatientHandler struct {
	patientSvc *service.PatientService
}

func NewPatientHandler(patientSvc *service.PatientService) *PatientHandler {
	return &PatientHandler{patientSvc: patientSvc}
}

type registerPatientRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

func (h *PatientHandler) Register(c *gin.Context) {
	var req registerPatientRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &patient.RegisterPatientCommand{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Address:  req.Address,
	}

	p, err := h.patientSvc.Register(c.Request.Context(), cmd, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, sanitizePatient(p))
}

func (h *PatientHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.patientSvc.GetPatient(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, sanitizePatient(p))
}

// MyAppointments lists the calling patient's appointments. The optional
// scope query narrows to past (completed) or upcoming (scheduled)
// visits; doctor_name filters by the doctor's name.
func (h *PatientHandler) MyAppointments(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil || claims.PatientID == nil {
		respondError(c, http.StatusForbidden, "access denied")
		return
	}
	patientID := *claims.PatientID

	if doctorName := c.Query("doctor_name"); doctorName != "" {
		apps, err := h.patientSvc.AppointmentsWithDoctor(c.Request.Context(), patientID, doctorName)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		respondOK(c, apps)
		return
	}

	switch c.Query("scope") {
	case "":
		apps, err := h.patientSvc.Appointments(c.Request.Context(), patientID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		respondOK(c, apps)
	case "upcoming", "past":
		apps, err := h.patientSvc.AppointmentHistory(c.Request.Context(), patientID, c.Query("scope") == "upcoming")
		if err != nil {
			respondServiceError(c, err)
			return
		}
		respondOK(c, apps)
	default:
		respondError(c, http.StatusBadRequest, "scope must be upcoming or past")
	}
}

type patientResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

func sanitizePatient(p *patient.Patient) *patientResponse {
	return &patientResponse{
		ID:      p.ID.String(),
		Name:    p.Name,
		Email:   p.Email,
		Phone:   p.Phone,
		Address: p.Address,
	}
}
