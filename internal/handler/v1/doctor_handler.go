package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartclinic/clinic-api/internal/domain/doctor"
	"github.com/smartclinic/clinic-api/internal/middleware"
	"github.com/smartclinic/clinic-api/internal/service"
)

type DoctorHandler struct {
	doctorSvc *service.DoctorService
}

func NewDoctorHandler(doctorSvc *service.DoctorService) *DoctorHandler {
	return &DoctorHandler{doctorSvc: doctorSvc}
}

type createDoctorRequest struct {
	Name           string   `json:"name" binding:"required"`
	Specialty      string   `json:"specialty"`
	Email          string   `json:"email" binding:"required,email"`
	Password       string   `json:"password" binding:"required"`
	Phone          string   `json:"phone"`
	AvailableSlots []string `json:"available_slots"`
}

func (h *DoctorHandler) Create(c *gin.Context) {
	var req createDoctorRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	cmd := &doctor.CreateDoctorCommand{
		Name:           req.Name,
		Specialty:      req.Specialty,
		Email:          req.Email,
		Password:       req.Password,
		Phone:          req.Phone,
		AvailableSlots: req.AvailableSlots,
	}

	d, err := h.doctorSvc.CreateDoctor(c.Request.Context(), cmd, claims.SubjectID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, sanitizeDoctor(d))
}

type updateDoctorRequest struct {
	Name           *string   `json:"name"`
	Specialty      *string   `json:"specialty"`
	Email          *string   `json:"email"`
	Password       *string   `json:"password"`
	Phone          *string   `json:"phone"`
	AvailableSlots *[]string `json:"available_slots"`
}

func (h *DoctorHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateDoctorRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	cmd := &doctor.UpdateDoctorCommand{
		Name:           req.Name,
		Specialty:      req.Specialty,
		Email:          req.Email,
		Password:       req.Password,
		Phone:          req.Phone,
		AvailableSlots: req.AvailableSlots,
	}

	d, err := h.doctorSvc.UpdateDoctor(c.Request.Context(), id, cmd, claims.SubjectID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, sanitizeDoctor(d))
}

func (h *DoctorHandler) Delete(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.doctorSvc.DeleteDoctor(c.Request.Context(), id, claims.SubjectID, string(claims.Role), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"deleted": true})
}

func (h *DoctorHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	d, err := h.doctorSvc.GetDoctor(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, sanitizeDoctor(d))
}

// List supports optional name, specialty, and period (AM/PM) filters.
func (h *DoctorHandler) List(c *gin.Context) {
	q := &doctor.FilterDoctorsQuery{
		Name:      c.Query("name"),
		Specialty: c.Query("specialty"),
		Period:    c.Query("period"),
	}

	list, err := h.doctorSvc.FilterDoctors(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := make([]*doctorResponse, 0, len(list))
	for _, d := range list {
		out = append(out, sanitizeDoctor(d))
	}
	respondOK(c, out)
}

type doctorResponse struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Specialty      string   `json:"specialty"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone,omitempty"`
	AvailableSlots []string `json:"available_slots"`
}

// sanitizeDoctor strips the credential fields from API output.
func sanitizeDoctor(d *doctor.Doctor) *doctorResponse {
	return &doctorResponse{
		ID:             d.ID.String(),
		Name:           d.Name,
		Specialty:      d.Specialty,
		Email:          d.Email,
		Phone:          d.Phone,
		AvailableSlots: d.AvailableSlots,
	}
}
