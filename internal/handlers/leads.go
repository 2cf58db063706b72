package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/caseintake/internal/models"
	"github.com/charlesng35/caseintake/internal/services"
	"github.com/charlesng35/caseintake/pkg/response"
)

// LeadHandler exposes public lead intake and the admin lead endpoints.
type LeadHandler struct {
	leads *services.LeadService
}

func NewLeadHandler(leads *services.LeadService) (*LeadHandler, error) {
	if leads == nil {
		return nil, errors.New("lead handler: lead service is required")
	}
	return &LeadHandler{leads: leads}, nil
}

type createLeadRequest struct {
	FirstName       string   `json:"first_name" validate:"required,max=120"`
	LastName        string   `json:"last_name" validate:"required,max=120"`
	Email           string   `json:"email" validate:"required,email,max=255"`
	Country         string   `json:"country" validate:"omitempty,country"`
	LinkedInProfile string   `json:"linkedin_profile" validate:"required,url,max=512"`
	VisasOfInterest []string `json:"visas_of_interest" validate:"required,min=1,dive,visa_category"`
	AdditionalInfo  string   `json:"additional_info" validate:"max=10000"`
}

// POST /api/leads
func (h *LeadHandler) Create(c *gin.Context) {
	var req createLeadRequest
	if !bindAndValidate(c, &req) {
		return
	}

	lead, err := h.leads.Create(requestContext(c), services.CreateLeadInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Country:         req.Country,
		LinkedInProfile: req.LinkedInProfile,
		VisasOfInterest: req.VisasOfInterest,
		AdditionalInfo:  req.AdditionalInfo,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, newLeadDTO(lead))
}

// GET /api/leads?search=&status=
func (h *LeadHandler) List(c *gin.Context) {
	leads, err := h.leads.List(requestContext(c), services.LeadFilter{
		Search: c.Query("search"),
		Status: c.Query("status"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]leadDTO, len(leads))
	for i := range leads {
		out[i] = toLeadSummary(&leads[i])
	}
	response.Success(c, http.StatusOK, gin.H{"leads": out})
}

// GET /api/leads/:id
func (h *LeadHandler) Get(c *gin.Context) {
	lead, err := h.leads.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, toLeadDetail(lead))
}

type updateLeadRequest struct {
	Status string `json:"status" validate:"required,lead_status"`
}

// PATCH /api/leads/:id
func (h *LeadHandler) UpdateStatus(c *gin.Context) {
	var req updateLeadRequest
	if !bindAndValidate(c, &req) {
		return
	}

	lead, err := h.leads.UpdateStatus(requestContext(c), c.Param("id"), models.LeadStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, toLeadDetail(lead))
}
