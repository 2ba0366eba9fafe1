package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lichen18/navi-profile-go/internal/service"
	"github.com/lichen18/navi-profile-go/internal/telemetry"
	"github.com/lichen18/navi-profile-go/pkg/response"
)

// ProfileHandler exposes the navigation profile pipeline over HTTP.
type ProfileHandler struct {
	service *service.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(service *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// Upload handles POST /api/v1/profiles. It accepts a multipart CSV of raw
// telemetry events, runs the pipeline and returns the stored result ID.
func (h *ProfileHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Missing csv file", err)
		return
	}
	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Unreadable csv file", err)
		return
	}
	defer f.Close()

	rows, err := telemetry.ReadCSV(f)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid csv file", err)
		return
	}

	vin := c.PostForm("vin")
	if vin == "" {
		for _, row := range rows {
			if row.VIN != "" {
				vin = row.VIN
				break
			}
		}
	}

	result, err := h.service.ProcessRows(c.Request.Context(), vin, rows)
	if err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "No trips could be extracted", err)
		return
	}

	response.Success(c, gin.H{
		"id":         result.ID,
		"vin":        result.Profile.VIN,
		"trip_count": len(result.Profile.Trips),
	})
}

// List handles GET /api/v1/profiles
func (h *ProfileHandler) List(c *gin.Context) {
	response.Success(c, gin.H{"ids": h.service.List()})
}

func (h *ProfileHandler) load(c *gin.Context) (*service.ProfileResult, bool) {
	result, ok := h.service.Get(c.Param("id"))
	if !ok {
		response.Error(c, http.StatusNotFound, "Profile not found", nil)
		return nil, false
	}
	return result, true
}

// GetTrips handles GET /api/v1/profiles/:id/trips
func (h *ProfileHandler) GetTrips(c *gin.Context) {
	result, ok := h.load(c)
	if !ok {
		return
	}
	response.Success(c, result.Profile)
}

// GetFeatures handles GET /api/v1/profiles/:id/features
func (h *ProfileHandler) GetFeatures(c *gin.Context) {
	result, ok := h.load(c)
	if !ok {
		return
	}
	response.Success(c, result.Features)
}

// GetGraph handles GET /api/v1/profiles/:id/graph
func (h *ProfileHandler) GetGraph(c *gin.Context) {
	result, ok := h.load(c)
	if !ok {
		return
	}
	response.Success(c, result.Graph.Export())
}

// GetPrediction handles GET /api/v1/profiles/:id/prediction
func (h *ProfileHandler) GetPrediction(c *gin.Context) {
	result, ok := h.load(c)
	if !ok {
		return
	}
	response.Success(c, result.Graph.Predict())
}

// GetPersona handles GET /api/v1/profiles/:id/persona
func (h *ProfileHandler) GetPersona(c *gin.Context) {
	result, ok := h.load(c)
	if !ok {
		return
	}
	response.Success(c, result.Persona)
}

// GetTimeline handles GET /api/v1/profiles/:id/timeline
func (h *ProfileHandler) GetTimeline(c *gin.Context) {
	result, ok := h.load(c)
	if !ok {
		return
	}
	response.Success(c, service.Timeline(result.Profile))
}
