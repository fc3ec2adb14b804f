package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"haul/internal/domain"
	"haul/internal/service"
)

// ProfileHandler serves the profile screen: ratings, language and verification.
type ProfileHandler struct {
	reviews      *service.ReviewService
	languages    *service.LanguageService
	verification *service.VerificationService
	alerts       *service.AlertService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(
	reviews *service.ReviewService,
	languages *service.LanguageService,
	verification *service.VerificationService,
	alerts *service.AlertService,
) *ProfileHandler {
	return &ProfileHandler{
		reviews:      reviews,
		languages:    languages,
		verification: verification,
		alerts:       alerts,
	}
}

// LanguageRequest is the HTTP request body for changing the language.
type LanguageRequest struct {
	Code string `json:"code"`
}

// DocumentRequest is the HTTP request body for selecting a document image.
type DocumentRequest struct {
	Path string `json:"path"`
}

// VerificationResponse is the HTTP response for the verification screen.
type VerificationResponse struct {
	Status    domain.VerificationStatus `json:"status"`
	Documents []domain.Document         `json:"documents"`
}

// GetRatings handles GET /v1/reviews
func (h *ProfileHandler) GetRatings(c *gin.Context) {
	ratings, err := h.reviews.Ratings(c.Request.Context())
	if err != nil {
		respondError(c, h.alerts, "reviews_get", err)
		return
	}

	respondJSON(c, http.StatusOK, ratings)
}

// GetLanguage handles GET /v1/language
func (h *ProfileHandler) GetLanguage(c *gin.Context) {
	respondJSON(c, http.StatusOK, gin.H{
		"current":   h.languages.Current(c.Request.Context()),
		"supported": h.languages.Supported(),
	})
}

// SetLanguage handles PUT /v1/language
func (h *ProfileHandler) SetLanguage(c *gin.Context) {
	var req LanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c)
		return
	}

	ctx := c.Request.Context()
	if err := h.languages.Set(ctx, req.Code); err != nil {
		respondError(c, h.alerts, "language_set", err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"current": h.languages.Current(ctx)})
}

// GetVerification handles GET /v1/verification
func (h *ProfileHandler) GetVerification(c *gin.Context) {
	h.respondVerification(c)
}

// AddDocument handles PUT /v1/verification/documents/:type
func (h *ProfileHandler) AddDocument(c *gin.Context) {
	var req DocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c)
		return
	}

	if err := h.verification.AddDocument(domain.DocumentType(c.Param("type")), req.Path); err != nil {
		respondError(c, h.alerts, "verification_add_document", err)
		return
	}

	h.respondVerification(c)
}

// RemoveDocument handles DELETE /v1/verification/documents/:type
func (h *ProfileHandler) RemoveDocument(c *gin.Context) {
	h.verification.RemoveDocument(domain.DocumentType(c.Param("type")))
	h.respondVerification(c)
}

// SubmitVerification handles POST /v1/verification/submit
func (h *ProfileHandler) SubmitVerification(c *gin.Context) {
	if err := h.verification.Submit(c.Request.Context()); err != nil {
		respondError(c, h.alerts, "verification_submit", err)
		return
	}

	h.respondVerification(c)
}

func (h *ProfileHandler) respondVerification(c *gin.Context) {
	docs := h.verification.Documents()
	if docs == nil {
		docs = []domain.Document{}
	}
	respondJSON(c, http.StatusOK, VerificationResponse{Status: h.verification.Status(), Documents: docs})
}
