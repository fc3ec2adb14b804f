package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"haul/internal/domain"
	"haul/internal/service"
)

// ConversationHandler handles HTTP requests for chats with shippers.
type ConversationHandler struct {
	messaging *service.MessagingService
	alerts    *service.AlertService
}

// NewConversationHandler creates a new ConversationHandler.
func NewConversationHandler(messaging *service.MessagingService, alerts *service.AlertService) *ConversationHandler {
	return &ConversationHandler{messaging: messaging, alerts: alerts}
}

// DraftRequest is the HTTP request body for composing a message.
type DraftRequest struct {
	Text string `json:"text"`
}

// ConversationResponse is the HTTP response for a conversation.
type ConversationResponse struct {
	PeerID   string           `json:"peerId"`
	Messages []domain.Message `json:"messages"`
	Draft    string           `json:"draft"`
}

// Open handles POST /v1/conversations/:userId
func (h *ConversationHandler) Open(c *gin.Context) {
	conv, err := h.messaging.Open(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, h.alerts, "conversation_open", err)
		return
	}

	respondJSON(c, http.StatusOK, conversationResponse(conv))
}

// Messages handles GET /v1/conversations/:userId
func (h *ConversationHandler) Messages(c *gin.Context) {
	conv, err := h.messaging.Get(c.Param("userId"))
	if err != nil {
		respondError(c, h.alerts, "conversation_messages", err)
		return
	}

	respondJSON(c, http.StatusOK, conversationResponse(conv))
}

// SetDraft handles PUT /v1/conversations/:userId/draft
func (h *ConversationHandler) SetDraft(c *gin.Context) {
	var req DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c)
		return
	}

	conv, err := h.messaging.Get(c.Param("userId"))
	if err != nil {
		respondError(c, h.alerts, "conversation_draft", err)
		return
	}

	conv.SetDraft(req.Text)
	c.Status(http.StatusNoContent)
}

// Send handles POST /v1/conversations/:userId/send
// A request body, when present, replaces the draft before sending.
func (h *ConversationHandler) Send(c *gin.Context) {
	conv, err := h.messaging.Get(c.Param("userId"))
	if err != nil {
		respondError(c, h.alerts, "conversation_send", err)
		return
	}

	if c.Request.ContentLength > 0 {
		var req DraftRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c)
			return
		}
		conv.SetDraft(req.Text)
	}

	msg, err := conv.Send(c.Request.Context())
	if err != nil {
		respondError(c, h.alerts, "conversation_send", err)
		return
	}

	respondJSON(c, http.StatusCreated, msg)
}

// Close handles DELETE /v1/conversations/:userId
func (h *ConversationHandler) Close(c *gin.Context) {
	h.messaging.Close(c.Param("userId"))
	c.Status(http.StatusNoContent)
}

func conversationResponse(conv *service.Conversation) ConversationResponse {
	msgs := conv.Messages()
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return ConversationResponse{PeerID: conv.PeerID(), Messages: msgs, Draft: conv.Draft()}
}
