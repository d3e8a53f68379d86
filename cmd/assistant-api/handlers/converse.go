// Package handlers provides HTTP handlers for the assistant API.
package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/carsouq/assistant/internal/assistant"
	"github.com/carsouq/assistant/internal/conversation"
	"github.com/carsouq/assistant/internal/gateway"
	"github.com/carsouq/assistant/internal/observability"
)

// ConverseHandler handles conversational queries.
type ConverseHandler struct {
	logger        *observability.Logger
	service       *assistant.Service
	maxImageBytes int
}

// NewConverseHandler creates a new converse handler.
func NewConverseHandler(logger *observability.Logger, service *assistant.Service, maxImageBytes int) *ConverseHandler {
	return &ConverseHandler{
		logger:        logger,
		service:       service,
		maxImageBytes: maxImageBytes,
	}
}

// ConverseRequestDTO represents the API request for a conversation turn.
type ConverseRequestDTO struct {
	Query     string    `json:"query"`
	SessionID string    `json:"sessionId,omitempty"`
	History   []TurnDTO `json:"history,omitempty"`
	Image     *ImageDTO `json:"image,omitempty"`
}

// TurnDTO represents a prior conversation turn supplied by the caller.
type TurnDTO struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// ImageDTO carries a base64-encoded image attachment.
type ImageDTO struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// ConverseResponseDTO represents the API response.
type ConverseResponseDTO struct {
	Response           string  `json:"response"`
	Intent             string  `json:"intent"`
	Currency           string  `json:"currency"`
	ReferencedEntryIDs []int64 `json:"referencedEntryIds,omitempty"`
	MessageID          string  `json:"messageId"`
	SessionID          string  `json:"sessionId"`
	Strategy           string  `json:"strategy"`
	LatencyMs          int64   `json:"latencyMs"`
}

type errorDTO struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Converse handles POST /v1/converse.
func (h *ConverseHandler) Converse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	var reqDTO ConverseRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	req := assistant.ConverseRequest{
		Query:     reqDTO.Query,
		SessionID: reqDTO.SessionID,
	}

	for _, t := range reqDTO.History {
		role := conversation.RoleAssistant
		if t.Role == string(conversation.RoleUser) {
			role = conversation.RoleUser
		}
		req.History = append(req.History, conversation.Turn{Role: role, Text: t.Text})
	}

	if reqDTO.Image != nil {
		// Cheap pre-decode guard; the service enforces the exact limit.
		if h.maxImageBytes > 0 && len(reqDTO.Image.Data) > 2*h.maxImageBytes {
			h.writeError(w, http.StatusBadRequest, assistant.ErrImageTooLarge.Error(), "")
			return
		}
		data, err := base64.StdEncoding.DecodeString(reqDTO.Image.Data)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid image encoding", err.Error())
			return
		}
		req.Image = &gateway.InlineImage{MIMEType: reqDTO.Image.MIMEType, Data: data}
	}

	resp, err := h.service.Converse(ctx, req)
	if err != nil {
		h.writeConverseError(w, err)
		return
	}

	respDTO := ConverseResponseDTO{
		Response:           resp.ResponseText,
		Intent:             string(resp.Intent),
		Currency:           resp.Currency,
		ReferencedEntryIDs: resp.ReferencedEntryIDs,
		MessageID:          resp.MessageID,
		SessionID:          resp.SessionID,
		Strategy:           string(resp.Strategy),
		LatencyMs:          time.Since(start).Milliseconds(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(respDTO); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeConverseError maps pipeline failures onto HTTP statuses. Validation
// problems are the caller's fault; gateway failures surface as a bad
// gateway with a user-safe message.
func (h *ConverseHandler) writeConverseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, assistant.ErrMissingQuery),
		errors.Is(err, assistant.ErrImageTooLarge),
		errors.Is(err, assistant.ErrUnsupportedImage):
		h.writeError(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, gateway.ErrAuth),
		errors.Is(err, gateway.ErrQuota),
		errors.Is(err, gateway.ErrSafetyBlocked),
		errors.Is(err, gateway.ErrTimeout),
		errors.Is(err, gateway.ErrNetwork),
		errors.Is(err, gateway.ErrEmptyResponse):
		h.logger.Error().Err(err).Msg("Gateway failure")
		h.writeError(w, http.StatusBadGateway, gateway.UserMessage(err), "")
	default:
		h.logger.Error().Err(err).Msg("Converse failed")
		h.writeError(w, http.StatusInternalServerError, "internal error", "")
	}
}

func (h *ConverseHandler) writeError(w http.ResponseWriter, status int, msg, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorDTO{Error: msg, Details: details}); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode error response")
	}
}
