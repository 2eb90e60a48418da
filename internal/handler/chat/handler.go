package chat

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	chatModel "github.com/zhouzirui/persona-chat/backend/internal/model/chat"
	"github.com/zhouzirui/persona-chat/backend/internal/service/backend"
	chatService "github.com/zhouzirui/persona-chat/backend/internal/service/chat"
	"github.com/zhouzirui/persona-chat/backend/internal/service/conversation"
	"github.com/zhouzirui/persona-chat/backend/pkg/utils"
)

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/conversations", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Route("/{conversationID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Delete("/", h.handleDelete)
			r.Post("/messages", h.handleSubmit)
			r.Post("/reset", h.handleReset)
		})
	})
}

// TurnResponse is the body returned for a submitted message.
type TurnResponse struct {
	Reply        chatModel.Turn   `json:"reply"`
	Failed       bool             `json:"failed"`
	Error        string           `json:"error,omitempty"`
	Conversation chatService.View `json:"conversation"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PersonaID string `json:"personaId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.chatSvc.CreateConversation(r.Context(), payload.PersonaID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, view)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.chatSvc.Get(r.Context(), chi.URLParam(r, "conversationID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, view)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.Delete(r.Context(), chi.URLParam(r, "conversationID")); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	out, view, err := h.chatSvc.Submit(r.Context(), chi.URLParam(r, "conversationID"), payload.Text)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := TurnResponse{Reply: out.Reply, Failed: out.Failed(), Conversation: view}
	if out.Failed() {
		resp.Error = out.Failure.Error()
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	view, err := h.chatSvc.Reset(r.Context(), chi.URLParam(r, "conversationID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, view)
}

// StatusFor maps service errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, chatService.ErrPersonaRequired), errors.Is(err, chatService.ErrPersonaNotFound):
		return http.StatusBadRequest
	case errors.Is(err, chatService.ErrConversationNotFound):
		return http.StatusNotFound
	case errors.Is(err, conversation.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, backend.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondServiceError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("component", "http").Int("status", status).Msg("request failed")
	}
	utils.RespondError(w, status, err.Error())
}
