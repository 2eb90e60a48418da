package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	chatService "github.com/zhouzirui/persona-chat/backend/internal/service/chat"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
)

// Handler WebSocket聊天处理器. Every frame that changes the conversation is
// answered with the full transcript, so clients only ever render snapshots.
type Handler struct {
	chatSvc  *chatService.Service
	upgrader websocket.Upgrader
}

// New 创建WebSocket处理器
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{conversationID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// TextMessage 文本消息
type TextMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type           string      `json:"type"`
	ConversationID string      `json:"conversationId,omitempty"`
	Data           interface{} `json:"data,omitempty"`
	Timestamp      int64       `json:"timestamp"`
}

// TurnResult reports how the last submitted turn ended.
type TurnResult struct {
	Failed bool   `json:"failed"`
	Error  string `json:"error,omitempty"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")
	view, err := h.chatSvc.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "conversation not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("component", "websocket").Msg("upgrade failed")
		return
	}
	defer conn.Close()

	logger := log.With().Str("component", "websocket").Str("conversation", id).Logger()
	logger.Debug().Msg("connection opened")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go h.pingLoop(ctx, conn)

	h.send(conn, id, "transcript", view)

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Msg("read error")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		h.handleMessage(ctx, conn, id, &msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, conn *websocket.Conn, id string, msg *inboundMessage) {
	switch msg.Type {
	case "text":
		var text TextMessage
		if err := json.Unmarshal(msg.Data, &text); err != nil {
			h.sendError(conn, "invalid text payload")
			return
		}
		if strings.TrimSpace(text.Text) == "" {
			return
		}
		h.handleText(ctx, conn, id, text.Text)
	case "reset":
		view, err := h.chatSvc.Reset(ctx, id)
		if err != nil {
			h.sendError(conn, err.Error())
			if view.ID == "" {
				return
			}
		}
		h.send(conn, id, "transcript", view)
	case "sync":
		view, err := h.chatSvc.Get(ctx, id)
		if err != nil {
			h.sendError(conn, err.Error())
			return
		}
		h.send(conn, id, "transcript", view)
	default:
		h.sendError(conn, "unsupported message type: "+msg.Type)
	}
}

func (h *Handler) handleText(ctx context.Context, conn *websocket.Conn, id, text string) {
	out, view, err := h.chatSvc.Submit(ctx, id, text)
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}

	result := TurnResult{Failed: out.Failed()}
	if out.Failed() {
		result.Error = out.Failure.Error()
	}
	h.send(conn, id, "turn", result)
	h.send(conn, id, "transcript", view)
}

func (h *Handler) send(conn *websocket.Conn, id, typ string, data interface{}) {
	msg := outgoingMessage{
		Type:           typ,
		ConversationID: id,
		Data:           data,
		Timestamp:      time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Warn().Err(err).Str("component", "websocket").Msg("write failed")
	}
}

func (h *Handler) sendError(conn *websocket.Conn, message string) {
	h.send(conn, "", "error", map[string]string{"message": message})
}

// pingLoop 定期发送ping消息
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
