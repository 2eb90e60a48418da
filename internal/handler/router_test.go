package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zhouzirui/persona-chat/backend/internal/model/persona"
	"github.com/zhouzirui/persona-chat/backend/internal/service/backend/backendtest"
	chatService "github.com/zhouzirui/persona-chat/backend/internal/service/chat"
)

func TestRouterMountsRoutes(t *testing.T) {
	svc := chatService.NewService(backendtest.New(), persona.NewMemoryStore(persona.Seed()))
	r := NewRouter(svc)

	cases := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/api/personas", "", http.StatusOK},
		{http.MethodPost, "/api/conversations", `{"personaId":"career-advisor"}`, http.StatusCreated},
		{http.MethodGet, "/api/conversations/missing", "", http.StatusNotFound},
		{http.MethodOptions, "/api/personas", "", http.StatusNoContent},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, bytes.NewBufferString(tc.body))
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		assert.Equal(t, tc.status, resp.Code, "%s %s", tc.method, tc.path)
	}
}
