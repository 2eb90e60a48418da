package persona

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/persona-chat/backend/internal/model/persona"
)

func setupRouter() *chi.Mux {
	r := chi.NewRouter()
	New(persona.NewMemoryStore(persona.Seed())).RegisterRoutes(r)
	return r
}

func TestListPersonas(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/personas", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var got []persona.Persona
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 2)
	assert.Equal(t, "career-advisor", got[0].ID)
	assert.Equal(t, "You can share what's on your mind...", got[1].Placeholder)
}

func TestGetPersona(t *testing.T) {
	r := setupRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/personas/mental-health", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var got persona.Persona
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 500, got.Config.MaxOutputTokens)

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/personas/nobody", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
