package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func anthropicTestServer(t *testing.T, status int, body map[string]interface{}) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.NotEmpty(t, r.Header.Get("anthropic-version"))

		var request anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		require.NotEmpty(t, request.Messages)

		w.WriteHeader(status)
		require.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestAnthropicPlannerRequiresAPIKey(t *testing.T) {
	_, err := NewAnthropicPlanner(AnthropicConfig{})
	require.Error(t, err)
}

func TestAnthropicPlannerParsesPlan(t *testing.T) {
	planJSON := `{"title":"Calculus in 2 Weeks","tasks":[` +
		`{"title":"Limits refresher","category":"prerequisite"},` +
		`{"title":"Week 1","category":"WEEK","week_number":1}]}`

	server := anthropicTestServer(t, http.StatusOK, map[string]interface{}{
		"content":     []map[string]string{{"type": "text", "text": planJSON}},
		"stop_reason": "end_turn",
	})

	planner, err := NewAnthropicPlanner(AnthropicConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	plan, err := planner.GeneratePlan(context.Background(), PlanInput{Goal: "learn calculus"})
	require.NoError(t, err)
	require.Equal(t, "Calculus in 2 Weeks", plan.Title)
	require.Len(t, plan.Tasks, 2)
	// Categories are normalised to upper case regardless of provider casing.
	require.Equal(t, "PREREQUISITE", plan.Tasks[0].Category)
	require.Equal(t, "end_turn", plan.Raw["stop_reason"])
}

func TestAnthropicPlannerSurfacesAPIError(t *testing.T) {
	server := anthropicTestServer(t, http.StatusTooManyRequests, map[string]interface{}{
		"error": map[string]string{"type": "rate_limit_error", "message": "rate limited"},
	})

	planner, err := NewAnthropicPlanner(AnthropicConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = planner.GeneratePlan(context.Background(), PlanInput{Goal: "learn calculus"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "rate limited")
}
