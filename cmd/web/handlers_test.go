package main

import (
	"net/http"
	"testing"

	"github.com/myrjola/blackwood/internal/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthy(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(http.MethodGet, "/api/healthy", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestListCases(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(http.MethodGet, "/api/cases", nil)
	require.Equal(t, http.StatusOK, status)
	listed := body["cases"].([]any)
	require.NotEmpty(t, listed)
	first := listed[0].(map[string]any)
	assert.Equal(t, "blackwood-mansion", first["id"])
	assert.Equal(t, "The Blackwood Mansion", first["title"])
}

func TestStartGameExposesOnlyPublicFacts(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(http.MethodPost, "/api/game/start", map[string]string{"case_id": "blackwood-mansion"})
	require.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, body["session_id"])
	assert.Equal(t, "interrogation", body["phase"])
	assert.EqualValues(t, 0, body["turns"])
	assert.EqualValues(t, 30, body["max_turns"])

	caseBody := body["case"].(map[string]any)
	assert.Equal(t, "blackwood-mansion", caseBody["id"])
	suspects := caseBody["suspects"].([]any)
	require.Len(t, suspects, 3)
	for _, raw := range suspects {
		suspect := raw.(map[string]any)
		assert.NotContains(t, suspect, "role", "roles must stay server-side")
		assert.NotContains(t, suspect, "secret")
	}
}

func TestStartGameUnknownCase(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(http.MethodPost, "/api/game/start", map[string]string{"case_id": "nonexistent"})
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "unknown case", body["error"])
}

func TestAskWithoutGame(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(http.MethodPost, "/api/game/ask",
		map[string]string{"suspect": "s1", "question": "Where were you?"})
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "no game in progress", body["error"])
}

func TestAskConsumesTurnAndReturnsReply(t *testing.T) {
	s := newTestServer(t, "I was in my room reading all evening.")

	status, _ := s.do(http.MethodPost, "/api/game/start", nil)
	require.Equal(t, http.StatusCreated, status)

	status, body := s.do(http.MethodPost, "/api/game/ask",
		map[string]string{"suspect": "s1", "question": "Where were you at 23:15?"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "s1", body["suspect_id"])
	assert.Equal(t, "Lydia Blackwood", body["suspect_name"])
	assert.Equal(t, "I was in my room reading all evening.", body["reply"])
	assert.Equal(t, false, body["evasive"])
	assert.EqualValues(t, 1, body["turn"])

	status, body = s.do(http.MethodGet, "/api/game", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["turns"])
	transcript := body["transcript"].([]any)
	require.Len(t, transcript, 2, "question and filtered reply, no audit entries")
	question := transcript[0].(map[string]any)
	assert.Equal(t, "detective", question["speaker"])
	assert.Equal(t, "Where were you at 23:15?", question["text"])
}

func TestAskUnknownSuspect(t *testing.T) {
	s := newTestServer(t, "unused")

	status, _ := s.do(http.MethodPost, "/api/game/start", nil)
	require.Equal(t, http.StatusCreated, status)

	status, body := s.do(http.MethodPost, "/api/game/ask",
		map[string]string{"suspect": "butler", "question": "Where were you?"})
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "unknown suspect", body["error"])
}

func TestAskValidation(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(http.MethodPost, "/api/game/start", nil)
	require.Equal(t, http.StatusCreated, status)

	status, _ = s.do(http.MethodPost, "/api/game/ask", map[string]string{"suspect": "s1"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(http.MethodPost, "/api/game/ask", map[string]string{"question": "hello?"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAskBackendUnavailable(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(http.MethodPost, "/api/game/start", nil)
	require.Equal(t, http.StatusCreated, status)

	s.completer.Err = ai.ErrBackendUnavailable
	status, body := s.do(http.MethodPost, "/api/game/ask",
		map[string]string{"suspect": "s1", "question": "Where were you?"})
	require.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "the suspect is unavailable, try again", body["error"])

	// A failed turn is free: the counter must not move.
	s.completer.Err = nil
	status, statusBody := s.do(http.MethodGet, "/api/game", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, statusBody["turns"])
}

func TestAccuseResolvesGame(t *testing.T) {
	s := newTestServer(t, "The truth came out at last in the library.")

	status, _ := s.do(http.MethodPost, "/api/game/start", nil)
	require.Equal(t, http.StatusCreated, status)

	status, body := s.do(http.MethodPost, "/api/game/accuse", map[string]string{
		"suspect": "s1",
		"weapon":  "brass candlestick",
		"motive":  "inheritance",
	})
	require.Equal(t, http.StatusOK, status)
	verdict := body["verdict"].(map[string]any)
	assert.Equal(t, true, verdict["suspect_correct"])
	assert.Equal(t, true, verdict["weapon_correct"])
	assert.Equal(t, true, verdict["motive_correct"])
	assert.EqualValues(t, 100, verdict["score"])
	assert.Equal(t, "The truth came out at last in the library.", verdict["narrative"])

	// The resolved game refuses further questioning and accusations.
	status, _ = s.do(http.MethodPost, "/api/game/ask",
		map[string]string{"suspect": "s1", "question": "Anything to add?"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = s.do(http.MethodPost, "/api/game/accuse", map[string]string{
		"suspect": "s2", "weapon": "rope", "motive": "revenge",
	})
	assert.Equal(t, http.StatusConflict, status)

	// The verdict stays visible in the status.
	status, body = s.do(http.MethodGet, "/api/game", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "resolved", body["phase"])
	require.Contains(t, body, "verdict")
}

func TestPartialAccusationScore(t *testing.T) {
	s := newTestServer(t, "A close call, detective.")

	status, _ := s.do(http.MethodPost, "/api/game/start", nil)
	require.Equal(t, http.StatusCreated, status)

	status, body := s.do(http.MethodPost, "/api/game/accuse", map[string]string{
		"suspect": "s1",
		"weapon":  "rope",
		"motive":  "inheritance",
	})
	require.Equal(t, http.StatusOK, status)
	verdict := body["verdict"].(map[string]any)
	assert.Equal(t, true, verdict["suspect_correct"])
	assert.Equal(t, false, verdict["weapon_correct"])
	assert.EqualValues(t, 70, verdict["score"])
}

func TestAbandonGame(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(http.MethodPost, "/api/game/start", nil)
	require.Equal(t, http.StatusCreated, status)

	status, _ = s.do(http.MethodDelete, "/api/game", nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(http.MethodGet, "/api/game", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestStartReplacesGameInProgress(t *testing.T) {
	s := newTestServer(t)

	status, first := s.do(http.MethodPost, "/api/game/start", nil)
	require.Equal(t, http.StatusCreated, status)

	status, second := s.do(http.MethodPost, "/api/game/start", nil)
	require.Equal(t, http.StatusCreated, status)
	assert.NotEqual(t, first["session_id"], second["session_id"])

	status, current := s.do(http.MethodGet, "/api/game", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, second["session_id"], current["session_id"])
}
