package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mangrove-labs/sortd/internal/capture"
	"github.com/mangrove-labs/sortd/internal/config"
)

// stubVerifier accepts a single known signature.
type stubVerifier struct{ accept bool }

func (v stubVerifier) Verify(signature, timestamp, body string) bool { return v.accept }

// stubProcessor records calls and simulates the dedup window.
type stubProcessor struct {
	seen       map[string]bool
	processed  []*capture.MessageEvent
	corrected  []*capture.MessageEvent
	processErr error
	correctErr error
}

func newStubProcessor() *stubProcessor {
	return &stubProcessor{seen: map[string]bool{}}
}

func (p *stubProcessor) AlreadySeen(correlationID string) bool {
	if p.seen[correlationID] {
		return true
	}
	p.seen[correlationID] = true
	return false
}

func (p *stubProcessor) ProcessMessage(ctx context.Context, msg *capture.MessageEvent) error {
	p.processed = append(p.processed, msg)
	return p.processErr
}

func (p *stubProcessor) HandleCorrection(ctx context.Context, msg *capture.MessageEvent) error {
	p.corrected = append(p.corrected, msg)
	return p.correctErr
}

// stubDigests returns canned results.
type stubDigests struct {
	dailyEmpty bool
	dailyErr   error
	weeklyErr  error
}

func (d stubDigests) RunDaily(ctx context.Context) (bool, error) { return d.dailyEmpty, d.dailyErr }
func (d stubDigests) RunWeekly(ctx context.Context) error        { return d.weeklyErr }

type stubLLM struct{ state string }

func (s stubLLM) CircuitState() string { return s.state }

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Chat.InboxChannelID = "C123"
	cfg.Security.CronSecret = "cron-secret"
	return cfg
}

func newTestServer(verifier Verifier, processor Processor, digests DigestRunner) *Server {
	return New(testConfig(), verifier, processor, digests, stubLLM{state: "closed"})
}

func postEvent(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	req.Header.Set("x-signature", "v0=whatever")
	req.Header.Set("x-request-timestamp", "1726000000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func messageEnvelope(text, ts, threadTS string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"type": "event_callback",
		"event": map[string]string{
			"type":      "message",
			"channel":   "C123",
			"text":      text,
			"ts":        ts,
			"thread_ts": threadTS,
			"user":      "U777",
		},
	})
	return string(body)
}

func TestEvents_HandshakeBeforeSignature(t *testing.T) {
	// The handshake must succeed even when the verifier rejects everything.
	s := newTestServer(stubVerifier{accept: false}, newStubProcessor(), stubDigests{})
	rec := postEvent(t, s.Handler(), `{"type":"url_verification","challenge":"abc123"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "abc123", resp["challenge"])
}

func TestEvents_BadJSON(t *testing.T) {
	s := newTestServer(stubVerifier{accept: true}, newStubProcessor(), stubDigests{})
	rec := postEvent(t, s.Handler(), `{"type":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvents_BadSignature(t *testing.T) {
	p := newStubProcessor()
	s := newTestServer(stubVerifier{accept: false}, p, stubDigests{})
	rec := postEvent(t, s.Handler(), messageEnvelope("capture me", "1.1", ""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, p.processed)
}

func TestEvents_ProcessesNewMessage(t *testing.T) {
	p := newStubProcessor()
	s := newTestServer(stubVerifier{accept: true}, p, stubDigests{})
	rec := postEvent(t, s.Handler(), messageEnvelope("capture me", "1.1", ""))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, p.processed, 1)
	assert.Equal(t, "capture me", p.processed[0].Text)
}

func TestEvents_DuplicateDeliveryProcessedOnce(t *testing.T) {
	p := newStubProcessor()
	s := newTestServer(stubVerifier{accept: true}, p, stubDigests{})
	handler := s.Handler()

	first := postEvent(t, handler, messageEnvelope("capture me", "1.1", ""))
	second := postEvent(t, handler, messageEnvelope("capture me", "1.1", ""))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code, "a redelivery is acknowledged, not errored")
	assert.Len(t, p.processed, 1)
}

func TestEvents_Discards(t *testing.T) {
	tests := []struct {
		name  string
		event map[string]string
	}{
		{"bot echo", map[string]string{"type": "message", "channel": "C123", "text": "x", "ts": "1.2", "bot_id": "B1"}},
		{"edit subtype", map[string]string{"type": "message", "channel": "C123", "text": "x", "ts": "1.3", "subtype": "message_changed"}},
		{"foreign channel", map[string]string{"type": "message", "channel": "C999", "text": "x", "ts": "1.4"}},
		{"empty text", map[string]string{"type": "message", "channel": "C123", "text": "   ", "ts": "1.5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newStubProcessor()
			s := newTestServer(stubVerifier{accept: true}, p, stubDigests{})
			body, _ := json.Marshal(map[string]interface{}{"type": "event_callback", "event": tt.event})
			rec := postEvent(t, s.Handler(), string(body))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Empty(t, p.processed)
			assert.Empty(t, p.corrected)
		})
	}
}

func TestEvents_ThreadedFixRoutesToCorrection(t *testing.T) {
	p := newStubProcessor()
	s := newTestServer(stubVerifier{accept: true}, p, stubDigests{})
	rec := postEvent(t, s.Handler(), messageEnvelope("fix: people", "2.2", "1.1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, p.processed)
	require.Len(t, p.corrected, 1)
	assert.Equal(t, "1.1", p.corrected[0].ThreadTS)
}

func TestEvents_ThreadedChatterDiscarded(t *testing.T) {
	p := newStubProcessor()
	s := newTestServer(stubVerifier{accept: true}, p, stubDigests{})
	rec := postEvent(t, s.Handler(), messageEnvelope("thanks!", "2.3", "1.1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, p.processed)
	assert.Empty(t, p.corrected)
}

func TestEvents_ProcessingFailureIs500(t *testing.T) {
	p := newStubProcessor()
	p.processErr = errors.New("boom")
	s := newTestServer(stubVerifier{accept: true}, p, stubDigests{})
	rec := postEvent(t, s.Handler(), messageEnvelope("capture me", "3.1", ""))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Processing failed")
}

func getCron(t *testing.T, handler http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCron_RequiresBearer(t *testing.T) {
	s := newTestServer(stubVerifier{accept: true}, newStubProcessor(), stubDigests{})
	handler := s.Handler()

	assert.Equal(t, http.StatusUnauthorized, getCron(t, handler, "/cron/daily-digest", "").Code)
	assert.Equal(t, http.StatusUnauthorized, getCron(t, handler, "/cron/daily-digest", "wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, getCron(t, handler, "/cron/weekly-review", "wrong").Code)
	assert.Equal(t, http.StatusOK, getCron(t, handler, "/cron/daily-digest", "cron-secret").Code)
}

func TestCron_EmptySecretAlwaysRejects(t *testing.T) {
	cfg := testConfig()
	cfg.Security.CronSecret = ""
	s := New(cfg, stubVerifier{accept: true}, newStubProcessor(), stubDigests{}, nil)

	rec := getCron(t, s.Handler(), "/cron/daily-digest", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCron_DailyResponses(t *testing.T) {
	handler := newTestServer(stubVerifier{accept: true}, newStubProcessor(), stubDigests{}).Handler()
	rec := getCron(t, handler, "/cron/daily-digest", "cron-secret")
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	handler = newTestServer(stubVerifier{accept: true}, newStubProcessor(), stubDigests{dailyEmpty: true}).Handler()
	rec = getCron(t, handler, "/cron/daily-digest", "cron-secret")
	assert.JSONEq(t, `{"ok":true,"empty":true}`, rec.Body.String())

	handler = newTestServer(stubVerifier{accept: true}, newStubProcessor(), stubDigests{dailyErr: errors.New("llm down")}).Handler()
	rec = getCron(t, handler, "/cron/daily-digest", "cron-secret")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "llm down")
}

func TestCron_WeeklyFailureIs500(t *testing.T) {
	handler := newTestServer(stubVerifier{accept: true}, newStubProcessor(), stubDigests{weeklyErr: errors.New("scan failed")}).Handler()
	rec := getCron(t, handler, "/cron/weekly-review", "cron-secret")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "scan failed")
}

func TestHealth_ReportsCircuitState(t *testing.T) {
	s := New(testConfig(), stubVerifier{accept: true}, newStubProcessor(), stubDigests{}, stubLLM{state: "half-open"})
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "half-open", resp["llm_circuit"])
}
