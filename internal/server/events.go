package server

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/mangrove-labs/sortd/internal/capture"
)

// handleEvents is the inbound webhook endpoint. The handshake challenge is
// answered before signature verification by protocol convention; every
// other request must carry a valid signature.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid body"})
		return
	}

	var envelope capture.Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
		return
	}

	if envelope.Type == "url_verification" {
		writeJSON(w, http.StatusOK, map[string]string{"challenge": envelope.Challenge})
		return
	}

	signature := r.Header.Get("x-signature")
	timestamp := r.Header.Get("x-request-timestamp")
	if !s.verifier.Verify(signature, timestamp, string(body)) {
		log.Print("server: signature verification failed")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid signature"})
		return
	}

	if envelope.Type != "event_callback" || envelope.Event == nil || envelope.Event.Type != "message" {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	msg := envelope.Event

	// Discards: bot echoes, edits and other subtypes, foreign channels,
	// empty captures, and redelivered events.
	switch {
	case msg.BotID != "",
		msg.Subtype != "",
		msg.Channel != s.cfg.Chat.InboxChannelID,
		strings.TrimSpace(msg.Text) == "":
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}
	if s.processor.AlreadySeen(msg.TS) {
		log.Printf("server: duplicate delivery for %s discarded", msg.TS)
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	if msg.IsThreadedReply() {
		if _, ok := capture.ParseFixCommand(msg.Text); !ok {
			// Threaded chatter, not a correction.
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
			return
		}
		if err := s.processor.HandleCorrection(r.Context(), msg); err != nil {
			log.Printf("server: correction failed: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Fix failed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	if err := s.processor.ProcessMessage(r.Context(), msg); err != nil {
		log.Printf("server: message processing failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Processing failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
