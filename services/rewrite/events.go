// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rewrite

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event types sent on the event stream.
const (
	// EventSubscribed is the hello message a new subscriber receives.
	EventSubscribed = "subscribed"

	// EventFileRewritten reports one file finishing the pipeline.
	EventFileRewritten = "file_rewritten"

	// EventFileFailed reports one file failing the pipeline or its
	// write-back.
	EventFileFailed = "file_failed"

	// EventRunComplete reports a batch run finishing.
	EventRunComplete = "run_complete"
)

// Event is one message on the event stream.
type Event struct {
	// Type is one of the Event* constants.
	Type string `json:"type"`

	// SessionID identifies the subscriber. Only set on subscribed.
	SessionID string `json:"session_id,omitempty"`

	// RunID identifies the batch run, when the event belongs to one.
	RunID string `json:"run_id,omitempty"`

	// Path is the file the event concerns.
	Path string `json:"path,omitempty"`

	// Changed reports whether output differs from input. On
	// run_complete it reports whether any file changed.
	Changed bool `json:"changed,omitempty"`

	// Applied is the number of rule decisions replayed on the file.
	Applied int `json:"applied,omitempty"`

	// CacheHit reports whether the result came from the rewrite cache.
	CacheHit bool `json:"cache_hit,omitempty"`

	// Error carries the failure message on file_failed.
	Error string `json:"error,omitempty"`

	// Timestamp is when the event was emitted.
	Timestamp time.Time `json:"timestamp"`
}

// EventHub fans rewrite events out to websocket subscribers.
//
// Thread Safety:
//
//	EventHub is safe for concurrent use. Writes to a connection are
//	serialized through the hub lock, which is what gorilla/websocket
//	requires.
type EventHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
	log   *slog.Logger
}

// NewEventHub creates an empty hub.
func NewEventHub(log *slog.Logger) *EventHub {
	if log == nil {
		log = slog.Default()
	}
	return &EventHub{
		conns: make(map[*websocket.Conn]bool),
		log:   log,
	}
}

// Add registers a subscriber connection.
func (h *EventHub) Add(ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[ws] = true
}

// Remove drops a subscriber connection without closing it.
func (h *EventHub) Remove(ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, ws)
}

// Subscribers returns the number of connected subscribers.
func (h *EventHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Broadcast sends an event to every subscriber. Connections that fail
// to take the write are closed and dropped.
func (h *EventHub) Broadcast(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ws := range h.conns {
		if err := ws.WriteJSON(ev); err != nil {
			h.log.Warn("dropping event subscriber",
				"type", ev.Type,
				"error", err)
			ws.Close()
			delete(h.conns, ws)
		}
	}
}

// CloseAll closes every subscriber connection and empties the hub.
func (h *EventHub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ws := range h.conns {
		ws.Close()
		delete(h.conns, ws)
	}
}
