// Package simhooks adapts the teacher's RTMP event-hook system (connection
// accept/close, publish/play start/stop) to this simulator's observation
// events: cache hits/misses, playback start, video stop, and run
// completion.
package simhooks

import (
	"fmt"
	"strings"
	"time"
)

// EventType identifies the kind of simulation event that occurred.
type EventType string

const (
	// EventCacheHit fires when the proxy serves a request from cache.
	EventCacheHit EventType = "cache_hit"
	// EventCacheMiss fires when a response from origin is admitted into
	// the cache (spec §4.5's admission path, not every miss generally —
	// see DESIGN.md).
	EventCacheMiss EventType = "cache_miss"
	// EventPlaybackStart fires when a client's requested video starts
	// playing (spec §4.6).
	EventPlaybackStart EventType = "playback_start"
	// EventVideoStop fires when a client's player loop detects the
	// buffer ran dry.
	EventVideoStop EventType = "video_stop"
	// EventRunComplete fires once when the orchestrator's active-download
	// counter reaches zero and the run quiesces.
	EventRunComplete EventType = "run_complete"
)

// Event represents a single simulation event that can trigger hooks.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp int64                  `json:"timestamp"`
	ClientID  string                 `json:"client_id,omitempty"`
	VideoID   string                 `json:"video_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewEvent creates a new event with the current timestamp.
func NewEvent(eventType EventType) *Event {
	return &Event{
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		Data:      make(map[string]interface{}),
	}
}

// WithClientID sets the originating client id for the event.
func (e *Event) WithClientID(clientID string) *Event {
	e.ClientID = clientID
	return e
}

// WithVideoID sets the video id for the event.
func (e *Event) WithVideoID(videoID string) *Event {
	e.VideoID = videoID
	return e
}

// WithData adds a data field to the event.
func (e *Event) WithData(key string, value interface{}) *Event {
	if e.Data == nil {
		e.Data = make(map[string]interface{})
	}
	e.Data[key] = value
	return e
}

// String returns a human-readable representation of the event.
func (e *Event) String() string {
	if e.VideoID != "" {
		return string(e.Type) + ":" + e.VideoID
	}
	if e.ClientID != "" {
		return string(e.Type) + ":" + e.ClientID
	}
	return string(e.Type)
}

// envPairs renders the event as SIM_-prefixed KEY=VALUE pairs, shared by
// ShellHook (environment variables) and StdioHook's "env" output format so
// the two don't carry independent copies of the same field mapping.
func (e *Event) envPairs() []string {
	pairs := []string{
		fmt.Sprintf("SIM_EVENT_TYPE=%s", e.Type),
		fmt.Sprintf("SIM_TIMESTAMP=%d", e.Timestamp),
	}
	if e.ClientID != "" {
		pairs = append(pairs, "SIM_CLIENT_ID="+e.ClientID)
	}
	if e.VideoID != "" {
		pairs = append(pairs, "SIM_VIDEO_ID="+e.VideoID)
	}
	for key, value := range e.Data {
		pairs = append(pairs, fmt.Sprintf("SIM_%s=%v", strings.ToUpper(key), value))
	}
	return pairs
}
