package websocket

import (
	"time"

	"github.com/peskyphilly/crucible-mvp/internal/detect"
)

// EventType represents the type of WebSocket event
type EventType string

const (
	// EventTypeDetection represents a filter-deference detection event
	EventTypeDetection EventType = "detection"
	// EventTypeAudit represents an audit log append event
	EventTypeAudit EventType = "audit"
	// EventTypeSystemStatus represents a system status event
	EventTypeSystemStatus EventType = "system_status"
	// EventTypeConnection represents connection events
	EventTypeConnection EventType = "connection"
)

// Event represents a WebSocket event sent to clients
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id,omitempty"`
}

// DetectionEvent carries the outcome of one rationale analysis
type DetectionEvent struct {
	RequestID      string                 `json:"request_id"`
	ScenarioID     string                 `json:"scenario_id"`
	AnalystID      string                 `json:"analyst_id,omitempty"`
	Flagged        bool                   `json:"flagged"`
	MatchCount     int                    `json:"match_count"`
	FlaggedModules []detect.DetectionType `json:"flagged_modules"`
	ProcessingMS   float64                `json:"processing_ms"`
}

// AuditEvent signals that an entry was appended to the audit trail
type AuditEvent struct {
	EventType  string `json:"event_type"`
	ScenarioID string `json:"scenario_id,omitempty"`
	Flagged    bool   `json:"flagged,omitempty"`
}

// SystemStatusEvent represents system status information
type SystemStatusEvent struct {
	Status           string `json:"status"`
	Uptime           string `json:"uptime"`
	TotalAnalyses    int64  `json:"total_analyses"`
	TotalFlagged     int64  `json:"total_flagged"`
	LoadedScenarios  int    `json:"loaded_scenarios"`
	ConnectedClients int    `json:"connected_clients"`
}

// ConnectionEvent represents WebSocket connection events
type ConnectionEvent struct {
	Action   string `json:"action"` // "connected", "disconnected"
	ClientID string `json:"client_id"`
	ClientIP string `json:"client_ip"`
	Message  string `json:"message,omitempty"`
}

// ClientMessage represents messages sent from clients to server
type ClientMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// SubscriptionRequest represents a client subscription request
type SubscriptionRequest struct {
	Events []EventType `json:"events"`
}
