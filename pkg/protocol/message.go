// Package protocol defines the WebSocket message types exchanged between
// orientation sources, the pointing service and pose subscribers.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Device → Service messages
	TypeIMU        MessageType = "imu"        // IMU orientation sample
	TypeWorld      MessageType = "world"      // Footprint pose in the world
	TypeHandedness MessageType = "handedness" // Pointing arm change

	// Service → Subscriber messages
	TypePose  MessageType = "pose"  // Recomputed pointing outputs
	TypeError MessageType = "error" // Rejected input

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Device → Service Message Types
// =============================================================================

// TransformData is a rigid transform on the wire. Position is in meters and
// angles in radians (ZYX roll/pitch/yaw). When the quaternion fields are
// present they take precedence over the Euler angles.
type TransformData struct {
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Z     float64  `json:"z"`
	Roll  float64  `json:"roll"`
	Pitch float64  `json:"pitch"`
	Yaw   float64  `json:"yaw"`
	QW    *float64 `json:"qw,omitempty"`
	QX    *float64 `json:"qx,omitempty"`
	QY    *float64 `json:"qy,omitempty"`
	QZ    *float64 `json:"qz,omitempty"`
}

// HandednessData selects the pointing arm: "ignore", "left" or "right".
type HandednessData struct {
	Handedness string `json:"handedness"`
}

// =============================================================================
// Service → Subscriber Message Types
// =============================================================================

// PoseData carries every output of a pointing model. Pointer is null when
// the ray misses the surface.
type PoseData struct {
	Session string         `json:"session,omitempty"`
	Ray     TransformData  `json:"ray"`
	Finger  TransformData  `json:"finger"`
	Eyes    TransformData  `json:"eyes"`
	Pointer *TransformData `json:"pointer"`
}

// ErrorData reports why an incoming message was rejected.
type ErrorData struct {
	Error string `json:"error"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
