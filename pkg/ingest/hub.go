// Package ingest accepts websocket connections from orientation devices and
// routes their samples to the pointing sessions they belong to.
package ingest

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/teslashibe/go-pointer/internal/log"
	"github.com/teslashibe/go-pointer/pkg/protocol"
)

// ErrDeviceNotConnected is returned when sending to an unknown device
var ErrDeviceNotConnected = errors.New("device not connected")

// writeWait bounds every write to a device
var writeWait = 5 * time.Second

// DeviceConnection represents a connected orientation device
type DeviceConnection struct {
	ID        string
	Conn      *websocket.Conn
	Connected time.Time
	LastSeen  time.Time

	mu sync.Mutex

	// Set when the handler returns; Conn belongs to the server after that
	closed bool
}

// Send sends a message to the device. It fails with ErrDeviceNotConnected
// once the device has disconnected.
func (d *DeviceConnection) Send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceNotConnected
	}
	d.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return d.Conn.WriteMessage(websocket.TextMessage, data)
}

// close shuts the connection unless the handler has already released it.
func (d *DeviceConnection) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.Conn.Close()
	}
}

func (d *DeviceConnection) release() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}

func (d *DeviceConnection) touch() {
	d.mu.Lock()
	d.LastSeen = time.Now()
	d.mu.Unlock()
}

// TransformHandler receives an imu or world sample for a device.
type TransformHandler func(deviceID string, data *protocol.TransformData) error

// HandednessHandler receives a handedness change for a device.
type HandednessHandler func(deviceID string, data *protocol.HandednessData) error

// Hub manages WebSocket connections from devices
type Hub struct {
	mu      sync.RWMutex
	devices map[string]*DeviceConnection

	onIMU        TransformHandler
	onWorld      TransformHandler
	onHandedness HandednessHandler

	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
	samplesApplied   atomic.Uint64
	samplesRejected  atomic.Uint64
}

// NewHub creates a new device hub
func NewHub() *Hub {
	return &Hub{
		devices: make(map[string]*DeviceConnection),
	}
}

// OnIMU sets the callback for incoming IMU samples
func (h *Hub) OnIMU(callback TransformHandler) {
	h.mu.Lock()
	h.onIMU = callback
	h.mu.Unlock()
}

// OnWorld sets the callback for incoming world transforms
func (h *Hub) OnWorld(callback TransformHandler) {
	h.mu.Lock()
	h.onWorld = callback
	h.mu.Unlock()
}

// OnHandedness sets the callback for handedness changes
func (h *Hub) OnHandedness(callback HandednessHandler) {
	h.mu.Lock()
	h.onHandedness = callback
	h.mu.Unlock()
}

// RegisterRoutes registers the device WebSocket endpoint on a Fiber app
func (h *Hub) RegisterRoutes(app *fiber.App) {
	app.Use("/ws/device", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/device/:id", websocket.New(h.handleDevice))
}

func (h *Hub) handleDevice(c *websocket.Conn) {
	deviceID := c.Params("id")

	device := &DeviceConnection{
		ID:        deviceID,
		Conn:      c,
		Connected: time.Now(),
		LastSeen:  time.Now(),
	}

	h.mu.Lock()
	if old, ok := h.devices[deviceID]; ok {
		old.close()
	}
	h.devices[deviceID] = device
	count := len(h.devices)
	h.mu.Unlock()

	log.Info("device connected", "device", deviceID, "devices", count)

	defer func() {
		device.release()

		h.mu.Lock()
		if h.devices[deviceID] == device {
			delete(h.devices, deviceID)
		}
		count := len(h.devices)
		h.mu.Unlock()

		log.Info("device disconnected", "device", deviceID, "devices", count)
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			log.Debug("device read ended", "device", deviceID, "error", err)
			return
		}

		device.touch()
		h.messagesReceived.Add(1)
		h.handleMessage(device, data)
	}
}

func (h *Hub) handleMessage(device *DeviceConnection, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		h.reject(device, err)
		return
	}

	h.mu.RLock()
	imuCb := h.onIMU
	worldCb := h.onWorld
	handCb := h.onHandedness
	h.mu.RUnlock()

	switch msg.Type {
	case protocol.TypeIMU, protocol.TypeWorld:
		cb := imuCb
		if msg.Type == protocol.TypeWorld {
			cb = worldCb
		}
		if cb == nil {
			return
		}
		t, err := msg.GetTransformData()
		if err == nil {
			err = cb(device.ID, t)
		}
		h.settle(device, err)

	case protocol.TypeHandedness:
		if handCb == nil {
			return
		}
		hd, err := msg.GetHandednessData()
		if err == nil {
			err = handCb(device.ID, hd)
		}
		h.settle(device, err)

	case protocol.TypePing:
		ping, err := msg.GetPingData()
		if err != nil {
			h.reject(device, err)
			return
		}
		h.SendPong(device.ID, ping.ID, msg.Timestamp)

	default:
		log.Debug("ignoring device message", "device", device.ID, "type", msg.Type)
	}
}

func (h *Hub) settle(device *DeviceConnection, err error) {
	if err != nil {
		h.reject(device, err)
		return
	}
	h.samplesApplied.Add(1)
}

func (h *Hub) reject(device *DeviceConnection, err error) {
	h.samplesRejected.Add(1)
	log.Warn("rejected device message", "device", device.ID, "error", err)

	msg, merr := protocol.NewErrorMessage(err)
	if merr != nil {
		return
	}
	h.messagesSent.Add(1)
	device.Send(msg)
}

// SendPong sends a pong response to a device
func (h *Hub) SendPong(deviceID, pingID string, pingTS int64) error {
	msg, err := protocol.NewPongMessage(pingID, pingTS, time.Now().UnixMilli())
	if err != nil {
		return err
	}
	return h.Send(deviceID, msg)
}

// Send sends a message to a specific device
func (h *Hub) Send(deviceID string, msg *protocol.Message) error {
	h.mu.RLock()
	device, ok := h.devices[deviceID]
	h.mu.RUnlock()

	if !ok {
		return ErrDeviceNotConnected
	}

	h.messagesSent.Add(1)
	return device.Send(msg)
}

// GetDevice returns a device connection by ID
func (h *Hub) GetDevice(deviceID string) *DeviceConnection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.devices[deviceID]
}

// DeviceCount returns the number of connected devices
func (h *Hub) DeviceCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.devices)
}

// Stats contains hub statistics
type Stats struct {
	DeviceCount      int    `json:"device_count"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
	SamplesApplied   uint64 `json:"samples_applied"`
	SamplesRejected  uint64 `json:"samples_rejected"`
}

// GetStats returns hub statistics
func (h *Hub) GetStats() Stats {
	return Stats{
		DeviceCount:      h.DeviceCount(),
		MessagesReceived: h.messagesReceived.Load(),
		MessagesSent:     h.messagesSent.Load(),
		SamplesApplied:   h.samplesApplied.Load(),
		SamplesRejected:  h.samplesRejected.Load(),
	}
}

// DeviceInfo contains info about a connected device
type DeviceInfo struct {
	ID        string    `json:"id"`
	Connected time.Time `json:"connected"`
	LastSeen  time.Time `json:"last_seen"`
}

// GetDeviceInfos returns info about all connected devices
func (h *Hub) GetDeviceInfos() []DeviceInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	infos := make([]DeviceInfo, 0, len(h.devices))
	for _, d := range h.devices {
		d.mu.Lock()
		infos = append(infos, DeviceInfo{
			ID:        d.ID,
			Connected: d.Connected,
			LastSeen:  d.LastSeen,
		})
		d.mu.Unlock()
	}
	return infos
}

// RegisterAPIRoutes registers API routes for device inspection
func (h *Hub) RegisterAPIRoutes(api fiber.Router) {
	devices := api.Group("/devices")

	devices.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"devices": h.GetDeviceInfos(),
			"count":   h.DeviceCount(),
		})
	})

	devices.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(h.GetStats())
	})
}
