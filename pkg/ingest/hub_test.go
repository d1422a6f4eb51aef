package ingest

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/teslashibe/go-pointer/pkg/protocol"
	"github.com/teslashibe/go-pointer/pkg/spatial"
)

func startServer(t *testing.T, hub *Hub, port string) {
	t.Helper()
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	hub.RegisterRoutes(app)
	hub.RegisterAPIRoutes(app.Group("/api"))

	go app.Listen(":" + port)
	t.Cleanup(func() { app.Shutdown() })
	time.Sleep(100 * time.Millisecond)
}

func dial(t *testing.T, port, id string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial("ws://localhost:"+port+"/ws/device/"+id, nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, msg *protocol.Message) {
	t.Helper()
	data, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes error: %v", err)
	}
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("Write error: %v", err)
	}
}

func read(t *testing.T, ws *websocket.Conn) *protocol.Message {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return msg
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub.DeviceCount() != 0 {
		t.Error("DeviceCount should be 0 initially")
	}
	if hub.GetDevice("nonexistent") != nil {
		t.Error("GetDevice should return nil for nonexistent device")
	}
	if len(hub.GetDeviceInfos()) != 0 {
		t.Error("GetDeviceInfos should return empty slice initially")
	}
}

func TestSendToNonexistentDevice(t *testing.T) {
	hub := NewHub()

	msg, _ := protocol.NewPingMessage("x")
	if err := hub.Send("nonexistent", msg); !errors.Is(err, ErrDeviceNotConnected) {
		t.Errorf("Send error = %v, want ErrDeviceNotConnected", err)
	}
}

func TestWebSocketConnection(t *testing.T) {
	hub := NewHub()
	startServer(t, hub, "18100")

	ws := dial(t, "18100", "glove-1")
	time.Sleep(50 * time.Millisecond)

	if hub.DeviceCount() != 1 {
		t.Errorf("DeviceCount = %d, want 1", hub.DeviceCount())
	}
	if hub.GetDevice("glove-1") == nil {
		t.Error("GetDevice should return the connected device")
	}

	ws.Close()
	time.Sleep(100 * time.Millisecond)

	if hub.DeviceCount() != 0 {
		t.Errorf("DeviceCount = %d, want 0 after disconnect", hub.DeviceCount())
	}
}

func TestSendAfterDisconnect(t *testing.T) {
	hub := NewHub()
	startServer(t, hub, "18105")

	ws := dial(t, "18105", "gone")
	time.Sleep(50 * time.Millisecond)

	device := hub.GetDevice("gone")
	if device == nil {
		t.Fatal("GetDevice should return the connected device")
	}

	ws.Close()
	time.Sleep(100 * time.Millisecond)

	msg, _ := protocol.NewPingMessage("late")
	if err := device.Send(msg); !errors.Is(err, ErrDeviceNotConnected) {
		t.Errorf("Send after disconnect = %v, want ErrDeviceNotConnected", err)
	}
}

func TestSendToStalledDeviceTimesOut(t *testing.T) {
	old := writeWait
	writeWait = 200 * time.Millisecond
	defer func() { writeWait = old }()

	hub := NewHub()
	startServer(t, hub, "18106")

	// The client never reads, so socket buffers eventually fill.
	dial(t, "18106", "stalled")
	time.Sleep(50 * time.Millisecond)

	big, _ := protocol.NewErrorMessage(errors.New(strings.Repeat("x", 1<<20)))

	done := make(chan error, 1)
	go func() {
		for i := 0; i < 256; i++ {
			if err := hub.Send("stalled", big); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Error("expected a write to a stalled device to fail")
		}
	case <-time.After(10 * time.Second):
		t.Fatal("write to a stalled device blocked")
	}
}

func TestIMUCallback(t *testing.T) {
	hub := NewHub()

	var received atomic.Bool
	var gotID atomic.Value
	var gotYaw atomic.Value

	hub.OnIMU(func(deviceID string, data *protocol.TransformData) error {
		gotID.Store(deviceID)
		gotYaw.Store(data.Yaw)
		received.Store(true)
		return nil
	})
	hub.OnWorld(func(string, *protocol.TransformData) error {
		t.Error("world callback should not fire for imu samples")
		return nil
	})
	startServer(t, hub, "18101")

	ws := dial(t, "18101", "imu-test")
	msg, _ := protocol.NewTransformMessage(protocol.TypeIMU, spatial.Yaw(0.5))
	send(t, ws, msg)

	time.Sleep(100 * time.Millisecond)

	if !received.Load() {
		t.Fatal("IMU callback should have been called")
	}
	if gotID.Load() != "imu-test" {
		t.Errorf("device ID = %v, want imu-test", gotID.Load())
	}
	if yaw := gotYaw.Load().(float64); yaw < 0.5-1e-9 || yaw > 0.5+1e-9 {
		t.Errorf("yaw = %v, want 0.5", yaw)
	}
	if hub.GetStats().SamplesApplied != 1 {
		t.Errorf("SamplesApplied = %d, want 1", hub.GetStats().SamplesApplied)
	}
}

func TestRejectedSampleReportsError(t *testing.T) {
	hub := NewHub()
	hub.OnHandedness(func(string, *protocol.HandednessData) error {
		return errors.New("unknown handedness")
	})
	startServer(t, hub, "18102")

	ws := dial(t, "18102", "bad")
	send(t, ws, &protocol.Message{Type: protocol.TypeHandedness, Data: []byte(`{"handedness":"both"}`)})

	resp := read(t, ws)
	if resp.Type != protocol.TypeError {
		t.Fatalf("Type = %s, want error", resp.Type)
	}
	data, _ := resp.GetErrorData()
	if data.Error != "unknown handedness" {
		t.Errorf("Error = %q", data.Error)
	}
	if hub.GetStats().SamplesRejected != 1 {
		t.Errorf("SamplesRejected = %d, want 1", hub.GetStats().SamplesRejected)
	}
}

func TestMalformedMessage(t *testing.T) {
	hub := NewHub()
	startServer(t, hub, "18103")

	ws := dial(t, "18103", "garbage")
	ws.WriteMessage(websocket.TextMessage, []byte("{not json"))

	if resp := read(t, ws); resp.Type != protocol.TypeError {
		t.Errorf("Type = %s, want error", resp.Type)
	}
}

func TestPingPong(t *testing.T) {
	hub := NewHub()
	startServer(t, hub, "18104")

	ws := dial(t, "18104", "ping-test")
	msg, _ := protocol.NewPingMessage("p-1")
	send(t, ws, msg)

	resp := read(t, ws)
	if resp.Type != protocol.TypePong {
		t.Fatalf("Type = %s, want pong", resp.Type)
	}
	pong, _ := resp.GetPongData()
	if pong.ID != "p-1" {
		t.Errorf("pong ID = %q, want p-1", pong.ID)
	}
}

func TestAPIListDevices(t *testing.T) {
	hub := NewHub()
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	hub.RegisterRoutes(app)
	hub.RegisterAPIRoutes(app.Group("/api"))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/devices/", nil))
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "devices") {
		t.Error("Response should contain 'devices' field")
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/api/devices/stats", nil))
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}
}

func TestPlainHTTPUpgradeRequired(t *testing.T) {
	hub := NewHub()
	app := fiber.New()
	hub.RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest("GET", "/ws/device/x", nil))
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("Status = %d, want 426", resp.StatusCode)
	}
}
