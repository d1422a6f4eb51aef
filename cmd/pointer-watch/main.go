// pointer-watch: prints the pose stream of a pointing session
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/teslashibe/go-pointer/internal/config"
	"github.com/teslashibe/go-pointer/internal/httpc"
	"github.com/teslashibe/go-pointer/internal/log"
	"github.com/teslashibe/go-pointer/pkg/protocol"
)

var (
	host    = flag.String("host", "localhost", "pointer service host")
	port    = flag.String("port", config.Port(), "pointer service port")
	session = flag.String("session", "", "session id to watch; empty creates one")
	profile = flag.String("profile", "", "YAML profile for a created session")
)

func main() {
	flag.Parse()
	log.Init(config.LogLevel())

	if err := run(); err != nil {
		log.Error("pointer-watch failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if *session == "" {
		id, cleanup, err := createSession()
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		defer cleanup()
		*session = id
		fmt.Printf("watching new session %s\n", id)
	}

	url := fmt.Sprintf("%s/ws/sessions/%s/pose", config.WebSocketURL(*host, *port), *session)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Debug("stream ended", "error", err)
			return nil
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil || msg.Type != protocol.TypePose {
			continue
		}
		pose, err := msg.GetPoseData()
		if err != nil {
			continue
		}
		fmt.Println(formatPose(pose))
	}
}

// createSession asks the service for a fresh session and returns a func
// that deletes it again.
func createSession() (string, func(), error) {
	var p *config.Profile
	if *profile != "" {
		loaded, err := config.LoadProfile(*profile)
		if err != nil {
			return "", nil, err
		}
		p = loaded
	}

	client := httpc.New(config.ServiceURL(*host, *port))
	ctx, cancel := context.WithTimeout(context.Background(), httpc.DefaultTimeout)
	defer cancel()

	sess, err := client.CreateSession(ctx, p)
	if err != nil {
		return "", nil, err
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), httpc.DefaultTimeout)
		defer cancel()
		if err := client.DeleteSession(ctx, sess.ID); err != nil {
			log.Warn("failed to delete session", "session", sess.ID, "error", err)
		}
	}
	return sess.ID, cleanup, nil
}

func formatPose(p *protocol.PoseData) string {
	pointer := "none"
	if p.Pointer != nil {
		pointer = fmt.Sprintf("(%.3f, %.3f, %.3f)", p.Pointer.X, p.Pointer.Y, p.Pointer.Z)
	}
	return fmt.Sprintf("finger=(%.3f, %.3f, %.3f) ray yaw=%.3f pitch=%.3f pointer=%s",
		p.Finger.X, p.Finger.Y, p.Finger.Z, p.Ray.Yaw, p.Ray.Pitch, pointer)
}
