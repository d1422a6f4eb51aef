// Package web exposes pointing sessions over HTTP and websockets.
package web

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-pointer/internal/config"
	"github.com/teslashibe/go-pointer/internal/log"
	"github.com/teslashibe/go-pointer/pkg/ingest"
	"github.com/teslashibe/go-pointer/pkg/kinematics"
	"github.com/teslashibe/go-pointer/pkg/protocol"
)

var (
	// ErrSessionNotFound is returned for an unknown session id
	ErrSessionNotFound = errors.New("session not found")

	// ErrSurfaceKindChange is returned when an update names a different
	// surface type than the session was created with
	ErrSurfaceKindChange = errors.New("surface type cannot change")
)

// Server is the pointing service
type Server struct {
	app  *fiber.App
	port string

	// Profile used when a session is created without a body
	defaults config.Profile

	sessions   map[string]*Session
	sessionsMu sync.RWMutex
	nextSeq    atomic.Uint64

	devices *ingest.Hub

	ctx    context.Context
	cancel context.CancelFunc
}

// Options configures a Server
type Options struct {
	Port string

	// Profile for sessions created without a body; nil means
	// config.DefaultProfile.
	Profile *config.Profile

	// Debug enables per-request access logging
	Debug bool
}

// NewServer creates a new pointing server
func NewServer(opts Options) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		port:     opts.Port,
		defaults: config.DefaultProfile(),
		sessions: make(map[string]*Session),
		devices:  ingest.NewHub(),
		ctx:      ctx,
		cancel:   cancel,
	}
	if opts.Profile != nil {
		s.defaults = *opts.Profile
	}

	s.devices.OnIMU(s.applyTransform(protocol.TypeIMU))
	s.devices.OnWorld(s.applyTransform(protocol.TypeWorld))
	s.devices.OnHandedness(s.applyHandedness)

	app := fiber.New(fiber.Config{
		AppName:               "go-pointer",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))
	if opts.Debug {
		app.Use(logger.New())
	}

	app.Get("/metrics", s.handleMetrics)

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)

	sessions := api.Group("/sessions")
	sessions.Post("/", s.handleCreateSession)
	sessions.Get("/", s.handleListSessions)
	sessions.Get("/:id", s.handleGetPose)
	sessions.Delete("/:id", s.handleDeleteSession)
	sessions.Put("/:id/imu", s.handleSetTransform(protocol.TypeIMU))
	sessions.Put("/:id/world", s.handleSetTransform(protocol.TypeWorld))
	sessions.Put("/:id/handedness", s.handleSetHandedness)
	sessions.Get("/:id/surface", s.handleGetSurface)
	sessions.Put("/:id/surface", s.handleUpdateSurface)
	sessions.Put("/:id/surface/:param", s.handleSetSurfaceParam)

	s.devices.RegisterAPIRoutes(api)
	s.devices.RegisterRoutes(app)

	app.Use("/ws/sessions", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/sessions/:id/pose", s.requireSession, websocket.New(s.handlePoseWS))

	s.app = app
	return s
}

// App returns the underlying Fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Devices returns the device ingest hub
func (s *Server) Devices() *ingest.Hub {
	return s.devices
}

// Start starts the server and blocks until it stops
func (s *Server) Start() error {
	log.Info("pointer service listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// StartAsync starts the server in a goroutine
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("server error", "error", err)
		}
	}()
}

// Shutdown closes every session and stops the server
func (s *Server) Shutdown() error {
	s.cancel()
	return s.app.Shutdown()
}

// ShutdownWithContext is Shutdown bounded by ctx
func (s *Server) ShutdownWithContext(ctx context.Context) error {
	s.cancel()
	return s.app.ShutdownWithContext(ctx)
}

// CreateSession builds a model from p and registers it under a new id.
func (s *Server) CreateSession(p config.Profile) (*Session, error) {
	model, err := p.Build()
	if err != nil {
		return nil, err
	}

	sess := newSession(s.ctx, s.nextSeq.Add(1), model, s.forwardPose)

	s.sessionsMu.Lock()
	s.sessions[sess.ID] = sess
	count := len(s.sessions)
	s.sessionsMu.Unlock()

	log.Info("session created", "session", sess.ID, "surface", model.Surface().Kind(), "sessions", count)
	return sess, nil
}

// Session looks up a session by id
func (s *Server) Session(id string) (*Session, error) {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Sessions returns every session ordered by creation time
func (s *Server) Sessions() []*Session {
	s.sessionsMu.RLock()
	list := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		list = append(list, sess)
	}
	s.sessionsMu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].seq < list[j].seq
	})
	return list
}

// DeleteSession closes a session and its pose streams
func (s *Server) DeleteSession(id string) error {
	s.sessionsMu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	count := len(s.sessions)
	s.sessionsMu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	sess.close()

	log.Info("session deleted", "session", id, "sessions", count)
	return nil
}

// applyTransform routes a device's imu or world sample to the session with
// the same id.
func (s *Server) applyTransform(kind protocol.MessageType) ingest.TransformHandler {
	return func(deviceID string, data *protocol.TransformData) error {
		sess, err := s.Session(deviceID)
		if err != nil {
			return err
		}
		return sess.Update(func(m *kinematics.Model) error {
			return setTransform(m, kind, data)
		})
	}
}

func (s *Server) applyHandedness(deviceID string, data *protocol.HandednessData) error {
	sess, err := s.Session(deviceID)
	if err != nil {
		return err
	}
	h, err := kinematics.ParseHandedness(data.Handedness)
	if err != nil {
		return err
	}
	return sess.Update(func(m *kinematics.Model) error {
		m.SetHandedness(h)
		return nil
	})
}

// forwardPose echoes pose updates to the device driving the session, if any.
func (s *Server) forwardPose(sess *Session, msg *protocol.Message) {
	if s.devices.GetDevice(sess.ID) == nil {
		return
	}
	if err := s.devices.Send(sess.ID, msg); err != nil && !errors.Is(err, ingest.ErrDeviceNotConnected) {
		log.Warn("failed to forward pose", "session", sess.ID, "error", err)
	}
}

func setTransform(m *kinematics.Model, kind protocol.MessageType, data *protocol.TransformData) error {
	if err := data.Validate(); err != nil {
		return err
	}
	t := data.Transform()
	if kind == protocol.TypeWorld {
		m.SetWorldTransform(t)
		return nil
	}
	m.SetImuTransform(t)
	return nil
}
