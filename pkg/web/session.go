package web

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/go-pointer/internal/config"
	"github.com/teslashibe/go-pointer/pkg/hub"
	"github.com/teslashibe/go-pointer/pkg/kinematics"
	"github.com/teslashibe/go-pointer/pkg/protocol"
)

// Session is one person's pointing model plus the subscribers watching it.
// The model is not safe for concurrent use, so every access goes through mu.
type Session struct {
	ID      string
	Created time.Time

	seq uint64

	mu    sync.Mutex
	model *kinematics.Model

	poses  *hub.Hub
	cancel context.CancelFunc
}

// SessionInfo summarises a session for listings
type SessionInfo struct {
	ID         string               `json:"id"`
	BodyHeight float64              `json:"body_height"`
	Handedness string               `json:"handedness"`
	Surface    config.SurfaceConfig `json:"surface"`
	Created    time.Time            `json:"created"`
}

func newSession(ctx context.Context, seq uint64, model *kinematics.Model, onPose func(*Session, *protocol.Message)) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		ID:      uuid.NewString(),
		Created: time.Now(),
		seq:     seq,
		model:   model,
		cancel:  cancel,
	}
	s.poses = hub.New("session " + s.ID)

	model.OnUpdate(func(p kinematics.Pose) {
		msg, err := protocol.NewPoseMessage(s.ID, p)
		if err != nil {
			return
		}
		s.poses.BroadcastProtocol(msg)
		if onPose != nil {
			onPose(s, msg)
		}
	})

	go s.poses.Run(ctx)
	return s
}

// Update runs fn against the model while holding the session lock. Pose
// subscribers are notified by the model itself.
func (s *Session) Update(fn func(*kinematics.Model) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.model)
}

// Pose returns the current outputs in wire form.
func (s *Session) Pose() protocol.PoseData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return protocol.FromPose(s.ID, s.model.Snapshot())
}

// PoseMessage returns the current outputs as a pose message.
func (s *Session) PoseMessage() (*protocol.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return protocol.NewPoseMessage(s.ID, s.model.Snapshot())
}

// Surface describes the target surface's current parameters.
func (s *Session) Surface() config.SurfaceConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return config.DescribeSurface(s.model.Surface())
}

// Info summarises the session.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		ID:         s.ID,
		BodyHeight: s.model.BodyHeight(),
		Handedness: s.model.Handedness().String(),
		Surface:    config.DescribeSurface(s.model.Surface()),
		Created:    s.Created,
	}
}

// Subscribers returns the number of connected pose streams.
func (s *Session) Subscribers() int {
	return s.poses.ClientCount()
}

func (s *Session) close() {
	s.cancel()
}
