package web

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-pointer/internal/config"
	"github.com/teslashibe/go-pointer/internal/log"
	"github.com/teslashibe/go-pointer/pkg/hub"
	"github.com/teslashibe/go-pointer/pkg/kinematics"
	"github.com/teslashibe/go-pointer/pkg/params"
	"github.com/teslashibe/go-pointer/pkg/protocol"
	"github.com/teslashibe/go-pointer/pkg/surface"
	"gonum.org/v1/gonum/spatial/r3"
)

// CreateSessionResponse is returned by POST /api/sessions
type CreateSessionResponse struct {
	ID   string            `json:"id"`
	Pose protocol.PoseData `json:"pose"`
	Info SessionInfo       `json:"session"`
}

// VectorRequest is the body of PUT /api/sessions/:id/surface/:param
type VectorRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	Z *float64 `json:"z"`
}

// errorStatus maps domain errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, params.ErrUnknownKey),
		errors.Is(err, params.ErrArityMismatch),
		errors.Is(err, surface.ErrLockedParameter),
		errors.Is(err, surface.ErrUnknownKind),
		errors.Is(err, ErrSurfaceKindChange),
		errors.Is(err, protocol.ErrDegenerateQuaternion),
		errors.Is(err, kinematics.ErrInvalidBodyHeight),
		errors.Is(err, kinematics.ErrUnknownHandedness):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	return failWith(c, errorStatus(err), err)
}

func failWith(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// handleHealth reports liveness and counts
func (s *Server) handleHealth(c *fiber.Ctx) error {
	s.sessionsMu.RLock()
	count := len(s.sessions)
	s.sessionsMu.RUnlock()

	return c.JSON(fiber.Map{
		"status":   "ok",
		"sessions": count,
		"devices":  s.devices.DeviceCount(),
	})
}

// handleMetrics exposes counters in Prometheus text format
func (s *Server) handleMetrics(c *fiber.Ctx) error {
	s.sessionsMu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessionsMu.RUnlock()

	subscribers := 0
	for _, sess := range sessions {
		subscribers += sess.Subscribers()
	}
	stats := s.devices.GetStats()

	return c.SendString(fmt.Sprintf(`# HELP pointer_sessions Active pointing sessions
# TYPE pointer_sessions gauge
pointer_sessions %d

# HELP pointer_pose_subscribers Connected pose streams
# TYPE pointer_pose_subscribers gauge
pointer_pose_subscribers %d

# HELP pointer_devices Connected devices
# TYPE pointer_devices gauge
pointer_devices %d

# HELP pointer_device_messages_received Total device messages received
# TYPE pointer_device_messages_received counter
pointer_device_messages_received %d

# HELP pointer_device_samples_applied Total device samples applied to a session
# TYPE pointer_device_samples_applied counter
pointer_device_samples_applied %d

# HELP pointer_device_samples_rejected Total device messages rejected
# TYPE pointer_device_samples_rejected counter
pointer_device_samples_rejected %d
`, len(sessions), subscribers, stats.DeviceCount, stats.MessagesReceived, stats.SamplesApplied, stats.SamplesRejected))
}

// handleCreateSession creates a session from an optional profile body
func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	p := &s.defaults
	if len(c.Body()) > 0 {
		parsed, err := config.ParseProfileJSON(c.Body())
		if err != nil {
			return failWith(c, fiber.StatusBadRequest, err)
		}
		p = parsed
	}

	sess, err := s.CreateSession(*p)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(CreateSessionResponse{
		ID:   sess.ID,
		Pose: sess.Pose(),
		Info: sess.Info(),
	})
}

// handleListSessions lists every session
func (s *Server) handleListSessions(c *fiber.Ctx) error {
	sessions := s.Sessions()
	infos := make([]SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		infos = append(infos, sess.Info())
	}
	return c.JSON(fiber.Map{
		"sessions": infos,
		"count":    len(infos),
	})
}

// handleGetPose returns a session's current pose
func (s *Server) handleGetPose(c *fiber.Ctx) error {
	sess, err := s.Session(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(sess.Pose())
}

// handleDeleteSession removes a session
func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	if err := s.DeleteSession(c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleSetTransform writes the imu or world transform
func (s *Server) handleSetTransform(kind protocol.MessageType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := s.Session(c.Params("id"))
		if err != nil {
			return fail(c, err)
		}

		var data protocol.TransformData
		if err := c.BodyParser(&data); err != nil {
			return failWith(c, fiber.StatusBadRequest, err)
		}

		err = sess.Update(func(m *kinematics.Model) error {
			return setTransform(m, kind, &data)
		})
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(sess.Pose())
	}
}

// handleSetHandedness switches the pointing arm
func (s *Server) handleSetHandedness(c *fiber.Ctx) error {
	sess, err := s.Session(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}

	var data protocol.HandednessData
	if err := c.BodyParser(&data); err != nil {
		return failWith(c, fiber.StatusBadRequest, err)
	}
	h, err := kinematics.ParseHandedness(data.Handedness)
	if err != nil {
		return fail(c, err)
	}

	err = sess.Update(func(m *kinematics.Model) error {
		m.SetHandedness(h)
		return nil
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(sess.Pose())
}

// handleGetSurface describes the target surface
func (s *Server) handleGetSurface(c *fiber.Ctx) error {
	sess, err := s.Session(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(sess.Surface())
}

// handleUpdateSurface writes several surface parameters at once. The
// surface type cannot change; parameters left out keep their values.
func (s *Server) handleUpdateSurface(c *fiber.Ctx) error {
	sess, err := s.Session(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}

	var body config.SurfaceConfig
	if err := c.BodyParser(&body); err != nil {
		return failWith(c, fiber.StatusBadRequest, err)
	}

	err = sess.Update(func(m *kinematics.Model) error {
		surf := m.Surface()
		if body.Type != "" && body.Type != string(surf.Kind()) {
			return fmt.Errorf("%w: %s to %s", ErrSurfaceKindChange, surf.Kind(), body.Type)
		}

		var entries []params.Entry
		for _, e := range []struct {
			name string
			v    *config.Vec3
		}{
			{surface.KeyNormal, body.Normal},
			{surface.KeyAxis, body.Axis},
			{surface.KeyPoint, body.Point},
		} {
			if e.v != nil {
				r := e.v.R3()
				entries = append(entries, params.Entry{Name: e.name, Value: &r})
			}
		}
		return surf.UpdateParametersKeyed(entries...)
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(sess.Surface())
}

// handleSetSurfaceParam writes one surface parameter
func (s *Server) handleSetSurfaceParam(c *fiber.Ctx) error {
	sess, err := s.Session(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}

	var req VectorRequest
	if err := c.BodyParser(&req); err != nil {
		return failWith(c, fiber.StatusBadRequest, err)
	}
	if req.X == nil || req.Y == nil || req.Z == nil {
		return failWith(c, fiber.StatusBadRequest, errors.New("x, y and z are required"))
	}
	v := r3.Vec{X: *req.X, Y: *req.Y, Z: *req.Z}

	name := c.Params("param")
	err = sess.Update(func(m *kinematics.Model) error {
		return m.Surface().SetParameter(name, v)
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(sess.Pose())
}

// requireSession rejects pose streams for unknown sessions before upgrading
func (s *Server) requireSession(c *fiber.Ctx) error {
	sess, err := s.Session(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	c.Locals("session", sess)
	return c.Next()
}

// handlePoseWS streams a session's poses, starting with the current one
func (s *Server) handlePoseWS(c *websocket.Conn) {
	sess, ok := c.Locals("session").(*Session)
	if !ok {
		return
	}

	msg, err := sess.PoseMessage()
	if err != nil {
		return
	}
	current, err := hub.NewProtocolMessage(msg)
	if err != nil {
		return
	}

	client, err := hub.NewClient(sess.poses, c, current)
	if err != nil {
		log.Debug("pose stream refused", "session", sess.ID, "error", err)
		return
	}
	client.Run()
}
