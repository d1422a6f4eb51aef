package httpc

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-pointer/internal/config"
)

func TestCreateSession(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/sessions", r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)

		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"abc","pose":{"session":"abc","pointer":{"x":5.5,"y":0,"z":0,"roll":0,"pitch":0,"yaw":0}}}`)
	}))
	defer srv.Close()

	p := config.DefaultProfile()
	sess, err := New(srv.URL+"/").CreateSession(context.Background(), &p)
	require.NoError(t, err)

	assert.Equal(t, "abc", sess.ID)
	require.NotNil(t, sess.Pose.Pointer)
	assert.Equal(t, 5.5, sess.Pose.Pointer.X)
	assert.Contains(t, gotBody, `"body_height":1.835`)
	assert.Contains(t, gotBody, `"handedness":"ignore"`)
}

func TestPose_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"session not found"}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Pose(context.Background(), "nope")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, "pointer service returned 404: session not found", se.Error())
}

func TestDeleteSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/sessions/abc", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	assert.NoError(t, New(srv.URL).DeleteSession(context.Background(), "abc"))
}
