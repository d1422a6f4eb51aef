package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-pointer/pkg/kinematics"
	"github.com/teslashibe/go-pointer/pkg/surface"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestDefaultProfile_Builds(t *testing.T) {
	p := DefaultProfile()
	require.NoError(t, p.Validate())

	m, err := p.Build()
	require.NoError(t, err)
	assert.Equal(t, surface.KindHorizontalPlane, m.Surface().Kind())
	assert.Equal(t, kinematics.ReferenceHeight, m.BodyHeight())

	_, ok := m.Pointer()
	assert.True(t, ok)
}

func TestLoadProfileYAML(t *testing.T) {
	doc := `
body_height: 1.70
handedness: right
surface:
  type: cylinder
  axis: [0, 0, 1]
  point: [2, 0, 0]
`
	p, err := LoadProfileYAML(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, 1.70, p.BodyHeight)
	assert.Equal(t, kinematics.RightHand, p.Handedness)
	assert.Equal(t, "cylinder", p.Surface.Type)
	assert.Equal(t, &Vec3{0, 0, 1}, p.Surface.Axis)

	m, err := p.Build()
	require.NoError(t, err)
	c, ok := m.Surface().(*surface.Cylinder)
	require.True(t, ok)
	assert.Equal(t, r3.Vec{X: 2}, c.Point())
}

func TestLoadProfileYAML_Defaults(t *testing.T) {
	p, err := LoadProfileYAML(strings.NewReader("handedness: left\n"))
	require.NoError(t, err)

	assert.Equal(t, kinematics.ReferenceHeight, p.BodyHeight)
	assert.Equal(t, kinematics.LeftHand, p.Handedness)
	assert.Equal(t, string(surface.KindHorizontalPlane), p.Surface.Type)
	assert.Equal(t, &Vec3{0, 0, 0}, p.Surface.Point)

	empty, err := LoadProfileYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, kinematics.Ignore, empty.Handedness)
}

func TestLoadProfileYAML_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"negative height", "body_height: -1\n"},
		{"bad handedness", "handedness: both\n"},
		{"unknown surface", "surface:\n  type: torus\n"},
		{"sphere without point", "surface:\n  type: sphere\n"},
		{"horizontal with normal", "surface:\n  type: horizontal_plane\n  normal: [1, 0, 0]\n  point: [0, 0, 0]\n"},
		{"unknown field", "height: 1.8\n"},
		{"short vector", "surface:\n  type: sphere\n  point: [1, 0]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadProfileYAML(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadProfile_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("body_height: 1.9\nsurface:\n  type: sphere\n  point: [3, 0, 0]\n"), 0o600))

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, 1.9, p.BodyHeight)

	_, err = LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseProfileJSON(t *testing.T) {
	p, err := ParseProfileJSON([]byte(`{"body_height":1.6,"handedness":"left","surface":{"type":"sphere","point":[2,0,1]}}`))
	require.NoError(t, err)

	assert.Equal(t, 1.6, p.BodyHeight)
	assert.Equal(t, kinematics.LeftHand, p.Handedness)
	assert.Equal(t, "sphere", p.Surface.Type)
	assert.Equal(t, &Vec3{2, 0, 1}, p.Surface.Point)
}

func TestParseProfileJSON_Defaults(t *testing.T) {
	for _, body := range []string{"", "  ", `{"body_height":1.7}`} {
		p, err := ParseProfileJSON([]byte(body))
		require.NoError(t, err, body)
		assert.Equal(t, DefaultProfile().Surface, p.Surface, body)
	}

	p, err := ParseProfileJSON([]byte(`{"surface":{"type":"horizontal_plane"}}`))
	require.NoError(t, err)
	assert.Equal(t, &Vec3{0, 0, 0}, p.Surface.Point)
}

func TestParseProfileJSON_Invalid(t *testing.T) {
	tests := map[string]string{
		"malformed":     `{"body_height":`,
		"unknown field": `{"height":1.7}`,
		"bad height":    `{"body_height":-1}`,
		"bad hand":      `{"handedness":"both"}`,
		"bad surface":   `{"surface":{"type":"cone","point":[0,0,0]}}`,
	}

	for name, body := range tests {
		_, err := ParseProfileJSON([]byte(body))
		assert.Error(t, err, name)
	}
}

func TestDescribeSurface_RoundTrip(t *testing.T) {
	for _, s := range []surface.Surface{
		surface.NewPlane(r3.Vec{X: 1}, r3.Vec{X: 3}),
		surface.NewHorizontalPlane(r3.Vec{Z: 0.5}),
		surface.NewCylinder(r3.Vec{Z: 1}, r3.Vec{Y: 2}),
		surface.NewSphere(r3.Vec{X: 1}),
	} {
		cfg := DescribeSurface(s)
		rebuilt, err := cfg.Build()
		require.NoError(t, err, cfg.Type)
		assert.Equal(t, s.Kind(), rebuilt.Kind())
		assert.Equal(t, cfg, DescribeSurface(rebuilt))
	}
}

func TestEnv(t *testing.T) {
	t.Setenv("POINTER_PORT", "")
	assert.Equal(t, DefaultPort, Port())

	t.Setenv("POINTER_PORT", "9000")
	assert.Equal(t, "9000", Port())

	t.Setenv("POINTER_LOG_LEVEL", "debug")
	assert.Equal(t, "debug", LogLevel())

	t.Setenv("POINTER_PROFILE", "/tmp/p.yaml")
	assert.Equal(t, "/tmp/p.yaml", ProfilePath())

	assert.Equal(t, "http://localhost:9000", ServiceURL("localhost", "9000"))
	assert.Equal(t, "ws://localhost:9000", WebSocketURL("localhost", "9000"))
}
