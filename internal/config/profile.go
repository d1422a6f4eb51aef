package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/teslashibe/go-pointer/pkg/kinematics"
	"github.com/teslashibe/go-pointer/pkg/surface"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// maxProfileSize bounds profile files read from disk.
const maxProfileSize = 64 * 1024

// Vec3 is a vector written as a three-element list: [x, y, z].
type Vec3 [3]float64

// R3 converts v to a gonum vector.
func (v Vec3) R3() r3.Vec {
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

// FromR3 converts a gonum vector.
func FromR3(v r3.Vec) Vec3 {
	return Vec3{v.X, v.Y, v.Z}
}

// SurfaceConfig describes the target surface. Which vectors are required
// depends on Type: plane needs normal and point, horizontal_plane needs
// point, cylinder needs axis and point, sphere needs point.
type SurfaceConfig struct {
	Type   string `json:"type" yaml:"type"`
	Normal *Vec3  `json:"normal,omitempty" yaml:"normal,omitempty"`
	Axis   *Vec3  `json:"axis,omitempty" yaml:"axis,omitempty"`
	Point  *Vec3  `json:"point,omitempty" yaml:"point,omitempty"`
}

// Profile is everything needed to build a pointing model for one person.
type Profile struct {
	BodyHeight float64               `json:"body_height" yaml:"body_height"`
	Handedness kinematics.Handedness `json:"handedness" yaml:"handedness"`
	Surface    SurfaceConfig         `json:"surface" yaml:"surface"`
}

// DefaultProfile is a person of reference height pointing at the floor.
func DefaultProfile() Profile {
	return Profile{
		BodyHeight: kinematics.ReferenceHeight,
		Handedness: kinematics.Ignore,
		Surface: SurfaceConfig{
			Type:  string(surface.KindHorizontalPlane),
			Point: &Vec3{0, 0, 0},
		},
	}
}

// LoadProfile reads a YAML profile file.
func LoadProfile(path string) (*Profile, error) {
	clean := filepath.Clean(path)
	info, err := os.Stat(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to stat profile: %w", err)
	}
	if info.Size() > maxProfileSize {
		return nil, fmt.Errorf("profile too large: %d bytes (max %d)", info.Size(), maxProfileSize)
	}

	f, err := os.Open(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile: %w", err)
	}
	defer f.Close()

	return LoadProfileYAML(f)
}

// LoadProfileYAML decodes and validates a profile. Fields missing from the
// document keep their DefaultProfile values.
func LoadProfileYAML(r io.Reader) (*Profile, error) {
	p := DefaultProfile()
	p.Surface.Point = nil

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}

	if p.Surface.Point == nil && p.Surface.Type == string(surface.KindHorizontalPlane) {
		p.Surface.Point = &Vec3{0, 0, 0}
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	return &p, nil
}

// ParseProfileJSON decodes and validates a JSON profile, as sent to the
// HTTP API. An empty body yields the default profile; a body without a
// surface keeps the default floor.
func ParseProfileJSON(data []byte) (*Profile, error) {
	p := DefaultProfile()
	if len(bytes.TrimSpace(data)) > 0 {
		floor := p.Surface
		p.Surface = SurfaceConfig{}

		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("failed to parse profile: %w", err)
		}

		switch {
		case p.Surface.Type == "":
			p.Surface = floor
		case p.Surface.Point == nil && p.Surface.Type == string(surface.KindHorizontalPlane):
			p.Surface.Point = &Vec3{0, 0, 0}
		}
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	return &p, nil
}

// Validate checks the body height and that the surface can be built.
func (p *Profile) Validate() error {
	if !(p.BodyHeight > 0) || math.IsInf(p.BodyHeight, 0) {
		return fmt.Errorf("%w: %v", kinematics.ErrInvalidBodyHeight, p.BodyHeight)
	}
	_, err := p.Surface.Build()
	return err
}

// Build creates a model for the profile, attached to a new surface.
func (p *Profile) Build() (*kinematics.Model, error) {
	s, err := p.Surface.Build()
	if err != nil {
		return nil, err
	}
	return kinematics.New(p.BodyHeight, s, p.Handedness)
}

// Build creates the configured surface.
func (c SurfaceConfig) Build() (surface.Surface, error) {
	kind, err := surface.ParseKind(c.Type)
	if err != nil {
		return nil, err
	}

	values := make(map[string]r3.Vec, 3)
	if c.Normal != nil {
		values[surface.KeyNormal] = c.Normal.R3()
	}
	if c.Axis != nil {
		values[surface.KeyAxis] = c.Axis.R3()
	}
	if c.Point != nil {
		values[surface.KeyPoint] = c.Point.R3()
	}
	return surface.New(kind, values)
}

// DescribeSurface converts a live surface back into its configuration form.
func DescribeSurface(s surface.Surface) SurfaceConfig {
	c := SurfaceConfig{Type: string(s.Kind())}
	view := s.Parameters()
	for _, name := range view.Keys() {
		v, _ := view.Get(name)
		if v == nil || (name == surface.KeyNormal && s.Kind() == surface.KindHorizontalPlane) {
			continue
		}
		vec := FromR3(*v)
		switch name {
		case surface.KeyNormal:
			c.Normal = &vec
		case surface.KeyAxis:
			c.Axis = &vec
		case surface.KeyPoint:
			c.Point = &vec
		}
	}
	return c
}
