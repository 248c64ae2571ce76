// Package config describes a two object scene and the queries to run on it, as read from a JSON file.
package config

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/lmontaut/coal/collision"
	"github.com/lmontaut/coal/query"
	"github.com/lmontaut/coal/spatialmath"
)

// Translation is the position of an object's frame in the world.
type Translation struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vector returns the translation as a vector.
func (t Translation) Vector() r3.Vector {
	return r3.Vector{X: t.X, Y: t.Y, Z: t.Z}
}

// Orientation is a rotation of TH degrees about the axis (X, Y, Z).
type Orientation struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
	TH float64 `json:"th"`
}

// PoseConfig places an object in the world.
type PoseConfig struct {
	Translation Translation  `json:"translation"`
	Orientation *Orientation `json:"orientation,omitempty"`
}

// Pose converts the config to a pose. A missing orientation, or one with a zero axis, is no rotation.
func (p PoseConfig) Pose() spatialmath.Pose {
	if p.Orientation == nil {
		return spatialmath.NewPoseFromPoint(p.Translation.Vector())
	}
	o := p.Orientation
	aa := &spatialmath.R4AA{Theta: o.TH * math.Pi / 180, RX: o.X, RY: o.Y, RZ: o.Z}
	return spatialmath.NewPose(p.Translation.Vector(), aa)
}

func (p PoseConfig) validate(path string) error {
	var errs error
	t := p.Translation
	if !isFinite(t.X, t.Y, t.Z) {
		errs = multierr.Append(errs, newFieldError(path, "translation", "must be finite"))
	}
	if o := p.Orientation; o != nil && !isFinite(o.X, o.Y, o.Z, o.TH) {
		errs = multierr.Append(errs, newFieldError(path, "orientation", "must be finite"))
	}
	return errs
}

// ObjectConfig is one object of the scene: either a mesh File (.ply or .json, relative to the scene file)
// or a Box of the given dimensions centered on the object's origin. Motion is the pose reached at the end
// of the unit time interval, the object stays at Pose without it.
type ObjectConfig struct {
	Name        string       `json:"name"`
	File        string       `json:"file,omitempty"`
	Box         *Translation `json:"box,omitempty"`
	Pose        PoseConfig   `json:"pose"`
	Motion      *PoseConfig  `json:"motion,omitempty"`
	MaxLeafSize int          `json:"max_leaf_size,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (o *ObjectConfig) Validate(path string) error {
	var errs error
	switch {
	case o.File == "" && o.Box == nil:
		errs = multierr.Append(errs, newFieldRequiredError(path, "file or box"))
	case o.File != "" && o.Box != nil:
		errs = multierr.Append(errs, newFieldError(path, "box", "cannot be combined with file"))
	case o.File != "":
		if ext := strings.ToLower(filepath.Ext(o.File)); ext != ".ply" && ext != ".json" {
			errs = multierr.Append(errs, newFieldError(path, "file", fmt.Sprintf("has unsupported extension %q", ext)))
		}
	default:
		if !(o.Box.X > 0 && o.Box.Y > 0 && o.Box.Z > 0) || !isFinite(o.Box.X, o.Box.Y, o.Box.Z) {
			errs = multierr.Append(errs, newFieldError(path, "box", "dimensions must be finite and positive"))
		}
	}
	if o.MaxLeafSize < 0 {
		errs = multierr.Append(errs, newFieldError(path, "max_leaf_size", "cannot be negative"))
	}
	errs = multierr.Append(errs, o.Pose.validate(path+".pose"))
	if o.Motion != nil {
		errs = multierr.Append(errs, o.Motion.validate(path+".motion"))
	}
	return errs
}

// CollisionConfig overrides the defaults of query.NewCollisionRequest.
type CollisionConfig struct {
	MaxContacts        int      `json:"max_contacts,omitempty"`
	EnableContact      *bool    `json:"enable_contact,omitempty"`
	DistanceLowerBound bool     `json:"distance_lower_bound,omitempty"`
	SecurityMargin     float64  `json:"security_margin,omitempty"`
	BreakDistance      *float64 `json:"break_distance,omitempty"`
}

// Request builds the collision request.
func (c CollisionConfig) Request() query.CollisionRequest {
	req := query.NewCollisionRequest()
	if c.MaxContacts != 0 {
		req.NumMaxContacts = c.MaxContacts
	}
	if c.EnableContact != nil {
		req.EnableContact = *c.EnableContact
	}
	req.EnableDistanceLowerBound = c.DistanceLowerBound
	req.SecurityMargin = c.SecurityMargin
	if c.BreakDistance != nil {
		req.BreakDistance = *c.BreakDistance
	}
	return req
}

// DistanceConfig overrides the defaults of query.NewDistanceRequest.
type DistanceConfig struct {
	RelErr        float64 `json:"rel_err,omitempty"`
	AbsErr        float64 `json:"abs_err,omitempty"`
	NearestPoints *bool   `json:"nearest_points,omitempty"`
	QueueSize     int     `json:"queue_size,omitempty"`
}

// Request builds the distance request.
func (c DistanceConfig) Request() query.DistanceRequest {
	req := query.NewDistanceRequest()
	req.RelErr = c.RelErr
	req.AbsErr = c.AbsErr
	if c.NearestPoints != nil {
		req.EnableNearestPoints = *c.NearestPoints
	}
	req.QueueSize = c.QueueSize
	return req
}

// ContinuousConfig overrides the defaults of query.NewContinuousCollisionRequest.
type ContinuousConfig struct {
	TOIErr        float64 `json:"toi_err,omitempty"`
	MaxIterations int     `json:"max_iterations,omitempty"`
}

// Scene is two objects and the settings of every query run on them.
type Scene struct {
	ConfigFilePath string `json:"-"`

	Objects    []ObjectConfig   `json:"objects"`
	BV         string           `json:"bv,omitempty"`
	Timeout    time.Duration    `json:"timeout,omitempty"`
	Collision  CollisionConfig  `json:"collision"`
	Distance   DistanceConfig   `json:"distance"`
	Continuous ContinuousConfig `json:"continuous"`
}

// ContinuousRequest builds the continuous collision request. It measures distances with the distance
// settings of the scene.
func (s *Scene) ContinuousRequest() query.ContinuousCollisionRequest {
	req := query.NewContinuousCollisionRequest()
	if s.Continuous.TOIErr != 0 {
		req.TOIErr = s.Continuous.TOIErr
	}
	if s.Continuous.MaxIterations != 0 {
		req.MaxIterations = s.Continuous.MaxIterations
	}
	req.Distance = s.Distance.Request()
	req.Distance.QueueSize = 0
	return req
}

// Validate returns every problem found in the scene, so that a user can fix them all at once.
func (s *Scene) Validate(path string) error {
	var errs error
	if len(s.Objects) != 2 {
		errs = multierr.Append(errs, newFieldError(path, "objects", fmt.Sprintf("must hold 2 objects, got %d", len(s.Objects))))
	}
	for idx := range s.Objects {
		errs = multierr.Append(errs, s.Objects[idx].Validate(fmt.Sprintf("%s.objects.%d", path, idx)))
	}
	if _, err := collision.ParseBVType(s.BV); err != nil {
		errs = multierr.Append(errs, newFieldError(path, "bv", err.Error()))
	}
	if s.Timeout < 0 {
		errs = multierr.Append(errs, newFieldError(path, "timeout", "cannot be negative"))
	}
	if err := s.Collision.Request().Validate(); err != nil {
		errs = multierr.Append(errs, errors.Wrapf(err, "error validating %q", path+".collision"))
	}
	if err := s.Distance.Request().Validate(); err != nil {
		errs = multierr.Append(errs, errors.Wrapf(err, "error validating %q", path+".distance"))
	}
	cont := s.ContinuousRequest()
	// distance settings are reported above
	cont.Distance = query.NewDistanceRequest()
	if err := cont.Validate(); err != nil {
		errs = multierr.Append(errs, errors.Wrapf(err, "error validating %q", path+".continuous"))
	}
	return errs
}

func newFieldRequiredError(path, field string) error {
	return errors.Errorf("error validating %q: %q is required", path, field)
}

func newFieldError(path, field, msg string) error {
	return errors.Errorf("error validating %q: %q %s", path, field, msg)
}

func isFinite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
