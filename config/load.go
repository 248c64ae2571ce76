package config

import (
	"fmt"
	"path/filepath"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/lmontaut/coal/bvh"
	"github.com/lmontaut/coal/collision"
	"github.com/lmontaut/coal/logging"
	"github.com/lmontaut/coal/spatialmath"
	"github.com/lmontaut/coal/traversal"
)

// Objects are the two objects of a scene with their hierarchies built, in scene order.
type Objects[P collision.Primitive[P]] struct {
	Names   [2]string
	Models  [2]*bvh.Model[P]
	Poses   [2]spatialmath.Pose
	Motions [2]collision.Motion
}

// AllBoxes reports whether every object of the scene is a box.
func (s *Scene) AllBoxes() bool {
	return lo.EveryBy(s.Objects, func(o ObjectConfig) bool { return o.Box != nil })
}

// LoadMeshes builds a triangle hierarchy for each object. Boxes are tiled with triangles.
func (s *Scene) LoadMeshes() (*Objects[*spatialmath.Triangle], error) {
	return load(s, func(o ObjectConfig, opts []bvh.BuildOption) (*bvh.MeshModel, error) {
		if o.Box != nil {
			return bvh.NewMeshModel(o.box().Triangles(), opts...)
		}
		return bvh.LoadMeshFile(s.resolve(o.File), opts...)
	})
}

// LoadBoxes builds a single box hierarchy for each object. Boxes are queried exactly, unlike their
// tiled form, so this is preferred when AllBoxes holds.
func (s *Scene) LoadBoxes() (*Objects[*spatialmath.Box], error) {
	return load(s, func(o ObjectConfig, opts []bvh.BuildOption) (*bvh.BoxModel, error) {
		if o.Box == nil {
			return nil, errors.Errorf("object %q is a mesh, not a box", o.Name)
		}
		return bvh.NewModel([]*spatialmath.Box{o.box()}, opts...)
	})
}

func load[P collision.Primitive[P]](
	s *Scene,
	build func(ObjectConfig, []bvh.BuildOption) (*bvh.Model[P], error),
) (*Objects[P], error) {
	if len(s.Objects) != 2 {
		return nil, errors.Errorf("a scene needs 2 objects, got %d", len(s.Objects))
	}
	out := &Objects[P]{}
	for i, o := range s.Objects {
		var opts []bvh.BuildOption
		if o.MaxLeafSize > 0 {
			opts = append(opts, bvh.WithMaxLeafSize(o.MaxLeafSize))
		}
		m, err := build(o, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "loading object %d", i)
		}

		start := o.Pose.Pose()
		out.Names[i] = o.Name
		if out.Names[i] == "" {
			out.Names[i] = fmt.Sprintf("object%d", i)
		}
		out.Models[i] = m
		out.Poses[i] = start
		if o.Motion != nil {
			out.Motions[i] = collision.NewInterpMotion(start, o.Motion.Pose())
		} else {
			out.Motions[i] = collision.NewTranslationMotion(start, r3.Vector{})
		}
	}
	return out, nil
}

// Options returns the query options of the scene. The timeout, if any, starts when Options is called.
func (s *Scene) Options(logger logging.Logger) ([]collision.Option, error) {
	bvType, err := collision.ParseBVType(s.BV)
	if err != nil {
		return nil, err
	}
	opts := []collision.Option{collision.WithBVType(bvType), collision.WithLogger(logger)}
	if s.Timeout > 0 {
		opts = append(opts, collision.WithDeadline(traversal.NewDeadline(nil, s.Timeout)))
	}
	return opts, nil
}

func (o ObjectConfig) box() *spatialmath.Box {
	half := o.Box.Vector().Mul(0.5)
	return spatialmath.NewBoxFromAABB(spatialmath.AABB{Min: half.Mul(-1), Max: half}, spatialmath.NewZeroPose())
}

func (s *Scene) resolve(file string) string {
	if filepath.IsAbs(file) || s.ConfigFilePath == "" {
		return file
	}
	return filepath.Join(filepath.Dir(s.ConfigFilePath), file)
}
