package config

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"
	"go.viam.com/test"

	"github.com/lmontaut/coal/query"
)

func TestRead(t *testing.T) {
	scene, err := Read("data/boxes.json")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, scene.ConfigFilePath, test.ShouldEqual, "data/boxes.json")
	test.That(t, scene.Objects, test.ShouldHaveLength, 2)
	test.That(t, scene.Objects[0].Name, test.ShouldEqual, "mover")
	test.That(t, scene.Objects[0].Motion, test.ShouldNotBeNil)
	test.That(t, scene.Objects[1].Pose.Orientation.TH, test.ShouldEqual, 90)
	test.That(t, scene.BV, test.ShouldEqual, "obb")
	test.That(t, scene.Timeout, test.ShouldEqual, 250*time.Millisecond)

	t.Run("requests", func(t *testing.T) {
		creq := scene.Collision.Request()
		test.That(t, creq.NumMaxContacts, test.ShouldEqual, 4)
		test.That(t, creq.EnableContact, test.ShouldBeFalse)
		test.That(t, creq.BreakDistance, test.ShouldEqual, query.DefaultBreakDistance)

		dreq := scene.Distance.Request()
		test.That(t, dreq.RelErr, test.ShouldEqual, 0.01)
		test.That(t, dreq.QueueSize, test.ShouldEqual, 8)
		test.That(t, dreq.EnableNearestPoints, test.ShouldBeTrue)

		ccreq := scene.ContinuousRequest()
		test.That(t, ccreq.MaxIterations, test.ShouldEqual, 50)
		test.That(t, ccreq.TOIErr, test.ShouldEqual, query.DefaultTOIErr)
		test.That(t, ccreq.Distance.RelErr, test.ShouldEqual, 0.01)
		test.That(t, ccreq.Distance.QueueSize, test.ShouldEqual, 0)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Read("data/nope.json")
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestFromReaderErrors(t *testing.T) {
	t.Run("bad json", func(t *testing.T) {
		_, err := FromReader("", strings.NewReader(`{"objects": [`))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "failed to decode scene from json")
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := FromReader("", strings.NewReader(`{"objcts": []}`))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "objcts")
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := FromReader("", strings.NewReader(`{"objects": [], "collision": {"max_contacts": "many"}}`))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "failed to decode scene")
	})

	t.Run("every problem is reported", func(t *testing.T) {
		_, err := Read("data/invalid.json")
		test.That(t, err, test.ShouldNotBeNil)
		errs := multierr.Errors(err)
		test.That(t, errs, test.ShouldHaveLength, 6)
		for _, expected := range []string{
			`"scene.objects.0": "file or box" is required`,
			`"scene.objects.1": "box" cannot be combined with file`,
			`"bv"`,
			`"timeout" cannot be negative`,
			`"scene.collision"`,
			`"scene.distance"`,
		} {
			test.That(t, err.Error(), test.ShouldContainSubstring, expected)
		}
	})

	t.Run("object count", func(t *testing.T) {
		_, err := FromReader("", strings.NewReader(`{"objects": [{"box": {"x": 1, "y": 1, "z": 1}}]}`))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "must hold 2 objects, got 1")
	})
}

func TestObjectConfigValidate(t *testing.T) {
	for _, tc := range []struct {
		name string
		obj  ObjectConfig
		err  string
	}{
		{"box", ObjectConfig{Box: &Translation{1, 2, 3}}, ""},
		{"mesh", ObjectConfig{File: "part.PLY"}, ""},
		{"flat box", ObjectConfig{Box: &Translation{1, 0, 3}}, "dimensions must be finite and positive"},
		{"stl", ObjectConfig{File: "part.stl"}, `unsupported extension ".stl"`},
		{"leaf size", ObjectConfig{File: "part.json", MaxLeafSize: -2}, `"max_leaf_size" cannot be negative`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.obj.Validate("obj")
			if tc.err == "" {
				test.That(t, err, test.ShouldBeNil)
				return
			}
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.err)
		})
	}
}
