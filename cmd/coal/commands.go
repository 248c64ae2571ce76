package main

import (
	"fmt"
	"math"
	"time"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/lmontaut/coal/collision"
	"github.com/lmontaut/coal/config"
	"github.com/lmontaut/coal/logging"
	"github.com/lmontaut/coal/query"
	"github.com/lmontaut/coal/spatialmath"
)

// command runs one query kind over loaded objects and writes its report to c.App.Writer.
type command[P collision.Primitive[P]] func(c *cli.Context, logger logging.Logger, scene *config.Scene, objs *config.Objects[P]) error

// action reads the scene and runs the box command when every object is a box, the mesh command otherwise.
func action(
	logger *logging.Logger,
	meshCmd command[*spatialmath.Triangle],
	boxCmd command[*spatialmath.Box],
) cli.ActionFunc {
	return func(c *cli.Context) error {
		scene, err := config.Read(c.String(flagScene))
		if err != nil {
			return err
		}
		if scene.AllBoxes() && !c.Bool(flagMesh) {
			objs, err := scene.LoadBoxes()
			if err != nil {
				return err
			}
			return boxCmd(c, *logger, scene, objs)
		}
		objs, err := scene.LoadMeshes()
		if err != nil {
			return err
		}
		return meshCmd(c, *logger, scene, objs)
	}
}

func collideCommand[P collision.Primitive[P]](
	c *cli.Context, logger logging.Logger, scene *config.Scene, objs *config.Objects[P],
) error {
	opts, err := scene.Options(logger)
	if err != nil {
		return err
	}
	req := scene.Collision.Request()
	res := query.NewCollisionResult()
	if err := collision.Collide(objs.Models[0], objs.Poses[0], objs.Models[1], objs.Poses[1], req, res, opts...); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "%s and %s collide: %t\n", objs.Names[0], objs.Names[1], res.IsCollision())
	if req.EnableDistanceLowerBound {
		fmt.Fprintf(c.App.Writer, "distance lower bound: %.6f\n", res.DistanceLowerBound)
	}
	if !res.IsCollision() {
		return nil
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "B1", "B2", "Depth", "Normal", "Position"})
	for i, contact := range res.Contacts() {
		t.AppendRow(table.Row{
			i, contact.B1, contact.B2,
			fmt.Sprintf("%.6f", contact.PenetrationDepth),
			formatVector(contact.Normal),
			formatVector(contact.Pos),
		})
	}
	fmt.Fprintln(c.App.Writer, t.Render())
	return nil
}

func distanceCommand[P collision.Primitive[P]](
	c *cli.Context, logger logging.Logger, scene *config.Scene, objs *config.Objects[P],
) error {
	opts, err := scene.Options(logger)
	if err != nil {
		return err
	}
	res := query.NewDistanceResult()
	if err := collision.Distance(objs.Models[0], objs.Poses[0], objs.Models[1], objs.Poses[1],
		scene.Distance.Request(), res, opts...); err != nil {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Object", "Primitive", "Nearest Point"})
	t.AppendRow(table.Row{objs.Names[0], res.Primitive1, formatVector(res.NearestPoints[0])})
	t.AppendRow(table.Row{objs.Names[1], res.Primitive2, formatVector(res.NearestPoints[1])})
	t.AppendFooter(table.Row{"Distance", fmt.Sprintf("%.6f", res.MinDistance), ""})
	fmt.Fprintln(c.App.Writer, t.Render())
	return nil
}

func toiCommand[P collision.Primitive[P]](
	c *cli.Context, logger logging.Logger, scene *config.Scene, objs *config.Objects[P],
) error {
	opts, err := scene.Options(logger)
	if err != nil {
		return err
	}
	res, err := collision.ContinuousCollide(objs.Models[0], objs.Motions[0], objs.Models[1], objs.Motions[1],
		scene.ContinuousRequest(), opts...)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "%s and %s collide: %t\n", objs.Names[0], objs.Names[1], res.IsCollide)
	fmt.Fprintf(c.App.Writer, "time of contact: %.6f after %d iterations\n", res.TimeOfContact, res.Iterations)
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Object", "Translation", "Orientation"})
	for i, pose := range []spatialmath.Pose{res.ContactTf1, res.ContactTf2} {
		aa := pose.Orientation().AxisAngles()
		t.AppendRow(table.Row{
			objs.Names[i],
			formatVector(pose.Point()),
			fmt.Sprintf("TH:%.2f about X:%.3f, Y:%.3f, Z:%.3f", aa.Theta*180/math.Pi, aa.RX, aa.RY, aa.RZ),
		})
	}
	fmt.Fprintln(c.App.Writer, t.Render())
	return nil
}

func benchCommand[P collision.Primitive[P]](
	c *cli.Context, logger logging.Logger, scene *config.Scene, objs *config.Objects[P],
) error {
	runs := c.Int(flagRuns)
	if runs < 1 {
		return errors.Errorf("--%s must be at least 1, got %d", flagRuns, runs)
	}

	var run func(opts []collision.Option) error
	switch q := c.String(flagQuery); q {
	case queryCollide:
		req := scene.Collision.Request()
		run = func(opts []collision.Option) error {
			return collision.Collide(objs.Models[0], objs.Poses[0], objs.Models[1], objs.Poses[1], req,
				query.NewCollisionResult(), opts...)
		}
	case queryDistance:
		req := scene.Distance.Request()
		run = func(opts []collision.Option) error {
			return collision.Distance(objs.Models[0], objs.Poses[0], objs.Models[1], objs.Poses[1], req,
				query.NewDistanceResult(), opts...)
		}
	default:
		return errors.Errorf("unknown query %q, expected %s or %s", q, queryCollide, queryDistance)
	}

	latencies := make(stats.Float64Data, 0, runs)
	for i := 0; i < runs; i++ {
		opts, err := scene.Options(logger)
		if err != nil {
			return err
		}
		start := time.Now()
		if err := run(opts); err != nil {
			return errors.Wrapf(err, "run %d", i)
		}
		latencies = append(latencies, float64(time.Since(start).Microseconds()))
	}

	summary, err := summarize(latencies)
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.SetTitle("%s over %d runs (us)", c.String(flagQuery), runs)
	t.AppendHeader(table.Row{"Min", "Mean", "Median", "P95", "Max", "Std Dev"})
	t.AppendRow(table.Row{
		summary.min, fmt.Sprintf("%.1f", summary.mean), summary.median, summary.p95, summary.max,
		fmt.Sprintf("%.1f", summary.stdDev),
	})
	fmt.Fprintln(c.App.Writer, t.Render())
	return nil
}

type latencySummary struct {
	min, mean, median, p95, max, stdDev float64
}

func summarize(data stats.Float64Data) (latencySummary, error) {
	var s latencySummary
	var errs, err error
	s.min, err = stats.Min(data)
	errs = multierr.Append(errs, err)
	s.mean, err = stats.Mean(data)
	errs = multierr.Append(errs, err)
	s.median, err = stats.Median(data)
	errs = multierr.Append(errs, err)
	s.p95, err = stats.Percentile(data, 95)
	errs = multierr.Append(errs, err)
	s.max, err = stats.Max(data)
	errs = multierr.Append(errs, err)
	s.stdDev, err = stats.StandardDeviation(data)
	errs = multierr.Append(errs, err)
	return s, errs
}

func formatVector(v r3.Vector) string {
	return fmt.Sprintf("X:%.4f, Y:%.4f, Z:%.4f", v.X, v.Y, v.Z)
}
