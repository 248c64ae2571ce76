// Package main is the coal command line: collision, distance and time of contact queries over a scene
// file.
package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/lmontaut/coal/logging"
	"github.com/lmontaut/coal/spatialmath"
)

const (
	// Flags.
	flagScene    = "scene"
	flagDebug    = "debug"
	flagLogLevel = "log-level"
	flagMesh     = "mesh"
	flagRuns     = "runs"
	flagQuery    = "query"

	queryCollide  = "collide"
	queryDistance = "distance"
)

func newApp() *cli.App {
	var logger logging.Logger

	return &cli.App{
		Name:  "coal",
		Usage: "collision and distance queries between two objects",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagScene,
				Aliases:  []string{"s"},
				Required: true,
				Usage:    "load the scene from `FILE`",
			},
			&cli.BoolFlag{
				Name:  flagMesh,
				Usage: "query boxes as triangle meshes",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging, overriding --log-level",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Value: "info",
				Usage: "lowest level logged, one of debug, info, warn or error",
			},
		},
		Before: func(c *cli.Context) error {
			level, err := logging.LevelFromString(c.String(flagLogLevel))
			if err != nil {
				return err
			}
			if c.Bool(flagDebug) {
				logger = logging.NewDebugLogger("coal")
			} else {
				logger = logging.NewLogger("coal")
				logger.SetLevel(level)
			}
			// queries started without an explicit logger use the global one
			logging.ReplaceGlobal(logger)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "collide",
				Usage:  "list the contacts between the objects at their start poses",
				Action: action(&logger, collideCommand[*spatialmath.Triangle], collideCommand[*spatialmath.Box]),
			},
			{
				Name:   "distance",
				Usage:  "measure the distance between the objects at their start poses",
				Action: action(&logger, distanceCommand[*spatialmath.Triangle], distanceCommand[*spatialmath.Box]),
			},
			{
				Name:   "toi",
				Usage:  "find when the objects first touch along their motions",
				Action: action(&logger, toiCommand[*spatialmath.Triangle], toiCommand[*spatialmath.Box]),
			},
			{
				Name:  "bench",
				Usage: "time repeated queries and summarize their latency",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagRuns,
						Value: 100,
						Usage: "number of queries to time",
					},
					&cli.StringFlag{
						Name:  flagQuery,
						Value: queryDistance,
						Usage: "query to time, collide or distance",
					},
				},
				Action: action(&logger, benchCommand[*spatialmath.Triangle], benchCommand[*spatialmath.Box]),
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
