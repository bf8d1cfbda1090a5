// cmd/tagpulse/main.go

package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"tagpulse/internal/domain/thread"
	"tagpulse/internal/domain/trend"
	"tagpulse/internal/logging"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logging.Fatal().Err(err).Msg("tagpulse failed")
	}
}

func newApp() *cli.App {
	app := &cli.App{
		Name:  "tagpulse",
		Usage: "hashtag trend and comment thread analysis over JSON snapshots",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(cctx *cli.Context) error {
			logging.Init(logging.Config{Level: cctx.String("log-level"), Format: "console", Output: cctx.App.ErrWriter})
			return nil
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:  "trending",
			Usage: "rank hashtags of an item snapshot",
			Flags: []cli.Flag{
				fileFlag(),
				&cli.IntFlag{Name: "top", Value: trend.DefaultTopN},
			},
			Action: runTrending,
		},
		{
			Name:  "recommend",
			Usage: "recommend hashtags that co-occur with a label",
			Flags: []cli.Flag{
				fileFlag(),
				&cli.StringFlag{Name: "label", Required: true},
				&cli.Float64Flag{Name: "threshold", Value: trend.DefaultThreshold},
				&cli.IntFlag{Name: "top-k", Value: trend.DefaultTopK},
			},
			Action: runRecommend,
		},
		{
			Name:  "threads",
			Usage: "measure reply depths and viral chains of a comment snapshot",
			Flags: []cli.Flag{
				fileFlag(),
				&cli.IntFlag{Name: "min-depth", Value: thread.DefaultMinDepth},
				&cli.StringFlag{Name: "orphans", Value: thread.OrphanAsRoot.String(), Usage: "root, drop or defer"},
				&cli.BoolFlag{Name: "tree", Usage: "include the reconstructed forest"},
			},
			Action: runThreads,
		},
		{
			Name:   "migrate",
			Usage:  "apply the database schema",
			Flags:  []cli.Flag{dbFlag()},
			Action: runMigrate,
		},
		{
			Name:   "seed",
			Usage:  "replace database content with the demo dataset",
			Flags:  []cli.Flag{dbFlag()},
			Action: runSeed,
		},
	}
	return app
}

func fileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "JSON snapshot to read, - for stdin",
		Required: true,
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "database-url",
		Usage:    "postgres connection URL",
		EnvVars:  []string{"DATABASE_URL"},
		Required: true,
	}
}
