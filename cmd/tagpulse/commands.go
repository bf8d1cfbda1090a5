// cmd/tagpulse/commands.go

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"

	"tagpulse/internal/adapter/storage"
	"tagpulse/internal/domain/thread"
	"tagpulse/internal/domain/trend"
	"tagpulse/internal/logging"
)

type threadOutput struct {
	Depths  []thread.RootDepth     `json:"depths"`
	Chains  []thread.Chain         `json:"chains"`
	Pending []thread.CommentRecord `json:"pending,omitempty"`
	Forest  thread.Forest          `json:"forest,omitempty"`
}

func runTrending(cctx *cli.Context) error {
	var items []trend.Item
	if err := readSnapshot(cctx, &items); err != nil {
		return err
	}

	return writeJSON(cctx, trend.ComputeTrending(items, cctx.Int("top")))
}

func runRecommend(cctx *cli.Context) error {
	threshold := cctx.Float64("threshold")
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("threshold must be within [0, 1], got %v", threshold)
	}

	var items []trend.Item
	if err := readSnapshot(cctx, &items); err != nil {
		return err
	}

	res := trend.ComputeTrending(items, trend.DefaultTopN)
	return writeJSON(cctx, res.Recommend(cctx.String("label"), threshold, cctx.Int("top-k")))
}

func runThreads(cctx *cli.Context) error {
	policy, err := thread.ParseOrphanPolicy(cctx.String("orphans"))
	if err != nil {
		return err
	}

	var comments []thread.CommentRecord
	if err := readSnapshot(cctx, &comments); err != nil {
		return err
	}

	roots, pending := thread.BuildForest(comments, policy)
	out := threadOutput{
		Depths:  thread.RootDepths(roots),
		Chains:  thread.FindViralChains(roots, cctx.Int("min-depth")),
		Pending: pending,
	}
	if cctx.Bool("tree") {
		out.Forest = roots
	}

	logging.Debug().Int("comments", len(comments)).Int("roots", len(roots)).Int("chains", len(out.Chains)).
		Msg("threads analysed")
	return writeJSON(cctx, out)
}

func runMigrate(cctx *cli.Context) error {
	if err := storage.RunMigrations(cctx.String("database-url")); err != nil {
		return err
	}
	fmt.Fprintln(cctx.App.Writer, "migrations applied")
	return nil
}

func runSeed(cctx *cli.Context) error {
	db, err := storage.Connect(cctx.Context, cctx.String("database-url"), storage.PoolOptions{MaxConns: 2})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := storage.SeedDemo(cctx.Context, db); err != nil {
		return err
	}
	fmt.Fprintln(cctx.App.Writer, "demo dataset loaded")
	return nil
}

// readSnapshot decodes the JSON array named by --file into dst.
func readSnapshot(cctx *cli.Context, dst interface{}) error {
	name := cctx.String("file")

	var r io.Reader
	if name == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(name)
		if err != nil {
			return fmt.Errorf("failed to open snapshot: %w", err)
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode snapshot %s: %w", name, err)
	}
	return nil
}

func writeJSON(cctx *cli.Context, v interface{}) error {
	enc := json.NewEncoder(cctx.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
