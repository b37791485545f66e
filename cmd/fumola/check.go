package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fumola-dev/fumola/model"
	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	workersFlag  int
	failFastFlag bool
)

var checkCmd = &cobra.Command{
	Use:   "check SPECFILE|DIR...",
	Short: "Run many specs concurrently and compare them to their expectations",
	Args:  cobra.MinimumNArgs(1),
	Run:   checkCommand,
}

func init() {
	checkCmd.Flags().IntVar(&workersFlag, "workers", 0, "Number of specs run at once (0 uses every CPU)")
	checkCmd.Flags().BoolVar(&failFastFlag, "fail-fast", false, "Stop scheduling specs after the first failure")
	checkCmd.Flags().IntVar(&maxRounds, "max-rounds", 0, "Override every spec's round budget")
	checkCmd.Flags().IntVar(&cacheSize, "cache-size", 10000, "Entries kept in each run's state cache")
}

// expandPaths replaces each directory argument with the TOML specs inside it.
func expandPaths(args []string) ([]string, error) {
	var out []string
	for _, a := range args {
		fi, err := os.Stat(a)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			out = append(out, a)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(a, "*.toml"))
		if err != nil {
			return nil, err
		}
		out = append(out, matches...)
	}
	return out, nil
}

func checkCommand(cmd *cobra.Command, args []string) {
	paths, err := expandPaths(args)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't collect specfiles")
	}
	if len(paths) == 0 {
		log.Fatal().Strs("args", args).Msg("No specfiles found")
	}

	fmt.Fprintln(os.Stderr, color.Cyan.Sprintf("Checking %d specs...", len(paths)))
	outcomes := model.CheckAll(context.Background(), paths, model.CheckOptions{
		Workers:   workersFlag,
		MaxRounds: maxRounds,
		CacheSize: cacheSize,
		FailFast:  failFastFlag,
	})
	fmt.Fprint(os.Stdout, model.FormatSummary(outcomes))
	for _, o := range outcomes {
		if o.Err != nil || !o.Result.Success {
			os.Exit(1)
		}
	}
}
