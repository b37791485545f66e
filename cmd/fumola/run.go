package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fumola-dev/fumola/cas"
	"github.com/fumola-dev/fumola/model"
	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	debugFlag    bool
	detailsFlag  bool
	progressFlag bool
	maxRounds    int
	cacheSize    int
)

var runCmd = &cobra.Command{
	Use:   "run SPECFILE",
	Short: "Run a program until it stops making progress",
	Args:  cobra.ExactArgs(1),
	Run:   runCommand,
}

func init() {
	runCmd.Flags().BoolVar(&debugFlag, "debug", false, "Print the system after every round")
	runCmd.Flags().BoolVar(&detailsFlag, "details", false, "Recompose and print every round's system from the store")
	runCmd.Flags().BoolVar(&progressFlag, "progress", false, "Report each round as it completes")
	runCmd.Flags().IntVar(&maxRounds, "max-rounds", 0, "Stop after this many progressing rounds (0 uses the spec's budget)")
	runCmd.Flags().IntVar(&cacheSize, "cache-size", 10000, "Entries kept in the state cache")
}

func runCommand(cmd *cobra.Command, args []string) {
	filename := args[0]
	spec, err := model.LoadSpecFromFile(filename)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't load specfile")
	}
	if maxRounds > 0 {
		spec.Spec.MaxRounds = maxRounds
	}
	store := cas.NewLRUCache(cas.NewMemoryCAS(), cacheSize)
	exec, err := spec.BuildExecutor(store)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't build executor for specfile")
	}
	if debugFlag {
		exec.DebugWriter = os.Stderr
		fmt.Fprintf(os.Stderr, "Program: %s\n\n", exec.Program)
	} else {
		exec.DebugWriter = io.Discard
	}
	if progressFlag {
		exec.Reporter = &model.ColorReporter{Writer: os.Stderr}
	}
	exec.ShowDetails = detailsFlag
	if err := exec.Initialize(); err != nil {
		log.Fatal().Err(err).Msg("Couldn't init executor engine")
	}

	fmt.Fprintln(os.Stderr, color.Cyan.Sprint("Running program..."))
	result, err := exec.Run()
	if err != nil {
		log.Fatal().Err(err).Msg("Error while running")
	}

	if exec.ShowDetails {
		model.FormatHistory(os.Stderr, result, store, true)
		stats := store.Stats()
		log.Debug().Int("size", stats.Size).Int("hits", stats.Hits).Int("misses", stats.Misses).Msg("state cache")
	}
	fmt.Fprint(os.Stdout, model.FormatResult(result))
	if !result.Success {
		os.Exit(1)
	}
}
