package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/scenariolab/scenariolab/scenario"
)

var (
	scenarioFile string // Path to the scenario template YAML
	scenarioID   string // Scenario identifier ("name" or "name:version")
	seed         int64  // Seed for reproducible sampling
	episodes     int    // Number of episodes to resolve
	numEnv       int    // Parallel environment replication count
	logLevel     string // Log verbosity level
	showStats    bool   // Print per-path sampling statistics after all episodes
)

// resolveCmd materializes one concrete configuration per episode from a
// scenario template.
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a scenario template into concrete episode configurations",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if scenarioFile == "" {
			logrus.Fatalf("Scenario template file not provided.")
		}
		data, err := os.ReadFile(scenarioFile)
		if err != nil {
			logrus.Fatalf("Unable to read scenario template: %v", err)
		}

		cfg := scenario.Config{ScenarioID: scenarioID, NumEnv: numEnv}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = &seed
		}

		if err := resolveEpisodes(os.Stdout, data, cfg, episodes, showStats); err != nil {
			logrus.Fatalf("Resolution failed: %v", err)
		}
	},
}

// resolveEpisodes runs the resolve loop, writing one YAML document per
// episode followed by its sampled values.
func resolveEpisodes(w io.Writer, template []byte, cfg scenario.Config, episodes int, withStats bool) error {
	s, err := scenario.New(template, cfg)
	if err != nil {
		return err
	}
	logrus.Infof("Resolving scenario %s:%d for %d episode(s), seed=%d", s.ID(), s.Version(), episodes, s.Seed())

	stats := scenario.NewStats()
	for i := 0; i < episodes; i++ {
		res, err := s.Resolve()
		if err != nil {
			return err
		}
		doc, err := res.YAML()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "---\n# episode %d\n%s", i, doc)
		for _, path := range sortedPaths(res.Values) {
			fmt.Fprintf(w, "# %s = %v\n", path, res.Values[path])
		}
		stats.Record(res.Values)
	}

	if withStats {
		printStats(w, stats)
	}
	return nil
}

func printStats(w io.Writer, stats *scenario.Stats) {
	fmt.Fprintln(w, "---\n# sampling statistics")
	summaries := stats.Summaries()
	for _, path := range sortedSummaryPaths(summaries) {
		s := summaries[path]
		fmt.Fprintf(w, "# %s: n=%d mean=%.4f std=%.4f min=%.4f max=%.4f\n",
			path, s.Count, s.Mean, s.Std, s.Min, s.Max)
	}
	for path, counts := range stats.Counts() {
		fmt.Fprintf(w, "# %s: %v\n", path, counts)
	}
}

func sortedPaths(values map[string]any) []string {
	paths := make([]string, 0, len(values))
	for p := range values {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func sortedSummaryPaths(summaries map[string]scenario.Summary) []string {
	paths := make([]string, 0, len(summaries))
	for p := range summaries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// init sets up CLI flags and subcommands
func init() {
	resolveCmd.Flags().StringVar(&scenarioFile, "scenario", "", "Path to the scenario template YAML")
	resolveCmd.Flags().StringVar(&scenarioID, "scenario-id", "", "Scenario identifier (\"name\" or \"name:version\")")
	resolveCmd.Flags().Int64Var(&seed, "seed", 0, "Seed for reproducible sampling (omit for a time-derived seed)")
	resolveCmd.Flags().IntVar(&episodes, "episodes", 1, "Number of episodes to resolve")
	resolveCmd.Flags().IntVar(&numEnv, "num-env", 0, "Replicate sampled values across this many parallel environments")
	resolveCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	resolveCmd.Flags().BoolVar(&showStats, "stats", false, "Print per-path sampling statistics after all episodes")

	rootCmd.AddCommand(resolveCmd)
}
