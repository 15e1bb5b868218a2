package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// run and compare
	preset     string
	configFile string
	integrator string
	dt         float64
	t0         float64
	t1         float64
	seed       int64
	validate   bool
	watch      bool
	limit      int
	// sweep
	dts       []float64
	tolerance float64
	// plot and export
	maxPlots int
	svgPath  string
	// lyapunov
	perturbation float64
	saturation   float64
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "verlet",
		Short:         "velocity verlet particle integrator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			initConfig()
		},
	}

	rootCmd.PersistentFlags().String("data", ".verlet", "data directory")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("data", rootCmd.PersistentFlags().Lookup("data"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "integrate a scenario and store the trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	addProblemFlags(runCmd)
	runCmd.Flags().BoolVar(&watch, "watch", false, "show live progress (q to stop)")

	compareCmd := &cobra.Command{
		Use:   "compare [scenario]",
		Short: "run every integrator on a scenario and compare energy drift",
		Args:  cobra.ExactArgs(1),
		RunE:  compareIntegrators,
	}
	addProblemFlags(compareCmd)
	compareCmd.Flags().IntVar(&limit, "jobs", 0, "concurrent runs (0 = unbounded)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored coordinates against time",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&maxPlots, "max", 6, "maximum number of coordinates to plot")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON, or its orbits as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&svgPath, "svg", "", "write particle tracks to this SVG file instead")

	sweepCmd := &cobra.Command{
		Use:   "sweep [scenario]",
		Short: "energy drift against step size for every integrator",
		Args:  cobra.ExactArgs(1),
		RunE:  sweepStepSize,
	}
	addProblemFlags(sweepCmd)
	sweepCmd.Flags().Float64SliceVar(&dts, "dts", []float64{0.1, 0.05, 0.025, 0.0125}, "step sizes to try")
	sweepCmd.Flags().Float64Var(&tolerance, "tol", 1e-3, "energy drift tolerance")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "dominant frequency of each stored coordinate",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov [scenario]",
		Short: "estimate the largest Lyapunov exponent of a scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  lyapunovExponent,
	}
	addProblemFlags(lyapunovCmd)
	lyapunovCmd.Flags().Float64Var(&perturbation, "eps", 1e-8, "initial shift of the first coordinate")
	lyapunovCmd.Flags().Float64Var(&saturation, "saturation", 1, "ignore samples once the runs are this far apart (0 = never)")

	batchCmd := &cobra.Command{
		Use:   "batch [plan.yaml]",
		Short: "run and store every step of a plan",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().IntVar(&limit, "jobs", 0, "concurrent runs (0 = unbounded)")

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list scenarios, integrators and presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, batchCmd, compareCmd, sweepCmd, lyapunovCmd, listCmd, plotCmd, exportCmd, analyzeCmd, presetsCmd)
	return rootCmd
}

func addProblemFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "start from a named preset")
	cmd.Flags().StringVar(&configFile, "config", "", "scenario config file (yaml)")
	cmd.Flags().StringVar(&integrator, "integrator", "verlet", "integration scheme")
	cmd.Flags().Float64Var(&dt, "dt", 0.01, "time step")
	cmd.Flags().Float64Var(&t0, "t0", 0, "start time")
	cmd.Flags().Float64Var(&t1, "t1", 10, "end time")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().BoolVar(&validate, "validate", false, "abort when the state turns NaN or Inf")
}

// initConfig layers ~/.verlet/config.yaml and VERLET_* variables under the
// persistent flags, then sets up logging.
func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".verlet"))
	}
	viper.SetEnvPrefix("VERLET")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	readErr := viper.ReadInConfig()

	setupLogging(viper.GetString("log-level"))

	var notFound viper.ConfigFileNotFoundError
	switch {
	case readErr == nil:
		log.Debug().Str("file", viper.ConfigFileUsed()).Msg("using config file")
	case !errors.As(readErr, &notFound):
		log.Warn().Err(readErr).Msg("ignoring config file")
	}
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
	if err != nil {
		log.Warn().Str("level", level).Msg("unknown log level, using info")
	}
}

func dataDir() string {
	return viper.GetString("data")
}
