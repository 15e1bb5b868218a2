package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog/log"
	"github.com/san-kum/verlet/internal/automation"
	"github.com/san-kum/verlet/internal/config"
	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/experiment"
	"github.com/san-kum/verlet/internal/export"
	"github.com/san-kum/verlet/internal/metrics"
	"github.com/san-kum/verlet/internal/optim"
	"github.com/san-kum/verlet/internal/storage"
	"github.com/san-kum/verlet/internal/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func heading(format string, a ...any) {
	fmt.Println(headingStyle.Render(fmt.Sprintf(format, a...)))
}

// buildConfig resolves the scenario config. Later layers win: defaults, then
// the preset, then the config file, then flags set on the command line.
func buildConfig(flags *pflag.FlagSet, scenario string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Scenario = scenario

	if preset != "" {
		p := config.GetPreset(scenario, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(scenario))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("t0") {
		cfg.T0 = t0
	}
	if flags.Changed("t1") {
		cfg.T1 = t1
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("validate") {
		cfg.ValidateState = validate
	}

	cfg.Scenario = scenario
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd.Flags(), args[0])
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg, experiment.NewRegistry())
	if err != nil {
		return err
	}

	p := exp.Problem()
	log.Debug().
		Str("scenario", cfg.Scenario).
		Str("integrator", cfg.Integrator).
		Float64("t0", p.T0).
		Float64("t1", p.T1).
		Float64("dt", p.Dt).
		Int("samples", p.Steps()).
		Msg("starting run")

	var res *experiment.Result
	if watch {
		title := cfg.Scenario + "/" + cfg.Integrator
		err = tui.Watch(cmd.Context(), title, func(ctx context.Context, obs dynamo.Observer) error {
			var runErr error
			res, runErr = exp.Run(ctx, dynamo.Options{Observer: obs})
			return runErr
		})
	} else {
		res, err = exp.Run(cmd.Context(), dynamo.Options{})
	}
	if err != nil {
		return err
	}

	st := storage.New(dataDir())
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := saveResult(st, cfg, res)
	if err != nil {
		return err
	}
	mean, std := metrics.EnergyStats(res.Energy)

	log.Info().
		Str("run", runID).
		Dur("elapsed", res.Elapsed).
		Int("samples", res.Trajectory.Len()).
		Int("force_evals", res.Trajectory.ForceEvals).
		Msg("run complete")
	if res.EnergyDrift > 0.01 {
		log.Warn().Float64("drift", res.EnergyDrift).Msg("energy drift above 1%, consider a smaller dt")
	}

	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("samples: %d\n", res.Trajectory.Len())
	fmt.Printf("force evaluations: %d\n", res.Trajectory.ForceEvals)
	fmt.Println("\nmetrics:")
	fmt.Printf("  energy_drift: %.3e\n", res.EnergyDrift)
	fmt.Printf("  energy_mean:  %.6f\n", mean)
	fmt.Printf("  energy_std:   %.3e\n", std)
	fmt.Printf("  momentum:     %s\n", formatVec(metrics.Momentum(res.Trajectory.Final(), res.Trajectory.Mass)))

	return nil
}

func saveResult(st *storage.Store, cfg *config.Config, res *experiment.Result) (string, error) {
	mean, std := metrics.EnergyStats(res.Energy)
	return st.Save(storage.RunMetadata{
		Scenario:   cfg.Scenario,
		Integrator: res.Integrator,
		Seed:       cfg.Seed,
		T0:         cfg.T0,
		T1:         cfg.T1,
		Dt:         cfg.Dt,
		Metrics: map[string]float64{
			"energy_drift": res.EnergyDrift,
			"energy_mean":  mean,
			"energy_std":   std,
			"elapsed_ms":   float64(res.Elapsed.Microseconds()) / 1000,
		},
	}, res.Trajectory)
}

func runBatch(cmd *cobra.Command, args []string) error {
	plan, err := automation.LoadPlan(args[0])
	if err != nil {
		return err
	}
	log.Info().Str("plan", plan.Name).Int("steps", len(plan.Steps)).Msg("running plan")

	results, err := automation.Run(cmd.Context(), plan, experiment.NewRegistry(), limit)
	if err != nil {
		return err
	}

	st := storage.New(dataDir())
	if err := st.Init(); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN ID\tINTEG\tSAMPLES\tDRIFT")
	for _, r := range results {
		runID, err := saveResult(st, r.Config, r.Result)
		if err != nil {
			return fmt.Errorf("%s: %w", r.Step, err)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.3e\n", r.Step, runID, r.Integrator, r.Trajectory.Len(), r.EnergyDrift)
	}
	return w.Flush()
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd.Flags(), args[0])
	if err != nil {
		return err
	}

	reg := experiment.NewRegistry()
	exp, err := experiment.New(cfg, reg)
	if err != nil {
		return err
	}

	names := reg.ListIntegrators()
	log.Debug().Strs("integrators", names).Int("jobs", limit).Msg("comparing")

	results, err := exp.Compare(cmd.Context(), names, limit)
	if err != nil {
		return err
	}

	heading("scenario: %s  dt=%g  t=[%g, %g]", cfg.Scenario, cfg.Dt, cfg.T0, cfg.T1)
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEG\tSAMPLES\tFORCE EVALS\tDRIFT\tFINAL ENERGY\tENERGY")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.3e\t%.6f\t%s\n",
			r.Integrator,
			r.Trajectory.Len(),
			r.Trajectory.ForceEvals,
			r.EnergyDrift,
			r.Energy[len(r.Energy)-1],
			tui.Sparkline(r.Energy, 24),
		)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir())
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tINTEG\tTIME\tP×D\tSAMPLES\tDT\tDRIFT")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d×%d\t%d\t%g\t%.3e\n",
			run.ID,
			run.Scenario,
			run.Integrator,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Particles, run.Dim,
			run.Samples,
			run.Dt,
			run.Metrics["energy_drift"],
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir())
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadPositions(runID)
	if err != nil {
		return err
	}
	if len(series.Rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s (%s)\n", meta.Scenario, meta.Integrator)
	fmt.Printf("samples: %d\n\n", len(series.Rows))

	n := len(series.Columns) - 1
	if n > maxPlots {
		n = maxPlots
	}
	for j := 0; j < n; j++ {
		graph := asciigraph.Plot(series.Column(j),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(series.Columns[j+1]+" vs time"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir())
	if svgPath == "" {
		return st.Export(args[0], os.Stdout)
	}

	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	series, err := st.LoadPositions(args[0])
	if err != nil {
		return err
	}
	tracks, err := export.Tracks(series, meta.Particles, meta.Dim)
	if err != nil {
		return err
	}

	f, err := os.Create(svgPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := export.WriteSVG(f, tracks, 800, 800); err != nil {
		return err
	}
	log.Info().Str("file", svgPath).Int("tracks", len(tracks)).Msg("wrote svg")
	return nil
}

func sweepStepSize(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd.Flags(), args[0])
	if err != nil {
		return err
	}

	reg := experiment.NewRegistry()
	names := reg.ListIntegrators()
	if cmd.Flags().Changed("integrator") {
		names = []string{cfg.Integrator}
	}

	points, err := optim.NewGridSearch(names, dts).Search(cmd.Context(), cfg, reg)
	if err != nil {
		return err
	}

	heading("step size sweep: %s  t=[%g, %g]", cfg.Scenario, cfg.T0, cfg.T1)
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEG\tDT\tFORCE EVALS\tDRIFT")
	for _, p := range points {
		drift := fmt.Sprintf("%.3e", p.Drift)
		if p.Unstable {
			drift = "unstable"
		}
		fmt.Fprintf(w, "%s\t%g\t%d\t%s\n", p.Integrator, p.Dt, p.ForceEvals, drift)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	for _, name := range names {
		largest := "none"
		if dt, ok := optim.LargestDt(points, name, tolerance); ok {
			largest = fmt.Sprintf("%g", dt)
		}
		fmt.Printf("%-18s order %.2f  largest dt within %g: %s\n", name, optim.Order(points, name), tolerance, largest)
	}
	return nil
}

func lyapunovExponent(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd.Flags(), args[0])
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg, experiment.NewRegistry())
	if err != nil {
		return err
	}

	lambda, err := exp.Lyapunov(cmd.Context(), perturbation, saturation)
	if err != nil {
		return err
	}

	heading("lyapunov exponent: %s (%s)", cfg.Scenario, cfg.Integrator)
	fmt.Printf("%s %.4f\n", labelStyle.Render("λ:"), lambda)
	if lambda > 0 {
		fmt.Printf("%s %.4f\n", labelStyle.Render("e-folding time:"), 1/lambda)
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir())
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadPositions(runID)
	if err != nil {
		return err
	}
	if len(series.Rows) == 0 {
		return fmt.Errorf("no data")
	}

	heading("frequency analysis: %s", meta.ID)
	fmt.Printf("%s %s\n\n", labelStyle.Render("scenario:"), meta.Scenario)

	if power, err := metrics.PowerSpectrum(series.Column(0)); err == nil {
		graph := asciigraph.Plot(power[1:],
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum ("+series.Columns[1]+")"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COORD\tFREQ\tPERIOD")
	for j, name := range series.Columns[1:] {
		f, err := metrics.DominantFrequency(series.Column(j), meta.Dt)
		if errors.Is(err, metrics.ErrShortSeries) {
			fmt.Fprintf(w, "%s\t-\t-\n", name)
			continue
		}
		if err != nil {
			return err
		}
		period := "-"
		if f > 0 {
			period = fmt.Sprintf("%.4f", 1/f)
		}
		fmt.Fprintf(w, "%s\t%.4f\t%s\n", name, f, period)
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		presets := config.ListPresets(args[0])
		if presets == nil {
			return fmt.Errorf("no presets for scenario: %s", args[0])
		}
		fmt.Printf("presets for %s:\n", args[0])
		for _, name := range presets {
			p := config.GetPreset(args[0], name)
			fmt.Printf("  %-10s %s dt=%g t1=%g\n", name, p.Integrator, p.Dt, p.T1)
		}
		return nil
	}

	reg := experiment.NewRegistry()
	fmt.Println("scenarios:")
	for _, name := range reg.ListScenarios() {
		fmt.Printf("  %-10s %s\n", name, strings.Join(config.ListPresets(name), ", "))
	}
	fmt.Printf("\nintegrators: %s\n", strings.Join(reg.ListIntegrators(), ", "))
	return nil
}

func formatVec(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%.3e", x)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
