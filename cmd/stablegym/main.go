package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/san-kum/stablegym/internal/analysis"
	"github.com/san-kum/stablegym/internal/automation"
	"github.com/san-kum/stablegym/internal/config"
	"github.com/san-kum/stablegym/internal/disturb"
	"github.com/san-kum/stablegym/internal/experiment"
	"github.com/san-kum/stablegym/internal/sim"
	"github.com/san-kum/stablegym/internal/storage"
)

var (
	dataDir  string
	logLevel string
	// Config file and preset
	configFile string
	preset     string
	// Rollout overrides
	seed       uint64
	episodes   int
	maxSteps   int
	policy     string
	integrator string
	costType   string
	fixedInit  bool
	strict     bool
	runs       int
	noSave     bool
	params     map[string]string
	// PID gains
	kp     float64
	ki     float64
	kd     float64
	target float64
	// Sweep and tune
	sweepParam  string
	sweepValues []float64
	gridSpecs   []string
	outFile     string
	// Analysis
	obsIndex int
)

func main() {
	for _, envFile := range []string{".env", "../../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	rootCmd := &cobra.Command{
		Use:          "stablegym",
		Short:        "cost-based control environments and rollouts",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", envOr("STABLEGYM_DATA", ".stablegym"), "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("STABLEGYM_LOG_LEVEL", "info"), "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [env]",
		Short: "roll a policy out in an environment",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRollout,
	}
	addRolloutFlags(runCmd)
	runCmd.Flags().IntVar(&runs, "runs", 1, "independent runs executed concurrently")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	envsCmd := &cobra.Command{
		Use:   "envs",
		Short: "list registered environments",
		RunE:  listEnvs,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [env]",
		Short: "list available presets for an environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for env: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			if sp, ok := disturb.Presets[args[0]]; ok {
				fmt.Printf("sweep: %s (%s over %v)\n", sp.Description, sp.Param, sp.Values)
			}
			return nil
		},
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [env]",
		Short: "rerun an environment over values of one parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addRolloutFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "sweep", "", "parameter to sweep (default: the env's sweep preset)")
	sweepCmd.Flags().Float64SliceVar(&sweepValues, "values", nil, "values to sweep")

	tuneCmd := &cobra.Command{
		Use:   "tune [env]",
		Short: "grid-search parameters for the lowest episode cost",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTune,
	}
	addRolloutFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&gridSpecs, "grid", nil, "name=lo:hi:n, repeatable")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "summarise and find the dominant period of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&obsIndex, "index", 0, "observation element to analyse")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of rollouts from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	rootCmd.AddCommand(runCmd, listCmd, exportJSONCmd, envsCmd, presetsCmd, sweepCmd, tuneCmd, analyzeCmd, scenarioCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRolloutFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Uint64Var(&seed, "seed", uint64(time.Now().UnixNano()), "random seed")
	cmd.Flags().IntVar(&episodes, "episodes", config.DefaultEpisodes, "episodes per run")
	cmd.Flags().IntVar(&maxSteps, "steps", 0, "max steps per episode (default: catalog limit)")
	cmd.Flags().StringVar(&policy, "policy", config.DefaultPolicy, "policy (none, constant, random, pid, lqr)")
	cmd.Flags().StringVar(&integrator, "integrator", "", "integrator or cart-pole kinematics")
	cmd.Flags().StringVar(&costType, "cost-type", "", "cart-pole cost (stabilization, reference)")
	cmd.Flags().BoolVar(&fixedInit, "fixed-init", false, "start from the documented initial state")
	cmd.Flags().BoolVar(&strict, "strict", false, "reject out-of-space actions instead of clipping")
	cmd.Flags().StringToStringVar(&params, "param", nil, "environment parameter override name=value")
	cmd.Flags().Float64Var(&kp, "kp", config.DefaultKp, "pid kp")
	cmd.Flags().Float64Var(&ki, "ki", config.DefaultKi, "pid ki")
	cmd.Flags().Float64Var(&kd, "kd", config.DefaultKd, "pid kd")
	cmd.Flags().Float64Var(&target, "target", 0.0, "pid target")
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func setupLogging(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	slog.SetDefault(slog.New(h))
	return nil
}

// loadConfig layers defaults, preset, config file and flags, in that order.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	env := ""
	if len(args) > 0 {
		env = args[0]
	}

	if preset != "" {
		if env == "" {
			return nil, fmt.Errorf("--preset needs an env argument")
		}
		p := config.GetPreset(env, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(env))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if env != "" {
		cfg.Env = env
	}
	flags := cmd.Flags()
	if flags.Changed("seed") || configFile == "" {
		cfg.Seed = seed
	}
	if flags.Changed("episodes") {
		cfg.Episodes = episodes
	}
	if flags.Changed("steps") {
		cfg.MaxEpisodeSteps = maxSteps
	}
	if flags.Changed("policy") {
		cfg.Policy = policy
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("cost-type") {
		cfg.CostType = costType
	}
	if flags.Changed("fixed-init") {
		cfg.FixedInit = fixedInit
	}
	if flags.Changed("strict") {
		cfg.ClipAction = !strict
	}
	if flags.Changed("kp") {
		cfg.PolicyParams.Kp = kp
	}
	if flags.Changed("ki") {
		cfg.PolicyParams.Ki = ki
	}
	if flags.Changed("kd") {
		cfg.PolicyParams.Kd = kd
	}
	if flags.Changed("target") {
		cfg.PolicyParams.Target = target
	}
	if len(params) > 0 {
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64)
		}
		for name, raw := range params {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("param %s: %w", name, err)
			}
			cfg.Params[name] = v
		}
	}

	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runRollout(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	catalog := experiment.NewCatalog(slog.Default())
	exp, err := experiment.New(catalog, cfg, slog.Default())
	if err != nil {
		return err
	}

	fmt.Printf("running %s (%s policy, seed %d)...\n", cfg.Env, cfg.Policy, cfg.Seed)
	start := time.Now()

	var results []*sim.Result
	if runs > 1 {
		factory, err := catalog.Factory(cfg)
		if err != nil {
			return err
		}
		results, err = sim.NewEnsemble(factory, runs, cfg.Seed, slog.Default()).Run(ctx, exp.SimConfig())
		if err != nil {
			return err
		}
	} else {
		res, err := exp.Run(ctx)
		if err != nil {
			return err
		}
		results = []*sim.Result{res}
	}
	fmt.Printf("completed in %v\n", time.Since(start))

	st := storage.New(dataDir)
	if !noSave {
		if err := st.Init(); err != nil {
			return err
		}
	}

	for i, res := range results {
		fmt.Printf("\nrun %d: %d steps, mean episode cost %.6f", i, res.StepsTaken, res.MeanReturn())
		if exp.Solved(res) {
			fmt.Print(" (solved)")
		}
		fmt.Println()
		for name, val := range res.Metrics {
			fmt.Printf("  %s: %.6f\n", name, val)
		}
		if noSave {
			continue
		}
		runID, err := st.Save(storage.RunMetadata{
			Env:             cfg.Env,
			Seed:            cfg.Seed + uint64(i*cfg.Episodes),
			Episodes:        cfg.Episodes,
			MaxEpisodeSteps: exp.SimConfig().MaxEpisodeSteps,
			Dt:              exp.Env().Dt(),
			Integrator:      cfg.Integrator,
			Policy:          cfg.Policy,
			Params:          cfg.Params,
		}, res)
		if err != nil {
			return err
		}
		fmt.Printf("  run id: %s\n", runID)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tENV\tTIME\tEPISODES\tSTEPS\tPOLICY\tMEAN COST")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%.4f\n",
			run.ID,
			run.Env,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Episodes,
			run.Steps,
			run.Policy,
			run.MeanReturn,
		)
	}

	return w.Flush()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if outFile == "" {
		return st.ExportJSON(args[0], os.Stdout)
	}

	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	if err := st.ExportJSON(args[0], f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func listEnvs(cmd *cobra.Command, args []string) error {
	catalog := experiment.NewCatalog(slog.Default())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMAX STEPS\tTHRESHOLD\tDESCRIPTION")
	for _, name := range catalog.Names() {
		spec, err := catalog.Spec(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%.0f\t%s\n", spec.Name, spec.MaxEpisodeSteps, spec.RewardThreshold, spec.Description)
	}
	fmt.Fprintf(w, "\npolicies: %s\n", strings.Join(catalog.PolicyNames(), ", "))
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	name, values := sweepParam, sweepValues
	if name == "" {
		sp, ok := disturb.Presets[cfg.Env]
		if !ok {
			return fmt.Errorf("no sweep preset for %s (presets exist for %v), pass --sweep and --values", cfg.Env, disturb.PresetNames())
		}
		name = sp.Param
		if len(values) == 0 {
			values = sp.Values
		}
	}
	if len(values) == 0 {
		return fmt.Errorf("--values is required with --sweep")
	}

	ctx, cancel := signalContext()
	defer cancel()

	exp, err := experiment.New(experiment.NewCatalog(slog.Default()), cfg, slog.Default())
	if err != nil {
		return err
	}
	points, err := exp.Sweep(ctx, name, values)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tMEAN COST\tSOLVED\n", strings.ToUpper(name))
	for _, p := range points {
		fmt.Fprintf(w, "%.4f\t%.6f\t%v\n", p.Value, p.MeanReturn, p.MeanReturn <= exp.Spec().RewardThreshold)
	}
	return w.Flush()
}

// parseGrid parses name=lo:hi:n into a name and n evenly spaced values.
func parseGrid(spec string) (string, []float64, error) {
	name, rng, ok := strings.Cut(spec, "=")
	if !ok {
		return "", nil, fmt.Errorf("grid %q: want name=lo:hi:n", spec)
	}
	parts := strings.Split(rng, ":")
	if len(parts) != 3 {
		return "", nil, fmt.Errorf("grid %q: want name=lo:hi:n", spec)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, fmt.Errorf("grid %q: %w", spec, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, fmt.Errorf("grid %q: %w", spec, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 {
		return "", nil, fmt.Errorf("grid %q: bad point count %q", spec, parts[2])
	}
	return name, disturb.Linspace(lo, hi, n), nil
}

func runTune(cmd *cobra.Command, args []string) error {
	if len(gridSpecs) == 0 {
		return fmt.Errorf("at least one --grid is required")
	}
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(gridSpecs))
	ranges := make([][]float64, 0, len(gridSpecs))
	for _, spec := range gridSpecs {
		name, values, err := parseGrid(spec)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	ctx, cancel := signalContext()
	defer cancel()

	exp, err := experiment.New(experiment.NewCatalog(slog.Default()), cfg, slog.Default())
	if err != nil {
		return err
	}
	best, score, err := exp.Tune(ctx, names, ranges)
	if err != nil {
		return err
	}

	fmt.Printf("best mean episode cost: %.6f\n", score)
	for _, name := range names {
		fmt.Printf("  %s = %.6f\n", name, best[name])
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	transitions, err := st.LoadTransitions(args[0])
	if err != nil {
		return err
	}

	signal := analysis.Column(transitions, obsIndex)
	fmt.Printf("run %s (%s), observation %d, %d samples\n", meta.ID, meta.Env, obsIndex, len(signal))

	sum := analysis.Summarize(signal)
	fmt.Printf("  mean %.6f  std %.6f  min %.6f  max %.6f\n", sum.Mean, sum.Std, sum.Min, sum.Max)

	costs := analysis.Summarize(analysis.Costs(transitions))
	fmt.Printf("  cost mean %.6f  max %.6f\n", costs.Mean, costs.Max)

	period, err := analysis.DominantPeriod(signal, meta.Dt)
	switch {
	case errors.Is(err, analysis.ErrFlat), errors.Is(err, analysis.ErrTooShort):
		fmt.Printf("  no dominant period: %v\n", err)
	case err != nil:
		return err
	default:
		fmt.Printf("  dominant period %.4f (time units)\n", period)
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunScenario(ctx, scenario, experiment.NewCatalog(slog.Default()), slog.Default())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tENV\tSTEPS\tMEAN COST\tSOLVED")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.6f\t%v\n", r.Label, r.Env, r.Result.StepsTaken, r.Result.MeanReturn(), r.Solved)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	solved, unsolved := automation.SolvedStats(results)
	fmt.Printf("\n%s: %d solved, %d unsolved\n", scenario.Name, solved, unsolved)
	return nil
}
