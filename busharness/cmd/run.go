package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/busharness/datarecording"
	"github.com/sarchlab/busharness/dut/memdut"
	"github.com/sarchlab/busharness/harness"
	"github.com/sarchlab/busharness/monitoring"
	"github.com/sarchlab/busharness/sim"
)

const recordingName = "transactions"

type runOptions struct {
	record      bool
	monitor     bool
	monitorPort int
	openBrowser bool
	seed        uint64
	verbose     bool
	parallelIDs bool
	envFiles    []string
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run [plusargs...]",
	Short: "Run the reference memory design under the harness.",
	Long: `Run the reference memory design under the harness. Arguments ` +
		`are handed to the design as they are. The exact argument +trace ` +
		`writes a waveform into the log directory.`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		atexit.Exit(runHarness(cmd, args))
	},
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	defaults := harness.DefaultConfig()
	f := cmd.Flags()

	f.Int64("release", int64(defaults.ReleaseTime),
		"time at which reset is released")
	f.Int64("deadline", int64(defaults.Deadline),
		"time at which the run is given up")
	f.Int64("quantum", int64(defaults.Quantum),
		"time advanced by each step")
	f.Int("tag-depth", defaults.TagDepth,
		"number of tags, which is also the outstanding request capacity")
	f.String("log-dir", defaults.LogDir,
		"directory for the waveform, coverage and recording")
	f.Int("trace-depth", defaults.Trace.HierarchyDepth,
		"levels of design hierarchy in the waveform")
	f.Bool("coverage", defaults.CoverageEnabled,
		"write coverage counters at the end of the run")
	f.Bool("legacy-exit-status", defaults.LegacyExitStatus,
		"exit with 0 on timeout")

	f.BoolVar(&runOpts.record, "record", false,
		"record transactions into an SQLite database in the log directory")
	f.BoolVar(&runOpts.monitor, "monitor", false,
		"serve the monitoring page while running")
	f.IntVar(&runOpts.monitorPort, "monitor-port", 0,
		"port of the monitoring server, random if not set")
	f.BoolVar(&runOpts.openBrowser, "open-browser", false,
		"open the monitoring page in a browser")
	f.Uint64Var(&runOpts.seed, "seed", 0,
		"seed for the content of memory that was never written")
	f.BoolVarP(&runOpts.verbose, "verbose", "v", false,
		"print every step")
	f.BoolVar(&runOpts.parallelIDs, "unique-ids", false,
		"use globally unique request IDs")
	f.StringSliceVar(&runOpts.envFiles, "env-file", []string{".env"},
		"files to load BUSHARNESS_* variables from")
}

// resolveConfig applies the environment on top of the defaults and then the
// flags that were set explicitly.
func resolveConfig(cmd *cobra.Command) (harness.Config, error) {
	c, err := harness.DefaultConfig().LoadEnv(runOpts.envFiles...)
	if err != nil {
		return c, err
	}

	f := cmd.Flags()

	for _, v := range []struct {
		name string
		dst  *sim.VTime
	}{
		{"release", &c.ReleaseTime},
		{"deadline", &c.Deadline},
		{"quantum", &c.Quantum},
	} {
		if f.Changed(v.name) {
			t, _ := f.GetInt64(v.name)
			*v.dst = sim.VTime(t)
		}
	}

	if f.Changed("tag-depth") {
		c.TagDepth, _ = f.GetInt("tag-depth")
	}

	if f.Changed("log-dir") {
		dir, _ := f.GetString("log-dir")
		c = c.WithLogDir(dir)
	}

	if f.Changed("trace-depth") {
		c.Trace.HierarchyDepth, _ = f.GetInt("trace-depth")
	}

	c.CoverageEnabled, _ = f.GetBool("coverage")
	c.LegacyExitStatus, _ = f.GetBool("legacy-exit-status")

	return c, nil
}

func runHarness(cmd *cobra.Command, args []string) int {
	config, err := resolveConfig(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return harness.ExitFatal
	}

	if runOpts.parallelIDs {
		sim.UseParallelIDGenerator()
	}

	model := memdut.New()
	model.Seed = runOpts.seed

	logger := log.New(os.Stdout, "", 0)
	builder := harness.MakeBuilder().
		WithConfig(config).
		WithDUT(model).
		WithArgs(args).
		WithLogger(logger)

	if runOpts.record {
		recorder, err := newRecorder(config.LogDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return harness.ExitFatal
		}

		builder = builder.WithRecorder(recorder)
	}

	h, err := builder.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return harness.ExitFatal
	}

	if runOpts.verbose {
		h.Clock().AcceptHook(sim.NewStepLogger(logger))
	}

	if runOpts.monitor {
		startMonitor(h, model)
	}

	fmt.Fprintf(os.Stderr, "Run %s\n", h.RunID())

	res, err := h.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	printResult(res)

	return res.ExitCode(config.LegacyExitStatus)
}

func newRecorder(logDir string) (datarecording.DataRecorder, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}

	path := filepath.Join(logDir, recordingName)

	err := os.Remove(path + ".sqlite3")
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return datarecording.New(path), nil
}

func startMonitor(h *harness.Harness, model *memdut.Comp) {
	m := monitoring.NewMonitor()
	if runOpts.monitorPort > 0 {
		m.WithPortNumber(runOpts.monitorPort)
	}

	if runOpts.openBrowser {
		m.WithBrowser()
	}

	m.RegisterTarget(h)
	m.TrackCompletions(model.FinishAfter)
	m.StartServer()
}

func printResult(res harness.Result) {
	fmt.Printf("Outcome: %s at %d after %d steps\n",
		res.Outcome, res.EndTime, res.Steps)
	fmt.Printf("Completed transactions: %d\n", len(res.Completed))
	fmt.Printf("Issued: %d, backpressure stalls: %d, "+
		"capacity stalls: %d, tag stalls: %d\n",
		res.Driver.Issued, res.Driver.BackpressureStalls,
		res.Driver.CapacityStalls, res.Driver.TagStalls)
	fmt.Printf("Request time: average %.2f, max %d\n",
		res.AvgRequestTime, res.MaxRequestTime)
	fmt.Printf("Bus busy time: %d\n", res.BusyTime)

	reasons := make([]string, 0, len(res.StalledRequests))
	for r := range res.StalledRequests {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)

	for _, r := range reasons {
		fmt.Printf("Requests with %s: %d\n", r, res.StalledRequests[r])
	}
}
