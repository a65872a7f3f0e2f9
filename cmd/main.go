// File: main.go

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"wlan-analyzer/pkg/config"
	"wlan-analyzer/pkg/database"
	"wlan-analyzer/pkg/errclass"
	"wlan-analyzer/pkg/export"
	"wlan-analyzer/pkg/metrics"
	"wlan-analyzer/pkg/models"
	"wlan-analyzer/pkg/orchestrator"
	"wlan-analyzer/pkg/probes"
)

var (
	debugFlag bool
	logger    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "wlan-analyzer",
	Short: "A tool for measuring wireless LAN performance",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Set up logging based on the debug flag
		var logLevel slog.Level
		if debugFlag {
			logLevel = slog.LevelDebug
		} else {
			logLevel = slog.LevelInfo
		}

		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
		slog.SetDefault(logger)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one measurement cycle and print a summary",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			logger.Error("Error loading configuration", "error", err)
			os.Exit(1)
		}

		engine, cleanup, err := buildEngine(cmd, cfg)
		if err != nil {
			logger.Error("Error building measurement engine", "error", err)
			os.Exit(1)
		}
		defer cleanup()

		plan, err := buildPlan(cmd, engine.orch, cfg)
		if err != nil {
			logger.Error("Error building measurement plan", "error", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		outcome, err := engine.orch.Run(ctx, plan)
		if err != nil {
			logger.Error("Error running measurement cycle", "error", err)
			os.Exit(1)
		}

		printSummary(outcome)
		if len(outcome.Errors) > 0 {
			os.Exit(1)
		}
	},
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run measurement cycles continuously until interrupted",
	Long: `Run the default measurement plan repeatedly, paced by the configured
scan interval, and serve Prometheus metrics while running. Stops cleanly
on SIGINT or SIGTERM and prints a session summary.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			logger.Error("Error loading configuration", "error", err)
			os.Exit(1)
		}

		engine, cleanup, err := buildEngine(cmd, cfg)
		if err != nil {
			logger.Error("Error building measurement engine", "error", err)
			os.Exit(1)
		}
		defer cleanup()

		if err := metrics.Register(engine.orch); err != nil {
			logger.Error("Error registering metrics listeners", "error", err)
			os.Exit(1)
		}

		addr := viper.GetString("metrics.listen_address")
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: addr, Handler: mux}
		go func() {
			logger.Info("Serving metrics", "address", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
		defer srv.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		interval := time.Duration(cfg.ScanInterval) * time.Second
		limiter := rate.NewLimiter(rate.Every(interval), 1)

		plan := engine.orch.DefaultPlan()
		var cycles, failedCycles int

		logger.Info("Starting monitor mode", "interval", interval)
		for {
			if err := limiter.Wait(ctx); err != nil {
				break
			}

			outcome, err := engine.orch.Run(ctx, plan)
			if err != nil {
				logger.Error("Error running measurement cycle", "error", err)
				os.Exit(1)
			}
			cycles++
			if len(outcome.Errors) > 0 {
				failedCycles++
			}
		}

		fmt.Printf("\nMonitor session finished: %d cycles, %d with errors\n", cycles, failedCycles)
		stats := engine.errs.Stats()
		if len(stats) > 0 {
			fmt.Println("Recorded errors by type:")
			types := make([]string, 0, len(stats))
			for t := range stats {
				types = append(types, string(t))
			}
			sort.Strings(types)
			for _, t := range types {
				fmt.Printf("  %-20s %d\n", t, stats[errclass.ErrorType(t)])
			}
		}
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check measurement prerequisites without running probes",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			logger.Error("Error loading configuration", "error", err)
			os.Exit(1)
		}

		engine, cleanup, err := buildEngine(cmd, cfg)
		if err != nil {
			logger.Error("Error building measurement engine", "error", err)
			os.Exit(1)
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ok, issues := engine.orch.ValidatePrerequisites(ctx)
		if ok {
			fmt.Println("All prerequisites satisfied")
			return
		}
		fmt.Println("Prerequisite validation failed:")
		for _, issue := range issues {
			fmt.Printf("  - %s\n", issue)
		}
		os.Exit(1)
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "Write a commented default configuration file",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := "config.yaml"
		if len(args) > 0 {
			path = args[0]
		}
		if err := config.WriteDefault(path); err != nil {
			logger.Error("Error writing config file", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote default configuration to %s\n", path)
	},
}

// engine bundles the orchestrator with the collaborators the commands need
// to reach after construction.
type engine struct {
	orch *orchestrator.Orchestrator
	errs *errclass.Handler
}

func loadConfig(cmd *cobra.Command) (*models.Configuration, error) {
	if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
		viper.Set("output.data_directory", dir)
	}
	return config.Load()
}

// buildEngine wires the prober, export sinks and error handler into an
// orchestrator. The returned cleanup closes the database connection, if any.
func buildEngine(cmd *cobra.Command, cfg *models.Configuration) (*engine, func(), error) {
	prober := probes.NewSystemProber(cfg, logger)
	errs := errclass.NewHandler(logger)

	csvSink, err := export.NewCSVSink(cfg.OutputDir, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating CSV sink: %v", err)
	}
	sinks := export.MultiSink{csvSink}

	cleanup := func() {}
	useDB := viper.GetBool("export.database")
	if flagDB, _ := cmd.Flags().GetBool("db"); flagDB {
		useDB = true
	}
	if useDB {
		db, err := initDB()
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, export.NewDBSink(db))
		cleanup = func() { db.Close() }
	}

	orch := orchestrator.New(cfg, prober, sinks, errs, logger)
	return &engine{orch: orch, errs: errs}, cleanup, nil
}

// buildPlan translates the run command's flags and optional plan file into a
// measurement plan.
func buildPlan(cmd *cobra.Command, orch *orchestrator.Orchestrator, cfg *models.Configuration) (orchestrator.Plan, error) {
	var plan orchestrator.Plan

	planPath, _ := cmd.Flags().GetString("plan")
	probeNames, _ := cmd.Flags().GetStringSlice("probes")

	switch {
	case planPath != "":
		pf, err := config.LoadPlanFile(planPath)
		if err != nil {
			return plan, err
		}
		plan = orch.CustomPlan(pf.Kinds(), pf.TimeoutOverrides(), pf.ParamOverrides(cfg))
		plan.ContinueOnFailure = !pf.StopOnFailure
	case len(probeNames) > 0:
		kinds := make([]models.MeasurementKind, 0, len(probeNames))
		for _, name := range probeNames {
			k, err := models.ParseKind(name)
			if err != nil {
				return plan, err
			}
			kinds = append(kinds, k)
		}
		plan = orch.CustomPlan(kinds, nil, nil)
	default:
		plan = orch.DefaultPlan()
	}

	if noValidate, _ := cmd.Flags().GetBool("no-validate"); noValidate {
		plan.ValidatePrerequisites = false
	}
	if noExport, _ := cmd.Flags().GetBool("no-export"); noExport {
		plan.ExportResults = false
	}
	if stopOnFailure, _ := cmd.Flags().GetBool("stop-on-failure"); stopOnFailure {
		plan.ContinueOnFailure = false
	}
	return plan, nil
}

func printSummary(outcome *orchestrator.RunOutcome) {
	fmt.Printf("Measurement %s completed in %s\n", outcome.MeasurementID, outcome.Elapsed.Round(time.Millisecond))
	for _, kind := range models.AllKinds() {
		status, ok := outcome.StepStatus[kind]
		if !ok {
			continue
		}
		fmt.Printf("  %-16s %s\n", kind, status)
	}
	if rec := outcome.Record; rec != nil {
		if w := rec.LinkInfo; w != nil {
			fmt.Printf("  link: %s ch%d %ddBm (quality %d%%)\n", w.SSID, w.Channel, w.RSSI, w.LinkQuality)
		}
		if l := rec.Latency; l != nil {
			fmt.Printf("  latency: %.1fms avg, %.1f%% loss (%s)\n", l.AvgRTT, l.PacketLossPct, l.Target)
		}
		if t := rec.ThroughputTCP; t != nil {
			fmt.Printf("  tcp: %.1f Mbps up / %.1f Mbps down\n", t.UploadMbps, t.DownloadMbps)
		}
		if u := rec.ThroughputUDP; u != nil {
			fmt.Printf("  udp: %.1f Mbps, %.1f%% loss, %.2fms jitter\n", u.ThroughputMbps, u.PacketLossPct, u.JitterMs)
		}
		if ft := rec.BulkTransfer; ft != nil {
			fmt.Printf("  transfer: %.1f MB/s (%s)\n", ft.SpeedMBps, ft.Direction)
		}
	}
	for _, w := range outcome.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	for _, e := range outcome.Errors {
		fmt.Printf("  error: %s\n", e)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "Enable debug logging")

	runCmd.Flags().StringSlice("probes", nil, "Comma-separated probe kinds to run (default: all)")
	runCmd.Flags().String("plan", "", "Path to a YAML plan file")
	runCmd.Flags().Bool("no-validate", false, "Skip prerequisite validation")
	runCmd.Flags().Bool("no-export", false, "Do not export results")
	runCmd.Flags().Bool("stop-on-failure", false, "Stop the cycle at the first failed step")
	runCmd.Flags().String("output-dir", "", "Override the output data directory")
	runCmd.Flags().Bool("db", false, "Also export results into PostgreSQL")

	monitorCmd.Flags().String("output-dir", "", "Override the output data directory")
	monitorCmd.Flags().Bool("db", false, "Also export results into PostgreSQL")

	validateCmd.Flags().String("output-dir", "", "Override the output data directory")
	validateCmd.Flags().Bool("db", false, "Also export results into PostgreSQL")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(initConfigCmd)
}

func initConfig() {
	config.SetDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.wlan-analyzer")
	viper.AddConfigPath("/etc/wlan-analyzer/")

	if err := viper.ReadInConfig(); err != nil {
		// Defaults cover every key, so a missing file is fine.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}

func initDB() (*database.DB, error) {
	db, err := database.NewDB()
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %v", err)
	}

	err = db.InitSchema(context.Background())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %v", err)
	}

	return db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
