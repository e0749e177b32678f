package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ironsheep/image-anonymizer/internal/config"
	"github.com/ironsheep/image-anonymizer/internal/logger"
	"github.com/ironsheep/image-anonymizer/internal/pipeline"
	"github.com/ironsheep/image-anonymizer/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and --help before flag parsing
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("image-anonymizer %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		}
	}

	args := os.Args[1:]
	serve := len(args) > 0 && args[0] == "serve"
	if serve {
		args = args[1:]
	}

	fs := flag.NewFlagSet("image-anonymizer", flag.ExitOnError)
	fs.Usage = printUsage
	var (
		configPath = fs.String("config", "", "Configuration file path (default: ./anonymizer.yaml if present)")
		outputDir  = fs.String("output", "", "Output directory for artifacts (overrides output.dir)")
		workers    = fs.Int("workers", 0, "Number of images processed concurrently (overrides pipeline.workers)")
		logLevel   = fs.String("log-level", "", "Log level: debug, info, warn, error (overrides logging.level)")
		noObjects  = fs.Bool("no-objects", false, "Disable object detection")
	)
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	ov := overrides{
		outputDir: *outputDir,
		workers:   *workers,
		logLevel:  *logLevel,
		noObjects: *noObjects,
	}
	ov.apply(cfg)
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if serve {
		if err := runServer(cfg, *configPath, ov, log); err != nil {
			log.Fatal("Server error", zap.Error(err))
		}
		return
	}

	if fs.NArg() == 0 {
		printUsage()
		os.Exit(1)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, finishing images in progress...")
		cancel()
	}()

	failed, err := runBatch(ctx, cfg, fs.Args(), log)
	if err != nil {
		log.Error("Anonymization failed", zap.Error(err))
		os.Exit(1)
	}
	if failed {
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("image-anonymizer - redact addresses and license plates from images")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  image-anonymizer [options] <image|directory>...")
	fmt.Println("  image-anonymizer serve [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config PATH      Configuration file (YAML)")
	fmt.Println("  --output DIR       Output directory for artifacts")
	fmt.Println("  --workers N        Images processed concurrently")
	fmt.Println("  --log-level LEVEL  debug, info, warn, or error")
	fmt.Println("  --no-objects       Disable object detection")
	fmt.Println("  --version, -v      Print version information")
	fmt.Println("  --help, -h         Print this help message")
	fmt.Println()
	fmt.Println("For each image four artifacts are written to the output directory:")
	fmt.Println("  <name>_original.jpg, <name>_blurred.jpg, <name>_heatmap.jpg,")
	fmt.Println("  <name>_anonymization_report.txt")
	fmt.Println()
	fmt.Println("Environment variables override configuration keys, e.g.:")
	fmt.Printf("  %s_OUTPUT_DIR=/tmp/out  %s_LOGGING_LEVEL=debug\n", config.EnvPrefix, config.EnvPrefix)
	fmt.Println()
	fmt.Println("'serve' speaks MCP over stdin/stdout. Configure it in your MCP client.")
}

// overrides holds the command line values that take precedence over the
// configuration file, including after a reload.
type overrides struct {
	outputDir string
	workers   int
	logLevel  string
	noObjects bool
}

// apply copies non-zero command line values over cfg.
func (o overrides) apply(cfg *config.Config) {
	if o.outputDir != "" {
		cfg.Output.Dir = o.outputDir
	}
	if o.workers > 0 {
		cfg.Pipeline.Workers = o.workers
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.noObjects {
		cfg.Objects.Enabled = false
	}
}

// runBatch anonymizes every input and prints one line per image to stdout.
// It reports whether any image failed.
func runBatch(ctx context.Context, cfg *config.Config, inputs []string, log *logger.Logger) (bool, error) {
	paths, err := collectInputs(inputs)
	if err != nil {
		return false, err
	}
	if len(paths) == 0 {
		return false, errors.New("no supported images found (png, jpg, jpeg)")
	}

	p, err := pipeline.Build(cfg, log)
	if err != nil {
		return false, err
	}
	defer p.Close()

	log.Info("Starting anonymization",
		zap.String("version", Version),
		zap.Int("images", len(paths)),
		zap.String("output_dir", cfg.Output.Dir),
		zap.Int("workers", cfg.Pipeline.Workers),
	)

	outcomes, summary, err := p.Batch(ctx, paths, cfg.Output.Dir, cfg.Pipeline.Workers)

	for i, o := range outcomes {
		if o == nil {
			continue
		}
		fmt.Printf("%s: %d region(s) -> %s\n", paths[i], len(o.Regions), o.Artifacts.Blurred)
	}
	for _, e := range multierr.Errors(err) {
		fmt.Fprintf(os.Stderr, "error: %v\n", e)
	}
	fmt.Printf("%d processed, %d failed, %d skipped, %d with sensitive content\n",
		summary.Succeeded, summary.Failed, summary.Skipped, summary.Sensitive)

	return err != nil, nil
}

// runServer serves MCP over stdio. With an explicit config file, edits are
// picked up without a restart by rebuilding the pipeline.
func runServer(cfg *config.Config, configPath string, ov overrides, log *logger.Logger) error {
	p, err := pipeline.Build(cfg, log)
	if err != nil {
		return err
	}

	srv := server.New(p, server.Options{
		OutputDir: cfg.Output.Dir,
		Version:   Version,
		Logger:    log,
	})
	defer func() {
		if last := srv.SetPipeline(nil); last != nil {
			last.Close()
		}
	}()

	if configPath != "" {
		err := config.Watch(configPath, func(next *config.Config) {
			ov.apply(next)
			np, err := pipeline.Build(next, log)
			if err != nil {
				log.Warn("Config reload rejected", zap.Error(err))
				return
			}
			if old := srv.SetPipeline(np); old != nil {
				old.Close()
			}
			srv.SetOutputDir(next.Output.Dir)
			log.Info("Configuration reloaded",
				zap.String("config", configPath),
				zap.String("output_dir", next.Output.Dir),
				zap.Bool("objects", next.Objects.Enabled),
			)
		}, func(err error) {
			log.Warn("Config reload rejected", zap.Error(err))
		})
		if err != nil {
			log.Warn("Config watch disabled", zap.Error(err))
		}
	}

	log.Info("MCP server ready",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("commit", GitCommit),
	)

	return srv.Run()
}
