// knxgraph imports an ETS project archive (.knxproj) and writes the
// resolved project as topology and group address graphs.
//
//	knxgraph [-config path] [-password pw] [-lang code] [-style 3|2|free|project]
//	         [-format json|cbor] [-out file] [-record] project.knxproj
//
// With -record, or database.enabled in the configuration, the outcome is
// also stored in the import history database and, when enabled, published
// over MQTT and written to InfluxDB.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nerrad567/knxgraph-core/internal/commissioning/etsimport"
	"github.com/nerrad567/knxgraph-core/internal/commissioning/history"
	"github.com/nerrad567/knxgraph-core/internal/commissioning/pipeline"
	"github.com/nerrad567/knxgraph-core/internal/commissioning/topograph"
	"github.com/nerrad567/knxgraph-core/internal/infrastructure/config"
	"github.com/nerrad567/knxgraph-core/internal/infrastructure/database"
	"github.com/nerrad567/knxgraph-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/knxgraph-core/internal/infrastructure/logging"
	"github.com/nerrad567/knxgraph-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/knxgraph-core/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// configEnv names the config file when -config is not given.
const configEnv = "KNXGRAPH_CONFIG"

// healthCheckTimeout bounds the sink health checks after connecting.
const healthCheckTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cliOptions are the parsed command line.
type cliOptions struct {
	configPath string
	password   string
	language   string
	style      string
	format     string
	outPath    string
	record     bool
	input      string
}

var errUsage = errors.New("usage: knxgraph [flags] project.knxproj")

func parseFlags(args []string) (*cliOptions, error) {
	opts := &cliOptions{}
	fs := flag.NewFlagSet("knxgraph", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.configPath, "config", os.Getenv(configEnv), "configuration file")
	fs.StringVar(&opts.password, "password", "", "project password for encrypted archives")
	fs.StringVar(&opts.language, "lang", "", "preferred translation language, e.g. de-DE")
	fs.StringVar(&opts.style, "style", "", "group address style: 3, 2, free or project")
	fs.StringVar(&opts.format, "format", "", "output format: json or cbor")
	fs.StringVar(&opts.outPath, "out", "", "output file (default stdout)")
	fs.BoolVar(&opts.record, "record", false, "record the import in history, MQTT and InfluxDB")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return nil, errUsage
	}
	opts.input = fs.Arg(0)
	return opts, nil
}

// run is the application logic, separated from main for testability.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := logging.New(cfg.Logging, version)
	log.Debug("starting knxgraph", "version", version, "commit", commit, "build_date", date)

	format, err := topograph.ParseFormat(firstSet(opts.format, cfg.Import.OutputFormat))
	if err != nil {
		return err
	}

	data, err := os.ReadFile(opts.input)
	if err != nil {
		return fmt.Errorf("reading project: %w", err)
	}

	svcCfg := pipeline.Config{
		Limits: pipeline.Limits{
			MaxArchiveBytes:      cfg.MaxArchiveBytes(),
			MaxUncompressedBytes: cfg.MaxUncompressedBytes(),
		},
		DefaultLanguage: cfg.Import.Language,
		DefaultStyle:    cfg.Import.GroupAddressStyle,
		Logger:          log.Logger,
	}
	if opts.record || cfg.Database.Enabled {
		closeSinks, sinkErr := openSinks(ctx, cfg, log, &svcCfg)
		defer closeSinks()
		if sinkErr != nil {
			return sinkErr
		}
	}

	res, err := pipeline.NewService(svcCfg).Import(ctx, pipeline.Request{
		Filename: filepath.Base(opts.input),
		Data:     data,
		Password: opts.password,
		Language: opts.language,
		Style:    styleName(opts.style),
	})
	switch {
	case errors.Is(err, etsimport.ErrPasswordRequired):
		return fmt.Errorf("%s is password protected, pass -password", opts.input)
	case errors.Is(err, etsimport.ErrInvalidPassword):
		return fmt.Errorf("wrong password for %s", opts.input)
	case err != nil:
		return err
	}

	return writeGraphs(res.Graphs, format, opts.outPath, stdout)
}

// openSinks connects the history database and, when enabled, MQTT and
// InfluxDB into svcCfg. The returned func closes whatever was opened.
func openSinks(ctx context.Context, cfg *config.Config, log *logging.Logger, svcCfg *pipeline.Config) (func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return closeAll, fmt.Errorf("opening database: %w", err)
	}
	closers = append(closers, func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	})
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		return closeAll, fmt.Errorf("running migrations: %w", err)
	}

	checks := []sinkCheck{{name: "database", checker: db}}

	repo := history.NewSQLiteRepository(db.DB)
	svcCfg.Repository = repo
	if retention := cfg.RetentionPeriod(); retention > 0 {
		removed, pruneErr := repo.DeleteBefore(ctx, time.Now().Add(-retention))
		if pruneErr != nil {
			log.Warn("pruning import history failed", "error", pruneErr)
		} else if removed > 0 {
			log.Info("pruned import history", "removed", removed)
		}
	}

	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			return closeAll, fmt.Errorf("connecting to MQTT: %w", err)
		}
		closers = append(closers, func() {
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		})
		svcCfg.Publisher = pipeline.NewMQTTPublisher(mqttClient)
		checks = append(checks, sinkCheck{name: "MQTT", checker: mqttClient})
		log.Debug("MQTT connected", "broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port))
	}

	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return closeAll, fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		closers = append(closers, func() {
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		})
		svcCfg.Recorder = pipeline.NewInfluxRecorder(influxClient)
		checks = append(checks, sinkCheck{name: "InfluxDB", checker: influxClient})
		log.Debug("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	return closeAll, healthCheck(ctx, checks)
}

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

type sinkCheck struct {
	name    string
	checker healthChecker
}

// healthCheck verifies every opened sink within healthCheckTimeout and
// reports the first failure.
func healthCheck(ctx context.Context, checks []sinkCheck) error {
	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	for _, c := range checks {
		if err := c.checker.HealthCheck(checkCtx); err != nil {
			return fmt.Errorf("%s health check: %w", c.name, err)
		}
	}
	return nil
}

// writeGraphs encodes graphs to path, or to stdout when path is empty.
func writeGraphs(graphs topograph.ProjectGraphs, format topograph.Format, path string, stdout io.Writer) (err error) {
	if path == "" {
		return topograph.Encode(stdout, graphs, format)
	}

	f, err := os.Create(path) //nolint:gosec // Operator-supplied output path
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing output: %w", closeErr)
		}
	}()
	return topograph.Encode(f, graphs, format)
}

// styleName accepts the short -style spellings.
func styleName(style string) string {
	switch style {
	case "3":
		return "three_level"
	case "2":
		return "two_level"
	default:
		return style
	}
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
