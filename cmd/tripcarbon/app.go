package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/NERVsystems/tripcarbon/pkg/config"
	"github.com/NERVsystems/tripcarbon/pkg/decision"
	"github.com/NERVsystems/tripcarbon/pkg/monitoring"
	"github.com/NERVsystems/tripcarbon/pkg/osm"
	"github.com/NERVsystems/tripcarbon/pkg/refdata"
	"github.com/NERVsystems/tripcarbon/pkg/server"
	"github.com/NERVsystems/tripcarbon/pkg/timeframe"
	"github.com/NERVsystems/tripcarbon/pkg/tools"
	"github.com/NERVsystems/tripcarbon/pkg/tracing"
	"github.com/NERVsystems/tripcarbon/pkg/trip"
	"github.com/NERVsystems/tripcarbon/pkg/version"
)

// app holds everything a subcommand needs
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *refdata.Store
	estimator *trip.Estimator
	geocoder  *osm.Geocoder
	router    *osm.Router
}

func (a *app) close() {
	if a.geocoder != nil {
		a.geocoder.Close()
	}
}

func loadConfig(g *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// newApp loads configuration and reference data and assembles the
// estimator. With online set the estimator can geocode and route through
// the configured OSM services.
func newApp(g *globalFlags, online bool) (*app, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	store, err := loadReferenceData(cfg.ReferenceData)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, store: store}
	model := trip.Model{Source: store, Fallbacks: store.Fallbacks()}

	if online {
		client := osm.NewClient(
			osm.WithUserAgent(cfg.UserAgent),
			osm.WithLogger(logger),
			osm.WithRetryOptions(osm.RetryOptions{
				MaxAttempts:  cfg.Retry.MaxAttempts,
				InitialDelay: cfg.Retry.InitialDelay,
				MaxDelay:     cfg.Retry.MaxDelay,
				Multiplier:   osm.DefaultRetryOptions.Multiplier,
			}),
			osm.WithRateLimit(tracing.ServiceNominatim, cfg.Nominatim.RPS, cfg.Nominatim.Burst),
			osm.WithRateLimit(tracing.ServiceOSRM, cfg.OSRM.RPS, cfg.OSRM.Burst),
		)
		a.geocoder = osm.NewGeocoder(client, osm.GeocoderOptions{
			BaseURL:   cfg.Nominatim.BaseURL,
			CacheTTL:  cfg.Nominatim.CacheTTL,
			CacheSize: cfg.Nominatim.CacheSize,
		})
		a.router, err = osm.NewRouter(client, osm.RouterOptions{
			BaseURL:   cfg.OSRM.BaseURL,
			Profile:   cfg.OSRM.Profile,
			CacheSize: cfg.OSRM.CacheSize,
		})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to create router: %w", err)
		}
		model.Geocoder = a.geocoder
		model.Router = a.router
	}

	engineOpts := []decision.Option{decision.WithLogger(logger)}
	if cfg.Monitoring.Enabled {
		engineOpts = append(engineOpts, decision.WithHooks(monitoring.DecisionHooks()))
		osm.SetMonitoringHooks(monitoring.OSMHooks())
	}

	a.estimator, err = trip.NewEstimator(model,
		trip.WithConcurrency(cfg.Estimate.Concurrency),
		trip.WithEngineOptions(engineOpts...),
	)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create estimator: %w", err)
	}
	return a, nil
}

func loadReferenceData(path string) (*refdata.Store, error) {
	if path == "" {
		return refdata.Default()
	}
	store, err := refdata.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference data: %w", err)
	}
	return store, nil
}

func serveCmd(g *globalFlags) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the estimator as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), g, offline)
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Disable geocoding and routing")
	return cmd
}

func runServe(ctx context.Context, g *globalFlags, offline bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(g, !offline)
	if err != nil {
		return err
	}
	defer a.close()
	logger := a.logger

	shutdownTracing, err := tracing.InitTracing(ctx, version.Version, tracing.OptionsFromEnv())
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
	} else {
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				logger.Error("error shutting down tracing", "error", err)
			}
		}()
	}

	filter, err := a.cfg.Filter()
	if err != nil {
		return err
	}
	registry := tools.NewRegistry(logger, a.estimator,
		tools.WithDefaultFilter(filter),
		tools.WithTimeout(a.cfg.Estimate.Timeout),
	)

	logger.Info("starting tripcarbon MCP server",
		"version", version.Version,
		"log_level", a.cfg.LogLevel,
		"online", !offline,
		"user_agent", a.cfg.UserAgent,
		"comply", filter.String(),
		"monitoring_enabled", a.cfg.Monitoring.Enabled)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.Monitoring.Enabled {
		stopMonitoring := startMonitoring(ctx, a, registry)
		defer stopMonitoring()
	}

	s := server.NewServer(registry, logger)
	if err := s.RunWithContext(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// startMonitoring runs the metrics/health/API server and the upstream
// connection monitors. The returned func stops them.
func startMonitoring(ctx context.Context, a *app, registry *tools.Registry) func() {
	logger := a.logger
	health := monitoring.NewHealthChecker(monitoring.ServiceName, version.Version)
	health.SetDataset(a.store.Counts())
	health.SetInfo("online", strconv.FormatBool(a.geocoder != nil))
	if a.cfg.ReferenceData != "" {
		health.SetInfo("reference_data", a.cfg.ReferenceData)
	} else {
		health.SetInfo("reference_data", "builtin")
	}
	if filter, err := a.cfg.Filter(); err == nil {
		health.SetInfo("comply", filter.String())
	}

	var monitors []*monitoring.ConnectionMonitor
	if a.geocoder != nil {
		monitors = append(monitors, monitoring.NewConnectionMonitor(tracing.ServiceNominatim, health, a.geocoder.CheckHealth, a.cfg.Monitoring.CheckInterval))
	}
	if a.router != nil {
		monitors = append(monitors, monitoring.NewConnectionMonitor(tracing.ServiceOSRM, health, a.router.CheckHealth, a.cfg.Monitoring.CheckInterval))
	}
	for _, m := range monitors {
		m.SetSlowThreshold(5 * time.Second)
		m.Start()
	}

	httpCfg := server.DefaultHTTPConfig()
	httpCfg.Addr = a.cfg.Monitoring.Addr
	httpCfg.AuthToken = a.cfg.Monitoring.AuthToken
	httpSrv := server.NewHTTPServer(httpCfg, server.NewHandler(logger, registry, health), logger)

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown HTTP server", "error", err)
		}
		for _, m := range monitors {
			m.Stop()
		}
		health.Shutdown()
	}
}

func estimateCmd(g *globalFlags) *cobra.Command {
	var (
		file   string
		from   string
		until  string
		comply []string
		online bool
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate one trip or a JSON array of trips",
		Long: `Estimate reads a trip as a JSON object, or several trips as a JSON array,
from --file (or stdin when --file is "-" or omitted) and writes the
estimate as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("failed to open trip file: %w", err)
				}
				defer f.Close()
				in = f
			}
			return runEstimate(cmd.Context(), g, in, cmd.OutOrStdout(), estimateOptions{
				from:      from,
				until:     until,
				comply:    comply,
				complySet: cmd.Flags().Changed("comply"),
				online:    online,
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Trip JSON file (default stdin)")
	cmd.Flags().StringVar(&from, "from", "", "Timeframe start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&until, "until", "", "Timeframe end, exclusive (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&comply, "comply", nil, "Restrict methods to these standards")
	cmd.Flags().BoolVar(&online, "online", false, "Allow geocoding and routing through OSM services")
	return cmd
}

type estimateOptions struct {
	from, until string
	comply      []string
	complySet   bool
	online      bool
}

func runEstimate(ctx context.Context, g *globalFlags, in io.Reader, out io.Writer, opts estimateOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(g, opts.online)
	if err != nil {
		return err
	}
	defer a.close()

	tf, err := timeframe.Parse(opts.from, opts.until)
	if err != nil {
		return err
	}

	filter, err := a.cfg.Filter()
	if err != nil {
		return err
	}
	if opts.complySet {
		if filter, err = decision.ParseFilter(opts.comply); err != nil {
			return err
		}
	}

	if a.cfg.Estimate.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Estimate.Timeout)
		defer cancel()
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read trips: %w", err)
	}
	data = bytes.TrimSpace(data)

	var result any
	if len(data) > 0 && data[0] == '[' {
		var trips []trip.Trip
		if err := json.Unmarshal(data, &trips); err != nil {
			return fmt.Errorf("failed to parse trips: %w", err)
		}
		if result, err = a.estimator.EstimateAll(ctx, trips, tf, filter); err != nil {
			return err
		}
	} else {
		var t trip.Trip
		if len(data) > 0 {
			if err := json.Unmarshal(data, &t); err != nil {
				return fmt.Errorf("failed to parse trip: %w", err)
			}
		}
		if result, err = a.estimator.Estimate(ctx, t, tf, filter); err != nil {
			return err
		}
	}

	return writeJSON(out, result)
}

func committeesCmd(g *globalFlags) *cobra.Command {
	var quantity string

	cmd := &cobra.Command{
		Use:   "committees",
		Short: "Describe the committees and quorums of the trip model",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(g, false)
			if err != nil {
				return err
			}
			defer a.close()

			desc, err := tools.DescribeCommittees(a.estimator.Registry(), quantity)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), desc)
		},
	}
	cmd.Flags().StringVarP(&quantity, "quantity", "q", "", "Only describe this quantity")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
