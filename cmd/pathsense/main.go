// Command pathsense runs the obstacle-warning pipeline over a recorded
// detection log, fanning alerts out to WebSocket clients and an optional
// haptic controller.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/banshee-data/pathsense/internal/alert"
	"github.com/banshee-data/pathsense/internal/api"
	"github.com/banshee-data/pathsense/internal/config"
	"github.com/banshee-data/pathsense/internal/footpath"
	"github.com/banshee-data/pathsense/internal/haptic"
	"github.com/banshee-data/pathsense/internal/monitoring"
	"github.com/banshee-data/pathsense/internal/pipeline"
	"github.com/banshee-data/pathsense/internal/replay"
	"github.com/banshee-data/pathsense/internal/report"
	"github.com/banshee-data/pathsense/internal/store"
	"github.com/banshee-data/pathsense/internal/version"
)

var (
	configPath  = flag.String("config", config.DefaultConfigPath, "Path to the JSON tuning config")
	replayPath  = flag.String("replay", "-", "Detection log to replay (JSON lines, - for stdin)")
	listen      = flag.String("listen", ":8090", "HTTP listen address (empty to disable)")
	grpcListen  = flag.String("grpc-listen", "", "gRPC health listen address (empty to disable)")
	hapticPort  = flag.String("haptic-port", "", "Serial port of the haptic controller (empty to disable)")
	hapticBaud  = flag.Int("haptic-baud", haptic.DefaultBaudRate, "Haptic controller baud rate")
	dbFile      = flag.String("db", "pathsense.db", "Path to the SQLite session store (empty to disable)")
	reportHTML  = flag.String("report-html", "", "Write an HTML session report to this path")
	reportDir   = flag.String("report-dir", "", "Write PNG session plots into this directory")
	linger      = flag.Bool("linger", false, "Keep serving HTTP after the replay ends, until interrupted")
	verbose     = flag.Bool("verbose", false, "Log session lifecycle and diagnostics")
	debugLog    = flag.String("debug-log", "", "Append per-frame trace logs to this file")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// options is the resolved flag set; run takes it so tests can drive a
// whole session without touching globals.
type options struct {
	replayPath string
	listen     string
	grpcListen string
	hapticPort string
	hapticBaud int
	dbFile     string
	reportHTML string
	reportDir  string
	linger     bool
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("pathsense"))
		return
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	closeLogs, err := configureLogging(*verbose, *debugLog)
	if err != nil {
		log.Fatalf("failed to configure logging: %v", err)
	}
	defer closeLogs()

	tuning, err := loadTuning(*configPath, os.LookupEnv)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("starting %s", version.String("pathsense"))
	err = run(ctx, tuning, options{
		replayPath: *replayPath,
		listen:     *listen,
		grpcListen: *grpcListen,
		hapticPort: *hapticPort,
		hapticBaud: *hapticBaud,
		dbFile:     *dbFile,
		reportHTML: *reportHTML,
		reportDir:  *reportDir,
		linger:     *linger,
	})
	if err != nil {
		log.Fatalf("pathsense: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}

// configureLogging routes the per-package ops/diag/trace streams. ops
// always goes to stderr.
func configureLogging(verbose bool, tracePath string) (func(), error) {
	var diag, trace io.Writer
	if verbose {
		diag = os.Stderr
	}
	closer := func() {}
	if tracePath != "" {
		f, err := os.OpenFile(tracePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return closer, err
		}
		trace = f
		closer = func() { f.Close() }
	}
	pipeline.SetLogWriters(os.Stderr, diag, trace)
	alert.SetLogWriters(os.Stderr, diag, trace)
	store.SetLogWriters(os.Stderr, diag, trace)
	monitoring.SetOutput(os.Stderr)
	return closer, nil
}

// loadTuning reads the config file, falling back to built-in defaults when
// the default path is absent, then applies PATHSENSE_* overrides.
func loadTuning(path string, lookup func(string) (string, bool)) (*config.TuningConfig, error) {
	var tuning *config.TuningConfig
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && path == config.DefaultConfigPath {
		log.Printf("%s not found, using built-in defaults", path)
		tuning = config.DefaultTuningConfig()
	} else {
		tuning, err = config.LoadTuningConfig(path)
		if err != nil {
			return nil, err
		}
	}
	if err := tuning.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	return tuning, nil
}

func openSource(path string) (*replay.Source, string, error) {
	if path == "" || path == "-" {
		return replay.NewSource(os.Stdin), "stdin", nil
	}
	src, err := replay.Open(path)
	if err != nil {
		return nil, "", err
	}
	return src, path, nil
}

func run(ctx context.Context, tuning *config.TuningConfig, opts options) error {
	src, sourceName, err := openSource(opts.replayPath)
	if err != nil {
		return fmt.Errorf("open replay: %w", err)
	}
	defer src.Close()

	var st *store.Store
	if opts.dbFile != "" {
		st, err = store.Open(opts.dbFile)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
		if err := st.MigrateUp(); err != nil {
			return fmt.Errorf("migrate store: %w", err)
		}
	}

	// serveCtx outlives the replay when lingering.
	serveCtx, cancelServe := context.WithCancel(ctx)
	defer cancelServe()

	hub := alert.NewHub(nil)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(serveCtx)
	}()

	sinks := []alert.Sink{hub}
	if opts.hapticPort != "" {
		hs, err := haptic.Open(opts.hapticPort, haptic.PortOptions{BaudRate: opts.hapticBaud})
		if err != nil {
			return fmt.Errorf("open haptic controller: %w", err)
		}
		defer hs.Close()
		sinks = append(sinks, hs)
		log.Printf("haptic controller on %s", opts.hapticPort)
	}

	var traceMu sync.Mutex
	trace := report.NewTrace("")
	p := pipeline.New(pipeline.ConfigFromTuning(tuning), replay.Detector{},
		pipeline.WithDepth(footpath.DistanceZones{}),
		pipeline.WithSinks(sinks...),
		pipeline.WithObserver(func(r pipeline.Result) {
			traceMu.Lock()
			defer traceMu.Unlock()
			trace.Add(r)
		}),
	)
	trace.SessionID = p.SessionID()
	log.Printf("session %s reading from %s", p.SessionID(), sourceName)

	health := api.NewHealth()
	if opts.grpcListen != "" {
		lis, err := net.Listen("tcp", opts.grpcListen)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := api.ServeGRPC(serveCtx, lis, health); err != nil {
				log.Printf("gRPC health server error: %v", err)
			}
		}()
	}

	if opts.listen != "" {
		srv := api.NewServer(p, tuning)
		srv.Events = http.HandlerFunc(hub.ServeWS)
		srv.Report = func(w io.Writer) error {
			traceMu.Lock()
			defer traceMu.Unlock()
			return report.WriteHTML(w, trace)
		}
		mux := srv.ServeMux()
		if st != nil {
			srv.Sessions = st
			if err := st.AttachAdminRoutes(mux); err != nil {
				return fmt.Errorf("attach admin routes: %w", err)
			}
		}
		server := &http.Server{
			Addr:              opts.listen,
			Handler:           api.LoggingMiddleware(mux),
			ReadHeaderTimeout: 5 * time.Second,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Printf("HTTP server error: %v", err)
				}
			}()

			<-serveCtx.Done()
			log.Println("shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Printf("HTTP server shutdown error: %v", err)
				if err := server.Close(); err != nil {
					log.Printf("HTTP server force close error: %v", err)
				}
			}
		}()
	}

	health.SetServing(true)
	runErr := p.Run(ctx, src)
	p.Stop()
	health.SetServing(false)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	sum := p.Summary(sourceName)
	log.Printf("session %s: %d frames accepted, %d dropped, threshold %.2f, mean latency %v",
		sum.SessionID, sum.FramesAccepted, sum.FramesDropped, sum.ScoreThreshold, sum.MeanLatency)

	if st != nil {
		if err := st.RecordSession(context.Background(), sum); err != nil {
			log.Printf("failed to record session: %v", err)
		}
	}

	traceMu.Lock()
	if err := writeReports(trace, opts.reportHTML, opts.reportDir); err != nil {
		log.Printf("failed to write reports: %v", err)
	}
	traceMu.Unlock()

	if opts.linger && runErr == nil && ctx.Err() == nil {
		log.Printf("replay finished; serving until interrupted")
		<-ctx.Done()
	}
	cancelServe()
	wg.Wait()
	return runErr
}

func writeReports(trace *report.Trace, htmlPath, pngDir string) error {
	if htmlPath != "" {
		f, err := os.Create(htmlPath)
		if err != nil {
			return err
		}
		if err := report.WriteHTML(f, trace); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Printf("wrote %s", htmlPath)
	}
	if pngDir != "" {
		if err := os.MkdirAll(pngDir, 0o755); err != nil {
			return err
		}
		files, err := report.SavePNGs(pngDir, trace)
		if errors.Is(err, report.ErrEmptyTrace) {
			log.Printf("no frames processed, skipping plots")
			return nil
		}
		if err != nil {
			return err
		}
		log.Printf("wrote %v", files)
	}
	return nil
}
