// fallmon replays a recorded pose capture through the fall-risk
// pipeline, records confirmed falls to the event store, and writes a
// session report.
//
// Usage:
//
//	fallmon -capture clip.jsonl -db fall_events.db -report risk.html
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/fall.report/internal/biomech/pipeline"
	"github.com/banshee-data/fall.report/internal/config"
	"github.com/banshee-data/fall.report/internal/events"
	"github.com/banshee-data/fall.report/internal/replay"
	"github.com/banshee-data/fall.report/internal/report"
	"github.com/banshee-data/fall.report/internal/version"
)

var (
	capturePath   = flag.String("capture", "", "Pose capture file (JSON Lines), required")
	configPath    = flag.String("config", "", "Tuning config JSON (defaults to built-in values)")
	dbPath        = flag.String("db", "", "SQLite event store path (empty disables persistence)")
	migrationsDir = flag.String("migrations", "db/migrations", "Event store migrations directory")
	reportPath    = flag.String("report", "", "HTML risk timeline output path (empty disables)")
	listen        = flag.String("listen", "", "Serve the event log and risk chart over HTTP after replay (empty disables)")
	verbose       = flag.Bool("verbose", false, "Enable per-frame trace logging")
)

func main() {
	flag.Parse()
	log.Printf("fallmon %s", version.String())

	if *capturePath == "" {
		flag.Usage()
		log.Fatal("capture file is required")
	}

	cfg := config.MustLoadDefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid tuning config: %v", err)
	}

	if *verbose {
		pipeline.SetLogWriters(os.Stderr, os.Stderr, os.Stderr)
	} else {
		pipeline.SetLogWriters(os.Stderr, os.Stderr, io.Discard)
	}

	var store *events.Store
	if *dbPath != "" {
		var err error
		store, err = events.Open(*dbPath)
		if err != nil {
			log.Fatalf("failed to open event store: %v", err)
		}
		defer store.Close()
		if err := store.MigrateUp(*migrationsDir); err != nil {
			log.Fatalf("failed to migrate event store: %v", err)
		}
	}

	session := pipeline.NewSession(pipeline.ParamsFromTuning(cfg))
	if store != nil {
		session.OnAlarm = func(ev pipeline.AlarmEvent) {
			if err := store.RecordAlarm(ev); err != nil {
				log.Printf("failed to record alarm %s: %v", ev.ID, err)
			}
		}
	}

	composite, alarmFrames, err := run(session, *capturePath)
	if err != nil {
		log.Fatalf("replay failed: %v", err)
	}

	summary := report.Summarize(session.ID(), composite, len(alarmFrames))
	log.Printf("replay complete: %s", summary)

	if *reportPath != "" {
		if err := writeReport(*reportPath, summary, composite, alarmFrames); err != nil {
			log.Fatalf("failed to write report: %v", err)
		}
		log.Printf("report written: %s", *reportPath)
	}

	if *listen != "" {
		if store == nil {
			log.Fatal("-listen requires -db so the event log can be served")
		}
		serve(*listen, store, summary, composite, alarmFrames)
	}
}

// serve hosts the replay results for review until interrupted: the fall
// event API plus the rendered risk chart.
func serve(addr string, store *events.Store, summary report.SessionSummary, composite []float64, alarmFrames []uint64) {
	mux := http.NewServeMux()
	store.AttachRoutes(mux)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := report.WriteRiskChart(w, summary, composite, alarmFrames); err != nil {
			log.Printf("failed to render risk chart: %v", err)
		}
	})

	server := &http.Server{Addr: addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("serving review UI on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
}

// run feeds every capture record through the session and collects the
// composite-risk series plus the frame indexes of confirmed falls.
func run(session *pipeline.Session, path string) ([]float64, []uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	var composite []float64
	var alarmFrames []uint64

	rd := replay.NewReader(f)
	for {
		rec, err := rd.Next()
		if err == io.EOF {
			return composite, alarmFrames, nil
		}
		if err != nil {
			return nil, nil, err
		}

		if len(rec.Detections) > 0 {
			session.SetDetections(rec.Detections, int(rec.FrameWidth), int(rec.FrameHeight))
		}

		out := session.ProcessFrame(rec.Frame())
		composite = append(composite, out.Snapshot.CompositeRisk)
		if out.Alarm != nil {
			alarmFrames = append(alarmFrames, out.FrameIndex)
		}
	}
}

func writeReport(path string, summary report.SessionSummary, composite []float64, alarmFrames []uint64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return report.WriteRiskChart(f, summary, composite, alarmFrames)
}
