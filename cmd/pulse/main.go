package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/pulse.report/internal/config"
	"github.com/banshee-data/pulse.report/internal/facetrack"
	"github.com/banshee-data/pulse.report/internal/monitor"
	"github.com/banshee-data/pulse.report/internal/monitoring"
	"github.com/banshee-data/pulse.report/internal/pipeline"
	"github.com/banshee-data/pulse.report/internal/source"
	"github.com/banshee-data/pulse.report/internal/timeutil"
	"github.com/banshee-data/pulse.report/internal/version"
)

var (
	listen      = flag.String("listen", ":8080", "Listen address for the monitor")
	configPath  = flag.String("config", "", "Path to a pulse tuning JSON file (defaults built in)")
	imagePath   = flag.String("image", "", "Repeat this still image instead of the synthetic subject")
	bpm         = flag.Float64("bpm", 72, "Pulse rate of the synthetic subject")
	plotPath    = flag.String("plot", "", "Write a session plot PNG here on shutdown")
	debug       = flag.Bool("debug", false, "Log skipped cycles")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// frameProducer is a camera stand-in that publishes frames until cancelled.
type frameProducer interface {
	source.Source
	Run(ctx context.Context) error
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Current())
		return
	}
	monitoring.SetDebug(*debug)

	cfg := config.DefaultPulseConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadPulseConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	pcfg := pipeline.ConfigFromPulse(cfg)
	clock := timeutil.RealClock{}

	var producer frameProducer
	if *imagePath != "" {
		still, err := source.OpenStill(*imagePath, pcfg.SamplingInterval, clock)
		if err != nil {
			log.Fatalf("failed to open camera image: %v", err)
		}
		producer = still
		log.Printf("using still image %s", *imagePath)
	} else {
		scfg := source.DefaultSyntheticConfig()
		scfg.BPM = *bpm
		producer = source.NewSynthetic(scfg, pcfg.SamplingInterval, clock)
		log.Printf("using synthetic subject at %.1f BPM", *bpm)
	}

	p, err := pipeline.New(pcfg, producer, facetrack.NewSkinDetector(), facetrack.NewSkinTracker(), clock)
	if err != nil {
		log.Fatalf("failed to create pipeline: %v", err)
	}
	log.Printf("%s session %s", version.Current(), p.SessionID())

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := producer.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("frame source stopped: %v", err)
		}
		log.Print("frame source routine terminated")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := p.Run(ctx); err != nil {
			log.Printf("pipeline stopped: %v", err)
		}
		log.Print("pipeline routine terminated")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		ws := monitor.NewWebServer(monitor.WebServerConfig{Address: *listen, Source: p})
		if err := ws.Start(ctx); err != nil {
			log.Printf("monitor server failed: %v", err)
			stop()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		reportBPM(ctx, p)
	}()

	wg.Wait()

	if *plotPath != "" {
		if err := monitor.SaveSessionPlot(*plotPath, p.Snapshot()); err != nil {
			log.Printf("failed to write session plot: %v", err)
		} else {
			log.Printf("wrote session plot to %s", *plotPath)
		}
	}
	log.Printf("Graceful shutdown complete")
}

// reportBPM logs the fused heart rate every few seconds.
func reportBPM(ctx context.Context, p *pipeline.Pipeline) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := p.Snapshot()
			if snap.BPM == nil {
				log.Printf("no heart rate yet (track=%s samples=%d)", snap.TrackState, len(snap.Green))
				continue
			}
			status := "unknown"
			if snap.Accuracy != nil {
				status = snap.Accuracy.Status.String()
			}
			log.Printf("heart rate %.1f BPM (accuracy %s)", snap.BPM.BPM, status)
		}
	}
}
