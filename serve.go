package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"partyrace/config"
	"partyrace/host"
	"partyrace/racing"
	"partyrace/server"
)

// generated track when no track file is given
const (
	ringAnchors = 64
	ringRadius  = 40.0
)

func serveCmd() *cobra.Command {
	var (
		envFile string
		flags   config.Settings
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the host",
		Long: `Run the controller endpoint (/ws), the admin endpoints and the race loop.

Examples:
  partyrace serve
  partyrace serve --addr=:9000 --tick-rate=30
  partyrace serve --track=tracks/oval.json --mqtt-broker=tcp://localhost:1883`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var files []string
			if envFile != "" {
				files = append(files, envFile)
			}
			s, err := config.LoadSettings(files...)
			if err != nil {
				return err
			}
			override(cmd, &s, flags)
			return runServe(s)
		},
	}

	f := cmd.Flags()
	f.StringVar(&envFile, "env-file", "", "Environment file to load (default .env)")
	f.StringVar(&flags.Addr, "addr", "", "Listen address, e.g. :8080")
	f.StringVar(&flags.TuningFile, "tuning", "", "Tuning JSON file")
	f.StringVar(&flags.TrackFile, "track", "", "Track scene JSON file (default: generated ring)")
	f.StringVar(&flags.StaticDir, "static", "", "Directory served at /")
	f.StringVar(&flags.LogFile, "log-file", "", "Log file, rotated")
	f.StringVar(&flags.LogLevel, "log-level", "", "debug, info, warn or error")
	f.IntVar(&flags.TickRate, "tick-rate", 0, "Simulation ticks per second")
	f.StringVar(&flags.MQTTBroker, "mqtt-broker", "", "MQTT broker for race events, e.g. tcp://localhost:1883")
	f.StringVar(&flags.MQTTTopic, "mqtt-topic", "", "MQTT topic prefix for race events")
	return cmd
}

// override applies the flags that were set on the command line.
func override(cmd *cobra.Command, s *config.Settings, f config.Settings) {
	changed := cmd.Flags().Changed
	set := func(name string, dst *string, v string) {
		if changed(name) {
			*dst = v
		}
	}
	set("addr", &s.Addr, f.Addr)
	set("tuning", &s.TuningFile, f.TuningFile)
	set("track", &s.TrackFile, f.TrackFile)
	set("static", &s.StaticDir, f.StaticDir)
	set("log-file", &s.LogFile, f.LogFile)
	set("log-level", &s.LogLevel, f.LogLevel)
	set("mqtt-broker", &s.MQTTBroker, f.MQTTBroker)
	set("mqtt-topic", &s.MQTTTopic, f.MQTTTopic)
	if changed("tick-rate") && f.TickRate > 0 {
		s.TickRate = f.TickRate
	}
}

func loadTrack(path string, checkpoints int) (*racing.Tragnet, error) {
	nodes := racing.RingTrack(ringAnchors, ringRadius)
	if path != "" {
		var err error
		if nodes, err = racing.LoadTrackFile(path); err != nil {
			return nil, err
		}
	}
	anchors, err := racing.CaptureAnchors(nodes)
	if err != nil {
		return nil, err
	}
	return racing.NewTragnet(anchors, checkpoints)
}

func runServe(s config.Settings) error {
	if err := server.InitLogger(server.LogOptions{File: s.LogFile, Level: s.LogLevel, Console: true}); err != nil {
		return err
	}
	defer server.SyncLogger()

	tuning, err := config.LoadTuning(s.TuningFile)
	if err != nil {
		return err
	}
	rt, err := tuning.Racing()
	if err != nil {
		return err
	}
	tragnet, err := loadTrack(s.TrackFile, rt.Checkpoints)
	if err != nil {
		return err
	}
	server.Log.Infow("track loaded", "anchors", tragnet.Len(), "checkpoints", tragnet.Checkpoints(), "laps", rt.Laps)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := server.NewMetrics(reg)

	relay := server.NewRelay()
	handler := server.NewHandler(server.NewSessionRegistry(), relay, metrics)

	var sink host.EventSink
	if s.MQTTBroker != "" {
		pub, err := host.DialMQTT(host.MQTTOptions{Broker: s.MQTTBroker, ClientID: s.MQTTClientID, Topic: s.MQTTTopic})
		if err != nil {
			return err
		}
		defer pub.Close()
		sink = pub
	}

	race := racing.NewRace(tragnet, rt, racing.NewKinematics(rt))
	loop := host.NewLoop(host.New(relay, metrics), race, s.TickRate, sink, metrics)

	router := server.NewRouter(server.RouterConfig{
		Handler:  handler,
		Gatherer: reg,
		Tuning:   func() any { return tuning.Snapshot(loop.Tuning()) },
		UpdateTuning: func(body []byte) (any, error) {
			rt, err := loop.PatchTuning(body)
			if err != nil {
				return nil, err
			}
			return tuning.Snapshot(rt), nil
		},
		Race:      func() any { return loop.Snapshot() },
		StaticDir: s.StaticDir,
	})
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listenErr := make(chan error, 1)
	go func() {
		server.Log.Infof("partyrace listening on %s; controllers connect to ws://localhost%s/ws", s.Addr, s.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	loopDone := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(loopDone)
	}()

	select {
	case <-ctx.Done():
		server.Log.Info("shutting down")
	case err = <-listenErr:
		stop()
		err = fmt.Errorf("listen %s: %w", s.Addr, err)
	}
	<-loopDone
	relay.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		server.Log.Warnw("http shutdown", "err", serr)
	}
	return err
}
