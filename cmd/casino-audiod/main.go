// ABOUTME: Entry point for the casino audio daemon
// ABOUTME: Loads the sound catalog, opens the device and serves the scene bridge
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Resonate-Protocol/casino-audio/internal/control"
	"github.com/Resonate-Protocol/casino-audio/internal/ui"
	"github.com/Resonate-Protocol/casino-audio/internal/version"
	"github.com/Resonate-Protocol/casino-audio/pkg/engine"
	"github.com/Resonate-Protocol/casino-audio/pkg/mixer"
	"github.com/sirupsen/logrus"
)

var (
	assets      = flag.String("assets", "assets/sounds", "Directory holding the sound catalog")
	port        = flag.Int("port", control.DefaultPort, "Scene bridge WebSocket port")
	name        = flag.String("name", "", "Daemon friendly name (default: hostname-casino-audio)")
	sampleRate  = flag.Int("sample-rate", engine.DefaultSampleRate, "Output sample rate")
	blockSize   = flag.Int("block", engine.DefaultBlockSize, "Processing block size in frames")
	backend     = flag.String("backend", "oto", "Output backend: oto, malgo, portaudio or null")
	reverbMix   = flag.Float64("reverb", 0.15, "Master reverb send (0-1)")
	convolution = flag.Bool("convolution", false, "Use the convolution reverb instead of Freeverb")
	enableMDNS  = flag.Bool("mdns", true, "Advertise the bridge over mDNS")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	logFile     = flag.String("log-file", "casino-audio.log", "Log file path")
	logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	useTUI := !*noTUI

	f, err := setupLogging(useTUI)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := run(useTUI); err != nil {
		logrus.WithError(err).Error("Daemon failed")
		os.Exit(1)
	}
}

func setupLogging(useTUI bool) (*os.File, error) {
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}

	if useTUI {
		// the TUI owns the terminal
		logrus.SetOutput(f)
	} else {
		logrus.SetOutput(io.MultiWriter(os.Stdout, f))
	}
	return f, nil
}

func daemonName() string {
	if *name != "" {
		return *name
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-casino-audio", hostname)
}

func run(useTUI bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverName := daemonName()
	logrus.WithFields(logrus.Fields{
		"name":    serverName,
		"version": version.Version,
		"backend": *backend,
	}).Info("Starting casino audio daemon")

	eng := engine.New(engine.Config{
		SampleRate: *sampleRate,
		BlockSize:  *blockSize,
		Backend:    *backend,
		Processor: engine.ProcessorConfig{
			ReverbMix:     *reverbMix,
			DisableReverb: *reverbMix == 0,
			Convolution:   *convolution,
		},
	})
	defer eng.Dispose()

	if err := eng.LoadCatalog(ctx, mixer.DefaultCatalog(), *assets); err != nil {
		return fmt.Errorf("failed to load sounds: %w", err)
	}
	if err := eng.Init(ctx); err != nil {
		return fmt.Errorf("failed to start audio: %w", err)
	}

	srv := control.New(control.Config{
		Port:       *port,
		Name:       serverName,
		EnableMDNS: *enableMDNS,
	}, eng)

	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.Start() }()

	var tuiQuit <-chan struct{}
	var tui *ui.TUI
	if useTUI {
		addr := fmt.Sprintf(":%d", *port)
		tui = ui.New(func() ui.Status { return status(eng, srv, serverName, addr) }, eng)
		tuiQuit = tui.QuitChan()
		go func() {
			if err := tui.Run(); err != nil {
				logrus.WithError(err).Error("TUI failed")
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logrus.Info("Signal received, shutting down")
	case <-tuiQuit:
		logrus.Info("TUI quit requested, shutting down")
	case err := <-srvErr:
		runErr = err
		srvErr = nil
	}

	if tui != nil {
		tui.Stop()
	}
	srv.Stop()
	if srvErr != nil {
		if err := <-srvErr; err != nil && runErr == nil {
			runErr = err
		}
	}
	return runErr
}

// status gathers a TUI snapshot
func status(eng *engine.Engine, srv *control.Server, serverName, addr string) ui.Status {
	s := ui.Status{
		Name:   serverName,
		Addr:   addr,
		Meters: eng.Meters(),
		Stats:  eng.Stats(),
		Muted:  eng.Muted(),
	}
	for i := range s.Buses {
		s.Buses[i] = eng.GetBusVolume(mixer.BusID(i))
	}
	for _, c := range srv.Clients() {
		s.Clients = append(s.Clients, c.Name)
	}
	return s
}
