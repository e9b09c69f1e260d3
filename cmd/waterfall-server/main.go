// ABOUTME: Entry point for the waterfall frame server
// ABOUTME: Parses CLI flags, loads a file and serves its frames and audio
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/binary-waterfall/waterfall-go/internal/config"
	"github.com/binary-waterfall/waterfall-go/internal/server"
	"github.com/binary-waterfall/waterfall-go/internal/version"
	"github.com/binary-waterfall/waterfall-go/pkg/waterfall"
)

var (
	configFile = flag.String("config", "", "YAML settings file")
	port       = flag.Int("port", 0, "HTTP and WebSocket port (default 8937)")
	name       = flag.String("name", "", "Server friendly name (default: hostname-waterfall)")
	logFile    = flag.String("log-file", "waterfall-server.log", "Log file path")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	noMDNS     = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	streaming  = flag.Bool("streaming", false, "Read the input through a file handle instead of memory")
	diskAudio  = flag.Bool("disk-audio", false, "Keep the generated audio in a temp file")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <file>\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			logrus.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Server.Port = *port
		case "name":
			cfg.Server.Name = *name
		case "no-mdns":
			cfg.Server.MDNS = !*noMDNS
		case "streaming":
			cfg.Streaming = *streaming
		case "disk-audio":
			cfg.DiskAudio = *diskAudio
		}
	})
	if *name == "" && *configFile == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		cfg.Server.Name = fmt.Sprintf("%s-waterfall", hostname)
	}
	if err := config.Validate(cfg); err != nil {
		logrus.Fatalf("Invalid settings: %v", err)
	}

	useTUI := !*noTUI && term.IsTerminal(int(os.Stdout.Fd()))

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		logrus.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	if useTUI {
		logrus.SetOutput(f)
	} else {
		logrus.SetOutput(io.MultiWriter(os.Stdout, f))
	}
	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.Debug("Debug logging enabled")
	}

	logrus.Infof("Starting %s server: %s on port %d", version.String(), cfg.Server.Name, cfg.Server.Port)
	logrus.Infof("Logging to: %s", *logFile)

	engine, err := waterfall.New(
		waterfall.WithSettings(cfg.Waterfall),
		waterfall.WithStreaming(cfg.Streaming),
		waterfall.WithDiskAudio(cfg.DiskAudio),
	)
	if err != nil {
		logrus.Fatalf("Failed to create engine: %v", err)
	}
	defer engine.Close()

	if err := engine.Load(flag.Arg(0)); err != nil {
		logrus.Fatalf("Failed to open %s: %v", flag.Arg(0), err)
	}

	srv := server.New(server.Config{
		Port:       cfg.Server.Port,
		Name:       cfg.Server.Name,
		EnableMDNS: cfg.Server.MDNS,
		UseTUI:     useTUI,
	}, engine)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logrus.Infof("Received %v signal, shutting down gracefully...", sig)
		srv.Stop()
	}()

	if err := srv.Start(); err != nil {
		logrus.Fatalf("Server error: %v", err)
	}

	logrus.Info("Server stopped")
}
