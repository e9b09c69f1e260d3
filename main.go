// ABOUTME: Entry point for the binary waterfall previewer
// ABOUTME: Parses CLI flags, then runs the TUI preview or file exports
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/binary-waterfall/waterfall-go/internal/config"
	"github.com/binary-waterfall/waterfall-go/internal/player"
	"github.com/binary-waterfall/waterfall-go/internal/ui"
	"github.com/binary-waterfall/waterfall-go/internal/version"
	"github.com/binary-waterfall/waterfall-go/pkg/audio/output"
	"github.com/binary-waterfall/waterfall-go/pkg/waterfall"
)

var (
	configFile  = flag.String("config", "", "YAML settings file")
	logFile     = flag.String("log-file", "waterfall.log", "Log file path")
	debug       = flag.Bool("debug", false, "Enable debug logging")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, play headless with streaming logs")
	showVersion = flag.Bool("version", false, "Print version and exit")

	width       = flag.Int("width", 0, "Frame width in pixels (default 48)")
	height      = flag.Int("height", 0, "Frame height in pixels (default 48)")
	colorFormat = flag.String("format", "", "Color format string, e.g. bgrx, rgb, w, RGBx (default bgrx)")
	alignment   = flag.String("alignment", "", "Playhead alignment: start, middle or end (default middle)")
	flipV       = flag.Bool("flip-v", true, "Flip frames vertically")
	flipH       = flag.Bool("flip-h", false, "Flip frames horizontally")
	rate        = flag.Int("rate", 0, "Audio sample rate in Hz (default 32000)")
	channels    = flag.Int("channels", 0, "Audio channels, 1 or 2 (default 1)")
	sampleWidth = flag.Int("sample-width", 0, "Bytes per audio sample, 1-4 (default 1)")
	volume      = flag.Int("volume", 0, "Audio volume percent, 0-100 (default 100)")
	streaming   = flag.Bool("streaming", false, "Read the input through a file handle instead of memory")
	diskAudio   = flag.Bool("disk-audio", false, "Keep the generated audio in a temp file")

	exportFrame    = flag.String("export-frame", "", "Write the frame at -t to this image (.png, .jpg, .bmp)")
	exportAudio    = flag.String("export-audio", "", "Write the audio to this file (.wav, .flac)")
	exportSequence = flag.String("export-sequence", "", "Write every frame at -fps into this directory")
	fps            = flag.Int("fps", 0, "Preview or sequence frame rate (default 120 preview, 30 export)")
	at             = flag.Int64("t", 0, "Timestamp in milliseconds for -export-frame")
	size           = flag.String("size", "", "Export image size WxH, frames are fit inside (default fits max_dim)")
	noAudio        = flag.Bool("no-audio", false, "Preview without sound")
	noPlayhead     = flag.Bool("no-playhead", false, "Hide the playhead row")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <file>\n\n", os.Args[0])
	fmt.Fprintf(flag.CommandLine.Output(), "Shows any file as a waterfall of pixels with its bytes played as audio.\n\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	input := flag.Arg(0)

	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			logrus.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if err := applyFlags(cfg, setFlags()); err != nil {
		logrus.Fatalf("Invalid flags: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		logrus.Fatalf("Invalid settings: %v", err)
	}

	exporting := *exportFrame != "" || *exportAudio != "" || *exportSequence != ""
	useTUI := !*noTUI && !exporting && term.IsTerminal(int(os.Stdout.Fd()))

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		logrus.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		logrus.SetOutput(f)
	} else {
		logrus.SetOutput(io.MultiWriter(os.Stdout, f))
	}
	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	logrus.Infof("Starting %s", version.String())

	engine, err := waterfall.New(
		waterfall.WithSettings(cfg.Waterfall),
		waterfall.WithStreaming(cfg.Streaming),
		waterfall.WithDiskAudio(cfg.DiskAudio),
	)
	if err != nil {
		logrus.Fatalf("Failed to create engine: %v", err)
	}
	defer engine.Close()

	if err := engine.Load(input); err != nil {
		logrus.Fatalf("Failed to open %s: %v", input, err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if exporting {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			select {
			case sig := <-sigChan:
				logrus.Infof("Received %v signal, cancelling export...", sig)
				cancel()
			case <-ctx.Done():
			}
		}()

		err := runExports(ctx, engine, cfg, exportJobs{
			frame:    *exportFrame,
			audio:    *exportAudio,
			sequence: *exportSequence,
			at:       *at,
			size:     *size,
		})
		cancel()
		if err != nil {
			logrus.Fatalf("Export failed: %v", err)
		}
		return
	}

	var out output.Output
	if cfg.Player.Audio {
		out = output.NewOto()
	}
	p := player.New(engine, player.Config{FPS: cfg.Player.FPS, Output: out})
	defer func() {
		if err := p.Close(); err != nil {
			logrus.Warnf("Error closing player: %v", err)
		}
	}()

	if useTUI {
		prog := ui.Run(engine, p, cfg.Player.PlayheadVisible)
		go func() {
			<-sigChan
			prog.Quit()
		}()
		if _, err := prog.Run(); err != nil {
			logrus.Errorf("TUI error: %v", err)
		}
		return
	}

	playHeadless(p, sigChan)
}

// playHeadless plays the file once, logging progress until the end or a signal
func playHeadless(p *player.Player, sigChan <-chan os.Signal) {
	if err := p.Play(); err != nil {
		logrus.Errorf("Playback failed: %v", err)
		return
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			snap, err := p.Tick()
			if err != nil {
				logrus.Errorf("Frame failed: %v", err)
				return
			}
			logrus.Infof("%dms / %dms  addr 0x%08x", snap.TimestampMs, p.State().DurationMs, snap.Address)
			if !p.Playing() {
				logrus.Info("Playback finished")
				return
			}
		case sig := <-sigChan:
			logrus.Infof("Received %v signal, stopping", sig)
			return
		}
	}
}

// setFlags returns the names of flags given on the command line
func setFlags() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

// applyFlags overrides config values with explicitly given flags
func applyFlags(cfg *config.Config, set map[string]bool) error {
	s := &cfg.Waterfall
	if set["width"] {
		s.Geometry.Width = *width
	}
	if set["height"] {
		s.Geometry.Height = *height
	}
	if set["format"] {
		s.ColorFormat = *colorFormat
	}
	if set["alignment"] {
		if err := s.Alignment.UnmarshalText([]byte(*alignment)); err != nil {
			return err
		}
	}
	if set["flip-v"] {
		s.Flip.Vertical = *flipV
	}
	if set["flip-h"] {
		s.Flip.Horizontal = *flipH
	}
	if set["rate"] {
		s.Audio.SampleRate = *rate
	}
	if set["channels"] {
		s.Audio.Channels = *channels
	}
	if set["sample-width"] {
		s.Audio.SampleWidth = *sampleWidth
	}
	if set["volume"] {
		s.Audio.Volume = *volume
	}
	if set["streaming"] {
		cfg.Streaming = *streaming
	}
	if set["disk-audio"] {
		cfg.DiskAudio = *diskAudio
	}
	if set["fps"] {
		cfg.Player.FPS = *fps
		cfg.Export.FPS = *fps
	}
	if set["no-audio"] {
		cfg.Player.Audio = !*noAudio
	}
	if set["no-playhead"] {
		cfg.Player.PlayheadVisible = !*noPlayhead
	}
	return nil
}
