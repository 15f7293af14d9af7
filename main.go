// ABOUTME: Entry point for the Waveview waveform player
// ABOUTME: Parses CLI flags, loads the audio file and starts the TUI
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/waveview/internal/playback"
	"github.com/Resonate-Protocol/waveview/internal/selection"
	"github.com/Resonate-Protocol/waveview/internal/ui"
	"github.com/Resonate-Protocol/waveview/internal/version"
	"github.com/Resonate-Protocol/waveview/internal/viewport"
	"github.com/Resonate-Protocol/waveview/pkg/audio/decode"
	"github.com/Resonate-Protocol/waveview/pkg/audio/encode"
	"github.com/Resonate-Protocol/waveview/pkg/audio/output"
)

var (
	file          = flag.String("file", "your_audio_file.wav", "Audio file to open (or pass it as the first argument)")
	window        = flag.Float64("window", viewport.DefaultWindowSeconds, "Visible window in seconds")
	tickMs        = flag.Int("tick-ms", 50, "Playback position update interval in milliseconds")
	dragThreshold = flag.Int("drag-threshold", selection.DefaultDragThreshold, "Minimum drag distance in samples before a click becomes a selection")
	volume        = flag.Int("volume", 100, "Initial volume (0-100)")
	deviceRate    = flag.Int("device-rate", 0, "Output device sample rate in Hz (default: the file's rate)")
	logFile       = flag.String("log-file", "waveview.log", "Log file path")
	noTUI         = flag.Bool("no-tui", false, "Disable TUI, play the file once and stream logs instead")
	showVersion   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	path := *file
	if flag.NArg() > 0 {
		path = flag.Arg(0)
	}

	log.Printf("Starting %s", version.String())

	buf, err := decode.Load(path)
	if err != nil {
		log.Printf("Failed to load audio: %v", err)
		fmt.Fprintf(os.Stderr, "waveview: %v\n", err)
		os.Exit(1)
	}

	device := output.NewOto(buf.SampleRate, buf.Channels)
	device.SetVolume(*volume)
	device.SetDeviceRate(*deviceRate)
	if err := device.Open(); err != nil {
		// Not fatal: every play attempt retries and reports its own failure
		log.Printf("Audio output unavailable: %v", err)
	}

	sel := selection.New(buf.TotalSamples(), *dragThreshold)
	ctrl := playback.New(buf, device, sel, playback.Config{
		TickInterval: time.Duration(*tickMs) * time.Millisecond,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if useTUI {
		model := ui.NewModel(ui.Config{
			Path:      path,
			Buffer:    buf,
			Player:    ctrl,
			Viewport:  viewport.New(buf.TotalSamples(), buf.SampleRate, *window),
			Selection: sel,
			Mixer:     device,
			Export: func(start, end int) (string, error) {
				out := encode.RangePath(path, buf, start, end)
				return out, encode.SaveRange(out, buf, start, end)
			},
		})
		tui := ui.New(model, ctrl.Events())

		go func() {
			<-sigChan
			log.Printf("Shutdown signal received")
			tui.Stop()
		}()

		if err := tui.Run(); err != nil {
			log.Printf("TUI error: %v", err)
		}
	} else if err := runHeadless(ctrl, sigChan); err != nil {
		log.Printf("Playback error: %v", err)
	}

	ctrl.Close()
	if err := device.Close(); err != nil {
		log.Printf("Error closing audio device: %v", err)
	}

	log.Printf("Player stopped")
}

// runHeadless plays the whole file once and logs progress each second
func runHeadless(ctrl *playback.Controller, sigChan <-chan os.Signal) error {
	buf := ctrl.Buffer()
	log.Printf("TUI disabled - playing %d samples at %dHz (%s)",
		buf.TotalSamples(), buf.SampleRate, buf.Duration().Round(time.Millisecond))

	if err := ctrl.StartPlayback(); err != nil {
		return err
	}

	lastSecond := int64(-1)
	for {
		select {
		case ev, ok := <-ctrl.Events():
			if !ok {
				return nil
			}
			switch e := ev.(type) {
			case playback.PositionChanged:
				if sec := buf.FrameToMs(e.Sample) / 1000; sec != lastSecond {
					lastSecond = sec
					log.Printf("Position: %d s (sample %d)", sec, e.Sample)
				}
			case playback.DeviceFailed:
				log.Printf("Audio device error: %v", e.Err)
			case playback.Stopped:
				log.Printf("Playback %s at sample %d", e.Reason, e.Position)
				return nil
			}
		case <-sigChan:
			log.Printf("Shutdown signal received")
			ctrl.StopPlayback()
		}
	}
}
