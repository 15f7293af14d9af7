// ABOUTME: Headless inspector for audio files
// ABOUTME: Decodes a file and prints its format, duration and an ASCII envelope
package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/Resonate-Protocol/waveview/pkg/audio"
	"github.com/Resonate-Protocol/waveview/pkg/audio/decode"
)

var (
	file    = flag.String("file", "", "Audio file to inspect")
	columns = flag.Int("columns", 72, "Envelope width in characters")
	rows    = flag.Int("rows", 9, "Envelope height in lines")
)

func main() {
	flag.Parse()

	path := *file
	if path == "" && flag.NArg() > 0 {
		path = flag.Arg(0)
	}
	if path == "" {
		log.Fatalf("no input file (use -file or pass a path; supported: %s)",
			strings.Join(decode.Supported(), ", "))
	}

	buf, err := decode.Load(path)
	if err != nil {
		log.Fatalf("Failed to load audio: %v", err)
	}

	format := "unknown"
	if dec, ok := decode.ForPath(path); ok {
		format = dec.Format()
	}

	fmt.Printf("=== %s ===\n", filepath.Base(path))
	fmt.Printf("Format:      %s\n", format)
	fmt.Printf("Sample rate: %d Hz\n", buf.SampleRate)
	fmt.Printf("Channels:    %d\n", buf.Channels)
	fmt.Printf("Samples:     %d\n", buf.TotalSamples())
	fmt.Printf("Duration:    %s\n", buf.Duration())
	fmt.Println()

	for _, line := range envelope(buf, *columns, *rows) {
		fmt.Println(line)
	}
}

// envelope draws the min/max peaks of the whole buffer with '#'
func envelope(buf *audio.Buffer, cols, height int) []string {
	if cols <= 0 || height <= 0 {
		return nil
	}

	peaks := buf.Peaks(0, buf.TotalSamples(), cols)
	lines := make([]string, height)
	for r := range lines {
		var b strings.Builder
		for _, p := range peaks {
			top := int((32768 - int32(p.Max)) * int32(height-1) / 65535)
			bottom := int((32768 - int32(p.Min)) * int32(height-1) / 65535)
			if r >= top && r <= bottom {
				b.WriteByte('#')
			} else {
				b.WriteByte(' ')
			}
		}
		lines[r] = strings.TrimRight(b.String(), " ")
	}
	return lines
}
