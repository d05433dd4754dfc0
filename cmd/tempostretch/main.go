// Command tempostretch changes the tempo of audio files without changing
// their pitch.
//
// Usage:
//
//	tempostretch [flags] <command> [args]
//
// Commands:
//
//	render  - stretch a .wav or .mp3 file into a .wav file
//	play    - play a file on the default output device at a given tempo
//	probe   - report whether the host preserves pitch natively
//
// Configuration is read from a YAML file (--config) and overridden by flags.
package main

import (
	"fmt"
	"os"

	"github.com/cwbudde/algo-tempo/cmd/tempostretch/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
