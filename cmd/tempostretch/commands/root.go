package commands

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "tempostretch",
	Short: "Pitch-preserving tempo changes for audio files",
	Long: `tempostretch - change playback speed without changing pitch.

Examples:
  # Render a file 25% faster
  tempostretch render --tempo 1.25 song.mp3 fast.wav

  # Play a file at half speed through the real-time processor
  tempostretch play --tempo 0.5 ~/music/song.wav

  # Check whether the host can do this natively
  tempostretch probe`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardown()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "tempostretch.yaml", "config file")
	flags.String("log-level", "info", "log level (none, error, warn, info, debug)")
	flags.String("log-file", "", "write JSON logs to this file instead of stdout")
	flags.Float64("tempo", 1.0, "tempo factor (1.5 = 50% faster)")
	flags.Int("buffer-size", 4096, "processing cycle length in frames")

	mustBind("loglevel", flags.Lookup("log-level"))
	mustBind("logfile", flags.Lookup("log-file"))
	mustBind("tempo", flags.Lookup("tempo"))
	mustBind("buffersize", flags.Lookup("buffer-size"))

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(probeCmd)
}
