package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/cwbudde/algo-tempo/playback/device"
	"github.com/cwbudde/algo-tempo/playback/source"
	"github.com/cwbudde/algo-tempo/playback/tempo"
)

var playCmd = &cobra.Command{
	Use:   "play <input>",
	Short: "Play a file through the real-time tempo processor",
	Long: `Play a .wav or .mp3 file on the default output device through the
real-time tempo processor. Stops at the end of the file or on Ctrl-C.

The device format comes from the config file keys device.samplerate and
periodframes.

Example:
  tempostretch play --tempo 1.25 ~/music/song.mp3`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pcm, err := source.Open(args[0])
		if err != nil {
			return err
		}

		cfg := device.Config{
			SampleRate:   viper.GetInt("device.samplerate"),
			PeriodFrames: viper.GetInt("periodframes"),
		}
		rate := cfg.SampleRate
		if rate <= 0 {
			rate = device.DefaultSampleRate
		}
		src, err := source.Resampled(pcm, float64(rate))
		if err != nil {
			return err
		}

		p, err := tempo.New(device.Factory(cfg), tempo.WithBufferSize(viper.GetInt("buffersize")))
		if err != nil {
			return err
		}
		p.SetTempo(viper.GetFloat64("tempo"))

		if err := p.Connect(src); err != nil {
			return err
		}
		defer func() {
			if err := p.Disconnect(); err != nil {
				slog.Warn("error while disconnecting", "err", err)
			}
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if err := p.Resume(ctx); err != nil {
			return err
		}

		// The processor consumes the source in real time, whatever the tempo.
		return waitForEnd(ctx, pcm.Duration())
	},
}

func waitForEnd(ctx context.Context, length time.Duration) error {
	seconds := int64(length.Seconds()) + 1

	progress := mpb.NewWithContext(ctx, mpb.WithWidth(64))
	bar := progress.AddBar(seconds,
		mpb.PrependDecorators(
			decor.Name("Playing: "),
			decor.CountersNoUnit("%d / %d s"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
		),
	)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range seconds {
		select {
		case <-ctx.Done():
			bar.Abort(false)
			progress.Wait()
			fmt.Fprintln(os.Stderr, "interrupted")
			return nil
		case <-ticker.C:
			bar.Increment()
		}
	}
	progress.Wait()
	return nil
}
