package commands

import (
	"errors"
	"io"
	"log/slog"
	"math"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/cwbudde/algo-tempo/dsp/core"
	"github.com/cwbudde/algo-tempo/dsp/stretch"
	"github.com/cwbudde/algo-tempo/playback/graph"
	"github.com/cwbudde/algo-tempo/playback/sink"
	"github.com/cwbudde/algo-tempo/playback/source"
	"github.com/cwbudde/algo-tempo/playback/tempo"
)

const (
	renderChannels = 2
	renderChunk    = 4096
)

var renderCmd = &cobra.Command{
	Use:   "render <input> <output.wav>",
	Short: "Stretch a .wav or .mp3 file into a .wav file",
	Long: `Stretch a .wav or .mp3 file into a 16-bit stereo .wav file.

By default the whole file is fed through the time-stretch engine, so the
output is input length divided by tempo. With --realtime the file is played
through the real-time processor cycle by cycle instead, exactly as a live
source would be; the output then keeps the input length and shows the
underruns or backlog a live stream would have.

Example:
  tempostretch render --tempo 0.8 --rate 48000 song.mp3 slow.wav`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pcm, err := source.Open(args[0])
		if err != nil {
			return err
		}

		rate := viper.GetInt("samplerate")
		if rate <= 0 {
			rate = int(pcm.SampleRate())
		}
		src, err := source.Resampled(pcm, float64(rate))
		if err != nil {
			return err
		}

		out, err := sink.CreateWAV(args[1], rate, renderChannels)
		if err != nil {
			return err
		}

		factor := viper.GetFloat64("tempo")
		frames := int64(math.Ceil(float64(pcm.Frames()) * float64(rate) / pcm.SampleRate()))

		slog.Info("rendering",
			"input", args[0],
			"output", args[1],
			"tempo", factor,
			"sampleRate", rate,
			"realtime", viper.GetBool("realtime"),
		)

		progress := mpb.New(mpb.WithWidth(64))
		bar := progress.AddBar(frames,
			mpb.PrependDecorators(
				decor.Name("Rendering: "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
			),
		)

		if viper.GetBool("realtime") {
			err = renderRealtime(src, out, factor, frames, bar)
		} else {
			err = renderOffline(src, out, factor, bar)
		}
		bar.SetTotal(-1, true)
		progress.Wait()

		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}

		slog.Info("rendered", "output", args[1], "frames", out.Frames())
		return nil
	},
}

func init() {
	renderCmd.Flags().Int("rate", 0, "output sample rate (default: input rate)")
	renderCmd.Flags().Bool("realtime", false, "render through the real-time processor")
	mustBind("samplerate", renderCmd.Flags().Lookup("rate"))
	mustBind("realtime", renderCmd.Flags().Lookup("realtime"))
}

// renderOffline streams src through a stretch engine and flushes it at the
// end of input.
func renderOffline(src graph.Producer, out *sink.WAV, factor float64, bar *mpb.Bar) error {
	engine, err := stretch.NewEngine(src.SampleRate(), renderChannels)
	if err != nil {
		return err
	}
	if err := engine.SetTempo(factor); err != nil {
		return err
	}

	in := makeBlock(src.Channels(), renderChunk)
	stereo := stereoView(in)
	interleaved := make([]float64, renderChannels*renderChunk)
	outBlock := makeBlock(renderChannels, renderChunk)

	drain := func() error {
		for engine.OutputQueue().FrameCount() > 0 {
			n := engine.OutputQueue().ReceiveSamples(interleaved, renderChunk)
			core.Deinterleave(outBlock, interleaved, n)
			if err := out.Write(truncate(outBlock, n)); err != nil {
				return err
			}
		}
		return nil
	}

	for {
		n, err := src.Read(in)
		if n > 0 {
			core.Interleave(interleaved, stereo, n)
			engine.InputQueue().PutSamples(interleaved, 0, n)
			engine.Process()
			if derr := drain(); derr != nil {
				return derr
			}
			bar.IncrBy(n)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}
	}

	engine.Flush()
	return drain()
}

// renderRealtime drives a Processor on a manually clocked graph, one cycle
// per iteration, until the input length has been rendered.
func renderRealtime(src graph.Producer, out *sink.WAV, factor float64, frames int64, bar *mpb.Bar) error {
	var g *graph.Graph
	factory := func() (graph.Context, error) {
		var err error
		g, err = graph.New(src.SampleRate(), renderChannels)
		return g, err
	}

	p, err := tempo.New(factory, tempo.WithBufferSize(viper.GetInt("buffersize")))
	if err != nil {
		return err
	}
	p.SetTempo(factor)
	if err := p.Connect(src); err != nil {
		return err
	}
	defer p.Disconnect()

	cycle := p.BufferSize()
	for done := int64(0); done < frames; done += int64(cycle) {
		block, err := g.Render(cycle)
		if err != nil {
			return err
		}
		if err := out.Write(block); err != nil {
			return err
		}
		bar.IncrBy(cycle)
	}
	return nil
}

func makeBlock(channels, frames int) [][]float32 {
	block := make([][]float32, channels)
	for c := range block {
		block[c] = make([]float32, frames)
	}
	return block
}

// stereoView maps a mono block onto both stereo channels.
func stereoView(block [][]float32) [][]float32 {
	if len(block) == 1 {
		return [][]float32{block[0], block[0]}
	}
	return block[:renderChannels]
}

func truncate(block [][]float32, n int) [][]float32 {
	out := make([][]float32, len(block))
	for c := range block {
		out[c] = block[c][:n]
	}
	return out
}
