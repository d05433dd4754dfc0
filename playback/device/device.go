// Package device runs an audio graph on the default playback device
// through miniaudio.
package device

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/cwbudde/algo-tempo/playback/graph"
)

// DefaultSampleRate is used when Config.SampleRate is zero.
const DefaultSampleRate = 48000

const (
	defaultChannels     = 2
	defaultPeriodFrames = 1024

	bytesPerSample = 4
)

// Config selects the playback format. Zero fields take defaults.
type Config struct {
	SampleRate   int
	Channels     int
	PeriodFrames int
	Logger       *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.Channels <= 0 {
		c.Channels = defaultChannels
	}
	if c.PeriodFrames <= 0 {
		c.PeriodFrames = defaultPeriodFrames
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Context is a graph.Context clocked by a playback device. The device
// starts immediately but the graph stays suspended, and so silent, until
// Resume.
type Context struct {
	*graph.Graph

	logger *slog.Logger
	mctx   *malgo.AllocatedContext
	device *malgo.Device

	block     [][]float32
	closeOnce sync.Once
	closeErr  error
}

// Factory returns a graph.ContextFactory opening a new device per call.
func Factory(cfg Config) graph.ContextFactory {
	return func() (graph.Context, error) {
		return NewContext(cfg)
	}
}

// NewContext opens the default playback device.
func NewContext(cfg Config) (*Context, error) {
	cfg = cfg.withDefaults()

	g, err := graph.New(float64(cfg.SampleRate), cfg.Channels, graph.StartSuspended())
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger.With("device", "playback")
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug("miniaudio", "message", message)
	})
	if err != nil {
		return nil, fmt.Errorf("init audio backend: %w", err)
	}

	c := &Context{
		Graph:  g,
		logger: logger,
		mctx:   mctx,
		block:  makeBlock(cfg.Channels, cfg.PeriodFrames),
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(cfg.PeriodFrames)

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: c.onData,
	})
	if err != nil {
		c.releaseBackend()
		return nil, fmt.Errorf("init playback device: %w", err)
	}
	c.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		c.releaseBackend()
		return nil, fmt.Errorf("start playback device: %w", err)
	}

	logger.Info("playback device started",
		"sampleRate", cfg.SampleRate,
		"channels", cfg.Channels,
		"periodFrames", cfg.PeriodFrames,
	)
	return c, nil
}

// onData runs on the device thread.
func (c *Context) onData(out, _ []byte, frameCount uint32) {
	frames := int(frameCount)
	if len(c.block) == 0 || cap(c.block[0]) < frames {
		// Only when the backend delivers a period larger than requested.
		c.block = makeBlock(len(c.block), frames)
	}
	for ch := range c.block {
		c.block[ch] = c.block[ch][:frames]
	}

	if err := c.RenderInto(c.block); err != nil {
		clear(out)
		return
	}
	encodeFloat32LE(out, c.block, frames)
}

// Close stops the device and closes the graph. It is safe to call more
// than once.
func (c *Context) Close() error {
	c.closeOnce.Do(func() {
		if c.device != nil {
			c.device.Uninit()
		}
		c.closeErr = c.Graph.Close()
		c.releaseBackend()
		c.logger.Info("playback device closed")
	})
	return c.closeErr
}

func (c *Context) releaseBackend() {
	if c.mctx == nil {
		return
	}
	if err := c.mctx.Uninit(); err != nil {
		c.logger.Warn("error while releasing audio backend", "err", err)
	}
	c.mctx.Free()
	c.mctx = nil
}

// encodeFloat32LE interleaves frames of block into dst as little-endian
// float32. Missing channel data is written as zero.
func encodeFloat32LE(dst []byte, block [][]float32, frames int) {
	channels := len(block)
	frames = min(frames, len(dst)/(bytesPerSample*max(channels, 1)))
	for i := range frames {
		for ch := range channels {
			var v float32
			if i < len(block[ch]) {
				v = block[ch][i]
			}
			off := (i*channels + ch) * bytesPerSample
			binary.LittleEndian.PutUint32(dst[off:], math.Float32bits(v))
		}
	}
}

func makeBlock(channels, frames int) [][]float32 {
	block := make([][]float32, channels)
	for ch := range block {
		block[ch] = make([]float32, frames)
	}
	return block
}

var _ graph.Context = (*Context)(nil)
