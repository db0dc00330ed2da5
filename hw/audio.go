package hw

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"nitro/emu/log"
	"nitro/hw/spu"
)

const (
	AudioFormat   = sdl.AUDIO_S16LSB
	AudioChannels = 2
)

// SampleSource produces blocks of interleaved stereo frames, one uint32 per
// frame with the right sample in the high halfword. spu.SPU is the real one.
type SampleSource interface {
	GetSamples(count int) []uint32
}

type AudioConfig struct {
	SampleRate int `toml:"sample_rate"`
	BufferSize int `toml:"buffer_size"` // frames per block
}

// Audio owns the SDL audio device and the consumer loop pulling frames from
// the source. When the device rate differs from the synthesis rate the
// stream goes through a band-limited resampler.
type Audio struct {
	dev sdl.AudioDeviceID
	src SampleSource
	cfg AudioConfig
	res *Resampler
}

func NewAudio(src SampleSource, cfg AudioConfig) (*Audio, error) {
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("audio init: %w", err)
	}

	want := sdl.AudioSpec{
		Freq:     int32(cfg.SampleRate),
		Format:   AudioFormat,
		Channels: AudioChannels,
		Samples:  uint16(cfg.BufferSize),
	}
	var have sdl.AudioSpec
	dev, err := sdl.OpenAudioDevice("", false, &want, &have, 0)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_AUDIO)
		return nil, fmt.Errorf("open audio device: %w", err)
	}

	a := &Audio{dev: dev, src: src, cfg: cfg}
	if cfg.SampleRate != spu.SampleRate {
		a.res = NewResampler(spu.SampleRate, cfg.SampleRate, cfg.BufferSize)
		log.ModSound.InfoZ("resampling").
			Int("from", spu.SampleRate).
			Int("to", cfg.SampleRate).
			End()
	}

	sdl.PauseAudioDevice(dev, false)
	log.ModSound.InfoZ("audio device open").
		Int("rate", int(have.Freq)).
		Int("buffer", int(have.Samples)).
		End()
	return a, nil
}

// Run is the consumer loop: pull one block per iteration and queue it on the
// device. GetSamples paces us to the synthesis rate (or feeds repeats when
// the producer lags), so the loop never spins.
func (a *Audio) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frames := a.src.GetSamples(a.cfg.BufferSize)
		var buf []byte
		if a.res != nil {
			buf = samplesToBytes(a.res.Resample(frames))
		} else {
			buf = framesToBytes(frames)
		}
		if len(buf) == 0 {
			continue
		}
		if err := sdl.QueueAudio(a.dev, buf); err != nil {
			log.ModSound.WarnZ("failed to queue audio").Error("err", err).End()
		}
	}
}

func (a *Audio) Close() {
	sdl.CloseAudioDevice(a.dev)
	sdl.QuitSubSystem(sdl.INIT_AUDIO)
}

// framesToBytes reinterprets packed stereo frames as a little-endian S16
// byte stream. The frame layout already matches the device layout, so this
// is a copy, not a conversion.
func framesToBytes(frames []uint32) []byte {
	if len(frames) == 0 {
		return nil
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(&frames[0])), len(frames)*4)
	buf := make([]byte, len(src))
	copy(buf, src)
	return buf
}

func samplesToBytes(samples []int16) []byte {
	if len(samples) == 0 {
		return nil
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(&samples[0])), len(samples)*2)
	buf := make([]byte, len(src))
	copy(buf, src)
	return buf
}
