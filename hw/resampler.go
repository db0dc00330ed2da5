package hw

import (
	"github.com/arl/blip"

	"nitro/hw/spu"
)

// Resampler converts the fixed-rate synthesis stream to the audio device
// rate with a pair of band-limited buffers, one per side.
type Resampler struct {
	left  *blip.Buffer
	right *blip.Buffer

	prevLeft  int16
	prevRight int16

	out []int16
}

// NewResampler builds a resampler from inRate to outRate, sized for input
// blocks of blockSize frames.
func NewResampler(inRate, outRate, blockSize int) *Resampler {
	// Worst case output samples for one input block, plus slack for the
	// fractional carry-over.
	maxOut := blockSize*outRate/spu.SampleRate + 64

	r := &Resampler{
		left:  blip.NewBuffer(maxOut),
		right: blip.NewBuffer(maxOut),
		out:   make([]int16, 2*maxOut),
	}
	r.left.SetRates(float64(inRate), float64(outRate))
	r.right.SetRates(float64(inRate), float64(outRate))
	return r
}

// Resample feeds one block of packed stereo frames and returns the
// interleaved device-rate samples. The returned slice is valid until the
// next call.
func (r *Resampler) Resample(frames []uint32) []int16 {
	for i, f := range frames {
		l := int16(f & 0xFFFF)
		rt := int16(f >> 16)
		if l != r.prevLeft {
			r.left.AddDelta(uint64(i), int32(l)-int32(r.prevLeft))
			r.prevLeft = l
		}
		if rt != r.prevRight {
			r.right.AddDelta(uint64(i), int32(rt)-int32(r.prevRight))
			r.prevRight = rt
		}
	}
	r.left.EndFrame(len(frames))
	r.right.EndFrame(len(frames))

	n := r.left.ReadSamples(r.out, len(r.out)/2, blip.Stereo)
	r.right.ReadSamples(r.out[1:], n, blip.Stereo)
	return r.out[:2*n]
}
