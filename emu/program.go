package emu

import (
	"fmt"

	"nitro/emu/log"
	"nitro/hw/spu"
)

// SamplePlayer loads a raw sample into RAM and plays it on channel 0.
type SamplePlayer struct {
	Data   []byte
	Format spu.Format
	Rate   int
	Loop   bool
}

func (p *SamplePlayer) Init(m *Machine) error {
	if p.Format == spu.PSG {
		return fmt.Errorf("cannot play a file on a PSG channel")
	}
	if len(p.Data) == 0 {
		return fmt.Errorf("empty sample")
	}
	if len(p.Data) > len(m.RAM.Data) {
		return fmt.Errorf("sample too large: %d bytes, max %d", len(p.Data), len(m.RAM.Data))
	}
	if p.Rate < 256 || p.Rate > spu.SampleRate {
		return fmt.Errorf("sample rate %d out of range (256-%d)", p.Rate, spu.SampleRate)
	}
	copy(m.RAM.Data, p.Data)

	words := uint32((len(p.Data) + 3) / 4)
	tmr := uint32(0x10000 - spu.ClockRate/p.Rate)

	cnt := uint32(1<<31) | uint32(p.Format)<<29 | 64<<16 | 127
	if p.Loop {
		cnt |= 1 << 27
	}

	base := uint32(spu.ExtChannelBase)
	m.Bus.Write32(base+0x4, RAMBase)
	m.Bus.Write16(base+0x8, uint16(tmr))
	m.Bus.Write16(base+0xA, 0)
	m.Bus.Write32(base+0xC, words)
	m.Bus.Write16(spu.ExtGlobalBase, 0x8000|127)
	m.Bus.Write32(base+0x0, cnt)

	log.ModEmu.InfoZ("playing sample").
		Int("bytes", len(p.Data)).
		Int("rate", p.Rate).
		Stringer("format", p.Format).
		End()
	return nil
}

// Step finishes once the one-shot channel disables itself, plus a few
// frames for the exchange to drain.
func (p *SamplePlayer) Step(m *Machine, frame int) bool {
	if p.Loop {
		return false
	}
	cnt := m.Bus.Read32(spu.ExtChannelBase)
	return cnt&(1<<31) == 0
}

// Demo plays a fixed little tune on the PSG hardware of either generation.
type Demo struct {
	Gen spu.Generation
}

const demoFrames = 240 // 4 seconds

// Pulse notes, one per half second (C5 E5 G5 C6 and back).
var demoNotes = []int{523, 659, 784, 1046, 784, 659, 523, 659}

func (d *Demo) Init(m *Machine) error {
	switch d.Gen {
	case spu.Extended:
		m.Bus.Write16(spu.ExtGlobalBase, 0x8000|127)
	case spu.Legacy:
		m.Bus.Write16(spu.LegacyBase+0x24, 0x80)   // master enable
		m.Bus.Write16(spu.LegacyBase+0x20, 0x9977) // tone 1 + noise, full volume
		m.Bus.Write16(spu.LegacyBase+0x22, 0x2)    // PSG ratio 100%
	}
	return nil
}

func (d *Demo) Step(m *Machine, frame int) bool {
	if frame >= demoFrames {
		return true
	}
	if frame%30 == 0 {
		d.playNote(m, demoNotes[(frame/30)%len(demoNotes)])
	}
	if frame%60 == 15 {
		d.playNoise(m)
	}
	return false
}

func (d *Demo) playNote(m *Machine, freq int) {
	switch d.Gen {
	case spu.Extended:
		// Duty steps run at 8x the note frequency.
		base := uint32(spu.ExtChannelBase + 8*0x10)
		tmr := 0x10000 - spu.ClockRate/(8*freq)
		m.Bus.Write16(base+0x8, uint16(tmr))
		m.Bus.Write32(base+0x0, 1<<31|uint32(spu.PSG)<<29|4<<24|64<<16|127)
	case spu.Legacy:
		// Tone frequency register: f = 2048 - 131072/freq.
		f := 2048 - 131072/freq
		m.Bus.Write16(spu.LegacyBase+0x02, 0xF080) // duty 50%, full volume
		m.Bus.Write16(spu.LegacyBase+0x04, 0x8000|uint16(f))
	}
}

func (d *Demo) playNoise(m *Machine) {
	switch d.Gen {
	case spu.Extended:
		base := uint32(spu.ExtChannelBase + 14*0x10)
		m.Bus.Write16(base+0x8, 0xC000)
		m.Bus.Write32(base+0x0, 1<<31|uint32(spu.PSG)<<29|64<<16|100)
	case spu.Legacy:
		// Short decaying hit.
		m.Bus.Write16(spu.LegacyBase+0x18, 0xF200) // volume 15, decay period 2
		m.Bus.Write16(spu.LegacyBase+0x1C, 0x8034) // trigger, shift 3, divisor 4
	}
}
