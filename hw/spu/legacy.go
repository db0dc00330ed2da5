package spu

import (
	"nitro/emu/log"
	"nitro/hw/hwio"
)

// legacyAPU is the legacy-generation sound block: four PSG voices, two
// direct-sound FIFOs, and the shared output stage. Register offsets are
// relative to LegacyBase.
//
// The trigger bits (bit 15 of the CNT_X-style registers) and the FIFO reset
// bits are write-only: they stay in the rwmask so the write callback sees
// them, and the callback clears them from the stored value.
type legacyAPU struct {
	Sound1CntL hwio.Reg16 `hwio:"offset=0x00,rwmask=0x7F,wcb"`
	Sound1CntH hwio.Reg16 `hwio:"offset=0x02,wcb"`
	Sound1CntX hwio.Reg16 `hwio:"offset=0x04,rwmask=0xC7FF,rcb,wcb"`
	Sound2CntL hwio.Reg16 `hwio:"offset=0x08,wcb"`
	Sound2CntH hwio.Reg16 `hwio:"offset=0x0C,rwmask=0xC7FF,rcb,wcb"`
	Sound3CntL hwio.Reg16 `hwio:"offset=0x10,rwmask=0xE0,wcb"`
	Sound3CntH hwio.Reg16 `hwio:"offset=0x12,rwmask=0xE0FF,wcb"`
	Sound3CntX hwio.Reg16 `hwio:"offset=0x14,rwmask=0xC7FF,rcb,wcb"`
	Sound4CntL hwio.Reg16 `hwio:"offset=0x18,rwmask=0xFF3F,wcb"`
	Sound4CntH hwio.Reg16 `hwio:"offset=0x1C,rwmask=0xC0FF,rcb,wcb"`
	SoundCntL  hwio.Reg16 `hwio:"offset=0x20,rwmask=0xFF77"`
	SoundCntH  hwio.Reg16 `hwio:"offset=0x22,rwmask=0xFF0F,wcb"`
	SoundCntX  hwio.Reg16 `hwio:"offset=0x24,rwmask=0x80,rcb,wcb"`
	Bias       hwio.Reg16 `hwio:"offset=0x28,rwmask=0x3FE,reset=0x200"`

	WaveRAM hwio.Device `hwio:"offset=0x30,size=0x10,rcb,wcb,pcb"`
	Fifo    hwio.Device `hwio:"offset=0x40,size=0x8,wcb"`

	spu *SPU

	tone  [2]toneChannel
	wave  waveChannel
	noise noiseChannel
	fifo  [2]sampleFIFO

	onRefill func(fifo int)

	// Frame sequencer: one step every 64 ticks (512 Hz), eight steps.
	div int
	seq int
}

func (a *legacyAPU) init(s *SPU) {
	a.spu = s
	a.tone[0].swept = true
	hwio.MustInitRegs(a)
}

func (a *legacyAPU) mapIO(bus *hwio.Table, base uint32) {
	bus.MapBank(base, a, 0)
}

func (a *legacyAPU) masterEnabled() bool {
	return hwio.GetBit16(a.SoundCntX.Value, 7)
}

// Tone channel 1: sweep, duty/length/envelope, frequency/trigger.

func (a *legacyAPU) WriteSOUND1CNTL(old, val uint16) {
	a.tone[0].sweep.load(val)
}

func (a *legacyAPU) WriteSOUND1CNTH(old, val uint16) {
	a.writeToneCntH(&a.tone[0], val)
}

func (a *legacyAPU) WriteSOUND1CNTX(old, val uint16) {
	a.writeToneCntX(&a.tone[0], 0, val)
	hwio.ClearBit16(&a.Sound1CntX.Value, 15)
}

func (a *legacyAPU) ReadSOUND1CNTX(val uint16) uint16 { return val & 0x4000 }

// Tone channel 2.

func (a *legacyAPU) WriteSOUND2CNTL(old, val uint16) {
	a.writeToneCntH(&a.tone[1], val)
}

func (a *legacyAPU) WriteSOUND2CNTH(old, val uint16) {
	a.writeToneCntX(&a.tone[1], 1, val)
	hwio.ClearBit16(&a.Sound2CntH.Value, 15)
}

func (a *legacyAPU) ReadSOUND2CNTH(val uint16) uint16 { return val & 0x4000 }

func (a *legacyAPU) writeToneCntH(c *toneChannel, val uint16) {
	c.duty = uint8(val>>6) & 0x3
	c.length.counter = 64 - int(val&0x3F)
	c.env.load(uint8(val >> 8))
	if !c.env.dacOn() {
		c.on = false
	}
}

func (a *legacyAPU) writeToneCntX(c *toneChannel, num int, val uint16) {
	c.freq = val & 0x7FF
	c.length.enabled = hwio.GetBit16(val, 14)
	if hwio.GetBit16(val, 15) && a.masterEnabled() {
		c.trigger()
		log.ModAPU.DebugZ("tone trigger").Int("ch", num).Hex16("freq", c.freq).End()
	}
}

// Wave channel.

func (a *legacyAPU) WriteSOUND3CNTL(old, val uint16) {
	w := &a.wave
	w.twoBanks = hwio.GetBit16(val, 5)
	w.bankSel = uint8(val>>6) & 1
	w.playing = hwio.GetBit16(val, 7)
	if !w.playing {
		w.on = false
	}
}

func (a *legacyAPU) WriteSOUND3CNTH(old, val uint16) {
	w := &a.wave
	w.length.counter = 256 - int(val&0xFF)
	w.volCode = uint8(val>>13) & 0x3
	w.force75 = hwio.GetBit16(val, 15)
}

func (a *legacyAPU) WriteSOUND3CNTX(old, val uint16) {
	w := &a.wave
	w.freq = val & 0x7FF
	w.length.enabled = hwio.GetBit16(val, 14)
	if hwio.GetBit16(val, 15) && a.masterEnabled() {
		w.trigger()
		log.ModAPU.DebugZ("wave trigger").Hex16("freq", w.freq).End()
	}
	hwio.ClearBit16(&a.Sound3CntX.Value, 15)
}

func (a *legacyAPU) ReadSOUND3CNTX(val uint16) uint16 { return val & 0x4000 }

// Noise channel.

func (a *legacyAPU) WriteSOUND4CNTL(old, val uint16) {
	n := &a.noise
	n.length.counter = 64 - int(val&0x3F)
	n.env.load(uint8(val >> 8))
	if !n.env.dacOn() {
		n.on = false
	}
}

func (a *legacyAPU) WriteSOUND4CNTH(old, val uint16) {
	n := &a.noise
	n.divCode = uint8(val) & 0x7
	n.width7 = hwio.GetBit16(val, 3)
	n.shift = uint8(val>>4) & 0xF
	n.length.enabled = hwio.GetBit16(val, 14)
	if hwio.GetBit16(val, 15) && a.masterEnabled() {
		n.trigger()
		log.ModAPU.DebugZ("noise trigger").Uint8("shift", n.shift).End()
	}
	hwio.ClearBit16(&a.Sound4CntH.Value, 15)
}

func (a *legacyAPU) ReadSOUND4CNTH(val uint16) uint16 { return val & 0x4000 }

// Output control.

func (a *legacyAPU) WriteSOUNDCNTH(old, val uint16) {
	if hwio.GetBit16(val, 11) {
		a.fifo[0].reset()
	}
	if hwio.GetBit16(val, 15) {
		a.fifo[1].reset()
	}
	a.SoundCntH.Value &^= 0x8800
}

func (a *legacyAPU) WriteSOUNDCNTX(old, val uint16) {
	if !hwio.GetBit16(val, 7) {
		// Master disable silences everything immediately.
		a.tone[0].on = false
		a.tone[1].on = false
		a.wave.on = false
		a.noise.on = false
	}
}

// ReadSOUNDCNTX composes the live channel-active status bits.
func (a *legacyAPU) ReadSOUNDCNTX(val uint16) uint16 {
	if a.tone[0].on {
		val |= 0x1
	}
	if a.tone[1].on {
		val |= 0x2
	}
	if a.wave.on {
		val |= 0x4
	}
	if a.noise.on {
		val |= 0x8
	}
	return val
}

// Wave RAM ports access the bank not selected for playback.

func (a *legacyAPU) ReadWAVERAM(addr uint32) uint8 {
	return a.wave.ram[a.wave.bankSel^1][addr&0xF]
}

func (a *legacyAPU) PeekWAVERAM(addr uint32) uint8 {
	return a.wave.ram[a.wave.bankSel^1][addr&0xF]
}

func (a *legacyAPU) WriteWAVERAM(addr uint32, val uint8) {
	a.wave.ram[a.wave.bankSel^1][addr&0xF] = val
}

// FIFO ports: four bytes each, A then B. Every byte written is one sample.
func (a *legacyAPU) WriteFIFO(addr uint32, val uint8) {
	a.fifo[addr>>2&1].push(int8(val))
}

// fifoTimerTick pops one sample from every FIFO driven by the given timer
// (0 or 1) and requests a refill when a queue reaches the watermark.
func (a *legacyAPU) fifoTimerTick(timer int) {
	cnth := a.SoundCntH.Value
	sel := [2]int{int(cnth >> 10 & 1), int(cnth >> 14 & 1)}
	for i := range a.fifo {
		if sel[i] != timer || cnth>>uint(8+i*4)&0x3 == 0 {
			continue
		}
		if a.fifo[i].pop() && a.onRefill != nil {
			a.onRefill(i)
		}
	}
}

// FifoTimerTick notifies the legacy sound block that a hardware timer
// overflowed. Every FIFO driven by that timer outputs its next sample.
// A no-op on the extended generation.
func (s *SPU) FifoTimerTick(timer int) {
	if s.gen == Legacy {
		s.apu.fifoTimerTick(timer)
	}
}

// SetFifoRefill installs the callback invoked when a FIFO drains to its
// watermark, standing in for the DMA request line.
func (s *SPU) SetFifoRefill(fn func(fifo int)) {
	s.apu.onRefill = fn
}

// sequencerStep clocks the length counters, the sweep, and the envelopes at
// their respective rates.
func (a *legacyAPU) sequencerStep() {
	if a.seq%2 == 0 {
		if a.tone[0].length.clock() {
			a.tone[0].on = false
		}
		if a.tone[1].length.clock() {
			a.tone[1].on = false
		}
		if a.wave.length.clock() {
			a.wave.on = false
		}
		if a.noise.length.clock() {
			a.noise.on = false
		}
	}
	if a.seq == 2 || a.seq == 6 {
		if a.tone[0].sweep.clock(&a.tone[0].freq) {
			a.tone[0].on = false
		}
	}
	if a.seq == 7 {
		a.tone[0].env.clock()
		a.tone[1].env.clock()
		a.noise.env.clock()
	}
	a.seq = (a.seq + 1) % 8
}

// psgMix sums the four voices into one side, applying the per-side enable
// bits and master volume from SOUNDCNT_L and the PSG ratio from SOUNDCNT_H.
// en is the 4-bit enable field for this side, vol the 3-bit volume.
func (a *legacyAPU) psgMix(en, vol uint16) int64 {
	var sum int
	if en&0x1 != 0 {
		sum += a.tone[0].output()
	}
	if en&0x2 != 0 {
		sum += a.tone[1].output()
	}
	if en&0x4 != 0 {
		sum += a.wave.output()
	}
	if en&0x8 != 0 {
		sum += a.noise.output()
	}

	out := int64(sum) * int64(vol+1) / 8

	ratio := a.SoundCntH.Value & 0x3
	if ratio > 2 {
		ratio = 2
	}
	return out >> (2 - ratio)
}

// fifoMix sums the direct-sound channels into one side. side is 0 for right,
// 1 for left, matching the SOUNDCNT_H enable bit layout.
func (a *legacyAPU) fifoMix(side uint) int64 {
	cnth := a.SoundCntH.Value
	var sum int64
	for i := range a.fifo {
		if !hwio.GetBit16(cnth, 8+uint(i)*4+side) {
			continue
		}
		s := int64(a.fifo[i].sample) << 2
		if !hwio.GetBit16(cnth, 2+uint(i)) {
			s >>= 1 // half volume
		}
		sum += s
	}
	return sum
}

// runLegacySample is the legacy-generation tick: advance the sequencer and
// the voice timers, mix both sides through the bias/clip/expand chain, and
// push one frame.
func (s *SPU) runLegacySample() {
	a := &s.apu

	bias := int64(a.Bias.Value)
	if !a.masterEnabled() {
		v := (clip10(bias) - 0x200) << 5
		s.buf.push(uint32(v)<<16 | uint32(v)&0xFFFF)
		return
	}

	a.div++
	if a.div == SampleRate/512 /* 512 Hz */ {
		a.div = 0
		a.sequencerStep()
	}

	a.tone[0].tick()
	a.tone[1].tick()
	a.wave.tick()
	a.noise.tick()

	cntl := a.SoundCntL.Value
	left := a.psgMix(cntl>>12&0xF, cntl>>4&0x7) + a.fifoMix(1) + bias
	right := a.psgMix(cntl>>8&0xF, cntl&0x7) + a.fifoMix(0) + bias

	left = (clip10(left) - 0x200) << 5
	right = (clip10(right) - 0x200) << 5

	s.buf.push(uint32(right)<<16 | uint32(left)&0xFFFF)
}
