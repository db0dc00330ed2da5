// Package spu emulates two generations of handheld sound hardware at
// register level: a legacy four-channel PSG generation with two direct-sound
// FIFOs, and an extended sixteen-channel generation with ADPCM decoding and
// capture units. Both produce interleaved stereo frames at a fixed 32768 Hz
// through a double-buffered producer/consumer exchange.
package spu

import (
	"nitro/emu/log"
	"nitro/hw/hwio"
)

// Memory is the bus the SPU fetches sample data from and captures into.
// Reads must be side-effect free; multi-byte accesses are little-endian.
type Memory interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, val uint8)
	Write16(addr uint32, val uint16)
}

// Generation selects which hardware design the SPU models. The choice is
// made at construction and never changes.
type Generation int

const (
	// Legacy is the four-PSG-channel generation with wave RAM and two
	// direct-sound sample FIFOs.
	Legacy Generation = iota
	// Extended is the sixteen-channel generation with PCM8/PCM16/ADPCM
	// formats and two capture units.
	Extended
)

// Sample format of an extended channel (SOUNDCNT bits 29-30).
type Format uint8

const (
	PCM8 Format = iota
	PCM16
	ADPCM
	PSG
)

//go:generate go tool stringer -type=Format

const (
	// The synthesis clock and the fixed output rate. One output frame is
	// produced every ClockRate/SampleRate ≈ 512 clocks, which is the
	// per-tick increment of every channel timer.
	ClockRate      = 16756991
	SampleRate     = 32768
	timerIncrement = 512
)

// I/O map base addresses.
const (
	ExtChannelBase = 0x04000400 // 16 channels × 16 bytes
	ExtGlobalBase  = 0x04000500 // main control, bias, capture control
	ExtCap0Base    = 0x04000510 // capture 0 destination/length
	ExtCap1Base    = 0x04000518 // capture 1 destination/length
	LegacyBase     = 0x04000060 // PSG + FIFO register block
)

// SPU is one sound engine instance. The emulation driver calls RunSample
// once per synthesis tick; the host audio callback calls GetSamples at its
// own cadence. The buffer exchange is the only coordination point between
// the two.
type SPU struct {
	mem  Memory
	buf  exchange
	gen  Generation
	tick func()

	// Extended generation.
	ch   [16]channel
	caps [2]capture

	MainCnt hwio.Reg16 `hwio:"bank=1,offset=0x0,rwmask=0xBF7F"`
	Bias    hwio.Reg16 `hwio:"bank=1,offset=0x4,rwmask=0x3FF,reset=0x200"`

	// Legacy generation.
	apu legacyAPU
}

// New builds an SPU of the given generation on top of mem. Registers are
// initialized to their power-on values; nothing plays until a channel is
// enabled through the register interface.
func New(gen Generation, mem Memory) *SPU {
	s := &SPU{
		mem: mem,
		gen: gen,
	}

	switch gen {
	case Extended:
		s.tick = s.runSample
		for i := range s.ch {
			ch := &s.ch[i]
			ch.spu = s
			ch.num = i
			hwio.MustInitRegs(ch)
		}
		for i := range s.caps {
			cu := &s.caps[i]
			cu.spu = s
			cu.num = i
			hwio.MustInitRegs(cu)
		}
		hwio.MustInitRegs(s)
	case Legacy:
		s.tick = s.runLegacySample
		s.apu.init(s)
	}

	log.ModSPU.InfoZ("spu created").Int("generation", int(gen)).End()
	return s
}

// MapIO maps the SPU register banks of the active generation into bus.
func (s *SPU) MapIO(bus *hwio.Table) {
	switch s.gen {
	case Extended:
		for i := range s.ch {
			bus.MapBank(ExtChannelBase+uint32(i)*0x10, &s.ch[i], 0)
		}
		bus.MapBank(ExtGlobalBase, s, 1)
		bus.MapReg8(ExtGlobalBase+0x8, &s.caps[0].CNT)
		bus.MapReg8(ExtGlobalBase+0x9, &s.caps[1].CNT)
		bus.MapBank(ExtCap0Base, &s.caps[0], 0)
		bus.MapBank(ExtCap1Base, &s.caps[1], 0)
	case Legacy:
		s.apu.mapIO(bus, LegacyBase)
	}
}

// RunSample advances the engine by one synthesis tick: decode, mix, and push
// one stereo frame into the exchange. Called from the emulation driver.
func (s *SPU) RunSample() {
	s.tick()
}

// GetSamples returns a block of count interleaved stereo frames, blocking
// until the producer fills a buffer or the anti-starvation timeout expires.
// Ownership of the returned slice transfers to the caller. See exchange for
// the full contract.
func (s *SPU) GetSamples(count int) []uint32 {
	return s.buf.getSamples(count)
}

// SetRateLimit controls whether a full producer buffer blocks RunSample
// until the consumer drains the previous one (pacing emulation to audio),
// or swaps immediately (favoring emulation speed over fidelity).
func (s *SPU) SetRateLimit(on bool) {
	s.buf.limit.Store(on)
}

// Generation returns the hardware generation this engine models.
func (s *SPU) Generation() Generation {
	return s.gen
}
