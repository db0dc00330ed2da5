package spu

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"nitro/hw/hwio"
)

func newLegacy(t *testing.T) (*SPU, *hwio.Table) {
	t.Helper()
	s := New(Legacy, newTestMem())
	bus := hwio.NewTable("spu")
	s.MapIO(bus)
	return s, bus
}

const lbase = LegacyBase

func TestLegacyToneOutput(t *testing.T) {
	s, bus := newLegacy(t)

	bus.Write16(lbase+0x24, 0x80)   // master enable
	bus.Write16(lbase+0x20, 0x1177) // tone 1 both sides, volume 7/7
	bus.Write16(lbase+0x22, 0x2)    // PSG ratio 100%
	bus.Write16(lbase+0x02, 0xF080) // duty 50%, volume 15
	// Frequency 2016: one duty step per tick. Trigger.
	bus.Write16(lbase+0x04, 0x8000|2016)

	if got := bus.Read16(lbase + 0x24); got != 0x81 {
		t.Fatalf("SOUNDCNT_X = %04X, want 0081", got)
	}

	frames := collect(s, 8)
	// Duty pattern 0,0,0,0,1,1,1,0 starting from position 1; amplitude
	// 15<<3 = 120 over the bias, expanded by 5 bits.
	want := []int16{-3840, -3840, -3840, -3840, 3840, 3840, 3840, 3840}
	got := make([]int16, len(frames))
	for i, f := range frames {
		got[i] = int16(f & 0xFFFF)
		if r := int16(f >> 16); r != got[i] {
			t.Errorf("frame %d: right = %d, left = %d, want equal", i, r, got[i])
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
}

func TestLegacyTriggerBitWriteOnly(t *testing.T) {
	s, bus := newLegacy(t)

	bus.Write16(lbase+0x24, 0x80)
	bus.Write16(lbase+0x04, 0x8000|0x4000|100)
	if got := s.apu.Sound1CntX.Value; got&0x8000 != 0 {
		t.Errorf("trigger bit stored: %04X", got)
	}
	// Only the length-enable bit reads back.
	if got := bus.Read16(lbase + 0x04); got != 0x4000 {
		t.Errorf("SOUND1CNT_X reads %04X, want 4000", got)
	}
}

func TestLegacyEnvelope(t *testing.T) {
	var e envelope
	e.load(0x52) // volume 5, decrease, period 2

	e.trigger()
	if e.volume != 5 {
		t.Fatalf("volume = %d, want 5", e.volume)
	}
	e.clock()
	if e.volume != 5 {
		t.Errorf("volume = %d, want 5 (period not elapsed)", e.volume)
	}
	e.clock()
	if e.volume != 4 {
		t.Errorf("volume = %d, want 4", e.volume)
	}

	// Increase direction saturates at 15.
	e.load(0xE9)
	e.trigger()
	for i := 0; i < 10; i++ {
		e.clock()
	}
	if e.volume != 15 {
		t.Errorf("volume = %d, want 15", e.volume)
	}
}

func TestLegacyLengthCounter(t *testing.T) {
	s, bus := newLegacy(t)
	a := &s.apu

	bus.Write16(lbase+0x24, 0x80)
	bus.Write16(lbase+0x02, 0xF000|62)        // length 64-62 = 2
	bus.Write16(lbase+0x04, 0x8000|0x4000|64) // trigger, length enabled

	if !a.tone[0].on {
		t.Fatal("channel should be on after trigger")
	}

	// Length clocks on the even sequencer steps: expired after two.
	a.sequencerStep()
	if !a.tone[0].on {
		t.Fatal("channel off too early")
	}
	a.sequencerStep() // odd step, no length clock
	a.sequencerStep()
	if a.tone[0].on {
		t.Fatal("channel should be off after length expires")
	}
	if got := bus.Read16(lbase + 0x24); got&0x1 != 0 {
		t.Errorf("status still set: %04X", got)
	}
}

func TestLegacySweep(t *testing.T) {
	var sw sweepUnit
	sw.load(0x11) // period 1, add, shift 1

	freq := uint16(0x100)
	if sw.trigger(freq) {
		t.Fatal("no overflow expected on trigger")
	}

	// Each step multiplies the frequency by 1.5; the fifth lands on 0x798
	// and its lookahead (0x798 + 0x3CC) finally overflows.
	steps := 0
	for !sw.clock(&freq) {
		steps++
		if steps > 10 {
			t.Fatal("sweep never overflowed")
		}
	}
	if steps != 4 {
		t.Errorf("overflow after %d clean steps, want 4", steps)
	}
	if freq != 0x798 {
		t.Errorf("freq = %03X, want 798", freq)
	}
}

func TestLegacyNoiseLFSR(t *testing.T) {
	var n noiseChannel
	n.env.load(0xF0)
	n.shift = 7 // period 4096, longer than one tick
	n.trigger()

	if n.lfsr != 0x7FFF {
		t.Fatalf("lfsr = %04X, want 7FFF", n.lfsr)
	}
	n.timer = timerIncrement // exactly one step on the next tick
	n.tick()
	if n.lfsr != 0x3FFF {
		t.Errorf("lfsr = %04X, want 3FFF", n.lfsr)
	}
}

func TestLegacyWaveRAMBanks(t *testing.T) {
	s, bus := newLegacy(t)
	a := &s.apu

	// Bank select 0: the ports access bank 1.
	bus.Write16(lbase+0x10, 0x00)
	bus.Write8(lbase+0x30, 0x12)
	if a.wave.ram[1][0] != 0x12 {
		t.Errorf("ram[1][0] = %02X, want 12", a.wave.ram[1][0])
	}

	// Bank select 1: the ports access bank 0.
	bus.Write16(lbase+0x10, 0x40)
	bus.Write8(lbase+0x30, 0x34)
	if a.wave.ram[0][0] != 0x34 {
		t.Errorf("ram[0][0] = %02X, want 34", a.wave.ram[0][0])
	}
	if got := bus.Read8(lbase + 0x30); got != 0x34 {
		t.Errorf("waveram read = %02X, want 34", got)
	}

	bus.Write16(lbase+0x10, 0x00)
	if got := bus.Read8(lbase + 0x30); got != 0x12 {
		t.Errorf("waveram read = %02X, want 12", got)
	}
}

func TestLegacyFIFO(t *testing.T) {
	s, bus := newLegacy(t)

	var refills []int
	s.SetFifoRefill(func(fifo int) { refills = append(refills, fifo) })

	bus.Write16(lbase+0x24, 0x80)
	bus.Write16(lbase+0x22, 0x0304) // FIFO A both sides, full volume, timer 0

	bus.Write32(lbase+0x40, 0x50403040)
	if got := s.apu.fifo[0].count; got != 4 {
		t.Fatalf("fifo count = %d, want 4", got)
	}

	s.FifoTimerTick(0)
	if got := s.apu.fifo[0].sample; got != 0x40 {
		t.Errorf("sample = %02X, want 40", got)
	}
	if len(refills) != 1 || refills[0] != 0 {
		t.Errorf("refills = %v, want [0]", refills)
	}

	// Timer 1 does not drive FIFO A.
	s.FifoTimerTick(1)
	if got := s.apu.fifo[0].sample; got != 0x40 {
		t.Errorf("sample = %02X, want 40 (unchanged)", got)
	}

	// The sample feeds both sides at full volume: 0x40 << 2 over the bias.
	frames := collect(s, 2)
	for i, f := range frames {
		if got := int16(f & 0xFFFF); got != 0x100<<5 {
			t.Errorf("frame %d: left = %d, want %d", i, got, 0x100<<5)
		}
	}

	// Draining an empty FIFO holds the last sample.
	for i := 0; i < 8; i++ {
		s.FifoTimerTick(0)
	}
	if got := s.apu.fifo[0].sample; got != 0x40 {
		t.Errorf("sample = %02X, want 40 (held)", got)
	}
}

func TestLegacyFIFOReset(t *testing.T) {
	s, bus := newLegacy(t)

	bus.Write32(lbase+0x40, 0x04030201)
	bus.Write32(lbase+0x44, 0x08070605)
	bus.Write16(lbase+0x22, 0x8800) // reset both FIFOs

	if s.apu.fifo[0].count != 0 || s.apu.fifo[1].count != 0 {
		t.Error("FIFOs should be empty after reset")
	}
	if got := s.apu.SoundCntH.Value; got&0x8800 != 0 {
		t.Errorf("reset bits stored: %04X", got)
	}
}

func TestLegacyMasterDisable(t *testing.T) {
	s, bus := newLegacy(t)

	// Triggers while the master enable is off are ignored.
	bus.Write16(lbase+0x02, 0xF080)
	bus.Write16(lbase+0x04, 0x8000|2016)
	if s.apu.tone[0].on {
		t.Fatal("trigger should be gated by the master enable")
	}

	frames := collect(s, 2)
	if diff := cmp.Diff(repeat(0, 2), frames); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}
