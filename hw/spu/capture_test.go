package spu

import (
	"testing"

	"nitro/hw/hwio"
)

// enableLoudLeft keys on channel 0 with a constant PCM8 source panned hard
// left, giving a pre-master left sum of 0x400000 (captured as 0x4000). Only
// the source region is filled so the capture destination starts zeroed.
func enableLoudLeft(bus *hwio.Table, mem *testMem) {
	for i := range mem.data[:0x1000] {
		mem.data[i] = 0x40
	}
	bus.Write16(ch0+0x8, 0xFE00)
	bus.Write32(ch0+0xC, 0x3FFFFF)
	bus.Write32(ch0+0x0, 1<<31|127) // pan 0: hard left
}

func TestCaptureOneShot(t *testing.T) {
	s, mem, bus := newExtended(t)
	enableLoudLeft(bus, mem)

	bus.Write16(ExtChannelBase+0x10+0x8, 0xFE00) // channel 1 paces capture 0
	bus.Write32(ExtCap0Base, 0x2000)
	bus.Write16(ExtCap0Base+0x4, 0x2)       // 8 bytes
	bus.Write8(ExtGlobalBase+0x8, 0x84)     // start, one-shot, PCM16
	if got := s.caps[0].current; got != 0x2000 {
		t.Fatalf("current = %05X, want 02000", got)
	}

	for i := 0; i < 6; i++ {
		s.RunSample()
	}

	for off := uint32(0); off < 8; off += 2 {
		if got := mem.Read16(0x2000 + off); got != 0x4000 {
			t.Errorf("mem[%05X] = %04X, want 4000", 0x2000+off, got)
		}
	}
	if s.caps[0].running() {
		t.Error("one-shot capture should stop at end of buffer")
	}
	// No writes past the end.
	if got := mem.Read16(0x2008); got != 0 {
		t.Errorf("mem[02008] = %04X, want 0000", got)
	}
}

func TestCaptureLoopPCM8(t *testing.T) {
	s, mem, bus := newExtended(t)
	enableLoudLeft(bus, mem)

	bus.Write16(ExtChannelBase+0x10+0x8, 0xFE00)
	bus.Write32(ExtCap0Base, 0x2000)
	bus.Write16(ExtCap0Base+0x4, 0x1)   // 4 bytes
	bus.Write8(ExtGlobalBase+0x8, 0x88) // start, looping, PCM8

	for i := 0; i < 6; i++ {
		s.RunSample()
	}

	if !s.caps[0].running() {
		t.Error("looping capture should keep running")
	}
	// Six writes into a 4-byte ring: wrapped back to the start.
	if got := s.caps[0].current; got != 0x2002 {
		t.Errorf("current = %05X, want 02002", got)
	}
	for off := uint32(0); off < 4; off++ {
		if got := mem.Read8(0x2000 + off); got != 0x40 {
			t.Errorf("mem[%05X] = %02X, want 40", 0x2000+off, got)
		}
	}
}
