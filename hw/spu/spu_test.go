package spu

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// collect primes the exchange for count frames, runs count ticks, and
// returns the produced block.
func collect(s *SPU, count int) []uint32 {
	s.GetSamples(count) // sizes the buffers, times out empty
	for i := 0; i < count; i++ {
		s.RunSample()
	}
	return s.GetSamples(count)
}

func repeat(frame uint32, count int) []uint32 {
	out := make([]uint32, count)
	for i := range out {
		out[i] = frame
	}
	return out
}

// A constant PCM8 source at full volume, centered pan: every stage of the
// datapath is exercised with easily checked powers of two.
func TestMixerPCM8(t *testing.T) {
	s, mem, bus := newExtended(t)

	for i := range mem.data {
		mem.data[i] = 0x40
	}
	bus.Write32(ch0+0x8, 0x0000FE00) // TMR; PNT=0 via upper half
	bus.Write32(ch0+0xC, 0x3FFFFF)
	bus.Write32(ch0+0x0, 1<<31|64<<16|127)

	// 0x40 << 8 << 4, volume 127 treated as 128, pan 64/128, master 127
	// treated as 128, bias 0x200: both sides come out at +0x80 over bias.
	bus.Write16(ExtGlobalBase, 127)

	got := collect(s, 4)
	if diff := cmp.Diff(repeat(0x10001000, 4), got); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

// Divider encoding 3 shifts by 4, one more than its face value.
func TestMixerDividerQuirk(t *testing.T) {
	s, mem, bus := newExtended(t)

	for i := range mem.data {
		mem.data[i] = 0x40
	}
	bus.Write32(ch0+0x8, 0x0000FE00)
	bus.Write32(ch0+0xC, 0x3FFFFF)
	bus.Write32(ch0+0x0, 1<<31|64<<16|3<<8|127)
	bus.Write16(ExtGlobalBase, 127)

	got := collect(s, 4)
	if diff := cmp.Diff(repeat(0x01000100, 4), got); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

// A bias near the ceiling clips before expansion.
func TestMixerBiasClip(t *testing.T) {
	s, mem, bus := newExtended(t)

	for i := range mem.data {
		mem.data[i] = 0x40
	}
	bus.Write32(ch0+0x8, 0x0000FE00)
	bus.Write32(ch0+0xC, 0x3FFFFF)
	bus.Write32(ch0+0x0, 1<<31|64<<16|127)
	bus.Write16(ExtGlobalBase, 127)
	bus.Write16(ExtGlobalBase+0x4, 0x3FF)

	got := collect(s, 2)
	if diff := cmp.Diff(repeat(0x3FE03FE0, 2), got); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

// Silence with the default bias expands to exactly zero.
func TestMixerIdle(t *testing.T) {
	s, _, _ := newExtended(t)

	got := collect(s, 2)
	if diff := cmp.Diff(repeat(0, 2), got); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestRegisterMasks(t *testing.T) {
	s, _, bus := newExtended(t)

	bus.Write32(ch0+0x0, 0xFFFFFFFF)
	if got := s.ch[0].CNT.Value; got != 0xFF7F837F {
		t.Errorf("CNT = %08X, want FF7F837F", got)
	}
	bus.Write32(ch0+0x4, 0xFFFFFFFF)
	if got := s.ch[0].SAD.Value; got != 0x07FFFFFC {
		t.Errorf("SAD = %08X, want 07FFFFFC", got)
	}
	bus.Write32(ch0+0xC, 0xFFFFFFFF)
	if got := s.ch[0].LEN.Value; got != 0x003FFFFF {
		t.Errorf("LEN = %08X, want 003FFFFF", got)
	}

	bus.Write16(ExtGlobalBase, 0xFFFF)
	if got := s.MainCnt.Value; got != 0xBF7F {
		t.Errorf("MAINSOUNDCNT = %04X, want BF7F", got)
	}
	bus.Write16(ExtGlobalBase+0x4, 0xFFFF)
	if got := s.Bias.Value; got != 0x03FF {
		t.Errorf("SOUNDBIAS = %04X, want 03FF", got)
	}

	bus.Write8(ExtGlobalBase+0x8, 0xFF)
	if got := s.caps[0].CNT.Value; got != 0x8F {
		t.Errorf("SNDCAPCNT = %02X, want 8F", got)
	}
}

func TestBiasReset(t *testing.T) {
	s := New(Extended, newTestMem())
	if s.Bias.Value != 0x200 {
		t.Errorf("SOUNDBIAS resets to %04X, want 0200", s.Bias.Value)
	}
}

// Byte and halfword lanes reach the wide channel registers.
func TestRegisterByteLanes(t *testing.T) {
	s, _, bus := newExtended(t)

	bus.Write32(ch0+0x4, 0x04112233)
	bus.Write8(ch0+0x6, 0x55)
	if got := s.ch[0].SAD.Value; got != 0x04552230 {
		t.Errorf("SAD = %08X, want 04552230", got)
	}

	// Upper halfword lane of LEN, clipped by the register mask.
	bus.Write16(ch0+0xE, 0x0011)
	if got := s.ch[0].LEN.Value; got != 0x00110000 {
		t.Errorf("LEN = %08X, want 00110000", got)
	}
}
