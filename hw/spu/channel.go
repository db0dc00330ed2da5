package spu

import (
	"nitro/emu/log"
	"nitro/hw/hwio"
)

// channel is one of the sixteen extended-generation voices.
//
// SOUNDCNT layout: bits 0-6 volume factor, 8-9 volume divider, 15 hold,
// 16-22 pan, 24-26 PSG duty, 27-28 repeat mode, 29-30 format, 31 enable.
// Channels 8-13 can play pulse waves, 14-15 noise; the PSG format selector
// is ignored elsewhere.
type channel struct {
	CNT hwio.Reg32 `hwio:"offset=0x0,rwmask=0xFF7F837F,wcb"`
	SAD hwio.Reg32 `hwio:"offset=0x4,rwmask=0x07FFFFFC"`
	TMR hwio.Reg16 `hwio:"offset=0x8"`
	PNT hwio.Reg16 `hwio:"offset=0xA"`
	LEN hwio.Reg32 `hwio:"offset=0xC,rwmask=0x3FFFFF"`

	spu *SPU
	num int

	current uint32 // current read address
	timer   uint16 // timer accumulator

	adpcm adpcmDecoder
	duty  int    // pulse duty-cycle counter, 0-7
	noise uint16 // noise shift register; bit 15 latches the last carry
}

const (
	loopManual   = 0
	loopInfinite = 1
)

func (ch *channel) enabled() bool      { return hwio.GetBit32(ch.CNT.Value, 31) }
func (ch *channel) format() Format     { return Format((ch.CNT.Value >> 29) & 3) }
func (ch *channel) repeatMode() uint32 { return (ch.CNT.Value >> 27) & 3 }

// loopStart and loopEnd delimit the playback window; PNT and LEN are in
// 4-byte units.
func (ch *channel) loopStart() uint32 {
	return ch.SAD.Value + uint32(ch.PNT.Value)*4
}

func (ch *channel) loopEnd() uint32 {
	return ch.SAD.Value + (uint32(ch.PNT.Value)+ch.LEN.Value)*4
}

// WriteCNT detects the enable bit rising and re-initializes the channel's
// internal playback state. Any other control bit change takes effect on the
// next tick without side effects.
func (ch *channel) WriteCNT(old, val uint32) {
	if !hwio.GetBit32(old, 31) && hwio.GetBit32(val, 31) {
		ch.start()
	}
}

// start reloads the internal registers for a key-on.
func (ch *channel) start() {
	ch.current = ch.SAD.Value
	ch.timer = ch.TMR.Value

	switch ch.format() {
	case ADPCM:
		// The 4-byte header at the source address seeds the predictor and
		// the step index.
		header := ch.spu.mem.Read32(ch.SAD.Value)
		ch.adpcm.seed(header)
		ch.current += 4
	case PSG:
		if ch.num >= 8 && ch.num <= 13 {
			ch.duty = 0
		} else if ch.num >= 14 {
			ch.noise = 0x7FFF
		}
	}

	log.ModSPU.DebugZ("channel start").
		Int("ch", ch.num).
		Stringer("format", ch.format()).
		Hex32("sad", ch.SAD.Value).
		Hex16("tmr", ch.TMR.Value).
		End()
}

// runSample returns the channel's raw 16-bit sample for this tick and
// advances the timer, decoding as many sample steps as the reload period
// dictates.
func (ch *channel) runSample() int64 {
	var data int64

	switch ch.format() {
	case PCM8:
		data = int64(int8(ch.spu.mem.Read8(ch.current))) << 8
	case PCM16:
		data = int64(int16(ch.spu.mem.Read16(ch.current)))
	case ADPCM:
		// The predictor holds the last decoded sample; nibbles are only
		// consumed on timer reload.
		data = int64(ch.adpcm.value)
	case PSG:
		if ch.num >= 8 && ch.num <= 13 {
			duty := 7 - int((ch.CNT.Value>>24)&0x7)
			if ch.duty < duty {
				data = -0x7FFF
			} else {
				data = 0x7FFF
			}
		} else if ch.num >= 14 {
			if ch.noise&0x8000 != 0 {
				data = -0x7FFF
			} else {
				data = 0x7FFF
			}
		}
	}

	// One tick is worth 512 synthesis clocks. A wraparound of the 16-bit
	// accumulator triggers a reload cycle; tiny reload periods can trigger
	// several per tick.
	ch.timer += timerIncrement
	overflow := ch.timer < timerIncrement
	for overflow {
		reload := ch.TMR.Value
		ch.timer += reload
		overflow = ch.timer < reload
		ch.advance()
		if !ch.enabled() {
			break
		}
	}

	return data
}

// advance moves the channel to its next sample step.
func (ch *channel) advance() {
	switch ch.format() {
	case PCM8:
		ch.current++
	case PCM16:
		ch.current += 2
	case ADPCM:
		ch.advanceADPCM()
	case PSG:
		ch.advancePSG()
		return
	}

	// Repeat or end the sound when the end of the data is reached.
	if ch.current == ch.loopEnd() {
		if ch.repeatMode() == loopInfinite {
			ch.current = ch.loopStart()
			if ch.format() == ADPCM {
				ch.adpcm.restoreLoop()
			}
		} else {
			hwio.ClearBit32(&ch.CNT.Value, 31)
			log.ModSPU.DebugZ("channel end").Int("ch", ch.num).End()
		}
	}
}

// advanceADPCM consumes the next 4-bit code, low nibble first. The byte
// address only moves after the high nibble, and the predictor/index pair is
// snapshotted when the address crosses the loop point so an infinite loop
// can restart from there.
func (ch *channel) advanceADPCM() {
	b := ch.spu.mem.Read8(ch.current)
	var code uint8
	if ch.adpcm.toggle {
		code = b >> 4
	} else {
		code = b & 0x0F
	}
	ch.adpcm.decode(code)

	ch.adpcm.toggle = !ch.adpcm.toggle
	if !ch.adpcm.toggle {
		ch.current++
	}

	if ch.current == ch.loopStart() && !ch.adpcm.toggle {
		ch.adpcm.saveLoop()
	}
}

// advancePSG steps the pulse duty counter or the noise generator.
func (ch *channel) advancePSG() {
	switch {
	case ch.num >= 8 && ch.num <= 13:
		ch.duty = (ch.duty + 1) % 8
	case ch.num >= 14:
		// Clear the saved carry, shift, and on a 1 bit inject the feedback
		// pattern and latch the carry into bit 15.
		ch.noise &^= 0x8000
		if ch.noise&1 != 0 {
			ch.noise = 0x8000 | ((ch.noise >> 1) ^ 0x6000)
		} else {
			ch.noise >>= 1
		}
	}
}
