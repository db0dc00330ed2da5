package spu

import (
	"nitro/emu/log"
	"nitro/hw/hwio"
)

// capture is one of the two extended-generation capture units. Unit 0 taps
// the left mixer sum, unit 1 the right, before master volume is applied, and
// writes the samples back to memory. The sampling period is borrowed from a
// companion channel's timer register: unit 0 follows channel 1, unit 1
// follows channel 3.
//
// SNDCAPCNT: bit 0 add mode (stored, not emulated), bit 2 one-shot,
// bit 3 PCM8 format, bit 7 start/busy.
type capture struct {
	CNT hwio.Reg8  `hwio:"bank=1,offset=0x0,rwmask=0x8F,wcb"`
	DAD hwio.Reg32 `hwio:"offset=0x0,rwmask=0x07FFFFFC"`
	LEN hwio.Reg16 `hwio:"offset=0x4"`

	spu *SPU
	num int

	current uint32
	timer   uint16
}

func (cu *capture) running() bool { return hwio.GetBit8(cu.CNT.Value, 7) }
func (cu *capture) oneShot() bool { return hwio.GetBit8(cu.CNT.Value, 2) }
func (cu *capture) pcm8() bool    { return hwio.GetBit8(cu.CNT.Value, 3) }

// companion returns the channel whose timer register paces this unit.
func (cu *capture) companion() *channel {
	return &cu.spu.ch[1+cu.num*2]
}

// end is one past the last writable address; LEN is in 4-byte units.
func (cu *capture) end() uint32 {
	return cu.DAD.Value + uint32(cu.LEN.Value)*4
}

func (cu *capture) WriteCNT(old, val uint8) {
	if !hwio.GetBit8(old, 7) && hwio.GetBit8(val, 7) {
		cu.current = cu.DAD.Value
		cu.timer = cu.companion().TMR.Value
		log.ModSPU.DebugZ("capture start").
			Int("cap", cu.num).
			Hex32("dad", cu.DAD.Value).
			Hex16("len", cu.LEN.Value).
			End()
	}
}

// runSample feeds the unit one tick's worth of the mixer sum it taps. The
// sum carries 8 fractional bits; it is rounded and saturated to a signed
// 16-bit sample before storing.
func (cu *capture) runSample(sum int64) {
	if !cu.running() {
		return
	}

	sample := sum >> 8
	if sample > 0x7FFF {
		sample = 0x7FFF
	} else if sample < -0x8000 {
		sample = -0x8000
	}

	cu.timer += timerIncrement
	overflow := cu.timer < timerIncrement
	for overflow {
		reload := cu.companion().TMR.Value
		cu.timer += reload
		overflow = cu.timer < reload

		if cu.pcm8() {
			cu.spu.mem.Write8(cu.current, uint8(sample>>8))
			cu.current++
		} else {
			cu.spu.mem.Write16(cu.current, uint16(sample))
			cu.current += 2
		}

		if cu.current == cu.end() {
			if cu.oneShot() {
				hwio.ClearBit8(&cu.CNT.Value, 7)
				log.ModSPU.DebugZ("capture end").Int("cap", cu.num).End()
				break
			}
			cu.current = cu.DAD.Value
		}
	}
}
