package spu

import "github.com/go-faster/jx"

// DumpState encodes a snapshot of the engine state as JSON, for the debug
// RPC server. Call it while the emulation driver is paused; the producer
// side is not locked out.
func (s *SPU) DumpState() []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("generation", func(e *jx.Encoder) { e.Int(int(s.gen)) })
		switch s.gen {
		case Extended:
			s.dumpExtended(e)
		case Legacy:
			s.apu.dumpState(e)
		}
	})
	return e.Bytes()
}

func (s *SPU) dumpExtended(e *jx.Encoder) {
	e.Field("maincnt", func(e *jx.Encoder) { e.UInt16(s.MainCnt.Value) })
	e.Field("bias", func(e *jx.Encoder) { e.UInt16(s.Bias.Value) })

	e.Field("channels", func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for i := range s.ch {
				ch := &s.ch[i]
				e.Obj(func(e *jx.Encoder) {
					e.Field("cnt", func(e *jx.Encoder) { e.UInt32(ch.CNT.Value) })
					e.Field("sad", func(e *jx.Encoder) { e.UInt32(ch.SAD.Value) })
					e.Field("tmr", func(e *jx.Encoder) { e.UInt16(ch.TMR.Value) })
					e.Field("pnt", func(e *jx.Encoder) { e.UInt16(ch.PNT.Value) })
					e.Field("len", func(e *jx.Encoder) { e.UInt32(ch.LEN.Value) })
					e.Field("current", func(e *jx.Encoder) { e.UInt32(ch.current) })
					e.Field("timer", func(e *jx.Encoder) { e.UInt16(ch.timer) })
					e.Field("format", func(e *jx.Encoder) { e.Str(ch.format().String()) })
				})
			}
		})
	})

	e.Field("captures", func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for i := range s.caps {
				cu := &s.caps[i]
				e.Obj(func(e *jx.Encoder) {
					e.Field("cnt", func(e *jx.Encoder) { e.UInt8(cu.CNT.Value) })
					e.Field("dad", func(e *jx.Encoder) { e.UInt32(cu.DAD.Value) })
					e.Field("len", func(e *jx.Encoder) { e.UInt16(cu.LEN.Value) })
					e.Field("current", func(e *jx.Encoder) { e.UInt32(cu.current) })
				})
			}
		})
	})
}

func (a *legacyAPU) dumpState(e *jx.Encoder) {
	e.Field("cntl", func(e *jx.Encoder) { e.UInt16(a.SoundCntL.Value) })
	e.Field("cnth", func(e *jx.Encoder) { e.UInt16(a.SoundCntH.Value) })
	e.Field("cntx", func(e *jx.Encoder) { e.UInt16(a.ReadSOUNDCNTX(a.SoundCntX.Value)) })
	e.Field("bias", func(e *jx.Encoder) { e.UInt16(a.Bias.Value) })

	e.Field("channels", func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			on := [4]bool{a.tone[0].on, a.tone[1].on, a.wave.on, a.noise.on}
			for _, b := range on {
				e.Bool(b)
			}
		})
	})

	e.Field("fifo", func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for i := range a.fifo {
				e.Int(a.fifo[i].count)
			}
		})
	})
}
