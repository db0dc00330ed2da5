package spu

// runSample is the extended-generation tick: mix the sixteen channels, feed
// the capture units, apply master volume and bias, and push one stereo frame
// into the exchange.
//
// The fixed-point bookkeeping follows the hardware datapath: the raw 16-bit
// sample gains 4 fractional bits through the volume divider, 11 through the
// volume factor, and is rounded back to 8 after panning. The stereo sums
// reach 21 fractional bits after master volume and are rounded to integers
// before bias and clipping.
func (s *SPU) runSample() {
	var left, right int64

	for i := range s.ch {
		ch := &s.ch[i]
		if !ch.enabled() {
			continue
		}

		data := ch.runSample()
		cnt := ch.CNT.Value

		// Volume divider: shifts of 0, 1, 2 and 4 (the 3 encoding means 4).
		divShift := int64((cnt >> 8) & 0x3)
		if divShift == 3 {
			divShift++
		}
		data <<= 4 - divShift

		// Volume factor, with 127 behaving as a full 128/128.
		mul := int64(cnt & 0x7F)
		if mul == 127 {
			mul++
		}
		data = (data << 7) * mul / 128

		// Panning, same 127-as-128 rule.
		pan := int64((cnt >> 16) & 0x7F)
		if pan == 127 {
			pan++
		}
		left += ((data << 7) * (128 - pan) / 128) >> 10
		right += ((data << 7) * pan / 128) >> 10
	}

	// Capture taps the mixer output before master volume is applied.
	s.caps[0].runSample(left)
	s.caps[1].runSample(right)

	master := int64(s.MainCnt.Value & 0x7F)
	if master == 127 {
		master++
	}
	left = (left << 13) * master / 128 / 64
	right = (right << 13) * master / 128 / 64

	bias := int64(s.Bias.Value)
	left = (left >> 21) + bias
	right = (right >> 21) + bias

	left = clip10(left)
	right = clip10(right)

	// Expand the 10-bit results to signed 16-bit and pack the frame.
	left = (left - 0x200) << 5
	right = (right - 0x200) << 5

	s.buf.push(uint32(right)<<16 | uint32(left)&0xFFFF)
}

// clip10 saturates a biased sample to the 10-bit DAC range.
func clip10(v int64) int64 {
	if v < 0x000 {
		return 0x000
	}
	if v > 0x3FF {
		return 0x3FF
	}
	return v
}
