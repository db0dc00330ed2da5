package spu

// IMA-style ADPCM decoding for the extended generation. Each 4-bit code
// scales a step size picked from adpcmTable and nudges the table index by
// adpcmIndexTable; the predictor saturates at ±0x7FFF and the index clamps
// to the table bounds.

var adpcmIndexTable = [8]int{-1, -1, -1, -1, 2, 4, 6, 8}

var adpcmTable = [89]int16{
	0x0007, 0x0008, 0x0009, 0x000A, 0x000B, 0x000C, 0x000D, 0x000E, 0x0010, 0x0011, 0x0013, 0x0015,
	0x0017, 0x0019, 0x001C, 0x001F, 0x0022, 0x0025, 0x0029, 0x002D, 0x0032, 0x0037, 0x003C, 0x0042,
	0x0049, 0x0050, 0x0058, 0x0061, 0x006B, 0x0076, 0x0082, 0x008F, 0x009D, 0x00AD, 0x00BE, 0x00D1,
	0x00E6, 0x00FD, 0x0117, 0x0133, 0x0151, 0x0173, 0x0198, 0x01C1, 0x01EE, 0x0220, 0x0256, 0x0292,
	0x02D4, 0x031C, 0x036C, 0x03C3, 0x0424, 0x048E, 0x0502, 0x0583, 0x0610, 0x06AB, 0x0756, 0x0812,
	0x08E0, 0x09C3, 0x0ABD, 0x0BD0, 0x0CFF, 0x0E4C, 0x0FBA, 0x114C, 0x1307, 0x14EE, 0x1706, 0x1954,
	0x1BDC, 0x1EA5, 0x21B6, 0x2515, 0x28CA, 0x2CDF, 0x315B, 0x364B, 0x3BB9, 0x41B2, 0x4844, 0x4F7E,
	0x5771, 0x602F, 0x69CE, 0x7462, 0x7FFF,
}

type adpcmDecoder struct {
	value int32 // current predictor, clamped to ±0x7FFF
	index int   // current step table index

	// Snapshot taken at the loop point, restored on loop rewind.
	loopValue int32
	loopIndex int

	// false: next code is the low nibble of the current byte.
	toggle bool
}

// seed initializes the decoder from a sample header word: bits 0-15 are the
// initial predictor, bits 16-22 the initial table index.
func (d *adpcmDecoder) seed(header uint32) {
	d.value = int32(int16(header))
	d.index = int(header>>16) & 0x7F
	if d.index > 88 {
		d.index = 88
	}
	d.toggle = false
}

// decode consumes one 4-bit code and advances the predictor. Bit 3 selects
// the direction: set means add.
func (d *adpcmDecoder) decode(code uint8) {
	step := int32(adpcmTable[d.index])

	// diff = step/8 + step/4*b0 + step/2*b1 + step*b2, using truncating
	// divisions at each term.
	diff := step / 8
	if code&1 != 0 {
		diff += step / 4
	}
	if code&2 != 0 {
		diff += step / 2
	}
	if code&4 != 0 {
		diff += step
	}

	if code&8 != 0 {
		d.value += diff
		if d.value > 0x7FFF {
			d.value = 0x7FFF
		}
	} else {
		d.value -= diff
		if d.value < -0x7FFF {
			d.value = -0x7FFF
		}
	}

	d.index += adpcmIndexTable[code&7]
	if d.index < 0 {
		d.index = 0
	} else if d.index > 88 {
		d.index = 88
	}
}

func (d *adpcmDecoder) saveLoop() {
	d.loopValue = d.value
	d.loopIndex = d.index
}

func (d *adpcmDecoder) restoreLoop() {
	d.value = d.loopValue
	d.index = d.loopIndex
	d.toggle = false
}
