package spu

// The four legacy PSG voices. They run on the same 512-clocks-per-tick
// cadence as the extended channels, but with down-counting period timers and
// the classic frame-sequencer units (length, envelope, sweep) clocked from
// legacy.go.

// envelope is the shared volume envelope of the tone and noise channels.
// Register byte layout: bits 0-2 step period, bit 3 direction, bits 4-7
// initial volume.
type envelope struct {
	initial  uint8
	increase bool
	period   uint8

	volume uint8
	timer  uint8
}

func (e *envelope) load(val uint8) {
	e.period = val & 0x7
	e.increase = val&0x08 != 0
	e.initial = val >> 4
}

// dacOn reports whether the channel's DAC is powered. A channel triggered
// with a dead DAC never turns on.
func (e *envelope) dacOn() bool {
	return e.initial != 0 || e.increase
}

func (e *envelope) trigger() {
	e.volume = e.initial
	e.timer = e.period
}

func (e *envelope) clock() {
	if e.period == 0 {
		return
	}
	e.timer--
	if e.timer > 0 {
		return
	}
	e.timer = e.period
	if e.increase && e.volume < 15 {
		e.volume++
	} else if !e.increase && e.volume > 0 {
		e.volume--
	}
}

// lengthCounter silences a channel after a programmed duration, clocked at
// 256 Hz on the even sequencer steps.
type lengthCounter struct {
	counter int
	enabled bool
}

// clock reports whether the counter just expired.
func (lc *lengthCounter) clock() bool {
	if !lc.enabled || lc.counter == 0 {
		return false
	}
	lc.counter--
	return lc.counter == 0
}

// sweepUnit is the frequency sweep of tone channel 1, clocked at 128 Hz on
// sequencer steps 2 and 6. Register layout: bits 0-2 shift, bit 3 negate,
// bits 4-6 step period.
type sweepUnit struct {
	shift  uint8
	negate bool
	period uint8

	shadow  uint16
	timer   uint8
	enabled bool
}

func (s *sweepUnit) load(val uint16) {
	s.shift = uint8(val) & 0x7
	s.negate = val&0x08 != 0
	s.period = uint8(val>>4) & 0x7
}

func (s *sweepUnit) reload() {
	// A zero period reloads as 8.
	if s.period == 0 {
		s.timer = 8
	} else {
		s.timer = s.period
	}
}

// next computes the post-sweep frequency from the shadow register. Values
// above 2047 signal overflow and kill the channel.
func (s *sweepUnit) next() uint32 {
	d := uint32(s.shadow >> s.shift)
	if s.negate {
		return uint32(s.shadow) - d
	}
	return uint32(s.shadow) + d
}

// trigger latches the current frequency and reports overflow.
func (s *sweepUnit) trigger(freq uint16) bool {
	s.shadow = freq
	s.reload()
	s.enabled = s.period != 0 || s.shift != 0
	return s.shift != 0 && s.next() > 2047
}

// clock advances the sweep and reports overflow. On a successful step the
// new frequency is stored back into both the shadow register and freq.
func (s *sweepUnit) clock(freq *uint16) bool {
	if !s.enabled {
		return false
	}
	s.timer--
	if s.timer > 0 {
		return false
	}
	s.reload()
	if s.period == 0 {
		return false
	}

	f := s.next()
	if f > 2047 {
		return true
	}
	if s.shift != 0 {
		s.shadow = uint16(f)
		*freq = uint16(f)
		// The overflow check runs again with the new frequency.
		return s.next() > 2047
	}
	return false
}

// dutyPatterns holds one period of each of the four pulse duty cycles
// (12.5%, 25%, 50%, 75%).
var dutyPatterns = [4][8]uint8{
	{0, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 1, 1, 1},
	{0, 1, 1, 1, 1, 1, 1, 0},
}

// toneChannel is a pulse voice; channel 1 additionally owns the sweep unit.
type toneChannel struct {
	env    envelope
	length lengthCounter
	sweep  sweepUnit
	swept  bool // channel 1 only

	duty uint8
	freq uint16

	timer int32
	pos   uint8
	on    bool
}

// period is one duty step in synthesis clocks.
func (c *toneChannel) period() int32 {
	return 16 * (2048 - int32(c.freq))
}

func (c *toneChannel) trigger() {
	c.on = c.env.dacOn()
	if c.length.counter == 0 {
		c.length.counter = 64
	}
	c.timer = c.period()
	c.env.trigger()
	if c.swept && c.sweep.trigger(c.freq) {
		c.on = false
	}
}

func (c *toneChannel) tick() {
	if !c.on {
		return
	}
	c.timer -= timerIncrement
	for c.timer <= 0 {
		c.timer += c.period()
		c.pos = (c.pos + 1) % 8
	}
}

func (c *toneChannel) output() int {
	if !c.on {
		return 0
	}
	amp := int(c.env.volume) << 3
	if dutyPatterns[c.duty][c.pos] == 0 {
		return -amp
	}
	return amp
}

// waveChannel plays 4-bit digits out of two 16-byte wave RAM banks. The bus
// accesses the bank not currently selected for playback.
type waveChannel struct {
	ram      [2][16]uint8
	bankSel  uint8 // playback bank select
	twoBanks bool
	playing  bool // DAC power bit

	volCode uint8 // 0 mute, 1 full, 2 half, 3 quarter
	force75 bool
	length  lengthCounter
	freq    uint16

	timer  int32
	pos    uint8 // digit index, 0-31
	bank   uint8
	sample uint8
	on     bool
}

// period is one digit step in synthesis clocks.
func (c *waveChannel) period() int32 {
	return 8 * (2048 - int32(c.freq))
}

func (c *waveChannel) trigger() {
	c.on = c.playing
	if c.length.counter == 0 {
		c.length.counter = 256
	}
	c.timer = c.period()
	c.pos = 0
	c.bank = c.bankSel
}

func (c *waveChannel) tick() {
	if !c.on {
		return
	}
	c.timer -= timerIncrement
	for c.timer <= 0 {
		c.timer += c.period()
		c.pos = (c.pos + 1) % 32
		if c.pos == 0 && c.twoBanks {
			c.bank ^= 1
		}
		b := c.ram[c.bank][c.pos/2]
		if c.pos&1 == 0 {
			c.sample = b >> 4
		} else {
			c.sample = b & 0x0F
		}
	}
}

func (c *waveChannel) output() int {
	if !c.on {
		return 0
	}
	v := (int(c.sample) - 8) << 4
	if c.force75 {
		return v * 3 / 4
	}
	switch c.volCode {
	case 0:
		return 0
	case 1:
		return v
	case 2:
		return v / 2
	default:
		return v / 4
	}
}

// noiseDivisors maps the dividing-ratio code to the base period.
var noiseDivisors = [8]int32{8, 16, 32, 48, 64, 80, 96, 112}

// noiseChannel runs a 15-bit LFSR, optionally folded down to 7 bits.
type noiseChannel struct {
	env    envelope
	length lengthCounter

	divCode uint8
	shift   uint8
	width7  bool

	lfsr  uint16
	timer int32
	on    bool
}

func (c *noiseChannel) period() int32 {
	return noiseDivisors[c.divCode] << (c.shift + 2)
}

func (c *noiseChannel) trigger() {
	c.on = c.env.dacOn()
	if c.length.counter == 0 {
		c.length.counter = 64
	}
	c.timer = c.period()
	c.env.trigger()
	c.lfsr = 0x7FFF
}

func (c *noiseChannel) tick() {
	if !c.on {
		return
	}
	c.timer -= timerIncrement
	for c.timer <= 0 {
		c.timer += c.period()
		bit := (c.lfsr ^ (c.lfsr >> 1)) & 1
		c.lfsr = (c.lfsr >> 1) | bit<<14
		if c.width7 {
			c.lfsr = c.lfsr&^(1<<6) | bit<<6
		}
	}
}

func (c *noiseChannel) output() int {
	if !c.on {
		return 0
	}
	amp := int(c.env.volume) << 3
	if c.lfsr&1 == 0 {
		return amp
	}
	return -amp
}
