package spu

import "testing"

func TestADPCMSeed(t *testing.T) {
	var d adpcmDecoder

	d.seed(0x00121234)
	if d.value != 0x1234 {
		t.Errorf("value = %04X, want 1234", d.value)
	}
	if d.index != 0x12 {
		t.Errorf("index = %d, want 18", d.index)
	}
	if d.toggle {
		t.Error("toggle should reset to false")
	}

	// Negative predictor is sign-extended.
	d.seed(0x0000F000)
	if d.value != -0x1000 {
		t.Errorf("value = %d, want %d", d.value, -0x1000)
	}

	// Out-of-range index clamps to the last table entry.
	d.seed(0x007F0000)
	if d.index != 88 {
		t.Errorf("index = %d, want 88", d.index)
	}
}

func TestADPCMDecode(t *testing.T) {
	var d adpcmDecoder

	// Step 7, code 0: diff = 7/8 = 0; index moves -1 and clamps at 0.
	d.decode(0)
	if d.value != 0 || d.index != 0 {
		t.Errorf("value, index = %d, %d, want 0, 0", d.value, d.index)
	}

	// Step 7, code 7 (subtract): diff = 0 + 1 + 3 + 7 = 11.
	d.decode(0x7)
	if d.value != -11 {
		t.Errorf("value = %d, want -11", d.value)
	}
	if d.index != 8 {
		t.Errorf("index = %d, want 8", d.index)
	}

	// Step 16 (index 8), code 0xF (add): diff = 2 + 4 + 8 + 16 = 30.
	d.decode(0xF)
	if d.value != 19 {
		t.Errorf("value = %d, want 19", d.value)
	}
	if d.index != 16 {
		t.Errorf("index = %d, want 16", d.index)
	}
}

func TestADPCMClamp(t *testing.T) {
	var d adpcmDecoder

	d.value = 0x7F00
	d.index = 88
	d.decode(0xC) // add 0x7FFF/8 + 0x7FFF
	if d.value != 0x7FFF {
		t.Errorf("value = %d, want 32767", d.value)
	}
	if d.index != 88 {
		t.Errorf("index = %d, want 88", d.index)
	}

	d.value = -0x7F00
	d.decode(0x4) // subtract the same amount
	if d.value != -0x7FFF {
		t.Errorf("value = %d, want -32767", d.value)
	}
}

func TestADPCMLoopSnapshot(t *testing.T) {
	var d adpcmDecoder

	d.seed(0x00001234)
	d.decode(0x3)
	d.saveLoop()
	v, i := d.value, d.index

	d.decode(0xF)
	d.decode(0xF)
	d.toggle = true

	d.restoreLoop()
	if d.value != v || d.index != i {
		t.Errorf("restored value, index = %d, %d, want %d, %d", d.value, d.index, v, i)
	}
	if d.toggle {
		t.Error("toggle should reset on restore")
	}
}
