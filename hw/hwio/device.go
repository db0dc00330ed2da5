package hwio

import "nitro/emu/log"

// Device allows manual management of an entire range of I/O addresses with
// per-access callbacks (banked wave RAM, ports without backing storage...).
type Device struct {
	Name  string // name of the device area (for debugging)
	Size  int    // size of the device area
	Flags RWFlags

	ReadCb  func(addr uint32) uint8
	PeekCb  func(addr uint32) uint8
	WriteCb func(addr uint32, val uint8)
}

func (d *Device) Read8(addr uint32) uint8 {
	switch {
	case d.Flags&WriteOnlyFlag != 0:
		log.ModHwIo.ErrorZ("invalid Read8 from writeonly device").
			String("name", d.Name).
			Hex32("addr", addr).
			End()
		fallthrough
	case d.ReadCb == nil:
		return 0
	}
	return d.ReadCb(addr)
}

func (d *Device) Peek8(addr uint32) uint8 {
	if d.PeekCb != nil {
		return d.PeekCb(addr)
	}
	return 0
}

func (d *Device) Write8(addr uint32, val uint8) {
	switch {
	case d.Flags&ReadOnlyFlag != 0:
		log.ModHwIo.ErrorZ("invalid Write8 to readonly device").
			String("name", d.Name).
			Hex32("addr", addr).
			End()
		fallthrough
	case d.WriteCb == nil:
		return
	}

	d.WriteCb(addr, val)
}
