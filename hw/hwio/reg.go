package hwio

import (
	"fmt"

	"nitro/emu/log"
)

type RWFlags uint8

const (
	ReadWriteFlag RWFlags = 0
	ReadOnlyFlag  RWFlags = (1 << iota)
	WriteOnlyFlag
)

// Reg8 is a byte-wide hardware register. RoMask marks the bits that writes
// from the bus can never change (reserved/undefined bits keep their value).
type Reg8 struct {
	Name   string
	Value  uint8
	RoMask uint8

	Flags   RWFlags
	ReadCb  func(val uint8) uint8
	PeekCb  func(val uint8) uint8
	WriteCb func(old uint8, val uint8)
}

func (reg Reg8) String() string {
	s := fmt.Sprintf("%s{%02x", reg.Name, reg.Value)
	if reg.ReadCb != nil {
		s += ",r!"
	}
	if reg.PeekCb != nil {
		s += ",p!"
	}
	if reg.WriteCb != nil {
		s += ",w!"
	}
	return s + "}"
}

func (reg *Reg8) write(val uint8) {
	old := reg.Value
	reg.Value = (reg.Value & reg.RoMask) | (val &^ reg.RoMask)
	if reg.WriteCb != nil {
		reg.WriteCb(old, reg.Value)
	}
}

func (reg *Reg8) Write8(addr uint32, val uint8) {
	if reg.Flags&ReadOnlyFlag != 0 {
		log.ModHwIo.ErrorZ("invalid Write8 to readonly reg").
			String("name", reg.Name).
			Hex32("addr", addr).
			End()
		return
	}
	reg.write(val)
}

func (reg *Reg8) Read8(addr uint32) uint8 {
	if reg.Flags&WriteOnlyFlag != 0 {
		log.ModHwIo.ErrorZ("invalid Read8 from writeonly reg").
			String("name", reg.Name).
			Hex32("addr", addr).
			End()
		return 0
	}
	if reg.ReadCb != nil {
		return reg.ReadCb(reg.Value)
	}
	return reg.Value
}

func (reg *Reg8) Peek8(addr uint32) uint8 {
	if reg.PeekCb != nil {
		return reg.PeekCb(reg.Value)
	}
	return reg.Value
}

// Reg16 is a halfword-wide register. It must be mapped at a halfword-aligned
// address: byte-lane accesses use addr&1 to select the lane. WriteCb always
// receives the full old and new values, whatever the access width.
type Reg16 struct {
	Name   string
	Value  uint16
	RoMask uint16

	Flags   RWFlags
	ReadCb  func(val uint16) uint16
	PeekCb  func(val uint16) uint16
	WriteCb func(old uint16, val uint16)
}

func (reg Reg16) String() string {
	s := fmt.Sprintf("%s{%04x", reg.Name, reg.Value)
	if reg.ReadCb != nil {
		s += ",r!"
	}
	if reg.PeekCb != nil {
		s += ",p!"
	}
	if reg.WriteCb != nil {
		s += ",w!"
	}
	return s + "}"
}

func (reg *Reg16) write(val, lanes uint16) {
	old := reg.Value
	keep := reg.RoMask | ^lanes
	reg.Value = (reg.Value & keep) | (val &^ keep)
	if reg.WriteCb != nil {
		reg.WriteCb(old, reg.Value)
	}
}

func (reg *Reg16) wo(addr uint32, op string) bool {
	if reg.Flags&ReadOnlyFlag != 0 {
		log.ModHwIo.ErrorZ("invalid " + op + " to readonly reg").
			String("name", reg.Name).
			Hex32("addr", addr).
			End()
		return true
	}
	return false
}

func (reg *Reg16) ro(addr uint32, op string) bool {
	if reg.Flags&WriteOnlyFlag != 0 {
		log.ModHwIo.ErrorZ("invalid " + op + " from writeonly reg").
			String("name", reg.Name).
			Hex32("addr", addr).
			End()
		return true
	}
	return false
}

func (reg *Reg16) Write16(addr uint32, val uint16) {
	if reg.wo(addr, "Write16") {
		return
	}
	reg.write(val, 0xFFFF)
}

func (reg *Reg16) Write8(addr uint32, val uint8) {
	if reg.wo(addr, "Write8") {
		return
	}
	shift := (addr & 1) * 8
	reg.write(uint16(val)<<shift, 0xFF<<shift)
}

func (reg *Reg16) Read16(addr uint32) uint16 {
	if reg.ro(addr, "Read16") {
		return 0
	}
	if reg.ReadCb != nil {
		return reg.ReadCb(reg.Value)
	}
	return reg.Value
}

func (reg *Reg16) Read8(addr uint32) uint8 {
	return uint8(reg.Read16(addr) >> ((addr & 1) * 8))
}

func (reg *Reg16) Peek16(addr uint32) uint16 {
	if reg.PeekCb != nil {
		return reg.PeekCb(reg.Value)
	}
	return reg.Value
}

func (reg *Reg16) Peek8(addr uint32) uint8 {
	return uint8(reg.Peek16(addr) >> ((addr & 1) * 8))
}

// Reg32 is a word-wide register, mapped at a word-aligned address. Narrow
// accesses use addr&3 to select the lanes.
type Reg32 struct {
	Name   string
	Value  uint32
	RoMask uint32

	Flags   RWFlags
	ReadCb  func(val uint32) uint32
	PeekCb  func(val uint32) uint32
	WriteCb func(old uint32, val uint32)
}

func (reg Reg32) String() string {
	s := fmt.Sprintf("%s{%08x", reg.Name, reg.Value)
	if reg.ReadCb != nil {
		s += ",r!"
	}
	if reg.PeekCb != nil {
		s += ",p!"
	}
	if reg.WriteCb != nil {
		s += ",w!"
	}
	return s + "}"
}

func (reg *Reg32) write(val, lanes uint32) {
	old := reg.Value
	keep := reg.RoMask | ^lanes
	reg.Value = (reg.Value & keep) | (val &^ keep)
	if reg.WriteCb != nil {
		reg.WriteCb(old, reg.Value)
	}
}

func (reg *Reg32) wo(addr uint32, op string) bool {
	if reg.Flags&ReadOnlyFlag != 0 {
		log.ModHwIo.ErrorZ("invalid " + op + " to readonly reg").
			String("name", reg.Name).
			Hex32("addr", addr).
			End()
		return true
	}
	return false
}

func (reg *Reg32) ro(addr uint32, op string) bool {
	if reg.Flags&WriteOnlyFlag != 0 {
		log.ModHwIo.ErrorZ("invalid " + op + " from writeonly reg").
			String("name", reg.Name).
			Hex32("addr", addr).
			End()
		return true
	}
	return false
}

func (reg *Reg32) Write32(addr uint32, val uint32) {
	if reg.wo(addr, "Write32") {
		return
	}
	reg.write(val, 0xFFFFFFFF)
}

func (reg *Reg32) Write16(addr uint32, val uint16) {
	if reg.wo(addr, "Write16") {
		return
	}
	shift := (addr & 2) * 8
	reg.write(uint32(val)<<shift, 0xFFFF<<shift)
}

func (reg *Reg32) Write8(addr uint32, val uint8) {
	if reg.wo(addr, "Write8") {
		return
	}
	shift := (addr & 3) * 8
	reg.write(uint32(val)<<shift, 0xFF<<shift)
}

func (reg *Reg32) Read32(addr uint32) uint32 {
	if reg.ro(addr, "Read32") {
		return 0
	}
	if reg.ReadCb != nil {
		return reg.ReadCb(reg.Value)
	}
	return reg.Value
}

func (reg *Reg32) Read16(addr uint32) uint16 {
	return uint16(reg.Read32(addr) >> ((addr & 2) * 8))
}

func (reg *Reg32) Read8(addr uint32) uint8 {
	return uint8(reg.Read32(addr) >> ((addr & 3) * 8))
}

func (reg *Reg32) Peek32(addr uint32) uint32 {
	if reg.PeekCb != nil {
		return reg.PeekCb(reg.Value)
	}
	return reg.Value
}

func (reg *Reg32) Peek8(addr uint32) uint8 {
	return uint8(reg.Peek32(addr) >> ((addr & 3) * 8))
}
