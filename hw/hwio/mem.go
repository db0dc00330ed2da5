package hwio

import (
	"encoding/binary"

	"nitro/emu/log"
)

// mem is the main structure used for linear memory access.
//
// We use this structure by pointer rather than by value because it is stored
// as an io value within Table, and checking if a concrete pointer type is
// behind the interface is faster than checking a non-pointer type.
type mem struct {
	data []byte
	mask uint32
	wcb  func(uint32, uint8)
	ro   MemFlags
}

func newMem(buf []byte, wcb func(uint32, uint8), roflag MemFlags) *mem {
	if len(buf)&(len(buf)-1) != 0 {
		panic("memory buffer size is not pow2")
	}
	return &mem{
		data: buf,
		mask: uint32(len(buf) - 1),
		wcb:  wcb,
		ro:   roflag,
	}
}

func (m *mem) FetchPointer(addr uint32) []uint8 {
	return m.data[addr&m.mask:]
}

func (m *mem) Read8(addr uint32) uint8 {
	return m.data[addr&m.mask]
}

func (m *mem) Peek8(addr uint32) uint8 {
	return m.data[addr&m.mask]
}

func (m *mem) Write8CheckRO(addr uint32, val uint8) bool {
	if m.ro == 0 {
		m.data[addr&m.mask] = val
		if m.wcb != nil {
			m.wcb(addr, val)
		}
		return true
	}
	return m.ro == MemFlagNoROLog // fake success if we're in silent mode
}

func (m *mem) Write8(addr uint32, val uint8) {
	if m.wcb != nil {
		m.wcb(addr, val)
		return
	}

	switch m.ro {
	case MemFlagReadWrite:
		m.data[addr&m.mask] = val
	case MemFlag8ReadOnly:
		log.ModHwIo.ErrorZ("Write8 to readonly memory").
			Hex8("val", val).
			Hex32("addr", addr).
			End()
	case MemFlagNoROLog:
		return
	}
}

type MemFlags int

const (
	MemFlagReadWrite MemFlags = 0
	MemFlag8ReadOnly MemFlags = (1 << iota) // read-only accesses
	MemFlagNoROLog                          // skip logging attempts to write when configured to readonly
)

// Linear memory area that can be mapped into a Table, or accessed directly
// through the width-typed accessors (sample fetch, capture writeback).
type Mem struct {
	Name    string              // name of the memory area (for debugging)
	Data    []byte              // actual memory buffer (pow2 length)
	VSize   int                 // virtual size of the memory (can be bigger than physical size)
	Flags   MemFlags            // flags determining how the memory can be accessed
	WriteCb func(uint32, uint8) // optional write callback (if set, the callback is called instead of writing)
}

func (m *Mem) io() *mem {
	return newMem(m.Data, m.WriteCb, m.Flags)
}

func (m *Mem) mask() uint32 {
	return uint32(len(m.Data) - 1)
}

// Direct accessors. Multi-byte values are little-endian, the address is
// wrapped to the physical size.

func (m *Mem) Read8(addr uint32) uint8 {
	return m.Data[addr&m.mask()]
}

func (m *Mem) Read16(addr uint32) uint16 {
	off := addr & m.mask()
	return binary.LittleEndian.Uint16(m.Data[off : off+2])
}

func (m *Mem) Read32(addr uint32) uint32 {
	off := addr & m.mask()
	return binary.LittleEndian.Uint32(m.Data[off : off+4])
}

func (m *Mem) Write8(addr uint32, val uint8) {
	m.Data[addr&m.mask()] = val
}

func (m *Mem) Write16(addr uint32, val uint16) {
	off := addr & m.mask()
	binary.LittleEndian.PutUint16(m.Data[off:off+2], val)
}
