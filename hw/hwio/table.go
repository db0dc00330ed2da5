package hwio

import (
	"fmt"

	"nitro/emu/log"
)

// log unmapped accesses (useful for debugging, verbose if the CPU pokes
// around reserved I/O space)
const logUnmapped = false

type BankIO8 interface {
	Read8(addr uint32) uint8
	Peek8(addr uint32) uint8
	Write8(addr uint32, val uint8)
}

// Table routes bus accesses to the registers, memory areas and devices
// mapped into an address range. Registers keep their natural width: narrow
// accesses to wide registers touch only the addressed byte lanes, and wide
// accesses to byte registers are split.
type Table struct {
	Name     string
	Unmapped BankIO8

	iomap rangeTable
}

func NewTable(name string) *Table {
	t := new(Table)
	t.Name = name
	t.Reset()
	return t
}

func (t *Table) Reset() {
	t.iomap = rangeTable{}
}

// Map a register bank (that is, a structure containing multiple hwio.Reg*
// fields). For this function to work, registers must have a struct tag
// "hwio", containing the following fields:
//
//	offset=0x12     Byte-offset within the register bank at which this
//	                register is mapped. There is no default value: if this
//	                option is missing, the register is assumed not to be
//	                part of the bank, and is ignored by this call.
//
//	bank=NN         Ordinal bank number (if not specified, default to zero).
//	                This option allows for a structure to expose multiple
//	                banks, as regs can be grouped by bank by specifying the
//	                bank number.
func (t *Table) MapBank(addr uint32, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.MapMem(addr+reg.offset, r)
		case *Reg8:
			t.MapReg8(addr+reg.offset, r)
		case *Reg16:
			t.MapReg16(addr+reg.offset, r)
		case *Reg32:
			t.MapReg32(addr+reg.offset, r)
		case *Device:
			t.MapDevice(addr+reg.offset, r)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) UnmapBank(addr uint32, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.Unmap(addr+reg.offset, addr+reg.offset+uint32(r.VSize)-1)
		case *Reg8:
			t.Unmap(addr+reg.offset, addr+reg.offset)
		case *Reg16:
			t.Unmap(addr+reg.offset, addr+reg.offset+1)
		case *Reg32:
			t.Unmap(addr+reg.offset, addr+reg.offset+3)
		case *Device:
			t.Unmap(addr+reg.offset, addr+reg.offset+uint32(r.Size)-1)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) mapBus(addr, size uint32, io any) {
	if err := t.iomap.InsertRange(addr, addr+size-1, io); err != nil {
		panic(err)
	}
}

func (t *Table) MapReg8(addr uint32, io *Reg8) {
	t.mapBus(addr, 1, io)
}

func (t *Table) MapReg16(addr uint32, io *Reg16) {
	if addr&1 != 0 {
		panic(fmt.Errorf("unaligned Reg16 mapping at %08x", addr))
	}
	t.mapBus(addr, 2, io)
}

func (t *Table) MapReg32(addr uint32, io *Reg32) {
	if addr&3 != 0 {
		panic(fmt.Errorf("unaligned Reg32 mapping at %08x", addr))
	}
	t.mapBus(addr, 4, io)
}

func (t *Table) MapDevice(addr uint32, io *Device) {
	t.mapBus(addr, uint32(io.Size), io)
}

func (t *Table) MapMem(addr uint32, mem *Mem) {
	log.ModHwIo.DebugZ("mapping mem").
		Hex32("addr", addr).
		Hex32("size", uint32(mem.VSize)).
		String("area", mem.Name).
		String("bus", t.Name).
		End()

	if len(mem.Data)&(len(mem.Data)-1) != 0 {
		panic("memory buffer size is not pow2")
	}

	t.mapBus(addr, uint32(mem.VSize), mem.io())
}

func (t *Table) MapMemorySlice(addr, end uint32, data []uint8, readonly bool) {
	log.ModHwIo.DebugZ("mapping slice").
		Hex32("addr", addr).
		Hex32("end", end).
		String("bus", t.Name).
		Bool("ro", readonly).
		End()

	var flags MemFlags
	if readonly {
		flags |= MemFlag8ReadOnly
	}
	t.MapMem(addr, &Mem{
		Data:  data,
		Flags: flags,
		VSize: int(end - addr + 1),
	})
}

func (t *Table) Unmap(begin, end uint32) {
	t.iomap.RemoveRange(begin, end)
}

func (t *Table) unmapped(addr uint32, peek bool) uint8 {
	if t.Unmapped != nil {
		if peek {
			return t.Unmapped.Peek8(addr)
		}
		return t.Unmapped.Read8(addr)
	}
	if logUnmapped && !peek {
		log.ModHwIo.ErrorZ("unmapped read").
			String("name", t.Name).
			Hex32("addr", addr).
			End()
	}
	return 0
}

// Read8 searches in the table for the device mapped at the given address and
// forwards the read to it.
func (t *Table) Read8(addr uint32) uint8 {
	io := t.iomap.Search(addr)
	if io == nil {
		return t.unmapped(addr, false)
	}
	return io.(BankIO8).Read8(addr)
}

func (t *Table) Peek8(addr uint32) uint8 {
	io := t.iomap.Search(addr)
	if io == nil {
		return t.unmapped(addr, true)
	}
	return io.(BankIO8).Peek8(addr)
}

func (t *Table) Write8(addr uint32, val uint8) {
	io := t.iomap.Search(addr)
	if io == nil {
		if logUnmapped {
			log.ModHwIo.ErrorZ("unmapped Write8").
				String("name", t.Name).
				Hex32("addr", addr).
				Hex8("val", val).
				End()
		}
		return
	}
	if mem, ok := io.(*mem); ok {
		// NOTE: we use the CheckRO form so that the success codepath (that
		// is, when the memory is read-write) is fully inlined and requires
		// no function call.
		if ok := mem.Write8CheckRO(addr, val); !ok {
			log.ModHwIo.ErrorZ("Write8 to read-only address").
				String("name", t.Name).
				Hex32("addr", addr).
				Hex8("val", val).
				End()
		}
		return
	}
	io.(BankIO8).Write8(addr, val)
}

// Wider accesses hit the mapped register with its native width when
// possible, so a halfword store to a Reg16 triggers its write callback only
// once. Anything else is decomposed into byte accesses (little-endian).

func (t *Table) Read16(addr uint32) uint16 {
	switch io := t.iomap.Search(addr).(type) {
	case *Reg16:
		return io.Read16(addr)
	case *Reg32:
		return io.Read16(addr)
	}
	lo := t.Read8(addr)
	hi := t.Read8(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

func (t *Table) Write16(addr uint32, val uint16) {
	switch io := t.iomap.Search(addr).(type) {
	case *Reg16:
		io.Write16(addr, val)
		return
	case *Reg32:
		io.Write16(addr, val)
		return
	}
	t.Write8(addr, uint8(val))
	t.Write8(addr+1, uint8(val>>8))
}

func (t *Table) Read32(addr uint32) uint32 {
	if io, ok := t.iomap.Search(addr).(*Reg32); ok {
		return io.Read32(addr)
	}
	lo := t.Read16(addr)
	hi := t.Read16(addr + 2)
	return uint32(hi)<<16 | uint32(lo)
}

func (t *Table) Write32(addr uint32, val uint32) {
	if io, ok := t.iomap.Search(addr).(*Reg32); ok {
		io.Write32(addr, val)
		return
	}
	t.Write16(addr, uint16(val))
	t.Write16(addr+2, uint16(val>>16))
}

func (t *Table) FetchPointer(addr uint32) []uint8 {
	if mem, ok := t.iomap.Search(addr).(*mem); ok {
		return mem.FetchPointer(addr)
	}
	return nil
}
