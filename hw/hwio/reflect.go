package hwio

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// InitRegs initializes all the hwio-tagged fields of the bank structure:
// register names, reset values, read/write masks, access flags, and
// callbacks bound by name to the bank's methods (field FOO gets WriteFOO,
// ReadFOO and PeekFOO, with FOO uppercased; cb tags accept an explicit
// method name, e.g. pcb=PeekStatus).
//
// Supported tag options:
//
//	offset=0xNN    byte offset within the bank (see Table.MapBank)
//	bank=N         ordinal bank number (default 0)
//	reset=0xNN     power-on value
//	rwmask=0xNN    writable bits; the rest are fixed (hardware mask)
//	size=N         Device/Mem physical size
//	vsize=N        Mem virtual size (mirroring)
//	rcb,wcb,pcb    bind read/write/peek callbacks
//	readonly       bus writes are rejected (and logged)
//	writeonly      bus reads are rejected (and logged)
func InitRegs(bank any) error {
	v := reflect.ValueOf(bank)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("bank must be a pointer to struct, got %T", bank)
	}
	s := v.Elem()

	for i := 0; i < s.NumField(); i++ {
		field := s.Type().Field(i)
		tag, ok := field.Tag.Lookup("hwio")
		if !ok {
			continue
		}

		opts, err := parseTag(tag)
		if err != nil {
			return fmt.Errorf("field %s: %v", field.Name, err)
		}

		fp := s.Field(i).Addr().Interface()
		switch reg := fp.(type) {
		case *Reg8:
			err = initReg8(reg, field.Name, opts, v)
		case *Reg16:
			err = initReg16(reg, field.Name, opts, v)
		case *Reg32:
			err = initReg32(reg, field.Name, opts, v)
		case *Device:
			err = initDevice(reg, field.Name, opts, v)
		case *Mem:
			err = initMem(reg, field.Name, opts)
		default:
			err = fmt.Errorf("unsupported hwio field type %T", fp)
		}
		if err != nil {
			return fmt.Errorf("field %s: %v", field.Name, err)
		}
	}
	return nil
}

// MustInitRegs is like InitRegs but panics on error. Banks are static
// descriptions of the hardware, so a failure here is a programming error.
func MustInitRegs(bank any) {
	if err := InitRegs(bank); err != nil {
		panic(err)
	}
}

type tagOpts struct {
	opts map[string]string
}

func parseTag(tag string) (tagOpts, error) {
	opts := map[string]string{}
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, _ := strings.Cut(part, "=")
		switch key {
		case "offset", "bank", "reset", "rwmask", "size", "vsize",
			"rcb", "wcb", "pcb", "readonly", "writeonly":
			opts[key] = val
		default:
			return tagOpts{}, fmt.Errorf("unknown hwio tag option %q", key)
		}
	}
	return tagOpts{opts: opts}, nil
}

func (t tagOpts) has(key string) bool {
	_, ok := t.opts[key]
	return ok
}

func (t tagOpts) uint(key string, max uint64) (uint64, bool, error) {
	s, ok := t.opts[key]
	if !ok {
		return 0, false, nil
	}
	val, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s value %q", key, s)
	}
	if val > max {
		return 0, false, fmt.Errorf("%s value %#x does not fit register width", key, val)
	}
	return val, true, nil
}

func (t tagOpts) flags() RWFlags {
	var flags RWFlags
	if t.has("readonly") {
		flags |= ReadOnlyFlag
	}
	if t.has("writeonly") {
		flags |= WriteOnlyFlag
	}
	return flags
}

// cbName returns the method name bound by the given tag option, or "" if the
// option is absent. prefix is Read/Write/Peek, def the default suffix.
func (t tagOpts) cbName(opt, prefix, fieldName string) string {
	val, ok := t.opts[opt]
	if !ok {
		return ""
	}
	if val != "" {
		return val
	}
	return prefix + strings.ToUpper(fieldName)
}

func method[T any](bank reflect.Value, name string) (T, error) {
	var zero T
	if name == "" {
		return zero, nil
	}
	m := bank.MethodByName(name)
	if !m.IsValid() {
		return zero, fmt.Errorf("callback method %s not found", name)
	}
	fn, ok := m.Interface().(T)
	if !ok {
		return zero, fmt.Errorf("callback method %s has wrong signature %T", name, m.Interface())
	}
	return fn, nil
}

func initReg8(reg *Reg8, name string, t tagOpts, bank reflect.Value) error {
	reg.Name = name
	reg.Flags = t.flags()

	reset, _, err := t.uint("reset", 0xFF)
	if err != nil {
		return err
	}
	reg.Value = uint8(reset)

	rwmask, ok, err := t.uint("rwmask", 0xFF)
	if err != nil {
		return err
	}
	if ok {
		reg.RoMask = ^uint8(rwmask)
	}

	if reg.ReadCb, err = method[func(uint8) uint8](bank, t.cbName("rcb", "Read", name)); err != nil {
		return err
	}
	if reg.PeekCb, err = method[func(uint8) uint8](bank, t.cbName("pcb", "Peek", name)); err != nil {
		return err
	}
	if reg.WriteCb, err = method[func(uint8, uint8)](bank, t.cbName("wcb", "Write", name)); err != nil {
		return err
	}
	return nil
}

func initReg16(reg *Reg16, name string, t tagOpts, bank reflect.Value) error {
	reg.Name = name
	reg.Flags = t.flags()

	reset, _, err := t.uint("reset", 0xFFFF)
	if err != nil {
		return err
	}
	reg.Value = uint16(reset)

	rwmask, ok, err := t.uint("rwmask", 0xFFFF)
	if err != nil {
		return err
	}
	if ok {
		reg.RoMask = ^uint16(rwmask)
	}

	if reg.ReadCb, err = method[func(uint16) uint16](bank, t.cbName("rcb", "Read", name)); err != nil {
		return err
	}
	if reg.PeekCb, err = method[func(uint16) uint16](bank, t.cbName("pcb", "Peek", name)); err != nil {
		return err
	}
	if reg.WriteCb, err = method[func(uint16, uint16)](bank, t.cbName("wcb", "Write", name)); err != nil {
		return err
	}
	return nil
}

func initReg32(reg *Reg32, name string, t tagOpts, bank reflect.Value) error {
	reg.Name = name
	reg.Flags = t.flags()

	reset, _, err := t.uint("reset", 0xFFFFFFFF)
	if err != nil {
		return err
	}
	reg.Value = uint32(reset)

	rwmask, ok, err := t.uint("rwmask", 0xFFFFFFFF)
	if err != nil {
		return err
	}
	if ok {
		reg.RoMask = ^uint32(rwmask)
	}

	if reg.ReadCb, err = method[func(uint32) uint32](bank, t.cbName("rcb", "Read", name)); err != nil {
		return err
	}
	if reg.PeekCb, err = method[func(uint32) uint32](bank, t.cbName("pcb", "Peek", name)); err != nil {
		return err
	}
	if reg.WriteCb, err = method[func(uint32, uint32)](bank, t.cbName("wcb", "Write", name)); err != nil {
		return err
	}
	return nil
}

func initDevice(dev *Device, name string, t tagOpts, bank reflect.Value) error {
	dev.Name = name
	dev.Flags = t.flags()

	size, ok, err := t.uint("size", 0xFFFFFFFF)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("device requires a size option")
	}
	dev.Size = int(size)

	if dev.ReadCb, err = method[func(uint32) uint8](bank, t.cbName("rcb", "Read", name)); err != nil {
		return err
	}
	if dev.PeekCb, err = method[func(uint32) uint8](bank, t.cbName("pcb", "Peek", name)); err != nil {
		return err
	}
	if dev.WriteCb, err = method[func(uint32, uint8)](bank, t.cbName("wcb", "Write", name)); err != nil {
		return err
	}
	return nil
}

func initMem(mem *Mem, name string, t tagOpts) error {
	mem.Name = name

	size, ok, err := t.uint("size", 0xFFFFFFFF)
	if err != nil {
		return err
	}
	if ok && mem.Data == nil {
		mem.Data = make([]byte, size)
	}

	vsize, ok, err := t.uint("vsize", 0xFFFFFFFF)
	if err != nil {
		return err
	}
	if ok {
		mem.VSize = int(vsize)
	} else {
		mem.VSize = len(mem.Data)
	}

	if t.has("readonly") {
		mem.Flags |= MemFlag8ReadOnly
	}
	return nil
}

type bankReg struct {
	offset uint32
	regPtr any
}

// bankGetRegs returns the hwio fields of bank that carry an offset and
// belong to bankNum, ready to be mapped into a Table.
func bankGetRegs(bank any, bankNum int) ([]bankReg, error) {
	v := reflect.ValueOf(bank)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("bank must be a pointer to struct, got %T", bank)
	}
	s := v.Elem()

	var regs []bankReg
	for i := 0; i < s.NumField(); i++ {
		field := s.Type().Field(i)
		tag, ok := field.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		opts, err := parseTag(tag)
		if err != nil {
			return nil, fmt.Errorf("field %s: %v", field.Name, err)
		}

		offset, ok, err := opts.uint("offset", 0xFFFFFFFF)
		if err != nil {
			return nil, fmt.Errorf("field %s: %v", field.Name, err)
		}
		if !ok {
			continue
		}
		bnum, _, err := opts.uint("bank", 0xFFFF)
		if err != nil {
			return nil, fmt.Errorf("field %s: %v", field.Name, err)
		}
		if int(bnum) != bankNum {
			continue
		}

		regs = append(regs, bankReg{
			offset: uint32(offset),
			regPtr: s.Field(i).Addr().Interface(),
		})
	}
	return regs, nil
}
