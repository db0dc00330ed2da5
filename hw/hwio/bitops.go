package hwio

// 8-bit operations
func GetBit8(v uint8, n uint) bool {
	return v>>n&0x01 != 0
}

func SetBit8(v *uint8, n uint) {
	*v |= (1 << n)
}

func ClearBit8(v *uint8, n uint) {
	*v &= ^(1 << n)
}

// 16-bit operations
func GetBit16(v uint16, n uint) bool {
	return v>>n&0x01 != 0
}

func SetBit16(v *uint16, n uint) {
	*v |= (1 << n)
}

func ClearBit16(v *uint16, n uint) {
	*v &= ^(1 << n)
}

// 32-bit operations
func GetBit32(v uint32, n uint) bool {
	return v>>n&0x01 != 0
}

func SetBit32(v *uint32, n uint) {
	*v |= (1 << n)
}

func ClearBit32(v *uint32, n uint) {
	*v &= ^(1 << n)
}
