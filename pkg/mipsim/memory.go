package mipsim

import (
	"encoding/binary"
	"fmt"
)

// Address space, following the MARS default memory configuration
const (
	TextBase  uint32 = 0x00400000
	DataBase  uint32 = 0x10010000
	StackTop  uint32 = 0x7fffeffc // initial $sp
	StackEnd  uint32 = 0x7ffff000
	StackSize uint32 = 1 << 20
)

// memory holds the data segment and the stack. Both are little-endian.
type memory struct {
	data  []byte
	stack []byte
}

func newMemory(dataSize uint32) *memory {
	return &memory{
		data:  make([]byte, dataSize),
		stack: make([]byte, StackSize),
	}
}

// slice returns the size bytes at addr
func (m *memory) slice(addr, size uint32) ([]byte, error) {
	if size > 1 && addr%size != 0 {
		return nil, fmt.Errorf("%w: unaligned %d-byte access at 0x%08x", ErrMemory, size, addr)
	}
	if addr >= DataBase && uint64(addr)+uint64(size) <= uint64(DataBase)+uint64(len(m.data)) {
		off := addr - DataBase
		return m.data[off : off+size], nil
	}
	stackBase := StackEnd - StackSize
	if addr >= stackBase && uint64(addr)+uint64(size) <= uint64(StackEnd) {
		off := addr - stackBase
		return m.stack[off : off+size], nil
	}
	return nil, fmt.Errorf("%w: address 0x%08x", ErrMemory, addr)
}

func (m *memory) loadWord(addr uint32) (int32, error) {
	b, err := m.slice(addr, 4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

func (m *memory) storeWord(addr uint32, v int32) error {
	b, err := m.slice(addr, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, uint32(v))
	return nil
}

func (m *memory) loadByte(addr uint32) (int32, error) {
	b, err := m.slice(addr, 1)
	if err != nil {
		return 0, err
	}
	return int32(int8(b[0])), nil
}

func (m *memory) storeByte(addr uint32, v int32) error {
	b, err := m.slice(addr, 1)
	if err != nil {
		return err
	}
	b[0] = byte(v)
	return nil
}

// cstring reads a NUL-terminated string starting at addr
func (m *memory) cstring(addr uint32) (string, error) {
	var s []byte
	for {
		b, err := m.slice(addr, 1)
		if err != nil {
			return "", err
		}
		if b[0] == 0 {
			return string(s), nil
		}
		s = append(s, b[0])
		addr++
	}
}
