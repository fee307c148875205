package regfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractBits67(t *testing.T) {
	assert.Equal(t, byte(0x00), ExtractBits67(0x3F))
	assert.Equal(t, byte(0x01), ExtractBits67(0x40))
	assert.Equal(t, byte(0x02), ExtractBits67(0x80))
	assert.Equal(t, byte(0x03), ExtractBits67(0xC0))
	assert.Equal(t, byte(0x03), ExtractBits67(0xFF))
}

func TestExtractBit5(t *testing.T) {
	assert.Equal(t, byte(0x01), ExtractBit5(0x20))
	assert.Equal(t, byte(0x00), ExtractBit5(0xDF))
}

func TestCombineShift(t *testing.T) {
	assert.Equal(t, byte(0x00), CombineShift(0x00, 0x00))
	assert.Equal(t, byte(0xFC), CombineShift(0x00, 0xFF))
	assert.Equal(t, byte(0x03), CombineShift(0x03, 0x00))
	assert.Equal(t, byte(0x07), CombineShift(0x03, 0x01))
}

func TestCombineShiftIsPure(t *testing.T) {
	for val := 0; val < 256; val += 17 {
		for lba := 0; lba < 256; lba += 13 {
			first := CombineShift(byte(val), byte(lba))
			second := CombineShift(byte(val), byte(lba))
			assert.Equal(t, first, second)
		}
	}
}

func TestModeNibbleHigh(t *testing.T) {
	assert.Equal(t, byte(0x20), ModeNibbleHigh(0x02))
	assert.Equal(t, byte(0x70), ModeNibbleHigh(0x0F))
}
