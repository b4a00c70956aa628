package main

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbekoff/fracbot/pkg/fraction"
)

func typeKeys(k *Keypad, keys string) {
	for _, r := range keys {
		switch r {
		case '.':
			k.TypeDecimalPoint()
		case '<':
			k.TypeBackspace()
		default:
			k.TypeDigit(int(r - '0'))
		}
	}
}

func TestKeypadTyping(t *testing.T) {
	tests := []struct {
		keys    string
		display string
		value   string
	}{
		{"", "0", "0"},
		{"12.5", "12.5", "25/2"},
		{".07", "0.07", "7/100"},
		{"3.", "3.", "3"},
		{"1.50", "1.50", "3/2"},
		{"007", "7", "7"},
		{"1..2", "1.2", "6/5"},
		{"12<", "1", "1"},
		{"1.25<", "1.2", "6/5"},
		{"1.<", "1", "1"},
		{"1.<5", "15", "15"},
		{"4<<", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.keys, func(t *testing.T) {
			k := NewKeypad(2)
			typeKeys(k, tt.keys)
			assert.Equal(t, tt.display, k.String())
			assert.Equal(t, tt.value, k.Value().String())
		})
	}
}

func TestKeypadTypeDigitFractionLength(t *testing.T) {
	k := NewKeypad(2)
	assert.Equal(t, uint(0), k.TypeDigit(1))
	k.TypeDecimalPoint()
	assert.Equal(t, uint(1), k.TypeDigit(0))
	assert.Equal(t, uint(2), k.TypeDigit(0))
	assert.Equal(t, uint(3), k.TypeDigit(5))
	assert.Equal(t, "1.005", k.String())
}

func TestKeypadExternalValue(t *testing.T) {
	third, err := fraction.New(big.NewInt(1), big.NewInt(3))
	require.NoError(t, err)

	k := NewKeypad(2)
	typeKeys(k, "12")
	require.True(t, k.IsTyping())

	k.SetValue(third)
	assert.False(t, k.IsTyping())
	assert.Equal(t, "0.33", k.String())
	assert.True(t, k.Value().Equal(third))

	k.SetPrecision(5)
	assert.Equal(t, "0.33333", k.String())

	// typing replaces the external value
	typeKeys(k, "4")
	assert.Equal(t, "4", k.String())

	k.SetValue(third)
	typeKeys(k, ".5")
	assert.Equal(t, "0.5", k.String())
}

func TestKeypadBackspaceClearsExternal(t *testing.T) {
	k := NewKeypad(2)
	k.SetValue(fraction.FromInt64(42))
	k.TypeBackspace()
	assert.Equal(t, "0", k.String())
	assert.True(t, k.Value().IsZero())
	assert.False(t, k.IsTyping())
}

func TestKeypadSetToZero(t *testing.T) {
	k := NewKeypad(2)
	typeKeys(k, "9.75")
	k.SetToZero()
	assert.Equal(t, "0", k.String())
	assert.True(t, k.Value().IsZero())

	typeKeys(k, "3")
	assert.Equal(t, "3", k.String())
}
