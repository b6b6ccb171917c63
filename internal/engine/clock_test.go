package engine

import (
    "strings"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestNewBookingCodeFormat(t *testing.T) {
    for i := 0; i < 100; i++ {
        code, err := newBookingCode()
        require.NoError(t, err)
        require.Len(t, code, bookingCodeLength)
        for _, r := range code {
            assert.True(t, strings.ContainsRune(bookingCodeAlphabet, r), "unexpected symbol %q", r)
        }
    }
}

// Every symbol must be drawn with equal probability.  Reducing a raw byte
// modulo 36 would favor the first 256%36 symbols by one part in seven, which
// shows up clearly over 400k draws.
func TestNewBookingCodeSymbolsUniform(t *testing.T) {
    const codes = 50000
    counts := make(map[byte]int, len(bookingCodeAlphabet))
    for i := 0; i < codes; i++ {
        code, err := newBookingCode()
        require.NoError(t, err)
        for j := 0; j < len(code); j++ {
            counts[code[j]]++
        }
    }
    require.Len(t, counts, len(bookingCodeAlphabet))

    lo, hi := codes*bookingCodeLength, 0
    for _, n := range counts {
        if n < lo {
            lo = n
        }
        if n > hi {
            hi = n
        }
    }
    assert.Less(t, float64(hi)/float64(lo), 1.10)
}
