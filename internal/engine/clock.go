package engine

import (
    "crypto/rand"
    "time"

    "github.com/google/uuid"
)

// Clock abstracts wall time so tests can advance it deterministically.
// All engine timestamps are UTC.
type Clock interface {
    Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

// Now returns the current UTC time.
func (RealClock) Now() time.Time { return time.Now().UTC() }

// bookingCodeAlphabet is the symbol set for confirmation codes.  36 symbols
// over 8 positions gives ~2.8e12 codes; collisions are handled by bounded
// retry on the unique index.
const bookingCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const bookingCodeLength = 8

// bookingCodeMax is the largest multiple of len(bookingCodeAlphabet) that
// fits in a byte.  Bytes at or above it are rejected so that every symbol is
// drawn with equal probability.
const bookingCodeMax = 256 / len(bookingCodeAlphabet) * len(bookingCodeAlphabet)

// newBookingCode generates a cryptographically random confirmation code.
func newBookingCode() (string, error) {
    code := make([]byte, 0, bookingCodeLength)
    buf := make([]byte, bookingCodeLength)
    for len(code) < bookingCodeLength {
        if _, err := rand.Read(buf); err != nil {
            return "", err
        }
        for _, b := range buf {
            if int(b) >= bookingCodeMax {
                continue
            }
            code = append(code, bookingCodeAlphabet[int(b)%len(bookingCodeAlphabet)])
            if len(code) == bookingCodeLength {
                break
            }
        }
    }
    return string(code), nil
}

// newID returns a random UUID for new rows.
func newID() uuid.UUID { return uuid.New() }
