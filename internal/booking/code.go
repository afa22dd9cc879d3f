package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CodeGenerator produces candidate confirmation codes. Uniqueness is checked by the caller.
type CodeGenerator interface {
	Generate(k Kind) (string, error)
}

type randomCodeGenerator struct{}

func NewCodeGenerator() CodeGenerator {
	return randomCodeGenerator{}
}

var (
	fiveDigits = big.NewInt(100_000)
	sixDigits  = big.NewInt(1_000_000)
)

// Generate returns "{prefix}-{digits}" with five or six random digits.
func (randomCodeGenerator) Generate(k Kind) (string, error) {
	prefix := k.CodePrefix()
	if prefix == "" {
		return "", fmt.Errorf("unknown booking kind %q", k)
	}

	width, limit := 5, fiveDigits
	coin, err := rand.Int(rand.Reader, big.NewInt(2))
	if err != nil {
		return "", fmt.Errorf("read random failed: %w", err)
	}
	if coin.Int64() == 1 {
		width, limit = 6, sixDigits
	}

	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("read random failed: %w", err)
	}
	return fmt.Sprintf("%s-%0*d", prefix, width, n.Int64()), nil
}
