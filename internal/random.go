package internal

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	otpSessionIDBytes = 32
	actionJTIBytes    = 32
)

// NewOTPSessionID returns 256 random bits, hex encoded.
func NewOTPSessionID() (string, error) {
	return randomHex(otpSessionIDBytes)
}

// ValidOTPSessionID reports whether s has the shape produced by NewOTPSessionID.
func ValidOTPSessionID(s string) bool {
	if len(s) != otpSessionIDBytes*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// NewActionJTI returns a token id for one-shot action links.
func NewActionJTI() (string, error) {
	return randomHex(actionJTIBytes)
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewOTP returns a zero-padded numeric code of the given length drawn
// from crypto/rand.
func NewOTP(digits int) (string, error) {
	if digits < 6 || digits > 10 {
		return "", errors.New("invalid otp digits")
	}

	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	otp := b.String()
	if len(otp) != digits {
		return "", fmt.Errorf("invalid otp generation length")
	}
	return otp, nil
}
