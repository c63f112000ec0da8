package services

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"

	"fulfillment/internal/pkg/errs"
)

const (
	DefaultOtpLength = 6
	maxOtpLength     = 12
)

// OtpIssuer mints fixed-length numeric delivery codes from a cryptographic source.
type OtpIssuer struct {
	length int
	source io.Reader
	bound  *big.Int
}

// NewOtpIssuer returns an issuer of length-digit codes reading from crypto/rand.
func NewOtpIssuer(length int) (OtpIssuer, error) {
	return NewOtpIssuerWithSource(length, rand.Reader)
}

// NewOtpIssuerWithSource is NewOtpIssuer with an explicit entropy source.
func NewOtpIssuerWithSource(length int, source io.Reader) (OtpIssuer, error) {
	if length < 4 || length > maxOtpLength {
		return OtpIssuer{}, errs.NewValueIsOutOfRangeError("otp length", length, 4, maxOtpLength)
	}
	if source == nil {
		return OtpIssuer{}, errs.NewValueIsRequiredError("otp source")
	}
	bound := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	return OtpIssuer{length: length, source: source, bound: bound}, nil
}

func (i OtpIssuer) Length() int {
	return i.length
}

// Issue returns a new code, zero-padded to the configured length.
func (i OtpIssuer) Issue() (string, error) {
	n, err := rand.Int(i.source, i.bound)
	if err != nil {
		return "", fmt.Errorf("generate delivery code: %w", err)
	}
	return fmt.Sprintf("%0*d", i.length, n.Int64()), nil
}

// ValidateFormat rejects submissions that can never match a code of this issuer.
// Surrounding whitespace is ignored.
func (i OtpIssuer) ValidateFormat(code string) error {
	code = strings.TrimSpace(code)
	if len(code) != i.length || strings.Trim(code, "0123456789") != "" {
		return errs.NewValueIsInvalidErrorWithCause("otp",
			fmt.Errorf("expected %d digits", i.length))
	}
	return nil
}
