// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

func GenerateRandomString(length int) (string, error) {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	b := make([]byte, length)

	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}

	return string(b), nil
}

// GenerateOrderCode builds the human-readable transaction code shown to
// customers, e.g. TRX-20260828-7KQ2MXVN. Uniqueness is enforced by the
// orders.code unique index; a collision aborts the checkout transaction
// and surfaces as an error to the caller.
func GenerateOrderCode(now time.Time) (string, error) {
	suffix, err := GenerateRandomString(8)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("TRX-%s-%s", now.Format("20060102"), suffix), nil
}
