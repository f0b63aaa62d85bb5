package domain

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand/v2"
	"slices"

	"github.com/google/uuid"
)

// randomIntn returns a uniform integer in [0, n) from crypto/rand.
func randomIntn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return mrand.IntN(n)
	}
	return int(v.Int64())
}

// Shuffle returns a uniformly random permutation of items (Fisher–Yates).
// The input slice is left untouched.
func Shuffle[T any](items []T) []T {
	out := slices.Clone(items)
	for i := len(out) - 1; i > 0; i-- {
		j := randomIntn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// SelectImpostors draws a uniformly random k-subset of ids.
func SelectImpostors(ids []uuid.UUID, k int) []uuid.UUID {
	if k <= 0 {
		return nil
	}
	k = min(k, len(ids))
	return Shuffle(ids)[:k:k]
}

// GenerateRoomCode returns a random join code.
func GenerateRoomCode() string {
	code := make([]byte, CodeLength)
	for i := range code {
		code[i] = CodeAlphabet[randomIntn(len(CodeAlphabet))]
	}
	return string(code)
}
