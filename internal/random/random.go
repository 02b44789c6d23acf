package random

import (
	"crypto/rand"
	"math/big"

	"github.com/myrjola/blackwood/internal/errors"
)

var ErrEmptySlice = errors.NewSentinel("cannot pick from empty slice")

var allowedLetters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

// Letters returns n random letters from the latin alphabet.
func Letters(n uint) (string, error) {
	letters := make([]rune, n)
	for i := range letters {
		letterIndex, err := rand.Int(rand.Reader, big.NewInt(int64(len(allowedLetters))))
		if err != nil {
			return "", errors.Wrap(err, "random letter")
		}
		letters[i] = allowedLetters[letterIndex.Int64()]
	}
	return string(letters), nil
}

// Pick returns a uniformly random element of s.
func Pick[T any](s []T) (T, error) {
	var zero T
	if len(s) == 0 {
		return zero, ErrEmptySlice
	}
	index, err := rand.Int(rand.Reader, big.NewInt(int64(len(s))))
	if err != nil {
		return zero, errors.Wrap(err, "random index")
	}
	return s[index.Int64()], nil
}
