package auth

import (
	"fmt"

	"github.com/jaevor/go-nanoid"
)

// RefreshTokenLength gives roughly 190 bits of entropy with the default
// nanoid alphabet.
const RefreshTokenLength = 32

var newRefreshToken func() string

func init() {
	gen, err := nanoid.Standard(RefreshTokenLength)
	if err != nil {
		panic(fmt.Sprintf("nanoid generator: %v", err))
	}
	newRefreshToken = gen
}

func NewRefreshToken() string {
	return newRefreshToken()
}
