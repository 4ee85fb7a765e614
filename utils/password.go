package utils

import (
	"errors"
	"sync"

	"github.com/matthewhartstonge/argon2"
)

var errEmptyPassword = errors.New("password must not be empty")

var (
	dummyOnce sync.Once
	dummyHash []byte
)

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errEmptyPassword
	}
	argon := argon2.DefaultConfig()
	encoded, err := argon.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// VerifyPassword reports whether password matches the encoded hash. Malformed hashes never match.
func VerifyPassword(encodedHash, password string) bool {
	ok, err := argon2.VerifyEncoded([]byte(password), []byte(encodedHash))
	return err == nil && ok
}

// BurnPasswordCheck runs one verification against a throwaway hash so unknown
// emails take as long to reject as wrong passwords.
func BurnPasswordCheck(password string) {
	dummyOnce.Do(func() {
		argon := argon2.DefaultConfig()
		dummyHash, _ = argon.HashEncoded([]byte("keyboard-collective-placeholder"))
	})
	_, _ = argon2.VerifyEncoded([]byte(password), dummyHash)
}
