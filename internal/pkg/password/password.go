package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt cost factor. Tests lower it to bcrypt.MinCost.
var Cost = 12

// ErrTooLong is returned for inputs bcrypt would silently truncate.
var ErrTooLong = errors.New("password exceeds 72 bytes")

// Hash hashes password using bcrypt
func Hash(password string) (string, error) {
	if len(password) > 72 {
		return "", ErrTooLong
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	return string(bytes), err
}

// Verify compares password with hash
func Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
