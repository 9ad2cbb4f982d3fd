package db_test

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

func randomId() string {
	return uuid.New().String()
}

func randomHex(len int) string {
	return hex.EncodeToString(randomBytes(len))
}

func randomBytes(len int) []byte {
	b := make([]byte, len)
	rand.Read(b)
	return b
}
