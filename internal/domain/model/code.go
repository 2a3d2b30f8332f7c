package model

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

const (
	RoomCodeLength   = 6
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var roomCodePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// GenerateRoomCode returns a random join code such as "K7Q2ZD".
func GenerateRoomCode() (string, error) {
	buf := make([]byte, RoomCodeLength)
	max := big.NewInt(int64(len(roomCodeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate room code: %w", err)
		}
		buf[i] = roomCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// UniqueRoomCode draws codes until one is not in taken.
func UniqueRoomCode(taken map[string]bool) (string, error) {
	for attempt := 0; attempt < 32; attempt++ {
		code, err := GenerateRoomCode()
		if err != nil {
			return "", err
		}
		if !taken[code] {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not find a free room code after 32 attempts")
}

func IsRoomCode(code string) bool {
	return roomCodePattern.MatchString(code)
}
