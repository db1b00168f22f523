package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateInviteCode generates a random workspace invite code in the format
// XXXXX-XXXXX
func GenerateInviteCode() (string, error) {
	bytes := make([]byte, 5)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	code := hex.EncodeToString(bytes)
	return fmt.Sprintf("%s-%s", code[0:5], code[5:10]), nil
}
