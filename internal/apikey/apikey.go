package apikey

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// keyBytes keeps prefixed keys under bcrypt's 72-byte input limit.
const keyBytes = 24

var ErrUnknownKey = errors.New("unknown api key")

// GenerateAPIKey generates a new API key with the specified prefix and
// returns it with its bcrypt hash for storage.
func GenerateAPIKey(prefix string, cost int) (string, string, error) {
	if !validPrefix(prefix) {
		return "", "", fmt.Errorf("invalid api key prefix %q", prefix)
	}
	b := make([]byte, keyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	fullKey := fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b))

	keyHash, err := HashAPIKey(fullKey, cost)
	if err != nil {
		return "", "", err
	}
	return fullKey, keyHash, nil
}

// HashAPIKey bcrypt-hashes key.
func HashAPIKey(key string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash api key: %w", err)
	}
	return string(h), nil
}

// ValidateAPIKeyFormat validates the format of an API key
func ValidateAPIKeyFormat(key string) bool {
	prefix, keyPart, ok := strings.Cut(key, "_")
	if !ok || !validPrefix(prefix) {
		return false
	}
	if len(keyPart) != keyBytes*2 {
		return false
	}
	_, err := hex.DecodeString(keyPart)
	return err == nil
}

func validPrefix(prefix string) bool {
	if len(prefix) < 2 || len(prefix) > 10 {
		return false
	}
	for _, c := range prefix {
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// Key is a configured admin key. Only its hash is ever stored.
type Key struct {
	Name string
	Role string
	Hash string
}

// Registry authenticates presented keys against the configured set.
type Registry struct {
	keys []Key
}

func NewRegistry(keys []Key) *Registry {
	return &Registry{keys: append([]Key(nil), keys...)}
}

// Authenticate returns the key matching raw.
func (r *Registry) Authenticate(raw string) (*Key, error) {
	if !ValidateAPIKeyFormat(raw) {
		return nil, ErrUnknownKey
	}
	for i := range r.keys {
		if bcrypt.CompareHashAndPassword([]byte(r.keys[i].Hash), []byte(raw)) == nil {
			k := r.keys[i]
			return &k, nil
		}
	}
	return nil, ErrUnknownKey
}

// MaskAPIKey masks an API key for display purposes
func MaskAPIKey(key string) string {
	if len(key) < 12 {
		return "****"
	}
	return key[:8] + "..." + key[len(key)-4:]
}
