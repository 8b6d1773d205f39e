package keys

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mikepea/tally/pkg/tally/database"
	"github.com/mikepea/tally/pkg/tally/models"
)

const (
	// PrefixLength is the size in bytes of the plaintext lookup prefix
	PrefixLength = 6
	// SecretLength is the size in bytes of the secret half of a key
	SecretLength = 48
)

var (
	// ErrDuplicateEmail means the email already holds a key. An owner has at
	// most one active key.
	ErrDuplicateEmail = fmt.Errorf("%w: email already has an api key", database.ErrRule)

	// ErrUnauthorized covers every failed verification. Malformed keys and
	// wrong keys are deliberately indistinguishable to callers.
	ErrUnauthorized = fmt.Errorf("%w: invalid api key", database.ErrRule)
)

// Issue creates a new API key for email and returns its wire form, the only
// time the full key is ever visible. The prefix and secret come from
// independent reads of the system CSPRNG, so only the secret's digest needs
// to be kept. Must run inside a transaction; fails with ErrDuplicateEmail if
// the email already holds a key.
func Issue(tx *gorm.DB, email string) (string, error) {
	var count int64
	if err := tx.Model(&models.APIKey{}).Where("owner_email = ?", email).Count(&count).Error; err != nil {
		return "", err
	}
	if count > 0 {
		return "", ErrDuplicateEmail
	}

	prefix := make([]byte, PrefixLength)
	if _, err := rand.Read(prefix); err != nil {
		return "", err
	}
	secret := make([]byte, SecretLength)
	if _, err := rand.Read(secret); err != nil {
		return "", err
	}
	verifier := sha256.Sum256(secret)

	key := models.APIKey{
		ID:           uuid.NewString(),
		OwnerEmail:   email,
		LookupPrefix: prefix,
		Verifier:     verifier[:],
	}
	if err := tx.Create(&key).Error; err != nil {
		// A concurrent Issue for the same email can slip past the count
		// check; the unique index on owner_email catches it here.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", ErrDuplicateEmail
		}
		return "", err
	}

	return EncodeKey(prefix, secret), nil
}

// Verify checks a presented key and returns the owner's id. The stored
// verifier is compared against the digest of the presented secret in
// constant time. Read-only; runs inside the caller's transaction.
func Verify(tx *gorm.DB, presented string) (string, error) {
	prefix, secret, err := decodeKey(presented)
	if err != nil {
		return "", ErrUnauthorized
	}
	digest := sha256.Sum256(secret)

	var key models.APIKey
	err = tx.Where("lookup_prefix = ?", prefix).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrUnauthorized
	}
	if err != nil {
		return "", err
	}

	if subtle.ConstantTimeCompare(key.Verifier, digest[:]) != 1 {
		return "", ErrUnauthorized
	}
	return key.ID, nil
}

// EncodeKey builds the wire form of a key: base64(prefix) "." base64(secret).
func EncodeKey(prefix, secret []byte) string {
	return base64.StdEncoding.EncodeToString(prefix) + "." + base64.StdEncoding.EncodeToString(secret)
}

func decodeKey(presented string) (prefix, secret []byte, err error) {
	parts := strings.Split(presented, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, nil, errors.New("malformed key")
	}
	prefix, err = base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, nil, err
	}
	secret, err = base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, nil, err
	}
	return prefix, secret, nil
}
