// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// argonParams describes one Argon2id cost setting. currentArgon is what new
// hashes use; stored hashes with any other setting are upgraded on login.
type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
}

var currentArgon = argonParams{
	memory:  64 * 1024,
	time:    1,
	threads: 4,
	keyLen:  32,
}

const saltLength = 16

var errMalformedHash = errors.New("malformed password hash")

// HashPassword encodes password in the PHC string format used by libsodium
// and the reference argon2 CLI.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	p := currentArgon
	key := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// placeholderHash is verified against when the account does not exist so
// unknown emails cost the same as wrong passwords.
var placeholderHash = mustHash("placeholder-password-never-matches")

func mustHash(password string) string {
	h, err := HashPassword(password)
	if err != nil {
		panic(fmt.Sprintf("security: hash placeholder: %v", err))
	}
	return h
}

// VerifyPasswordTimingSafe reports whether password matches encodedHash.
// A nil or empty hash always fails after doing the same work as a real
// check. When the stored hash uses outdated parameters the returned string
// is a fresh hash the caller should persist.
func VerifyPasswordTimingSafe(password string, encodedHash *string) (bool, string, error) {
	stored := placeholderHash
	known := encodedHash != nil && *encodedHash != ""
	if known {
		stored = *encodedHash
	}

	params, ok, err := comparePassword(password, stored)
	switch {
	case !known:
		return false, "", nil
	case err != nil:
		return false, "", err
	case !ok:
		return false, "", nil
	}

	if params == currentArgon {
		return true, "", nil
	}
	upgraded, err := HashPassword(password)
	if err != nil {
		//nolint:nilerr // the password matched; the upgrade can wait
		return true, "", nil
	}
	return true, upgraded, nil
}

func comparePassword(password, encoded string) (argonParams, bool, error) {
	params, salt, want, err := parseHash(encoded)
	if err != nil {
		return argonParams{}, false, err
	}

	got := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, params.keyLen)
	return params, subtle.ConstantTimeCompare(want, got) == 1, nil
}

// parseHash reads $argon2id$v=19$m=..,t=..,p=..$salt$key.
func parseHash(encoded string) (argonParams, []byte, []byte, error) {
	var params argonParams

	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" {
		return params, nil, nil, errMalformedHash
	}
	if fields[1] != "argon2id" {
		return params, nil, nil, fmt.Errorf("%w: algorithm %q", errMalformedHash, fields[1])
	}
	if fields[2] != "v="+strconv.Itoa(argon2.Version) {
		return params, nil, nil, fmt.Errorf("%w: version %q", errMalformedHash, fields[2])
	}
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d",
		&params.memory, &params.time, &params.threads); err != nil {
		return params, nil, nil, fmt.Errorf("%w: %w", errMalformedHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(fields[4])
	if err != nil {
		return params, nil, nil, fmt.Errorf("%w: salt: %w", errMalformedHash, err)
	}
	key, err := base64.RawStdEncoding.DecodeString(fields[5])
	if err != nil || len(key) == 0 {
		return params, nil, nil, fmt.Errorf("%w: key", errMalformedHash)
	}

	//nolint:gosec // G115: argon2 keys are a few dozen bytes
	params.keyLen = uint32(len(key))
	return params, salt, key, nil
}

// GenerateNumericCode returns a uniformly random integer code in [min, max].
func GenerateNumericCode(min, max int64) (string, error) {
	if max < min {
		return "", fmt.Errorf("invalid code range %d..%d", min, max)
	}

	n, err := rand.Int(rand.Reader, big.NewInt(max-min+1))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	return strconv.FormatInt(n.Int64()+min, 10), nil
}

// HashToken is the at-rest form of bearer tokens in the blacklist.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
