package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Params are the Argon2id cost parameters. They are encoded into every digest
// so verification always uses the cost the digest was created with, and the
// defaults can be raised without invalidating stored passwords.
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams follow the OWASP minimum recommendation for Argon2id.
var DefaultParams = Params{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Upper bounds accepted when parsing a stored digest, so a tampered row can't
// make us allocate gigabytes or spin forever.
const (
	maxMemory     = 1 << 20 // 1 GiB
	maxIterations = 64
	maxKeyLength  = 128
)

// HashPassword generates a PHC-format Argon2id hash string including salt and parameters.
func HashPassword(password string) (string, error) {
	return HashPasswordWithParams(password, DefaultParams)
}

// HashPasswordWithParams hashes with explicit cost parameters.
func HashPasswordWithParams(password string, p Params) (string, error) {
	if p.Memory == 0 || p.Iterations == 0 || p.Parallelism == 0 || p.KeyLength == 0 || p.SaltLength == 0 {
		return "", fmt.Errorf("cryptox: invalid argon2 parameters %+v", p)
	}

	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("cryptox: read salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password+GetPepper()), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory,
		p.Iterations,
		p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword reports whether password matches the PHC-style Argon2id
// digest. Malformed digests simply don't match.
func VerifyPassword(password, encodedHash string) bool {
	p, salt, expected, ok := decodeHash(encodedHash)
	if !ok {
		return false
	}

	computed := argon2.IDKey([]byte(password+GetPepper()), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// NeedsRehash reports whether a stored digest was produced with weaker
// parameters than want and should be replaced on the next successful login.
func NeedsRehash(encodedHash string, want Params) bool {
	p, _, _, ok := decodeHash(encodedHash)
	if !ok {
		return true
	}
	return p.Memory < want.Memory || p.Iterations < want.Iterations || p.KeyLength < want.KeyLength
}

// decodeHash parses $argon2id$v=19$m=X,t=Y,p=Z$salt$hash.
func decodeHash(encoded string) (Params, []byte, []byte, bool) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, nil, false
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return Params{}, nil, nil, false
	}

	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return Params{}, nil, nil, false
	}
	if p.Memory == 0 || p.Memory > maxMemory || p.Iterations == 0 || p.Iterations > maxIterations || p.Parallelism == 0 {
		return Params{}, nil, nil, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return Params{}, nil, nil, false
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 || len(hash) > maxKeyLength {
		return Params{}, nil, nil, false
	}

	p.SaltLength = uint32(len(salt)) // #nosec G115 - bounded by base64 length above
	p.KeyLength = uint32(len(hash))  // #nosec G115 - bounded by maxKeyLength
	return p, salt, hash, true
}

// GeneratePassword returns a random password that satisfies the registration
// policy (upper, lower, digit and one of @$!%*?&).
func GeneratePassword() (string, error) {
	const (
		lower   = "abcdefghijklmnopqrstuvwxyz"
		upper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
		digits  = "0123456789"
		special = "@$!%*?&"
		length  = 16
	)
	all := lower + upper + digits + special

	password := make([]byte, length)
	for i := range password {
		set := all
		switch i {
		case 0:
			set = lower
		case 1:
			set = upper
		case 2:
			set = digits
		case 3:
			set = special
		}
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random password: %w", err)
		}
		password[i] = set[n.Int64()]
	}

	// Shuffle so the class-guaranteed characters aren't always first.
	for i := len(password) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", fmt.Errorf("failed to shuffle password: %w", err)
		}
		j := n.Int64()
		password[i], password[j] = password[j], password[i]
	}
	return string(password), nil
}
