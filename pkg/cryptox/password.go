package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrInvalidInput is returned when asked to hash an empty password.
var ErrInvalidInput = errors.New("cryptox: password must not be empty")

// Params are the Argon2id cost parameters. They are written into every
// record so older hashes keep verifying after the defaults change.
type Params struct {
	Time        uint32 // iterations
	MemoryKB    uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams returns the production parameters: 4 passes over 64 MiB
// with 4 lanes, a 16 byte salt and a 32 byte derived key.
func DefaultParams() Params {
	return Params{
		Time:        4,
		MemoryKB:    64 * 1024,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Upper bounds accepted when decoding a stored record. A tampered row
// must not be able to make a single verify allocate gigabytes.
const (
	maxMemoryKB = 1 << 21 // 2 GiB
	maxTime     = 64
	maxKeyLen   = 1024
)

// Hasher produces and checks self-describing Argon2id records of the form
// $argon2id$v=19$m=<KiB>,t=<iters>,p=<lanes>$<salt>$<hash>.
//
// A Hasher is immutable and safe for concurrent use.
type Hasher struct {
	params Params
	pepper string
}

// NewHasher builds a Hasher. Zero fields in p fall back to DefaultParams.
// The pepper is appended to every password before derivation and may be
// empty.
func NewHasher(p Params, pepper string) *Hasher {
	d := DefaultParams()
	if p.Time == 0 {
		p.Time = d.Time
	}
	if p.MemoryKB == 0 {
		p.MemoryKB = d.MemoryKB
	}
	if p.Parallelism == 0 {
		p.Parallelism = d.Parallelism
	}
	if p.SaltLength == 0 {
		p.SaltLength = d.SaltLength
	}
	if p.KeyLength == 0 {
		p.KeyLength = d.KeyLength
	}
	return &Hasher{params: p, pepper: pepper}
}

// Params reports the parameters new records are written with.
func (h *Hasher) Params() Params { return h.params }

// Hash derives a new record for password using a fresh random salt.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrInvalidInput
	}

	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("cryptox: read salt: %w", err)
	}

	key := argon2.IDKey(
		[]byte(password+h.pepper),
		salt,
		h.params.Time,
		h.params.MemoryKB,
		h.params.Parallelism,
		h.params.KeyLength,
	)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKB,
		h.params.Time,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches the stored record. A malformed
// or foreign record simply yields false; Verify never fails.
func (h *Hasher) Verify(password, encoded string) bool {
	if password == "" {
		return false
	}

	rec, err := decodeRecord(encoded)
	if err != nil {
		return false
	}

	computed := argon2.IDKey(
		[]byte(password+h.pepper),
		rec.salt,
		rec.params.Time,
		rec.params.MemoryKB,
		rec.params.Parallelism,
		rec.params.KeyLength,
	)

	return subtle.ConstantTimeCompare(computed, rec.key) == 1
}

type record struct {
	params Params
	salt   []byte
	key    []byte
}

var errMalformed = errors.New("cryptox: malformed argon2id record")

func decodeRecord(encoded string) (record, error) {
	// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", "salt", "hash"]
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return record{}, errMalformed
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return record{}, errMalformed
	}

	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.MemoryKB, &p.Time, &p.Parallelism); err != nil {
		return record{}, errMalformed
	}
	// Sscanf ignores trailing junk, so round-trip to be strict.
	if parts[3] != fmt.Sprintf("m=%d,t=%d,p=%d", p.MemoryKB, p.Time, p.Parallelism) {
		return record{}, errMalformed
	}
	if p.Time == 0 || p.Time > maxTime || p.Parallelism == 0 {
		return record{}, errMalformed
	}
	if p.MemoryKB < 8*uint32(p.Parallelism) || p.MemoryKB > maxMemoryKB {
		return record{}, errMalformed
	}

	salt, err := base64.RawStdEncoding.Strict().DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return record{}, errMalformed
	}
	key, err := base64.RawStdEncoding.Strict().DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > maxKeyLen {
		return record{}, errMalformed
	}

	p.SaltLength = uint32(len(salt)) // #nosec G115 - bounded by the record length
	p.KeyLength = uint32(len(key))   // #nosec G115 - bounded by maxKeyLen
	return record{params: p, salt: salt, key: key}, nil
}
