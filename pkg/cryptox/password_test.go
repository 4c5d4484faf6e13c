package cryptox

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Cheap parameters, the real ones take ~100ms per hash.
var testParams = Params{Time: 1, MemoryKB: 8 * 1024, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHash_Format(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"unicode password", "пароль🔒密码"},
		{"whitespace password", "   spaces   "},
	}

	h := NewHasher(testParams, "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := h.Hash(tt.password)
			require.NoError(t, err)

			parts := strings.Split(rec, "$")
			require.Len(t, parts, 6, "PHC record should have 6 parts")
			require.Equal(t, "", parts[0])
			require.Equal(t, "argon2id", parts[1])
			require.Equal(t, "v=19", parts[2])
			require.Equal(t, "m=8192,t=1,p=1", parts[3])

			salt, err := base64.RawStdEncoding.DecodeString(parts[4])
			require.NoError(t, err)
			require.Len(t, salt, 16)

			key, err := base64.RawStdEncoding.DecodeString(parts[5])
			require.NoError(t, err)
			require.Len(t, key, 32)

			require.True(t, h.Verify(tt.password, rec))
		})
	}
}

func TestHash_DefaultParams(t *testing.T) {
	h := NewHasher(Params{}, "")
	require.Equal(t, DefaultParams(), h.Params())

	rec, err := h.Hash("CorrectHorse1!")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(rec, "$argon2id$v=19$m=65536,t=4,p=4$"))
	require.True(t, h.Verify("CorrectHorse1!", rec))
}

func TestHash_EmptyPassword(t *testing.T) {
	h := NewHasher(testParams, "")

	rec, err := h.Hash("")
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Empty(t, rec)
}

func TestHash_UniqueSalts(t *testing.T) {
	h := NewHasher(testParams, "")
	password := "samepassword"

	seen := map[string]bool{}
	for range 5 {
		rec, err := h.Hash(password)
		require.NoError(t, err)
		require.False(t, seen[rec], "records should differ due to unique salts")
		seen[rec] = true

		// But they should all verify the same password
		require.True(t, h.Verify(password, rec))
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	h := NewHasher(testParams, "")
	rec, err := h.Hash("correct-password")
	require.NoError(t, err)

	tests := []struct {
		name  string
		wrong string
	}{
		{"completely wrong", "wrong-password"},
		{"case difference", "Correct-Password"},
		{"extra space", "correct-password "},
		{"empty password", ""},
		{"prefix", "correct-passwor"},
		{"very long", strings.Repeat("x", 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.False(t, h.Verify(tt.wrong, rec))
		})
	}
}

func TestVerify_MalformedRecord(t *testing.T) {
	h := NewHasher(testParams, "")
	good, err := h.Hash("test-password")
	require.NoError(t, err)

	parts := strings.Split(good, "$")
	flip := []byte(parts[5])
	if flip[0] == 'A' {
		flip[0] = 'B'
	} else {
		flip[0] = 'A'
	}

	tests := []struct {
		name   string
		record string
	}{
		{"empty record", ""},
		{"garbage", "not-a-hash"},
		{"wrong algorithm", "$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"argon2i", "$argon2i$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"missing parts", "$argon2id$v=19$m=19456"},
		{"malformed parameters", "$argon2id$v=19$invalid$c2FsdA$aGFzaA"},
		{"trailing junk in parameters", "$argon2id$v=19$m=19456,t=2,p=1x$c2FsdA$aGFzaA"},
		{"zero iterations", "$argon2id$v=19$m=19456,t=0,p=1$c2FsdA$aGFzaA"},
		{"zero parallelism", "$argon2id$v=19$m=19456,t=2,p=0$c2FsdA$aGFzaA"},
		{"absurd memory", "$argon2id$v=19$m=4294967295,t=2,p=1$c2FsdA$aGFzaA"},
		{"invalid base64 salt", "$argon2id$v=19$m=19456,t=2,p=1$!!!invalid!!!$aGFzaA"},
		{"invalid base64 hash", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!!invalid!!!"},
		{"empty salt", "$argon2id$v=19$m=19456,t=2,p=1$$aGFzaA"},
		{"wrong version", "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"missing version", "$argon2id$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"extra segment", good + "$extra"},
		{"truncated hash", good[:len(good)-4]},
		{"altered hash", strings.Join(append(parts[:5:5], string(flip)), "$")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotPanics(t, func() {
				require.False(t, h.Verify("test-password", tt.record))
			})
		})
	}
}

func TestVerify_UsesRecordParameters(t *testing.T) {
	// A record written with other parameters must still verify, the
	// parameters travel with the record.
	old := NewHasher(Params{Time: 2, MemoryKB: 16 * 1024, Parallelism: 2, SaltLength: 8, KeyLength: 16}, "")
	rec, err := old.Hash("legacy-password")
	require.NoError(t, err)

	current := NewHasher(testParams, "")
	require.True(t, current.Verify("legacy-password", rec))
	require.False(t, current.Verify("other-password", rec))
}

func TestHash_Pepper(t *testing.T) {
	peppered := NewHasher(testParams, "pepper-one")
	rec, err := peppered.Hash("test-password")
	require.NoError(t, err)

	require.True(t, peppered.Verify("test-password", rec))
	require.False(t, NewHasher(testParams, "").Verify("test-password", rec))
	require.False(t, NewHasher(testParams, "pepper-two").Verify("test-password", rec))
}

func TestLoadOrCreatePepper(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secrets", "pepper")

	first, err := LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// Second load must return the persisted value, not a new one
	second, err := LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.Equal(t, first, second)

	none, err := LoadOrCreatePepper("")
	require.NoError(t, err)
	require.Empty(t, none)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, nil, 0600))
	_, err = LoadOrCreatePepper(empty)
	require.Error(t, err)
}
