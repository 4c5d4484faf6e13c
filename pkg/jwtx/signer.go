package jwtx

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// MinHMACKeyLength is the shortest shared secret accepted for HS256.
const MinHMACKeyLength = 32
