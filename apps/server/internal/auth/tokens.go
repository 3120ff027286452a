package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"sync"

	"golang.org/x/crypto/blake2b"

	"trickster/game"
)

const tokenBytes = 32

var (
	ErrUnknownToken  = errors.New("unknown seat token")
	ErrInvalidDigest = errors.New("invalid token digest")
)

// SeatRef names exactly one seat in one game.
type SeatRef struct {
	GameID string
	Seat   game.Seat
}

type digest [blake2b.Size256]byte

// Registry maps seat tokens to seats. Only blake2b digests of the
// tokens are kept, so persisted digests never reveal a usable token.
type Registry struct {
	mu sync.RWMutex

	byDigest map[digest]SeatRef
	bySeat   map[SeatRef]digest
}

func NewRegistry() *Registry {
	return &Registry{
		byDigest: make(map[digest]SeatRef),
		bySeat:   make(map[SeatRef]digest),
	}
}

// Issue returns a fresh token for ref. Any token previously issued for
// the same seat stops resolving.
func (r *Registry) Issue(ref SeatRef) string {
	token := mustToken()
	d := blake2b.Sum256([]byte(token))

	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindLocked(ref, d)
	return token
}

// Resolve returns the seat bound to token.
func (r *Registry) Resolve(token string) (SeatRef, error) {
	if token == "" {
		return SeatRef{}, ErrUnknownToken
	}
	d := blake2b.Sum256([]byte(token))

	r.mu.RLock()
	defer r.mu.RUnlock()
	ref, ok := r.byDigest[d]
	if !ok {
		return SeatRef{}, ErrUnknownToken
	}
	return ref, nil
}

// Digest returns the hex digest bound to ref, for persistence.
func (r *Registry) Digest(ref SeatRef) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.bySeat[ref]
	if !ok {
		return "", false
	}
	return hex.EncodeToString(d[:]), true
}

// Adopt rebinds a persisted digest to ref after a restart.
func (r *Registry) Adopt(ref SeatRef, hexDigest string) error {
	raw, err := hex.DecodeString(hexDigest)
	if err != nil || len(raw) != blake2b.Size256 {
		return ErrInvalidDigest
	}
	var d digest
	copy(d[:], raw)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindLocked(ref, d)
	return nil
}

func (r *Registry) Revoke(ref SeatRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.bySeat[ref]; ok {
		delete(r.byDigest, d)
		delete(r.bySeat, ref)
	}
}

// RevokeGame drops every token of gameID.
func (r *Registry) RevokeGame(gameID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ref, d := range r.bySeat {
		if ref.GameID == gameID {
			delete(r.byDigest, d)
			delete(r.bySeat, ref)
		}
	}
}

func (r *Registry) bindLocked(ref SeatRef, d digest) {
	if old, ok := r.bySeat[ref]; ok {
		delete(r.byDigest, old)
	}
	if prev, ok := r.byDigest[d]; ok {
		delete(r.bySeat, prev)
	}
	r.byDigest[d] = ref
	r.bySeat[ref] = d
}

func mustToken() string {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
