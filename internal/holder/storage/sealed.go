package storage

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/common"
	"golang.org/x/crypto/argon2"
)

// ErrPresignSealed is returned by SealedStore.PresignGet: a presigned URL
// would hand out ciphertext.
var ErrPresignSealed = fmt.Errorf("%w: presigned urls are unavailable for sealed documents", common.ErrValidation)

var errShortObject = errors.New("sealed object shorter than nonce")

// DeriveKey stretches a passphrase into an AES-256 key with Argon2id.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, 32)
}

// SealedStore encrypts bodies with AES-GCM before they reach inner. Objects
// are stored as nonce||ciphertext and the object key is bound as
// additional data, so a body copied to another key fails to open.
type SealedStore struct {
	inner ObjectStore
	aead  cipher.AEAD
}

func NewSealedStore(inner ObjectStore, key []byte) (*SealedStore, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("seal cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("seal cipher: %w", err)
	}
	return &SealedStore{inner: inner, aead: aead}, nil
}

func (s *SealedStore) Put(ctx context.Context, key, contentType string, body []byte) error {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("seal nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, body, []byte(key))
	return s.inner.Put(ctx, key, "application/octet-stream", sealed)
}

func (s *SealedStore) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	n := s.aead.NonceSize()
	if len(sealed) < n {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrIntegrity, key, errShortObject)
	}
	body, err := s.aead.Open(nil, sealed[:n], sealed[n:], []byte(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrIntegrity, key, err)
	}
	return body, nil
}

func (s *SealedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *SealedStore) PresignGet(context.Context, string, time.Duration) (string, error) {
	return "", ErrPresignSealed
}

func (s *SealedStore) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}
