package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/common"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
	failDel error
}

func newMemStore() *memStore { return &memStore{objects: map[string][]byte{}} }

func (m *memStore) Put(_ context.Context, key, _ string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	m.objects[key] = append([]byte(nil), body...)
	return nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	if !ok {
		return nil, common.ErrNotFound
	}
	return b, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDel != nil {
		return m.failDel
	}
	delete(m.objects, key)
	return nil
}

func (m *memStore) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("https://s3.local/%s?X-Amz-Expires=%d", key, int(expiry.Seconds())), nil
}

func (m *memStore) Ping(context.Context) error { return nil }

func newDocSvc() (*DocumentService, *memStore) {
	rm, tx := newRepos()
	st := newMemStore()
	return NewDocumentService(tx, rm, st, 15*time.Minute, logging.NewNop()), st
}

func TestContentID(t *testing.T) {
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", ContentID([]byte("hello")))
}

func TestDocument_UploadDownload(t *testing.T) {
	svc, st := newDocSvc()
	ctx := context.Background()

	doc, err := svc.Upload(ctx, 1, "diploma.txt", "text/plain", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, ContentID([]byte("hello")), doc.CID)
	assert.Equal(t, int64(5), doc.Size)
	assert.Equal(t, "users/1/"+doc.CID, doc.StorageKey)

	again, err := svc.Upload(ctx, 1, "copy.txt", "", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, doc.ID, again.ID)
	assert.Equal(t, 1, st.puts, "identical content is stored once")

	got, data, err := svc.Download(ctx, 1, doc.CID)
	require.NoError(t, err)
	assert.Equal(t, "diploma.txt", got.Filename)
	assert.Equal(t, []byte("hello"), data)

	_, _, err = svc.Download(ctx, 2, doc.CID)
	require.ErrorIs(t, err, common.ErrNotFound, "documents are per holder")

	list, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDocument_IntegrityFailure(t *testing.T) {
	svc, st := newDocSvc()
	ctx := context.Background()

	doc, err := svc.Upload(ctx, 1, "a.txt", "text/plain", []byte("original"))
	require.NoError(t, err)
	st.objects[doc.StorageKey] = []byte("tampered")

	_, _, err = svc.Download(ctx, 1, doc.CID)
	require.ErrorIs(t, err, common.ErrIntegrity)
}

func TestDocument_Validation(t *testing.T) {
	svc, _ := newDocSvc()
	ctx := context.Background()

	_, err := svc.Upload(ctx, 1, "a.txt", "", nil)
	require.ErrorIs(t, err, common.ErrValidation)
	_, err = svc.Upload(ctx, 1, " ", "", []byte("x"))
	require.ErrorIs(t, err, common.ErrValidation)
	_, err = svc.Upload(ctx, 1, "big.bin", "", make([]byte, MaxDocumentSize+1))
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestDocument_PresignAndDelete(t *testing.T) {
	svc, st := newDocSvc()
	ctx := context.Background()

	doc, err := svc.Upload(ctx, 1, "a.txt", "", []byte("body"))
	require.NoError(t, err)

	u, err := svc.PresignedURL(ctx, 1, doc.CID)
	require.NoError(t, err)
	assert.Contains(t, u, "X-Amz-Expires=900")

	st.failDel = errors.New("s3 down")
	require.NoError(t, svc.Delete(ctx, 1, doc.CID), "object removal failures are logged only")
	require.ErrorIs(t, svc.Delete(ctx, 1, doc.CID), common.ErrNotFound)

	_, err = svc.PresignedURL(ctx, 1, doc.CID)
	require.ErrorIs(t, err, common.ErrNotFound)
}
