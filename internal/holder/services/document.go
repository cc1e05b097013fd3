package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/common"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/dbx"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/models"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/repositories/repomanager"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/storage"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/logging"
)

// MaxDocumentSize bounds a single upload.
const MaxDocumentSize = 10 << 20

// DocumentService stores holder documents in the object store, addressed
// by the hex SHA-256 of their content (the CID).
type DocumentService struct {
	tx            dbx.Transactor
	repos         repomanager.RepositoryManager
	store         storage.ObjectStore
	presignExpiry time.Duration
	logger        logging.Logger
}

func NewDocumentService(tx dbx.Transactor, repos repomanager.RepositoryManager, store storage.ObjectStore,
	presignExpiry time.Duration, logger logging.Logger) *DocumentService {
	return &DocumentService{
		tx:            tx,
		repos:         repos,
		store:         store,
		presignExpiry: presignExpiry,
		logger:        logger.With("module", "documents"),
	}
}

// ContentID is the hex SHA-256 of data.
func ContentID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func storageKey(userID int64, cid string) string {
	return fmt.Sprintf("users/%d/%s", userID, cid)
}

func (s *DocumentService) lookup(ctx context.Context, userID int64, cid string) (*models.Document, error) {
	var d *models.Document
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		d, err = s.repos.Documents(tx).GetByCID(ctx, userID, cid)
		return err
	})
	return d, err
}

// Upload stores data once per holder. Uploading identical content again
// returns the existing document.
func (s *DocumentService) Upload(ctx context.Context, userID int64, filename, mimeType string, data []byte) (*models.Document, error) {
	filename = strings.TrimSpace(filename)
	switch {
	case len(data) == 0:
		return nil, validationErr("document is empty")
	case len(data) > MaxDocumentSize:
		return nil, validationErr("document exceeds %d bytes", MaxDocumentSize)
	case filename == "":
		return nil, validationErr("filename is required")
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	cid := ContentID(data)
	if existing, err := s.lookup(ctx, userID, cid); err == nil {
		return existing, nil
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("upload: %w", err)
	}

	key := storageKey(userID, cid)
	if err := s.store.Put(ctx, key, mimeType, data); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	var doc *models.Document
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		doc, err = s.repos.Documents(tx).Create(ctx, &models.Document{
			UserID:     userID,
			CID:        cid,
			StorageKey: key,
			Filename:   filename,
			MimeType:   mimeType,
			Size:       int64(len(data)),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	s.logger.Info(ctx, "document stored", "user_id", userID, "cid", cid, "size", len(data))
	return doc, nil
}

// Download returns the document and its content. Content whose hash no
// longer matches the CID yields ErrIntegrity.
func (s *DocumentService) Download(ctx context.Context, userID int64, cid string) (*models.Document, []byte, error) {
	doc, err := s.lookup(ctx, userID, cid)
	if err != nil {
		return nil, nil, err
	}

	data, err := s.store.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("download: %w", err)
	}
	if ContentID(data) != doc.CID {
		s.logger.Error(ctx, "document content does not match cid", "user_id", userID, "cid", cid)
		return nil, nil, fmt.Errorf("%w: %s", common.ErrIntegrity, cid)
	}
	return doc, data, nil
}

// PresignedURL returns a time-limited download link.
func (s *DocumentService) PresignedURL(ctx context.Context, userID int64, cid string) (string, error) {
	doc, err := s.lookup(ctx, userID, cid)
	if err != nil {
		return "", err
	}
	return s.store.PresignGet(ctx, doc.StorageKey, s.presignExpiry)
}

func (s *DocumentService) List(ctx context.Context, userID int64) ([]*models.Document, error) {
	var list []*models.Document
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		list, err = s.repos.Documents(tx).ListByUser(ctx, userID)
		return err
	})
	return list, err
}

// Delete removes the row, then the object. A failure to remove the object
// is logged only.
func (s *DocumentService) Delete(ctx context.Context, userID int64, cid string) error {
	doc, err := s.lookup(ctx, userID, cid)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		ok, err := s.repos.Documents(tx).Delete(ctx, userID, cid)
		if err != nil {
			return err
		}
		if !ok {
			return common.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, doc.StorageKey); err != nil {
		s.logger.Warn(ctx, "delete document object", "key", doc.StorageKey, "error", err)
	}
	return nil
}
