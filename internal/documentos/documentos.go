package documentos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sgtes/maismedicos-go/internal/platform/objectstore"
	"github.com/sgtes/maismedicos-go/internal/termo"
)

const (
	KindAnexoI  = "anexo-i"
	KindAnexoII = "anexo-ii"

	contentTypePDF = "application/pdf"
)

var ErrUnknownKind = errors.New("unknown document kind")

// Filename is the download name of an annex kind.
func Filename(kind string) (string, error) {
	switch kind {
	case KindAnexoI:
		return termo.FilenameAnexoI, nil
	case KindAnexoII:
		return termo.FilenameAnexoII, nil
	}
	return "", ErrUnknownKind
}

// Archive stores generated annexes under termos/{session}/{uuid}/{filename}.
type Archive struct {
	store  objectstore.Store
	bucket string
}

func NewArchive(store objectstore.Store, bucket string) *Archive {
	return &Archive{store: store, bucket: bucket}
}

func (a *Archive) Put(ctx context.Context, sessionID, filename string, pdf []byte) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", errors.New("session id is required")
	}
	if filename == "" {
		return "", errors.New("filename is required")
	}
	key := fmt.Sprintf("termos/%s/%s/%s", sessionID, uuid.NewString(), filename)
	if err := a.store.Put(ctx, a.bucket, key, bytes.NewReader(pdf), int64(len(pdf)), contentTypePDF); err != nil {
		return "", fmt.Errorf("archive %s: %w", filename, err)
	}
	return key, nil
}

// Open streams an archived annex. Keys outside the session's prefix are
// reported as not found.
func (a *Archive) Open(ctx context.Context, sessionID, key string) (io.ReadCloser, objectstore.ObjectInfo, error) {
	if !strings.HasPrefix(key, "termos/"+sessionID+"/") {
		return nil, objectstore.ObjectInfo{}, objectstore.ErrNotFound
	}
	return a.store.Get(ctx, a.bucket, key)
}

// Purge drops every annex archived for a session.
func (a *Archive) Purge(ctx context.Context, sessionID string) (int, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return 0, errors.New("session id is required")
	}
	n, err := a.store.RemovePrefix(ctx, a.bucket, "termos/"+sessionID+"/")
	if err != nil {
		return 0, fmt.Errorf("purge session %s: %w", sessionID, err)
	}
	return n, nil
}
