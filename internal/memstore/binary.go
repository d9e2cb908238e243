package memstore

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"hash"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/presbrey/magicmime"

	"github.com/trellisldp/trellis-http/internal/services"
)

// Binaries is an in-memory BinaryService. Grounded on the teacher's
// magicmime-backed Content-Type sniffing in server.go (there applied to
// files on disk via magic.TypeByFile; here applied to an in-memory buffer
// via magic.TypeByBuffer since there is no filesystem path to sniff).
// SetContent sniffs a type when the declared one is empty or
// application/octet-stream, but the sniffed type is neither stored nor
// returned: a resource's MIME type is the dc:format its handler records
// from the request's Content-Type.
type Binaries struct {
	mu    sync.RWMutex
	blobs map[string][]byte // "<partition>/<id>" -> content
	magic *magicmime.Magic

	uploads *uploadStore
}

// NewBinaries opens a magicmime database for Content-Type sniffing. A nil
// *Binaries.magic (magicmime.New failing, e.g. no libmagic database on the
// host) degrades to trusting the caller-declared mime type.
func NewBinaries() *Binaries {
	magic, _ := magicmime.New()
	return &Binaries{blobs: make(map[string][]byte), magic: magic, uploads: newUploadStore()}
}

func blobKey(partition, id string) string { return partition + "/" + id }

func (b *Binaries) GetContent(ctx context.Context, partition, id string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.blobs[blobKey(partition, id)]
	if !ok {
		return nil, fmt.Errorf("memstore: no such blob %s/%s", partition, id)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return io.NopCloser(bytes.NewReader(cp)), nil
}

func (b *Binaries) SetContent(ctx context.Context, partition, id string, r io.Reader, mimeType string) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = b.sniff(data)
	}
	b.mu.Lock()
	b.blobs[blobKey(partition, id)] = data
	b.mu.Unlock()
	return int64(len(data)), nil
}

func (b *Binaries) sniff(data []byte) string {
	if b.magic == nil {
		return "application/octet-stream"
	}
	if t, err := b.magic.TypeByBuffer(data); err == nil && t != "" {
		return t
	}
	return "application/octet-stream"
}

func (b *Binaries) Digest(ctx context.Context, algorithm string, r io.Reader) (string, error) {
	var h hash.Hash
	switch algorithm {
	case "md5":
		h = md5.New()
	case "sha":
		h = sha1.New()
	case "sha-256":
		h = sha256.New()
	default:
		return "", fmt.Errorf("memstore: unsupported digest algorithm %s", algorithm)
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

func (b *Binaries) SupportedAlgorithms() map[string]bool {
	return map[string]bool{"md5": true, "sha": true, "sha-256": true}
}

func (b *Binaries) ResolverForPartition(partition string) (services.Resolver, bool) {
	return &multipartResolver{binaries: b, partition: partition}, true
}

func (b *Binaries) IdentifierSupplier(partition string) func() string {
	return func() string { return uuid.NewString() }
}
