// Package transfer is the narrow boundary between the CLI core and the
// library that actually moves bytes to and from the storage service.
//
// The core hands a ProgressFunc and Options to a Transferer and only ever sees
// progress callbacks and resulting content identifiers. Network retries,
// chunking, encryption and compression all live behind this interface.
package transfer

//go:generate mockgen -source=transfer.go -destination=mocks/mock_transfer.go -package=mocks

import (
	"context"
	"io"
)

// CID is a content identifier returned by the storage service.
type CID string

// EmptyCID is the identity CID of zero bytes. The transfer library returns it
// as the root of a streaming upload that produced no content.
const EmptyCID CID = "bafkqaaa"

// String returns the identifier text.
func (c CID) String() string {
	return string(c)
}

// IsEmptyPlaceholder reports whether c is the empty streaming-upload root.
func (c CID) IsEmptyPlaceholder() bool {
	return c == EmptyCID
}

// ProgressFunc receives byte positions for one part of a transfer. It may be
// called concurrently from every in-flight part and must not block.
type ProgressFunc func(partName string, partID int, position, total uint64)

// LinkChecker decides whether a directory entry path may be written locally.
type LinkChecker func(entryPath string) bool

// Options carries the per-invocation transforms. It is passed by value and
// never mutated after it is built.
type Options struct {
	// EncryptionKey is the key material typed by the user; nil disables encryption.
	EncryptionKey []byte
	// Compress enables compression on upload and decompression on download.
	Compress bool
}

// Encrypted reports whether key material is present.
func (o Options) Encrypted() bool {
	return len(o.EncryptionKey) > 0
}

// UploadRequest describes an upload of a file or a directory.
type UploadRequest struct {
	Path           string
	Token          string
	MaxConcurrency int
	Progress       ProgressFunc
	Options        Options
}

// DownloadRequest describes a single-file download.
type DownloadRequest struct {
	URL      string
	Name     string // local name, used as the part name in progress events
	Dest     io.WriterAt
	Progress ProgressFunc
	Options  Options
}

// DownloadDirRequest describes a directory download.
type DownloadDirRequest struct {
	URL      string
	Dir      string
	Accept   LinkChecker // nil accepts every entry
	Progress ProgressFunc
	Options  Options
}

// Transferer moves content to and from the storage service.
type Transferer interface {
	// Upload uploads one file and returns its identifiers, root first.
	Upload(ctx context.Context, req UploadRequest) ([]CID, error)
	// UploadDir uploads a directory tree and returns its identifiers, root first.
	UploadDir(ctx context.Context, req UploadRequest) ([]CID, error)
	// Download writes the content behind req.URL into req.Dest.
	Download(ctx context.Context, req DownloadRequest) error
	// DownloadDir recreates the directory behind req.URL under req.Dir.
	DownloadDir(ctx context.Context, req DownloadDirRequest) error
}
