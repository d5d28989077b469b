package w3s

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/w3s-cli/w3s/internal/constants"
	encryption "github.com/w3s-cli/w3s/internal/crypto"
	"github.com/w3s-cli/w3s/internal/diskspace"
	"github.com/w3s-cli/w3s/internal/transfer"
	"github.com/w3s-cli/w3s/internal/validation"
)

// Download writes the content behind req.URL into req.Dest. A file manifest
// is resolved part by part; any other body is written verbatim as part 0.
func (c *Client) Download(ctx context.Context, req transfer.DownloadRequest) error {
	_, err := c.fetchInto(ctx, req.URL, req.Name, req.Dest, 0, progressOrNop(req.Progress), req.Options)
	return err
}

// DownloadDir recreates the directory manifest behind req.URL under req.Dir.
// Entries rejected by req.Accept, or with unusable paths, are skipped.
func (c *Client) DownloadDir(ctx context.Context, req transfer.DownloadDirRequest) error {
	data, err := c.fetchManifest(ctx, req.URL)
	if err != nil {
		return err
	}
	decoded, err := decodeManifest(data)
	if err != nil {
		return err
	}
	m, ok := decoded.(*DirManifest)
	if !ok {
		return ErrNotManifest
	}

	total := lo.SumBy(m.Entries, func(e DirEntry) int64 { return e.Size })
	if err := diskspace.CheckAvailableSpace(req.Dir, total, constants.DiskSpaceSafetyMargin); err != nil {
		return err
	}

	report := progressOrNop(req.Progress)
	nextID := 0
	for _, entry := range m.Entries {
		if err := validation.ValidateEntryPath(entry.Path); err != nil {
			c.logger.Warn().Err(err).Msg("Skipping directory entry")
			continue
		}
		if req.Accept != nil && !req.Accept(entry.Path) {
			c.logger.Warn().Str("entry", entry.Path).Msg("Skipping directory entry outside the target directory")
			continue
		}

		used, err := c.downloadEntry(ctx, req, entry, nextID, report)
		if err != nil {
			return err
		}
		nextID += used
	}
	return nil
}

func (c *Client) downloadEntry(ctx context.Context, req transfer.DownloadDirRequest, entry DirEntry, firstID int, report transfer.ProgressFunc) (int, error) {
	target := filepath.Join(req.Dir, filepath.FromSlash(entry.Path))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory for %s: %w", entry.Path, err)
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, err
	}
	if entry.CID.IsEmptyPlaceholder() {
		return 0, f.Close()
	}

	used, err := c.fetchInto(ctx, c.gatewayLink(entry.CID), entry.Path, f, firstID, report, req.Options)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		return used, fmt.Errorf("failed to close %s: %w", target, closeErr)
	}
	return used, err
}

// fetchInto downloads url into dest and returns how many part ids it used.
func (c *Client) fetchInto(ctx context.Context, url, name string, dest io.WriterAt, firstID int, report transfer.ProgressFunc, opts transfer.Options) (int, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body := bufio.NewReaderSize(c.limiter.Reader(resp.Body), constants.ManifestSniffSize)
	head, err := body.Peek(constants.ManifestSniffSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("failed to read %s: %w", url, err)
	}

	if sniffManifest(head) {
		data, err := readManifest(body)
		if err != nil {
			return 0, err
		}
		decoded, err := decodeManifest(data)
		if err != nil {
			return 0, err
		}
		switch m := decoded.(type) {
		case *FileManifest:
			return c.resolveFile(ctx, m, name, dest, firstID, report, opts)
		default:
			return 0, fmt.Errorf("%s is a directory, use download-dir", url)
		}
	}

	if opts.Encrypted() || opts.Compress {
		c.logger.Debug().Str("url", url).Msg("Content has no manifest, writing it unchanged")
	}
	return 1, streamRaw(body, resp.ContentLength, name, dest, firstID, report)
}

func (c *Client) fetchManifest(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := readManifest(c.limiter.Reader(resp.Body))
	if err != nil {
		return nil, err
	}
	if !sniffManifest(data) {
		return nil, ErrNotManifest
	}
	return data, nil
}

func readManifest(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, constants.MaxManifestSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	if len(data) > constants.MaxManifestSize {
		return nil, fmt.Errorf("manifest exceeds %d bytes", constants.MaxManifestSize)
	}
	return data, nil
}

func streamRaw(body io.Reader, contentLength int64, name string, dest io.WriterAt, id int, report transfer.ProgressFunc) error {
	totalFor := func(pos uint64) uint64 {
		if contentLength >= 0 && uint64(contentLength) > pos {
			return uint64(contentLength)
		}
		return pos
	}

	report(name, id, 0, totalFor(0))
	cr := &countingReader{r: body, onRead: func(n uint64) { report(name, id, n, totalFor(n)) }}
	n, err := io.Copy(io.NewOffsetWriter(dest, 0), cr)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	report(name, id, uint64(n), uint64(n))
	return nil
}

// resolveFile fetches the parts of m concurrently and writes each at its
// plaintext offset.
func (c *Client) resolveFile(ctx context.Context, m *FileManifest, name string, dest io.WriterAt, firstID int, report transfer.ProgressFunc, opts transfer.Options) (int, error) {
	if f, ok := dest.(*os.File); ok {
		if err := diskspace.CheckAvailableSpace(f.Name(), m.Size, constants.DiskSpaceSafetyMargin); err != nil {
			return 0, err
		}
	}

	codec := partCodec{client: c, compress: m.Compressed}
	if m.Encrypted {
		if !opts.Encrypted() {
			return 0, ErrKeyRequired
		}
		var err error
		codec.cipher, err = encryption.NewPartCipher(opts.EncryptionKey, m.Salt)
		if err != nil {
			return 0, fmt.Errorf("failed to derive decryption key: %w", err)
		}
	}
	if m.Compressed != opts.Compress {
		c.logger.Debug().Bool("manifest", m.Compressed).Bool("flag", opts.Compress).
			Msg("Compression follows the manifest")
	}

	offsets := m.Offsets()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrencyLimit(c.downloadConcurrency))
	for i, ref := range m.Parts {
		g.Go(func() error {
			return c.fetchPart(gctx, codec, ref, i, offsets[i], name, firstID+i, dest, report)
		})
	}
	return len(m.Parts), g.Wait()
}

func (c *Client) fetchPart(ctx context.Context, codec partCodec, ref PartRef, index int, offset int64, name string, id int, dest io.WriterAt, report transfer.ProgressFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	total := uint64(ref.Stored)
	report(name, id, 0, total)

	resp, err := c.get(ctx, c.gatewayLink(ref.CID))
	if err != nil {
		return fmt.Errorf("failed to fetch part %d of %s: %w", index, name, err)
	}
	defer resp.Body.Close()

	cr := &countingReader{
		r: c.limiter.Reader(io.LimitReader(resp.Body, ref.Stored+1)),
		onRead: func(n uint64) {
			report(name, id, min(n, total), total)
		},
	}
	stored, err := io.ReadAll(cr)
	if err != nil {
		return fmt.Errorf("failed to read part %d of %s: %w", index, name, err)
	}
	if int64(len(stored)) != ref.Stored {
		return fmt.Errorf("part %d of %s has %d bytes, expected %d", index, name, len(stored), ref.Stored)
	}

	plain, err := codec.decode(int64(index), stored)
	if err != nil {
		return err
	}
	if int64(len(plain)) != ref.Size {
		return fmt.Errorf("part %d of %s decoded to %d bytes, expected %d", index, name, len(plain), ref.Size)
	}
	if _, err := dest.WriteAt(plain, offset); err != nil {
		return fmt.Errorf("failed to write part %d of %s: %w", index, name, err)
	}

	report(name, id, total, total)
	return nil
}
