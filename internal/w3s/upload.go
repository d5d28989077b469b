package w3s

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	encryption "github.com/w3s-cli/w3s/internal/crypto"
	"github.com/w3s-cli/w3s/internal/transfer"
)

// filePlan is one file scheduled for upload.
type filePlan struct {
	abs     string
	name    string // progress name; entry path for directory uploads
	size    int64
	firstID int // part id of the first part, unique across the whole upload
	mime    string
	codec   partCodec
	refs    []PartRef
	root    transfer.CID
}

func progressOrNop(fn transfer.ProgressFunc) transfer.ProgressFunc {
	if fn == nil {
		return func(string, int, uint64, uint64) {}
	}
	return fn
}

// Upload uploads one file: its parts first, then its manifest. The result is
// the manifest CID followed by the part CIDs. A zero-byte file is not sent
// and yields the empty placeholder.
func (c *Client) Upload(ctx context.Context, req transfer.UploadRequest) ([]transfer.CID, error) {
	info, err := os.Stat(req.Path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, use upload-dir", req.Path)
	}
	if info.Size() == 0 {
		c.logger.Debug().Str("path", req.Path).Msg("Empty file, nothing to upload")
		return []transfer.CID{transfer.EmptyCID}, nil
	}

	plan, err := c.planFile(req.Path, filepath.Base(req.Path), info.Size(), 0, req.Options)
	if err != nil {
		return nil, err
	}

	if err := c.uploadParts(ctx, req, []*filePlan{plan}); err != nil {
		return nil, err
	}
	if err := c.uploadFileManifest(ctx, req.Token, plan); err != nil {
		return nil, err
	}

	cids := []transfer.CID{plan.root}
	cids = append(cids, lo.Map(plan.refs, func(r PartRef, _ int) transfer.CID { return r.CID })...)
	return cids, nil
}

// UploadDir uploads every regular file under req.Path and then a directory
// manifest. The result is the directory manifest CID followed by the file
// manifest CIDs in walk order. A directory without files yields the empty
// placeholder.
func (c *Client) UploadDir(ctx context.Context, req transfer.UploadRequest) ([]transfer.CID, error) {
	root, err := filepath.Abs(req.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", req.Path, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory, use upload-file", req.Path)
	}

	var (
		entries []DirEntry
		plans   []*filePlan
		owners  []int // entry index for each plan
		nextID  int
	)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			c.logger.Warn().Str("path", path).Msg("Skipping non-regular file")
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if fi.Size() == 0 {
			entries = append(entries, DirEntry{Path: rel, CID: transfer.EmptyCID})
			return nil
		}
		plan, err := c.planFile(path, rel, fi.Size(), nextID, req.Options)
		if err != nil {
			return err
		}
		nextID += len(plan.refs)
		owners = append(owners, len(entries))
		entries = append(entries, DirEntry{Path: rel, Size: fi.Size()})
		plans = append(plans, plan)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", req.Path, err)
	}
	if len(entries) == 0 {
		c.logger.Debug().Str("path", req.Path).Msg("Empty directory, nothing to upload")
		return []transfer.CID{transfer.EmptyCID}, nil
	}

	c.logger.Debug().Int("files", len(entries)).Int("parts", nextID).Msg("Uploading directory")

	if err := c.uploadParts(ctx, req, plans); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrencyLimit(req.MaxConcurrency))
	for _, plan := range plans {
		g.Go(func() error { return c.uploadFileManifest(gctx, req.Token, plan) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, plan := range plans {
		entries[owners[i]].CID = plan.root
	}

	data, err := json.Marshal(DirManifest{Format: DirManifestFormat, Name: filepath.Base(root), Entries: entries})
	if err != nil {
		return nil, fmt.Errorf("failed to encode directory manifest: %w", err)
	}
	dirRoot, err := c.postObject(ctx, req.Token, data, manifestContentType, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upload directory manifest: %w", err)
	}

	cids := []transfer.CID{dirRoot}
	cids = append(cids, lo.Map(plans, func(p *filePlan, _ int) transfer.CID { return p.root })...)
	return cids, nil
}

func (c *Client) planFile(abs, name string, size int64, firstID int, opts transfer.Options) (*filePlan, error) {
	plan := &filePlan{
		abs:     abs,
		name:    name,
		size:    size,
		firstID: firstID,
		codec:   partCodec{client: c, compress: opts.Compress},
		refs:    make([]PartRef, (size+c.partSize-1)/c.partSize),
	}

	if mt, err := mimetype.DetectFile(abs); err == nil {
		plan.mime = mt.String()
	} else {
		plan.mime = "application/octet-stream"
	}

	if opts.Encrypted() {
		salt, err := encryption.GenerateSalt()
		if err != nil {
			return nil, err
		}
		plan.codec.cipher, err = encryption.NewPartCipher(opts.EncryptionKey, salt)
		if err != nil {
			return nil, fmt.Errorf("failed to derive encryption key: %w", err)
		}
	}
	return plan, nil
}

// uploadParts sends every part of every plan with at most
// req.MaxConcurrency parts in flight.
func (c *Client) uploadParts(ctx context.Context, req transfer.UploadRequest, plans []*filePlan) error {
	report := progressOrNop(req.Progress)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrencyLimit(req.MaxConcurrency))
	for _, plan := range plans {
		for i := range plan.refs {
			g.Go(func() error { return c.uploadPart(gctx, req.Token, plan, i, report) })
		}
	}
	return g.Wait()
}

func (c *Client) uploadPart(ctx context.Context, token string, plan *filePlan, index int, report transfer.ProgressFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	offset := int64(index) * c.partSize
	buf := c.parts.Get()
	plain := (*buf)[:min(c.partSize, plan.size-offset)]
	if err := readAt(plan.abs, plain, offset); err != nil {
		c.parts.Put(buf)
		return err
	}

	size := int64(len(plain))
	stored, err := plan.codec.encode(int64(index), plain)
	c.parts.Put(buf)
	if err != nil {
		return err
	}

	id := plan.firstID + index
	total := uint64(len(stored))
	report(plan.name, id, 0, total)

	cid, err := c.postObject(ctx, token, stored, "application/octet-stream", func(sent uint64) {
		report(plan.name, id, sent, total)
	})
	if err != nil {
		return fmt.Errorf("failed to upload part %d of %s: %w", index, plan.name, err)
	}
	report(plan.name, id, total, total)

	plan.refs[index] = PartRef{CID: cid, Size: size, Stored: int64(len(stored))}
	c.logger.Debug().Str("file", plan.name).Int("part", index).Str("cid", cid.String()).Msg("Part uploaded")
	return nil
}

func (c *Client) uploadFileManifest(ctx context.Context, token string, plan *filePlan) error {
	m := FileManifest{
		Format:     FileManifestFormat,
		Name:       filepath.Base(plan.abs),
		Size:       plan.size,
		PartSize:   c.partSize,
		MIME:       plan.mime,
		Compressed: plan.codec.compress,
		Encrypted:  plan.codec.cipher != nil,
		Parts:      plan.refs,
	}
	if plan.codec.cipher != nil {
		m.Salt = plan.codec.cipher.Salt()
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest for %s: %w", plan.name, err)
	}
	plan.root, err = c.postObject(ctx, token, data, manifestContentType, nil)
	if err != nil {
		return fmt.Errorf("failed to upload manifest for %s: %w", plan.name, err)
	}
	return nil
}

func readAt(path string, buf []byte, offset int64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := f.ReadAt(buf, offset)
	if err != nil && !(errors.Is(err, io.EOF) && n == len(buf)) {
		return fmt.Errorf("failed to read %s at offset %d: %w", path, offset, err)
	}
	return nil
}

func concurrencyLimit(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
