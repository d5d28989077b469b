package w3s

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"

	"github.com/w3s-cli/w3s/internal/transfer"
)

// Manifest format identifiers.
const (
	FileManifestFormat = "w3s-cli/file/v1"
	DirManifestFormat  = "w3s-cli/dir/v1"

	manifestContentType = "application/vnd.w3s-cli.manifest+json"
)

// PartRef points at one stored part of a file.
type PartRef struct {
	CID    transfer.CID `json:"cid"`
	Size   int64        `json:"size"`   // plaintext bytes
	Stored int64        `json:"stored"` // bytes as stored (after compression and encryption)
}

// FileManifest describes a file split into parts.
type FileManifest struct {
	Format     string    `json:"format"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	PartSize   int64     `json:"part_size"`
	MIME       string    `json:"mime"`
	Compressed bool      `json:"compressed"`
	Encrypted  bool      `json:"encrypted"`
	Salt       []byte    `json:"salt,omitempty"`
	Parts      []PartRef `json:"parts"`
}

// DirEntry is one file of a directory manifest. Path is slash separated and
// relative to the directory root.
type DirEntry struct {
	Path string       `json:"path"`
	CID  transfer.CID `json:"cid"`
	Size int64        `json:"size"`
}

// DirManifest describes a directory tree.
type DirManifest struct {
	Format  string     `json:"format"`
	Name    string     `json:"name"`
	Entries []DirEntry `json:"entries"`
}

// Validate checks that the parts cover exactly Size bytes.
func (m *FileManifest) Validate() error {
	if m.Format != FileManifestFormat {
		return fmt.Errorf("unexpected manifest format %q", m.Format)
	}
	if m.Size < 0 {
		return fmt.Errorf("manifest has negative size %d", m.Size)
	}
	for i, p := range m.Parts {
		if p.CID == "" || p.Size < 0 || p.Stored <= 0 {
			return fmt.Errorf("manifest part %d is malformed", i)
		}
	}
	if sum := lo.SumBy(m.Parts, func(p PartRef) int64 { return p.Size }); sum != m.Size {
		return fmt.Errorf("manifest parts cover %d bytes, expected %d", sum, m.Size)
	}
	if m.Encrypted && len(m.Salt) == 0 {
		return fmt.Errorf("encrypted manifest has no salt")
	}
	return nil
}

// Offsets returns the plaintext offset of every part.
func (m *FileManifest) Offsets() []int64 {
	offsets := make([]int64, len(m.Parts))
	var off int64
	for i, p := range m.Parts {
		offsets[i] = off
		off += p.Size
	}
	return offsets
}

// Validate checks the directory manifest header.
func (m *DirManifest) Validate() error {
	if m.Format != DirManifestFormat {
		return fmt.Errorf("unexpected manifest format %q", m.Format)
	}
	for i, e := range m.Entries {
		if e.Path == "" || e.CID == "" {
			return fmt.Errorf("directory entry %d is malformed", i)
		}
	}
	return nil
}

type manifestHeader struct {
	Format string `json:"format"`
}

// sniffManifest reports whether head, the first bytes of a body, looks like
// a manifest written by this package.
func sniffManifest(head []byte) bool {
	head = bytes.TrimLeft(head, " \t\r\n")
	if len(head) == 0 || head[0] != '{' {
		return false
	}
	return bytes.Contains(head, []byte(`"format":"w3s-cli/`))
}

// decodeManifest returns a *FileManifest or a *DirManifest.
func decodeManifest(data []byte) (any, error) {
	var h manifestHeader
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}

	switch h.Format {
	case FileManifestFormat:
		var m FileManifest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to decode file manifest: %w", err)
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		return &m, nil
	case DirManifestFormat:
		var m DirManifest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to decode directory manifest: %w", err)
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		return &m, nil
	default:
		return nil, fmt.Errorf("unknown manifest format %q", h.Format)
	}
}
