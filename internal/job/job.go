// Package job defines the closed set of commands the CLI can run.
//
// A Job is constructed once from command-line input and consumed exactly once
// by the dispatcher. The set is closed through Visitor: adding a variant adds
// a Visit method, so every consumer stops compiling until it handles it.
package job

import (
	"fmt"
	"strings"
)

// Job is one parsed command.
type Job interface {
	// Accept calls the Visitor method matching the concrete variant.
	Accept(v Visitor) error
	// String renders the job for the "Arguments used" header.
	String() string
	// IsDownload reports whether the job reads from the storage service.
	IsDownload() bool
}

// Visitor handles each job variant.
type Visitor interface {
	VisitRemember(Remember) error
	VisitUploadFile(UploadFile) error
	VisitUploadDir(UploadDir) error
	VisitDownloadFile(DownloadFile) error
	VisitDownloadDir(DownloadDir) error
}

// Remember stores the API token for later jobs.
type Remember struct {
	Token string `validate:"required"`
}

// UploadFile uploads a single file.
type UploadFile struct {
	Path           string `validate:"required"`
	MaxConcurrency int    `validate:"min=1,max=16"`
}

// UploadDir uploads a directory tree.
type UploadDir struct {
	Path           string `validate:"required"`
	MaxConcurrency int    `validate:"min=1,max=16"`
}

// DownloadFile downloads one file. TargetPath is optional.
type DownloadFile struct {
	URL        string `validate:"required"`
	TargetPath string
}

// DownloadDir downloads a directory tree. TargetDir is optional.
type DownloadDir struct {
	URL       string `validate:"required"`
	TargetDir string
}

func (j Remember) Accept(v Visitor) error     { return v.VisitRemember(j) }
func (j UploadFile) Accept(v Visitor) error   { return v.VisitUploadFile(j) }
func (j UploadDir) Accept(v Visitor) error    { return v.VisitUploadDir(j) }
func (j DownloadFile) Accept(v Visitor) error { return v.VisitDownloadFile(j) }
func (j DownloadDir) Accept(v Visitor) error  { return v.VisitDownloadDir(j) }

func (Remember) IsDownload() bool     { return false }
func (UploadFile) IsDownload() bool   { return false }
func (UploadDir) IsDownload() bool    { return false }
func (DownloadFile) IsDownload() bool { return true }
func (DownloadDir) IsDownload() bool  { return true }

func (j Remember) String() string {
	return fmt.Sprintf("Remember API token: %s", maskToken(j.Token))
}

func (j UploadFile) String() string {
	return fmt.Sprintf("Upload this file: %s (max concurrency %d)", j.Path, j.MaxConcurrency)
}

func (j UploadDir) String() string {
	return fmt.Sprintf("Upload this directory: %s (max concurrency %d)", j.Path, j.MaxConcurrency)
}

func (j DownloadFile) String() string {
	if j.TargetPath != "" {
		return fmt.Sprintf("Download file from: %s to %s", j.URL, j.TargetPath)
	}
	return fmt.Sprintf("Download file from: %s", j.URL)
}

func (j DownloadDir) String() string {
	if j.TargetDir != "" {
		return fmt.Sprintf("Download directory from: %s to %s", j.URL, j.TargetDir)
	}
	return fmt.Sprintf("Download directory from: %s", j.URL)
}

// maskToken keeps the last four characters of a token visible.
func maskToken(token string) string {
	const visible = 4
	if len(token) <= visible {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-visible) + token[len(token)-visible:]
}
