// Package dispatch routes a parsed job to the credential store or the
// transfer library and collects the resulting content identifiers.
package dispatch

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"

	"github.com/w3s-cli/w3s/internal/constants"
	"github.com/w3s-cli/w3s/internal/job"
	"github.com/w3s-cli/w3s/internal/logging"
	"github.com/w3s-cli/w3s/internal/progress"
	"github.com/w3s-cli/w3s/internal/transfer"
	"github.com/w3s-cli/w3s/internal/validation"
)

// CredentialStore is the subset of config.CredentialStore the dispatcher uses.
type CredentialStore interface {
	Save(token string) error
	Load() (string, error)
}

// Result is the outcome of one dispatched job.
type Result struct {
	// CIDs are the returned identifiers, root first. Empty for remember and downloads.
	CIDs []string
	// EmptyPlaceholder is set when any identifier is the empty-content placeholder.
	EmptyPlaceholder bool
}

// Dispatcher runs jobs. It holds no per-job state; every Dispatch call builds
// a fresh Aggregator bound to the shared renderer.
type Dispatcher struct {
	store      CredentialStore
	transferer transfer.Transferer
	renderer   progress.Renderer
	logger     *logging.Logger
}

// New returns a Dispatcher. A nil logger discards log output.
func New(store CredentialStore, t transfer.Transferer, r progress.Renderer, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Dispatcher{store: store, transferer: t, renderer: r, logger: logger}
}

// Dispatch runs j once with opts. Errors from the credential store, the
// filesystem and the transfer library are returned unchanged.
func (d *Dispatcher) Dispatch(ctx context.Context, j job.Job, opts transfer.Options) (*Result, error) {
	r := &run{Dispatcher: d, ctx: ctx, opts: opts, result: &Result{}}
	if err := j.Accept(r); err != nil {
		return nil, err
	}
	return r.result, nil
}

// run is the per-call visitor carrying the context the Visitor methods lack.
type run struct {
	*Dispatcher
	ctx    context.Context
	opts   transfer.Options
	result *Result
}

var _ job.Visitor = (*run)(nil)

func (r *run) VisitRemember(j job.Remember) error {
	if err := r.store.Save(j.Token); err != nil {
		return err
	}
	r.logger.Debug().Msg("API token saved")
	return nil
}

func (r *run) VisitUploadFile(j job.UploadFile) error {
	return r.upload(j.Path, j.MaxConcurrency, r.transferer.Upload)
}

func (r *run) VisitUploadDir(j job.UploadDir) error {
	return r.upload(j.Path, j.MaxConcurrency, r.transferer.UploadDir)
}

func (r *run) upload(path string, maxConcurrency int, call func(context.Context, transfer.UploadRequest) ([]transfer.CID, error)) error {
	token, err := r.store.Load()
	if err != nil {
		return err
	}

	agg := progress.NewAggregator(r.renderer)
	r.logger.Debug().
		Str("path", path).
		Int("max_concurrency", maxConcurrency).
		Bool("encrypted", r.opts.Encrypted()).
		Bool("compressed", r.opts.Compress).
		Msg("Starting upload")

	cids, err := call(r.ctx, transfer.UploadRequest{
		Path:           path,
		Token:          token,
		MaxConcurrency: maxConcurrency,
		Progress:       agg.Update,
		Options:        r.opts,
	})
	if err != nil {
		return err
	}

	r.result.CIDs = lo.Map(cids, func(c transfer.CID, _ int) string { return c.String() })
	r.result.EmptyPlaceholder = lo.Contains(cids, transfer.EmptyCID)
	return nil
}

func (r *run) VisitDownloadFile(j job.DownloadFile) error {
	name := TargetFileName(j.URL, j.TargetPath)

	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	agg := progress.NewAggregator(r.renderer)
	r.renderer.Print(fmt.Sprintf("Downloading to %s", name))

	err = r.transferer.Download(r.ctx, transfer.DownloadRequest{
		URL:      j.URL,
		Name:     name,
		Dest:     f,
		Progress: agg.Update,
		Options:  r.opts,
	})
	if closeErr := f.Close(); err == nil && closeErr != nil {
		return fmt.Errorf("failed to close %s: %w", name, closeErr)
	}
	return err
}

func (r *run) VisitDownloadDir(j job.DownloadDir) error {
	dir := TargetFileName(j.URL, j.TargetDir)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	agg := progress.NewNamedAggregator(r.renderer)
	r.renderer.Print(fmt.Sprintf("Downloading into %s", dir))

	return r.transferer.DownloadDir(r.ctx, transfer.DownloadDirRequest{
		URL:      j.URL,
		Dir:      dir,
		Accept:   validation.WithinDirectory(dir),
		Progress: agg.Update,
		Options:  r.opts,
	})
}

// TargetFileName returns explicit when set. Otherwise it returns the part of
// url after the last "/", or the fallback name when there is none.
func TargetFileName(url, explicit string) string {
	if explicit != "" {
		return explicit
	}
	i := strings.LastIndex(url, "/")
	if i < 0 || i == len(url)-1 {
		return constants.FallbackDownloadName
	}
	return url[i+1:]
}
