// Package cli provides the command-line interface for w3s.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/w3s-cli/w3s/internal/config"
	"github.com/w3s-cli/w3s/internal/dispatch"
	"github.com/w3s-cli/w3s/internal/job"
	"github.com/w3s-cli/w3s/internal/logging"
	"github.com/w3s-cli/w3s/internal/progress"
	"github.com/w3s-cli/w3s/internal/transfer"
	"github.com/w3s-cli/w3s/internal/version"
	"github.com/w3s-cli/w3s/internal/w3s"
)

// promptForPassword is the --with-encryption value when the flag is given
// without a password.
const promptForPassword = "\x00prompt"

// dotenvFile is loaded from the working directory when present.
const dotenvFile = ".env"

// Deps are the collaborators a command builds when it runs.
type Deps struct {
	// NewStore opens the credential store.
	NewStore func() (dispatch.CredentialStore, error)
	// NewTransferer builds the transfer library; the returned func releases it.
	NewTransferer func(s config.Settings, logger *logging.Logger) (transfer.Transferer, func(), error)
	// Secrets reads the password when --with-encryption has no value.
	Secrets SecretReader
}

// DefaultDeps wires the home-directory credential store and the w3s client.
func DefaultDeps() Deps {
	return Deps{
		NewStore: func() (dispatch.CredentialStore, error) {
			s, err := config.NewCredentialStore()
			if err != nil {
				return nil, err
			}
			return s, nil
		},
		NewTransferer: func(s config.Settings, logger *logging.Logger) (transfer.Transferer, func(), error) {
			c, err := w3s.New(s, logger)
			if err != nil {
				return nil, nil, err
			}
			return c, c.Close, nil
		},
		Secrets: NewTerminalSecretReader(),
	}
}

// globalFlags are the persistent flags shared by every job command.
type globalFlags struct {
	encryption    string
	compress      bool
	progressStyle string
	altScreen     bool
	output        string
	verbose       bool
}

type app struct {
	deps  Deps
	flags globalFlags
}

// NewRootCmd creates the root command with every job subcommand attached.
func NewRootCmd(deps Deps) *cobra.Command {
	a := &app{deps: deps}

	rootCmd := &cobra.Command{
		Use:   "w3s",
		Short: "Upload to and download from web3.storage",
		Long: `w3s ` + version.Version + ` - Built: ` + version.BuildTime + `
Command-line client for web3.storage.

Remember an API token once, then upload files or directories and download
them back by URL. Transfers can be encrypted with a password and compressed.`,
		Version:       version.Version + " (" + version.BuildTime + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.flags.encryption, "with-encryption", "e", "", "Upload/download with encryption/decryption (prompts when no password is given)")
	pf.Lookup("with-encryption").NoOptDefVal = promptForPassword
	pf.BoolVarP(&a.flags.compress, "with-compression", "c", false, "Upload/download with compression/decompression (useful for text contents)")
	pf.StringVar(&a.flags.progressStyle, "progress", string(progress.StyleLine), "Progress display: line, bars or simple")
	pf.BoolVar(&a.flags.altScreen, "alt-screen", false, "Show progress on the terminal's alternate screen")
	pf.StringVarP(&a.flags.output, "output", "o", OutputTable, "Result format: table or json")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "Verbose output (shows debug messages)")

	rootCmd.AddCommand(
		a.newRememberCmd(),
		a.newUploadFileCmd(),
		a.newUploadDirCmd(),
		a.newDownloadFileCmd(),
		a.newDownloadDirCmd(),
	)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	return rootCmd
}

// Execute runs the CLI with a context cancelled on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCmd(DefaultDeps()).ExecuteContext(ctx)
}

// password resolves --with-encryption, prompting when it was given bare.
func (a *app) password(cmd *cobra.Command) (string, error) {
	if !cmd.Flags().Changed("with-encryption") {
		return "", nil
	}
	if a.flags.encryption != promptForPassword && a.flags.encryption != "" {
		return a.flags.encryption, nil
	}
	secret, err := PromptConfirmedSecret(a.deps.Secrets, cmd.ErrOrStderr())
	if err != nil {
		return "", err
	}
	return string(secret), nil
}

// runJob validates j, prints the header, runs it through a Dispatcher and
// prints the report.
func (a *app) runJob(cmd *cobra.Command, j job.Job) error {
	if err := job.Validate(j); err != nil {
		return err
	}
	style, err := progress.ParseStyle(a.flags.progressStyle)
	if err != nil {
		return err
	}
	if err := validateOutput(a.flags.output); err != nil {
		return err
	}

	settings, err := config.LoadSettings(dotenvFile)
	if err != nil {
		return err
	}
	level := logging.ParseLevel(settings.LogLevel)
	if a.flags.verbose {
		level = zerolog.DebugLevel
	}
	logging.SetGlobalLevel(level)

	password, err := a.password(cmd)
	if err != nil {
		return err
	}
	opts := transfer.Options{Compress: a.flags.compress}
	if password != "" {
		opts.EncryptionKey = []byte(password)
	}

	store, err := a.deps.NewStore()
	if err != nil {
		return err
	}

	out, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	// JSON reports keep stdout free of everything but the report.
	view := out
	if a.flags.output == OutputJSON {
		view = stderr
	}
	logger := logging.NewLogger(stderr)
	renderer := progress.NewRenderer(view, progress.Options{
		Style:     style,
		AltScreen: a.flags.altScreen,
		Log:       logging.NewLogger(stderr),
	})

	t, release, err := a.deps.NewTransferer(settings, logger)
	if err != nil {
		renderer.Close()
		return err
	}
	if release != nil {
		defer release()
	}

	renderer.Print(job.Describe(j, job.Flags{Password: password, Compress: a.flags.compress}))
	logger.SetOutput(renderer)

	res, err := dispatch.New(store, t, renderer, logger).Dispatch(cmd.Context(), j, opts)

	renderer.Close()
	logger.SetOutput(stderr)
	if err != nil {
		return err
	}
	return writeReport(out, stderr, res, a.flags.output)
}

// rangeArgs is cobra.RangeArgs with a usage hint in the error.
func rangeArgs(lo, hi int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.RangeArgs(lo, hi)(cmd, args); err != nil {
			return fmt.Errorf("%w\nUsage: %s", err, cmd.UseLine())
		}
		return nil
	}
}
