package cli

import (
	"github.com/spf13/cobra"

	"github.com/w3s-cli/w3s/internal/constants"
	"github.com/w3s-cli/w3s/internal/job"
)

func (a *app) newRememberCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remember <token>",
		Short: "Remember the web3.storage API token",
		Args:  rangeArgs(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runJob(cmd, job.Remember{Token: args[0]})
		},
	}
}

func (a *app) newUploadFileCmd() *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "upload-file <path>",
		Short: "Upload a file",
		Args:  rangeArgs(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runJob(cmd, job.UploadFile{Path: args[0], MaxConcurrency: concurrency})
		},
	}
	cmd.Flags().IntVarP(&concurrency, "max-concurrent", "j", constants.DefaultUploadFileConcurrency,
		"Parts uploaded in parallel (1-16)")
	return cmd
}

func (a *app) newUploadDirCmd() *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "upload-dir <path>",
		Short: "Upload a directory",
		Args:  rangeArgs(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runJob(cmd, job.UploadDir{Path: args[0], MaxConcurrency: concurrency})
		},
	}
	cmd.Flags().IntVarP(&concurrency, "max-concurrent", "j", constants.DefaultUploadDirConcurrency,
		"Parts uploaded in parallel (1-16)")
	return cmd
}

func (a *app) newDownloadFileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download-file <url> [to_path]",
		Short: "Download a file from a CID link",
		Long: `Download a file from a CID link.

Without to_path the file is written to the working directory, named after
the last path segment of the URL.`,
		Args: rangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			j := job.DownloadFile{URL: args[0]}
			if len(args) > 1 {
				j.TargetPath = args[1]
			}
			return a.runJob(cmd, j)
		},
	}
}

func (a *app) newDownloadDirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download-dir <url> [to_path]",
		Short: "Download a directory from a CID link",
		Long: `Download a directory from a CID link.

Entries whose paths would leave the target directory are skipped.`,
		Args: rangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			j := job.DownloadDir{URL: args[0]}
			if len(args) > 1 {
				j.TargetDir = args[1]
			}
			return a.runJob(cmd, j)
		},
	}
}
