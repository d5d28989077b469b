package job

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// recorder remembers which Visit method ran.
type recorder struct {
	visited string
}

func (r *recorder) mark(name string) error {
	r.visited = name
	return nil
}

func (r *recorder) VisitRemember(Remember) error         { return r.mark("remember") }
func (r *recorder) VisitUploadFile(UploadFile) error     { return r.mark("upload-file") }
func (r *recorder) VisitUploadDir(UploadDir) error       { return r.mark("upload-dir") }
func (r *recorder) VisitDownloadFile(DownloadFile) error { return r.mark("download-file") }
func (r *recorder) VisitDownloadDir(DownloadDir) error   { return r.mark("download-dir") }

func TestAcceptRoutesToMatchingVisit(t *testing.T) {
	tests := []struct {
		job  Job
		want string
	}{
		{Remember{Token: "t"}, "remember"},
		{UploadFile{Path: "a", MaxConcurrency: 1}, "upload-file"},
		{UploadDir{Path: "a", MaxConcurrency: 1}, "upload-dir"},
		{DownloadFile{URL: "u"}, "download-file"},
		{DownloadDir{URL: "u"}, "download-dir"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			r := &recorder{}
			require.NoError(t, tt.job.Accept(r))
			require.Equal(t, tt.want, r.visited)
		})
	}
}

func TestString(t *testing.T) {
	require.Equal(t, "Remember API token: ****5678", Remember{Token: "12345678"}.String())
	require.Equal(t, "Remember API token: ***", Remember{Token: "abc"}.String())
	require.Equal(t, "Upload this file: a.txt (max concurrency 4)", UploadFile{Path: "a.txt", MaxConcurrency: 4}.String())
	require.Equal(t, "Upload this directory: dir (max concurrency 8)", UploadDir{Path: "dir", MaxConcurrency: 8}.String())
	require.Equal(t, "Download file from: https://gw/ipfs/x", DownloadFile{URL: "https://gw/ipfs/x"}.String())
	require.Equal(t, "Download file from: u to out.bin", DownloadFile{URL: "u", TargetPath: "out.bin"}.String())
	require.Equal(t, "Download directory from: u to out", DownloadDir{URL: "u", TargetDir: "out"}.String())
}

func TestDescribeUpload(t *testing.T) {
	got := Describe(UploadFile{Path: "a.txt", MaxConcurrency: 4}, Flags{Password: "secret", Compress: true})
	want := "Arguments used:\n" +
		"  Job -> Upload this file: a.txt (max concurrency 4)\n" +
		"  encryption -> password length: 6\n" +
		"  compression -> true\n\n"
	require.Equal(t, want, got)
}

func TestDescribeDownloadUsesDecryptionLabels(t *testing.T) {
	got := Describe(DownloadFile{URL: "u"}, Flags{})
	require.Contains(t, got, "  decryption -> false\n")
	require.Contains(t, got, "  decompression -> false\n")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		job     Job
		wantErr string
	}{
		{"remember", Remember{Token: "t"}, ""},
		{"remember without token", Remember{}, "token is required"},
		{"upload lower bound", UploadFile{Path: "a", MaxConcurrency: 1}, ""},
		{"upload upper bound", UploadDir{Path: "a", MaxConcurrency: 16}, ""},
		{"upload zero", UploadFile{Path: "a", MaxConcurrency: 0}, "between 1 and 16, got 0"},
		{"upload too many", UploadDir{Path: "a", MaxConcurrency: 17}, "between 1 and 16, got 17"},
		{"upload without path", UploadFile{MaxConcurrency: 4}, "path is required"},
		{"download", DownloadFile{URL: "u"}, ""},
		{"download dir without url", DownloadDir{TargetDir: "out"}, "url is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.job)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
