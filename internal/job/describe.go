package job

import (
	"fmt"
	"strings"
)

// Flags are the global transfer flags as typed on the command line.
type Flags struct {
	// Password is the encryption password; empty means encryption is off.
	Password string
	// Compress enables compression on upload and decompression on download.
	Compress bool
}

// Describe renders the "Arguments used" header printed before a job runs.
// Downloads label the flags as decryption and decompression.
func Describe(j Job, f Flags) string {
	encLabel, compLabel := "encryption", "compression"
	if j.IsDownload() {
		encLabel, compLabel = "decryption", "decompression"
	}

	enc := "false"
	if f.Password != "" {
		enc = fmt.Sprintf("password length: %d", len(f.Password))
	}

	var b strings.Builder
	b.WriteString("Arguments used:\n")
	fmt.Fprintf(&b, "  Job -> %s\n", j)
	fmt.Fprintf(&b, "  %s -> %s\n", encLabel, enc)
	fmt.Fprintf(&b, "  %s -> %t\n\n", compLabel, f.Compress)
	return b.String()
}
