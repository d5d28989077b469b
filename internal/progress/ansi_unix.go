//go:build !windows

package progress

import "os"

// enableWindowsANSI is a no-op outside Windows; ANSI sequences work natively.
func enableWindowsANSI(*os.File) {}
