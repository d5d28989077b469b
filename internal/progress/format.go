package progress

import "fmt"

var byteUnits = [...]string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}

// FormatBytes scales n to the largest binary unit that keeps the value below
// 1024, stopping at PiB, and prints it with the given fractional digits.
//
//	FormatBytes(1536, 2) == "1.50KiB"
func FormatBytes(n uint64, digits int) string {
	value := float64(n)
	unit := 0
	for value >= 1024 && unit < len(byteUnits)-1 {
		value /= 1024
		unit++
	}
	return fmt.Sprintf("%.*f%s", digits, value, byteUnits[unit])
}
