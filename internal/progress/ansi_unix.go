//go:build !windows

package progress

import "os"

// enableANSI is a no-op on non-Windows platforms; Unix terminals support
// ANSI escape sequences natively.
func enableANSI(f *os.File) {}
