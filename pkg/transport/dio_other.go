//go:build !linux

package transport

import (
	"context"
	"fmt"
)

// Reopen is unavailable outside Linux for the DIO-enabled case: O_DIRECT
// has no portable equivalent. The DIO alignment check's reopen-without-
// DIO path only ever asks for dio=false, so that case still works by
// falling back to the plain "file" backend.
func Reopen(ctx context.Context, path string, dio bool) (Handle, error) {
	if dio {
		return nil, fmt.Errorf("transport: dio backend unavailable on this platform")
	}
	return Open(ctx, "file", OpenOptions{Path: path})
}
