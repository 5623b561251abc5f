package utils

import (
	"io"
)

// maxDrain bounds how much of an unread body is discarded so the
// connection can go back to the pool.
const maxDrain = 64 << 10

// DrainClose discards what is left of a response body and closes it.
// Errors are ignored; use in defer on best-effort cleanup paths.
func DrainClose(rc io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, maxDrain))
	_ = rc.Close()
}
