// Package errs defines the sentinel error kinds shared by the catalog,
// texture, and sprite packages so callers can classify a failure with
// errors.Is instead of string matching.
package errs

import "errors"

// Sentinel errors returned (wrapped with context via fmt.Errorf's %w) by
// the loading and upload paths of this module.
var (
	ErrIoError                = errors.New("io error")
	ErrCorruptArchive         = errors.New("corrupt archive")
	ErrUnsupportedPixelFormat = errors.New("unsupported pixel format")
	ErrGpuUploadFailed        = errors.New("gpu upload failed")
	ErrOutOfSlots             = errors.New("out of slots")
)
