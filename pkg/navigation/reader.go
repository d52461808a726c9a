package navigation

// ReaderStatus is the tag reader's availability, consulted by the
// presentation layer rather than by routing logic.
type ReaderStatus string

const (
	ReaderAvailable   ReaderStatus = "available"
	ReaderDisabled    ReaderStatus = "disabled"
	ReaderUnsupported ReaderStatus = "unsupported"
	ReaderUnknown     ReaderStatus = "unknown"
)

// TagReader is the engine's view of the scanning hardware or transport.
// The engine signals it on navigation start/stop and is the single
// consumer of the payload stream it produces.
type TagReader interface {
	StartScanning() error
	StopScanning() error
	Status() ReaderStatus
}

// NopReader is a TagReader that does nothing. Used when no scanning
// transport is wired, and in tests.
type NopReader struct{}

func (NopReader) StartScanning() error { return nil }
func (NopReader) StopScanning() error  { return nil }
func (NopReader) Status() ReaderStatus { return ReaderUnknown }
