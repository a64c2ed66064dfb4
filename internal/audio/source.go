package audio

// Source is a blocking audio capture device.
//
// Read fills buf with raw PCM bytes (signed 16-bit little-endian samples)
// and blocks until the underlying hardware buffer is filled or its timeout
// expires. Implementations live outside this package; the microphone
// bring-up is not part of the node core.
type Source interface {
	Read(buf []byte) (n int, err error)
}

// Logger defines the logging interface used by the Processor.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
