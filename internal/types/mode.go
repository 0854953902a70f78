package types

// Mode selects the application runtime profile.
type Mode string

const (
	// ModeDebug enables pretty console logging and verbose output.
	ModeDebug Mode = "debug"
	// ModeRelease enables structured JSON logging and the OTLP bridge.
	ModeRelease Mode = "release"
)

func (m Mode) Valid() bool {
	return m == ModeDebug || m == ModeRelease
}
