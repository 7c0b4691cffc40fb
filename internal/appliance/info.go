package appliance

import "github.com/nerrad567/remo-bridge/internal/accessory"

const manufacturerNature = "Nature"

// Logger is the logging interface used by the adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

func orNoop(l Logger) Logger {
	if l == nil {
		return noopLogger{}
	}
	return l
}

// namedService ensures a service and sets its Name and ConfiguredName.
func namedService(shell *accessory.Shell, kind accessory.ServiceKind, name string) *accessory.Service {
	svc := shell.EnsureService(kind, name)
	svc.Characteristic(accessory.CharName).UpdateValue(name)
	svc.Characteristic(accessory.CharConfiguredName).UpdateValue(name)
	return svc
}
