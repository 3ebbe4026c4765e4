package logging

import "time"

// ForComponent scopes l to a logical component. A *SimLogger records it as
// the component attribute; any other non-noop Logger gets a component
// key/value pair on every entry.
func ForComponent(l Logger, component string) Logger {
	switch v := l.(type) {
	case *SimLogger:
		return v.WithComponent(component)
	case NoOpLogger, nil:
		return l
	default:
		return bind(l, "component", component)
	}
}

// ForAgent scopes l to one agent identity.
func ForAgent(l Logger, name string) Logger {
	switch v := l.(type) {
	case *SimLogger:
		return v.WithAgent(name)
	case NoOpLogger, nil:
		return l
	default:
		return bind(l, "agent", name)
	}
}

// LLMCall records one model call through l. A nil err marks the call as
// successful.
func LLMCall(l Logger, model string, tokens int, dur time.Duration, err error) {
	if sl, ok := l.(*SimLogger); ok {
		sl.LogLLMCall(model, tokens, dur, err == nil, err)
		return
	}

	args := llmCallArgs(model, tokens, dur, err == nil, err)
	if err != nil {
		l.Warn(msgLLMCallFailed, args...)
		return
	}
	l.Debug(msgLLMCallCompleted, args...)
}

// StartTimer returns a closure that logs the elapsed duration of op through l.
func StartTimer(l Logger, op string) func() {
	if sl, ok := l.(*SimLogger); ok {
		return sl.StartTimer(op)
	}

	start := time.Now()
	return func() { l.Info(msgOperationCompleted, "operation", op, "duration", time.Since(start)) }
}

// boundLogger prepends fixed key/value pairs to every entry of a Logger that
// has no contextual attributes of its own.
type boundLogger struct {
	base Logger
	args []any
}

func bind(l Logger, key string, value any) Logger {
	if b, ok := l.(*boundLogger); ok {
		args := make([]any, 0, len(b.args)+2)
		args = append(args, b.args...)
		return &boundLogger{base: b.base, args: append(args, key, value)}
	}
	return &boundLogger{base: l, args: []any{key, value}}
}

func (b *boundLogger) with(args []any) []any {
	out := make([]any, 0, len(b.args)+len(args))
	out = append(out, b.args...)
	return append(out, args...)
}

func (b *boundLogger) Debug(msg string, args ...any) { b.base.Debug(msg, b.with(args)...) }

func (b *boundLogger) Info(msg string, args ...any) { b.base.Info(msg, b.with(args)...) }

func (b *boundLogger) Warn(msg string, args ...any) { b.base.Warn(msg, b.with(args)...) }

func (b *boundLogger) Error(msg string, args ...any) { b.base.Error(msg, b.with(args)...) }
