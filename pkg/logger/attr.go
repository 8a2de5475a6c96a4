package logger

import (
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups the non-nil errors under "errors", indexed by position.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error records err under "error". A nil error yields an empty Attr,
// which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// RequestID records the request identifier under "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Key records a cache or store key under "key".
func Key(key string) slog.Attr {
	return slog.String("key", key)
}

// Operation records the coordinator operation (add, get, remove...) under "op".
func Operation(op string) slog.Attr {
	return slog.String("op", op)
}

// Reason records why something happened, e.g. an eviction cause.
func Reason(reason string) slog.Attr {
	return slog.String("reason", reason)
}

// Count records a quantity under "count".
func Count(n int) slog.Attr {
	return slog.Int("count", n)
}

// Duration records a duration under "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Driver records the storage backend name under "driver".
func Driver(name string) slog.Attr {
	return slog.String("driver", name)
}
