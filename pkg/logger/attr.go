package logger

import (
	"log/slog"
	"strconv"
)

// Errors groups non-nil errors under "errors". All-nil input yields an empty Attr.
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

// Error records err under "error". A nil error yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

func Role(role string) slog.Attr {
	return slog.String("role", role)
}

func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

func FileID(id any) slog.Attr {
	return slog.Any("file_id", id)
}

func FolderID(id any) slog.Attr {
	return slog.Any("folder_id", id)
}

// ObjectKey records an S3 object key under "object_key".
func ObjectKey(key string) slog.Attr {
	return slog.String("object_key", key)
}

func ClientIP(ip string) slog.Attr {
	return slog.String("ip", ip)
}

func Status(code int) slog.Attr {
	return slog.Int("status", code)
}

func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Event(name string) slog.Attr {
	return slog.String("event", name)
}
