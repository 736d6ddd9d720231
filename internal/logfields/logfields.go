package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyFile       = "file"
	KeyPath       = "path"
	KeyKind       = "kind"
	KeyLayout     = "layout"
	KeyHook       = "hook"
	KeyStage      = "stage"
	KeyCategory   = "category"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyURL        = "url"
	KeyError      = "error"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyRemoteAddr = "remote_addr"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func File(p string) slog.Attr         { return slog.String(KeyFile, p) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func Layout(name string) slog.Attr    { return slog.String(KeyLayout, name) }
func Hook(name string) slog.Attr      { return slog.String(KeyHook, name) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Category(c string) slog.Attr     { return slog.String(KeyCategory, c) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
