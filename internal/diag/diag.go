// Package diag collects the recoverable conditions met while resolving a
// build. They are logged as they happen and kept so the directive stream can
// surface the warnings to the outer build system.
package diag

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Code identifies a recoverable condition.
type Code string

const (
	MetadataAbsent         Code = "metadata-absent"
	ConfigDirectoryMissing Code = "config-directory-missing"
	SearchPathUnknown      Code = "search-path-unknown"
	HeadersUnavailable     Code = "headers-unavailable"
	ProviderVersion        Code = "provider-version"
	ProviderLibrary        Code = "provider-library"
	NamespacePatch         Code = "namespace-patch"
	Toolchain              Code = "toolchain"
)

// Diagnostic is one recorded condition.
type Diagnostic struct {
	Level   zerolog.Level `json:"-"`
	Code    Code          `json:"code"`
	Message string        `json:"message"`
}

// Diagnostics records conditions for one run. A nil *Diagnostics discards
// everything, so pure stages can be called without one.
type Diagnostics struct {
	log   zerolog.Logger
	items []Diagnostic
}

// New returns a Diagnostics that also writes every entry to l.
func New(l zerolog.Logger) *Diagnostics {
	return &Diagnostics{log: l}
}

// Info records an informational condition.
func (d *Diagnostics) Info(code Code, format string, args ...any) {
	d.add(zerolog.InfoLevel, code, format, args...)
}

// Warn records a condition the outer build system should show the user.
func (d *Diagnostics) Warn(code Code, format string, args ...any) {
	d.add(zerolog.WarnLevel, code, format, args...)
}

// Debug only logs; nothing is recorded.
func (d *Diagnostics) Debug(format string, args ...any) {
	if d == nil {
		return
	}
	d.log.Debug().Msgf(format, args...)
}

// Logger returns the logger entries are written to.
func (d *Diagnostics) Logger() zerolog.Logger {
	if d == nil {
		return zerolog.Nop()
	}
	return d.log
}

func (d *Diagnostics) add(level zerolog.Level, code Code, format string, args ...any) {
	if d == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	d.items = append(d.items, Diagnostic{Level: level, Code: code, Message: msg})
	d.log.WithLevel(level).Str("code", string(code)).Msg(msg)
}

// Items returns every recorded diagnostic in order.
func (d *Diagnostics) Items() []Diagnostic {
	if d == nil {
		return nil
	}
	return append([]Diagnostic(nil), d.items...)
}

// Warnings returns the recorded diagnostics at warning level or above.
func (d *Diagnostics) Warnings() []Diagnostic {
	var ws []Diagnostic
	for _, it := range d.Items() {
		if it.Level >= zerolog.WarnLevel {
			ws = append(ws, it)
		}
	}
	return ws
}

// Has reports whether a diagnostic with code was recorded.
func (d *Diagnostics) Has(code Code) bool {
	for _, it := range d.Items() {
		if it.Code == code {
			return true
		}
	}
	return false
}
