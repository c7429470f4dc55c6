package snapshot

import (
	"fmt"
	"strings"
	"time"
)

// NameLayout is the on-disk encoding of a capture time: "05 Sep 2021 14 30".
// Both the collector and the reconstructor depend on it byte for byte.
const NameLayout = "02 Jan 2006 15 04"

// Ext is the snapshot file extension.
const Ext = ".json"

// NameError reports a file whose name does not decode to a capture time.
type NameError struct {
	Name string
	Err  error
}

func (e *NameError) Error() string {
	return fmt.Sprintf("snapshot name %q: %v", e.Name, e.Err)
}

func (e *NameError) Unwrap() error { return e.Err }

// FormatTime renders t without the extension, truncated to the minute.
func FormatTime(t time.Time) string {
	return t.Format(NameLayout)
}

// FormatName returns the file name for a snapshot captured at t.
func FormatName(t time.Time) string {
	return FormatTime(t) + Ext
}

// ParseName decodes a snapshot file name in loc.
func ParseName(name string, loc *time.Location) (time.Time, error) {
	if !strings.HasSuffix(name, Ext) {
		return time.Time{}, &NameError{Name: name, Err: fmt.Errorf("missing %s extension", Ext)}
	}
	t, err := time.ParseInLocation(NameLayout, strings.TrimSuffix(name, Ext), loc)
	if err != nil {
		return time.Time{}, &NameError{Name: name, Err: err}
	}
	return t, nil
}
