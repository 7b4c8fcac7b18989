package parser

import "fmt"

// MalformedLogError reports a structural problem in a log: a broken hand
// boundary or a missing or inconsistent seat assignment.
type MalformedLogError struct {
	File   string
	Row    int // 1-based CSV line, 0 when not tied to a row
	Reason string
}

func (e *MalformedLogError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("malformed log %s (row %d): %s", e.File, e.Row, e.Reason)
	}
	return fmt.Sprintf("malformed log %s: %s", e.File, e.Reason)
}

// EmptyLogError reports a log that contains no complete hand.
type EmptyLogError struct {
	File string
}

func (e *EmptyLogError) Error() string {
	return fmt.Sprintf("no complete hands found in %s", e.File)
}
