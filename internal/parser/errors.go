package parser

import "fmt"

// Row-scoped error severities. None of these abort a file parse; the driver
// logs them and moves to the next row.

// ignoredError marks a row outside this engine's concern: unsettled status,
// foreign sub-ledger origin, intentional subscription "modify" rows.
type ignoredError struct {
	reason string
}

func (e *ignoredError) Error() string { return e.reason }

func ignoredf(format string, args ...interface{}) error {
	return &ignoredError{reason: fmt.Sprintf(format, args...)}
}

// unhandledError marks a row the taxonomy should recognize but doesn't, or a
// row shape that should not occur for this data set. Logged loudly so the
// gap gets noticed.
type unhandledError struct {
	reason string
}

func (e *unhandledError) Error() string { return e.reason }

func unhandledf(format string, args ...interface{}) error {
	return &unhandledError{reason: fmt.Sprintf(format, args...)}
}

// normalizationError marks a row that matched the taxonomy but could not be
// turned into a well-formed message: missing required fields, unparseable
// dates, unmapped period or action codes.
type normalizationError struct {
	reason string
}

func (e *normalizationError) Error() string { return e.reason }

func normalizationf(format string, args ...interface{}) error {
	return &normalizationError{reason: fmt.Sprintf(format, args...)}
}
