package logger

// FormatError exposes the pretty error layout to tests.
func FormatError(err error) string {
	return formatErrorEntries(collectErrorEntries(err))
}
