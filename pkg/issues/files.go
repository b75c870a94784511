package issues

// InputFile is an indexed source file able to validate positions against its
// real content.
type InputFile interface {
	Path() string
	// NewRange fails unless the range lies inside the file and starts
	// strictly before it ends.
	NewRange(startLine, startColumn, endLine, endColumn int) (TextRange, error)
	// SelectLine returns the range of a whole line.
	SelectLine(line int) (TextRange, error)
}

// FileIndex resolves absolute paths to input files. Files that are unknown
// or excluded from the analysis are reported as absent.
type FileIndex interface {
	InputFile(absolutePath string) (InputFile, bool)
}
