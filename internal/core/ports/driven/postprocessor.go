package driven

// TextSplitter cuts extracted document text into chunk-sized windows.
// Implementations must be deterministic: equal input yields equal output.
type TextSplitter interface {
	// Name returns the splitter identifier.
	Name() string

	// Split returns the ordered chunks of text. Empty text yields none.
	Split(text string) []string
}
