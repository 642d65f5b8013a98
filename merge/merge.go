package merge

// Merge merges the template source into the destination source structurally
// and returns the merged content with its decision tally and per-line
// provenance. Parsing either input must succeed; a malformed freeze region
// layout is fatal. The merge is a pure function of its inputs: identical
// inputs and options produce byte-identical output.
func Merge(template, destination string, options ...Option) (*Result, error) {
	config := newConfig(options)
	return mergeSources(template, destination, config, 0)
}
