package scanner

// CharsPerToken is a conservative BPE ratio used to size files in tokens.
const CharsPerToken = 3.5

// EstimateTokens estimates the token count of a file from its size.
func EstimateTokens(size int64) int {
	return int(float64(size) / CharsPerToken)
}

// FileInfo is one source file in the analyzed tree.
type FileInfo struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Ext    string `json:"ext"`
	Tokens int    `json:"tokens,omitempty"`
}
