package util

import "strings"

// ChunkText splits text into pieces of at most size runes. Each cut falls on
// the last newline, or failing that the last space, in the back half of the
// window; consecutive pieces share overlap runes.
func ChunkText(text string, size, overlap int) []string {
	if size <= 0 {
		size = 1200
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	runes := []rune(text)
	out := make([]string, 0)
	for start := 0; start < len(runes); {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else if cut := breakAt(runes[start:end]); cut > 0 {
			end = start + cut
		}
		if part := strings.TrimSpace(string(runes[start:end])); part != "" {
			out = append(out, part)
		}
		if end == len(runes) {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

func breakAt(window []rune) int {
	half := len(window) / 2
	for _, sep := range []rune{'\n', ' '} {
		for i := len(window) - 1; i >= half && i > 0; i-- {
			if window[i] == sep {
				return i + 1
			}
		}
	}
	return 0
}
