// Package docindex ingests an uploaded document into a per-session retrieval
// index: fixed-size overlapping chunks with embedding vectors, persisted as
// one blob per session and searched by cosine similarity.
package docindex

import (
	"strings"
	"unicode/utf8"
)

// SplitChunks splits text into chunks of roughly size characters with the
// given overlap, preferring word boundaries. Empty chunks are dropped.
func SplitChunks(text string, size, overlap int) []string {
	content := strings.TrimSpace(text)
	if content == "" {
		return nil
	}
	if size <= 0 {
		size = 500
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var chunks []string
	start := 0

	for start < len(content) {
		end := start + size
		if end > len(content) {
			end = len(content)
		}

		if end < len(content) {
			if lastSpace := strings.LastIndex(content[start:end], " "); lastSpace > 0 {
				end = start + lastSpace
			} else {
				// No word boundary in the window; back up to a rune boundary
				// so the cut never splits a multi-byte character.
				end = runeStart(content, end)
				if end <= start {
					_, n := utf8.DecodeRuneInString(content[start:])
					end = start + n
				}
			}
		}

		if chunk := strings.TrimSpace(content[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end == len(content) {
			break
		}

		next := runeStart(content, end-overlap)
		if next <= start {
			// Overlap would stall the scan (tiny chunk after a word-boundary
			// cut); advance without overlap instead.
			next = end
		}
		start = next
	}

	return chunks
}

// runeStart backs pos up to the nearest rune boundary in s.
func runeStart(s string, pos int) int {
	for pos > 0 && !utf8.RuneStart(s[pos]) {
		pos--
	}
	return pos
}
