// Package chunker splits parsed documents into overlapping text chunks,
// preferring paragraph boundaries before falling back to hard character
// windows.
package chunker

import (
	"regexp"
	"strings"

	"impact-rag/internal/models"
)

const defaultMaxChars = 1000

var paragraphSplitter = regexp.MustCompile(`\n\s*\n`)

// Chunk splits every page of doc into chunks of at most maxChars characters,
// consecutive chunks overlapping by overlap characters. Chunk IDs are a
// document-scoped sequence so insertion order stays reconstructible.
func Chunk(doc *models.Document, maxChars, overlap int) []models.Chunk {
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChars {
		overlap = maxChars / 2
	}

	var chunks []models.Chunk
	id := 0
	for _, page := range doc.Pages {
		pageNum := page.Number
		if pageNum < 1 {
			pageNum = 1
		}
		for _, segment := range splitPage(page.Content, maxChars, overlap) {
			chunks = append(chunks, models.Chunk{
				Content:    segment,
				SourceFile: doc.SourceFile,
				PageNumber: pageNum,
				ChunkID:    id,
			})
			id++
		}
	}
	return chunks
}

// splitPage packs whole paragraphs into segments up to maxChars. A paragraph
// that alone exceeds maxChars is window-split instead. The tail of each
// emitted segment is carried into the next one as overlap.
func splitPage(text string, maxChars, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= maxChars {
		return []string{text}
	}

	var segments []string
	var current strings.Builder
	carry := ""

	flush := func() {
		seg := strings.TrimSpace(current.String())
		if seg != "" && seg != carry {
			segments = append(segments, seg)
		}
		current.Reset()
		if len(segments) > 0 {
			carry = tail(segments[len(segments)-1], overlap)
			current.WriteString(carry)
		}
	}

	for _, para := range paragraphSplitter.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) > maxChars {
			flush()
			segments = append(segments, windowSplit(para, maxChars, overlap)...)
			current.Reset()
			carry = tail(segments[len(segments)-1], overlap)
			current.WriteString(carry)
			continue
		}
		if current.Len() > 0 && current.Len()+len(para)+2 > maxChars {
			flush()
			// The carried overlap can still crowd a near-limit paragraph
			// over maxChars. Shrink it until the pair fits.
			if current.Len()+len(para)+2 > maxChars {
				carry = tail(carry, maxChars-len(para)-2)
				current.Reset()
				current.WriteString(carry)
			}
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	if seg := strings.TrimSpace(current.String()); seg != "" && seg != carry {
		segments = append(segments, seg)
	}
	return segments
}

// windowSplit is the hard fallback: fixed character windows with a clean
// break point (space, newline or period) searched in the last 10% of the
// window.
func windowSplit(content string, maxChars, overlap int) []string {
	var chunks []string
	content = strings.TrimSpace(content)
	contentLen := len(content)

	if contentLen <= maxChars {
		return []string{content}
	}

	start := 0
	for start < contentLen {
		end := min(start+maxChars, contentLen)

		if end < contentLen {
			lookBack := min(maxChars/10, end-start)
			for i := end - 1; i >= end-lookBack && i > start; i-- {
				if content[i] == ' ' || content[i] == '\n' || content[i] == '.' {
					end = i + 1
					break
				}
			}
		}

		chunk := strings.TrimSpace(content[start:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end == contentLen {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// tail returns the last n characters of s, snapped forward to a word start.
func tail(s string, n int) string {
	if n <= 0 || len(s) <= n {
		if n <= 0 {
			return ""
		}
		return s
	}
	t := s[len(s)-n:]
	if i := strings.IndexAny(t, " \n"); i >= 0 {
		t = strings.TrimSpace(t[i:])
	}
	return t
}
