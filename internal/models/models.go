package models

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Page is one page of a parsed document. Formats without a page concept
// report a single page numbered 1.
type Page struct {
	Number  int
	Content string
}

// Document is a parsed source file before chunking.
type Document struct {
	SourceFile string
	Pages      []Page
}

// Chunk represents a bounded slice of document text with metadata
type Chunk struct {
	Content    string `json:"content"`
	SourceFile string `json:"source_file"`
	PageNumber int    `json:"page_number"`
	ChunkID    int    `json:"chunk_id"`
}

// Citation is the per-file set of pages supporting an answer.
// Pages are unique and sorted ascending.
type Citation struct {
	File  string `json:"file"`
	Pages []int  `json:"pages"`
}

// PageList renders the pages the way the chat API returns them, e.g. "1, 3".
func (c Citation) PageList() string {
	parts := make([]string, len(c.Pages))
	for i, p := range c.Pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}

// AggregateSources collapses retrieved chunks into per-file citations.
// File order follows first appearance among the chunks; page 0 marks
// "no page" and is dropped from the rendered list.
func AggregateSources(chunks []Chunk) []Citation {
	pagesByFile := make(map[string]map[int]bool)
	var order []string
	for _, ch := range chunks {
		if _, ok := pagesByFile[ch.SourceFile]; !ok {
			pagesByFile[ch.SourceFile] = make(map[int]bool)
			order = append(order, ch.SourceFile)
		}
		if ch.PageNumber >= 1 {
			pagesByFile[ch.SourceFile][ch.PageNumber] = true
		}
	}

	citations := make([]Citation, 0, len(order))
	for _, file := range order {
		pages := make([]int, 0, len(pagesByFile[file]))
		for p := range pagesByFile[file] {
			pages = append(pages, p)
		}
		sort.Ints(pages)
		citations = append(citations, Citation{File: file, Pages: pages})
	}
	return citations
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message within a conversation. Assistant turns carry the
// citations that backed the answer.
type Turn struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Sources   []Citation `json:"sources,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ChatResponse is what a single question returns to the caller.
type ChatResponse struct {
	Answer         string     `json:"answer"`
	Sources        []Citation `json:"sources"`
	ConversationID string     `json:"conversation_id"`
}
