package services

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

type TextChunker interface {
	ChunkText(text string, maxChunkSize int, overlap int) []string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// ChunkText packs paragraphs into chunks of at most maxChunkSize runes. Each
// chunk starts with up to overlap runes from the end of the previous one when
// they fit. Paragraphs longer than a chunk are split on sentence ends.
func (tc *textChunker) ChunkText(text string, maxChunkSize int, overlap int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}

	var pieces []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if utf8.RuneCountInString(para) <= maxChunkSize {
			pieces = append(pieces, para)
			continue
		}
		pieces = append(pieces, splitLong(para, maxChunkSize)...)
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0
	hasContent := false

	reset := func(seed string) {
		current.Reset()
		current.WriteString(seed)
		currentLen = utf8.RuneCountInString(seed)
		hasContent = false
	}

	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if currentLen > 0 && currentLen+2+n > maxChunkSize {
			if hasContent {
				chunk := current.String()
				chunks = append(chunks, chunk)
				reset(lastWords(chunk, overlap))
			}
			if currentLen > 0 && currentLen+2+n > maxChunkSize {
				reset("")
			}
		}
		if currentLen > 0 {
			current.WriteString("\n\n")
			currentLen += 2
		}
		current.WriteString(piece)
		currentLen += n
		hasContent = true
	}
	if hasContent {
		chunks = append(chunks, current.String())
	}

	return chunks
}

// splitLong breaks a paragraph into sentence groups of at most size runes.
// A single sentence longer than size is cut on word boundaries.
func splitLong(para string, size int) []string {
	var out []string
	var sb strings.Builder
	sbLen := 0

	emit := func() {
		if sbLen > 0 {
			out = append(out, sb.String())
			sb.Reset()
			sbLen = 0
		}
	}

	for _, sentence := range splitIntoSentences(para) {
		for _, part := range cutWords(sentence, size) {
			n := utf8.RuneCountInString(part)
			if sbLen > 0 && sbLen+1+n > size {
				emit()
			}
			if sbLen > 0 {
				sb.WriteByte(' ')
				sbLen++
			}
			sb.WriteString(part)
			sbLen += n
		}
	}
	emit()
	return out
}

// splitIntoSentences keeps the terminating punctuation on each sentence.
func splitIntoSentences(text string) []string {
	var sentences []string
	start := 0
	runes := []rune(text)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && runes[i+1] != ' ' && runes[i+1] != '\n' {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func cutWords(sentence string, size int) []string {
	if utf8.RuneCountInString(sentence) <= size {
		return []string{sentence}
	}

	var out []string
	var sb strings.Builder
	sbLen := 0
	for _, word := range strings.Fields(sentence) {
		for utf8.RuneCountInString(word) > size {
			if sbLen > 0 {
				out = append(out, sb.String())
				sb.Reset()
				sbLen = 0
			}
			r := []rune(word)
			out = append(out, string(r[:size]))
			word = string(r[size:])
		}
		if word == "" {
			continue
		}
		n := utf8.RuneCountInString(word)
		if sbLen > 0 && sbLen+1+n > size {
			out = append(out, sb.String())
			sb.Reset()
			sbLen = 0
		}
		if sbLen > 0 {
			sb.WriteByte(' ')
			sbLen++
		}
		sb.WriteString(word)
		sbLen += n
	}
	if sbLen > 0 {
		out = append(out, sb.String())
	}
	return out
}

// lastWords returns at most n trailing runes of text, starting on a word.
func lastWords(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	tail := string(runes[len(runes)-n:])
	if i := strings.IndexAny(tail, " \n"); i != -1 {
		tail = tail[i:]
	}
	return strings.TrimSpace(tail)
}
