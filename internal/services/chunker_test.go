package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	. "github.com/smartystreets/goconvey/convey"
)

func TestChunkText(t *testing.T) {
	Convey("Given a text chunker", t, func() {
		chunker := NewTextChunker()

		Convey("Empty input yields no chunks", func() {
			So(chunker.ChunkText("", 100, 20), ShouldBeEmpty)
			So(chunker.ChunkText("\n\n   \n\n", 100, 20), ShouldBeEmpty)
		})

		Convey("Short text is a single chunk", func() {
			chunks := chunker.ChunkText("Early action deadlines fall in November.", 100, 20)
			So(chunks, ShouldResemble, []string{"Early action deadlines fall in November."})
		})

		Convey("Long text respects the size bound", func() {
			para := strings.Repeat("Admissions officers read every essay carefully. ", 40)
			text := para + "\n\n" + para + "\n\n" + strings.Repeat("x", 350)
			chunks := chunker.ChunkText(text, 200, 50)

			So(len(chunks), ShouldBeGreaterThan, 1)
			for _, chunk := range chunks {
				So(utf8.RuneCountInString(chunk), ShouldBeLessThanOrEqualTo, 200)
				So(strings.TrimSpace(chunk), ShouldNotBeEmpty)
			}
		})

		Convey("Consecutive chunks overlap", func() {
			paragraphs := []string{
				strings.Repeat("alpha ", 15),
				strings.Repeat("bravo ", 15),
				strings.Repeat("charlie ", 15),
			}
			chunks := chunker.ChunkText(strings.Join(paragraphs, "\n\n"), 120, 30)

			So(len(chunks), ShouldBeGreaterThanOrEqualTo, 2)
			So(chunks[1], ShouldStartWith, "alpha")
		})

		Convey("Multibyte text is measured in runes", func() {
			text := strings.Repeat("é", 90) + "\n\n" + strings.Repeat("ü", 90)
			chunks := chunker.ChunkText(text, 100, 0)
			So(chunks, ShouldResemble, []string{strings.Repeat("é", 90), strings.Repeat("ü", 90)})
		})
	})
}

func TestCleanText(t *testing.T) {
	Convey("Blank runs collapse to one paragraph break", t, func() {
		So(CleanText("  first line  \n\n\n\n   second  \nthird\n\n"), ShouldEqual, "first line\n\nsecond\nthird")
	})
}
