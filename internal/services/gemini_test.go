package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTruncateUTF8(t *testing.T) {
	Convey("Given text for the embedding model", t, func() {
		Convey("Short text is untouched", func() {
			So(truncateUTF8("héllo", 10), ShouldEqual, "héllo")
		})

		Convey("ASCII is cut at the byte limit", func() {
			So(truncateUTF8(strings.Repeat("a", 50), 40), ShouldHaveLength, 40)
		})

		Convey("A multibyte rune on the limit is dropped whole", func() {
			text := "a" + strings.Repeat("é", 30000)
			out := truncateUTF8(text, maxEmbeddingBytes)

			So(utf8.ValidString(out), ShouldBeTrue)
			So(len(out), ShouldEqual, maxEmbeddingBytes-1)
			So(out, ShouldEndWith, "é")
		})

		Convey("Four-byte runes stay valid at any limit", func() {
			text := strings.Repeat("🎓", 10)
			for limit := 0; limit <= len(text); limit++ {
				out := truncateUTF8(text, limit)
				So(utf8.ValidString(out), ShouldBeTrue)
				So(len(out), ShouldBeLessThanOrEqualTo, limit)
			}
		})
	})
}
