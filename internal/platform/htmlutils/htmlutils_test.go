package htmlutils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKeepsAllowedTags(t *testing.T) {
	in := "<b>жирный</b> и <i>курсив</i> и <s>зачёркнуто</s>"
	assert.Equal(t, in, Sanitize(in))
}

func TestSanitizeDropsDisallowedTags(t *testing.T) {
	in := `<div class="x"><p>текст</p><script>alert(1)</script></div>`
	assert.Equal(t, "текстalert(1)", Sanitize(in))
}

func TestSanitizeEscapesText(t *testing.T) {
	assert.Equal(t, "a &lt; b &amp; c", Sanitize("a < b & c"))
}

func TestSanitizeClosesUnbalancedTags(t *testing.T) {
	assert.Equal(t, "<b>нет закрытия</b>", Sanitize("<b>нет закрытия"))
	assert.Equal(t, "лишнее закрытие", Sanitize("лишнее закрытие</b>"))
}

func TestSanitizeAnchorHref(t *testing.T) {
	in := `<a href="https://ena.am/Info.aspx" onclick="evil()">сайт</a>`
	assert.Equal(t, `<a href="https://ena.am/Info.aspx">сайт</a>`, Sanitize(in))
}

func TestSanitizeAnchorDangerousProtocol(t *testing.T) {
	for _, href := range []string{
		"javascript:alert(1)",
		"JAVASCRIPT:alert(1)",
		"vbscript:msgbox",
		"data:text/html;base64,x",
	} {
		got := Sanitize(`<a href="` + href + `">x</a>`)
		assert.Equal(t, "<a>x</a>", got, "href %q", href)
	}
}

func TestNormalize(t *testing.T) {
	in := "  <u> </u>строка\n\t  вторая  "
	assert.Equal(t, "строка\nвторая", Normalize(" "+in))
	assert.Equal(t, "a b", Normalize("a<u>  </u>b"))
}

func TestChunkParagraphsSplitsAtBoundaries(t *testing.T) {
	p1 := strings.Repeat("a", 2900)
	p2 := strings.Repeat("b", 2900)
	p3 := strings.Repeat("c", 2900)

	chunks := ChunkParagraphs(p1+"\n\n"+p2+"\n\n"+p3, 4000)

	assert.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.LessOrEqual(t, len(c), 4000, "chunk %d", i)
	}
}

func TestChunkParagraphsMergesShort(t *testing.T) {
	chunks := ChunkParagraphs("первый\n\nвторой\n\nтретий", 4000)

	assert.Equal(t, []string{"первый\n\nвторой\n\nтретий"}, chunks)
}

func TestChunkParagraphsOversizedParagraph(t *testing.T) {
	big := strings.Repeat("x", 5000)

	chunks := ChunkParagraphs("короткий\n\n"+big, 4000)

	assert.Equal(t, []string{"короткий", big}, chunks)
}

func TestChunkParagraphsEmpty(t *testing.T) {
	assert.Empty(t, ChunkParagraphs("", 4000))
	assert.Empty(t, ChunkParagraphs("\n\n\n\n", 4000))
}
