package pptx_test

import (
	"archive/zip"
	"bytes"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/gnemet/deckdraft/internal/outline"
	"github.com/gnemet/deckdraft/internal/pptx"
	"github.com/gnemet/deckdraft/internal/pptx/pptxtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var aTextPattern = regexp.MustCompile(`<a:t>([^<]*)</a:t>`)

func readPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			content, err := io.ReadAll(rc)
			require.NoError(t, err)
			return string(content)
		}
	}
	t.Fatalf("part %s not found in package", name)
	return ""
}

func partNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func slideTexts(t *testing.T, data []byte, part string) []string {
	t.Helper()
	var texts []string
	for _, m := range aTextPattern.FindAllStringSubmatch(readPart(t, data, part), -1) {
		texts = append(texts, m[1])
	}
	return texts
}

func render(t *testing.T, template []byte, entries []outline.Slide, layoutIndex int) []byte {
	t.Helper()
	deck, err := pptx.Open(template)
	require.NoError(t, err)
	require.NoError(t, deck.AppendSlides(entries, layoutIndex))
	out, err := deck.Bytes()
	require.NoError(t, err)
	return out
}

func TestOpenRejectsNonZipData(t *testing.T) {
	_, err := pptx.Open([]byte("this is not a presentation"))
	assert.ErrorIs(t, err, pptx.ErrNotPresentation)
}

func TestOpenRejectsZipWithoutPresentationPart(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("readme.txt")
	w.Write([]byte("hello"))
	zw.Close()

	_, err := pptx.Open(buf.Bytes())
	assert.ErrorIs(t, err, pptx.ErrNotPresentation)
}

func TestLayoutsFollowMasterOrder(t *testing.T) {
	deck, err := pptx.Open(pptxtest.Template(pptxtest.Options{}))
	require.NoError(t, err)

	layouts, err := deck.Layouts()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ppt/slideLayouts/slideLayout1.xml",
		"ppt/slideLayouts/slideLayout2.xml",
	}, layouts)
}

func TestAppendSlidesAddsOneSlidePerEntry(t *testing.T) {
	out := render(t, pptxtest.Template(pptxtest.Options{}), []outline.Slide{
		{Title: "Overview", Content: []string{"Alpha", "Beta", "Gamma"}},
		{Title: "Details", Content: []string{"Delta"}},
	}, 1)

	names := partNames(t, out)
	assert.Contains(t, names, "ppt/slides/slide1.xml")
	assert.Contains(t, names, "ppt/slides/slide2.xml")
	assert.NotContains(t, names, "ppt/slides/slide3.xml")

	// Both slides wired into the slide id list and relationships.
	pres := readPart(t, out, "ppt/presentation.xml")
	assert.Equal(t, 2, strings.Count(pres, "<p:sldId "))
	rels := readPart(t, out, "ppt/_rels/presentation.xml.rels")
	assert.Equal(t, 2, strings.Count(rels, `Target="slides/slide`))
	types := readPart(t, out, "[Content_Types].xml")
	assert.Contains(t, types, `PartName="/ppt/slides/slide1.xml"`)
	assert.Contains(t, types, `PartName="/ppt/slides/slide2.xml"`)

	// The output must still open as a presentation.
	_, err := pptx.Open(out)
	require.NoError(t, err)
}

func TestAppendSlidesWritesParagraphsInOrder(t *testing.T) {
	out := render(t, pptxtest.Template(pptxtest.Options{}), []outline.Slide{
		{Title: "Overview", Content: []string{"Alpha", "Beta", "Gamma"}},
	}, 1)

	assert.Equal(t, []string{"Overview", "Alpha", "Beta", "Gamma"},
		slideTexts(t, out, "ppt/slides/slide1.xml"))
}

func TestAppendSlidesEmptyContentClearsBody(t *testing.T) {
	out := render(t, pptxtest.Template(pptxtest.Options{}), []outline.Slide{
		{Title: "Lonely", Content: nil},
	}, 1)

	slide := readPart(t, out, "ppt/slides/slide1.xml")
	assert.Equal(t, []string{"Lonely"}, slideTexts(t, out, "ppt/slides/slide1.xml"))
	// Cleared body keeps a single empty paragraph, nothing more.
	assert.Contains(t, slide, "<a:p/>")
	assert.NotContains(t, slide, "Click to edit")
}

func TestAppendSlidesEmptyTitleLeavesPlaceholderBlank(t *testing.T) {
	out := render(t, pptxtest.Template(pptxtest.Options{}), []outline.Slide{
		{Title: "", Content: []string{"Only body"}},
	}, 1)

	assert.Equal(t, []string{"Only body"}, slideTexts(t, out, "ppt/slides/slide1.xml"))
}

func TestAppendSlidesWithoutBodyPlaceholder(t *testing.T) {
	out := render(t, pptxtest.Template(pptxtest.Options{Layout2: pptxtest.LayoutTitleOnly}),
		[]outline.Slide{{Title: "Just a title", Content: []string{"dropped"}}}, 1)

	slide := readPart(t, out, "ppt/slides/slide1.xml")
	assert.Equal(t, 1, strings.Count(slide, "<p:sp>"))
	assert.Equal(t, []string{"Just a title"}, slideTexts(t, out, "ppt/slides/slide1.xml"))
}

func TestAppendSlidesMissingLayoutIndexFailsUpFront(t *testing.T) {
	deck, err := pptx.Open(pptxtest.Template(pptxtest.Options{SingleLayout: true}))
	require.NoError(t, err)

	err = deck.AppendSlides([]outline.Slide{{Title: "x"}}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "layout index 1")

	// Nothing was written before the failure.
	out, err := deck.Bytes()
	require.NoError(t, err)
	assert.NotContains(t, partNames(t, out), "ppt/slides/slide1.xml")
}

func TestAppendSlidesZeroEntriesLeavesTemplateAlone(t *testing.T) {
	template := pptxtest.Template(pptxtest.Options{})
	out := render(t, template, nil, 1)

	assert.ElementsMatch(t, partNames(t, template), partNames(t, out))
	assert.Equal(t,
		readPart(t, template, "ppt/presentation.xml"),
		readPart(t, out, "ppt/presentation.xml"))
}

func TestAppendSlidesPreservesExistingSlides(t *testing.T) {
	template := pptxtest.Template(pptxtest.Options{ExistingSlide: true})
	out := render(t, template, []outline.Slide{
		{Title: "New", Content: []string{"one"}},
	}, 1)

	// The pre-existing slide part survives byte-identical.
	assert.Equal(t,
		readPart(t, template, "ppt/slides/slide1.xml"),
		readPart(t, out, "ppt/slides/slide1.xml"))

	// The new slide is numbered after it and listed after it.
	assert.Contains(t, partNames(t, out), "ppt/slides/slide2.xml")
	pres := readPart(t, out, "ppt/presentation.xml")
	existing := strings.Index(pres, `id="256"`)
	added := strings.Index(pres, `id="257"`)
	require.GreaterOrEqual(t, existing, 0)
	require.GreaterOrEqual(t, added, 0)
	assert.Less(t, existing, added)

	// Fresh relationship id, no collision with rId1/rId2.
	rels := readPart(t, out, "ppt/_rels/presentation.xml.rels")
	assert.Contains(t, rels, `Id="rId3"`)
}

func TestAppendSlidesEscapesText(t *testing.T) {
	out := render(t, pptxtest.Template(pptxtest.Options{}), []outline.Slide{
		{Title: "Q&A", Content: []string{"a < b", `"quoted"`}},
	}, 1)

	slide := readPart(t, out, "ppt/slides/slide1.xml")
	assert.Contains(t, slide, "Q&amp;A")
	assert.Contains(t, slide, "a &lt; b")
	assert.NotContains(t, slide, "a < b")

	// Still a readable package.
	_, err := pptx.Open(out)
	require.NoError(t, err)
}
