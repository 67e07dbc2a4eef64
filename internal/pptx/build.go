package pptx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gnemet/deckdraft/internal/outline"
)

const pkgRelNS = "http://schemas.openxmlformats.org/package/2006/relationships"

// Slide ids in sldIdLst must be 256 or greater.
const minSlideID = 256

var (
	txBodyPattern    = regexp.MustCompile(`(?s)<p:txBody>.*?</p:txBody>`)
	slidePartPattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
	relIDNumPattern  = regexp.MustCompile(`\bId="rId(\d+)"`)
	sldIDTagPattern  = regexp.MustCompile(`<p:sldId\b[^>]*>`)
	sldIDNumPattern  = regexp.MustCompile(`\sid="(\d+)"`)
)

// AppendSlides adds one slide per outline entry after the template's
// existing slides. Each new slide clones the title and body placeholder
// shapes of the layout at layoutIndex and replaces their text bodies:
// the title gets the entry title, the body gets one paragraph per content
// string. A layout without a body placeholder at idx 1 yields slides that
// carry only a title.
func (d *Deck) AppendSlides(entries []outline.Slide, layoutIndex int) error {
	layoutPart, err := d.layoutAt(layoutIndex)
	if err != nil {
		return err
	}
	layoutXML, ok := d.parts[layoutPart]
	if !ok {
		return fmt.Errorf("slide layout part %s is missing", layoutPart)
	}
	placeholders := findPlaceholders(layoutXML)

	if len(entries) == 0 {
		return nil
	}

	slideNum := d.maxSlideNumber()
	relNum := d.maxRelIDNumber()
	slideID := d.maxSlideID()

	layoutTarget := "../" + strings.TrimPrefix(layoutPart, "ppt/")

	var sldIDEntries, relEntries, typeEntries bytes.Buffer
	for _, entry := range entries {
		slideNum++
		relNum++
		slideID++

		var shapes []string
		if placeholders.title != "" {
			var titleParas []string
			if entry.Title != "" {
				titleParas = []string{entry.Title}
			}
			shapes = append(shapes, withTextBody(placeholders.title, titleParas))
		}
		if placeholders.body != "" {
			shapes = append(shapes, withTextBody(placeholders.body, entry.Content))
		}

		partName := fmt.Sprintf("ppt/slides/slide%d.xml", slideNum)
		d.setPart(partName, slidePartXML(shapes))
		d.setPart(relsPartFor(partName), slideRelsXML(layoutTarget))

		fmt.Fprintf(&sldIDEntries, `<p:sldId id="%d" r:id="rId%d"/>`, slideID, relNum)
		fmt.Fprintf(&relEntries, `<Relationship Id="rId%d" Type="%s" Target="slides/slide%d.xml"/>`, relNum, slideRelType, slideNum)
		fmt.Fprintf(&typeEntries, `<Override PartName="/%s" ContentType="%s"/>`, partName, slideContentType)
	}

	if err := d.appendToSlideIDList(sldIDEntries.String()); err != nil {
		return err
	}
	if err := d.appendBefore(relsPartFor(presentationPart), "</Relationships>", relEntries.String()); err != nil {
		return err
	}
	return d.appendBefore(contentTypesPart, "</Types>", typeEntries.String())
}

func (d *Deck) maxSlideNumber() int {
	max := 0
	for name := range d.parts {
		if m := slidePartPattern.FindStringSubmatch(name); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > max {
				max = n
			}
		}
	}
	return max
}

func (d *Deck) maxRelIDNumber() int {
	max := 0
	for _, m := range relIDNumPattern.FindAllSubmatch(d.parts[relsPartFor(presentationPart)], -1) {
		if n, err := strconv.Atoi(string(m[1])); err == nil && n > max {
			max = n
		}
	}
	return max
}

func (d *Deck) maxSlideID() int {
	max := minSlideID - 1
	for _, tag := range sldIDTagPattern.FindAll(d.parts[presentationPart], -1) {
		if m := sldIDNumPattern.FindSubmatch(tag); m != nil {
			if n, err := strconv.Atoi(string(m[1])); err == nil && n > max {
				max = n
			}
		}
	}
	return max
}

// appendToSlideIDList splices new sldId entries into the presentation
// part. Templates saved without slides may carry an empty or missing
// sldIdLst, so all three shapes are handled.
func (d *Deck) appendToSlideIDList(entries string) error {
	presXML := string(d.parts[presentationPart])

	switch {
	case strings.Contains(presXML, "</p:sldIdLst>"):
		presXML = strings.Replace(presXML, "</p:sldIdLst>", entries+"</p:sldIdLst>", 1)
	case strings.Contains(presXML, "<p:sldIdLst/>"):
		presXML = strings.Replace(presXML, "<p:sldIdLst/>", "<p:sldIdLst>"+entries+"</p:sldIdLst>", 1)
	case strings.Contains(presXML, "</p:sldMasterIdLst>"):
		presXML = strings.Replace(presXML, "</p:sldMasterIdLst>", "</p:sldMasterIdLst><p:sldIdLst>"+entries+"</p:sldIdLst>", 1)
	default:
		return fmt.Errorf("presentation part has no slide master list: %w", ErrNotPresentation)
	}

	d.parts[presentationPart] = []byte(presXML)
	return nil
}

func (d *Deck) appendBefore(part, closeTag, entries string) error {
	content, ok := d.parts[part]
	if !ok {
		return fmt.Errorf("part %s is missing", part)
	}
	idx := bytes.LastIndex(content, []byte(closeTag))
	if idx < 0 {
		return fmt.Errorf("part %s has no %s close tag", part, closeTag)
	}

	var out bytes.Buffer
	out.Write(content[:idx])
	out.WriteString(entries)
	out.Write(content[idx:])
	d.parts[part] = out.Bytes()
	return nil
}

// withTextBody clones a placeholder shape with its text body replaced by
// the given paragraphs. An empty list clears the body down to a single
// empty paragraph, matching what clearing a text frame leaves behind.
func withTextBody(sp string, paragraphs []string) string {
	var body strings.Builder
	body.WriteString("<p:txBody><a:bodyPr/><a:lstStyle/>")
	if len(paragraphs) == 0 {
		body.WriteString("<a:p/>")
	}
	for _, text := range paragraphs {
		body.WriteString("<a:p><a:r><a:t>")
		body.WriteString(escapeXML(text))
		body.WriteString("</a:t></a:r></a:p>")
	}
	body.WriteString("</p:txBody>")

	loc := txBodyPattern.FindStringIndex(sp)
	if loc == nil {
		// Layout shape without a text body: insert one.
		return strings.Replace(sp, "</p:sp>", body.String()+"</p:sp>", 1)
	}
	return sp[:loc[0]] + body.String() + sp[loc[1]:]
}

func slidePartXML(shapes []string) []byte {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.WriteString(`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="` + relNS + `" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">`)
	b.WriteString(`<p:cSld><p:spTree>`)
	b.WriteString(`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>`)
	b.WriteString(`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`)
	for _, sp := range shapes {
		b.WriteString(sp)
	}
	b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return b.Bytes()
}

func slideRelsXML(layoutTarget string) []byte {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.WriteString(`<Relationships xmlns="` + pkgRelNS + `">`)
	fmt.Fprintf(&b, `<Relationship Id="rId1" Type="%s" Target="%s"/>`, slideLayoutRelType, layoutTarget)
	b.WriteString(`</Relationships>`)
	return b.Bytes()
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
