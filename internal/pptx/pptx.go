// Package pptx appends generated slides to a PowerPoint template by
// editing the OPC package directly: the template is read as a zip archive,
// slide parts are built from the chosen layout's placeholder shapes, and
// the wiring parts (content types, relationships, slide id list) are
// patched in place.
package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
)

const (
	presentationPart = "ppt/presentation.xml"
	contentTypesPart = "[Content_Types].xml"

	relNS = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	slideContentType   = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	slideRelType       = relNS + "/slide"
	slideLayoutRelType = relNS + "/slideLayout"
)

// ErrNotPresentation means the uploaded bytes are not a usable
// .pptx/.potx package.
var ErrNotPresentation = errors.New("file is not a valid presentation package")

// Deck is an opened presentation package. Parts are held in memory in
// their original order so untouched parts round-trip byte-identical.
type Deck struct {
	parts map[string][]byte
	order []string
}

// Open reads a presentation package from memory. Nothing is written to
// disk at any point.
func Open(data []byte) (*Deck, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPresentation, err)
	}

	d := &Deck{parts: make(map[string][]byte)}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open part %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read part %s: %w", f.Name, err)
		}
		d.parts[f.Name] = content
		d.order = append(d.order, f.Name)
	}

	if _, ok := d.parts[presentationPart]; !ok {
		return nil, ErrNotPresentation
	}
	if _, ok := d.parts[contentTypesPart]; !ok {
		return nil, ErrNotPresentation
	}
	return d, nil
}

// Bytes serializes the package back into an in-memory buffer.
func (d *Deck) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range d.order {
		w, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(d.parts[name]); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Deck) setPart(name string, content []byte) {
	if _, ok := d.parts[name]; !ok {
		d.order = append(d.order, name)
	}
	d.parts[name] = content
}

type relationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type relationships struct {
	XMLName xml.Name       `xml:"Relationships"`
	Rels    []relationship `xml:"Relationship"`
}

// relsPartFor maps a part name to its relationships part, e.g.
// ppt/presentation.xml -> ppt/_rels/presentation.xml.rels
func relsPartFor(part string) string {
	return path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
}

func (d *Deck) relsFor(part string) (relationships, error) {
	var rels relationships
	content, ok := d.parts[relsPartFor(part)]
	if !ok {
		return rels, fmt.Errorf("missing relationships for %s", part)
	}
	if err := xml.Unmarshal(content, &rels); err != nil {
		return rels, fmt.Errorf("malformed relationships for %s: %w", part, err)
	}
	return rels, nil
}

// resolveTarget turns a relationship target into a package part name.
// Targets are relative to the source part's directory unless rooted.
func resolveTarget(fromPart, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Clean(path.Join(path.Dir(fromPart), target))
}

// relIDAttr returns the value of the r:id attribute, skipping the plain
// numeric id attribute that shares the local name.
func relIDAttr(el xml.StartElement) string {
	for _, a := range el.Attr {
		if a.Name.Local == "id" && a.Name.Space == relNS {
			return a.Value
		}
	}
	return ""
}

// orderedRelIDs scans partXML for elements named elName and collects their
// r:id values in document order.
func orderedRelIDs(partXML []byte, elName string) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(partXML))
	var ids []string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if el, ok := tok.(xml.StartElement); ok && el.Name.Local == elName {
			if id := relIDAttr(el); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// Layouts returns the layout part names of the first slide master, in the
// order the master declares them. This mirrors positional layout lookup:
// index 1 is the second layout of the first master.
func (d *Deck) Layouts() ([]string, error) {
	masterIDs, err := orderedRelIDs(d.parts[presentationPart], "sldMasterId")
	if err != nil {
		return nil, fmt.Errorf("malformed presentation part: %w", err)
	}
	if len(masterIDs) == 0 {
		return nil, fmt.Errorf("presentation declares no slide master")
	}

	presRels, err := d.relsFor(presentationPart)
	if err != nil {
		return nil, err
	}
	var masterPart string
	for _, rel := range presRels.Rels {
		if rel.ID == masterIDs[0] {
			masterPart = resolveTarget(presentationPart, rel.Target)
			break
		}
	}
	if masterPart == "" {
		return nil, fmt.Errorf("slide master relationship %s not found", masterIDs[0])
	}

	masterXML, ok := d.parts[masterPart]
	if !ok {
		return nil, fmt.Errorf("slide master part %s is missing", masterPart)
	}
	layoutIDs, err := orderedRelIDs(masterXML, "sldLayoutId")
	if err != nil {
		return nil, fmt.Errorf("malformed slide master: %w", err)
	}

	masterRels, err := d.relsFor(masterPart)
	if err != nil {
		return nil, err
	}
	targets := make(map[string]string, len(masterRels.Rels))
	for _, rel := range masterRels.Rels {
		targets[rel.ID] = resolveTarget(masterPart, rel.Target)
	}

	layouts := make([]string, 0, len(layoutIDs))
	for _, id := range layoutIDs {
		target, ok := targets[id]
		if !ok {
			return nil, fmt.Errorf("slide layout relationship %s not found", id)
		}
		layouts = append(layouts, target)
	}
	return layouts, nil
}

// layoutAt validates layout availability up front instead of failing
// halfway through slide creation.
func (d *Deck) layoutAt(index int) (string, error) {
	layouts, err := d.Layouts()
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(layouts) {
		return "", fmt.Errorf("template defines %d slide layout(s), layout index %d is unavailable", len(layouts), index)
	}
	return layouts[index], nil
}

var (
	spPattern     = regexp.MustCompile(`(?s)<p:sp>.*?</p:sp>`)
	phPattern     = regexp.MustCompile(`<p:ph\b[^>]*>`)
	phTypePattern = regexp.MustCompile(`\btype="([^"]*)"`)
	phIdxPattern  = regexp.MustCompile(`\bidx="([^"]*)"`)
)

// layoutPlaceholders holds the raw shape XML of the placeholders a new
// slide is cloned from. Either may be empty when the layout lacks it.
type layoutPlaceholders struct {
	title string
	body  string
}

// findPlaceholders inspects a layout's shapes. The title placeholder is
// recognized by its ph type; the body placeholder strictly by ph idx 1,
// the same positional identity the rest of the pipeline assumes.
func findPlaceholders(layoutXML []byte) layoutPlaceholders {
	var found layoutPlaceholders
	for _, sp := range spPattern.FindAllString(string(layoutXML), -1) {
		ph := phPattern.FindString(sp)
		if ph == "" {
			continue
		}

		phType := ""
		if m := phTypePattern.FindStringSubmatch(ph); m != nil {
			phType = m[1]
		}
		phIdx := ""
		if m := phIdxPattern.FindStringSubmatch(ph); m != nil {
			phIdx = m[1]
		}

		switch {
		case (phType == "title" || phType == "ctrTitle") && found.title == "":
			found.title = sp
		case phIdx == "1" && found.body == "":
			found.body = sp
		}
	}
	return found
}
