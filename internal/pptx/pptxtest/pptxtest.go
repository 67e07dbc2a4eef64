// Package pptxtest builds minimal in-memory .pptx packages for tests:
// one slide master with two layouts, the second carrying a title
// placeholder and a body placeholder at idx 1.
package pptxtest

import (
	"archive/zip"
	"bytes"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const nsDecl = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`

// LayoutTitleBody is a layout with a title placeholder and a body
// placeholder at idx 1, both holding prompt text.
const LayoutTitleBody = xmlHeader +
	`<p:sldLayout ` + nsDecl + `><p:cSld><p:spTree>` +
	`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>` +
	`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Title 1"/><p:cNvSpPr/><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr><p:spPr/>` +
	`<p:txBody><a:bodyPr/><a:lstStyle/><a:p><a:r><a:t>Click to edit Master title style</a:t></a:r></a:p></p:txBody></p:sp>` +
	`<p:sp><p:nvSpPr><p:cNvPr id="3" name="Content Placeholder 2"/><p:cNvSpPr/><p:nvPr><p:ph type="body" idx="1"/></p:nvPr></p:nvSpPr><p:spPr/>` +
	`<p:txBody><a:bodyPr/><a:lstStyle/><a:p><a:r><a:t>Click to edit Master text styles</a:t></a:r></a:p></p:txBody></p:sp>` +
	`</p:spTree></p:cSld></p:sldLayout>`

// LayoutTitleOnly lacks the body placeholder.
const LayoutTitleOnly = xmlHeader +
	`<p:sldLayout ` + nsDecl + `><p:cSld><p:spTree>` +
	`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>` +
	`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Title 1"/><p:cNvSpPr/><p:nvPr><p:ph type="ctrTitle"/></p:nvPr></p:nvSpPr><p:spPr/>` +
	`<p:txBody><a:bodyPr/><a:lstStyle/><a:p><a:r><a:t>Click to edit Master title style</a:t></a:r></a:p></p:txBody></p:sp>` +
	`</p:spTree></p:cSld></p:sldLayout>`

// ExistingSlideXML is the pre-existing slide included when
// Options.ExistingSlide is set.
const ExistingSlideXML = xmlHeader +
	`<p:sld ` + nsDecl + `><p:cSld><p:spTree>` +
	`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>` +
	`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Title 1"/><p:cNvSpPr/><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr><p:spPr/>` +
	`<p:txBody><a:bodyPr/><a:lstStyle/><a:p><a:r><a:t>Existing</a:t></a:r></a:p></p:txBody></p:sp>` +
	`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`

type Options struct {
	// Layout2 replaces the second layout's XML. Defaults to LayoutTitleBody.
	Layout2 string
	// SingleLayout drops the second layout entirely.
	SingleLayout bool
	// ExistingSlide includes one slide already wired into the package.
	ExistingSlide bool
}

// Template assembles a .pptx package per the options.
func Template(opts Options) []byte {
	layout2 := opts.Layout2
	if layout2 == "" {
		layout2 = LayoutTitleBody
	}

	layoutIDList := `<p:sldLayoutId id="2147483649" r:id="rId1"/>`
	masterRels := `<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>`
	layoutTypes := `<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`
	if !opts.SingleLayout {
		layoutIDList += `<p:sldLayoutId id="2147483650" r:id="rId2"/>`
		masterRels += `<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout2.xml"/>`
		layoutTypes += `<Override PartName="/ppt/slideLayouts/slideLayout2.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`
	}

	sldIDList := `<p:sldIdLst/>`
	presRels := `<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>`
	slideTypes := ""
	if opts.ExistingSlide {
		sldIDList = `<p:sldIdLst><p:sldId id="256" r:id="rId2"/></p:sldIdLst>`
		presRels += `<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide1.xml"/>`
		slideTypes = `<Override PartName="/ppt/slides/slide1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`
	}

	parts := []struct{ name, content string }{
		{"[Content_Types].xml", xmlHeader +
			`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
			`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
			`<Default Extension="xml" ContentType="application/xml"/>` +
			`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>` +
			`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>` +
			layoutTypes + slideTypes +
			`</Types>`},
		{"_rels/.rels", xmlHeader +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/>` +
			`</Relationships>`},
		{"ppt/presentation.xml", xmlHeader +
			`<p:presentation ` + nsDecl + `>` +
			`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>` +
			sldIDList +
			`<p:sldSz cx="9144000" cy="6858000"/>` +
			`</p:presentation>`},
		{"ppt/_rels/presentation.xml.rels", xmlHeader +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			presRels +
			`</Relationships>`},
		{"ppt/slideMasters/slideMaster1.xml", xmlHeader +
			`<p:sldMaster ` + nsDecl + `>` +
			`<p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld>` +
			`<p:sldLayoutIdLst>` + layoutIDList + `</p:sldLayoutIdLst>` +
			`</p:sldMaster>`},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", xmlHeader +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			masterRels +
			`</Relationships>`},
		{"ppt/slideLayouts/slideLayout1.xml", LayoutTitleOnly},
	}
	if !opts.SingleLayout {
		parts = append(parts, struct{ name, content string }{"ppt/slideLayouts/slideLayout2.xml", layout2})
	}
	if opts.ExistingSlide {
		parts = append(parts,
			struct{ name, content string }{"ppt/slides/slide1.xml", ExistingSlideXML},
			struct{ name, content string }{"ppt/slides/_rels/slide1.xml.rels", xmlHeader +
				`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
				`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>` +
				`</Relationships>`})
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		w, _ := zw.Create(p.name)
		w.Write([]byte(p.content))
	}
	zw.Close()
	return buf.Bytes()
}
