package parser

import (
	"encoding/xml"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// docComment collects the /// lines directly above node and parses them as
// XML documentation. Malformed XML keeps Raw but drops Summary and Params.
func docComment(unit *Unit, node *sitter.Node) *DocComment {
	var lines []string
	for prev := node.PrevSibling(); prev != nil && prev.Kind() == "comment"; prev = prev.PrevSibling() {
		text := strings.TrimSpace(unit.Text(prev))
		if !strings.HasPrefix(text, "///") {
			break
		}
		lines = append(lines, strings.TrimPrefix(strings.TrimPrefix(text, "///"), " "))
	}
	if len(lines) == 0 {
		return nil
	}
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	doc := &DocComment{Raw: strings.Join(lines, "\n")}
	parseDocXML(doc)
	return doc
}

type docXML struct {
	Summary xmlText    `xml:"summary"`
	Params  []docParam `xml:"param"`
}

type docParam struct {
	Name string `xml:"name,attr"`
	xmlText
}

// xmlText gathers character data from an element and all of its children,
// so <see cref="X"/> and <c>code</c> contribute their text.
type xmlText struct {
	Text string
}

func (t *xmlText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			depth++
			for _, attr := range tok.Attr {
				if attr.Name.Local == "cref" || attr.Name.Local == "langword" {
					b.WriteString(attr.Value)
				}
			}
		case xml.EndElement:
			depth--
		case xml.CharData:
			b.Write(tok)
		}
	}
	t.Text = normalizeSpace(b.String())
	return nil
}

func (p *docParam) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		if attr.Name.Local == "name" {
			p.Name = attr.Value
		}
	}
	return p.xmlText.UnmarshalXML(d, start)
}

func parseDocXML(doc *DocComment) {
	var parsed docXML
	if err := xml.Unmarshal([]byte("<doc>"+doc.Raw+"</doc>"), &parsed); err != nil {
		return
	}
	doc.Summary = parsed.Summary.Text
	for _, p := range parsed.Params {
		if p.Name == "" {
			continue
		}
		if doc.Params == nil {
			doc.Params = make(map[string]string)
		}
		if _, exists := doc.Params[p.Name]; !exists {
			doc.Params[p.Name] = p.Text
		}
	}
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
