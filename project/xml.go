package project

import (
	"encoding/xml"
	"strings"
)

// element is a namespace-agnostic view of an XML element. Names are compared by
// local name only, so MSBuild files with and without the 2003 xmlns decode alike.
type element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []element  `xml:",any"`
	Text     string     `xml:",chardata"`
}

// attr returns the value of the attribute with the given local name, ignoring case
func (e *element) attr(name string) string {
	for _, a := range e.Attrs {
		if strings.EqualFold(a.Name.Local, name) {
			return a.Value
		}
	}
	return ""
}

// is reports whether the element's local name matches, ignoring case
func (e *element) is(name string) bool {
	return strings.EqualFold(e.XMLName.Local, name)
}

// text returns the trimmed character data
func (e *element) text() string {
	return strings.TrimSpace(e.Text)
}

// childText returns the text of the first child with the given local name
func (e *element) childText(name string) string {
	for i := range e.Children {
		if e.Children[i].is(name) {
			return e.Children[i].text()
		}
	}
	return ""
}

// newElement builds an element for output; attrs are name/value pairs and empty
// values are skipped.
func newElement(name string, attrs ...string) element {
	el := element{XMLName: xml.Name{Local: name}}
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i+1] == "" {
			continue
		}
		el.Attrs = append(el.Attrs, xml.Attr{Name: xml.Name{Local: attrs[i]}, Value: attrs[i+1]})
	}
	return el
}

// textElement builds <name>value</name>
func textElement(name, value string) element {
	return element{XMLName: xml.Name{Local: name}, Text: value}
}
