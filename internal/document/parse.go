package document

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Parse reads a whole XML document from r and returns its root element.
//
// The decoder runs with Strict=false and the HTML entity table so that the
// loose markup common in vendor feeds (&nbsp;, unescaped ampersands) does
// not abort the parse. DOCTYPE declarations are skipped; external entities
// and DTDs are never loaded. Non UTF-8 encodings declared in the prolog
// (windows-1251 is the usual one) are decoded through golang.org/x/text.
func Parse(r io.Reader) (*Element, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charsetReader

	var (
		root  *Element
		stack []*Element
		text  [][]byte
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("document: parse: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Local: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				el.Attrs = append(el.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			if n := len(stack); n > 0 {
				parent := stack[n-1]
				parent.Kids = append(parent.Kids, el)
			} else if root == nil {
				root = el
			} else {
				return nil, fmt.Errorf("document: parse: multiple root elements (%q after %q)", el.Local, root.Local)
			}
			stack = append(stack, el)
			text = append(text, nil)

		case xml.EndElement:
			n := len(stack)
			if n == 0 {
				return nil, fmt.Errorf("document: parse: unexpected end element %q", t.Name.Local)
			}
			stack[n-1].CharData = string(text[n-1])
			stack = stack[:n-1]
			text = text[:n-1]

		case xml.CharData:
			if n := len(text); n > 0 {
				text[n-1] = append(text[n-1], t...)
			}
		}
	}

	if root == nil {
		return nil, errors.New("document: parse: no root element")
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("document: parse: unclosed element %q", stack[len(stack)-1].Local)
	}
	return root, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("document: unsupported charset %q: %w", label, err)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}
