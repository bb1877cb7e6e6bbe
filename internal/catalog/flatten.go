package catalog

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/bayduroff/tableService/internal/document"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	attrPrefix   = "@"
	paramElement = "param"
	paramNameKey = "name"
)

// Flatten converts one collection item into a Record, looking exactly one
// level deep:
//
//   - attributes are stored as "@name";
//   - attribute-shaped children are folded in the same way;
//   - <param name="k">v</param> children are gathered into a JSON object
//     stored under params_json (blank names are dropped, a repeated name keeps
//     its first position and its last value);
//   - other childless children store their trimmed, non-empty text under
//     their element name;
//   - children that have children of their own are skipped;
//   - the item's own trimmed direct text is stored under _text.
//
// Except for params_json, a key that is already present is never overwritten.
func Flatten(n document.Node) *Record {
	rec := NewRecord()

	for _, a := range n.Attributes() {
		rec.PutIfAbsent(attrPrefix+a.Name, a.Value)
	}

	var params *orderedmap.OrderedMap[string, string]

	for _, child := range n.Children() {
		if an, ok := child.(document.AttributeNode); ok {
			rec.PutIfAbsent(attrPrefix+an.Name(), an.AttributeValue())
			continue
		}

		if child.Name() == paramElement {
			name, _ := document.Attribute(child, paramNameKey)
			if strings.TrimSpace(name) == "" {
				continue
			}
			if params == nil {
				params = orderedmap.New[string, string]()
			}
			params.Set(name, child.Text())
			continue
		}

		if len(child.Children()) > 0 {
			continue
		}
		if text := strings.TrimSpace(child.Text()); text != "" {
			rec.PutIfAbsent(child.Name(), text)
		}
	}

	if params != nil && params.Len() > 0 {
		if js, err := marshalParams(params); err == nil {
			rec.Set(ParamsKey, js)
		}
	}

	if text := strings.TrimSpace(n.Text()); text != "" {
		rec.PutIfAbsent(TextKey, text)
	}
	return rec
}

// marshalParams renders params as a compact JSON object in insertion order.
// Unlike json.Marshal it leaves <, > and & as they are.
func marshalParams(params *orderedmap.OrderedMap[string, string]) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	// Encode terminates every value with a newline.
	encode := func(v string) error {
		if err := enc.Encode(v); err != nil {
			return err
		}
		buf.Truncate(buf.Len() - 1)
		return nil
	}

	buf.WriteByte('{')
	for p := params.Oldest(); p != nil; p = p.Next() {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		if err := encode(p.Key); err != nil {
			return "", err
		}
		buf.WriteByte(':')
		if err := encode(p.Value); err != nil {
			return "", err
		}
	}
	buf.WriteByte('}')
	return buf.String(), nil
}
