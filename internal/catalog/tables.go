package catalog

import (
	"fmt"

	"github.com/bayduroff/tableService/internal/document"
)

// DefaultRootTag names the element whose children are the collections.
const DefaultRootTag = "shop"

// MissingRootError reports that the document has no collection root element.
type MissingRootError struct {
	Tag  string
	Root string // name of the document root that was searched
}

func (e *MissingRootError) Error() string {
	return fmt.Sprintf("catalog: element <%s> not found under <%s>", e.Tag, e.Root)
}

// FindRoot returns doc itself when it is named tag, otherwise its first
// direct child named tag.
func FindRoot(doc document.Node, tag string) (document.Node, error) {
	if tag == "" {
		tag = DefaultRootTag
	}
	if doc == nil {
		return nil, &MissingRootError{Tag: tag}
	}
	if doc.Name() == tag {
		return doc, nil
	}
	for _, c := range doc.Children() {
		if c.Name() == tag {
			return c, nil
		}
	}
	return nil, &MissingRootError{Tag: tag, Root: doc.Name()}
}

// BuildTables flattens every item of every non-empty collection under the
// root element. Tables come back in document order. Collections sharing a
// name are merged into the first one.
func BuildTables(doc document.Node, rootTag string) ([]Table, error) {
	root, err := FindRoot(doc, rootTag)
	if err != nil {
		return nil, err
	}

	var tables []Table
	index := make(map[string]int)

	for _, coll := range root.Children() {
		items := coll.Children()
		if len(items) == 0 {
			continue
		}

		i, ok := index[coll.Name()]
		if !ok {
			i = len(tables)
			index[coll.Name()] = i
			tables = append(tables, Table{Name: coll.Name(), Records: make([]*Record, 0, len(items))})
		}
		for _, item := range items {
			tables[i].Records = append(tables[i].Records, Flatten(item))
		}
	}
	return tables, nil
}
