package domain

import (
	"fmt"
)

// IDField is the identity field every stored document carries.
const IDField = "_id"

// Document represents a document in a collection. The data-access layer treats
// documents as opaque mappings with a required identity field.
type Document map[string]interface{}

// ID returns the document identity. Documents coming from older clients may use
// "id" instead of "_id"; both are accepted.
func (d Document) ID() string {
	for _, key := range []string{IDField, "id"} {
		if v, ok := d[key]; ok && v != nil {
			switch id := v.(type) {
			case string:
				return id
			case float64:
				return fmt.Sprintf("%.0f", id)
			case int:
				return fmt.Sprintf("%d", id)
			case int64:
				return fmt.Sprintf("%d", id)
			default:
				return fmt.Sprintf("%v", id)
			}
		}
	}
	return ""
}

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Merge returns a copy of d with changes applied. The identity field is never
// overwritten.
func (d Document) Merge(changes Document) Document {
	out := d.Clone()
	if out == nil {
		out = Document{}
	}
	for k, v := range changes {
		if k == IDField {
			continue
		}
		out[k] = v
	}
	return out
}

// CloneAll copies a slice of documents so callers can't mutate store state.
func CloneAll(docs []Document) []Document {
	out := make([]Document, len(docs))
	for i, doc := range docs {
		out[i] = doc.Clone()
	}
	return out
}
