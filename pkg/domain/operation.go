package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Verb is the kind of data operation requested.
type Verb string

const (
	VerbRead    Verb = "Read"
	VerbReadOne Verb = "ReadOne"
	VerbWrite   Verb = "Write"
	VerbUpdate  Verb = "Update"
	VerbDelete  Verb = "Delete"
)

// Category groups verbs for strategy selection.
type Category string

const (
	CategoryRead  Category = "read"
	CategoryWrite Category = "write"
)

// Category returns the policy category for the verb.
func (v Verb) Category() Category {
	if v == VerbRead || v == VerbReadOne {
		return CategoryRead
	}
	return CategoryWrite
}

// IsWrite reports whether the verb mutates the store.
func (v Verb) IsWrite() bool {
	return v.Category() == CategoryWrite
}

// Operation is the descriptor of one requested data operation. All fields are
// unexported and every accessor returns a copy, so a descriptor can be handed to
// several strategies in turn without any of them altering what the next one sees.
type Operation struct {
	collection string
	verb       Verb
	id         string
	query      Query
	payload    Document
	exclusive  string
}

// NewRead describes a read of every document in collection matching q.
func NewRead(collection string, q Query) Operation {
	return Operation{collection: collection, verb: VerbRead, query: copyQuery(q)}
}

// NewReadOne describes a read of a single document by identity.
func NewReadOne(collection, id string) Operation {
	return Operation{collection: collection, verb: VerbReadOne, id: id}
}

// NewWrite describes the creation of a document. The identity is fixed here,
// before any strategy runs, and stamped into the payload.
func NewWrite(collection, id string, payload Document) Operation {
	doc := payload.Clone()
	if doc == nil {
		doc = Document{}
	}
	if id != "" {
		doc[IDField] = id
	}
	return Operation{collection: collection, verb: VerbWrite, id: id, payload: doc}
}

// NewUpdate describes a partial update of the document with the given identity.
func NewUpdate(collection, id string, changes Document) Operation {
	return Operation{collection: collection, verb: VerbUpdate, id: id, payload: changes.Clone()}
}

// NewDelete describes the removal of the document with the given identity.
func NewDelete(collection, id string) Operation {
	return Operation{collection: collection, verb: VerbDelete, id: id}
}

// WithExclusive returns a copy of the operation that keeps field true on at most
// one document of the collection.
func (op Operation) WithExclusive(field string) Operation {
	op.exclusive = field
	return op
}

func (op Operation) Collection() string { return op.collection }
func (op Operation) Verb() Verb         { return op.verb }
func (op Operation) ID() string         { return op.id }
func (op Operation) Exclusive() string  { return op.exclusive }
func (op Operation) Category() Category { return op.verb.Category() }

// Query returns a copy of the read query.
func (op Operation) Query() Query {
	return copyQuery(op.query)
}

// Payload returns a copy of the write payload.
func (op Operation) Payload() Document {
	return op.payload.Clone()
}

// Validate checks the descriptor shape. Failures are ValidationErrors and are
// never retried.
func (op Operation) Validate() error {
	if strings.TrimSpace(op.collection) == "" {
		return Errorf(KindValidation, "validate", "collection is required")
	}
	switch op.verb {
	case VerbRead:
		if op.query.Limit < 0 {
			return Errorf(KindValidation, "validate", "limit cannot be negative")
		}
	case VerbReadOne, VerbDelete:
		if op.id == "" {
			return Errorf(KindValidation, "validate", "%s requires a document id", op.verb)
		}
	case VerbWrite:
		if op.id == "" {
			return Errorf(KindValidation, "validate", "write requires an identity")
		}
		if len(op.payload) <= 1 {
			return Errorf(KindValidation, "validate", "write payload is empty")
		}
	case VerbUpdate:
		if op.id == "" {
			return Errorf(KindValidation, "validate", "update requires a document id")
		}
		if len(op.payload) == 0 {
			return Errorf(KindValidation, "validate", "update payload is empty")
		}
	default:
		return Errorf(KindValidation, "validate", "unknown verb %q", op.verb)
	}
	return nil
}

// Key identifies the logical operation. Two descriptors with the same key are
// the same write as far as the pending-write log is concerned.
func (op Operation) Key() string {
	sum := ""
	if len(op.payload) > 0 {
		raw, err := json.Marshal(op.payload)
		if err == nil {
			h := sha256.Sum256(raw)
			sum = hex.EncodeToString(h[:8])
		}
	}
	return fmt.Sprintf("%s:%s:%s:%s", op.verb, op.collection, op.id, sum)
}

func (op Operation) String() string {
	if op.id != "" {
		return fmt.Sprintf("%s %s/%s", op.verb, op.collection, op.id)
	}
	return fmt.Sprintf("%s %s", op.verb, op.collection)
}

type operationJSON struct {
	Collection string   `json:"collection"`
	Verb       Verb     `json:"verb"`
	ID         string   `json:"id,omitempty"`
	Query      *Query   `json:"query,omitempty"`
	Payload    Document `json:"payload,omitempty"`
	Exclusive  string   `json:"exclusive,omitempty"`
}

// MarshalJSON encodes the descriptor for the pending-write log.
func (op Operation) MarshalJSON() ([]byte, error) {
	wire := operationJSON{
		Collection: op.collection,
		Verb:       op.verb,
		ID:         op.id,
		Payload:    op.payload,
		Exclusive:  op.exclusive,
	}
	if op.verb == VerbRead {
		q := op.query
		wire.Query = &q
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes a descriptor written by MarshalJSON.
func (op *Operation) UnmarshalJSON(data []byte) error {
	var wire operationJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("failed to decode operation: %w", err)
	}
	*op = Operation{
		collection: wire.Collection,
		verb:       wire.Verb,
		id:         wire.ID,
		payload:    wire.Payload,
		exclusive:  wire.Exclusive,
	}
	if wire.Query != nil {
		op.query = copyQuery(*wire.Query)
	}
	return nil
}

func copyQuery(q Query) Query {
	out := Query{Limit: q.Limit}
	if q.Filter != nil {
		out.Filter = make(map[string]interface{}, len(q.Filter))
		for k, v := range q.Filter {
			out.Filter[k] = v
		}
	}
	if q.Sort != nil {
		out.Sort = append([]SortKey(nil), q.Sort...)
	}
	return out
}
