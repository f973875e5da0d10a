// Package normalize converts strategy results into the canonical envelope.
//
// Strategies may hand back any of a closed set of shapes:
//
//	[]domain.Document, []map[string]interface{}, []interface{}   bare sequence
//	{"data": [...]}                                               data wrapper
//	{"success": .., "count": .., "data": ..}                      full wrapper
//	domain.Document / map[string]interface{}                      single document
//	[]byte / json.RawMessage                                      raw JSON of the above
//	nil                                                           no result
//
// Anything else is reported as an UnexpectedResult error, which the executor
// treats as a failed attempt.
package normalize

import (
	"encoding/json"
	"fmt"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
)

var wrapperKeys = map[string]bool{
	"success": true,
	"count":   true,
	"data":    true,
	"message": true,
	"source":  true,
	"error":   true,
}

// Envelope normalizes raw into the canonical envelope for verb. Count is always
// recomputed from the normalized data.
func Envelope(verb domain.Verb, raw interface{}, source string) (domain.Envelope, error) {
	if verb == domain.VerbRead {
		docs, err := Sequence(raw)
		if err != nil {
			return domain.Envelope{}, err
		}
		return domain.Envelope{Success: true, Count: len(docs), Data: docs, Source: source}, nil
	}

	doc, err := Single(raw)
	if err != nil {
		return domain.Envelope{}, err
	}
	if doc == nil {
		if verb == domain.VerbReadOne {
			return domain.Envelope{
				Success: true,
				Count:   0,
				Data:    nil,
				Source:  source,
				Kind:    domain.KindNotFound,
				Message: domain.KindNotFound.Describe(),
			}, nil
		}
		return domain.Envelope{}, domain.Errorf(domain.KindUnexpectedResult, "normalize", "%s returned no document", verb)
	}
	return domain.Envelope{Success: true, Count: 1, Data: doc, Source: source}, nil
}

// Sequence decodes raw into a slice of documents. An empty or nil result is an
// empty, non-nil slice.
func Sequence(raw interface{}) ([]domain.Document, error) {
	switch v := raw.(type) {
	case nil:
		return []domain.Document{}, nil
	case []domain.Document:
		return nonNil(v), nil
	case []map[string]interface{}:
		docs := make([]domain.Document, len(v))
		for i, m := range v {
			docs[i] = domain.Document(m)
		}
		return docs, nil
	case []interface{}:
		docs := make([]domain.Document, 0, len(v))
		for i, item := range v {
			doc, ok := asDocument(item)
			if !ok {
				return nil, domain.Errorf(domain.KindUnexpectedResult, "normalize", "element %d is %T, not a document", i, item)
			}
			docs = append(docs, doc)
		}
		return docs, nil
	case []byte:
		return decodeThen(v, Sequence)
	case json.RawMessage:
		return decodeThen([]byte(v), Sequence)
	}

	if m, ok := asDocument(raw); ok {
		if isWrapper(m) {
			if err := upstreamFailure(m); err != nil {
				return nil, err
			}
			return Sequence(m["data"])
		}
		return []domain.Document{m}, nil
	}
	return nil, domain.Errorf(domain.KindUnexpectedResult, "normalize", "unsupported result shape %T", raw)
}

// Single decodes raw into one document, or nil when there is no result.
func Single(raw interface{}) (domain.Document, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []byte:
		return decodeThen(v, Single)
	case json.RawMessage:
		return decodeThen([]byte(v), Single)
	case []domain.Document, []map[string]interface{}, []interface{}:
		docs, err := Sequence(v)
		if err != nil {
			return nil, err
		}
		switch len(docs) {
		case 0:
			return nil, nil
		case 1:
			return docs[0], nil
		}
		return nil, domain.Errorf(domain.KindUnexpectedResult, "normalize", "expected one document, got %d", len(docs))
	}

	m, ok := asDocument(raw)
	if !ok {
		return nil, domain.Errorf(domain.KindUnexpectedResult, "normalize", "unsupported result shape %T", raw)
	}
	if isWrapper(m) {
		if err := upstreamFailure(m); err != nil {
			return nil, err
		}
		return Single(m["data"])
	}
	return m, nil
}

func asDocument(v interface{}) (domain.Document, bool) {
	switch d := v.(type) {
	case domain.Document:
		return d, d != nil
	case map[string]interface{}:
		return domain.Document(d), d != nil
	}
	return nil, false
}

func isWrapper(m domain.Document) bool {
	if _, ok := m["data"]; !ok {
		return false
	}
	for k := range m {
		if !wrapperKeys[k] {
			return false
		}
	}
	return true
}

// upstreamFailure turns {"success": false, ...} into an error rather than
// trusting whatever data came along with it.
func upstreamFailure(m domain.Document) error {
	if ok, present := m["success"].(bool); present && !ok {
		return domain.Errorf(domain.KindUnexpectedResult, "normalize", "upstream reported failure: %v", m["message"])
	}
	return nil
}

func decodeThen[T any](raw []byte, next func(interface{}) (T, error)) (T, error) {
	var zero T
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return zero, domain.NewError(domain.KindUnexpectedResult, "normalize", fmt.Errorf("failed to decode JSON result: %w", err))
	}
	return next(decoded)
}

func nonNil(docs []domain.Document) []domain.Document {
	if docs == nil {
		return []domain.Document{}
	}
	return docs
}
