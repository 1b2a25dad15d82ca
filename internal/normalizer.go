package internal

import (
	"fmt"
	"strings"
)

// NormalizedItem is the canonical {id, text} shape sent to the bulk import endpoint
type NormalizedItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Field synonyms, in priority order
var (
	textFields = []string{"text", "content", "value", "body", "description", "message", "answer", "data"}
	idFields   = []string{"id", "key", "slug", "title"}
)

// Normalizer converts arbitrary import payloads into NormalizedItems
type Normalizer struct{}

// NewNormalizer creates a new Normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizePayload decodes raw JSON, keeping object key order, and normalizes it
func (n *Normalizer) NormalizePayload(data []byte) ([]NormalizedItem, error) {
	v, err := DecodeOrdered(data)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return n.Normalize(v)
}

// Normalize converts a decoded payload.
//
//  1. an object with an array-valued "items" field normalizes that array
//  2. an array normalizes each element
//  3. any other object yields one item per key; string values become {id: key, text: value},
//     object values are merged over {id: key}
//  4. everything else fails with InvalidShapeError
func (n *Normalizer) Normalize(payload any) ([]NormalizedItem, error) {
	if obj, ok := asObject(payload); ok {
		if raw, ok := obj.Get("items"); ok {
			if items, ok := asArray(raw); ok {
				return n.normalizeElements(items)
			}
		}
		return n.normalizeElements(entriesAsElements(obj))
	}

	if arr, ok := asArray(payload); ok {
		return n.normalizeElements(arr)
	}

	return nil, &InvalidShapeError{Kind: kindOf(payload)}
}

// entriesAsElements turns {k: v, ...} into element objects
func entriesAsElements(obj *Object) []any {
	elems := make([]any, 0, len(obj.Keys))
	for _, key := range obj.Keys {
		value := obj.Values[key]

		elem := NewObject()
		elem.Set("id", key)
		if s, ok := value.(string); ok {
			elem.Set("text", s)
		} else if inner, ok := asObject(value); ok {
			// the value's own fields win, including its own id
			for _, ik := range inner.Keys {
				elem.Set(ik, inner.Values[ik])
			}
		}
		elems = append(elems, elem)
	}
	return elems
}

func (n *Normalizer) normalizeElements(elems []any) ([]NormalizedItem, error) {
	items := make([]NormalizedItem, 0, len(elems))
	for i, elem := range elems {
		item, err := n.normalizeElement(elem, i+1)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// normalizeElement converts one element; position is 1-based
func (n *Normalizer) normalizeElement(elem any, position int) (NormalizedItem, error) {
	defaultID := fmt.Sprintf("item_%d", position)

	if s, ok := elem.(string); ok {
		return NormalizedItem{ID: defaultID, Text: s}, nil
	}

	obj, ok := asObject(elem)
	if !ok {
		return NormalizedItem{}, &UnsupportedElementError{Position: position, Kind: kindOf(elem)}
	}

	textValue, found := firstPresent(obj, textFields)
	if !found {
		return NormalizedItem{}, &MissingTextError{Position: position}
	}
	text := coerceString(textValue)
	if strings.TrimSpace(text) == "" {
		return NormalizedItem{}, &MissingTextError{Position: position}
	}

	id := defaultID
	if idValue, found := firstPresent(obj, idFields); found {
		id = coerceString(idValue)
	}

	return NormalizedItem{ID: id, Text: text}, nil
}

// firstPresent returns the first non-null value among fields
func firstPresent(obj *Object, fields []string) (any, bool) {
	for _, f := range fields {
		if v, ok := obj.Get(f); ok && v != nil {
			return v, true
		}
	}
	return nil, false
}
