package graph

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Delimiter joins the three components of a composite relation key.
const Delimiter = "_"

// adjacencySep separates the source id from the relation key inside
// adjacency index keys. Components reject NUL, so the split is unambiguous.
const adjacencySep = "\x00"

// Triple identifies a relation: a named, directed edge between two node ids.
type Triple struct {
	Name string
	From string
	To   string
}

// key returns the composite key for an already-canonical triple.
func (t Triple) key() string {
	return t.Name + Delimiter + t.From + Delimiter + t.To
}

// EncodeRelationKey encodes a relation identity into its composite key.
//
// Components are NFC-normalized first. Encoding fails with a KeyEncoding
// error if any component is empty or contains the delimiter or a NUL byte:
// such a key could not be decoded back into the same three components.
func EncodeRelationKey(name, from, to string) (string, error) {
	t, err := canonicalTriple("EncodeRelationKey", name, from, to)
	if err != nil {
		return "", err
	}
	return t.key(), nil
}

// DecodeRelationKey splits a composite key back into its components.
// Decoding is strict: anything other than exactly three non-empty parts
// fails with a KeyDecoding error.
func DecodeRelationKey(key string) (name, from, to string, err error) {
	const op = "DecodeRelationKey"
	parts := strings.Split(key, Delimiter)
	if len(parts) != 3 {
		return "", "", "", errKeyDecoding(op, key,
			fmt.Sprintf("expected 3 components, got %d", len(parts)))
	}
	for _, part := range parts {
		if part == "" {
			return "", "", "", errKeyDecoding(op, key, "empty component")
		}
	}
	return parts[0], parts[1], parts[2], nil
}

// canonicalTriple normalizes and validates the three components of a
// relation identity.
func canonicalTriple(op, name, from, to string) (Triple, error) {
	t := Triple{
		Name: norm.NFC.String(name),
		From: norm.NFC.String(from),
		To:   norm.NFC.String(to),
	}
	for _, c := range []struct {
		label, value string
	}{
		{"name", t.Name},
		{"from", t.From},
		{"to", t.To},
	} {
		if err := validateComponent(op, c.label, c.value); err != nil {
			return Triple{}, err
		}
	}
	return t, nil
}

func validateComponent(op, label, value string) error {
	switch {
	case value == "":
		return errKeyEncoding(op, fmt.Sprintf("%s must not be empty", label))
	case strings.Contains(value, Delimiter):
		return errKeyEncoding(op,
			fmt.Sprintf("%s %q contains the delimiter %q", label, value, Delimiter))
	case strings.Contains(value, adjacencySep):
		return errKeyEncoding(op, fmt.Sprintf("%s %q contains a NUL byte", label, value))
	}
	return nil
}

// canonicalNodeID normalizes a node id for use as a node keyspace key.
// Only empty ids are rejected: an id containing the delimiter is storable
// as a node, it just cannot appear in a relation triple later.
func canonicalNodeID(op, id string) (string, error) {
	id = norm.NFC.String(id)
	if id == "" {
		return "", errKeyEncoding(op, "node id must not be empty")
	}
	return id, nil
}

// adjacencyKey builds the index key for one outgoing relation of a node.
func adjacencyKey(from, relationKey string) string {
	return from + adjacencySep + relationKey
}
