// Package manifest loads declarative graph manifests from CUE files.
//
// A manifest seeds a store with nodes and relations in one command. The
// file is validated against an embedded CUE schema before anything is
// written, so a malformed manifest fails fast with a positioned error
// instead of half-applying.
package manifest

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"
)

// schema is the closed shape a manifest must satisfy. Payloads are UTF-8
// strings; the store treats them as opaque bytes.
const schema = `
#Node: {
	id:       string & !=""
	payload?: string
}

#Relation: {
	name:     string & !=""
	from:     string & !=""
	to:       string & !=""
	payload?: string
}

#Manifest: {
	nodes?:     [...#Node]
	relations?: [...#Relation]
}
`

// Node is one node entry of a manifest.
type Node struct {
	ID      string
	Payload string
}

// Relation is one relation entry of a manifest.
type Relation struct {
	Name    string
	From    string
	To      string
	Payload string
}

// Manifest is a parsed, schema-validated manifest file.
type Manifest struct {
	Nodes     []Node
	Relations []Relation
}

// LoadError represents an error that occurred during manifest loading.
type LoadError struct {
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Load reads, validates, and extracts the manifest at path.
func Load(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Message: fmt.Sprintf("reading manifest: %v", err)}
	}

	ctx := cuecontext.New()

	schemaVal := ctx.CompileString(schema).LookupPath(cue.ParsePath("#Manifest"))
	if err := schemaVal.Err(); err != nil {
		return nil, &LoadError{Message: fmt.Sprintf("compiling manifest schema: %v", err)}
	}

	fileVal := ctx.CompileBytes(raw, cue.Filename(path))
	if err := fileVal.Err(); err != nil {
		return nil, &LoadError{Message: fmt.Sprintf("compiling manifest: %v", err), Pos: fileVal.Pos()}
	}

	// Definitions are closed: unification rejects unknown fields as well
	// as missing or mistyped ones.
	unified := schemaVal.Unify(fileVal)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return nil, &LoadError{Message: fmt.Sprintf("manifest does not satisfy schema: %v", err)}
	}

	m := &Manifest{}

	nodesVal := unified.LookupPath(cue.ParsePath("nodes"))
	if nodesVal.Exists() {
		iter, err := nodesVal.List()
		if err != nil {
			return nil, &LoadError{Message: fmt.Sprintf("iterating nodes: %v", err), Pos: nodesVal.Pos()}
		}
		for iter.Next() {
			node, err := extractNode(iter.Value())
			if err != nil {
				return nil, err
			}
			m.Nodes = append(m.Nodes, node)
		}
	}

	relationsVal := unified.LookupPath(cue.ParsePath("relations"))
	if relationsVal.Exists() {
		iter, err := relationsVal.List()
		if err != nil {
			return nil, &LoadError{Message: fmt.Sprintf("iterating relations: %v", err), Pos: relationsVal.Pos()}
		}
		for iter.Next() {
			rel, err := extractRelation(iter.Value())
			if err != nil {
				return nil, err
			}
			m.Relations = append(m.Relations, rel)
		}
	}

	if len(m.Nodes) == 0 && len(m.Relations) == 0 {
		return nil, &LoadError{Message: "manifest defines no nodes or relations"}
	}

	return m, nil
}

func extractNode(v cue.Value) (Node, error) {
	id, err := stringField(v, "id")
	if err != nil {
		return Node{}, err
	}
	payload, err := optionalStringField(v, "payload")
	if err != nil {
		return Node{}, err
	}
	return Node{ID: id, Payload: payload}, nil
}

func extractRelation(v cue.Value) (Relation, error) {
	rel := Relation{}
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"name", &rel.Name},
		{"from", &rel.From},
		{"to", &rel.To},
	} {
		val, err := stringField(v, f.name)
		if err != nil {
			return Relation{}, err
		}
		*f.dst = val
	}
	payload, err := optionalStringField(v, "payload")
	if err != nil {
		return Relation{}, err
	}
	rel.Payload = payload
	return rel, nil
}

func stringField(v cue.Value, name string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return "", &LoadError{Message: fmt.Sprintf("missing field %q", name), Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", &LoadError{Message: fmt.Sprintf("field %q: %v", name, err), Pos: fv.Pos()}
	}
	return s, nil
}

func optionalStringField(v cue.Value, name string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", &LoadError{Message: fmt.Sprintf("field %q: %v", name, err), Pos: fv.Pos()}
	}
	return s, nil
}
