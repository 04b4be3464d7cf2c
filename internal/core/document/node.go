// Package document provides safe, non-panicking access to the loosely
// structured JSON state a map page embeds. Every accessor on a missing or
// mistyped value yields an absent Node instead of failing, so callers can
// tell "not there" apart from "there but the wrong shape" by asking Kind.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"
)

// Kind classifies a Node.
type Kind int

const (
	KindAbsent Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "absent"
	}
}

// Node is one value in the tree. The zero Node is absent.
type Node struct {
	v *structpb.Value
}

// Parse decodes raw JSON into a tree. Invalid UTF-8 is replaced rather
// than rejected, and a repeated key keeps its last value.
func Parse(data []byte) (Node, error) {
	var raw any
	if err := json.Unmarshal(bytes.ToValidUTF8(data, []byte("\uFFFD")), &raw); err != nil {
		return Node{}, fmt.Errorf("parse state json: %w", err)
	}
	v, err := structpb.NewValue(raw)
	if err != nil {
		return Node{}, fmt.Errorf("parse state json: %w", err)
	}
	return Node{v: v}, nil
}

// From converts plain Go values (maps, slices, numbers, strings) into a tree.
func From(x any) (Node, error) {
	v, err := structpb.NewValue(x)
	if err != nil {
		return Node{}, err
	}
	return Node{v: v}, nil
}

// Kind reports what the node holds.
func (n Node) Kind() Kind {
	if n.v == nil {
		return KindAbsent
	}
	switch n.v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return KindNull
	case *structpb.Value_BoolValue:
		return KindBool
	case *structpb.Value_NumberValue:
		return KindNumber
	case *structpb.Value_StringValue:
		return KindString
	case *structpb.Value_ListValue:
		return KindArray
	case *structpb.Value_StructValue:
		return KindObject
	default:
		return KindAbsent
	}
}

func (n Node) Exists() bool { return n.Kind() != KindAbsent }
func (n Node) IsObject() bool { return n.Kind() == KindObject }
func (n Node) IsArray() bool { return n.Kind() == KindArray }

// Get returns the member key of an object node.
func (n Node) Get(key string) Node {
	if n.Kind() != KindObject {
		return Node{}
	}
	return Node{v: n.v.GetStructValue().GetFields()[key]}
}

// Has reports whether an object node carries key, whatever its value.
func (n Node) Has(key string) bool {
	if n.Kind() != KindObject {
		return false
	}
	_, ok := n.v.GetStructValue().GetFields()[key]
	return ok
}

// Path walks nested object members.
func (n Node) Path(keys ...string) Node {
	cur := n
	for _, k := range keys {
		cur = cur.Get(k)
		if !cur.Exists() {
			return Node{}
		}
	}
	return cur
}

// At resolves a dotted path such as "config.userMap.features".
func (n Node) At(dotted string) Node {
	return n.Path(strings.Split(dotted, ".")...)
}

// Len is the element count of an array node, 0 otherwise.
func (n Node) Len() int {
	if n.Kind() != KindArray {
		return 0
	}
	return len(n.v.GetListValue().GetValues())
}

// Index returns element i of an array node.
func (n Node) Index(i int) Node {
	if i < 0 || i >= n.Len() {
		return Node{}
	}
	return Node{v: n.v.GetListValue().GetValues()[i]}
}

// Items returns the elements of an array node.
func (n Node) Items() []Node {
	l := n.Len()
	if l == 0 {
		return nil
	}
	out := make([]Node, l)
	for i, v := range n.v.GetListValue().GetValues() {
		out[i] = Node{v: v}
	}
	return out
}

// Text returns the content of a string node.
func (n Node) Text() (string, bool) {
	if n.Kind() != KindString {
		return "", false
	}
	return n.v.GetStringValue(), true
}

// StringOr returns the text of a string node or def.
func (n Node) StringOr(def string) string {
	if s, ok := n.Text(); ok && s != "" {
		return s
	}
	return def
}

// Float returns a number node's value.
func (n Node) Float() (float64, bool) {
	if n.Kind() != KindNumber {
		return 0, false
	}
	f := n.v.GetNumberValue()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Int reads an integral number or a numeric string, as query echoes carry both.
func (n Node) Int() (int, bool) {
	switch n.Kind() {
	case KindNumber:
		f, ok := n.Float()
		if !ok || f != math.Trunc(f) {
			return 0, false
		}
		return int(f), true
	case KindString:
		i, err := strconv.Atoi(strings.TrimSpace(n.v.GetStringValue()))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// Bool returns a bool node's value.
func (n Node) Bool() (bool, bool) {
	if n.Kind() != KindBool {
		return false, false
	}
	return n.v.GetBoolValue(), true
}
