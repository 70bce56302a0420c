package meta

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// ErrNotSerialized is returned by TryDecode when the raw value is not a
// complete, well-formed serialized structure.
var ErrNotSerialized = errors.New("value is not serialized")

// Decode converts a raw stored meta value into a Value. It never fails: any
// input that does not parse as a serialized structure comes back unchanged
// as Scalar(raw).
func Decode(raw string) Value {
	v, err := TryDecode(raw)
	if err != nil {
		return Scalar(raw)
	}
	return v
}

// TryDecode is Decode with the fallback branch made visible. On a parse
// failure it returns Scalar(raw) together with an error wrapping
// ErrNotSerialized.
//
// Arrays and objects decode to a List of their element values in stored
// order; keys are dropped and nested composites keep their serialized text.
// Falsy scalars (null, false, 0, "", "0") keep the raw text, the way the
// legacy reader treated them. An empty array is the exception: the legacy
// reader kept `a:0:{}` as text, here it decodes to an empty List so that an
// encoded empty list reads back as one.
func TryDecode(raw string) (Value, error) {
	p := &parser{data: raw}
	node, err := p.parse()
	if err == nil && p.pos != len(p.data) {
		err = p.errorf("trailing data")
	}
	if err != nil {
		return Scalar(raw), fmt.Errorf("%w: %v", ErrNotSerialized, err)
	}

	if node.composite() {
		items := make([]string, len(node.elems))
		for i, e := range node.elems {
			items[i] = e.text()
		}
		return List(items...), nil
	}
	if node.falsy() {
		return Scalar(raw), nil
	}
	return Scalar(node.text()), nil
}

// Encode renders a value for storage in a meta_value column. Strings are
// stored verbatim, lists and maps as PHP serialized arrays, and other scalars
// through their string form.
func Encode(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case Value:
		if val.IsList() {
			return encodeList(val.list), nil
		}
		return val.scalar, nil
	case []string:
		return encodeList(val), nil
	case map[string]bool:
		keys := sortedKeys(val)
		var b strings.Builder
		fmt.Fprintf(&b, "a:%d:{", len(keys))
		for _, k := range keys {
			writeString(&b, k)
			if val[k] {
				b.WriteString("b:1;")
			} else {
				b.WriteString("b:0;")
			}
		}
		b.WriteString("}")
		return b.String(), nil
	case map[string]string:
		keys := sortedKeys(val)
		var b strings.Builder
		fmt.Fprintf(&b, "a:%d:{", len(keys))
		for _, k := range keys {
			writeString(&b, k)
			writeString(&b, val[k])
		}
		b.WriteString("}")
		return b.String(), nil
	default:
		s, err := cast.ToStringE(v)
		if err != nil {
			return "", fmt.Errorf("encoding meta value of type %T: %w", v, err)
		}
		return s, nil
	}
}

func encodeList(items []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "a:%d:{", len(items))
	for i, s := range items {
		fmt.Fprintf(&b, "i:%d;", i)
		writeString(&b, s)
	}
	b.WriteString("}")
	return b.String()
}

func writeString(b *strings.Builder, s string) {
	fmt.Fprintf(b, "s:%d:\"%s\";", len(s), s)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// nodeType identifies the kind of a parsed serialized token.
type nodeType uint8

const (
	nodeNull nodeType = iota
	nodeBool
	nodeInt
	nodeFloat
	nodeString
	nodeArray
	nodeObject
)

// node is one parsed serialized value. raw is the exact source text.
type node struct {
	typ   nodeType
	str   string
	b     bool
	i     int64
	f     float64
	elems []node
	raw   string
}

func (n node) composite() bool {
	return n.typ == nodeArray || n.typ == nodeObject
}

func (n node) falsy() bool {
	switch n.typ {
	case nodeNull:
		return true
	case nodeBool:
		return !n.b
	case nodeInt:
		return n.i == 0
	case nodeFloat:
		return n.f == 0
	case nodeString:
		return n.str == "" || n.str == "0"
	}
	return false
}

// text stringifies a node the way the legacy runtime prints it.
func (n node) text() string {
	switch n.typ {
	case nodeNull:
		return ""
	case nodeBool:
		if n.b {
			return "1"
		}
		return ""
	case nodeInt:
		return strconv.FormatInt(n.i, 10)
	case nodeFloat:
		return cast.ToString(n.f)
	case nodeString:
		return n.str
	}
	return n.raw
}

// parser reads the PHP serialize() format. Lengths are byte counts.
type parser struct {
	data string
	pos  int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("offset %d: "+format, append([]any{p.pos}, args...)...)
}

func (p *parser) parse() (node, error) {
	start := p.pos
	if p.pos+1 >= len(p.data) {
		return node{}, p.errorf("unexpected end of input")
	}
	tag := p.data[p.pos]
	if tag == 'N' {
		if p.data[p.pos+1] != ';' {
			return node{}, p.errorf("malformed null")
		}
		p.pos += 2
		return node{typ: nodeNull, raw: p.data[start:p.pos]}, nil
	}
	if p.data[p.pos+1] != ':' {
		return node{}, p.errorf("expected ':' after %q", tag)
	}
	p.pos += 2

	var n node
	var err error
	switch tag {
	case 'b':
		n, err = p.parseBool()
	case 'i':
		n, err = p.parseInt()
	case 'd':
		n, err = p.parseFloat()
	case 's':
		n, err = p.parseString()
	case 'a':
		n, err = p.parseArray()
	case 'O':
		n, err = p.parseObject()
	default:
		return node{}, p.errorf("unsupported type %q", tag)
	}
	if err != nil {
		return node{}, err
	}
	n.raw = p.data[start:p.pos]
	return n, nil
}

// until returns the text up to the next delim and advances past it.
func (p *parser) until(delim byte) (string, error) {
	idx := strings.IndexByte(p.data[p.pos:], delim)
	if idx < 0 {
		return "", p.errorf("missing %q", delim)
	}
	s := p.data[p.pos : p.pos+idx]
	p.pos += idx + 1
	return s, nil
}

func (p *parser) expect(s string) error {
	if !strings.HasPrefix(p.data[p.pos:], s) {
		return p.errorf("expected %q", s)
	}
	p.pos += len(s)
	return nil
}

func (p *parser) parseBool() (node, error) {
	s, err := p.until(';')
	if err != nil {
		return node{}, err
	}
	switch s {
	case "0":
		return node{typ: nodeBool, b: false}, nil
	case "1":
		return node{typ: nodeBool, b: true}, nil
	}
	return node{}, p.errorf("invalid bool %q", s)
}

func (p *parser) parseInt() (node, error) {
	s, err := p.until(';')
	if err != nil {
		return node{}, err
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return node{}, p.errorf("invalid int %q", s)
	}
	return node{typ: nodeInt, i: i}, nil
}

func (p *parser) parseFloat() (node, error) {
	s, err := p.until(';')
	if err != nil {
		return node{}, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return node{}, p.errorf("invalid float %q", s)
	}
	return node{typ: nodeFloat, f: f}, nil
}

func (p *parser) parseLength() (int, error) {
	s, err := p.until(':')
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, p.errorf("invalid length %q", s)
	}
	return n, nil
}

// quoted reads `"<n bytes>"` at the current position.
func (p *parser) quoted(n int) (string, error) {
	if err := p.expect(`"`); err != nil {
		return "", err
	}
	if n > len(p.data)-p.pos {
		return "", p.errorf("string length %d exceeds input", n)
	}
	s := p.data[p.pos : p.pos+n]
	p.pos += n
	if err := p.expect(`"`); err != nil {
		return "", err
	}
	return s, nil
}

func (p *parser) parseString() (node, error) {
	n, err := p.parseLength()
	if err != nil {
		return node{}, err
	}
	s, err := p.quoted(n)
	if err != nil {
		return node{}, err
	}
	if err := p.expect(";"); err != nil {
		return node{}, err
	}
	return node{typ: nodeString, str: s}, nil
}

// parseMembers reads `<count>:{key value ...}` after the count's prefix.
func (p *parser) parseMembers(count int) ([]node, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	// A member pair takes at least 4 bytes (`N;N;`), so the stored count
	// never sizes the slice beyond what the input can hold.
	elems := make([]node, 0, min(count, (len(p.data)-p.pos)/4))
	for i := 0; i < count; i++ {
		key, err := p.parse()
		if err != nil {
			return nil, err
		}
		if key.typ != nodeInt && key.typ != nodeString {
			return nil, p.errorf("invalid array key type")
		}
		val, err := p.parse()
		if err != nil {
			return nil, err
		}
		elems = append(elems, val)
	}
	if err := p.expect("}"); err != nil {
		return nil, err
	}
	return elems, nil
}

func (p *parser) parseArray() (node, error) {
	count, err := p.parseLength()
	if err != nil {
		return node{}, err
	}
	elems, err := p.parseMembers(count)
	if err != nil {
		return node{}, err
	}
	return node{typ: nodeArray, elems: elems}, nil
}

func (p *parser) parseObject() (node, error) {
	n, err := p.parseLength()
	if err != nil {
		return node{}, err
	}
	class, err := p.quoted(n)
	if err != nil {
		return node{}, err
	}
	if err := p.expect(":"); err != nil {
		return node{}, err
	}
	count, err := p.parseLength()
	if err != nil {
		return node{}, err
	}
	elems, err := p.parseMembers(count)
	if err != nil {
		return node{}, err
	}
	return node{typ: nodeObject, str: class, elems: elems}, nil
}
