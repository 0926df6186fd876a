package table

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrBadSchema = errors.New("invalid schema")
	ErrBadRecord = errors.New("record does not match schema")
)

type DataType uint8

const (
	Int DataType = iota
	String
)

func (d DataType) String() string {
	switch d {
	case Int:
		return "int"
	case String:
		return "string"
	default:
		return fmt.Sprintf("type(%d)", uint8(d))
	}
}

type Attribute struct {
	Name string
	Type DataType
}

type Schema struct {
	Attributes []Attribute
}

// ParseSchema reads a definition such as "id:int,name:string"
func ParseSchema(def string) (*Schema, error) {
	if strings.TrimSpace(def) == "" {
		return nil, fmt.Errorf("%w: empty", ErrBadSchema)
	}

	s := &Schema{}
	for _, part := range strings.Split(def, ",") {
		name, typ, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q is not name:type", ErrBadSchema, part)
		}

		var dt DataType
		switch strings.ToLower(typ) {
		case "int":
			dt = Int
		case "string":
			dt = String
		default:
			return nil, fmt.Errorf("%w: unknown type %q", ErrBadSchema, typ)
		}
		s.Attributes = append(s.Attributes, Attribute{Name: name, Type: dt})
	}
	return s, nil
}

// Tuple holds one row; Int fields are int32, String fields are string
type Tuple []any

func (t Tuple) String() string {
	parts := make([]string, len(t))
	for i, f := range t {
		parts[i] = fmt.Sprint(f)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// ParseRecord types one CSV record against the schema
func (s *Schema) ParseRecord(record []string) (Tuple, error) {
	if len(record) != len(s.Attributes) {
		return nil, fmt.Errorf("%w: %d fields, want %d", ErrBadRecord, len(record), len(s.Attributes))
	}

	t := make(Tuple, len(record))
	for i, attr := range s.Attributes {
		switch attr.Type {
		case Int:
			v, err := strconv.ParseInt(strings.TrimSpace(record[i]), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrBadRecord, attr.Name, err)
			}
			t[i] = int32(v)
		case String:
			t[i] = record[i]
		}
	}
	return t, nil
}

// Encode serializes t as a msgpack array in schema order
func (s *Schema) Encode(t Tuple) ([]byte, error) {
	if len(t) != len(s.Attributes) {
		return nil, fmt.Errorf("%w: %d fields, want %d", ErrBadRecord, len(t), len(s.Attributes))
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.EncodeArrayLen(len(t)); err != nil {
		return nil, err
	}

	for i, attr := range s.Attributes {
		var err error
		switch attr.Type {
		case Int:
			v, ok := t[i].(int32)
			if !ok {
				return nil, fmt.Errorf("%w: %s is %T, want int32", ErrBadRecord, attr.Name, t[i])
			}
			err = enc.EncodeInt32(v)
		case String:
			v, ok := t[i].(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s is %T, want string", ErrBadRecord, attr.Name, t[i])
			}
			err = enc.EncodeString(v)
		}
		if err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (s *Schema) Decode(b []byte) (Tuple, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(b))

	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRecord, err)
	}
	if n != len(s.Attributes) {
		return nil, fmt.Errorf("%w: %d fields, want %d", ErrBadRecord, n, len(s.Attributes))
	}

	t := make(Tuple, n)
	for i, attr := range s.Attributes {
		switch attr.Type {
		case Int:
			t[i], err = dec.DecodeInt32()
		case String:
			t[i], err = dec.DecodeString()
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadRecord, attr.Name, err)
		}
	}
	return t, nil
}
