package ply

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// format is the body encoding declared by the header.
type format int

const (
	formatASCII format = iota
	formatBinaryLE
	formatBinaryBE
)

func (f format) String() string {
	switch f {
	case formatASCII:
		return "ascii"
	case formatBinaryLE:
		return "binary_little_endian"
	case formatBinaryBE:
		return "binary_big_endian"
	default:
		return "unknown"
	}
}

// scalarType is the storage type of a property value.
type scalarType int

const (
	typeInvalid scalarType = iota
	typeInt8
	typeUint8
	typeInt16
	typeUint16
	typeInt32
	typeUint32
	typeFloat32
	typeFloat64
)

var scalarTypes = map[string]scalarType{
	"char":    typeInt8,
	"int8":    typeInt8,
	"uchar":   typeUint8,
	"uint8":   typeUint8,
	"short":   typeInt16,
	"int16":   typeInt16,
	"ushort":  typeUint16,
	"uint16":  typeUint16,
	"int":     typeInt32,
	"int32":   typeInt32,
	"uint":    typeUint32,
	"uint32":  typeUint32,
	"float":   typeFloat32,
	"float32": typeFloat32,
	"double":  typeFloat64,
	"float64": typeFloat64,
}

func (t scalarType) size() int {
	switch t {
	case typeInt8, typeUint8:
		return 1
	case typeInt16, typeUint16:
		return 2
	case typeInt32, typeUint32, typeFloat32:
		return 4
	case typeFloat64:
		return 8
	default:
		return 0
	}
}

func (t scalarType) isFloat() bool { return t == typeFloat32 || t == typeFloat64 }

type property struct {
	name string
	typ  scalarType

	// list properties carry a count of type countType before their items.
	list      bool
	countType scalarType
}

type element struct {
	name  string
	count int
	props []property
}

// find returns the index of the first property with one of names.
func (e *element) find(names ...string) int {
	for _, name := range names {
		for i, p := range e.props {
			if p.name == name {
				return i
			}
		}
	}
	return -1
}

type header struct {
	format   format
	elements []element
	// lines is the number of header lines, used to number body lines.
	lines int
}

// lineReader reads trimmed lines and counts them for error messages.
type lineReader struct {
	r    *bufio.Reader
	line int
}

func (lr *lineReader) next() (string, error) {
	s, err := lr.r.ReadString('\n')
	if err != nil && (err != io.EOF || s == "") {
		return "", err
	}
	lr.line++
	return strings.TrimRight(s, "\r\n"), nil
}

func (lr *lineReader) errorf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("ply: line %d: %w: %s", lr.line, sentinel, fmt.Sprintf(format, args...))
}

// parseHeader reads everything up to and including end_header.
func parseHeader(r *bufio.Reader) (*header, error) {
	lr := &lineReader{r: r}
	magic, err := lr.next()
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return nil, fmt.Errorf("%w: missing ply magic", ErrUnknownFormat)
	}

	h := &header{format: -1}
	for {
		line, err := lr.next()
		if err == io.EOF {
			return nil, lr.errorf(ErrInvalid, "end of file before end_header")
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIO, err)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "comment", "obj_info":
		case "format":
			if len(fields) != 3 || fields[2] != "1.0" {
				return nil, lr.errorf(ErrUnknownFormat, "bad format line %q", line)
			}
			switch fields[1] {
			case "ascii":
				h.format = formatASCII
			case "binary_little_endian":
				h.format = formatBinaryLE
			case "binary_big_endian":
				h.format = formatBinaryBE
			default:
				return nil, lr.errorf(ErrUnknownFormat, "format %q", fields[1])
			}
		case "element":
			if len(fields) != 3 {
				return nil, lr.errorf(ErrInvalid, "bad element line %q", line)
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil || count < 0 {
				return nil, lr.errorf(ErrInvalid, "bad element count %q", fields[2])
			}
			h.elements = append(h.elements, element{name: fields[1], count: count})
		case "property":
			if len(h.elements) == 0 {
				return nil, lr.errorf(ErrInvalid, "property before any element")
			}
			p, err := parseProperty(fields)
			if err != nil {
				return nil, lr.errorf(ErrInvalid, "%v", err)
			}
			e := &h.elements[len(h.elements)-1]
			e.props = append(e.props, p)
		case "end_header":
			if h.format < 0 {
				return nil, fmt.Errorf("%w: missing format line", ErrUnknownFormat)
			}
			h.lines = lr.line
			return h, nil
		default:
			return nil, lr.errorf(ErrInvalid, "unknown keyword %q", fields[0])
		}
	}
}

func parseProperty(fields []string) (property, error) {
	if len(fields) >= 2 && fields[1] == "list" {
		if len(fields) != 5 {
			return property{}, fmt.Errorf("bad list property %q", strings.Join(fields, " "))
		}
		ct, ok := scalarTypes[fields[2]]
		if !ok {
			return property{}, fmt.Errorf("unknown type %q", fields[2])
		}
		it, ok := scalarTypes[fields[3]]
		if !ok {
			return property{}, fmt.Errorf("unknown type %q", fields[3])
		}
		return property{name: fields[4], typ: it, list: true, countType: ct}, nil
	}
	if len(fields) != 3 {
		return property{}, fmt.Errorf("bad property %q", strings.Join(fields, " "))
	}
	t, ok := scalarTypes[fields[1]]
	if !ok {
		return property{}, fmt.Errorf("unknown type %q", fields[1])
	}
	return property{name: fields[2], typ: t}, nil
}
