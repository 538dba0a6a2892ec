package ply

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// valueReader yields property values from the body one at a time.
type valueReader interface {
	read(t scalarType) (float64, error)
	// endRecord is called after the last value of a record.
	endRecord() error
	// end reports an error unless the body is exhausted.
	end() error
}

var errShortBody = fmt.Errorf("%w: unexpected end of data", ErrInvalid)

func newValueReader(h *header, r *bufio.Reader) valueReader {
	switch h.format {
	case formatBinaryLE:
		return &binaryReader{r: r, order: binary.LittleEndian}
	case formatBinaryBE:
		return &binaryReader{r: r, order: binary.BigEndian}
	default:
		return &asciiReader{r: r, line: h.lines}
	}
}

// asciiReader reads one record per line.
type asciiReader struct {
	r      *bufio.Reader
	line   int
	fields []string
	pos    int
	inLine bool
}

// next loads the next non-blank line. It returns io.EOF at the end.
func (a *asciiReader) next() error {
	for {
		s, err := a.r.ReadString('\n')
		if s != "" {
			a.line++
			if f := strings.Fields(s); len(f) > 0 {
				a.fields, a.pos, a.inLine = f, 0, true
				return nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.EOF
			}
			return fmt.Errorf("%w: %w", ErrIO, err)
		}
	}
}

func (a *asciiReader) read(t scalarType) (float64, error) {
	if !a.inLine {
		if err := a.next(); err != nil {
			if errors.Is(err, io.EOF) {
				return 0, errShortBody
			}
			return 0, err
		}
	}
	if a.pos >= len(a.fields) {
		return 0, fmt.Errorf("ply: line %d: %w: record has too few values", a.line, ErrInvalid)
	}
	tok := a.fields[a.pos]
	a.pos++
	if t.isFloat() {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return 0, fmt.Errorf("ply: line %d: %w: bad number %q", a.line, ErrInvalid, tok)
		}
		return v, nil
	}
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ply: line %d: %w: bad integer %q", a.line, ErrInvalid, tok)
	}
	return float64(v), nil
}

func (a *asciiReader) endRecord() error {
	if !a.inLine {
		return nil
	}
	a.inLine = false
	if extra := len(a.fields) - a.pos; extra > 0 {
		return fmt.Errorf("ply: line %d: %w: %d values past the end of the record", a.line, ErrInvalid, extra)
	}
	return nil
}

func (a *asciiReader) end() error {
	err := a.next()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("ply: line %d: %w: data after the last declared element", a.line, ErrInvalid)
}

type binaryReader struct {
	r     *bufio.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *binaryReader) endRecord() error { return nil }

func (b *binaryReader) end() error {
	_, err := b.r.Peek(1)
	if err == nil {
		return fmt.Errorf("%w: data after the last declared element", ErrInvalid)
	}
	if errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrIO, err)
}

func (b *binaryReader) read(t scalarType) (float64, error) {
	p := b.buf[:t.size()]
	if _, err := io.ReadFull(b.r, p); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, errShortBody
		}
		return 0, fmt.Errorf("%w: %w", ErrIO, err)
	}
	switch t {
	case typeInt8:
		return float64(int8(p[0])), nil
	case typeUint8:
		return float64(p[0]), nil
	case typeInt16:
		return float64(int16(b.order.Uint16(p))), nil
	case typeUint16:
		return float64(b.order.Uint16(p)), nil
	case typeInt32:
		return float64(int32(b.order.Uint32(p))), nil
	case typeUint32:
		return float64(b.order.Uint32(p)), nil
	case typeFloat32:
		return float64(math.Float32frombits(b.order.Uint32(p))), nil
	default:
		return math.Float64frombits(b.order.Uint64(p)), nil
	}
}

// readRecord reads one element record. Scalar values go to scalars by
// property index; the list named listProp, if any, goes to list.
// Other lists are read and discarded.
func readRecord(vr valueReader, e *element, scalars []float64, listProp int, list []float64) ([]float64, error) {
	list = list[:0]
	for i, p := range e.props {
		if !p.list {
			v, err := vr.read(p.typ)
			if err != nil {
				return list, err
			}
			scalars[i] = v
			continue
		}
		n, err := vr.read(p.countType)
		if err != nil {
			return list, err
		}
		if n < 0 || n != math.Trunc(n) {
			return list, fmt.Errorf("%w: bad list length %v", ErrInvalid, n)
		}
		for range int(n) {
			v, err := vr.read(p.typ)
			if err != nil {
				return list, err
			}
			if i == listProp {
				list = append(list, v)
			}
		}
	}
	return list, vr.endRecord()
}
