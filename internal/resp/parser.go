package resp

import (
	"bytes"
	"strconv"

	"github.com/R3E-Network/cachegrid/infrastructure/errors"
)

// Incomplete is returned by Parser.Parse when the buffer does not yet hold
// one complete command frame.
var Incomplete = errors.InvalidOperation("incomplete frame")

// Command is one fully-parsed client request: an argv of binary-safe
// strings, with the command name conventionally at Argv[0].
type Command struct {
	Argv [][]byte
}

// Parser is a streaming RESP reader: Feed appends bytes as they arrive off
// the socket, and Parse extracts at most one complete command per call,
// leaving any trailing partial frame buffered for the next Feed (spec
// §4.3). Pipelining is handled by calling Parse in a loop until it
// returns Incomplete.
type Parser struct {
	buf []byte
}

// Feed appends newly-read bytes to the internal buffer.
func (p *Parser) Feed(b []byte) {
	p.buf = append(p.buf, b...)
}

// Parse attempts to extract one complete command. It returns (cmd, nil) on
// success, (nil, Incomplete) when more bytes are needed, or a parse error
// for malformed framing.
func (p *Parser) Parse() (*Command, error) {
	if len(p.buf) == 0 {
		return nil, Incomplete
	}
	if p.buf[0] == '*' {
		return p.parseArray()
	}
	return p.parseInline()
}

// parseInline handles the legacy space-separated command path (spec §4.3).
func (p *Parser) parseInline() (*Command, error) {
	idx := bytes.Index(p.buf, []byte("\r\n"))
	if idx < 0 {
		idx = bytes.IndexByte(p.buf, '\n')
		if idx < 0 {
			return nil, Incomplete
		}
		line := p.buf[:idx]
		p.buf = p.buf[idx+1:]
		return &Command{Argv: splitInline(line)}, nil
	}
	line := p.buf[:idx]
	p.buf = p.buf[idx+2:]
	return &Command{Argv: splitInline(line)}, nil
}

func splitInline(line []byte) [][]byte {
	fields := bytes.Fields(line)
	out := make([][]byte, len(fields))
	copy(out, fields)
	return out
}

// parseArray handles the "*N\r\n$len\r\n...\r\n" framed path.
func (p *Parser) parseArray() (*Command, error) {
	cursor := 0

	n, newCursor, err := readInt(p.buf, cursor+1)
	if err != nil {
		return nil, err
	}
	if newCursor < 0 {
		return nil, Incomplete
	}
	cursor = newCursor
	if n < 0 {
		p.buf = p.buf[cursor:]
		return &Command{}, nil
	}

	argv := make([][]byte, 0, n)
	for i := int64(0); i < n; i++ {
		if cursor >= len(p.buf) {
			return nil, Incomplete
		}
		if p.buf[cursor] != '$' {
			return nil, errors.InvalidOperation("expected bulk string in array")
		}
		length, next, err := readInt(p.buf, cursor+1)
		if err != nil {
			return nil, err
		}
		if next < 0 {
			return nil, Incomplete
		}
		cursor = next
		if length < 0 {
			argv = append(argv, nil)
			continue
		}
		end := cursor + int(length)
		if end+2 > len(p.buf) {
			return nil, Incomplete
		}
		argv = append(argv, p.buf[cursor:end])
		cursor = end + 2 // skip trailing \r\n
	}

	cmd := &Command{Argv: make([][]byte, len(argv))}
	for i, a := range argv {
		if a != nil {
			b := make([]byte, len(a))
			copy(b, a)
			cmd.Argv[i] = b
		}
	}
	p.buf = p.buf[cursor:]
	return cmd, nil
}

// readInt reads a decimal integer terminated by \r\n starting at start
// (start itself points just past the type byte). Returns the parsed value
// and the cursor just past the terminator, or cursor=-1 if the line isn't
// fully buffered yet.
func readInt(buf []byte, start int) (int64, int, error) {
	idx := bytes.Index(buf[start:], []byte("\r\n"))
	if idx < 0 {
		return 0, -1, nil
	}
	n, err := strconv.ParseInt(string(buf[start:start+idx]), 10, 64)
	if err != nil {
		return 0, 0, errors.InvalidOperation("invalid integer in frame")
	}
	return n, start + idx + 2, nil
}
