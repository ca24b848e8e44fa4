package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// Header is the protocol tag every stream starts with: text format, version 01
const Header = "TXT01"

// ErrHeader is returned for a stream that does not start with a known header
var ErrHeader = errors.New("invalid header")

// ValueType represents the type of a value on the stack
type ValueType int

const (
	TypeString ValueType = iota
	TypeInt
)

// Value represents a value on the stack
type Value struct {
	Type ValueType
	Str  string
	Int  int64
}

// Command represents a parsed command
type Command struct {
	Name string
	Args []Value
}

// Known commands. Arguments are pushed on lines before the command word.
var knownCommands = []string{
	"query",   // "text query
	"mode",    // cycle to the next mode
	"setmode", // "name setmode
	"list",
	"modes",
	"run", // <row> run
	"up",
	"down",
	"reset",
	"cancel",
}

// Parser parses Forth-style commands
type Parser struct {
	reader  *bufio.Reader
	header  string
	version string
}

// NewParser creates a new parser
func NewParser(reader io.Reader) (*Parser, error) {
	p := &Parser{
		reader: bufio.NewReader(reader),
	}

	// Read header
	headerBytes := make([]byte, len(Header))
	if _, err := io.ReadFull(p.reader, headerBytes); err != nil {
		return nil, ErrHeader
	}

	p.header = string(headerBytes[:3])
	p.version = string(headerBytes[3:5])

	if p.header != Header[:3] {
		return nil, fmt.Errorf("%w: unsupported format %s", ErrHeader, p.header)
	}

	return p, nil
}

// Version returns the protocol version sent by the peer
func (p *Parser) Version() string {
	return p.version
}

// ParseCommand parses the next command from input.
// Values left on the stack at end of input are dropped.
func (p *Parser) ParseCommand() (*Command, error) {
	stack := make([]Value, 0)

	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return nil, err
		}

		line = strings.TrimRight(line, "\r\n")
		trimmed := strings.TrimSpace(line)

		// Skip empty lines and comments
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if slices.Contains(knownCommands, trimmed) {
			return &Command{
				Name: trimmed,
				Args: stack,
			}, nil
		}

		value, perr := parseValue(line)
		if perr != nil {
			return nil, fmt.Errorf("parse error: %w", perr)
		}
		stack = append(stack, value)
	}
}

func parseValue(line string) (Value, error) {
	// String value (prefixed with "). Text after the quote is kept verbatim
	// so queries may end with spaces.
	if after, ok := strings.CutPrefix(strings.TrimLeft(line, " \t"), `"`); ok {
		return Value{Type: TypeString, Str: after}, nil
	}

	line = strings.TrimSpace(line)

	// Try parsing as integer (must be all digits)
	if intVal, err := strconv.ParseInt(line, 10, 64); err == nil {
		return Value{Type: TypeInt, Int: intVal}, nil
	}

	return Value{}, fmt.Errorf("cannot parse value: %s", line)
}

// ReadAllCommands reads all commands from the parser
func (p *Parser) ReadAllCommands() ([]*Command, error) {
	var commands []*Command

	for {
		cmd, err := p.ParseCommand()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}

	return commands, nil
}
