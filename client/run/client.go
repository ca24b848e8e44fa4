package run

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
)

const protoVer = "TXT01" // session protocol, text format, v01

// Row is one line of a listed view
type Row struct {
	Index int
	Text  string
}

// Response is a parsed server reply
type Response struct {
	Attrs map[string]string
	Body  []string
	keys  []string // attribute names in arrival order
}

// Err returns the server error carried by the response, if any
func (r *Response) Err() error {
	errMsg, ok := r.Attrs["error"]
	if !ok {
		return nil
	}
	if desc := r.Attrs["desc"]; desc != "" {
		return fmt.Errorf("server error: %s: %s", errMsg, desc)
	}
	return fmt.Errorf("server error: %s", errMsg)
}

// Rows parses the body as "<index> <text>" lines
func (r *Response) Rows() []Row {
	var rows []Row
	for _, line := range r.Body {
		idx, text, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		i, err := strconv.Atoi(idx)
		if err != nil {
			continue
		}
		rows = append(rows, Row{Index: i, Text: text})
	}
	return rows
}

// Print writes the response the way it was received, without the header
func (r *Response) Print(w io.Writer) {
	for _, k := range r.keys {
		fmt.Fprintf(w, "%s: %s\n", k, r.Attrs[k])
	}
	if len(r.Body) > 0 {
		fmt.Fprintln(w)
		for _, line := range r.Body {
			fmt.Fprintln(w, line)
		}
	}
}

// ReadResponse reads one response: header, attribute block and body,
// each block terminated by an empty line
func ReadResponse(reader *bufio.Reader) (*Response, error) {
	header := make([]byte, len(protoVer))
	if _, err := io.ReadFull(reader, header); err != nil {
		return nil, fmt.Errorf("failed to read response header: %w", err)
	}
	if string(header) != protoVer {
		return nil, fmt.Errorf("unexpected response header %q", header)
	}

	resp := &Response{Attrs: make(map[string]string)}

	inAttrs := true
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read error: %w", err)
		}
		line = strings.TrimRight(line, "\n")

		if line == "" {
			if !inAttrs {
				return resp, nil
			}
			inAttrs = false
			continue
		}

		if inAttrs {
			key, value, ok := strings.Cut(line, ":")
			if ok {
				key = strings.TrimSpace(key)
				resp.Attrs[key] = strings.TrimSpace(value)
				resp.keys = append(resp.keys, key)
			}
		} else {
			resp.Body = append(resp.Body, line)
		}
	}
}

// Client handles connection to ade-run-ctld server
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
	mu     sync.Mutex
	socket string
}

// NewClient connects to the socket returned by SocketPath
func NewClient() (*Client, error) {
	socketPath, err := SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get socket path: %w", err)
	}
	return Dial(socketPath)
}

// Dial creates a new client and connects to the server at socketPath
func Dial(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to socket %s: %w", socketPath, err)
	}

	c, err := newClient(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	c.socket = socketPath
	return c, nil
}

func newClient(conn net.Conn) (*Client, error) {
	// Send header
	if _, err := conn.Write([]byte(protoVer)); err != nil {
		return nil, fmt.Errorf("failed to send header: %w", err)
	}
	return &Client{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}, nil
}

// Close closes the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// FormatArgument formats an argument according to its type
func FormatArgument(arg string) string {
	// If starts with ", it's a string (keep prefix)
	if strings.HasPrefix(arg, `"`) {
		return arg
	}

	// Check if it's numeric (all digits)
	if _, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64); err == nil {
		return strings.TrimSpace(arg)
	}

	// Default: treat as string (add prefix)
	return `"` + arg
}

// Do sends a command and reads its response. A server error is returned
// as an error together with the response.
func (c *Client) Do(cmdName string, args ...string) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var req strings.Builder
	for _, arg := range args {
		req.WriteString(FormatArgument(arg))
		req.WriteByte('\n')
	}
	req.WriteString(cmdName)
	req.WriteByte('\n')

	if _, err := io.WriteString(c.conn, req.String()); err != nil {
		return nil, fmt.Errorf("failed to send command: %w", err)
	}

	resp, err := ReadResponse(c.reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp, resp.Err()
}

// Query replaces the query text and returns the new view
func (c *Client) Query(text string) (*Response, error) {
	return c.Do("query", `"`+text)
}

// CycleMode switches to the next mode
func (c *Client) CycleMode() (*Response, error) {
	return c.Do("mode")
}

// SetMode switches to the named mode
func (c *Client) SetMode(name string) (*Response, error) {
	return c.Do("setmode", `"`+name)
}

// List returns the current view
func (c *Client) List() (*Response, error) {
	return c.Do("list")
}

// Modes lists the configured modes
func (c *Client) Modes() (*Response, error) {
	return c.Do("modes")
}

// Run launches the given row of the current view
func (c *Client) Run(row int) (*Response, error) {
	return c.Do("run", strconv.Itoa(row))
}

// Up moves the selection up
func (c *Client) Up() (*Response, error) {
	return c.Do("up")
}

// Down moves the selection down
func (c *Client) Down() (*Response, error) {
	return c.Do("down")
}

// Reset clears the query and returns to the first mode
func (c *Client) Reset() (*Response, error) {
	return c.Do("reset")
}

// Cancel ends the current session without launching
func (c *Client) Cancel() (*Response, error) {
	return c.Do("cancel")
}
