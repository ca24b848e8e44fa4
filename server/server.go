package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/0xADE/ade-run/internal/launch"
	"github.com/0xADE/ade-run/internal/session"
	"github.com/0xADE/ade-run/parser"
)

// Server handles Unix socket connections and forwards commands to a session
type Server struct {
	listener net.Listener
	requests chan<- session.Request
	log      *slog.Logger
	running  bool
	mu       sync.RWMutex
}

// NewServer listens on socketPath. Commands are sent to the session loop
// reading requests.
func NewServer(socketPath string, requests chan<- session.Request, log *slog.Logger) (*Server, error) {
	// Create directory if needed
	if err := os.MkdirAll(filepath.Dir(socketPath), 0700); err != nil {
		return nil, err
	}

	// Remove stale socket left by a previous run
	os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, err
	}

	return &Server{
		listener: listener,
		requests: requests,
		log:      log.With("component", "server"),
	}, nil
}

// Start accepts connections until ctx is done or the server is stopped
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.RLock()
			running := s.running
			s.mu.RUnlock()
			if !running {
				return nil
			}
			continue
		}

		go s.handleConnection(ctx, conn)
	}
}

// Stop stops the server
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return s.listener.Close()
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	s.log.Debug("new connection accepted")

	p, err := parser.NewParser(conn)
	if err != nil {
		s.log.Warn("failed to create parser", "error", err)
		s.writeError(conn, "parser", "invalid header", err.Error())
		return
	}

	for {
		cmd, err := p.ParseCommand()
		if err == io.EOF {
			s.log.Debug("connection closed by client")
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) || errors.Is(err, net.ErrClosed) {
				s.log.Debug("connection lost", "error", err)
				return
			}
			s.log.Warn("parse error", "error", err)
			s.writeError(conn, "parser", "parse error", err.Error())
			continue
		}

		s.log.Debug("executing command", "cmd", cmd.Name, "args", len(cmd.Args))
		s.executeCommand(ctx, conn, cmd)
	}
}

func (s *Server) executeCommand(ctx context.Context, conn net.Conn, cmd *parser.Command) {
	switch cmd.Name {
	case "query":
		s.handleQuery(ctx, conn, cmd)
	case "mode":
		s.handleInput(ctx, conn, cmd.Name, session.CycleMode{})
	case "setmode":
		s.handleSetMode(ctx, conn, cmd)
	case "list":
		s.handleInput(ctx, conn, cmd.Name, session.Refresh{})
	case "modes":
		s.handleModes(ctx, conn)
	case "run":
		s.handleRun(ctx, conn, cmd)
	case "up":
		s.handleInput(ctx, conn, cmd.Name, session.MoveUp{})
	case "down":
		s.handleInput(ctx, conn, cmd.Name, session.MoveDown{})
	case "reset":
		s.handleInput(ctx, conn, cmd.Name, session.Reset{})
	case "cancel":
		s.handleCancel(ctx, conn)
	default:
		s.writeError(conn, cmd.Name, "unknown command", "Command not recognized")
	}
}

// do sends one input to the session loop and waits for its result
func (s *Server) do(ctx context.Context, in session.Input) (session.Result, error) {
	reply := make(chan session.Result, 1)

	select {
	case s.requests <- session.Request{Input: in, Reply: reply}:
	case <-ctx.Done():
		return session.Result{}, ctx.Err()
	}

	select {
	case res := <-reply:
		return res, nil
	case <-ctx.Done():
		return session.Result{}, ctx.Err()
	}
}

func (s *Server) handleInput(ctx context.Context, conn net.Conn, name string, in session.Input) {
	res, err := s.do(ctx, in)
	if err != nil {
		s.writeError(conn, name, "unavailable", err.Error())
		return
	}
	if res.Err != nil {
		s.writeError(conn, name, errorType(res.Err), res.Err.Error())
		return
	}
	s.writeView(conn, name, res.View)
}

func (s *Server) handleQuery(ctx context.Context, conn net.Conn, cmd *parser.Command) {
	if len(cmd.Args) == 0 || cmd.Args[0].Type != parser.TypeString {
		s.writeError(conn, "query", "missing parameter", "query command requires a string parameter")
		return
	}
	s.handleInput(ctx, conn, "query", session.QueryChanged{Text: cmd.Args[0].Str})
}

func (s *Server) handleSetMode(ctx context.Context, conn net.Conn, cmd *parser.Command) {
	if len(cmd.Args) == 0 || cmd.Args[0].Type != parser.TypeString {
		s.writeError(conn, "setmode", "missing parameter", "setmode command requires a mode name")
		return
	}
	s.handleInput(ctx, conn, "setmode", session.SetMode{Name: cmd.Args[0].Str})
}

func (s *Server) handleModes(ctx context.Context, conn net.Conn) {
	res, err := s.do(ctx, session.Refresh{})
	if err != nil {
		s.writeError(conn, "modes", "unavailable", err.Error())
		return
	}

	attrs := fmt.Sprintf("cmd: modes\nstatus: 0\nactive: %d\nlist-len: %d\n", res.View.Active, len(res.View.Modes))
	body := strings.Builder{}
	for i, m := range res.View.Modes {
		fmt.Fprintf(&body, "%d %s\n", i, m)
	}
	s.writeResponse(conn, attrs, body.String())
}

func (s *Server) handleRun(ctx context.Context, conn net.Conn, cmd *parser.Command) {
	if len(cmd.Args) == 0 || cmd.Args[0].Type != parser.TypeInt {
		s.writeError(conn, "run", "missing id", "run command requires a row parameter")
		return
	}
	row := int(cmd.Args[0].Int)

	res, err := s.do(ctx, session.ExecuteRow{Index: row})
	if err != nil {
		s.writeError(conn, "run", "unavailable", err.Error())
		return
	}
	if res.Err != nil {
		s.log.Warn("run failed", "row", row, "error", res.Err)
		s.writeError(conn, "run", errorType(res.Err), res.Err.Error())
		return
	}

	l := res.Launched
	s.log.Info("launched", "mode", l.Mode, "entry", l.Entry, "pid", l.Pid)
	s.finish(ctx, res)

	attrs := fmt.Sprintf("cmd: run\nidx: %d\nstatus: 0\npid: %d\nmode: %s\nentry: %s\nexit: %s\n",
		row, l.Pid, l.Mode, oneLine(l.Entry), flag(res.Exit))
	s.writeResponse(conn, attrs, "")
}

func (s *Server) handleCancel(ctx context.Context, conn net.Conn) {
	res, err := s.do(ctx, session.Cancel{})
	if err != nil {
		s.writeError(conn, "cancel", "unavailable", err.Error())
		return
	}
	s.finish(ctx, res)
	s.writeResponse(conn, "cmd: cancel\nstatus: 0\nexit: t\n", "")
}

// finish starts the next session over once the current one has ended
func (s *Server) finish(ctx context.Context, res session.Result) {
	if !res.Exit {
		return
	}
	if _, err := s.do(ctx, session.Reset{}); err != nil {
		s.log.Warn("failed to reset session", "error", err)
	}
}

func (s *Server) writeView(conn net.Conn, name string, v session.View) {
	rows := v.Rows()

	attrs := fmt.Sprintf("cmd: %s\nstatus: 0\nmode: %s\nquery: %s\nselected: %d\nlist-len: %d\n",
		name, v.Mode(), oneLine(v.Query), v.Selected, len(rows))
	body := strings.Builder{}
	for i, row := range rows {
		fmt.Fprintf(&body, "%d %s\n", i, oneLine(row))
	}
	s.writeResponse(conn, attrs, body.String())
}

// writeResponse writes a response with TXT01 header. The attribute block
// and the body are each terminated by an empty line.
func (s *Server) writeResponse(conn net.Conn, attrs, body string) {
	response := parser.Header + attrs + "\n" + body + "\n"
	s.log.Debug("writing response", "bytes", len(response))

	if _, err := io.WriteString(conn, response); err != nil {
		s.log.Warn("failed to write response", "error", err)
	}
}

func (s *Server) writeError(conn net.Conn, cmd, errType, desc string) {
	s.log.Debug("writing error response", "cmd", cmd, "type", errType, "desc", desc)
	s.writeResponse(conn, fmt.Sprintf("error-cmd: %s\nerror: %s\ndesc: %s\n", cmd, errType, oneLine(desc)), "")
}

func errorType(err error) string {
	switch {
	case errors.Is(err, session.ErrNothingSelected):
		return "index not found"
	case errors.Is(err, session.ErrUnknownMode):
		return "unknown mode"
	case errors.Is(err, launch.ErrLaunch):
		return "execution failed"
	default:
		return "failed"
	}
}

func flag(b bool) string {
	if b {
		return "t"
	}
	return "f"
}

func oneLine(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}
