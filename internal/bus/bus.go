// Package bus is the line protocol between the CLI and the daemon over a unix
// socket. A request is one command byte, an optional space-separated argument
// and a newline. A reply is one line starting with OK, STATUS, RESULT or ERR.
package bus

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const (
	SockName = "control.sock"
	PidName  = "voicebridge.pid"
	ProtoVer = "1.0"
)

// Commands understood by the daemon.
const (
	CmdStatus     byte = 's'
	CmdTranslate  byte = 't'
	CmdClearCache byte = 'c'
	CmdVersion    byte = 'v'
	CmdQuit       byte = 'q'
)

// Reply prefixes.
const (
	ReplyOK     = "OK"
	ReplyStatus = "STATUS"
	ReplyResult = "RESULT"
	ReplyErr    = "ERR"
)

// RemoteError is an ERR reply.
type RemoteError struct {
	Msg string
}

func (e *RemoteError) Error() string { return "daemon: " + e.Msg }

// Endpoint locates the socket and pid file of one daemon.
type Endpoint struct {
	Dir string
}

// DefaultEndpoint is ~/.cache/voicebridge.
func DefaultEndpoint() (Endpoint, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return Endpoint{}, err
	}
	return Endpoint{Dir: filepath.Join(dir, "voicebridge")}, nil
}

func (e Endpoint) SockPath() string { return filepath.Join(e.Dir, SockName) }
func (e Endpoint) PidPath() string  { return filepath.Join(e.Dir, PidName) }

func (e Endpoint) Listen() (net.Listener, error) {
	if err := os.MkdirAll(e.Dir, 0o700); err != nil {
		return nil, err
	}
	_ = os.Remove(e.SockPath()) // stale socket from last run
	return net.Listen("unix", e.SockPath())
}

func (e Endpoint) Dial() (net.Conn, error) {
	return net.Dial("unix", e.SockPath())
}

// Send issues one command and returns the raw reply line, newline included.
// timeout bounds the whole exchange; zero means no deadline.
func (e Endpoint) Send(cmd byte, arg string, timeout time.Duration) (string, error) {
	if strings.ContainsAny(arg, "\r\n") {
		return "", fmt.Errorf("argument must be a single line")
	}
	c, err := e.Dial()
	if err != nil {
		return "", err
	}
	defer c.Close()

	if timeout > 0 {
		_ = c.SetDeadline(time.Now().Add(timeout))
	}

	line := string(cmd)
	if arg != "" {
		line += " " + arg
	}
	if _, err := c.Write([]byte(line + "\n")); err != nil {
		return "", err
	}

	return bufio.NewReader(c).ReadString('\n')
}

// Request is a parsed command line.
type Request struct {
	Cmd byte
	Arg string
}

func ParseRequest(line string) (Request, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return Request{}, errors.New("empty")
	}
	req := Request{Cmd: line[0]}
	if len(line) > 1 {
		if line[1] != ' ' {
			return Request{}, fmt.Errorf("malformed command %q", line)
		}
		req.Arg = strings.TrimSpace(line[2:])
	}
	return req, nil
}

// ParseReply splits a reply into its kind and payload. ERR replies come back
// as a *RemoteError.
func ParseReply(line string) (kind, payload string, err error) {
	line = strings.TrimRight(line, "\r\n")
	kind, payload, _ = strings.Cut(line, " ")
	switch kind {
	case ReplyOK, ReplyStatus, ReplyResult:
		return kind, payload, nil
	case ReplyErr:
		return kind, payload, &RemoteError{Msg: payload}
	default:
		return "", "", fmt.Errorf("unexpected reply %q", line)
	}
}

// CheckExisting fails when a live daemon owns the pid file.
func (e Endpoint) CheckExisting() error {
	return (&pidManager{path: e.PidPath()}).checkExisting()
}

func (e Endpoint) CreatePidFile() error {
	if err := os.MkdirAll(e.Dir, 0o700); err != nil {
		return err
	}
	return (&pidManager{path: e.PidPath()}).create()
}

func (e Endpoint) RemovePidFile() error {
	return (&pidManager{path: e.PidPath()}).remove()
}

type pidManager struct {
	path string
}

func (p *pidManager) create() error {
	return os.WriteFile(p.path, []byte(strconv.Itoa(os.Getpid())), 0o600)
}

func (p *pidManager) remove() error {
	return os.Remove(p.path)
}

func (p *pidManager) checkExisting() error {
	pidData, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return nil // no existing daemon
	}
	if err != nil {
		return err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(pidData)))
	if err != nil {
		return nil // invalid pid file, assume stale
	}

	if !p.isProcessAlive(pid) {
		return nil
	}
	return fmt.Errorf("daemon already running with PID %d", pid)
}

// isProcessAlive probes pid with signal 0.
func (p *pidManager) isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	// EPERM means the process exists but belongs to someone else
	return err == nil || errors.Is(err, syscall.EPERM)
}
