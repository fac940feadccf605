// Package adapter implements the Adapter Proxy driver (spec.md §4.2): a
// subprocess manager + protocol codec + request/response correlator +
// event demultiplexer for an external debug-adapter process speaking
// length-prefixed JSON over its stdio, compatible with the widely-used
// Microsoft Debug Adapter Protocol dialect (the exact dialect is an
// external collaborator, out of scope per spec.md §1).
package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/cog-debug/cog-debug/internal/drivererr"
	"github.com/cog-debug/cog-debug/internal/telemetry"
	"github.com/cog-debug/cog-debug/internal/types"
)

// Config configures a Proxy instance.
type Config struct {
	// Command is not read by New, which resolves the adapter executable
	// + args from its override argument via AdapterCommandFor.
	Command []string
	// RequestTimeout bounds how long a single adapter request may take
	// before the driver fails it with drivererr.Timeout, per spec.md §4.2
	// "The caller times out after a driver-wide deadline".
	RequestTimeout time.Duration
	Logger         telemetry.Logger
}

// Proxy is the Adapter Proxy driver. It implements drivers.Driver.
type Proxy struct {
	cfg    Config
	logger telemetry.Logger

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	writeMu sync.Mutex
	writer  *frameWriter
	corr    *correlator

	mu           sync.Mutex
	capabilities types.Capabilities
	breakpoints  map[int]types.Breakpoint
	nextBPID     int
	logTemplates map[int]string // breakpoint id -> log message template
	pendingOutput []types.OutputEntry
	awaitStop    chan *types.StopState
	pid          int
	detach       bool
	notifs       []types.Notification

	readerDone chan struct{}
	readErr    error
}

// New spawns the adapter subprocess for program and performs the initial
// capability handshake.
func New(ctx context.Context, program string, override []string, cfg Config) (*Proxy, error) {
	cmdline, err := AdapterCommandFor(program, override)
	if err != nil {
		return nil, drivererr.Wrap(drivererr.NotSupported, "no adapter available for "+program, err)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.NewNoopLogger()
	}

	cmd := exec.CommandContext(ctx, cmdline[0], cmdline[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, drivererr.Wrap(drivererr.IO, "open adapter stdin", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, drivererr.Wrap(drivererr.IO, "open adapter stdout", err)
	}
	if err := cmd.Start(); err != nil {
		kind := drivererr.IO
		if errors.Is(err, exec.ErrNotFound) {
			kind = drivererr.NotSupported
		}
		return nil, drivererr.Wrap(kind, "spawn adapter "+cmdline[0], err)
	}

	p := &Proxy{
		cfg:          cfg,
		logger:       cfg.Logger,
		cmd:          cmd,
		stdin:        stdin,
		stdout:       stdout,
		writer:       newFrameWriter(stdin),
		corr:         newCorrelator(),
		breakpoints:  make(map[int]types.Breakpoint),
		nextBPID:     1,
		logTemplates: make(map[int]string),
		readerDone:   make(chan struct{}),
	}

	go p.readLoop()

	resp, err := p.request(ctx, "initialize", map[string]any{
		"clientID":                 "cog-debug",
		"adapterID":                cmdline[0],
		"linesStartAt1":             true,
		"columnsStartAt1":           true,
		"supportsRunInTerminalRequest": false,
	})
	if err != nil {
		_ = p.killSubprocess()
		return nil, err
	}
	p.mu.Lock()
	p.capabilities = capabilitiesFromWire(resp.Body)
	p.mu.Unlock()
	return p, nil
}

// request sends a request to the adapter and blocks for its response or
// the configured timeout, whichever comes first.
func (p *Proxy) request(ctx context.Context, command string, args any) (message, error) {
	entry := p.corr.register()

	var rawArgs json.RawMessage
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			p.corr.retire(entry.seq)
			return message{}, drivererr.Wrap(drivererr.Other, "encode request arguments", err)
		}
		rawArgs = b
	}

	p.writeMu.Lock()
	err := p.writer.writeMessage(message{Seq: entry.seq, Type: typeRequest, Command: command, Arguments: rawArgs})
	p.writeMu.Unlock()
	if err != nil {
		p.corr.retire(entry.seq)
		return message{}, drivererr.Wrap(drivererr.IO, "write adapter request", err)
	}

	timer := time.NewTimer(p.cfg.RequestTimeout)
	defer timer.Stop()
	select {
	case reply := <-entry.replyC:
		if reply.err != nil {
			return message{}, reply.err
		}
		if !reply.msg.Success {
			return message{}, drivererr.Errorf(drivererr.Protocol, "adapter rejected %s: %s", command, reply.msg.Message)
		}
		return reply.msg, nil
	case <-timer.C:
		p.corr.retire(entry.seq)
		return message{}, drivererr.Errorf(drivererr.Timeout, "adapter request %s timed out", command)
	case <-ctx.Done():
		p.corr.retire(entry.seq)
		return message{}, drivererr.Wrap(drivererr.Other, "adapter request canceled", ctx.Err())
	case <-p.readerDone:
		return message{}, drivererr.New(drivererr.Gone, "adapter connection closed")
	}
}

func decodeBody[T any](body json.RawMessage) (T, error) {
	var v T
	if len(body) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return v, drivererr.Wrap(drivererr.Protocol, "decode adapter response body", err)
	}
	return v, nil
}

func (p *Proxy) killSubprocess() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

// readLoop is the single reader goroutine for this proxy's adapter
// subprocess. It parses frames and dispatches by type, per spec.md §4.2.
func (p *Proxy) readLoop() {
	defer close(p.readerDone)
	fr := newFrameReader(p.stdout)
	for {
		m, err := fr.readMessage()
		if err != nil {
			p.readErr = err
			p.corr.cancelAll()
			return
		}
		switch m.Type {
		case typeResponse:
			p.corr.resolve(m.RequestSeq, m)
		case typeEvent:
			p.handleEvent(m)
		}
	}
}
