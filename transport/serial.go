package transport

import (
	"bytes"
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.bug.st/serial"

	"github.com/parol6/console/logging"
	"github.com/parol6/console/utils"
)

// Handlers receive the lines the controller sends on its own initiative. Any
// handler may be nil.
type Handlers struct {
	OnFeedback       func(degrees []float64)
	OnHomingComplete func()
	OnEStop          func(triggered bool)
	// OnUnknownLine receives lines no other handler claims, such as
	// controller error codes the presentation layer may want to surface.
	OnUnknownLine func(line string)
}

// SerialLink is the serial connection to the arm controller. Writes are
// serialized; a background worker reads and dispatches incoming lines until
// Close. It implements the motion sink.
type SerialLink struct {
	port     serial.Port
	handlers Handlers
	logger   logging.Logger
	workers  utils.StoppableWorkers

	writeMu sync.Mutex
}

// NewSerialLink opens the port and starts the read loop.
func NewSerialLink(portName string, baudRate int, handlers Handlers, logger logging.Logger) (*SerialLink, error) {
	port, err := serial.Open(portName, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open serial port %q", portName)
	}
	l := &SerialLink{
		port:     port,
		handlers: handlers,
		logger:   logger,
	}
	l.workers = utils.NewStoppableWorkers(l.readLoop)
	return l, nil
}

// SendJointDegrees encodes and writes one joint command line.
func (l *SerialLink) SendJointDegrees(ctx context.Context, degrees []float64) error {
	line, err := EncodeJointCommand(degrees)
	if err != nil {
		return err
	}
	return l.writeLine(ctx, line)
}

// SendCommand writes a bare command line such as CommandHome.
func (l *SerialLink) SendCommand(ctx context.Context, command string) error {
	return l.writeLine(ctx, command+"\n")
}

func (l *SerialLink) writeLine(ctx context.Context, line string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if _, err := l.port.Write([]byte(line)); err != nil {
		return errors.Wrap(err, "serial write failed")
	}
	return nil
}

// Close stops the read loop and closes the port.
func (l *SerialLink) Close() error {
	l.workers.Stop()
	return l.port.Close()
}

// readLoop accumulates bytes into newline-terminated lines and dispatches
// them. Read errors end the loop; the port is gone at that point.
func (l *SerialLink) readLoop(ctx context.Context) {
	buf := make([]byte, 128)
	var pending []byte
	for ctx.Err() == nil {
		n, err := l.port.Read(buf)
		if err != nil {
			if ctx.Err() == nil {
				l.logger.Errorw("serial read failed, stopping reader", "error", err)
			}
			return
		}
		pending = append(pending, buf[:n]...)
		for {
			idx := bytes.IndexByte(pending, '\n')
			if idx < 0 {
				break
			}
			line := strings.TrimRight(string(pending[:idx]), "\r")
			pending = pending[idx+1:]
			if line != "" {
				l.dispatch(line)
			}
		}
	}
}

func (l *SerialLink) dispatch(line string) {
	switch {
	case IsFeedbackLine(line):
		degrees, err := ParseFeedbackLine(line)
		if err != nil {
			l.logger.Debugw("dropping malformed feedback line", "line", line, "error", err)
			return
		}
		if l.handlers.OnFeedback != nil {
			l.handlers.OnFeedback(degrees)
		}
	case line == EventHomingComplete:
		if l.handlers.OnHomingComplete != nil {
			l.handlers.OnHomingComplete()
		}
	case line == EventEStopTriggered:
		if l.handlers.OnEStop != nil {
			l.handlers.OnEStop(true)
		}
	case line == EventEStopReleased, line == EventEStopOff:
		if l.handlers.OnEStop != nil {
			l.handlers.OnEStop(false)
		}
	default:
		if l.handlers.OnUnknownLine != nil {
			l.handlers.OnUnknownLine(line)
			return
		}
		l.logger.Debugw("unrecognized line from controller", "line", line)
	}
}

