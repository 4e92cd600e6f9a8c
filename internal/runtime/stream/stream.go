// Package stream turns newline-delimited protocol text into messages.
package stream

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/drblury/surfaceflow/internal/runtime/protocol"
)

// MaxLineSize bounds a single line read by Consume.
const MaxLineSize = 4 << 20

// MessageHandler receives every successfully parsed message. Returning an error
// aborts the Push that delivered the message.
type MessageHandler func(msg protocol.Message) error

// ErrorHandler receives lines that failed to parse, already trimmed.
type ErrorHandler func(err *protocol.ParseError, line string)

// Parser parses one line at a time and delivers the result to its callbacks.
// When no message handler is set parsed messages are dropped. When no error
// handler is set parse errors are returned from Push.
type Parser struct {
	mu        sync.RWMutex
	onMessage MessageHandler
	onError   ErrorHandler
}

// NewParser returns a parser with no callbacks.
func NewParser() *Parser {
	return &Parser{}
}

// OnMessage sets the message handler.
func (p *Parser) OnMessage(fn MessageHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onMessage = fn
}

// OnError sets the parse error handler.
func (p *Parser) OnError(fn ErrorHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onError = fn
}

// Reset clears both callbacks.
func (p *Parser) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onMessage = nil
	p.onError = nil
}

// Push parses one line. Blank lines are ignored.
func (p *Parser) Push(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	p.mu.RLock()
	onMessage, onError := p.onMessage, p.onError
	p.mu.RUnlock()

	msg, err := protocol.Parse(line)
	if err != nil {
		var perr *protocol.ParseError
		if errors.As(err, &perr) && onError != nil {
			onError(perr, line)
			return nil
		}
		return err
	}

	if onMessage == nil {
		return nil
	}
	return onMessage(msg)
}

// PushText splits text on newlines and pushes every line in order, stopping at
// the first error.
func (p *Parser) PushText(text string) error {
	for _, line := range strings.Split(text, "\n") {
		if err := p.Push(line); err != nil {
			return err
		}
	}
	return nil
}

// Consume pushes every line read from r until EOF, the first error, or ctx is
// done. Lines longer than MaxLineSize fail with bufio.ErrTooLong.
func (p *Parser) Consume(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.Push(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// ParseAll parses every non-blank line of text and fails on the first invalid
// one.
func ParseAll(text string) ([]protocol.Message, error) {
	var messages []protocol.Message
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		msg, err := protocol.Parse(line)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
