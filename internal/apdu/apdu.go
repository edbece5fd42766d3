// Package apdu implements the APDU transport over PC/SC (spec.md §4.4),
// directly adapted from the teacher's pkg/ntag424/pcsc.go connection
// lifecycle and pkg/ntag424/card.go's Transmit/status-word split.
package apdu

import (
	"fmt"

	"github.com/ebfe/scard"
)

// Card abstracts card transmit behavior so engines and tests can
// substitute a fake transport instead of a real PC/SC card (adapted
// from pkg/ntag424/card.go's Card interface).
type Card interface {
	Transmit(apdu []byte) ([]byte, error)
}

// Context owns the process-lifetime PC/SC context (spec.md §5: "A PC/SC
// context is acquired at process start and held for life").
type Context struct {
	ctx *scard.Context
}

// EstablishContext acquires the PC/SC context.
func EstablishContext() (*Context, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("apdu: EstablishContext: %w", err)
	}
	return &Context{ctx: ctx}, nil
}

// Release releases the PC/SC context (spec.md §5 shutdown).
func (c *Context) Release() error {
	if c == nil || c.ctx == nil {
		return nil
	}
	return c.ctx.Release()
}

// Reader describes one PC/SC reader slot as returned by enumeration.
type Reader struct {
	Name string
}

// ListReaders enumerates the readers currently known to the PC/SC subsystem.
func (c *Context) ListReaders() ([]Reader, error) {
	names, err := c.ctx.ListReaders()
	if err != nil {
		return nil, fmt.Errorf("apdu: ListReaders: %w", err)
	}
	out := make([]Reader, len(names))
	for i, n := range names {
		out[i] = Reader{Name: n}
	}
	return out, nil
}

// Connection is an opened card connection in a named reader.
type Connection struct {
	card   *scard.Card
	Reader string
}

// Connect opens a shared connection to the card in the named reader.
func (c *Context) Connect(reader string) (*Connection, error) {
	card, err := c.ctx.Connect(reader, scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		return nil, fmt.Errorf("apdu: connect %s: %w", reader, err)
	}
	return &Connection{card: card, Reader: reader}, nil
}

// Transmit implements Card.
func (conn *Connection) Transmit(apduBytes []byte) ([]byte, error) {
	resp, err := conn.card.Transmit(apduBytes)
	if err != nil {
		return nil, fmt.Errorf("apdu: transmit: %w", err)
	}
	return resp, nil
}

// Close disconnects with "leave card" disposition (spec.md §4.2, §5).
func (conn *Connection) Close() error {
	if conn == nil || conn.card == nil {
		return nil
	}
	return conn.card.Disconnect(scard.LeaveCard)
}
