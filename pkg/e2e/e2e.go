// Package e2e implements the end-to-end wire reception stage: frames
// binary messages over a plain connection with a fixed-size header
// read via encoding/binary, carrying a {magic, sequence, location,
// length} envelope ahead of each payload.
package e2e

import (
	"encoding/binary"
	"errors"
	"io"

	log "github.com/sirupsen/logrus"
)

// Magic tags a wire frame's kind.
type Magic uint32

const (
	MagicData Magic = 0
	// MagicEOT is MAGIQ: the sender has no more frames for this worker.
	MagicEOT Magic = 0x4d414749
)

// Message is the on-wire frame header shape.
type Message struct {
	Magic    Magic
	Sequence uint64
	Location int64
	Length   int64
}

const headerSize = 4 + 8 + 8 + 8

// WriteMessage sends one frame header followed by payload (payload may
// be nil/empty for control frames like MAGIQ).
func WriteMessage(w io.Writer, msg Message, payload []byte) error {
	var buf [headerSize]byte
	binary.BigEndian.PutUint32(buf[0:4], uint32(msg.Magic))
	binary.BigEndian.PutUint64(buf[4:12], msg.Sequence)
	binary.BigEndian.PutUint64(buf[12:20], uint64(msg.Location))
	binary.BigEndian.PutUint64(buf[20:28], uint64(msg.Length))
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return err
		}
	}
	return nil
}

// ReadMessage reads one frame header and its payload.
func ReadMessage(r io.Reader) (Message, []byte, error) {
	var buf [headerSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Message{}, nil, err
	}
	msg := Message{
		Magic:    Magic(binary.BigEndian.Uint32(buf[0:4])),
		Sequence: binary.BigEndian.Uint64(buf[4:12]),
		Location: int64(binary.BigEndian.Uint64(buf[12:20])),
		Length:   int64(binary.BigEndian.Uint64(buf[20:28])),
	}
	if msg.Length <= 0 {
		return msg, nil, nil
	}
	payload := make([]byte, msg.Length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Message{}, nil, err
	}
	return msg, payload, nil
}

// ErrProtocol is returned for a bad sequence or a closed connection
// mid-transfer.
var ErrProtocol = errors.New("e2e: protocol error")

// Stats accumulates receiver-side bookkeeping.
type Stats struct {
	BytesAwaited int64
}

// Block is one destination-side E2E receiver.
type Block struct {
	conn io.Reader

	expectedSeq uint64
	prevLoc     int64
	prevLen     int64
	dataReady   int64

	TimedOut bool // UDP receive-timeout flag; set by the transport, read here
	Stats    Stats
}

// NewBlock builds a destination-side E2E receiver reading frames from
// conn.
func NewBlock(conn io.Reader) *Block {
	return &Block{conn: conn}
}

// Result is the small result discriminant the pipeline driver
// consumes.
type Result uint8

const (
	ResultSuccess Result = iota
	ResultFailed
)

// Receive drains inbound frames until enough bytes are ready to cover
// ioSize. isLastOp enables the short-tail shrink for a data frame
// shorter than ioSize; a MAGIQ frame always ends the call with its own
// length and location and pass_ring set. It returns the (possibly shrunk) io size to
// actually use for this op, the byte location to write at, whether the
// pass should end (pass_ring), and the stage result.
func (b *Block) Receive(ioSize int64, isLastOp bool) (actualIOSize int64, location int64, passRing bool, result Result) {
	location = b.prevLoc
	for b.dataReady < ioSize {
		msg, _, err := ReadMessage(b.conn)
		if err != nil {
			log.Warnf("[e2e] receive failed: %v", err)
			return 0, 0, false, ResultFailed
		}

		if msg.Magic == MagicEOT {
			b.Stats.BytesAwaited += headerSize
			return msg.Length, msg.Location, true, ResultSuccess
		}

		if msg.Sequence != b.expectedSeq {
			log.Warnf("[e2e] sequence %d != expected %d", msg.Sequence, b.expectedSeq)
			return 0, 0, false, ResultFailed
		}
		if b.TimedOut {
			return 0, 0, false, ResultFailed
		}

		if b.expectedSeq == 0 {
			b.prevLoc, b.prevLen = 0, 0
		} else if msg.Location <= b.prevLoc {
			log.Debugf("[e2e] stale message at location %d (prev %d), discarding", msg.Location, b.prevLoc)
			continue
		}

		b.expectedSeq++
		dataLength := msg.Length
		b.dataReady += dataLength
		b.prevLoc, b.prevLen = msg.Location, msg.Length
		b.Stats.BytesAwaited += headerSize + dataLength

		if isLastOp && msg.Length < ioSize {
			b.dataReady -= msg.Length
			return msg.Length, msg.Location, false, ResultSuccess
		}
		location = msg.Location
	}
	b.dataReady -= ioSize
	return ioSize, location, false, ResultSuccess
}

// DataReady returns the cumulative confirmed byte count, for tests.
func (b *Block) DataReady() int64 { return b.dataReady }

// ExpectedSequence returns the next sequence this block will accept,
// for tests asserting the E2E ordering invariant.
func (b *Block) ExpectedSequence() uint64 { return b.expectedSeq }
