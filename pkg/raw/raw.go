// Package raw implements the read-after-write gating stage: a
// sequence-numbered, ack-less segment protocol where out-of-order or
// stale segments are detected by comparing against the last-accepted
// position rather than by a full resend handshake.
package raw

import (
	"encoding/binary"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/xdd-io/xdd/pkg/transport"
)

// Mode selects how the reader learns that the paired writer has made
// progress.
type Mode uint8

const (
	ModeFileStatPoll Mode = iota
	ModeMessagePassing
)

// Message is the writer->reader notification frame for MESSAGE-PASSING
// mode: {sequence, location, length}, no payload (the payload is file
// data, read independently from the shared target).
type Message struct {
	Sequence uint64
	Location int64
	Length   int64
}

const messageWireSize = 8 + 8 + 8

func writeMessage(w io.Writer, m Message) error {
	var buf [messageWireSize]byte
	binary.BigEndian.PutUint64(buf[0:8], m.Sequence)
	binary.BigEndian.PutUint64(buf[8:16], uint64(m.Location))
	binary.BigEndian.PutUint64(buf[16:24], uint64(m.Length))
	_, err := w.Write(buf[:])
	return err
}

func readMessage(r io.Reader) (Message, error) {
	var buf [messageWireSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Message{}, err
	}
	return Message{
		Sequence: binary.BigEndian.Uint64(buf[0:8]),
		Location: int64(binary.BigEndian.Uint64(buf[8:16])),
		Length:   int64(binary.BigEndian.Uint64(buf[16:24])),
	}, nil
}

// Block is one reader-side RAW channel.
type Block struct {
	Mode Mode

	// MESSAGE-PASSING state
	conn        io.ReadWriteCloser
	expectedSeq uint64
	prevLoc     int64
	prevLen     int64
	initialized bool

	// FILE-STAT-POLL state
	handle transport.Handle

	dataReady int64
}

// NewFileStatPoll builds a RAW block that polls the shared target's
// size via handle.Stat.
func NewFileStatPoll(handle transport.Handle) *Block {
	return &Block{Mode: ModeFileStatPoll, handle: handle}
}

// NewMessagePassing builds a RAW block that receives framed
// notifications from the paired writer over conn.
func NewMessagePassing(conn io.ReadWriteCloser) *Block {
	return &Block{Mode: ModeMessagePassing, conn: conn}
}

// NotifyWriter is the writer-side counterpart: send one notification
// frame after completing an op. Writers never see staleness or
// sequencing errors; that policing is entirely the reader's job.
func NotifyWriter(conn io.Writer, seq uint64, location, length int64) error {
	return writeMessage(conn, Message{Sequence: seq, Location: location, Length: length})
}

// Wait blocks until at least ioSize bytes of writer-confirmed data
// exist at or beyond currentByteLocation. ioSize and
// currentByteLocation describe the read the caller is about to issue.
func (b *Block) Wait(currentByteLocation, ioSize int64) error {
	switch b.Mode {
	case ModeFileStatPoll:
		return b.waitFileStatPoll(currentByteLocation, ioSize)
	default:
		return b.waitMessagePassing(ioSize)
	}
}

func (b *Block) waitFileStatPoll(currentByteLocation, ioSize int64) error {
	for {
		st, err := b.handle.Stat()
		if err != nil {
			// Pretend data_ready = io_size so the outer I/O fails rather
			// than looping forever.
			log.Warnf("[raw] stat failed, forcing data_ready=io_size: %v", err)
			b.dataReady = ioSize
			return nil
		}
		if st.Size > currentByteLocation {
			b.dataReady = st.Size - currentByteLocation
		} else {
			b.dataReady = 0
		}
		if b.dataReady >= ioSize {
			return nil
		}
	}
}

func (b *Block) waitMessagePassing(ioSize int64) error {
	for b.dataReady < ioSize {
		msg, err := readMessage(b.conn)
		if err != nil {
			log.Warnf("[raw] message read failed: %v", err)
			return err
		}
		if msg.Length != ioSize {
			log.Warnf("[raw] message length %d != io_size %d", msg.Length, ioSize)
		}

		if !b.initialized {
			// Sequence 0 initializes prev_loc/prev_len without a sequence
			// check.
			if msg.Sequence == 0 {
				b.prevLoc = msg.Location
				b.prevLen = 0
				b.initialized = true
				b.expectedSeq = 1
				continue
			}
		}

		if msg.Location <= b.prevLoc {
			log.Debugf("[raw] stale message at location %d (prev %d), discarding", msg.Location, b.prevLoc)
			continue
		}
		if msg.Sequence != b.expectedSeq {
			log.Warnf("[raw] unexpected sequence %d (expected %d)", msg.Sequence, b.expectedSeq)
		}

		dataLength := (msg.Location + msg.Length) - (b.prevLoc + b.prevLen)
		b.dataReady += dataLength
		b.prevLoc = msg.Location
		b.prevLen = msg.Length
		b.expectedSeq++
	}
	b.dataReady -= ioSize
	return nil
}

// DataReady returns the cumulative confirmed byte count, for tests.
func (b *Block) DataReady() int64 { return b.dataReady }
