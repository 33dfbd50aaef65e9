package link

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/rs/zerolog"
)

// Transport moves whole records between the controller and the display.
// Recv never blocks; it reports false when nothing is queued.
type Transport interface {
	Send(record []byte) error
	Recv() ([]byte, bool)
	Close() error
}

// InboxSize bounds the records queued between ticks.
const InboxSize = 32

var ErrClosed = errors.New("link: transport closed")

// StreamTransport frames records over a byte stream such as a serial port.
// A reader goroutine decodes packets into a bounded inbox; corrupt packets
// and overflow are dropped.
type StreamTransport struct {
	rw  io.ReadWriteCloser
	enc *Encoder
	log zerolog.Logger

	// retryEOF keeps reading after io.EOF, which serial ports report on a
	// read timeout.
	retryEOF bool

	inbox chan []byte
	done  chan struct{}
	once  sync.Once

	mu      sync.Mutex
	dropped int
}

func NewStreamTransport(rw io.ReadWriteCloser, log zerolog.Logger) *StreamTransport {
	return newStreamTransport(rw, log, false)
}

func newStreamTransport(rw io.ReadWriteCloser, log zerolog.Logger, retryEOF bool) *StreamTransport {
	t := &StreamTransport{
		rw:       rw,
		enc:      NewEncoder(rw),
		log:      log,
		retryEOF: retryEOF,
		inbox:    make(chan []byte, InboxSize),
		done:     make(chan struct{}),
	}
	go t.readLoop()
	return t
}

func (t *StreamTransport) readLoop() {
	dec := NewDecoder(t.rw)
	for {
		p, err := dec.ReadPacket()
		if err != nil {
			select {
			case <-t.done:
				return
			default:
			}
			switch {
			case errors.Is(err, ErrCRC), errors.Is(err, ErrFrame):
				t.drop()
				t.log.Debug().Err(err).Msg("dropping packet")
				continue
			case errors.Is(err, io.EOF) && t.retryEOF:
				continue
			case errors.Is(err, io.EOF), errors.Is(err, io.ErrClosedPipe), errors.Is(err, net.ErrClosed):
				return
			}
			t.log.Warn().Err(err).Msg("link read failed")
			return
		}
		select {
		case t.inbox <- p.Payload:
		default:
			t.drop()
			t.log.Debug().Msg("inbox full, dropping record")
		}
	}
}

func (t *StreamTransport) drop() {
	t.mu.Lock()
	t.dropped++
	t.mu.Unlock()
}

// Dropped counts packets lost to corruption or a full inbox.
func (t *StreamTransport) Dropped() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

func (t *StreamTransport) Send(record []byte) error {
	select {
	case <-t.done:
		return ErrClosed
	default:
	}
	return t.enc.WritePacket(0, record)
}

func (t *StreamTransport) Recv() ([]byte, bool) {
	select {
	case b := <-t.inbox:
		return b, true
	default:
		return nil, false
	}
}

func (t *StreamTransport) Close() error {
	var err error
	t.once.Do(func() {
		close(t.done)
		err = t.rw.Close()
	})
	return err
}

// Pipe returns two connected in-memory transports.
func Pipe(log zerolog.Logger) (*StreamTransport, *StreamTransport) {
	a, b := net.Pipe()
	return NewStreamTransport(a, log.With().Str("end", "a").Logger()),
		NewStreamTransport(b, log.With().Str("end", "b").Logger())
}
