package input

import (
	"io"
	"time"

	"github.com/tomz197/bomb-arena/internal/game/component"
)

// keyHoldDuration is how long a direction is considered held after its last
// press. It covers the delay before the terminal repeats a held key.
const keyHoldDuration = 200 * time.Millisecond

// Input represents the keys of the current frame. Directions stay set while
// held; the other keys are set only in the frame they were pressed.
type Input struct {
	Quit      bool
	Left      bool
	Right     bool
	Up        bool
	Down      bool
	Space     bool
	Enter     bool
	Backspace bool
	Escape    bool

	// Movement is the most recently pressed direction still held.
	Movement component.Movement
	// Pressed holds the raw bytes received during the frame, escape
	// sequences excluded.
	Pressed []byte
}

// Action returns the player action requested by the input.
func (in Input) Action() component.PlayerAction {
	return component.PlayerAction{Movement: in.Movement, DropBomb: in.Space}
}

// Typed returns the printable characters of the frame.
func (in Input) Typed() string {
	var out []byte
	for _, b := range in.Pressed {
		if b >= ' ' && b < 0x7f {
			out = append(out, b)
		}
	}
	return string(out)
}

// HasKey reports whether one of the given bytes was pressed in the frame.
func (in Input) HasKey(keys ...byte) bool {
	for _, b := range in.Pressed {
		for _, k := range keys {
			if b == k {
				return true
			}
		}
	}
	return false
}

// Stream delivers input bytes via a channel and tracks the held directions.
type Stream struct {
	ch     chan byte
	closed bool
	held   [component.MovementCount]time.Time
}

// StartStream spawns a goroutine that reads from r and sends bytes to the
// stream.
func StartStream(r io.ByteReader) *Stream {
	s := NewStream()
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

// NewStream creates a stream without reader. Bytes are given to Parse.
func NewStream() *Stream {
	return &Stream{ch: make(chan byte, 128)}
}

// Closed reports whether the reader reached its end.
func (s *Stream) Closed() bool {
	return s.closed
}

// ReadInput drains all available bytes from the stream without blocking.
func ReadInput(s *Stream) Input {
	var buf []byte

drain:
	for {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}

	return s.Parse(buf, time.Now())
}

// Parse interprets the bytes received at the given date.
func (s *Stream) Parse(buf []byte, now time.Time) Input {
	var in Input

	for i := 0; i < len(buf); i++ {
		b := buf[i]

		// CSI sequence: ESC [ <code>
		if b == '\x1b' && i+2 < len(buf) && buf[i+1] == '[' {
			if m, ok := arrowMovement(buf[i+2]); ok {
				s.held[m] = now
				i += 2
				continue
			}
		}

		in.Pressed = append(in.Pressed, b)
		s.applyByte(&in, b, now)
	}

	in.Movement = component.MovementIdle
	var latest time.Time
	for m := component.MovementUp; m < component.MovementCount; m++ {
		t := s.held[m]
		if now.Sub(t) < keyHoldDuration && t.After(latest) {
			latest = t
			in.Movement = m
		}
	}

	in.Up = in.Movement == component.MovementUp
	in.Down = in.Movement == component.MovementDown
	in.Left = in.Movement == component.MovementLeft
	in.Right = in.Movement == component.MovementRight

	return in
}

// Reset forgets the held directions.
func (s *Stream) Reset() {
	s.held = [component.MovementCount]time.Time{}
}

func arrowMovement(code byte) (component.Movement, bool) {
	switch code {
	case 'A':
		return component.MovementUp, true
	case 'B':
		return component.MovementDown, true
	case 'C':
		return component.MovementRight, true
	case 'D':
		return component.MovementLeft, true
	}
	return component.MovementIdle, false
}

func (s *Stream) applyByte(in *Input, b byte, now time.Time) {
	switch b {
	case 'q', 'Q':
		in.Quit = true
	case 'a', 'A', 'h', 'H':
		s.held[component.MovementLeft] = now
	case 'd', 'D', 'l', 'L':
		s.held[component.MovementRight] = now
	case 'w', 'W', 'k', 'K':
		s.held[component.MovementUp] = now
	case 's', 'S', 'j', 'J':
		s.held[component.MovementDown] = now
	case ' ':
		in.Space = true
	case '\n', '\r':
		in.Enter = true
	case '\b', '\x7f':
		in.Backspace = true
	case '\x1b':
		in.Escape = true
	}
}
