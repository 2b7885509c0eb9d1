package contest

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/tomz197/bomb-arena/internal/game/component"
	"github.com/tomz197/bomb-arena/internal/game/config"
)

// A timeline file starts with the magic, the format version and the
// fingerprint, all integers in big-endian order. Then comes one record per
// tick: the kick events of the tick, one byte each, then the actions of the
// players, two per byte, even indices in the low nibble.
const (
	timelineVersion uint32 = 3
	kickEventMarker        = 0x0f
)

var timelineMagic = [4]byte{'B', 'I', 'M', '!'}

var (
	ErrBadMagic          = errors.New("not a timeline file")
	ErrUnsupportedFormat = errors.New("unsupported timeline format")
	ErrTruncatedTimeline = errors.New("timeline ends in the middle of a tick")
)

// TimelineTick is the recorded input of one tick.
type TimelineTick struct {
	Actions []component.PlayerAction
	Kicks   []uint8
}

// Timeline is a recorded game.
type Timeline struct {
	Fingerprint Fingerprint
	Ticks       []TimelineTick
}

// TimelineWriter records the ticks of a game as they are played.
type TimelineWriter struct {
	w           *bufio.Writer
	closer      io.Closer
	playerCount int
}

// NewTimelineWriter writes the header of the timeline of fp into w. If w is
// an io.Closer, it is closed by Close.
func NewTimelineWriter(w io.Writer, fp Fingerprint) (*TimelineWriter, error) {
	tw := &TimelineWriter{
		w:           bufio.NewWriter(w),
		playerCount: int(fp.PlayerCount),
	}
	if c, ok := w.(io.Closer); ok {
		tw.closer = c
	}

	header := make([]byte, 0, 24)
	header = append(header, timelineMagic[:]...)
	header = binary.BigEndian.AppendUint32(header, timelineVersion)
	header = binary.BigEndian.AppendUint64(header, fp.Seed)
	header = binary.BigEndian.AppendUint32(header, uint32(fp.Features))
	header = append(header, fp.PlayerCount, fp.BrickWallProbability, fp.ArenaWidth, fp.ArenaHeight)

	if _, err := tw.w.Write(header); err != nil {
		return nil, fmt.Errorf("writing timeline header: %w", err)
	}

	return tw, nil
}

// WriteTick appends one tick. actions is indexed by player; missing
// players are idle.
func (tw *TimelineWriter) WriteTick(actions []component.PlayerAction, kicks []uint8) error {
	buf := make([]byte, len(kicks), len(kicks)+config.MaxPlayerCount)

	for i, p := range kicks {
		buf[i] = p<<4 | kickEventMarker
	}

	packed := make([]byte, (tw.playerCount+1)/2)
	for i := 0; i < tw.playerCount && i < len(actions); i++ {
		packed[i/2] |= actions[i].Nibble() << (4 * (i % 2))
	}

	if _, err := tw.w.Write(append(buf, packed...)); err != nil {
		return fmt.Errorf("writing timeline tick: %w", err)
	}
	return nil
}

// Record appends the pending actions and kicks of c.
func (tw *TimelineWriter) Record(c *Contest) error {
	return tw.WriteTick(c.PendingActions(), c.KickedPlayers())
}

// Flush writes the buffered ticks to the underlying writer.
func (tw *TimelineWriter) Flush() error {
	return tw.w.Flush()
}

// Close flushes the timeline and closes the underlying writer if it can be
// closed.
func (tw *TimelineWriter) Close() error {
	err := tw.w.Flush()

	if tw.closer != nil {
		if cerr := tw.closer.Close(); err == nil {
			err = cerr
		}
	}

	return err
}

// LoadTimeline reads a timeline written by a TimelineWriter.
func LoadTimeline(r io.Reader) (*Timeline, error) {
	br := bufio.NewReader(r)

	var header [24]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		return nil, fmt.Errorf("reading timeline header: %w", err)
	}

	if [4]byte(header[:4]) != timelineMagic {
		return nil, ErrBadMagic
	}

	if v := binary.BigEndian.Uint32(header[4:8]); v != timelineVersion {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedFormat, v)
	}

	t := &Timeline{
		Fingerprint: Fingerprint{
			Seed:                 binary.BigEndian.Uint64(header[8:16]),
			Features:             config.Feature(binary.BigEndian.Uint32(header[16:20])),
			PlayerCount:          header[20],
			BrickWallProbability: header[21],
			ArenaWidth:           header[22],
			ArenaHeight:          header[23],
		},
	}

	if err := t.Fingerprint.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	playerCount := int(t.Fingerprint.PlayerCount)

	var current TimelineTick
	remaining := playerCount

	for {
		b, err := br.ReadByte()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading timeline: %w", err)
		}

		if b&0x0f == kickEventMarker {
			current.Kicks = append(current.Kicks, b>>4)
			continue
		}

		for shift := 0; shift != 8 && remaining != 0; shift += 4 {
			a, ok := component.ActionFromNibble((b >> shift) & 0x0f)
			if !ok {
				return nil, fmt.Errorf("%w: invalid action in tick %d", ErrUnsupportedFormat, len(t.Ticks))
			}
			current.Actions = append(current.Actions, a)
			remaining--
		}

		if remaining == 0 {
			t.Ticks = append(t.Ticks, current)
			current = TimelineTick{}
			remaining = playerCount
		}
	}

	if len(current.Actions) != 0 {
		return t, ErrTruncatedTimeline
	}

	return t, nil
}

// Replay runs the recorded game from its first tick. each, if not nil, is
// called after every tick. The replay stops at the end of the timeline or
// at the end of the game.
func (t *Timeline) Replay(each func(tick int, c *Contest, result Result)) (*Contest, Result) {
	c := New(t.Fingerprint)
	result := StillRunning()

	for i, tick := range t.Ticks {
		for _, p := range tick.Kicks {
			c.KickPlayer(p)
		}
		for p, a := range tick.Actions {
			c.SetAction(uint8(p), a)
		}

		result = c.Tick()

		if each != nil {
			each(i, c, result)
		}

		if !result.IsStillRunning() {
			break
		}
	}

	return c, result
}
