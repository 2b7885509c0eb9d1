package component

// Movement is the movement requested by a player for one tick. The values
// fit in three bits and are part of the wire and timeline formats.
type Movement uint8

const (
	MovementIdle Movement = iota
	MovementUp
	MovementDown
	MovementLeft
	MovementRight

	MovementCount
)

// String returns the name of the movement.
func (m Movement) String() string {
	switch m {
	case MovementIdle:
		return "idle"
	case MovementUp:
		return "up"
	case MovementDown:
		return "down"
	case MovementLeft:
		return "left"
	case MovementRight:
		return "right"
	}
	return "invalid"
}

// PlayerAction is the request of a player for the current tick. The
// pipeline consumes and clears it every tick.
type PlayerAction struct {
	Movement Movement
	DropBomb bool
}

// IsIdle reports whether the action requests nothing.
func (a PlayerAction) IsIdle() bool {
	return a.Movement == MovementIdle && !a.DropBomb
}

// Nibble packs the action in four bits: the movement in the low three bits
// and the bomb flag in the fourth. Messages and timelines share this layout.
func (a PlayerAction) Nibble() uint8 {
	b := uint8(a.Movement) & 0x7
	if a.DropBomb {
		b |= 0x8
	}
	return b
}

// ActionFromNibble is the inverse of PlayerAction.Nibble. ok is false when
// the movement is out of range.
func ActionFromNibble(n uint8) (a PlayerAction, ok bool) {
	a = PlayerAction{Movement: Movement(n & 0x7), DropBomb: n&0x8 != 0}
	return a, a.Movement < MovementCount
}

// ActionQueueCapacity is the number of slots of a PlayerActionQueue.
const ActionQueueCapacity = 8

// PlayerActionQueue buffers actions waiting for their tick. It is a ring:
// pushing into a full queue evicts the oldest action.
type PlayerActionQueue struct {
	slots [ActionQueueCapacity]PlayerAction
	head  uint8
	size  uint8
}

// Len returns the number of queued actions.
func (q *PlayerActionQueue) Len() int {
	return int(q.size)
}

// Push appends a to the queue. When the queue was full, the evicted oldest
// action is returned with evicted set to true.
func (q *PlayerActionQueue) Push(a PlayerAction) (oldest PlayerAction, evicted bool) {
	if q.size == ActionQueueCapacity {
		oldest = q.slots[q.head]
		q.slots[q.head] = a
		q.head = (q.head + 1) % ActionQueueCapacity
		return oldest, true
	}

	q.slots[(q.head+q.size)%ActionQueueCapacity] = a
	q.size++
	return PlayerAction{}, false
}

// Pop removes and returns the oldest action. ok is false on an empty queue.
func (q *PlayerActionQueue) Pop() (a PlayerAction, ok bool) {
	if q.size == 0 {
		return PlayerAction{}, false
	}

	a = q.slots[q.head]
	q.slots[q.head] = PlayerAction{}
	q.head = (q.head + 1) % ActionQueueCapacity
	q.size--
	return a, true
}

// At returns the i-th oldest action. i must be less than Len().
func (q *PlayerActionQueue) At(i int) PlayerAction {
	return q.slots[(int(q.head)+i)%ActionQueueCapacity]
}

// Clear empties the queue.
func (q *PlayerActionQueue) Clear() {
	*q = PlayerActionQueue{}
}
