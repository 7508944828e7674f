package relay

// sendQueue buffers model-bound messages that arrive while the upstream
// connection is not open. It is bounded with drop-oldest overflow: under
// sustained upstream unavailability the newest conversation state wins.
type sendQueue struct {
	max   int
	items [][]byte
}

func newSendQueue(max int) *sendQueue {
	if max <= 0 {
		max = 64
	}
	return &sendQueue{max: max}
}

// Push appends a message, dropping the oldest entry if the queue is full.
// It reports whether a drop happened.
func (q *sendQueue) Push(msg []byte) (dropped bool) {
	if len(q.items) >= q.max {
		q.items = q.items[1:]
		dropped = true
	}
	q.items = append(q.items, msg)
	return
}

// Drain returns the queued messages in arrival order and empties the queue.
func (q *sendQueue) Drain() [][]byte {
	out := q.items
	q.items = nil
	return out
}

func (q *sendQueue) Len() int { return len(q.items) }

func (q *sendQueue) Clear() { q.items = nil }
