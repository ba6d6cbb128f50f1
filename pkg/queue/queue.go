// Package queue implements a string queue on top of a singly linked list.
// Elements can be inserted at both ends and removed from the head, so the
// same Queue serves as a FIFO queue or a LIFO stack. The whole list can be
// reversed or sorted in place.
//
// A Queue is not safe for concurrent use. Callers sharing one between
// goroutines must provide their own synchronization.
package queue

import (
	"sync"

	"github.com/pmkol/strqueue/pkg/pool"
)

type node struct {
	value []byte
	next  *node
}

var nodePool = sync.Pool{
	New: func() any {
		return new(node)
	},
}

// Queue owns a chain of nodes. head owns the chain, tail is only a
// shortcut to the last node and must always be the node reached after
// size-1 steps from head.
type Queue struct {
	head *node
	tail *node
	size int

	alloc *pool.Allocator
}

// New returns an empty Queue that never fails to allocate.
func New() *Queue {
	return &Queue{}
}

// NewWithAllocator returns an empty Queue whose nodes and payloads are
// admitted by a. It returns nil if a refuses the handle itself.
func NewWithAllocator(a *pool.Allocator) *Queue {
	if err := a.Acquire(); err != nil {
		return nil
	}
	return &Queue{alloc: a}
}

// Free releases every node and payload owned by q, then q itself.
// q MUST NOT be used after Free. Free on a nil Queue is a no-op.
func (q *Queue) Free() {
	if q == nil {
		return
	}
	for q.head != nil {
		n := q.head
		q.head = n.next
		q.releaseNode(n)
	}
	q.tail = nil
	q.size = 0
	if q.alloc != nil {
		q.alloc.Release()
		q.alloc = nil
	}
}

// newNode allocates a node holding a private copy of s.
// Nothing is left allocated if it fails.
func (q *Queue) newNode(s string) *node {
	if err := q.alloc.Acquire(); err != nil {
		return nil
	}
	v, err := q.alloc.GetBuf(len(s))
	if err != nil {
		q.alloc.Release()
		return nil
	}
	copy(v, s)

	n := nodePool.Get().(*node)
	n.value = v
	return n
}

func (q *Queue) releaseNode(n *node) {
	q.alloc.ReleaseBuf(n.value)
	q.alloc.Release()
	*n = node{}
	nodePool.Put(n)
}

// InsertHead inserts a copy of s at the head of q.
// It returns false, leaving q unchanged, if q is nil or the allocation
// failed.
func (q *Queue) InsertHead(s string) bool {
	if q == nil {
		return false
	}
	n := q.newNode(s)
	if n == nil {
		return false
	}

	n.next = q.head
	q.head = n
	if q.tail == nil {
		q.tail = n
	}
	q.size++
	return true
}

// InsertTail inserts a copy of s at the tail of q in O(1).
// It returns false, leaving q unchanged, if q is nil or the allocation
// failed.
func (q *Queue) InsertTail(s string) bool {
	if q == nil {
		return false
	}
	n := q.newNode(s)
	if n == nil {
		return false
	}

	if q.tail == nil {
		q.head = n
	} else {
		q.tail.next = n
	}
	q.tail = n
	q.size++
	return true
}

// RemoveHead removes the head element of q. It returns false if q is nil
// or empty.
//
// If buf is not empty, the removed value is copied into it, truncated to
// len(buf)-1 bytes, and followed by a zero byte. A nil buf discards the
// value.
func (q *Queue) RemoveHead(buf []byte) bool {
	if q == nil || q.head == nil {
		return false
	}

	n := q.head
	q.head = n.next
	q.size--
	if q.size == 0 {
		q.tail = nil
	}

	if len(buf) > 0 {
		c := copy(buf[:len(buf)-1], n.value)
		buf[c] = 0
	}

	q.releaseNode(n)
	return true
}

// Size returns the number of elements in q, or 0 if q is nil.
func (q *Queue) Size() int {
	if q == nil {
		return 0
	}
	return q.size
}

// Reverse reverses the order of the elements of q in place.
// No node is allocated or freed.
func (q *Queue) Reverse() {
	if q == nil || q.size < 2 {
		return
	}

	var prev *node
	curr := q.head
	for curr != nil {
		next := curr.next
		curr.next = prev
		prev = curr
		curr = next
	}

	q.head, q.tail = q.tail, q.head
}
