package queue

import (
	"errors"
	"fmt"
	"iter"
	"strings"
)

var ErrBroken = errors.New("queue: broken invariant")

// Check walks q and verifies that head, tail and size agree.
func (q *Queue) Check() error {
	if q == nil {
		return nil
	}

	if q.size < 0 {
		return fmt.Errorf("%w: negative size %d", ErrBroken, q.size)
	}
	if q.size == 0 {
		if q.head != nil || q.tail != nil {
			return fmt.Errorf("%w: empty queue has head %t, tail %t", ErrBroken, q.head != nil, q.tail != nil)
		}
		return nil
	}
	if q.head == nil || q.tail == nil {
		return fmt.Errorf("%w: size %d but head %t, tail %t", ErrBroken, q.size, q.head != nil, q.tail != nil)
	}

	n := q.head
	for i := 1; i < q.size; i++ {
		n = n.next
		if n == nil {
			return fmt.Errorf("%w: chain ends after %d of %d nodes", ErrBroken, i, q.size)
		}
	}
	if n != q.tail {
		return fmt.Errorf("%w: node #%d is not tail", ErrBroken, q.size)
	}
	if n.next != nil {
		return fmt.Errorf("%w: tail has a successor, chain longer than %d", ErrBroken, q.size)
	}
	return nil
}

// All returns an iterator over the values of q from head to tail.
// q MUST NOT be modified during the iteration.
func (q *Queue) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		if q == nil {
			return
		}
		for n := q.head; n != nil; n = n.next {
			if !yield(string(n.value)) {
				return
			}
		}
	}
}

func (q *Queue) String() string {
	if q == nil {
		return "NULL"
	}
	var sb strings.Builder
	sb.WriteByte('[')
	for n := q.head; n != nil; n = n.next {
		if n != q.head {
			sb.WriteByte(' ')
		}
		sb.Write(n.value)
	}
	sb.WriteByte(']')
	return sb.String()
}
