package queue

import "bytes"

// Sort sorts the elements of q in ascending byte-wise order. The sort is
// stable and only relinks existing nodes.
func (q *Queue) Sort() {
	if q == nil || q.head == nil || q.size < 2 {
		return
	}
	q.head = mergeSort(q.head)

	t := q.tail
	for t.next != nil {
		t = t.next
	}
	q.tail = t
}

// mergeSort sorts the chain starting at head and returns the new head.
// Recursion depth is bounded by log2 of the chain length.
func mergeSort(head *node) *node {
	if head == nil || head.next == nil {
		return head
	}

	// slow stops at the last node of the first half.
	slow, fast := head, head.next
	for fast != nil && fast.next != nil {
		slow = slow.next
		fast = fast.next.next
	}
	second := slow.next
	slow.next = nil

	return merge(mergeSort(head), mergeSort(second))
}

// merge splices two sorted chains together. On equal values the node of
// first wins, which keeps the sort stable.
func merge(first, second *node) *node {
	var head *node
	p := &head
	for first != nil && second != nil {
		if bytes.Compare(second.value, first.value) < 0 {
			*p = second
			second = second.next
		} else {
			*p = first
			first = first.next
		}
		p = &(*p).next
	}

	if first != nil {
		*p = first
	} else {
		*p = second
	}
	return head
}
