// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package avltree

// Iter walks a Tree in-order (ascending, case-insensitive name order) using
// an explicit parent-pointer stack rather than recursion — the Go
// equivalent of the coroutine-style iterator described for the store scan.
//
// An Iter remains valid only as long as the tree it was created from is not
// mutated; Insert/Delete/Clear after a GetIter call invalidates any
// outstanding iterators (their future behavior is undefined, matching the
// AVL tree's documented contract).
type Iter[T Named] struct {
	stack []*node[T]
}

// GetIter returns an iterator positioned before the smallest element.
func GetIter[T Named](t *Tree[T]) *Iter[T] {
	it := &Iter[T]{}
	it.pushLeftSpine(t.root)
	return it
}

func (it *Iter[T]) pushLeftSpine(n *node[T]) {
	for n != nil {
		it.stack = append(it.stack, n)
		n = n.left
	}
}

// HasNext reports whether a call to GetNext would return an element.
func (it *Iter[T]) HasNext() bool {
	return len(it.stack) > 0
}

// PeekNext returns the next element without advancing the iterator.
func (it *Iter[T]) PeekNext() (T, bool) {
	if len(it.stack) == 0 {
		var zero T
		return zero, false
	}
	return it.stack[len(it.stack)-1].value, true
}

// GetNext returns the next element in ascending order and advances the
// iterator, or returns false once exhausted.
func (it *Iter[T]) GetNext() (T, bool) {
	if len(it.stack) == 0 {
		var zero T
		return zero, false
	}
	top := it.stack[len(it.stack)-1]
	it.stack = it.stack[:len(it.stack)-1]
	it.pushLeftSpine(top.right)
	return top.value, true
}

// Destroy releases the iterator's internal state. Provided for symmetry
// with the teacher's explicit create/destroy resource pairs; Go's garbage
// collector makes it a no-op but callers should still call it so the
// iterator cannot be advanced further by mistake.
func (it *Iter[T]) Destroy() {
	it.stack = nil
}
