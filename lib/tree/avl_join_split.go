package tree

import (
	"github.com/benz9527/xavl/lib/infra"
)

// Join concatenates tree, other and a new node (key, val) into a new tree.
// All keys of one tree must be smaller than key and all keys of the other
// greater; either tree may be the smaller side and either may be empty.
// Both trees are empty after a successful call.
func (tree *avlTree[K, V]) Join(other AVLTree[K, V], key K, val V) (AVLTree[K, V], error) {
	that, ok := other.(*avlTree[K, V])
	if !ok || that == nil {
		return nil, infra.WrapErrorStackWithMessage(ErrForeignTree, "[avltree] join")
	}
	if that == tree {
		return nil, infra.WrapErrorStackWithMessage(ErrJoinSelf, "[avltree] join")
	}
	if isInvalidKey(key) {
		return nil, infra.WrapErrorStackWithMessage(ErrInvalidKey, "[avltree] join")
	}

	var lower, upper *avlTree[K, V]
	switch {
	case tree.allLess(key) && that.allGreater(key):
		lower, upper = tree, that
	case that.allLess(key) && tree.allGreater(key):
		lower, upper = that, tree
	default:
		return nil, infra.WrapErrorStackWithMessage(ErrJoinKeyRange, "[avltree] join")
	}

	joined := &avlTree[K, V]{}
	joined.join(lower.root, newAVLNode[K, V](key, val), upper.root)
	tree.root, that.root = nil, nil
	return joined, nil
}

func (tree *avlTree[K, V]) allLess(key K) bool {
	return tree.root == nil || tree.root.maximum().key < key
}

func (tree *avlTree[K, V]) allGreater(key K) bool {
	return tree.root == nil || tree.root.minimum().key > key
}

/*
join replaces the tree content by l + y + r. l and r are detached
roots (or nil) and y is a single node with virtual children. Every key
in l is smaller than y.key and every key in r is greater.

When l is the taller one, the walk goes down l's right spine to the
first node C whose height is not above r's height, then y takes C's
place with C and r as its children:

	        L                    L
	       / \                  / \
	     ..   ..              ..   ..
	            \                    \
	             C   +  y  +  R       y
	            / \                  / \
	                                C   R

C and R differ by at most one in height, so y is balanced. Only the
spine above y may get a +2/-2 balance factor, fixed by the walk in
join mode. The mirror case descends r's left spine.
*/
func (tree *avlTree[K, V]) join(l, y, r *avlNode[K, V]) int {
	switch {
	case l == nil && r == nil:
		tree.setRoot(y)
		return 0
	case l == nil:
		tree.setRoot(r)
		return tree.insertNode(y)
	case r == nil:
		tree.setRoot(l)
		return tree.insertNode(y)
	}

	var c *avlNode[K, V]
	if l.height >= r.height {
		tree.setRoot(l)
		for c = l; c.height > r.height; c = c.right {
		}
		tree.transplant(c, y)
		y.left, y.right = c, r
	} else {
		tree.setRoot(r)
		for c = r; c.height > l.height; c = c.left {
		}
		tree.transplant(c, y)
		y.left, y.right = l, c
	}
	y.fixLink()
	y.updateHeight()
	return tree.rebalance(joinRebalance, y)
}

// subtreeOf cuts a real subtree off its parent. A virtual node yields nil.
func subtreeOf[K infra.OrderedKey, V any](node *avlNode[K, V]) *avlNode[K, V] {
	if !node.isReal() {
		return nil
	}
	node.parent = nil
	return node
}

/*
Split starts with X's own subtrees as the lower and upper accumulators
and climbs X's ancestors. An ancestor P reached from its right child
holds keys smaller than everything collected so far on the upper side
of P, so P and its left subtree are joined in front of the lower
accumulator; reached from the left child, P and its right subtree are
joined behind the upper accumulator.

	          P2
	         /  \
	       P1    ..        lower = P1.left + P1 + X.left
	      /  \             upper = X.right + P2 + P2.right
	    ..    X
	         / \

The accumulator heights grow along the path, so the joins cost
O(log n) in total.
*/
func (tree *avlTree[K, V]) Split(node AVLNode[K, V]) (AVLTree[K, V], AVLTree[K, V], error) {
	x, err := tree.realNodeOf(node)
	if err != nil {
		return nil, nil, err
	}

	lower, upper := &avlTree[K, V]{}, &avlTree[K, V]{}
	lower.setRoot(subtreeOf(x.left))
	upper.setRoot(subtreeOf(x.right))

	for cur, p := x, x.parent; p != nil; {
		next := p.parent
		if cur == p.right {
			sub := subtreeOf(p.left)
			p.reset()
			lower.join(sub, p, lower.root)
		} else {
			sub := subtreeOf(p.right)
			p.reset()
			upper.join(upper.root, p, sub)
		}
		cur, p = p, next
	}

	tree.root = nil
	x.detach()
	return lower, upper, nil
}
