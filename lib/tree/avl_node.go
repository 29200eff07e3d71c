package tree

import (
	"github.com/benz9527/xavl/lib/infra"
)

var _ AVLNode[int, struct{}] = (*avlNode[int, struct{}])(nil)

type avlNode[K infra.OrderedKey, V any] struct {
	parent *avlNode[K, V]
	left   *avlNode[K, V]
	right  *avlNode[K, V]
	key    K
	val    V
	height int
	hasKV  bool
}

// A virtual node stands in for every missing child of a real node, so
// height and balance factor lookups never branch on nil.
func newVirtualNode[K infra.OrderedKey, V any](parent *avlNode[K, V]) *avlNode[K, V] {
	return &avlNode[K, V]{
		parent: parent,
		height: -1,
	}
}

func newAVLNode[K infra.OrderedKey, V any](key K, val V) *avlNode[K, V] {
	node := &avlNode[K, V]{
		key:   key,
		val:   val,
		hasKV: true,
	}
	node.left = newVirtualNode[K, V](node)
	node.right = newVirtualNode[K, V](node)
	return node
}

// NaN is the only ordered key that is not equal to itself.
func isInvalidKey[K infra.OrderedKey](key K) bool {
	return key != key
}

func (node *avlNode[K, V]) Key() K {
	return node.key
}

func (node *avlNode[K, V]) Val() V {
	return node.val
}

func (node *avlNode[K, V]) HasKeyVal() bool {
	if node == nil {
		return false
	}
	return node.hasKV
}

func (node *avlNode[K, V]) Height() int {
	if node == nil {
		return -1
	}
	return node.height
}

func (node *avlNode[K, V]) BalanceFactor() int {
	if !node.isReal() {
		return 0
	}
	return node.balanceFactor()
}

func (node *avlNode[K, V]) Left() AVLNode[K, V] {
	if node == nil || node.left == nil {
		return nil
	}
	return node.left
}

func (node *avlNode[K, V]) Right() AVLNode[K, V] {
	if node == nil || node.right == nil {
		return nil
	}
	return node.right
}

func (node *avlNode[K, V]) Parent() AVLNode[K, V] {
	if node == nil || node.parent == nil {
		return nil
	}
	return node.parent
}

func (node *avlNode[K, V]) isReal() bool {
	return node != nil && node.hasKV
}

func (node *avlNode[K, V]) isRoot() bool {
	return node != nil && node.parent == nil
}

func (node *avlNode[K, V]) isLeaf() bool {
	return node.isReal() && !node.left.isReal() && !node.right.isReal()
}

func (node *avlNode[K, V]) Direction() AVLDirection {
	if node == nil {
		// impossible run to here
		panic( /* debug assertion */ "[avltree] nil node without direction")
	}

	if node.isRoot() {
		return Root
	}
	if node == node.parent.left {
		return Left
	}
	return Right
}

func (node *avlNode[K, V]) balanceFactor() int {
	return node.left.height - node.right.height
}

func (node *avlNode[K, V]) calcHeight() int {
	return max(node.left.height, node.right.height) + 1
}

func (node *avlNode[K, V]) updateHeight() {
	node.height = node.calcHeight()
}

func (node *avlNode[K, V]) fixLink() {
	if node.left != nil {
		node.left.parent = node
	}
	if node.right != nil {
		node.right.parent = node
	}
}

// reset turns a real node into a detached single node tree.
func (node *avlNode[K, V]) reset() {
	node.parent = nil
	node.left = newVirtualNode[K, V](node)
	node.right = newVirtualNode[K, V](node)
	node.height = 0
}

// detach unlinks a removed node so that it is no longer reachable from
// (nor reaches into) any tree.
func (node *avlNode[K, V]) detach() {
	node.parent = nil
	node.left = nil
	node.right = nil
}

func (node *avlNode[K, V]) minimum() *avlNode[K, V] {
	aux := node
	for ; aux.isReal() && aux.left.isReal(); aux = aux.left {
	}
	return aux
}

func (node *avlNode[K, V]) maximum() *avlNode[K, V] {
	aux := node
	for ; aux.isReal() && aux.right.isReal(); aux = aux.right {
	}
	return aux
}

// The pred node of the current node is its previous node in sorted order.
func (node *avlNode[K, V]) pred() *avlNode[K, V] {
	x := node
	if !x.isReal() {
		return nil
	}
	if x.left.isReal() {
		return x.left.maximum()
	}

	aux := x.parent
	// Backtrack to father node that is the x's pred.
	for aux != nil && x == aux.left {
		x = aux
		aux = aux.parent
	}
	return aux
}

// The succ node of the current node is its next node in sorted order.
func (node *avlNode[K, V]) succ() *avlNode[K, V] {
	x := node
	if !x.isReal() {
		return nil
	}
	if x.right.isReal() {
		return x.right.minimum()
	}

	aux := x.parent
	// Backtrack to father node that is the x's succ.
	for aux != nil && x == aux.right {
		x = aux
		aux = aux.parent
	}
	return aux
}
