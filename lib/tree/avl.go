package tree

import (
	"github.com/samber/lo"

	"github.com/benz9527/xavl/lib/infra"
)

var _ AVLTree[int, struct{}] = (*avlTree[int, struct{}])(nil)

type rebalanceMode uint8

const (
	insertRebalance rebalanceMode = iota
	deleteRebalance
	joinRebalance
)

type avlTree[K infra.OrderedKey, V any] struct {
	root *avlNode[K, V]
}

func (tree *avlTree[K, V]) Root() AVLNode[K, V] {
	if tree.root == nil {
		return nil
	}
	return tree.root
}

func (tree *avlTree[K, V]) MinNode() AVLNode[K, V] {
	if tree.root == nil {
		return nil
	}
	return tree.root.minimum()
}

func (tree *avlTree[K, V]) MaxNode() AVLNode[K, V] {
	if tree.root == nil {
		return nil
	}
	return tree.root.maximum()
}

func (tree *avlTree[K, V]) Successor(node AVLNode[K, V]) AVLNode[K, V] {
	x, ok := node.(*avlNode[K, V])
	if !ok {
		return nil
	}
	if succ := x.succ(); succ != nil {
		return succ
	}
	return nil
}

func (tree *avlTree[K, V]) Predecessor(node AVLNode[K, V]) AVLNode[K, V] {
	x, ok := node.(*avlNode[K, V])
	if !ok {
		return nil
	}
	if pred := x.pred(); pred != nil {
		return pred
	}
	return nil
}

func (tree *avlTree[K, V]) setRoot(node *avlNode[K, V]) {
	tree.root = node
	if node != nil {
		node.parent = nil
	}
}

// transplant puts v at u's position. u may be a virtual node.
func (tree *avlTree[K, V]) transplant(u, v *avlNode[K, V]) {
	switch dir := u.Direction(); dir {
	case Root:
		tree.root = v
	case Left:
		u.parent.left = v
	case Right:
		u.parent.right = v
	default:
		// impossible run to here
		panic( /* debug assertion */ "[avltree] unknown node direction to transplant")
	}
	if v != nil {
		v.parent = u.parent
	}
}

// realNodeOf checks that node is a real node reachable from this
// tree's root.
func (tree *avlTree[K, V]) realNodeOf(node AVLNode[K, V]) (*avlNode[K, V], error) {
	x, ok := node.(*avlNode[K, V])
	if !ok || !x.isReal() {
		return nil, infra.WrapErrorStackWithMessage(ErrNodeNotReal, "[avltree] node precondition")
	}
	top := x
	for top.parent != nil {
		top = top.parent
	}
	if top != tree.root {
		return nil, infra.WrapErrorStackWithMessage(ErrNodeNotInTree, "[avltree] node precondition")
	}
	return x, nil
}

/*
	   |                         |
	   X                         Y
	  / \     leftRotate(X)     / \
	 L   Y    ============>    X   Yr
	    / \                   / \
	  Yl   Yr                L   Yl
*/
func (tree *avlTree[K, V]) leftRotate(x *avlNode[K, V]) {
	if !x.isReal() || !x.right.isReal() {
		// impossible run to here
		panic( /* debug assertion */ "[avltree] left rotate node x is virtual or x.right is virtual")
	}

	p, y := x.parent, x.right
	dir := x.Direction()
	x.right, y.left = y.left, x

	x.fixLink()
	y.fixLink()

	switch dir {
	case Root:
		tree.root = y
	case Left:
		p.left = y
	case Right:
		p.right = y
	default:
		// impossible run to here
		panic( /* debug assertion */ "[avltree] unknown node direction to left-rotate")
	}
	y.parent = p

	x.updateHeight()
	y.updateHeight()
}

/*
	     |                         |
	     X                         Y
	    / \     rightRotate(X)    / \
	   Y   R    ============>   Yl   X
	  / \                           / \
	Yl   Yr                       Yr   R
*/
func (tree *avlTree[K, V]) rightRotate(x *avlNode[K, V]) {
	if !x.isReal() || !x.left.isReal() {
		// impossible run to here
		panic( /* debug assertion */ "[avltree] right rotate node x is virtual or x.left is virtual")
	}

	p, y := x.parent, x.left
	dir := x.Direction()
	x.left, y.right = y.right, x

	x.fixLink()
	y.fixLink()

	switch dir {
	case Root:
		tree.root = y
	case Left:
		p.left = y
	case Right:
		p.right = y
	default:
		// impossible run to here
		panic( /* debug assertion */ "[avltree] unknown node direction to right-rotate")
	}
	y.parent = p

	x.updateHeight()
	y.updateHeight()
}

/*
The walk goes from x up to the root. A node whose balance factor is
within [-1, 1] only refreshes its cached height; every refresh that
changes the height counts as one promotion.

A node whose balance factor is +2 or -2 is rotated. The heavy child's
balance factor picks the rotation:

	bf  child  rotation
	-2   -1    left(X)
	-2   +1    right(X.right), left(X)
	+2   +1    right(X)
	+2   -1    left(X.left), right(X)

A zero child balance factor takes the single rotation after a delete
or a join and the double rotation after an insert. One insert never
produces it.
*/
func (tree *avlTree[K, V]) rebalance(mode rebalanceMode, x *avlNode[K, V]) int {
	promotions := 0
	for x != nil {
		grandpa := x.parent
		switch bf := x.balanceFactor(); {
		case bf >= -1 && bf <= 1:
			if h := x.calcHeight(); h != x.height {
				x.height = h
				promotions++
			}
		case bf == -2:
			if rbf := x.right.balanceFactor(); rbf == -1 || (rbf == 0 && mode != insertRebalance) {
				tree.leftRotate(x)
			} else {
				tree.rightRotate(x.right)
				tree.leftRotate(x)
			}
		case bf == 2:
			if lbf := x.left.balanceFactor(); lbf == 1 || (lbf == 0 && mode != insertRebalance) {
				tree.rightRotate(x)
			} else {
				tree.leftRotate(x.left)
				tree.rightRotate(x)
			}
		default:
			// impossible run to here
			panic( /* debug assertion */ "[avltree] balance factor out of range")
		}
		x = grandpa
	}
	return promotions
}

// descend walks down from start. It returns the node holding key (nil
// if absent), the last real node visited, which is the insert parent
// when key is absent, and the number of real nodes visited.
func (tree *avlTree[K, V]) descend(start *avlNode[K, V], key K) (found, last *avlNode[K, V], visits int) {
	for aux := start; aux.isReal(); {
		visits++
		last = aux
		if key == aux.key {
			return aux, last, visits
		} else if key < aux.key {
			aux = aux.left
		} else {
			aux = aux.right
		}
	}
	return nil, last, visits
}

func (tree *avlTree[K, V]) Search(key K) (AVLNode[K, V], int) {
	if tree.root == nil || isInvalidKey(key) {
		return nil, 0
	}
	found, _, visits := tree.descend(tree.root, key)
	if found == nil {
		return nil, visits
	}
	return found, visits
}

func (tree *avlTree[K, V]) Insert(key K, val V) (AVLNode[K, V], int, int) {
	if isInvalidKey(key) {
		return nil, 0, 0
	}
	if tree.root == nil {
		z := newAVLNode[K, V](key, val)
		tree.setRoot(z)
		return z, 0, 0
	}
	found, parent, visits := tree.descend(tree.root, key)
	return tree.splice(found, parent, visits, key, val)
}

// splice finishes an upsert once the descent is done. An existing key
// only gets its value replaced.
func (tree *avlTree[K, V]) splice(found, parent *avlNode[K, V], visits int, key K, val V) (AVLNode[K, V], int, int) {
	if found != nil {
		found.val = val
		return found, visits, 0
	}
	z := newAVLNode[K, V](key, val)
	tree.attach(parent, z)
	return z, visits, tree.rebalance(insertRebalance, parent)
}

func (tree *avlTree[K, V]) attach(parent, z *avlNode[K, V]) {
	if z.key < parent.key {
		parent.left = z
	} else {
		parent.right = z
	}
	z.parent = parent
}

// insertNode links a detached single node into the tree.
func (tree *avlTree[K, V]) insertNode(z *avlNode[K, V]) int {
	if tree.root == nil {
		tree.setRoot(z)
		return 0
	}
	found, parent, _ := tree.descend(tree.root, z.key)
	if found != nil {
		// impossible run to here
		panic( /* debug assertion */ "[avltree] insert a duplicated node")
	}
	tree.attach(parent, z)
	return tree.rebalance(insertRebalance, parent)
}

/*
d1: Z is a leaf. Its position takes a new virtual node, or the tree
becomes empty when Z is the root.

d2: Z has a single real child C. C takes Z's position.

d3: Z has two real children. Its successor S (the minimum of Z.right,
so S.left is virtual) leaves its position to S.right and then takes
Z's position, children and height.

	    |                    |
	    Z                    S
	   / \                  / \
	  L   R   ========>    L   R
	     / \                  / \
	    S  ..               Sr  ..
	     \
	     Sr

The rebalancing walk starts at the parent of the position that really
lost a node: Z's parent in d1 and d2, S's old parent in d3, or S
itself in d3 when S was Z's right child.
*/
func (tree *avlTree[K, V]) Delete(node AVLNode[K, V]) error {
	z, err := tree.realNodeOf(node)
	if err != nil {
		return err
	}

	var start *avlNode[K, V]
	if /* d3 */ z.left.isReal() && z.right.isReal() {
		if s := z.right.minimum(); s == z.right {
			start = s
		} else {
			start = s.parent
		}
	} else /* d1, d2 */ {
		start = z.parent
	}

	tree.removeNode(z)
	tree.rebalance(deleteRebalance, start)
	z.detach()
	return nil
}

func (tree *avlTree[K, V]) removeNode(z *avlNode[K, V]) {
	switch {
	case /* d1 */ z.isLeaf():
		if z.isRoot() {
			tree.root = nil
			return
		}
		tree.transplant(z, newVirtualNode[K, V](nil))
	case /* d2 */ !z.left.isReal():
		tree.transplant(z, z.right)
	case /* d2 */ !z.right.isReal():
		tree.transplant(z, z.left)
	default /* d3 */ :
		s := z.right.minimum()
		tree.transplant(s, s.right)
		s.left, s.right = z.left, z.right
		s.fixLink()
		s.height = z.height
		tree.transplant(z, s)
	}
}

// Inorder traversal to implement the DFS.
func (tree *avlTree[K, V]) Foreach(action func(idx int64, key K, val V) bool) {
	aux := tree.root
	if aux == nil {
		return
	}

	stack := make([]*avlNode[K, V], 0, aux.height+1)
	defer func() {
		clear(stack)
	}()

	for ; aux.isReal(); aux = aux.left {
		stack = append(stack, aux)
	}

	idx := int64(0)
	for size := len(stack); size > 0; size = len(stack) {
		if aux = stack[size-1]; !action(idx, aux.key, aux.val) {
			return
		}
		idx++
		stack = stack[:size-1]
		for aux = aux.right; aux.isReal(); aux = aux.left {
			stack = append(stack, aux)
		}
	}
}

func (tree *avlTree[K, V]) Size() int64 {
	size := int64(0)
	tree.Foreach(func(int64, K, V) bool {
		size++
		return true
	})
	return size
}

func (tree *avlTree[K, V]) ToSortedArray() []lo.Entry[K, V] {
	entries := make([]lo.Entry[K, V], 0, 16)
	tree.Foreach(func(_ int64, key K, val V) bool {
		entries = append(entries, lo.Entry[K, V]{Key: key, Value: val})
		return true
	})
	return entries
}

func (tree *avlTree[K, V]) Release() {
	aux := tree.root
	tree.root = nil
	if aux == nil {
		return
	}

	stack := make([]*avlNode[K, V], 0, aux.height+2)
	defer func() {
		clear(stack)
	}()
	stack = append(stack, aux)

	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		stack = stack[:size-1]
		if aux.left.isReal() {
			stack = append(stack, aux.left)
		}
		if aux.right.isReal() {
			stack = append(stack, aux.right)
		}
		aux.detach()
	}
}

func NewAVLTree[K infra.OrderedKey, V any]() AVLTree[K, V] {
	return &avlTree[K, V]{}
}
