package tree

import (
	"github.com/samber/lo"

	"github.com/benz9527/xavl/lib/infra"
)

// go install golang.org/x/tools/cmd/stringer@latest

//go:generate stringer -type=AVLDirection
type AVLDirection int8

const (
	Left AVLDirection = -1 + iota
	Root
	Right
)

type AVLTreeErr string

const (
	ErrInvalidKey    AVLTreeErr = "[avltree] invalid key"
	ErrNodeNotReal   AVLTreeErr = "[avltree] node is nil or virtual"
	ErrNodeNotInTree AVLTreeErr = "[avltree] node does not belong to the tree"
	ErrForeignTree   AVLTreeErr = "[avltree] tree is not an avl tree of this package"
	ErrJoinSelf      AVLTreeErr = "[avltree] join a tree with itself"
	ErrJoinKeyRange  AVLTreeErr = "[avltree] join key does not separate the trees"
)

func (err AVLTreeErr) Error() string {
	return string(err)
}

// AVLNode is a real node or a virtual (sentinel) node. A virtual node
// has no key, no value and no children, and its height is -1.
type AVLNode[K infra.OrderedKey, V any] interface {
	Key() K
	Val() V
	HasKeyVal() bool
	Height() int
	BalanceFactor() int
	Left() AVLNode[K, V]
	Right() AVLNode[K, V]
	Parent() AVLNode[K, V]
}

// AVLTree is not thread safe.
//
// Search, FingerSearch, Insert and FingerInsert report the number of
// real nodes visited on the way to the target. Insert and FingerInsert
// also report the number of height changes (promotions) made by the
// rebalancing walk.
//
// Join and Split consume their input trees: after the call those trees
// are empty and the nodes live in the returned trees.
type AVLTree[K infra.OrderedKey, V any] interface {
	Root() AVLNode[K, V]
	Size() int64
	MinNode() AVLNode[K, V]
	MaxNode() AVLNode[K, V]
	Successor(node AVLNode[K, V]) AVLNode[K, V]
	Predecessor(node AVLNode[K, V]) AVLNode[K, V]
	Search(key K) (AVLNode[K, V], int)
	FingerSearch(key K) (AVLNode[K, V], int)
	Insert(key K, val V) (AVLNode[K, V], int, int)
	FingerInsert(key K, val V) (AVLNode[K, V], int, int)
	Delete(node AVLNode[K, V]) error
	Join(other AVLTree[K, V], key K, val V) (AVLTree[K, V], error)
	Split(node AVLNode[K, V]) (AVLTree[K, V], AVLTree[K, V], error)
	ToSortedArray() []lo.Entry[K, V]
	Foreach(action func(idx int64, key K, val V) bool)
	Release()
}
