package tree

import (
	"fmt"

	"github.com/benz9527/xavl/lib/infra"
)

func bfsRealNodes[K infra.OrderedKey, V any](tree AVLTree[K, V], fn func(node AVLNode[K, V]) error) error {
	root := tree.Root()
	if root == nil {
		return nil
	}
	queue := []AVLNode[K, V]{root}
	for len(queue) > 0 {
		aux := queue[0]
		queue = queue[1:]
		if err := fn(aux); err != nil {
			return err
		}
		for _, child := range []AVLNode[K, V]{aux.Left(), aux.Right()} {
			if child != nil && child.HasKeyVal() {
				queue = append(queue, child)
			}
		}
	}
	return nil
}

func heightOf[K infra.OrderedKey, V any](node AVLNode[K, V]) int {
	if node == nil {
		return -1
	}
	return node.Height()
}

// BalanceViolationValidate
// Every real node's children heights differ by at most one.
func BalanceViolationValidate[K infra.OrderedKey, V any](tree AVLTree[K, V]) error {
	return bfsRealNodes[K, V](tree, func(node AVLNode[K, V]) error {
		if bf := heightOf(node.Left()) - heightOf(node.Right()); bf < -1 || bf > 1 {
			return fmt.Errorf("[avltree] balance violation at key %v, balance factor %d", node.Key(), bf)
		}
		return nil
	})
}

// HeightViolationValidate
// Every cached height equals the height computed from the children and
// every virtual node has height -1.
func HeightViolationValidate[K infra.OrderedKey, V any](tree AVLTree[K, V]) error {
	return bfsRealNodes[K, V](tree, func(node AVLNode[K, V]) error {
		l, r := node.Left(), node.Right()
		for _, child := range []AVLNode[K, V]{l, r} {
			if child != nil && !child.HasKeyVal() && child.Height() != -1 {
				return fmt.Errorf("[avltree] height violation, virtual child of key %v has height %d", node.Key(), child.Height())
			}
		}
		if expected := max(heightOf(l), heightOf(r)) + 1; node.Height() != expected {
			return fmt.Errorf("[avltree] height violation at key %v, cached %d, expected %d", node.Key(), node.Height(), expected)
		}
		return nil
	})
}

// OrderViolationValidate
// The inorder keys are strictly increasing.
func OrderViolationValidate[K infra.OrderedKey, V any](tree AVLTree[K, V]) error {
	var (
		err  error
		prev K
	)
	tree.Foreach(func(idx int64, key K, _ V) bool {
		if idx > 0 && !(prev < key) {
			err = fmt.Errorf("[avltree] order violation at index %d, key %v after %v", idx, key, prev)
			return false
		}
		prev = key
		return true
	})
	return err
}

// LinkViolationValidate
// The root has no parent, every real node has two children pointing
// back to it and every virtual node is childless.
func LinkViolationValidate[K infra.OrderedKey, V any](tree AVLTree[K, V]) error {
	root := tree.Root()
	if root == nil {
		return nil
	}
	if root.Parent() != nil {
		return fmt.Errorf("[avltree] link violation, root %v has a parent", root.Key())
	}
	if !root.HasKeyVal() {
		return fmt.Errorf("[avltree] link violation, root is virtual")
	}
	return bfsRealNodes[K, V](tree, func(node AVLNode[K, V]) error {
		for _, child := range []AVLNode[K, V]{node.Left(), node.Right()} {
			if child == nil {
				return fmt.Errorf("[avltree] link violation, key %v has a nil child", node.Key())
			}
			if child.Parent() != node {
				return fmt.Errorf("[avltree] link violation, child of key %v points to another parent", node.Key())
			}
			if !child.HasKeyVal() && (child.Left() != nil || child.Right() != nil) {
				return fmt.Errorf("[avltree] link violation, virtual child of key %v has children", node.Key())
			}
		}
		return nil
	})
}
