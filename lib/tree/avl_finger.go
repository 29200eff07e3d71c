package tree

/*
The finger starts at the maximum node and climbs the right spine while
the parent key is not smaller than the target. The climb stops at the
lowest spine node Y whose parent key is smaller than the target (or at
the root), so the target position lies in Y's subtree:

	      P            P.key < key
	       \
	        Y          Y's subtree holds (P.key, +inf)
	       / \
	     ..   ..
	            \
	            max    <- finger

From Y the search goes down like a root search.
*/
func (tree *avlTree[K, V]) fingerDescend(key K) (found, last *avlNode[K, V], visits int) {
	aux := tree.root.maximum()
	for aux.parent != nil && aux.parent.key >= key {
		visits++
		if aux.key == key {
			return aux, aux, visits
		}
		aux = aux.parent
	}
	found, last, steps := tree.descend(aux, key)
	return found, last, visits + steps
}

func (tree *avlTree[K, V]) FingerSearch(key K) (AVLNode[K, V], int) {
	if tree.root == nil || isInvalidKey(key) {
		return nil, 0
	}
	found, _, visits := tree.fingerDescend(key)
	if found == nil {
		return nil, visits
	}
	return found, visits
}

func (tree *avlTree[K, V]) FingerInsert(key K, val V) (AVLNode[K, V], int, int) {
	if isInvalidKey(key) {
		return nil, 0, 0
	}
	if tree.root == nil {
		z := newAVLNode[K, V](key, val)
		tree.setRoot(z)
		return z, 0, 0
	}
	found, parent, visits := tree.fingerDescend(key)
	return tree.splice(found, parent, visits, key, val)
}
