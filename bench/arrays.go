package bench

import (
	randv2 "math/rand/v2"

	"github.com/samber/lo"
)

type InputKind string

const (
	SortedInput   InputKind = "sorted"
	ReversedInput InputKind = "reversed"
	RandomInput   InputKind = "random"
	SwappedInput  InputKind = "swapped"
)

func (kind InputKind) valid() bool {
	switch kind {
	case SortedInput, ReversedInput, RandomInput, SwappedInput:
		return true
	}
	return false
}

// GenerateInput returns a permutation of 1..n shaped by kind. The swapped
// kind exchanges each disjoint pair (2i, 2i+1) of the sorted array with
// probability 1/2.
func GenerateInput(kind InputKind, n int, rng *randv2.Rand) []int {
	arr := lo.RangeFrom(1, n)
	switch kind {
	case ReversedInput:
		arr = lo.Reverse(arr)
	case RandomInput:
		rng.Shuffle(len(arr), func(i, j int) {
			arr[i], arr[j] = arr[j], arr[i]
		})
	case SwappedInput:
		for i := 0; i+1 < len(arr); i += 2 {
			if rng.IntN(2) == 1 {
				arr[i], arr[i+1] = arr[i+1], arr[i]
			}
		}
	case SortedInput:
	default:
	}
	return arr
}
