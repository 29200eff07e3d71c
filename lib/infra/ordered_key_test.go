package infra

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func orderedMax[K OrderedKey](keys ...K) K {
	m := keys[0]
	for _, k := range keys[1:] {
		if k > m {
			m = k
		}
	}
	return m
}

func TestOrderedKeyConstraint(t *testing.T) {
	assert.Equal(t, int64(9), orderedMax[int64](3, 9, -1))
	assert.Equal(t, uint8('z'), orderedMax[uint8]('a', 'z', 'm'))
	assert.Equal(t, "pear", orderedMax("apple", "pear", "fig"))
	assert.Equal(t, 2.5, orderedMax(1.0, 2.5, math.Inf(-1)))
}

func TestComplexCompare(t *testing.T) {
	var c1 complex128 = complex(1.0, 2.0) // 1.0+2.0i
	var c2 complex128 = complex(1.1, 2.0) // 1.1+2.0i
	_c1 := math.Hypot(real(c1), imag(c1))
	_c2 := math.Hypot(real(c2), imag(c2))
	assert.Greater(t, _c2, _c1)
}
