package bench

// CountInversions counts the pairs i < j with arr[i] > arr[j] by merge
// sort. arr is left untouched.
func CountInversions(arr []int) int64 {
	if len(arr) < 2 {
		return 0
	}
	work := append([]int(nil), arr...)
	buf := make([]int, len(arr))
	return mergeCount(work, buf)
}

func mergeCount(arr, buf []int) int64 {
	if len(arr) < 2 {
		return 0
	}
	mid := len(arr) / 2
	count := mergeCount(arr[:mid], buf[:mid]) + mergeCount(arr[mid:], buf[mid:])

	i, j, k := 0, mid, 0
	for i < mid && j < len(arr) {
		if arr[i] <= arr[j] {
			buf[k] = arr[i]
			i++
		} else {
			// arr[i:mid] are all greater than arr[j].
			buf[k] = arr[j]
			count += int64(mid - i)
			j++
		}
		k++
	}
	k += copy(buf[k:], arr[i:mid])
	copy(buf[k:], arr[j:])
	copy(arr, buf[:len(arr)])
	return count
}
