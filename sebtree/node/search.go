package node

// IsInsertionPoint reports whether a search result encodes a miss (an
// insertion point) rather than a matching slot index.
func IsInsertionPoint(searchIndex int) bool { return searchIndex < 0 }

// ToIndex decodes the insertion point encoded in a miss result.
func ToIndex(insertionPoint int) int { return -insertionPoint - 1 }

// ToInsertionPoint encodes index as the miss result a search at that
// position would have produced.
func ToInsertionPoint(index int) int { return -(index + 1) }

// ToMinusOneBasedIndex returns the index of the greatest key less than or
// equal to the search key, or -1 if none: searchIndex itself if it was a
// match, else one less than the insertion point it encodes.
func ToMinusOneBasedIndex(searchIndex int) int {
	if IsInsertionPoint(searchIndex) {
		index := ToIndex(searchIndex)
		if index == 0 {
			return -1
		}
		return index - 1
	}
	return searchIndex
}

// IsPreceding reports whether rightIndex's minus-one-based position
// immediately follows leftIndex's.
func IsPreceding(leftIndex, rightIndex int) bool {
	return ToMinusOneBasedIndex(rightIndex)-ToMinusOneBasedIndex(leftIndex) == 1
}

// IndexOf searches for key using the injected comparator. A non-negative
// result is the matching slot index; a negative result encodes the
// insertion point via ToInsertionPoint.
func (n *Node[K, V]) IndexOf(key K) int {
	return n.binarySearch(key)
}

func (n *Node[K, V]) binarySearch(key K) int {
	low := 0
	high := n.GetSize() - 1

	for low <= high {
		mid := int(uint(low+high) >> 1)
		midVal := n.getKey(mid)

		order := n.comparator(key, midVal)
		switch {
		case order > 0:
			low = mid + 1
		case order < 0:
			high = mid - 1
		default:
			return mid
		}
	}
	return ToInsertionPoint(low)
}
