package deck

// Shuffle permutes items in place with the Fisher-Yates algorithm.
//
// Precondition: src must be non-nil.
// Postcondition: items holds the same multiset of elements in a permuted order.
func Shuffle[T any](items []T, src Source) {
	for i := len(items) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// Pick returns a uniformly chosen element of items.
//
// Precondition: items must be non-empty; src must be non-nil.
func Pick[T any](items []T, src Source) T {
	return items[src.Intn(len(items))]
}
