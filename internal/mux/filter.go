package mux

type FilterFunc[T any] func(T) bool

func Any[T any]() FilterFunc[T] {
	return func(T) bool {
		return true
	}
}

func Or[T any](filters ...FilterFunc[T]) FilterFunc[T] {
	return func(v T) bool {
		for _, filter := range filters {
			if filter(v) {
				return true
			}
		}
		return false
	}
}

func And[T any](filters ...FilterFunc[T]) FilterFunc[T] {
	return func(v T) bool {
		for _, filter := range filters {
			if !filter(v) {
				return false
			}
		}
		return true
	}
}

// Select returns the elements of vs accepted by filter, preserving order.
func Select[T any](vs []T, filter FilterFunc[T]) []T {
	var res []T
	for _, v := range vs {
		if filter(v) {
			res = append(res, v)
		}
	}
	return res
}
