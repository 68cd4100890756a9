package functional

// Map applies fn to every element of items and returns the results.
func Map[T any, U any](items []T, fn func(T) U) []U {
	result := make([]U, 0, len(items))
	for _, item := range items {
		result = append(result, fn(item))
	}
	return result
}
