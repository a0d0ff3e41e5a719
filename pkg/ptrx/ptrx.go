// Package ptrx builds and reads optional values.
package ptrx

// To returns a pointer to a copy of v.
func To[T any](v T) *T {
	return &v
}

// NonZero returns nil for the zero value and a pointer to a copy otherwise.
// Optional columns use it so "" is stored as NULL.
func NonZero[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}

// Deref returns *p, or fallback when p is nil.
func Deref[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
