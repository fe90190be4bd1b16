package reax

import "reflect"

// structurallyEqual decides whether Value.Update should notify: two
// values are equal if they are deeply equal, not merely ==. T has no
// comparable constraint (a Value may hold a slice, map, or struct), so
// plain == isn't available generically; reflect.DeepEqual is the
// standard library's structural-equality primitive and there is no
// third-party alternative in the example corpus that does this job.
func structurallyEqual[T any](a, b T) bool {
	return reflect.DeepEqual(a, b)
}
