package recast

// Stack is a growable array used as scratch storage by the region, contour
// and mesh builders. The zero value is ready to use.
type Stack[T any] struct {
	data []T
}

// NewStack returns a stack with room for capacity elements.
func NewStack[T any](capacity int) *Stack[T] {
	return &Stack[T]{data: make([]T, 0, capacity)}
}

// NewStackArray returns a stack holding count zero values.
func NewStackArray[T any](count int) *Stack[T] {
	return &Stack[T]{data: make([]T, count)}
}

func (s *Stack[T]) Data() []T {
	return s.data
}

func (s *Stack[T]) Clear() {
	s.data = s.data[:0]
}

func (s *Stack[T]) Pop() T {
	e := s.data[len(s.data)-1]
	s.data = s.data[:len(s.data)-1]
	return e
}

func (s *Stack[T]) Push(value T) {
	s.data = append(s.data, value)
}

func (s *Stack[T]) Len() int {
	return len(s.data)
}

func (s *Stack[T]) Empty() bool {
	return len(s.data) == 0
}

func (s *Stack[T]) Index(index int) T {
	return s.data[index]
}

// At returns a pointer to element index, valid until the next Push.
func (s *Stack[T]) At(index int) *T {
	return &s.data[index]
}

func (s *Stack[T]) SetByIndex(index int, value T) {
	s.data[index] = value
}

// Remove deletes element index, keeping order.
func (s *Stack[T]) Remove(index int) {
	copy(s.data[index:], s.data[index+1:])
	s.data = s.data[:len(s.data)-1]
}

// Resize grows with value (or the zero value) or truncates to size.
func (s *Stack[T]) Resize(size int, value ...T) {
	if size <= len(s.data) {
		s.data = s.data[:size]
		return
	}
	var fill T
	if len(value) > 0 {
		fill = value[0]
	}
	for len(s.data) < size {
		s.data = append(s.data, fill)
	}
}
