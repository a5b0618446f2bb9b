package lazy

import "context"

type State int

const (
	Unresolved State = iota
	ResolvedNone
	ResolvedValue
)

func (s State) String() string {
	switch s {
	case ResolvedNone:
		return "resolved-none"
	case ResolvedValue:
		return "resolved-value"
	default:
		return "unresolved"
	}
}

// Value memoizes the outcome of a lookup that may legitimately find nothing.
// A lookup returning (nil, nil) resolves the cell to ResolvedNone; a lookup
// returning an error leaves it Unresolved. Not safe for concurrent use.
type Value[T any] struct {
	state State
	value *T
}

func Of[T any](v *T) Value[T] {
	var c Value[T]
	c.Set(v)
	return c
}

func (c *Value[T]) State() State {
	return c.state
}

func (c *Value[T]) Resolved() bool {
	return c.state != Unresolved
}

// Peek returns the cached value without resolving.
func (c *Value[T]) Peek() *T {
	return c.value
}

func (c *Value[T]) Set(v *T) {
	c.value = v
	if v == nil {
		c.state = ResolvedNone
		return
	}
	c.state = ResolvedValue
}

func (c *Value[T]) Reset() {
	c.value = nil
	c.state = Unresolved
}

func (c *Value[T]) GetOrResolve(ctx context.Context, resolve func(context.Context) (*T, error)) (*T, error) {
	if c.state != Unresolved {
		return c.value, nil
	}
	v, err := resolve(ctx)
	if err != nil {
		return nil, err
	}
	c.Set(v)
	return v, nil
}
