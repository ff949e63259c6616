package repokit

import (
	"fmt"
	"reflect"
)

// Binder attaches a repo implementation to the pool or transaction it should
// read through. Matching modules bind their registry once at construction
type Binder[T any] interface {
	Bind(Queryer) T
}

// BindFunc adapts a constructor to Binder
type BindFunc[T any] func(Queryer) T

// Bind calls f
func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }

// MustBind binds b to q. A nil q, or a typed nil pointer, panics with the repo type
func MustBind[T any](b Binder[T], q Queryer) T {
	if v := reflect.ValueOf(q); q == nil || v.Kind() == reflect.Pointer && v.IsNil() {
		panic(fmt.Sprintf("repokit: bind %s: nil Queryer", reflect.TypeFor[T]()))
	}
	return b.Bind(q)
}
