package mongo

import (
	"errors"
	"fmt"
	"reflect"
)

// Named is implemented by entity types that choose their own collection
// name. Types that do not implement it are stored in a collection named after
// the Go type (Person for both Person and *Person).
type Named interface {
	CollectionName() string
}

var tNamed = reflect.TypeFor[Named]()

// typeKey returns the memoized collection name for T. Concurrent first calls
// may both compute the key; the result is deterministic so either store wins.
func (p *Provider) typeKey(t reflect.Type) (string, error) {
	if cached, ok := p.keys.Load(t); ok {
		return cached.(string), nil
	}

	key, err := deriveTypeKey(t)
	if err != nil {
		return "", err
	}
	p.keys.Store(t, key)
	return key, nil
}

func deriveTypeKey(t reflect.Type) (string, error) {
	if t == nil {
		return "", errors.Join(ErrUnresolvableTypeKey, errors.New("nil type"))
	}

	if name, ok := declaredName(t); ok {
		if name == "" {
			return "", errors.Join(ErrUnresolvableTypeKey, fmt.Errorf("%s declares an empty collection name", t))
		}
		return name, nil
	}

	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Name() == "" {
		return "", errors.Join(ErrUnresolvableTypeKey, fmt.Errorf("%s has no type name", t))
	}
	return base.Name(), nil
}

// declaredName calls CollectionName on a fresh value of t (or *t) when either
// implements Named.
func declaredName(t reflect.Type) (string, bool) {
	switch {
	case t.Kind() == reflect.Pointer && t.Implements(tNamed):
		return reflect.New(t.Elem()).Interface().(Named).CollectionName(), true
	case t.Kind() != reflect.Interface && t.Implements(tNamed):
		return reflect.Zero(t).Interface().(Named).CollectionName(), true
	case t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(tNamed):
		return reflect.New(t).Interface().(Named).CollectionName(), true
	}
	return "", false
}
