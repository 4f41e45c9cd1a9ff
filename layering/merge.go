package layering

import "reflect"

// MergeLayers composes snapshots ordered from strongest to weakest. Values
// set in a stronger layer win; nil values and empty strings in a stronger
// layer are treated as unset and fall through to weaker layers.
func MergeLayers[T any](layers ...T) T {
	var zero T
	if len(layers) == 0 {
		return zero
	}
	target := reflect.TypeOf(zero)
	merged := cloneValue(reflect.ValueOf(layers[len(layers)-1]))
	for i := len(layers) - 2; i >= 0; i-- {
		merged = mergeValue(reflect.ValueOf(layers[i]), merged)
	}
	if !merged.IsValid() || target == nil {
		if merged.IsValid() {
			if out, ok := merged.Interface().(T); ok {
				return out
			}
		}
		return zero
	}
	if merged.Type() != target {
		result := reflect.New(target).Elem()
		result.Set(merged.Convert(target))
		return result.Interface().(T)
	}
	return merged.Interface().(T)
}

// Clone returns a deep copy of value.
func Clone[T any](value T) T {
	var zero T
	cloned := cloneValue(reflect.ValueOf(value))
	if !cloned.IsValid() {
		return zero
	}
	out, ok := cloned.Interface().(T)
	if !ok {
		return zero
	}
	return out
}

func unset(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return true
		}
		if v.Kind() == reflect.Interface {
			return unset(v.Elem())
		}
	case reflect.String:
		return v.Len() == 0
	}
	return false
}

func mergeValue(strong, weak reflect.Value) reflect.Value {
	if unset(strong) {
		if weak.IsValid() {
			return cloneValue(weak)
		}
		return cloneValue(strong)
	}
	switch strong.Kind() {
	case reflect.Pointer:
		var weakElem reflect.Value
		if weak.IsValid() && weak.Kind() == reflect.Pointer && !weak.IsNil() {
			weakElem = weak.Elem()
		}
		result := reflect.New(strong.Type().Elem())
		result.Elem().Set(mergeValue(strong.Elem(), weakElem))
		return result
	case reflect.Interface:
		var weakElem reflect.Value
		if weak.IsValid() && weak.Kind() == reflect.Interface && !weak.IsNil() {
			weakElem = weak.Elem()
		}
		return mergeValue(strong.Elem(), weakElem)
	case reflect.Map:
		result := reflect.MakeMapWithSize(strong.Type(), strong.Len())
		if weak.IsValid() {
			if weak.Kind() == reflect.Interface && !weak.IsNil() {
				weak = weak.Elem()
			}
			if weak.Kind() == reflect.Map && !weak.IsNil() && weak.Type().Key() == strong.Type().Key() {
				iter := weak.MapRange()
				for iter.Next() {
					setMapEntry(result, iter.Key(), cloneValue(iter.Value()))
				}
			}
		}
		iter := strong.MapRange()
		for iter.Next() {
			key := iter.Key()
			existing := result.MapIndex(key)
			if existing.IsValid() {
				setMapEntry(result, key, mergeValue(iter.Value(), existing))
				continue
			}
			setMapEntry(result, key, cloneValue(iter.Value()))
		}
		return result
	case reflect.Struct:
		result := reflect.New(strong.Type()).Elem()
		for i := 0; i < strong.NumField(); i++ {
			field := result.Field(i)
			if !field.CanSet() {
				continue
			}
			var weakField reflect.Value
			if weak.IsValid() && weak.Type() == strong.Type() {
				weakField = weak.Field(i)
			}
			field.Set(mergeValue(strong.Field(i), weakField))
		}
		return result
	default:
		return cloneValue(strong)
	}
}

// setMapEntry stores value under key. Values of an incompatible kind are
// skipped.
func setMapEntry(m, key, value reflect.Value) {
	elem := m.Type().Elem()
	if !value.IsValid() {
		m.SetMapIndex(key, reflect.Zero(elem))
		return
	}
	if !value.Type().AssignableTo(elem) {
		if value.Kind() != elem.Kind() || !value.Type().ConvertibleTo(elem) {
			return
		}
		value = value.Convert(elem)
	}
	m.SetMapIndex(key, value)
}

func cloneValue(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.New(v.Type().Elem())
		clone.Elem().Set(cloneValue(v.Elem()))
		return clone
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		return cloneValue(v.Elem())
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			setMapEntry(clone, iter.Key(), cloneValue(iter.Value()))
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			elem := cloneValue(v.Index(i))
			if elem.IsValid() {
				clone.Index(i).Set(elem)
			}
		}
		return clone
	case reflect.Struct:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			field := clone.Field(i)
			if !field.CanSet() {
				continue
			}
			field.Set(cloneValue(v.Field(i)))
		}
		return clone
	default:
		return reflect.ValueOf(v.Interface())
	}
}
