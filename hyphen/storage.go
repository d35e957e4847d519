package hyphen

import (
	"math"
	"reflect"
	"unsafe"
)

// Kind is the shape of the storage field an element is bound to
type Kind uint8

const (
	KindCounter Kind = iota + 1 // integer field holding the occurrence count
	KindSwitch                  // bool field, true once seen
	KindValue                   // string field
	KindValues                  // []string field
	KindArray                   // [N]string field
)

func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindSwitch:
		return "switch"
	case KindValue:
		return "value"
	case KindValues:
		return "values"
	case KindArray:
		return "array"
	default:
		return "invalid"
	}
}

const (
	stringSize = unsafe.Sizeof("")
	sliceSize  = unsafe.Sizeof([]string(nil))
)

// storage is the caller-owned struct a command binds its elements into
type storage struct {
	base unsafe.Pointer
	typ  reflect.Type
	size uintptr
}

// newStorage accepts nil (no storage) or a non-nil pointer to a struct
func newStorage(v any) (storage, Code) {
	if v == nil {
		return storage{}, OK
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer {
		return storage{}, StorageMismatch
	}
	if rv.IsNil() {
		return storage{}, NullArgument
	}
	t := rv.Type().Elem()
	if t.Kind() != reflect.Struct {
		return storage{}, StorageMismatch
	}
	return storage{base: rv.UnsafePointer(), typ: t, size: t.Size()}, OK
}

// binding describes where and how a matched element is written
type binding struct {
	offset uintptr
	width  uintptr
	kind   Kind
	num    reflect.Kind // integer kind of a counter field
	n      int          // length of an array field
}

// bind locates the field starting at cursor that satisfies accept. need is
// the smallest width the element could occupy, checked before the lookup so
// that running off the end of the struct reports an overflow.
func (s *storage) bind(cursor, need uintptr, accept func(reflect.Type) bool) (reflect.Type, Code) {
	if need > s.size || cursor > s.size-need {
		return nil, StorageOverflow
	}
	t, ok := fieldAt(s.typ, cursor, accept)
	if !ok {
		return nil, StorageMismatch
	}
	return t, OK
}

func (s *storage) bindFlag(cursor uintptr) (binding, Code) {
	t, code := s.bind(cursor, 1, func(t reflect.Type) bool {
		return t.Kind() == reflect.Bool || isInteger(t.Kind())
	})
	if code != OK {
		return binding{}, code
	}
	b := binding{offset: cursor, width: t.Size(), kind: KindCounter, num: t.Kind()}
	if t.Kind() == reflect.Bool {
		b.kind = KindSwitch
	}
	return b, OK
}

func (s *storage) bindOption(cursor uintptr, accumulate bool) (binding, Code) {
	if accumulate {
		if _, code := s.bind(cursor, sliceSize, isStrings); code != OK {
			return binding{}, code
		}
		return binding{offset: cursor, width: sliceSize, kind: KindValues}, OK
	}
	if _, code := s.bind(cursor, stringSize, isString); code != OK {
		return binding{}, code
	}
	return binding{offset: cursor, width: stringSize, kind: KindValue}, OK
}

func (s *storage) bindArgument(cursor uintptr, cnt uint64) (binding, Code) {
	switch {
	case cnt == Remaining:
		if _, code := s.bind(cursor, sliceSize, isStrings); code != OK {
			return binding{}, code
		}
		return binding{offset: cursor, width: sliceSize, kind: KindValues}, OK
	case cnt > uint64(s.size/stringSize):
		return binding{}, StorageOverflow
	}

	n := int(cnt)
	t, code := s.bind(cursor, uintptr(n)*stringSize, func(t reflect.Type) bool {
		return (n == 1 && isString(t)) || isStringArray(t, n)
	})
	if code != OK {
		return binding{}, code
	}
	if t.Kind() == reflect.String {
		return binding{offset: cursor, width: stringSize, kind: KindValue}, OK
	}
	return binding{offset: cursor, width: t.Size(), kind: KindArray, n: n}, OK
}

// fieldAt finds the field of t starting at off that satisfies accept,
// looking inside nested structs
func fieldAt(t reflect.Type, off uintptr, accept func(reflect.Type) bool) (reflect.Type, bool) {
	for i := range t.NumField() {
		f := t.Field(i)
		if f.Offset > off {
			break
		}
		if f.Offset == off && accept(f.Type) {
			return f.Type, true
		}
		if f.Type.Kind() == reflect.Struct && off < f.Offset+f.Type.Size() {
			if ft, ok := fieldAt(f.Type, off-f.Offset, accept); ok {
				return ft, true
			}
		}
	}
	return nil, false
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isString(t reflect.Type) bool { return t.Kind() == reflect.String }

func isStrings(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.String
}

func isStringArray(t reflect.Type, n int) bool {
	return t.Kind() == reflect.Array && t.Len() == n && t.Elem().Kind() == reflect.String
}

func (b *binding) at(base unsafe.Pointer) unsafe.Pointer {
	return unsafe.Add(base, b.offset)
}

// zero resets the bound field before a parse
func (b *binding) zero(base unsafe.Pointer) {
	p := b.at(base)
	switch b.kind {
	case KindCounter:
		b.count(base, 0)
	case KindSwitch:
		*(*bool)(p) = false
	case KindValue:
		*(*string)(p) = ""
	case KindValues:
		*(*[]string)(p) = nil
	case KindArray:
		clear(unsafe.Slice((*string)(p), b.n))
	}
}

// count stores occurrence count n, saturating at the field's maximum
//
//nolint:gosec // conversions are bounded by the min() clamps
func (b *binding) count(base unsafe.Pointer, n uint64) {
	p := b.at(base)
	if b.kind == KindSwitch {
		*(*bool)(p) = n > 0
		return
	}
	switch b.num {
	case reflect.Int8:
		*(*int8)(p) = int8(min(n, math.MaxInt8))
	case reflect.Int16:
		*(*int16)(p) = int16(min(n, math.MaxInt16))
	case reflect.Int32:
		*(*int32)(p) = int32(min(n, math.MaxInt32))
	case reflect.Int64:
		*(*int64)(p) = int64(min(n, math.MaxInt64))
	case reflect.Int:
		*(*int)(p) = int(min(n, math.MaxInt))
	case reflect.Uint8:
		*(*uint8)(p) = uint8(min(n, math.MaxUint8))
	case reflect.Uint16:
		*(*uint16)(p) = uint16(min(n, math.MaxUint16))
	case reflect.Uint32:
		*(*uint32)(p) = uint32(min(n, math.MaxUint32))
	case reflect.Uint64:
		*(*uint64)(p) = n
	case reflect.Uint:
		*(*uint)(p) = uint(min(n, uint64(math.MaxUint)))
	case reflect.Uintptr:
		*(*uintptr)(p) = uintptr(min(n, uint64(^uintptr(0))))
	}
}

// put writes an option value, replacing or appending by field kind
func (b *binding) put(base unsafe.Pointer, v string) {
	p := b.at(base)
	if b.kind == KindValues {
		s := (*[]string)(p)
		*s = append(*s, v)
		return
	}
	*(*string)(p) = v
}

// putAt writes the i-th value of a positional argument
func (b *binding) putAt(base unsafe.Pointer, i int, v string) {
	*(*string)(unsafe.Add(b.at(base), uintptr(i)*stringSize)) = v
}

// putAll binds the tokens absorbed by a Remaining argument
func (b *binding) putAll(base unsafe.Pointer, vs []string) {
	*(*[]string)(b.at(base)) = vs
}
