package codec

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/binio/buffer"
	"github.com/arloliu/binio/errs"
	"github.com/arloliu/binio/wire"
)

// Root object marker names, shared with sibling implementations of the
// format.
const (
	rootStartName = "OBJ_ROOT_START"
	rootEndName   = "OBJ_ROOT_END"
)

// IoClassSerialiser serializes arbitrary object graphs through a wire
// serialiser.
//
// Custom serializers and memoized reflection plans are held in concurrent
// maps, so one instance may be shared by goroutines serializing through
// *different* buffers; a single serialize or deserialize call is
// single-threaded and owns its buffer's cursor throughout.
type IoClassSerialiser struct {
	io *wire.BinarySerialiser

	custom *xsync.Map[reflect.Type, *FieldSerialiser]
	plans  *xsync.Map[reflect.Type, *classPlan]

	// registered serializers whose Type is an interface, matched by
	// Implements when no exact registration exists
	ifaceMu sync.RWMutex
	ifaces  []*FieldSerialiser
}

// classPlan is the memoized result of reflecting over a struct's exported
// fields. Derivation runs once per type per registry.
type classPlan struct {
	fields []fieldInfo
}

type fieldInfo struct {
	name  string
	index int
}

// NewIoClassSerialiser creates a registry bound to the given wire
// serialiser.
func NewIoClassSerialiser(io *wire.BinarySerialiser) *IoClassSerialiser {
	return &IoClassSerialiser{
		io:     io,
		custom: xsync.NewMap[reflect.Type, *FieldSerialiser](),
		plans:  xsync.NewMap[reflect.Type, *classPlan](),
	}
}

// IoSerialiser returns the underlying wire serialiser.
func (c *IoClassSerialiser) IoSerialiser() *wire.BinarySerialiser { return c.io }

// AddClassDefinition registers a custom serializer for its type signature.
// Re-registration replaces the prior entry; last write wins.
func (c *IoClassSerialiser) AddClassDefinition(fs *FieldSerialiser) {
	if fs == nil || fs.Type == nil {
		return
	}
	if fs.Type.Kind() == reflect.Interface {
		c.ifaceMu.Lock()
		for i, prev := range c.ifaces {
			if prev.Type == fs.Type {
				c.ifaces[i] = fs
				c.ifaceMu.Unlock()

				return
			}
		}
		c.ifaces = append(c.ifaces, fs)
		c.ifaceMu.Unlock()

		return
	}
	c.custom.Store(fs.Type, fs)
}

// lookup resolves the custom serializer for t: exact registration first,
// then interface registrations by assignability.
func (c *IoClassSerialiser) lookup(t reflect.Type) *FieldSerialiser {
	if fs, ok := c.custom.Load(t); ok {
		return fs
	}
	c.ifaceMu.RLock()
	defer c.ifaceMu.RUnlock()
	for _, fs := range c.ifaces {
		if t == fs.Type || t.Implements(fs.Type) {
			return fs
		}
	}

	return nil
}

func (c *IoClassSerialiser) planFor(t reflect.Type) *classPlan {
	if p, ok := c.plans.Load(t); ok {
		return p
	}
	p := &classPlan{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Anonymous {
			continue
		}
		p.fields = append(p.fields, fieldInfo{name: f.Name, index: i})
	}
	// two goroutines may race to derive the same plan; the results are
	// identical and last write wins
	c.plans.Store(t, p)

	return p
}

// SerialiseObject writes obj as a complete stream: header, root object,
// end marker. If obj implements sync.Locker the lock is held for the whole
// traversal; values with a registered serializer are locked by writeCustom
// instead, whether they appear at the root or as a field.
func (c *IoClassSerialiser) SerialiseObject(obj any) error {
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return &errs.UnsupportedTypeError{Type: fmt.Sprintf("%T (nil)", obj)}
		}
		if fs := c.lookup(v.Type()); fs != nil {
			break
		}
		v = v.Elem()
	}

	if err := c.io.PutHeaderInfo(); err != nil {
		return err
	}
	if fs := c.lookup(v.Type()); fs != nil {
		return c.writeCustom(rootStartName, v, fs)
	}
	if locker, ok := obj.(sync.Locker); ok {
		locker.Lock()
		defer locker.Unlock()
	}
	if v.Kind() != reflect.Struct {
		return &errs.UnsupportedTypeError{Type: v.Type().String()}
	}
	if err := c.io.PutStartMarker(rootStartName); err != nil {
		return err
	}
	if err := c.writeStructFields(v); err != nil {
		return err
	}

	return c.io.PutEndMarker(rootEndName)
}

// DeserialiseObject parses the stream and materializes it into target,
// which must be a non-nil pointer. Existing nested objects are updated in
// place where possible; stream fields unknown to the target are skipped.
func (c *IoClassSerialiser) DeserialiseObject(target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &errs.UnsupportedTypeError{Type: fmt.Sprintf("%T (need non-nil pointer)", target)}
	}
	if locker, ok := target.(sync.Locker); ok {
		locker.Lock()
		defer locker.Unlock()
	}

	root, err := c.io.ParseIoStream()
	if err != nil {
		return err
	}
	children := root.Children()
	if len(children) == 0 {
		return fmt.Errorf("binio: stream has no root object: %w", errs.ErrBufferUnderflow)
	}

	return c.readFieldValue(rv.Elem(), children[0])
}

// write path

func (c *IoClassSerialiser) writeStructFields(v reflect.Value) error {
	plan := c.planFor(v.Type())
	for _, f := range plan.fields {
		fv := v.Field(f.index)
		switch fv.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
			if fv.IsNil() {
				// absent field; readers tolerate absence
				continue
			}
		}
		if err := c.writeFieldValue(f.name, fv); err != nil {
			return err
		}
	}

	return nil
}

func (c *IoClassSerialiser) writeCustom(name string, v reflect.Value, fs *FieldSerialiser) error {
	// values that guard themselves stay locked for their whole frame, so
	// registered Writer funcs must not take the same lock again
	if v.CanInterface() {
		if locker, ok := v.Interface().(sync.Locker); ok {
			locker.Lock()
			defer locker.Unlock()
		}
	}

	// StartMarker-tagged serializers produce a field list; frame it as a
	// nested object so the structural parse sees a well-formed subtree.
	if fs.Tag == wire.StartMarker {
		if err := c.io.PutStartMarker(name); err != nil {
			return err
		}
		if err := fs.Writer(c.io, v); err != nil {
			return err
		}

		return c.io.PutEndMarker(name)
	}

	patch, err := c.io.PutFieldStart(name, fs.Tag)
	if err != nil {
		return err
	}
	if err := fs.Writer(c.io, v); err != nil {
		return err
	}

	return c.io.PutFieldEnd(patch)
}

func (c *IoClassSerialiser) writeFieldValue(name string, v reflect.Value) error {
	t := v.Type()
	if fs := c.lookup(t); fs != nil {
		return c.writeCustom(name, v, fs)
	}

	switch t.Kind() {
	case reflect.Bool:
		return c.io.PutBool(name, v.Bool())
	case reflect.Int8:
		return c.io.PutInt8(name, int8(v.Int()))
	case reflect.Int16:
		return c.io.PutInt16(name, int16(v.Int()))
	case reflect.Int32:
		return c.io.PutInt32(name, int32(v.Int()))
	case reflect.Int64, reflect.Int:
		return c.io.PutInt64(name, v.Int())
	case reflect.Float32:
		return c.io.PutFloat32(name, float32(v.Float()))
	case reflect.Float64:
		return c.io.PutFloat64(name, v.Float())
	case reflect.String:
		return c.io.PutString(name, v.String())
	case reflect.Slice, reflect.Array:
		return c.writeSequence(name, v)
	case reflect.Map:
		return c.writeMap(name, v)
	case reflect.Struct:
		if err := c.io.PutStartMarker(name); err != nil {
			return err
		}
		if err := c.writeStructFields(v); err != nil {
			return err
		}

		return c.io.PutEndMarker(name)
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}

		return c.writeFieldValue(name, v.Elem())
	default:
		return &errs.UnsupportedTypeError{Type: t.String()}
	}
}

func (c *IoClassSerialiser) writeSequence(name string, v reflect.Value) error {
	n := v.Len()
	switch v.Type().Elem().Kind() {
	case reflect.Bool:
		arr := make([]bool, n)
		for i := range arr {
			arr[i] = v.Index(i).Bool()
		}

		return c.io.PutBoolArray(name, arr)
	case reflect.Int8:
		arr := make([]int8, n)
		for i := range arr {
			arr[i] = int8(v.Index(i).Int())
		}

		return c.io.PutInt8Array(name, arr)
	case reflect.Int16:
		arr := make([]int16, n)
		for i := range arr {
			arr[i] = int16(v.Index(i).Int())
		}

		return c.io.PutInt16Array(name, arr)
	case reflect.Int32:
		arr := make([]int32, n)
		for i := range arr {
			arr[i] = int32(v.Index(i).Int())
		}

		return c.io.PutInt32Array(name, arr)
	case reflect.Int64, reflect.Int:
		arr := make([]int64, n)
		for i := range arr {
			arr[i] = v.Index(i).Int()
		}

		return c.io.PutInt64Array(name, arr)
	case reflect.Float32:
		arr := make([]float32, n)
		for i := range arr {
			arr[i] = float32(v.Index(i).Float())
		}

		return c.io.PutFloat32Array(name, arr)
	case reflect.Float64:
		arr := make([]float64, n)
		for i := range arr {
			arr[i] = v.Index(i).Float()
		}

		return c.io.PutFloat64Array(name, arr)
	case reflect.String:
		arr := make([]string, n)
		for i := range arr {
			arr[i] = v.Index(i).String()
		}

		return c.io.PutStringArray(name, arr)
	default:
		// list of composites: framed elements named by index; nil
		// elements are dropped, so the count reflects what is framed
		written := 0
		for i := 0; i < n; i++ {
			if !isNilValue(v.Index(i)) {
				written++
			}
		}
		patch, err := c.io.PutFieldStart(name, wire.TypeList)
		if err != nil {
			return err
		}
		if err := c.io.Buffer().PutInt32(int32(written)); err != nil {
			return err
		}
		idx := 0
		for i := 0; i < n; i++ {
			if isNilValue(v.Index(i)) {
				continue
			}
			if err := c.writeFieldValue(strconv.Itoa(idx), v.Index(i)); err != nil {
				return err
			}
			idx++
		}

		return c.io.PutFieldEnd(patch)
	}
}

// isNilValue reports whether e is a nil pointer, interface, map, or slice.
// Nil composites produce no frame on the wire, so writers that declare an
// entry count must drop them before counting.
func isNilValue(e reflect.Value) bool {
	switch e.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return e.IsNil()
	}

	return false
}

// scalarTagForType resolves the wire tag a kind maps to, TypeOther for
// composites.
func scalarTagForType(t reflect.Type) wire.DataType {
	switch t.Kind() {
	case reflect.Bool:
		return wire.TypeBool
	case reflect.Int8:
		return wire.TypeInt8
	case reflect.Int16:
		return wire.TypeInt16
	case reflect.Int32:
		return wire.TypeInt32
	case reflect.Int64, reflect.Int:
		return wire.TypeInt64
	case reflect.Float32:
		return wire.TypeFloat32
	case reflect.Float64:
		return wire.TypeFloat64
	case reflect.String:
		return wire.TypeString
	default:
		return wire.TypeOther
	}
}

func putScalarReflect(buf buffer.IoBuffer, tag wire.DataType, v reflect.Value) error {
	switch tag {
	case wire.TypeBool:
		return buf.PutBool(v.Bool())
	case wire.TypeInt8:
		return buf.PutInt8(int8(v.Int()))
	case wire.TypeInt16:
		return buf.PutInt16(int16(v.Int()))
	case wire.TypeInt32:
		return buf.PutInt32(int32(v.Int()))
	case wire.TypeInt64:
		return buf.PutInt64(v.Int())
	case wire.TypeFloat32:
		return buf.PutFloat32(float32(v.Float()))
	case wire.TypeFloat64:
		return buf.PutFloat64(v.Float())
	case wire.TypeString:
		return buf.PutString(v.String())
	default:
		return &errs.UnsupportedTypeError{Type: v.Type().String()}
	}
}

func setScalarReflect(buf buffer.IoBuffer, tag wire.DataType, target reflect.Value) error {
	switch tag {
	case wire.TypeBool:
		b, err := buf.GetBool()
		if err != nil {
			return err
		}
		target.SetBool(b)
	case wire.TypeInt8, wire.TypeInt16, wire.TypeInt32, wire.TypeInt64:
		var n int64
		var err error
		switch tag {
		case wire.TypeInt8:
			var v int8
			v, err = buf.GetInt8()
			n = int64(v)
		case wire.TypeInt16:
			var v int16
			v, err = buf.GetInt16()
			n = int64(v)
		case wire.TypeInt32:
			var v int32
			v, err = buf.GetInt32()
			n = int64(v)
		default:
			n, err = buf.GetInt64()
		}
		if err != nil {
			return err
		}
		target.SetInt(n)
	case wire.TypeFloat32:
		v, err := buf.GetFloat32()
		if err != nil {
			return err
		}
		target.SetFloat(float64(v))
	case wire.TypeFloat64:
		v, err := buf.GetFloat64()
		if err != nil {
			return err
		}
		target.SetFloat(v)
	case wire.TypeString:
		v, err := buf.GetString()
		if err != nil {
			return err
		}
		target.SetString(v)
	default:
		return &errs.UnsupportedTypeError{Type: tag.String()}
	}

	return nil
}

// sortMapKeys orders keys when the key kind has a natural order so that
// identical logical maps serialize to identical bytes.
func sortMapKeys(keys []reflect.Value) {
	if len(keys) == 0 {
		return
	}
	switch keys[0].Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		sort.Slice(keys, func(i, j int) bool { return keys[i].Int() < keys[j].Int() })
	case reflect.Float32, reflect.Float64:
		sort.Slice(keys, func(i, j int) bool { return keys[i].Float() < keys[j].Float() })
	case reflect.String:
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	}
}

func (c *IoClassSerialiser) writeMap(name string, v reflect.Value) error {
	t := v.Type()
	keyTag := scalarTagForType(t.Key())
	valTag := scalarTagForType(t.Elem())

	keys := v.MapKeys()
	sortMapKeys(keys)
	// entries with a nil composite key or value produce no frame; drop
	// them up front so the declared count matches the frames written
	kept := keys[:0]
	for _, k := range keys {
		if isNilValue(k) || isNilValue(v.MapIndex(k)) {
			continue
		}
		kept = append(kept, k)
	}
	keys = kept

	patch, err := c.io.PutFieldStart(name, wire.TypeMap)
	if err != nil {
		return err
	}
	buf := c.io.Buffer()
	if err := buf.PutInt8(int8(keyTag)); err != nil {
		return err
	}
	if err := buf.PutInt8(int8(valTag)); err != nil {
		return err
	}
	if err := buf.PutInt32(int32(len(keys))); err != nil {
		return err
	}
	for i, k := range keys {
		if keyTag != wire.TypeOther {
			if err := putScalarReflect(buf, keyTag, k); err != nil {
				return err
			}
		} else if err := c.writeFieldValue("k"+strconv.Itoa(i), k); err != nil {
			return err
		}
		val := v.MapIndex(k)
		if valTag != wire.TypeOther {
			if err := putScalarReflect(buf, valTag, val); err != nil {
				return err
			}
		} else if err := c.writeFieldValue("v"+strconv.Itoa(i), val); err != nil {
			return err
		}
	}

	return c.io.PutFieldEnd(patch)
}

// read path

func tagMismatch(field string, expected, found wire.DataType) error {
	return &errs.SchemaMismatchError{Field: field, Expected: expected.String(), Found: found.String()}
}

func (c *IoClassSerialiser) readStruct(v reflect.Value, h *wire.FieldHeader) error {
	plan := c.planFor(v.Type())
	for _, f := range plan.fields {
		ch := h.FindChild(f.name)
		if ch == nil {
			// written by an older producer, or deliberately sparse
			continue
		}
		if err := c.readFieldValue(v.Field(f.index), ch); err != nil {
			return err
		}
	}

	return nil
}

func (c *IoClassSerialiser) readFieldValue(target reflect.Value, ch *wire.FieldHeader) error {
	t := target.Type()
	if fs := c.lookup(t); fs != nil {
		if ch.Type != fs.Tag {
			return tagMismatch(ch.Name, fs.Tag, ch.Type)
		}
		if err := ch.SeekPayload(c.io.Buffer()); err != nil {
			return err
		}

		return fs.Reader(c.io, target)
	}

	switch t.Kind() {
	case reflect.Bool, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int,
		reflect.Float32, reflect.Float64, reflect.String:
		want := scalarTagForType(t)
		if ch.Type != want {
			return tagMismatch(ch.Name, want, ch.Type)
		}
		if err := ch.SeekPayload(c.io.Buffer()); err != nil {
			return err
		}

		return setScalarReflect(c.io.Buffer(), want, target)
	case reflect.Slice, reflect.Array:
		return c.readSequence(target, ch)
	case reflect.Map:
		return c.readMap(target, ch)
	case reflect.Struct:
		if ch.Type != wire.StartMarker {
			return tagMismatch(ch.Name, wire.StartMarker, ch.Type)
		}

		return c.readStruct(target, ch)
	case reflect.Pointer:
		if target.IsNil() {
			target.Set(reflect.New(t.Elem()))
		}

		return c.readFieldValue(target.Elem(), ch)
	case reflect.Interface:
		if target.IsNil() {
			return &errs.UnsupportedTypeError{Type: t.String() + " (nil interface, no registered serializer)"}
		}
		// interface elements are not addressable; work on a copy and
		// store it back so in-place updates of the concrete value stick
		concrete := reflect.New(target.Elem().Type()).Elem()
		concrete.Set(target.Elem())
		if err := c.readFieldValue(concrete, ch); err != nil {
			return err
		}
		target.Set(concrete)

		return nil
	default:
		return &errs.UnsupportedTypeError{Type: t.String()}
	}
}

func (c *IoClassSerialiser) readSequence(target reflect.Value, ch *wire.FieldHeader) error {
	t := target.Type()
	if t.Kind() == reflect.Array {
		// fixed-size arrays decode through a scratch slice; extra stream
		// elements are dropped, missing ones leave the zero value
		scratch := reflect.New(reflect.SliceOf(t.Elem())).Elem()
		if err := c.readSequence(scratch, ch); err != nil {
			return err
		}
		reflect.Copy(target, scratch)

		return nil
	}
	scalarTag := scalarTagForType(t.Elem())

	if scalarTag != wire.TypeOther {
		return c.readPrimitiveSlice(target, ch, scalarTag)
	}

	switch ch.Type {
	case wire.TypeList, wire.TypeCollection, wire.TypeQueue, wire.TypeSet:
	default:
		return tagMismatch(ch.Name, wire.TypeList, ch.Type)
	}
	if err := ch.SeekPayload(c.io.Buffer()); err != nil {
		return err
	}
	count, err := c.io.Buffer().GetInt32()
	if err != nil {
		return err
	}
	if count < 0 {
		return errs.ErrBufferUnderflow
	}

	n := int(count)
	if target.Len() != n {
		ns := reflect.MakeSlice(t, n, n)
		reflect.Copy(ns, target)
		target.Set(ns)
	}
	for i := 0; i < n; i++ {
		f, err := c.io.ReadFieldFrame()
		if err != nil {
			return err
		}
		eh := wire.NewFieldHeader(f.Name, f.Type, f.DataStart, f.Length)
		if f.Type == wire.StartMarker {
			if err := c.io.ParseFields(eh); err != nil {
				return err
			}
		}
		if err := c.readFieldValue(target.Index(i), eh); err != nil {
			return err
		}
		// land exactly past the element regardless of how much the
		// reader consumed
		if err := c.io.Buffer().SetPosition(f.DataStart + f.Length); err != nil {
			return err
		}
	}

	return nil
}

func (c *IoClassSerialiser) readPrimitiveSlice(target reflect.Value, ch *wire.FieldHeader, scalarTag wire.DataType) error {
	want := scalarTag.ArrayOf()
	if ch.Type != want && !(want == wire.TypeFloat64Array && ch.Type == wire.TypeFloat32Array) {
		return tagMismatch(ch.Name, want, ch.Type)
	}
	if err := ch.SeekPayload(c.io.Buffer()); err != nil {
		return err
	}

	t := target.Type()
	set := func(v any) {
		rv := reflect.ValueOf(v)
		if rv.Type() == t {
			target.Set(rv)

			return
		}
		// named element types: convert element-wise
		n := rv.Len()
		ns := reflect.MakeSlice(t, n, n)
		for i := 0; i < n; i++ {
			ns.Index(i).Set(rv.Index(i).Convert(t.Elem()))
		}
		target.Set(ns)
	}

	switch scalarTag {
	case wire.TypeBool:
		v, _, err := c.io.GetBoolArray()
		if err != nil {
			return err
		}
		set(v)
	case wire.TypeInt8:
		v, _, err := c.io.GetInt8Array()
		if err != nil {
			return err
		}
		set(v)
	case wire.TypeInt16:
		v, _, err := c.io.GetInt16Array()
		if err != nil {
			return err
		}
		set(v)
	case wire.TypeInt32:
		v, _, err := c.io.GetInt32Array()
		if err != nil {
			return err
		}
		set(v)
	case wire.TypeInt64:
		v, _, err := c.io.GetInt64Array()
		if err != nil {
			return err
		}
		set(v)
	case wire.TypeFloat32:
		v, _, err := c.io.GetFloat32Array()
		if err != nil {
			return err
		}
		set(v)
	case wire.TypeFloat64:
		v, err := c.io.GetFloat64ArrayAs(ch.Type)
		if err != nil {
			return err
		}
		set(v)
	case wire.TypeString:
		v, _, err := c.io.GetStringArray()
		if err != nil {
			return err
		}
		set(v)
	}

	return nil
}

func (c *IoClassSerialiser) readMap(target reflect.Value, ch *wire.FieldHeader) error {
	if ch.Type != wire.TypeMap {
		return tagMismatch(ch.Name, wire.TypeMap, ch.Type)
	}
	if err := ch.SeekPayload(c.io.Buffer()); err != nil {
		return err
	}

	t := target.Type()
	buf := c.io.Buffer()
	keyByte, err := buf.GetInt8()
	if err != nil {
		return err
	}
	valByte, err := buf.GetInt8()
	if err != nil {
		return err
	}
	keyTag := wire.DataType(uint8(keyByte))
	valTag := wire.DataType(uint8(valByte))
	count, err := buf.GetInt32()
	if err != nil {
		return err
	}
	if count < 0 {
		return errs.ErrBufferUnderflow
	}

	wantKey := scalarTagForType(t.Key())
	wantVal := scalarTagForType(t.Elem())
	if keyTag != wantKey {
		return tagMismatch(ch.Name, wantKey, keyTag)
	}
	if valTag != wantVal {
		return tagMismatch(ch.Name, wantVal, valTag)
	}

	if target.IsNil() {
		target.Set(reflect.MakeMapWithSize(t, int(count)))
	}
	for i := int32(0); i < count; i++ {
		k := reflect.New(t.Key()).Elem()
		if keyTag != wire.TypeOther {
			if err := setScalarReflect(buf, keyTag, k); err != nil {
				return err
			}
		} else if err := c.readFramedElement(k); err != nil {
			return err
		}
		v := reflect.New(t.Elem()).Elem()
		if valTag != wire.TypeOther {
			if err := setScalarReflect(buf, valTag, v); err != nil {
				return err
			}
		} else if err := c.readFramedElement(v); err != nil {
			return err
		}
		target.SetMapIndex(k, v)
	}

	return nil
}

func (c *IoClassSerialiser) readFramedElement(target reflect.Value) error {
	f, err := c.io.ReadFieldFrame()
	if err != nil {
		return err
	}
	eh := wire.NewFieldHeader(f.Name, f.Type, f.DataStart, f.Length)
	if f.Type == wire.StartMarker {
		if err := c.io.ParseFields(eh); err != nil {
			return err
		}
	}
	if err := c.readFieldValue(target, eh); err != nil {
		return err
	}

	return c.io.Buffer().SetPosition(f.DataStart + f.Length)
}
