package wire

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/binio/buffer"
	"github.com/arloliu/binio/errs"
)

func newSerialiser(t *testing.T) *BinarySerialiser {
	t.Helper()

	return New(buffer.NewFastByteBuffer(256))
}

func TestHeaderInfo_RoundTrip(t *testing.T) {
	s := newSerialiser(t)
	require.NoError(t, s.PutHeaderInfo())

	s.Buffer().Reset()
	info, err := s.CheckHeaderInfo()
	require.NoError(t, err)
	require.Equal(t, DefaultProducer, info.Producer)
	require.Equal(t, VersionMajor, info.Major)
	require.Equal(t, VersionMinor, info.Minor)
	require.Equal(t, VersionMicro, info.Micro)
}

func TestCheckHeaderInfo_BadMagic(t *testing.T) {
	buf := buffer.NewFastByteBuffer(64)
	require.NoError(t, buf.PutInt32(0x12345678))
	buf.Reset()

	_, err := New(buf).CheckHeaderInfo()
	require.ErrorIs(t, err, errs.ErrProtocolMismatch)
}

func TestCheckHeaderInfo_NewerMajorVersion(t *testing.T) {
	buf := buffer.NewFastByteBuffer(64)
	require.NoError(t, buf.PutInt32(int32(Magic)))
	require.NoError(t, buf.PutInt8(VersionMajor+1))
	require.NoError(t, buf.PutInt8(0))
	require.NoError(t, buf.PutInt8(0))
	require.NoError(t, buf.PutString("future"))
	buf.Reset()

	_, err := New(buf).CheckHeaderInfo()
	require.ErrorIs(t, err, errs.ErrProtocolMismatch)
}

func TestScalarFields_RoundTrip(t *testing.T) {
	s := newSerialiser(t)
	require.NoError(t, s.PutHeaderInfo())
	require.NoError(t, s.PutBool("flag", true))
	require.NoError(t, s.PutInt8("i8", -5))
	require.NoError(t, s.PutInt16("i16", 1234))
	require.NoError(t, s.PutInt32("i32", -100000))
	require.NoError(t, s.PutInt64("i64", 1<<40))
	require.NoError(t, s.PutFloat32("f32", 2.25))
	require.NoError(t, s.PutFloat64("f64", math.E))
	require.NoError(t, s.PutString("str", "value"))

	root, err := s.ParseIoStream()
	require.NoError(t, err)
	require.Len(t, root.Children(), 8)

	seek := func(name string, want DataType) {
		ch := root.FindChild(name)
		require.NotNil(t, ch, "field %q", name)
		require.Equal(t, want, ch.Type)
		require.NoError(t, ch.SeekPayload(s.Buffer()))
	}

	seek("flag", TypeBool)
	b, err := s.GetBool()
	require.NoError(t, err)
	require.True(t, b)

	seek("i64", TypeInt64)
	i64, err := s.GetInt64()
	require.NoError(t, err)
	require.Equal(t, int64(1<<40), i64)

	seek("f64", TypeFloat64)
	f64, err := s.GetFloat64()
	require.NoError(t, err)
	require.Equal(t, math.E, f64)

	seek("str", TypeString)
	str, err := s.GetString()
	require.NoError(t, err)
	require.Equal(t, "value", str)

	// out-of-order access works because each field is addressed by its
	// parsed header, not by stream order
	seek("i8", TypeInt8)
	i8, err := s.GetInt8()
	require.NoError(t, err)
	require.Equal(t, int8(-5), i8)
}

func TestArrayFields_RoundTrip(t *testing.T) {
	s := newSerialiser(t)
	require.NoError(t, s.PutHeaderInfo())
	require.NoError(t, s.PutFloat64Array("values", []float64{1.5, 2.5, 3.5}))
	require.NoError(t, s.PutInt32Array("grid", []int32{1, 2, 3, 4, 5, 6}, 2, 3))
	require.NoError(t, s.PutStringArray("names", []string{"x", "y"}))

	root, err := s.ParseIoStream()
	require.NoError(t, err)

	ch := root.FindChild("values")
	require.NotNil(t, ch)
	require.Equal(t, TypeFloat64Array, ch.Type)
	require.NoError(t, ch.SeekPayload(s.Buffer()))
	values, dims, err := s.GetFloat64Array()
	require.NoError(t, err)
	require.Equal(t, []float64{1.5, 2.5, 3.5}, values)
	require.Equal(t, []int32{3}, dims)

	ch = root.FindChild("grid")
	require.NotNil(t, ch)
	require.NoError(t, ch.SeekPayload(s.Buffer()))
	grid, dims, err := s.GetInt32Array()
	require.NoError(t, err)
	require.Equal(t, []int32{1, 2, 3, 4, 5, 6}, grid)
	require.Equal(t, []int32{2, 3}, dims)

	ch = root.FindChild("names")
	require.NotNil(t, ch)
	require.NoError(t, ch.SeekPayload(s.Buffer()))
	names, _, err := s.GetStringArray()
	require.NoError(t, err)
	require.Equal(t, []string{"x", "y"}, names)
}

func TestPutArray_DimensionMismatch(t *testing.T) {
	s := newSerialiser(t)
	err := s.PutFloat64Array("bad", []float64{1, 2, 3}, 2, 2)
	require.ErrorIs(t, err, errs.ErrInvalidArrayDims)

	err = s.PutInt32Array("neg", []int32{1}, -1)
	require.ErrorIs(t, err, errs.ErrInvalidArrayDims)
}

func TestGetFloat64ArrayAs_Widening(t *testing.T) {
	s := newSerialiser(t)
	require.NoError(t, s.PutHeaderInfo())
	require.NoError(t, s.PutFloat32Array("narrow", []float32{1.5, -2.5}))
	require.NoError(t, s.PutFloat64Array("wide", []float64{4.5}))
	require.NoError(t, s.PutInt32Array("ints", []int32{1}))

	root, err := s.ParseIoStream()
	require.NoError(t, err)

	ch := root.FindChild("narrow")
	require.NoError(t, ch.SeekPayload(s.Buffer()))
	v, err := s.GetFloat64ArrayAs(ch.Type)
	require.NoError(t, err)
	require.Equal(t, []float64{1.5, -2.5}, v)

	ch = root.FindChild("wide")
	require.NoError(t, ch.SeekPayload(s.Buffer()))
	v, err = s.GetFloat64ArrayAs(ch.Type)
	require.NoError(t, err)
	require.Equal(t, []float64{4.5}, v)

	ch = root.FindChild("ints")
	require.NoError(t, ch.SeekPayload(s.Buffer()))
	_, err = s.GetFloat64ArrayAs(ch.Type)
	var mismatch *errs.SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestNestedObjects_ParseTree(t *testing.T) {
	s := newSerialiser(t)
	require.NoError(t, s.PutHeaderInfo())
	require.NoError(t, s.PutInt32("top", 1))
	require.NoError(t, s.PutStartMarker("outer"))
	require.NoError(t, s.PutString("inner.name", "nested"))
	require.NoError(t, s.PutStartMarker("deep"))
	require.NoError(t, s.PutFloat64("deep.value", 9.5))
	require.NoError(t, s.PutEndMarker("deep"))
	require.NoError(t, s.PutEndMarker("outer"))
	require.NoError(t, s.PutBool("tail", true))

	root, err := s.ParseIoStream()
	require.NoError(t, err)
	require.Len(t, root.Children(), 3)

	outer := root.FindChild("outer")
	require.NotNil(t, outer)
	require.Equal(t, StartMarker, outer.Type)
	require.Len(t, outer.Children(), 2)
	require.Same(t, root, outer.Parent())

	deep := outer.FindChild("deep")
	require.NotNil(t, deep)
	require.Len(t, deep.Children(), 1)

	ch := deep.FindChild("deep.value")
	require.NotNil(t, ch)
	require.NoError(t, ch.SeekPayload(s.Buffer()))
	v, err := s.GetFloat64()
	require.NoError(t, err)
	require.Equal(t, 9.5, v)

	// the field after the nested object is a sibling, not a child
	require.Nil(t, outer.FindChild("tail"))
	require.NotNil(t, root.FindChild("tail"))
}

func TestEndMarker_BackPatchesLength(t *testing.T) {
	s := newSerialiser(t)
	require.NoError(t, s.PutHeaderInfo())
	require.NoError(t, s.PutStartMarker("obj"))
	require.NoError(t, s.PutInt64("a", 1))
	require.NoError(t, s.PutInt64("b", 2))
	require.NoError(t, s.PutEndMarker("obj"))

	root, err := s.ParseIoStream()
	require.NoError(t, err)
	obj := root.FindChild("obj")
	require.NotNil(t, obj)

	// the committed length spans both fields and the end marker, so a
	// reader can hop over the object in one seek
	require.Equal(t, s.Buffer().Limit(), obj.DataStart+obj.DataSize)
	require.Positive(t, obj.DataSize)
}

func TestPutFieldHeader_PayloadLengthOutOfRange(t *testing.T) {
	s := newSerialiser(t)

	err := s.putFieldHeader("huge", TypeOther, int(math.MaxInt32)+1)
	require.ErrorIs(t, err, errs.ErrBufferOverflow)
	// nothing written: the frame is rejected before the name goes out
	require.Equal(t, 0, s.Buffer().Position())

	err = s.putFieldHeader("neg", TypeOther, -1)
	require.ErrorIs(t, err, errs.ErrBufferOverflow)
}

func TestPutEndMarker_WithoutOpenObject(t *testing.T) {
	s := newSerialiser(t)
	require.Error(t, s.PutEndMarker("stray"))
}

func TestParse_SkipsUnknownFields(t *testing.T) {
	s := newSerialiser(t)
	require.NoError(t, s.PutHeaderInfo())
	require.NoError(t, s.PutString("known", "before"))
	// a field type this reader has no decoder for is still skippable by
	// its recorded length
	require.NoError(t, s.PutFloat64Array("unknown", []float64{1, 2, 3, 4}))
	require.NoError(t, s.PutString("alsoKnown", "after"))

	root, err := s.ParseIoStream()
	require.NoError(t, err)
	require.Len(t, root.Children(), 3)

	ch := root.FindChild("alsoKnown")
	require.NotNil(t, ch)
	require.NoError(t, ch.SeekPayload(s.Buffer()))
	v, err := s.GetString()
	require.NoError(t, err)
	require.Equal(t, "after", v)
}

func TestReadFieldFrame_TruncatedPayload(t *testing.T) {
	s := newSerialiser(t)
	require.NoError(t, s.PutHeaderInfo())
	require.NoError(t, s.PutFloat64Array("data", []float64{1, 2, 3}))

	// corrupt: truncate the stream inside the payload
	full := s.Buffer().Bytes()
	truncated := buffer.WrapFastByteBuffer(full[:len(full)-8])

	_, err := New(truncated).ParseIoStream()
	require.ErrorIs(t, err, errs.ErrBufferUnderflow)
}

func TestMap_RoundTrip(t *testing.T) {
	s := newSerialiser(t)
	require.NoError(t, s.PutHeaderInfo())
	meta := map[string]string{"device": "scope-1", "operator": "dev"}
	labels := map[int32]string{0: "origin", 7: "peak"}
	require.NoError(t, PutMap(s, "meta", meta))
	require.NoError(t, PutMap(s, "labels", labels))

	root, err := s.ParseIoStream()
	require.NoError(t, err)

	ch := root.FindChild("meta")
	require.NotNil(t, ch)
	require.Equal(t, TypeMap, ch.Type)
	require.NoError(t, ch.SeekPayload(s.Buffer()))
	gotMeta, err := GetMap[string, string](s)
	require.NoError(t, err)
	require.Equal(t, meta, gotMeta)

	ch = root.FindChild("labels")
	require.NotNil(t, ch)
	require.NoError(t, ch.SeekPayload(s.Buffer()))
	gotLabels, err := GetMap[int32, string](s)
	require.NoError(t, err)
	require.Equal(t, labels, gotLabels)
}

func TestMap_DeterministicBytes(t *testing.T) {
	write := func() []byte {
		s := newSerialiser(t)
		require.NoError(t, PutMap(s, "m", map[string]int64{"c": 3, "a": 1, "b": 2}))

		return append([]byte(nil), s.Buffer().Bytes()...)
	}

	first := write()
	for i := 0; i < 10; i++ {
		require.Equal(t, first, write())
	}
}

func TestMap_KeyTagMismatch(t *testing.T) {
	s := newSerialiser(t)
	require.NoError(t, s.PutHeaderInfo())
	require.NoError(t, PutMap(s, "m", map[string]string{"k": "v"}))

	root, err := s.ParseIoStream()
	require.NoError(t, err)
	ch := root.FindChild("m")
	require.NoError(t, ch.SeekPayload(s.Buffer()))

	_, err = GetMap[int32, string](s)
	var mismatch *errs.SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestPutValue_DispatchesByType(t *testing.T) {
	s := newSerialiser(t)
	require.NoError(t, s.PutHeaderInfo())
	require.NoError(t, PutValue(s, "b", true))
	require.NoError(t, PutValue(s, "n", int32(5)))
	require.NoError(t, PutValue(s, "f", 2.5))
	require.NoError(t, PutValue(s, "s", "text"))
	require.NoError(t, PutValue(s, "arr", []float64{1, 2}))
	require.NoError(t, PutValue(s, "m", map[string]string{"k": "v"}))

	var unsupported *errs.UnsupportedTypeError
	require.ErrorAs(t, PutValue(s, "bad", uint32(1)), &unsupported)
	require.ErrorAs(t, PutValue(s, "bad", struct{}{}), &unsupported)

	root, err := s.ParseIoStream()
	require.NoError(t, err)
	require.Equal(t, TypeBool, root.FindChild("b").Type)
	require.Equal(t, TypeInt32, root.FindChild("n").Type)
	require.Equal(t, TypeFloat64, root.FindChild("f").Type)
	require.Equal(t, TypeString, root.FindChild("s").Type)
	require.Equal(t, TypeFloat64Array, root.FindChild("arr").Type)
	require.Equal(t, TypeMap, root.FindChild("m").Type)
}

func TestDataType_ArrayMapping(t *testing.T) {
	require.Equal(t, TypeFloat64Array, TypeFloat64.ArrayOf())
	require.Equal(t, TypeFloat64, TypeFloat64Array.ScalarOf())
	require.True(t, TypeStringArray.IsArray())
	require.False(t, TypeString.IsArray())
	require.False(t, TypeMap.IsArray())
}

func TestFieldHeader_TreeString(t *testing.T) {
	s := newSerialiser(t)
	require.NoError(t, s.PutHeaderInfo())
	require.NoError(t, s.PutStartMarker("obj"))
	require.NoError(t, s.PutInt32("n", 3))
	require.NoError(t, s.PutEndMarker("obj"))

	root, err := s.ParseIoStream()
	require.NoError(t, err)
	dump := root.TreeString()
	require.Contains(t, dump, `"obj"`)
	require.Contains(t, dump, `"n"`)
}
