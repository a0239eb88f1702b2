package dataset

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/binio/buffer"
	"github.com/arloliu/binio/codec"
	"github.com/arloliu/binio/errs"
	"github.com/arloliu/binio/wire"
)

// measurementDataSet builds the canonical 3-point test dataset with
// asymmetric y errors.
func measurementDataSet() *DataSet {
	ds := NewErrorDataSet("test",
		[]float64{1, 2, 3},
		[]float64{6, 7, 8},
		[]float64{0.7, 0.8, 0.9},
		[]float64{7, 8, 9},
	)
	*ds.Axis(0) = AxisDescription{Name: "time", Unit: "s", Min: 1, Max: 3}
	*ds.Axis(1) = AxisDescription{Name: "voltage", Unit: "V", Min: 6, Max: 9}
	ds.SetMetaLists(
		[]string{"calibrated"},
		[]string{"sensor drift"},
		[]string{"spike at t=2"},
	)
	ds.SetMetaInfo(map[string]string{"device": "scope-1", "run": "42"})
	ds.SetDataLabel(0, "first")
	ds.SetStyle(2, "color: red")

	return ds
}

func writeDataSet(t *testing.T, ds *DataSet, asFloat bool) *wire.BinarySerialiser {
	t.Helper()
	io := wire.New(buffer.NewFastByteBuffer(512))
	require.NoError(t, NewSerialiser(io).Write(ds, asFloat))

	return io
}

func TestNewErrorDataSet_Shape(t *testing.T) {
	ds := measurementDataSet()
	require.Equal(t, "test", ds.Name())
	require.Equal(t, 2, ds.Dimension())
	require.Equal(t, 3, ds.DataCount())
	require.Equal(t, NoError, ds.ErrorType(0))
	require.Equal(t, Asymmetric, ds.ErrorType(1))
	require.Equal(t, []float64{1, 2, 3}, ds.Values(0))
	require.Equal(t, []float64{6, 7, 8}, ds.Values(1))
	require.Equal(t, []float64{0.7, 0.8, 0.9}, ds.ErrorsNegative(1))
	require.Equal(t, []float64{7, 8, 9}, ds.ErrorsPositive(1))
}

func TestSetErrors_TypeTransitions(t *testing.T) {
	ds := New("transitions", 1)
	require.Equal(t, NoError, ds.ErrorType(0))

	ds.SetErrors(0, nil, []float64{1})
	require.Equal(t, Symmetric, ds.ErrorType(0))

	ds.SetErrors(0, []float64{0.5}, []float64{1})
	require.Equal(t, Asymmetric, ds.ErrorType(0))

	ds.SetErrors(0, nil, nil)
	require.Equal(t, NoError, ds.ErrorType(0))
}

func TestSerialiser_RoundTrip(t *testing.T) {
	src := measurementDataSet()
	io := writeDataSet(t, src, false)

	got, err := NewSerialiser(io).Read()
	require.NoError(t, err)

	require.Equal(t, src.Name(), got.Name())
	require.Equal(t, src.Dimension(), got.Dimension())
	require.Equal(t, src.DataCount(), got.DataCount())
	require.Equal(t, src.Values(0), got.Values(0))
	require.Equal(t, src.Values(1), got.Values(1))
	require.Equal(t, Asymmetric, got.ErrorType(1))
	require.Equal(t, src.ErrorsNegative(1), got.ErrorsNegative(1))
	require.Equal(t, src.ErrorsPositive(1), got.ErrorsPositive(1))
	require.Equal(t, src.AxisDescriptions(), got.AxisDescriptions())
	require.Equal(t, src.InfoList(), got.InfoList())
	require.Equal(t, src.WarningList(), got.WarningList())
	require.Equal(t, src.ErrorList(), got.ErrorList())
	require.Equal(t, src.MetaInfo(), got.MetaInfo())
	require.Equal(t, "first", got.DataLabel(0))
	require.Equal(t, "", got.DataLabel(1))
	require.Equal(t, "color: red", got.Style(2))
}

func TestSerialiser_AsFloatPrecision(t *testing.T) {
	src := New("precision", 1)
	values := []float64{1.0000000001, 2.5, 1e-12}
	src.SetValues(0, values)

	io := writeDataSet(t, src, true)
	got, err := NewSerialiser(io).Read()
	require.NoError(t, err)

	// precision follows the stream tag: values come back through float32
	want := make([]float64, len(values))
	for i, v := range values {
		want[i] = float64(float32(v))
	}
	require.Equal(t, want, got.Values(0))
}

func TestSerialiser_SymmetricErrorsOnWire(t *testing.T) {
	src := New("sym", 1)
	src.SetValues(0, []float64{1, 2})
	src.SetErrors(0, nil, []float64{0.1, 0.2})

	io := writeDataSet(t, src, false)

	root, err := io.ParseIoStream()
	require.NoError(t, err)
	obj := root.FindChild(rootStartName)
	require.NotNil(t, obj)
	require.Nil(t, obj.FindChild("en0"), "symmetric errors carry no negative array")
	require.NotNil(t, obj.FindChild("ep0"))

	got, err := NewSerialiser(io).Read()
	require.NoError(t, err)
	require.Equal(t, Symmetric, got.ErrorType(0))
	require.Equal(t, []float64{0.1, 0.2}, got.ErrorsPositive(0))
	require.Nil(t, got.ErrorsNegative(0))
}

func TestSerialiser_SparseMapsOmittedWhenEmpty(t *testing.T) {
	src := New("plain", 1)
	src.SetValues(0, []float64{5})

	io := writeDataSet(t, src, false)
	root, err := io.ParseIoStream()
	require.NoError(t, err)
	obj := root.FindChild(rootStartName)
	require.NotNil(t, obj)
	require.Nil(t, obj.FindChild(fieldDataLabels))
	require.Nil(t, obj.FindChild(fieldDataStyles))
}

func TestSerialiser_MetaTransmissionToggles(t *testing.T) {
	src := measurementDataSet()

	io := wire.New(buffer.NewFastByteBuffer(512))
	s := NewSerialiser(io)
	s.SetMetaDataSerialised(false)
	s.SetDataLabelsSerialised(false)
	require.False(t, s.IsMetaDataSerialised())
	require.False(t, s.IsDataLabelsSerialised())
	require.NoError(t, s.Write(src, false))

	root, err := io.ParseIoStream()
	require.NoError(t, err)
	obj := root.FindChild(rootStartName)
	require.NotNil(t, obj)
	require.Nil(t, obj.FindChild(fieldMetaInfo))
	require.Nil(t, obj.FindChild(fieldInfoList))
	require.Nil(t, obj.FindChild(fieldDataLabels))

	got, err := NewSerialiser(io).Read()
	require.NoError(t, err)
	require.Equal(t, src.Values(1), got.Values(1))
	require.Empty(t, got.MetaInfo())
	require.Empty(t, got.InfoList())
}

func TestSerialiser_Read_SkipsUnknownFields(t *testing.T) {
	// a stream from a newer producer carrying fields this reader does not
	// know about
	io := wire.New(buffer.NewFastByteBuffer(512))
	require.NoError(t, io.PutHeaderInfo())
	require.NoError(t, io.PutStartMarker(rootStartName))
	require.NoError(t, io.PutString(fieldDataSetName, "future"))
	require.NoError(t, io.PutInt32(fieldNDims, 1))
	require.NoError(t, io.PutFloat64Array("array0", []float64{1, 2}))
	require.NoError(t, io.PutString("futureAnnotation", "ignored"))
	require.NoError(t, io.PutInt64Array("futureBlock", []int64{9, 9, 9}))
	require.NoError(t, io.PutEndMarker(rootEndName))

	got, err := NewSerialiser(io).Read()
	require.NoError(t, err)
	require.Equal(t, "future", got.Name())
	require.Equal(t, []float64{1, 2}, got.Values(0))
}

func TestSerialiser_Read_DeclaredDimsWithoutArrays(t *testing.T) {
	// the declared dimensionality wins even when trailing dimensions
	// carry no value arrays
	io := wire.New(buffer.NewFastByteBuffer(512))
	require.NoError(t, io.PutHeaderInfo())
	require.NoError(t, io.PutStartMarker(rootStartName))
	require.NoError(t, io.PutString(fieldDataSetName, "sparse"))
	require.NoError(t, io.PutInt32(fieldNDims, 3))
	require.NoError(t, io.PutFloat64Array("array0", []float64{1, 2}))
	require.NoError(t, io.PutEndMarker(rootEndName))

	got, err := NewSerialiser(io).Read()
	require.NoError(t, err)
	require.Equal(t, 3, got.Dimension())
	require.Equal(t, []float64{1, 2}, got.Values(0))
	require.Nil(t, got.Values(1))
	require.Nil(t, got.Values(2))
}

func TestSerialiser_Read_TagMismatch(t *testing.T) {
	io := wire.New(buffer.NewFastByteBuffer(256))
	require.NoError(t, io.PutHeaderInfo())
	require.NoError(t, io.PutStartMarker(rootStartName))
	// dataSetName must be a string; an int here is a schema violation
	require.NoError(t, io.PutInt32(fieldDataSetName, 7))
	require.NoError(t, io.PutEndMarker(rootEndName))

	_, err := NewSerialiser(io).Read()
	var mismatch *errs.SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, fieldDataSetName, mismatch.Field)
}

func TestSerialiser_Read_BadHeader(t *testing.T) {
	buf := buffer.NewFastByteBuffer(64)
	require.NoError(t, buf.PutInt32(0x0BADF00D))

	_, err := NewSerialiser(wire.New(buf)).Read()
	require.ErrorIs(t, err, errs.ErrProtocolMismatch)
}

func TestBuilder_Build(t *testing.T) {
	ds := NewBuilder().
		SetName("built").
		SetValues(0, []float64{1, 2}).
		SetValues(1, []float64{3, 4}).
		SetPosError(1, []float64{0.3, 0.4}).
		SetAxis(0, AxisDescription{Name: "x", Unit: "m"}).
		AddInfo("note").
		PutMetaInfo("k", "v").
		SetDataLabel(1, "peak").
		Build()

	require.Equal(t, "built", ds.Name())
	require.Equal(t, 2, ds.Dimension())
	require.Equal(t, Symmetric, ds.ErrorType(1))
	require.Equal(t, "x", ds.Axis(0).Name)
	require.Equal(t, []string{"note"}, ds.InfoList())
	require.Equal(t, map[string]string{"k": "v"}, ds.MetaInfo())
	require.Equal(t, "peak", ds.DataLabel(1))
}

func TestRegisterSerialiser_EmbeddedInObjectGraph(t *testing.T) {
	type acquisition struct {
		Station string
		Run     int64
		Data    *DataSet
	}

	c := codec.NewIoClassSerialiser(wire.New(buffer.NewFastByteBuffer(1024)))
	RegisterSerialiser(c)

	src := &acquisition{Station: "lab-3", Run: 17, Data: measurementDataSet()}
	require.NoError(t, c.SerialiseObject(src))

	var got acquisition
	require.NoError(t, c.DeserialiseObject(&got))
	require.Equal(t, "lab-3", got.Station)
	require.Equal(t, int64(17), got.Run)
	require.NotNil(t, got.Data)
	require.Equal(t, "test", got.Data.Name())
	require.Equal(t, 3, got.Data.DataCount())
	require.Equal(t, src.Data.Values(1), got.Data.Values(1))
	require.Equal(t, Asymmetric, got.Data.ErrorType(1))
	require.Equal(t, "first", got.Data.DataLabel(0))
}

func TestRegisterSerialiser_ReusesExistingDataSet(t *testing.T) {
	type holder struct{ Data *DataSet }

	c := codec.NewIoClassSerialiser(wire.New(buffer.NewFastByteBuffer(1024)))
	RegisterSerialiser(c)

	require.NoError(t, c.SerialiseObject(&holder{Data: measurementDataSet()}))

	prior := New("stale", 0)
	got := holder{Data: prior}
	require.NoError(t, c.DeserialiseObject(&got))
	require.Same(t, prior, got.Data)
	require.Equal(t, "test", got.Data.Name())
}
