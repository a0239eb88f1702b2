package binio

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/binio/compress"
	"github.com/arloliu/binio/dataset"
	"github.com/arloliu/binio/errs"
)

type measurement struct {
	Sensor  string
	Reading float64
	Samples []int64
	Tags    map[string]string
}

func sampleMeasurement() *measurement {
	return &measurement{
		Sensor:  "thermo-7",
		Reading: 21.5,
		Samples: []int64{100, 200, 300},
		Tags:    map[string]string{"site": "hall-b"},
	}
}

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	data, err := Marshal(sampleMeasurement())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	var got measurement
	require.NoError(t, Unmarshal(data, &got))
	require.Equal(t, *sampleMeasurement(), got)
}

func TestMarshal_Deterministic(t *testing.T) {
	first, err := Marshal(sampleMeasurement())
	require.NoError(t, err)
	second, err := Marshal(sampleMeasurement())
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestMarshalUnmarshal_BigEndian(t *testing.T) {
	data, err := Marshal(sampleMeasurement(), WithBigEndian())
	require.NoError(t, err)

	// byte order is not self-describing; mismatched readers fail at the
	// magic number
	var got measurement
	require.ErrorIs(t, Unmarshal(data, &got), errs.ErrProtocolMismatch)

	require.NoError(t, Unmarshal(data, &got, WithBigEndian()))
	require.Equal(t, *sampleMeasurement(), got)
}

func TestMarshalCompressed_RoundTrip(t *testing.T) {
	for _, ct := range []compress.Type{compress.TypeNone, compress.TypeZstd, compress.TypeS2, compress.TypeLZ4} {
		t.Run(ct.String(), func(t *testing.T) {
			data, err := MarshalCompressed(sampleMeasurement(), ct)
			require.NoError(t, err)
			require.Equal(t, byte(ct), data[0])

			var got measurement
			require.NoError(t, UnmarshalCompressed(data, &got))
			require.Equal(t, *sampleMeasurement(), got)
		})
	}
}

func TestMarshalCompressed_UnknownType(t *testing.T) {
	_, err := MarshalCompressed(sampleMeasurement(), compress.Type(250))
	require.ErrorIs(t, err, errs.ErrUnknownCompression)
}

func TestUnmarshalCompressed_BadInput(t *testing.T) {
	var got measurement
	require.ErrorIs(t, UnmarshalCompressed(nil, &got), errs.ErrBufferUnderflow)
	require.ErrorIs(t, UnmarshalCompressed([]byte{250, 1, 2}, &got), errs.ErrUnknownCompression)
}

func TestMarshalDataSet_RoundTrip(t *testing.T) {
	src := dataset.NewErrorDataSet("test",
		[]float64{1, 2, 3},
		[]float64{6, 7, 8},
		[]float64{0.7, 0.8, 0.9},
		[]float64{7, 8, 9},
	)

	data, err := MarshalDataSet(src, false)
	require.NoError(t, err)

	got, err := UnmarshalDataSet(data)
	require.NoError(t, err)
	require.Equal(t, "test", got.Name())
	require.Equal(t, 3, got.DataCount())
	require.Equal(t, src.Values(0), got.Values(0))
	require.Equal(t, src.Values(1), got.Values(1))
	require.Equal(t, dataset.Asymmetric, got.ErrorType(1))
	require.Equal(t, src.ErrorsNegative(1), got.ErrorsNegative(1))
	require.Equal(t, src.ErrorsPositive(1), got.ErrorsPositive(1))
}

func TestWithDataSetSupport_EmbeddedDataSet(t *testing.T) {
	type archive struct {
		Title string
		Data  *dataset.DataSet
	}

	src := &archive{
		Title: "run-42",
		Data:  dataset.NewErrorDataSet("test", []float64{1, 2}, []float64{3, 4}, nil, nil),
	}

	data, err := Marshal(src, WithDataSetSupport())
	require.NoError(t, err)

	var got archive
	require.NoError(t, Unmarshal(data, &got, WithDataSetSupport()))
	require.Equal(t, "run-42", got.Title)
	require.NotNil(t, got.Data)
	require.Equal(t, "test", got.Data.Name())
	require.Equal(t, src.Data.Values(1), got.Data.Values(1))
}

func TestMarshal_SchemaEvolution(t *testing.T) {
	type v2 struct {
		Sensor   string
		Reading  float64
		Location string // added in a newer producer
	}

	data, err := Marshal(&v2{Sensor: "thermo-7", Reading: 3.5, Location: "roof"})
	require.NoError(t, err)

	// the older reader skips Location by its recorded length
	var got measurement
	require.NoError(t, Unmarshal(data, &got))
	require.Equal(t, "thermo-7", got.Sensor)
	require.Equal(t, 3.5, got.Reading)
}
