package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/binio/codec"
	"github.com/arloliu/binio/errs"
	"github.com/arloliu/binio/wire"
)

// Field name conventions of the dataset wire layout. Dimension-indexed
// fields append the decimal dimension index (array0, en1, axis0.name).
const (
	fieldDataSetName = "dataSetName"
	fieldNDims       = "nDims"
	fieldInfoList    = "infoList"
	fieldWarningList = "warningList"
	fieldErrorList   = "errorList"
	fieldMetaInfo    = "metaInfo"
	fieldDataLabels  = "dataLabels"
	fieldDataStyles  = "dataStyles"

	axisPrefix     = "axis"
	arrayPrefix    = "array"
	negErrorPrefix = "en"
	posErrorPrefix = "ep"

	rootStartName = "OBJ_ROOT_START"
	rootEndName   = "OBJ_ROOT_END"
)

// Serialiser writes and reads DataSet objects on the wire protocol.
//
// Metadata (info/warning/error lists, metaInfo) and the sparse per-point
// label/style maps are transmitted by default; both groups can be switched
// off independently to trim streams that only move numeric payload.
type Serialiser struct {
	io             *wire.BinarySerialiser
	transmitMeta   bool
	transmitLabels bool
}

// NewSerialiser creates a dataset serialiser over the given wire serialiser.
func NewSerialiser(io *wire.BinarySerialiser) *Serialiser {
	return &Serialiser{io: io, transmitMeta: true, transmitLabels: true}
}

// SetMetaDataSerialised controls transmission of the metadata lists and map.
func (s *Serialiser) SetMetaDataSerialised(v bool) { s.transmitMeta = v }

// IsMetaDataSerialised reports whether metadata is transmitted.
func (s *Serialiser) IsMetaDataSerialised() bool { return s.transmitMeta }

// SetDataLabelsSerialised controls transmission of the label/style maps.
func (s *Serialiser) SetDataLabelsSerialised(v bool) { s.transmitLabels = v }

// IsDataLabelsSerialised reports whether labels and styles are transmitted.
func (s *Serialiser) IsDataLabelsSerialised() bool { return s.transmitLabels }

// Write serializes ds as a complete stream: protocol header, a root object
// holding the dataset fields, and the closing end marker. asFloat selects
// single-precision storage for the numeric arrays, halving payload size at
// the cost of precision.
//
// The dataset lock is held for the duration of the traversal.
func (s *Serialiser) Write(ds *DataSet, asFloat bool) error {
	ds.Lock()
	defer ds.Unlock()

	if err := s.io.PutHeaderInfo(); err != nil {
		return err
	}
	if err := s.io.PutStartMarker(rootStartName); err != nil {
		return err
	}
	if err := s.writeFields(ds, asFloat); err != nil {
		return err
	}

	return s.io.PutEndMarker(rootEndName)
}

// writeFields emits the dataset's fields at the current nesting level. It is
// shared between Write and the codec adapter, which provides its own
// framing.
func (s *Serialiser) writeFields(ds *DataSet, asFloat bool) error {
	if err := s.io.PutString(fieldDataSetName, ds.Name()); err != nil {
		return err
	}
	nDims := ds.Dimension()
	if err := s.io.PutInt32(fieldNDims, int32(nDims)); err != nil {
		return err
	}

	for dim := 0; dim < nDims; dim++ {
		axis := ds.Axis(dim)
		prefix := axisPrefix + strconv.Itoa(dim)
		if err := s.io.PutString(prefix+".name", axis.Name); err != nil {
			return err
		}
		if err := s.io.PutString(prefix+".unit", axis.Unit); err != nil {
			return err
		}
		if err := s.io.PutFloat64(prefix+".Min", axis.Min); err != nil {
			return err
		}
		if err := s.io.PutFloat64(prefix+".Max", axis.Max); err != nil {
			return err
		}
	}

	for dim := 0; dim < nDims; dim++ {
		name := arrayPrefix + strconv.Itoa(dim)
		if err := s.putDoubleArray(name, ds.Values(dim), asFloat); err != nil {
			return err
		}
	}

	for dim := 0; dim < nDims; dim++ {
		idx := strconv.Itoa(dim)
		switch ds.ErrorType(dim) {
		case NoError:
			// nothing on the wire
		case Symmetric:
			if err := s.putDoubleArray(posErrorPrefix+idx, ds.ErrorsPositive(dim), asFloat); err != nil {
				return err
			}
		case Asymmetric:
			if err := s.putDoubleArray(negErrorPrefix+idx, ds.ErrorsNegative(dim), asFloat); err != nil {
				return err
			}
			if err := s.putDoubleArray(posErrorPrefix+idx, ds.ErrorsPositive(dim), asFloat); err != nil {
				return err
			}
		}
	}

	if s.transmitMeta {
		if err := s.io.PutStringArray(fieldInfoList, ds.InfoList()); err != nil {
			return err
		}
		if err := s.io.PutStringArray(fieldWarningList, ds.WarningList()); err != nil {
			return err
		}
		if err := s.io.PutStringArray(fieldErrorList, ds.ErrorList()); err != nil {
			return err
		}
		if err := wire.PutMap(s.io, fieldMetaInfo, ds.MetaInfo()); err != nil {
			return err
		}
	}

	if s.transmitLabels {
		// sparse maps are only emitted when they carry entries
		if m := ds.DataLabels(); len(m) > 0 {
			if err := wire.PutMap(s.io, fieldDataLabels, m); err != nil {
				return err
			}
		}
		if m := ds.DataStyles(); len(m) > 0 {
			if err := wire.PutMap(s.io, fieldDataStyles, m); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *Serialiser) putDoubleArray(name string, v []float64, asFloat bool) error {
	if !asFloat {
		return s.io.PutFloat64Array(name, v)
	}
	narrow := make([]float32, len(v))
	for i, e := range v {
		narrow[i] = float32(e)
	}

	return s.io.PutFloat32Array(name, narrow)
}

// Read structurally parses the stream and reconstructs a dataset. Unknown
// fields are skipped by their recorded length; known fields with a wrong
// type tag raise a SchemaMismatchError.
func (s *Serialiser) Read() (*DataSet, error) {
	root, err := s.io.ParseIoStream()
	if err != nil {
		return nil, err
	}
	node := root.FindChild(rootStartName)
	if node == nil {
		// tolerate streams whose fields sit directly at top level
		node = root
	}

	return s.readFields(node)
}

// readFields materializes a dataset from a parsed field subtree. Field
// lookup is by name, so field order does not matter and absent optional
// fields leave their defaults.
func (s *Serialiser) readFields(node *wire.FieldHeader) (*DataSet, error) {
	b := NewBuilder()
	negErrs := map[int][]float64{}
	posErrs := map[int][]float64{}

	for _, ch := range node.Children() {
		switch {
		case ch.Name == fieldDataSetName:
			v, err := s.getString(ch)
			if err != nil {
				return nil, err
			}
			b.SetName(v)
		case ch.Name == fieldNDims:
			v, err := s.getInt32(ch)
			if err != nil {
				return nil, err
			}
			// grow to the declared dimensionality up front so trailing
			// dimensions without value arrays still exist in the result
			if v > 0 {
				b.ensureDim(int(v) - 1)
			}
		case strings.HasPrefix(ch.Name, axisPrefix):
			if err := s.readAxisField(b, ch); err != nil {
				return nil, err
			}
		case strings.HasPrefix(ch.Name, arrayPrefix):
			dim, ok := dimIndex(ch.Name, arrayPrefix)
			if !ok {
				continue
			}
			v, err := s.getDoubleArray(ch)
			if err != nil {
				return nil, err
			}
			b.SetValues(dim, v)
		case strings.HasPrefix(ch.Name, negErrorPrefix):
			dim, ok := dimIndex(ch.Name, negErrorPrefix)
			if !ok {
				continue
			}
			v, err := s.getDoubleArray(ch)
			if err != nil {
				return nil, err
			}
			negErrs[dim] = v
		case strings.HasPrefix(ch.Name, posErrorPrefix):
			dim, ok := dimIndex(ch.Name, posErrorPrefix)
			if !ok {
				continue
			}
			v, err := s.getDoubleArray(ch)
			if err != nil {
				return nil, err
			}
			posErrs[dim] = v
		case ch.Name == fieldInfoList:
			v, err := s.getStringArray(ch)
			if err != nil {
				return nil, err
			}
			for _, msg := range v {
				b.AddInfo(msg)
			}
		case ch.Name == fieldWarningList:
			v, err := s.getStringArray(ch)
			if err != nil {
				return nil, err
			}
			for _, msg := range v {
				b.AddWarning(msg)
			}
		case ch.Name == fieldErrorList:
			v, err := s.getStringArray(ch)
			if err != nil {
				return nil, err
			}
			for _, msg := range v {
				b.AddError(msg)
			}
		case ch.Name == fieldMetaInfo:
			if err := checkField(ch, wire.TypeMap); err != nil {
				return nil, err
			}
			if err := ch.SeekPayload(s.io.Buffer()); err != nil {
				return nil, err
			}
			m, err := wire.GetMap[string, string](s.io)
			if err != nil {
				return nil, err
			}
			for k, v := range m {
				b.PutMetaInfo(k, v)
			}
		case ch.Name == fieldDataLabels:
			m, err := s.getIndexMap(ch)
			if err != nil {
				return nil, err
			}
			for k, v := range m {
				b.SetDataLabel(int(k), v)
			}
		case ch.Name == fieldDataStyles:
			m, err := s.getIndexMap(ch)
			if err != nil {
				return nil, err
			}
			for k, v := range m {
				b.SetStyle(int(k), v)
			}
		default:
			// unknown field: its recorded length already skipped it
		}
	}

	ds := b.Build()
	for dim, pos := range posErrs {
		ds.SetErrors(dim, negErrs[dim], pos)
	}

	return ds, nil
}

// readAxisField decodes one "axis{i}.{attr}" field into the builder.
func (s *Serialiser) readAxisField(b *Builder, ch *wire.FieldHeader) error {
	rest := strings.TrimPrefix(ch.Name, axisPrefix)
	dot := strings.IndexByte(rest, '.')
	if dot <= 0 {
		return nil
	}
	dim, err := strconv.Atoi(rest[:dot])
	if err != nil {
		return nil //nolint:nilerr // not an axis field after all
	}
	b.ensureDim(dim)
	axis := &b.axes[dim]

	switch rest[dot+1:] {
	case "name":
		v, err := s.getString(ch)
		if err != nil {
			return err
		}
		axis.Name = v
	case "unit":
		v, err := s.getString(ch)
		if err != nil {
			return err
		}
		axis.Unit = v
	case "Min":
		v, err := s.getFloat64(ch)
		if err != nil {
			return err
		}
		axis.Min = v
	case "Max":
		v, err := s.getFloat64(ch)
		if err != nil {
			return err
		}
		axis.Max = v
	}

	return nil
}

// dimIndex extracts the dimension index from a "{prefix}{i}" field name.
func dimIndex(name, prefix string) (int, bool) {
	dim, err := strconv.Atoi(strings.TrimPrefix(name, prefix))
	if err != nil || dim < 0 {
		return 0, false
	}

	return dim, true
}

// checkField validates a field's declared tag against what the reader
// expects at that name.
func checkField(ch *wire.FieldHeader, want ...wire.DataType) error {
	for _, t := range want {
		if ch.Type == t {
			return nil
		}
	}
	names := make([]string, len(want))
	for i, t := range want {
		names[i] = t.String()
	}

	return &errs.SchemaMismatchError{
		Field:    ch.Name,
		Expected: strings.Join(names, " or "),
		Found:    ch.Type.String(),
	}
}

func (s *Serialiser) getString(ch *wire.FieldHeader) (string, error) {
	if err := checkField(ch, wire.TypeString); err != nil {
		return "", err
	}
	if err := ch.SeekPayload(s.io.Buffer()); err != nil {
		return "", err
	}

	return s.io.GetString()
}

func (s *Serialiser) getInt32(ch *wire.FieldHeader) (int32, error) {
	if err := checkField(ch, wire.TypeInt32); err != nil {
		return 0, err
	}
	if err := ch.SeekPayload(s.io.Buffer()); err != nil {
		return 0, err
	}

	return s.io.GetInt32()
}

func (s *Serialiser) getFloat64(ch *wire.FieldHeader) (float64, error) {
	if err := checkField(ch, wire.TypeFloat64); err != nil {
		return 0, err
	}
	if err := ch.SeekPayload(s.io.Buffer()); err != nil {
		return 0, err
	}

	return s.io.GetFloat64()
}

// getDoubleArray reads a numeric array at either storage precision; the
// precision comes from the field's own tag.
func (s *Serialiser) getDoubleArray(ch *wire.FieldHeader) ([]float64, error) {
	if err := checkField(ch, wire.TypeFloat64Array, wire.TypeFloat32Array); err != nil {
		return nil, err
	}
	if err := ch.SeekPayload(s.io.Buffer()); err != nil {
		return nil, err
	}

	return s.io.GetFloat64ArrayAs(ch.Type)
}

func (s *Serialiser) getStringArray(ch *wire.FieldHeader) ([]string, error) {
	if err := checkField(ch, wire.TypeStringArray); err != nil {
		return nil, err
	}
	if err := ch.SeekPayload(s.io.Buffer()); err != nil {
		return nil, err
	}
	v, _, err := s.io.GetStringArray()

	return v, err
}

func (s *Serialiser) getIndexMap(ch *wire.FieldHeader) (map[int32]string, error) {
	if err := checkField(ch, wire.TypeMap); err != nil {
		return nil, err
	}
	if err := ch.SeekPayload(s.io.Buffer()); err != nil {
		return nil, err
	}

	return wire.GetMap[int32, string](s.io)
}

// RegisterSerialiser registers *DataSet with a class serialiser so datasets
// embedded in larger object graphs serialize through this adapter instead
// of field reflection.
func RegisterSerialiser(c *codec.IoClassSerialiser) {
	codec.Register(c, wire.StartMarker,
		func(io *wire.BinarySerialiser, ds *DataSet) error {
			if ds == nil {
				return fmt.Errorf("nil dataset")
			}
			// the class serialiser holds the dataset's lock for the whole
			// frame; locking here again would deadlock

			return NewSerialiser(io).writeFields(ds, false)
		},
		func(io *wire.BinarySerialiser, existing *DataSet, present bool) (*DataSet, error) {
			// the buffer sits at the payload start of the object field;
			// parse the subtree on demand and materialize from it
			node := wire.NewFieldHeader(rootStartName, wire.StartMarker, io.Buffer().Position(), 0)
			if err := io.ParseFields(node); err != nil {
				return nil, err
			}
			ds, err := NewSerialiser(io).readFields(node)
			if err != nil {
				return nil, err
			}
			if present && existing != nil {
				// reuse the existing instance so references stay valid
				existing.assignFrom(ds)

				return existing, nil
			}

			return ds, nil
		})
}
