// Package dataset provides the multi-dimensional numeric dataset model and
// its wire adapter.
//
// A DataSet holds per-dimension value arrays with optional per-dimension
// error bars, axis descriptions, free-form metadata, and sparse per-point
// label/style maps. The Serialiser maps this model onto the binio wire
// protocol directly, without going through generic reflection, using a flat
// name-keyed field convention so that readers can tolerate absent fields.
package dataset

import "sync"

// ErrorType declares how a dimension's error bars are stored.
type ErrorType uint8

const (
	// NoError means the dimension carries no error arrays.
	NoError ErrorType = iota
	// Symmetric means one array describes both directions.
	Symmetric
	// Asymmetric means separate negative and positive arrays.
	Asymmetric
)

func (e ErrorType) String() string {
	switch e {
	case NoError:
		return "NO_ERROR"
	case Symmetric:
		return "SYMMETRIC"
	case Asymmetric:
		return "ASYMMETRIC"
	default:
		return "UNKNOWN"
	}
}

// AxisDescription describes one axis dimension.
type AxisDescription struct {
	Name string
	Unit string
	Min  float64
	Max  float64
}

// DataSet is a multi-dimensional numeric dataset.
//
// The zero value is unusable; construct with New or NewErrorDataSet. The
// embedded lock gives serializers a scoped acquisition point around their
// traversal; DataSet does not acquire it in its own accessors.
type DataSet struct {
	mu sync.Mutex

	name       string
	values     [][]float64
	negErrors  [][]float64
	posErrors  [][]float64
	errorTypes []ErrorType
	axes       []AxisDescription

	infoList    []string
	warningList []string
	errorList   []string
	metaInfo    map[string]string

	dataLabels map[int32]string
	dataStyles map[int32]string
}

// New creates an empty dataset with the given number of dimensions.
func New(name string, nDims int) *DataSet {
	return &DataSet{
		name:       name,
		values:     make([][]float64, nDims),
		negErrors:  make([][]float64, nDims),
		posErrors:  make([][]float64, nDims),
		errorTypes: make([]ErrorType, nDims),
		axes:       make([]AxisDescription, nDims),
		metaInfo:   map[string]string{},
		dataLabels: map[int32]string{},
		dataStyles: map[int32]string{},
	}
}

// NewErrorDataSet creates a 2-dimensional dataset with asymmetric y errors,
// the most common shape for measurement data.
func NewErrorDataSet(name string, x, y, yNegErr, yPosErr []float64) *DataSet {
	ds := New(name, 2)
	ds.SetValues(0, x)
	ds.SetValues(1, y)
	ds.SetErrors(1, yNegErr, yPosErr)

	return ds
}

// Lock acquires the dataset's lock; serializers hold it for the duration of
// one traversal.
func (d *DataSet) Lock() { d.mu.Lock() }

// Unlock releases the dataset's lock.
func (d *DataSet) Unlock() { d.mu.Unlock() }

// Name returns the dataset name.
func (d *DataSet) Name() string { return d.name }

// SetName sets the dataset name.
func (d *DataSet) SetName(name string) { d.name = name }

// Dimension returns the number of dimensions.
func (d *DataSet) Dimension() int { return len(d.values) }

// DataCount returns the number of data points in the first dimension.
func (d *DataSet) DataCount() int {
	if len(d.values) == 0 {
		return 0
	}

	return len(d.values[0])
}

// Values returns the value array of the given dimension, nil when the
// dimension is out of range.
func (d *DataSet) Values(dim int) []float64 {
	if dim < 0 || dim >= len(d.values) {
		return nil
	}

	return d.values[dim]
}

// SetValues replaces the value array of the given dimension. The slice is
// not copied.
func (d *DataSet) SetValues(dim int, values []float64) {
	if dim >= 0 && dim < len(d.values) {
		d.values[dim] = values
	}
}

// ErrorType returns the error declaration of the given dimension.
func (d *DataSet) ErrorType(dim int) ErrorType {
	if dim < 0 || dim >= len(d.errorTypes) {
		return NoError
	}

	return d.errorTypes[dim]
}

// ErrorsNegative returns the negative error array of the given dimension.
func (d *DataSet) ErrorsNegative(dim int) []float64 {
	if dim < 0 || dim >= len(d.negErrors) {
		return nil
	}

	return d.negErrors[dim]
}

// ErrorsPositive returns the positive error array of the given dimension.
func (d *DataSet) ErrorsPositive(dim int) []float64 {
	if dim < 0 || dim >= len(d.posErrors) {
		return nil
	}

	return d.posErrors[dim]
}

// SetErrors declares a dimension's error arrays. A nil neg with a non-nil
// pos declares SYMMETRIC errors; both non-nil declares ASYMMETRIC; both nil
// clears back to NO_ERROR.
func (d *DataSet) SetErrors(dim int, neg, pos []float64) {
	if dim < 0 || dim >= len(d.errorTypes) {
		return
	}
	d.negErrors[dim] = neg
	d.posErrors[dim] = pos
	switch {
	case neg == nil && pos == nil:
		d.errorTypes[dim] = NoError
	case neg == nil:
		d.errorTypes[dim] = Symmetric
	default:
		d.errorTypes[dim] = Asymmetric
	}
}

// Axis returns a pointer to the axis description of the given dimension so
// callers can update it in place, nil when out of range.
func (d *DataSet) Axis(dim int) *AxisDescription {
	if dim < 0 || dim >= len(d.axes) {
		return nil
	}

	return &d.axes[dim]
}

// AxisDescriptions returns all axis descriptions.
func (d *DataSet) AxisDescriptions() []AxisDescription { return d.axes }

// InfoList returns the informational metadata strings.
func (d *DataSet) InfoList() []string { return d.infoList }

// WarningList returns the warning metadata strings.
func (d *DataSet) WarningList() []string { return d.warningList }

// ErrorList returns the error metadata strings.
func (d *DataSet) ErrorList() []string { return d.errorList }

// SetMetaLists replaces the three metadata string lists.
func (d *DataSet) SetMetaLists(info, warning, errors []string) {
	d.infoList = info
	d.warningList = warning
	d.errorList = errors
}

// MetaInfo returns the free-form metadata map.
func (d *DataSet) MetaInfo() map[string]string { return d.metaInfo }

// SetMetaInfo replaces the free-form metadata map.
func (d *DataSet) SetMetaInfo(m map[string]string) {
	if m == nil {
		m = map[string]string{}
	}
	d.metaInfo = m
}

// DataLabel returns the label of a data point, "" when unset.
func (d *DataSet) DataLabel(index int) string { return d.dataLabels[int32(index)] }

// SetDataLabel labels one data point; empty labels are not stored.
func (d *DataSet) SetDataLabel(index int, label string) {
	if label == "" {
		delete(d.dataLabels, int32(index))

		return
	}
	d.dataLabels[int32(index)] = label
}

// DataLabels returns the sparse label map.
func (d *DataSet) DataLabels() map[int32]string { return d.dataLabels }

// SetDataLabels replaces the sparse label map.
func (d *DataSet) SetDataLabels(m map[int32]string) {
	if m == nil {
		m = map[int32]string{}
	}
	d.dataLabels = m
}

// Style returns the style of a data point, "" when unset.
func (d *DataSet) Style(index int) string { return d.dataStyles[int32(index)] }

// SetStyle styles one data point; empty styles are not stored.
func (d *DataSet) SetStyle(index int, style string) {
	if style == "" {
		delete(d.dataStyles, int32(index))

		return
	}
	d.dataStyles[int32(index)] = style
}

// DataStyles returns the sparse style map.
func (d *DataSet) DataStyles() map[int32]string { return d.dataStyles }

// SetDataStyles replaces the sparse style map.
func (d *DataSet) SetDataStyles(m map[int32]string) {
	if m == nil {
		m = map[int32]string{}
	}
	d.dataStyles = m
}

// assignFrom copies src's content into d, leaving d's lock untouched.
func (d *DataSet) assignFrom(src *DataSet) {
	d.name = src.name
	d.values = src.values
	d.negErrors = src.negErrors
	d.posErrors = src.posErrors
	d.errorTypes = src.errorTypes
	d.axes = src.axes
	d.infoList = src.infoList
	d.warningList = src.warningList
	d.errorList = src.errorList
	d.metaInfo = src.metaInfo
	d.dataLabels = src.dataLabels
	d.dataStyles = src.dataStyles
}
