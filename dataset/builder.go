package dataset

// Builder accumulates dataset content and produces a DataSet in one step.
// Dimensions grow on demand; the highest dimension index touched determines
// the dimensionality of the built dataset.
type Builder struct {
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

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		metaInfo:   map[string]string{},
		dataLabels: map[int32]string{},
		dataStyles: map[int32]string{},
	}
}

func (b *Builder) ensureDim(dim int) {
	for len(b.values) <= dim {
		b.values = append(b.values, nil)
		b.negErrors = append(b.negErrors, nil)
		b.posErrors = append(b.posErrors, nil)
		b.errorTypes = append(b.errorTypes, NoError)
		b.axes = append(b.axes, AxisDescription{})
	}
}

// SetName sets the dataset name.
func (b *Builder) SetName(name string) *Builder {
	b.name = name

	return b
}

// SetValues sets the value array of a dimension, growing the dimension
// count as needed.
func (b *Builder) SetValues(dim int, values []float64) *Builder {
	b.ensureDim(dim)
	b.values[dim] = values

	return b
}

// SetNegError sets a dimension's negative error array.
func (b *Builder) SetNegError(dim int, neg []float64) *Builder {
	b.ensureDim(dim)
	b.negErrors[dim] = neg

	return b
}

// SetPosError sets a dimension's positive error array.
func (b *Builder) SetPosError(dim int, pos []float64) *Builder {
	b.ensureDim(dim)
	b.posErrors[dim] = pos

	return b
}

// SetAxis sets a dimension's axis description.
func (b *Builder) SetAxis(dim int, axis AxisDescription) *Builder {
	b.ensureDim(dim)
	b.axes[dim] = axis

	return b
}

// AddInfo appends an informational metadata string.
func (b *Builder) AddInfo(msg string) *Builder {
	b.infoList = append(b.infoList, msg)

	return b
}

// AddWarning appends a warning metadata string.
func (b *Builder) AddWarning(msg string) *Builder {
	b.warningList = append(b.warningList, msg)

	return b
}

// AddError appends an error metadata string.
func (b *Builder) AddError(msg string) *Builder {
	b.errorList = append(b.errorList, msg)

	return b
}

// PutMetaInfo records one metadata key/value pair.
func (b *Builder) PutMetaInfo(key, value string) *Builder {
	b.metaInfo[key] = value

	return b
}

// SetDataLabel labels one data point.
func (b *Builder) SetDataLabel(index int, label string) *Builder {
	b.dataLabels[int32(index)] = label

	return b
}

// SetStyle styles one data point.
func (b *Builder) SetStyle(index int, style string) *Builder {
	b.dataStyles[int32(index)] = style

	return b
}

// Build assembles the dataset. The builder remains usable and the built
// dataset does not share backing storage with later builder mutations of
// dimension structure, though value slices themselves are not copied.
func (b *Builder) Build() *DataSet {
	ds := New(b.name, len(b.values))
	for dim := range b.values {
		ds.SetValues(dim, b.values[dim])
		if b.negErrors[dim] != nil || b.posErrors[dim] != nil {
			ds.SetErrors(dim, b.negErrors[dim], b.posErrors[dim])
		}
		*ds.Axis(dim) = b.axes[dim]
	}
	ds.SetMetaLists(b.infoList, b.warningList, b.errorList)
	for k, v := range b.metaInfo {
		ds.metaInfo[k] = v
	}
	for k, v := range b.dataLabels {
		ds.dataLabels[k] = v
	}
	for k, v := range b.dataStyles {
		ds.dataStyles[k] = v
	}

	return ds
}
