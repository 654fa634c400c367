package models

// Alias suffixes of the index holding a data type.
const (
	ReadAliasSuffix  = "_ReadAlias"
	WriteAliasSuffix = "_WriteAlias"
)

// DataIndex names the index of one data type and the aliases in front of it.
type DataIndex struct {
	DataType   string `json:"data_type"`
	Index      string `json:"index"`
	ReadAlias  string `json:"read_alias"`
	WriteAlias string `json:"write_alias"`
}

// NewDataIndex derives the aliases of the index holding dataType.
func NewDataIndex(dataType, index string) DataIndex {
	return DataIndex{
		DataType:   dataType,
		Index:      index,
		ReadAlias:  index + ReadAliasSuffix,
		WriteAlias: index + WriteAliasSuffix,
	}
}

// SearchTarget is the name queries for the data type are sent to.
func (i DataIndex) SearchTarget(readAlias bool) string {
	if readAlias {
		return i.ReadAlias
	}
	return i.Index
}
