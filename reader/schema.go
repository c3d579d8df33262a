package reader

import "github.com/parquet-go/parquet-go"

// SchemaInfo describes a single leaf column of a Parquet file.
type SchemaInfo struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	PhysicalType string `json:"physical_type"`
	LogicalType  string `json:"logical_type"`
	Optional     bool   `json:"optional"`
	Repeated     bool   `json:"repeated"`
}

// SchemaInfo describes the reader's columns. Nested fields are flattened
// with dot notation (e.g. "address.street").
func (r *Reader) SchemaInfo() []SchemaInfo {
	var infos []SchemaInfo
	for _, field := range r.Schema().Fields() {
		infos = appendFieldInfo(infos, field, "", false)
	}
	return infos
}

func appendFieldInfo(infos []SchemaInfo, field parquet.Field, prefix string, parentRepeated bool) []SchemaInfo {
	name := field.Name()
	if prefix != "" {
		name = prefix + "." + name
	}
	repeated := parentRepeated || field.Repeated()

	if !field.Leaf() {
		for _, child := range field.Fields() {
			infos = appendFieldInfo(infos, child, name, repeated)
		}
		return infos
	}

	physical := physicalTypeName(field.Type().Kind())
	logical := ""
	if lt := field.Type().LogicalType(); lt != nil {
		logical = lt.String()
	}

	typ := physical
	switch {
	case logical == "":
	case logical == "STRING" || logical == "UTF8":
		typ = "STRING"
	default:
		typ = logical
	}

	return append(infos, SchemaInfo{
		Name:         name,
		Type:         typ,
		PhysicalType: physical,
		LogicalType:  logical,
		Optional:     field.Optional(),
		Repeated:     repeated,
	})
}

func physicalTypeName(kind parquet.Kind) string {
	switch kind {
	case parquet.Boolean:
		return "BOOLEAN"
	case parquet.Int32:
		return "INT32"
	case parquet.Int64:
		return "INT64"
	case parquet.Int96:
		return "INT96"
	case parquet.Float:
		return "FLOAT"
	case parquet.Double:
		return "DOUBLE"
	case parquet.ByteArray:
		return "BYTE_ARRAY"
	case parquet.FixedLenByteArray:
		return "FIXED_LEN_BYTE_ARRAY"
	default:
		return "UNKNOWN"
	}
}
