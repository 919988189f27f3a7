package entity

type ColumnType string

const (
	ColumnTypeString    ColumnType = "string"
	ColumnTypeInteger   ColumnType = "integer"
	ColumnTypeFloat     ColumnType = "float"
	ColumnTypeTimestamp ColumnType = "timestamp"
	ColumnTypeBoolean   ColumnType = "boolean"
	ColumnTypeUnknown   ColumnType = "unknown"
)

type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// QueryResult is a table returned by the lakehouse: ordered columns and one
// map per row keyed by column name.
type QueryResult struct {
	Columns []Column                 `json:"columns"`
	Rows    []map[string]interface{} `json:"rows"`
}

func (r *QueryResult) Empty() bool {
	return r == nil || len(r.Rows) == 0
}
