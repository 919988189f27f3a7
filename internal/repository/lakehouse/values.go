package lakehouse

import (
	"time"

	"github.com/rahmatrdn/go-sql-dashboard/entity"
)

// normalizeValue turns driver values into the small set of Go types the
// mappers understand.
func normalizeValue(v interface{}) interface{} {
	switch n := v.(type) {
	case []byte:
		return string(n)
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case float32:
		return float64(n)
	case *time.Time:
		if n == nil {
			return nil
		}
		return *n
	}
	return v
}

func columnTypeOf(v interface{}) entity.ColumnType {
	switch v.(type) {
	case nil:
		return entity.ColumnTypeUnknown
	case string:
		return entity.ColumnTypeString
	case int64, uint64:
		return entity.ColumnTypeInteger
	case float64:
		return entity.ColumnTypeFloat
	case time.Time:
		return entity.ColumnTypeTimestamp
	case bool:
		return entity.ColumnTypeBoolean
	}
	return entity.ColumnTypeUnknown
}
