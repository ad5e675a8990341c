package output

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/spf13/cast"

	"github.com/hupe1980/reportengine/internal/report"
)

type parquetFormat struct{ base }

// Parquet returns the columnar export. Column datatypes map onto Arrow
// types: number to float64, boolean, date to date32, datetime to
// microsecond timestamps, everything else to strings. Charts are never
// embedded.
func Parquet() Format {
	return parquetFormat{base{name: "parquet", extension: "parquet", contentType: "application/vnd.apache.parquet"}}
}

// ArrowSchema returns the Arrow schema of a report schema.
func ArrowSchema(cols []report.Column) *arrow.Schema {
	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		fields[i] = arrow.Field{Name: c.ID, Type: arrowType(c.Type), Nullable: true}
	}

	return arrow.NewSchema(fields, nil)
}

func arrowType(dt report.DataType) arrow.DataType {
	switch dt {
	case report.TypeNumber:
		return arrow.PrimitiveTypes.Float64
	case report.TypeBoolean:
		return arrow.FixedWidthTypes.Boolean
	case report.TypeDate:
		return arrow.FixedWidthTypes.Date32
	case report.TypeDateTime:
		return arrow.FixedWidthTypes.Timestamp_us
	default:
		return arrow.BinaryTypes.String
	}
}

func (parquetFormat) Render(w io.Writer, t *Table) error {
	schema := ArrowSchema(t.Columns)

	rec, err := buildRecord(memory.NewGoAllocator(), schema, t)
	if err != nil {
		return err
	}
	defer rec.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	pw, err := pqarrow.NewFileWriter(schema, w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating parquet writer: %w", err)
	}

	if err := pw.Write(rec); err != nil {
		_ = pw.Close()
		return fmt.Errorf("writing parquet rows: %w", err)
	}

	if err := pw.Close(); err != nil {
		return fmt.Errorf("closing parquet writer: %w", err)
	}

	return nil
}

func buildRecord(mem memory.Allocator, schema *arrow.Schema, t *Table) (arrow.Record, error) {
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for r, row := range t.Rows {
		for i, col := range t.Columns {
			var v any
			if i < len(row) {
				v = row[i]
			}

			if err := appendValue(b.Field(i), col.Type, v); err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", r, col.ID, err)
			}
		}
	}

	return b.NewRecord(), nil
}

func appendValue(fb array.Builder, dt report.DataType, v any) error {
	if v == nil {
		fb.AppendNull()
		return nil
	}

	switch b := fb.(type) {
	case *array.Float64Builder:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return err
		}

		b.Append(f)
	case *array.BooleanBuilder:
		bv, err := cast.ToBoolE(v)
		if err != nil {
			return err
		}

		b.Append(bv)
	case *array.Date32Builder:
		ts, err := cast.ToTimeE(v)
		if err != nil {
			return err
		}

		b.Append(arrow.Date32FromTime(ts))
	case *array.TimestampBuilder:
		ts, err := cast.ToTimeE(v)
		if err != nil {
			return err
		}

		b.Append(arrow.Timestamp(ts.UTC().UnixMicro()))
	case *array.StringBuilder:
		b.Append(ConverterFor(dt)(v))
	default:
		return fmt.Errorf("unsupported arrow builder %T", fb)
	}

	return nil
}
