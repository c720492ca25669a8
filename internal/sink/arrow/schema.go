package arrow

import (
	"github.com/apache/arrow/go/v17/arrow"

	"github.com/sleepsense/sleepview/pkg/schema"
)

// TimeField is the first column of every cached recording.
const TimeField = "t_s"

// Metadata keys stored on the schema.
const (
	MetaSessionID = "session_id"
	MetaSource    = "source_path"
	MetaLayout    = "layout"
	MetaCreatedAt = "created_at"
	MetaSamples   = "samples"
)

// RecordingSchema returns the schema for the given channels: the time axis
// followed by one float64 column per channel.
func RecordingSchema(channels []schema.Channel, meta *arrow.Metadata) *arrow.Schema {
	fields := make([]arrow.Field, 0, len(channels)+1)
	fields = append(fields, arrow.Field{Name: TimeField, Type: arrow.PrimitiveTypes.Float64, Nullable: false})
	for _, ch := range channels {
		fields = append(fields, arrow.Field{Name: string(ch), Type: arrow.PrimitiveTypes.Float64, Nullable: false})
	}
	return arrow.NewSchema(fields, meta)
}
