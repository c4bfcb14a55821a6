package storage

import (
	"context"

	"seloger-notifier/models"
)

// RecordStore is the interface any persistence backend must satisfy.
//
// Loads never fail: missing or unreadable state is logged and reported as
// empty so that a run can always start. Saves replace the stored collection
// as a whole and return any write error to the caller.
type RecordStore interface {
	LoadProcessedSet(ctx context.Context) models.ProcessedSet
	SaveProcessedSet(ctx context.Context, set models.ProcessedSet) error
	LoadRecords(ctx context.Context) models.RecordMap
	SaveRecords(ctx context.Context, records models.RecordMap) error
	Close() error
}

// RecordExporter writes a snapshot of the record map somewhere readable by
// humans.
type RecordExporter interface {
	Export(records models.RecordMap) error
}
