package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/samatvayoga/backend/internal/store"
)

// Record is one exported document, id included.
type Record map[string]any

// Export reads every record matching the filters from a collection, oldest
// first, with no pagination. The caller accepts the cost of the full read.
func Export(ctx context.Context, db *gorm.DB, collection string, filters map[string]any) ([]Record, error) {
	q := db.WithContext(ctx).Table(collection)
	for field, value := range filters {
		q = q.Where(fmt.Sprintf("%s = ?", field), value)
	}

	var records []Record
	if err := q.Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, &store.Error{Code: store.CodeUnavailable, Op: "export", Collection: collection, Err: err}
	}
	return records, nil
}

// Download serializes records as indented JSON to the writer. Presentation
// glue for the export side; the HTTP handler supplies the attachment
// headers.
func Download(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// Import writes every record as an upsert keyed by its supplied id, in one
// atomic transaction: all writes land or none do. A colliding id silently
// overwrites the existing record; that destructive merge is deliberate and
// the admin UI warns the operator before invoking this. Each written record
// gets an imported_at stamp.
func Import(ctx context.Context, db *gorm.DB, collection string, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	importedAt := time.Now().UTC()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, record := range records {
			if record["id"] == nil || record["id"] == "" {
				return fmt.Errorf("record without id")
			}
			record["imported_at"] = importedAt
			err := tx.Table(collection).
				Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "id"}},
					UpdateAll: true,
				}).
				Create(map[string]any(record)).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &store.Error{Code: store.CodeBatchFailed, Op: "import", Collection: collection, Err: err}
	}
	return nil
}
