package database

import (
	"errors"
	"time"

	"community/internal/observability"

	"gorm.io/gorm"
)

const queryStartKey = "metrics:start"

// RegisterMetricsCallbacks times every statement into observability.DatabaseQueryLatency.
func RegisterMetricsCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Query().Before("gorm:query").Register("metrics:select_before", markStart),
		cb.Query().After("gorm:query").Register("metrics:select_after", observe("select")),
		cb.Create().Before("gorm:create").Register("metrics:insert_before", markStart),
		cb.Create().After("gorm:create").Register("metrics:insert_after", observe("insert")),
		cb.Update().Before("gorm:update").Register("metrics:update_before", markStart),
		cb.Update().After("gorm:update").Register("metrics:update_after", observe("update")),
		cb.Delete().Before("gorm:delete").Register("metrics:delete_before", markStart),
		cb.Delete().After("gorm:delete").Register("metrics:delete_after", observe("delete")),
		cb.Raw().Before("gorm:raw").Register("metrics:raw_before", markStart),
		cb.Raw().After("gorm:raw").Register("metrics:raw_after", observe("raw")),
		cb.Row().Before("gorm:row").Register("metrics:row_before", markStart),
		cb.Row().After("gorm:row").Register("metrics:row_after", observe("row")),
	)
}

func markStart(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func observe(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(queryStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		observability.ObserveQuery(operation, table, start)
	}
}
