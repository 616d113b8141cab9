package database

import (
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/diner/pkg/metrics"
)

const startedAtKey = "diner:started_at"

// queryMetrics is a gorm plugin feeding metrics.DBQueryDuration.
type queryMetrics struct{}

func (queryMetrics) Name() string { return "diner:query_metrics" }

func (queryMetrics) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	ops := []struct {
		name   string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"insert", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"select", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
	}

	for _, op := range ops {
		op := op
		if err := op.before("diner:before_"+op.name, start); err != nil {
			return err
		}
		if err := op.after("diner:after_"+op.name, func(tx *gorm.DB) { observe(tx, op.name) }); err != nil {
			return err
		}
	}
	return nil
}

func start(tx *gorm.DB) {
	tx.InstanceSet(startedAtKey, time.Now())
}

func observe(tx *gorm.DB, operation string) {
	v, ok := tx.InstanceGet(startedAtKey)
	if !ok {
		return
	}
	if t, ok := v.(time.Time); ok {
		metrics.ObserveDBQuery(operation, t)
	}
}
