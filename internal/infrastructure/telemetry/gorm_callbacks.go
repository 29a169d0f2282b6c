package telemetry

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

// gormProcessor binds one gorm callback chain to the SQL verb it executes.
// An empty verb means the verb is read from the statement text.
type gormProcessor struct {
	name     string
	verb     string
	register func(name string, before bool, fn func(*gorm.DB)) error
}

func gormProcessors(db *gorm.DB) []gormProcessor {
	cb := db.Callback()
	return []gormProcessor{
		{"create", "INSERT", func(n string, before bool, fn func(*gorm.DB)) error {
			if before {
				return cb.Create().Before("gorm:create").Register(n, fn)
			}
			return cb.Create().After("gorm:create").Register(n, fn)
		}},
		{"query", "SELECT", func(n string, before bool, fn func(*gorm.DB)) error {
			if before {
				return cb.Query().Before("gorm:query").Register(n, fn)
			}
			return cb.Query().After("gorm:query").Register(n, fn)
		}},
		{"update", "UPDATE", func(n string, before bool, fn func(*gorm.DB)) error {
			if before {
				return cb.Update().Before("gorm:update").Register(n, fn)
			}
			return cb.Update().After("gorm:update").Register(n, fn)
		}},
		{"delete", "DELETE", func(n string, before bool, fn func(*gorm.DB)) error {
			if before {
				return cb.Delete().Before("gorm:delete").Register(n, fn)
			}
			return cb.Delete().After("gorm:delete").Register(n, fn)
		}},
		{"row", "", func(n string, before bool, fn func(*gorm.DB)) error {
			if before {
				return cb.Row().Before("gorm:row").Register(n, fn)
			}
			return cb.Row().After("gorm:row").Register(n, fn)
		}},
		{"raw", "", func(n string, before bool, fn func(*gorm.DB)) error {
			if before {
				return cb.Raw().Before("gorm:raw").Register(n, fn)
			}
			return cb.Raw().After("gorm:raw").Register(n, fn)
		}},
	}
}

type startTimeKey struct{ prefix string }

// registerTimedCallbacks installs, on every gorm chain, a before hook that
// stamps the statement context with the start time and an after hook that
// receives the SQL verb and elapsed time. prefix keeps names unique per plugin.
func registerTimedCallbacks(db *gorm.DB, prefix string, after func(tx *gorm.DB, verb string, elapsed time.Duration)) error {
	key := startTimeKey{prefix: prefix}
	before := func(tx *gorm.DB) {
		ctx := tx.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		tx.Statement.Context = context.WithValue(ctx, key, time.Now())
	}

	for _, p := range gormProcessors(db) {
		p := p
		if err := p.register(prefix+":before_"+p.name, true, before); err != nil {
			return err
		}
		afterFn := func(tx *gorm.DB) {
			var elapsed time.Duration
			if tx.Statement.Context != nil {
				if start, ok := tx.Statement.Context.Value(key).(time.Time); ok {
					elapsed = time.Since(start)
				}
			}
			verb := p.verb
			if verb == "" {
				verb = detectOperationType(tx.Statement.SQL.String())
			}
			after(tx, verb, elapsed)
		}
		if err := p.register(prefix+":after_"+p.name, false, afterFn); err != nil {
			return err
		}
	}
	return nil
}

// detectOperationType reads the SQL verb from a raw statement.
func detectOperationType(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, verb) {
			return verb
		}
	}
	return "OTHER"
}
