package gateway

import (
	"context"
	"errors"
	"log"
	"strings"

	"gorm.io/gorm"

	"dbquery-be/pkg/copilot/catalog"
	"dbquery-be/pkg/copilot/qerr"
	"dbquery-be/pkg/copilot/query"
)

// LiveBackend translates structured queries to SQL and runs them on the
// warehouse database.
type LiveBackend struct {
	db         *gorm.DB
	translator *Translator
	logger     *log.Logger
}

func NewLiveBackend(db *gorm.DB, cat catalog.Catalog, logger *log.Logger) *LiveBackend {
	return &LiveBackend{db: db, translator: NewTranslator(cat), logger: logger}
}

func (b *LiveBackend) Name() string { return "live" }

func (b *LiveBackend) Execute(ctx context.Context, q *query.StructuredQuery) (*ResultSet, error) {
	sql, args, err := b.translator.Translate(q)
	if err != nil {
		return nil, err
	}
	b.logger.Printf("[LIVE] %s args=%v", sql, args)

	rows, err := b.db.WithContext(ctx).Raw(sql, args...).Rows()
	if err != nil {
		return nil, classifyDBError(b.Name(), err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, classifyDBError(b.Name(), err)
	}
	columns := make([]Column, len(names))
	for i, n := range names {
		columns[i] = Column{Name: n, Type: FieldString}
	}
	if types, err := rows.ColumnTypes(); err == nil {
		for i, ct := range types {
			switch strings.ToLower(ct.DatabaseTypeName()) {
			case "int2", "int4", "int8", "float4", "float8", "numeric", "decimal":
				columns[i].Type = FieldNumber
			case "timestamp", "timestamptz", "date":
				columns[i].Type = FieldTime
			}
		}
	}

	result := &ResultSet{Columns: columns}
	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, classifyDBError(b.Name(), err)
		}
		for i, v := range values {
			if raw, ok := v.([]byte); ok {
				values[i] = string(raw)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyDBError(b.Name(), err)
	}
	return result, nil
}

// classifyDBError maps driver failures onto the error taxonomy. Connection
// loss and timeouts are transient; anything the database rejects outright
// points at a bad plan and is fatal.
func classifyDBError(backend string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &qerr.BackendUnavailableError{Backend: backend, Err: err}
	}
	msg := strings.ToLower(err.Error())
	for _, transient := range []string{
		"connection refused", "connection reset", "broken pipe",
		"timeout", "too many clients", "server closed", "eof",
	} {
		if strings.Contains(msg, transient) {
			return &qerr.BackendUnavailableError{Backend: backend, Err: err}
		}
	}
	return &qerr.InternalConsistencyError{Detail: "query execution failed: " + err.Error()}
}
