package storage

import "fmt"

// ExecutorError wraps a failure of an external collaborator (the document
// source or the database) with the operation and table it happened in.
type ExecutorError struct {
	Op    string // fetch, list_columns, create_table, upsert, ...
	Table string // empty for document-level operations
	Err   error
}

func (e *ExecutorError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *ExecutorError) Unwrap() error { return e.Err }

// Wrap returns nil for a nil err, otherwise an *ExecutorError.
func Wrap(op, table string, err error) error {
	if err == nil {
		return nil
	}
	return &ExecutorError{Op: op, Table: table, Err: err}
}
