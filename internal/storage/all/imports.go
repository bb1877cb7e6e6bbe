// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each concrete backend, which register
// their factories with the storage package. The available kinds are:
//
//   - "postgres" (internal/storage/postgres)
//   - "mssql"    (internal/storage/mssql)
//   - "mysql"    (internal/storage/mysql)
//   - "sqlite"   (internal/storage/sqlite)
//
// Typical usage in a command:
//
//	import _ "github.com/bayduroff/tableService/internal/storage/all"
//
//	repo, err := storage.New(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DB.DSN})
//	if err != nil {
//	    // handle error
//	}
//	defer repo.Close()
//
// A binary that needs only a subset of backends can import those packages
// directly instead.
package all

import (
	_ "github.com/bayduroff/tableService/internal/storage/mssql"
	_ "github.com/bayduroff/tableService/internal/storage/mysql"
	_ "github.com/bayduroff/tableService/internal/storage/postgres"
	_ "github.com/bayduroff/tableService/internal/storage/sqlite"
)
