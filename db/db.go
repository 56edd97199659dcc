package db

import "context"

type DBType string

const (
	Postgres DBType = "postgres"
	Mongo    DBType = "mongo"
	Memory   DBType = "memory"
)

// DB is a store connection that main opens at startup and closes on shutdown.
type DB interface {
	Connect(ctx context.Context) error
	Disconnect() error
}
