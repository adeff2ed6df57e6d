// Package transcript archives chat turns so a conversation can be inspected
// after its session expired.
//
// The archive is a single table opened through gorm. SQLite (pure Go) is the
// default. DSNs starting with "postgres://" or "postgresql://" use Postgres.
package transcript
