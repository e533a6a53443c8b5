// Package repo хранит runs и снимки задач pipeline в PostgreSQL.
//
// Схема описана в migrations/ и применяется через Migrate.
package repo
