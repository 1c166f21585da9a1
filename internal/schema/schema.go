// internal/schema/schema.go
//
// Table definitions for the blog store.
//
// Context
// -------
// The host never reads these tables itself; the SPA's API does.  They live
// here so a fresh deployment can be bootstrapped with `web schema`.
// Statements are idempotent (`IF NOT EXISTS`) and run in declaration
// order, so `user` exists before `post` references it.
//
// Notes
// -----
//   • `user` is a reserved word in MySQL, so every identifier is quoted.
//   • Timestamps are stored in UTC; the DSN sets parseTime.
//   • Oxford commas, two spaces after periods.

package schema

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// DefaultRole is assigned to new users.
const DefaultRole = "authenticated"

// User mirrors the `user` table.
type User struct {
	ID        int64     `db:"id"`
	Email     string    `db:"email"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

// Post mirrors the `post` table.  AuthorID is nullable.
type Post struct {
	ID            int64     `db:"id"`
	Slug          string    `db:"slug"`
	Title         string    `db:"title"`
	PublishedHTML string    `db:"published_html"`
	Published     bool      `db:"published"`
	AuthorID      *int64    `db:"author_id"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// Statements is the DDL executed by Create, in order.
var Statements = []string{
	"CREATE TABLE IF NOT EXISTS `user` (" +
		"`id` BIGINT NOT NULL AUTO_INCREMENT, " +
		"`email` VARCHAR(255) NOT NULL, " +
		"`role` VARCHAR(64) NOT NULL DEFAULT '" + DefaultRole + "', " +
		"`created_at` DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6), " +
		"PRIMARY KEY (`id`), " +
		"UNIQUE KEY `uq_user_email` (`email`)" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",

	"CREATE TABLE IF NOT EXISTS `post` (" +
		"`id` BIGINT NOT NULL AUTO_INCREMENT, " +
		"`slug` VARCHAR(255) NOT NULL, " +
		"`title` VARCHAR(255) NOT NULL, " +
		"`published_html` MEDIUMTEXT NOT NULL, " +
		"`published` BOOLEAN NOT NULL DEFAULT FALSE, " +
		"`author_id` BIGINT NULL, " +
		"`created_at` DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6), " +
		"`updated_at` DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6), " +
		"PRIMARY KEY (`id`), " +
		"UNIQUE KEY `uq_post_slug` (`slug`), " +
		"KEY `ix_post_author_id` (`author_id`), " +
		"CONSTRAINT `fk_post_author` FOREIGN KEY (`author_id`) REFERENCES `user` (`id`)" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
}

// Create runs Statements in order.  MySQL commits
// DDL implicitly, so a failure part-way leaves earlier tables in place;
// re-running is safe.
func Create(ctx context.Context, db sqlx.ExecerContext) error {
	for i, stmt := range Statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema: statement %d: %w", i+1, err)
		}
	}
	zap.S().Infow("schema created", "tables", len(Statements))
	return nil
}
