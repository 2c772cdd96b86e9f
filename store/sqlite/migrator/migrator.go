package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"time"
)

// Querier is the subset of *sql.DB and *sql.Tx used to run migrations.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// MigrationType is the type of the migration.
type MigrationType string

// Migration types.
const (
	MigrationUp   MigrationType = "up"
	MigrationDown MigrationType = "down"
)

// Migration is a schema migration.
type Migration struct {
	Name      string
	Applied   bool
	AppliedAt time.Time
	Up        sql.Null[string]
	Down      sql.Null[string]
}

var fnameRx = regexp.MustCompile(`^(?P<name>\d{1,}-[a-z0-9-_]+)\.(?P<type>up|down)\.sql$`)

// LoadMigrations reads SQL files from the root of dir, and returns them sorted
// by migration name. Files that don't follow the naming scheme are skipped.
func LoadMigrations(dir fs.FS) ([]*Migration, error) {
	migrationMap := make(map[string]*Migration)

	err := fs.WalkDir(dir, ".", func(p string, d fs.DirEntry, e error) error {
		if e != nil {
			return e
		}
		if !d.Type().IsRegular() || path.Ext(d.Name()) != ".sql" {
			return nil
		}

		matched := fnameRx.FindStringSubmatch(d.Name())
		if len(matched) == 0 {
			return nil
		}
		data, err := fs.ReadFile(dir, p)
		if err != nil {
			return err
		}
		name := matched[fnameRx.SubexpIndex("name")]
		m, ok := migrationMap[name]
		if !ok {
			m = &Migration{Name: name}
			migrationMap[name] = m
		}
		val := sql.Null[string]{V: string(data), Valid: true}
		if matched[fnameRx.SubexpIndex("type")] == "up" {
			m.Up = val
		} else {
			m.Down = val
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed loading migrations: %w", err)
	}

	names := make([]string, 0, len(migrationMap))
	for name := range migrationMap {
		names = append(names, name)
	}
	sort.Strings(names)

	migrations := make([]*Migration, 0, len(names))
	for _, name := range names {
		migrations = append(migrations, migrationMap[name])
	}

	return migrations, nil
}

// RunMigrations applies or rolls back migrations. to can either be a
// migration name, or "all".
func RunMigrations(
	ctx context.Context, q Querier, migrations []*Migration, typ MigrationType,
	to string, logger *slog.Logger,
) error {
	if err := createMigrationSchema(ctx, q); err != nil {
		return fmt.Errorf("failed creating migrations schema: %w", err)
	}

	if err := loadHistory(ctx, q, migrations); err != nil {
		return err
	}

	runPlan, err := createMigrationPlan(migrations, typ, to)
	if err != nil {
		return err
	}

	for _, run := range runPlan {
		if _, err := q.ExecContext(ctx, run.sql); err != nil {
			return fmt.Errorf("failed running migration '%s': %w", run.name, err)
		}
		_, err := q.ExecContext(ctx,
			`INSERT INTO _migration_history (name, type, time) VALUES (?, ?, ?)`,
			run.name, string(run.typ), time.Now().UTC())
		if err != nil {
			return err
		}
		logger.Debug("ran store migration", "name", run.name, "type", run.typ)
	}

	return nil
}

func loadHistory(ctx context.Context, q Querier, migrations []*Migration) error {
	migrationMap := make(map[string]*Migration)
	for _, m := range migrations {
		migrationMap[m.Name] = m
	}

	rows, err := q.QueryContext(ctx, `SELECT name, type, time
		FROM _migration_history
		ORDER BY time, rowid`)
	if err != nil {
		return fmt.Errorf("failed retrieving migration history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name, typ string
			at        time.Time
		)
		if err := rows.Scan(&name, &typ, &at); err != nil {
			return fmt.Errorf("failed reading migration history: %w", err)
		}

		m, ok := migrationMap[name]
		if !ok {
			return fmt.Errorf("found unknown migration in history: '%s'", name)
		}
		m.Applied = MigrationType(typ) == MigrationUp
		m.AppliedAt = at
	}

	return rows.Err()
}

type migrationRun struct {
	name string
	typ  MigrationType
	sql  string
}

func createMigrationPlan(
	migrations []*Migration, typ MigrationType, to string,
) ([]migrationRun, error) {
	toIdx := -1
	for i, m := range migrations {
		if m.Name == to {
			toIdx = i
			break
		}
	}
	if toIdx < 0 && to != "all" {
		return nil, fmt.Errorf("migration '%s' doesn't exist", to)
	}

	runPlan := []migrationRun{}
	for idx, m := range migrations {
		switch {
		case typ == MigrationUp && !m.Applied && (to == "all" || idx <= toIdx):
			runPlan = append(runPlan, migrationRun{name: m.Name, typ: MigrationUp, sql: m.Up.V})
		case typ == MigrationDown && m.Applied && (to == "all" || idx > toIdx):
			// Roll back in reverse order.
			runPlan = append([]migrationRun{{name: m.Name, typ: MigrationDown, sql: m.Down.V}}, runPlan...)
		}
	}

	return runPlan, nil
}

func createMigrationSchema(ctx context.Context, q Querier) error {
	_, err := q.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS _migration_history (
			name   VARCHAR(128) NOT NULL,
			type   VARCHAR(32) CHECK( type IN ('up','down') ) NOT NULL,
			time   TIMESTAMP NOT NULL
		)`)
	return err
}
