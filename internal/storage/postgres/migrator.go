package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	migrationsDir = "sql/migrations"
	// migrationsTable: журнал миграций compose-сервиса; рядом могут жить схемы других приложений.
	migrationsTable = "compose_schema_migrations"
	// migrationLockKey общий для всех реплик compose-сервиса.
	migrationLockKey = int64(0x61626173)
	journalTimeout   = 5 * time.Second
)

const ensureJournalSQL = `
CREATE TABLE IF NOT EXISTS ` + migrationsTable + ` (
    version BIGINT PRIMARY KEY,
    name TEXT NOT NULL,
    checksum TEXT NOT NULL DEFAULT '',
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

var (
	// ErrMigrationDrift: файл уже применённой миграции изменён после применения.
	ErrMigrationDrift = errors.New("applied migration differs from embedded file")
	// ErrUnknownMigration: в журнале есть версия, которой нет в бинарнике.
	ErrUnknownMigration = errors.New("migration is not embedded in this binary")

	errStoreNotInitialized = errors.New("postgres store is not initialized")
)

var (
	//go:embed sql/migrations/*.sql
	migrationsFS embed.FS

	migrationFileRe = regexp.MustCompile(`^(\d{4})_([a-z0-9_]+)\.(up|down)\.sql$`)
)

type migration struct {
	Version  int64
	Name     string
	Up       string
	Down     string
	Checksum string
}

func (m migration) label() string {
	return fmt.Sprintf("%04d_%s", m.Version, m.Name)
}

// journalEntry: строка журнала применённых миграций.
type journalEntry struct {
	Version  int64
	Checksum string
}

// MigrationInfo описывает встроенную миграцию.
type MigrationInfo struct {
	Version  int64
	Name     string
	Checksum string
}

// EmbeddedMigrations возвращает список миграций, встроенных в бинарник.
func EmbeddedMigrations() ([]MigrationInfo, error) {
	migrations, err := parseMigrations(migrationsFS)
	if err != nil {
		return nil, err
	}
	infos := make([]MigrationInfo, len(migrations))
	for i, m := range migrations {
		infos[i] = MigrationInfo{Version: m.Version, Name: m.Name, Checksum: m.Checksum}
	}
	return infos, nil
}

// MigrateUp применяет up-миграции; steps=0 применяет все ожидающие.
// Изменённый файл уже применённой миграции останавливает запуск с ErrMigrationDrift.
func (s *Store) MigrateUp(ctx context.Context, steps int) error {
	return s.withJournal(ctx, func(conn *sql.Conn, migrations []migration) error {
		return migrateUp(ctx, conn, migrations, steps)
	})
}

// MigrateDown откатывает steps последних миграций; steps<=0 откатывает одну.
func (s *Store) MigrateDown(ctx context.Context, steps int) error {
	if steps <= 0 {
		steps = 1
	}
	return s.withJournal(ctx, func(conn *sql.Conn, migrations []migration) error {
		return migrateDown(ctx, conn, migrations, steps)
	})
}

// MigrationStatus возвращает последнюю применённую версию и число применённых миграций.
func (s *Store) MigrationStatus(ctx context.Context) (int64, int, error) {
	if s == nil || s.db == nil {
		return 0, 0, errStoreNotInitialized
	}

	queryCtx, cancel := context.WithTimeout(ctx, journalTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(queryCtx, ensureJournalSQL); err != nil {
		return 0, 0, fmt.Errorf("ensure migration journal: %w", err)
	}

	var (
		version int64
		count   int
	)
	err := s.db.QueryRowContext(queryCtx,
		`SELECT COALESCE(MAX(version), 0), COUNT(*) FROM `+migrationsTable,
	).Scan(&version, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("query migration status: %w", err)
	}
	return version, count, nil
}

// withJournal берёт advisory lock на отдельном соединении и гарантирует наличие журнала.
func (s *Store) withJournal(ctx context.Context, fn func(conn *sql.Conn, migrations []migration) error) error {
	if s == nil || s.db == nil {
		return errStoreNotInitialized
	}
	migrations, err := parseMigrations(migrationsFS)
	if err != nil {
		return err
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire db connection: %w", err)
	}
	defer conn.Close()

	lockCtx, cancel := context.WithTimeout(ctx, journalTimeout)
	defer cancel()
	if _, err := conn.ExecContext(lockCtx, "SELECT pg_advisory_lock($1)", migrationLockKey); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", migrationLockKey)
	}()

	if _, err := conn.ExecContext(ctx, ensureJournalSQL); err != nil {
		return fmt.Errorf("ensure migration journal: %w", err)
	}
	return fn(conn, migrations)
}

func migrateUp(ctx context.Context, conn *sql.Conn, migrations []migration, steps int) error {
	journal, err := readJournal(ctx, conn)
	if err != nil {
		return err
	}
	if err := verifyJournal(migrations, journal); err != nil {
		return err
	}

	for _, m := range pendingMigrations(migrations, journal, steps) {
		err := execWithJournal(ctx, conn, m.Up,
			`INSERT INTO `+migrationsTable+` (version, name, checksum) VALUES ($1, $2, $3)`,
			m.Version, m.Name, m.Checksum)
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", m.label(), err)
		}
	}
	return nil
}

func migrateDown(ctx context.Context, conn *sql.Conn, migrations []migration, steps int) error {
	journal, err := readJournal(ctx, conn)
	if err != nil {
		return err
	}
	byVersion := make(map[int64]migration, len(migrations))
	for _, m := range migrations {
		byVersion[m.Version] = m
	}

	for i := len(journal) - 1; i >= 0 && steps > 0; i, steps = i-1, steps-1 {
		m, ok := byVersion[journal[i].Version]
		if !ok {
			return fmt.Errorf("rollback version %d: %w", journal[i].Version, ErrUnknownMigration)
		}
		err := execWithJournal(ctx, conn, m.Down,
			`DELETE FROM `+migrationsTable+` WHERE version = $1`, m.Version)
		if err != nil {
			return fmt.Errorf("rollback migration %s: %w", m.label(), err)
		}
	}
	return nil
}

// execWithJournal выполняет тело миграции и запись журнала в одной транзакции.
func execWithJournal(ctx context.Context, conn *sql.Conn, body, journalSQL string, args ...any) (err error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, body); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, journalSQL, args...); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return tx.Commit()
}

// readJournal возвращает применённые миграции по возрастанию версии.
func readJournal(ctx context.Context, conn *sql.Conn) ([]journalEntry, error) {
	rows, err := conn.QueryContext(ctx, `SELECT version, checksum FROM `+migrationsTable+` ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("read migration journal: %w", err)
	}
	defer rows.Close()

	var journal []journalEntry
	for rows.Next() {
		var entry journalEntry
		if err := rows.Scan(&entry.Version, &entry.Checksum); err != nil {
			return nil, fmt.Errorf("scan migration journal: %w", err)
		}
		journal = append(journal, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate migration journal: %w", err)
	}
	return journal, nil
}

// verifyJournal сверяет контрольные суммы применённых миграций со встроенными.
// Пустая сумма в журнале не проверяется. Версии новее бинарника пропускаются:
// их применила более свежая реплика.
func verifyJournal(migrations []migration, journal []journalEntry) error {
	byVersion := make(map[int64]migration, len(migrations))
	for _, m := range migrations {
		byVersion[m.Version] = m
	}
	for _, entry := range journal {
		m, ok := byVersion[entry.Version]
		if !ok || entry.Checksum == "" {
			continue
		}
		if entry.Checksum != m.Checksum {
			return fmt.Errorf("migration %s: %w", m.label(), ErrMigrationDrift)
		}
	}
	return nil
}

// pendingMigrations отбирает неприменённые миграции по порядку; steps>0 ограничивает их число.
func pendingMigrations(migrations []migration, journal []journalEntry, steps int) []migration {
	applied := make(map[int64]struct{}, len(journal))
	for _, entry := range journal {
		applied[entry.Version] = struct{}{}
	}
	var pending []migration
	for _, m := range migrations {
		if _, ok := applied[m.Version]; ok {
			continue
		}
		pending = append(pending, m)
		if steps > 0 && len(pending) == steps {
			break
		}
	}
	return pending
}

// parseMigrations читает пары NNNN_name.up.sql / NNNN_name.down.sql.
func parseMigrations(fsys fs.FS) ([]migration, error) {
	files, err := fs.Glob(fsys, path.Join(migrationsDir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no migration files found")
	}

	byVersion := make(map[int64]*migration)
	for _, file := range files {
		base := path.Base(file)
		parts := migrationFileRe.FindStringSubmatch(base)
		if parts == nil {
			return nil, fmt.Errorf("invalid migration file name: %s", base)
		}
		version, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse migration version from %s: %w", base, err)
		}
		name, direction := parts[2], parts[3]

		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read migration file %s: %w", file, err)
		}
		body := strings.TrimSpace(string(raw))
		if body == "" {
			return nil, fmt.Errorf("migration file is empty: %s", base)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &migration{Version: version, Name: name}
			byVersion[version] = m
		} else if m.Name != name {
			return nil, fmt.Errorf("migration name mismatch for version %d: %s vs %s", version, m.Name, name)
		}

		target := &m.Up
		if direction == "down" {
			target = &m.Down
		}
		if *target != "" {
			return nil, fmt.Errorf("duplicate %s migration for version %d", direction, version)
		}
		*target = body
	}

	migrations := make([]migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" || m.Down == "" {
			return nil, fmt.Errorf("migration %s must have both up and down files", m.label())
		}
		sum := sha256.Sum256([]byte(m.Up))
		m.Checksum = hex.EncodeToString(sum[:])
		migrations = append(migrations, *m)
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}
