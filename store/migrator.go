package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/poplog/internal/version"
)

// Migration Flow:
// 1. preMigrate: if the database is not initialized, apply LATEST.sql and
//    record the current schema version in system_setting.
// 2. Migrate (prod mode): apply incremental migrations from the stored version
//    up to the current schema version.
// 3. Migrate (demo mode): seed the database with demo records.
//
// Migration Files:
// - Location: store/migration/{driver}/{minor}/NN__description.sql
// - A file NN in directory X.Y brings the schema to version X.Y.(NN+1)
// - LATEST.sql: full schema for new installations

//go:embed migration
var migrationFS embed.FS

//go:embed seed
var seedFS embed.FS

const (
	// MigrateFileNameSplit separates the patch number from the description,
	// as in "01__record_origin_index.sql".
	MigrateFileNameSplit = "__"
	// LatestSchemaFileName is the full schema applied to fresh databases.
	LatestSchemaFileName = "LATEST.sql"

	// defaultSchemaVersion stands in for a missing schema version.
	defaultSchemaVersion = "0.0.0"

	modeProd = "prod"
	modeDemo = "demo"
)

func getSchemaVersionOrDefault(schemaVersion string) string {
	if schemaVersion == "" {
		return defaultSchemaVersion
	}
	return schemaVersion
}

func isVersionEmpty(schemaVersion string) bool {
	return schemaVersion == "" || schemaVersion == defaultSchemaVersion
}

// shouldApplyMigration reports whether fileVersion lies in (current, target].
func shouldApplyMigration(fileVersion, currentDBVersion, targetVersion string) bool {
	return version.IsVersionGreaterThan(fileVersion, getSchemaVersionOrDefault(currentDBVersion)) &&
		version.IsVersionGreaterOrEqualThan(targetVersion, fileVersion)
}

// validateMigrationFileName checks the "NN__description.sql" convention.
func validateMigrationFileName(filename string) error {
	prefix, _, found := strings.Cut(filename, MigrateFileNameSplit)
	if !found {
		return errors.Errorf("invalid migration filename format (missing %s): %s", MigrateFileNameSplit, filename)
	}
	if _, err := strconv.Atoi(prefix); err != nil {
		return errors.Errorf("migration filename must start with a number: %s", filename)
	}
	return nil
}

// Migrate migrates the database schema to the latest version.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.preMigrate(ctx); err != nil {
		return errors.Wrap(err, "failed to pre-migrate")
	}

	switch s.profile.Mode {
	case modeProd:
		databaseSchemaVersion, err := s.GetSchemaVersion(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to get database schema version")
		}
		currentSchemaVersion, err := s.GetCurrentSchemaVersion()
		if err != nil {
			return errors.Wrap(err, "failed to get current schema version")
		}
		if !isVersionEmpty(databaseSchemaVersion) && version.IsVersionGreaterThan(databaseSchemaVersion, currentSchemaVersion) {
			slog.Error("cannot downgrade schema version",
				slog.String("databaseVersion", databaseSchemaVersion),
				slog.String("currentVersion", currentSchemaVersion),
			)
			return errors.Errorf("cannot downgrade schema version from %s to %s", databaseSchemaVersion, currentSchemaVersion)
		}
		if isVersionEmpty(databaseSchemaVersion) || version.IsVersionGreaterThan(currentSchemaVersion, databaseSchemaVersion) {
			if err := s.applyMigrations(ctx, databaseSchemaVersion, currentSchemaVersion); err != nil {
				return errors.Wrap(err, "failed to apply migrations")
			}
		}
	case modeDemo:
		if err := s.seed(ctx); err != nil {
			return errors.Wrap(err, "failed to seed")
		}
	}
	return nil
}

type migrationFile struct {
	path    string
	version string
}

// listMigrations returns the incremental migration files in version order.
func (s *Store) listMigrations() ([]migrationFile, error) {
	filePaths, err := fs.Glob(migrationFS, fmt.Sprintf("%s*/*.sql", s.getMigrationBasePath()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read migration files")
	}
	files := make([]migrationFile, 0, len(filePaths))
	for _, filePath := range filePaths {
		v, err := s.getSchemaVersionOfMigrateScript(filePath)
		if err != nil {
			return nil, err
		}
		files = append(files, migrationFile{path: filePath, version: v})
	}
	sort.SliceStable(files, func(i, j int) bool {
		return version.IsVersionGreaterThan(files[j].version, files[i].version)
	})
	return files, nil
}

// applyMigrations applies, in one transaction, every migration file between
// the current and the target schema version.
func (s *Store) applyMigrations(ctx context.Context, currentSchemaVersion, targetSchemaVersion string) error {
	files, err := s.listMigrations()
	if err != nil {
		return err
	}

	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	slog.Info("start migration",
		slog.String("currentSchemaVersion", getSchemaVersionOrDefault(currentSchemaVersion)),
		slog.String("targetSchemaVersion", targetSchemaVersion))

	applied := 0
	for _, file := range files {
		if !shouldApplyMigration(file.version, currentSchemaVersion, targetSchemaVersion) {
			continue
		}
		if err := validateMigrationFileName(filepath.Base(file.path)); err != nil {
			slog.Warn("migration file has invalid name but will be applied", slog.String("file", file.path), slog.String("error", err.Error()))
		}
		slog.Info("applying migration", slog.String("file", file.path), slog.String("version", file.version))

		bytes, err := migrationFS.ReadFile(file.path)
		if err != nil {
			return errors.Wrapf(err, "failed to read migration file: %s", file.path)
		}
		if err := s.execute(ctx, tx, string(bytes)); err != nil {
			return errors.Wrapf(err, "failed to execute migration %s", file.path)
		}
		applied++
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit migration transaction")
	}
	slog.Info("migration completed", slog.Int("migrationsApplied", applied))

	return s.updateCurrentSchemaVersion(ctx, targetSchemaVersion)
}

// preMigrate applies the latest schema to an uninitialized database.
func (s *Store) preMigrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check if database is initialized")
	}
	if initialized {
		return nil
	}

	filePath := s.getMigrationBasePath() + LatestSchemaFileName
	bytes, err := migrationFS.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to read latest schema file %s", filePath)
	}
	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	slog.Info("initializing new database with latest schema", slog.String("file", filePath))
	if err := s.execute(ctx, tx, string(bytes)); err != nil {
		return errors.Wrapf(err, "failed to execute SQL file %s", filePath)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	schemaVersion, err := s.GetCurrentSchemaVersion()
	if err != nil {
		return errors.Wrap(err, "failed to get current schema version")
	}
	slog.Info("database initialized successfully", slog.String("schemaVersion", schemaVersion))
	return s.updateCurrentSchemaVersion(ctx, schemaVersion)
}

func (s *Store) getMigrationBasePath() string {
	return fmt.Sprintf("migration/%s/", s.profile.Driver)
}

func (s *Store) getSeedBasePath() string {
	return fmt.Sprintf("seed/%s/", s.profile.Driver)
}

// seed loads the demo records. Only SQLite carries seed files.
func (s *Store) seed(ctx context.Context) error {
	if s.profile.Driver != "sqlite" {
		slog.Warn("seed is only supported for SQLite, skipping for other databases")
		return nil
	}

	filenames, err := fs.Glob(seedFS, fmt.Sprintf("%s*.sql", s.getSeedBasePath()))
	if err != nil {
		return errors.Wrap(err, "failed to read seed files")
	}
	sort.Strings(filenames)

	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()
	for _, filename := range filenames {
		bytes, err := seedFS.ReadFile(filename)
		if err != nil {
			return errors.Wrapf(err, "failed to read seed file, filename=%s", filename)
		}
		if err := s.execute(ctx, tx, string(bytes)); err != nil {
			return errors.Wrapf(err, "seed error: %s", filename)
		}
	}
	return tx.Commit()
}

// GetCurrentSchemaVersion returns the schema version this binary expects.
func (s *Store) GetCurrentSchemaVersion() (string, error) {
	currentVersion := version.GetCurrentVersion(s.profile.Mode)
	minorVersion := version.GetMinorVersion(currentVersion)
	filePaths, err := fs.Glob(migrationFS, fmt.Sprintf("%s%s/*.sql", s.getMigrationBasePath(), minorVersion))
	if err != nil {
		return "", errors.Wrap(err, "failed to read migration files")
	}

	sort.Strings(filePaths)
	if len(filePaths) == 0 {
		return fmt.Sprintf("%s.0", minorVersion), nil
	}
	return s.getSchemaVersionOfMigrateScript(filePaths[len(filePaths)-1])
}

// getSchemaVersionOfMigrateScript derives "major.minor.patch" from a path
// like migration/sqlite/0.2/00__record_origin_index.sql.
func (s *Store) getSchemaVersionOfMigrateScript(filePath string) (string, error) {
	if strings.HasSuffix(filePath, LatestSchemaFileName) {
		return s.GetCurrentSchemaVersion()
	}

	elements := strings.Split(filepath.ToSlash(filePath), "/")
	if len(elements) < 2 {
		return "", errors.Errorf("invalid file path: %s", filePath)
	}
	minorVersion := elements[len(elements)-2]
	rawPatchVersion, _, _ := strings.Cut(elements[len(elements)-1], MigrateFileNameSplit)
	patchVersion, err := strconv.Atoi(rawPatchVersion)
	if err != nil {
		return "", errors.Wrapf(err, "failed to convert patch version to int: %s", rawPatchVersion)
	}
	return fmt.Sprintf("%s.%d", minorVersion, patchVersion+1), nil
}

// execute runs a SQL script within tx. PostgreSQL cannot run several
// statements in one ExecContext call, so its scripts are split first.
func (s *Store) execute(ctx context.Context, tx *sql.Tx, script string) error {
	if s.profile.Driver != "postgres" {
		if _, err := tx.ExecContext(ctx, script); err != nil {
			return errors.Wrap(err, "failed to execute statement")
		}
		return nil
	}
	for i, stmt := range splitSQL(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to execute statement %d: %s", i+1, stmt)
		}
	}
	return nil
}

// splitSQL splits a script on semicolons that are outside single-quoted
// strings. Line comments are dropped.
func splitSQL(script string) []string {
	var (
		statements []string
		current    strings.Builder
		inQuote    bool
	)
	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for _, line := range strings.Split(script, "\n") {
		for i := 0; i < len(line); i++ {
			ch := line[i]
			if !inQuote && ch == '-' && i+1 < len(line) && line[i+1] == '-' {
				break
			}
			if ch == '\'' {
				inQuote = !inQuote
			}
			if ch == ';' && !inQuote {
				current.WriteByte(ch)
				flush()
				continue
			}
			current.WriteByte(ch)
		}
		current.WriteByte('\n')
	}
	flush()
	return statements
}

// updateCurrentSchemaVersion stores schemaVersion in system_setting.
func (s *Store) updateCurrentSchemaVersion(ctx context.Context, schemaVersion string) error {
	if _, err := s.UpsertSystemSetting(ctx, &SystemSetting{
		Name:        SystemSettingSchemaVersion,
		Value:       schemaVersion,
		Description: "database schema version",
	}); err != nil {
		return errors.Wrap(err, "failed to upsert schema version")
	}
	return nil
}
