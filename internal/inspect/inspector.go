// Package inspect reads the observed schema state from a live StarRocks
// cluster over the MySQL protocol. The metadata catalog
// (information_schema) is the preferred source; SHOW CREATE TABLE and SHOW
// FULL COLUMNS fill in what the catalog does not expose (partition clauses,
// aggregate column types).
package inspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/srschema/srschema/internal/descriptor"
	"github.com/srschema/srschema/internal/logger"
)

// ReflectionError reports a failure to read current state
type ReflectionError struct {
	Schema string
	Op     string
	Err    error
}

func (e *ReflectionError) Error() string {
	return fmt.Sprintf("reflection failed for schema %q while reading %s: %v", e.Schema, e.Op, e.Err)
}

func (e *ReflectionError) Unwrap() error { return e.Err }

// Inspector builds descriptor catalogs from database queries
type Inspector struct {
	db *sql.DB
}

// NewInspector creates a schema inspector over an open connection pool
func NewInspector(db *sql.DB) *Inspector {
	return &Inspector{db: db}
}

// InspectSchema reads every table, view, and materialized view of one
// schema into a catalog. Queries run as one sequential batch; any failure
// aborts the whole inspection with a ReflectionError.
func (i *Inspector) InspectSchema(ctx context.Context, schema string) (*descriptor.Catalog, error) {
	if err := i.validateSchemaExists(ctx, schema); err != nil {
		return nil, err
	}

	catalog := descriptor.NewCatalog(schema)

	if err := i.buildMaterializedViews(ctx, catalog); err != nil {
		return nil, &ReflectionError{Schema: schema, Op: "materialized views", Err: err}
	}
	if err := i.buildViews(ctx, catalog); err != nil {
		return nil, &ReflectionError{Schema: schema, Op: "views", Err: err}
	}
	if err := i.buildTables(ctx, catalog); err != nil {
		return nil, &ReflectionError{Schema: schema, Op: "tables", Err: err}
	}
	if err := i.buildColumns(ctx, catalog); err != nil {
		return nil, &ReflectionError{Schema: schema, Op: "columns", Err: err}
	}
	if err := i.fillShowCreateDetails(ctx, catalog); err != nil {
		return nil, &ReflectionError{Schema: schema, Op: "create statements", Err: err}
	}
	if err := i.fillAggregateTypes(ctx, catalog); err != nil {
		return nil, &ReflectionError{Schema: schema, Op: "aggregate column types", Err: err}
	}

	logger.Get().Debug("inspected schema",
		"schema", schema,
		"tables", len(catalog.Tables),
		"views", len(catalog.Views),
		"materialized_views", len(catalog.MaterializedViews),
	)
	return catalog, nil
}

// RunMode reads the cluster deployment mode, defaulting to shared_nothing
// when the variable is not exposed
func (i *Inspector) RunMode(ctx context.Context) descriptor.RunMode {
	var name, value string
	err := i.db.QueryRowContext(ctx, "SHOW VARIABLES LIKE 'run_mode'").Scan(&name, &value)
	if err == nil && strings.EqualFold(value, string(descriptor.RunModeSharedData)) {
		return descriptor.RunModeSharedData
	}
	return descriptor.RunModeSharedNothing
}

// ServerVersion returns the StarRocks version string
func (i *Inspector) ServerVersion(ctx context.Context) (string, error) {
	var version string
	if err := i.db.QueryRowContext(ctx, "SELECT CURRENT_VERSION()").Scan(&version); err != nil {
		return "", &ReflectionError{Op: "server version", Err: err}
	}
	return version, nil
}

func (i *Inspector) validateSchemaExists(ctx context.Context, schema string) error {
	var name string
	err := i.db.QueryRowContext(ctx,
		"SELECT SCHEMA_NAME FROM information_schema.schemata WHERE SCHEMA_NAME = ?", schema,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return &ReflectionError{Schema: schema, Op: "schema lookup", Err: fmt.Errorf("schema does not exist")}
	}
	if err != nil {
		return &ReflectionError{Schema: schema, Op: "schema lookup", Err: err}
	}
	return nil
}

func (i *Inspector) buildTables(ctx context.Context, catalog *descriptor.Catalog) error {
	comments := make(map[string]string)
	rows, err := i.db.QueryContext(ctx,
		`SELECT TABLE_NAME, TABLE_COMMENT
		 FROM information_schema.tables
		 WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		 ORDER BY TABLE_NAME`, catalog.Schema)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var comment sql.NullString
		if err := rows.Scan(&name, &comment); err != nil {
			return err
		}
		comments[name] = comment.String
	}
	if err := rows.Err(); err != nil {
		return err
	}

	configRows, err := i.db.QueryContext(ctx,
		`SELECT TABLE_NAME, TABLE_ENGINE, TABLE_MODEL, PRIMARY_KEY,
		        DISTRIBUTE_TYPE, DISTRIBUTE_KEY, DISTRIBUTE_BUCKET,
		        SORT_KEY, PROPERTIES
		 FROM information_schema.tables_config
		 WHERE TABLE_SCHEMA = ?
		 ORDER BY TABLE_NAME`, catalog.Schema)
	if err != nil {
		return err
	}
	defer configRows.Close()

	for configRows.Next() {
		var name string
		var engine, model, primaryKey, distType, distKey, sortKey, properties sql.NullString
		var buckets sql.NullInt64
		if err := configRows.Scan(&name, &engine, &model, &primaryKey,
			&distType, &distKey, &buckets, &sortKey, &properties); err != nil {
			return err
		}

		// materialized views surface in tables_config too; that is the only
		// place their distribution, sort key, and properties are exposed
		if mv, isMV := catalog.MaterializedViews[name]; isMV {
			mv.DistributedBy = distributionClause(distType.String, distKey.String, buckets)
			mv.OrderBy = splitKeyList(sortKey.String)
			mv.Properties = parseProperties(properties.String)
			continue
		}

		comment, isBaseTable := comments[name]
		if !isBaseTable {
			continue
		}

		keyType := descriptor.KeyTypeFromModel(model.String)
		table := &descriptor.Table{
			Dialect:       descriptor.Dialect,
			Schema:        catalog.Schema,
			Name:          name,
			Engine:        engine.String,
			KeyType:       keyType,
			KeyColumns:    splitKeyList(primaryKey.String),
			DistributedBy: distributionClause(distType.String, distKey.String, buckets),
			OrderBy:       splitKeyList(sortKey.String),
			Properties:    parseProperties(properties.String),
			Comment:       comment,
		}
		catalog.Tables[name] = table
	}
	return configRows.Err()
}

func (i *Inspector) buildColumns(ctx context.Context, catalog *descriptor.Catalog) error {
	rows, err := i.db.QueryContext(ctx,
		`SELECT TABLE_NAME, COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE,
		        COLUMN_DEFAULT, COLUMN_COMMENT, EXTRA
		 FROM information_schema.columns
		 WHERE TABLE_SCHEMA = ?
		 ORDER BY TABLE_NAME, ORDINAL_POSITION`, catalog.Schema)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, columnName, columnType, isNullable string
		var columnDefault, comment, extra sql.NullString
		if err := rows.Scan(&tableName, &columnName, &columnType, &isNullable,
			&columnDefault, &comment, &extra); err != nil {
			return err
		}

		table, ok := catalog.Tables[tableName]
		if !ok {
			continue
		}

		column := &descriptor.Column{
			Name:          columnName,
			Type:          columnType,
			Nullable:      strings.EqualFold(isNullable, "YES"),
			Comment:       comment.String,
			AutoIncrement: strings.Contains(strings.ToLower(extra.String), "auto_increment"),
			IsKey:         containsFold(table.KeyColumns, columnName),
		}
		if columnDefault.Valid {
			def := columnDefault.String
			column.Default = &def
		}
		table.Columns = append(table.Columns, column)
	}
	return rows.Err()
}

func (i *Inspector) buildViews(ctx context.Context, catalog *descriptor.Catalog) error {
	rows, err := i.db.QueryContext(ctx,
		`SELECT TABLE_NAME, VIEW_DEFINITION, SECURITY_TYPE
		 FROM information_schema.views
		 WHERE TABLE_SCHEMA = ?
		 ORDER BY TABLE_NAME`, catalog.Schema)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var definition, security sql.NullString
		if err := rows.Scan(&name, &definition, &security); err != nil {
			return err
		}
		catalog.Views[name] = &descriptor.View{
			Dialect:    descriptor.Dialect,
			Schema:     catalog.Schema,
			Name:       name,
			Definition: definition.String,
			Security:   securityFrom(security.String),
		}
	}
	return rows.Err()
}

func (i *Inspector) buildMaterializedViews(ctx context.Context, catalog *descriptor.Catalog) error {
	rows, err := i.db.QueryContext(ctx,
		`SELECT TABLE_NAME, MATERIALIZED_VIEW_DEFINITION, REFRESH_TYPE, IS_ACTIVE
		 FROM information_schema.materialized_views
		 WHERE TABLE_SCHEMA = ?
		 ORDER BY TABLE_NAME`, catalog.Schema)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var definition, refreshType, isActive sql.NullString
		if err := rows.Scan(&name, &definition, &refreshType, &isActive); err != nil {
			return err
		}
		status := descriptor.MVStatusActive
		if strings.EqualFold(isActive.String, "false") {
			status = descriptor.MVStatusInactive
		}
		catalog.MaterializedViews[name] = &descriptor.MaterializedView{
			Dialect:    descriptor.Dialect,
			Schema:     catalog.Schema,
			Name:       name,
			Definition: definition.String,
			Refresh:    refreshType.String,
			Status:     status,
		}
	}
	return rows.Err()
}

// fillShowCreateDetails reads what the catalog tables do not expose out of
// SHOW CREATE output: PARTITION BY clauses (tables_config only has the
// partition key, which cannot reconstruct expression partitioning) and the
// table index definitions (not in information_schema at all).
func (i *Inspector) fillShowCreateDetails(ctx context.Context, catalog *descriptor.Catalog) error {
	for _, name := range catalog.TableNames() {
		table := catalog.Tables[name]
		ddl, err := i.showCreate(ctx, "TABLE", catalog.Schema, name)
		if err != nil {
			return err
		}
		table.PartitionBy = partitionClauseFromDDL(ddl)
		table.Indexes = indexesFromDDL(ddl)
	}
	for _, name := range catalog.MaterializedViewNames() {
		mv := catalog.MaterializedViews[name]
		ddl, err := i.showCreate(ctx, "MATERIALIZED VIEW", catalog.Schema, name)
		if err != nil {
			return err
		}
		mv.PartitionBy = partitionClauseFromDDL(ddl)
	}
	return nil
}

// fillAggregateTypes reads aggregate column functions from SHOW FULL
// COLUMNS; information_schema.columns does not expose them
func (i *Inspector) fillAggregateTypes(ctx context.Context, catalog *descriptor.Catalog) error {
	for _, name := range catalog.TableNames() {
		table := catalog.Tables[name]
		if table.KeyType != descriptor.KeyTypeAggregate {
			continue
		}
		rows, err := i.db.QueryContext(ctx,
			fmt.Sprintf("SHOW FULL COLUMNS FROM %s.%s", quoteIdent(catalog.Schema), quoteIdent(name)))
		if err != nil {
			return err
		}
		if err := scanAggregateTypes(rows, table); err != nil {
			return err
		}
	}
	return nil
}

func scanAggregateTypes(rows *sql.Rows, table *descriptor.Table) error {
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	fieldIdx, extraIdx := -1, -1
	for idx, col := range cols {
		switch col {
		case "Field":
			fieldIdx = idx
		case "Extra":
			extraIdx = idx
		}
	}
	if fieldIdx < 0 || extraIdx < 0 {
		return fmt.Errorf("unexpected SHOW FULL COLUMNS result shape")
	}

	values := make([]sql.NullString, len(cols))
	scanArgs := make([]any, len(cols))
	for idx := range values {
		scanArgs[idx] = &values[idx]
	}
	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return err
		}
		agg := aggTypeFrom(values[extraIdx].String)
		if agg == descriptor.AggTypeNone {
			continue
		}
		if col := table.Column(values[fieldIdx].String); col != nil {
			col.AggType = agg
		}
	}
	return rows.Err()
}

func (i *Inspector) showCreate(ctx context.Context, object, schema, table string) (string, error) {
	var name, ddl string
	err := i.db.QueryRowContext(ctx,
		fmt.Sprintf("SHOW CREATE %s %s.%s", object, quoteIdent(schema), quoteIdent(table)),
	).Scan(&name, &ddl)
	if err != nil {
		return "", err
	}
	return ddl, nil
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func containsFold(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
