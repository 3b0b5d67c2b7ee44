package upload

import "fmt"

// The copy-into protocol statements, kept as plain string construction: the
// warehouse session must be pointed at the right schema via USE before either
// the staging or the copy phase runs (a session-state precondition, not a
// transaction).

// useSchemaStatement points the session at the target database and schema.
func useSchemaStatement(database, schema string) string {
	return fmt.Sprintf("USE %s.%s;", database, schema)
}

// removeStagedStatement purges existing content from the stage. Destructive;
// issued only for non-incremental uploads.
func removeStagedStatement(schema, stage string) string {
	return fmt.Sprintf("REMOVE @%s.%s;", schema, stage)
}

// putStatement transfers a local file into the warehouse-side stage.
func putStatement(localPath, stage string) string {
	return fmt.Sprintf("PUT file://%s @%s;", localPath, stage)
}

// truncateStatement clears the target table. Destructive; issued only for
// non-incremental uploads.
func truncateStatement(schema, targetTable string) string {
	return fmt.Sprintf("TRUNCATE TABLE IF EXISTS %s.%s;", schema, targetTable)
}

// copyIntoStatement loads the staged file into the target table. The staged
// file is CSV with a header row to skip; empty fields map to NULL.
func copyIntoStatement(schema, targetTable, stage string) string {
	return fmt.Sprintf(
		"COPY INTO %s.%s FROM @%s.%s FILE_FORMAT = (TYPE = CSV skip_header = 1 EMPTY_FIELD_AS_NULL = TRUE);",
		schema, targetTable, schema, stage,
	)
}
