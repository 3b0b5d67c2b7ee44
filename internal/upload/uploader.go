// Package upload writes an arbitrary table to warehouse staging storage and
// copies it into a target table.
//
// The operation runs the state machine IDLE → STAGING → COPYING → DONE, each
// warehouse phase on its own scoped connection. It is NOT atomic: a failure
// between the staging and copy phases of a non-incremental upload leaves the
// target table truncated with no data loaded. Callers must treat the
// operation as all-or-nothing and reconcile manually on failure — the
// UploadError names the failed sub-step for exactly that purpose.
//
// Concurrent uploads against the same stage or target table are not safe
// without external coordination: two non-incremental uploads can race between
// the stage REMOVE and the table TRUNCATE and corrupt the destination.
// Callers must serialize uploads per target table.
package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Gkaczkowski/emissions-app/internal/metrics"
	"github.com/Gkaczkowski/emissions-app/internal/support/exception"
	"github.com/Gkaczkowski/emissions-app/internal/support/logger"
	"github.com/Gkaczkowski/emissions-app/internal/table"
	"github.com/Gkaczkowski/emissions-app/internal/warehouse"
)

const moduleName = "upload"

// Sub-step names carried on UploadError.
const (
	StepSerialize = "serialize"
	StepStage     = "stage"
	StepCopy      = "copy"
)

// State models the upload lifecycle.
type State int

const (
	StateIdle State = iota
	StateStaging
	StateCopying
	StateDone
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateStaging:
		return "STAGING"
	case StateCopying:
		return "COPYING"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// stagingSuffixLayout derives the default staging suffix from the current
// timestamp, to the minute.
const stagingSuffixLayout = "_20060102_1504"

// Options controls a single upload.
type Options struct {
	// Incremental appends alongside prior staged files and table rows.
	// When false the stage content and target table are destructively
	// replaced.
	Incremental bool
	// StagingSuffix names the staged file. Empty means a suffix derived from
	// the current timestamp to the minute.
	StagingSuffix string
}

// Uploader performs staging/copy uploads against the configured warehouse
// database.
type Uploader struct {
	connector warehouse.Connector
	database  string
	tempDir   string
	recorder  *metrics.Recorder
	now       func() time.Time
}

// NewUploader creates an Uploader. tempDir may be empty to use the system
// temp directory; recorder may be nil.
func NewUploader(connector warehouse.Connector, database, tempDir string, recorder *metrics.Recorder) *Uploader {
	return &Uploader{
		connector: connector,
		database:  database,
		tempDir:   tempDir,
		recorder:  recorder,
		now:       time.Now,
	}
}

// Upload serializes t to a staged CSV file and copies it into
// schema.targetTable. The stage is named after the target table. See the
// package documentation for the atomicity and concurrency caveats.
func (u *Uploader) Upload(ctx context.Context, t *table.Table, schema, targetTable string, opts Options) error {
	opID := uuid.NewString()
	stage := targetTable
	state := StateIdle
	logger.Infof("Upload %s: table=%s.%s incremental=%t (state %s).", opID, schema, targetTable, opts.Incremental, state)

	err := u.run(ctx, t, schema, targetTable, stage, opts, opID, &state)
	if u.recorder != nil {
		if err != nil {
			u.recorder.IncUpload("failure")
		} else {
			u.recorder.IncUpload("success")
		}
	}
	if err != nil {
		logger.Errorf("Upload %s failed in state %s: %v", opID, state, err)
		return err
	}
	logger.Infof("Upload %s completed (state %s).", opID, state)
	return nil
}

func (u *Uploader) run(ctx context.Context, t *table.Table, schema, targetTable, stage string, opts Options, opID string, state *State) error {
	localPath, cleanup, err := u.serialize(t, opts.StagingSuffix)
	if err != nil {
		return exception.NewUploadError(moduleName, StepSerialize, fmt.Sprintf("upload %s: failed to serialize table", opID), err)
	}
	defer cleanup()

	*state = StateStaging
	if err := u.toStaging(ctx, localPath, schema, stage, opts.Incremental); err != nil {
		return exception.NewUploadError(moduleName, StepStage, fmt.Sprintf("upload %s: failed to stage %s", opID, filepath.Base(localPath)), err)
	}

	*state = StateCopying
	if err := u.stageToTable(ctx, schema, stage, targetTable, opts.Incremental); err != nil {
		return exception.NewUploadError(moduleName, StepCopy, fmt.Sprintf("upload %s: failed to copy stage into %s.%s", opID, schema, targetTable), err)
	}

	*state = StateDone
	return nil
}

// serialize writes t as CSV to a temp file whose name carries the staging
// suffix. The returned cleanup removes the file.
func (u *Uploader) serialize(t *table.Table, stagingSuffix string) (string, func(), error) {
	var suffix string
	if stagingSuffix != "" {
		suffix = "_" + stagingSuffix
	} else {
		suffix = u.now().Format(stagingSuffixLayout)
	}

	f, err := os.CreateTemp(u.tempDir, "staged-*"+suffix)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	cleanup := func() {
		if err := os.Remove(f.Name()); err != nil {
			logger.Warnf("Failed to remove temp file '%s': %v", f.Name(), err)
		}
	}

	if err := t.WriteCSV(f); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write CSV: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to close temp file: %w", err)
	}
	return f.Name(), cleanup, nil
}

// toStaging transfers the local file into the warehouse-side stage.
// Destructive for non-incremental uploads: existing staged content is
// removed first.
func (u *Uploader) toStaging(ctx context.Context, localPath, schema, stage string, incremental bool) error {
	return warehouse.WithConnection(ctx, u.connector, func(conn warehouse.Connection) error {
		// Multiple SQL statements in a single call are not supported by the
		// copy-into protocol; each directive is issued separately.
		if err := conn.Exec(ctx, useSchemaStatement(u.database, schema)); err != nil {
			return err
		}
		if !incremental {
			if err := conn.Exec(ctx, removeStagedStatement(schema, stage)); err != nil {
				return err
			}
		}
		return conn.Exec(ctx, putStatement(localPath, stage))
	})
}

// stageToTable copies staged content into the target table. Destructive for
// non-incremental uploads: the target table is truncated first, which is the
// non-atomicity window documented on the package.
func (u *Uploader) stageToTable(ctx context.Context, schema, stage, targetTable string, incremental bool) error {
	return warehouse.WithConnection(ctx, u.connector, func(conn warehouse.Connection) error {
		if err := conn.Exec(ctx, useSchemaStatement(u.database, schema)); err != nil {
			return err
		}
		if !incremental {
			if err := conn.Exec(ctx, truncateStatement(schema, targetTable)); err != nil {
				return err
			}
		}
		return conn.Exec(ctx, copyIntoStatement(schema, targetTable, stage))
	})
}
