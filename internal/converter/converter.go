// =============================================================================
// metafactors - Converter Module
// =============================================================================
//
// This module contains the conversion pipeline for one metadata file.
//
// CONVERSION PIPELINE:
//   1. Gate: if the factor side file exists, skip (or reuse it)
//   2. Read the input table (delimited text or workbook)
//   3. Infer column kinds
//   4. Build factor tables for categorical columns
//   5. Assemble the document
//   6. Write the factor side file
//   7. Write the JSON document
//
// Any error aborts the run. No partial document is ever written, and a side
// file created by a failed run is removed again.
//
// =============================================================================

package converter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stela2502/metafactors/internal/csvparser"
	"github.com/stela2502/metafactors/internal/document"
	"github.com/stela2502/metafactors/internal/factor"
	"github.com/stela2502/metafactors/internal/inference"
	"github.com/stela2502/metafactors/internal/types"
	"github.com/stela2502/metafactors/internal/xlsxparser"
	"github.com/stela2502/metafactors/pkg/utils"
)

// GeneratorName is recorded in every emitted document.
const GeneratorName = "metafactors"

// ErrInvalidRequest is returned for requests that cannot be run.
var ErrInvalidRequest = errors.New("invalid conversion request")

// =============================================================================
// REQUEST AND OUTCOME
// =============================================================================

// Request describes one conversion. It is not modified by Convert.
type Request struct {
	// InputPath is the metadata table. Files ending in .xlsx/.xlsm are read
	// as workbooks, anything else as delimited text.
	InputPath string

	// Delimiter separates fields of delimited input. Zero means tab.
	Delimiter byte

	// Categorical names columns forced to be factors.
	Categorical types.StringSet

	// FactorsPath is the factor side file. Its existence gates the run.
	FactorsPath string

	// OutputPath is the JSON document. Must differ from FactorsPath.
	OutputPath string

	// Encoding is the character set of delimited input. Empty means UTF-8.
	Encoding string

	// Sheet selects the worksheet of workbook input.
	Sheet string

	// MissingValues are extra sentinels for missing cells.
	MissingValues []string

	// Workers bounds concurrent column inference.
	Workers int

	// ReuseFactors loads an existing side file instead of skipping.
	ReuseFactors bool
}

// OutcomeKind tells the caller what a successful run did.
type OutcomeKind int

const (
	// OutcomeWritten means the side file and the document were written.
	OutcomeWritten OutcomeKind = iota

	// OutcomeReused means the existing side file was applied and left
	// untouched; only the document was written.
	OutcomeReused

	// OutcomeSkippedExisting means the side file already existed and
	// nothing was done.
	OutcomeSkippedExisting
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeWritten:
		return "written"
	case OutcomeReused:
		return "reused"
	case OutcomeSkippedExisting:
		return "skipped"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the result of a successful Convert call.
type Outcome struct {
	Kind        OutcomeKind
	OutputPath  string
	FactorsPath string

	// Statistics; zero when the run was skipped.
	Rows        int
	Numeric     int
	Categorical int

	// AddedLevels lists, per column, levels found in the data that were
	// missing from a reused side file. They are in the document but not
	// in the side file.
	AddedLevels map[string][]string

	Elapsed time.Duration
}

// =============================================================================
// CONVERTER
// =============================================================================

// Converter runs conversions and logs their progress.
type Converter struct {
	logger  logrus.FieldLogger
	version string
}

// New creates a Converter. A nil logger discards all output.
func New(logger logrus.FieldLogger, version string) *Converter {
	if logger == nil {
		logger = discardLogger()
	}
	return &Converter{logger: logger, version: version}
}

// Convert runs req with a discarding logger.
func Convert(req *Request) (*Outcome, error) {
	return New(nil, "").Convert(req)
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Convert executes the pipeline for req.
//
// RETURNS:
//   - The outcome when the run was written, reused or skipped.
//   - ErrInvalidRequest, *types.IOError, *types.MalformedTableError or
//     *types.MalformedFactorFileError otherwise.
func (c *Converter) Convert(req *Request) (*Outcome, error) {
	start := time.Now()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	log := c.logger.WithFields(logrus.Fields{
		"input":   req.InputPath,
		"factors": req.FactorsPath,
	})

	outcome := &Outcome{
		Kind:        OutcomeWritten,
		OutputPath:  req.OutputPath,
		FactorsPath: req.FactorsPath,
	}

	// =========================================================================
	// STEP 1: GATE
	// =========================================================================

	var curated map[string]*types.FactorTable
	if utils.FileExists(req.FactorsPath) {
		if !req.ReuseFactors {
			log.Info("Factor file already exists, skipping conversion")
			outcome.Kind = OutcomeSkippedExisting
			outcome.OutputPath = ""
			outcome.Elapsed = time.Since(start)
			return outcome, nil
		}

		loaded, err := factor.ReadFile(req.FactorsPath)
		if err != nil {
			return nil, err
		}
		curated = make(map[string]*types.FactorTable, len(loaded))
		for _, ft := range loaded {
			curated[ft.Column] = ft
		}
		outcome.Kind = OutcomeReused
		log.WithField("columns", len(loaded)).Info("Reusing existing factor file")
	}

	// =========================================================================
	// STEP 2: READ INPUT
	// =========================================================================

	table, err := readTable(req)
	if err != nil {
		return nil, err
	}
	outcome.Rows = table.RowCount()
	log.WithFields(logrus.Fields{"rows": table.RowCount(), "columns": table.ColumnCount()}).Debug("Parsed input table")

	// =========================================================================
	// STEP 3: INFER COLUMN KINDS
	// =========================================================================

	missing := types.NewMissingSet(req.MissingValues...)
	forced := make(types.StringSet, len(req.Categorical)+len(curated))
	for name := range req.Categorical {
		if !table.HasColumn(name) {
			log.WithField("column", name).Warn("Categorical column not found in input header")
			continue
		}
		forced[name] = struct{}{}
	}
	for name := range curated {
		if !table.HasColumn(name) {
			log.WithField("column", name).Warn("Factor file column not found in input header, ignoring it")
			continue
		}
		forced[name] = struct{}{}
	}

	kinds := inference.New(missing, req.Workers).Infer(table, forced)

	// =========================================================================
	// STEP 4: BUILD FACTORS
	// =========================================================================

	factors := make(map[string]*types.FactorTable)
	ordered := make([]*types.FactorTable, 0, len(kinds))
	for i, name := range table.Headers {
		if kinds[i] != types.KindCategorical {
			outcome.Numeric++
			continue
		}
		outcome.Categorical++

		var ft *types.FactorTable
		if base, ok := curated[name]; ok {
			var added []string
			ft, added = factor.Extend(base, table.Columns[i], missing)
			if len(added) > 0 {
				if outcome.AddedLevels == nil {
					outcome.AddedLevels = make(map[string][]string)
				}
				outcome.AddedLevels[name] = added
				log.WithFields(logrus.Fields{"column": name, "levels": added}).Warn("Data has levels missing from the factor file; appended after existing codes")
			}
		} else {
			ft = factor.Build(name, table.Columns[i], missing)
		}

		factors[name] = ft
		ordered = append(ordered, ft)
		log.WithFields(logrus.Fields{"column": name, "levels": ft.Len()}).Debug("Built factor")
	}

	// =========================================================================
	// STEP 5: ASSEMBLE
	// =========================================================================

	doc, err := document.Assemble(table, kinds, factors, missing)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble document: %w", err)
	}
	doc.Generator = document.Generator{
		Name:    GeneratorName,
		Version: c.version,
		RunID:   uuid.NewString(),
	}

	// =========================================================================
	// STEP 6: WRITE SIDE FILE
	// =========================================================================

	if outcome.Kind == OutcomeWritten {
		if err := factor.WriteFile(req.FactorsPath, ordered); err != nil {
			return nil, err
		}
		log.WithField("columns", len(ordered)).Info("Wrote factor file")
	}

	// =========================================================================
	// STEP 7: WRITE DOCUMENT
	// =========================================================================

	if err := document.WriteFile(req.OutputPath, doc); err != nil {
		if outcome.Kind == OutcomeWritten {
			if rmErr := os.Remove(req.FactorsPath); rmErr != nil {
				log.WithError(rmErr).Error("Failed to remove factor file of failed run")
			}
		}
		return nil, err
	}

	outcome.Elapsed = time.Since(start)
	log.WithFields(logrus.Fields{
		"output":      req.OutputPath,
		"numeric":     outcome.Numeric,
		"categorical": outcome.Categorical,
		"elapsed":     outcome.Elapsed,
	}).Info("Wrote document")

	return outcome, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// validateRequest rejects requests that would conflate or clobber files.
func validateRequest(req *Request) error {
	switch {
	case req == nil:
		return fmt.Errorf("%w: nil request", ErrInvalidRequest)
	case req.InputPath == "":
		return fmt.Errorf("%w: input path is required", ErrInvalidRequest)
	case req.FactorsPath == "":
		return fmt.Errorf("%w: factors path is required", ErrInvalidRequest)
	case req.OutputPath == "":
		return fmt.Errorf("%w: output path is required", ErrInvalidRequest)
	case utils.SamePath(req.OutputPath, req.FactorsPath):
		return fmt.Errorf("%w: output document and factor file must be different files (%s)", ErrInvalidRequest, req.OutputPath)
	case utils.SamePath(req.OutputPath, req.InputPath):
		return fmt.Errorf("%w: output document would overwrite the input %s", ErrInvalidRequest, req.InputPath)
	case utils.SamePath(req.FactorsPath, req.InputPath):
		return fmt.Errorf("%w: factor file would overwrite the input %s", ErrInvalidRequest, req.InputPath)
	}
	return nil
}

// readTable picks the reader for the input file.
func readTable(req *Request) (*types.Table, error) {
	if xlsxparser.IsWorkbook(req.InputPath) {
		return xlsxparser.Parse(req.InputPath, req.Sheet)
	}
	return csvparser.Parse(req.InputPath, csvparser.Options{
		Delimiter: req.Delimiter,
		Encoding:  req.Encoding,
	})
}
