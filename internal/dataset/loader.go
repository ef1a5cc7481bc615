package dataset

import (
	"fmt"
	"log"
	"strings"
	"time"

	"hrattrition/adapters/excel"
	"hrattrition/domain/attrition"
	"hrattrition/internal/errors"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/google/uuid"
)

// missingValues are the cell spellings read as missing.
var missingValues = []string{"", "NA", "N/A", "n/a", "NaN", "nan", "NULL", "null", "<NA>", "#N/A"}

// Loader reads a delimited or XLSX file and derives the attrition flag.
type Loader struct {
	schema attrition.Schema
	sheet  string
	now    func() time.Time
}

// NewLoader creates a loader for the given schema
func NewLoader(schema attrition.Schema) *Loader {
	return &Loader{schema: schema, now: time.Now}
}

// WithSheet selects the XLSX worksheet; empty means the first sheet.
func (l *Loader) WithSheet(sheet string) *Loader {
	l.sheet = sheet
	return l
}

// Load reads path once. On any failure the returned dataset is nil (and
// therefore IsEmpty) and the error is a LOAD_ERROR or EMPTY_DATASET AppError
// whose message is fit for display.
func (l *Loader) Load(path string) (*Dataset, error) {
	records, err := excel.NewDataReader(path).WithSheet(l.sheet).ReadRecords()
	if err != nil {
		log.Printf("[DatasetLoader] Failed to read %s: %v", path, err)
		return nil, errors.LoadError(fmt.Sprintf("데이터 로드 오류: %s", path), err)
	}
	return l.FromRecords(path, records)
}

// FromRecords builds a dataset from a header row plus data rows.
func (l *Loader) FromRecords(source string, records [][]string) (*Dataset, error) {
	if len(records) < 2 {
		return nil, errors.EmptyDataset(source)
	}

	if !containsString(records[0], l.schema.LabelColumn) {
		return nil, errors.LoadError(fmt.Sprintf("attrition label column %q missing in %s", l.schema.LabelColumn, source), nil)
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(missingValues),
	)
	if df.Err != nil {
		return nil, errors.LoadError(fmt.Sprintf("failed to parse %s", source), df.Err)
	}

	flags, err := l.deriveFlags(df.Col(l.schema.LabelColumn))
	if err != nil {
		return nil, errors.LoadError(fmt.Sprintf("invalid attrition labels in %s", source), err)
	}

	df = df.Mutate(series.New(flags, series.Int, l.schema.FlagColumn))
	if df.Err != nil {
		return nil, errors.LoadError("failed to add attrition flag", df.Err)
	}

	var drop []string
	for _, name := range l.schema.DropColumns {
		if containsString(df.Names(), name) {
			drop = append(drop, name)
		}
	}
	if len(drop) > 0 {
		df = df.Drop(drop)
		if df.Err != nil {
			return nil, errors.LoadError(fmt.Sprintf("failed to drop columns %v", drop), df.Err)
		}
	}

	ds := &Dataset{
		ID:       uuid.New(),
		Source:   source,
		LoadedAt: l.now(),
		Schema:   l.schema,
		frame:    df,
	}
	log.Printf("[DatasetLoader] Loaded %s: %d rows, %d columns (dropped %v) id=%s",
		source, ds.Len(), len(ds.Columns()), drop, ds.ID)
	return ds, nil
}

// deriveFlags maps each label through attrition.LabelFlags. Row numbers in
// errors are 1-based file lines, counting the header.
func (l *Loader) deriveFlags(labels series.Series) ([]int, error) {
	flags := make([]int, labels.Len())
	for i := 0; i < labels.Len(); i++ {
		elem := labels.Elem(i)
		if elem.IsNA() {
			return nil, fmt.Errorf("row %d: %s is empty", i+2, l.schema.LabelColumn)
		}
		value := strings.TrimSpace(elem.String())
		flag, ok := attrition.LabelFlags[value]
		if !ok {
			return nil, fmt.Errorf("row %d: %s has unexpected value %q (expected Yes or No)", i+2, l.schema.LabelColumn, value)
		}
		flags[i] = flag
	}
	return flags, nil
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
