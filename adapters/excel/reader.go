package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DataReader handles reading Excel and CSV files into raw string records
type DataReader struct {
	filePath  string
	fileType  string // "xlsx" or "csv"
	sheetName string
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "csv"
	if ext == ".xlsx" || ext == ".xlsm" {
		fileType = "xlsx"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// WithSheet selects the worksheet read from XLSX files; empty means the first sheet.
func (r *DataReader) WithSheet(sheetName string) *DataReader {
	r.sheetName = sheetName
	return r
}

// FileType returns "csv" or "xlsx".
func (r *DataReader) FileType() string {
	return r.fileType
}

// ReadRecords returns the header row followed by every data row. Each data
// row has exactly as many cells as the header.
func (r *DataReader) ReadRecords() ([][]string, error) {
	log.Printf("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", r.filePath, err)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

// readCSVData reads UTF-8 CSV data, dropping a leading byte order mark
func (r *DataReader) readCSVData() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	readStart := time.Now()
	rows, err := ReadCSV(file)
	if err != nil {
		return nil, err
	}
	log.Printf("[DataReader] CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	return normalizeRows(rows)
}

// ReadCSV parses CSV from any reader. Rows whose field count differs from
// the header are rejected.
func ReadCSV(src io.Reader) ([][]string, error) {
	decoded := transform.NewReader(src, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// readExcelData reads the configured sheet (or the first one)
func (r *DataReader) readExcelData() ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()
	log.Printf("[DataReader] Excel file opened in %.2fms", float64(time.Since(startTime).Nanoseconds())/1e6)

	sheet := r.sheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("Excel file has no worksheets")
		}
		sheet = sheets[0]
	}

	readStart := time.Now()
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	log.Printf("[DataReader] %s read in %.2fms (%d rows)", sheet, float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	// GetRows trims trailing empty cells, so short rows are padded rather than rejected.
	if len(rows) > 0 {
		width := len(rows[0])
		for i := 1; i < len(rows); i++ {
			if len(rows[i]) < width {
				padded := make([]string, width)
				copy(padded, rows[i])
				rows[i] = padded
			} else if len(rows[i]) > width {
				return nil, fmt.Errorf("sheet %s row %d has %d cells, header has %d", sheet, i+1, len(rows[i]), width)
			}
		}
	}

	return normalizeRows(rows)
}

// normalizeRows trims header names, names blank headers positionally and
// drops fully blank trailing rows
func normalizeRows(rows [][]string) ([][]string, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("file has no header row")
	}

	header := rows[0]
	for i, name := range header {
		header[i] = strings.TrimSpace(name)
		if header[i] == "" {
			header[i] = fmt.Sprintf("Unnamed: %d", i)
		}
	}

	end := len(rows)
	for end > 1 && isBlankRow(rows[end-1]) {
		end--
	}
	return rows[:end], nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
