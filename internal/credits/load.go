package credits

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"omnigrade/internal"
	"omnigrade/internal/util"
)

var ErrNoCreditsColumn = errors.New("no credits column")

var (
	codeHeaders    = []string{"class code", "code", "class_code", "course code", "ministerial code"}
	nameHeaders    = []string{"course name", "name", "course", "title"}
	creditsHeaders = []string{"credits", "credit", "cr"}
)

// LoadPaths reads every existing file among paths. Missing files are skipped;
// a file that exists but cannot be read is an error.
func LoadPaths(paths []string) ([]internal.CreditMapping, []string, error) {
	var out []internal.CreditMapping
	var used []string
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, nil, err
		}
		mappings, err := LoadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, mappings...)
		used = append(used, path)
	}
	return out, used, nil
}

func LoadFile(path string) ([]internal.CreditMapping, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	origin := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ParseXLSX(content, origin)
	default:
		return ParseCSV(bytes.NewReader(content), origin)
	}
}

func ParseCSV(r io.Reader, origin string) ([]internal.CreditMapping, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return mappingsFromRows(rows, origin)
}

func ParseXLSX(content []byte, origin string) ([]internal.CreditMapping, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []internal.CreditMapping
	found := false
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		mappings, err := mappingsFromRows(rows, origin+"#"+sheet)
		if errors.Is(err, ErrNoCreditsColumn) {
			continue
		}
		if err != nil {
			return nil, err
		}
		found = true
		out = append(out, mappings...)
	}
	if !found {
		return nil, ErrNoCreditsColumn
	}
	return out, nil
}

// mappingsFromRows finds the header row among the first rows, then keeps
// every row with a positive credit value and a code or a name.
func mappingsFromRows(rows [][]string, origin string) ([]internal.CreditMapping, error) {
	headerAt, codeIdx, nameIdx, creditsIdx := -1, -1, -1, -1
	for i := 0; i < len(rows) && i < 5; i++ {
		headers := normalizeHeaders(rows[i])
		creditsIdx = findHeader(headers, creditsHeaders)
		if creditsIdx >= 0 {
			headerAt = i
			codeIdx = findHeader(headers, codeHeaders)
			nameIdx = findHeader(headers, nameHeaders)
			break
		}
	}
	if headerAt < 0 || (codeIdx < 0 && nameIdx < 0) {
		return nil, ErrNoCreditsColumn
	}

	out := []internal.CreditMapping{}
	for _, row := range rows[headerAt+1:] {
		credits := util.ParseNumber(cell(row, creditsIdx))
		if credits == nil || *credits <= 0 {
			continue
		}
		code := util.NormalizeCode(cell(row, codeIdx))
		name := util.NormalizeSpaces(cell(row, nameIdx))
		if code == "" && name == "" {
			continue
		}
		out = append(out, internal.CreditMapping{
			ClassCode: code,
			Name:      name,
			NameKey:   NameKey(name),
			Credits:   *credits,
			Origin:    origin,
		})
	}
	return out, nil
}

func normalizeHeaders(row []string) []string {
	out := make([]string, 0, len(row))
	for _, h := range row {
		out = append(out, strings.ToLower(util.NormalizeSpaces(strings.TrimPrefix(h, "\ufeff"))))
	}
	return out
}

// findHeader matches exact header names, in alias order.
func findHeader(headers []string, aliases []string) int {
	for _, alias := range aliases {
		for i, h := range headers {
			if h == alias {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}
