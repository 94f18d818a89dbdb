package parsers

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	sharedtypes "github.com/Pale-Moon-Guild/grind-bot/app/shared/types"
)

// ErrWorkbookNotFound indicates no workbook in the folder matched the query.
var ErrWorkbookNotFound = errors.New("workbook not found")

// GridFile is a workbook reduced to the raw cell grid of its first sheet.
// Rows are ragged: trailing empty cells are absent, matching what excelize
// returns from GetRows.
type GridFile struct {
	GameName sharedtypes.GameName
	Rows     [][]string
}

// XLSXParser reads workbooks into raw cell grids.
type XLSXParser struct{}

// NewXLSXParser creates a new XLSX parser
func NewXLSXParser() *XLSXParser {
	return &XLSXParser{}
}

// Parse reads XLSX data and returns the first sheet as a grid. The caller
// supplies the game name, usually derived from the file name.
func (p *XLSXParser) Parse(gameName sharedtypes.GameName, data []byte) (*GridFile, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("XLSX file has no sheets")
	}

	// Use the first sheet
	sheetName := sheets[0]
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}

	return &GridFile{GameName: gameName, Rows: rows}, nil
}

// ParseFile reads a workbook from disk. The game name is the file's base
// name without its extension.
func (p *XLSXParser) ParseFile(path string) (*GridFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	return p.Parse(GameNameFromPath(path), data)
}

// GameNameFromPath derives the game name from a workbook path.
func GameNameFromPath(path string) sharedtypes.GameName {
	base := filepath.Base(path)
	return sharedtypes.GameName(strings.TrimSuffix(base, filepath.Ext(base)))
}

// FindWorkbook locates a workbook for the given name inside dir. Match order:
// exact file name, then name with a ".xlsx" extension added, then the first
// file whose name contains the query as a substring. Office lock files
// ("~$...") are never considered.
func FindWorkbook(dir, name string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to list %q: %w", dir, err)
	}

	candidates := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "~$") {
			continue
		}
		candidates = append(candidates, entry.Name())
	}

	for _, fn := range candidates {
		if fn == name {
			return filepath.Join(dir, fn), nil
		}
	}
	withExt := name + ".xlsx"
	for _, fn := range candidates {
		if fn == withExt {
			return filepath.Join(dir, fn), nil
		}
	}
	for _, fn := range candidates {
		if strings.Contains(fn, name) {
			return filepath.Join(dir, fn), nil
		}
	}

	return "", fmt.Errorf("no workbook matching %q in %q: %w", name, dir, ErrWorkbookNotFound)
}

// ListWorkbooks returns the sorted names of the importable workbooks in dir.
// A missing folder lists as empty rather than erroring; nothing has been
// imported yet in that case.
func ListWorkbooks(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %q: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "~$") {
			continue
		}
		if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
