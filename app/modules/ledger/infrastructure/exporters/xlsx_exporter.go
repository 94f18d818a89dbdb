package exporters

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	ledgerservice "github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/application"
	"github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/application/codec"
)

const (
	// defaultSheetName is the sheet title used for single-game exports.
	defaultSheetName = "代肝记录"

	identityFillColor  = "FFFF00"
	completedFillColor = "ADD8E6"

	exportTimestampLayout = "01-02-1504"

	// maxSheetNameLen is the workbook format's hard cap on sheet titles.
	maxSheetNameLen = 31
)

// XLSXExporter renders ledger export projections into styled workbooks.
// Every call writes a fresh timestamped file; existing exports are never
// touched.
type XLSXExporter struct {
	rowHeight    float64
	nameColWidth float64

	now func() time.Time
}

// NewXLSXExporter creates an exporter with the given row height and
// identity-column width.
func NewXLSXExporter(rowHeight, nameColWidth float64) *XLSXExporter {
	return &XLSXExporter{
		rowHeight:    rowHeight,
		nameColWidth: nameColWidth,
		now:          time.Now,
	}
}

// ExportGame writes one game's projection to dir and returns the file path.
func (e *XLSXExporter) ExportGame(data ledgerservice.GameExportData, dir string) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", defaultSheetName); err != nil {
		return "", fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := e.renderSheet(f, defaultSheetName, data); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("%s_export_%s.xlsx", data.GameName, e.now().Format(exportTimestampLayout))
	return e.write(f, dir, filename)
}

// ExportAllGames writes every game's projection into one workbook, one sheet
// per game, and returns the file path.
func (e *XLSXExporter) ExportAllGames(games []ledgerservice.GameExportData, dir string) (string, error) {
	if len(games) == 0 {
		return "", fmt.Errorf("nothing to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	used := make(map[string]bool, len(games))
	for i, game := range games {
		sheet := uniqueSheetName(sanitizeSheetName(string(game.GameName)), used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return "", fmt.Errorf("failed to name sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return "", fmt.Errorf("failed to add sheet %q: %w", sheet, err)
			}
		}
		if err := e.renderSheet(f, sheet, game); err != nil {
			return "", err
		}
	}

	filename := fmt.Sprintf("all_games_export_%s.xlsx", e.now().Format(exportTimestampLayout))
	return e.write(f, dir, filename)
}

// renderSheet lays one game out as one row per user-cycle: the identity cell
// in column A, then each record as a "date_count" cell. The identity cell is
// highlighted; record cells of a completed cycle get the completion tint.
func (e *XLSXExporter) renderSheet(f *excelize.File, sheet string, data ledgerservice.GameExportData) error {
	identityStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{identityFillColor}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to build identity style: %w", err)
	}
	completedStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{completedFillColor}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to build completion style: %w", err)
	}
	recordStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to build record style: %w", err)
	}

	if err := f.SetColWidth(sheet, "A", "A", e.nameColWidth); err != nil {
		return fmt.Errorf("failed to set identity column width: %w", err)
	}

	for rowIdx, uc := range data.UserCycles {
		row := rowIdx + 1

		identityCell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		identity := codec.EncodeIdentityCell(uc.Username, uc.Cycle)
		if err := f.SetCellValue(sheet, identityCell, identity); err != nil {
			return fmt.Errorf("failed to write identity %q: %w", identity, err)
		}
		if err := f.SetCellStyle(sheet, identityCell, identityCell, identityStyle); err != nil {
			return err
		}

		cellStyle := recordStyle
		if uc.Completed {
			cellStyle = completedStyle
		}
		for colIdx, entry := range uc.Records {
			cell, err := excelize.CoordinatesToCellName(colIdx+2, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, codec.EncodeRecordCell(entry.Date, entry.Count)); err != nil {
				return fmt.Errorf("failed to write record cell: %w", err)
			}
			if err := f.SetCellStyle(sheet, cell, cell, cellStyle); err != nil {
				return err
			}
		}

		if err := f.SetRowHeight(sheet, row, e.rowHeight); err != nil {
			return fmt.Errorf("failed to set row height: %w", err)
		}
	}

	return nil
}

func (e *XLSXExporter) write(f *excelize.File, dir, filename string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory %q: %w", dir, err)
	}
	path := filepath.Join(dir, filename)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook %q: %w", path, err)
	}
	return path, nil
}

// sanitizeSheetName maps a game name onto a legal sheet title: the characters
// the workbook format forbids become underscores and the result is capped at
// the 31-character limit.
func sanitizeSheetName(name string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, name)
	if sanitized == "" {
		sanitized = "_"
	}
	if runes := []rune(sanitized); len(runes) > maxSheetNameLen {
		sanitized = string(runes[:maxSheetNameLen])
	}
	return sanitized
}

// uniqueSheetName disambiguates titles that collide after sanitization by
// appending "~2", "~3", ... while staying under the length cap.
func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[candidate]; n++ {
		suffix := fmt.Sprintf("~%d", n)
		runes := []rune(name)
		if len(runes)+len(suffix) > maxSheetNameLen {
			runes = runes[:maxSheetNameLen-len(suffix)]
		}
		candidate = string(runes) + suffix
	}
	used[candidate] = true
	return candidate
}
