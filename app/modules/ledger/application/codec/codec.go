package codec

import (
	"fmt"
	"strconv"
	"strings"

	sharedtypes "github.com/Pale-Moon-Guild/grind-bot/app/shared/types"
)

// Spreadsheet cells use "date_count" for records and "name(cycle)" for
// identities. Decoding is deliberately forgiving: anything that doesn't parse
// is a skip, not an error, so one dirty cell never poisons a bulk import.

// recordSeparator splits the date from the count inside a record cell.
const recordSeparator = "_"

// IsSkipSentinel reports whether a cell is one of the recognized "nothing
// here" markers rather than malformed data.
func IsSkipSentinel(cell string) bool {
	s := strings.TrimSpace(cell)
	return s == "" || s == "无" || s == "NaN"
}

// DecodeRecordCell decodes a "date_count" cell. The count may carry a
// trailing annotation (a parenthetical like "(续)", a "完" marker, or any
// other non-digit suffix) which is stripped before parsing. ok is false for
// empty cells, the "无"/"NaN" sentinels, cells without a separator, and
// counts that remain unparseable after stripping.
func DecodeRecordCell(cell string) (date sharedtypes.RecordDate, count sharedtypes.Count, ok bool) {
	s := strings.TrimSpace(cell)
	if IsSkipSentinel(s) {
		return "", 0, false
	}

	datePart, countPart, found := strings.Cut(s, recordSeparator)
	if !found {
		return "", 0, false
	}

	if i := strings.Index(countPart, "("); i >= 0 {
		countPart = countPart[:i]
	}
	if i := strings.Index(countPart, "完"); i >= 0 {
		countPart = countPart[:i]
	}
	countPart = strings.TrimSpace(countPart)

	// Keep only the leading digit run; "30次" decodes as 30.
	end := 0
	for end < len(countPart) && countPart[end] >= '0' && countPart[end] <= '9' {
		end++
	}
	countPart = countPart[:end]
	if countPart == "" {
		return "", 0, false
	}

	n, err := strconv.Atoi(countPart)
	if err != nil {
		return "", 0, false
	}

	return sharedtypes.RecordDate(datePart), sharedtypes.Count(n), true
}

// EncodeRecordCell is the inverse of DecodeRecordCell, without any suffix.
func EncodeRecordCell(date sharedtypes.RecordDate, count sharedtypes.Count) string {
	return fmt.Sprintf("%s%s%d", date, recordSeparator, count)
}

// DecodeIdentityCell decodes the first cell of a row. "name(2)" yields
// ("name", 2); anything without a well-formed trailing parenthetical is the
// whole cell with cycle 1.
func DecodeIdentityCell(cell string) (sharedtypes.Username, sharedtypes.CycleNumber) {
	s := strings.TrimSpace(cell)
	if !strings.HasSuffix(s, ")") {
		return sharedtypes.Username(s), 1
	}

	open := strings.LastIndex(s, "(")
	if open <= 0 {
		return sharedtypes.Username(s), 1
	}

	digits := s[open+1 : len(s)-1]
	cycle, err := parseCycleDigits(digits)
	if err != nil {
		return sharedtypes.Username(s), 1
	}

	return sharedtypes.Username(s[:open]), cycle
}

// EncodeIdentityCell renders a user-cycle identity; cycle 1 is implicit.
func EncodeIdentityCell(username sharedtypes.Username, cycle sharedtypes.CycleNumber) string {
	if cycle == 1 {
		return string(username)
	}
	return fmt.Sprintf("%s(%d)", username, cycle)
}

func parseCycleDigits(s string) (sharedtypes.CycleNumber, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return sharedtypes.CycleNumber(n), nil
}
