package spreadsheet

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
)

// Row is one data line of an uploaded sheet. Cells are keyed by the raw
// header text; values are string, float64 or time.Time.
type Row struct {
	Line     int
	Cells    map[string]any
	Date1904 bool
}

type SKUError string

const (
	SKUValid             SKUError = ""
	SKUEmpty             SKUError = "empty"
	SKUZero              SKUError = "zero"
	SKUInvalidCharacters SKUError = "invalid-characters"
	SKUTooShort          SKUError = "too-short"
	SKUTooLong           SKUError = "too-long"
)

const (
	skuMinLen  = 3
	skuMaxLen  = 30
	dateLayout = "02/01/06"
)

// NormalizedRecord is a row reduced to the three fields the reconciler uses.
// Date is DD/MM/YY, empty, or the unrecognized source text.
type NormalizedRecord struct {
	Line     int
	SKU      string
	Price    string
	Date     string
	SKUError SKUError
}

// FieldAliases lists the accepted header spellings for each logical field,
// in priority order.
type FieldAliases struct {
	SKU   []string
	Price []string
	Date  []string
}

func DefaultAliases() FieldAliases {
	return FieldAliases{
		SKU:   []string{"cod.int", "cod int", "cod_int", "cod. int", "codigo interno", "sku", "codigo"},
		Price: []string{"precio", "price", "precio nuevo", "precio_nuevo"},
		Date:  []string{"fecha", "date", "fecha vencimiento"},
	}
}

// Override replaces the lists that are non-empty.
func (a FieldAliases) Override(sku, price, date []string) FieldAliases {
	if len(sku) > 0 {
		a.SKU = sku
	}
	if len(price) > 0 {
		a.Price = price
	}
	if len(date) > 0 {
		a.Date = date
	}
	return a
}

var (
	skuPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

	plainInteger   = regexp.MustCompile(`^\d+$`)
	dotDecimal     = regexp.MustCompile(`^\d+\.\d+$`)
	commaDecimal   = regexp.MustCompile(`^\d+,\d+$`)
	groupedDecimal = regexp.MustCompile(`^\d{1,3}(\.\d{3})+,\d+$`)

	textDate      = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{2}|\d{4})$`)
	canonicalDate = regexp.MustCompile(`^\d{2}/\d{2}/\d{2}$`)
	serialText    = regexp.MustCompile(`^\d{1,7}(\.\d+)?$`)

	spaces = regexp.MustCompile(`\s+`)
)

// Normalize resolves the aliased columns of row once and converts them.
func Normalize(row Row, aliases FieldAliases) NormalizedRecord {
	cells := make(map[string]any, len(row.Cells))
	for k, v := range row.Cells {
		key := HeaderKey(k)
		if _, dup := cells[key]; !dup {
			cells[key] = v
		}
	}

	rec := NormalizedRecord{Line: row.Line}

	rec.SKU = strings.TrimSpace(cellText(lookup(cells, aliases.SKU)))
	rec.SKUError = ValidateSKU(rec.SKU)

	rec.Price, _ = ParsePrice(lookup(cells, aliases.Price))
	rec.Date = FormatDate(lookup(cells, aliases.Date), row.Date1904)

	return rec
}

// HeaderKey folds a header for comparison: lower case, no diacritics,
// single inner spaces.
func HeaderKey(s string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(strings.ToLower(s)) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return spaces.ReplaceAllString(strings.TrimSpace(b.String()), " ")
}

func lookup(cells map[string]any, names []string) any {
	for _, name := range names {
		v, ok := cells[HeaderKey(name)]
		if !ok || v == nil {
			continue
		}
		if s, isText := v.(string); isText && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}

func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}

// ValidateSKU runs before any remote call; a non-empty result keeps the row
// away from the matcher.
func ValidateSKU(sku string) SKUError {
	sku = strings.TrimSpace(sku)
	switch {
	case sku == "":
		return SKUEmpty
	case sku == "0":
		return SKUZero
	case !skuPattern.MatchString(sku):
		return SKUInvalidCharacters
	case len(sku) < skuMinLen:
		return SKUTooShort
	case len(sku) > skuMaxLen:
		return SKUTooLong
	}
	return SKUValid
}

// ParsePrice accepts 999, 65.89, 65,89 and 1.234,56 (or a numeric cell) and
// returns a plain decimal string. Anything else is rejected, never guessed.
func ParsePrice(v any) (string, bool) {
	switch t := v.(type) {
	case float64:
		if t < 0 {
			return "", false
		}
		return decimal.NewFromFloat(t).String(), true
	case int:
		if t < 0 {
			return "", false
		}
		return strconv.Itoa(t), true
	case string:
		return parsePriceText(strings.TrimSpace(t))
	}
	return "", false
}

func parsePriceText(s string) (string, bool) {
	var canonical string
	switch {
	case plainInteger.MatchString(s), dotDecimal.MatchString(s):
		canonical = s
	case commaDecimal.MatchString(s):
		canonical = strings.Replace(s, ",", ".", 1)
	case groupedDecimal.MatchString(s):
		canonical = strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
	default:
		return "", false
	}

	d, err := decimal.NewFromString(canonical)
	if err != nil {
		return "", false
	}
	return d.String(), true
}

// FormatDate renders a date cell as DD/MM/YY. Serial numbers are converted
// in UTC so the calendar day never shifts; text that is not a D/M/Y date is
// returned unchanged.
func FormatDate(v any, date1904 bool) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Format(dateLayout)
	case float64:
		return serialDate(t, date1904)
	case int:
		return serialDate(float64(t), date1904)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return ""
		}
		if serialText.MatchString(s) {
			f, err := strconv.ParseFloat(s, 64)
			if err == nil {
				if out := serialDate(f, date1904); out != "" {
					return out
				}
			}
			return s
		}
		if out, ok := textToDate(s); ok {
			return out
		}
		return s
	}
	return ""
}

// IsCanonicalDate reports whether s is already in DD/MM/YY form.
func IsCanonicalDate(s string) bool {
	if !canonicalDate.MatchString(s) {
		return false
	}
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

func serialDate(serial float64, date1904 bool) string {
	if serial < 1 {
		return ""
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return ""
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Format(dateLayout)
}

func textToDate(s string) (string, bool) {
	m := textDate.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		year += 2000
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return "", false
	}
	return t.Format(dateLayout), true
}
