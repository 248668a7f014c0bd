package instrument

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Letters are the futures month codes, January first.
var Letters = []string{"F", "G", "H", "J", "K", "M", "N", "Q", "U", "V", "X", "Z"}

var monthNames = []string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"}

// Maturity is a contract month: a month letter and a two-digit year.
type Maturity struct {
	Letter string
	Year   int
}

func LetterIndex(letter string) int {
	for i, l := range Letters {
		if l == letter {
			return i
		}
	}

	return -1
}

// ParseMaturity reads the long form, e.g. H17.
func ParseMaturity(s string) (Maturity, error) {
	if len(s) != 3 {
		return Maturity{}, fmt.Errorf("ParseMaturity: %q: expected letter and two digit year: %w", s, ErrFormat)
	}

	letter := s[:1]
	if LetterIndex(letter) < 0 {
		return Maturity{}, fmt.Errorf("ParseMaturity: %q: unknown month letter: %w", s, ErrFormat)
	}

	year, err := parseDigits(s[1:])
	if err != nil {
		return Maturity{}, fmt.Errorf("ParseMaturity: %q: %w", s, err)
	}

	return Maturity{Letter: letter, Year: year}, nil
}

func (m Maturity) String() string {
	return fmt.Sprintf("%s%02d", m.Letter, m.Year)
}

// Short returns the one-digit-year form, e.g. H7.
func (m Maturity) Short() string {
	return fmt.Sprintf("%s%d", m.Letter, m.Year%10)
}

// CMED is the CME Direct form, e.g. Mar17.
func (m Maturity) CMED() string {
	return fmt.Sprintf("%s%d", monthNames[m.Month()-1][:3], m.Year)
}

// Month is 1 for F through 12 for Z.
func (m Maturity) Month() int {
	return LetterIndex(m.Letter) + 1
}

// FullYear infers the century: two-digit years below 50 are 2000s.
func (m Maturity) FullYear() int {
	if m.Year < 50 {
		return 2000 + m.Year
	}

	return 1900 + m.Year
}

// Key returns yyyymm, or yyyymm00 when zeros is set.
func (m Maturity) Key(zeros bool) int {
	key := m.FullYear()*100 + m.Month()
	if zeros {
		key *= 100
	}

	return key
}

// Next steps months forward (or backward when negative) in letter space.
func (m Maturity) Next(months int) Maturity {
	idx := LetterIndex(m.Letter) + months
	carry := floorDiv(idx, 12)
	idx -= carry * 12

	return Maturity{
		Letter: Letters[idx],
		Year:   ((m.Year+carry)%100 + 100) % 100,
	}
}

// MaturityFromKey accepts yyyymm or yyyymm00 keys.
func MaturityFromKey(key int) (Maturity, error) {
	s := strconv.Itoa(key)
	if len(s) != 6 && len(s) != 8 {
		return Maturity{}, fmt.Errorf("MaturityFromKey: %d: expected yyyymm or yyyymm00: %w", key, ErrFormat)
	}

	year, _ := strconv.Atoi(s[2:4])
	month, _ := strconv.Atoi(s[4:6])
	if month < 1 || month > 12 {
		return Maturity{}, fmt.Errorf("MaturityFromKey: %d: month %d out of range: %w", key, month, ErrFormat)
	}

	return Maturity{Letter: Letters[month-1], Year: year}, nil
}

// NextMaturity steps a long-form maturity by months. With short set the
// output keeps only the last digit of the year.
func NextMaturity(mat string, months int, short bool) (string, error) {
	m, err := ParseMaturity(mat)
	if err != nil {
		return "", fmt.Errorf("NextMaturity: %w", err)
	}

	next := m.Next(months)
	if short {
		return next.Short(), nil
	}

	return next.String(), nil
}

// PreviousMonth returns the yyyymm month before the maturity, always in the
// 2000s.
func PreviousMonth(mat string) (int, error) {
	m, err := ParseMaturity(mat)
	if err != nil {
		return 0, fmt.Errorf("PreviousMonth: %w", err)
	}

	idx := LetterIndex(m.Letter)
	year := m.Year
	if idx <= 0 {
		year--
		idx += 12
	}

	return (2000+year)*100 + idx, nil
}

// MonthsBetween counts months from k1 to k2. Both keys may be yyyymm or
// yyyymm00.
func MonthsBetween(k1, k2 int) (int, error) {
	y1, m1, err := splitKey(k1)
	if err != nil {
		return 0, fmt.Errorf("MonthsBetween: %w", err)
	}

	y2, m2, err := splitKey(k2)
	if err != nil {
		return 0, fmt.Errorf("MonthsBetween: %w", err)
	}

	return (y2-y1)*12 + m2 - m1, nil
}

func splitKey(key int) (int, int, error) {
	s := strconv.Itoa(key)
	if len(s) != 6 && len(s) != 8 {
		return 0, 0, fmt.Errorf("%d: expected yyyymm or yyyymm00: %w", key, ErrFormat)
	}

	year, _ := strconv.Atoi(s[:4])
	month, _ := strconv.Atoi(s[4:6])
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("%d: month %d out of range: %w", key, month, ErrFormat)
	}

	return year, month, nil
}

// NormalizeTicker rewrites a one-digit year suffix to two digits relative to
// now: 10+d, plus another 10 when that falls before the current two-digit
// year. Far dated contracts can resolve to the wrong decade.
func NormalizeTicker(ticker string, now time.Time) (string, error) {
	if len(ticker) < 2 {
		return "", fmt.Errorf("NormalizeTicker: %q: too short: %w", ticker, ErrFormat)
	}

	tail := ticker[len(ticker)-2:]
	if isDigits(tail) {
		return ticker, nil
	}

	d := rune(ticker[len(ticker)-1])
	if !unicode.IsDigit(d) {
		return "", fmt.Errorf("NormalizeTicker: %q: missing year: %w", ticker, ErrFormat)
	}

	year := 10 + int(d-'0')
	if year < now.Year()%100 {
		year += 10
	}

	return fmt.Sprintf("%s%d", ticker[:len(ticker)-1], year), nil
}

func CheckTicker(ticker string) (string, error) {
	return NormalizeTicker(ticker, time.Now())
}

// ToShortMaturity turns M24 into M4.
func ToShortMaturity(mat string) (string, error) {
	m, err := ParseMaturity(mat)
	if err != nil {
		return "", fmt.Errorf("ToShortMaturity: %w", err)
	}

	return m.Short(), nil
}

// GenerateMaturities lists n maturities starting at first, step months apart.
// first may be in short or long form and the output keeps the same form.
func GenerateMaturities(first string, step, n int, short bool) ([]string, error) {
	m, err := parseAnyMaturity(first)
	if err != nil {
		return nil, fmt.Errorf("GenerateMaturities: %w", err)
	}

	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if short {
			out = append(out, m.Short())
		} else {
			out = append(out, m.String())
		}
		m = m.Next(step)
	}

	return out, nil
}

// CMEDMaturity renders H17 as Mar17.
func CMEDMaturity(mat string) (string, error) {
	m, err := ParseMaturity(mat)
	if err != nil {
		return "", fmt.Errorf("CMEDMaturity: %w", err)
	}

	return m.CMED(), nil
}

// parseAnyMaturity accepts H7 or H17. Short years are taken as-is (0-9).
func parseAnyMaturity(s string) (Maturity, error) {
	if len(s) == 2 {
		if LetterIndex(s[:1]) < 0 || !isDigits(s[1:]) {
			return Maturity{}, fmt.Errorf("%q: %w", s, ErrFormat)
		}

		return Maturity{Letter: s[:1], Year: int(s[1] - '0')}, nil
	}

	return ParseMaturity(s)
}

func parseDigits(s string) (int, error) {
	if !isDigits(s) {
		return 0, fmt.Errorf("%q is not numeric: %w", s, ErrFormat)
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, ErrFormat)
	}

	return v, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}

	return strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) < 0
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}

	return q
}
