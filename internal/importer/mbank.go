package importer

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-ledger/tally/internal/model"
)

// MBankParser parses mBank account history exports. The export opens with
// free-text lines before the semicolon-separated header row.
type MBankParser struct{}

const (
	mbankDateFormat = "2006-01-02"
	mbankColDate    = "#Data operacji"
	mbankColDesc    = "#Opis operacji"
	mbankColAccount = "#Rachunek"
	mbankColCat     = "#Kategoria"
	mbankColAmount  = "#Kwota"
)

var (
	mbankHeaders = []string{mbankColDate, mbankColDesc, mbankColAccount, mbankColCat, mbankColAmount}

	// Trailing currency code, e.g. the PLN in "-7,57 PLN".
	mbankCurrencySuffix = regexp.MustCompile(`\s*([A-Z]{3})\s*$`)
)

// Format returns the parser name.
func (p *MBankParser) Format() string { return "mbank" }

// Parse skips the preamble, then reads rows in file order.
func (p *MBankParser) Parse(r io.Reader) ([]model.BankTransaction, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, fmt.Errorf("reading mbank CSV: %w", err)
	}

	start := -1
	for i, line := range lines {
		if isMBankHeader(line) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("reading mbank CSV: header row with %s not found", mbankColDate)
	}

	cr := newMBankReader(strings.NewReader(strings.Join(lines[start:], "\n")))
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading mbank header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{mbankColDate, mbankColDesc, mbankColAmount} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("reading mbank header: missing column %s", required)
		}
	}

	refs := newReferencer("mbank", "https://www.mbank.pl/history")
	var txns []model.BankTransaction
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading mbank CSV: %w", err)
		}
		line, _ := cr.FieldPos(0)
		line += start
		if blankRecord(rec) {
			continue
		}

		txn, err := parseMBankRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		txn.Reference = refs.next(txn)
		txns = append(txns, txn)
	}
	return txns, nil
}

func newMBankReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	return cr
}

// isMBankHeader reports whether line names at least two known columns.
func isMBankHeader(line string) bool {
	rec, err := newMBankReader(strings.NewReader(line)).Read()
	if err != nil {
		return false
	}
	matches := 0
	for _, cell := range rec {
		cell = strings.TrimSpace(cell)
		for _, h := range mbankHeaders {
			if strings.HasPrefix(cell, h) {
				matches++
				break
			}
		}
	}
	return matches >= 2
}

func parseMBankRow(rec []string, cols map[string]int) (model.BankTransaction, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	rawDate := field(mbankColDate)
	date, err := time.Parse(mbankDateFormat, rawDate)
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("parsing date %q: %w", rawDate, err)
	}

	amount, currency, err := parseMBankAmount(field(mbankColAmount))
	if err != nil {
		return model.BankTransaction{}, err
	}

	return model.BankTransaction{
		Date:        date,
		Description: strings.Join(strings.Fields(field(mbankColDesc)), " "),
		Amount:      amount,
		Currency:    currency,
		Type:        field(mbankColCat),
	}, nil
}

// parseMBankAmount reads amounts like "-1 250,00 PLN": space or no-break
// space grouping, decimal comma, optional trailing currency code.
func parseMBankAmount(raw string) (decimal.Decimal, string, error) {
	s := strings.TrimSpace(raw)
	var currency string
	if m := mbankCurrencySuffix.FindStringSubmatch(s); m != nil {
		currency = m[1]
		s = s[:len(s)-len(m[0])]
	}
	s = strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(s)

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, "", fmt.Errorf("parsing amount %q: %w", raw, err)
	}
	return amount, currency, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	return lines, sc.Err()
}

func blankRecord(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
