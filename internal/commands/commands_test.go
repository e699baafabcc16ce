package commands_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-ledger/tally/internal/accounts"
	"github.com/tally-ledger/tally/internal/commands"
	"github.com/tally-ledger/tally/internal/config"
	"github.com/tally-ledger/tally/internal/model"
)

const chaseFixture = "../../testdata/chase_checking.csv"

func runTally(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := commands.NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), err
}

func initLedger(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := runTally(t, "init", dir, "--name", "Rivera Household")
	require.NoError(t, err)
	return dir
}

func addEntry(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := runTally(t, append([]string{"entry", "add", "--repo", dir}, args...)...)
	require.NoError(t, err)
	return out
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := initLedger(t)

	for _, d := range []string{"accounts", "data", "import", filepath.Join("import", "processed")} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
	_, err := os.Stat(filepath.Join(dir, "import", ".gitkeep"))
	assert.NoError(t, err)
}

func TestInit_Config(t *testing.T) {
	dir := initLedger(t)

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "Rivera Household", cfg.Household.Name)
	assert.Equal(t, "USD", cfg.Household.Currency)
	assert.Equal(t, config.BackendJournal, cfg.Storage.Backend)
	assert.Equal(t, "Food & Dining", cfg.Series.Category)
}

func TestInit_Currency(t *testing.T) {
	dir := t.TempDir()
	out, err := runTally(t, "init", dir, "--name", "Dupont", "--currency", "eur")
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized ledger for Dupont (EUR)")

	chart, err := accounts.Load(dir)
	require.NoError(t, err)
	for _, a := range chart.All() {
		assert.Equal(t, "EUR", a.Currency)
	}
}

func TestInit_Chart(t *testing.T) {
	dir := initLedger(t)

	chart, err := accounts.Load(dir)
	require.NoError(t, err)
	assert.Len(t, chart.All(), 5)
	assert.Len(t, chart.Categories(), 8)
}

func TestInit_Gitignore(t *testing.T) {
	dir := initLedger(t)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	for _, pattern := range []string{"data/", ".env"} {
		assert.Contains(t, string(data), pattern)
	}
}

func TestInit_RequiresName(t *testing.T) {
	_, err := runTally(t, "init", t.TempDir())
	require.Error(t, err, "init without --name should fail")
}

func TestInit_RefusesExistingLedger(t *testing.T) {
	dir := initLedger(t)
	_, err := runTally(t, "init", dir, "--name", "Again")
	assert.ErrorContains(t, err, "already contains tally.yaml")
}

func TestInit_UnknownCurrency(t *testing.T) {
	_, err := runTally(t, "init", t.TempDir(), "--name", "X", "--currency", "ZZZ")
	assert.ErrorContains(t, err, `unknown household currency "ZZZ"`)
}

func TestEntryAdd_Journal(t *testing.T) {
	dir := initLedger(t)

	out := addEntry(t, dir, "--account", "Checking", "--date", "2025-06-14", "--amount", "-42.50",
		"--category", "Groceries", "--description", "Farmers market")
	assert.Equal(t, "Added 2025-06-0001: Checking -42.50 on 2025-06-14\n", out)

	out = addEntry(t, dir, "--account", "Checking", "--date", "2025-06-20", "--amount", "12")
	assert.Contains(t, out, "Added 2025-06-0002")

	data, err := os.ReadFile(filepath.Join(dir, "2025", "06", "journal.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Farmers market")
}

func TestEntryAdd_SQLite(t *testing.T) {
	t.Setenv(config.EnvStorageBackend, config.BackendSQLite)
	dir := initLedger(t)

	out := addEntry(t, dir, "--account", "Credit Card", "--date", "2025-06-14", "--amount", "-18.25")
	assert.Equal(t, "Added 2025-06-0001: Credit Card -18.25 on 2025-06-14\n", out)

	_, err := os.Stat(filepath.Join(dir, "data", "tally.db"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "2025"))
	assert.True(t, os.IsNotExist(err), "sqlite backend writes no journal files")
}

func TestEntryAdd_Errors(t *testing.T) {
	dir := initLedger(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown account", []string{"--account", "Wallet", "--date", "2025-06-14", "--amount", "-1"}, "Wallet"},
		{"unknown category", []string{"--account", "Checking", "--date", "2025-06-14", "--amount", "-1", "--category", "Pets"}, "Pets"},
		{"bad date", []string{"--account", "Checking", "--date", "06/14/2025", "--amount", "-1"}, "parsing date"},
		{"bad amount", []string{"--account", "Checking", "--date", "2025-06-14", "--amount", "ten"}, "parsing amount"},
		{"zero amount", []string{"--account", "Checking", "--date", "2025-06-14", "--amount", "0"}, "non-zero"},
		{"too precise", []string{"--account", "Checking", "--date", "2025-06-14", "--amount", "1.005"}, "precision"},
		{"bad kind", []string{"--account", "Checking", "--date", "2025-06-14", "--amount", "1", "--kind", "gift"}, "kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runTally(t, append([]string{"entry", "add", "--repo", dir}, tt.args...)...)
			assert.ErrorContains(t, err, tt.want)
		})
	}

	_, err := os.Stat(filepath.Join(dir, "2025"))
	assert.True(t, os.IsNotExist(err), "failed adds write nothing")
}

func TestImport_File(t *testing.T) {
	dir := initLedger(t)

	out, err := runTally(t, "import", chaseFixture, "--repo", dir, "--account", "Checking")
	require.NoError(t, err)
	assert.Equal(t, "chase_checking.csv: 6 parsed, 6 imported, 0 skipped\n", out)

	out, err = runTally(t, "import", chaseFixture, "--repo", dir, "--account", "Checking")
	require.NoError(t, err)
	assert.Equal(t, "chase_checking.csv: 6 parsed, 0 imported, 6 skipped\n", out)
}

func TestImport_ScansImportDir(t *testing.T) {
	dir := initLedger(t)

	data, err := os.ReadFile(chaseFixture)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "january.csv"), data, 0o644))

	out, err := runTally(t, "import", "--repo", dir, "--account", "Checking")
	require.NoError(t, err)
	assert.Equal(t, "january.csv: 6 parsed, 6 imported, 0 skipped\n", out)

	_, err = os.Stat(filepath.Join(dir, "import", "processed", "january.csv"))
	assert.NoError(t, err)

	out, err = runTally(t, "import", "--repo", dir, "--account", "Checking")
	require.NoError(t, err)
	assert.Equal(t, "No CSV files waiting in import/\n", out)
}

func TestImport_UnknownFormat(t *testing.T) {
	dir := initLedger(t)
	_, err := runTally(t, "import", chaseFixture, "--repo", dir, "--account", "Checking", "--format", "ofx")
	assert.ErrorContains(t, err, `unknown import format "ofx"`)
}

type jsonSeries struct {
	StartDate          string `json:"start_date"`
	EndDate            string `json:"end_date"`
	FavorableDirection string `json:"favorable_direction"`
	Currency           string `json:"currency"`
	Values             []struct {
		Date  string `json:"date"`
		Value struct {
			Amount string `json:"amount"`
		} `json:"value"`
		Trend struct {
			Direction string `json:"direction"`
			Change    string `json:"change"`
		} `json:"trend"`
	} `json:"values"`
}

func seedGroceries(t *testing.T, dir string) {
	t.Helper()
	addEntry(t, dir, "--account", "Credit Card", "--date", "2025-01-10", "--amount", "-100.00", "--category", "Groceries")
	addEntry(t, dir, "--account", "Credit Card", "--date", "2025-02-05", "--amount", "-50.00", "--category", "Groceries")
	addEntry(t, dir, "--account", "Credit Card", "--date", "2025-03-20", "--amount", "-25.00", "--category", "Groceries")
	addEntry(t, dir, "--account", "Credit Card", "--date", "2025-03-21", "--amount", "-60.00", "--category", "Restaurants")
}

func TestSeries_JSON(t *testing.T) {
	dir := initLedger(t)
	seedGroceries(t, dir)

	out, err := runTally(t, "series", "--repo", dir, "--accounts", "Credit Card", "--categories", "Groceries",
		"--start", "2025-01-01", "--end", "2025-03-31", "--direction", "down", "--json")
	require.NoError(t, err)

	var got jsonSeries
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "2025-01-01", got.StartDate)
	assert.Equal(t, "2025-03-31", got.EndDate)
	assert.Equal(t, "down", got.FavorableDirection)
	assert.Equal(t, "USD", got.Currency)

	require.Len(t, got.Values, 3)
	assert.Equal(t, "2025-01-31", got.Values[0].Date)
	assert.Equal(t, "2025-03-31", got.Values[2].Date)
	assert.Equal(t, "100.00", got.Values[0].Value.Amount)
	assert.Equal(t, "50.00", got.Values[1].Value.Amount)
	assert.Equal(t, "25.00", got.Values[2].Value.Amount)
	assert.Equal(t, "down", got.Values[1].Trend.Direction)
	assert.Equal(t, "favorable", got.Values[1].Trend.Change)
}

func TestSeries_AnyCategory(t *testing.T) {
	dir := initLedger(t)
	seedGroceries(t, dir)

	out, err := runTally(t, "series", "--repo", dir, "--accounts", "Credit Card", "--any-category",
		"--start", "2025-03-01", "--end", "2025-03-31", "--direction", "down", "--json")
	require.NoError(t, err)

	var got jsonSeries
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Values, 1)
	assert.Equal(t, "85.00", got.Values[0].Value.Amount)
}

func TestSeries_ByCategory(t *testing.T) {
	dir := initLedger(t)
	seedGroceries(t, dir)

	out, err := runTally(t, "series", "--repo", dir, "--accounts", "Credit Card",
		"--categories", "Groceries,Restaurants", "--by-category",
		"--start", "2025-03-01", "--end", "2025-03-31", "--direction", "down", "--json")
	require.NoError(t, err)

	var got []struct {
		CategoryName string     `json:"category_name"`
		Series       jsonSeries `json:"series"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)

	amounts := map[string]string{}
	for _, c := range got {
		require.Len(t, c.Series.Values, 1)
		amounts[c.CategoryName] = c.Series.Values[0].Value.Amount
	}
	assert.Equal(t, map[string]string{"Groceries": "25.00", "Restaurants": "60.00"}, amounts)
}

func TestSeries_Text(t *testing.T) {
	dir := initLedger(t)
	seedGroceries(t, dir)

	out, err := runTally(t, "series", "--repo", dir, "--accounts", "Credit Card", "--categories", "Groceries",
		"--start", "2025-01-01", "--end", "2025-03-31")
	require.NoError(t, err)

	assert.Contains(t, out, "Groceries\n2025-01-01 to 2025-03-31, every 1 month, down is favorable")
	assert.Contains(t, out, "MOVING AVG")
	assert.Contains(t, out, "January 31, 2025")
	assert.Contains(t, out, "$100.00")
	assert.Contains(t, out, "down 50.0% (+)")
}

func TestSeries_Errors(t *testing.T) {
	dir := initLedger(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no categories", []string{}, "--any-category"},
		{"unknown period", []string{"--any-category", "--period", "last_decade"}, "unknown period key"},
		{"half custom period", []string{"--any-category", "--start", "2025-01-01"}, "--start and --end"},
		{"reversed period", []string{"--any-category", "--start", "2025-03-01", "--end", "2025-01-01"}, "period end is before start"},
		{"weekly interval", []string{"--any-category", "--interval", "1 week"}, "unsupported interval"},
		{"bad direction", []string{"--any-category", "--direction", "sideways"}, `invalid favorable direction: unknown direction "sideways"`},
		{"unknown currency", []string{"--any-category", "--currency", "ZZZ"}, "unknown currency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runTally(t, append([]string{"series", "--repo", dir}, tt.args...)...)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

// addEuroAccount adds a visible EUR account to the ledger's chart.
func addEuroAccount(t *testing.T, dir string) {
	t.Helper()
	chart, err := accounts.Load(dir)
	require.NoError(t, err)
	euro := model.Account{
		ID:             accounts.StableID("account", "Euro Checking"),
		Name:           "Euro Checking",
		Classification: model.ClassificationAsset,
		Subtype:        "depository",
		Currency:       "EUR",
		Visible:        true,
	}
	require.NoError(t, accounts.NewService(append(chart.All(), euro), chart.Categories()).Save(dir))
}

func TestSeries_OnlySumsOneCurrency(t *testing.T) {
	dir := initLedger(t)
	addEuroAccount(t, dir)
	addEntry(t, dir, "--account", "Checking", "--date", "2025-06-03", "--amount", "-120.00", "--category", "Groceries")
	addEntry(t, dir, "--account", "Euro Checking", "--date", "2025-06-10", "--amount", "-1000.00", "--category", "Groceries")

	out, err := runTally(t, "series", "--repo", dir, "--categories", "Groceries",
		"--start", "2025-06-01", "--end", "2025-06-30", "--direction", "down", "--json")
	require.NoError(t, err)
	var got jsonSeries
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Values, 1)
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, "120.00", got.Values[0].Value.Amount)

	out, err = runTally(t, "series", "--repo", dir, "--categories", "Groceries", "--currency", "eur",
		"--start", "2025-06-01", "--end", "2025-06-30", "--direction", "down", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "EUR", got.Currency)
	assert.Equal(t, "1000.00", got.Values[0].Value.Amount)

	_, err = runTally(t, "series", "--repo", dir, "--accounts", "Checking,Euro Checking", "--categories", "Groceries",
		"--start", "2025-06-01", "--end", "2025-06-30")
	assert.ErrorContains(t, err, `account "Euro Checking" is in EUR, not USD`)

	_, err = runTally(t, "series", "--repo", dir, "--any-category", "--currency", "GBP",
		"--start", "2025-06-01", "--end", "2025-06-30")
	assert.ErrorContains(t, err, "no visible accounts in GBP")
}

func TestCategorised_SkipsOtherCurrencies(t *testing.T) {
	dir := initLedger(t)
	addEuroAccount(t, dir)
	addEntry(t, dir, "--account", "Checking", "--date", "2025-07-03", "--amount", "-30.00", "--category", "Food & Dining")
	addEntry(t, dir, "--account", "Euro Checking", "--date", "2025-07-04", "--amount", "-500.00", "--category", "Food & Dining")

	out, err := runTally(t, "categorised", "--repo", dir, "--start", "2025-07-01", "--end", "2025-07-31", "--json")
	require.NoError(t, err)
	var got struct {
		Series jsonSeries `json:"series"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Series.Values, 1)
	assert.Equal(t, "30.00", got.Series.Values[0].Value.Amount)
}

func TestImport_MBank(t *testing.T) {
	dir := t.TempDir()
	_, err := runTally(t, "init", dir, "--name", "Kowalscy", "--currency", "PLN")
	require.NoError(t, err)

	out, err := runTally(t, "import", "../../testdata/mbank_history.csv", "--repo", dir, "--account", "Checking", "--format", "mbank")
	require.NoError(t, err)
	assert.Equal(t, "mbank_history.csv: 4 parsed, 4 imported, 0 skipped\n", out)
}

func TestCategorised_DefaultCategory(t *testing.T) {
	dir := initLedger(t)
	addEntry(t, dir, "--account", "Checking", "--date", "2025-07-03", "--amount", "-30.00", "--category", "Food & Dining")
	addEntry(t, dir, "--account", "Credit Card", "--date", "2025-07-09", "--amount", "-12.40", "--category", "Food & Dining")
	addEntry(t, dir, "--account", "Checking", "--date", "2025-07-10", "--amount", "-1500.00", "--category", "Housing")

	out, err := runTally(t, "categorised", "--repo", dir, "--start", "2025-06-01", "--end", "2025-07-31", "--json")
	require.NoError(t, err)

	var got struct {
		CategoryID   string     `json:"category_id"`
		CategoryName string     `json:"category_name"`
		Series       jsonSeries `json:"series"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, accounts.StableID("category", "Food & Dining").String(), got.CategoryID)
	assert.Equal(t, "Food & Dining", got.CategoryName)
	assert.Equal(t, "down", got.Series.FavorableDirection)
	require.Len(t, got.Series.Values, 2)
	assert.Equal(t, "0.00", got.Series.Values[0].Value.Amount)
	assert.Equal(t, "42.40", got.Series.Values[1].Value.Amount)
}

func TestCategorised_Text(t *testing.T) {
	dir := initLedger(t)
	addEntry(t, dir, "--account", "Checking", "--date", "2025-07-10", "--amount", "-1500.00", "--category", "Housing")

	out, err := runTally(t, "categorised", "--repo", dir, "--category", "Housing", "--start", "2025-07-01", "--end", "2025-07-31")
	require.NoError(t, err)
	assert.Contains(t, out, "Housing spending")
	assert.Contains(t, out, "$1,500.00")
}

func TestCategorised_UnknownCategory(t *testing.T) {
	dir := initLedger(t)
	_, err := runTally(t, "categorised", "--repo", dir, "--category", "Pets", "--start", "2025-07-01", "--end", "2025-07-31")
	assert.ErrorContains(t, err, "Pets")
}
