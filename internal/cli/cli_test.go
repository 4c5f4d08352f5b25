package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexTLDR/wedding/internal/database"
)

const guestCSV = `Guest Full Name,Guest Name 1,Guest Name 2,Guest Name 3,Guest Name 4,Guest Name 5
John Smith,Jane Smith,Guest,,,
  Maria   Popescu ,,,,,
,,,,,
,Lone Guest,,,,
`

const guestYAML = `parties:
  - household: The Smith Family
    members:
      - John Smith
      - Jane Smith
      - Guest
  - household: Popescu
    members:
      - name: Maria Popescu
      - name: Ion Popescu
        allow_attend: false
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func testDBURL(t *testing.T) string {
	return "sqlite://" + filepath.Join(t.TempDir(), "wedding.db")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "partyctl", cmd.Use)

	for _, name := range []string{"import", "list", "migrate", "normalize-phones"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "migrate", "--db", testDBURL(t), "--format", "xml")
	assert.ErrorContains(t, err, `invalid format "xml"`)
}

func TestParseGuestListCSV(t *testing.T) {
	list, err := ParseGuestList(strings.NewReader(guestCSV), "csv")
	require.NoError(t, err)
	require.Len(t, list.Parties, 3)

	assert.Equal(t, "John Smith", list.Parties[0].Household)
	assert.Equal(t, []MemberEntry{{Name: "John Smith"}, {Name: "Jane Smith"}, {Name: "Guest"}}, list.Parties[0].Members)

	assert.Equal(t, "Maria Popescu", list.Parties[1].Household)
	assert.Equal(t, []MemberEntry{{Name: "Maria Popescu"}}, list.Parties[1].Members)

	assert.Equal(t, "Party 4", list.Parties[2].Household, "rows without a label are numbered")
	assert.Equal(t, []MemberEntry{{Name: "Lone Guest"}}, list.Parties[2].Members)

	assert.Equal(t, 5, list.Guests())
}

func TestParseGuestListYAML(t *testing.T) {
	list, err := ParseGuestList(strings.NewReader(guestYAML), "yaml")
	require.NoError(t, err)
	require.Len(t, list.Parties, 2)

	assert.Len(t, list.Parties[0].Members, 3)
	ion := list.Parties[1].Members[1]
	assert.Equal(t, "Ion Popescu", ion.Name)
	assert.False(t, ion.newMember().AllowAttend)
	assert.True(t, list.Parties[1].Members[0].newMember().AllowAttend)
}

func TestParseGuestListErrors(t *testing.T) {
	_, err := ParseGuestList(strings.NewReader("parties:\n  - household: Empty\n    members: []\n"), "yaml")
	assert.ErrorContains(t, err, `party "Empty" has no guests`)

	_, err = ParseGuestList(strings.NewReader("parties:\n  - members: [A]\n"), "yaml")
	assert.ErrorContains(t, err, "household is required")

	_, err = ParseGuestList(strings.NewReader("parties:\n  - household: Crowd\n    members: [A, B, C, D, E, F, G]\n"), "yaml")
	assert.ErrorContains(t, err, `party "Crowd" has 7 guests, at most 6 are allowed`)

	_, err = ParseGuestList(strings.NewReader(""), "toml")
	assert.Error(t, err)

	_, err = FormatFromPath("guests.txt")
	assert.Error(t, err)
}

func TestImportAndList(t *testing.T) {
	dbURL := testDBURL(t)
	path := writeFile(t, "guests.yaml", guestYAML)

	out, err := execute(t, "import", path, "--db", dbURL, "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, "Would import 2 households with 5 guests\n", out)

	out, err = execute(t, "import", path, "--db", dbURL)
	require.NoError(t, err)
	assert.Equal(t, "Imported 2 households with 5 guests\n", out)

	out, err = execute(t, "list", "--db", dbURL)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, []string{"HOUSEHOLD", "GUEST", "STATUS", "MEAL"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"The", "Smith", "Family", "Guest", "unknown", "-"}, strings.Fields(lines[3]))

	out, err = execute(t, "list", "--db", dbURL, "--format", "json")
	require.NoError(t, err)
	var parties []listedParty
	require.NoError(t, json.Unmarshal([]byte(out), &parties))
	require.Len(t, parties, 2)
	assert.Equal(t, "Popescu", parties[1].Household)
	assert.Equal(t, "Ion Popescu", parties[1].Members[1].Name)

	db, err := database.New(dbURL)
	require.NoError(t, err)
	defer db.Close()
	all, err := db.ListParties(context.Background())
	require.NoError(t, err)
	assert.True(t, all[0].Members[2].IsPlusOnePlaceholder)
	assert.False(t, all[1].Members[1].AllowAttend)
}

func TestListPending(t *testing.T) {
	dbURL := testDBURL(t)
	_, err := execute(t, "import", writeFile(t, "guests.csv", guestCSV), "--db", dbURL)
	require.NoError(t, err)

	db, err := database.New(dbURL)
	require.NoError(t, err)
	defer db.Close()
	parties, err := db.ListParties(context.Background())
	require.NoError(t, err)
	maria := parties[1]
	_, err = db.UpdatePartyRSVPs(context.Background(), maria.ID,
		[]database.RSVPItem{{MemberID: maria.Members[0].ID, Status: database.StatusNo}}, database.Contact{})
	require.NoError(t, err)

	out, err := execute(t, "list", "--db", dbURL, "--pending", "--format", "json")
	require.NoError(t, err)
	var listed []listedParty
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 2)
	for _, p := range listed {
		assert.NotEqual(t, "Maria Popescu", p.Household)
	}
}

func TestNormalizePhones(t *testing.T) {
	dbURL := testDBURL(t)
	_, err := execute(t, "import", writeFile(t, "guests.csv", guestCSV), "--db", dbURL)
	require.NoError(t, err)

	db, err := database.New(dbURL)
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()
	parties, err := db.ListParties(ctx)
	require.NoError(t, err)

	require.NoError(t, db.SetContactPhone(ctx, parties[0].ID, "0721 234 567"))
	require.NoError(t, db.SetContactPhone(ctx, parties[1].ID, "not a phone"))
	require.NoError(t, db.SetContactPhone(ctx, parties[2].ID, "+40721234567"))

	out, err := execute(t, "normalize-phones", "--db", dbURL, "--region", "ro", "--format", "json")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	var summary PhoneSummary
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &summary))
	assert.Equal(t, PhoneSummary{Total: 3, Updated: 1, Failed: 1, Unchanged: 1}, summary)

	phones, err := db.ContactPhones(ctx)
	require.NoError(t, err)
	assert.Equal(t, "+40721234567", phones[parties[0].ID])
	assert.Equal(t, "not a phone", phones[parties[1].ID])
}

func TestMigrate(t *testing.T) {
	out, err := execute(t, "migrate", "--db", testDBURL(t))
	require.NoError(t, err)
	assert.Equal(t, "database is up to date (sqlite3)\n", out)
}
