package csvfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qahub/qa-hub/internal/errors"
	"github.com/qahub/qa-hub/internal/testcase"
)

func TestParseRejectsMissingHeader(t *testing.T) {
	t.Parallel()

	_, err := Parse("just some text\nwith no header at all\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrHeaderNotFound)
}

func TestParseRejectsHeaderLackingTitle(t *testing.T) {
	t.Parallel()

	// "name;description" is never recognized as a header because the
	// locator requires both tokens, so the whole file is rejected.
	_, err := Parse("name;description\nFoo;Bar\n")
	require.Error(t, err)

	var ee *errors.EnhancedError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, errors.CategoryCSVParsing, ee.Category)
}

func TestParseRejectsMissingTitleColumn(t *testing.T) {
	t.Parallel()

	// The header locator matches this line ("title" appears inside
	// "subtitle & description") but no column is actually named title.
	_, err := Parse("name;subtitle & description\nFoo;Bar\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrRequiredColumnMissing)
}

func TestParseDetectsTabDelimiter(t *testing.T) {
	t.Parallel()

	rows, err := Parse("title\tdescription\tautomated\nTab case\tuses tabs\tyes\n")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Tab case", rows[0].Title)
	require.NotNil(t, rows[0].Description)
	assert.Equal(t, "uses tabs", *rows[0].Description)
	assert.True(t, rows[0].Automated)
}

func TestParseSkipsHeaderPreamble(t *testing.T) {
	t.Parallel()

	text := "exported by qa tool\n\ntitle;description\nReal row;desc\n"
	rows, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Real row", rows[0].Title)
}

func TestParseSkipsBlankTitleRows(t *testing.T) {
	t.Parallel()

	text := "title;description\n;missing title\n   ;still missing\nKept;ok\n"
	rows, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Kept", rows[0].Title)
}

func TestParseQuotedFieldWithEmbeddedNewline(t *testing.T) {
	t.Parallel()

	text := "title;description;scenario\n" +
		"Checkout;happy path;\"Given a cart\nWhen paying\nThen receipt\"\n" +
		"Next row;still parsed;\n"

	rows, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NotNil(t, rows[0].Data)
	assert.Equal(t, "Given a cart\nWhen paying\nThen receipt", rows[0].Data.Scenario)
	assert.Equal(t, "Next row", rows[1].Title)
}

func TestParseDoubledQuoteEscape(t *testing.T) {
	t.Parallel()

	text := "title;description\n\"The \"\"magic\"\" button\";desc\n"
	rows, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, `The "magic" button`, rows[0].Title)
}

func TestParseFieldMapping(t *testing.T) {
	t.Parallel()

	text := TemplateHeader + "\n" +
		"Field map;described;\"ui;slow\";YES;low;be ready;do it;no;EP-1;BUG-2;Web,iOS;2.0;Minor\n"

	rows, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	row := rows[0]

	assert.True(t, row.Automated, "yes is matched case-insensitively")
	assert.False(t, row.Regression)
	assert.Equal(t, testcase.PriorityLow, row.Priority)
	assert.Equal(t, "Minor", row.Severity)
	require.NotNil(t, row.Labels)
	assert.Equal(t, "ui,slow", *row.Labels, "intra-cell semicolons become commas")
	require.NotNil(t, row.Platform)
	assert.Equal(t, `["web","ios"]`, *row.Platform)
	require.NotNil(t, row.EpicLink)
	assert.Equal(t, "EP-1", *row.EpicLink)
	require.NotNil(t, row.LinkedIssue)
	assert.Equal(t, "BUG-2", *row.LinkedIssue)
	require.NotNil(t, row.ReleaseVersion)
	assert.Equal(t, "2.0", *row.ReleaseVersion)
	require.NotNil(t, row.Data)
	require.NotNil(t, row.Data.Preconditions)
	assert.Equal(t, testcase.PreconditionFreeText, row.Data.Preconditions.Mode)
	assert.Equal(t, "be ready", row.Data.Preconditions.Text)
	assert.Equal(t, "do it", row.Data.Scenario)
}

func TestParseDefaults(t *testing.T) {
	t.Parallel()

	text := "title;description;priority;severity\nBare row;;;\n"
	rows, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	row := rows[0]

	assert.Nil(t, row.Description, "blank optionals are absent, not empty")
	assert.Equal(t, testcase.PriorityMedium, row.Priority)
	assert.Equal(t, testcase.DefaultSeverity, row.Severity)
	assert.Nil(t, row.Labels)
	assert.Nil(t, row.Platform)
	assert.Nil(t, row.Data)
	assert.False(t, row.Automated)
	assert.False(t, row.Regression)
}

func TestParsePriority(t *testing.T) {
	t.Parallel()

	assert.Equal(t, testcase.PriorityLow, ParsePriority("low"))
	assert.Equal(t, testcase.PriorityMedium, ParsePriority("Medium"))
	assert.Equal(t, testcase.PriorityHigh, ParsePriority(" HIGH "))
	assert.Equal(t, testcase.PriorityMedium, ParsePriority(""))
	// the import dialect has no token for Critical; it maps to the default
	assert.Equal(t, testcase.PriorityMedium, ParsePriority("critical"))
}

func TestParseCustomListSeparator(t *testing.T) {
	t.Parallel()

	text := "title;description;label\nLogin;;smoke|auth\n"
	p := NewParser()
	p.ListSeparator = "|"

	rows, err := p.Parse(text)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Labels)
	assert.Equal(t, "smoke,auth", *rows[0].Labels)
}

func TestTemplateRoundTrip(t *testing.T) {
	t.Parallel()

	rows, err := Parse(Template())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	login := rows[0]
	assert.Equal(t, "Login with valid credentials", login.Title)
	require.NotNil(t, login.Description)
	assert.Equal(t, "User can sign in with a valid account", *login.Description)
	assert.True(t, login.Automated)
	assert.False(t, login.Regression)
	assert.Equal(t, testcase.PriorityHigh, login.Priority)
	assert.Equal(t, "Major", login.Severity)
	require.NotNil(t, login.Labels)
	assert.Equal(t, "smoke,auth", *login.Labels)
	require.NotNil(t, login.Platform)
	assert.Equal(t, `["web","android"]`, *login.Platform)
	require.NotNil(t, login.EpicLink)
	assert.Equal(t, "EPIC-101", *login.EpicLink)
	require.NotNil(t, login.LinkedIssue)
	assert.Equal(t, "QA-17", *login.LinkedIssue)
	require.NotNil(t, login.ReleaseVersion)
	assert.Equal(t, "1.4.0", *login.ReleaseVersion)
	require.NotNil(t, login.Data)
	require.NotNil(t, login.Data.Preconditions)
	assert.Equal(t, "User account exists", login.Data.Preconditions.Text)
	assert.Equal(t, "Given the login page\nWhen valid credentials are submitted\nThen the dashboard is shown", login.Data.Scenario)

	reset := rows[1]
	assert.Equal(t, "Password reset email", reset.Title)
	assert.False(t, reset.Automated)
	assert.True(t, reset.Regression)
	assert.Equal(t, testcase.PriorityMedium, reset.Priority)
	assert.Equal(t, testcase.DefaultSeverity, reset.Severity)
	require.NotNil(t, reset.Labels)
	assert.Equal(t, "recovery", *reset.Labels)
	require.NotNil(t, reset.Platform)
	assert.Equal(t, `["ios"]`, *reset.Platform)
	assert.Nil(t, reset.EpicLink)
	assert.Nil(t, reset.Data)
}
