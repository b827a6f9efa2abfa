package csvfile

import "strings"

// TemplateHeader is the column layout of the importable template file.
const TemplateHeader = "title;description;label;automated;priority;precondition;scenario;regression;epic_link;link_issue;platform;fix_version;severity"

// Template returns the example import file offered for download: the header
// plus two sample rows demonstrating quoting, multi-value cells and an
// embedded newline in the scenario column. Parsing the template yields
// exactly these rows.
func Template() string {
	rows := []string{
		TemplateHeader,
		`Login with valid credentials;User can sign in with a valid account;"smoke;auth";yes;high;User account exists;"Given the login page` + "\n" +
			`When valid credentials are submitted` + "\n" +
			`Then the dashboard is shown";no;EPIC-101;QA-17;"web;android";1.4.0;Major`,
		`Password reset email;Reset email is delivered within a minute;recovery;no;medium;;;yes;;;ios;;`,
	}
	return strings.Join(rows, "\n") + "\n"
}
