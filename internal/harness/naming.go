package harness

import (
	"strconv"
	"strings"
	"time"
)

// DefaultNameTemplate names generated files when no template is set.
const DefaultNameTemplate = "Gen_text_<ID>_<AUT>_<DATE>.<HR>.<MIN>.<SEC>.txt"

// FileName substitutes the template tokens <ID> (or <CIP>), <AUT>, <DATE>,
// <HR>, <MIN> and <SEC>. An empty template yields id + author + ".txt".
func FileName(template, id, author string, now time.Time) string {
	if template == "" {
		return id + author + ".txt"
	}
	r := strings.NewReplacer(
		"<ID>", id,
		"<CIP>", id,
		"<AUT>", author,
		"<DATE>", now.Format("2006-01-02"),
		"<HR>", strconv.Itoa(now.Hour()),
		"<MIN>", strconv.Itoa(now.Minute()),
		"<SEC>", strconv.Itoa(now.Second()),
	)
	return r.Replace(template)
}

// fusedLabel names the author of a text generated from several authors.
func fusedLabel(authors []string) string {
	var sb strings.Builder
	for _, a := range authors {
		sb.WriteString("_" + a + "_")
	}
	return sb.String()
}
