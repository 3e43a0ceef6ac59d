package questions

import "strings"

// Parse converts a delimited dataset export into questions. The first line is
// a header and is discarded. Fields are split on commas outside quoted
// regions; after splitting, every remaining quote character is removed from
// the first three fields. Rows with fewer than three fields, or with an empty
// title/url/site after cleaning, are dropped. Parse never fails: malformed
// input just yields fewer questions.
//
// Quote handling is intentionally lossy: an embedded literal quote inside a
// title is stripped rather than preserved, and a trailing unbalanced quote
// leaves the rest of the line inside one field. The historical dataset was
// produced under these rules, so they are kept as-is.
func Parse(text string) []Question {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) < 2 {
		return nil
	}

	var out []Question
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := splitLine(line)
		if len(fields) < 3 {
			continue
		}
		q := Question{
			Title: cleanField(fields[0]),
			URL:   cleanField(fields[1]),
			Site:  cleanField(fields[2]),
		}
		if !q.Valid() {
			continue
		}
		out = append(out, q)
	}
	return out
}

// splitLine separates a row on commas, treating a comma inside a quoted
// region as data. Quote characters toggle the in-quotes state and are not
// written to the output fields.
func splitLine(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	fields = append(fields, cur.String())
	return fields
}

func cleanField(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), `"`, "")
}
