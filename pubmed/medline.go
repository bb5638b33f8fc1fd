package pubmed

import (
	"bufio"
	"io"
	"strings"

	"github.com/poiesic/litmine/core"
)

// Record holds the MEDLINE fields litmine keeps.
type Record struct {
	PMID     string
	Title    string // TI
	Abstract string // AB
	Date     string // DP, e.g. "2021 Mar 15"
}

// Document converts the record to a document ready for upsert.
func (r Record) Document() *core.Document {
	return &core.Document{
		PMID:      r.PMID,
		Title:     r.Title,
		Abstract:  r.Abstract,
		Published: r.Date,
	}
}

// continuation is the indent of a wrapped field value.
const continuation = "      "

// ParseMedline reads MEDLINE-format records separated by blank lines.
// A field line is a tag padded to four characters, "- " and the value;
// wrapped values continue on lines indented by six spaces and are joined
// with a single space.
func ParseMedline(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var (
		records []Record
		current map[string]string
		lastTag string
	)
	flush := func() {
		if current != nil {
			records = append(records, Record{
				PMID:     current["PMID"],
				Title:    current["TI"],
				Abstract: current["AB"],
				Date:     current["DP"],
			})
		}
		current, lastTag = nil, ""
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if strings.HasPrefix(line, continuation) {
			if current != nil && lastTag != "" {
				current[lastTag] += " " + strings.TrimSpace(line)
			}
			continue
		}
		if len(line) < 5 || line[4] != '-' {
			continue
		}

		tag := strings.TrimSpace(line[:4])
		value := strings.TrimSpace(line[5:])
		if current == nil {
			current = make(map[string]string)
		}
		// Repeated tags (AU, MH, ...) keep their first value.
		if _, seen := current[tag]; !seen {
			current[tag] = value
			lastTag = tag
		} else {
			lastTag = ""
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return records, nil
}
