// Package notices turns the school's published spreadsheet into notices.
//
// The sheet is read through its CSV export. Rows without a title or a date
// are dropped, and when the sheet cannot be fetched or parsed a fixed set of
// fallback notices is served instead.
package notices

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/JakeFAU/school-portal-api/internal/school"
)

// Sheet column headers.
const (
	ColumnTitle       = "Notice Title"
	ColumnDate        = "Date"
	ColumnDescription = "Description"
	ColumnLink        = "Link"
)

const utf8BOM = "\ufeff"

// Parser reads notices from CSV with a header row.
type Parser struct {
	// OnSkip is called with the 1-based line number of every data row that is
	// dropped for lacking a title or a date.
	OnSkip func(line int)
}

// Notices returns a lazy sequence over the qualifying rows of r in source
// order. A read error is yielded once and ends the sequence. An empty input
// or a header without rows yields nothing.
func (p Parser) Notices(r io.Reader) iter.Seq2[school.Notice, error] {
	return func(yield func(school.Notice, error) bool) {
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		reader.LazyQuotes = true
		reader.ReuseRecord = true

		header, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			yield(school.Notice{}, fmt.Errorf("read csv header: %w", err))
			return
		}
		cols := indexColumns(header)

		for {
			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(school.Notice{}, fmt.Errorf("read csv row: %w", err))
				return
			}
			notice, ok := cols.notice(record)
			if !ok {
				if p.OnSkip != nil {
					line, _ := reader.FieldPos(0)
					p.OnSkip(line)
				}
				continue
			}
			if !yield(notice, nil) {
				return
			}
		}
	}
}

// Collect drains seq until limit notices have been gathered, the sequence
// ends, or it yields an error. The returned slice is never nil.
func Collect(seq iter.Seq2[school.Notice, error], limit int) ([]school.Notice, error) {
	out := make([]school.Notice, 0, max(limit, 0))
	if limit <= 0 {
		return out, nil
	}
	for notice, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, notice)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// columns maps header names to record positions. A missing column is -1.
type columns struct {
	title, date, description, link int
}

func indexColumns(header []string) columns {
	cols := columns{title: -1, date: -1, description: -1, link: -1}
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		// Later duplicates win.
		switch name {
		case ColumnTitle:
			cols.title = i
		case ColumnDate:
			cols.date = i
		case ColumnDescription:
			cols.description = i
		case ColumnLink:
			cols.link = i
		}
	}
	return cols
}

func (c columns) notice(record []string) (school.Notice, bool) {
	title := field(record, c.title)
	date := field(record, c.date)
	if title == "" || date == "" {
		return school.Notice{}, false
	}
	description := field(record, c.description)
	if description == "" {
		description = field(record, c.link)
	}
	return school.Notice{
		Title:       title,
		Date:        date,
		Description: description,
	}, true
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
