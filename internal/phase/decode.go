package phase

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tidwall/gjson"
)

// Document is a decoded phase payload. The payload may be a bare array of
// phases, an analysis request ({"phases": [...]}) or a whole project
// document carrying id and name alongside its phases.
type Document struct {
	ProjectID   string
	ProjectName string
	Phases      []Phase

	// UnknownStatuses lists ids whose status string was not recognised.
	UnknownStatuses []string
	// Skipped counts array entries that were not objects or had no id.
	Skipped int
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Load reads and decodes a phase payload from path. "-" reads stdin.
func Load(path string) (*Document, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read phases: %w", err)
	}
	return Decode(data)
}

// Decode parses a phase payload. Only a root that carries no phase array
// is an error; malformed entries and fields degrade to zero values.
func Decode(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, &InvalidInputError{Reason: "payload is not valid JSON"}
	}

	root := gjson.ParseBytes(data)
	doc := &Document{}

	var list gjson.Result
	switch {
	case root.IsArray():
		list = root
	case root.IsObject():
		list = root.Get("phases")
		doc.ProjectID = root.Get("id").String()
		doc.ProjectName = root.Get("name").String()
	}
	if !list.IsArray() {
		return nil, &InvalidInputError{Reason: "phases array is required"}
	}

	doc.Phases = make([]Phase, 0, len(list.Array()))
	list.ForEach(func(_, item gjson.Result) bool {
		id := item.Get("id").String()
		if !item.IsObject() || id == "" {
			doc.Skipped++
			return true
		}

		status, ok := ParseStatus(item.Get("status").String())
		if !ok {
			doc.UnknownStatuses = append(doc.UnknownStatuses, id)
		}

		p := Phase{
			ID:        id,
			Name:      item.Get("name").String(),
			StartDate: parseTime(item.Get("startDate")),
			EndDate:   parseTime(item.Get("endDate")),
			Status:    status,
		}
		item.Get("dependencies").ForEach(func(_, dep gjson.Result) bool {
			if s := dep.String(); s != "" {
				p.Dependencies = append(p.Dependencies, s)
			}
			return true
		})

		doc.Phases = append(doc.Phases, p)
		return true
	})

	return doc, nil
}

// parseTime accepts ISO-8601 strings, epoch milliseconds and Firestore
// timestamp objects. Anything else yields the zero time.
func parseTime(v gjson.Result) time.Time {
	switch {
	case v.Type == gjson.String:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v.Str); err == nil {
				return t.UTC()
			}
		}
	case v.Type == gjson.Number:
		return time.UnixMilli(v.Int()).UTC()
	case v.IsObject():
		for _, prefix := range []string{"", "_"} {
			secs := v.Get(prefix + "seconds")
			if secs.Exists() {
				return time.Unix(secs.Int(), v.Get(prefix+"nanoseconds").Int()).UTC()
			}
		}
	}
	return time.Time{}
}
