package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Record is one structured log line.
type Record struct {
	Time    time.Time
	Level   string
	Message string
	Attrs   []Attr
	Raw     string // set when the line is not a JSON record
}

// Attr is a key/value pair of a record, in key order.
type Attr struct {
	Key   string
	Value string
}

// skipped keys are shown elsewhere or are noise in the pane.
var skipped = map[string]bool{
	"time":    true,
	"level":   true,
	"msg":     true,
	"service": true,
	"source":  true,
}

// Parse decodes a JSON log line. Lines that are not JSON objects come back
// with only Raw set.
func Parse(line string) Record {
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return Record{Raw: line}
	}

	rec := Record{
		Level:   stringField(fields, "level"),
		Message: stringField(fields, "msg"),
	}
	if ts := stringField(fields, "time"); ts != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			rec.Time = parsed
		}
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		if !skipped[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		rec.Attrs = append(rec.Attrs, Attr{Key: k, Value: formatValue(fields[k])})
	}
	return rec
}

// ReadRecords returns the last maxRecords records of the log at path.
func ReadRecords(path string, maxRecords int) ([]Record, error) {
	lines, err := Read(path, maxRecords)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, Parse(line))
	}
	return records, nil
}

// String renders a record on one line: "15:04:05 INFO message key=value".
func (r Record) String() string {
	if r.Raw != "" {
		return r.Raw
	}
	var b strings.Builder
	if !r.Time.IsZero() {
		b.WriteString(r.Time.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	if r.Level != "" {
		b.WriteString(r.Level)
		b.WriteByte(' ')
	}
	b.WriteString(r.Message)
	for _, attr := range r.Attrs {
		b.WriteByte(' ')
		b.WriteString(attr.Key)
		b.WriteByte('=')
		b.WriteString(attr.Value)
	}
	return b.String()
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		if strings.ContainsAny(val, " \t") {
			return fmt.Sprintf("%q", val)
		}
		return val
	case nil:
		return "null"
	case float64, bool:
		return fmt.Sprint(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}
