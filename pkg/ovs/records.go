package ovs

import (
	"strconv"
	"strings"

	"github.com/ovsman-net/ovsman/pkg/util"
)

// Record is one flat key/value block from `ovs-vsctl list` output.
// Values are kept raw; use the typed accessors to decode them.
type Record map[string]string

// ParseRecords splits `ovs-vsctl list` output into records. Records are
// separated by blank lines; within a record each line splits on the first
// colon. Duplicate keys take the last value, lines without a colon are
// skipped.
func ParseRecords(text string) []Record {
	var records []Record
	current := Record{}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(current) > 0 {
				records = append(records, current)
				current = Record{}
			}
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		current[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if len(current) > 0 {
		records = append(records, current)
	}
	return records
}

// ParseRecord folds an entire dump into a single record, ignoring blank
// lines. Use it for single-row output such as `ovs-vsctl list port <name>`.
func ParseRecord(text string) Record {
	rec := Record{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		rec[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return rec
}

// Get returns the raw value for key, "" when absent.
func (r Record) Get(key string) string {
	return r[key]
}

// Text returns the value with surrounding quotes stripped. The empty-set
// marker "[]" reads as "", matching how the switch reports unset columns.
func (r Record) Text(key string) string {
	v := strings.TrimSpace(r[key])
	if v == "[]" {
		return ""
	}
	return util.TrimQuotes(v)
}

// Int decodes the value as an integer. The second return is false when the
// column is absent, unset ("[]") or not numeric.
func (r Record) Int(key string) (int, bool) {
	v := r.Text(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Bool decodes the value as an OVS boolean ("true"/"false").
func (r Record) Bool(key string) bool {
	return strings.EqualFold(r.Text(key), "true")
}

// Array decodes the value as an array literal via ParseArray.
func (r Record) Array(key string) []string {
	return ParseArray(r[key])
}

// IntArray decodes the value as an integer array via ParseIntArray.
func (r Record) IntArray(key string) []int {
	return ParseIntArray(r[key])
}

// Set decodes the value as a set literal via ParseSet.
func (r Record) Set(key string) map[string]string {
	return ParseSet(r[key])
}

// ParseArray parses an OVS array literal such as `[a, b]` into trimmed,
// quote-stripped elements. `[]` yields an empty, non-nil slice; anything
// not bracketed yields the same.
func ParseArray(raw string) []string {
	out := []string{}
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "[") || !strings.HasSuffix(raw, "]") {
		return out
	}
	for _, item := range util.SplitCommaSeparated(raw[1 : len(raw)-1]) {
		if item = util.TrimQuotes(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ParseIntArray parses an integer array literal. It returns nil for an
// empty array and for any element that fails to parse; a VLAN trunk list
// either decodes completely or not at all.
func ParseIntArray(raw string) []int {
	items := ParseArray(raw)
	if len(items) == 0 {
		return nil
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		n, err := strconv.Atoi(item)
		if err != nil {
			return nil
		}
		out = append(out, n)
	}
	return out
}

// ParseSet parses an OVS map literal such as `{key=val, k2=v2}` into a
// string map. Values lose one pair of surrounding quotes; pairs without an
// equals sign are skipped.
func ParseSet(raw string) map[string]string {
	out := map[string]string{}
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") || !strings.HasSuffix(raw, "}") {
		return out
	}
	for _, pair := range util.SplitCommaSeparated(raw[1 : len(raw)-1]) {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out[key] = util.TrimQuotes(strings.TrimSpace(value))
	}
	return out
}

// ParseNameUUIDs maps record names to their _uuid column. Records missing
// either column are skipped.
func ParseNameUUIDs(text string) map[string]string {
	out := map[string]string{}
	for _, rec := range ParseRecords(text) {
		name := rec.Text("name")
		uuid := rec.Text("_uuid")
		if name != "" && uuid != "" {
			out[name] = uuid
		}
	}
	return out
}

// ParseUUIDNames is the inverse of ParseNameUUIDs, keyed by UUID.
func ParseUUIDNames(text string) map[string]string {
	out := map[string]string{}
	for _, rec := range ParseRecords(text) {
		name := rec.Text("name")
		uuid := rec.Text("_uuid")
		if name != "" && uuid != "" {
			out[uuid] = name
		}
	}
	return out
}
