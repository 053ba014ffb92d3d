package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// timestampLayout is how every DATETIME value is written.  MySQL parses
// it natively and SQLite stores it as sortable TEXT.
const timestampLayout = "2006-01-02 15:04:05"

func ts(t time.Time) string { return t.UTC().Format(timestampLayout) }

func nullTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return ts(*t)
}

// timeScanner accepts a timestamp the way either driver hands it back:
// time.Time from MySQL with parseTime, text from SQLite.
type timeScanner struct {
	dst   *time.Time
	valid bool
}

func scanTime(dst *time.Time) *timeScanner { return &timeScanner{dst: dst} }

func (s *timeScanner) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s.dst = time.Time{}
		s.valid = false
		return nil
	case time.Time:
		*s.dst = v.UTC()
	case string:
		return s.parse(v)
	case []byte:
		return s.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
	s.valid = true
	return nil
}

func (s *timeScanner) parse(v string) error {
	v = strings.TrimSpace(v)
	for _, layout := range []string{timestampLayout, time.RFC3339Nano, "2006-01-02T15:04:05Z"} {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			*s.dst = t.UTC()
			s.valid = true
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", v)
}

func nullUint(v *uint64) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func uintPtr(n sql.NullInt64) *uint64 {
	if !n.Valid {
		return nil
	}
	v := uint64(n.Int64)
	return &v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
