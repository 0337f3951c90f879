package timestreams

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TimeAndName is a decomposed post identifier.
type TimeAndName struct {
	DateParts DateParts
	Name      string
}

var (
	idPattern   = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})(\d{2})(\d{2})(\d{2})Z-(.+)$`)
	timePrefix  = regexp.MustCompile(`^(\d{2})(\d{2})(\d{2})Z-`)
	extPattern  = regexp.MustCompile(`\.\w+$`)
	pathPattern = make(map[string]*regexp.Regexp)
)

// ParseIdentifier splits an identifier of the form YYYYMMDDHHMMSSZ-name into
// its date and name. Anything else fails with ErrInvalidIdentifier.
func ParseIdentifier(id string) (TimeAndName, error) {
	m := idPattern.FindStringSubmatch(id)
	if m == nil {
		return TimeAndName{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}
	n := make([]int, 6)
	for i := range n {
		n[i], _ = strconv.Atoi(m[i+1])
	}
	return TimeAndName{
		DateParts: DateParts{
			Year: n[0], Month: n[1], Day: n[2],
			Hour: n[3], Minute: n[4], Second: n[5],
			HasTime: true,
		},
		Name: m[7],
	}, nil
}

// PathFor returns the storage path for meta. The HHMMSSZ- segment is only
// written when the time is not midnight, so an explicit midnight and an
// absent time share a path.
func PathFor(meta TimeAndName, sep string) string {
	d := meta.DateParts
	var b strings.Builder
	fmt.Fprintf(&b, "%04d%s%02d%s%02d%s", d.Year, sep, d.Month, sep, d.Day, sep)
	if d.hasNonZeroTime() {
		fmt.Fprintf(&b, "%02d%02d%02dZ-", d.Hour, d.Minute, d.Second)
	}
	b.WriteString(meta.Name)
	return b.String()
}

// IdentifierFor renders meta as an identifier. The time is always written.
func IdentifierFor(meta TimeAndName) string {
	d := meta.DateParts
	return fmt.Sprintf("%04d%02d%02d%02d%02d%02dZ-%s", d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second, meta.Name)
}

// IdentifierForPath is the best-effort inverse of PathFor. A path without a
// time segment maps to an identifier with an explicit 000000Z time.
func IdentifierForPath(path, sep string) (string, bool) {
	m := pathRegexp(sep).FindStringSubmatch(path)
	if m == nil {
		return "", false
	}
	meta := TimeAndName{Name: m[4], DateParts: DateParts{HasTime: true}}
	meta.DateParts.Year, _ = strconv.Atoi(m[1])
	meta.DateParts.Month, _ = strconv.Atoi(m[2])
	meta.DateParts.Day, _ = strconv.Atoi(m[3])
	if t := timePrefix.FindStringSubmatch(m[4]); t != nil {
		meta.DateParts.Hour, _ = strconv.Atoi(t[1])
		meta.DateParts.Minute, _ = strconv.Atoi(t[2])
		meta.DateParts.Second, _ = strconv.Atoi(t[3])
		meta.Name = m[4][len(t[0]):]
	}
	return IdentifierFor(meta), true
}

// dayPath is the bucket directory for d, without a trailing separator.
func dayPath(d DateParts, sep string) string {
	return fmt.Sprintf("%04d%s%02d%s%02d", d.Year, sep, d.Month, sep, d.Day)
}

// DayPath is the bucket directory for d using the default separator.
func DayPath(d DateParts) string {
	return dayPath(d, DefaultSeparator)
}

// extension returns the trailing ".ext" of path, or "".
func extension(path string) string {
	return extPattern.FindString(path)
}

// pathRegexp only reads pathPattern after init; other separators compile a
// fresh pattern per call.
func pathRegexp(sep string) *regexp.Regexp {
	if re, ok := pathPattern[sep]; ok {
		return re
	}
	q := regexp.QuoteMeta(sep)
	return regexp.MustCompile(`^(\d{4})` + q + `(\d{2})` + q + `(\d{2})` + q + `(.+)$`)
}

func init() {
	for _, sep := range []string{"/", `\`} {
		pathPattern[sep] = pathRegexp(sep)
	}
}
