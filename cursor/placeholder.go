package cursor

import (
	"regexp"
	"strconv"
	"strings"
)

// seqMarker is the sequential unlabeled parameter marker used by driver
// connections.
const seqMarker = "?"

// numberedMarker matches the explicit 1-based $n markers accepted by the
// engine query primitive.
var numberedMarker = regexp.MustCompile(`\$([0-9]+)`)

// ToNumbered rewrites sequential ? markers left to right into successive
// $1..$k markers, the only form the in-engine query primitive accepts.
func ToNumbered(sql string) string {
	var b strings.Builder
	n := 0
	for {
		i := strings.Index(sql, seqMarker)
		if i < 0 {
			break
		}
		n++
		b.WriteString(sql[:i])
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
		sql = sql[i+len(seqMarker):]
	}
	b.WriteString(sql)
	return b.String()
}

// ToSequential rewrites numbered $i markers into sequential ? markers,
// substituting from the highest used index down to 1 so that replacing $1
// never corrupts the prefix of $10 and above.
func ToSequential(sql string) string {
	max := 0
	for _, m := range numberedMarker.FindAllStringSubmatch(sql, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > max {
			max = n
		}
	}
	for i := max; i >= 1; i-- {
		sql = strings.ReplaceAll(sql, "$"+strconv.Itoa(i), seqMarker)
	}
	return sql
}
