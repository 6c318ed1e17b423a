package numerator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

func (c Config) padWidth() int {
	if c.PadWidth <= 0 {
		return DefaultPadWidth
	}
	return c.PadWidth
}

// Head returns the fixed part that precedes the numeric suffix,
// e.g. "PED-2026-" or "PROV-".
func (c Config) Head(period time.Time) string {
	if c.IncludeYear {
		return fmt.Sprintf("%s-%s-", c.Prefix, period.Format("2006"))
	}
	return c.Prefix + "-"
}

// SuffixPattern returns the regular expression matching the numbers of the
// period whose suffix is purely numeric. Values such as "FAC-2026-0012-R"
// do not match. The suffix is capped at 18 digits to stay within int64.
func (c Config) SuffixPattern(period time.Time) string {
	return "^" + regexp.QuoteMeta(c.Head(period)) + "[0-9]{1,18}$"
}

// LockKey identifies the allocation scope for advisory locking.
func (c Config) LockKey(period time.Time) string {
	return fmt.Sprintf("%s.%s:%s", c.Table, c.Field, c.Head(period))
}

// Format creates the final number string.
func Format(cfg Config, period time.Time, n int64) string {
	return fmt.Sprintf("%s%0*d", cfg.Head(period), cfg.padWidth(), n)
}

// ParseSuffix extracts the numeric suffix of value. It reports false when
// value does not belong to cfg's period or the suffix is not a number.
func ParseSuffix(cfg Config, period time.Time, value string) (int64, bool) {
	head := cfg.Head(period)
	if !strings.HasPrefix(value, head) {
		return 0, false
	}
	n, err := strconv.ParseInt(value[len(head):], 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// NextAfter returns the suffix following the largest one in existing.
// Values that do not parse are ignored; an empty set yields 1.
func NextAfter(cfg Config, period time.Time, existing ...string) int64 {
	var max int64
	for _, v := range existing {
		if n, ok := ParseSuffix(cfg, period, v); ok && n > max {
			max = n
		}
	}
	return max + 1
}
