package numerator

import (
	"fmt"
	"strconv"
	"strings"

	"langschool/internal/core/apperror"
)

// Format builds PREFIX + YYYY + zero-padded sequence, e.g. S202500001.
// Sequences outside 1..MaxSequence never produce a string.
func Format(cfg Config, year int, seq int64) (string, error) {
	if year < 1 || year > 9999 {
		return "", apperror.NewInvalidInput("year must have four digits").WithDetail("year", year)
	}
	if seq < 1 {
		return "", apperror.NewInvalidInput("sequence must be positive").WithDetail("sequence", seq)
	}
	if limit := Limit(cfg); seq > limit {
		return "", apperror.NewCapacityExceeded(cfg.name(), year, limit)
	}
	return fmt.Sprintf("%s%04d%0*d", cfg.Prefix, year, cfg.padWidth(), seq), nil
}

// YearPrefix returns the part shared by every number of a class in a year ("S2025").
func YearPrefix(cfg Config, year int) string {
	return fmt.Sprintf("%s%04d", cfg.Prefix, year)
}

// ParseSequence extracts the sequence of a number issued for year.
// It returns false for anything that is not exactly prefix+year+digits.
func ParseSequence(cfg Config, year int, number string) (int64, bool) {
	if len(number) != cfg.Len() {
		return 0, false
	}
	head := YearPrefix(cfg, year)
	if !strings.HasPrefix(number, head) {
		return 0, false
	}
	tail := number[len(head):]
	for i := 0; i < len(tail); i++ {
		if tail[i] < '0' || tail[i] > '9' {
			return 0, false
		}
	}
	seq, err := strconv.ParseInt(tail, 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}

// MaxIssued returns the highest sequence found among numbers for year,
// along with how many inputs were skipped as not matching.
func MaxIssued(cfg Config, year int, numbers []string) (highest int64, skipped int) {
	for _, n := range numbers {
		seq, ok := ParseSequence(cfg, year, n)
		if !ok {
			skipped++
			continue
		}
		if seq > highest {
			highest = seq
		}
	}
	return highest, skipped
}

// Limit returns the last sequence representable with cfg (99999 for width 5).
func Limit(cfg Config) int64 {
	limit := int64(1)
	for i := 0; i < cfg.padWidth(); i++ {
		limit *= 10
	}
	return limit - 1
}
