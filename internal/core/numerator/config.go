// Package numerator provides domain contracts for student and employee numbering.
package numerator

// Class identifies an independent numbering space.
type Class int

const (
	// ClassStudent numbers look like S202500001.
	ClassStudent Class = iota
	// ClassEmployee numbers look like E202500001.
	ClassEmployee
)

// Classes lists every class in a stable order.
var Classes = []Class{ClassStudent, ClassEmployee}

const (
	// YearWidth is the number of year digits in a number.
	YearWidth = 4

	// DefaultPadWidth is the number of sequence digits in a number.
	DefaultPadWidth = 5

	// MaxSequence is the last sequence a class can issue within one year.
	MaxSequence int64 = 99999
)

// String returns the class name used in logs and errors.
func (c Class) String() string {
	switch c {
	case ClassStudent:
		return "student"
	case ClassEmployee:
		return "employee"
	default:
		return "unknown"
	}
}

// Config holds numbering configuration.
type Config struct {
	// Name is the class name reported in errors ("student"); Prefix when empty
	Name string

	// Prefix is the single-letter class marker ("S", "E")
	Prefix string

	// PadWidth is the zero-padded sequence width (default 5)
	PadWidth int
}

// Config returns the numbering configuration of the class.
func (c Class) Config() Config {
	var cfg Config
	switch c {
	case ClassEmployee:
		cfg = DefaultConfig("E")
	default:
		cfg = DefaultConfig("S")
	}
	cfg.Name = c.String()
	return cfg
}

// DefaultConfig returns the standard configuration for a prefix.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:   prefix,
		PadWidth: DefaultPadWidth,
	}
}

func (c Config) name() string {
	if c.Name == "" {
		return c.Prefix
	}
	return c.Name
}

func (c Config) padWidth() int {
	if c.PadWidth <= 0 {
		return DefaultPadWidth
	}
	return c.PadWidth
}

// Len is the exact length of every number produced with this config.
func (c Config) Len() int {
	return len(c.Prefix) + YearWidth + c.padWidth()
}
