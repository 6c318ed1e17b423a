// Package numerator provides domain contracts for document auto-numbering.
package numerator

// Strategy defines how the next suffix is found.
type Strategy int

const (
	// StrategyScan reads the highest existing value of the numbered column
	// under a transaction-scoped lock. Numbers stay gapless and survive
	// manual inserts, at the cost of one index scan per allocation.
	StrategyScan Strategy = iota

	// StrategySequence keeps a dedicated counter row in sys_sequences.
	// Cheaper under contention; rows inserted outside the allocator are
	// not seen.
	StrategySequence
)

// DefaultPadWidth is the minimum width of the numeric suffix.
const DefaultPadWidth = 4

// Config describes one numbered column.
type Config struct {
	// Table and Field identify the column holding issued numbers.
	Table string
	Field string

	// Prefix added to all numbers (e.g., "PED", "FAC")
	Prefix string

	// IncludeYear inserts the period year: PREFIX-YYYY-NNNN.
	IncludeYear bool

	// PadWidth is the minimum suffix width (default 4)
	PadWidth int

	Strategy Strategy
}

// YearlyConfig returns a PREFIX-YYYY-NNNN configuration.
func YearlyConfig(table, field, prefix string) Config {
	return Config{
		Table:       table,
		Field:       field,
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    DefaultPadWidth,
	}
}

// PlainConfig returns a PREFIX-NNNN configuration.
func PlainConfig(table, field, prefix string) Config {
	return Config{
		Table:    table,
		Field:    field,
		Prefix:   prefix,
		PadWidth: DefaultPadWidth,
	}
}

// SequenceConfig describes an integer counter scoped by another column,
// e.g. journal entry numbers restarting every fiscal year.
type SequenceConfig struct {
	Table      string
	Field      string
	ScopeField string
	ScopeValue any
}
