package evolve

import (
	"fmt"
	"strings"
)

// Strategy selects the mutation base vector and crossover scheme of the
// differential evolution, named DE/base/1/crossover.
type Strategy int

const (
	// Best1Bin mutates around the best member and uses binomial crossover.
	// Converges fast; more prone to settling in a local minimum.
	Best1Bin Strategy = iota
	// Rand1Exp mutates around a random member and uses exponential crossover.
	// Slower, explores more of the box.
	Rand1Exp
	// Best1Exp mutates around the best member and uses exponential crossover.
	Best1Exp
	// Rand1Bin mutates around a random member and uses binomial crossover.
	Rand1Bin
	// RandToBest1Bin pulls a random member towards the best one before the
	// difference step, with binomial crossover.
	RandToBest1Bin
)

type baseVector int

const (
	baseBest baseVector = iota
	baseRand
	baseRandToBest
)

type crossoverKind int

const (
	crossoverBinomial crossoverKind = iota
	crossoverExponential
)

type strategyInfo struct {
	name      string
	base      baseVector
	crossover crossoverKind
}

var strategies = map[Strategy]strategyInfo{
	Best1Bin:       {"best1bin", baseBest, crossoverBinomial},
	Rand1Exp:       {"rand1exp", baseRand, crossoverExponential},
	Best1Exp:       {"best1exp", baseBest, crossoverExponential},
	Rand1Bin:       {"rand1bin", baseRand, crossoverBinomial},
	RandToBest1Bin: {"randtobest1bin", baseRandToBest, crossoverBinomial},
}

// Strategies returns every supported strategy in declaration order.
func Strategies() []Strategy {
	return []Strategy{Best1Bin, Rand1Exp, Best1Exp, Rand1Bin, RandToBest1Bin}
}

// Valid reports whether s is one of the declared strategies.
func (s Strategy) Valid() bool {
	_, ok := strategies[s]
	return ok
}

func (s Strategy) String() string {
	if info, ok := strategies[s]; ok {
		return info.name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy maps a strategy name such as "best1bin" to its Strategy.
// Matching is case-insensitive.
func ParseStrategy(name string) (Strategy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for s, info := range strategies {
		if info.name == n {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown strategy %q", ErrBadSettings, name)
}

// MarshalText implements encoding.TextMarshaler so strategies serialise by name.
func (s Strategy) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: invalid strategy %d", ErrBadSettings, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
