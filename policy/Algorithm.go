package policy

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAlgorithm is returned when an algorithm tag is not one of
// the supported learning algorithms.
var ErrInvalidAlgorithm = errors.New("invalid algorithm")

// Algorithm determines which learning algorithm a policy is built for.
// REINFORCE policies have only an actor, while actor-critic policies
// also carry a state-value critic.
type Algorithm int

const (
	Reinforce Algorithm = iota
	AC
)

// String implements the fmt.Stringer interface
func (a Algorithm) String() string {
	switch a {
	case Reinforce:
		return "REINFORCE"
	case AC:
		return "AC"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// Valid returns whether a is a known algorithm
func (a Algorithm) Valid() bool {
	return a == Reinforce || a == AC
}

// ParseAlgorithm parses an algorithm tag. Tags are case insensitive;
// "REINFORCE" selects Reinforce and either "AC" or "ActorCritic"
// selects AC.
func ParseAlgorithm(tag string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "reinforce":
		return Reinforce, nil
	case "ac", "actorcritic", "actor-critic":
		return AC, nil
	default:
		return 0, fmt.Errorf("parseAlgorithm: %w: %q", ErrInvalidAlgorithm,
			tag)
	}
}

// MarshalText implements the encoding.TextMarshaler interface
func (a Algorithm) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("marshalText: %w: %d", ErrInvalidAlgorithm,
			int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface
func (a *Algorithm) UnmarshalText(text []byte) error {
	alg, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = alg
	return nil
}
