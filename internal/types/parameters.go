package types

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rxtech-lab/argo-optimizer/pkg/errors"
)

// ParameterSet is one assignment of strategy parameter values.
type ParameterSet map[string]any

func (p ParameterSet) Clone() ParameterSet {
	return maps.Clone(p)
}

// Names returns the parameter names in sorted order.
func (p ParameterSet) Names() []string {
	return slices.Sorted(maps.Keys(p))
}

// Key renders the set canonically as "a=1,b=true". Two sets with the same
// values produce the same key regardless of insertion order.
func (p ParameterSet) Key() string {
	var sb strings.Builder

	for i, name := range p.Names() {
		if i > 0 {
			sb.WriteByte(',')
		}

		fmt.Fprintf(&sb, "%s=%v", name, p[name])
	}

	return sb.String()
}

func (p ParameterSet) String() string {
	return p.Key()
}

// Float returns a numeric parameter as float64.
func (p ParameterSet) Float(name string) (float64, error) {
	value, ok := p[name]
	if !ok {
		return 0, errors.Newf(errors.ErrCodeMissingParameter, "parameter %s not set", name)
	}

	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidType, "parameter %s is %T, not a number", name, value)
	}
}

// Int returns a numeric parameter as int. Fractional values are rejected.
func (p ParameterSet) Int(name string) (int, error) {
	value, err := p.Float(name)
	if err != nil {
		return 0, err
	}

	if value != float64(int(value)) {
		return 0, errors.Newf(errors.ErrCodeInvalidType, "parameter %s is %v, not an integer", name, value)
	}

	return int(value), nil
}

func (p ParameterSet) Bool(name string) (bool, error) {
	value, ok := p[name]
	if !ok {
		return false, errors.Newf(errors.ErrCodeMissingParameter, "parameter %s not set", name)
	}

	b, ok := value.(bool)
	if !ok {
		return false, errors.Newf(errors.ErrCodeInvalidType, "parameter %s is %T, not a bool", name, value)
	}

	return b, nil
}

// Decode overlays the set onto out, a pointer to a struct with yaml tags.
// Unknown parameter names are an error.
func (p ParameterSet) Decode(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "yaml",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "failed to create parameter decoder", err)
	}

	if err := decoder.Decode(map[string]any(p)); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "failed to decode parameters %s", p.Key())
	}

	return nil
}

// ParseParameter parses "name=value" into a name and a bool, int or float
// value, falling back to the raw string.
func ParseParameter(raw string) (string, any, error) {
	name, value, ok := strings.Cut(raw, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return "", nil, errors.Newf(errors.ErrCodeInvalidParameter, "parameter %q must be name=value", raw)
	}

	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)

	if i, err := strconv.Atoi(value); err == nil {
		return name, i, nil
	}

	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return name, f, nil
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return name, b, nil
	}

	return name, value, nil
}
