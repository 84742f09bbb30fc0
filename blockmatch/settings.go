package blockmatch

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// saveSettings serializes a matcher's complete named field set as JSON.
// Boolean parameters are stored as 0 or 1.
func saveSettings(m Matcher, path string) error {
	values := make(map[string]float64, len(m.Fields()))
	for _, field := range m.Fields() {
		v, err := m.Get(field)
		if err != nil {
			return err
		}
		values[field] = v
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding block matcher settings")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing settings file %s", path)
	}
	return nil
}

// readSettings decodes a settings file and checks that every expected field
// is present before any of them is applied.
func readSettings(path string, fields []string) (map[string]float64, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading settings file %s", path)
	}
	values := map[string]float64{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, errors.Wrapf(err, "parsing settings file %s", path)
	}
	for _, field := range fields {
		if _, ok := values[field]; !ok {
			return nil, errors.Errorf("settings file %s is missing parameter %q", path, field)
		}
	}
	return values, nil
}
