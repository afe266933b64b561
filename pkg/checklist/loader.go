package checklist

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// LoadFile reads a checklist JSON file in any supported shape and returns the
// normalized requirement list.
func LoadFile(path string) (requirements []Requirement, err error) {
	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read checklist file: %s", path)
		return requirements, err
	}

	var raw interface{}
	err = json.Unmarshal(data, &raw)
	if err != nil {
		err = errors.Wrapf(err, "failed to parse checklist JSON: %s", path)
		return requirements, err
	}

	requirements = Normalize(raw)

	return requirements, err
}
