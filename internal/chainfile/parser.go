package chainfile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadChains loads one or more chains from a YAML file. Documents are
// separated by `---`; empty documents are ignored.
func LoadChains(path string) ([]Chain, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	chains, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(chains) == 0 {
		return nil, fmt.Errorf("no chains found in %s", path)
	}
	return chains, nil
}

// Parse decodes every chain document in r.
func Parse(r io.Reader) ([]Chain, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var chains []Chain
	for {
		var c Chain
		if err := dec.Decode(&c); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		// skip completely empty docs
		if c.Name == "" && len(c.Panels) == 0 && len(c.Vars) == 0 {
			continue
		}
		chains = append(chains, c)
	}
	return chains, nil
}
