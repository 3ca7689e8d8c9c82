package config

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// newStrictDecoder returns a YAML decoder that rejects unknown fields, so a
// typo in the config surfaces as a load error instead of silently defaulting.
func newStrictDecoder(data []byte) *yaml.Decoder {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec
}
