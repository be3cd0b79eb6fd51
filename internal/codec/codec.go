package codec

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"howett.net/plist"
)

// Codec serializes values to and from a wire format.
type Codec interface {
	Name() string
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

var (
	// JSON encodes binary as base64 and Timestamp as seconds since the epoch.
	JSON Codec = jsonCodec{}
	// PList encodes XML property lists.
	PList Codec = plistCodec{}
	YAML  Codec = yamlCodec{}
	TOML  Codec = tomlCodec{}
)

type jsonCodec struct{}

func (jsonCodec) Name() string        { return "json" }
func (jsonCodec) ContentType() string { return "application/json; charset=UTF-8" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json encode: %w", err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := sonic.ConfigStd.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}
	return nil
}

type plistCodec struct{}

func (plistCodec) Name() string        { return "plist" }
func (plistCodec) ContentType() string { return "application/x-plist" }

func (plistCodec) Marshal(v any) ([]byte, error) {
	data, err := plist.Marshal(v, plist.XMLFormat)
	if err != nil {
		return nil, fmt.Errorf("plist encode: %w", err)
	}
	return data, nil
}

func (plistCodec) Unmarshal(data []byte, v any) error {
	if _, err := plist.Unmarshal(data, v); err != nil {
		return fmt.Errorf("plist decode: %w", err)
	}
	return nil
}

type yamlCodec struct{}

func (yamlCodec) Name() string        { return "yaml" }
func (yamlCodec) ContentType() string { return "application/x-yaml" }

func (yamlCodec) Marshal(v any) ([]byte, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yaml encode: %w", err)
	}
	return data, nil
}

func (yamlCodec) Unmarshal(data []byte, v any) error {
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("yaml decode: %w", err)
	}
	return nil
}

type tomlCodec struct{}

func (tomlCodec) Name() string        { return "toml" }
func (tomlCodec) ContentType() string { return "application/toml" }

func (tomlCodec) Marshal(v any) ([]byte, error) {
	data, err := toml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("toml encode: %w", err)
	}
	return data, nil
}

func (tomlCodec) Unmarshal(data []byte, v any) error {
	if err := toml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("toml decode: %w", err)
	}
	return nil
}

// ForName returns the codec registered under name.
func ForName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON, true
	case "plist":
		return PList, true
	case "yaml", "yml":
		return YAML, true
	case "toml":
		return TOML, true
	default:
		return nil, false
	}
}
