package utils

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// jsonAPI escapes HTML so token values echoed in error data stay inert when
// a browser renders them.
var jsonAPI = sonic.Config{
	EscapeHTML:       true,
	CompactMarshaler: true,
}.Froze()

func Marshal(data interface{}) ([]byte, error) {
	return jsonAPI.Marshal(data)
}

func Unmarshal[T any](data []byte, target *T) error {
	return jsonAPI.Unmarshal(data, target)
}

// UnmarshalConfig decodes a backend's loosely typed cache.config block (as
// produced by the yaml loader) into its typed options.
func UnmarshalConfig[T any](config interface{}, target *T) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	if typed, ok := config.(*T); ok {
		*target = *typed
		return nil
	}

	configBytes, err := jsonAPI.Marshal(config)
	if err != nil {
		return err
	}

	return jsonAPI.Unmarshal(configBytes, target)
}

// SonicCodec is the JSON codec handed to failure handlers.
type SonicCodec struct{}

func (SonicCodec) Marshal(v interface{}) ([]byte, error) {
	return Marshal(v)
}
