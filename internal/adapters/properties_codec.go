package adapters

import (
	"bytes"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/magiconair/properties"

	"module-tool/internal/types"
)

// decodeProperties parses a Java properties document. Values are taken
// literally; ${...} references are not expanded.
func decodeProperties(data []byte, source string) (*properties.Properties, error) {
	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	props, err := loader.LoadBytes(data)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse properties " + source).
			WithCause(err)
	}
	return props, nil
}

func encodeProperties(entries []types.Property) ([]byte, error) {
	props := properties.NewProperties()
	props.DisableExpansion = true
	for _, entry := range entries {
		if _, _, err := props.Set(entry.Key, entry.Value); err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid property " + entry.Key).
				WithCause(err)
		}
	}
	var buf bytes.Buffer
	if _, err := props.Write(&buf, properties.UTF8); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode properties").
			WithCause(err)
	}
	return buf.Bytes(), nil
}
