package specfile

import (
	"github.com/go-viper/mapstructure/v2"

	"github.com/mrz1836/gobatch/internal/xerrors"
)

// DecodeParams decodes an AdapterSpec's free-form Params map into target,
// a pointer to a concrete struct a registered StepBuilder expects. Uses
// mapstructure so YAML-sourced maps (string keys, loosely typed scalars)
// land on typed Go fields the same way the rest of the ecosystem decodes
// viper-sourced config.
func DecodeParams(params map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return xerrors.Wrap(err, "specfile: build decoder")
	}
	if err := decoder.Decode(params); err != nil {
		return xerrors.Wrap(err, "specfile: decode params")
	}
	return nil
}
