package config

import (
	"encoding/json"
	"io"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// Read reads and validates the scene file at path.
func Read(path string) (*Scene, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return FromReader(path, f)
}

// FromReader reads a scene from the given reader and specifies where, if applicable, the file the reader
// originated from. Mesh files of the scene are resolved against that file's directory.
//
// Values may be given as strings where a number or boolean is expected, and the timeout accepts Go
// duration strings such as "250ms". Unknown keys are an error.
func FromReader(originalPath string, r io.Reader) (*Scene, error) {
	var attrs map[string]interface{}
	if err := json.NewDecoder(r).Decode(&attrs); err != nil {
		return nil, errors.Wrap(err, "failed to decode scene from json")
	}

	scene := &Scene{ConfigFilePath: originalPath}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		Result:           scene,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attrs); err != nil {
		return nil, errors.Wrap(err, "failed to decode scene")
	}
	if err := scene.Validate("scene"); err != nil {
		return nil, err
	}
	return scene, nil
}
