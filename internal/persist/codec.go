package persist

import (
	"encoding/json"
	"errors"

	"cellevox/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// EncodeRun serializes run to its persisted payload form.
func EncodeRun(run model.RunSummary) ([]byte, error) {
	return json.Marshal(run)
}

// DecodeRun deserializes a payload previously written by EncodeRun,
// rejecting anything whose schema/codec version doesn't match the
// version this build understands.
func DecodeRun(data []byte) (model.RunSummary, error) {
	var run model.RunSummary
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunSummary{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunSummary{}, err
	}
	return run, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
