package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// Codec converts snapshots to and from bytes. Unmarshal returns generic
// values: maps decode to map[string]any.
type Codec interface {
	Name() string
	Marshal(value any) ([]byte, error)
	Unmarshal(data []byte) (any, error)
}

// JSONCodec encodes snapshots as JSON. Numbers decode as json.Number so
// integer steps survive unchanged.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(value any) ([]byte, error) {
	return json.Marshal(value)
}

func (JSONCodec) Unmarshal(data []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if decoder.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return value, nil
}

// CBORCodec encodes snapshots with the core deterministic CBOR profile.
type CBORCodec struct{}

var (
	cborOnce    sync.Once
	cborEncMode cbor.EncMode
	cborDecMode cbor.DecMode
	cborErr     error
)

func cborModes() (cbor.EncMode, cbor.DecMode, error) {
	cborOnce.Do(func() {
		cborEncMode, cborErr = cbor.CoreDetEncOptions().EncMode()
		if cborErr != nil {
			return
		}
		cborDecMode, cborErr = cbor.DecOptions{
			DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		}.DecMode()
	})
	return cborEncMode, cborDecMode, cborErr
}

func (CBORCodec) Name() string { return "cbor" }

func (CBORCodec) Marshal(value any) ([]byte, error) {
	enc, _, err := cborModes()
	if err != nil {
		return nil, err
	}
	return enc.Marshal(value)
}

func (CBORCodec) Unmarshal(data []byte) (any, error) {
	_, dec, err := cborModes()
	if err != nil {
		return nil, err
	}
	var value any
	if err := dec.Unmarshal(data, &value); err != nil {
		return nil, err
	}
	return value, nil
}

// CodecByName returns the codec registered under name ("json" or "cbor").
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "cbor":
		return CBORCodec{}, nil
	default:
		return nil, fmt.Errorf("state: unknown codec %q", name)
	}
}
