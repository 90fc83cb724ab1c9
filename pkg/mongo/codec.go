package mongo

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Field names of the document representation of time.Time. They match the
// layout other MongoDB drivers use for document-shaped date-times, so records
// stay readable across languages.
const (
	timeDateTimeField = "DateTime"
	timeTicksField    = "Ticks"
)

// unixEpochTicks is the number of 100ns ticks between 0001-01-01 and 1970-01-01.
const unixEpochTicks int64 = 621355968000000000

var tTime = reflect.TypeOf(time.Time{})

// NewRegistry returns a BSON registry with the provider's date-time policy:
// time.Time values are stored in UTC as {DateTime: <date>, Ticks: <int64>}.
// Every Provider gets its own registry unless one is injected with
// WithRegistry; the driver's global registry is never modified.
func NewRegistry() *bson.Registry {
	reg := bson.NewRegistry()
	codec := TimeCodec{}
	reg.RegisterTypeEncoder(tTime, codec)
	reg.RegisterTypeDecoder(tTime, codec)
	return reg
}

// TimeCodec encodes time.Time as a UTC document and decodes documents, plain
// BSON datetimes and null.
type TimeCodec struct{}

// EncodeValue implements bson.ValueEncoder.
func (TimeCodec) EncodeValue(_ bson.EncodeContext, vw bson.ValueWriter, val reflect.Value) error {
	if !val.IsValid() || val.Type() != tTime {
		return bson.ValueEncoderError{Name: "TimeCodec.EncodeValue", Types: []reflect.Type{tTime}, Received: val}
	}
	t := val.Interface().(time.Time).UTC()

	dw, err := vw.WriteDocument()
	if err != nil {
		return err
	}
	ew, err := dw.WriteDocumentElement(timeDateTimeField)
	if err != nil {
		return err
	}
	if err := ew.WriteDateTime(t.UnixMilli()); err != nil {
		return err
	}
	ew, err = dw.WriteDocumentElement(timeTicksField)
	if err != nil {
		return err
	}
	if err := ew.WriteInt64(timeToTicks(t)); err != nil {
		return err
	}
	return dw.WriteDocumentEnd()
}

// DecodeValue implements bson.ValueDecoder.
func (TimeCodec) DecodeValue(_ bson.DecodeContext, vr bson.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != tTime {
		return bson.ValueDecoderError{Name: "TimeCodec.DecodeValue", Types: []reflect.Type{tTime}, Received: val}
	}

	var t time.Time
	switch vr.Type() {
	case bson.TypeEmbeddedDocument:
		decoded, err := decodeTimeDocument(vr)
		if err != nil {
			return err
		}
		t = decoded
	case bson.TypeDateTime:
		ms, err := vr.ReadDateTime()
		if err != nil {
			return err
		}
		t = time.UnixMilli(ms).UTC()
	case bson.TypeNull:
		if err := vr.ReadNull(); err != nil {
			return err
		}
	case bson.TypeUndefined:
		if err := vr.ReadUndefined(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("cannot decode BSON %v into time.Time", vr.Type())
	}

	val.Set(reflect.ValueOf(t))
	return nil
}

// decodeTimeDocument prefers Ticks for precision and falls back to DateTime.
func decodeTimeDocument(vr bson.ValueReader) (time.Time, error) {
	dr, err := vr.ReadDocument()
	if err != nil {
		return time.Time{}, err
	}

	var (
		ms, ticks       int64
		hasMS, hasTicks bool
	)
	for {
		name, evr, err := dr.ReadElement()
		if errors.Is(err, bson.ErrEOD) {
			break
		}
		if err != nil {
			return time.Time{}, err
		}
		switch {
		case name == timeDateTimeField && evr.Type() == bson.TypeDateTime:
			if ms, err = evr.ReadDateTime(); err != nil {
				return time.Time{}, err
			}
			hasMS = true
		case name == timeTicksField && evr.Type() == bson.TypeInt64:
			if ticks, err = evr.ReadInt64(); err != nil {
				return time.Time{}, err
			}
			hasTicks = true
		default:
			if err := evr.Skip(); err != nil {
				return time.Time{}, err
			}
		}
	}

	switch {
	case hasTicks:
		return ticksToTime(ticks), nil
	case hasMS:
		return time.UnixMilli(ms).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("time document has neither %s nor %s", timeDateTimeField, timeTicksField)
	}
}

func timeToTicks(t time.Time) int64 {
	return t.Unix()*10_000_000 + int64(t.Nanosecond()/100) + unixEpochTicks
}

func ticksToTime(ticks int64) time.Time {
	ticks -= unixEpochTicks
	sec := ticks / 10_000_000
	rem := ticks % 10_000_000
	if rem < 0 {
		sec--
		rem += 10_000_000
	}
	return time.Unix(sec, rem*100).UTC()
}
