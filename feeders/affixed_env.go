package feeders

import (
	"encoding"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/golobby/cast"
)

// AffixedEnvFeeder is a feeder that reads environment variables with a prefix and/or suffix.
// A field tagged `env:"SHUTDOWN_TIMEOUT"` is read from PREFIX_SHUTDOWN_TIMEOUT_SUFFIX;
// unset or empty variables leave the field untouched.
type AffixedEnvFeeder struct {
	Prefix string
	Suffix string
}

// NewAffixedEnvFeeder creates a new AffixedEnvFeeder with the specified prefix and suffix
func NewAffixedEnvFeeder(prefix, suffix string) AffixedEnvFeeder {
	return AffixedEnvFeeder{Prefix: prefix, Suffix: suffix}
}

// Feed reads environment variables and populates the provided structure
func (f AffixedEnvFeeder) Feed(structure any) error {
	inputType := reflect.TypeOf(structure)
	if inputType == nil || inputType.Kind() != reflect.Ptr || inputType.Elem().Kind() != reflect.Struct {
		return ErrEnvInvalidStructure
	}
	if f.Prefix == "" && f.Suffix == "" {
		return ErrEnvEmptyPrefixAndSuffix
	}

	return f.processStructFields(reflect.ValueOf(structure).Elem())
}

// FeedKey ignores the section key: environment variables are flat.
func (f AffixedEnvFeeder) FeedKey(_ string, target any) error {
	return f.Feed(target)
}

func (f AffixedEnvFeeder) processStructFields(rv reflect.Value) error {
	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		fieldType := rv.Type().Field(i)

		if err := f.processField(field, &fieldType); err != nil {
			return fmt.Errorf("error in field '%s': %w", fieldType.Name, err)
		}
	}
	return nil
}

func (f AffixedEnvFeeder) processField(field reflect.Value, fieldType *reflect.StructField) error {
	envTag, tagged := fieldType.Tag.Lookup("env")

	switch {
	case tagged:
		return f.setFieldFromEnv(field, envTag)
	case field.Kind() == reflect.Struct:
		return f.processStructFields(field)
	case field.Kind() == reflect.Pointer && !field.IsNil() && field.Elem().Kind() == reflect.Struct:
		return f.processStructFields(field.Elem())
	}
	return nil
}

func (f AffixedEnvFeeder) envName(tag string) string {
	name := strings.ToUpper(tag)
	if f.Prefix != "" {
		name = strings.ToUpper(f.Prefix) + "_" + name
	}
	if f.Suffix != "" {
		name = name + "_" + strings.ToUpper(f.Suffix)
	}
	return name
}

func (f AffixedEnvFeeder) setFieldFromEnv(field reflect.Value, envTag string) error {
	envValue := os.Getenv(f.envName(envTag))
	if envValue == "" {
		return nil
	}
	if !field.CanSet() {
		return ErrEnvFieldNotSettable
	}
	return setFieldValue(field, envValue)
}

// setFieldValue converts strValue to the field's type, allocating pointer
// fields. Durations use
// time.ParseDuration and text unmarshalers are honoured before falling back
// to cast.
func setFieldValue(field reflect.Value, strValue string) error {
	if field.Kind() == reflect.Pointer {
		elem := reflect.New(field.Type().Elem())
		if err := setFieldValue(elem.Elem(), strValue); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}

	if field.Type() == reflect.TypeFor[time.Duration]() {
		d, err := time.ParseDuration(strValue)
		if err != nil {
			return fmt.Errorf("cannot convert value to type %v: %w", field.Type(), err)
		}
		field.SetInt(int64(d))
		return nil
	}

	if u, ok := field.Addr().Interface().(encoding.TextUnmarshaler); ok {
		return u.UnmarshalText([]byte(strValue))
	}

	convertedValue, err := cast.FromType(strValue, field.Type())
	if err != nil {
		return fmt.Errorf("cannot convert value to type %v: %w", field.Type(), err)
	}

	field.Set(reflect.ValueOf(convertedValue).Convert(field.Type()))
	return nil
}
