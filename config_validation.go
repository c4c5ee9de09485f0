package dihelper

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

const tagDefault = "default"

var validate = validator.New(validator.WithRequiredStructEnabled())

// ConfigValidator is implemented by configs with checks beyond their
// `validate` tags. It runs after defaults are applied and tags pass.
type ConfigValidator interface {
	Validate() error
}

// ValidateConfig applies defaults, then checks `validate` struct tags, then
// calls Validate when cfg implements ConfigValidator.
func ValidateConfig(cfg any) error {
	if err := ProcessConfigDefaults(cfg); err != nil {
		return err
	}

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigValidationFailed, err)
	}

	if v, ok := cfg.(ConfigValidator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrConfigValidationFailed, err)
		}
	}
	return nil
}

// ProcessConfigDefaults sets every zero field carrying a `default:"..."` tag.
// Nested structs are walked; nil struct pointers are left alone. A nil
// pointer to a scalar is allocated and set, so a pointer field can tell an
// explicit zero from an absent value.
//
//	type Config struct {
//	    Timeout time.Duration `default:"30s"`
//	    Limit   *int          `default:"20"`
//	}
func ProcessConfigDefaults(cfg any) error {
	if cfg == nil {
		return ErrConfigNil
	}

	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrConfigNotPointer
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return ErrConfigNotStruct
	}

	return processStructDefaults(v)
}

func processStructDefaults(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := processStructDefaults(field); err != nil {
				return err
			}
			continue
		}

		if field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct {
			if !field.IsNil() {
				if err := processStructDefaults(field.Elem()); err != nil {
					return err
				}
			}
			continue
		}

		defaultVal, hasDefault := fieldType.Tag.Lookup(tagDefault)
		if !hasDefault || !field.IsZero() {
			continue
		}

		// A nil pointer means "unset"; a pointer to a zero value is kept.
		target := field
		if field.Kind() == reflect.Ptr {
			target = reflect.New(field.Type().Elem()).Elem()
		}
		if err := setDefaultValue(target, defaultVal); err != nil {
			return fmt.Errorf("failed to set default value for %s: %w", fieldType.Name, err)
		}
		if field.Kind() == reflect.Ptr {
			field.Set(target.Addr())
		}
	}

	return nil
}

// setDefaultValue sets a default value from a string to the proper field type
func setDefaultValue(field reflect.Value, defaultVal string) error {
	if field.Type() == reflect.TypeFor[time.Duration]() {
		d, err := time.ParseDuration(defaultVal)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDefaultValueParseError, err)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(defaultVal)
	case reflect.Bool:
		b, err := strconv.ParseBool(defaultVal)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDefaultValueParseError, err)
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(defaultVal, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDefaultValueParseError, err)
		}
		field.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(defaultVal, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDefaultValueParseError, err)
		}
		field.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(defaultVal, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDefaultValueParseError, err)
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedDefaultType, field.Kind())
	}
	return nil
}
