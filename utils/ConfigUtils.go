package utils

import (
	"fmt"
	"reflect"
	"unicode"

	log "github.com/sirupsen/logrus"
)

const maskedValue = "*****"

// PrintConfig logs every exported leaf of config as key=value. Fields tagged
// `sensitive:"true"` are masked when set.
func PrintConfig(config interface{}) {
	log.Info("Loaded configuration:")
	for _, line := range ConfigEntries(config) {
		log.Info(line)
	}
}

func ConfigEntries(config interface{}) []string {
	var lines []string
	collectEntries("", reflect.ValueOf(config), &lines)
	return lines
}

func collectEntries(prefix string, v reflect.Value, lines *[]string) {
	v = indirect(v)
	if !v.IsValid() || v.Kind() != reflect.Struct {
		return
	}
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		key := lowerFirst(field.Name)
		if prefix != "" {
			key = prefix + "." + key
		}
		value := indirect(v.Field(i))
		if !value.IsValid() {
			*lines = append(*lines, key+"=<nil>")
			continue
		}
		if value.Kind() == reflect.Struct {
			collectEntries(key, value, lines)
			continue
		}
		*lines = append(*lines, fmt.Sprintf("%s=%s", key, formatValue(value, field.Tag.Get("sensitive") == "true")))
	}
}

func indirect(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func formatValue(value reflect.Value, sensitive bool) string {
	if sensitive && !value.IsZero() {
		return maskedValue
	}
	if !value.CanInterface() {
		return ""
	}
	return fmt.Sprintf("%v", value.Interface())
}

func lowerFirst(s string) string {
	runes := []rune(s)
	if len(runes) > 0 {
		runes[0] = unicode.ToLower(runes[0])
	}
	return string(runes)
}
