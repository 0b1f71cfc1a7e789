// Package templating renders a configuration file as a text/template before it
// is decoded, so values can be taken from the environment:
//
//	base_dir: {{ default (env "LOG_DIR") "/app/logs" }}
//	name: {{ required (env "SERVICE_NAME") }}_{{ hostname }}
package templating

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"text/template"
)

// OptionalString is the result of env. It renders as an empty string when the
// variable is not set, but default and required can tell it apart from an
// empty value.
type OptionalString struct {
	ptr *string
}

func (s OptionalString) String() string {
	if s.ptr == nil {
		return ""
	}
	return *s.ptr
}

var funcMap = template.FuncMap{
	"env":      Env,
	"default":  Default,
	"required": Required,
	"hostname": Hostname,
}

// Env looks up an environment variable.
func Env(key string) OptionalString {
	value, ok := os.LookupEnv(key)
	if !ok {
		return OptionalString{nil}
	}
	return OptionalString{&value}
}

// Hostname is the machine's host name, or "unknown".
func Hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}

// present reports the string held by arg and if it holds one at all.
func present(arg interface{}) (string, bool, error) {
	switch v := arg.(type) {
	case nil:
		return "", false, nil
	case string:
		return v, true, nil
	case *string:
		if v == nil {
			return "", false, nil
		}
		return *v, true, nil
	case OptionalString:
		if v.ptr == nil {
			return "", false, nil
		}
		return *v.ptr, true, nil
	default:
		return "", false, fmt.Errorf("unsupported type '%T'", v)
	}
}

// Default returns the first argument that holds a value.
func Default(args ...interface{}) (string, error) {
	for _, arg := range args {
		value, ok, err := present(arg)
		if err != nil {
			return "", fmt.Errorf("Default: %s", err)
		}
		if ok {
			return value, nil
		}
	}
	return "", errors.New("Default: all arguments are nil")
}

// Required fails the render when arg holds no value.
func Required(arg interface{}) (string, error) {
	value, ok, err := present(arg)
	if err != nil {
		return "", fmt.Errorf("Required: %s", err)
	}
	if !ok {
		return "", errors.New("Required argument is missing")
	}
	return value, nil
}

// GenerateTemplate will action all the functions on the configuration file
func GenerateTemplate(source []byte) ([]byte, error) {
	tplt, err := template.New("configfile").Funcs(funcMap).Parse(string(source))
	if err != nil {
		return nil, fmt.Errorf("failed to create template. Error: %s", err)
	}

	var buffer bytes.Buffer
	if err = tplt.Execute(&buffer, nil); err != nil {
		return nil, fmt.Errorf("failed to transform template. Error: %s", err)
	}
	return buffer.Bytes(), nil
}
