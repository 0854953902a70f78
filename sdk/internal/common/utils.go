package common

import (
	"fmt"
	"log/slog"
	"reflect"
	"runtime"
)

// ExtractFullFunctionName extracts the function's name with the preceding packages details.
func ExtractFullFunctionName(fn any) (string, error) {
	if reflect.TypeOf(fn).Kind() != reflect.Func {
		return "", fmt.Errorf("fn is not of function type")
	}
	fnObj := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if fnObj == nil {
		return "", fmt.Errorf("could not retrieve function metadata")
	}

	return fnObj.Name(), nil
}

// ReflectValuesToAny unwraps a slice of reflect.Value into plain values.
func ReflectValuesToAny(vals []reflect.Value) []any {
	anySlice := make([]any, len(vals))
	for i, v := range vals {
		anySlice[i] = v.Interface()
	}
	return anySlice
}

// DefaultLogger returns l, or the process default logger when l is nil.
func DefaultLogger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
