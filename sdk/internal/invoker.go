// Copyright 2026 The taskmill Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package internal

import (
	"context"
	"fmt"
	"reflect"

	"github.com/taskmill/taskmill/api/serde"
	"github.com/taskmill/taskmill/sdk/internal/common"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// invoker calls registered activity functions reflectively, converting the
// decoded invocation arguments to the function's parameter types through
// the serde layer.
type invoker struct {
	typeConverter *serde.TypeConverter
}

func newInvoker(conv serde.BinarySerde) *invoker {
	return &invoker{typeConverter: serde.NewTypeConverter(conv)}
}

// call executes the activity body exactly once. A panic inside the body is
// captured and surfaced as an error; it never reaches the worker.
func (iv *invoker) call(ctx context.Context, fn any, inputs []any) (results []any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("activity panic: %v", r)
		}
	}()

	fnv := reflect.ValueOf(fn)
	fnt := fnv.Type()

	if fnt.NumIn() != len(inputs)+1 { // +1 for the context.Context
		return nil, fmt.Errorf("argument count mismatch: activity expects %d, got %d", fnt.NumIn()-1, len(inputs))
	}
	if fnt.In(0) != contextType {
		return nil, fmt.Errorf("activity function must accept context.Context as its first argument")
	}

	callArgs := make([]reflect.Value, len(inputs)+1)
	callArgs[0] = reflect.ValueOf(ctx)
	for idx, arg := range inputs {
		// Skip the first parameter which is the context
		paramType := fnt.In(idx + 1)
		convertedArg, convErr := iv.typeConverter.ConvertToType(arg, paramType)
		if convErr != nil {
			return nil, fmt.Errorf("failed to convert parameter %d: %w", idx, convErr)
		}
		callArgs[idx+1] = convertedArg
	}

	rawResults := fnv.Call(callArgs)

	// A trailing error return is split off from the value results.
	if n := len(rawResults); n > 0 && fnt.Out(n-1).Implements(errorType) {
		if last := rawResults[n-1]; !last.IsNil() {
			err = last.Interface().(error)
		}
		rawResults = rawResults[:n-1]
	}

	return common.ReflectValuesToAny(rawResults), err
}
