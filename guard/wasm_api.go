//go:build js && wasm

package guard

import (
	"fmt"
	"github.com/cottand/typeguard/builder"
	"github.com/cottand/typeguard/config"
	"github.com/cottand/typeguard/guarderr"
	"github.com/cottand/typeguard/metrics"
	"github.com/cottand/typeguard/object"
	"github.com/cottand/typeguard/resolve"
	"github.com/cottand/typeguard/typemodel"
	"strings"
	"syscall/js"
)

// describeAnnotation parses its argument and returns the type tree
func describeAnnotation(_ js.Value, args []js.Value) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
	}
	return Describe(args[0].String())
}

// checkSignatures builds a YAML signature file and resolves it against the
// builtin types and the types it declares.
//
// output: { errors: string[], methods: number }
func checkSignatures(_ js.Value, args []js.Value) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
	}
	defs, buildErrs, err := builder.BuildSignatures("signatures.yml", []byte(args[0].String()))
	if err != nil {
		return nil, err
	}
	var found []any
	for _, e := range buildErrs.Errors() {
		found = append(found, guarderr.FormatWithCode(e))
	}

	ns := object.New()
	Declare(ns, defs)
	registry := metrics.NewRegistry()
	resolved, err := resolve.New(ns, config.Resolution{}, registry).Resolve(defs)
	if err != nil {
		return nil, err
	}
	for _, v := range registry.Violations() {
		found = append(found, strings.TrimPrefix(v.Format(), "- "))
	}
	return map[string]any{
		"errors":  found,
		"methods": typemodel.CountMethods(resolved),
	}, nil
}

// asPromise implemented based on
// https://stackoverflow.com/questions/67437284/how-to-throw-js-error-from-go-web-assembly
//
// It takes a normal JS-API function that also returns an error, and returns function
// that returns a promise which
// completes when the function completes, and can be used to catch errors, if any
func asPromise(function func(js.Value, []js.Value) (any, error)) any {
	return js.FuncOf(func(this js.Value, args []js.Value) any {
		handler := js.FuncOf(func(_ js.Value, promiseArgs []js.Value) any {
			resolve := promiseArgs[0]
			reject := promiseArgs[1]

			go func() {
				defer func() {
					if r := recover(); r != nil {
						errorConstructor := js.Global().Get("Error")
						errorObject := errorConstructor.New(fmt.Sprintf("%s", r))
						reject.Invoke(errorObject)
					}
				}()

				data, err := function(this, args)
				if err != nil {
					errorConstructor := js.Global().Get("Error")
					errorObject := errorConstructor.New(err.Error())
					reject.Invoke(errorObject)
				} else {
					resolve.Invoke(js.ValueOf(data))
				}
			}()

			return nil
		})
		promiseConstructor := js.Global().Get("Promise")
		return promiseConstructor.New(handler)
	})
}

var (
	DescribeAnnotation = asPromise(describeAnnotation)
	CheckSignatures    = asPromise(checkSignatures)
)
