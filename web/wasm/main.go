//go:build js && wasm

package main

import (
	"context"
	"syscall/js"

	"github.com/cwbudde/algo-tempo/playback/graph/webaudio"
	"github.com/cwbudde/algo-tempo/playback/tempo"
)

var (
	processor *tempo.Processor
	funcs     []js.Func
)

func main() {
	p, err := tempo.New(webaudio.Factory())
	if err != nil {
		js.Global().Get("console").Call("error", err.Error())
		return
	}
	processor = p

	api := js.Global().Get("Object").New()
	api.Set("supportsPreservesPitch", export(func([]js.Value) any {
		return tempo.SupportsPreservesPitch()
	}))

	api.Set("connect", export(func(args []js.Value) any {
		if len(args) < 1 {
			return "connect: missing media element"
		}
		if err := processor.Connect(webaudio.MediaElement(args[0])); err != nil {
			return err.Error()
		}
		return js.Null()
	}))

	api.Set("setTempo", export(func(args []js.Value) any {
		if len(args) < 1 {
			return js.Null()
		}
		processor.SetTempo(args[0].Float())
		return js.Null()
	}))

	api.Set("resume", export(func([]js.Value) any {
		return promise(func() error {
			return processor.Resume(context.Background())
		})
	}))

	api.Set("disconnect", export(func([]js.Value) any {
		if err := processor.Disconnect(); err != nil {
			return err.Error()
		}
		return js.Null()
	}))

	api.Set("isConnected", export(func([]js.Value) any {
		return processor.IsConnected()
	}))

	js.Global().Set("AlgoTempo", api)
	select {}
}

func export(fn func([]js.Value) any) js.Func {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		return fn(args)
	})
	funcs = append(funcs, f)
	return f
}

// promise runs fn off the event loop, which Resume needs to wait on the
// AudioContext promise, and settles a JS Promise with its result.
func promise(fn func() error) js.Value {
	var executor js.Func
	executor = js.FuncOf(func(_ js.Value, args []js.Value) any {
		resolve, reject := args[0], args[1]
		go func() {
			defer executor.Release()
			if err := fn(); err != nil {
				reject.Invoke(js.Global().Get("Error").New(err.Error()))
				return
			}
			resolve.Invoke(js.Undefined())
		}()
		return nil
	})
	return js.Global().Get("Promise").New(executor)
}
