package mdhavers

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// threadSem bounds how many thread_spawn goroutines may run concurrently
// per process, grounded on breadchris-yaegi's use of
// golang.org/x/sync/semaphore.Weighted to cap concurrent interpreter
// goroutines. The language gives scripts no way to configure this, so the
// cap is a generous multiple of GOMAXPROCS rather than a fixed constant.
// thread_spawn returns at once; the spawned goroutine waits for a free
// slot before it runs the function, so a full semaphore delays the thread
// rather than failing the spawn.
var threadSem = semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0)) * 4)

// registerThreadBuiltins wires thread_spawn/join/detach. Only
// NativeFunction values may cross the spawn boundary (spec.md §5, §9):
// user closures capture interpreter-internal Environment state that was
// never designed to be shared across goroutines.
func registerThreadBuiltins(env *Environment) {
	native(env, "thread_spawn", builtinThreadSpawn)
	native(env, "thread_join", builtinThreadJoin)
	native(env, "thread_detach", builtinThreadDetach)
}

func threadHandleValue(t *ThreadHandle) Value {
	return Value{kind: KThreadHandle, ptr: t}
}

func builtinThreadSpawn(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "thread_spawn", args, 2); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KNativeFunction {
		return Value{}, newRuntimeError(sp, "thread_spawn: fn must be a native function (got %s); user closures cannot cross the thread boundary", args[0].Kind())
	}
	if args[1].Kind() != KList {
		return Value{}, newRuntimeError(sp, "thread_spawn: args_list must be a list")
	}
	fn := args[0].NativeFunction()
	callArgs := append([]Value{}, args[1].List().Items...)
	handle := newThreadHandle()

	go func() {
		if err := threadSem.Acquire(context.Background(), 1); err != nil {
			handle.finish(Value{}, err)
			return
		}
		defer threadSem.Release(1)
		result, err := fn.Fn(ev, callArgs, sp)
		handle.finish(result, err)
	}()

	return threadHandleValue(handle), nil
}

func builtinThreadJoin(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "thread_join", args, 1); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KThreadHandle {
		return Value{}, newRuntimeError(sp, "thread_join: argument must be a thread handle")
	}
	v, err := args[0].ThreadHandle().Join()
	if err != nil {
		return Value{}, err
	}
	return v, nil
}

func builtinThreadDetach(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "thread_detach", args, 1); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KThreadHandle {
		return Value{}, newRuntimeError(sp, "thread_detach: argument must be a thread handle")
	}
	args[0].ThreadHandle().Detach()
	return NilValue(), nil
}
