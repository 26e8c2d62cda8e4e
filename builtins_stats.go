package mdhavers

import (
	"math"
	"sort"
)

// registerStatsBuiltins wires median, the sole aggregate spec.md §3 and §8
// call out by name: aggregates that meet NaN must fail with an explicit
// error rather than silently propagate it.
func registerStatsBuiltins(env *Environment) {
	native(env, "median", builtinMedian)
}

func builtinMedian(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "median", args, 1); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KList {
		return Value{}, newRuntimeError(sp, "median: argument must be a list")
	}
	items := args[0].List().Items
	if len(items) == 0 {
		return Value{}, newRuntimeError(sp, "median: list is empty")
	}
	nums := make([]float64, len(items))
	for i, it := range items {
		f, ok := numeric(it)
		if !ok {
			return Value{}, newRuntimeError(sp, "median: element %d is not numeric (%s)", i, it.Kind())
		}
		if math.IsNaN(f) {
			return Value{}, newRuntimeError(sp, "median: NaN encountered at element %d", i)
		}
		nums[i] = f
	}
	sort.Float64s(nums)
	n := len(nums)
	if n%2 == 1 {
		return FloatValue(nums[n/2]), nil
	}
	return FloatValue((nums[n/2-1] + nums[n/2]) / 2), nil
}
