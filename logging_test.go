package mdhavers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilterDefaultAndPerTarget(t *testing.T) {
	spec, err := parseFilter("mutter,tests.thing=yatter")
	require.NoError(t, err)
	assert.Equal(t, LevelInfo, spec.defaultLevel)
	assert.Equal(t, LevelDebug, spec.thresholdFor("tests.thing"))
	assert.Equal(t, LevelInfo, spec.thresholdFor("tests.other"))
}

func TestParseFilterRejectsUnknownLevel(t *testing.T) {
	_, err := parseFilter("daftie")
	require.Error(t, err)
}

func TestParseFilterRejectsEmptyTarget(t *testing.T) {
	_, err := parseFilter("=yatter")
	require.Error(t, err)
}

func TestParseFilterEmptyStringIsDefaultSpec(t *testing.T) {
	spec, err := parseFilter("")
	require.NoError(t, err)
	assert.Equal(t, LevelDebug, spec.defaultLevel)
}

func TestLogInitRejectsNonDictArgument(t *testing.T) {
	interp := New()
	err := interp.Run(`log_init("mutter")`)
	require.Error(t, err)
}

func TestLogInitRejectsUnknownSinkKind(t *testing.T) {
	interp := New()
	err := interp.Run(`log_init({"sinks": [{"kind": "carrier-pigeon"}]})`)
	require.Error(t, err)
}

func TestLogBletherBelowThresholdIsSuppressed(t *testing.T) {
	out := runScript(t, `ken seen = []
dae record(payload) {
    push(seen, payload["message"])
    gie naething
}
log_init({"filter": "wheesht", "sinks": [{"kind": "callback", "fn": record}]})
log_blether "quiet please"
blether seen`)
	assert.Equal(t, "[]\n", out)
}

func TestLogBletherStringExtrasBecomesTargetWhenNoExplicitTarget(t *testing.T) {
	out := runScript(t, `ken seen = []
dae record(payload) {
    push(seen, payload["target"])
    gie naething
}
log_init({"filter": "tests.area=mutter", "sinks": [{"kind": "callback", "fn": record}]})
log_blether "hi", "tests.area"
blether seen`)
	assert.Equal(t, "[\"tests.area\"]\n", out)
}

func TestLogBletherMergesDictExtrasIntoPayload(t *testing.T) {
	out := runScript(t, `ken seen = []
dae record(payload) {
    push(seen, payload["n"])
    gie naething
}
log_init({"filter": "mutter", "sinks": [{"kind": "callback", "fn": record}]})
log_blether "hi", {"n": 7}
blether seen`)
	assert.Equal(t, "[7]\n", out)
}

func TestLogBletherRejectsNonStringTarget(t *testing.T) {
	interp := New()
	err := interp.Run(`log_init({"filter": "mutter"})
log_blether "hi", {"n": 1}, 5`)
	require.Error(t, err)
}
