package mdhavers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainsAcrossKinds(t *testing.T) {
	out := runScript(t, `blether contains("hello world", "wor")
blether contains([1,2,3], 2)
blether contains({"a": 1}, "a")
blether contains(bytes_from_string("abc"), 98)`)
	assert.Equal(t, "aye\naye\naye\naye\n", out)
}

func TestKeysAndValuesPreserveOrder(t *testing.T) {
	out := runScript(t, `ken d = {"z": 1, "a": 2}
blether keys(d)
blether values(d)`)
	assert.Equal(t, "[\"z\", \"a\"]\n[1, 2]\n", out)
}

func TestPushPopOnList(t *testing.T) {
	out := runScript(t, `ken xs = [1,2]
push(xs, 3)
blether xs
blether pop(xs)
blether xs`)
	assert.Equal(t, "[1, 2, 3]\n3\n[1, 2]\n", out)
}

func TestPopOnEmptyListIsRuntimeError(t *testing.T) {
	interp := New()
	err := interp.Run(`pop([])`)
	require.Error(t, err)
}

func TestBytesReadU16BEMatchesFormula(t *testing.T) {
	out := runScript(t, `ken b = bytes(3)
bytes_set(b, 0, 2)
bytes_set(b, 1, 3)
blether bytes_read_u16be(b, 0)`)
	assert.Equal(t, "515\n", out) // 2*256 + 3
}

func TestBytesFromString(t *testing.T) {
	out := runScript(t, `ken b = bytes_from_string("AB")
blether bytes_get(b, 0)
blether bytes_get(b, 1)`)
	assert.Equal(t, "65\n66\n", out)
}

func TestJSONParseRejectsInvalidNumbers(t *testing.T) {
	interp := New()
	err := interp.Run(`json_parse("1e")`)
	require.Error(t, err)

	interp2 := New()
	err2 := interp2.Run(`json_parse("-")`)
	require.Error(t, err2)
}

func TestJSONParseRoundTripsScalarsAndContainers(t *testing.T) {
	out := runScript(t, `ken v = json_parse("{\"a\": [1, 2.5, \"x\", true, false, null]}")
blether v["a"][0]
blether v["a"][1]
blether v["a"][2]`)
	assert.Equal(t, "1\n2.5\nx\n", out)
}

func TestJSONPrettyNonEmptyListOnePerLine(t *testing.T) {
	out := runScript(t, `blether json_pretty([1, 2])`)
	assert.Equal(t, "[\n  1,\n  2\n]\n", out)
}

func TestJSONPrettyEmptyContainers(t *testing.T) {
	out := runScript(t, `blether json_pretty([])
blether json_pretty({})`)
	assert.Equal(t, "[]\n{}\n", out)
}

func TestMedianOddAndEvenCounts(t *testing.T) {
	out := runScript(t, `blether median([3, 1, 2])
blether median([1, 2, 3, 4])`)
	assert.Equal(t, "2.0\n2.5\n", out)
}

func TestMedianRejectsNaN(t *testing.T) {
	interp := New()
	// Float division by zero is itself a runtime error, so the NaN is built
	// as infinity minus infinity instead.
	err := interp.Run(`ken inf = 1e308 * 10.0
ken nan = inf - inf
blether median([1.0, nan])`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NaN")
}

func TestMedianEmptyListIsRuntimeError(t *testing.T) {
	interp := New()
	err := interp.Run(`median([])`)
	require.Error(t, err)
}

func TestGrupUpPreservesFirstSeenKeyOrderAndGroupOrder(t *testing.T) {
	out := runScript(t, `ken g = grup_up(["aa", "b", "ccc", "d"], |x| len(x))
blether keys(g)
blether g["1"]
blether g["2"]`)
	assert.Equal(t, "[\"2\", \"1\", \"3\"]\n[\"b\", \"d\"]\n[\"aa\"]\n", out)
}

func TestPairtByConcatenationIsPermutationPreservingOrder(t *testing.T) {
	out := runScript(t, `ken parts = pairt_by([5,1,4,2,3], |x| x > 2)
blether parts[0]
blether parts[1]`)
	assert.Equal(t, "[5, 4, 3]\n[1, 2]\n", out)
}

func TestStringBuiltins(t *testing.T) {
	out := runScript(t, `blether str_split("a,b,c", ",")
blether str_join(["a","b","c"], "-")
blether str_trim("  hi  ")
blether str_lower("ABC")
blether str_upper("abc")
blether str_find("hello", "ll")
blether str_slice("hello", 1, 3)
blether str_starts_with("hello", "he")
blether str_ends_with("hello", "lo")`)
	assert.Equal(t, "[\"a\", \"b\", \"c\"]\na-b-c\nhi\nabc\nABC\n2\nel\naye\naye\n", out)
}

func TestKindOReportsValueKind(t *testing.T) {
	out := runScript(t, `blether kind_o("s")
blether kind_o(bytes(1))
blether kind_o(1)`)
	assert.Equal(t, "string\nbytes\ninteger\n", out)
}

func TestLogBletherRejectsBadExtrasType(t *testing.T) {
	interp := New()
	err := interp.Run(`log_blether "hi", 5`)
	require.Error(t, err)
}

func TestLogBletherAcceptsDictExtrasAndStringTarget(t *testing.T) {
	interp := New()
	err := interp.Run(`log_init({"filter": "mutter", "sinks": [{"kind": "memory", "max": 10}]})
log_blether "hello", {"n": 1}, "tests.things"`)
	require.NoError(t, err)
}

func TestLogInitRejectsMalformedFilter(t *testing.T) {
	interp := New()
	err := interp.Run(`log_init({"filter": "not-a-real-level"})`)
	require.Error(t, err)
}

func TestLogInitCallbackSinkInvokedSynchronously(t *testing.T) {
	out := runScript(t, `ken seen = []
dae record(payload) {
    push(seen, payload["message"])
    gie naething
}
log_init({"filter": "mutter", "sinks": [{"kind": "callback", "fn": record}]})
log_blether "one"
log_blether "two"
blether seen`)
	assert.Equal(t, "[\"one\", \"two\"]\n", out)
}

func TestSRTPProtectUnprotectRoundTrips(t *testing.T) {
	out := runScript(t, `ken key = bytes(16)
ken salt = bytes(14)
fer i in 0..16 { bytes_set(key, i, i) }
fer i in 0..14 { bytes_set(salt, i, i+1) }
ken ctx = srtp_create({"key": key, "salt": salt})
ken pkt = bytes_from_string("hello rtp")
ken protected = srtp_protect(ctx, pkt)
mak_siccar protected["ok"]
ken recovered = srtp_unprotect(ctx, protected["value"])
mak_siccar recovered["ok"]
blether bytes_to_string(recovered["value"])`)
	assert.Equal(t, "hello rtp\n", out)
}

func TestSIPResolveDefaultPorts(t *testing.T) {
	out := runScript(t, `ken entries = sip_resolve("example.com", "udp")
blether entries[0]["port"]
ken tlsEntries = sip_resolve("example.com", "tls")
blether tlsEntries[0]["port"]`)
	assert.Equal(t, "5060\n5061\n", out)
}

func TestDNSNAPTRIsBestEffortFailure(t *testing.T) {
	out := runScript(t, `ken r = dns_naptr("example.invalid")
blether r["ok"]`)
	assert.Equal(t, "nae\n", out)
}
