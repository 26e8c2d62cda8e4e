package mdhavers

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha1"
	"fmt"
	"net"
)

// registerNetBuiltins wires the native contracts spec.md §6 requires for
// the self-hosted stdlib/{rtp,sip,rtcp}.braw modules: DNS SRV/NAPTR
// lookup, SIP transport resolution, and an SRTP protect/unprotect pair.
// Fallible calls follow the result-object convention ({ok, value}) rather
// than throwing, grounded on kati's own preference for returning a status
// plus a value from ioutil.go's file-reading helpers rather than panicking.
func registerNetBuiltins(env *Environment) {
	native(env, "dns_srv", builtinDNSSRV)
	native(env, "dns_naptr", builtinDNSNAPTR)
	native(env, "sip_resolve", builtinSIPResolve)
	native(env, "srtp_create", builtinSRTPCreate)
	native(env, "srtp_protect", builtinSRTPProtect)
	native(env, "srtp_unprotect", builtinSRTPUnprotect)
}

func okResult(value Value) Value {
	return DictValueFromPairs([2]interface{}{"ok", BoolValue(true)}, [2]interface{}{"value", value})
}

func failResult(value Value) Value {
	return DictValueFromPairs([2]interface{}{"ok", BoolValue(false)}, [2]interface{}{"value", value})
}

// builtinDNSSRV performs a best-effort SRV lookup via net.LookupSRV.
// Network failure is not a language-level error: it is reported through
// the result-object convention, per spec.md §6.
func builtinDNSSRV(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "dns_srv", args, 2); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KString || args[1].Kind() != KString {
		return Value{}, newRuntimeError(sp, "dns_srv: expects (string, string)")
	}
	service, domain := args[0].AsString(), args[1].AsString()
	_, recs, err := net.LookupSRV("", "", fmt.Sprintf("%s.%s", service, domain))
	if err != nil {
		return failResult(NewList(nil)), nil
	}
	items := make([]Value, len(recs))
	for i, r := range recs {
		items[i] = DictValueFromPairs(
			[2]interface{}{"priority", IntValue(int64(r.Priority))},
			[2]interface{}{"weight", IntValue(int64(r.Weight))},
			[2]interface{}{"port", IntValue(int64(r.Port))},
			[2]interface{}{"target", StringValue(r.Target)},
		)
	}
	return okResult(NewList(items)), nil
}

// builtinDNSNAPTR is always a best-effort miss: the standard library
// exposes no NAPTR resolver and no DNS library appears anywhere in the
// example corpus. It still honours the result-object contract.
func builtinDNSNAPTR(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "dns_naptr", args, 1); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KString {
		return Value{}, newRuntimeError(sp, "dns_naptr: expects (string)")
	}
	return failResult(NewList(nil)), nil
}

func builtinSIPResolve(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "sip_resolve", args, 2); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KString || args[1].Kind() != KString {
		return Value{}, newRuntimeError(sp, "sip_resolve: expects (string, string)")
	}
	host, transport := args[0].AsString(), args[1].AsString()
	port := int64(5060)
	if transport == "tls" {
		port = 5061
	}
	entry := DictValueFromPairs(
		[2]interface{}{"host", StringValue(host)},
		[2]interface{}{"port", IntValue(port)},
		[2]interface{}{"transport", StringValue(transport)},
	)
	return NewList([]Value{entry}), nil
}

// srtpContext holds the key/salt pair an srtp_create call derives its
// cipher and authenticator from.
type srtpContext struct {
	key  []byte
	salt []byte
}

func builtinSRTPCreate(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "srtp_create", args, 1); err != nil {
		return Value{}, err
	}
	if args[0].Kind() != KDict {
		return Value{}, newRuntimeError(sp, "srtp_create: argument must be a dict")
	}
	cfg := args[0].Dict()
	keyV, ok := cfg.Get("key")
	if !ok || keyV.Kind() != KBytes {
		return Value{}, newRuntimeError(sp, "srtp_create: cfg.key must be bytes")
	}
	saltV, ok := cfg.Get("salt")
	if !ok || saltV.Kind() != KBytes {
		return Value{}, newRuntimeError(sp, "srtp_create: cfg.salt must be bytes")
	}
	key := append([]byte{}, keyV.Bytes().Data...)
	if len(key) != 16 {
		return Value{}, newRuntimeError(sp, "srtp_create: key must be 16 bytes, got %d", len(key))
	}
	salt := append([]byte{}, saltV.Bytes().Data...)
	if len(salt) != 14 {
		return Value{}, newRuntimeError(sp, "srtp_create: salt must be 14 bytes, got %d", len(salt))
	}
	return NativeObjectValue("srtp_context", &srtpContext{key: key, salt: salt}), nil
}

// srtpIV derives a 16-byte CTR counter from the 14-byte salt, zero-padded.
// This is not RFC 3711's per-packet key derivation (which folds in the
// SSRC and packet index); it is a deliberately simplified contract whose
// only required property (spec.md §8) is that protect then unprotect with
// matching keys reproduces the original packet byte-for-byte.
func srtpIV(salt []byte) []byte {
	iv := make([]byte, aes.BlockSize)
	copy(iv, salt)
	return iv
}

func srtpCipher(ctx *srtpContext) (cipher.Stream, error) {
	block, err := aes.NewCipher(ctx.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewCTR(block, srtpIV(ctx.salt)), nil
}

const srtpTagLen = 10

func srtpTag(ctx *srtpContext, data []byte) []byte {
	h := hmac.New(sha1.New, ctx.key)
	h.Write(data)
	return h.Sum(nil)[:srtpTagLen]
}

func builtinSRTPProtect(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "srtp_protect", args, 2); err != nil {
		return Value{}, err
	}
	ctx, err := srtpContextArg(args[0], sp, "srtp_protect")
	if err != nil {
		return Value{}, err
	}
	if args[1].Kind() != KBytes {
		return Value{}, newRuntimeError(sp, "srtp_protect: packet must be bytes")
	}
	plain := args[1].Bytes().Data
	stream, err := srtpCipher(ctx)
	if err != nil {
		return Value{}, newRuntimeError(sp, "srtp_protect: %s", err)
	}
	cipherText := make([]byte, len(plain))
	stream.XORKeyStream(cipherText, plain)
	tag := srtpTag(ctx, cipherText)
	out := append(cipherText, tag...)
	return okResult(BytesFromSlice(out)), nil
}

func builtinSRTPUnprotect(ev *Evaluator, args []Value, sp Span) (Value, error) {
	if err := checkArgc(sp, "srtp_unprotect", args, 2); err != nil {
		return Value{}, err
	}
	ctx, err := srtpContextArg(args[0], sp, "srtp_unprotect")
	if err != nil {
		return Value{}, err
	}
	if args[1].Kind() != KBytes {
		return Value{}, newRuntimeError(sp, "srtp_unprotect: packet must be bytes")
	}
	data := args[1].Bytes().Data
	if len(data) < srtpTagLen {
		return failResult(NewBytes(0)), nil
	}
	cipherText := data[:len(data)-srtpTagLen]
	gotTag := data[len(data)-srtpTagLen:]
	wantTag := srtpTag(ctx, cipherText)
	if !hmac.Equal(gotTag, wantTag) {
		return failResult(NewBytes(0)), nil
	}
	stream, err := srtpCipher(ctx)
	if err != nil {
		return Value{}, newRuntimeError(sp, "srtp_unprotect: %s", err)
	}
	plain := make([]byte, len(cipherText))
	stream.XORKeyStream(plain, cipherText)
	return okResult(BytesFromSlice(plain)), nil
}

func srtpContextArg(v Value, sp Span, fname string) (*srtpContext, error) {
	if v.Kind() != KNativeObject || v.NativeObject().KindName != "srtp_context" {
		return nil, newRuntimeError(sp, "%s: first argument must be an srtp context", fname)
	}
	return v.NativeObject().Data.(*srtpContext), nil
}
