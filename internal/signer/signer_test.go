package signer

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

const testSeedHex = "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"

func TestLoad_SeedAndFullKeyYieldSameIdentity(t *testing.T) {
	fromSeed, err := Load(testSeedHex)
	if err != nil {
		t.Fatalf("Load(seed) returned error: %v", err)
	}

	seed, _ := hex.DecodeString(testSeedHex)
	full := ed25519.NewKeyFromSeed(seed)
	fromFull, err := Load(hex.EncodeToString(full))
	if err != nil {
		t.Fatalf("Load(full key) returned error: %v", err)
	}

	if fromSeed.IdentityHex() != fromFull.IdentityHex() {
		t.Errorf("identity mismatch: %s vs %s", fromSeed.IdentityHex(), fromFull.IdentityHex())
	}
}

func TestLoad_AcceptsHexPrefixAndWhitespace(t *testing.T) {
	a, err := Load("0x" + testSeedHex)
	if err != nil {
		t.Fatalf("Load with 0x prefix returned error: %v", err)
	}
	b, err := Load("  " + testSeedHex + "\n")
	if err != nil {
		t.Fatalf("Load with whitespace returned error: %v", err)
	}
	if a.IdentityHex() != b.IdentityHex() {
		t.Errorf("identity mismatch across input forms")
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		name string
		key  string
		want error
	}{
		{"empty", "", ErrKeyUnavailable},
		{"not hex", "zzzz", ErrKeyFormat},
		{"wrong length", "abcd", ErrKeyFormat},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(tc.key)
			if !errors.Is(err, tc.want) {
				t.Errorf("Load(%q) error = %v, want %v", tc.key, err, tc.want)
			}
		})
	}
}

func TestLoad_ErrorNeverContainsKeyMaterial(t *testing.T) {
	_, err := Load("abcd")
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "abcd") {
		t.Errorf("error message leaks key material: %s", err.Error())
	}
}

func TestIdentity_DeterministicAnd32Bytes(t *testing.T) {
	s, err := Load(testSeedHex)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	id := s.Identity()
	if len(id) != IdentitySize {
		t.Fatalf("identity length = %d, want %d", len(id), IdentitySize)
	}
	if s.Identity() != id {
		t.Errorf("identity not stable across calls")
	}

	pub := s.Public()
	if hex.EncodeToString(pub[len(pub)-32:]) != s.IdentityHex() {
		t.Errorf("identity is not the trailing 32 bytes of the public key")
	}
}

func TestSign_Deterministic(t *testing.T) {
	s, err := Load(testSeedHex)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	body := []byte(`{"quantity_contracts":"1.5"}`)
	first, err := s.Sign("POST", "https://venue.example/api/v1/orders", body)
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}
	second, err := s.Sign("POST", "https://venue.example/api/v1/orders", body)
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}

	if first != second {
		t.Errorf("signature not deterministic: %s vs %s", first, second)
	}
	if len(first) != hex.EncodedLen(ed25519.SignatureSize) {
		t.Errorf("signature hex length = %d, want %d", len(first), hex.EncodedLen(ed25519.SignatureSize))
	}
}

func TestSign_BodyByteChangeChangesSignature(t *testing.T) {
	s, err := Load(testSeedHex)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	base := []byte(`{"quantity_contracts":"1.5"}`)
	mutated := append([]byte(nil), base...)
	mutated[len(mutated)-2] = '6'

	sigA, _ := s.Sign("POST", "https://venue.example/api/v1/orders", base)
	sigB, _ := s.Sign("POST", "https://venue.example/api/v1/orders", mutated)
	if sigA == sigB {
		t.Errorf("single byte change in body did not change signature")
	}
}

// 校验签名原语与场所侧约定一致：对 SHA-256 摘要做 PureEdDSA 签名，
// 验签时同样以摘要为消息，不存在隐式的二次哈希。
func TestSign_VerifiesAgainstDigestWithoutRehash(t *testing.T) {
	s, err := Load(testSeedHex)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	method, url := "POST", "https://venue.example/api/v1/orders"
	body := []byte(`{"customer_order_id":"abc"}`)

	sigHex, err := s.Sign(method, url, body)
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		t.Fatalf("signature is not hex: %v", err)
	}

	digest := sha256.Sum256(CanonicalMessage(method, url, body))
	if !ed25519.Verify(s.Public(), digest[:], sig) {
		t.Errorf("signature does not verify over the SHA-256 digest")
	}

	full := CanonicalMessage(method, url, body)
	if ed25519.Verify(s.Public(), full, sig) {
		t.Errorf("signature unexpectedly verifies over the raw message")
	}
}

func TestCanonicalMessage_Exact(t *testing.T) {
	got := CanonicalMessage("GET", "https://venue.example/api/v1/contracts", nil)
	want := "GET https://venue.example/api/v1/contracts\n"
	if string(got) != want {
		t.Errorf("CanonicalMessage = %q, want %q", got, want)
	}

	got = CanonicalMessage("POST", "https://venue.example/x", []byte(`{"a":1}`))
	want = "POST https://venue.example/x\n{\"a\":1}"
	if string(got) != want {
		t.Errorf("CanonicalMessage = %q, want %q", got, want)
	}
}
