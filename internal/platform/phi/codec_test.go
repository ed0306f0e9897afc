package phi

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"reflect"
	"testing"
)

func generateTestKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("generate test key: %v", err)
	}
	return key
}

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(generateTestKey(t))
	if err != nil {
		t.Fatalf("create codec: %v", err)
	}
	return c
}

func TestNewCodec(t *testing.T) {
	t.Run("valid 32-byte key", func(t *testing.T) {
		c, err := NewCodec(generateTestKey(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c == nil {
			t.Fatal("expected non-nil codec")
		}
	})

	t.Run("key too short", func(t *testing.T) {
		if _, err := NewCodec(make([]byte, 16)); err == nil {
			t.Fatal("expected error for 16-byte key")
		}
	})

	t.Run("empty key", func(t *testing.T) {
		if _, err := NewCodec(nil); err == nil {
			t.Fatal("expected error for nil key")
		}
	})
}

func TestProtectReveal_RoundTrip(t *testing.T) {
	c := newTestCodec(t)

	cases := []struct {
		name string
		in   map[string]any
	}{
		{"demographics", map[string]any{"name": "John Doe", "age": float64(62), "gender": "male"}},
		{"medical history", map[string]any{"conditions": []any{"hypertension", "diabetes"}, "allergies": []any{}}},
		{"empty map", map[string]any{}},
		{"nested", map[string]any{"contact": map[string]any{"phone": "555-0100", "next_of_kin": "Jane Doe"}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := c.Protect(tc.in)
			if err != nil {
				t.Fatalf("protect: %v", err)
			}

			var out map[string]any
			if err := c.Reveal(token, &out); err != nil {
				t.Fatalf("reveal: %v", err)
			}
			if !reflect.DeepEqual(tc.in, out) {
				t.Errorf("round trip mismatch: got %v, want %v", out, tc.in)
			}
		})
	}
}

func TestProtect_NonDeterministic(t *testing.T) {
	c := newTestCodec(t)
	v := map[string]any{"name": "Jane Doe"}

	t1, err := c.Protect(v)
	if err != nil {
		t.Fatalf("protect: %v", err)
	}
	t2, err := c.Protect(v)
	if err != nil {
		t.Fatalf("protect: %v", err)
	}
	if t1 == t2 {
		t.Error("expected distinct tokens for repeated Protect of the same value")
	}
}

func TestReveal_WrongKey(t *testing.T) {
	c1 := newTestCodec(t)
	c2 := newTestCodec(t)

	token, err := c1.Protect(map[string]any{"name": "John Doe"})
	if err != nil {
		t.Fatalf("protect: %v", err)
	}

	var out map[string]any
	err = c2.Reveal(token, &out)
	if !errors.Is(err, ErrDecodeFailure) {
		t.Errorf("expected ErrDecodeFailure, got %v", err)
	}
}

func TestReveal_TamperedToken(t *testing.T) {
	c := newTestCodec(t)

	token, err := c.Protect(map[string]any{"ssn": "123-45-6789"})
	if err != nil {
		t.Fatalf("protect: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("decode token: %v", err)
	}
	raw[len(raw)-1] ^= 0xFF
	tampered := base64.StdEncoding.EncodeToString(raw)

	var out map[string]any
	if err := c.Reveal(tampered, &out); !errors.Is(err, ErrDecodeFailure) {
		t.Errorf("expected ErrDecodeFailure for tampered token, got %v", err)
	}
}

func TestReveal_MalformedInput(t *testing.T) {
	c := newTestCodec(t)

	cases := []struct {
		name  string
		token string
	}{
		{"not base64", "%%%not-base64%%%"},
		{"too short", base64.StdEncoding.EncodeToString([]byte("short"))},
		{"empty", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out map[string]any
			if err := c.Reveal(tc.token, &out); !errors.Is(err, ErrDecodeFailure) {
				t.Errorf("expected ErrDecodeFailure, got %v", err)
			}
		})
	}
}

func TestRotate(t *testing.T) {
	oldCodec := newTestCodec(t)
	newCodec := newTestCodec(t)

	original := map[string]any{"name": "John Doe", "mrn": "MRN-00012345"}
	token, err := oldCodec.Protect(original)
	if err != nil {
		t.Fatalf("protect: %v", err)
	}

	rotated, err := newCodec.Rotate(oldCodec, token)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}

	var out map[string]any
	if err := newCodec.Reveal(rotated, &out); err != nil {
		t.Fatalf("reveal rotated: %v", err)
	}
	if !reflect.DeepEqual(original, out) {
		t.Errorf("rotated value mismatch: got %v, want %v", out, original)
	}

	// The old codec must no longer be able to read the rotated token.
	if err := oldCodec.Reveal(rotated, &out); !errors.Is(err, ErrDecodeFailure) {
		t.Errorf("expected ErrDecodeFailure under old key, got %v", err)
	}
}
