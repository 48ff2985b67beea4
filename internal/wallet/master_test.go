package wallet

import (
	"testing"
)

// testPhrase is the BIP-39 test vector mnemonic ("abandon" x11 + "about").
const testPhrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func testMaster(t *testing.T) *Master {
	t.Helper()
	m, err := NewMaster(testPhrase)
	if err != nil {
		t.Fatalf("NewMaster() error: %v", err)
	}
	return m
}

func TestNewMasterKnownAddresses(t *testing.T) {
	m := testMaster(t)

	// Published derivation vectors for the test mnemonic at
	// m/44'/60'/0'/0/{0,1}.
	if got := m.Address().String(); got != "0x9858EfFD232B4033E47d90003D41EC34EcaEda94" {
		t.Errorf("master address = %s", got)
	}

	s1, err := m.DeriveSession(1)
	if err != nil {
		t.Fatalf("DeriveSession(1) error: %v", err)
	}
	if got := s1.Address().String(); got != "0x6Fac4D18c912343BF86fa7049364Dd4E424Ab9C0" {
		t.Errorf("session 1 address = %s", got)
	}
}

func TestNewMasterInvalidPhrase(t *testing.T) {
	tests := []struct {
		name   string
		phrase string
	}{
		{"empty", ""},
		{"gibberish", "not a real mnemonic at all"},
		{"bad checksum", "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMaster(tt.phrase); err == nil {
				t.Error("expected error for invalid phrase")
			}
		})
	}
}

func TestDeriveSessionDeterministic(t *testing.T) {
	m := testMaster(t)

	for _, index := range []uint32{1, 2, 17} {
		a, err := m.DeriveSession(index)
		if err != nil {
			t.Fatalf("DeriveSession(%d) error: %v", index, err)
		}
		b, err := m.DeriveSession(index)
		if err != nil {
			t.Fatalf("DeriveSession(%d) error: %v", index, err)
		}
		if a.Address() != b.Address() {
			t.Errorf("session %d not deterministic: %s != %s", index, a.Address(), b.Address())
		}
	}
}

func TestDeriveSessionDistinctAddresses(t *testing.T) {
	m := testMaster(t)

	seen := make(map[string]uint32)
	for index := uint32(0); index < 10; index++ {
		k, err := m.DeriveSession(index)
		if err != nil {
			t.Fatalf("DeriveSession(%d) error: %v", index, err)
		}
		addr := k.Address().String()
		if prev, dup := seen[addr]; dup {
			t.Fatalf("indices %d and %d derived the same address %s", prev, index, addr)
		}
		seen[addr] = index
	}
}

func TestMasterClear(t *testing.T) {
	m := testMaster(t)
	m.Clear()

	if m.Phrase() != "" {
		t.Error("phrase not cleared")
	}
	if !m.Address().IsZero() {
		t.Error("address not cleared")
	}
	if _, err := m.DeriveSession(1); err == nil {
		t.Error("expected derivation to fail after Clear")
	}
}

func TestGenerateMnemonicIsValid(t *testing.T) {
	phrase, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic() error: %v", err)
	}
	if !ValidateMnemonic(phrase) {
		t.Errorf("generated mnemonic is invalid: %q", phrase)
	}
	if _, err := NewMaster(phrase); err != nil {
		t.Errorf("NewMaster(generated) error: %v", err)
	}
}
