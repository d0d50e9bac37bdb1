package aml

import "testing"

func TestBCDRoundTrip(t *testing.T) {
	specs := []uint64{0, 1, 9, 10, 99, 100, 1234, 9999999999999999}

	for specIndex, dec := range specs {
		packed, err := binaryToBCD(dec)
		if err != nil {
			t.Fatalf("[spec %d] binaryToBCD(%d): unexpected error: %v", specIndex, dec, err)
		}
		got, err := bcdToBinary(packed)
		if err != nil {
			t.Fatalf("[spec %d] bcdToBinary(0x%x): unexpected error: %v", specIndex, packed, err)
		}
		if got != dec {
			t.Errorf("[spec %d] round trip: want %d; got %d (packed 0x%x)", specIndex, dec, got, packed)
		}
	}
}

func TestBCDInvalidDigit(t *testing.T) {
	if _, err := bcdToBinary(0xA); err == nil {
		t.Fatal("expected an error for a packed nibble above 9")
	}
}

func TestBCDOverflow(t *testing.T) {
	if _, err := binaryToBCD(10000000000000000); err == nil {
		t.Fatal("expected an error for a value with more than 16 decimal digits")
	}
}
