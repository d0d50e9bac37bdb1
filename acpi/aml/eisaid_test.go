package aml

import "testing"

func TestEisaIDRoundTrip(t *testing.T) {
	specs := []string{"PNP0A03", "PNP0C09", "ACP0007", "PNP0C0A"}

	for specIndex, id := range specs {
		compressed, err := EisaIDEncode(id)
		if err != nil {
			t.Fatalf("[spec %d] EisaIDEncode(%q): unexpected error: %v", specIndex, id, err)
		}
		got, err := EisaIDDecode(compressed)
		if err != nil {
			t.Fatalf("[spec %d] EisaIDDecode(0x%x): unexpected error: %v", specIndex, compressed, err)
		}
		if got != id {
			t.Errorf("[spec %d] round trip: want %q; got %q", specIndex, id, got)
		}
	}
}

func TestEisaIDEncodeRejectsBadInput(t *testing.T) {
	specs := []string{
		"PNP0A0",   // too short
		"PNP0A033", // too long
		"pnp0A03",  // lowercase manufacturer letters
		"PNP0AZ3",  // non-hex digit
	}
	for specIndex, id := range specs {
		if _, err := EisaIDEncode(id); err == nil {
			t.Errorf("[spec %d] EisaIDEncode(%q): expected an error", specIndex, id)
		}
	}
}
