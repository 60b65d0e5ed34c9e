package forecast

import "testing"

// TestParameterTableBijection verifies the provider-id to column table is an
// exact bijection over the ten fields.
func TestParameterTableBijection(t *testing.T) {
	if len(Parameters) != 10 {
		t.Fatalf("expected 10 parameters, got %d", len(Parameters))
	}

	providerIDs := make(map[string]struct{})
	columns := make(map[string]struct{})
	for _, p := range Parameters {
		if _, dup := providerIDs[p.ProviderID]; dup {
			t.Errorf("duplicate provider id %q", p.ProviderID)
		}
		if _, dup := columns[p.Column]; dup {
			t.Errorf("duplicate column %q", p.Column)
		}
		providerIDs[p.ProviderID] = struct{}{}
		columns[p.Column] = struct{}{}
	}

	// Every entry must round-trip through assign/value.
	for _, p := range Parameters {
		var ps ParameterSet
		if got := p.Value(&ps); got != nil {
			t.Errorf("%s: fresh set should have nil value", p.Column)
		}
		p.Assign(&ps, 42.5)
		got := p.Value(&ps)
		if got == nil || *got != 42.5 {
			t.Errorf("%s: assign/value round trip failed, got %v", p.Column, got)
		}
	}
}

// TestProviderIDsOrder verifies the request list preserves table order, so
// the request builder and the normalizer cannot drift apart.
func TestProviderIDsOrder(t *testing.T) {
	ids := ProviderIDs()
	if len(ids) != len(Parameters) {
		t.Fatalf("expected %d ids, got %d", len(Parameters), len(ids))
	}
	for i, p := range Parameters {
		if ids[i] != p.ProviderID {
			t.Errorf("position %d: expected %q, got %q", i, p.ProviderID, ids[i])
		}
	}

	if ids[0] != "wind_speed_10m:ms" || ids[len(ids)-1] != "precip_24h:mm" {
		t.Errorf("unexpected request order: %v", ids)
	}
}
