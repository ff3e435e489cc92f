package extract

import (
	"testing"

	"github.com/use-agent/itemscope/models"
)

func record(title string, price int, desc string) *models.ProductRecord {
	rec := &models.ProductRecord{Title: title, Currency: "JPY", Description: desc}
	rec.SetPrice(price)
	return rec
}

func TestGateCheck(t *testing.T) {
	site := Mercari()
	gate := NewGate(1000, false)

	tests := []struct {
		name       string
		rec        *models.ProductRecord
		wantOK     bool
		wantReason string
	}{
		{"complete record", record("Widget A", 12000, "long enough"), true, ""},
		{"empty record", &models.ProductRecord{Currency: "JPY"}, false, RejectEmptyRecord},
		{"missing title", record("", 12000, "desc"), false, RejectMissingTitle},
		{"generic title", record("メルカリ - 日本最大のフリマサービス", 12000, ""), false, RejectGenericTitle},
		{"missing price", record("Widget A", 0, "desc"), false, RejectMissingPrice},
		{"shipping-fee price", record("Widget A", 300, "desc"), false, RejectImplausiblePrice},
		{"boundary price accepted", record("Widget A", 1000, ""), true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := gate.Check(tt.rec, site)
			if ok != tt.wantOK || reason != tt.wantReason {
				t.Errorf("Check = (%v, %q), want (%v, %q)", ok, reason, tt.wantOK, tt.wantReason)
			}
		})
	}
}

// Any price below the threshold must be rejected regardless of the other
// fields.
func TestGateCheck_SubThresholdAlwaysRejected(t *testing.T) {
	gate := NewGate(1000, false)
	site := Mercari()
	for _, price := range []int{1, 100, 500, 999} {
		rec := record("Fully Described Item", price, "a perfectly good description")
		if ok, reason := gate.Check(rec, site); ok || reason != RejectImplausiblePrice {
			t.Errorf("price %d: Check = (%v, %q), want implausible_price rejection", price, ok, reason)
		}
	}
}

func TestGateCheck_RequireDescription(t *testing.T) {
	gate := NewGate(1000, true)
	site := Mercari()

	if ok, reason := gate.Check(record("Widget A", 5000, ""), site); ok || reason != RejectMissingDescription {
		t.Errorf("Check = (%v, %q), want missing_description", ok, reason)
	}
	if ok, _ := gate.Check(record("Widget A", 5000, "described"), site); !ok {
		t.Error("described record should pass")
	}
}
