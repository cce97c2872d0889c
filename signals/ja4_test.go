package signals

import (
	"testing"

	"github.com/caasmo/fraudgate/db"
)

func TestJA4NetworkCanonicalizesIPv6(t *testing.T) {
	a := ja4Network("::1")
	b := ja4Network("0:0:0:0:0:0:0:1")
	if a != b {
		t.Errorf("canonical forms differ: %q vs %q", a, b)
	}
}

func TestJA4NetworkDiffersBeyond64Bits(t *testing.T) {
	a := ja4Network("2001:db8:1::1")
	b := ja4Network("2001:db8:2::1")
	if a == b {
		t.Errorf("expected different /64 networks, got same: %q", a)
	}
}

func TestJA4NetworkIPv4Exact(t *testing.T) {
	a := ja4Network("1.2.3.4")
	b := ja4Network("1.2.3.5")
	if a == b {
		t.Error("expected distinct IPv4 addresses to not collide")
	}
}

func TestCollectJA4AbsentIsNeutral(t *testing.T) {
	sig := CollectJA4(Deps{}, DefaultConfig().JA4, "", "1.2.3.4", db.JA4Signals{})
	if sig.Present {
		t.Error("expected Present = false when ja4 is empty")
	}
}
