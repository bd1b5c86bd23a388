package ratelimit

import (
	"testing"
	"time"

	"github.com/compresr/bot-gateway/internal/model"
)

func TestPrivateDestinationEnforcesInterArrival(t *testing.T) {
	p := NewPerDestination()
	if !p.AdmitFor("12345", model.DestinationPrivate).Allowed {
		t.Fatal("expected first send to a fresh destination to be allowed")
	}
	p.RecordFor("12345", model.DestinationPrivate)

	a := p.AdmitFor("12345", model.DestinationPrivate)
	if a.Allowed {
		t.Fatal("expected immediate second send to the same private destination to be refused")
	}
}

func TestPrivateDestinationAllowsAfterInterval(t *testing.T) {
	p := NewPerDestination()
	p.RecordFor("12345", model.DestinationPrivate)
	time.Sleep(1100 * time.Millisecond)

	if !p.AdmitFor("12345", model.DestinationPrivate).Allowed {
		t.Fatal("expected send after 1.1s to be allowed")
	}
}

func TestDestinationsAreIndependent(t *testing.T) {
	p := NewPerDestination()
	p.RecordFor("111", model.DestinationPrivate)

	if !p.AdmitFor("222", model.DestinationPrivate).Allowed {
		t.Fatal("expected an unrelated destination to be unaffected by another destination's history")
	}
}

func TestGroupDestinationAllowsUpToTwenty(t *testing.T) {
	p := NewPerDestination()
	for i := 0; i < 20; i++ {
		if !p.AdmitFor("-100", model.DestinationGroup).Allowed {
			t.Fatalf("expected send %d to a group destination to be allowed", i)
		}
		p.RecordFor("-100", model.DestinationGroup)
	}
	if p.AdmitFor("-100", model.DestinationGroup).Allowed {
		t.Fatal("expected 21st send within the window to be refused")
	}
}
