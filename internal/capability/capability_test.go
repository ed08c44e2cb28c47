package capability

import (
	"testing"
)

func TestSetAdd(t *testing.T) {
	var s Set
	s.Add(Filesystem)
	if !s.Has(Filesystem) {
		t.Fatal("expected Filesystem to be set")
	}
	if s.Has(Network) {
		t.Fatal("Network should not be set")
	}

	s.Add(Filesystem)
	if len(s.List()) != 1 {
		t.Fatal("Add should be idempotent")
	}
}

func TestSetMerge(t *testing.T) {
	var a, b Set
	a.Add(Filesystem)
	b.Add(Network)
	b.Add(Unanalyzed)
	a.Merge(b)

	for _, c := range []Capability{Filesystem, Network, Unanalyzed} {
		if !a.Has(c) {
			t.Errorf("merged set missing %s", c)
		}
	}
	if !a.Contains(b) {
		t.Error("merged set should contain every member of b")
	}
}

func TestListDeclarationOrder(t *testing.T) {
	s := Of(Unanalyzed, Filesystem, FFI)
	got := s.Names()
	want := []string{"FILESYSTEM", "FFI", "UNANALYZED"}
	if len(got) != len(want) {
		t.Fatalf("List returned %d members, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestByNameRoundTrip(t *testing.T) {
	for _, c := range All() {
		got, ok := ByName(c.String())
		if !ok || got != c {
			t.Errorf("ByName(%q) = %v, %v; want %v, true", c.String(), got, ok, c)
		}
	}
	if _, ok := ByName("NOT_A_CAPABILITY"); ok {
		t.Error("ByName accepted an unknown name")
	}
}

func TestAllCoversTaxonomy(t *testing.T) {
	if len(All()) != 8 {
		t.Fatalf("taxonomy has %d members, want 8", len(All()))
	}
}

func TestKindMax(t *testing.T) {
	tests := []struct {
		a, b, want Kind
	}{
		{KindDirect, KindTransitive, KindDirect},
		{KindTransitive, KindDirect, KindDirect},
		{KindTransitive, KindTransitive, KindTransitive},
		{KindUnspecified, KindTransitive, KindTransitive},
	}
	for _, tt := range tests {
		if got := tt.a.Max(tt.b); got != tt.want {
			t.Errorf("%s.Max(%s) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
}
