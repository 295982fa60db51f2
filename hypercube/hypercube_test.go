package hypercube

import (
	"math/big"
	"testing"
)

func bigStr(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad big int literal: " + s)
	}
	return n
}

func TestLayerSizeSmallCases(t *testing.T) {
	testCases := []struct {
		w, v, d  int
		expected string
	}{
		// w=2, v=1: two vertices total, one per layer.
		{2, 1, 0, "1"},
		{2, 1, 1, "1"},

		// w=3, v=2: 9 vertices total across layers 0..4.
		{3, 2, 0, "1"},
		{3, 2, 1, "2"},
		{3, 2, 2, "3"},
		{3, 2, 3, "2"},
		{3, 2, 4, "1"},

		// w=2, v=3: 8 vertices total across layers 0..3 (binomial row).
		{2, 3, 0, "1"},
		{2, 3, 1, "3"},
		{2, 3, 2, "3"},
		{2, 3, 3, "1"},

		// out of range layers are exactly zero, not an error.
		{2, 3, -1, "0"},
		{2, 3, 4, "0"},
	}

	for _, tc := range testCases {
		got := LayerSize(tc.d, tc.v, tc.w)
		want := bigStr(tc.expected)
		if got.Cmp(want) != 0 {
			t.Errorf("LayerSize(%d, %d, %d) = %s, want %s", tc.d, tc.v, tc.w, got, want)
		}
	}
}

func TestLayerSizeSumsToWV(t *testing.T) {
	for _, tc := range []struct{ w, v int }{{2, 1}, {3, 2}, {2, 3}, {4, 3}, {5, 4}} {
		total := UnionSize(tc.v*(tc.w-1), tc.v, tc.w)
		want := new(big.Int).Exp(big.NewInt(int64(tc.w)), big.NewInt(int64(tc.v)), nil)
		if total.Cmp(want) != 0 {
			t.Errorf("sum of all layers for w=%d v=%d = %s, want w^v = %s", tc.w, tc.v, total, want)
		}
	}
}

func TestRankUnrankRoundtripExhaustive(t *testing.T) {
	const w, v = 4, 3
	maxLayer := v * (w - 1)
	for d := 0; d <= maxLayer; d++ {
		ld := LayerSize(d, v, w)
		n := ld.Int64()
		seen := make(map[string]bool, n)
		for i := int64(0); i < n; i++ {
			x, err := Unrank(big.NewInt(i), d, v, w)
			if err != nil {
				t.Fatalf("Unrank(%d, %d, %d, %d) failed: %v", i, d, v, w, err)
			}
			if !x.Valid(w) {
				t.Fatalf("Unrank produced invalid vertex %v", x)
			}
			if x.Layer(w) != d {
				t.Fatalf("Unrank(%d) produced vertex %v in layer %d, want %d", i, x, x.Layer(w), d)
			}
			key := fmt_vertex(x)
			if seen[key] {
				t.Fatalf("duplicate vertex %v produced for distinct ranks in layer %d", x, d)
			}
			seen[key] = true

			rank, err := Rank(x, d, v, w)
			if err != nil {
				t.Fatalf("Rank(%v, %d, %d, %d) failed: %v", x, d, v, w, err)
			}
			if rank.Int64() != i {
				t.Fatalf("Rank(Unrank(%d)) = %s, want %d", i, rank, i)
			}
		}
	}
}

func fmt_vertex(x Vertex) string {
	s := make([]byte, 0, len(x)*3)
	for _, c := range x {
		s = append(s, byte('0'+c/100), byte('0'+(c/10)%10), byte('0'+c%10))
	}
	return string(s)
}

func TestUnrankOutOfRange(t *testing.T) {
	_, err := Unrank(big.NewInt(-1), 0, 3, 4)
	if err == nil {
		t.Fatal("expected error for negative index")
	}
	ld := LayerSize(2, 3, 4)
	_, err = Unrank(ld, 2, 3, 4)
	if err == nil {
		t.Fatal("expected error for index == layer size")
	}
}

func TestRankRejectsWrongLayer(t *testing.T) {
	x, err := Unrank(big.NewInt(0), 2, 3, 4)
	if err != nil {
		t.Fatalf("setup Unrank failed: %v", err)
	}
	_, err = Rank(x, 3, 3, 4)
	var layerErr *InvalidLayerError
	if err == nil {
		t.Fatal("expected InvalidLayerError for mismatched layer")
	}
	if !asInvalidLayer(err, &layerErr) {
		t.Fatalf("expected *InvalidLayerError, got %T: %v", err, err)
	}
}

func asInvalidLayer(err error, target **InvalidLayerError) bool {
	if e, ok := err.(*InvalidLayerError); ok {
		*target = e
		return true
	}
	return false
}

func TestPsiLandsInLayer(t *testing.T) {
	const w, v, d = 4, 3, 5
	ld := LayerSize(d, v, w)
	n := ld.Int64()
	for _, z := range []int64{0, 1, n - 1, n, n + 1, 5 * n, -1} {
		x, err := Psi(big.NewInt(z), d, v, w)
		if err != nil {
			t.Fatalf("Psi(%d) failed: %v", z, err)
		}
		if x.Layer(w) != d {
			t.Fatalf("Psi(%d) produced vertex %v outside layer %d", z, x, d)
		}
	}
}

func TestPsiUnionLandsInUnion(t *testing.T) {
	const w, v, d0 = 3, 4, 2
	total := UnionSize(d0, v, w)
	n := total.Int64()
	for z := int64(0); z < n; z++ {
		x, d, err := PsiUnion(big.NewInt(z), d0, v, w)
		if err != nil {
			t.Fatalf("PsiUnion(%d) failed: %v", z, err)
		}
		if d < 0 || d > d0 {
			t.Fatalf("PsiUnion(%d) returned layer %d outside [0,%d]", z, d, d0)
		}
		if x.Layer(w) != d {
			t.Fatalf("PsiUnion(%d) vertex %v not in reported layer %d", z, x, d)
		}
	}
	// wraps modulo |L|
	x1, d1, err := PsiUnion(big.NewInt(0), d0, v, w)
	if err != nil {
		t.Fatal(err)
	}
	x2, d2, err := PsiUnion(big.NewInt(n), d0, v, w)
	if err != nil {
		t.Fatal(err)
	}
	if d1 != d2 || fmt_vertex(x1) != fmt_vertex(x2) {
		t.Fatalf("PsiUnion not periodic mod |L|: (%v,%d) vs (%v,%d)", x1, d1, x2, d2)
	}
}

func TestEnumerateLayerMatchesLayerSize(t *testing.T) {
	const w, v, d = 3, 3, 2
	count := 0
	EnumerateLayer(d, v, w, func(x Vertex) bool {
		count++
		if x.Layer(w) != d {
			t.Fatalf("enumerated vertex %v not in layer %d", x, d)
		}
		return true
	})
	ld := LayerSize(d, v, w)
	if int64(count) != ld.Int64() {
		t.Fatalf("enumerated %d vertices, want %s", count, ld)
	}
}

func TestBigParametersDoNotOverflow(t *testing.T) {
	// Values of the scale used by real scheme parameters: LayerSize must
	// stay exact (arbitrary precision), not wrap or approximate.
	const w, v, d = 12, 40, 174
	ld := LayerSize(d, v, w)
	if ld.Sign() <= 0 {
		t.Fatalf("LayerSize(%d,%d,%d) = %s, want a large positive value", d, v, w, ld)
	}
	mid := new(big.Int).Rsh(ld, 1)
	x, err := Unrank(mid, d, v, w)
	if err != nil {
		t.Fatalf("Unrank failed at scale: %v", err)
	}
	rank, err := Rank(x, d, v, w)
	if err != nil {
		t.Fatalf("Rank failed at scale: %v", err)
	}
	if rank.Cmp(mid) != 0 {
		t.Fatalf("roundtrip mismatch at scale: got %s, want %s", rank, mid)
	}
}
