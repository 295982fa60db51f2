// Package hypercube implements the rank/unrank bijection and the
// non-uniform mapping Ψ over layers of the grid [w]^v, following the
// "top of the hypercube" construction used by the encoding schemes in
// encoding/hypercube.
package hypercube

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
)

// ErrInvalidLayer is returned when a vertex does not belong to the layer
// it was claimed to, or when a rank/unrank walk cannot complete within
// the claimed layer budget.
var ErrInvalidLayer = errors.New("hypercube: vertex not in claimed layer")

// ErrInvalidCoordinate is returned when a vertex component falls outside
// the alphabet {1, ..., w}.
var ErrInvalidCoordinate = errors.New("hypercube: coordinate out of range")

// ErrIndexOutOfRange is returned by Unrank when the requested index is not
// smaller than the layer size.
var ErrIndexOutOfRange = errors.New("hypercube: index out of range")

// InvalidLayerError carries the expected and actual layer of a vertex that
// failed validation.
type InvalidLayerError struct {
	Expected int
	Actual   int
}

func (e *InvalidLayerError) Error() string {
	return fmt.Sprintf("hypercube: expected layer %d, got %d", e.Expected, e.Actual)
}

func (e *InvalidLayerError) Unwrap() error { return ErrInvalidLayer }

// InvalidCoordinateError carries the offending position and value of a
// vertex component outside [1, w].
type InvalidCoordinateError struct {
	Pos   int
	Value int
	Max   int
}

func (e *InvalidCoordinateError) Error() string {
	return fmt.Sprintf("hypercube: coordinate %d at position %d exceeds max %d", e.Value, e.Pos, e.Max)
}

func (e *InvalidCoordinateError) Unwrap() error { return ErrInvalidCoordinate }

// Vertex is a point of [w]^v: v components, each drawn from alphabet
// {1, ..., w}.
type Vertex []int

// Layer returns d(x) = vw - Σxᵢ for the given alphabet size w.
func (x Vertex) Layer(w int) int {
	sum := 0
	for _, xi := range x {
		sum += xi
	}
	return len(x)*w - sum
}

// Valid reports whether every component of x lies in {1, ..., w}.
func (x Vertex) Valid(w int) bool {
	for _, xi := range x {
		if xi < 1 || xi > w {
			return false
		}
	}
	return true
}

// DistanceToSink returns Σ(w - xᵢ), the number of hash-chain steps needed
// to walk x up to the all-w sink vertex.
func (x Vertex) DistanceToSink(w int) int {
	d := 0
	for _, xi := range x {
		d += w - xi
	}
	return d
}

func validate(x Vertex, d, v, w int) error {
	if len(x) != v {
		return fmt.Errorf("hypercube: vertex has dimension %d, want %d", len(x), v)
	}
	for i, xi := range x {
		if xi < 1 || xi > w {
			return &InvalidCoordinateError{Pos: i, Value: xi, Max: w}
		}
	}
	if actual := x.Layer(w); actual != d {
		return &InvalidLayerError{Expected: d, Actual: actual}
	}
	return nil
}

type layerKey struct {
	d, v, w int
}

// layerCache memoizes LayerSize results, keyed by (d, v, w). Scheme
// parameters repeat the same few (v, w) pairs across every signature, so
// the cache saves redundant inclusion-exclusion sums.
var layerCache = struct {
	sync.RWMutex
	data map[layerKey]*big.Int
}{
	data: make(map[layerKey]*big.Int),
}

// LayerSize returns ℓ_d(v, w), the exact number of vertices of [w]^v whose
// layer is d, computed by inclusion-exclusion:
//
//	ℓ_d = Σ_{s=0}^{⌊d/w⌋} (-1)^s · C(v, s) · C(d - sw + v - 1, v - 1)
//
// LayerSize is total on its domain: it returns 0 for any (d, v, w) outside
// the valid layer range [0, v(w-1)] rather than erroring.
func LayerSize(d, v, w int) *big.Int {
	if v == 0 {
		if d == 0 {
			return big.NewInt(1)
		}
		return big.NewInt(0)
	}
	if d < 0 || w < 1 || d > v*(w-1) {
		return big.NewInt(0)
	}

	key := layerKey{d, v, w}
	layerCache.RLock()
	if cached, ok := layerCache.data[key]; ok {
		layerCache.RUnlock()
		return new(big.Int).Set(cached)
	}
	layerCache.RUnlock()

	layerCache.Lock()
	defer layerCache.Unlock()
	if cached, ok := layerCache.data[key]; ok {
		return new(big.Int).Set(cached)
	}

	sum := big.NewInt(0)
	maxS := d / w
	for s := 0; s <= maxS; s++ {
		binomVS := binomial(v, s)
		if binomVS.Sign() == 0 {
			continue
		}
		inner := d - s*w + v - 1
		if inner < v-1 {
			continue
		}
		term := new(big.Int).Mul(binomVS, binomial(inner, v-1))
		if s%2 == 0 {
			sum.Add(sum, term)
		} else {
			sum.Sub(sum, term)
		}
	}

	layerCache.data[key] = new(big.Int).Set(sum)
	return sum
}

// binomial computes C(n, k) using the multiplicative form, exploiting the
// k <- min(k, n-k) symmetry. Returns 0 for k < 0 or k > n.
func binomial(n, k int) *big.Int {
	if k < 0 || k > n {
		return big.NewInt(0)
	}
	if k == 0 || k == n {
		return big.NewInt(1)
	}
	if k > n-k {
		k = n - k
	}
	result := big.NewInt(1)
	for i := 0; i < k; i++ {
		result.Mul(result, big.NewInt(int64(n-i)))
		result.Div(result, big.NewInt(int64(i+1)))
	}
	return result
}

// UnionSize returns |L| = Σ_{d=0}^{d0} ℓ_d(v, w), the size of the union of
// the top d0+1 layers used by the TL1C and TLFC encodings.
func UnionSize(d0, v, w int) *big.Int {
	total := big.NewInt(0)
	for d := 0; d <= d0; d++ {
		total.Add(total, LayerSize(d, v, w))
	}
	return total
}

// Rank returns the lexicographic position of x among the vertices of
// layer d. It treats yᵢ = w - xᵢ as a weak composition of d and scans
// candidate values yᵢ = 0, 1, ... for each position in ascending order
// (that is, xᵢ = w, w-1, ...), accumulating the size of every completion
// that would precede x.
//
// Rank and Unrank agree on this ordering: Unrank(Rank(x, d, v, w), d, v,
// w) == x for any x valid in layer d.
func Rank(x Vertex, d, v, w int) (*big.Int, error) {
	if err := validate(x, d, v, w); err != nil {
		return nil, err
	}

	rank := big.NewInt(0)
	remainingDims := v
	remainingSum := d

	for _, xi := range x {
		remainingDims--
		for larger := w; larger > xi; larger-- {
			usedSum := w - larger
			if remainingSum < usedSum {
				continue
			}
			rank.Add(rank, LayerSize(remainingSum-usedSum, remainingDims, w))
		}
		usedSum := w - xi
		if remainingSum < usedSum {
			return nil, &InvalidLayerError{Expected: d, Actual: x.Layer(w)}
		}
		remainingSum -= usedSum
	}
	if remainingSum != 0 {
		return nil, &InvalidLayerError{Expected: d, Actual: x.Layer(w)}
	}
	return rank, nil
}

// Unrank returns the vertex at lexicographic position r within layer d,
// the inverse of Rank. It fails with ErrIndexOutOfRange when r does not
// lie in [0, ℓ_d).
func Unrank(r *big.Int, d, v, w int) (Vertex, error) {
	ld := LayerSize(d, v, w)
	if r.Sign() < 0 || r.Cmp(ld) >= 0 {
		return nil, ErrIndexOutOfRange
	}

	index := new(big.Int).Set(r)
	vertex := make(Vertex, v)
	remainingDims := v
	remainingSum := d

	for pos := 0; pos < v; pos++ {
		remainingDims--
		placed := false
		for coord := w; coord >= 1; coord-- {
			usedSum := w - coord
			if remainingSum < usedSum {
				continue
			}
			subLayer := remainingSum - usedSum
			completions := LayerSize(subLayer, remainingDims, w)
			if index.Cmp(completions) < 0 {
				vertex[pos] = coord
				remainingSum = subLayer
				placed = true
				break
			}
			index.Sub(index, completions)
		}
		if !placed {
			return nil, ErrIndexOutOfRange
		}
	}
	if remainingSum != 0 {
		return nil, ErrIndexOutOfRange
	}
	return vertex, nil
}

// Psi implements the single-layer non-uniform mapping
// Ψ_d(z) = Unrank(z mod ℓ_d, d, v, w), uniform over layer d. It errors if
// layer d is empty, which can only happen for a misconfigured scheme.
func Psi(z *big.Int, d, v, w int) (Vertex, error) {
	ld := LayerSize(d, v, w)
	if ld.Sign() <= 0 {
		return nil, fmt.Errorf("hypercube: layer %d is empty: %w", d, ErrInvalidLayer)
	}
	idx := new(big.Int).Mod(z, ld)
	return Unrank(idx, d, v, w)
}

// PsiUnion implements the union-of-layers mapping used by TL1C and TLFC:
// it locates the layer d ∈ [0, d0] into which z falls, uniformly over the
// union L = ⋃_{d=0}^{d0} layer d, and unranks z within that layer.
func PsiUnion(z *big.Int, d0, v, w int) (Vertex, int, error) {
	total := UnionSize(d0, v, w)
	if total.Sign() <= 0 {
		return nil, 0, fmt.Errorf("hypercube: union of layers [0,%d] is empty: %w", d0, ErrInvalidLayer)
	}
	idx := new(big.Int).Mod(z, total)

	cumulative := big.NewInt(0)
	for d := 0; d <= d0; d++ {
		next := new(big.Int).Add(cumulative, LayerSize(d, v, w))
		if idx.Cmp(next) < 0 {
			vtx, err := Unrank(new(big.Int).Sub(idx, cumulative), d, v, w)
			if err != nil {
				return nil, 0, err
			}
			return vtx, d, nil
		}
		cumulative = next
	}
	return nil, 0, fmt.Errorf("hypercube: union index %s out of range [0,%s): %w", idx, total, ErrIndexOutOfRange)
}

// CollisionMetric returns μ²(Ψ) = Σ_x Pr[Ψ(z)=x]² for the single-layer
// mapping, which equals 1/ℓ_d.
func CollisionMetric(d, v, w int) *big.Float {
	ld := LayerSize(d, v, w)
	if ld.Sign() <= 0 {
		return big.NewFloat(0)
	}
	return new(big.Float).Quo(big.NewFloat(1), new(big.Float).SetInt(ld))
}

// CollisionMetricUnion returns μ²(Ψ) = 1/|L| for the union-of-layers
// mapping used by TL1C and TLFC.
func CollisionMetricUnion(d0, v, w int) *big.Float {
	total := UnionSize(d0, v, w)
	if total.Sign() <= 0 {
		return big.NewFloat(0)
	}
	return new(big.Float).Quo(big.NewFloat(1), new(big.Float).SetInt(total))
}

// MaxEnumeratedLayerSize bounds EnumerateLayer to small test parameters;
// real scheme parameters produce layers far too large to enumerate.
const MaxEnumeratedLayerSize = 1 << 20

// EnumerateLayer calls yield once for every vertex of layer d, in rank
// order, stopping early if yield returns false. It panics if ℓ_d exceeds
// MaxEnumeratedLayerSize: enumeration is for tests and small-parameter
// verification, never for the signing/verification hot path where layers
// can be astronomically large.
func EnumerateLayer(d, v, w int, yield func(Vertex) bool) {
	ld := LayerSize(d, v, w)
	if !ld.IsInt64() || ld.Int64() > MaxEnumeratedLayerSize {
		panic("hypercube: layer too large to enumerate")
	}
	n := ld.Int64()
	for i := int64(0); i < n; i++ {
		x, err := Unrank(big.NewInt(i), d, v, w)
		if err != nil {
			panic("hypercube: unrank failed during enumeration: " + err.Error())
		}
		if !yield(x) {
			return
		}
	}
}
