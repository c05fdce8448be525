package interval

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"golang.org/x/exp/constraints"
)

// Number is any numeric type usable as a range endpoint.
type Number interface {
	constraints.Integer | constraints.Float
}

// Range is the closed interval [Low, High].
type Range[N Number] struct {
	Low  N
	High N
}

func RangeFrom[N Number](low, high N) Range[N] {
	return Range[N]{Low: low, High: high}
}

// IsValid returns false when High is below Low or either endpoint is NaN.
func (r Range[N]) IsValid() bool {
	if r.Low != r.Low || r.High != r.High {
		return false
	}
	return !(r.High < r.Low)
}

func (r Range[N]) String() string {
	return redact.StringWithoutMarkers(r)
}

// SafeFormat implements redact.SafeFormatter. Endpoints are not sensitive.
func (r Range[N]) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("%v-%v", redact.Safe(r.Low), redact.Safe(r.High))
}

// Intersects returns whether r and other share at least one point. Touching
// endpoints count.
func (r Range[N]) Intersects(other Range[N]) bool {
	return r.High >= other.Low && r.Low <= other.High
}

// Contains returns whether v lies within r.
func (r Range[N]) Contains(v N) bool {
	return r.Low <= v && v <= r.High
}

// CoveredBy returns whether r is entirely contained within other.
func (r Range[N]) CoveredBy(other Range[N]) bool {
	return other.Low <= r.Low && r.High <= other.High
}

// EntirelyBefore returns whether r ends before other starts.
func (r Range[N]) EntirelyBefore(other Range[N]) bool {
	return r.High < other.Low
}

// Less orders ranges by Low, then by High.
func (r Range[N]) Less(other Range[N]) bool {
	if r.Low != other.Low {
		return r.Low < other.Low
	}
	return r.High < other.High
}

// ParseRange parses "low-high". A single value "v" yields [v, v]. A leading
// minus sign on either bound is accepted.
func ParseRange[N Number](s string) (Range[N], error) {
	var r Range[N]
	s = strings.TrimSpace(s)
	h := strings.IndexByte(s[min(1, len(s)):], '-')
	if h == -1 {
		v, err := parseNumber[N](s)
		if err != nil {
			return r, errors.Wrapf(err, "invalid range %q", s)
		}
		return Range[N]{Low: v, High: v}, nil
	}
	h += min(1, len(s))
	from, to := s[:h], s[h+1:]
	low, err := parseNumber[N](from)
	if err != nil {
		return r, errors.Wrapf(err, "invalid low bound %q in range %q", from, s)
	}
	high, err := parseNumber[N](to)
	if err != nil {
		return r, errors.Wrapf(err, "invalid high bound %q in range %q", to, s)
	}
	r = Range[N]{Low: low, High: high}
	if !r.IsValid() {
		return r, newInvalidRangeError[N](nil, r)
	}
	return r, nil
}

func parseNumber[N Number](s string) (N, error) {
	s = strings.TrimSpace(s)
	var zero N
	one := N(1)
	switch {
	case one/2 != zero:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return zero, err
		}
		return N(v), nil
	case zero-one < zero:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return zero, err
		}
		n := N(v)
		if int64(n) != v {
			return zero, errors.Newf("%s overflows %T", s, zero)
		}
		return n, nil
	default:
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return zero, err
		}
		n := N(v)
		if uint64(n) != v {
			return zero, errors.Newf("%s overflows %T", s, zero)
		}
		return n, nil
	}
}
