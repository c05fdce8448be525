package vxlantable

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/henderiw/itree/pkg/idxtable"
	"github.com/tj/assert"
	"k8s.io/apimachinery/pkg/labels"
)

func TestClaim(t *testing.T) {
	cases := map[string]struct {
		offset            uint32
		max               uint32
		newSuccessEntries map[uint32]labels.Set
		newFailedEntries  map[uint32]labels.Set
		expectedEntries   int
		expectedFree      uint32
	}{
		"Normal": {
			offset: 10000,
			max:    10999,
			newSuccessEntries: map[uint32]labels.Set{
				10000: map[string]string{},
				10001: map[string]string{},
			},
			newFailedEntries: map[uint32]labels.Set{
				9999:  map[string]string{},
				11000: map[string]string{},
			},
			expectedEntries: 2,
			expectedFree:    10002,
		},
		"Hole": {
			offset: 1,
			max:    100,
			newSuccessEntries: map[uint32]labels.Set{
				1: map[string]string{},
				3: map[string]string{},
			},
			expectedEntries: 2,
			expectedFree:    2,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r, err := New(tc.offset, tc.max)
			assert.NoError(t, err)

			for id, d := range tc.newSuccessEntries {
				err := r.Claim(id, d)
				assert.NoError(t, err)
			}
			for id, d := range tc.newFailedEntries {
				err := r.Claim(id, d)
				assert.True(t, errors.Is(err, idxtable.ErrOutOfBounds))
			}
			for id := range tc.newSuccessEntries {
				if !r.Has(id) {
					t.Errorf("%s expecting success claim entry: %d\n", name, id)
				}
			}
			if r.Count() != tc.expectedEntries {
				t.Errorf("%s: -want %d, +got: %d\n", name, tc.expectedEntries, len(r.GetAll()))
			}

			id, err := r.FindFree()
			assert.NoError(t, err)
			assert.Equal(t, tc.expectedFree, id)
		})
	}
}

func TestNewInvalid(t *testing.T) {
	_, err := New(100, 10)
	assert.Error(t, err)
}

func TestLifecycle(t *testing.T) {
	r, err := New(5000, 5003)
	assert.NoError(t, err)

	assert.NoError(t, r.ClaimRange("tenant-a", "5000-5001", labels.Set{"tenant": "a"}))
	d, err := r.Get(5001)
	assert.NoError(t, err)
	assert.Equal(t, "a", d["tenant"])

	for _, expected := range []uint32{5002, 5003} {
		id, err := r.ClaimDynamic(nil)
		assert.NoError(t, err)
		assert.Equal(t, expected, id)
	}
	_, err = r.ClaimDynamic(nil)
	assert.True(t, errors.Is(err, idxtable.ErrNoFreeRange))

	assert.NoError(t, r.Update(5000, labels.Set{"tenant": "b"}))
	assert.NoError(t, r.Release(5000))
	assert.True(t, r.IsFree(5001))
	assert.NoError(t, r.Release(5000))
	assert.Equal(t, 2, r.Count())
}

func TestClaimRangeNumericName(t *testing.T) {
	r, err := New(1, 100)
	assert.NoError(t, err)

	err = r.ClaimRange("1", "50-59", nil)
	assert.True(t, errors.Is(err, idxtable.ErrInvalidName))
	assert.True(t, r.IsFree(50))

	id, err := r.ClaimDynamic(nil)
	assert.NoError(t, err)
	assert.Equal(t, uint32(1), id)
	assert.True(t, r.Has(1))
}

func TestReleaseUnknown(t *testing.T) {
	r, err := New(10, 20)
	assert.NoError(t, err)

	assert.NoError(t, r.Claim(10, nil))
	// unknown VNIs release as a no-op
	assert.NoError(t, r.Release(15))
	assert.NoError(t, r.Release(30))
	assert.Equal(t, 1, r.Count())
}
