package vxlantable

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/henderiw/itree/pkg/idxtable"
	"github.com/henderiw/itree/pkg/interval"
	"k8s.io/apimachinery/pkg/labels"
)

type VXLANTable interface {
	Get(id uint32) (labels.Set, error)
	Claim(id uint32, d labels.Set) error
	ClaimRange(name, s string, d labels.Set) error
	ClaimDynamic(d labels.Set) (uint32, error)
	Release(id uint32) error
	Update(id uint32, d labels.Set) error

	Count() int
	Has(id uint32) bool

	IsFree(id uint32) bool
	FindFree() (uint32, error)

	GetAll() idxtable.Entries[uint32]
}

// New returns a table of VNIs between offset and max, both included.
func New(offset, max uint32, opts ...idxtable.Option[uint32]) (VXLANTable, error) {
	if max < offset {
		return nil, errors.Newf("vxlan max %d is smaller than offset %d", max, offset)
	}
	t, err := idxtable.New[uint32](
		"vxlan",
		append([]idxtable.Option[uint32]{
			idxtable.WithBounds(offset, max),
			idxtable.WithExclusive[uint32](),
		}, opts...)...,
	)
	if err != nil {
		return nil, err
	}
	return &vxlanTable{
		table: t,
	}, nil
}

type vxlanTable struct {
	table idxtable.Table[uint32]
}

func (r *vxlanTable) Get(id uint32) (labels.Set, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}
	return e.Labels(), nil
}

func (r *vxlanTable) Claim(id uint32, d labels.Set) error {
	return r.table.Claim(vniID(id), interval.RangeFrom(id, id), d)
}

// ClaimRange claims a block of VNIs under name. Numeric names are kept for
// single VNI claims.
func (r *vxlanTable) ClaimRange(name, s string, d labels.Set) error {
	if _, err := strconv.ParseUint(name, 10, 64); err == nil {
		return errors.Wrapf(idxtable.ErrInvalidName, "block name %q is a VNI", name)
	}
	return r.table.ClaimRange(name, s, d)
}

func (r *vxlanTable) ClaimDynamic(d labels.Set) (uint32, error) {
	e, err := r.table.ClaimFree(1, func(rng interval.Range[uint32]) string {
		return vniID(rng.Low)
	}, d)
	if err != nil {
		return 0, err
	}
	return e.Range().Low, nil
}

func (r *vxlanTable) Release(id uint32) error {
	e, err := r.entry(id)
	if err != nil {
		if errors.Is(err, idxtable.ErrNotFound) {
			return nil
		}
		return err
	}
	return r.table.Release(e.ID())
}

func (r *vxlanTable) Update(id uint32, d labels.Set) error {
	e, err := r.entry(id)
	if err != nil {
		return err
	}
	return r.table.Update(e.ID(), d)
}

func (r *vxlanTable) Count() int {
	return r.table.Count()
}

func (r *vxlanTable) Has(id uint32) bool {
	return len(r.table.Contains(id)) > 0
}

func (r *vxlanTable) IsFree(id uint32) bool {
	return r.table.IsFree(interval.RangeFrom(id, id))
}

func (r *vxlanTable) FindFree() (uint32, error) {
	rng, err := r.table.FindFree(1)
	if err != nil {
		return 0, err
	}
	return rng.Low, nil
}

func (r *vxlanTable) GetAll() idxtable.Entries[uint32] {
	return r.table.GetAll()
}

func (r *vxlanTable) entry(id uint32) (idxtable.Entry[uint32], error) {
	entries := r.table.Contains(id)
	if len(entries) == 0 {
		return nil, errors.Wrapf(idxtable.ErrNotFound, "VNI %d", id)
	}
	return entries[0], nil
}

func vniID(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}
