package vlantable

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/henderiw/itree/pkg/idxtable"
	"github.com/henderiw/itree/pkg/interval"
	"k8s.io/apimachinery/pkg/labels"
)

const (
	untaggedVLAN uint16 = 0
	defaultVLAN  uint16 = 1
	reservedVLAN uint16 = 4095
)

type VLANTable interface {
	Get(id uint16) (labels.Set, error)
	Claim(id uint16, d labels.Set) error
	ClaimRange(name, s string, d labels.Set) error
	ClaimDynamic(d labels.Set) (uint16, error)
	Release(id uint16) error
	Update(id uint16, d labels.Set) error

	Count() int
	Has(id uint16) bool

	IsFree(id uint16) bool
	FindFree() (uint16, error)

	GetAll() idxtable.Entries[uint16]
	GetByLabel(selector labels.Selector) idxtable.Entries[uint16]
}

var initEntries = idxtable.Entries[uint16]{
	idxtable.NewEntry(vlanID(untaggedVLAN), interval.RangeFrom(untaggedVLAN, untaggedVLAN), labels.Set{"type": "untagged", "status": "reserved"}),
	idxtable.NewEntry(vlanID(defaultVLAN), interval.RangeFrom(defaultVLAN, defaultVLAN), labels.Set{"type": "untagged", "status": "reserved"}),
	idxtable.NewEntry(vlanID(reservedVLAN), interval.RangeFrom(reservedVLAN, reservedVLAN), labels.Set{"type": "untagged", "status": "reserved"}),
}

// New returns a VLAN table with 0, 1 and 4095 reserved. Extra options, such
// as a logger, are applied after the defaults.
func New(opts ...idxtable.Option[uint16]) (VLANTable, error) {
	opts = append([]idxtable.Option[uint16]{
		idxtable.WithBounds[uint16](0, 4095),
		idxtable.WithExclusive[uint16](),
		idxtable.WithInitEntries(initEntries...),
		idxtable.WithValidationFn(func(id string, r interval.Range[uint16]) error {
			switch {
			case r.Contains(untaggedVLAN):
				return errors.Newf("VLAN %d is the untagged VLAN, cannot be added to the database", untaggedVLAN)
			case r.Contains(defaultVLAN):
				return errors.Newf("VLAN %d is the default VLAN, cannot be added to the database", defaultVLAN)
			case r.Contains(reservedVLAN):
				return errors.Newf("VLAN %d is reserved, cannot be added to the database", reservedVLAN)
			}
			return nil
		}),
	}, opts...)

	t, err := idxtable.New[uint16]("vlan", opts...)
	if err != nil {
		return nil, err
	}
	return &vlanTable{
		table: t,
	}, nil
}

type vlanTable struct {
	table idxtable.Table[uint16]
}

// Get returns the labels of the entry holding the VLAN.
func (r *vlanTable) Get(id uint16) (labels.Set, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}
	return e.Labels(), nil
}

func (r *vlanTable) Claim(id uint16, d labels.Set) error {
	return r.table.Claim(vlanID(id), interval.RangeFrom(id, id), d)
}

// ClaimRange claims a block of VLANs written as "start-end" under name.
// Numeric names are kept for single VLAN claims.
func (r *vlanTable) ClaimRange(name, s string, d labels.Set) error {
	if _, err := strconv.ParseUint(name, 10, 64); err == nil {
		return errors.Wrapf(idxtable.ErrInvalidName, "block name %q is a VLAN id", name)
	}
	return r.table.ClaimRange(name, s, d)
}

func (r *vlanTable) ClaimDynamic(d labels.Set) (uint16, error) {
	e, err := r.table.ClaimFree(1, func(rng interval.Range[uint16]) string {
		return vlanID(rng.Low)
	}, d)
	if err != nil {
		return 0, err
	}
	return e.Range().Low, nil
}

// Release frees the entry holding the VLAN, which releases the whole block
// when the VLAN was claimed as part of a range.
func (r *vlanTable) Release(id uint16) error {
	e, err := r.entry(id)
	if err != nil {
		if errors.Is(err, idxtable.ErrNotFound) {
			return nil
		}
		return err
	}
	return r.table.Release(e.ID())
}

func (r *vlanTable) Update(id uint16, d labels.Set) error {
	e, err := r.entry(id)
	if err != nil {
		return err
	}
	return r.table.Update(e.ID(), d)
}

func (r *vlanTable) Count() int {
	return r.table.Count()
}

func (r *vlanTable) Has(id uint16) bool {
	return len(r.table.Contains(id)) > 0
}

func (r *vlanTable) IsFree(id uint16) bool {
	return r.table.IsFree(interval.RangeFrom(id, id))
}

func (r *vlanTable) FindFree() (uint16, error) {
	rng, err := r.table.FindFree(1)
	if err != nil {
		return 0, err
	}
	return rng.Low, nil
}

func (r *vlanTable) GetAll() idxtable.Entries[uint16] {
	return r.table.GetAll()
}

func (r *vlanTable) GetByLabel(selector labels.Selector) idxtable.Entries[uint16] {
	return r.table.GetByLabel(selector)
}

func (r *vlanTable) entry(id uint16) (idxtable.Entry[uint16], error) {
	entries := r.table.Contains(id)
	if len(entries) == 0 {
		return nil, errors.Wrapf(idxtable.ErrNotFound, "VLAN %d", id)
	}
	// the table is exclusive
	return entries[0], nil
}

func vlanID(id uint16) string {
	return strconv.Itoa(int(id))
}
