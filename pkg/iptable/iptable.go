package iptable

import (
	"encoding/binary"
	"net/netip"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/hansthienpondt/nipam/pkg/table"
	"github.com/henderiw/itree/pkg/idxtable"
	"github.com/henderiw/itree/pkg/interval"
	"go4.org/netipx"
	"k8s.io/apimachinery/pkg/labels"
)

type IPTable interface {
	Get(addr string) (table.Route, error)
	Claim(addr string, d table.Route) error
	ClaimRange(name, s string, d table.Route) error
	ClaimDynamic(d table.Route) (netip.Addr, error)
	Release(addr string) error
	Update(addr string, d table.Route) error

	Count() int
	Has(addr string) bool
	Contains(addr string) (Entry, error)

	IsFree(addr string) bool
	FindFree() (netip.Addr, error)
	Overlaps(s string) ([]Entry, error)

	GetAll() table.Routes
	GetByLabel(selector labels.Selector) table.Routes
}

// Entry is a named block of addresses.
type Entry struct {
	Name  string
	Range netipx.IPRange
	Route table.Route
}

// New returns a table of the IPv4 addresses between from and to, both
// included.
func New(from, to netip.Addr, opts ...idxtable.Option[uint32]) (IPTable, error) {
	ipRange := netipx.IPRangeFrom(from, to)
	if !from.Is4() || !to.Is4() || !ipRange.IsValid() {
		return nil, errors.Newf("invalid IPv4 range from %s to %s", from, to)
	}
	t, err := idxtable.New[uint32](
		ipRange.String(),
		append([]idxtable.Option[uint32]{
			idxtable.WithBounds(addrToIndex(from), addrToIndex(to)),
			idxtable.WithExclusive[uint32](),
		}, opts...)...,
	)
	if err != nil {
		return nil, err
	}
	return &ipTable{
		m:       new(sync.RWMutex),
		table:   t,
		ipRange: ipRange,
		routes:  map[string]table.Route{},
	}, nil
}

type ipTable struct {
	// m guards routes and serializes mutations; the index has its own lock
	m       *sync.RWMutex
	table   idxtable.Table[uint32]
	ipRange netipx.IPRange
	routes  map[string]table.Route
}

func (r *ipTable) Get(addr string) (table.Route, error) {
	e, err := r.Contains(addr)
	if err != nil {
		return table.Route{}, err
	}
	return e.Route, nil
}

// Claim claims a single address, named after the address itself.
func (r *ipTable) Claim(addr string, d table.Route) error {
	// Validate IP address
	claimIP, err := r.validateIP(addr)
	if err != nil {
		return err
	}
	return r.claim(claimIP.String(), netipx.IPRangeFrom(claimIP, claimIP), d)
}

// ClaimRange claims a block of addresses under name. s is either a range
// "10.0.0.10-10.0.0.20" or a prefix "10.0.0.0/28". Names that are addresses
// are kept for single address claims.
func (r *ipTable) ClaimRange(name, s string, d table.Route) error {
	if _, err := netip.ParseAddr(name); err == nil {
		return errors.Wrapf(idxtable.ErrInvalidName, "block name %q is an ip address", name)
	}
	ipRange, err := parseRange(s)
	if err != nil {
		return err
	}
	return r.claim(name, ipRange, d)
}

func (r *ipTable) ClaimDynamic(d table.Route) (netip.Addr, error) {
	r.m.Lock()
	defer r.m.Unlock()

	e, err := r.table.ClaimFree(1, func(rng interval.Range[uint32]) string {
		return indexToAddr(rng.Low).String()
	}, nil)
	if err != nil {
		return netip.Addr{}, err
	}
	r.routes[e.ID()] = d
	return indexToAddr(e.Range().Low), nil
}

func (r *ipTable) claim(name string, ipRange netipx.IPRange, d table.Route) error {
	if !ipRange.From().Is4() {
		return errors.Newf("ip range %s is not IPv4", ipRange)
	}
	r.m.Lock()
	defer r.m.Unlock()

	if err := r.table.Claim(name, toRange(ipRange), nil); err != nil {
		return errors.Wrapf(err, "claim failed ip range %s", ipRange)
	}
	r.routes[name] = d
	return nil
}

// Release frees the block holding addr.
func (r *ipTable) Release(addr string) error {
	r.m.Lock()
	defer r.m.Unlock()

	e, err := r.lookup(addr)
	if err != nil {
		if errors.Is(err, idxtable.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := r.table.Release(e.ID()); err != nil {
		return err
	}
	delete(r.routes, e.ID())
	return nil
}

func (r *ipTable) Update(addr string, d table.Route) error {
	r.m.Lock()
	defer r.m.Unlock()

	e, err := r.lookup(addr)
	if err != nil {
		return errors.Wrapf(err, "update failed ip %s not claimed", addr)
	}
	r.routes[e.ID()] = d
	return nil
}

func (r *ipTable) Count() int {
	return r.table.Count()
}

func (r *ipTable) Has(addr string) bool {
	_, err := r.Contains(addr)
	return err == nil
}

// Contains returns the block holding addr.
func (r *ipTable) Contains(addr string) (Entry, error) {
	e, err := r.lookup(addr)
	if err != nil {
		return Entry{}, err
	}
	return r.toEntry(e), nil
}

// lookup finds the index entry holding addr. It does not touch routes, so
// callers may hold r.m.
func (r *ipTable) lookup(addr string) (idxtable.Entry[uint32], error) {
	// Validate IP address
	claimIP, err := r.validateIP(addr)
	if err != nil {
		return nil, err
	}
	entries := r.table.Contains(addrToIndex(claimIP))
	if len(entries) == 0 {
		return nil, errors.Wrapf(idxtable.ErrNotFound, "ip address %s", addr)
	}
	return entries[0], nil
}

func (r *ipTable) IsFree(addr string) bool {
	// Validate IP address
	claimIP, err := r.validateIP(addr)
	if err != nil {
		return false
	}
	id := addrToIndex(claimIP)
	return r.table.IsFree(interval.RangeFrom(id, id))
}

func (r *ipTable) FindFree() (netip.Addr, error) {
	rng, err := r.table.FindFree(1)
	if err != nil {
		return netip.Addr{}, err
	}
	return indexToAddr(rng.Low), nil
}

// Overlaps returns the blocks sharing at least one address with s, a range
// or a prefix, ordered by first address.
func (r *ipTable) Overlaps(s string) ([]Entry, error) {
	ipRange, err := parseRange(s)
	if err != nil {
		return nil, err
	}
	if !ipRange.From().Is4() {
		return nil, errors.Newf("ip range %s is not IPv4", ipRange)
	}
	found, err := r.table.Overlaps(toRange(ipRange))
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(found))
	for _, e := range found {
		entries = append(entries, r.toEntry(e))
	}
	return entries, nil
}

func (r *ipTable) GetAll() table.Routes {
	var routes table.Routes
	for _, e := range r.table.GetAll() {
		routes = append(routes, r.route(e.ID()))
	}
	return routes
}

func (r *ipTable) GetByLabel(selector labels.Selector) table.Routes {
	var routes table.Routes

	iter := r.table.Iterate()

	for iter.Next() {
		route := r.route(iter.ID())
		if selector.Matches(route.Labels()) {
			routes = append(routes, route)
		}
	}

	return routes
}

func (r *ipTable) route(name string) table.Route {
	r.m.RLock()
	defer r.m.RUnlock()

	return r.routes[name]
}

func (r *ipTable) toEntry(e idxtable.Entry[uint32]) Entry {
	return Entry{
		Name:  e.ID(),
		Range: netipx.IPRangeFrom(indexToAddr(e.Range().Low), indexToAddr(e.Range().High)),
		Route: r.route(e.ID()),
	}
}

func (r *ipTable) validateIP(addr string) (netip.Addr, error) {
	// Parse IP address
	claimIP, err := netip.ParseAddr(addr)
	if err != nil {
		return netip.Addr{}, errors.Wrapf(err, "ip address %s is invalid", addr)
	}
	if !r.ipRange.Contains(claimIP) {
		return netip.Addr{}, errors.Wrapf(idxtable.ErrOutOfBounds, "ip address %s, does not fit in the range from %s to %s", addr, r.ipRange.From().String(), r.ipRange.To().String())
	}
	return claimIP, nil
}

func parseRange(s string) (netipx.IPRange, error) {
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return netipx.IPRange{}, errors.Wrapf(err, "invalid prefix %s", s)
		}
		return netipx.RangeOfPrefix(p.Masked()), nil
	}
	ipRange, err := netipx.ParseIPRange(s)
	if err != nil {
		return netipx.IPRange{}, errors.Wrapf(err, "invalid ip range %s", s)
	}
	return ipRange, nil
}

func toRange(ipRange netipx.IPRange) interval.Range[uint32] {
	return interval.RangeFrom(addrToIndex(ipRange.From()), addrToIndex(ipRange.To()))
}

// addrToIndex maps an IPv4 address onto its 32-bit value.
func addrToIndex(ip netip.Addr) uint32 {
	b := ip.As4()
	return binary.BigEndian.Uint32(b[:])
}

func indexToAddr(id uint32) netip.Addr {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], id)
	return netip.AddrFrom4(b)
}
