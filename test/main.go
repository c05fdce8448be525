package main

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/henderiw/itree/pkg/idxtable"
	"github.com/henderiw/itree/pkg/interval"
	"github.com/henderiw/itree/pkg/vlantable"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/selection"
)

var values = []interval.Item[int]{
	interval.NewItem("i1", 17, 19),
	interval.NewItem("i2", 5, 8),
	interval.NewItem("i3", 21, 24),
	interval.NewItem("i4", 4, 8),
	interval.NewItem("i5", 15, 18),
	interval.NewItem("i6", 7, 10),
	interval.NewItem("i7", 16, 22),
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	t := interval.Empty[int]()
	for _, v := range values {
		var err error
		t, err = t.Insert(v)
		if err != nil {
			logger.Error("insert", "item", v.String(), "err", err)
			os.Exit(1)
		}
	}
	if _, err := t.Validate(); err != nil {
		logger.Error("validate", "err", err)
		os.Exit(1)
	}

	for _, q := range []interval.Range[int]{
		interval.RangeFrom(21, 23),
		interval.RangeFrom(12, 14),
	} {
		items, err := t.QueryIntersection(q)
		if err != nil {
			logger.Error("query", "range", q.String(), "err", err)
			os.Exit(1)
		}
		fmt.Println("query", q, slices.Sorted(maps.Keys(items)))
	}

	removed := t.Remove("i3")
	fmt.Println("after remove i3", slices.Sorted(maps.Keys(removed.ToMap())))
	fmt.Println("original keeps i3", t.Has("i3"))
	fmt.Println("remove not-present is identity", t.Remove("not-present").Root() == t.Root())

	vlantbl, err := vlantable.New(idxtable.WithLogger[uint16](logger))
	if err != nil {
		logger.Error("vlan table", "err", err)
		os.Exit(1)
	}
	if err := vlantbl.ClaimRange("customer-a", "100-199", labels.Set{"customer": "a"}); err != nil {
		logger.Error("claim", "err", err)
	}
	if _, err := vlantbl.ClaimDynamic(labels.Set{"customer": "b"}); err != nil {
		logger.Error("claim dynamic", "err", err)
	}
	if err := vlantbl.Claim(1, nil); err != nil {
		logger.Info("claim rejected", "err", err)
	}

	req, err := labels.NewRequirement("customer", selection.Exists, nil)
	if err != nil {
		logger.Error("selector", "err", err)
		os.Exit(1)
	}
	for _, e := range vlantbl.GetByLabel(labels.NewSelector().Add(*req)) {
		fmt.Println("vlan", e.String())
	}
}
