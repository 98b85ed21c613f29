package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/loxia-systems/termtab/internal/linhash"
	"github.com/loxia-systems/termtab/pkg/termtabpb"
)

func parseOpts(semantics string, keypos int, compressed bool) linhash.Options {
	opts := linhash.DefaultOptions()
	switch semantics {
	case "set_unique":
		opts.Semantics = linhash.SetUniqueFailOnClash
	case "bag":
		opts.Semantics = linhash.BagSemantics
	case "dbag":
		opts.Semantics = linhash.DBagSemantics
	default:
		opts.Semantics = linhash.SetSemantics
	}
	opts.KeyPos = keypos
	opts.Compressed = compressed
	return opts
}

func printStats(name string, st *termtabpb.StatsDTO) {
	w := tablewriter.NewWriter(os.Stdout)
	w.SetHeader([]string{"table", "size", "slots", "segments", "stripes", "fix_count", "max_chain", "avg_chain"})
	w.Append([]string{
		name,
		strconv.FormatInt(st.Size, 10),
		strconv.FormatUint(st.NumSlots, 10),
		strconv.Itoa(st.NumSegments),
		strconv.Itoa(st.NumStripes),
		strconv.FormatInt(st.FixCount, 10),
		strconv.Itoa(st.MaxChainLen),
		fmt.Sprintf("%.2f", st.AvgChainLen),
	})
	w.Render()
}
