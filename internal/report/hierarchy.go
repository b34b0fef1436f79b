// Package report flattens the duck family forest into a tabular projection.
//
// Rows are emitted depth-first with siblings ordered case-insensitively by name.
// Each row places the duck's name in the column matching its depth and spans it
// to the last name column, so a table needs max depth + 1 name columns.
package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Status of a duck in the report.
type Status string

const (
	StatusSold      Status = "sold"
	StatusAvailable Status = "available"
)

const (
	LabelWithDiscount    = "with discount"
	LabelWithoutDiscount = "without discount"
	// Placeholder fills the sale columns of available ducks.
	Placeholder = "-"
)

// SaleInfo describes the sale a duck was part of.
type SaleInfo struct {
	CustomerName string
	PriceAtSale  decimal.Decimal
}

// Node is one duck as seen by the builder.
type Node struct {
	ID           int64
	Name         string
	MotherID     *int64
	CurrentPrice decimal.Decimal
	Sale         *SaleInfo // nil when the duck is still available
}

// Row is one line of the report.
type Row struct {
	DuckID       int64            `json:"duck_id"`
	Name         string           `json:"name"`
	Depth        int              `json:"depth"`
	Column       int              `json:"column"`
	Span         int              `json:"span"`
	Status       Status           `json:"status"`
	CustomerName string           `json:"customer_name"`
	Discount     string           `json:"discount"`
	SalePrice    *decimal.Decimal `json:"sale_price"`
}

// Hierarchy is the full flattened report.
type Hierarchy struct {
	NameColumns int   `json:"name_columns"`
	Rows        []Row `json:"rows"`
}

// Build turns the flat node set into a Hierarchy. A node whose mother is not part
// of the input is treated as a root. Nodes are visited at most once, so a corrupt
// cyclic input cannot loop forever; members of such a cycle are not emitted.
func Build(nodes []Node) *Hierarchy {
	byID := make(map[int64]*Node, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
	}

	var roots []*Node
	children := make(map[int64][]*Node)
	for i := range nodes {
		n := &nodes[i]
		if n.MotherID == nil {
			roots = append(roots, n)
			continue
		}
		if _, ok := byID[*n.MotherID]; !ok {
			roots = append(roots, n)
			continue
		}
		children[*n.MotherID] = append(children[*n.MotherID], n)
	}
	sortByName(roots)
	for _, list := range children {
		sortByName(list)
	}

	nameCols := maxDepth(roots, children) + 1

	h := &Hierarchy{NameColumns: nameCols, Rows: make([]Row, 0, len(nodes))}
	visited := make(map[int64]bool, len(nodes))
	var walk func(list []*Node, depth int)
	walk = func(list []*Node, depth int) {
		for _, n := range list {
			if visited[n.ID] {
				continue
			}
			visited[n.ID] = true
			h.Rows = append(h.Rows, newRow(n, depth, nameCols))
			walk(children[n.ID], depth+1)
		}
	}
	walk(roots, 0)
	return h
}

// maxDepth runs an iterative traversal from the roots; root depth is 0.
func maxDepth(roots []*Node, children map[int64][]*Node) int {
	type entry struct {
		node  *Node
		depth int
	}
	deepest := 0
	seen := make(map[int64]bool)
	stack := make([]entry, 0, len(roots))
	for _, r := range roots {
		stack = append(stack, entry{r, 0})
	}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[e.node.ID] {
			continue
		}
		seen[e.node.ID] = true
		if e.depth > deepest {
			deepest = e.depth
		}
		for _, ch := range children[e.node.ID] {
			stack = append(stack, entry{ch, e.depth + 1})
		}
	}
	return deepest
}

func newRow(n *Node, depth, nameCols int) Row {
	row := Row{
		DuckID: n.ID,
		Name:   n.Name,
		Depth:  depth,
		Column: depth,
		Span:   nameCols - depth,
	}
	if n.Sale == nil {
		row.Status = StatusAvailable
		row.CustomerName = Placeholder
		row.Discount = Placeholder
		return row
	}

	row.Status = StatusSold
	row.CustomerName = n.Sale.CustomerName
	price := n.Sale.PriceAtSale
	row.SalePrice = &price
	row.Discount = Classify(price, n.CurrentPrice)
	return row
}

// Classify compares a frozen sale price against the duck's current derived price.
// The label follows present-day pricing, so it can change after the sale when the
// duck's own brood grows and its current price drops.
func Classify(priceAtSale, currentPrice decimal.Decimal) string {
	if priceAtSale.LessThan(currentPrice) {
		return LabelWithDiscount
	}
	return LabelWithoutDiscount
}

func sortByName(list []*Node) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := strings.ToLower(list[i].Name), strings.ToLower(list[j].Name)
		if a != b {
			return a < b
		}
		return list[i].ID < list[j].ID
	})
}
