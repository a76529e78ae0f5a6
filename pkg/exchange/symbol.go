// Package exchange holds the instrument reference data shared by the
// matching engine and the risk gate.
package exchange

import (
	"fmt"
	"strings"

	"github.com/quantfabric/replay/pkg/utility/fixed"
)

type SymbolInfo struct {
	SymbolName    string
	SymbolId      int64
	QuoteCurrency string
	Digits        int
	ContractSize  fixed.Point
	Leverage      fixed.Point
}

// Catalog is the instrument reference lookup, keyed by upper-cased symbol.
type Catalog struct {
	symbols map[string]SymbolInfo
}

func NewCatalog(symbols ...SymbolInfo) *Catalog {
	c := &Catalog{symbols: make(map[string]SymbolInfo, len(symbols))}
	for _, s := range symbols {
		c.symbols[strings.ToUpper(s.SymbolName)] = s
	}
	return c
}

func (c *Catalog) Lookup(symbol string) (SymbolInfo, error) {
	info, ok := c.symbols[strings.ToUpper(symbol)]
	if !ok {
		return SymbolInfo{}, fmt.Errorf("unknown symbol %q", symbol)
	}
	return info, nil
}

func (c *Catalog) Has(symbol string) bool {
	_, ok := c.symbols[strings.ToUpper(symbol)]
	return ok
}
