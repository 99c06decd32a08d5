// Package coins holds the read-only coin directory used to resolve user
// supplied token references to CoinMarketCap identities.
package coins

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"coinplot/internal/domain"
)

// Directory maps lowercase symbols to coin identities. It is immutable after
// construction and safe for concurrent reads.
type Directory struct {
	bySymbol map[string]domain.CoinIdentity
	// entries keeps the retained identities in dataset order for slug lookups.
	entries []domain.CoinIdentity
}

// New builds a directory from identities in dataset order. Only the first
// identity seen for a given lowercase symbol is kept.
func New(identities []domain.CoinIdentity) *Directory {
	d := &Directory{
		bySymbol: make(map[string]domain.CoinIdentity, len(identities)),
		entries:  make([]domain.CoinIdentity, 0, len(identities)),
	}
	for _, c := range identities {
		sym := strings.ToLower(c.Symbol)
		if _, ok := d.bySymbol[sym]; ok {
			continue
		}
		d.bySymbol[sym] = c
		d.entries = append(d.entries, c)
	}
	return d
}

// Load reads a JSON array of identities from path.
func Load(path string) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open coin list: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a JSON array of identities from r. The array must be the
// whole document and hold at least one identity.
func Read(r io.Reader) (*Directory, error) {
	dec := json.NewDecoder(r)
	var identities []domain.CoinIdentity
	if err := dec.Decode(&identities); err != nil {
		return nil, fmt.Errorf("decode coin list: %w", err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode coin list: unexpected data after array")
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("decode coin list: no identities")
	}
	return New(identities), nil
}

// Resolve looks query up by symbol first, then by slug. Both passes are
// case-insensitive.
func (d *Directory) Resolve(query string) (domain.CoinIdentity, error) {
	q := strings.ToLower(query)
	if c, ok := d.bySymbol[q]; ok {
		return c, nil
	}
	for _, c := range d.entries {
		if strings.ToLower(c.Slug) == q {
			return c, nil
		}
	}
	return domain.CoinIdentity{}, fmt.Errorf("token %q: %w", query, domain.ErrNotFound)
}

// Len returns the number of retained identities.
func (d *Directory) Len() int { return len(d.entries) }
