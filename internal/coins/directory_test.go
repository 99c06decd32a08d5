package coins

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"coinplot/internal/domain"

	"github.com/google/go-cmp/cmp"
	"github.com/peterldowns/testy/assert"
)

var bitcoin = domain.CoinIdentity{ID: 1, Symbol: "BTC", Slug: "bitcoin", Name: "Bitcoin"}

func testDirectory() *Directory {
	return New([]domain.CoinIdentity{
		bitcoin,
		{ID: 1027, Symbol: "ETH", Slug: "ethereum", Name: "Ethereum"},
		{ID: 9999, Symbol: "btc", Slug: "bitcoin-clone", Name: "Bitcoin Clone"},
		{ID: 5000, Symbol: "WELL", Slug: "well3", Name: "WELL3"},
	})
}

func TestResolveBySymbolAnyCase(t *testing.T) {
	d := testDirectory()
	for _, q := range []string{"btc", "BTC", "Btc"} {
		got, err := d.Resolve(q)
		assert.NoError(t, err)
		if diff := cmp.Diff(bitcoin, got); diff != "" {
			t.Errorf("%s: unexpected identity (-want +got):\n%s", q, diff)
		}
	}
}

func TestResolveBySlug(t *testing.T) {
	d := testDirectory()

	got, err := d.Resolve("bitcoin")
	assert.NoError(t, err)
	assert.Equal(t, got, bitcoin)

	got, err = d.Resolve("Ethereum")
	assert.NoError(t, err)
	assert.Equal(t, got.ID, 1027)
}

func TestResolveKeepsFirstHomonym(t *testing.T) {
	d := testDirectory()
	assert.Equal(t, d.Len(), 3)

	// The homonym was dropped, so its slug is not reachable either.
	_, err := d.Resolve("bitcoin-clone")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestResolveUnknown(t *testing.T) {
	d := testDirectory()
	_, err := d.Resolve("doesnotexist")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cmc_coin_list.json")
	data := `[{"id":1,"symbol":"BTC","slug":"bitcoin","name":"Bitcoin"},{"id":1027,"symbol":"ETH","slug":"ethereum","name":"Ethereum"}]`
	assert.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	d, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, d.Len(), 2)

	got, err := d.Resolve("eth")
	assert.NoError(t, err)
	assert.Equal(t, got.Name, "Ethereum")
}

func TestLoadFailures(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	for _, content := range []string{
		`{"not":"an array"}`,
		`null`,
		`[]`,
		``,
		`[{"id":1,"symbol":"BTC","slug":"bitcoin","name":"Bitcoin"}] garbage`,
		`[{"id":1,"symbol":"BTC","slug":"bitcoin","name":"Bitcoin"}][]`,
	} {
		d, err := Read(strings.NewReader(content))
		assert.Error(t, err)
		assert.True(t, d == nil)
	}

	path := filepath.Join(t.TempDir(), "coins.json")
	assert.NoError(t, os.WriteFile(path, []byte("null\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestReadAllowsTrailingWhitespace(t *testing.T) {
	d, err := Read(strings.NewReader("[{\"id\":1,\"symbol\":\"BTC\",\"slug\":\"bitcoin\",\"name\":\"Bitcoin\"}]\n\n"))
	assert.NoError(t, err)
	assert.Equal(t, d.Len(), 1)
}
