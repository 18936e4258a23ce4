package accounts

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"nhbrepay/crypto"
	"nhbrepay/native/lending"
	"nhbrepay/storage"
)

func addr(b byte) string {
	return crypto.NewAddress(crypto.NHBPrefix, bytes.Repeat([]byte{b}, crypto.AddressLength)).String()
}

func reservePayload(id, market string) []byte {
	return []byte(fmt.Sprintf(`{"address":%q,"lendingMarket":%q,"liquidityMint":%q,"collateralMint":%q}`,
		id, market, addr(0xA1), addr(0xA2)))
}

func mintPayload(id string, decimals uint8) []byte {
	return []byte(fmt.Sprintf(`{"address":%q,"decimals":%d}`, id, decimals))
}

func newTestCache(opts ...Option) *Cache {
	cache := NewCache(opts...)
	cache.RegisterParsers(lending.Parsers())
	return cache
}

func TestCacheAddAndLookup(t *testing.T) {
	cache := newTestCache()

	_, err := cache.Add(addr(1), lending.KindReserve, reservePayload(addr(1), addr(9)))
	require.NoError(t, err)
	_, err = cache.Add(addr(2), lending.KindMint, mintPayload(addr(2), 6))
	require.NoError(t, err)

	reserve, ok := Lookup[*lending.Reserve](cache, addr(1))
	require.True(t, ok)
	require.Equal(t, addr(9), reserve.LendingMarket)

	_, ok = Lookup[*lending.Reserve](cache, addr(2))
	require.False(t, ok, "mint must not resolve as a reserve")

	_, ok = Lookup[*lending.Reserve](cache, addr(3))
	require.False(t, ok)

	require.Equal(t, []string{addr(1)}, cache.ByParser(lending.KindReserve))
	require.Len(t, All[*lending.Mint](cache, lending.KindMint), 1)
	require.Equal(t, 2, cache.Len())
}

func TestCacheRejectsUnknownKindAndBadPayload(t *testing.T) {
	cache := newTestCache()

	_, err := cache.Add(addr(1), "vault", []byte(`{}`))
	require.True(t, errors.Is(err, ErrUnknownKind))

	_, err = cache.Add("  ", lending.KindMint, mintPayload(addr(1), 6))
	require.True(t, errors.Is(err, ErrInvalidID))

	_, err = cache.Add(addr(1), lending.KindMint, []byte(`{"address":"bogus"}`))
	require.Error(t, err)
	require.Zero(t, cache.Len())
}

func TestCacheReplacesKind(t *testing.T) {
	cache := newTestCache()
	_, err := cache.Add(addr(1), lending.KindMint, mintPayload(addr(1), 6))
	require.NoError(t, err)
	_, err = cache.Add(addr(1), lending.KindReserve, reservePayload(addr(1), addr(9)))
	require.NoError(t, err)

	require.Empty(t, cache.ByParser(lending.KindMint))
	require.Equal(t, []string{addr(1)}, cache.ByParser(lending.KindReserve))
}

func TestCacheWarmStartFromLevelDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts")
	db, err := storage.NewLevelDB(path)
	require.NoError(t, err)

	first := newTestCache(WithStore(db))
	_, err = first.Add(addr(1), lending.KindReserve, reservePayload(addr(1), addr(9)))
	require.NoError(t, err)
	_, err = first.Add(addr(2), lending.KindMint, mintPayload(addr(2), 9))
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("acct:mint:"+addr(3)), []byte(`not json`)))
	require.NoError(t, db.Close())

	db, err = storage.NewLevelDB(path)
	require.NoError(t, err)
	defer db.Close()

	second := newTestCache(WithStore(db))
	loaded, err := second.Warm()
	require.NoError(t, err)
	require.Equal(t, 2, loaded, "corrupt snapshot entries are skipped")

	mint, ok := Lookup[*lending.Mint](second, addr(2))
	require.True(t, ok)
	require.EqualValues(t, 9, mint.Decimals)
}

func TestCacheWarmWithoutStore(t *testing.T) {
	loaded, err := NewCache().Warm()
	require.NoError(t, err)
	require.Zero(t, loaded)
}
