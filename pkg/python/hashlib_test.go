package python_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rungsiman/pypublish/pkg/python"
)

func TestNewHash(t *testing.T) {
	t.Parallel()

	// hashlib.new(name, b"").hexdigest() for each name.
	emptyDigests := map[string]string{
		"md5":      "d41d8cd98f00b204e9800998ecf8427e",
		"sha1":     "da39a3ee5e6b4b0d3255bfef95601890afd80709",
		"sha256":   "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		"sha512":   "cf83e1357eefb8bdf1542850d66d8007d620e4050b5715dc83f4a921d36ce9ce47d0d13c5d85f2b0ff8318d2877eec2f63b931bd47417a81a538327af927da3e",
		"blake2b":  "786a02f742015903c6c6fd852552d272912f4740e15847618a86e217f71f5419d25e1031afee585313896444934eb04b903a685b1448b755d56f701afe9be2ce",
		"blake2s":  "69217a3079908094e11121d042354a7c1f55b6482ca1a51e1b250dfd1ed0eef9",
		"sha3_256": "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a",
	}
	for algo, expected := range emptyDigests {
		algo := algo
		expected := expected
		t.Run(algo, func(t *testing.T) {
			t.Parallel()
			hasher, err := python.NewHash(algo)
			require.NoError(t, err)
			assert.Equal(t, expected, hex.EncodeToString(hasher.Sum(nil)))
		})
	}

	_, err := python.NewHash("shake_128")
	assert.Error(t, err)
	_, err = python.NewHash("crc32")
	assert.Error(t, err)
}

func TestHashlibRegistryIsFresh(t *testing.T) {
	t.Parallel()
	for algo, newHash := range python.HashlibAlgorithmsGuaranteed {
		a, b := newHash(), newHash()
		assert.NotSame(t, a, b, "%s must return fresh hashers", algo)
		assert.Positive(t, a.Size(), algo)
	}
}

func TestNewBlake2b(t *testing.T) {
	t.Parallel()

	hasher, err := python.NewBlake2b(32)
	require.NoError(t, err)
	assert.Equal(t,
		"0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8",
		hex.EncodeToString(hasher.Sum(nil)))

	_, err = python.NewBlake2b(0)
	assert.Error(t, err)
	_, err = python.NewBlake2b(65)
	assert.Error(t, err)
}
