package segment_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/phishcatcher/internal/segment"
)

const testPSL = `// ===BEGIN ICANN DOMAINS===
com
uk
co.uk

// jp
jp
*.kawasaki.jp
!city.kawasaki.jp

// ===END ICANN DOMAINS===
// ===BEGIN PRIVATE DOMAINS===
github.io
// ===END PRIVATE DOMAINS===
`

func TestSuffixList_Rules(t *testing.T) {
	t.Parallel()
	l, err := segment.ParseSuffixList(strings.NewReader(testPSL), false)
	require.NoError(t, err)
	assert.Equal(t, 7, l.Len())

	cases := map[string]string{
		"example.com":          "com",
		"www.example.co.uk":    "co.uk",
		"foo.kawasaki.jp":      "foo.kawasaki.jp",
		"a.b.kawasaki.jp":      "b.kawasaki.jp",
		"city.kawasaki.jp":     "kawasaki.jp",
		"www.city.kawasaki.jp": "kawasaki.jp",
		"user.github.io":       "github.io",
		"host.unlisted":        "unlisted",
		"kawasaki.jp":          "jp",
		"UPPER.Example.COM":    "com",
	}
	for domain, want := range cases {
		assert.Equal(t, want, l.PublicSuffix(domain), domain)
	}
}

func TestSuffixList_ICANNOnly(t *testing.T) {
	t.Parallel()
	l, err := segment.ParseSuffixList(strings.NewReader(testPSL), true)
	require.NoError(t, err)
	assert.Equal(t, "io", l.PublicSuffix("user.github.io"))
}

func TestSuffixList_Empty(t *testing.T) {
	t.Parallel()
	_, err := segment.ParseSuffixList(strings.NewReader("// only comments\n\n"), false)
	require.Error(t, err)
}

func TestLoadSuffixList_InjectsIntoSegmenter(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "public_suffix_list.dat")
	require.NoError(t, os.WriteFile(path, []byte(testPSL+"\nexample.com\n"), 0o644))

	l, err := segment.LoadSuffixList(path, false)
	require.NoError(t, err)
	assert.Contains(t, l.String(), path)

	seg := segment.New(l)
	parts, err := seg.Segment("https://shop.example.com/")
	require.NoError(t, err)
	// example.com is now a public suffix, so "shop" becomes the registrable label.
	assert.Equal(t, "shop", parts.Domain)
	assert.Equal(t, "", parts.Subdomain)
	assert.Equal(t, "shop.example.com", parts.RegisteredDomain)
}

func TestLoadSuffixList_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := segment.LoadSuffixList(filepath.Join(t.TempDir(), "nope.dat"), false)
	require.Error(t, err)
}
