package allowlist_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/phishcatcher/internal/allowlist"
)

func TestIsTrusted_ExactMatchOnly(t *testing.T) {
	t.Parallel()
	set := allowlist.Default()

	assert.True(t, set.IsTrusted("google.com"))
	assert.True(t, set.IsTrusted("Google.COM"))
	assert.True(t, set.IsTrusted(" google.com. "))

	assert.False(t, set.IsTrusted("evil-google.com"))
	assert.False(t, set.IsTrusted("accounts.google.com.evil.net"))
	assert.False(t, set.IsTrusted("evil.net"))
	assert.False(t, set.IsTrusted("mail.google.com"))
	assert.False(t, set.IsTrusted(""))
}

func TestDefault_Members(t *testing.T) {
	t.Parallel()
	set := allowlist.Default()
	assert.Equal(t, 16, set.Len())

	domains := set.Domains()
	assert.Equal(t, "amazon.com", domains[0])
	assert.Contains(t, domains, "chatgpt.com")
	assert.IsIncreasing(t, domains)
}

func TestNilSet(t *testing.T) {
	t.Parallel()
	var set *allowlist.Set
	assert.False(t, set.IsTrusted("google.com"))
	assert.Equal(t, 0, set.Len())
	assert.Nil(t, set.Domains())
}

func TestUnion(t *testing.T) {
	t.Parallel()
	u := allowlist.New("a.com").Union(allowlist.New("b.org", "A.com"))
	assert.Equal(t, []string{"a.com", "b.org"}, u.Domains())
}

func TestReadDomains(t *testing.T) {
	t.Parallel()
	in := "# corporate allowlist\nexample.com\n\n  Example.ORG  # partner\n#disabled.net\n"
	got, err := allowlist.ReadDomains(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com", "example.org"}, got)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "trusted.txt")
	require.NoError(t, os.WriteFile(path, []byte("bank.example\n"), 0o644))

	set, err := allowlist.LoadFile(path)
	require.NoError(t, err)
	assert.True(t, set.IsTrusted("bank.example"))

	_, err = allowlist.LoadFile(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}

func TestNearest(t *testing.T) {
	t.Parallel()
	set := allowlist.Default()

	got, ok := set.Nearest("paypa1.com")
	require.True(t, ok)
	assert.Equal(t, "paypal.com", got.Trusted)
	assert.Equal(t, 1, got.Distance)

	_, ok = set.Nearest("paypal.com")
	assert.False(t, ok, "a trusted domain is not its own lookalike")

	_, ok = allowlist.New().Nearest("paypa1.com")
	assert.False(t, ok)
}
