package reporter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanBlockSimple(t *testing.T) {
	src := `function login() {
  await page.goto('/');
}`
	end := ScanBlock(src, 0)
	require.Equal(t, len(src), end)
	require.Contains(t, src[:end], "page.goto")
}

func TestScanBlockSkipsStringsAndComments(t *testing.T) {
	src := "f() { // ignore } this brace\n" +
		"  const a = '}';\n" +
		"  const b = \"{\";\n" +
		"}done"
	end := ScanBlock(src, 0)
	require.Greater(t, end, 0)
	require.Equal(t, "done", src[end:])
}

func TestScanBlockTemplateLiterals(t *testing.T) {
	// Template literal with nested interpolation carrying its own
	// braces and quotes.
	src := "g() {\n" +
		"  const msg = `hello ${user.name || '}'} and ${fn({a: \"}\"})}`;\n" +
		"}rest"
	end := ScanBlock(src, 0)
	require.Greater(t, end, 0)
	require.Equal(t, "rest", src[end:])
}

func TestScanBlockUnbalanced(t *testing.T) {
	require.Equal(t, -1, ScanBlock("f() {", 0))
	require.Equal(t, -1, ScanBlock("no braces here", 0))
}

func TestTestSourceSpan(t *testing.T) {
	src := strings.Join([]string{
		"import { test } from '@playwright/test';", // 1
		"",                                          // 2
		"test('first', async ({ page }) => {",       // 3
		"  await page.goto('/');",                   // 4
		"});",                                       // 5
		"",                                          // 6
		"test('second', async ({ page }) => {",      // 7
		"  await page.click('text=Go');",            // 8
		"  await page.fill('#q', '{');",             // 9
		"});",                                       // 10
	}, "\n")

	start, end, ok := TestSourceSpan(src, 7)
	require.True(t, ok)
	require.Equal(t, 7, start)
	require.Equal(t, 10, end)

	start, end, ok = TestSourceSpan(src, 3)
	require.True(t, ok)
	require.Equal(t, 3, start)
	require.Equal(t, 5, end)

	_, _, ok = TestSourceSpan(src, 99)
	require.False(t, ok)

	_, _, ok = TestSourceSpan(src, 0)
	require.False(t, ok)
}
