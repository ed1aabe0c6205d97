package query

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/e2etap/e2etap/model"
)

func TestFailureReport(t *testing.T) {
	e := NewEngine(fixtureRun(t))

	report, err := e.FailureReport(0, FailureReportOptions{})
	require.NoError(t, err)

	require.Equal(t, "Error: locator not found", report.Error)
	require.Equal(t, 1, report.FailingIndex)
	require.NotNil(t, report.FailingAction)
	require.Equal(t, "click", report.FailingAction.Type)

	// The failing action's context rides along.
	require.Len(t, report.Network, 2)
	require.Len(t, report.Console, 1)
	require.Equal(t, "payment rejected", report.Console[0].Text)

	// Full timeline regardless of failure position.
	require.Len(t, report.Timeline, 2)
	require.False(t, report.Timeline[0].HasError)
	require.True(t, report.Timeline[1].HasError)

	// DOM and bodies elided by default.
	require.Nil(t, report.FailingAction.Snapshot)
	for _, req := range report.Network {
		require.Empty(t, req.RequestPostData)
		require.Empty(t, req.ResponseBody)
	}
}

func TestFailureReportOptIns(t *testing.T) {
	run := fixtureRun(t)
	// Give the failing action a snapshot so IncludeDOM has something
	// to keep.
	run.Tests[0].Actions[1].Snapshot = &model.SnapshotPair{Before: "- button \"Pay\""}

	e := NewEngine(run)
	report, err := e.FailureReport(0, FailureReportOptions{IncludeDOM: true, IncludeBodies: true})
	require.NoError(t, err)
	require.NotNil(t, report.FailingAction.Snapshot)
	require.Equal(t, `{"amount":1}`, report.Network[0].RequestPostData)
}

func TestFailureReportPassedTest(t *testing.T) {
	e := NewEngine(fixtureRun(t))

	report, err := e.FailureReport(1, FailureReportOptions{})
	require.NoError(t, err)
	require.Equal(t, model.StatusPassed, report.Status)
	require.Empty(t, report.Error)
	require.Equal(t, -1, report.FailingIndex)
	require.Nil(t, report.FailingAction)
}

func TestFailureReportSourceExcerpt(t *testing.T) {
	root := t.TempDir()
	src := `import { test } from '@playwright/test';

test('completes checkout', async ({ page }) => {
  await page.goto('/checkout');
  await page.click('text=Pay');
});
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "checkout.spec.ts"), []byte(src), 0644))

	run := fixtureRun(t)
	run.Tests[0].Location = "checkout.spec.ts:3"

	e := NewEngine(run)
	report, err := e.FailureReport(0, FailureReportOptions{SourceRoot: root})
	require.NoError(t, err)
	require.Contains(t, report.SourceExcerpt, "page.click('text=Pay')")
	require.Contains(t, report.SourceExcerpt, "});")
}

func TestEvidenceBundle(t *testing.T) {
	e := NewEngine(fixtureRun(t))

	out := filepath.Join(t.TempDir(), "evidence", "bundle.json")
	bundle, err := e.EvidenceBundle(0, out, FailureReportOptions{})
	require.NoError(t, err)

	require.NotNil(t, bundle.Report)
	require.Len(t, bundle.Screenshots, 1)
	require.Equal(t, "failure.png", bundle.Screenshots[0].Name)
	require.NotEmpty(t, bundle.Screenshots[0].Base64)

	// Persisted as a single document.
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var reparsed EvidenceBundle
	require.NoError(t, json.Unmarshal(data, &reparsed))
	require.Len(t, reparsed.Screenshots, 1)
	require.Equal(t, bundle.Report.TestTitle, reparsed.Report.TestTitle)
}

func TestEvidenceBundleNoOutput(t *testing.T) {
	e := NewEngine(fixtureRun(t))
	bundle, err := e.EvidenceBundle(0, "", FailureReportOptions{})
	require.NoError(t, err)
	require.Len(t, bundle.Screenshots, 1)
}
