package reporter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/e2etap/e2etap/model"
)

const sampleBatchReport = `{
  "suites": [
    {
      "title": "auth.spec.ts",
      "file": "auth.spec.ts",
      "specs": [],
      "suites": [
        {
          "title": "authentication",
          "file": "auth.spec.ts",
          "specs": [
            {
              "title": "logs in",
              "file": "auth.spec.ts",
              "line": 12,
              "tests": [
                {
                  "projectName": "chromium",
                  "status": "expected",
                  "results": [{"status": "passed", "duration": 812.5}]
                }
              ]
            },
            {
              "title": "rejects bad password",
              "file": "auth.spec.ts",
              "line": 30,
              "tests": [
                {
                  "projectName": "chromium",
                  "status": "unexpected",
                  "results": [
                    {
                      "status": "failed",
                      "duration": 1500,
                      "error": {"message": "Error: expected 401, got 200", "stack": "    at auth.spec.ts:33:5"}
                    }
                  ]
                }
              ]
            },
            {
              "title": "remembers session",
              "file": "auth.spec.ts",
              "line": 48,
              "tests": [
                {
                  "projectName": "chromium",
                  "status": "flaky",
                  "results": [
                    {"status": "failed", "duration": 900},
                    {"status": "passed", "duration": 850}
                  ]
                }
              ]
            },
            {
              "title": "sso login",
              "file": "auth.spec.ts",
              "line": 60,
              "tests": [{"projectName": "chromium", "status": "skipped", "results": []}]
            }
          ]
        }
      ]
    }
  ]
}`

func TestParseBatchReport(t *testing.T) {
	entries := ParseBatchReport([]byte(sampleBatchReport))
	require.Len(t, entries, 3, "skipped specs must be dropped")

	require.Equal(t, "authentication › logs in [chromium]", entries[0].TestTitle)
	require.Equal(t, model.StatusPassed, entries[0].Status)
	require.Equal(t, "auth.spec.ts", entries[0].File)
	require.Equal(t, "auth.spec.ts:12", entries[0].Location)

	require.Equal(t, model.StatusFailed, entries[1].Status)
	require.Contains(t, entries[1].Error, "expected 401, got 200")
	require.Contains(t, entries[1].Error, "auth.spec.ts:33:5")

	// Flaky-but-eventually-passed counts as passed.
	require.Equal(t, model.StatusPassed, entries[2].Status)
}

func TestParseBatchReportUnparseable(t *testing.T) {
	raw := []byte("Cannot find module 'playwright'\nstack stack stack")
	entries := ParseBatchReport(raw)
	require.Len(t, entries, 1)
	require.Equal(t, model.StatusFailed, entries[0].Status)
	require.Contains(t, entries[0].Error, "Cannot find module")
}

func TestParseBatchReportTruncatesDiagnostic(t *testing.T) {
	raw := make([]byte, 10000)
	for i := range raw {
		raw[i] = 'x'
	}
	entries := ParseBatchReport(raw)
	require.Len(t, entries, 1)
	require.Contains(t, entries[0].Error, "(truncated)")
	require.Less(t, len(entries[0].Error), 3000)
}

func TestParseBatchReportEmptySuites(t *testing.T) {
	entries := ParseBatchReport([]byte(`{"suites": []}`))
	require.NotNil(t, entries)
	require.Empty(t, entries)
}

func TestParseBatchReportResultLevelStatus(t *testing.T) {
	raw := `{"suites":[{"title":"t.spec.ts","file":"t.spec.ts","specs":[{
		"title":"old reporter","file":"t.spec.ts","line":5,
		"tests":[{"results":[{"status":"timedOut","duration":5000}]}]
	}]}]}`
	entries := ParseBatchReport([]byte(raw))
	require.Len(t, entries, 1)
	require.Equal(t, model.StatusFailed, entries[0].Status)
	require.Equal(t, "old reporter", entries[0].TestTitle)
}
