package osv

import (
	"context"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEndpoint(t *testing.T) {
	t.Run("explicit sse suffix", func(t *testing.T) {
		endpoint, streamable := resolveEndpoint("http://localhost:8080/sse")
		assert.Equal(t, "http://localhost:8080/sse", endpoint)
		assert.False(t, streamable)
	})

	t.Run("mcp suffix selects streamable http", func(t *testing.T) {
		endpoint, streamable := resolveEndpoint("http://localhost:8080/mcp")
		assert.Equal(t, "http://localhost:8080/mcp/", endpoint)
		assert.True(t, streamable)

		endpoint, streamable = resolveEndpoint("http://localhost:8080/mcp/")
		assert.Equal(t, "http://localhost:8080/mcp/", endpoint)
		assert.True(t, streamable)
	})

	t.Run("bare base url defaults to sse", func(t *testing.T) {
		endpoint, streamable := resolveEndpoint("http://localhost:8080")
		assert.Equal(t, "http://localhost:8080/sse", endpoint)
		assert.False(t, streamable)
	})
}

func TestExtractPayload(t *testing.T) {
	t.Run("text content", func(t *testing.T) {
		payload, err := extractPayload("query_vulnerability", mcp.NewToolResultText(`{"vulns":[]}`))
		require.NoError(t, err)
		assert.JSONEq(t, `{"vulns":[]}`, string(payload))
	})

	t.Run("tool error becomes service error", func(t *testing.T) {
		_, err := extractPayload("query_vulnerability", mcp.NewToolResultError("boom"))
		require.ErrorIs(t, err, ErrService)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("empty content is a service error", func(t *testing.T) {
		_, err := extractPayload("query_vulnerability", mcp.NewToolResultText("  "))
		assert.ErrorIs(t, err, ErrService)
	})
}

func TestDecodeVulns(t *testing.T) {
	t.Run("wrapped object", func(t *testing.T) {
		vulns, err := decodeVulns([]byte(`{"vulns":[{"id":"GHSA-1"},{"id":"GHSA-2"}]}`))
		require.NoError(t, err)
		require.Len(t, vulns, 2)
		assert.Equal(t, "GHSA-1", vulns[0].ID)
	})

	t.Run("bare array", func(t *testing.T) {
		vulns, err := decodeVulns([]byte(`[{"id":"GHSA-1"}]`))
		require.NoError(t, err)
		require.Len(t, vulns, 1)
	})

	t.Run("no vulnerabilities", func(t *testing.T) {
		vulns, err := decodeVulns([]byte(`{"vulns":[]}`))
		require.NoError(t, err)
		assert.Empty(t, vulns)
	})

	t.Run("empty object means nothing affected", func(t *testing.T) {
		vulns, err := decodeVulns([]byte(`{}`))
		require.NoError(t, err)
		assert.Empty(t, vulns)

		vulns, err = decodeVulns([]byte(`{"vulns":null}`))
		require.NoError(t, err)
		assert.Empty(t, vulns)
	})

	t.Run("object without vulns key is not a clean scan", func(t *testing.T) {
		_, err := decodeVulns([]byte(`{"error":"rate limited"}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error")
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := decodeVulns([]byte(`not json`))
		assert.Error(t, err)
	})
}

func TestIsNotFound(t *testing.T) {
	t.Run("tool-reported miss", func(t *testing.T) {
		err := fmt.Errorf("%w: tool get_vulnerability reported: vulnerability not found", ErrService)
		assert.True(t, isNotFound(err))
	})

	t.Run("transport error mentioning not found stays transport", func(t *testing.T) {
		err := fmt.Errorf("%w: call get_vulnerability: host not found", ErrTransport)
		assert.False(t, isNotFound(err))
	})

	t.Run("service error without the phrase", func(t *testing.T) {
		err := fmt.Errorf("%w: tool get_vulnerability reported: internal error", ErrService)
		assert.False(t, isNotFound(err))
	})
}

func TestDecodeBatchResults(t *testing.T) {
	t.Run("aligned with queries", func(t *testing.T) {
		aligned, err := decodeBatchResults([]byte(`{"results":[{"vulns":[{"id":"GHSA-1"}]},{"vulns":[]}]}`), 2)
		require.NoError(t, err)
		require.Len(t, aligned, 2)
		require.Len(t, aligned[0], 1)
		assert.Empty(t, aligned[1])
	})

	t.Run("short server response leaves the tail nil", func(t *testing.T) {
		aligned, err := decodeBatchResults([]byte(`{"results":[{"vulns":[{"id":"GHSA-1"}]}]}`), 3)
		require.NoError(t, err)
		require.Len(t, aligned, 3)
		assert.Nil(t, aligned[2])
	})

	t.Run("overlong server response is truncated", func(t *testing.T) {
		aligned, err := decodeBatchResults([]byte(`{"results":[{"vulns":[]},{"vulns":[]}]}`), 1)
		require.NoError(t, err)
		assert.Len(t, aligned, 1)
	})
}

func TestVulnerabilityHelpers(t *testing.T) {
	vuln := Vulnerability{
		ID: "GHSA-35jh-r3h4-6jhm",
		Affected: []Affected{
			{
				Package:  AffectedPackage{Name: "lodash", Ecosystem: "npm"},
				Versions: []string{"4.17.19", "4.17.20"},
				Ranges: []Range{
					{Type: "ECOSYSTEM", Events: []Event{{Introduced: "0"}, {Fixed: "4.17.21"}}},
					{Type: "GIT", Events: []Event{{Fixed: "deadbeef"}}},
				},
			},
		},
	}

	assert.Equal(t, []string{"4.17.21"}, vuln.FixedVersions(), "GIT events are not versions")
	assert.Equal(t, []string{"4.17.19", "4.17.20"}, vuln.AffectedVersions())

	name, eco := vuln.AffectedPackageName()
	assert.Equal(t, "lodash", name)
	assert.Equal(t, "npm", eco)

	name, eco = Vulnerability{}.AffectedPackageName()
	assert.Empty(t, name)
	assert.Empty(t, eco)
}

func TestQueryLabel(t *testing.T) {
	q := PackageQuery{Name: "requests", Ecosystem: "PyPI", Version: "2.25.0"}
	assert.Equal(t, "requests:PyPI:2.25.0", q.Label())
}

func TestCallToolWithoutSession(t *testing.T) {
	c := NewClient("")
	_, err := c.QueryPackage(context.Background(), PackageQuery{Name: "requests", Ecosystem: "PyPI", Version: "2.25.0"})
	assert.ErrorIs(t, err, ErrTransport)
}
