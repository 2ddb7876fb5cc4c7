package osv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool names exposed by the OSV MCP server.
const (
	toolQueryVulnerability = "query_vulnerability"
	toolQueryBatch         = "query_vulnerabilities_batch"
	toolGetVulnerability   = "get_vulnerability"
)

const DefaultServerURL = "http://localhost:8080"

// Client speaks MCP to the OSV tool server. The session is opened once via
// Connect and reused for every query in the run; Close releases it.
type Client struct {
	serverURL string
	session   *client.Client
}

func NewClient(serverURL string) *Client {
	if serverURL == "" {
		serverURL = DefaultServerURL
	}
	return &Client{serverURL: serverURL}
}

// resolveEndpoint picks the MCP transport from the URL shape: an explicit
// /sse suffix selects SSE, /mcp selects streamable HTTP, and anything else
// defaults to SSE under <base>/sse.
func resolveEndpoint(serverURL string) (endpoint string, streamable bool) {
	trimmed := strings.TrimRight(serverURL, "/")
	switch {
	case strings.HasSuffix(trimmed, "/sse"):
		return trimmed, false
	case strings.HasSuffix(trimmed, "/mcp"):
		return trimmed + "/", true
	default:
		return trimmed + "/sse", false
	}
}

// Connect opens and initializes the MCP session.
func (c *Client) Connect(ctx context.Context) error {
	endpoint, streamable := resolveEndpoint(c.serverURL)

	var (
		session *client.Client
		err     error
	)
	if streamable {
		session, err = client.NewStreamableHttpClient(endpoint)
	} else {
		session, err = client.NewSSEMCPClient(endpoint)
	}
	if err != nil {
		return fmt.Errorf("%w: create session for %s: %v", ErrTransport, endpoint, err)
	}

	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("%w: start session: %v", ErrTransport, err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "osv-scan-agent",
		Version: "1.0.0",
	}
	if _, err := session.Initialize(ctx, initReq); err != nil {
		session.Close()
		return fmt.Errorf("%w: initialize session: %v", ErrTransport, err)
	}

	c.session = session
	return nil
}

// Close releases the MCP session. Safe to call when Connect never succeeded.
func (c *Client) Close() error {
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

func (c *Client) QueryPackage(ctx context.Context, q PackageQuery) ([]Vulnerability, error) {
	payload, err := c.callTool(ctx, toolQueryVulnerability, map[string]any{
		"name":      q.Name,
		"ecosystem": q.Ecosystem,
		"version":   q.Version,
	})
	if err != nil {
		return nil, err
	}
	vulns, err := decodeVulns(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", ErrService, q.Label(), err)
	}
	return vulns, nil
}

// QueryBatch issues a single batch tool call for multiple triples. The result
// is index-aligned with queries; servers returning fewer entries leave the
// tail nil.
func (c *Client) QueryBatch(ctx context.Context, queries []PackageQuery) ([][]Vulnerability, error) {
	entries := make([]map[string]any, 0, len(queries))
	for _, q := range queries {
		entries = append(entries, map[string]any{
			"name":      q.Name,
			"ecosystem": q.Ecosystem,
			"version":   q.Version,
		})
	}

	payload, err := c.callTool(ctx, toolQueryBatch, map[string]any{"queries": entries})
	if err != nil {
		return nil, err
	}
	aligned, err := decodeBatchResults(payload, len(queries))
	if err != nil {
		return nil, fmt.Errorf("%w: batch query: %v", ErrService, err)
	}
	return aligned, nil
}

func decodeBatchResults(payload []byte, n int) ([][]Vulnerability, error) {
	var decoded struct {
		Results []struct {
			Vulns []Vulnerability `json:"vulns"`
		} `json:"results"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, err
	}

	aligned := make([][]Vulnerability, n)
	for i, r := range decoded.Results {
		if i >= n {
			break
		}
		aligned[i] = r.Vulns
	}
	return aligned, nil
}

func (c *Client) GetVulnerability(ctx context.Context, id string) (*Vulnerability, error) {
	payload, err := c.callTool(ctx, toolGetVulnerability, map[string]any{"id": id})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	var vuln Vulnerability
	if err := json.Unmarshal(payload, &vuln); err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrService, id, err)
	}
	if vuln.ID == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &vuln, nil
}

// callTool invokes one tool and returns the text payload of its first
// content block.
func (c *Client) callTool(ctx context.Context, name string, args map[string]any) ([]byte, error) {
	if c.session == nil {
		return nil, fmt.Errorf("%w: session not connected", ErrTransport)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := c.session.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: call %s: %v", ErrTransport, name, err)
	}
	return extractPayload(name, res)
}

func extractPayload(name string, res *mcp.CallToolResult) ([]byte, error) {
	text := firstText(res)
	if res.IsError {
		return nil, fmt.Errorf("%w: tool %s reported: %s", ErrService, name, text)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: tool %s returned no content", ErrService, name)
	}
	return []byte(text), nil
}

func firstText(res *mcp.CallToolResult) string {
	for _, content := range res.Content {
		if tc, ok := mcp.AsTextContent(content); ok {
			return tc.Text
		}
	}
	return ""
}

// decodeVulns accepts either the OSV API response object {"vulns": [...]} or
// a bare array; the server's wrapping is not part of the contract. A bare {}
// is the API's "nothing affected" answer, but an object carrying other keys
// and no vulns (say {"error": ...}) is a misbehaving server, not a clean scan.
func decodeVulns(payload []byte) ([]Vulnerability, error) {
	var object map[string]json.RawMessage
	if err := json.Unmarshal(payload, &object); err == nil {
		raw, ok := object["vulns"]
		if !ok {
			if len(object) == 0 {
				return nil, nil
			}
			return nil, fmt.Errorf("object response without vulns key: %s", objectKeys(object))
		}
		var vulns []Vulnerability
		if err := json.Unmarshal(raw, &vulns); err != nil {
			return nil, err
		}
		return vulns, nil
	}
	var bare []Vulnerability
	if err := json.Unmarshal(payload, &bare); err != nil {
		return nil, err
	}
	return bare, nil
}

func objectKeys(object map[string]json.RawMessage) string {
	keys := make([]string, 0, len(object))
	for k := range object {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

// isNotFound classifies a tool-reported miss. Only service-level errors
// qualify: a transport failure whose message happens to mention "not found"
// must stay a transport error.
func isNotFound(err error) bool {
	return errors.Is(err, ErrService) && strings.Contains(strings.ToLower(err.Error()), "not found")
}
