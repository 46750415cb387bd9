package grafana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/obslab/pulse/internal/reshape"
)

const (
	relationalRange = "now-6w"
	timeseriesRange = "now-30m"
	maxDataPoints   = 31
)

// Client talks to the dashboard service: discovery via the search and
// dashboard APIs, execution via the unified /api/ds/query proxy.
type Client struct {
	baseURL  string
	user     string
	password string
	http     *http.Client
}

func NewClient(baseURL, user, password string, timeout time.Duration) *Client {
	return &Client{
		baseURL:  baseURL,
		user:     user,
		password: password,
		http:     &http.Client{Timeout: timeout},
	}
}

// ListDashboards returns all dashboards visible to the configured account.
func (c *Client) ListDashboards(ctx context.Context) ([]DashboardRef, error) {
	var refs []DashboardRef
	if err := c.getJSON(ctx, "/api/search", &refs); err != nil {
		return nil, fmt.Errorf("dashboard search failed: %w", err)
	}
	return refs, nil
}

// DashboardQueries extracts executable queries from one dashboard: every
// panel target that declares either a time-series expression or a raw SQL
// statement becomes a descriptor; everything else is skipped.
func (c *Client) DashboardQueries(ctx context.Context, uid string) ([]QueryDescriptor, error) {
	var resp dashboardResponse
	if err := c.getJSON(ctx, "/api/dashboards/uid/"+uid, &resp); err != nil {
		return nil, fmt.Errorf("dashboard %s fetch failed: %w", uid, err)
	}

	var queries []QueryDescriptor
	for _, panel := range resp.Dashboard.Panels {
		for _, target := range panel.Targets {
			desc := QueryDescriptor{
				PanelTitle: panel.Title,
				Datasource: panel.Datasource,
				Backend:    Backend(panel.Datasource.Type),
			}
			switch {
			case target.Expr != "":
				desc.Query = target.Expr
			case target.RawSQL != "":
				desc.Query = target.RawSQL
			default:
				continue
			}
			queries = append(queries, desc)
		}
	}
	return queries, nil
}

// Execute runs one descriptor through the query proxy and returns the
// decoded result table. Failures of any kind — unknown backend, transport
// error, non-200 status, undecodable body — log and return nil so one bad
// query never aborts extraction of the rest.
func (c *Client) Execute(ctx context.Context, desc QueryDescriptor) *reshape.Table {
	query := dsQuery{
		RefID:      "A",
		Datasource: desc.Datasource,
	}
	req := dsQueryRequest{To: "now"}

	switch desc.Backend {
	case BackendRelational:
		query.RawSQL = desc.Query
		query.Format = "table"
		req.From = relationalRange
	case BackendTimeseries:
		instant := false
		query.Expr = desc.Query
		query.Format = "time_series"
		query.Instant = &instant
		query.MaxDataPoints = maxDataPoints
		req.From = timeseriesRange
	default:
		slog.Warn("[Grafana] Skipping query with unknown backend",
			"panel", desc.PanelTitle, "backend", desc.Backend)
		return nil
	}
	req.Queries = []dsQuery{query}

	body, err := json.Marshal(req)
	if err != nil {
		slog.Error("[Grafana] Failed to encode query payload", "panel", desc.PanelTitle, "error", err)
		return nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/ds/query", bytes.NewReader(body))
	if err != nil {
		slog.Error("[Grafana] Failed to build query request", "panel", desc.PanelTitle, "error", err)
		return nil
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.user, c.password)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		slog.Error("[Grafana] Query execution failed", "panel", desc.PanelTitle, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("[Grafana] Query execution returned non-OK status",
			"panel", desc.PanelTitle, "status", resp.StatusCode)
		return nil
	}

	var decoded dsQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		slog.Error("[Grafana] Failed to decode query response", "panel", desc.PanelTitle, "error", err)
		return nil
	}

	table := framesToTable(decoded)
	if table == nil {
		slog.Warn("[Grafana] Query produced no frames", "panel", desc.PanelTitle)
	}
	return table
}

// framesToTable flattens the first result's frames into one row-major table.
// Values arrive column-major; ragged columns pad with nil. Frames whose
// columns differ from the first frame cannot be concatenated and are skipped.
func framesToTable(resp dsQueryResponse) *reshape.Table {
	result, ok := resp.Results["A"]
	if !ok {
		for _, r := range resp.Results {
			result = r
			ok = true
			break
		}
	}
	if !ok || len(result.Frames) == 0 {
		return nil
	}

	var out *reshape.Table
	for _, frame := range result.Frames {
		columns := make([]string, len(frame.Schema.Fields))
		for i, f := range frame.Schema.Fields {
			if f.Name != "" {
				columns[i] = f.Name
			} else {
				columns[i] = fmt.Sprintf("col_%d", i)
			}
		}

		if out == nil {
			out = &reshape.Table{Columns: columns}
		} else if !sameColumns(out.Columns, columns) {
			slog.Warn("[Grafana] Skipping frame with mismatched columns",
				"want", out.Columns, "got", columns)
			continue
		}

		rowCount := 0
		for _, col := range frame.Data.Values {
			if len(col) > rowCount {
				rowCount = len(col)
			}
		}
		for r := 0; r < rowCount; r++ {
			row := make([]any, len(columns))
			for cIdx := range columns {
				if cIdx < len(frame.Data.Values) && r < len(frame.Data.Values[cIdx]) {
					row[cIdx] = frame.Data.Values[cIdx][r]
				}
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (c *Client) getJSON(ctx context.Context, path string, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.user, c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(into)
}
