package grafana

// Backend tags which query engine a descriptor targets. Dispatch is always
// an explicit switch on this tag — never duck-typed field probing.
type Backend string

const (
	BackendTimeseries Backend = "prometheus"
	BackendRelational Backend = "postgres"
)

// Datasource is the dashboard-side datasource reference, forwarded verbatim
// in query payloads.
type Datasource struct {
	Type string `json:"type"`
	UID  string `json:"uid,omitempty"`
}

// DashboardRef is one search hit from dashboard discovery.
type DashboardRef struct {
	UID   string `json:"uid"`
	Title string `json:"title"`
}

// QueryDescriptor is one executable query discovered on a dashboard panel.
type QueryDescriptor struct {
	PanelTitle string
	Backend    Backend
	Query      string
	Datasource Datasource
}

// Wire shapes for the unified query API.

type dsQuery struct {
	RefID         string     `json:"refId"`
	Datasource    Datasource `json:"datasource"`
	Expr          string     `json:"expr,omitempty"`
	RawSQL        string     `json:"rawSql,omitempty"`
	Format        string     `json:"format"`
	Instant       *bool      `json:"instant,omitempty"`
	MaxDataPoints int        `json:"maxDataPoints,omitempty"`
}

type dsQueryRequest struct {
	Queries []dsQuery `json:"queries"`
	From    string    `json:"from"`
	To      string    `json:"to"`
}

type dsQueryResponse struct {
	Results map[string]dsQueryResult `json:"results"`
}

type dsQueryResult struct {
	Frames []dataFrame `json:"frames"`
}

// dataFrame is the frame-structured result: schema fields plus parallel
// column-major value arrays.
type dataFrame struct {
	Schema struct {
		Fields []struct {
			Name string `json:"name"`
		} `json:"fields"`
	} `json:"schema"`
	Data struct {
		Values [][]any `json:"values"`
	} `json:"data"`
}

type dashboardResponse struct {
	Dashboard struct {
		Panels []struct {
			Title      string     `json:"title"`
			Datasource Datasource `json:"datasource"`
			Targets    []struct {
				Expr   string `json:"expr"`
				RawSQL string `json:"rawSql"`
			} `json:"targets"`
		} `json:"panels"`
	} `json:"dashboard"`
}
