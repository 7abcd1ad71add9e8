package cohort

import "net/url"

// Query string parameters accepted by the metrics endpoint.
const (
	ParamStartDate = "start_date"
	ParamEndDate   = "end_date"
	ParamQuincena  = "quincena"
)

// MetricsRequest carries the optional filters of GET /cohorts_data/.
//
// Values are opaque: no date or number parsing happens here, the database
// decides what matches.
type MetricsRequest struct {
	StartDate *string
	EndDate   *string
	Quincena  *string
}

// BindQuery reads the filters from q. A parameter that is missing, or
// present with an empty value, stays nil.
func (r *MetricsRequest) BindQuery(q url.Values) error {
	r.StartDate = optional(q, ParamStartDate)
	r.EndDate = optional(q, ParamEndDate)
	r.Quincena = optional(q, ParamQuincena)
	return nil
}

func (r *MetricsRequest) Validate() error {
	return nil
}

// Filter converts the request into a repository filter.
func (r *MetricsRequest) Filter() MetricsFilter {
	return MetricsFilter{
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Quincena:  r.Quincena,
	}
}

// DateRangeRequest has no parameters.
type DateRangeRequest struct{}

func (r *DateRangeRequest) BindQuery(url.Values) error { return nil }

func (r *DateRangeRequest) Validate() error { return nil }

// optional returns the first value of key, or nil when it is absent or empty.
func optional(q url.Values, key string) *string {
	values, ok := q[key]
	if !ok || len(values) == 0 || values[0] == "" {
		return nil
	}
	v := values[0]
	return &v
}
