// Package cohort holds the report records and request DTOs for cohort
// retention metrics.
package cohort

import (
	"time"
)

// DateLayout is the wire format of every date in the report.
const DateLayout = "2006-01-02"

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate returns a pointer to the Date of t, or nil when t is nil.
// Scanned nullable columns go through here.
func NewDate(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	return &Date{Time: *t}
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	t, err := time.Parse(`"`+DateLayout+`"`, string(data))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// PeriodMetric is one cohort's activity in one quincena.
type PeriodMetric struct {
	CohortName       string  `json:"nombre_cohorte"`
	CohortStart      *Date   `json:"fecha_inicio"`
	CohortEnd        *Date   `json:"fecha_fin"`
	Quincena         int     `json:"quincena"`
	Date             *Date   `json:"fecha"`
	ActivePercentage float64 `json:"porcentaje_activas"`
	ActiveCount      int     `json:"cantidad_activas"`
}

// DateRange is the span of dates with period records. Both ends are nil
// when there is no data.
type DateRange struct {
	Min *Date `json:"min_fecha"`
	Max *Date `json:"max_fecha"`
}

// MetricsFilter narrows FetchCohortMetrics. A nil field is not applied.
type MetricsFilter struct {
	StartDate *string
	EndDate   *string
	Quincena  *string
}

// Active returns the number of filters that will be applied.
func (f MetricsFilter) Active() int {
	n := 0
	for _, v := range []*string{f.StartDate, f.EndDate, f.Quincena} {
		if v != nil {
			n++
		}
	}
	return n
}
