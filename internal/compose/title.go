package compose

import (
	"fmt"
	"time"
)

// titleTimeLayout renders run and valid times in title blocks.
const titleTimeLayout = "2006-01-02 15Z"

// Title is the text block across the top of a rendered map.
type Title struct {
	Main       string `json:"main"`
	Model      string `json:"model,omitempty"`
	Initial    string `json:"initial,omitempty"`
	Forecast   string `json:"forecast"`
	Valid      string `json:"valid,omitempty"`
	AccumHours int    `json:"accum_hours,omitempty"`
}

// buildTitle assembles the block. initTime comes from the retrieved grid,
// not from the request: token-addressed runs learn their timestamp from the
// data itself. A zero initTime leaves the initial and valid strings empty.
func buildTitle(main, model string, initTime time.Time, fhour, accumHours int) Title {
	t := Title{
		Main:       main,
		Model:      model,
		Forecast:   fmt.Sprintf("FH %03d", fhour),
		AccumHours: accumHours,
	}
	if !initTime.IsZero() {
		utc := initTime.UTC()
		t.Initial = "Init " + utc.Format(titleTimeLayout)
		t.Valid = "Valid " + utc.Add(time.Duration(fhour)*time.Hour).Format(titleTimeLayout)
	}
	return t
}
