// Package render produces standalone HTML pages for the month grid and
// the week view. The pages are self-contained (inline CSS, no scripts
// beyond none) and expose data-ready="true" on the root element so the
// snapshot capture knows rendering is complete.
package render

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"unicorn/internal/model"
)

// MonthPage is the input of the month-grid template.
type MonthPage struct {
	Year     int
	Month    time.Month
	Weeks    []model.Week
	Holidays map[string]string
}

// DayColumn is one day of the week view with its laid-out events.
type DayColumn struct {
	Date   time.Time
	Events []model.PositionedEvent
}

// WeekPage is the input of the week-view template.
type WeekPage struct {
	WeekNumber int
	Days       []DayColumn
	StartHour  int
	EndHour    int
	HourHeight float64
}

// CanvasHeight returns the pixel height of the day canvas.
func (p WeekPage) CanvasHeight() float64 {
	return float64(p.EndHour-p.StartHour+1) * p.HourHeight
}

// Hours lists the axis labels of the visible window.
func (p WeekPage) Hours() []int {
	hours := make([]int, 0, p.EndHour-p.StartHour+1)
	for h := p.StartHour; h <= p.EndHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

var funcs = template.FuncMap{
	"dateKey": func(t time.Time) string { return t.Format(model.DateKeyLayout) },
	"dayNum":  func(t time.Time) int { return t.Day() },
	"clock":   func(t time.Time) string { return t.Format("15:04") },
	"px":      func(f float64) template.CSS { return template.CSS(fmt.Sprintf("%.1fpx", f)) },
	"pct":     func(f float64) template.CSS { return template.CSS(fmt.Sprintf("%.3f%%", f)) },
}

var monthTmpl = template.Must(template.New("month").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><style>
body { font-family: sans-serif; margin: 0; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; vertical-align: top; padding: 4px; width: 12.5%; }
td.out { color: #aaa; background: #f7f7f7; }
td.today { background: #fff4cc; }
td .holiday { color: #b00; font-size: 0.75em; }
td .event { font-size: 0.75em; background: #dbeafe; margin: 1px 0; padding: 1px 2px; border-radius: 2px; }
th.wk, td.wk { width: 3em; background: #eee; text-align: center; }
</style></head>
<body data-ready="true">
<h2>{{.Month}} {{.Year}}</h2>
<table>
<tr><th class="wk">KW</th><th>Mo</th><th>Di</th><th>Mi</th><th>Do</th><th>Fr</th><th>Sa</th><th>So</th></tr>
{{range .Weeks}}<tr>
<td class="wk">{{.Number}}</td>
{{range .Days}}<td class="{{if not .IsCurrentMonth}}out{{end}}{{if .IsToday}} today{{end}}">
<div>{{dayNum .Date}}</div>
{{with index $.Holidays (dateKey .Date)}}<div class="holiday">{{.}}</div>{{end}}
{{range .Events}}<div class="event">{{clock .Start}} {{.Summary}}</div>{{end}}
</td>{{end}}
</tr>{{end}}
</table>
</body>
</html>
`))

var weekTmpl = template.Must(template.New("week").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><style>
body { font-family: sans-serif; margin: 0; }
.row { display: flex; }
.axis { width: 3em; font-size: 0.7em; color: #666; }
.axis div { height: {{px .HourHeight}}; box-sizing: border-box; }
.day { flex: 1; border-left: 1px solid #ddd; position: relative; height: {{px .CanvasHeight}}; }
.day h4 { position: absolute; top: -1.6em; margin: 0; font-size: 0.8em; }
.ev { position: absolute; box-sizing: border-box; overflow: hidden; font-size: 0.7em;
      background: #dbeafe; border: 1px solid #93c5fd; border-radius: 2px; padding: 1px 2px; }
</style></head>
<body data-ready="true">
<h2>KW {{.WeekNumber}}</h2>
<div class="row" style="margin-top: 2em">
<div class="axis">{{range .Hours}}<div>{{.}}:00</div>{{end}}</div>
{{range .Days}}<div class="day">
<h4>{{dateKey .Date}}</h4>
{{range .Events}}<div class="ev" style="top: {{px .Layout.Top}}; height: {{px .Layout.Height}}; left: {{pct .Layout.Left}}; width: {{pct .Layout.Width}}">{{clock .Start}} {{.Summary}}</div>{{end}}
</div>{{end}}
</div>
</body>
</html>
`))

// MonthHTML writes the month-grid page.
func MonthHTML(w io.Writer, page MonthPage) error {
	return monthTmpl.Execute(w, page)
}

// WeekHTML writes the week-view page.
func WeekHTML(w io.Writer, page WeekPage) error {
	return weekTmpl.Execute(w, page)
}
