// Package templates renders the dashboard views as templ components.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/muridae/tumorboard/internal/analysis"
	"github.com/muridae/tumorboard/internal/server/i18n"
	"github.com/muridae/tumorboard/internal/storage"
)

// MouseChart is one per-group chart of individual mouse series.
type MouseChart struct {
	Group    string
	DomID    string
	DataJSON string
}

// DashboardView carries everything the dashboard page renders.
type DashboardView struct {
	Copy            i18n.Copy
	Lang            string
	DatasetID       string
	DatasetName     string
	Groups          []string
	Mice            []string
	SelectedGroups  []string
	SelectedMice    []string
	Control         string
	DrugA           string
	DrugB           string
	Threshold       float64
	BootstrapN      int
	GroupChartJSON  string
	MouseCharts     []MouseChart
	Analytics       *analysis.Result
	EndpointSummary string
	Notice          string
}

// writer accumulates HTML and keeps the first write error.
type writer struct {
	w   io.Writer
	err error
}

func (b *writer) raw(s string) {
	if b.err != nil {
		return
	}
	_, b.err = io.WriteString(b.w, s)
}

func (b *writer) esc(s string) {
	b.raw(templ.EscapeString(s))
}

func (b *writer) f(format string, args ...any) {
	b.raw(fmt.Sprintf(format, args...))
}

// Layout wraps body in the full HTML shell: head assets, nav, and <main>.
func Layout(title string, copy i18n.Copy, lang string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		b := &writer{w: w}
		b.raw("<!doctype html>\n<html lang=\"")
		b.esc(lang)
		b.raw("\">\n<head>\n<meta charset=\"utf-8\">\n<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n<title>")
		b.esc(title)
		b.raw("</title>\n<meta name=\"description\" content=\"")
		b.esc(copy.MetaDescription)
		b.raw("\">\n")
		b.raw(`<script src="https://cdn.jsdelivr.net/npm/chart.js@4.4.2/dist/chart.umd.min.js"></script>` + "\n")
		b.raw(`<script src="https://unpkg.com/htmx.org@1.9.12"></script>` + "\n")
		b.raw("<style>\n" + baseCSS + "</style>\n")
		b.raw("<script>\n" + chartJS + "</script>\n")
		b.raw("</head>\n<body>\n<nav><strong>")
		b.esc(copy.AppTitle)
		b.raw("</strong> <a href=\"/\">")
		b.esc(copy.NavDashboard)
		b.raw("</a> <a href=\"/datasets\">")
		b.esc(copy.NavDatasets)
		b.raw("</a> <span class=\"lang\"><a href=\"?lang=en\">EN</a> | <a href=\"?lang=ja\">日本語</a></span></nav>\n<main>")
		if b.err != nil {
			return b.err
		}
		if body != nil {
			if err := body.Render(ctx, w); err != nil {
				return err
			}
		}
		b.raw("</main>\n</body>\n</html>\n")
		return b.err
	})
}

// DashboardPage renders the full analytics dashboard.
func DashboardPage(view DashboardView) templ.Component {
	title := view.Copy.AppTitle
	if view.DatasetName != "" {
		title = view.DatasetName + " — " + view.Copy.AppTitle
	}
	return Layout(title, view.Copy, view.Lang, dashboardBody(view))
}

// DatasetsPage renders the dataset version list.
func DatasetsPage(copy i18n.Copy, lang string, metas []storage.DatasetMeta) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		b := &writer{w: w}
		b.raw("<h2>")
		b.esc(copy.DatasetsHeading)
		b.raw("</h2>\n")
		if len(metas) == 0 {
			b.raw("<p class=\"notice\">")
			b.esc(copy.NoData)
			b.raw("</p>")
			return b.err
		}
		b.raw("<table><thead><tr><th>ID</th><th>Name</th><th>")
		b.esc(copy.UploadedAt)
		b.raw("</th><th>")
		b.esc(copy.Measurements)
		b.raw("</th></tr></thead><tbody>\n")
		for _, meta := range metas {
			b.raw("<tr><td><a href=\"/datasets/")
			b.esc(meta.ID)
			b.raw("\">")
			b.esc(meta.ID)
			b.raw("</a></td><td>")
			b.esc(meta.Name)
			b.raw("</td><td>")
			b.esc(meta.CreatedAt.Format("2006-01-02 15:04"))
			b.f("</td><td>%d</td></tr>\n", meta.MeasurementCount)
		}
		b.raw("</tbody></table>\n")
		return b.err
	})
	return Layout(copy.DatasetsHeading+" — "+copy.AppTitle, copy, lang, body)
}

// NoticePage renders a standalone localized message, used for empty stores
// and missing datasets.
func NoticePage(copy i18n.Copy, lang, message string) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		b := &writer{w: w}
		b.raw("<p class=\"notice\">")
		b.esc(message)
		b.raw("</p>")
		return b.err
	})
	return Layout(copy.AppTitle, copy, lang, body)
}

func dashboardBody(view DashboardView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		b := &writer{w: w}

		writeControls(b, view)

		b.raw("<section><h2>")
		b.esc(view.Copy.GroupMeanHeading)
		b.raw("</h2>\n<canvas id=\"chart-groups\" height=\"110\"></canvas>\n<script>tbLineChart(\"chart-groups\", ")
		b.raw(view.GroupChartJSON)
		b.raw(");</script>\n</section>\n")

		b.raw("<section><h2>")
		b.esc(view.Copy.PerMouseHeading)
		b.raw("</h2>\n<div class=\"grid\">\n")
		for _, mc := range view.MouseCharts {
			b.raw("<div><h3>")
			b.esc(mc.Group)
			b.raw("</h3><canvas id=\"")
			b.esc(mc.DomID)
			b.raw("\" height=\"160\"></canvas>\n<script>tbLineChart(\"")
			b.esc(mc.DomID)
			b.raw("\", ")
			b.raw(mc.DataJSON)
			b.raw(");</script>\n</div>\n")
		}
		b.raw("</div>\n</section>\n")

		writeAnalytics(b, view)

		b.raw("\n<a class=\"export\" href=\"/datasets/")
		b.esc(view.DatasetID)
		b.raw("/chart.png\">PNG</a>\n")
		return b.err
	})
}

func writeControls(b *writer, view DashboardView) {
	copy := view.Copy
	b.raw("<form class=\"controls\" method=\"get\" action=\"/datasets/")
	b.esc(view.DatasetID)
	b.raw("\" hx-get=\"/datasets/")
	b.esc(view.DatasetID)
	b.raw("\" hx-target=\"main\" hx-push-url=\"true\">\n<fieldset><legend>")
	b.esc(copy.ControlsHeading)
	b.raw("</legend>\n")

	b.raw("<label>")
	b.esc(copy.GroupsLabel)
	b.raw("<select name=\"groups\" multiple size=\"4\">")
	writeOptions(b, view.Groups, view.SelectedGroups)
	b.raw("</select></label>\n")

	b.raw("<label>")
	b.esc(copy.MiceLabel)
	b.raw("<select name=\"mice\" multiple size=\"4\">")
	writeOptions(b, view.Mice, view.SelectedMice)
	b.raw("</select></label>\n")

	writeSingleSelect(b, copy.ControlGroupLabel, "control", view.Groups, view.Control)
	writeSingleSelect(b, copy.DrugALabel, "drug_a", view.Groups, view.DrugA)
	writeSingleSelect(b, copy.DrugBLabel, "drug_b", view.Groups, view.DrugB)

	b.raw("<label title=\"")
	b.esc(copy.ThresholdHelp)
	b.raw("\">")
	b.esc(copy.ThresholdLabel)
	b.f("<input type=\"number\" name=\"threshold\" min=\"0\" step=\"50\" value=\"%g\"></label>\n", view.Threshold)

	b.raw("<label>")
	b.esc(copy.BootstrapLabel)
	b.f("<input type=\"number\" name=\"boot\" min=\"%d\" max=\"%d\" step=\"200\" value=\"%d\"></label>\n",
		analysis.MinBootstrapN, analysis.MaxBootstrapN, view.BootstrapN)

	b.raw("<input type=\"hidden\" name=\"lang\" value=\"")
	b.esc(view.Lang)
	b.raw("\">\n<button type=\"submit\">")
	b.esc(copy.ApplyLabel)
	b.raw("</button>\n</fieldset>\n</form>\n")
}

func writeOptions(b *writer, values, selected []string) {
	selectedSet := make(map[string]bool, len(selected))
	for _, v := range selected {
		selectedSet[v] = true
	}
	for _, v := range values {
		b.raw("<option value=\"")
		b.esc(v)
		b.raw("\"")
		if selectedSet[v] {
			b.raw(" selected")
		}
		b.raw(">")
		b.esc(v)
		b.raw("</option>")
	}
}

func writeSingleSelect(b *writer, label, name string, values []string, selected string) {
	b.raw("<label>")
	b.esc(label)
	b.raw("<select name=\"")
	b.esc(name)
	b.raw("\">")
	for _, v := range values {
		b.raw("<option value=\"")
		b.esc(v)
		b.raw("\"")
		if v == selected {
			b.raw(" selected")
		}
		b.raw(">")
		b.esc(v)
		b.raw("</option>")
	}
	b.raw("</select></label>\n")
}

func writeAnalytics(b *writer, view DashboardView) {
	copy := view.Copy

	b.raw("<section><h2>")
	b.esc(copy.EndpointHeading)
	b.raw("</h2>\n")

	if view.Notice != "" {
		b.raw("<p class=\"notice\">")
		b.esc(view.Notice)
		b.raw("</p>\n</section>\n")
		return
	}
	result := view.Analytics
	if result == nil {
		b.raw("</section>\n")
		return
	}

	b.raw("<p>")
	b.esc(view.EndpointSummary)
	b.raw("</p>\n<table><thead><tr><th>Group</th><th>N</th><th>Mean</th><th>TGI (%)</th></tr></thead><tbody>\n")
	for _, g := range result.Groups {
		b.raw("<tr><td>")
		b.esc(g.Group)
		b.f("</td><td>%d</td><td>%.1f</td><td>%.1f</td></tr>\n", g.N, g.MeanVolume, g.TGI)
	}
	b.raw("</tbody></table>\n</section>\n")

	b.raw("<section><h2>")
	b.esc(copy.BlissHeading)
	b.raw("</h2>\n")
	if result.Bliss == nil {
		b.raw("<p class=\"notice\">")
		b.esc(copy.NoBliss)
		b.raw("</p>\n")
	} else {
		b.f("<p>TGI A = <strong>%.1f%%</strong>, TGI B = <strong>%.1f%%</strong> → Bliss = <strong>%.1f%%</strong></p>\n",
			result.Bliss.DrugATGI, result.Bliss.DrugBTGI, result.Bliss.ExpectedTGI)
	}
	b.raw("</section>\n")

	b.raw("<section><h2>")
	b.esc(copy.CombinationHeading)
	b.raw("</h2>\n")
	switch combo := result.Combination; {
	case combo == nil && result.Bliss == nil:
		b.raw("<p class=\"notice\">")
		b.esc(copy.NoBliss)
		b.raw("</p>\n")
	case combo == nil:
		b.raw("<p class=\"notice\">")
		b.esc(copy.NoCombo)
		b.raw("</p>\n")
	case combo.Index == nil:
		b.raw("<p>")
		b.esc(combo.Group)
		b.f(": TGI = <strong>%.1f%%</strong></p>\n<p class=\"notice\">", combo.TGI)
		b.esc(copy.NoComboIndex)
		b.raw("</p>\n")
	default:
		b.raw("<p>")
		b.esc(combo.Group)
		b.f(": TGI = <strong>%.1f%%</strong>, CI = <strong>%.3f</strong>", combo.TGI, *combo.Index)
		if combo.Bootstrap != nil {
			b.f(", 95%% CI = <strong>[%.3f, %.3f]</strong>", combo.Bootstrap.Low, combo.Bootstrap.High)
		}
		b.raw("</p>\n")
	}
	b.raw("</section>\n")

	if len(result.GrowthRates) > 0 {
		b.raw("<section><h2>")
		b.esc(copy.GrowthHeading)
		b.raw("</h2>\n<table><thead><tr><th>Group</th><th>N</th><th>Rate/day</th><th>SD</th><th>Doubling (days)</th></tr></thead><tbody>\n")
		for _, g := range result.GrowthRates {
			b.raw("<tr><td>")
			b.esc(g.Group)
			b.f("</td><td>%d</td><td>%.4f</td><td>%.4f</td>", g.N, g.Rate, g.RateSD)
			if g.Doubles > 0 {
				b.f("<td>%.1f</td></tr>\n", g.Doubles)
			} else {
				b.raw("<td>—</td></tr>\n")
			}
		}
		b.raw("</tbody></table>\n</section>\n")
	}
}

const baseCSS = `body{font-family:system-ui,sans-serif;margin:0;color:#1d2129}
nav{padding:.6rem 1rem;background:#15365e;color:#fff}
nav a{color:#cfe0f5;margin-left:.8rem;text-decoration:none}
nav .lang{float:right}
main{padding:1rem;max-width:1100px;margin:0 auto}
section{margin-bottom:2rem}
.controls fieldset{display:flex;flex-wrap:wrap;gap:1rem;border:1px solid #d0d4da;padding:.8rem}
.controls label{display:flex;flex-direction:column;font-size:.85rem;gap:.2rem}
.grid{display:grid;grid-template-columns:repeat(2,1fr);gap:1rem}
table{border-collapse:collapse;width:100%}
th,td{border:1px solid #d0d4da;padding:.35rem .6rem;text-align:left}
.notice{background:#fff6da;border:1px solid #e6d28f;padding:.6rem}
.export{font-size:.85rem}
`

const chartJS = `function tbLineChart(id, payload){
  const el = document.getElementById(id);
  if (!el || typeof Chart === "undefined") { return; }
  if (el._tbChart) { el._tbChart.destroy(); }
  el._tbChart = new Chart(el, {
    type: "line",
    data: {
      datasets: payload.series.map(function(s, i){
        return {
          label: s.label,
          data: s.points.map(function(p){ return {x: p.day, y: p.volume}; }),
          borderWidth: 2,
          pointRadius: 3
        };
      })
    },
    options: {
      responsive: true,
      scales: {
        x: {type: "linear", title: {display: true, text: "day"}},
        y: {title: {display: true, text: "volume"}}
      }
    }
  });
}
`
