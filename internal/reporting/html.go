package reporting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"time"

	"grid-strategy-lab/internal/domain"
	"grid-strategy-lab/internal/sweep"
)

// Chart colors, shared by both pages.
const (
	colorStrategy = "#1f77b4"
	colorStock    = "#ff7f0e"
	colorBuy      = "#2ca02c"
	colorSell     = "#d62728"
	colorCash     = "#9467bd"
)

// chartData is the JSON blob embedded into the HTML pages. The canvas
// script reads it as-is, so keys stay snake_case like the results JSON.
type chartData struct {
	Dates          []string     `json:"dates"`
	Prices         []float64    `json:"prices"`
	StrategyReturn []float64    `json:"strategy_return"`
	StockReturn    []float64    `json:"stock_return"`
	Cash           []float64    `json:"cash"`
	StockValue     []float64    `json:"stock_value"`
	Buys           []markerDoc  `json:"buys"`
	Sells          []markerDoc  `json:"sells"`
	UpAxis         []float64    `json:"up_axis"`
	DownAxis       []float64    `json:"down_axis"`
	Heat           [][]*float64 `json:"heat"`
	Excess         []float64    `json:"excess"`
	TradeCounts    []int        `json:"trade_counts"` // buys, sells, total
	RiskValues     []float64    `json:"risk_values"`  // annual, drawdown, sharpe
}

type markerDoc struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// htmlPage carries everything one template execution needs.
type htmlPage struct {
	Title       string
	Symbol      string
	RunID       string
	GeneratedAt string
	Viable      bool
	Best        *bestResultDoc
	DataJSON    template.JS
}

// RenderDashboardHTML renders the self-contained analysis dashboard:
// price series with trade markers, cumulative return curves, the excess
// return heatmap over the parameter grid, the excess distribution and
// trade and risk statistics. Everything is inlined, so the file opens
// without a network.
func RenderDashboardHTML(r *RunReport) ([]byte, error) {
	page, err := newHTMLPage(r, fmt.Sprintf("%s Grid Strategy Dashboard", r.Run.Symbol))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("render dashboard: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderComparisonHTML renders the strategy vs buy-and-hold page: the two
// cumulative return curves and the stacked cash/stock position area.
func RenderComparisonHTML(r *RunReport) ([]byte, error) {
	page, err := newHTMLPage(r, fmt.Sprintf("%s Grid Strategy vs Buy & Hold", r.Run.Symbol))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := comparisonTmpl.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("render comparison: %w", err)
	}
	return buf.Bytes(), nil
}

func newHTMLPage(r *RunReport, title string) (*htmlPage, error) {
	data := buildChartData(r)
	blob, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal chart data: %w", err)
	}

	page := &htmlPage{
		Title:       title,
		Symbol:      r.Run.Symbol,
		RunID:       r.Run.RunID,
		GeneratedAt: r.GeneratedAt.Format(time.RFC3339),
		Viable:      r.Best != nil,
		DataJSON:    template.JS(blob),
	}
	if best := r.Best; best != nil {
		page.Best = &bestResultDoc{
			UpRatio:         best.UpRatio,
			DownRatio:       best.DownRatio,
			GridCount:       best.GridCount,
			GridCash:        best.GridCash,
			TotalReturn:     best.TotalReturn,
			AnnualReturn:    best.AnnualReturn,
			MaxDrawdown:     best.MaxDrawdown,
			SharpeRatio:     best.SharpeRatio,
			StockReturn:     best.StockReturn,
			ExcessReturn:    best.ExcessReturn,
			TotalTrades:     best.TotalTrades,
			BuyTrades:       best.BuyTrades,
			SellTrades:      best.SellTrades,
			FinalCash:       best.FinalCash,
			FinalStockValue: best.FinalStockValue,
			FinalTotalValue: best.FinalTotalValue,
		}
	}
	return page, nil
}

func buildChartData(r *RunReport) *chartData {
	data := &chartData{
		Dates:          []string{},
		Prices:         []float64{},
		StrategyReturn: []float64{},
		StockReturn:    []float64{},
		Cash:           []float64{},
		StockValue:     []float64{},
		Buys:           []markerDoc{},
		Sells:          []markerDoc{},
		Excess:         make([]float64, 0, len(r.Rows)),
	}

	if best := r.Best; best != nil {
		for _, s := range best.Snapshots {
			data.Dates = append(data.Dates, s.Date.Format("2006-01-02"))
			data.Prices = append(data.Prices, s.Price)
			data.Cash = append(data.Cash, s.Cash)
			data.StockValue = append(data.StockValue, s.StockValue)
			if best.InitialCash > 0 {
				data.StrategyReturn = append(data.StrategyReturn, s.TotalValue/best.InitialCash-1)
			} else {
				data.StrategyReturn = append(data.StrategyReturn, 0)
			}
		}
		if len(best.Snapshots) > 0 && best.Snapshots[0].Price > 0 {
			first := best.Snapshots[0].Price
			for _, s := range best.Snapshots {
				data.StockReturn = append(data.StockReturn, s.Price/first-1)
			}
		}
		for _, tr := range best.Trades {
			m := markerDoc{Date: tr.Timestamp.Format("2006-01-02"), Price: tr.Price}
			switch tr.Side {
			case domain.SideBuy:
				data.Buys = append(data.Buys, m)
			case domain.SideSell:
				data.Sells = append(data.Sells, m)
			}
		}
		data.TradeCounts = []int{best.BuyTrades, best.SellTrades, best.TotalTrades}
		data.RiskValues = []float64{best.AnnualReturn, best.MaxDrawdown, best.SharpeRatio}
	}

	for _, row := range r.Rows {
		data.Excess = append(data.Excess, row.ExcessReturn)
	}
	data.UpAxis, data.DownAxis, data.Heat = heatMatrix(r.Run, r.Rows)
	return data
}

// heatMatrix arranges row excess returns on the enumerated (up, down)
// grid. Cells without a row stay nil and render as gaps.
func heatMatrix(run *domain.SweepRun, rows []*domain.SweepRow) (up, down []float64, cells [][]*float64) {
	up = sweep.BuildAxis(run.MinUpRatio, run.MaxUpRatio, run.StepSize)
	down = sweep.BuildAxis(run.MinDownRatio, run.MaxDownRatio, run.StepSize)
	cells = make([][]*float64, len(up))
	for i := range cells {
		cells[i] = make([]*float64, len(down))
	}
	for _, row := range rows {
		i := axisIndex(run.MinUpRatio, run.StepSize, row.UpRatio)
		j := axisIndex(run.MinDownRatio, run.StepSize, row.DownRatio)
		if i < 0 || i >= len(up) || j < 0 || j >= len(down) {
			continue
		}
		v := row.ExcessReturn
		cells[i][j] = &v
	}
	return up, down, cells
}

func axisIndex(min, step, v float64) int {
	if step <= 0 {
		return -1
	}
	return int(math.Round((v - min) / step))
}

var pageFuncs = template.FuncMap{
	"pct": func(v float64) string { return fmt.Sprintf("%.2f%%", v*100) },
	"f2":  func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"f3":  func(v float64) string { return fmt.Sprintf("%.3f", v) },
	"sign": func(v float64) string {
		if v < 0 {
			return "negative"
		}
		return "positive"
	},
}

const pageCSS = `
  body { font-family: Arial, sans-serif; margin: 24px; background: #fafafa; color: #222; }
  h1 { margin-bottom: 4px; }
  .meta { color: #777; font-size: 13px; margin-bottom: 18px; }
  .cards { display: flex; flex-wrap: wrap; gap: 12px; margin-bottom: 22px; }
  .card { background: #fff; border: 1px solid #e3e3e3; border-radius: 6px; padding: 10px 16px; min-width: 130px; }
  .card .label { font-size: 12px; color: #888; }
  .card .value { font-size: 20px; font-weight: bold; }
  .positive { color: #2ca02c; }
  .negative { color: #d62728; }
  .grid { display: grid; grid-template-columns: repeat(2, minmax(0, 1fr)); gap: 18px; }
  .panel { background: #fff; border: 1px solid #e3e3e3; border-radius: 6px; padding: 12px; }
  .panel h3 { margin: 0 0 8px 0; font-size: 15px; }
  canvas { width: 100%; }
  .notice { background: #fff3cd; border: 1px solid #ffe69c; padding: 12px 16px; border-radius: 6px; }
`

// chartJS is the shared canvas helper library. Plain ES5 with no
// external loads, so the artifacts open from disk.
const chartJS = `
  function frame(canvas, margin) {
    var m = margin || {l: 58, r: 16, t: 20, b: 34};
    return {ctx: canvas.getContext('2d'), l: m.l, t: m.t,
            w: canvas.width - m.l - m.r, h: canvas.height - m.t - m.b};
  }
  function extent(series) {
    var lo = Infinity, hi = -Infinity;
    series.forEach(function (vals) {
      vals.forEach(function (v) {
        if (v === null || !isFinite(v)) { return; }
        if (v < lo) { lo = v; }
        if (v > hi) { hi = v; }
      });
    });
    if (lo === Infinity) { lo = 0; hi = 1; }
    if (lo === hi) { lo -= 1; hi += 1; }
    var pad = (hi - lo) * 0.07;
    return [lo - pad, hi + pad];
  }
  function xAt(fr, i, n) { return fr.l + (n <= 1 ? 0.5 : i / (n - 1)) * fr.w; }
  function yAt(fr, v, lo, hi) { return fr.t + fr.h - (v - lo) / (hi - lo) * fr.h; }
  function drawAxes(fr, lo, hi, labels, fmt) {
    var ctx = fr.ctx;
    ctx.font = '11px sans-serif';
    ctx.lineWidth = 1;
    for (var i = 0; i <= 4; i++) {
      var v = lo + (hi - lo) * i / 4;
      var y = yAt(fr, v, lo, hi);
      ctx.strokeStyle = '#e4e4e4';
      ctx.beginPath(); ctx.moveTo(fr.l, y); ctx.lineTo(fr.l + fr.w, y); ctx.stroke();
      ctx.fillStyle = '#666';
      ctx.textAlign = 'right';
      ctx.fillText(fmt(v), fr.l - 6, y + 4);
    }
    if (labels && labels.length > 0) {
      ctx.textAlign = 'center';
      [0, Math.floor((labels.length - 1) / 2), labels.length - 1].forEach(function (i) {
        ctx.fillText(labels[i], xAt(fr, i, labels.length), fr.t + fr.h + 16);
      });
    }
  }
  function drawLine(fr, values, lo, hi, color, dash) {
    var ctx = fr.ctx;
    ctx.strokeStyle = color;
    ctx.lineWidth = 2;
    ctx.setLineDash(dash || []);
    ctx.beginPath();
    for (var i = 0; i < values.length; i++) {
      var x = xAt(fr, i, values.length), y = yAt(fr, values[i], lo, hi);
      if (i === 0) { ctx.moveTo(x, y); } else { ctx.lineTo(x, y); }
    }
    ctx.stroke();
    ctx.setLineDash([]);
  }
  function drawArea(fr, lower, upper, lo, hi, color) {
    var ctx = fr.ctx;
    ctx.fillStyle = color;
    ctx.globalAlpha = 0.55;
    ctx.beginPath();
    for (var i = 0; i < upper.length; i++) {
      var x = xAt(fr, i, upper.length), y = yAt(fr, upper[i], lo, hi);
      if (i === 0) { ctx.moveTo(x, y); } else { ctx.lineTo(x, y); }
    }
    for (var j = lower.length - 1; j >= 0; j--) {
      ctx.lineTo(xAt(fr, j, lower.length), yAt(fr, lower[j], lo, hi));
    }
    ctx.closePath();
    ctx.fill();
    ctx.globalAlpha = 1;
  }
  function triangle(fr, x, y, up, color) {
    var ctx = fr.ctx;
    ctx.fillStyle = color;
    ctx.beginPath();
    if (up) {
      ctx.moveTo(x, y - 5); ctx.lineTo(x - 4, y + 3); ctx.lineTo(x + 4, y + 3);
    } else {
      ctx.moveTo(x, y + 5); ctx.lineTo(x - 4, y - 3); ctx.lineTo(x + 4, y - 3);
    }
    ctx.closePath();
    ctx.fill();
  }
  function legend(fr, items) {
    var ctx = fr.ctx, x = fr.l + 8;
    ctx.font = '11px sans-serif';
    items.forEach(function (it) {
      ctx.fillStyle = it.color;
      ctx.fillRect(x, fr.t - 14, 10, 10);
      ctx.fillStyle = '#333';
      ctx.textAlign = 'left';
      ctx.fillText(it.label, x + 14, fr.t - 5);
      x += 14 + ctx.measureText(it.label).width + 18;
    });
  }
  function barChart(canvas, labels, values, colors, fmt) {
    var fr = frame(canvas);
    var ext = extent([values.concat([0])]);
    drawAxes(fr, ext[0], ext[1], null, fmt);
    var ctx = fr.ctx, n = values.length;
    var y0 = yAt(fr, 0, ext[0], ext[1]);
    for (var i = 0; i < n; i++) {
      var cx = fr.l + (i + 0.5) * fr.w / n;
      var y = yAt(fr, values[i], ext[0], ext[1]);
      var bw = fr.w / n * 0.5;
      ctx.fillStyle = colors[i % colors.length];
      ctx.fillRect(cx - bw / 2, Math.min(y, y0), bw, Math.abs(y0 - y) || 1);
      ctx.fillStyle = '#333';
      ctx.textAlign = 'center';
      ctx.fillText(fmt(values[i]), cx, Math.min(y, y0) - 5);
      ctx.fillText(labels[i], cx, fr.t + fr.h + 16);
    }
  }
  function viridis(t) {
    var stops = [[68, 1, 84], [59, 82, 139], [33, 145, 140], [94, 201, 98], [253, 231, 37]];
    t = Math.max(0, Math.min(1, t));
    var pos = t * (stops.length - 1);
    var i = Math.min(Math.floor(pos), stops.length - 2);
    var f = pos - i;
    var r = Math.round(stops[i][0] + (stops[i + 1][0] - stops[i][0]) * f);
    var g = Math.round(stops[i][1] + (stops[i + 1][1] - stops[i][1]) * f);
    var b = Math.round(stops[i][2] + (stops[i + 1][2] - stops[i][2]) * f);
    return 'rgb(' + r + ',' + g + ',' + b + ')';
  }
  function tickIdx(n) {
    if (n <= 5) {
      var all = [];
      for (var i = 0; i < n; i++) { all.push(i); }
      return all;
    }
    return [0, Math.floor(n / 4), Math.floor(n / 2), Math.floor(3 * n / 4), n - 1];
  }
  function pctFmt(v) { return (v * 100).toFixed(1) + '%'; }
  function numFmt(v) { return v.toFixed(2); }
  function intFmt(v) { return String(Math.round(v)); }
`

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(pageFuncs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>` + pageCSS + `</style>
</head>
<body>
<h1>{{.Symbol}} Grid Strategy Dashboard</h1>
<div class="meta">Run {{.RunID}} &middot; generated {{.GeneratedAt}}</div>
{{if .Viable}}
<div class="cards">
  <div class="card"><div class="label">Best Parameters</div><div class="value">{{pct .Best.UpRatio}} / {{pct .Best.DownRatio}}</div></div>
  <div class="card"><div class="label">Total Return</div><div class="value {{sign .Best.TotalReturn}}">{{pct .Best.TotalReturn}}</div></div>
  <div class="card"><div class="label">Buy &amp; Hold</div><div class="value {{sign .Best.StockReturn}}">{{pct .Best.StockReturn}}</div></div>
  <div class="card"><div class="label">Excess Return</div><div class="value {{sign .Best.ExcessReturn}}">{{pct .Best.ExcessReturn}}</div></div>
  <div class="card"><div class="label">Annual Return</div><div class="value {{sign .Best.AnnualReturn}}">{{pct .Best.AnnualReturn}}</div></div>
  <div class="card"><div class="label">Max Drawdown</div><div class="value negative">{{pct .Best.MaxDrawdown}}</div></div>
  <div class="card"><div class="label">Sharpe Ratio</div><div class="value">{{f3 .Best.SharpeRatio}}</div></div>
  <div class="card"><div class="label">Trades</div><div class="value">{{.Best.TotalTrades}}</div></div>
</div>
{{else}}
<div class="notice">No parameter pair produced a viable simulation for this run.</div>
{{end}}
<div class="grid">
  <div class="panel"><h3>Price &amp; Trades</h3><canvas id="price-chart" width="560" height="300"></canvas></div>
  <div class="panel"><h3>Cumulative Return</h3><canvas id="return-chart" width="560" height="300"></canvas></div>
  <div class="panel"><h3>Excess Return Heatmap</h3><canvas id="heatmap" width="560" height="300"></canvas></div>
  <div class="panel"><h3>Excess Return Distribution</h3><canvas id="histogram" width="560" height="300"></canvas></div>
  <div class="panel"><h3>Trade Statistics</h3><canvas id="trade-stats" width="560" height="300"></canvas></div>
  <div class="panel"><h3>Risk Metrics</h3><canvas id="risk-chart" width="560" height="300"></canvas></div>
</div>
<script>
var DATA = {{.DataJSON}};
` + chartJS + `
(function () {
  var D = DATA;
  var c = document.getElementById('price-chart');
  if (D.dates.length === 0) { return; }
  var fr = frame(c);
  var ext = extent([D.prices]);
  drawAxes(fr, ext[0], ext[1], D.dates, numFmt);
  drawLine(fr, D.prices, ext[0], ext[1], '` + colorStock + `');
  var idx = {};
  D.dates.forEach(function (d, i) { idx[d] = i; });
  D.buys.forEach(function (p) {
    if (idx[p.date] === undefined) { return; }
    triangle(fr, xAt(fr, idx[p.date], D.dates.length), yAt(fr, p.price, ext[0], ext[1]), true, '` + colorBuy + `');
  });
  D.sells.forEach(function (p) {
    if (idx[p.date] === undefined) { return; }
    triangle(fr, xAt(fr, idx[p.date], D.dates.length), yAt(fr, p.price, ext[0], ext[1]), false, '` + colorSell + `');
  });
  legend(fr, [{label: 'Close', color: '` + colorStock + `'},
              {label: 'Buy', color: '` + colorBuy + `'},
              {label: 'Sell', color: '` + colorSell + `'}]);
})();
(function () {
  var D = DATA;
  var c = document.getElementById('return-chart');
  if (D.strategy_return.length === 0) { return; }
  var fr = frame(c);
  var ext = extent([D.strategy_return, D.stock_return]);
  drawAxes(fr, ext[0], ext[1], D.dates, pctFmt);
  drawLine(fr, D.strategy_return, ext[0], ext[1], '` + colorStrategy + `');
  drawLine(fr, D.stock_return, ext[0], ext[1], '` + colorStock + `', [6, 4]);
  legend(fr, [{label: 'Grid Strategy', color: '` + colorStrategy + `'},
              {label: 'Buy & Hold', color: '` + colorStock + `'}]);
})();
(function () {
  var D = DATA;
  var c = document.getElementById('heatmap');
  if (D.up_axis.length === 0 || D.down_axis.length === 0) { return; }
  var fr = frame(c, {l: 58, r: 76, t: 12, b: 34});
  var ctx = fr.ctx;
  var lo = Infinity, hi = -Infinity;
  D.heat.forEach(function (row) {
    row.forEach(function (v) {
      if (v === null) { return; }
      if (v < lo) { lo = v; }
      if (v > hi) { hi = v; }
    });
  });
  if (lo === Infinity) { lo = 0; hi = 1; }
  if (lo === hi) { hi = lo + 1; }
  var cw = fr.w / D.down_axis.length, ch = fr.h / D.up_axis.length;
  for (var r = 0; r < D.up_axis.length; r++) {
    for (var col = 0; col < D.down_axis.length; col++) {
      var v = D.heat[r][col];
      ctx.fillStyle = v === null ? '#eee' : viridis((v - lo) / (hi - lo));
      ctx.fillRect(fr.l + col * cw, fr.t + fr.h - (r + 1) * ch, Math.ceil(cw), Math.ceil(ch));
    }
  }
  ctx.fillStyle = '#666';
  ctx.font = '11px sans-serif';
  ctx.textAlign = 'center';
  tickIdx(D.down_axis.length).forEach(function (i) {
    ctx.fillText(D.down_axis[i].toFixed(3), fr.l + (i + 0.5) * cw, fr.t + fr.h + 16);
  });
  ctx.textAlign = 'right';
  tickIdx(D.up_axis.length).forEach(function (i) {
    ctx.fillText(D.up_axis[i].toFixed(3), fr.l - 6, fr.t + fr.h - (i + 0.5) * ch + 4);
  });
  var bx = fr.l + fr.w + 16;
  for (var p = 0; p < fr.h; p++) {
    ctx.fillStyle = viridis(1 - p / fr.h);
    ctx.fillRect(bx, fr.t + p, 12, 1);
  }
  ctx.textAlign = 'left';
  ctx.fillStyle = '#666';
  ctx.fillText(pctFmt(hi), bx + 16, fr.t + 10);
  ctx.fillText(pctFmt(lo), bx + 16, fr.t + fr.h);
})();
(function () {
  var D = DATA;
  var c = document.getElementById('histogram');
  if (D.excess.length === 0) { return; }
  var fr = frame(c);
  var ctx = fr.ctx;
  var ext = extent([D.excess]);
  var bins = 20, counts = [];
  for (var i = 0; i < bins; i++) { counts.push(0); }
  D.excess.forEach(function (v) {
    var i = Math.min(bins - 1, Math.floor((v - ext[0]) / (ext[1] - ext[0]) * bins));
    counts[i]++;
  });
  var maxCount = Math.max.apply(null, counts);
  drawAxes(fr, 0, maxCount || 1, null, intFmt);
  var bw = fr.w / bins;
  for (var b = 0; b < bins; b++) {
    var h = counts[b] / (maxCount || 1) * fr.h;
    ctx.fillStyle = '` + colorStrategy + `';
    ctx.globalAlpha = 0.8;
    ctx.fillRect(fr.l + b * bw + 1, fr.t + fr.h - h, bw - 2, h);
    ctx.globalAlpha = 1;
  }
  ctx.fillStyle = '#666';
  ctx.textAlign = 'center';
  [0, Math.floor(bins / 2), bins - 1].forEach(function (b) {
    var v = ext[0] + (b + 0.5) / bins * (ext[1] - ext[0]);
    ctx.fillText(pctFmt(v), fr.l + (b + 0.5) * bw, fr.t + fr.h + 16);
  });
})();
(function () {
  var D = DATA;
  var c = document.getElementById('trade-stats');
  if (!D.trade_counts || D.trade_counts.length === 0) { return; }
  barChart(c, ['Buys', 'Sells', 'Total'], D.trade_counts,
           ['` + colorBuy + `', '` + colorSell + `', '` + colorStrategy + `'], intFmt);
})();
(function () {
  var D = DATA;
  var c = document.getElementById('risk-chart');
  if (!D.risk_values || D.risk_values.length === 0) { return; }
  barChart(c, ['Annual Return', 'Max Drawdown', 'Sharpe'], D.risk_values,
           ['` + colorStrategy + `', '` + colorStock + `', '` + colorBuy + `'], numFmt);
})();
</script>
</body>
</html>
`))

var comparisonTmpl = template.Must(template.New("comparison").Funcs(pageFuncs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>` + pageCSS + `
  .grid { grid-template-columns: 1fr; }
</style>
</head>
<body>
<h1>{{.Symbol}} Grid Strategy vs Buy &amp; Hold</h1>
<div class="meta">Run {{.RunID}} &middot; generated {{.GeneratedAt}}</div>
{{if .Viable}}
<div class="cards">
  <div class="card"><div class="label">Grid Strategy</div><div class="value {{sign .Best.TotalReturn}}">{{pct .Best.TotalReturn}}</div></div>
  <div class="card"><div class="label">Buy &amp; Hold</div><div class="value {{sign .Best.StockReturn}}">{{pct .Best.StockReturn}}</div></div>
  <div class="card"><div class="label">Excess Return</div><div class="value {{sign .Best.ExcessReturn}}">{{pct .Best.ExcessReturn}}</div></div>
  <div class="card"><div class="label">Final Value</div><div class="value">{{f2 .Best.FinalTotalValue}}</div></div>
</div>
{{else}}
<div class="notice">No parameter pair produced a viable simulation for this run.</div>
{{end}}
<div class="grid">
  <div class="panel"><h3>Cumulative Return</h3><canvas id="return-chart" width="1100" height="320"></canvas></div>
  <div class="panel"><h3>Position Value</h3><canvas id="position-chart" width="1100" height="320"></canvas></div>
</div>
<script>
var DATA = {{.DataJSON}};
` + chartJS + `
(function () {
  var D = DATA;
  var c = document.getElementById('return-chart');
  if (D.strategy_return.length === 0) { return; }
  var fr = frame(c);
  var ext = extent([D.strategy_return, D.stock_return]);
  drawAxes(fr, ext[0], ext[1], D.dates, pctFmt);
  drawLine(fr, D.strategy_return, ext[0], ext[1], '` + colorStrategy + `');
  drawLine(fr, D.stock_return, ext[0], ext[1], '` + colorStock + `', [6, 4]);
  legend(fr, [{label: 'Grid Strategy', color: '` + colorStrategy + `'},
              {label: 'Buy & Hold', color: '` + colorStock + `'}]);
})();
(function () {
  var D = DATA;
  var c = document.getElementById('position-chart');
  if (D.cash.length === 0) { return; }
  var fr = frame(c);
  var totals = D.cash.map(function (v, i) { return v + D.stock_value[i]; });
  var zeros = D.cash.map(function () { return 0; });
  var ext = extent([totals, [0]]);
  drawAxes(fr, ext[0], ext[1], D.dates, numFmt);
  drawArea(fr, zeros, D.cash, ext[0], ext[1], '` + colorCash + `');
  drawArea(fr, D.cash, totals, ext[0], ext[1], '` + colorStock + `');
  legend(fr, [{label: 'Cash', color: '` + colorCash + `'},
              {label: 'Stock Value', color: '` + colorStock + `'}]);
})();
</script>
</body>
</html>
`))
