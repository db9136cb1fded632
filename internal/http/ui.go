package http

import nethttp "net/http"

func dashboardHandler(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.URL.Path != "/" {
		nethttp.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(nethttp.StatusOK)
	_, _ = w.Write([]byte(dashboardHTML))
}

func faviconHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	w.WriteHeader(nethttp.StatusNoContent)
}

const dashboardHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>OEE Performance Dashboard</title>
  <style>
    @import url("https://fonts.googleapis.com/css?family=Open+Sans:300,400,600,700");

    :root {
      --brand: #1c4e80;
      --brand-2: #2d6da3;
      --bg: #f7f7f7;
      --paper: #fff;
      --text: #333;
      --muted: #777;
      --line: #ddd;
      --line-soft: #eee;
      --head: #f0f0f0;
      --good-bg: #dff0d8;
      --good-text: #3c763d;
      --warn-bg: #fcf8e3;
      --warn-text: #8a6d3b;
      --bad-bg: #f2dede;
      --bad-text: #a94442;
      --bar: #4a90d9;
      --bar-cum: #e08f2e;
    }

    * { box-sizing: border-box; }

    body {
      margin: 0;
      background: var(--bg);
      color: var(--text);
      font-family: "Open Sans", "Helvetica Neue", Helvetica, Arial, sans-serif;
      font-size: 14px;
      line-height: 1.42857143;
    }

    header {
      background: linear-gradient(to right, var(--brand) 0, var(--brand-2) 100%);
      border-bottom: 1px solid #163d66;
      box-shadow: 0 2px 5px rgba(0, 0, 0, 0.15);
    }

    .container {
      margin-right: auto;
      margin-left: auto;
      padding-left: 15px;
      padding-right: 15px;
      width: 100%;
      max-width: 1480px;
    }

    .header-inner {
      min-height: 70px;
      display: flex;
      align-items: center;
      justify-content: space-between;
      gap: 16px;
    }

    .navbar-brand {
      color: #fff;
      font-size: 22px;
      font-weight: 300;
    }

    .navbar-brand strong { font-weight: 600; }

    .navbar-note {
      color: rgba(255, 255, 255, 0.88);
      font-size: 13px;
      font-weight: 300;
      text-align: right;
    }

    main { padding: 18px 0 32px; }

    .filters {
      display: flex;
      flex-wrap: wrap;
      gap: 14px;
      align-items: flex-end;
      background: var(--paper);
      border: 1px solid var(--line);
      border-radius: 4px;
      padding: 12px 14px;
      margin-bottom: 16px;
    }

    .filters label {
      display: block;
      font-size: 12px;
      color: var(--muted);
      margin-bottom: 3px;
    }

    .filters select, .filters input[type="date"] {
      border: 1px solid var(--line);
      border-radius: 3px;
      padding: 5px 8px;
      font-size: 13px;
      background: #fff;
    }

    .shift-boxes { display: flex; gap: 10px; padding: 5px 0; }
    .shift-boxes label { font-size: 13px; color: var(--text); margin: 0; }

    .btn {
      border: 1px solid var(--brand);
      background: var(--brand);
      color: #fff;
      border-radius: 3px;
      padding: 6px 14px;
      font-size: 13px;
      cursor: pointer;
    }
    .btn:hover { background: var(--brand-2); }
    .btn.secondary { background: #fff; color: var(--brand); }

    .kpi-grid {
      display: grid;
      grid-template-columns: repeat(4, minmax(160px, 1fr));
      gap: 12px;
      margin-bottom: 16px;
    }

    .kpi-card {
      background: var(--paper);
      border: 1px solid var(--line);
      border-radius: 4px;
      padding: 12px 14px;
    }

    .kpi-card .label { color: var(--muted); font-size: 12px; text-transform: uppercase; }
    .kpi-card .value { font-size: 28px; font-weight: 600; margin: 4px 0; }
    .kpi-card .sub { font-size: 12px; color: var(--muted); }

    .badge {
      display: inline-block;
      border-radius: 3px;
      padding: 1px 8px;
      font-size: 12px;
    }
    .badge.good { background: var(--good-bg); color: var(--good-text); }
    .badge.warning { background: var(--warn-bg); color: var(--warn-text); }
    .badge.critical { background: var(--bad-bg); color: var(--bad-text); }
    .badge.no_data { background: var(--head); color: var(--muted); }

    .panel {
      background: var(--paper);
      border: 1px solid var(--line);
      border-radius: 4px;
      margin-bottom: 16px;
    }

    .panel h2 {
      margin: 0;
      padding: 10px 14px;
      border-bottom: 1px solid var(--line-soft);
      background: var(--head);
      font-size: 15px;
      font-weight: 600;
    }

    .panel .body { padding: 12px 14px; overflow-x: auto; }

    table { border-collapse: collapse; width: 100%; }
    th, td {
      border-bottom: 1px solid var(--line-soft);
      padding: 6px 10px;
      text-align: left;
      font-size: 13px;
      white-space: nowrap;
    }
    th { background: var(--head); font-weight: 600; }
    td.num, th.num { text-align: right; }

    .bar-track {
      display: inline-block;
      width: 140px;
      height: 10px;
      background: var(--line-soft);
      border-radius: 2px;
      vertical-align: middle;
      margin-right: 6px;
    }
    .bar-fill { display: block; height: 10px; border-radius: 2px; background: var(--bar); }
    .bar-fill.cum { background: var(--bar-cum); }

    .insights li { margin-bottom: 6px; }
    .muted { color: var(--muted); }
    .status-line { font-size: 12px; color: var(--muted); margin-top: 10px; }

    footer { padding: 8px 0 24px; color: var(--muted); font-size: 12px; }
  </style>
</head>
<body>
  <header>
    <div class="container header-inner">
      <div class="navbar-brand"><strong>OEE</strong> Performance Dashboard</div>
      <div class="navbar-note" id="meta-note">loading dataset&hellip;</div>
    </div>
  </header>

  <main class="container">
    <div class="filters">
      <div>
        <label for="machine-select">Machine</label>
        <select id="machine-select"></select>
      </div>
      <div>
        <label>Shifts</label>
        <div class="shift-boxes" id="shift-boxes"></div>
      </div>
      <div>
        <label for="from-date">From</label>
        <input type="date" id="from-date" />
      </div>
      <div>
        <label for="to-date">To</label>
        <input type="date" id="to-date" />
      </div>
      <button class="btn" id="apply-btn">Apply</button>
      <button class="btn secondary" id="reload-btn">Reload data</button>
    </div>

    <div class="kpi-grid">
      <div class="kpi-card">
        <div class="label">OEE</div>
        <div class="value" id="kpi-oee">&ndash;</div>
        <div class="sub"><span class="badge no_data" id="kpi-oee-status">no data</span></div>
      </div>
      <div class="kpi-card">
        <div class="label">Availability</div>
        <div class="value" id="kpi-availability">&ndash;</div>
        <div class="sub"><span class="badge no_data" id="kpi-availability-status">no data</span></div>
      </div>
      <div class="kpi-card">
        <div class="label">Performance</div>
        <div class="value" id="kpi-performance">&ndash;</div>
        <div class="sub"><span class="badge no_data" id="kpi-performance-status">no data</span></div>
      </div>
      <div class="kpi-card">
        <div class="label">Quality</div>
        <div class="value" id="kpi-quality">&ndash;</div>
        <div class="sub"><span class="badge no_data" id="kpi-quality-status">no data</span></div>
      </div>
    </div>

    <div class="panel">
      <h2>Daily OEE trend</h2>
      <div class="body">
        <table>
          <thead>
            <tr>
              <th>Day</th>
              <th class="num">Planned min</th>
              <th class="num">Running min</th>
              <th class="num">Units</th>
              <th class="num">Good</th>
              <th class="num">Availability</th>
              <th class="num">Performance</th>
              <th class="num">Quality</th>
              <th>OEE</th>
            </tr>
          </thead>
          <tbody id="daily-body"><tr><td colspan="9" class="muted">loading&hellip;</td></tr></tbody>
        </table>
      </div>
    </div>

    <div class="panel">
      <h2>Downtime Pareto</h2>
      <div class="body">
        <table>
          <thead>
            <tr>
              <th>#</th>
              <th>Cause</th>
              <th class="num">Minutes</th>
              <th>Share of top cause</th>
              <th class="num">Cumulative</th>
            </tr>
          </thead>
          <tbody id="pareto-body"><tr><td colspan="5" class="muted">loading&hellip;</td></tr></tbody>
        </table>
        <div class="status-line">Causes up to the 80% cumulative line are the vital few.</div>
      </div>
    </div>

    <div class="panel">
      <h2>SPC x&#772;/R summary</h2>
      <div class="body">
        <table>
          <thead>
            <tr>
              <th class="num">Samples</th>
              <th class="num">Avg x&#772;</th>
              <th class="num">Avg R</th>
              <th class="num">Max R</th>
              <th>Status</th>
            </tr>
          </thead>
          <tbody id="spc-body"><tr><td colspan="5" class="muted">loading&hellip;</td></tr></tbody>
        </table>
      </div>
    </div>

    <div class="panel">
      <h2>Insights</h2>
      <div class="body">
        <ul class="insights" id="insights-list"><li class="muted">loading&hellip;</li></ul>
      </div>
    </div>

    <footer class="container">
      <span id="services-note">&nbsp;</span>
    </footer>
  </main>

  <script>
    const text = (id, v) => document.getElementById(id).textContent = v;
    const html = (id, v) => document.getElementById(id).innerHTML = v;
    const q = (s) => document.querySelector(s);

    async function fetchJSON(url, opts) {
      const r = await fetch(url, opts);
      const body = await r.json();
      if (!r.ok) throw new Error(body.error || ('HTTP ' + r.status));
      return body;
    }

    const esc = (s) => String(s)
      .replaceAll('&', '&amp;').replaceAll('<', '&lt;').replaceAll('>', '&gt;').replaceAll('"', '&quot;');

    const pct = (v) => (v === null || v === undefined) ? '&ndash;' : (v * 100).toFixed(1) + '%';

    function setBadge(id, status) {
      const el = document.getElementById(id);
      el.className = 'badge ' + status;
      el.textContent = status.replace('_', ' ');
    }

    function selectedShifts() {
      const boxes = Array.from(document.querySelectorAll('#shift-boxes input'));
      const picked = boxes.filter((b) => b.checked).map((b) => b.value);
      if (picked.length === boxes.length) return null;
      return picked;
    }

    function filterQuery() {
      const params = new URLSearchParams();
      const machine = q('#machine-select').value;
      if (machine) params.set('machine', machine);
      const shifts = selectedShifts();
      if (shifts !== null) params.set('shifts', shifts.join(','));
      const from = q('#from-date').value;
      const to = q('#to-date').value;
      if (from) params.set('from', from);
      if (to) params.set('to', to);
      const s = params.toString();
      return s ? '?' + s : '';
    }

    async function loadMeta() {
      const body = await fetchJSON('/api/v1/meta');
      const d = body.data;
      text('meta-note', d.minute_records + ' minute records | ' + d.first_day + ' to ' + d.last_day +
        ' | source ' + body.meta.source);

      const sel = q('#machine-select');
      sel.innerHTML = '';
      for (const m of d.machines) {
        const opt = document.createElement('option');
        opt.value = m;
        opt.textContent = m;
        sel.appendChild(opt);
      }

      const boxes = q('#shift-boxes');
      boxes.innerHTML = '';
      for (const s of d.shifts) {
        const label = document.createElement('label');
        const box = document.createElement('input');
        box.type = 'checkbox';
        box.value = s;
        box.checked = true;
        label.appendChild(box);
        label.appendChild(document.createTextNode(' ' + s));
        boxes.appendChild(label);
      }

      if (d.first_day) q('#from-date').value = d.first_day;
      if (d.last_day) q('#to-date').value = d.last_day;
    }

    async function loadKPIs() {
      const body = await fetchJSON('/api/v1/oee/kpis' + filterQuery());
      const k = body.data;
      html('kpi-oee', pct(k.avg_oee));
      html('kpi-availability', pct(k.avg_availability));
      html('kpi-performance', pct(k.avg_performance));
      html('kpi-quality', pct(k.avg_quality));
      setBadge('kpi-oee-status', k.oee_status);
      setBadge('kpi-availability-status', k.availability_status);
      setBadge('kpi-performance-status', k.performance_status);
      setBadge('kpi-quality-status', k.quality_status);
    }

    async function loadDaily() {
      const body = await fetchJSON('/api/v1/oee/daily' + filterQuery());
      const rows = body.data;
      if (!rows.length) {
        html('daily-body', '<tr><td colspan="9" class="muted">no production minutes match the selection</td></tr>');
        return;
      }
      html('daily-body', rows.map((r) => {
        const w = r.oee === null ? 0 : Math.min(100, r.oee * 100);
        return '<tr>' +
          '<td>' + esc(r.day) + '</td>' +
          '<td class="num">' + r.planned_min + '</td>' +
          '<td class="num">' + r.running_min + '</td>' +
          '<td class="num">' + r.total_units + '</td>' +
          '<td class="num">' + r.good_units + '</td>' +
          '<td class="num">' + pct(r.availability) + '</td>' +
          '<td class="num">' + pct(r.performance) + '</td>' +
          '<td class="num">' + pct(r.quality) + '</td>' +
          '<td><span class="bar-track"><span class="bar-fill" style="width:' + w + '%"></span></span>' + pct(r.oee) + '</td>' +
          '</tr>';
      }).join(''));
    }

    async function loadPareto() {
      const body = await fetchJSON('/api/v1/downtime/pareto' + filterQuery());
      const rows = body.data;
      if (!rows.length) {
        html('pareto-body', '<tr><td colspan="5" class="muted">no downtime recorded for this machine</td></tr>');
        return;
      }
      const max = rows[0].minutes || 1;
      html('pareto-body', rows.map((r, i) => {
        const w = Math.min(100, (r.minutes / max) * 100);
        const cw = r.cum_pct === null ? 0 : Math.min(100, r.cum_pct * 100);
        return '<tr>' +
          '<td>' + (i + 1) + '</td>' +
          '<td>' + esc(r.cause) + '</td>' +
          '<td class="num">' + r.minutes.toFixed(0) + '</td>' +
          '<td><span class="bar-track"><span class="bar-fill" style="width:' + w + '%"></span></span></td>' +
          '<td class="num"><span class="bar-track"><span class="bar-fill cum" style="width:' + cw + '%"></span></span>' + pct(r.cum_pct) + '</td>' +
          '</tr>';
      }).join(''));
    }

    async function loadSPC() {
      const body = await fetchJSON('/api/v1/spc/summary' + filterQuery());
      const s = body.data.summary;
      const fmt = (v) => (v === null || v === undefined) ? '&ndash;' : v.toFixed(3);
      html('spc-body', '<tr>' +
        '<td class="num">' + s.sample_count + '</td>' +
        '<td class="num">' + fmt(s.avg_xbar) + '</td>' +
        '<td class="num">' + fmt(s.avg_range) + '</td>' +
        '<td class="num">' + fmt(s.max_range) + '</td>' +
        '<td>' + esc(body.data.process_status) + '</td>' +
        '</tr>');
    }

    async function loadInsights() {
      const body = await fetchJSON('/api/v1/insights' + filterQuery());
      html('insights-list', body.data.insights.map((s) => '<li>' + esc(s) + '</li>').join(''));
    }

    async function loadServicesStatus() {
      try {
        const body = await fetchJSON('/api/v1/status/services');
        const src = body.services.dataset_source;
        const cache = body.services.cache;
        text('services-note', 'source ' + (src.source || 'n/a') + (src.ok ? ' (ok)' : ' (down)') +
          ' | cache ' + cache.backend + (cache.ok ? ' (ok)' : ' (down)'));
      } catch (err) {
        text('services-note', 'status unavailable: ' + err.message);
      }
    }

    async function load() {
      try {
        await Promise.all([loadKPIs(), loadDaily(), loadPareto(), loadSPC(), loadInsights()]);
      } catch (err) {
        text('meta-note', 'error: ' + err.message);
      }
    }

    q('#apply-btn').addEventListener('click', load);
    q('#reload-btn').addEventListener('click', async () => {
      try {
        await fetchJSON('/api/v1/dataset/reload', { method: 'POST' });
        await loadMeta();
        await load();
      } catch (err) {
        text('meta-note', 'reload failed: ' + err.message);
      }
    });

    loadMeta().then(load);
    setInterval(loadServicesStatus, 30000);
    loadServicesStatus();
  </script>
</body>
</html>`
