package output

import (
	"encoding/json"
	"html/template"
	"io"
	"os"

	"github.com/cognicore/iqtibas/pkg/iqtibas"
)

// viewerTemplate is a self-contained results page: the JSON payload is
// embedded verbatim and rendered client-side, so the file works from
// disk without a server.
const viewerTemplate = `<!DOCTYPE html>
<html lang="en" dir="ltr">
<head>
<meta charset="utf-8">
<title>Text reuse: book {{.BookA}} ↔ book {{.BookB}}</title>
<style>
body { font-family: sans-serif; margin: 2rem auto; max-width: 72rem; color: #222; }
h1 { font-size: 1.4rem; }
table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
th, td { border: 1px solid #ccc; padding: 0.3rem 0.6rem; text-align: right; }
th { background: #f2f2f2; }
td.text { text-align: right; direction: rtl; font-size: 1.1rem; }
.summary { margin: 1rem 0; }
</style>
</head>
<body>
<h1>Text reuse: book {{.BookA}} ↔ book {{.BookB}}</h1>
<div class="summary" id="summary"></div>
<table id="edges"><thead><tr>
<th>id</th><th>source</th><th>target</th><th>length</th><th>core</th><th>coverage</th><th>weight</th><th>source text</th>
</tr></thead><tbody></tbody></table>
<script id="payload" type="application/json">{{.Payload}}</script>
<script>
const data = JSON.parse(document.getElementById("payload").textContent);
const s = data.summary;
document.getElementById("summary").textContent =
  data.summary.edge_count + " edges, " + s.total_aligned_tokens + " aligned tokens, " +
  "coverage A " + (s.book_a_coverage * 100).toFixed(1) + "%, " +
  "coverage B " + (s.book_b_coverage * 100).toFixed(1) + "%";
const tbody = document.querySelector("#edges tbody");
for (const e of data.edges) {
  const row = tbody.insertRow();
  const loc = (p, o) => p.part + ":" + p.page + "." + o;
  row.insertCell().textContent = e.id;
  row.insertCell().textContent = loc(e.source_start_page, e.source_start_offset) + "–" + loc(e.source_end_page, e.source_end_offset);
  row.insertCell().textContent = loc(e.target_start_page, e.target_start_offset) + "–" + loc(e.target_end_page, e.target_end_offset);
  row.insertCell().textContent = e.aligned_length;
  row.insertCell().textContent = (e.core_similarity * 100).toFixed(1) + "%";
  row.insertCell().textContent = (e.span_coverage * 100).toFixed(1) + "%";
  row.insertCell().textContent = e.content_weight.toFixed(2);
  const cell = row.insertCell();
  cell.className = "text";
  cell.textContent = e.source_text ? e.source_text.matched : "";
}
</script>
</body>
</html>
`

var viewerTmpl = template.Must(template.New("viewer").Parse(viewerTemplate))

// WriteViewerHTML writes the self-contained HTML viewer for a result.
func WriteViewerHTML(w io.Writer, result *iqtibas.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return viewerTmpl.Execute(w, struct {
		BookA   uint32
		BookB   uint32
		Payload template.JS
	}{
		BookA:   result.BookA.ID,
		BookB:   result.BookB.ID,
		Payload: template.JS(payload),
	})
}

// WriteViewerHTMLFile writes the HTML viewer to a file.
func WriteViewerHTMLFile(path string, result *iqtibas.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteViewerHTML(f, result)
}
