package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/cnpj-cowork/internal/cnpj"
	"github.com/cnpj-cowork/internal/cowork"
	"github.com/cnpj-cowork/internal/logger"
	"github.com/cnpj-cowork/internal/search"
)

var page = template.Must(template.New("page").Funcs(template.FuncMap{
	"cnpj": cnpj.Format,
}).Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Buscador de CNPJ por Endereço</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
details { margin: .5rem 0; border: 1px solid #ccc; border-radius: 4px; padding: .5rem; }
summary { cursor: pointer; font-weight: bold; }
table { border-collapse: collapse; width: 100%; margin-top: .5rem; }
th, td { border: 1px solid #ddd; padding: 4px 8px; text-align: left; }
.warning { color: #8a6d3b; background: #fcf8e3; padding: .5rem; }
.success { color: #3c763d; background: #dff0d8; padding: .5rem; }
</style>
</head>
<body>
<h1>Buscador de CNPJ por Endereço</h1>
<form method="get" action="/">
  <input type="text" name="bairro" value="{{.Query}}" list="bairros" placeholder="Digite o bairro">
  <datalist id="bairros">{{range .Neighborhoods}}<option value="{{.}}">{{end}}</datalist>
  <button type="submit">Buscar</button>
  {{if and .Result .ExportEnabled}}
  <a href="/api/export?bairro={{.Result.Neighborhood}}&format=csv">CSV</a>
  <a href="/api/export?bairro={{.Result.Neighborhood}}&format=xlsx">XLSX</a>
  {{end}}
</form>
{{with .Warning}}<p class="warning">{{.}}</p>{{end}}
{{with .Result}}
<p class="success">Busca concluída: {{.Rows}} registros em {{len .Streets}} logradouros.</p>
<h2>Resultados da Busca por Logradouro</h2>
{{range .Streets}}
<details>
<summary>Logradouro: {{.Street}} ({{len .Rows}})</summary>
<table>
<tr>{{range $.Columns}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr><td>{{cnpj .CNPJ}}</td><td>{{.Email}}</td><td>{{.StreetType}}</td><td>{{.Street}}</td><td>{{.Neighborhood}}</td><td>{{.Number}}</td><td>{{.Complement}}</td></tr>
{{end}}
</table>
</details>
{{end}}
{{end}}
</body>
</html>
`))

type pageData struct {
	Query         string
	Warning       string
	Neighborhoods []string
	Columns       []string
	Result        *search.Result
	ExportEnabled bool
}

// UIHandler renders the search page
type UIHandler struct {
	Searcher *Searcher
	Config   *Config
}

// Index renders the form and, when ?bairro= is present, the grouped results
func (h *UIHandler) Index(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Query:         r.URL.Query().Get("bairro"),
		Columns:       cowork.Columns,
		ExportEnabled: h.Config.Features.ExportEnabled,
	}

	hoods, err := h.Searcher.Service.Source().Neighborhoods(r.Context())
	if err != nil {
		logger.L().Error("neighborhoods_failed", "err", err)
		data.Warning = "Não foi possível carregar os bairros."
	}
	data.Neighborhoods = hoods

	status := http.StatusOK
	if _, searched := r.URL.Query()["bairro"]; searched {
		result, err := h.Searcher.Lookup(r.Context(), data.Query)
		switch {
		case errors.Is(err, search.ErrEmptyQuery):
			data.Warning = "Digite algo para buscar."
			status = http.StatusBadRequest
		case errors.Is(err, search.ErrUnknownNeighborhood):
			data.Warning = "Bairro não consta no conjunto de dados."
			status = http.StatusNotFound
		case err != nil:
			logger.L().Error("search_failed", "err", err)
			data.Warning = "Erro ao processar a busca."
			status = http.StatusInternalServerError
		case result.Empty():
			data.Warning = "Nenhum endereço compartilhado encontrado neste bairro."
		default:
			data.Result = result
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := page.Execute(w, data); err != nil {
		logger.L().Error("template_failed", "err", err)
	}
}
