package ui

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/me/neurolens/pkg/model"
)

// Template functions available in all templates.
var templateFuncs = template.FuncMap{
	"formatTimePtr": func(t *time.Time) string {
		if t == nil || t.IsZero() {
			return "-"
		}
		return t.Format("2006-01-02 15:04:05")
	},
	"ago": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return humanize.Time(t)
	},
	"stateColor": func(state model.RunState) string {
		switch state {
		case model.RunStateUploaded:
			return "yellow"
		case model.RunStateRunning:
			return "blue"
		case model.RunStateCompleted:
			return "green"
		case model.RunStateFailed:
			return "red"
		default:
			return "gray"
		}
	},
	"bannerClass": func(level model.BannerLevel) string {
		switch level {
		case model.BannerSuccess:
			return "bg-green-50 text-green-800 border-green-200"
		case model.BannerWarning:
			return "bg-yellow-50 text-yellow-800 border-yellow-200"
		case model.BannerError:
			return "bg-red-50 text-red-800 border-red-200"
		default:
			return "bg-blue-50 text-blue-800 border-blue-200"
		}
	},
	"add": func(a, b int) int {
		return a + b
	},
	"toJSON": func(v any) template.JS {
		b, err := json.Marshal(v)
		if err != nil {
			return template.JS("null")
		}
		return template.JS(b)
	},
}

// parseComponents adds every shared component to tmpl.
func parseComponents(tmpl *template.Template) error {
	for name, content := range templates {
		if !strings.HasPrefix(name, "components/") {
			continue
		}
		if _, err := tmpl.New(name).Parse(content); err != nil {
			return fmt.Errorf("parse component %s: %w", name, err)
		}
	}
	return nil
}

// renderTemplate renders a page inside the layout.
func renderTemplate(w io.Writer, name string, data map[string]any) error {
	content, ok := templates[name]
	if !ok {
		return fmt.Errorf("template not found: %s", name)
	}
	layout, ok := templates["layout"]
	if !ok {
		return fmt.Errorf("layout template not found")
	}

	tmpl, err := template.New("layout").Funcs(templateFuncs).Parse(layout)
	if err != nil {
		return fmt.Errorf("parse layout: %w", err)
	}
	if _, err = tmpl.New("content").Parse(content); err != nil {
		return fmt.Errorf("parse content: %w", err)
	}
	if err := parseComponents(tmpl); err != nil {
		return err
	}
	return tmpl.Execute(w, data)
}

// renderComponent renders a single component without the layout.
func renderComponent(w io.Writer, name string, data map[string]any) error {
	if _, ok := templates["components/"+name]; !ok {
		return fmt.Errorf("component not found: %s", name)
	}
	tmpl := template.New("root").Funcs(templateFuncs)
	if err := parseComponents(tmpl); err != nil {
		return err
	}
	return tmpl.ExecuteTemplate(w, name, data)
}

// templates holds all template content.
var templates = map[string]string{
	"layout": `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <script src="https://cdn.tailwindcss.com"></script>
</head>
<body class="bg-gray-50 min-h-screen"{{with .Background}} style="background-image: url('/assets/{{.}}'); background-size: cover; background-attachment: fixed;"{{end}}>
    {{if and .LogoutLink .Session}}{{if .Session.IsAuthenticated}}
    <nav class="bg-white shadow-sm border-b">
        <div class="max-w-3xl mx-auto px-4 flex justify-between h-14 items-center">
            <a href="/" class="text-lg font-bold text-indigo-600">OpenNeuroLens</a>
            <div class="flex items-center space-x-4">
                {{if .Page.SyntheticExplorer}}<a href="/signals" class="text-sm text-gray-500 hover:text-gray-700">Signal Explorer</a>{{end}}
                <span class="text-sm text-gray-500">{{.Session.Username}}</span>
                <a href="/logout" class="text-sm text-gray-500 hover:text-gray-700">Logout</a>
            </div>
        </div>
    </nav>
    {{end}}{{end}}

    <main class="max-w-3xl mx-auto py-6 px-4">
        {{template "content" .}}
    </main>
</body>
</html>`,

	"login": `{{define "content"}}
<div class="flex items-center justify-center py-12">
    <div class="max-w-md w-full space-y-6 bg-white/90 p-6 rounded-lg shadow">
        {{with .Logo}}<img src="/assets/{{.}}" alt="OpenNeuroLens" class="mx-auto w-48">{{end}}
        {{template "banners" .BrandingBanners}}
        <h2 class="text-center text-2xl font-extrabold text-gray-900">Login page</h2>
        {{template "banners" .Banners}}
        <form class="space-y-4" action="/login" method="POST">
            <div>
                <label for="username" class="block text-sm font-medium text-gray-700">Username</label>
                <input id="username" name="username" type="text"
                       class="mt-1 block w-full px-3 py-2 border border-gray-300 rounded-md sm:text-sm">
            </div>
            <div>
                <label for="password" class="block text-sm font-medium text-gray-700">Password</label>
                <input id="password" name="password" type="password"
                       class="mt-1 block w-full px-3 py-2 border border-gray-300 rounded-md sm:text-sm">
            </div>
            <button type="submit"
                    class="w-full py-2 px-4 text-sm font-medium rounded-md text-white bg-indigo-600 hover:bg-indigo-700">
                Login
            </button>
        </form>
        <p class="text-xs text-gray-500 text-center">{{.Notice}}</p>
    </div>
</div>
{{end}}`,

	"gate": `{{define "content"}}
<div class="py-12">
    {{template "banners" .Banners}}
</div>
{{end}}`,

	"logout": `{{define "content"}}
<div class="py-12">
    {{template "banners" .Banners}}
    <p class="mt-4 text-sm"><a href="/login" class="text-indigo-600 hover:text-indigo-800">Login page</a></p>
</div>
{{end}}`,

	"error": `{{define "content"}}
<div class="py-12">
    {{template "banners" .Banners}}
    <p class="mt-4 text-sm"><a href="/" class="text-indigo-600 hover:text-indigo-800">Back to the dashboard</a></p>
</div>
{{end}}`,

	"index": `{{define "content"}}
<div class="space-y-8">
    <div class="text-center bg-white/90 p-4 rounded-lg shadow">
        {{with .Logo}}<img src="/assets/{{.}}" alt="OpenNeuroLens" class="mx-auto w-48">{{end}}
        {{template "banners" .BrandingBanners}}
        <h1 class="text-3xl font-bold text-gray-900">OpenNeuroLens (Demo)</h1>
        <p class="mt-1 text-gray-600">Low-cost, high-quality EEG analysis platform</p>
    </div>

    <section class="bg-white p-4 rounded-lg shadow space-y-4">
        <h2 class="text-xl font-semibold">Upload and Process EEG Data</h2>
        {{template "banners" .UploadBanners}}
        <form action="/upload" method="POST" enctype="multipart/form-data" class="space-y-4">
            <input type="file" name="file" accept="{{.Accept}}" class="block w-full text-sm">
            {{with .ConfigGroups}}{{template "config_panel" .}}{{end}}
            <button type="submit" class="py-2 px-4 text-sm font-medium rounded-md text-white bg-indigo-600 hover:bg-indigo-700">Upload</button>
        </form>
        {{with .LatestRun}}
        <p class="text-sm text-gray-600">
            Latest upload: <a href="/runs/{{.ID}}" class="text-indigo-600">{{.FileName}}</a>
            <span class="text-{{stateColor .State}}-700">{{.State}}</span> {{ago .CreatedAt}}
        </p>
        {{end}}
    </section>

    <section class="bg-white p-4 rounded-lg shadow space-y-4">
        <h2 class="text-xl font-semibold">Select EEG Dataset</h2>
        <form action="/" method="GET" class="flex flex-wrap gap-4 items-center">
            {{$selected := .Selected}}
            {{range .Datasets}}
            <label class="text-sm"><input type="radio" name="dataset" value="{{.}}"{{if eq . $selected}} checked{{end}}> {{.}}</label>
            {{end}}
            <button type="submit" class="py-1 px-3 text-sm rounded-md border border-gray-300">Show</button>
        </form>
        {{template "banners" .ExampleBanners}}
        {{with .Example}}
        {{template "banners" .Banners}}
        {{template "images" .Images}}
        {{with .Workbook}}{{template "workbook" .}}{{end}}
        {{end}}
    </section>
</div>
{{end}}`,

	"run": `{{define "content"}}
<div class="space-y-6">
    {{template "banners" .Banners}}
    {{with .Run}}
    <div class="bg-white p-4 rounded-lg shadow">
        <p class="text-sm text-gray-600">
            Run <code>{{.ID}}</code>
            <span class="text-{{stateColor .State}}-700 font-medium">{{.State}}</span>
            uploaded {{ago .CreatedAt}}, finished {{formatTimePtr .CompletedAt}}
        </p>
    </div>
    {{end}}

    <section class="bg-white p-4 rounded-lg shadow space-y-3">
        <form id="process-form" action="/runs/{{.Run.ID}}/process" method="POST">
            <button type="submit" class="py-2 px-4 text-sm font-medium rounded-md text-white bg-indigo-600 hover:bg-indigo-700">Process</button>
        </form>
        <div class="w-full bg-gray-200 rounded h-3">
            <div id="progress-bar" class="bg-indigo-600 h-3 rounded" style="width: {{.Run.Progress}}%"></div>
        </div>
        <p id="progress-text" class="text-sm text-gray-700">{{.StatusText}}</p>
    </section>

    <section id="results">
        {{with .Results}}{{template "results_view" $}}{{end}}
    </section>
</div>
<script>
(function() {
    const runID = {{toJSON .Run.ID}};
    const form = document.getElementById('process-form');
    const bar = document.getElementById('progress-bar');
    const text = document.getElementById('progress-text');
    if (!window.EventSource) return;
    form.addEventListener('submit', function(ev) {
        ev.preventDefault();
        form.querySelector('button').disabled = true;
        document.getElementById('results').innerHTML = '';
        const source = new EventSource('/api/v1/sse/runs/' + runID);
        source.addEventListener('progress', function(e) {
            const p = JSON.parse(e.data);
            bar.style.width = p.percent + '%';
            text.textContent = p.text;
        });
        source.addEventListener('complete', function(e) {
            const c = JSON.parse(e.data);
            source.close();
            text.textContent = c.text;
            fetch('/runs/' + runID + '/results')
                .then(function(r) { return r.text(); })
                .then(function(html) { document.getElementById('results').innerHTML = html; });
        });
        source.addEventListener('error', function() {
            source.close();
            form.querySelector('button').disabled = false;
        });
    });
})();
</script>
{{end}}`,

	"signals": `{{define "content"}}
<div class="space-y-6">
    <h1 class="text-2xl font-bold text-gray-900">Select EEG Dataset</h1>
    <form action="/signals" method="GET" class="bg-white p-4 rounded-lg shadow space-y-4">
        <div class="flex gap-4">
            {{$label := .Label}}
            {{range .Labels}}
            <label class="text-sm"><input type="radio" name="label" value="{{.}}"{{if eq . $label}} checked{{end}}> {{.}}</label>
            {{end}}
        </div>
        {{template "banners" .Banners}}
        <h2 class="text-lg font-semibold">Show EEG Figures</h2>
        <div class="grid grid-cols-2 gap-2">
            {{range .Figures}}
            <label class="text-sm"><input type="checkbox" name="fig" value="{{.N}}"{{if .Checked}} checked{{end}}> Show Figure {{.N}}</label>
            {{end}}
        </div>
        <label class="text-sm block"><input type="checkbox" name="table" value="1"{{if .ShowTable}} checked{{end}}> Show analysis results table (xlsx preview)</label>
        <button type="submit" class="py-1 px-3 text-sm rounded-md border border-gray-300">Update</button>
    </form>

    {{range .Figures}}{{if .Checked}}
    <figure class="bg-white p-2 rounded-lg shadow">
        <img src="/signals/{{$label}}/{{.N}}.png" alt="{{.Title}}" class="w-full">
        <figcaption class="text-center text-sm text-gray-600">{{.Title}}</figcaption>
    </figure>
    {{end}}{{end}}

    {{if .ShowTable}}
    <section class="bg-white p-4 rounded-lg shadow">
        <h2 class="text-lg font-semibold mb-2">Multi-Tab Table Preview</h2>
        {{template "workbook" .Table}}
    </section>
    {{end}}
</div>
{{end}}`,

	"components/banners": `{{define "banners"}}{{range .}}
<div class="rounded-md border p-3 my-2 text-sm {{bannerClass .Level}}" role="status" data-level="{{.Level}}">{{.Message}}</div>
{{end}}{{end}}`,

	"components/notice": `{{define "notice"}}{{template "banners" .Banners}}{{end}}`,

	"components/images": `{{define "images"}}{{range .}}
<figure class="my-4">
    <img src="/assets/{{.Path}}" alt="{{.Caption}}" class="w-full rounded">
    <figcaption class="text-center text-sm text-gray-600">{{.Caption}}</figcaption>
</figure>
{{end}}{{end}}`,

	"components/workbook": `{{define "workbook"}}
<div class="space-y-2">
    {{range $i, $sheet := .Sheets}}
    <details class="border rounded"{{if eq $i 0}} open{{end}}>
        <summary class="px-3 py-2 cursor-pointer font-medium">{{$sheet.Name}}</summary>
        <div class="overflow-x-auto">
            <table class="min-w-full text-sm">
                <thead class="bg-gray-50">
                    <tr>{{range $sheet.Columns}}<th class="px-3 py-1 text-left font-medium text-gray-700">{{.}}</th>{{end}}</tr>
                </thead>
                <tbody>
                    {{range $sheet.Rows}}<tr class="border-t">{{range .}}<td class="px-3 py-1">{{.}}</td>{{end}}</tr>{{end}}
                </tbody>
            </table>
        </div>
    </details>
    {{end}}
</div>
{{end}}`,

	"components/results_view": `{{define "results_view"}}{{with .Results}}
<div class="bg-white p-4 rounded-lg shadow space-y-4">
    <h2 class="text-xl font-semibold">Results</h2>
    {{template "banners" .Banners}}
    {{template "images" .Images}}
    {{with .Workbook}}
    <h3 class="text-lg font-semibold">EEG Summary</h3>
    {{template "workbook" .}}
    {{end}}
</div>
{{end}}{{end}}`,

	"components/config_panel": `{{define "config_panel"}}
<details class="border rounded p-3">
    <summary class="cursor-pointer font-medium">Analysis configuration</summary>
    {{range .}}
    <fieldset class="mt-3">
        <legend class="font-medium text-sm text-gray-800">{{.Title}}</legend>
        {{range .Options}}
        <label class="block text-sm text-gray-700 mt-1" title="{{.Help}}">{{.Label}}
            <select name="{{.Name}}" class="ml-2 border border-gray-300 rounded text-sm">
                {{$def := .DefaultChoice}}
                {{range .Choices}}<option{{if eq . $def}} selected{{end}}>{{.}}</option>{{end}}
            </select>
        </label>
        {{end}}
    </fieldset>
    {{end}}
</details>
{{end}}`,
}
