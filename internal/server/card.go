package server

import "html/template"

var cardTemplate = template.Must(template.New("card").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.CrimeType}}</title></head>
<body>
<article class="tip">
  <h2>{{.CrimeType}}</h2>
  <p class="date">{{.Date}}</p>
  <p class="city">{{.City}}</p>
  <p class="description">{{.Description}}</p>
{{- with .Suspect}}
  <section class="suspect">
    <h3>Suspect</h3>
    <p>Name: {{.Name}}</p>
    <p>Age: {{.Age}}</p>
    <p>Gender: {{.Gender}}</p>
  </section>
{{- end}}
{{- with .Victim}}
  <section class="victim">
    <h3>Victim</h3>
    <p>Name: {{.Name}}</p>
    <p>Age: {{.Age}}</p>
    <p>Gender: {{.Gender}}</p>
  </section>
{{- end}}
{{- with .Vehicle}}
  <section class="vehicle">
    <h3>Vehicle</h3>
    <p>State: {{.State}}</p>
    <p>Plate Number: {{.PlateNumber}}</p>
  </section>
{{- end}}
{{- if .ShowMedia}}
  <section class="media">
  {{- range .Media}}
    <img src="{{.}}" alt="evidence">
  {{- end}}
  </section>
{{- end}}
{{- if .ShowFeedbacks}}
  <section class="feedbacks">
  {{- range $i, $f := .Feedbacks}}
    <p>No {{inc $i}} : {{$f}}</p>
  {{- end}}
  </section>
{{- end}}
{{- with .Notice}}
  <p class="notice">{{.}}</p>
{{- end}}
</article>
</body>
</html>
`))
