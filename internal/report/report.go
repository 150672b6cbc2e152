// Package report renders classified items into the monthly digest email.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/jaytaylor/html2text"

	"github.com/deusflow/eyewear-digest/internal/news"
)

const untitled = "(no title)"

// Email is a rendered digest ready for the mailer.
type Email struct {
	Subject string
	HTML    string
	Text    string
}

type itemView struct {
	Title   string
	Link    string
	Summary string
}

type sectionView struct {
	Name  string
	Items []itemView
}

type publicationView struct {
	Name     string
	Sections []sectionView
}

type digestView struct {
	Heading      string
	Period       string
	Publications []publicationView
}

var digestTemplate = template.Must(template.New("digest").Parse(`<div style="font-family:system-ui,-apple-system,Segoe UI,Roboto,Arial,sans-serif; line-height:1.6">
<h2>{{.Heading}}</h2>
<p style="color:#555">Period: {{.Period}}</p>
{{- range .Publications}}
<h3 style="margin-top:20px">{{.Name}}</h3>
{{- range .Sections}}
<h4 style="margin:14px 0 6px">{{.Name}}</h4>
<ul>
{{- range .Items}}
<li><a href="{{.Link}}">{{.Title}}</a>{{if .Summary}}<br><span style="color:#444">{{.Summary}}</span>{{end}}</li>
{{- end}}
</ul>
{{- end}}
{{- end}}
{{- if not .Publications}}
<p>No coverage was collected for this period.</p>
{{- end}}
<p style="margin-top:20px;color:#777">Automatically generated report</p>
</div>
`))

// Subject formats the mail subject for a reporting window.
func Subject(title string, w news.Window) string {
	return fmt.Sprintf("%s — %s Summary", title, w.Start.Format("2006.01"))
}

// Build renders the digest. Publications without any item are skipped, as
// are empty sections; sections keep the Trends, New Products, Brands order.
func Build(classified []news.Classified, w news.Window, title string) (Email, error) {
	view := digestView{
		Heading: "Monthly eyewear press summary",
		Period:  w.String(),
	}

	for _, c := range classified {
		if c.Buckets.Len() == 0 {
			continue
		}
		pub := publicationView{Name: c.Publication}
		for _, s := range news.Sections {
			items := c.Buckets[s]
			if len(items) == 0 {
				continue
			}
			sv := sectionView{Name: string(s)}
			for _, it := range items {
				sv.Items = append(sv.Items, newItemView(it))
			}
			pub.Sections = append(pub.Sections, sv)
		}
		view.Publications = append(view.Publications, pub)
	}

	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, view); err != nil {
		return Email{}, fmt.Errorf("render html: %w", err)
	}
	html := buf.String()

	text, err := html2text.FromString(html, html2text.Options{OmitLinks: false})
	if err != nil {
		return Email{}, fmt.Errorf("render text: %w", err)
	}

	return Email{
		Subject: Subject(title, w),
		HTML:    html,
		Text:    text,
	}, nil
}

func newItemView(it news.Item) itemView {
	v := itemView{
		Title:   strings.TrimSpace(it.Title),
		Link:    strings.TrimSpace(it.Link),
		Summary: it.Summary,
	}
	if v.Title == "" {
		v.Title = untitled
	}
	if v.Link == "" {
		v.Link = "#"
	}
	return v
}
