package render

import (
	"embed"
	"html/template"
	"io"
	"strings"
)

//go:embed templates/page.html
var templates embed.FS

var pageTemplate = template.Must(
	template.New("page.html").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(templates, "templates/page.html"),
)

// CopiedAckMillis is how long a copy button shows its acknowledgement
const CopiedAckMillis = 1500

// Page is everything the web UI shows for one request
type Page struct {
	Greeting     string
	Draft        string
	Remaining    int
	Allowance    int
	BuddyMessage string
	Error        string
	Result       *View

	Background string
	HostScript []string
}

// CanSubmit mirrors the client-side rule that an empty draft cannot be sent
func (p *Page) CanSubmit() bool {
	return strings.TrimSpace(p.Draft) != ""
}

func (p *Page) CopiedAckMillis() int {
	return CopiedAckMillis
}

func RenderPage(w io.Writer, p *Page) error {
	return pageTemplate.Execute(w, p)
}
