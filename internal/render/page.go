package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"text/tabwriter"
)

//go:embed templates/page.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/page.html"))

// Page is the data the HTML page is rendered from. A nil View renders the
// form alone.
type Page struct {
	Query string
	View  *View
}

// HTML writes the full widget page.
func HTML(w io.Writer, p Page) error {
	if err := pageTmpl.Execute(w, p); err != nil {
		return fmt.Errorf("executing page template: %w", err)
	}
	return nil
}

// Text writes v as an aligned plain-text block. A nil view writes nothing.
func Text(w io.Writer, v *View) error {
	if v == nil {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\n", v.Header)
	fmt.Fprintf(tw, "%s\t%s\n", v.Temperature, v.Description)
	fmt.Fprintf(tw, "Icon\t%s\n", v.IconURL)
	for _, f := range v.Details {
		fmt.Fprintf(tw, "%s\t%s\n", f.Label, f.Value)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing view: %w", err)
	}
	return nil
}
