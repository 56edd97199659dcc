package invoice

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

//go:embed templates/invoice.html
var templateFS embed.FS

var invoiceTmpl = template.Must(template.New("invoice.html").Funcs(template.FuncMap{
	"money":    money,
	"quantity": quantity,
}).ParseFS(templateFS, "templates/invoice.html"))

const pageHead = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
@page { size: A4; margin: 20px; }
body { font-family: Arial, Helvetica, sans-serif; font-size: 12px; margin: 0; padding: 0; }
.invoice-copy { page-break-inside: avoid; page-break-after: always; }
.invoice-copy:last-child { page-break-after: auto; }
table { width: 100%; border-collapse: collapse; }
th, td { border: 1px solid #444; padding: 3px 5px; }
td.num, th.num { text-align: right; }
.header { text-align: center; }
.copy-title { text-align: right; font-weight: bold; }
</style>
</head>
<body>`

// HTML renders one copy of the invoice per title into a single document.
func HTML(data *Data, titles []string) ([]byte, error) {
	var out bytes.Buffer
	out.WriteString(pageHead)
	for _, title := range titles {
		copyData := *data
		copyData.CopyTitle = title

		out.WriteString("<div class='invoice-copy'>")
		if err := invoiceTmpl.Execute(&out, &copyData); err != nil {
			return nil, err
		}
		out.WriteString("</div>")
	}
	out.WriteString("</body></html>")
	return out.Bytes(), nil
}

// PDFRenderer prints an HTML document to PDF.
type PDFRenderer interface {
	PDF(ctx context.Context, html []byte) ([]byte, error)
}

// ChromeRenderer prints with headless Chrome.
type ChromeRenderer struct {
	Timeout time.Duration
}

func (c ChromeRenderer) PDF(ctx context.Context, html []byte) ([]byte, error) {
	tmp, err := os.CreateTemp("", "invoice_*.html")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(html); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ctx, cancelChrome := chromedp.NewContext(ctx)
	defer cancelChrome()

	var pdfBuf []byte
	err = chromedp.Run(ctx,
		chromedp.Navigate("file://"+tmp.Name()),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).  // A4 width
				WithPaperHeight(11.7). // A4 height
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuf, nil
}
