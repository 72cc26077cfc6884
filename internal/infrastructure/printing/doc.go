// Package printing renders proposals to HTML with html/template and to PDF
// through headless Chrome (chromedp).
//
//	renderer, err := NewChromedpRenderer(&ChromedpConfig{ExecPath: "/usr/bin/chromium"})
//	printer, err := NewProposalPrinter(renderer, "비즈컨설팅")
//	pdf, err := printer.PDF(ctx, p)
package printing
