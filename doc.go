// Package htmldoc converts HTML documents to PDF using headless Chromium and
// to DOCX using LibreOffice.
//
// # Quick Start
//
// Create a converter, convert, and close when done:
//
//	conv := htmldoc.NewConverter()
//	defer conv.Close()
//
//	pdf, err := conv.ConvertToPDF(ctx, "report.html", "report.pdf", htmldoc.PDFOptions{})
//	if err != nil {
//	    log.Fatal(htmldoc.FormatError(err))
//	}
//	fmt.Println(pdf.Path, pdf.PageCount)
//
//	docx, err := conv.ConvertToDOCX(ctx, "report.html", "report.docx", htmldoc.DOCXOptions{})
//
// Package-level functions (ConvertToPDF, ConvertToDOCX, CheckDependencies,
// ...) use a default Converter; call CloseBrowser before exiting.
//
// # Conversion Pipeline
//
// PDF:
//
//  1. The shared browser is acquired, launching it on first use
//  2. A page loads the file by URL (or the string as content) and waits
//     for the network to go idle
//  3. A print stylesheet keeping tables and code within the page is added
//  4. The page is printed with the resolved PDFOptions
//
// DOCX runs "soffice --headless --convert-to docx" in its own process group
// and renames the result to the requested path.
//
// Markdown inputs (.md, .markdown) are first rendered to HTML with Goldmark.
//
// # Errors
//
// Every failure is a *ConversionError matching one sentinel (ErrTimeout,
// ErrEngineMissing, ...) with errors.Is. Timeouts carry the stage that
// expired: navigation, content, pdf, docx or launch.
//
// # External Requirements
//
// PDF generation requires Chrome/Chromium. The go-rod library downloads a
// managed Chromium on first run when none is installed. Set ROD_BROWSER_BIN
// to pick a binary. The sandbox is disabled by default; WithNoSandbox(false)
// enables it.
//
// DOCX generation requires LibreOffice. HTMLDOC_SOFFICE_BIN overrides the
// usual install locations and PATH lookup.
package htmldoc
