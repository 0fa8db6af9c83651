// Package render turns report documents into files. HTMLRenderer writes a
// standalone HTML page with section text converted from Markdown and
// sanitized; PDFRenderer prints that page to PDF through headless Chrome.
package render
