// Package assets embeds the stylesheets and templates used during conversion.
//
// Directory layout:
//
//	styles/
//	├── print.css       # injected into every page before print-to-PDF
//	└── markdown.css    # base typography for Markdown sources
//	templates/
//	└── document.html   # standalone HTML wrapper for Markdown sources
//
// Asset names are validated before lookup: no separators, no dots.
package assets
