// Package pipeline turns Markdown sources into standalone HTML documents
// that the PDF and DOCX engines can load from a temporary directory.
//
// Stages:
//   - Markdown to HTML fragment via goldmark (GFM, footnotes, chroma classes)
//   - relative img, a and stylesheet references rewritten to file:// URLs
//     anchored at the source directory
//   - fragment wrapped in the embedded document template with a base stylesheet
//
// HTML inputs never pass through this package.
package pipeline
