// Package markdown turns blog post and comment Markdown into the HTML the
// site serves. Rendering runs goldmark with a fixed extension set, then walks
// the resulting tree to decorate links, headings, code blocks and media,
// expands oEmbed URLs, and builds the table of contents. Comments go through
// an extra pre-clean and an allowlist sanitizer.
package markdown
