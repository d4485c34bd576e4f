// Package markdown loads Markdown documents from a filesystem, separates
// their optional front matter, and renders the body through either the
// native converter or goldmark.
package markdown
