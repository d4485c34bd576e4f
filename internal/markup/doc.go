// Package markup converts documents written in the site's markdown dialect
// into a tree of HTML nodes.
//
// Conversion happens in two stages. The block stage splits a document on
// blank lines and classifies every block (paragraph, heading, fenced code,
// quote, unordered list, ordered list). The inline stage turns the text of a
// block into spans (plain text, bold, italic, inline code, link, image).
// Spans become leaf nodes, blocks become container nodes, and everything is
// collected under a single root container whose HTML method serialises the
// whole document.
//
// The dialect is fixed. Inline formatting does not nest: once a span has been
// classified it is never scanned again, so "**_x_**" renders a bold "_x_".
// Output is not sanitised.
package markup
