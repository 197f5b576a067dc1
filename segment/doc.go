// Package segment parses cleaned document text into ordered structural
// blocks: headings, paragraphs, list-item groups, tables and code blocks.
//
// Marker handling is modeled as an explicit state machine over lines. List
// items belonging to one enumeration merge into a single atomic group, and a
// table's rows merge into a single atomic table block; atomic blocks are
// never divided across chunks downstream. Malformed markup that cannot be
// closed degrades to a plain paragraph block instead of failing the whole
// document.
package segment
