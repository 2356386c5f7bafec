// Package parser turns raw client and shell output into structured values.
//
// Runners hand (name, output) pairs to a Parser and keep whatever it returns
// next to the raw text. Two parsers are provided: IO decodes the single JSON
// object the client prints for every operation, and Lines splits command
// output into lines and whitespace-separated fields. A Registry dispatches by
// name with a fallback for names without a dedicated parser.
package parser
