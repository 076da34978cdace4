// Package payload resolves the free-form JSON payloads of source entities into
// strongly typed records.
//
// Upstream payloads spell the same field in several ways (snake_case,
// camelCase, short forms, nested or flattened curve fields). Every logical
// field has one ordered alias list in aliases.go; the first alias present wins.
// Resolution happens once, at decode time, and nothing downstream ever
// inspects a raw map.
package payload
